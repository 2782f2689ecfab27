package managers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/relforge/relforge/pkg/elempath"
	"github.com/relforge/relforge/pkg/propagation"
	"github.com/relforge/relforge/pkg/semver"
)

// versionInfoPath is the element chain holding the version fields in a
// Lazarus project file.
var versionInfoPath = []string{"CONFIG", "ProjectOptions", "VersionInfo"}

// lazarusElementName maps a version component to its element name inside the
// VersionInfo block.
func lazarusElementName(component semver.Component) string {
	switch component {
	case semver.Major:
		return "MajorVersionNr"
	case semver.Minor:
		return "MinorVersionNr"
	default:
		return "RevisionNr"
	}
}

// matchVersionElement reports which version component the element at path
// declares, if any.
func matchVersionElement(path *elempath.ElementPath) (semver.Component, bool) {
	for _, component := range semver.Components() {
		names := append(append([]string{}, versionInfoPath...), lazarusElementName(component))
		if path.Matches(names) {
			return component, true
		}
	}
	return 0, false
}

// LazarusProcessor rewrites the version fields of a Lazarus .lpi project
// document. The Value attribute of each MajorVersionNr, MinorVersionNr and
// RevisionNr element under CONFIG/ProjectOptions/VersionInfo is set to the
// matching component; version elements absent from the block are inserted at
// its end in major, minor, patch order. Output is re-indented with two spaces
// and ends with a single newline; elements outside the block keep their
// content, but not their original whitespace.
type LazarusProcessor struct{}

// Process implements propagation.ContentProcessor.
func (p *LazarusProcessor) Process(oldContents string, version semver.SemVer) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(oldContents); err != nil {
		return "", fmt.Errorf("failed to parse project XML: %w", err)
	}

	found := semver.ComponentSet(0)
	for _, child := range doc.ChildElements() {
		visitLazarusElement(child, nil, version, &found)
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to serialize project XML: %w", err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

func visitLazarusElement(el *etree.Element, parent *elempath.ElementPath, version semver.SemVer, found *semver.ComponentSet) {
	path := parent.Push(el.Tag)
	if component, ok := matchVersionElement(path); ok {
		found.Add(component)
		el.CreateAttr("Value", formatComponent(version, component))
	}
	for _, child := range el.ChildElements() {
		visitLazarusElement(child, path, version, found)
	}
	if path.Matches(versionInfoPath) {
		for _, missing := range found.Missing() {
			inserted := el.CreateElement(lazarusElementName(missing))
			inserted.CreateAttr("Value", formatComponent(version, missing))
			found.Add(missing)
		}
	}
}

func formatComponent(version semver.SemVer, component semver.Component) string {
	return strconv.FormatUint(uint64(version.ComponentValue(component)), 10)
}

// LazarusUpdater handles Lazarus project files. Discovery is by the .lpi
// extension directly under the root directory.
type LazarusUpdater struct{}

// NewLazarusUpdater creates a new Lazarus updater.
func NewLazarusUpdater() *LazarusUpdater {
	return &LazarusUpdater{}
}

// Name implements propagation.Updater.
func (u *LazarusUpdater) Name() string {
	return "lazarus"
}

// Update implements propagation.Updater.
func (u *LazarusUpdater) Update(root string, version semver.SemVer) ([]propagation.FileChange, error) {
	finder := propagation.NewExtensionFinder("lpi")
	return propagation.UpdateFiles(finder, &LazarusProcessor{}, root, version)
}
