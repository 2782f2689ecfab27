package managers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/relforge/relforge/pkg/propagation"
	"github.com/relforge/relforge/pkg/semver"
)

// VB6Processor rewrites the version properties of a Visual Basic 6 project
// (.vbp) file. MajorVer, MinorVer and RevisionVer assignments are replaced
// with the matching component, keeping the property's original casing. The
// format predates LF-only tooling, so output always uses CR-LF line endings
// regardless of what the input used.
type VB6Processor struct{}

// Process implements propagation.ContentProcessor.
func (p *VB6Processor) Process(oldContents string, version semver.SemVer) (string, error) {
	var builder strings.Builder
	for _, line := range splitLines(oldContents) {
		builder.WriteString(mapVBPLine(line, version))
		builder.WriteString("\r\n")
	}
	return builder.String(), nil
}

func mapVBPLine(line string, version semver.SemVer) string {
	idx := strings.Index(line, "=")
	if idx <= 0 {
		return line
	}
	property := line[:idx]
	switch {
	case strings.EqualFold(property, "MajorVer"):
		return fmt.Sprintf("%s=%d", property, version.Major)
	case strings.EqualFold(property, "MinorVer"):
		return fmt.Sprintf("%s=%d", property, version.Minor)
	case strings.EqualFold(property, "RevisionVer"):
		return fmt.Sprintf("%s=%d", property, version.Patch)
	default:
		return line
	}
}

// expandGroupFile resolves the project references of a .vbg group file to
// paths relative to the group file's directory. Backslash separators are
// converted so the references resolve on any platform.
func expandGroupFile(path, contents string) []string {
	dir := filepath.Dir(path)
	var projects []string
	for _, line := range splitLines(contents) {
		line = strings.TrimSpace(line)
		reference, ok := projectReference(line)
		if !ok {
			continue
		}
		reference = strings.ReplaceAll(reference, "\\", "/")
		project := dir
		for _, segment := range strings.Split(reference, "/") {
			project = filepath.Join(project, segment)
		}
		projects = append(projects, project)
	}
	return projects
}

func projectReference(line string) (string, bool) {
	upper := strings.ToUpper(line)
	if !strings.HasPrefix(upper, "PROJECT=") && !strings.HasPrefix(upper, "STARTUPPROJECT=") {
		return "", false
	}
	idx := strings.Index(line, "=")
	return line[idx+1:], true
}

// VB6Finder locates .vbp project files directly under the root, both
// standalone and referenced from .vbg group files.
type VB6Finder struct{}

// Find implements propagation.FileFinder.
func (f *VB6Finder) Find(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		switch {
		case propagation.HasExtension(path, "vbg"):
			contents, err := propagation.ReadFileText(path)
			if err != nil {
				return nil, err
			}
			files = append(files, expandGroupFile(path, contents)...)
		case propagation.HasExtension(path, "vbp"):
			files = append(files, path)
		}
	}
	return files, nil
}

// VB6Updater handles Visual Basic 6 project and group files.
type VB6Updater struct{}

// NewVB6Updater creates a new VB6 updater.
func NewVB6Updater() *VB6Updater {
	return &VB6Updater{}
}

// Name implements propagation.Updater.
func (u *VB6Updater) Name() string {
	return "vb6"
}

// Update implements propagation.Updater.
func (u *VB6Updater) Update(root string, version semver.SemVer) ([]propagation.FileChange, error) {
	return propagation.UpdateFiles(&VB6Finder{}, &VB6Processor{}, root, version)
}
