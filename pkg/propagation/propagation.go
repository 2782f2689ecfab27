// Package propagation implements the manifest rewrite engine: per-format
// updaters that locate version declarations inside project files and replace
// them while leaving every unrelated byte untouched.
package propagation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/relforge/relforge/pkg/logger"
	"github.com/relforge/relforge/pkg/semver"
)

// ContentProcessor rewrites manifest text so that it declares the given
// version. Implementations preserve unrelated content byte for byte; any
// normalization they apply (line endings, indentation) is stable, documented
// behavior of that format.
type ContentProcessor interface {
	Process(oldContents string, version semver.SemVer) (string, error)
}

// FileFinder locates candidate manifest files under a root directory.
type FileFinder interface {
	Find(root string) ([]string, error)
}

// Updater runs one manifest format's discovery and rewrite pipeline.
type Updater interface {
	// Name identifies the format (e.g. "cargo", "vb6") for logs and errors.
	Name() string

	// Update discovers the format's files under root and returns the changes
	// needed to move them to the given version. Files whose content would not
	// change are omitted.
	Update(root string, version semver.SemVer) ([]FileChange, error)
}

// FileChange pairs a file path with its full new contents. It is the unit
// handed to the writer chain.
type FileChange struct {
	Path        string
	NewContents string
}

// ErrInvalidEncoding reports file content that is not valid UTF-8. It is kept
// distinct from I/O errors so callers can tell a bad file from a failed read.
var ErrInvalidEncoding = fmt.Errorf("file content is not valid UTF-8")

// ReadFileText reads a file and returns its content as text, failing with
// ErrInvalidEncoding when the bytes are not valid UTF-8.
func ReadFileText(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - paths come from our own discovery
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, ErrInvalidEncoding)
	}
	return string(data), nil
}

// HasExtension checks whether the path has the given extension (without the
// dot), ignoring case.
func HasExtension(path, extension string) bool {
	ext := filepath.Ext(path)
	if ext == "" {
		return false
	}
	return strings.EqualFold(ext[1:], extension)
}

// ExtensionFinder finds files with a given extension directly under the root
// directory. Sub-directories are not searched.
type ExtensionFinder struct {
	extension string
}

// NewExtensionFinder creates a finder for the given extension (without dot).
func NewExtensionFinder(extension string) *ExtensionFinder {
	return &ExtensionFinder{extension: extension}
}

// Find returns matching files directly under root.
func (f *ExtensionFinder) Find(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if HasExtension(entry.Name(), f.extension) {
			files = append(files, filepath.Join(root, entry.Name()))
		}
	}
	return files, nil
}

// UpdateFiles runs the find→read→process→compare pipeline shared by all
// formats: each discovered file is read once, processed once, and included in
// the result only when its content actually changed.
func UpdateFiles(finder FileFinder, processor ContentProcessor, root string, version semver.SemVer) ([]FileChange, error) {
	files, err := finder.Find(root)
	if err != nil {
		return nil, err
	}
	var changes []FileChange
	for _, file := range files {
		oldContents, err := ReadFileText(file)
		if err != nil {
			return nil, err
		}
		newContents, err := processor.Process(oldContents, version)
		if err != nil {
			return nil, fmt.Errorf("failed to process %s: %w", file, err)
		}
		if oldContents != newContents {
			changes = append(changes, FileChange{Path: file, NewContents: newContents})
		}
	}
	return changes, nil
}

// Composite runs every registered format updater in a fixed, stable order
// and concatenates their change lists. The first failing format aborts the
// whole run; there is no partial-format isolation.
type Composite struct {
	updaters []Updater
	policy   *ReleasePolicy
}

// NewComposite creates a composite over the given updaters, applied in the
// order given. A nil policy disables exclude filtering.
func NewComposite(policy *ReleasePolicy, updaters ...Updater) *Composite {
	return &Composite{updaters: updaters, policy: policy}
}

// Name implements Updater.
func (c *Composite) Name() string {
	return "composite"
}

// Update implements Updater across all registered formats.
func (c *Composite) Update(root string, version semver.SemVer) ([]FileChange, error) {
	var result []FileChange
	for _, updater := range c.updaters {
		changes, err := updater.Update(root, version)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", updater.Name(), err)
		}
		kept := 0
		for _, change := range changes {
			if c.excluded(root, change.Path) {
				logger.Debug("Change excluded by policy", logger.String("file", change.Path))
				continue
			}
			result = append(result, change)
			kept++
		}
		logger.Debug("Format processed",
			logger.String("format", updater.Name()),
			logger.Int("changes", kept))
	}
	return result, nil
}

// excluded checks the change path against the policy exclude globs. Paths are
// matched relative to root with forward slashes.
func (c *Composite) excluded(root, path string) bool {
	if c.policy == nil || len(c.policy.Exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.policy.Exclude {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}
