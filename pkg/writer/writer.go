// Package writer persists manifest changes. Writers are small single-purpose
// steps composed into a chain, so a release can write to disk and stage in
// git with one call, and a dry run can swap the whole chain for a preview.
package writer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/relforge/relforge/internal/gitops"
	"github.com/relforge/relforge/pkg/logger"
)

// FileWriter applies one file's new contents.
type FileWriter interface {
	Write(path, contents string) error
}

// Compose chains writers: each write runs them in order and stops at the
// first failure.
func Compose(writers ...FileWriter) FileWriter {
	return composite(writers)
}

type composite []FileWriter

func (c composite) Write(path, contents string) error {
	for _, w := range c {
		if err := w.Write(path, contents); err != nil {
			return err
		}
	}
	return nil
}

// DiskWriter writes contents to the file on disk.
type DiskWriter struct{}

// Write implements FileWriter.
func (DiskWriter) Write(path, contents string) error {
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Debug("Wrote file", logger.String("path", path))
	return nil
}

// DryRunWriter never touches the file; it prints a unified diff of what the
// write would have changed.
type DryRunWriter struct {
	// Out receives the diffs. Defaults to stdout when nil.
	Out io.Writer
}

// Write implements FileWriter.
func (w *DryRunWriter) Write(path, contents string) error {
	old, err := os.ReadFile(path) // #nosec G304 - paths come from our own discovery
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(old)),
		B:        difflib.SplitLines(contents),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("failed to diff %s: %w", path, err)
	}

	logger.Info("Would write file", logger.String("path", path))
	out := w.Out
	if out == nil {
		out = os.Stdout
	}
	if _, err := io.WriteString(out, diff); err != nil {
		return fmt.Errorf("failed to print diff: %w", err)
	}
	return nil
}

// GitAddWriter stages the written file in the repository at Dir.
type GitAddWriter struct {
	Dir string
}

// Write implements FileWriter.
func (w *GitAddWriter) Write(path, _ string) error {
	rel, err := filepath.Rel(w.Dir, path)
	if err != nil {
		return fmt.Errorf("%s is outside repository %s: %w", path, w.Dir, err)
	}
	return gitops.Add(w.Dir, rel)
}

// New selects the writer chain for a run: a diff-printing writer for dry
// runs, otherwise disk writes followed by git staging.
func New(dir string, dryRun bool) FileWriter {
	if dryRun {
		return &DryRunWriter{}
	}
	return Compose(DiskWriter{}, &GitAddWriter{Dir: dir})
}
