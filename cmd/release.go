package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/relforge/relforge/internal/gitops"
	"github.com/relforge/relforge/pkg/exitcode"
	"github.com/relforge/relforge/pkg/logger"
	"github.com/relforge/relforge/pkg/propagation"
	"github.com/relforge/relforge/pkg/propagation/managers"
	"github.com/relforge/relforge/pkg/semver"
	"github.com/relforge/relforge/pkg/writer"
)

func newReleaseCmd() *cobra.Command {
	var (
		dir     string
		message string
		dryRun  bool
		noPush  bool
	)

	cmd := &cobra.Command{
		Use:   "release <major|minor|patch>",
		Short: "Cut a release: bump, rewrite manifests, commit, tag, push",
		Long: `Release resolves the current version from the repository's tags, bumps the
given component, rewrites every discovered manifest, and records the release
as a commit plus an annotated tag. Unless --no-push is given the branch and
tag are pushed with --follow-tags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRelease(dir, args[0], message, dryRun, noPush)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "project root directory")
	cmd.Flags().StringVarP(&message, "message", "m", "", "override the commit and tag message")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview changes without writing files or touching git")
	cmd.Flags().BoolVar(&noPush, "no-push", false, "skip the final push")
	return cmd
}

func runRelease(dir, componentName, message string, dryRun, noPush bool) error {
	component, err := semver.ParseComponent(componentName)
	if err != nil {
		return withCode(exitcode.ValidationError, err)
	}

	policy, err := propagation.LoadPolicy(dir)
	if err != nil {
		return withCode(exitcode.ConfigError, err)
	}

	if !gitops.IsRepository(dir) {
		return withCode(exitcode.GitError, fmt.Errorf("%s is not a git repository", dir))
	}
	if err := checkGuards(dir, policy, dryRun); err != nil {
		return err
	}

	current, found, err := gitops.LatestVersion(dir, policy.TagPrefix)
	if err != nil {
		return withCode(exitcode.GitError, err)
	}
	if !found {
		logger.Info("No version tags found, starting from 0.0.0")
	}
	next := current.Bump(component)
	logger.Info("Releasing",
		logger.String("current", current.String()),
		logger.String("next", next.String()),
		logger.String("bump", component.String()))
	logManifestVersion(dir)

	changes, err := collectChanges(dir, policy, next)
	if err != nil {
		return withCode(exitcode.FileSystemError, err)
	}
	if err := writeChanges(dir, changes, dryRun); err != nil {
		return err
	}

	msg := message
	if msg == "" {
		msg = policy.RenderCommitMessage(next.String())
	}
	tag := policy.TagName(next.String())

	if dryRun {
		logger.Info("Would commit, tag and push",
			logger.String("tag", tag),
			logger.String("message", msg),
			logger.Bool("push", !noPush))
		return nil
	}

	if len(changes) > 0 {
		if err := gitops.Commit(dir, msg); err != nil {
			return withCode(exitcode.GitError, err)
		}
	} else {
		logger.Warn("No manifest declared a version, tagging without a commit")
	}
	if err := gitops.Tag(dir, tag, msg); err != nil {
		return withCode(exitcode.GitError, err)
	}
	logger.Info("Created release tag", logger.String("tag", tag))

	if noPush {
		logger.Info("Skipping push")
		return nil
	}
	if err := gitops.Push(dir); err != nil {
		return withCode(exitcode.GitError, err)
	}
	logger.Info("Pushed release", logger.String("tag", tag))
	return nil
}

func checkGuards(dir string, policy *propagation.ReleasePolicy, dryRun bool) error {
	if len(policy.Guards.RequiredBranches) > 0 {
		branch, err := gitops.CurrentBranch(dir)
		if err != nil {
			return withCode(exitcode.GitError, err)
		}
		allowed := false
		for _, pattern := range policy.Guards.RequiredBranches {
			if matched, err := doublestar.Match(pattern, branch); err == nil && matched {
				allowed = true
				break
			}
		}
		if !allowed {
			return withCode(exitcode.ValidationError,
				fmt.Errorf("branch %q is not allowed to release (required: %v)", branch, policy.Guards.RequiredBranches))
		}
	}

	if policy.Guards.DisallowDirtyWorktree && !dryRun {
		dirty, err := gitops.IsDirty(dir)
		if err != nil {
			return withCode(exitcode.GitError, err)
		}
		if dirty {
			return withCode(exitcode.ValidationError,
				fmt.Errorf("worktree has uncommitted changes, commit or stash them first"))
		}
	}
	return nil
}

// logManifestVersion reports the version Cargo.toml currently declares, which
// can lag behind the tags when a release was cut by hand.
func logManifestVersion(dir string) {
	path := filepath.Join(dir, "Cargo.toml")
	if _, err := os.Stat(path); err != nil {
		return
	}
	declared, err := managers.NewCargoUpdater().ExtractVersion(path)
	if err != nil {
		logger.Debug("Could not extract manifest version", logger.Err(err))
		return
	}
	logger.Debug("Manifest declares version", logger.String("version", declared))
}

func writeChanges(dir string, changes []propagation.FileChange, dryRun bool) error {
	if len(changes) == 0 {
		logger.Warn("No files needed changes")
		return nil
	}
	w := writer.New(dir, dryRun)
	for _, change := range changes {
		if err := w.Write(change.Path, change.NewContents); err != nil {
			return withCode(exitcode.FileSystemError, err)
		}
		logger.Info("Updated manifest", logger.String("path", change.Path))
	}
	return nil
}
