// Package gitops wraps the git operations a release needs. Reads go through
// go-git so they work without a git binary; mutations (add, commit, tag,
// push) shell out to git so hooks, signing and credential helpers behave
// exactly as they do on the developer's machine.
package gitops

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/relforge/relforge/pkg/logger"
	"github.com/relforge/relforge/pkg/semver"
)

func open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", dir, err)
	}
	return repo, nil
}

// IsRepository reports whether dir is inside a git repository.
func IsRepository(dir string) bool {
	_, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	return err == nil
}

// CurrentBranch returns the short name of the checked-out branch. A detached
// HEAD is an error: releases are cut from branches.
func CurrentBranch(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", head.Hash().String()[:8])
	}
	return head.Name().Short(), nil
}

// IsDirty reports whether the worktree has uncommitted changes, staged or
// not. Untracked files count as dirty.
func IsDirty(dir string) (bool, error) {
	repo, err := open(dir)
	if err != nil {
		return false, err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to read worktree status: %w", err)
	}
	return !status.IsClean(), nil
}

// TagNames returns the short names of all tags in the repository.
func TagNames(dir string) ([]string, error) {
	repo, err := open(dir)
	if err != nil {
		return nil, err
	}
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return names, nil
}

// LatestVersion scans the repository tags for names of the form
// <prefix><MAJOR.MINOR.PATCH> and returns the highest version found. The
// second return value is false when no tag parses, in which case the caller
// starts from 0.0.0.
func LatestVersion(dir, prefix string) (semver.SemVer, bool, error) {
	names, err := TagNames(dir)
	if err != nil {
		return semver.SemVer{}, false, err
	}
	var latest semver.SemVer
	found := false
	for _, name := range names {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		version, err := semver.Parse(rest)
		if err != nil {
			logger.Debug("Skipping unparseable tag", logger.String("tag", name))
			continue
		}
		if !found || latest.Less(version) {
			latest = version
			found = true
		}
	}
	return latest, found, nil
}

func runGit(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	logger.Debug("Running git", logger.String("args", strings.Join(args, " ")))
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("git %s: %w: %s", args[0], err, detail)
		}
		return fmt.Errorf("git %s: %w", args[0], err)
	}
	return nil
}

// Add stages a path, given relative to the repository root.
func Add(dir, path string) error {
	return runGit(dir, "add", "--", path)
}

// Commit records the staged changes with the given message.
func Commit(dir, message string) error {
	return runGit(dir, "commit", "-m", message)
}

// Tag creates an annotated tag at HEAD.
func Tag(dir, name, message string) error {
	return runGit(dir, "tag", "-m", message, name)
}

// Push pushes the current branch along with the tags that point into it.
func Push(dir string) error {
	return runGit(dir, "push", "--follow-tags")
}
