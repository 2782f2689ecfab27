package cmd

import (
	"github.com/spf13/cobra"

	"github.com/relforge/relforge/pkg/exitcode"
	"github.com/relforge/relforge/pkg/logger"
	"github.com/relforge/relforge/pkg/propagation"
	"github.com/relforge/relforge/pkg/semver"
	"github.com/relforge/relforge/pkg/writer"
)

func newSetCmd() *cobra.Command {
	var (
		dir    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "set <version>",
		Short: "Rewrite manifests to an explicit version without touching git",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSet(dir, args[0], dryRun)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "project root directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview changes without writing files")
	return cmd
}

func runSet(dir, versionArg string, dryRun bool) error {
	version, err := semver.Parse(versionArg)
	if err != nil {
		return withCode(exitcode.ValidationError, err)
	}

	policy, err := propagation.LoadPolicy(dir)
	if err != nil {
		return withCode(exitcode.ConfigError, err)
	}

	changes, err := collectChanges(dir, policy, version)
	if err != nil {
		return withCode(exitcode.FileSystemError, err)
	}
	if len(changes) == 0 {
		logger.Warn("No files needed changes")
		return nil
	}

	var w writer.FileWriter = writer.DiskWriter{}
	if dryRun {
		w = &writer.DryRunWriter{}
	}
	for _, change := range changes {
		if err := w.Write(change.Path, change.NewContents); err != nil {
			return withCode(exitcode.FileSystemError, err)
		}
		logger.Info("Updated manifest", logger.String("path", change.Path))
	}
	logger.Info("Set version", logger.String("version", version.String()))
	return nil
}
