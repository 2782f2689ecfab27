// Package cmd implements the relforge command-line interface.
package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/relforge/relforge/pkg/exitcode"
	"github.com/relforge/relforge/pkg/logger"
	"github.com/relforge/relforge/pkg/propagation"
	"github.com/relforge/relforge/pkg/propagation/managers"
	"github.com/relforge/relforge/pkg/semver"
)

var (
	logLevel string
	jsonOut  bool
	noColor  bool
)

// NewRootCmd builds the relforge command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relforge",
		Short: "Bump and propagate semantic versions across project manifests",
		Long: `relforge cuts releases for projects whose version lives in manifest files:
Cargo.toml/Cargo.lock, Lazarus .lpi projects, and Visual Basic 6 .vbp/.vbg
projects. It resolves the current version from git tags, bumps it, rewrites
every manifest in place, and commits, tags, and pushes the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "write logs as JSON")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	cmd.AddCommand(newReleaseCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func initializeLogger(cmd *cobra.Command) {
	dryRun := false
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == "dry-run" {
			dryRun = f.Value.String() == "true"
		}
	})
	logger.Initialize(logger.Config{
		Level:    logger.ParseLevel(logLevel),
		UseColor: !noColor && !jsonOut,
		JSON:     jsonOut,
		DryRun:   dryRun,
	})
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		logger.Error(err.Error())
		return exitCodeFor(err)
	}
	return exitcode.Success
}

// codedError carries the exit code a failure maps to.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &codedError{code: code, err: err}
}

func exitCodeFor(err error) int {
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}
	return exitcode.GeneralError
}

// collectChanges runs every format updater against the project, in the fixed
// order VB6, Lazarus, Cargo.
func collectChanges(dir string, policy *propagation.ReleasePolicy, version semver.SemVer) ([]propagation.FileChange, error) {
	composite := propagation.NewComposite(policy,
		managers.NewVB6Updater(),
		managers.NewLazarusUpdater(),
		managers.NewCargoUpdater(),
	)
	return composite.Update(dir, version)
}
