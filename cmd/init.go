package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relforge/relforge/pkg/exitcode"
	"github.com/relforge/relforge/pkg/propagation"
)

func newInitCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a sample release policy file",
		RunE: func(_ *cobra.Command, _ []string) error {
			path := propagation.PolicyPath(dir)
			if _, err := os.Stat(path); err == nil {
				return withCode(exitcode.ConfigError, fmt.Errorf("policy file %s already exists", path))
			}
			if err := propagation.GeneratePolicyFile(path); err != nil {
				return withCode(exitcode.FileSystemError, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "project root directory")
	return cmd
}
