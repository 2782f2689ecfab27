package cmd

import (
	"github.com/spf13/cobra"

	"github.com/relforge/relforge/pkg/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the relforge version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("relforge %s\n", buildinfo.BinaryVersion)
			if module := buildinfo.ModuleVersion(); module != "" {
				cmd.Printf("module %s\n", module)
			}
		},
	}
}
