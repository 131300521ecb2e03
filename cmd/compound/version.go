package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/compound/pkg/compound"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the compound version",
	Args:  argsUsage(cobra.NoArgs),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "compound", compound.Version)
	},
}
