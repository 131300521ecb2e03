package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration and data directories",
	Args:  argsUsage(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		return withEngine(func(e *engine) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "compound initialized")
			fmt.Fprintln(out, "  config: ", configDir)
			fmt.Fprintln(out, "  data:   ", e.cfg.DataDir)
			fmt.Fprintln(out, "  backend:", e.cfg.Backend)
			return nil
		})
	},
}
