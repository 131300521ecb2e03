package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/compound/pkg/compound"
)

var flagNoSequence bool

var childrenCmd = &cobra.Command{
	Use:   "children <parent>",
	Short: "List a parent's children in sequence order",
	Args:  argsUsage(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *engine) error {
			parts, err := e.editor.ChildParts(cmd.Context(), args[0], !flagNoSequence)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), parts)
			}
			printParts(cmd.OutOrStdout(), parts, !flagNoSequence)
			return nil
		})
	},
}

var parentsCmd = &cobra.Command{
	Use:   "parents <object>",
	Short: "List the parents an object belongs to",
	Args:  argsUsage(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *engine) error {
			parts, err := e.editor.Parents(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), parts)
			}
			printParts(cmd.OutOrStdout(), parts, false)
			return nil
		})
	},
}

func printParts(w io.Writer, parts []compound.ChildPart, withSequence bool) {
	for _, p := range parts {
		if !withSequence {
			fmt.Fprintf(w, "  %s  %s\n", p.PID, p.Label)
			continue
		}
		seq := "-"
		if p.Sequence > 0 {
			seq = fmt.Sprint(p.Sequence)
		}
		fmt.Fprintf(w, "  %4s  %s  %s\n", seq, p.PID, p.Label)
	}
}

func init() {
	childrenCmd.Flags().BoolVar(&flagNoSequence, "no-sequence", false, "skip sequence lookups and order by PID")
}
