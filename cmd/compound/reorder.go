package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/compound/pkg/compound"
)

var (
	flagConcurrency int
	flagResumeFrom  int
)

var reorderCmd = &cobra.Command{
	Use:   "reorder <parent> [child=weight...]",
	Short: "Renumber a parent's children 1..N",
	Long: `Reorder assigns each listed child a dense sequence 1..N in ascending weight
order; equal weights keep the order given. Without weights the current order
is kept and the sequence numbers are compacted.

Each child is updated as its own step. A failed step is reported and the
rest continue; rerun with the failed children, or with --resume-from after
an interrupted run.

Example:
  compound reorder book:1 page:3=1 page:1=2 page:2=3
  compound reorder book:1`,
	Args: argsUsage(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		parentID := args[0]
		entries, err := parseEntries(args[1:])
		if err != nil {
			return userError(err)
		}

		return withEngine(func(e *engine) error {
			ctx := cmd.Context()
			parent, err := e.load(cmd, parentID)
			if err != nil {
				return err
			}

			var plan *compound.Plan
			if len(entries) > 0 {
				plan = compound.PlanSequence(parentID, entries)
			} else {
				children, err := e.editor.ChildParts(ctx, parentID, true)
				if err != nil {
					return err
				}
				plan = compound.PlanFromChildren(parentID, children)
			}

			out := cmd.ErrOrStderr()
			if !flagJSON {
				fmt.Fprintln(out, plan.Title(parent.Label))
			}
			ex := e.executor(flagConcurrency, func(completed, total int, msg string) {
				if !flagJSON {
					fmt.Fprintf(out, "[%d/%d] %s\n", completed, total, msg)
				}
			})
			res := ex.RunFrom(ctx, plan, flagResumeFrom)

			if flagJSON {
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%d succeeded, %d failed, %d/%d steps\n",
					len(res.Succeeded), len(res.Failed), res.Completed, res.Total)
				if failed := res.FailedChildren(); len(failed) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "failed children: %s\n", strings.Join(failed, " "))
				}
			}

			switch {
			case res.Aborted:
				return fmt.Errorf("reorder aborted after %d of %d steps (resume with --resume-from %d): %w",
					res.Completed, res.Total, res.NextIndex, res.Err)
			case len(res.Failed) > 0:
				return fmt.Errorf("reorder: %d step(s) failed", len(res.Failed))
			}
			return nil
		})
	},
}

// parseEntries reads child=weight arguments. A bare child gets its
// position in the list as weight.
func parseEntries(args []string) ([]compound.Entry, error) {
	entries := make([]compound.Entry, 0, len(args))
	for i, arg := range args {
		child, weight, found := strings.Cut(arg, "=")
		if child == "" {
			return nil, fmt.Errorf("invalid entry %q (expected child=weight)", arg)
		}
		w := i + 1
		if found {
			n, err := strconv.Atoi(weight)
			if err != nil {
				return nil, fmt.Errorf("invalid weight in %q: %w", arg, err)
			}
			w = n
		}
		entries = append(entries, compound.Entry{ChildID: child, Weight: w})
	}
	return entries, nil
}

func init() {
	reorderCmd.Flags().IntVar(&flagConcurrency, "concurrency", 1, "children updated at once")
	reorderCmd.Flags().IntVar(&flagResumeFrom, "resume-from", 0, "skip the first N steps of the plan")
}
