package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/compound/pkg/compound"
	"github.com/mesh-intelligence/compound/pkg/types"
)

var (
	flagChild          string
	flagParent         string
	flagRemoveChildren []string
	flagUnlinkParents  []string
)

var linkCmd = &cobra.Command{
	Use:   "link <object>",
	Short: "Add a child to an object, or the object to a parent",
	Long: `Link validates the request and appends the new child after the parent's
current last child.

Example:
  compound link book:1 --child page:7
  compound link page:7 --parent book:2`,
	Args: argsUsage(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagChild == "" && flagParent == "" {
			return userError(errors.New("link: --child or --parent is required"))
		}
		return submit(cmd, compound.ManageRequest{Child: flagChild, Parent: flagParent}, args[0])
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink <object>",
	Short: "Remove children from an object, or the object from parents",
	Args:  argsUsage(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(flagRemoveChildren) == 0 && len(flagUnlinkParents) == 0 {
			return userError(errors.New("unlink: --child or --parent is required"))
		}
		return submit(cmd, compound.ManageRequest{
			RemoveChildren: flagRemoveChildren,
			UnlinkParents:  flagUnlinkParents,
		}, args[0])
	},
}

func submit(cmd *cobra.Command, req compound.ManageRequest, pid string) error {
	return withEngine(func(e *engine) error {
		obj, err := e.load(cmd, pid)
		if err != nil {
			return err
		}
		req.Object = obj

		res, err := e.manager.Submit(cmd.Context(), req)
		if ve, ok := types.AsValidationError(err); ok {
			printValidation(cmd.ErrOrStderr(), ve)
			return userError(fmt.Errorf("%d validation error(s)", len(ve.Errors)))
		}
		if res != nil {
			if flagJSON {
				if jerr := printJSON(cmd.OutOrStdout(), res); jerr != nil {
					return jerr
				}
			} else {
				printEdits(cmd.OutOrStdout(), res.Edits)
			}
		}
		return err
	})
}

func printValidation(w io.Writer, ve *types.ValidationError) {
	for _, fe := range ve.Errors {
		fmt.Fprintf(w, "%s: %s\n", fe.Field, fe.Message)
	}
}

func printEdits(w io.Writer, edits []*compound.EditResult) {
	for _, r := range edits {
		for _, p := range r.Succeeded {
			fmt.Fprintf(w, "ok      %s -> %s\n", p.ChildID, p.ParentID)
		}
		for _, p := range r.Skipped {
			fmt.Fprintf(w, "skipped %s -> %s (already linked)\n", p.ChildID, p.ParentID)
		}
		for _, f := range r.Failed {
			fmt.Fprintf(w, "failed  %s -> %s: %v\n", f.ChildID, f.ParentID, f.Err)
		}
	}
}

func init() {
	linkCmd.Flags().StringVar(&flagChild, "child", "", "object to add as a child")
	linkCmd.Flags().StringVar(&flagParent, "parent", "", "parent to add the object to")
	unlinkCmd.Flags().StringSliceVar(&flagRemoveChildren, "child", nil, "child to remove (repeatable)")
	unlinkCmd.Flags().StringSliceVar(&flagUnlinkParents, "parent", nil, "parent to leave (repeatable)")
}
