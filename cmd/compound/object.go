package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/compound/pkg/compound"
	"github.com/mesh-intelligence/compound/pkg/types"
)

var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Create, show, list and delete repository objects",
}

var (
	flagLabel    string
	flagModels   []string
	flagCompound bool
)

var objectCreateCmd = &cobra.Command{
	Use:   "create <pid>",
	Short: "Create or replace an object",
	Args:  argsUsage(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		obj := &types.CompoundObject{PID: args[0], Label: flagLabel, Models: flagModels}
		if flagCompound && !obj.IsCompound() {
			obj.Models = append(obj.Models, types.CompoundContentModel)
		}
		return withEngine(func(e *engine) error {
			if err := e.backend.Save(cmd.Context(), obj); err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), obj)
			}
			fmt.Fprintln(cmd.OutOrStdout(), obj.PID)
			return nil
		})
	},
}

// objectView is the show output.
type objectView struct {
	*types.CompoundObject
	Parents   []compound.ChildPart `json:"parents"`
	Children  []compound.ChildPart `json:"children"`
	Thumbnail string               `json:"thumbnail,omitempty"`
}

var objectShowCmd = &cobra.Command{
	Use:   "show <pid>",
	Short: "Show an object with its parents and children",
	Args:  argsUsage(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *engine) error {
			ctx := cmd.Context()
			obj, err := e.load(cmd, args[0])
			if err != nil {
				return err
			}
			view := objectView{CompoundObject: obj}
			if view.Parents, err = e.editor.Parents(ctx, obj.PID); err != nil {
				return err
			}
			if view.Children, err = e.editor.ChildParts(ctx, obj.PID, true); err != nil {
				return err
			}
			if view.Thumbnail, err = compound.ThumbnailOf(ctx, e.backend, obj.PID); err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "PID:       %s\n", obj.PID)
			fmt.Fprintf(out, "Label:     %s\n", obj.Label)
			fmt.Fprintf(out, "Models:    %s\n", strings.Join(obj.Models, ", "))
			fmt.Fprintf(out, "Created:   %s\n", obj.CreatedAt)
			fmt.Fprintf(out, "Updated:   %s\n", obj.UpdatedAt)
			if view.Thumbnail != "" {
				fmt.Fprintf(out, "Thumbnail: %s\n", view.Thumbnail)
			}
			if len(view.Parents) > 0 {
				fmt.Fprintln(out, "\nParents:")
				for _, p := range view.Parents {
					fmt.Fprintf(out, "  %s  %s\n", p.PID, p.Label)
				}
			}
			if len(view.Children) > 0 {
				fmt.Fprintln(out, "\nChildren:")
				printParts(out, view.Children, true)
			}
			return nil
		})
	},
}

var objectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all objects",
	Args:  argsUsage(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *engine) error {
			objects, err := e.backend.List(cmd.Context())
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), objects)
			}
			for _, o := range objects {
				marker := " "
				if o.IsCompound() {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", marker, o.PID, o.Label)
			}
			return nil
		})
	},
}

var objectDeleteCmd = &cobra.Command{
	Use:   "delete <pid>",
	Short: "Delete an object and every relationship touching it",
	Args:  argsUsage(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(e *engine) error {
			ctx := cmd.Context()
			parents, err := e.editor.Parents(ctx, args[0])
			if err != nil {
				return err
			}
			if err := e.backend.Delete(ctx, args[0]); err != nil {
				return err
			}
			// Parents lost a child; keep their thumbnails current.
			if e.cfg.GenerateThumbnailOnChildChange {
				for _, p := range parents {
					if _, err := e.thumbs.Refresh(ctx, p.PID); err != nil {
						return err
					}
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		})
	},
}

func init() {
	objectCreateCmd.Flags().StringVar(&flagLabel, "label", "", "object label")
	objectCreateCmd.Flags().StringSliceVar(&flagModels, "model", nil, "content model (repeatable)")
	objectCreateCmd.Flags().BoolVar(&flagCompound, "compound", false, "add the compound content model")

	objectCmd.AddCommand(objectCreateCmd)
	objectCmd.AddCommand(objectShowCmd)
	objectCmd.AddCommand(objectListCmd)
	objectCmd.AddCommand(objectDeleteCmd)
}
