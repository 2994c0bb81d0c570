package cli

import (
	"github.com/spf13/cobra"

	"github.com/nhle/reminders/internal/dragdrop"
	"github.com/nhle/reminders/internal/repository"
)

func newSectionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sections",
		Aliases: []string{"subheadings"},
		Short:   "Sub-heading commands",
	}
	cmd.AddCommand(newSectionsLsCmd(app))
	cmd.AddCommand(newSectionsAddCmd(app))
	cmd.AddCommand(newSectionsRmCmd(app))
	cmd.AddCommand(newSectionsMvCmd(app))
	return cmd
}

func newSectionsLsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <list-id>",
		Short: "Show a list's sub-headings in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(r *repository.Repositories) error {
				subs, err := r.SubHeadings.ForList(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeOut(cmd, app, subs)
			})
		},
	}
}

func newSectionsAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <list-id> <title>",
		Short: "Append a sub-heading to a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(r *repository.Repositories) error {
				sub, err := r.SubHeadings.Create(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return writeOut(cmd, app, sub)
			})
		},
	}
}

func newSectionsRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <subheading-id>",
		Short: "Delete a sub-heading, keeping its reminders in the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(r *repository.Repositories) error {
				removed, err := r.SubHeadings.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"id": args[0], "removed": removed})
			})
		},
	}
}

func newSectionsMvCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <subheading-id> <index>",
		Short: "Move a sub-heading within its list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseIndex(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return app.run(cmd, func(r *repository.Repositories) error {
				sub, err := r.SubHeadings.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				item := dragdrop.Item{Kind: dragdrop.KindSubHeading, ID: sub.ID, ListID: sub.ListID}
				target := dragdrop.Target{Index: at}
				target.Scope.ListID = &sub.ListID
				if err := place(cmd.Context(), app.dragger(), item, target); err != nil {
					return err
				}
				subs, err := r.SubHeadings.ForList(cmd.Context(), sub.ListID)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, subs)
			})
		},
	}
}
