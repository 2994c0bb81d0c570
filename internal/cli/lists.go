package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nhle/reminders/internal/dragdrop"
	"github.com/nhle/reminders/internal/repository"
)

func newListsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "List commands",
	}
	cmd.AddCommand(newListsLsCmd(app))
	cmd.AddCommand(newListsAddCmd(app))
	cmd.AddCommand(newListsRmCmd(app))
	cmd.AddCommand(newListsMvCmd(app))
	cmd.AddCommand(newListsMergeCmd(app))
	cmd.AddCommand(newListsInboxCmd(app))
	return cmd
}

func newListsLsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "Show lists in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(r *repository.Repositories) error {
				lists, err := r.Lists.All(cmd.Context())
				if err != nil {
					return err
				}
				return writeOut(cmd, app, lists)
			})
		},
	}
}

func newListsAddCmd(app *App) *cobra.Command {
	var color, symbol string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a list at the end of the list order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(r *repository.Repositories) error {
				l, err := r.Lists.Create(cmd.Context(), args[0], color, symbol)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, l)
			})
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "List color")
	cmd.Flags().StringVar(&symbol, "symbol", "", "List symbol")
	return cmd
}

func newListsRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <list-id>",
		Short: "Delete a list with its sections and reminders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(r *repository.Repositories) error {
				removed, err := r.Lists.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"id": args[0], "removed": removed})
			})
		},
	}
}

func newListsMvCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <list-id> <index>",
		Short: "Move a list to a position in the list order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseIndex(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return app.run(cmd, func(r *repository.Repositories) error {
				item := dragdrop.Item{Kind: dragdrop.KindList, ID: args[0]}
				if err := place(cmd.Context(), app.dragger(), item, dragdrop.Target{Index: at}); err != nil {
					return err
				}
				lists, err := r.Lists.All(cmd.Context())
				if err != nil {
					return err
				}
				return writeOut(cmd, app, lists)
			})
		},
	}
}

func newListsMergeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Fold lists sharing a name into the oldest one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(r *repository.Repositories) error {
				rep, err := r.Lists.MergeDuplicates(cmd.Context())
				if err != nil {
					return err
				}
				return writeOut(cmd, app, rep)
			})
		},
	}
}

func newListsInboxCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "Show the Inbox list, creating it if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(r *repository.Repositories) error {
				l, err := r.Lists.GetOrCreateInbox(cmd.Context())
				if err != nil {
					return err
				}
				return writeOut(cmd, app, l)
			})
		},
	}
}

// place runs one drag gesture: start, hover target, drop.
func place(ctx context.Context, c *dragdrop.Controller, item dragdrop.Item, target dragdrop.Target) error {
	if !c.Start(item) {
		return dragdrop.ErrNotDragging
	}
	if err := c.Hover(target); err != nil {
		c.Cancel()
		return err
	}
	return c.Drop(ctx)
}
