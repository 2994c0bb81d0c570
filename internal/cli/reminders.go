package cli

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/reminders/internal/dragdrop"
	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/repository"
	"github.com/nhle/reminders/internal/store"
)

func newAddCmd(app *App) *cobra.Command {
	var (
		listID, sectionID string
		notes, url        string
		start, end        string
		repeat            string
		priority          int
		tags              []string
		notify            []string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a reminder at the end of its list or section",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startAt, err := parseWhen("start", start)
			if err != nil {
				return writeErr(cmd, err)
			}
			endAt, err := parseWhen("end", end)
			if err != nil {
				return writeErr(cmd, err)
			}

			return app.run(cmd, func(r *repository.Repositories) error {
				ctx := cmd.Context()
				in := repository.ReminderInput{
					Title:         strings.Join(args, " "),
					Notes:         notes,
					URL:           url,
					Priority:      priority,
					StartDate:     startAt,
					EndDate:       endAt,
					RepeatOption:  repeat,
					Notifications: model.TokenSet(notify).Normalize(),
					ListID:        optional(listID),
					SubHeadingID:  optional(sectionID),
				}
				for _, name := range tags {
					tag, err := r.Tags.GetOrCreate(ctx, name)
					if err != nil {
						return err
					}
					in.TagIDs = append(in.TagIDs, tag.ID)
				}
				warnOverCap(cmd, app, r, startAt, endAt)

				rem, err := r.Reminders.Create(ctx, in)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, rem)
			})
		},
	}

	cmd.Flags().StringVar(&listID, "list", "", "List id (default: Inbox)")
	cmd.Flags().StringVar(&sectionID, "section", "", "Sub-heading id within --list")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&url, "url", "", "Link")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD or YYYY-MM-DDTHH:MM)")
	cmd.Flags().StringVar(&end, "end", "", "Due date (YYYY-MM-DD or YYYY-MM-DDTHH:MM)")
	cmd.Flags().StringVar(&repeat, "repeat", model.RepeatNever, "Repeat option (never|daily|weekly|monthly|yearly)")
	cmd.Flags().IntVar(&priority, "priority", model.PriorityNone, "Priority 0-3")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag name (repeatable; created if missing)")
	cmd.Flags().StringSliceVar(&notify, "notify", nil, "Notification token (repeatable)")
	return cmd
}

// warnOverCap logs when the advisory daily caps are already reached.
func warnOverCap(cmd *cobra.Command, app *App, r *repository.Repositories, start, end *time.Time) {
	ctx := cmd.Context()
	if start != nil {
		if ok, err := r.Limits.CanAddWithStartDate(ctx, *start); err == nil && !ok {
			app.log.Warn().Time("day", *start).Msg("daily start limit reached")
		}
	}
	if end != nil {
		if ok, err := r.Limits.CanAddWithEndDate(ctx, *end); err == nil && !ok {
			app.log.Warn().Time("day", *end).Msg("daily due limit reached")
		}
	}
}

func newLsCmd(app *App) *cobra.Command {
	var listID, sectionID string
	var inbox, open bool

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "Show reminders",
		Long:  "Show reminders, optionally restricted to one list, section or the Inbox. Without a container they are sorted by start date then priority; a container lists them in their manual order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.ReminderFilter{
				ListID:       optional(listID),
				SubHeadingID: optional(sectionID),
				Inbox:        inbox,
			}
			if listID != "" || inbox {
				f.Sort = []store.Sort{{Key: store.SortManual}}
				f.Unsectioned = sectionID == ""
			}
			if open {
				completed := false
				f.Completed = &completed
			}
			return app.run(cmd, func(r *repository.Repositories) error {
				rs, err := r.Reminders.Query(cmd.Context(), f)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, rs)
			})
		},
	}

	cmd.Flags().StringVar(&listID, "list", "", "List id")
	cmd.Flags().StringVar(&sectionID, "section", "", "Sub-heading id within --list")
	cmd.Flags().BoolVar(&inbox, "inbox", false, "Only reminders without a list")
	cmd.Flags().BoolVar(&open, "open", false, "Only reminders not yet completed")
	return cmd
}

func newDoneCmd(app *App, completed bool) *cobra.Command {
	use, short := "done <reminder-id>", "Mark a reminder completed"
	if !completed {
		use, short = "undone <reminder-id>", "Reopen a completed reminder"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(r *repository.Repositories) error {
				rem, err := r.Reminders.SetCompletion(cmd.Context(), args[0], completed)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, rem)
			})
		},
	}
}

func newMvCmd(app *App) *cobra.Command {
	var listID, sectionID string
	var inbox bool
	var index int

	cmd := &cobra.Command{
		Use:   "mv <reminder-id>",
		Short: "Move a reminder to a position in a list, section or the Inbox",
		Long:  "Move a reminder. Without --list or --inbox it stays in its current list; --index defaults to the end of the destination.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inbox && (listID != "" || sectionID != "") {
				return writeErr(cmd, errors.New("--inbox cannot be combined with --list or --section"))
			}
			return app.run(cmd, func(r *repository.Repositories) error {
				ctx := cmd.Context()
				rem, err := r.Reminders.Get(ctx, args[0])
				if err != nil {
					return err
				}

				dest := model.ReminderScope{ListID: rem.ListID}
				switch {
				case inbox:
					dest.ListID = nil
				case listID != "":
					dest.ListID = &listID
				}
				dest.SubHeadingID = optional(sectionID)

				at := repository.End
				if cmd.Flags().Changed("index") {
					at = index
				}
				item := dragdrop.Item{Kind: dragdrop.KindReminder, ID: rem.ID}
				if err := place(ctx, app.dragger(), item, dragdrop.Target{Scope: dest, Index: at}); err != nil {
					return err
				}

				moved, err := r.Reminders.Get(ctx, rem.ID)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, moved)
			})
		},
	}

	cmd.Flags().StringVar(&listID, "list", "", "Destination list id")
	cmd.Flags().StringVar(&sectionID, "section", "", "Destination sub-heading id (omit to un-section)")
	cmd.Flags().BoolVar(&inbox, "inbox", false, "Move to the Inbox")
	cmd.Flags().IntVar(&index, "index", 0, "Position in the destination (default: end)")
	return cmd
}

func newRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <reminder-id>",
		Short: "Delete a reminder with its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(r *repository.Repositories) error {
				removed, err := r.Reminders.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"id": args[0], "removed": removed})
			})
		},
	}
}

func newSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search [text] [priority=N] [tag=ID]...",
		Short: "Search reminders by text, priority and tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := repository.ParseSearch(strings.Join(args, " "))
			if err != nil {
				return writeErr(cmd, err)
			}
			return app.run(cmd, func(r *repository.Repositories) error {
				rs, err := r.Reminders.Search(cmd.Context(), q)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, rs)
			})
		},
	}
}
