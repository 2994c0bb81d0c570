package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/reminders/internal/gateway"
	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
	"github.com/nhle/reminders/internal/store"
)

// ReminderInput holds the fields of a new reminder.
type ReminderInput struct {
	Title                string
	Notes                string
	URL                  string
	Priority             int
	StartDate            *time.Time
	EndDate              *time.Time
	Notifications        model.TokenSet
	RepeatOption         string
	CustomRepeatInterval int

	// ListID nil files the reminder in the Inbox.
	ListID       *string
	SubHeadingID *string

	TagIDs   []string
	Location *model.Location
}

// Reminders is the reminder repository.
type Reminders struct {
	base
}

func validateReminder(id string, rem *model.Reminder) error {
	if strings.TrimSpace(rem.Title) == "" {
		return store.Invalid(store.KindReminder, id, "title", "must not be empty")
	}
	if !model.ValidPriority(rem.Priority) {
		return store.Invalid(store.KindReminder, id, "priority",
			fmt.Sprintf("%d is outside 0-3", rem.Priority))
	}
	if rem.CustomRepeatInterval < 0 {
		return store.Invalid(store.KindReminder, id, "custom_repeat_interval", "must not be negative")
	}
	return nil
}

// Create validates in and appends a new reminder to its container.
func (r *Reminders) Create(ctx context.Context, in ReminderInput) (*model.Reminder, error) {
	rem := &model.Reminder{
		ListID:               in.ListID,
		SubHeadingID:         in.SubHeadingID,
		Title:                strings.TrimSpace(in.Title),
		Notes:                in.Notes,
		URL:                  in.URL,
		Priority:             in.Priority,
		StartDate:            in.StartDate,
		EndDate:              in.EndDate,
		Notifications:        in.Notifications,
		RepeatOption:         in.RepeatOption,
		CustomRepeatInterval: in.CustomRepeatInterval,
	}
	if err := validateReminder("", rem); err != nil {
		return nil, err
	}
	if in.Location != nil && !in.Location.ValidCoordinate() {
		return nil, store.Invalid(store.KindReminder, "", "location", "coordinate out of range")
	}

	scope := rem.Scope()
	var saved *model.Reminder
	err := r.store.Locked(ctx, []string{scope.Key()}, func() error {
		var err error
		saved, err = store.Write(ctx, r.store, func(tx *store.WriteTx) (*model.Reminder, error) {
			if err := checkScope(&tx.ReadTx, scope); err != nil {
				return nil, err
			}
			items, err := tx.ReminderItems(scope)
			if err != nil {
				return nil, err
			}
			fresh := *rem
			fresh.SortOrder = r.engine.OrderForInsert(items, len(items))
			if err := tx.InsertReminder(&fresh); err != nil {
				return nil, err
			}
			if len(in.TagIDs) > 0 {
				if err := tx.SetReminderTags(fresh.ID, in.TagIDs); err != nil {
					return nil, err
				}
			}
			if in.Location != nil {
				loc := *in.Location
				loc.ID = ""
				loc.ReminderID = &fresh.ID
				if err := tx.InsertLocation(&loc); err != nil {
					return nil, err
				}
			}
			return r.load(&tx.ReadTx, fresh.ID)
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	r.afterSave(ctx, nil, saved)
	return saved, nil
}

// Get returns a reminder with its tags, location and attachment summary.
func (r *Reminders) Get(ctx context.Context, id string) (*model.Reminder, error) {
	return store.Read(ctx, r.store, func(tx *store.ReadTx) (*model.Reminder, error) {
		return r.load(tx, id)
	})
}

func (r *Reminders) load(tx *store.ReadTx, id string) (*model.Reminder, error) {
	rem, err := tx.GetReminder(id)
	if err != nil {
		return nil, err
	}
	rs := []model.Reminder{*rem}
	if err := tx.LoadDetails(rs); err != nil {
		return nil, err
	}
	return &rs[0], nil
}

// Update applies mutate to a fresh copy of the reminder inside a write
// transaction and persists the fields it changed. Container changes must go
// through Move. Toggling IsCompleted follows SetCompletion's rules.
func (r *Reminders) Update(ctx context.Context, id string, mutate func(*model.Reminder) error) (*model.Reminder, error) {
	var before model.Reminder
	saved, err := store.Write(ctx, r.store, func(tx *store.WriteTx) (*model.Reminder, error) {
		cur, err := tx.GetReminder(id)
		if err != nil {
			return nil, err
		}
		before = *cur
		after := *cur
		if err := mutate(&after); err != nil {
			return nil, err
		}

		after.ID = before.ID
		after.CreatedAt = before.CreatedAt
		after.SortOrder = before.SortOrder
		after.Title = strings.TrimSpace(after.Title)
		if !after.Scope().Equal(before.Scope()) {
			return nil, store.Invalid(store.KindReminder, id, "list",
				"cannot change container in an update; move the reminder instead")
		}
		if err := validateReminder(id, &after); err != nil {
			return nil, err
		}
		r.applyCompletion(&before, &after)

		if _, err := tx.UpdateReminder(before, after); err != nil {
			return nil, err
		}
		return r.load(&tx.ReadTx, id)
	})
	if err != nil {
		return nil, err
	}

	r.afterSave(ctx, &before, saved)
	return saved, nil
}

// applyCompletion keeps CompletedAt set exactly when IsCompleted is, and
// clears pending notifications on the transition to completed.
func (r *Reminders) applyCompletion(before, after *model.Reminder) {
	if after.IsCompleted == before.IsCompleted {
		after.CompletedAt = before.CompletedAt
		return
	}
	if after.IsCompleted {
		t := r.now().UTC()
		after.CompletedAt = &t
		after.Notifications = model.TokenSet{}
		return
	}
	after.CompletedAt = nil
}

// SetCompletion marks a reminder completed or open. Setting the current
// value again succeeds without changing anything.
func (r *Reminders) SetCompletion(ctx context.Context, id string, completed bool) (*model.Reminder, error) {
	return r.Update(ctx, id, func(rem *model.Reminder) error {
		rem.IsCompleted = completed
		return nil
	})
}

// afterSave informs the gateways of a committed create or update. before
// is nil for a create. Gateway failures are logged and never undo the save.
func (r *Reminders) afterSave(ctx context.Context, before, after *model.Reminder) {
	if after.EndDate != nil && (before == nil || !model.EqualTime(before.EndDate, after.EndDate)) {
		start := *after.EndDate
		if after.StartDate != nil {
			start = *after.StartDate
		}
		if err := r.gw.Calendar.ScheduleEvent(ctx, after.Title, start, gateway.DefaultEventDuration); err != nil {
			r.log.Warn().Err(err).Str("reminder", after.ID).Msg("calendar scheduling failed")
		}
	}
	if before == nil && after.Location != nil {
		r.gw.Location.StartMonitoring(ctx, after.ID, *after.Location)
	}
	if before == nil && len(after.Notifications) == 0 {
		return
	}
	if before == nil || !before.Notifications.Equal(after.Notifications) {
		if err := r.gw.Notifications.Sync(ctx, after.ID, after.Notifications); err != nil {
			r.log.Warn().Err(err).Str("reminder", after.ID).Msg("notification sync failed")
		}
	}
}

// Delete removes a reminder with its photos, voice note and location. Tags
// are detached, not deleted. It reports whether a reminder was removed;
// deleting an absent id is not an error.
func (r *Reminders) Delete(ctx context.Context, id string) (bool, error) {
	var hadLocation bool
	err := r.withReminder(ctx, id, nil, func(tx *store.WriteTx, rem *model.Reminder) error {
		loc, err := tx.LocationForReminder(id)
		if err != nil {
			return err
		}
		hadLocation = loc != nil
		if _, err := tx.DeleteReminder(id); err != nil {
			return err
		}
		return r.renumberReminders(tx, rem.Scope())
	})
	if store.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if hadLocation {
		r.gw.Location.StopMonitoring(ctx, id)
	}
	if err := r.gw.Notifications.Sync(ctx, id, nil); err != nil {
		r.log.Warn().Err(err).Str("reminder", id).Msg("notification cancel failed")
	}
	return true, nil
}

// Move re-parents a reminder to (listID, subHeadingID) at index at within
// the destination, renumbering source and destination containers in one
// transaction. A nil listID moves it to the Inbox.
func (r *Reminders) Move(ctx context.Context, id string, listID, subHeadingID *string, at int) (*model.Reminder, error) {
	dest := model.ReminderScope{ListID: listID, SubHeadingID: subHeadingID}
	var saved *model.Reminder
	err := r.withReminder(ctx, id,
		func(model.Reminder) []string { return []string{dest.Key()} },
		func(tx *store.WriteTx, rem *model.Reminder) error {
			if err := checkScope(&tx.ReadTx, dest); err != nil {
				return err
			}
			src := rem.Scope()
			srcItems, err := tx.ReminderItems(src)
			if err != nil {
				return err
			}

			if src.Equal(dest) {
				moved, err := r.engine.MoveID(srcItems, id, at)
				if err != nil {
					return orderingError(store.KindReminder, id, err)
				}
				if err := tx.SetReminderOrders(ordering.Changes(srcItems, moved)); err != nil {
					return err
				}
			} else {
				dstItems, err := tx.ReminderItems(dest)
				if err != nil {
					return err
				}
				newSrc, newDst, err := r.engine.Transfer(srcItems, dstItems, id, at)
				if err != nil {
					return orderingError(store.KindReminder, id, err)
				}
				if err := tx.SetReminderOrders(ordering.Changes(srcItems, newSrc)); err != nil {
					return err
				}
				dstChanges := ordering.Changes(dstItems, newDst)
				movedOrder := dstChanges[id]
				delete(dstChanges, id)
				if err := tx.MoveRemindersToScope(dest, map[string]int{id: movedOrder}); err != nil {
					return err
				}
				if err := tx.SetReminderOrders(dstChanges); err != nil {
					return err
				}
			}

			saved, err = r.load(&tx.ReadTx, id)
			return err
		})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Reorder applies a complete new sequence to the reminders of scope. ids
// must name every reminder in the container exactly once. Either every
// order changes or none does.
func (r *Reminders) Reorder(ctx context.Context, scope model.ReminderScope, ids []string) error {
	return r.store.Locked(ctx, []string{scope.Key()}, func() error {
		return r.store.Update(ctx, func(tx *store.WriteTx) error {
			items, err := tx.ReminderItems(scope)
			if err != nil {
				return err
			}
			out, err := r.engine.Resequence(items, ids)
			if err != nil {
				return orderingError(store.KindReminder, "", err)
			}
			return tx.SetReminderOrders(ordering.Changes(items, out))
		})
	})
}

// InScope returns the reminders of one container in order.
func (r *Reminders) InScope(ctx context.Context, scope model.ReminderScope) ([]model.Reminder, error) {
	return store.Read(ctx, r.store, func(tx *store.ReadTx) ([]model.Reminder, error) {
		rs, err := tx.RemindersInScope(scope)
		if err != nil {
			return nil, err
		}
		return rs, tx.LoadDetails(rs)
	})
}

// Query returns the reminders matching f with their details loaded.
func (r *Reminders) Query(ctx context.Context, f store.ReminderFilter) ([]model.Reminder, error) {
	return store.Read(ctx, r.store, func(tx *store.ReadTx) ([]model.Reminder, error) {
		rs, err := tx.FindReminders(f)
		if err != nil {
			return nil, err
		}
		return rs, tx.LoadDetails(rs)
	})
}

// SetTags replaces the tags attached to a reminder.
func (r *Reminders) SetTags(ctx context.Context, id string, tagIDs []string) error {
	return r.store.Update(ctx, func(tx *store.WriteTx) error {
		return tx.SetReminderTags(id, tagIDs)
	})
}

// SetLocation replaces the reminder's own location, or removes it when loc
// is nil.
func (r *Reminders) SetLocation(ctx context.Context, id string, loc *model.Location) (*model.Reminder, error) {
	saved, err := store.Write(ctx, r.store, func(tx *store.WriteTx) (*model.Reminder, error) {
		if _, err := tx.GetReminder(id); err != nil {
			return nil, err
		}
		if loc == nil {
			cur, err := tx.LocationForReminder(id)
			if err != nil {
				return nil, err
			}
			if cur != nil {
				if _, err := tx.DeleteLocation(cur.ID); err != nil {
					return nil, err
				}
			}
		} else {
			owned := *loc
			owned.ID = ""
			owned.ReminderID = &id
			if err := tx.InsertLocation(&owned); err != nil {
				return nil, err
			}
		}
		return r.load(&tx.ReadTx, id)
	})
	if err != nil {
		return nil, err
	}

	if saved.Location != nil {
		r.gw.Location.StartMonitoring(ctx, id, *saved.Location)
	} else {
		r.gw.Location.StopMonitoring(ctx, id)
	}
	return saved, nil
}

