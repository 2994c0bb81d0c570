package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
	"github.com/nhle/reminders/internal/store"
)

// SubHeadings is the sub-heading repository.
type SubHeadings struct {
	base
	reminders *Reminders
}

// Create appends a sub-heading to a list.
func (s *SubHeadings) Create(ctx context.Context, listID, title string) (*model.SubHeading, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, store.Invalid(store.KindSubHeading, "", "title", "must not be empty")
	}

	var created *model.SubHeading
	err := s.store.Locked(ctx, []string{store.SubHeadingsScopeKey(listID)}, func() error {
		return s.store.Update(ctx, func(tx *store.WriteTx) error {
			if _, err := tx.GetList(listID); err != nil {
				return err
			}
			items, err := tx.SubHeadingItems(listID)
			if err != nil {
				return err
			}
			sub := &model.SubHeading{
				ListID:    listID,
				Title:     title,
				SortOrder: s.engine.OrderForInsert(items, len(items)),
			}
			if err := tx.InsertSubHeading(sub); err != nil {
				return err
			}
			created = sub
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns a sub-heading by id.
func (s *SubHeadings) Get(ctx context.Context, id string) (*model.SubHeading, error) {
	return store.Read(ctx, s.store, func(tx *store.ReadTx) (*model.SubHeading, error) {
		return tx.GetSubHeading(id)
	})
}

// ForList returns a list's sub-headings in order.
func (s *SubHeadings) ForList(ctx context.Context, listID string) ([]model.SubHeading, error) {
	return store.Read(ctx, s.store, func(tx *store.ReadTx) ([]model.SubHeading, error) {
		if _, err := tx.GetList(listID); err != nil {
			return nil, err
		}
		return tx.SubHeadings(listID)
	})
}

// Update renames a sub-heading.
func (s *SubHeadings) Update(ctx context.Context, id, title string) (*model.SubHeading, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, store.Invalid(store.KindSubHeading, id, "title", "must not be empty")
	}
	return store.Write(ctx, s.store, func(tx *store.WriteTx) (*model.SubHeading, error) {
		if err := tx.RenameSubHeading(id, title); err != nil {
			return nil, err
		}
		return tx.GetSubHeading(id)
	})
}

// Delete removes a sub-heading. Its reminders stay in the list, appended
// to the list's unsectioned reminders in their current order. It reports
// whether a sub-heading was removed.
func (s *SubHeadings) Delete(ctx context.Context, id string) (bool, error) {
	for attempt := 0; attempt < maxScopeRetries; attempt++ {
		removed, err := s.deleteOnce(ctx, id)
		if !errors.Is(err, errScopeChanged) {
			return removed, err
		}
	}
	return false, fmt.Errorf("subheading %s kept moving: %w", id, store.ErrTransactionConflict)
}

func (s *SubHeadings) deleteOnce(ctx context.Context, id string) (bool, error) {
	sub, err := s.Get(ctx, id)
	if store.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	listID := sub.ListID
	section := model.ReminderScope{ListID: &listID, SubHeadingID: &sub.ID}
	unsectioned := model.ReminderScope{ListID: &listID}
	keys := []string{store.SubHeadingsScopeKey(listID), section.Key(), unsectioned.Key()}

	var removed bool
	err = s.store.Locked(ctx, keys, func() error {
		return s.store.Update(ctx, func(tx *store.WriteTx) error {
			cur, err := tx.GetSubHeading(id)
			if store.IsNotFound(err) {
				removed = false
				return nil
			}
			if err != nil {
				return err
			}
			if cur.ListID != listID {
				return errScopeChanged
			}

			existing, err := tx.ReminderItems(unsectioned)
			if err != nil {
				return err
			}
			moving, err := tx.ReminderItems(section)
			if err != nil {
				return err
			}
			orders := make(map[string]int, len(moving))
			for i, it := range s.engine.Sort(moving) {
				orders[it.ID] = len(existing) + i
			}
			if err := tx.MoveRemindersToScope(unsectioned, orders); err != nil {
				return err
			}

			subItems, err := tx.SubHeadingItems(listID)
			if err != nil {
				return err
			}
			if _, err := tx.DeleteSubHeading(id); err != nil {
				return err
			}
			removed = true
			return tx.SetSubHeadingOrders(ordering.Changes(subItems, s.engine.RemoveID(subItems, id)))
		})
	})
	return removed, err
}

// Reorder applies a complete new sequence to a list's sub-headings.
func (s *SubHeadings) Reorder(ctx context.Context, listID string, ids []string) error {
	return s.store.Locked(ctx, []string{store.SubHeadingsScopeKey(listID)}, func() error {
		return s.store.Update(ctx, func(tx *store.WriteTx) error {
			if _, err := tx.GetList(listID); err != nil {
				return err
			}
			items, err := tx.SubHeadingItems(listID)
			if err != nil {
				return err
			}
			out, err := s.engine.Resequence(items, ids)
			if err != nil {
				return orderingError(store.KindSubHeading, "", err)
			}
			return tx.SetSubHeadingOrders(ordering.Changes(items, out))
		})
	})
}

// Move places a sub-heading at index to among its list's sub-headings.
func (s *SubHeadings) Move(ctx context.Context, id string, to int) error {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.store.Locked(ctx, []string{store.SubHeadingsScopeKey(sub.ListID)}, func() error {
		return s.store.Update(ctx, func(tx *store.WriteTx) error {
			items, err := tx.SubHeadingItems(sub.ListID)
			if err != nil {
				return err
			}
			moved, err := s.engine.MoveID(items, id, to)
			if err != nil {
				return orderingError(store.KindSubHeading, id, err)
			}
			return tx.SetSubHeadingOrders(ordering.Changes(items, moved))
		})
	})
}

// MoveReminder files a reminder under subHeadingID within its current
// list, appending it there. A nil subHeadingID un-sections it. Moves across
// lists go through Reminders.Move.
func (s *SubHeadings) MoveReminder(ctx context.Context, reminderID string, subHeadingID *string) (*model.Reminder, error) {
	rem, err := store.Read(ctx, s.store, func(tx *store.ReadTx) (*model.Reminder, error) {
		return tx.GetReminder(reminderID)
	})
	if err != nil {
		return nil, err
	}
	if subHeadingID != nil {
		sub, err := s.Get(ctx, *subHeadingID)
		if err != nil {
			return nil, err
		}
		if rem.ListID == nil || *rem.ListID != sub.ListID {
			return nil, store.Invalid(store.KindReminder, reminderID, "subheading",
				"belongs to a different list; move the reminder across lists instead")
		}
	}
	return s.reminders.Move(ctx, reminderID, rem.ListID, subHeadingID, End)
}
