package repository

import (
	"context"
	"fmt"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
	"github.com/nhle/reminders/internal/store"
)

// MergeReport summarizes a MergeDuplicates run.
type MergeReport struct {
	// Groups counts the names that had duplicates.
	Groups int

	// ListsRemoved counts deleted duplicate lists.
	ListsRemoved int

	// SubHeadingsMoved and RemindersMoved count re-parented children.
	SubHeadingsMoved int
	RemindersMoved   int
}

// MergeDuplicates folds lists that share a name into the earliest-created
// one. Sub-headings and reminders of the duplicates are appended to the
// canonical list and the duplicates are deleted. Each name group commits in
// its own transaction.
func (l *Lists) MergeDuplicates(ctx context.Context) (MergeReport, error) {
	var rep MergeReport

	lists, err := l.All(ctx)
	if err != nil {
		return rep, err
	}
	var names []string
	count := make(map[string]int)
	for _, list := range lists {
		if count[list.Name] == 0 {
			names = append(names, list.Name)
		}
		count[list.Name]++
	}

	for _, name := range names {
		if count[name] < 2 {
			continue
		}
		g, err := l.mergeGroup(ctx, name)
		if err != nil {
			return rep, fmt.Errorf("merging lists named %q: %w", name, err)
		}
		if g.ListsRemoved == 0 {
			continue
		}
		rep.Groups++
		rep.ListsRemoved += g.ListsRemoved
		rep.SubHeadingsMoved += g.SubHeadingsMoved
		rep.RemindersMoved += g.RemindersMoved
	}

	if rep.Groups > 0 {
		l.log.Info().
			Int("groups", rep.Groups).
			Int("lists_removed", rep.ListsRemoved).
			Int("reminders_moved", rep.RemindersMoved).
			Msg("merged duplicate lists")
	}
	return rep, nil
}

// mergeKeys returns every container lock a merge of group touches.
func mergeKeys(tx *store.ReadTx, group []model.TaskList) ([]string, error) {
	canonical := group[0].ID
	keys := []string{store.ListsScopeKey}
	for _, list := range group {
		id := list.ID
		keys = append(keys,
			store.SubHeadingsScopeKey(id),
			model.ReminderScope{ListID: &id}.Key())
		subs, err := tx.SubHeadings(id)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			subID := sub.ID
			keys = append(keys,
				model.ReminderScope{ListID: &id, SubHeadingID: &subID}.Key(),
				model.ReminderScope{ListID: &canonical, SubHeadingID: &subID}.Key())
		}
	}
	return keys, nil
}

func (l *Lists) mergeGroup(ctx context.Context, name string) (MergeReport, error) {
	var keys []string
	err := l.store.View(ctx, func(tx *store.ReadTx) error {
		group, err := tx.ListsNamed(name)
		if err != nil || len(group) < 2 {
			return err
		}
		keys, err = mergeKeys(tx, group)
		return err
	})
	if err != nil || keys == nil {
		return MergeReport{}, err
	}

	var rep MergeReport
	err = l.store.Locked(ctx, keys, func() error {
		return l.store.Update(ctx, func(tx *store.WriteTx) error {
			rep = MergeReport{}
			group, err := tx.ListsNamed(name)
			if err != nil || len(group) < 2 {
				return err
			}
			canonical := group[0].ID
			unsectioned := model.ReminderScope{ListID: &canonical}

			listItems, err := tx.ListItems()
			if err != nil {
				return err
			}
			for _, dup := range group[1:] {
				if err := l.foldInto(tx, dup.ID, canonical, unsectioned, &rep); err != nil {
					return err
				}
				if _, err := tx.DeleteList(dup.ID); err != nil {
					return err
				}
				listItems = l.engine.RemoveID(listItems, dup.ID)
				rep.ListsRemoved++
			}

			before, err := tx.ListItems()
			if err != nil {
				return err
			}
			return tx.SetListOrders(ordering.Changes(before, listItems))
		})
	})
	return rep, err
}

// foldInto re-parents the sub-headings and unsectioned reminders of list
// dup onto canonical, appending each after the canonical list's own.
func (l *Lists) foldInto(tx *store.WriteTx, dup, canonical string, unsectioned model.ReminderScope, rep *MergeReport) error {
	subItems, err := tx.SubHeadingItems(canonical)
	if err != nil {
		return err
	}
	subs, err := tx.SubHeadings(dup)
	if err != nil {
		return err
	}
	next := len(subItems)
	for _, sub := range subs {
		if err := tx.MoveSubHeadingToList(sub.ID, canonical, next); err != nil {
			return err
		}
		scope := model.ReminderScope{ListID: &canonical, SubHeadingID: &sub.ID}
		n, err := tx.CountReminders(store.ReminderFilter{ListID: scope.ListID, SubHeadingID: scope.SubHeadingID})
		if err != nil {
			return err
		}
		next++
		rep.SubHeadingsMoved++
		rep.RemindersMoved += n
	}

	existing, err := tx.ReminderItems(unsectioned)
	if err != nil {
		return err
	}
	moving, err := tx.ReminderItems(model.ReminderScope{ListID: &dup})
	if err != nil {
		return err
	}
	orders := make(map[string]int, len(moving))
	for i, it := range l.engine.Sort(moving) {
		orders[it.ID] = len(existing) + i
	}
	if err := tx.MoveRemindersToScope(unsectioned, orders); err != nil {
		return err
	}
	rep.RemindersMoved += len(orders)
	return nil
}
