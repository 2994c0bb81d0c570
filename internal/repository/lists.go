package repository

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
	"github.com/nhle/reminders/internal/store"
)

// Lists is the task list repository.
type Lists struct {
	base
	inbox singleflight.Group
}

// Create appends a new list after the existing ones.
func (l *Lists) Create(ctx context.Context, name, color, symbol string) (*model.TaskList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.Invalid(store.KindList, "", "name", "must not be empty")
	}

	var created *model.TaskList
	err := l.store.Locked(ctx, []string{store.ListsScopeKey}, func() error {
		return l.store.Update(ctx, func(tx *store.WriteTx) error {
			items, err := tx.ListItems()
			if err != nil {
				return err
			}
			list := &model.TaskList{
				Name:      name,
				Color:     color,
				Symbol:    symbol,
				SortOrder: l.engine.OrderForInsert(items, len(items)),
			}
			if err := tx.InsertList(list); err != nil {
				return err
			}
			created = list
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetOrCreateInbox returns the list named Inbox, creating it at the front
// of the list order if it does not exist. Concurrent callers share one
// lookup, which runs to completion even if the caller that started it gives
// up; a cancelled caller only stops waiting for the result.
func (l *Lists) GetOrCreateInbox(ctx context.Context) (*model.TaskList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	shared := context.WithoutCancel(ctx)
	ch := l.inbox.DoChan(model.InboxName, func() (any, error) {
		var inbox *model.TaskList
		err := l.store.Locked(shared, []string{store.ListsScopeKey}, func() error {
			return l.store.Update(shared, func(tx *store.WriteTx) error {
				existing, err := tx.ListsNamed(model.InboxName)
				if err != nil {
					return err
				}
				if len(existing) > 0 {
					inbox = &existing[0]
					return nil
				}

				items, err := tx.ListItems()
				if err != nil {
					return err
				}
				list := &model.TaskList{Name: model.InboxName, Symbol: model.InboxSymbol}
				if err := tx.InsertList(list); err != nil {
					return err
				}
				placed := l.engine.Insert(items, ordering.Item{ID: list.ID, CreatedAt: list.CreatedAt}, 0)
				changes := ordering.Changes(items, placed)
				delete(changes, list.ID)
				if err := tx.SetListOrders(changes); err != nil {
					return err
				}
				inbox = list
				return nil
			})
		})
		return inbox, err
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	inbox := *res.Val.(*model.TaskList)
	return &inbox, nil
}

// Get returns a list by id.
func (l *Lists) Get(ctx context.Context, id string) (*model.TaskList, error) {
	return store.Read(ctx, l.store, func(tx *store.ReadTx) (*model.TaskList, error) {
		return tx.GetList(id)
	})
}

// All returns every list sorted by order then creation time.
func (l *Lists) All(ctx context.Context) ([]model.TaskList, error) {
	return store.Read(ctx, l.store, func(tx *store.ReadTx) ([]model.TaskList, error) {
		return tx.Lists()
	})
}

// Update sets the name, color and symbol of a list.
func (l *Lists) Update(ctx context.Context, id, name, color, symbol string) (*model.TaskList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.Invalid(store.KindList, id, "name", "must not be empty")
	}
	return store.Write(ctx, l.store, func(tx *store.WriteTx) (*model.TaskList, error) {
		before, err := tx.GetList(id)
		if err != nil {
			return nil, err
		}
		after := *before
		after.Name, after.Color, after.Symbol = name, color, symbol
		if err := tx.UpdateList(*before, after); err != nil {
			return nil, err
		}
		return tx.GetList(id)
	})
}

// Delete removes a list with its sub-headings and reminders and closes the
// gap in the list order. It reports whether a list was removed.
func (l *Lists) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := l.store.Locked(ctx, []string{store.ListsScopeKey}, func() error {
		return l.store.Update(ctx, func(tx *store.WriteTx) error {
			items, err := tx.ListItems()
			if err != nil {
				return err
			}
			removed, err = tx.DeleteList(id)
			if err != nil || !removed {
				return err
			}
			return tx.SetListOrders(ordering.Changes(items, l.engine.RemoveID(items, id)))
		})
	})
	return removed, err
}

// Move places a list at index to in the list order.
func (l *Lists) Move(ctx context.Context, id string, to int) error {
	return l.store.Locked(ctx, []string{store.ListsScopeKey}, func() error {
		return l.store.Update(ctx, func(tx *store.WriteTx) error {
			items, err := tx.ListItems()
			if err != nil {
				return err
			}
			moved, err := l.engine.MoveID(items, id, to)
			if err != nil {
				return orderingError(store.KindList, id, err)
			}
			return tx.SetListOrders(ordering.Changes(items, moved))
		})
	})
}

// Reorder applies a complete new sequence of list ids.
func (l *Lists) Reorder(ctx context.Context, ids []string) error {
	return l.store.Locked(ctx, []string{store.ListsScopeKey}, func() error {
		return l.store.Update(ctx, func(tx *store.WriteTx) error {
			items, err := tx.ListItems()
			if err != nil {
				return err
			}
			out, err := l.engine.Resequence(items, ids)
			if err != nil {
				return orderingError(store.KindList, "", err)
			}
			return tx.SetListOrders(ordering.Changes(items, out))
		})
	})
}
