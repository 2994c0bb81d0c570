package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/reminders/internal/events"
	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
)

const (
	listColumns = "id, name, symbol, color, sort_order, created_at, updated_at"
	tableLists  = "task_lists"
)

// orderRow is the projection used to build ordering items.
type orderRow struct {
	ID        string    `db:"id"`
	SortOrder int       `db:"sort_order"`
	CreatedAt time.Time `db:"created_at"`
}

func toItems(rows []orderRow) []ordering.Item {
	out := make([]ordering.Item, len(rows))
	for i, r := range rows {
		out[i] = ordering.Item{ID: r.ID, Order: r.SortOrder, CreatedAt: r.CreatedAt}
	}
	return out
}

func (r *ReadTx) orderItems(query string, args ...any) ([]ordering.Item, error) {
	var rows []orderRow
	if err := r.tx.SelectContext(r.ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("loading order items: %w", err)
	}
	return toItems(rows), nil
}

// GetList retrieves a single list by ID.
func (r *ReadTx) GetList(id string) (*model.TaskList, error) {
	var l model.TaskList
	err := r.get(&l, KindList, id,
		"SELECT "+listColumns+" FROM task_lists WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Lists retrieves all lists ordered by sort_order then creation time.
func (r *ReadTx) Lists() ([]model.TaskList, error) {
	var lists []model.TaskList
	err := r.tx.SelectContext(r.ctx, &lists,
		"SELECT "+listColumns+" FROM task_lists ORDER BY sort_order, created_at, id")
	if err != nil {
		return nil, fmt.Errorf("querying lists: %w", err)
	}
	return lists, nil
}

// ListsNamed retrieves lists with exactly the given name, earliest first.
func (r *ReadTx) ListsNamed(name string) ([]model.TaskList, error) {
	var lists []model.TaskList
	err := r.tx.SelectContext(r.ctx, &lists,
		"SELECT "+listColumns+" FROM task_lists WHERE name = ? ORDER BY created_at, id", name)
	if err != nil {
		return nil, fmt.Errorf("querying lists named %q: %w", name, err)
	}
	return lists, nil
}

// ListItems returns the ordering items of all lists.
func (r *ReadTx) ListItems() ([]ordering.Item, error) {
	return r.orderItems("SELECT id, sort_order, created_at FROM task_lists")
}

// InsertList inserts a new list. Generates a UUID if ID is empty.
func (w *WriteTx) InsertList(l *model.TaskList) error {
	if strings.TrimSpace(l.Name) == "" {
		return Invalid(KindList, l.ID, "name", "must not be empty")
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	ts := timestamp()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = ts
	}
	l.UpdatedAt = ts

	_, err := w.tx.NamedExecContext(w.ctx, `
		INSERT INTO task_lists (`+listColumns+`)
		VALUES (:id, :name, :symbol, :color, :sort_order, :created_at, :updated_at)`, l)
	if err != nil {
		return fmt.Errorf("creating list: %w", err)
	}
	w.Touch(events.ListChanged, l.ID)
	return nil
}

// UpdateList writes the name, symbol and color fields that differ between
// before and after.
func (w *WriteTx) UpdateList(before, after model.TaskList) error {
	cols := map[string]any{}
	if before.Name != after.Name {
		cols["name"] = after.Name
	}
	if before.Symbol != after.Symbol {
		cols["symbol"] = after.Symbol
	}
	if before.Color != after.Color {
		cols["color"] = after.Color
	}
	if len(cols) > 0 {
		cols["updated_at"] = timestamp()
	}
	ok, err := w.updateColumns(tableLists, after.ID, cols)
	if err != nil {
		return err
	}
	if !ok {
		return NotFound(KindList, after.ID)
	}
	w.Touch(events.ListChanged, after.ID)
	return nil
}

// DeleteList removes a list. Sub-headings and reminders CASCADE.
func (w *WriteTx) DeleteList(id string) (bool, error) {
	ok, err := w.deleteByID(tableLists, id)
	if err != nil {
		return false, err
	}
	if ok {
		w.Touch(events.ListChanged, id)
	}
	return ok, nil
}

// SetListOrders writes new sort_order values for lists.
func (w *WriteTx) SetListOrders(orders map[string]int) error {
	if err := w.setOrders(tableLists, orders); err != nil {
		return err
	}
	w.Touch(events.ListChanged, sortedKeys(orders)...)
	return nil
}
