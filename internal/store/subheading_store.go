package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/reminders/internal/events"
	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
)

const (
	subHeadingColumns = "id, list_id, title, sort_order, created_at, updated_at"
	tableSubHeadings  = "subheadings"
)

// GetSubHeading retrieves a single sub-heading by ID.
func (r *ReadTx) GetSubHeading(id string) (*model.SubHeading, error) {
	var sh model.SubHeading
	err := r.get(&sh, KindSubHeading, id,
		"SELECT "+subHeadingColumns+" FROM subheadings WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// SubHeadings retrieves the sub-headings of a list in order.
func (r *ReadTx) SubHeadings(listID string) ([]model.SubHeading, error) {
	var out []model.SubHeading
	err := r.tx.SelectContext(r.ctx, &out,
		"SELECT "+subHeadingColumns+" FROM subheadings WHERE list_id = ? ORDER BY sort_order, created_at, id",
		listID)
	if err != nil {
		return nil, fmt.Errorf("querying subheadings of list %s: %w", listID, err)
	}
	return out, nil
}

// SubHeadingItems returns the ordering items of a list's sub-headings.
func (r *ReadTx) SubHeadingItems(listID string) ([]ordering.Item, error) {
	return r.orderItems(
		"SELECT id, sort_order, created_at FROM subheadings WHERE list_id = ?", listID)
}

// InsertSubHeading inserts a new sub-heading. Generates a UUID if ID is empty.
func (w *WriteTx) InsertSubHeading(sh *model.SubHeading) error {
	if strings.TrimSpace(sh.Title) == "" {
		return Invalid(KindSubHeading, sh.ID, "title", "must not be empty")
	}
	if sh.ID == "" {
		sh.ID = uuid.New().String()
	}
	ts := timestamp()
	sh.CreatedAt = ts
	sh.UpdatedAt = ts

	_, err := w.tx.NamedExecContext(w.ctx, `
		INSERT INTO subheadings (`+subHeadingColumns+`)
		VALUES (:id, :list_id, :title, :sort_order, :created_at, :updated_at)`, sh)
	if err != nil {
		return fmt.Errorf("creating subheading: %w", err)
	}
	w.Touch(events.SubHeadingChanged, sh.ID)
	return nil
}

// RenameSubHeading sets a sub-heading's title.
func (w *WriteTx) RenameSubHeading(id, title string) error {
	ok, err := w.updateColumns(tableSubHeadings, id, map[string]any{
		"title":      title,
		"updated_at": timestamp(),
	})
	if err != nil {
		return err
	}
	if !ok {
		return NotFound(KindSubHeading, id)
	}
	w.Touch(events.SubHeadingChanged, id)
	return nil
}

// MoveSubHeadingToList re-parents a sub-heading and its reminders onto
// another list, assigning the sub-heading the given order.
func (w *WriteTx) MoveSubHeadingToList(id, listID string, order int) error {
	ok, err := w.updateColumns(tableSubHeadings, id, map[string]any{
		"list_id":    listID,
		"sort_order": order,
		"updated_at": timestamp(),
	})
	if err != nil {
		return err
	}
	if !ok {
		return NotFound(KindSubHeading, id)
	}
	if _, err := w.tx.ExecContext(w.ctx,
		"UPDATE reminders SET list_id = ?, updated_at = ? WHERE subheading_id = ?",
		listID, timestamp(), id); err != nil {
		return fmt.Errorf("re-parenting reminders of subheading %s: %w", id, err)
	}
	w.Touch(events.SubHeadingChanged, id)
	w.Touch(events.ReminderChanged)
	return nil
}

// DeleteSubHeading removes a sub-heading. Callers are responsible for
// re-homing its reminders first; any left are un-sectioned by the schema.
func (w *WriteTx) DeleteSubHeading(id string) (bool, error) {
	ok, err := w.deleteByID(tableSubHeadings, id)
	if err != nil {
		return false, err
	}
	if ok {
		w.Touch(events.SubHeadingChanged, id)
	}
	return ok, nil
}

// SetSubHeadingOrders writes new sort_order values for sub-headings.
func (w *WriteTx) SetSubHeadingOrders(orders map[string]int) error {
	if err := w.setOrders(tableSubHeadings, orders); err != nil {
		return err
	}
	w.Touch(events.SubHeadingChanged, sortedKeys(orders)...)
	return nil
}
