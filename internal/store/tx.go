package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/reminders/internal/events"
)

// ReadTx is a read-only view of the entity graph valid for the duration of
// a View or Update callback.
type ReadTx struct {
	tx  *sqlx.Tx
	ctx context.Context
}

// WriteTx extends ReadTx with mutations. Entities changed through it are
// recorded so that change events can be published after commit.
type WriteTx struct {
	ReadTx
	touched map[events.Kind][]string
}

// Touch records that entities of kind changed in this transaction.
func (w *WriteTx) Touch(kind events.Kind, ids ...string) {
	if w.touched == nil {
		w.touched = make(map[events.Kind][]string)
	}
	w.touched[kind] = append(w.touched[kind], ids...)
}

func (w *WriteTx) touchedKinds() []events.Kind {
	kinds := make([]events.Kind, 0, len(w.touched))
	for k := range w.touched {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// timestamp is the time applied to rows written in a transaction.
func timestamp() time.Time {
	return time.Now().UTC()
}

// updateColumns issues UPDATE table SET <cols> WHERE id = ?, touching only
// the given columns. It reports whether a row matched.
func (w *WriteTx) updateColumns(table, id string, cols map[string]any) (bool, error) {
	if len(cols) == 0 {
		return w.exists(table, id)
	}

	keys := make([]string, 0, len(cols))
	for k := range cols {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		sets = append(sets, k+" = ?")
		args = append(args, cols[k])
	}
	args = append(args, id)

	query := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := w.tx.ExecContext(w.ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("updating %s %s: %w", table, id, err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// setOrders writes sort_order for each id in a table.
func (w *WriteTx) setOrders(table string, orders map[string]int) error {
	if len(orders) == 0 {
		return nil
	}
	stmt, err := w.tx.PreparexContext(w.ctx,
		"UPDATE "+table+" SET sort_order = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing %s order update: %w", table, err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(orders))
	for id := range orders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := stmt.ExecContext(w.ctx, orders[id], id); err != nil {
			return fmt.Errorf("setting order of %s %s: %w", table, id, err)
		}
	}
	return nil
}

func (w *WriteTx) deleteByID(table, id string) (bool, error) {
	result, err := w.tx.ExecContext(w.ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting %s %s: %w", table, id, err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *ReadTx) exists(table, id string) (bool, error) {
	var n int
	err := r.tx.GetContext(r.ctx, &n, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("checking %s %s: %w", table, id, err)
	}
	return n > 0, nil
}

// get loads a single row into dest, mapping sql.ErrNoRows to a
// *NotFoundError for kind/id.
func (r *ReadTx) get(dest any, kind, id, query string, args ...any) error {
	err := r.tx.GetContext(r.ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return NotFound(kind, id)
	}
	if err != nil {
		return fmt.Errorf("getting %s %s: %w", kind, id, err)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
