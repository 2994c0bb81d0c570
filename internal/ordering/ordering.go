// Package ordering computes dense, zero-based order values for sibling items
// inside a container. It never touches storage or parent references; callers
// persist the returned order values.
package ordering

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// ErrIndexOutOfRange is returned when a source index does not address a sibling.
var ErrIndexOutOfRange = errors.New("index out of range")

// ErrUnknownItem is returned when an id is not among the siblings.
var ErrUnknownItem = errors.New("item not among siblings")

// ErrMismatchedSet is returned when a requested sequence is not a permutation
// of the current siblings.
var ErrMismatchedSet = errors.New("sequence does not match siblings")

// Item is one sibling in an ordering scope.
type Item struct {
	ID        string
	Order     int
	CreatedAt time.Time
}

// Engine applies the ordering rules. The zero value is usable and discards
// integrity warnings.
type Engine struct {
	log zerolog.Logger
}

// New returns an Engine that reports data-integrity warnings to log.
func New(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "ordering").Logger()}
}

// Sort returns a copy of items in canonical order: order value, then
// creation time, then id. Duplicate order values are logged as integrity
// warnings.
func (e *Engine) Sort(items []Item) []Item {
	out := append([]Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })

	for i := 1; i < len(out); i++ {
		if out[i].Order == out[i-1].Order {
			e.log.Warn().
				Str("first", out[i-1].ID).
				Str("second", out[i].ID).
				Int("order", out[i].Order).
				Msg("duplicate order value; breaking tie by creation time")
		}
	}
	return out
}

func less(a, b Item) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Renumber sorts items canonically and rewrites Order to 0..n-1.
func (e *Engine) Renumber(items []Item) []Item {
	out := e.Sort(items)
	return renumber(out)
}

func renumber(items []Item) []Item {
	for i := range items {
		items[i].Order = i
	}
	return items
}

// OrderForInsert returns the order value a new item receives when inserted
// at target. The target is clamped to [0, len(siblings)].
func (e *Engine) OrderForInsert(siblings []Item, target int) int {
	return clamp(target, len(siblings))
}

// Insert places item at target (clamped) and renumbers the container.
func (e *Engine) Insert(siblings []Item, item Item, target int) []Item {
	cur := e.Sort(siblings)
	at := clamp(target, len(cur))

	out := make([]Item, 0, len(cur)+1)
	out = append(out, cur[:at]...)
	out = append(out, item)
	out = append(out, cur[at:]...)
	return renumber(out)
}

// Move removes the item at from and reinserts it at to, where to is an index
// into the sequence after removal (clamped). The result is renumbered.
func (e *Engine) Move(siblings []Item, from, to int) ([]Item, error) {
	cur := e.Sort(siblings)
	if from < 0 || from >= len(cur) {
		return nil, fmt.Errorf("moving from %d of %d: %w", from, len(cur), ErrIndexOutOfRange)
	}
	moved := cur[from]

	rest := make([]Item, 0, len(cur)-1)
	rest = append(rest, cur[:from]...)
	rest = append(rest, cur[from+1:]...)

	at := clamp(to, len(rest))
	out := make([]Item, 0, len(cur))
	out = append(out, rest[:at]...)
	out = append(out, moved)
	out = append(out, rest[at:]...)
	return renumber(out), nil
}

// MoveID is Move addressed by id rather than index.
func (e *Engine) MoveID(siblings []Item, id string, to int) ([]Item, error) {
	cur := e.Sort(siblings)
	idx := indexOf(cur, id)
	if idx < 0 {
		return nil, fmt.Errorf("moving %s: %w", id, ErrUnknownItem)
	}
	return e.Move(cur, idx, to)
}

// Remove drops the item at index and renumbers the remainder.
func (e *Engine) Remove(siblings []Item, index int) ([]Item, error) {
	cur := e.Sort(siblings)
	if index < 0 || index >= len(cur) {
		return nil, fmt.Errorf("removing %d of %d: %w", index, len(cur), ErrIndexOutOfRange)
	}
	out := make([]Item, 0, len(cur)-1)
	out = append(out, cur[:index]...)
	out = append(out, cur[index+1:]...)
	return renumber(out), nil
}

// RemoveID is Remove addressed by id. Removing an absent id only renumbers.
func (e *Engine) RemoveID(siblings []Item, id string) []Item {
	cur := e.Sort(siblings)
	idx := indexOf(cur, id)
	if idx < 0 {
		return renumber(cur)
	}
	out, _ := e.Remove(cur, idx)
	return out
}

// Resequence applies a complete new sequence given as ids. The ids must be
// exactly the current siblings, each once.
func (e *Engine) Resequence(siblings []Item, ids []string) ([]Item, error) {
	if len(ids) != len(siblings) {
		return nil, fmt.Errorf("resequencing %d ids over %d siblings: %w",
			len(ids), len(siblings), ErrMismatchedSet)
	}
	byID := make(map[string]Item, len(siblings))
	for _, it := range siblings {
		byID[it.ID] = it
	}

	out := make([]Item, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok || seen[id] {
			return nil, fmt.Errorf("resequencing with %s: %w", id, ErrMismatchedSet)
		}
		seen[id] = true
		out = append(out, it)
	}
	return renumber(out), nil
}

// Transfer moves id out of source and into dest at target, renumbering both
// containers independently.
func (e *Engine) Transfer(source, dest []Item, id string, target int) (newSource, newDest []Item, err error) {
	cur := e.Sort(source)
	idx := indexOf(cur, id)
	if idx < 0 {
		return nil, nil, fmt.Errorf("transferring %s: %w", id, ErrUnknownItem)
	}
	moved := cur[idx]
	newSource, _ = e.Remove(cur, idx)
	newDest = e.Insert(dest, moved, target)
	return newSource, newDest, nil
}

// Changes returns the ids whose order differs between before and after,
// mapped to the new value. Items absent from before are always included.
func Changes(before, after []Item) map[string]int {
	old := make(map[string]int, len(before))
	for _, it := range before {
		old[it.ID] = it.Order
	}
	out := make(map[string]int)
	for _, it := range after {
		if o, ok := old[it.ID]; !ok || o != it.Order {
			out[it.ID] = it.Order
		}
	}
	return out
}

// IsDense reports whether the order values form 0..n-1 without gaps or
// duplicates.
func IsDense(items []Item) bool {
	seen := make([]bool, len(items))
	for _, it := range items {
		if it.Order < 0 || it.Order >= len(items) || seen[it.Order] {
			return false
		}
		seen[it.Order] = true
	}
	return true
}

// IDs returns the ids in slice order.
func IDs(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func indexOf(items []Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
