// Package dragdrop implements the placement state machine behind drag and
// drop: Idle -> Dragging -> Targeting -> Committing -> Idle. Only Committing
// touches the store, and every drop returns the machine to Idle.
package dragdrop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/reminders/internal/model"
)

// State is the current phase of a drag gesture.
type State int

const (
	Idle State = iota
	Dragging
	Targeting
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Targeting:
		return "targeting"
	case Committing:
		return "committing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Kind identifies what is being dragged.
type Kind int

const (
	KindReminder Kind = iota
	KindList
	KindSubHeading
)

func (k Kind) String() string {
	switch k {
	case KindReminder:
		return "reminder"
	case KindList:
		return "list"
	case KindSubHeading:
		return "subheading"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// DefaultDebounce is the window in which repeated drag starts are ignored.
const DefaultDebounce = 300 * time.Millisecond

var (
	// ErrNotDragging is returned by Hover, Drop and DropOrder outside a drag.
	ErrNotDragging = errors.New("no drag in progress")

	// ErrNoTarget is returned by Drop when no target was ever hovered.
	ErrNoTarget = errors.New("drop without a target")

	// ErrWrongTarget is returned by Hover when the target cannot hold the
	// dragged item.
	ErrWrongTarget = errors.New("target cannot hold the dragged item")
)

// Item is the thing being dragged.
type Item struct {
	Kind Kind
	ID   string

	// ListID is the owning list of a dragged sub-heading.
	ListID string
}

// Target is a candidate drop position. For reminders Scope names the
// destination container; for sub-headings only Scope.ListID is used; lists
// ignore Scope.
type Target struct {
	Scope model.ReminderScope
	Index int
}

// Committer persists a drop. Every method runs in one transaction.
type Committer interface {
	MoveReminder(ctx context.Context, id string, dest model.ReminderScope, at int) error
	ReorderReminders(ctx context.Context, scope model.ReminderScope, ids []string) error
	MoveList(ctx context.Context, id string, at int) error
	ReorderLists(ctx context.Context, ids []string) error
	MoveSubHeading(ctx context.Context, id string, at int) error
	ReorderSubHeadings(ctx context.Context, listID string, ids []string) error
}

// Options configures a Controller.
type Options struct {
	Debounce time.Duration
	Logger   zerolog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Snapshot is a point-in-time view of a Controller.
type Snapshot struct {
	State  State
	Item   Item
	Target *Target
}

// Controller drives one drag gesture at a time. It is safe for concurrent
// use.
type Controller struct {
	commit   Committer
	debounce time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu        sync.Mutex
	state     State
	item      Item
	target    *Target
	lastStart time.Time
}

// New returns an idle Controller that commits drops through c.
func New(c Committer, opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		commit:   c,
		debounce: opts.Debounce,
		now:      opts.Now,
		log:      opts.Logger.With().Str("component", "dragdrop").Logger(),
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{State: c.state, Item: c.item}
	if c.target != nil {
		t := *c.target
		snap.Target = &t
	}
	return snap
}

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins dragging item and reports whether the start was accepted.
// While a gesture is open, a start arriving within the debounce window of
// the accepted one is ignored; a later start replaces the gesture. Starts
// are always ignored while a drop is committing.
func (c *Controller) Start(item Item) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.state == Committing {
		c.log.Debug().Str("item", item.ID).Msg("drag start ignored while committing")
		return false
	}
	if c.state != Idle && now.Sub(c.lastStart) < c.debounce {
		c.log.Debug().Str("item", item.ID).Msg("drag start debounced")
		return false
	}
	if c.state != Idle {
		c.log.Debug().Str("abandoned", c.item.ID).Str("item", item.ID).Msg("drag restarted")
	}

	c.state = Dragging
	c.item = item
	c.target = nil
	c.lastStart = now
	return true
}

// Hover records target as the current drop position. Nothing is persisted.
func (c *Controller) Hover(target Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Dragging && c.state != Targeting {
		return ErrNotDragging
	}
	if target.Index < 0 {
		target.Index = 0
	}
	if err := c.checkTarget(target); err != nil {
		return err
	}
	c.target = &target
	c.state = Targeting
	return nil
}

func (c *Controller) checkTarget(t Target) error {
	switch c.item.Kind {
	case KindReminder:
		if t.Scope.SubHeadingID != nil && t.Scope.ListID == nil {
			return fmt.Errorf("%w: section without a list", ErrWrongTarget)
		}
	case KindSubHeading:
		if t.Scope.ListID == nil || *t.Scope.ListID != c.item.ListID {
			return fmt.Errorf("%w: sub-headings stay in their list", ErrWrongTarget)
		}
	}
	return nil
}

// Cancel abandons the current gesture without persisting anything.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Dragging || c.state == Targeting {
		c.reset()
	}
}

// Drop commits the dragged item at the hovered target. The controller is
// back in Idle when Drop returns, whether or not the commit succeeded.
func (c *Controller) Drop(ctx context.Context) error {
	item, target, err := c.beginCommit(true)
	if err != nil {
		return err
	}
	defer c.endCommit()

	switch item.Kind {
	case KindReminder:
		err = c.commit.MoveReminder(ctx, item.ID, target.Scope, target.Index)
	case KindList:
		err = c.commit.MoveList(ctx, item.ID, target.Index)
	case KindSubHeading:
		err = c.commit.MoveSubHeading(ctx, item.ID, target.Index)
	default:
		err = fmt.Errorf("unknown drag kind %s", item.Kind)
	}
	return c.result(item, err)
}

// DropOrder commits ids as the complete new order of the container the
// dragged item was dropped in. Reminders need a hovered scope; lists and
// sub-headings reorder their own container.
func (c *Controller) DropOrder(ctx context.Context, ids []string) error {
	item, target, err := c.beginCommit(false)
	if err != nil {
		return err
	}
	defer c.endCommit()

	switch item.Kind {
	case KindReminder:
		if target == nil {
			err = fmt.Errorf("reordering reminders: %w", ErrNoTarget)
			break
		}
		err = c.commit.ReorderReminders(ctx, target.Scope, ids)
	case KindList:
		err = c.commit.ReorderLists(ctx, ids)
	case KindSubHeading:
		err = c.commit.ReorderSubHeadings(ctx, item.ListID, ids)
	default:
		err = fmt.Errorf("unknown drag kind %s", item.Kind)
	}
	return c.result(item, err)
}

// beginCommit moves an open gesture to Committing. When needTarget is set
// and nothing was hovered, the gesture is dropped and ErrNoTarget returned.
func (c *Controller) beginCommit(needTarget bool) (Item, *Target, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Dragging && c.state != Targeting {
		return Item{}, nil, ErrNotDragging
	}
	if needTarget && c.target == nil {
		c.reset()
		return Item{}, nil, ErrNoTarget
	}
	c.state = Committing
	var target *Target
	if c.target != nil {
		t := *c.target
		target = &t
	}
	return c.item, target, nil
}

func (c *Controller) endCommit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) reset() {
	c.state = Idle
	c.item = Item{}
	c.target = nil
}

func (c *Controller) result(item Item, err error) error {
	if err != nil {
		c.log.Warn().Err(err).Str("kind", item.Kind.String()).Str("item", item.ID).Msg("drop failed")
		return fmt.Errorf("dropping %s %s: %w", item.Kind, item.ID, err)
	}
	c.log.Debug().Str("kind", item.Kind.String()).Str("item", item.ID).Msg("drop committed")
	return nil
}
