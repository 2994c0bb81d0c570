package dragdrop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/reminders/internal/model"
)

type call struct {
	op    string
	id    string
	scope model.ReminderScope
	at    int
	ids   []string
}

type fakeCommitter struct {
	mu    sync.Mutex
	calls []call
	err   error

	// block, when set, is waited on inside every commit.
	block chan struct{}
}

func (f *fakeCommitter) record(c call) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeCommitter) MoveReminder(_ context.Context, id string, dest model.ReminderScope, at int) error {
	return f.record(call{op: "move-reminder", id: id, scope: dest, at: at})
}

func (f *fakeCommitter) ReorderReminders(_ context.Context, scope model.ReminderScope, ids []string) error {
	return f.record(call{op: "reorder-reminders", scope: scope, ids: ids})
}

func (f *fakeCommitter) MoveList(_ context.Context, id string, at int) error {
	return f.record(call{op: "move-list", id: id, at: at})
}

func (f *fakeCommitter) ReorderLists(_ context.Context, ids []string) error {
	return f.record(call{op: "reorder-lists", ids: ids})
}

func (f *fakeCommitter) MoveSubHeading(_ context.Context, id string, at int) error {
	return f.record(call{op: "move-subheading", id: id, at: at})
}

func (f *fakeCommitter) ReorderSubHeadings(_ context.Context, listID string, ids []string) error {
	return f.record(call{op: "reorder-subheadings", id: listID, ids: ids})
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newController(t *testing.T) (*Controller, *fakeCommitter, *fakeClock) {
	t.Helper()
	fc := &fakeCommitter{}
	clock := &fakeClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	c := New(fc, Options{
		Debounce: 300 * time.Millisecond,
		Now:      clock.now,
		Logger:   zerolog.New(zerolog.NewTestWriter(t)),
	})
	return c, fc, clock
}

func strPtr(s string) *string { return &s }

func TestFullGestureCommitsMove(t *testing.T) {
	c, fc, _ := newController(t)
	assert.Equal(t, Idle, c.State())

	require.True(t, c.Start(Item{Kind: KindReminder, ID: "r1"}))
	assert.Equal(t, Dragging, c.State())

	dest := model.ReminderScope{ListID: strPtr("l2"), SubHeadingID: strPtr("s1")}
	require.NoError(t, c.Hover(Target{Scope: model.ReminderScope{ListID: strPtr("l1")}, Index: 5}))
	require.NoError(t, c.Hover(Target{Scope: dest, Index: 2}))
	assert.Equal(t, Targeting, c.State())
	assert.Empty(t, fc.calls, "hovering persists nothing")

	require.NoError(t, c.Drop(context.Background()))
	assert.Equal(t, Idle, c.State())
	require.Len(t, fc.calls, 1)
	assert.Equal(t, call{op: "move-reminder", id: "r1", scope: dest, at: 2}, fc.calls[0])
}

func TestDropFailureReturnsToIdle(t *testing.T) {
	c, fc, _ := newController(t)
	fc.err = errors.New("disk full")

	require.True(t, c.Start(Item{Kind: KindList, ID: "l1"}))
	require.NoError(t, c.Hover(Target{Index: 0}))

	err := c.Drop(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fc.err)
	assert.Equal(t, Idle, c.State())

	assert.True(t, c.Start(Item{Kind: KindList, ID: "l2"}))
}

func TestDebounceIgnoresReentrantStarts(t *testing.T) {
	c, _, clock := newController(t)

	require.True(t, c.Start(Item{Kind: KindReminder, ID: "r1"}))
	clock.advance(100 * time.Millisecond)
	assert.False(t, c.Start(Item{Kind: KindReminder, ID: "r1"}))
	assert.Equal(t, "r1", c.Snapshot().Item.ID)

	clock.advance(250 * time.Millisecond)
	assert.True(t, c.Start(Item{Kind: KindReminder, ID: "r2"}))
	snap := c.Snapshot()
	assert.Equal(t, Dragging, snap.State)
	assert.Equal(t, "r2", snap.Item.ID)
	assert.Nil(t, snap.Target)
}

func TestStartFromIdleIsNeverDebounced(t *testing.T) {
	c, _, _ := newController(t)

	require.True(t, c.Start(Item{Kind: KindReminder, ID: "r1"}))
	c.Cancel()
	assert.Equal(t, Idle, c.State())
	assert.True(t, c.Start(Item{Kind: KindReminder, ID: "r1"}))
}

func TestStartIgnoredWhileCommitting(t *testing.T) {
	c, fc, clock := newController(t)
	fc.block = make(chan struct{})

	require.True(t, c.Start(Item{Kind: KindList, ID: "l1"}))
	require.NoError(t, c.Hover(Target{Index: 1}))

	done := make(chan error, 1)
	go func() { done <- c.Drop(context.Background()) }()

	require.Eventually(t, func() bool { return c.State() == Committing }, time.Second, time.Millisecond)
	clock.advance(time.Second)
	assert.False(t, c.Start(Item{Kind: KindList, ID: "l2"}))
	assert.ErrorIs(t, c.Hover(Target{}), ErrNotDragging)

	close(fc.block)
	require.NoError(t, <-done)
	assert.Equal(t, Idle, c.State())
}

func TestDropWithoutTarget(t *testing.T) {
	c, fc, _ := newController(t)

	assert.ErrorIs(t, c.Drop(context.Background()), ErrNotDragging)

	require.True(t, c.Start(Item{Kind: KindReminder, ID: "r1"}))
	assert.ErrorIs(t, c.Drop(context.Background()), ErrNoTarget)
	assert.Equal(t, Idle, c.State())
	assert.Empty(t, fc.calls)
}

func TestHoverValidatesTarget(t *testing.T) {
	c, _, _ := newController(t)

	assert.ErrorIs(t, c.Hover(Target{}), ErrNotDragging)

	require.True(t, c.Start(Item{Kind: KindReminder, ID: "r1"}))
	err := c.Hover(Target{Scope: model.ReminderScope{SubHeadingID: strPtr("s1")}})
	assert.ErrorIs(t, err, ErrWrongTarget)
	assert.Equal(t, Dragging, c.State())

	c.Cancel()
	require.True(t, c.Start(Item{Kind: KindSubHeading, ID: "s1", ListID: "l1"}))
	err = c.Hover(Target{Scope: model.ReminderScope{ListID: strPtr("l2")}})
	assert.ErrorIs(t, err, ErrWrongTarget)
	require.NoError(t, c.Hover(Target{Scope: model.ReminderScope{ListID: strPtr("l1")}, Index: -3}))
	assert.Equal(t, 0, c.Snapshot().Target.Index)
}

func TestDropOrder(t *testing.T) {
	c, fc, _ := newController(t)
	ctx := context.Background()

	require.True(t, c.Start(Item{Kind: KindSubHeading, ID: "s2", ListID: "l1"}))
	require.NoError(t, c.DropOrder(ctx, []string{"s2", "s1"}))
	assert.Equal(t, Idle, c.State())

	require.True(t, c.Start(Item{Kind: KindReminder, ID: "r1"}))
	assert.ErrorIs(t, c.DropOrder(ctx, []string{"r1"}), ErrNoTarget)
	assert.Equal(t, Idle, c.State())

	scope := model.ReminderScope{ListID: strPtr("l1")}
	require.True(t, c.Start(Item{Kind: KindReminder, ID: "r1"}))
	require.NoError(t, c.Hover(Target{Scope: scope}))
	require.NoError(t, c.DropOrder(ctx, []string{"r2", "r1"}))

	require.Len(t, fc.calls, 2)
	assert.Equal(t, call{op: "reorder-subheadings", id: "l1", ids: []string{"s2", "s1"}}, fc.calls[0])
	assert.Equal(t, call{op: "reorder-reminders", scope: scope, ids: []string{"r2", "r1"}}, fc.calls[1])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "committing", Committing.String())
	assert.Equal(t, "State(9)", State(9).String())
	assert.Equal(t, "subheading", KindSubHeading.String())
}
