package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/store"
	"github.com/nhle/reminders/tests/testutil"
)

func subTitles(t *testing.T, env *testutil.Env, listID string) []string {
	t.Helper()
	subs, err := env.SubHeadings.ForList(ctx, listID)
	require.NoError(t, err)
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.Title
	}
	return out
}

func TestSubHeadingCreateRequiresList(t *testing.T) {
	env := testutil.NewEnv(t)

	_, err := env.SubHeadings.Create(ctx, "missing", "Morning")
	assert.ErrorIs(t, err, store.ErrNotFound)

	l := newList(t, env, "Work")
	_, err = env.SubHeadings.Create(ctx, l.ID, " ")
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	newSub(t, env, l.ID, "Morning")
	evening := newSub(t, env, l.ID, "Evening")
	assert.Equal(t, 1, evening.SortOrder)
}

func TestSubHeadingDeleteUnsectionsReminders(t *testing.T) {
	env := testutil.NewEnv(t)
	l := newList(t, env, "Work")
	morning := newSub(t, env, l.ID, "Morning")
	evening := newSub(t, env, l.ID, "Evening")
	newReminder(t, env, "loose", &l.ID, nil)
	newReminder(t, env, "m1", &l.ID, &morning.ID)
	newReminder(t, env, "m2", &l.ID, &morning.ID)

	removed, err := env.SubHeadings.Delete(ctx, morning.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Equal(t, map[string]int{"loose": 0, "m1": 1, "m2": 2}, orders(t, env, scopeOf(&l.ID, nil)))

	ev, err := env.SubHeadings.Get(ctx, evening.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, ev.SortOrder)

	removed, err = env.SubHeadings.Delete(ctx, morning.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSubHeadingReorderAndMove(t *testing.T) {
	env := testutil.NewEnv(t)
	l := newList(t, env, "Work")
	a := newSub(t, env, l.ID, "A")
	b := newSub(t, env, l.ID, "B")
	c := newSub(t, env, l.ID, "C")

	require.NoError(t, env.SubHeadings.Reorder(ctx, l.ID, []string{c.ID, b.ID, a.ID}))
	assert.Equal(t, []string{"C", "B", "A"}, subTitles(t, env, l.ID))

	require.NoError(t, env.SubHeadings.Move(ctx, a.ID, 0))
	assert.Equal(t, []string{"A", "C", "B"}, subTitles(t, env, l.ID))

	err := env.SubHeadings.Reorder(ctx, l.ID, []string{a.ID})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestSubHeadingUpdate(t *testing.T) {
	env := testutil.NewEnv(t)
	l := newList(t, env, "Work")
	sub := newSub(t, env, l.ID, "Morning")

	got, err := env.SubHeadings.Update(ctx, sub.ID, "Afternoon")
	require.NoError(t, err)
	assert.Equal(t, "Afternoon", got.Title)

	_, err = env.SubHeadings.Update(ctx, "missing", "x")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMoveReminderBetweenSections(t *testing.T) {
	env := testutil.NewEnv(t)
	work := newList(t, env, "Work")
	home := newList(t, env, "Home")
	morning := newSub(t, env, work.ID, "Morning")
	chores := newSub(t, env, home.ID, "Chores")
	r := newReminder(t, env, "standup", &work.ID, nil)
	newReminder(t, env, "coffee", &work.ID, &morning.ID)

	got, err := env.SubHeadings.MoveReminder(ctx, r.ID, &morning.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SubHeadingID)
	assert.Equal(t, morning.ID, *got.SubHeadingID)
	assert.Equal(t, 1, got.SortOrder)

	_, err = env.SubHeadings.MoveReminder(ctx, r.ID, &chores.ID)
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	got, err = env.SubHeadings.MoveReminder(ctx, r.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, got.SubHeadingID)
	assert.Equal(t, []string{"coffee"}, titles(t, env, model.ReminderScope{ListID: &work.ID, SubHeadingID: &morning.ID}))
}
