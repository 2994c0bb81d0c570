package repository_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/repository"
	"github.com/nhle/reminders/internal/store"
	"github.com/nhle/reminders/tests/testutil"
)

func TestWorkflowScenario(t *testing.T) {
	env := testutil.NewEnv(t)

	work := newList(t, env, "Work")
	home := newList(t, env, "Home")
	assert.Equal(t, 0, work.SortOrder)
	assert.Equal(t, 1, home.SortOrder)

	morning := newSub(t, env, work.ID, "Morning")
	assert.Equal(t, 0, morning.SortOrder)

	a := newReminder(t, env, "A", &work.ID, &morning.ID)
	b := newReminder(t, env, "B", &work.ID, &morning.ID)
	c := newReminder(t, env, "C", &work.ID, &morning.ID)
	scope := scopeOf(&work.ID, &morning.ID)
	assert.Equal(t, map[string]int{"A": 0, "B": 1, "C": 2}, orders(t, env, scope))

	require.NoError(t, env.Reminders.Reorder(ctx, scope, ids(c, a, b)))
	assert.Equal(t, map[string]int{"C": 0, "A": 1, "B": 2}, orders(t, env, scope))

	removed, err := env.Reminders.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, map[string]int{"C": 0, "B": 1}, orders(t, env, scope))
}

func TestCreateRejectsEmptyTitle(t *testing.T) {
	env := testutil.NewEnv(t)

	_, err := env.Reminders.Create(ctx, repository.ReminderInput{Title: "   "})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	var ve *store.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "title", ve.Field)

	all, err := env.Reminders.Query(ctx, store.ReminderFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateRejectsBadPriorityAndMismatchedSection(t *testing.T) {
	env := testutil.NewEnv(t)
	work := newList(t, env, "Work")
	home := newList(t, env, "Home")
	sub := newSub(t, env, work.ID, "Morning")

	_, err := env.Reminders.Create(ctx, repository.ReminderInput{Title: "x", Priority: 4})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = env.Reminders.Create(ctx, repository.ReminderInput{Title: "x", ListID: &home.ID, SubHeadingID: &sub.ID})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = env.Reminders.Create(ctx, repository.ReminderInput{Title: "x", SubHeadingID: &sub.ID})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	missing := "missing"
	_, err = env.Reminders.Create(ctx, repository.ReminderInput{Title: "x", ListID: &missing})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateInInbox(t *testing.T) {
	env := testutil.NewEnv(t)
	r := newReminder(t, env, "loose", nil, nil)
	assert.True(t, r.IsInInbox())
	assert.Equal(t, 0, r.SortOrder)

	r2 := newReminder(t, env, "loose 2", nil, nil)
	assert.Equal(t, 1, r2.SortOrder)
}

func TestUpdateAppliesMutatorAndValidates(t *testing.T) {
	env := testutil.NewEnv(t)
	r := newReminder(t, env, "draft", nil, nil)

	got, err := env.Reminders.Update(ctx, r.ID, func(rem *model.Reminder) error {
		rem.Title = "final"
		rem.Priority = model.PriorityHigh
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, model.PriorityHigh, got.Priority)

	_, err = env.Reminders.Update(ctx, r.ID, func(rem *model.Reminder) error {
		rem.Title = ""
		return nil
	})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = env.Reminders.Update(ctx, "nope", func(*model.Reminder) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)

	l := newList(t, env, "Work")
	_, err = env.Reminders.Update(ctx, r.ID, func(rem *model.Reminder) error {
		rem.ListID = &l.ID
		return nil
	})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	got, err = env.Reminders.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.Nil(t, got.ListID)
}

func TestCompletionRoundTrip(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	env := testutil.NewEnv(t, testutil.WithClock(now))
	start := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	r, err := env.Reminders.Create(ctx, repository.ReminderInput{
		Title:     "Dentist",
		Notes:     "bring card",
		Priority:  model.PriorityMedium,
		StartDate: &start,
	})
	require.NoError(t, err)

	done, err := env.Reminders.SetCompletion(ctx, r.ID, true)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, now.Equal(*done.CompletedAt))

	again, err := env.Reminders.SetCompletion(ctx, r.ID, true)
	require.NoError(t, err)
	assert.True(t, now.Equal(*again.CompletedAt))

	undone, err := env.Reminders.SetCompletion(ctx, r.ID, false)
	require.NoError(t, err)
	assert.False(t, undone.IsCompleted)
	assert.Nil(t, undone.CompletedAt)
	assert.Equal(t, r.Title, undone.Title)
	assert.Equal(t, r.Notes, undone.Notes)
	assert.Equal(t, r.Priority, undone.Priority)
	assert.True(t, r.StartDate.Equal(*undone.StartDate))
	assert.Equal(t, r.SortOrder, undone.SortOrder)
}

func TestCompletionClearsNotifications(t *testing.T) {
	env := testutil.NewEnv(t)
	r, err := env.Reminders.Create(ctx, repository.ReminderInput{
		Title:         "Call",
		Notifications: model.TokenSet{"morning"},
	})
	require.NoError(t, err)

	done, err := env.Reminders.SetCompletion(ctx, r.ID, true)
	require.NoError(t, err)
	assert.Empty(t, done.Notifications)

	_, _, _, synced := env.Gateway.Snapshot()
	assert.Empty(t, synced[r.ID])
}

func TestDeleteIsIdempotent(t *testing.T) {
	env := testutil.NewEnv(t)
	r := newReminder(t, env, "x", nil, nil)

	removed, err := env.Reminders.Delete(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = env.Reminders.Delete(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDeleteCascadesOwnedAndKeepsTags(t *testing.T) {
	env := testutil.NewEnv(t)
	tag, err := env.Tags.Create(ctx, "errand")
	require.NoError(t, err)
	r, err := env.Reminders.Create(ctx, repository.ReminderInput{
		Title:    "Pick up",
		TagIDs:   []string{tag.ID},
		Location: &model.Location{Name: "Shop", Latitude: 1, Longitude: 2},
	})
	require.NoError(t, err)
	require.NotNil(t, r.Location)
	require.Len(t, r.Tags, 1)

	_, err = env.Reminders.AddPhoto(ctx, r.ID, []byte{1, 2, 3}, repository.End)
	require.NoError(t, err)
	require.NoError(t, env.Reminders.SetVoiceNote(ctx, r.ID, []byte("audio")))

	removed, err := env.Reminders.Delete(ctx, r.ID)
	require.NoError(t, err)
	require.True(t, removed)

	_, err = store.Read(ctx, env.Store, func(tx *store.ReadTx) (*model.Location, error) {
		return tx.GetLocation(r.Location.ID)
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.Reminders.VoiceNote(ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	photos, err := store.Read(ctx, env.Store, func(tx *store.ReadTx) ([]model.ReminderPhoto, error) {
		return tx.Photos(r.ID)
	})
	require.NoError(t, err)
	assert.Empty(t, photos)

	tags, err := env.Tags.All(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	_, _, stopped, _ := env.Gateway.Snapshot()
	assert.Contains(t, stopped, r.ID)
}

func TestDeleteTagDetachesOnly(t *testing.T) {
	env := testutil.NewEnv(t)
	tag, err := env.Tags.Create(ctx, "errand")
	require.NoError(t, err)
	r, err := env.Reminders.Create(ctx, repository.ReminderInput{Title: "x", TagIDs: []string{tag.ID}})
	require.NoError(t, err)

	removed, err := env.Tags.Delete(ctx, tag.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	got, err := env.Reminders.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestMoveAcrossLists(t *testing.T) {
	env := testutil.NewEnv(t)
	l1 := newList(t, env, "L1")
	l2 := newList(t, env, "L2")
	newReminder(t, env, "a", &l1.ID, nil)
	b := newReminder(t, env, "b", &l1.ID, nil)
	newReminder(t, env, "c", &l1.ID, nil)
	newReminder(t, env, "x", &l2.ID, nil)

	moved, err := env.Reminders.Move(ctx, b.ID, &l2.ID, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, &l2.ID, moved.ListID)
	assert.Nil(t, moved.SubHeadingID)
	assert.Equal(t, 0, moved.SortOrder)

	assert.Equal(t, map[string]int{"a": 0, "c": 1}, orders(t, env, scopeOf(&l1.ID, nil)))
	assert.Equal(t, map[string]int{"b": 0, "x": 1}, orders(t, env, scopeOf(&l2.ID, nil)))
}

func TestMoveIntoSectionAndInbox(t *testing.T) {
	env := testutil.NewEnv(t)
	l := newList(t, env, "L")
	sub := newSub(t, env, l.ID, "S")
	a := newReminder(t, env, "a", &l.ID, nil)
	newReminder(t, env, "s1", &l.ID, &sub.ID)

	_, err := env.Reminders.Move(ctx, a.ID, &l.ID, &sub.ID, repository.End)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "a"}, titles(t, env, scopeOf(&l.ID, &sub.ID)))

	inbox, err := env.Reminders.Move(ctx, a.ID, nil, nil, 0)
	require.NoError(t, err)
	assert.True(t, inbox.IsInInbox())
	assert.Nil(t, inbox.SubHeadingID)
	assert.Equal(t, map[string]int{"s1": 0}, orders(t, env, scopeOf(&l.ID, &sub.ID)))

	other := newList(t, env, "Other")
	_, err = env.Reminders.Move(ctx, a.ID, &other.ID, &sub.ID, 0)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestMoveToOwnPositionIsNoop(t *testing.T) {
	env := testutil.NewEnv(t)
	l := newList(t, env, "L")
	newReminder(t, env, "a", &l.ID, nil)
	b := newReminder(t, env, "b", &l.ID, nil)
	newReminder(t, env, "c", &l.ID, nil)

	_, err := env.Reminders.Move(ctx, b.ID, &l.ID, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, titles(t, env, scopeOf(&l.ID, nil)))
}

func TestReorderRejectsPartialSequence(t *testing.T) {
	env := testutil.NewEnv(t)
	l := newList(t, env, "L")
	a := newReminder(t, env, "a", &l.ID, nil)
	b := newReminder(t, env, "b", &l.ID, nil)
	newReminder(t, env, "c", &l.ID, nil)

	err := env.Reminders.Reorder(ctx, scopeOf(&l.ID, nil), ids(b, a))
	assert.ErrorIs(t, err, store.ErrInvalidInput)
	assert.Equal(t, []string{"a", "b", "c"}, titles(t, env, scopeOf(&l.ID, nil)))
}

func TestCalendarFailureDoesNotUndoSave(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Gateway.CalendarErr = errors.New("calendar offline")
	end := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	r, err := env.Reminders.Create(ctx, repository.ReminderInput{Title: "Flight", EndDate: &end})
	require.NoError(t, err)

	got, err := env.Reminders.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flight", got.Title)

	events, monitored, _, _ := env.Gateway.Snapshot()
	assert.Equal(t, []string{"Flight"}, events)
	assert.Empty(t, monitored)
}

func TestSetLocationStartsAndStopsMonitoring(t *testing.T) {
	env := testutil.NewEnv(t)
	r := newReminder(t, env, "x", nil, nil)

	got, err := env.Reminders.SetLocation(ctx, r.ID, &model.Location{Name: "Gym", Latitude: 10, Longitude: 20})
	require.NoError(t, err)
	require.NotNil(t, got.Location)
	assert.Equal(t, model.DefaultRadius, got.Location.Radius)

	got, err = env.Reminders.SetLocation(ctx, r.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, got.Location)

	_, monitored, stopped, _ := env.Gateway.Snapshot()
	assert.Equal(t, []string{r.ID}, monitored)
	assert.Equal(t, []string{r.ID}, stopped)
}
