package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/repository"
	"github.com/nhle/reminders/internal/store"
	"github.com/nhle/reminders/tests/testutil"
)

func photoBytes(t *testing.T, env *testutil.Env, reminderID string) []byte {
	t.Helper()
	photos, err := env.Reminders.Photos(ctx, reminderID)
	require.NoError(t, err)
	out := make([]byte, len(photos))
	for i, p := range photos {
		assert.Equal(t, i, p.SortOrder)
		out[i] = p.Data[0]
	}
	return out
}

func TestPhotosStayDense(t *testing.T) {
	env := testutil.NewEnv(t)
	r := newReminder(t, env, "x", nil, nil)

	_, err := env.Reminders.AddPhoto(ctx, r.ID, []byte{'a'}, repository.End)
	require.NoError(t, err)
	b, err := env.Reminders.AddPhoto(ctx, r.ID, []byte{'b'}, repository.End)
	require.NoError(t, err)
	_, err = env.Reminders.AddPhoto(ctx, r.ID, []byte{'c'}, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("cab"), photoBytes(t, env, r.ID))

	require.NoError(t, env.Reminders.MovePhoto(ctx, b.ID, 0))
	assert.Equal(t, []byte("bca"), photoBytes(t, env, r.ID))

	removed, err := env.Reminders.RemovePhoto(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []byte("ca"), photoBytes(t, env, r.ID))

	removed, err = env.Reminders.RemovePhoto(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = env.Reminders.AddPhoto(ctx, r.ID, nil, 0)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
	_, err = env.Reminders.AddPhoto(ctx, "missing", []byte{'z'}, 0)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVoiceNote(t *testing.T) {
	env := testutil.NewEnv(t)
	r := newReminder(t, env, "x", nil, nil)

	_, err := env.Reminders.VoiceNote(ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, env.Reminders.SetVoiceNote(ctx, r.ID, []byte("one")))
	require.NoError(t, env.Reminders.SetVoiceNote(ctx, r.ID, []byte("two")))
	note, err := env.Reminders.VoiceNote(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), note.Data)

	got, err := env.Reminders.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.HasVoice)

	cleared, err := env.Reminders.ClearVoiceNote(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, cleared)
	cleared, err = env.Reminders.ClearVoiceNote(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestTagsRepository(t *testing.T) {
	env := testutil.NewEnv(t)

	tag, err := env.Tags.Create(ctx, "home")
	require.NoError(t, err)
	_, err = env.Tags.Create(ctx, "home")
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	same, err := env.Tags.GetOrCreate(ctx, " home ")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, same.ID)

	renamed, err := env.Tags.Rename(ctx, tag.ID, "house")
	require.NoError(t, err)
	assert.Equal(t, "house", renamed.Name)

	r := newReminder(t, env, "x", nil, nil)
	require.NoError(t, env.Reminders.SetTags(ctx, r.ID, []string{tag.ID}))
	got, err := env.Reminders.Get(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "house", got.Tags[0].Name)

	err = env.Reminders.SetTags(ctx, r.ID, []string{"missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLocationCatalog(t *testing.T) {
	env := testutil.NewEnv(t)

	gym, err := env.Locations.Save(ctx, "Gym", 52.5, 13.4, 0)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultRadius, gym.Radius)

	_, err = env.Locations.Save(ctx, "Nowhere", 91, 0, 10)
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	r := newReminder(t, env, "workout", nil, nil)
	owned, err := env.Locations.Attach(ctx, r.ID, gym.ID)
	require.NoError(t, err)
	assert.NotEqual(t, gym.ID, owned.ID)
	require.NotNil(t, owned.ReminderID)
	assert.Equal(t, r.ID, *owned.ReminderID)

	_, err = env.Locations.Delete(ctx, owned.ID)
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	catalog, err := env.Locations.All(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, "Gym", catalog[0].Name)

	removed, err := env.Locations.Delete(ctx, gym.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	got, err := env.Reminders.Get(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Gym", got.Location.Name)

	_, monitored, _, _ := env.Gateway.Snapshot()
	assert.Equal(t, []string{r.ID}, monitored)
}

func TestDailyLimits(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithLimits(model.LimitsConfig{MaxStartPerDay: 2}))
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	for i, hour := range []int{8, 17} {
		start := day.Add(time.Duration(hour) * time.Hour)
		_, err := env.Reminders.Create(ctx, repository.ReminderInput{
			Title:     string(rune('a' + i)),
			StartDate: &start,
		})
		require.NoError(t, err)

		ok, err := env.Limits.CanAddWithStartDate(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, i == 0, ok)
	}

	ok, err := env.Limits.CanAddWithStartDate(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.Limits.CanAddWithEndDate(ctx, day)
	require.NoError(t, err)
	assert.True(t, ok, "a zero cap always allows")
}
