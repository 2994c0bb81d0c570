package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/repository"
	"github.com/nhle/reminders/internal/store"
	"github.com/nhle/reminders/tests/testutil"
)

func TestParseSearch(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		text     string
		priority *int
		tags     []string
		wantErr  bool
	}{
		{name: "plain text", raw: "  buy   milk ", text: "buy milk"},
		{name: "priority token", raw: "call priority=3", text: "call", priority: intPtr(3)},
		{name: "case insensitive key", raw: "PRIORITY=1", priority: intPtr(1)},
		{name: "last priority wins", raw: "priority=1 priority=2", priority: intPtr(2)},
		{name: "tags deduplicated", raw: "tag=a x tag=b tag=a", text: "x", tags: []string{"a", "b"}},
		{name: "embedded equals is text", raw: "a=b", text: "a=b"},
		{name: "bad priority", raw: "priority=9", wantErr: true},
		{name: "non numeric priority", raw: "priority=high", wantErr: true},
		{name: "empty", raw: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := repository.ParseSearch(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, store.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.text, q.Text)
			assert.Equal(t, tt.priority, q.Priority)
			assert.Equal(t, tt.tags, q.TagIDs)
		})
	}
}

func TestSearchIsEmpty(t *testing.T) {
	assert.True(t, repository.SearchQuery{Text: "  "}.IsEmpty())
	assert.False(t, repository.SearchQuery{Priority: intPtr(0)}.IsEmpty())
	assert.False(t, repository.SearchQuery{TagIDs: []string{"x"}}.IsEmpty())
}

func TestSearchText(t *testing.T) {
	env := testutil.NewEnv(t)
	urgent, err := env.Tags.Create(ctx, "urgent")
	require.NoError(t, err)

	_, err = env.Reminders.Create(ctx, repository.ReminderInput{
		Title: "Call plumber", Priority: model.PriorityHigh, TagIDs: []string{urgent.ID},
	})
	require.NoError(t, err)
	_, err = env.Reminders.Create(ctx, repository.ReminderInput{
		Title: "Call mom", Priority: model.PriorityLow,
	})
	require.NoError(t, err)
	_, err = env.Reminders.Create(ctx, repository.ReminderInput{
		Title: "Fix sink", Notes: "ask the plumber", Priority: model.PriorityHigh,
	})
	require.NoError(t, err)

	found, err := env.Reminders.SearchText(ctx, "plumber")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = env.Reminders.SearchText(ctx, "call priority=3")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Call plumber", found[0].Title)

	found, err = env.Reminders.SearchText(ctx, "tag="+urgent.ID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Len(t, found[0].Tags, 1)
	assert.Equal(t, "urgent", found[0].Tags[0].Name)

	found, err = env.Reminders.SearchText(ctx, "")
	require.NoError(t, err)
	assert.Len(t, found, 3)

	_, err = env.Reminders.SearchText(ctx, "priority=7")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func intPtr(v int) *int { return &v }

func TestSearchTextFoldsUnicodeCase(t *testing.T) {
	env := testutil.NewEnv(t)
	_, err := env.Reminders.Create(ctx, repository.ReminderInput{Title: "ÉCOLE meeting"})
	require.NoError(t, err)
	_, err = env.Reminders.Create(ctx, repository.ReminderInput{Title: "Straße fix"})
	require.NoError(t, err)

	for q, want := range map[string]string{
		"école":   "ÉCOLE meeting",
		"ÉCOLE":   "ÉCOLE meeting",
		"STRASSE": "Straße fix",
		"straße":  "Straße fix",
	} {
		found, err := env.Reminders.SearchText(ctx, q)
		require.NoError(t, err)
		require.Len(t, found, 1, q)
		assert.Equal(t, want, found[0].Title)
	}
}
