package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/repository"
	"github.com/nhle/reminders/tests/testutil"
)

var ctx = context.Background()

func newList(t *testing.T, env *testutil.Env, name string) *model.TaskList {
	t.Helper()
	l, err := env.Lists.Create(ctx, name, "", "")
	require.NoError(t, err)
	return l
}

func newSub(t *testing.T, env *testutil.Env, listID, title string) *model.SubHeading {
	t.Helper()
	sub, err := env.SubHeadings.Create(ctx, listID, title)
	require.NoError(t, err)
	return sub
}

func repositoryInput(title string, listID *string) repository.ReminderInput {
	return repository.ReminderInput{Title: title, ListID: listID}
}

func newReminder(t *testing.T, env *testutil.Env, title string, listID, subID *string) *model.Reminder {
	t.Helper()
	rem, err := env.Reminders.Create(ctx, repository.ReminderInput{
		Title:        title,
		ListID:       listID,
		SubHeadingID: subID,
	})
	require.NoError(t, err)
	return rem
}

// orders returns title -> order for the reminders of scope.
func orders(t *testing.T, env *testutil.Env, scope model.ReminderScope) map[string]int {
	t.Helper()
	rs, err := env.Reminders.InScope(ctx, scope)
	require.NoError(t, err)
	out := make(map[string]int, len(rs))
	for _, r := range rs {
		out[r.Title] = r.SortOrder
	}
	return out
}

// titles returns the titles of the reminders of scope in order.
func titles(t *testing.T, env *testutil.Env, scope model.ReminderScope) []string {
	t.Helper()
	rs, err := env.Reminders.InScope(ctx, scope)
	require.NoError(t, err)
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Title
	}
	return out
}

func ids(rs ...*model.Reminder) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func scopeOf(listID, subID *string) model.ReminderScope {
	return model.ReminderScope{ListID: listID, SubHeadingID: subID}
}
