package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
	"github.com/nhle/reminders/internal/store"
	"github.com/nhle/reminders/tests/testutil"
)

// openRaw opens a second connection without foreign key enforcement so
// tests can write rows the store itself would never produce.
func openRaw(t *testing.T, path string) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_time_format=sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSweepOrphans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.db")
	s, err := store.Open(path, store.Options{Logger: testutil.NewLogger(t)})
	require.NoError(t, err)
	defer s.Close()

	l := insertList(t, s, "Work", 0)
	sub := &model.SubHeading{ListID: l.ID, Title: "Morning"}
	require.NoError(t, s.Update(context.Background(), func(tx *store.WriteTx) error {
		return tx.InsertSubHeading(sub)
	}))
	other := insertList(t, s, "Home", 1)
	kept := insertReminder(t, s, &model.Reminder{Title: "kept", ListID: &l.ID, SubHeadingID: &sub.ID})
	misfiled := insertReminder(t, s, &model.Reminder{Title: "misfiled", ListID: &other.ID})

	raw := openRaw(t, path)
	raw.MustExec(`INSERT INTO reminder_photos (id, reminder_id, data, sort_order, created_at)
		VALUES ('p1', 'ghost', x'01', 0, '2026-01-01 00:00:00+00:00')`)
	raw.MustExec(`INSERT INTO voice_notes (reminder_id, data, created_at)
		VALUES ('ghost', x'01', '2026-01-01 00:00:00+00:00')`)
	raw.MustExec(`INSERT INTO reminder_tags (reminder_id, tag_id) VALUES (?, 'ghost-tag')`, kept.ID)
	raw.MustExec(`UPDATE reminders SET subheading_id = ? WHERE id = ?`, sub.ID, misfiled.ID)

	rep, err := s.SweepOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Photos)
	assert.Equal(t, 1, rep.VoiceNotes)
	assert.Equal(t, 1, rep.TagLinks)
	assert.Equal(t, 1, rep.SectionsFixed)
	assert.Equal(t, 4, rep.Total())

	got := getReminder(t, s, misfiled.ID)
	assert.Nil(t, got.SubHeadingID)
	got = getReminder(t, s, kept.ID)
	assert.Equal(t, &sub.ID, got.SubHeadingID)

	rep, err = s.SweepOrphans(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Total())
}

func TestRepairOrdering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.db")
	s, err := store.Open(path, store.Options{Logger: testutil.NewLogger(t)})
	require.NoError(t, err)
	defer s.Close()

	l := insertList(t, s, "Work", 4)
	a := insertReminder(t, s, &model.Reminder{Title: "a", ListID: &l.ID, SortOrder: 7})
	b := insertReminder(t, s, &model.Reminder{Title: "b", ListID: &l.ID, SortOrder: 7})
	c := insertReminder(t, s, &model.Reminder{Title: "c", ListID: &l.ID, SortOrder: 2})

	rep, err := s.RepairOrdering(context.Background(), ordering.New(testutil.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Scopes)

	assert.Equal(t, 0, getReminder(t, s, c.ID).SortOrder)
	assert.Equal(t, 1, getReminder(t, s, a.ID).SortOrder)
	assert.Equal(t, 2, getReminder(t, s, b.ID).SortOrder)

	lists, err := store.Read(context.Background(), s, func(tx *store.ReadTx) ([]model.TaskList, error) {
		return tx.Lists()
	})
	require.NoError(t, err)
	assert.Equal(t, 0, lists[0].SortOrder)

	rep, err = s.RepairOrdering(context.Background(), ordering.New(testutil.NewLogger(t)))
	require.NoError(t, err)
	assert.Zero(t, rep.Scopes)
}
