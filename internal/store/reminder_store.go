package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/reminders/internal/events"
	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
)

const (
	reminderColumns = `id, list_id, subheading_id, title, notes, url, priority,
		start_date, end_date, is_completed, completed_at, sort_order,
		notifications, repeat_option, custom_repeat_interval, created_at, updated_at`
	tableReminders = "reminders"
)

// scopeWhere renders the WHERE fragment selecting one reminder container.
func scopeWhere(scope model.ReminderScope) (string, []any) {
	var conds []string
	var args []any
	if scope.ListID == nil {
		conds = append(conds, "list_id IS NULL")
	} else {
		conds = append(conds, "list_id = ?")
		args = append(args, *scope.ListID)
	}
	if scope.SubHeadingID == nil {
		conds = append(conds, "subheading_id IS NULL")
	} else {
		conds = append(conds, "subheading_id = ?")
		args = append(args, *scope.SubHeadingID)
	}
	return strings.Join(conds, " AND "), args
}

// GetReminder retrieves a single reminder row by ID without its
// attachments. See LoadDetails.
func (r *ReadTx) GetReminder(id string) (*model.Reminder, error) {
	var rem model.Reminder
	err := r.get(&rem, KindReminder, id,
		"SELECT "+reminderColumns+" FROM reminders WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &rem, nil
}

// RemindersInScope retrieves the reminders of one container in order.
func (r *ReadTx) RemindersInScope(scope model.ReminderScope) ([]model.Reminder, error) {
	where, args := scopeWhere(scope)
	var out []model.Reminder
	err := r.tx.SelectContext(r.ctx, &out,
		"SELECT "+reminderColumns+" FROM reminders WHERE "+where+
			" ORDER BY sort_order, created_at, id", args...)
	if err != nil {
		return nil, fmt.Errorf("querying reminders in %s: %w", scope.Key(), err)
	}
	return out, nil
}

// ReminderItems returns the ordering items of one reminder container.
func (r *ReadTx) ReminderItems(scope model.ReminderScope) ([]ordering.Item, error) {
	where, args := scopeWhere(scope)
	return r.orderItems(
		"SELECT id, sort_order, created_at FROM reminders WHERE "+where, args...)
}

// ReminderScopes lists every container that currently holds reminders.
func (r *ReadTx) ReminderScopes() ([]model.ReminderScope, error) {
	var rows []struct {
		ListID       *string `db:"list_id"`
		SubHeadingID *string `db:"subheading_id"`
	}
	err := r.tx.SelectContext(r.ctx, &rows,
		"SELECT DISTINCT list_id, subheading_id FROM reminders")
	if err != nil {
		return nil, fmt.Errorf("querying reminder scopes: %w", err)
	}
	out := make([]model.ReminderScope, len(rows))
	for i, row := range rows {
		out[i] = model.ReminderScope{ListID: row.ListID, SubHeadingID: row.SubHeadingID}
	}
	return out, nil
}

// InsertReminder inserts a new reminder. Generates a UUID if ID is empty.
func (w *WriteTx) InsertReminder(rem *model.Reminder) error {
	if strings.TrimSpace(rem.Title) == "" {
		return Invalid(KindReminder, rem.ID, "title", "must not be empty")
	}
	if rem.ID == "" {
		rem.ID = uuid.New().String()
	}
	ts := timestamp()
	rem.CreatedAt = ts
	rem.UpdatedAt = ts
	rem.StartDate = utc(rem.StartDate)
	rem.EndDate = utc(rem.EndDate)
	rem.CompletedAt = utc(rem.CompletedAt)
	rem.Notifications = rem.Notifications.Normalize()
	if rem.RepeatOption == "" {
		rem.RepeatOption = model.RepeatNever
	}

	_, err := w.tx.ExecContext(w.ctx, `
		INSERT INTO reminders (`+reminderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rem.ID, rem.ListID, rem.SubHeadingID, rem.Title, rem.Notes, rem.URL, rem.Priority,
		rem.StartDate, rem.EndDate, boolToInt(rem.IsCompleted), rem.CompletedAt, rem.SortOrder,
		rem.Notifications, rem.RepeatOption, rem.CustomRepeatInterval, rem.CreatedAt, rem.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating reminder: %w", err)
	}
	w.Touch(events.ReminderChanged, rem.ID)
	return nil
}

// UpdateReminder writes only the columns that differ between before and
// after. Two transactions changing different fields of the same reminder
// therefore both survive; for the same field the later commit wins.
// It returns the number of columns written.
func (w *WriteTx) UpdateReminder(before, after model.Reminder) (int, error) {
	cols := reminderDiff(before, after)
	ok, err := w.updateColumns(tableReminders, after.ID, cols)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, NotFound(KindReminder, after.ID)
	}
	if len(cols) > 0 {
		w.Touch(events.ReminderChanged, after.ID)
	}
	return len(cols), nil
}

func reminderDiff(before, after model.Reminder) map[string]any {
	cols := map[string]any{}
	if !model.EqualString(before.ListID, after.ListID) {
		cols["list_id"] = after.ListID
	}
	if !model.EqualString(before.SubHeadingID, after.SubHeadingID) {
		cols["subheading_id"] = after.SubHeadingID
	}
	if before.Title != after.Title {
		cols["title"] = after.Title
	}
	if before.Notes != after.Notes {
		cols["notes"] = after.Notes
	}
	if before.URL != after.URL {
		cols["url"] = after.URL
	}
	if before.Priority != after.Priority {
		cols["priority"] = after.Priority
	}
	if !model.EqualTime(before.StartDate, after.StartDate) {
		cols["start_date"] = utc(after.StartDate)
	}
	if !model.EqualTime(before.EndDate, after.EndDate) {
		cols["end_date"] = utc(after.EndDate)
	}
	if before.IsCompleted != after.IsCompleted {
		cols["is_completed"] = boolToInt(after.IsCompleted)
	}
	if !model.EqualTime(before.CompletedAt, after.CompletedAt) {
		cols["completed_at"] = utc(after.CompletedAt)
	}
	if before.SortOrder != after.SortOrder {
		cols["sort_order"] = after.SortOrder
	}
	if !before.Notifications.Equal(after.Notifications) {
		cols["notifications"] = after.Notifications.Normalize()
	}
	if before.RepeatOption != after.RepeatOption {
		cols["repeat_option"] = after.RepeatOption
	}
	if before.CustomRepeatInterval != after.CustomRepeatInterval {
		cols["custom_repeat_interval"] = after.CustomRepeatInterval
	}
	if len(cols) > 0 {
		cols["updated_at"] = timestamp()
	}
	return cols
}

// DeleteReminder removes a reminder. Photos, voice note, owned location and
// tag links CASCADE; tags themselves are untouched.
func (w *WriteTx) DeleteReminder(id string) (bool, error) {
	ok, err := w.deleteByID(tableReminders, id)
	if err != nil {
		return false, err
	}
	if ok {
		w.Touch(events.ReminderChanged, id)
	}
	return ok, nil
}

// SetReminderOrders writes new sort_order values for reminders.
func (w *WriteTx) SetReminderOrders(orders map[string]int) error {
	if err := w.setOrders(tableReminders, orders); err != nil {
		return err
	}
	w.Touch(events.ReminderChanged, sortedKeys(orders)...)
	return nil
}

// MoveRemindersToScope re-parents the given reminders, assigning each the
// order from orders.
func (w *WriteTx) MoveRemindersToScope(scope model.ReminderScope, orders map[string]int) error {
	ts := timestamp()
	for _, id := range sortedKeys(orders) {
		_, err := w.tx.ExecContext(w.ctx,
			"UPDATE reminders SET list_id = ?, subheading_id = ?, sort_order = ?, updated_at = ? WHERE id = ?",
			scope.ListID, scope.SubHeadingID, orders[id], ts, id)
		if err != nil {
			return fmt.Errorf("moving reminder %s to %s: %w", id, scope.Key(), err)
		}
	}
	w.Touch(events.ReminderChanged, sortedKeys(orders)...)
	return nil
}

// LoadDetails fills tags, owned location, photo ids and voice-note presence
// for each reminder in rs.
func (r *ReadTx) LoadDetails(rs []model.Reminder) error {
	if len(rs) == 0 {
		return nil
	}
	ids := make([]string, len(rs))
	index := make(map[string]int, len(rs))
	for i := range rs {
		ids[i] = rs[i].ID
		index[rs[i].ID] = i
		rs[i].Tags = nil
		rs[i].PhotoIDs = nil
		rs[i].Location = nil
		rs[i].HasVoice = false
	}

	var tagRows []struct {
		ReminderID string `db:"reminder_id"`
		model.Tag
	}
	if err := r.selectIn(&tagRows, `
		SELECT rt.reminder_id, t.id, t.name, t.created_at
		FROM tags t
		INNER JOIN reminder_tags rt ON t.id = rt.tag_id
		WHERE rt.reminder_id IN (?)
		ORDER BY t.name`, ids); err != nil {
		return fmt.Errorf("loading reminder tags: %w", err)
	}
	for _, row := range tagRows {
		i := index[row.ReminderID]
		rs[i].Tags = append(rs[i].Tags, row.Tag)
	}

	var photoRows []struct {
		ID         string `db:"id"`
		ReminderID string `db:"reminder_id"`
	}
	if err := r.selectIn(&photoRows, `
		SELECT id, reminder_id FROM reminder_photos
		WHERE reminder_id IN (?)
		ORDER BY sort_order, created_at, id`, ids); err != nil {
		return fmt.Errorf("loading reminder photos: %w", err)
	}
	for _, row := range photoRows {
		i := index[row.ReminderID]
		rs[i].PhotoIDs = append(rs[i].PhotoIDs, row.ID)
	}

	var voiceIDs []string
	if err := r.selectIn(&voiceIDs,
		"SELECT reminder_id FROM voice_notes WHERE reminder_id IN (?)", ids); err != nil {
		return fmt.Errorf("loading voice notes: %w", err)
	}
	for _, id := range voiceIDs {
		rs[index[id]].HasVoice = true
	}

	var locs []model.Location
	if err := r.selectIn(&locs,
		"SELECT "+locationColumns+" FROM locations WHERE reminder_id IN (?)", ids); err != nil {
		return fmt.Errorf("loading locations: %w", err)
	}
	for i := range locs {
		loc := locs[i]
		rs[index[*loc.ReminderID]].Location = &loc
	}
	return nil
}

// selectIn expands a single IN (?) placeholder over args with sqlx.In.
func (r *ReadTx) selectIn(dest any, query string, args ...any) error {
	q, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return r.tx.SelectContext(r.ctx, dest, r.tx.Rebind(q), expanded...)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}


