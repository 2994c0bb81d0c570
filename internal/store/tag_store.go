package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/reminders/internal/events"
	"github.com/nhle/reminders/internal/model"
)

const tagColumns = "id, name, created_at"

// GetTag retrieves a single tag by ID.
func (r *ReadTx) GetTag(id string) (*model.Tag, error) {
	var t model.Tag
	if err := r.get(&t, KindTag, id, "SELECT "+tagColumns+" FROM tags WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &t, nil
}

// Tags retrieves all tags ordered by name.
func (r *ReadTx) Tags() ([]model.Tag, error) {
	var tags []model.Tag
	if err := r.tx.SelectContext(r.ctx, &tags,
		"SELECT "+tagColumns+" FROM tags ORDER BY name COLLATE NOCASE, id"); err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	return tags, nil
}

// TagByName returns the tag with exactly name, or nil if there is none.
func (r *ReadTx) TagByName(name string) (*model.Tag, error) {
	var t model.Tag
	err := r.tx.GetContext(r.ctx, &t, "SELECT "+tagColumns+" FROM tags WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up tag %q: %w", name, err)
	}
	return &t, nil
}

// TagsForReminder retrieves all tags attached to a reminder.
func (r *ReadTx) TagsForReminder(reminderID string) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.tx.SelectContext(r.ctx, &tags, `
		SELECT t.id, t.name, t.created_at
		FROM tags t
		INNER JOIN reminder_tags rt ON t.id = rt.tag_id
		WHERE rt.reminder_id = ?
		ORDER BY t.name`, reminderID)
	if err != nil {
		return nil, fmt.Errorf("querying tags for reminder %s: %w", reminderID, err)
	}
	return tags, nil
}

// InsertTag inserts a new tag. Names must be non-empty and unique.
func (w *WriteTx) InsertTag(t *model.Tag) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return Invalid(KindTag, t.ID, "name", "must not be empty")
	}
	if err := w.checkTagName(t.ID, t.Name); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.CreatedAt = timestamp()

	_, err := w.tx.NamedExecContext(w.ctx,
		"INSERT INTO tags ("+tagColumns+") VALUES (:id, :name, :created_at)", t)
	if err != nil {
		return fmt.Errorf("creating tag: %w", err)
	}
	w.Touch(events.TagChanged, t.ID)
	return nil
}

// RenameTag changes a tag's name.
func (w *WriteTx) RenameTag(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Invalid(KindTag, id, "name", "must not be empty")
	}
	if err := w.checkTagName(id, name); err != nil {
		return err
	}
	ok, err := w.updateColumns("tags", id, map[string]any{"name": name})
	if err != nil {
		return err
	}
	if !ok {
		return NotFound(KindTag, id)
	}
	w.Touch(events.TagChanged, id)
	return nil
}

func (w *WriteTx) checkTagName(id, name string) error {
	existing, err := w.TagByName(name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != id {
		return Invalid(KindTag, id, "name", fmt.Sprintf("%q is already used", name))
	}
	return nil
}

// DeleteTag removes a tag. CASCADE on reminder_tags detaches it from every
// reminder; the reminders themselves remain.
func (w *WriteTx) DeleteTag(id string) (bool, error) {
	var attached []string
	if err := w.tx.SelectContext(w.ctx, &attached,
		"SELECT reminder_id FROM reminder_tags WHERE tag_id = ? ORDER BY reminder_id", id); err != nil {
		return false, fmt.Errorf("loading reminders tagged %s: %w", id, err)
	}
	ok, err := w.deleteByID("tags", id)
	if err != nil {
		return false, err
	}
	if ok {
		w.Touch(events.TagChanged, id)
		if len(attached) > 0 {
			w.Touch(events.ReminderChanged, attached...)
		}
	}
	return ok, nil
}

// SetReminderTags replaces a reminder's tag set with tagIDs.
func (w *WriteTx) SetReminderTags(reminderID string, tagIDs []string) error {
	ok, err := w.exists(tableReminders, reminderID)
	if err != nil {
		return err
	}
	if !ok {
		return NotFound(KindReminder, reminderID)
	}

	if _, err := w.tx.ExecContext(w.ctx,
		"DELETE FROM reminder_tags WHERE reminder_id = ?", reminderID); err != nil {
		return fmt.Errorf("clearing tags for reminder %s: %w", reminderID, err)
	}
	for _, tagID := range tagIDs {
		ok, err := w.exists("tags", tagID)
		if err != nil {
			return err
		}
		if !ok {
			return NotFound(KindTag, tagID)
		}
		if _, err := w.tx.ExecContext(w.ctx,
			"INSERT OR IGNORE INTO reminder_tags (reminder_id, tag_id) VALUES (?, ?)",
			reminderID, tagID); err != nil {
			return fmt.Errorf("adding tag %s to reminder %s: %w", tagID, reminderID, err)
		}
	}
	w.Touch(events.ReminderChanged, reminderID)
	return nil
}
