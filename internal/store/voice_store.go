package store

import (
	"fmt"

	"github.com/nhle/reminders/internal/events"
	"github.com/nhle/reminders/internal/model"
)

// GetVoiceNote retrieves the voice note recorded for a reminder.
func (r *ReadTx) GetVoiceNote(reminderID string) (*model.VoiceNote, error) {
	var v model.VoiceNote
	if err := r.get(&v, KindVoiceNote, reminderID,
		"SELECT reminder_id, data, created_at FROM voice_notes WHERE reminder_id = ?",
		reminderID); err != nil {
		return nil, err
	}
	return &v, nil
}

// PutVoiceNote stores or replaces the voice note of a reminder.
func (w *WriteTx) PutVoiceNote(v *model.VoiceNote) error {
	if len(v.Data) == 0 {
		return Invalid(KindVoiceNote, v.ReminderID, "data", "must not be empty")
	}
	v.CreatedAt = timestamp()
	_, err := w.tx.NamedExecContext(w.ctx, `
		INSERT INTO voice_notes (reminder_id, data, created_at)
		VALUES (:reminder_id, :data, :created_at)
		ON CONFLICT(reminder_id) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`, v)
	if err != nil {
		return fmt.Errorf("saving voice note for reminder %s: %w", v.ReminderID, err)
	}
	w.Touch(events.ReminderChanged, v.ReminderID)
	return nil
}

// DeleteVoiceNote removes the voice note of a reminder.
func (w *WriteTx) DeleteVoiceNote(reminderID string) (bool, error) {
	result, err := w.tx.ExecContext(w.ctx,
		"DELETE FROM voice_notes WHERE reminder_id = ?", reminderID)
	if err != nil {
		return false, fmt.Errorf("deleting voice note for reminder %s: %w", reminderID, err)
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		w.Touch(events.ReminderChanged, reminderID)
	}
	return rows > 0, nil
}
