package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nhle/reminders/internal/events"
	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
)

const (
	photoColumns = "id, reminder_id, data, sort_order, created_at"
	tablePhotos  = "reminder_photos"
)

// GetPhoto retrieves a single photo including its data.
func (r *ReadTx) GetPhoto(id string) (*model.ReminderPhoto, error) {
	var p model.ReminderPhoto
	if err := r.get(&p, KindPhoto, id,
		"SELECT "+photoColumns+" FROM reminder_photos WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &p, nil
}

// Photos retrieves a reminder's photos in order.
func (r *ReadTx) Photos(reminderID string) ([]model.ReminderPhoto, error) {
	var out []model.ReminderPhoto
	err := r.tx.SelectContext(r.ctx, &out,
		"SELECT "+photoColumns+" FROM reminder_photos WHERE reminder_id = ? ORDER BY sort_order, created_at, id",
		reminderID)
	if err != nil {
		return nil, fmt.Errorf("querying photos of reminder %s: %w", reminderID, err)
	}
	return out, nil
}

// PhotoItems returns the ordering items of a reminder's photos.
func (r *ReadTx) PhotoItems(reminderID string) ([]ordering.Item, error) {
	return r.orderItems(
		"SELECT id, sort_order, created_at FROM reminder_photos WHERE reminder_id = ?", reminderID)
}

// InsertPhoto stores a photo blob for its reminder.
func (w *WriteTx) InsertPhoto(p *model.ReminderPhoto) error {
	if len(p.Data) == 0 {
		return Invalid(KindPhoto, p.ID, "data", "must not be empty")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = timestamp()

	_, err := w.tx.NamedExecContext(w.ctx, `
		INSERT INTO reminder_photos (`+photoColumns+`)
		VALUES (:id, :reminder_id, :data, :sort_order, :created_at)`, p)
	if err != nil {
		return fmt.Errorf("adding photo to reminder %s: %w", p.ReminderID, err)
	}
	w.Touch(events.ReminderChanged, p.ReminderID)
	return nil
}

// DeletePhoto removes a photo.
func (w *WriteTx) DeletePhoto(id string) (bool, error) {
	return w.deleteByID(tablePhotos, id)
}

// SetPhotoOrders writes new sort_order values for photos of reminderID.
func (w *WriteTx) SetPhotoOrders(reminderID string, orders map[string]int) error {
	if err := w.setOrders(tablePhotos, orders); err != nil {
		return err
	}
	w.Touch(events.ReminderChanged, reminderID)
	return nil
}
