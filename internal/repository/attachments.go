package repository

import (
	"context"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
	"github.com/nhle/reminders/internal/store"
)

// AddPhoto stores data as a photo of the reminder at index at (clamped).
func (r *Reminders) AddPhoto(ctx context.Context, reminderID string, data []byte, at int) (*model.ReminderPhoto, error) {
	if len(data) == 0 {
		return nil, store.Invalid(store.KindPhoto, "", "data", "must not be empty")
	}
	var photo *model.ReminderPhoto
	err := r.store.Locked(ctx, []string{store.PhotosScopeKey(reminderID)}, func() error {
		return r.store.Update(ctx, func(tx *store.WriteTx) error {
			if _, err := tx.GetReminder(reminderID); err != nil {
				return err
			}
			items, err := tx.PhotoItems(reminderID)
			if err != nil {
				return err
			}
			p := &model.ReminderPhoto{
				ReminderID: reminderID,
				Data:       data,
				SortOrder:  r.engine.OrderForInsert(items, at),
			}
			if err := tx.InsertPhoto(p); err != nil {
				return err
			}
			placed := r.engine.Insert(items, ordering.Item{ID: p.ID, CreatedAt: p.CreatedAt}, at)
			changes := ordering.Changes(items, placed)
			delete(changes, p.ID)
			if err := tx.SetPhotoOrders(reminderID, changes); err != nil {
				return err
			}
			photo = p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return photo, nil
}

// Photos returns the reminder's photos in order.
func (r *Reminders) Photos(ctx context.Context, reminderID string) ([]model.ReminderPhoto, error) {
	return store.Read(ctx, r.store, func(tx *store.ReadTx) ([]model.ReminderPhoto, error) {
		if _, err := tx.GetReminder(reminderID); err != nil {
			return nil, err
		}
		return tx.Photos(reminderID)
	})
}

// RemovePhoto deletes a photo and closes the gap it leaves. It reports
// whether a photo was removed.
func (r *Reminders) RemovePhoto(ctx context.Context, photoID string) (bool, error) {
	removed := false
	err := r.withPhoto(ctx, photoID, func(tx *store.WriteTx, p *model.ReminderPhoto) error {
		items, err := tx.PhotoItems(p.ReminderID)
		if err != nil {
			return err
		}
		if _, err := tx.DeletePhoto(photoID); err != nil {
			return err
		}
		removed = true
		return tx.SetPhotoOrders(p.ReminderID, ordering.Changes(items, r.engine.RemoveID(items, photoID)))
	})
	if store.IsNotFound(err) {
		return false, nil
	}
	return removed, err
}

// MovePhoto moves a photo to index to among its reminder's photos.
func (r *Reminders) MovePhoto(ctx context.Context, photoID string, to int) error {
	return r.withPhoto(ctx, photoID, func(tx *store.WriteTx, p *model.ReminderPhoto) error {
		items, err := tx.PhotoItems(p.ReminderID)
		if err != nil {
			return err
		}
		moved, err := r.engine.MoveID(items, photoID, to)
		if err != nil {
			return orderingError(store.KindPhoto, photoID, err)
		}
		return tx.SetPhotoOrders(p.ReminderID, ordering.Changes(items, moved))
	})
}

// withPhoto runs fn under the lock of the photo's reminder.
func (r *Reminders) withPhoto(ctx context.Context, photoID string, fn func(*store.WriteTx, *model.ReminderPhoto) error) error {
	p, err := store.Read(ctx, r.store, func(tx *store.ReadTx) (*model.ReminderPhoto, error) {
		return tx.GetPhoto(photoID)
	})
	if err != nil {
		return err
	}
	// Photos never change owner, so the key read here stays valid.
	return r.store.Locked(ctx, []string{store.PhotosScopeKey(p.ReminderID)}, func() error {
		return r.store.Update(ctx, func(tx *store.WriteTx) error {
			cur, err := tx.GetPhoto(photoID)
			if err != nil {
				return err
			}
			return fn(tx, cur)
		})
	})
}

// SetVoiceNote stores or replaces the reminder's voice note.
func (r *Reminders) SetVoiceNote(ctx context.Context, reminderID string, data []byte) error {
	return r.store.Update(ctx, func(tx *store.WriteTx) error {
		if _, err := tx.GetReminder(reminderID); err != nil {
			return err
		}
		return tx.PutVoiceNote(&model.VoiceNote{ReminderID: reminderID, Data: data})
	})
}

// VoiceNote returns the reminder's voice note.
func (r *Reminders) VoiceNote(ctx context.Context, reminderID string) (*model.VoiceNote, error) {
	return store.Read(ctx, r.store, func(tx *store.ReadTx) (*model.VoiceNote, error) {
		return tx.GetVoiceNote(reminderID)
	})
}

// ClearVoiceNote removes the reminder's voice note, reporting whether one
// existed.
func (r *Reminders) ClearVoiceNote(ctx context.Context, reminderID string) (bool, error) {
	return store.Write(ctx, r.store, func(tx *store.WriteTx) (bool, error) {
		return tx.DeleteVoiceNote(reminderID)
	})
}
