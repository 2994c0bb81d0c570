package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nhle/reminders/internal/events"
	"github.com/nhle/reminders/internal/model"
)

const (
	locationColumns = "id, reminder_id, name, latitude, longitude, radius, created_at"
	tableLocations  = "locations"
)

// GetLocation retrieves a location by ID, owned or catalog.
func (r *ReadTx) GetLocation(id string) (*model.Location, error) {
	var l model.Location
	if err := r.get(&l, KindLocation, id,
		"SELECT "+locationColumns+" FROM locations WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &l, nil
}

// CatalogLocations retrieves the saved locations not owned by any reminder.
func (r *ReadTx) CatalogLocations() ([]model.Location, error) {
	var out []model.Location
	err := r.tx.SelectContext(r.ctx, &out,
		"SELECT "+locationColumns+" FROM locations WHERE reminder_id IS NULL ORDER BY name COLLATE NOCASE, id")
	if err != nil {
		return nil, fmt.Errorf("querying saved locations: %w", err)
	}
	return out, nil
}

// LocationForReminder returns the reminder's own location, or nil.
func (r *ReadTx) LocationForReminder(reminderID string) (*model.Location, error) {
	var l model.Location
	err := r.tx.GetContext(r.ctx, &l,
		"SELECT "+locationColumns+" FROM locations WHERE reminder_id = ?", reminderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading location of reminder %s: %w", reminderID, err)
	}
	return &l, nil
}

// InsertLocation stores a location. With a ReminderID it replaces that
// reminder's existing location.
func (w *WriteTx) InsertLocation(l *model.Location) error {
	if !l.ValidCoordinate() {
		return Invalid(KindLocation, l.ID, "coordinate",
			fmt.Sprintf("(%g, %g) out of range", l.Latitude, l.Longitude))
	}
	if l.Radius <= 0 {
		l.Radius = model.DefaultRadius
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.CreatedAt = timestamp()

	if l.ReminderID != nil {
		if _, err := w.tx.ExecContext(w.ctx,
			"DELETE FROM locations WHERE reminder_id = ?", *l.ReminderID); err != nil {
			return fmt.Errorf("replacing location of reminder %s: %w", *l.ReminderID, err)
		}
	}

	_, err := w.tx.NamedExecContext(w.ctx, `
		INSERT INTO locations (`+locationColumns+`)
		VALUES (:id, :reminder_id, :name, :latitude, :longitude, :radius, :created_at)`, l)
	if err != nil {
		return fmt.Errorf("creating location: %w", err)
	}
	w.Touch(events.LocationChanged, l.ID)
	if l.ReminderID != nil {
		w.Touch(events.ReminderChanged, *l.ReminderID)
	}
	return nil
}

// DeleteLocation removes a location by ID.
func (w *WriteTx) DeleteLocation(id string) (bool, error) {
	l, err := w.GetLocation(id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := w.deleteByID(tableLocations, id); err != nil {
		return false, err
	}
	w.Touch(events.LocationChanged, id)
	if l.ReminderID != nil {
		w.Touch(events.ReminderChanged, *l.ReminderID)
	}
	return true, nil
}
