package repository

import (
	"context"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/store"
)

// Locations manages the catalog of saved locations. A reminder's own
// location is set through Reminders.SetLocation or copied from the catalog
// with Attach.
type Locations struct {
	base
}

// Save adds a location to the catalog.
func (l *Locations) Save(ctx context.Context, name string, lat, lon, radius float64) (*model.Location, error) {
	return store.Write(ctx, l.store, func(tx *store.WriteTx) (*model.Location, error) {
		loc := &model.Location{Name: name, Latitude: lat, Longitude: lon, Radius: radius}
		if err := tx.InsertLocation(loc); err != nil {
			return nil, err
		}
		return loc, nil
	})
}

// All returns the catalog locations by name.
func (l *Locations) All(ctx context.Context) ([]model.Location, error) {
	return store.Read(ctx, l.store, func(tx *store.ReadTx) ([]model.Location, error) {
		return tx.CatalogLocations()
	})
}

// Delete removes a catalog location. Copies already attached to reminders
// are unaffected.
func (l *Locations) Delete(ctx context.Context, id string) (bool, error) {
	return store.Write(ctx, l.store, func(tx *store.WriteTx) (bool, error) {
		loc, err := tx.GetLocation(id)
		if store.IsNotFound(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if loc.ReminderID != nil {
			return false, store.Invalid(store.KindLocation, id, "reminder_id",
				"is owned by a reminder; clear it on the reminder instead")
		}
		return tx.DeleteLocation(id)
	})
}

// Attach copies catalog location locationID onto the reminder as its own
// location, replacing any previous one, and starts monitoring it.
func (l *Locations) Attach(ctx context.Context, reminderID, locationID string) (*model.Location, error) {
	owned, err := store.Write(ctx, l.store, func(tx *store.WriteTx) (*model.Location, error) {
		if _, err := tx.GetReminder(reminderID); err != nil {
			return nil, err
		}
		src, err := tx.GetLocation(locationID)
		if err != nil {
			return nil, err
		}
		cp := *src
		cp.ID = ""
		cp.ReminderID = &reminderID
		if err := tx.InsertLocation(&cp); err != nil {
			return nil, err
		}
		return &cp, nil
	})
	if err != nil {
		return nil, err
	}
	l.gw.Location.StartMonitoring(ctx, reminderID, *owned)
	return owned, nil
}
