package model

import "time"

// DefaultRadius is the geofence radius, in meters, used when none is given.
const DefaultRadius = 100.0

// Location is a named coordinate. Catalog locations have no ReminderID;
// a reminder's own location carries the reminder's id and is deleted with it.
type Location struct {
	ID         string    `json:"id" db:"id"`
	ReminderID *string   `json:"reminder_id,omitempty" db:"reminder_id"`
	Name       string    `json:"name" db:"name"`
	Latitude   float64   `json:"latitude" db:"latitude"`
	Longitude  float64   `json:"longitude" db:"longitude"`
	Radius     float64   `json:"radius" db:"radius"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ValidCoordinate reports whether the latitude/longitude pair is in range.
func (l Location) ValidCoordinate() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}
