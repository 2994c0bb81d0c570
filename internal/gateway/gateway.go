// Package gateway declares the collaborators the task core calls after a
// reminder is saved: calendar, geofence monitoring and local notifications.
// Implementations live outside the core; this package ships no-op and
// logging variants.
package gateway

import (
	"context"
	"time"

	"github.com/nhle/reminders/internal/model"
)

// CalendarGateway mirrors reminders with an end date into a calendar.
type CalendarGateway interface {
	// ScheduleEvent creates a calendar entry. A failure does not undo the
	// reminder save that triggered it.
	ScheduleEvent(ctx context.Context, title string, start time.Time, duration time.Duration) error
}

// LocationGateway monitors geofences for reminders carrying a location.
type LocationGateway interface {
	// StartMonitoring is fire-and-forget from the core's perspective.
	StartMonitoring(ctx context.Context, reminderID string, loc model.Location)

	// StopMonitoring ends monitoring for a reminder that lost its location
	// or was deleted.
	StopMonitoring(ctx context.Context, reminderID string)
}

// NotificationGateway schedules local alerts from a reminder's token set.
// The core only maintains the tokens; scheduling is the gateway's job.
type NotificationGateway interface {
	// Sync replaces whatever is scheduled for the reminder with tokens.
	// An empty set cancels all pending alerts.
	Sync(ctx context.Context, reminderID string, tokens model.TokenSet) error
}

// DefaultEventDuration is the calendar event length used for reminders.
const DefaultEventDuration = 60 * time.Minute

// Set bundles the gateways a repository calls. Nil members are replaced by
// no-op implementations in WithDefaults.
type Set struct {
	Calendar      CalendarGateway
	Location      LocationGateway
	Notifications NotificationGateway
}

// WithDefaults fills nil members with no-op gateways.
func (s Set) WithDefaults() Set {
	if s.Calendar == nil {
		s.Calendar = Nop{}
	}
	if s.Location == nil {
		s.Location = Nop{}
	}
	if s.Notifications == nil {
		s.Notifications = Nop{}
	}
	return s
}

// Nop implements every gateway and does nothing.
type Nop struct{}

func (Nop) ScheduleEvent(context.Context, string, time.Time, time.Duration) error { return nil }
func (Nop) StartMonitoring(context.Context, string, model.Location)                {}
func (Nop) StopMonitoring(context.Context, string)                                 {}
func (Nop) Sync(context.Context, string, model.TokenSet) error                     { return nil }
