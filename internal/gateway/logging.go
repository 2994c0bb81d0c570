package gateway

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/reminders/internal/model"
)

// Logging implements every gateway by writing what would have been
// requested to a logger. The CLI uses it where no real integration exists.
type Logging struct {
	log zerolog.Logger
}

// NewLogging returns a Logging gateway.
func NewLogging(log zerolog.Logger) *Logging {
	return &Logging{log: log.With().Str("component", "gateway").Logger()}
}

// LoggingSet returns a Set whose members all log.
func LoggingSet(log zerolog.Logger) Set {
	l := NewLogging(log)
	return Set{Calendar: l, Location: l, Notifications: l}
}

func (g *Logging) ScheduleEvent(_ context.Context, title string, start time.Time, duration time.Duration) error {
	g.log.Info().
		Str("title", title).
		Time("start", start).
		Dur("duration", duration).
		Msg("calendar event requested")
	return nil
}

func (g *Logging) StartMonitoring(_ context.Context, reminderID string, loc model.Location) {
	g.log.Info().
		Str("reminder", reminderID).
		Float64("lat", loc.Latitude).
		Float64("lon", loc.Longitude).
		Float64("radius", loc.Radius).
		Msg("geofence monitoring requested")
}

func (g *Logging) StopMonitoring(_ context.Context, reminderID string) {
	g.log.Info().Str("reminder", reminderID).Msg("geofence monitoring stopped")
}

func (g *Logging) Sync(_ context.Context, reminderID string, tokens model.TokenSet) error {
	g.log.Info().
		Str("reminder", reminderID).
		Strs("tokens", []string(tokens)).
		Msg("notifications synced")
	return nil
}
