package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/nhle/reminders/internal/model"
)

// RecordingGateway implements every gateway and records the calls it
// receives. CalendarErr, when set, is returned from ScheduleEvent.
type RecordingGateway struct {
	mu          sync.Mutex
	CalendarErr error

	Events     []string
	Monitored  []string
	Stopped    []string
	SyncedWith map[string]model.TokenSet
}

func (g *RecordingGateway) ScheduleEvent(_ context.Context, title string, _ time.Time, _ time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Events = append(g.Events, title)
	return g.CalendarErr
}

func (g *RecordingGateway) StartMonitoring(_ context.Context, reminderID string, _ model.Location) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Monitored = append(g.Monitored, reminderID)
}

func (g *RecordingGateway) StopMonitoring(_ context.Context, reminderID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Stopped = append(g.Stopped, reminderID)
}

func (g *RecordingGateway) Sync(_ context.Context, reminderID string, tokens model.TokenSet) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.SyncedWith == nil {
		g.SyncedWith = make(map[string]model.TokenSet)
	}
	g.SyncedWith[reminderID] = tokens
	return nil
}

// Snapshot returns copies of the recorded calls.
func (g *RecordingGateway) Snapshot() (events, monitored, stopped []string, synced map[string]model.TokenSet) {
	g.mu.Lock()
	defer g.mu.Unlock()
	synced = make(map[string]model.TokenSet, len(g.SyncedWith))
	for k, v := range g.SyncedWith {
		synced[k] = v
	}
	return append([]string(nil), g.Events...),
		append([]string(nil), g.Monitored...),
		append([]string(nil), g.Stopped...),
		synced
}
