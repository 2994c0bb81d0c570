package testutil

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nhle/reminders/internal/events"
	"github.com/nhle/reminders/internal/store"
)

// NewTestStore opens a SQLite store in a temporary directory with all
// migrations applied. The store and bus are closed when the test completes.
func NewTestStore(t *testing.T) (*store.Store, *events.Bus) {
	t.Helper()

	bus := events.NewBus(16)
	s, err := store.Open(filepath.Join(t.TempDir(), "reminders.db"), store.Options{
		Logger: NewLogger(t),
		Bus:    bus,
	})
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
		bus.Close()
	})

	return s, bus
}

// NewLogger returns a logger writing to the test log at debug level.
func NewLogger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}
