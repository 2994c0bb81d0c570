package testutil

import (
	"testing"
	"time"

	"github.com/nhle/reminders/internal/events"
	"github.com/nhle/reminders/internal/gateway"
	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
	"github.com/nhle/reminders/internal/repository"
	"github.com/nhle/reminders/internal/store"
)

// Env is a fully wired set of repositories over a temporary store.
type Env struct {
	*repository.Repositories
	Store   *store.Store
	Bus     *events.Bus
	Engine  *ordering.Engine
	Gateway *RecordingGateway
}

// RepoOption adjusts the repository options of a test Env.
type RepoOption func(*repository.Options)

// WithLimits sets advisory daily caps.
func WithLimits(l model.LimitsConfig) RepoOption {
	return func(o *repository.Options) { o.Limits = l }
}

// WithClock fixes the repository clock.
func WithClock(now time.Time) RepoOption {
	return func(o *repository.Options) { o.Now = func() time.Time { return now } }
}

// NewEnv builds repositories over a fresh store with a recording gateway.
func NewEnv(t *testing.T, opts ...RepoOption) *Env {
	t.Helper()
	s, bus := NewTestStore(t)
	engine := ordering.New(NewLogger(t))
	rec := &RecordingGateway{}

	o := repository.Options{
		Gateways: gateway.Set{Calendar: rec, Location: rec, Notifications: rec},
		Logger:   NewLogger(t),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Env{
		Repositories: repository.New(s, engine, o),
		Store:        s,
		Bus:          bus,
		Engine:       engine,
		Gateway:      rec,
	}
}
