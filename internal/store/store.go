// Package store is the persistence substrate for lists, sub-headings,
// reminders and their attachments. It runs isolated SQLite transactions,
// serializes writers, and publishes change events after commits.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/nhle/reminders/internal/events"
)

const (
	defaultBusyTimeout = 5 * time.Second
	defaultMaxRetries  = 3
	retryBackoff       = 20 * time.Millisecond
)

// Options configures a Store.
type Options struct {
	// BusyTimeout is how long SQLite waits on a lock before failing.
	BusyTimeout time.Duration

	// MaxRetries bounds re-runs of a write transaction after a conflict.
	// Negative disables retries; zero selects the default.
	MaxRetries int

	// Logger receives store diagnostics.
	Logger zerolog.Logger

	// Bus receives change events after each successful commit. Nil
	// disables publishing.
	Bus *events.Bus
}

// Store owns the canonical entity graph. Reads run on a pool of read-only
// connections against WAL snapshots; writes run on a single writer
// connection so that write transactions commit one at a time.
type Store struct {
	reader     *sqlx.DB
	writer     *sqlx.DB
	bus        *events.Bus
	log        zerolog.Logger
	locks      *scopeLocks
	maxRetries int
	closed     atomic.Bool
}

// Open opens (or creates) the SQLite database at path, enables WAL mode and
// foreign keys, and runs any pending schema migrations.
func Open(path string, opts Options) (*Store, error) {
	if path == "" || path == ":memory:" {
		return nil, fmt.Errorf("opening store: a database file path is required: %w", ErrStoreUnavailable)
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}
	switch {
	case opts.MaxRetries == 0:
		opts.MaxRetries = defaultMaxRetries
	case opts.MaxRetries < 0:
		opts.MaxRetries = 0
	}

	writer, err := sqlx.Open("sqlite", dsn(path, opts.BusyTimeout, false))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w: %w", ErrStoreUnavailable, err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.Ping(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("connecting to %s: %w: %w", path, ErrStoreUnavailable, err)
	}

	s := &Store{
		writer:     writer,
		bus:        opts.Bus,
		log:        opts.Logger.With().Str("component", "store").Logger(),
		locks:      newScopeLocks(),
		maxRetries: opts.MaxRetries,
	}
	if err := s.runMigrations(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("running migrations: %w: %w", ErrStoreUnavailable, err)
	}

	reader, err := sqlx.Open("sqlite", dsn(path, opts.BusyTimeout, true))
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("opening sqlite reader: %w: %w", ErrStoreUnavailable, err)
	}
	s.reader = reader

	return s, nil
}

// dsn builds a modernc sqlite data source name. Pragmas are given in the DSN
// so that every pooled connection receives them.
func dsn(path string, busy time.Duration, readOnly bool) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	q.Set("_time_format", "sqlite")
	if readOnly {
		q.Add("_pragma", "query_only(1)")
	} else {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Set("_txlock", "immediate")
	}
	return "file:" + path + "?" + q.Encode()
}

// Close closes both connection pools. Subsequent calls fail with
// ErrStoreUnavailable.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	rerr := s.reader.Close()
	werr := s.writer.Close()
	return errors.Join(rerr, werr)
}

func (s *Store) unavailable() error {
	if s.closed.Load() {
		return fmt.Errorf("store closed: %w", ErrStoreUnavailable)
	}
	return nil
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.writer.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.writer.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		tx, err := s.writer.Beginx()
		if err != nil {
			return fmt.Errorf("beginning migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", m.version, err)
		}
		s.log.Debug().Int("version", m.version).Msg("applied migration")
	}

	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.View(ctx, func(tx *ReadTx) error {
		return tx.tx.GetContext(tx.ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	})
	return v, err
}

// View runs fn in a read-only transaction over a consistent snapshot.
// Cancelling ctx aborts the read with no side effects.
func (s *Store) View(ctx context.Context, fn func(*ReadTx) error) error {
	if err := s.unavailable(); err != nil {
		return err
	}
	tx, err := s.reader.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning read transaction: %w", classify(err))
	}
	defer tx.Rollback()

	if err := fn(&ReadTx{tx: tx, ctx: ctx}); err != nil {
		return classify(err)
	}
	return classify(tx.Commit())
}

// Update runs fn in a write transaction. Either every mutation fn makes is
// committed, or none is. Once the transaction has begun it ignores
// cancellation of ctx. Conflicts re-run fn up to the configured retry bound,
// so fn must not have effects outside the transaction.
func (s *Store) Update(ctx context.Context, fn func(*WriteTx) error) error {
	for attempt := 0; ; attempt++ {
		if err := s.unavailable(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.updateOnce(ctx, fn)
		if err == nil || !errors.Is(err, ErrTransactionConflict) || attempt >= s.maxRetries {
			if errors.Is(err, ErrStoreUnavailable) {
				s.log.Error().Err(err).Msg("store unavailable")
			}
			return err
		}

		s.log.Debug().Err(err).Int("attempt", attempt+1).Msg("retrying conflicting transaction")
		select {
		case <-time.After(retryBackoff * time.Duration(attempt+1)):
		case <-ctx.Done():
			return err
		}
	}
}

func (s *Store) updateOnce(ctx context.Context, fn func(*WriteTx) error) error {
	runCtx := context.WithoutCancel(ctx)

	tx, err := s.writer.BeginTxx(runCtx, nil)
	if err != nil {
		return fmt.Errorf("beginning write transaction: %w", classify(err))
	}
	defer tx.Rollback()

	w := &WriteTx{ReadTx: ReadTx{tx: tx, ctx: runCtx}}
	if err := fn(w); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing write transaction: %w", classify(err))
	}

	s.publish(w)
	return nil
}

func (s *Store) publish(w *WriteTx) {
	if s.bus == nil {
		return
	}
	now := time.Now()
	for _, kind := range w.touchedKinds() {
		s.bus.Publish(events.Event{Kind: kind, IDs: w.touched[kind], At: now})
	}
}

// Locked runs fn while holding the per-container locks named by keys.
// Waiting for a lock honours ctx.
func (s *Store) Locked(ctx context.Context, keys []string, fn func() error) error {
	unlock, err := s.locks.lock(ctx, keys)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// Read runs fn in a read transaction and returns its value.
func Read[T any](ctx context.Context, s *Store, fn func(*ReadTx) (T, error)) (T, error) {
	var out T
	err := s.View(ctx, func(tx *ReadTx) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Write runs fn in a write transaction and returns its value.
func Write[T any](ctx context.Context, s *Store, fn func(*WriteTx) (T, error)) (T, error) {
	var out T
	err := s.Update(ctx, func(tx *WriteTx) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
