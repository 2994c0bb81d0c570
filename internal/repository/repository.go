// Package repository implements the task operations on top of the store:
// validation, placement through the ordering engine, per-container locking
// and post-commit calls into the gateways.
package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/reminders/internal/gateway"
	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
	"github.com/nhle/reminders/internal/store"
)

// End is an insertion index that always clamps to the end of a container.
const End = math.MaxInt32

// maxScopeRetries bounds how often an operation re-reads a reminder whose
// container changed between locking and the write.
const maxScopeRetries = 5

var errScopeChanged = errors.New("container changed while waiting for lock")

// Options configures the repositories.
type Options struct {
	Gateways gateway.Set
	Logger   zerolog.Logger
	Limits   model.LimitsConfig

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Repositories bundles every repository over one store.
type Repositories struct {
	Reminders   *Reminders
	Lists       *Lists
	SubHeadings *SubHeadings
	Tags        *Tags
	Locations   *Locations
	Limits      *Limits
}

// New builds the repositories sharing s and engine.
func New(s *store.Store, engine *ordering.Engine, opts Options) *Repositories {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	b := base{
		store:  s,
		engine: engine,
		gw:     opts.Gateways.WithDefaults(),
		log:    opts.Logger.With().Str("component", "repository").Logger(),
		now:    opts.Now,
	}
	reminders := &Reminders{base: b}
	return &Repositories{
		Reminders:   reminders,
		Lists:       &Lists{base: b},
		SubHeadings: &SubHeadings{base: b, reminders: reminders},
		Tags:        &Tags{base: b},
		Locations:   &Locations{base: b},
		Limits:      &Limits{base: b, cfg: opts.Limits},
	}
}

type base struct {
	store  *store.Store
	engine *ordering.Engine
	gw     gateway.Set
	log    zerolog.Logger
	now    func() time.Time
}

// withReminder locks the container of reminder id, plus any keys returned
// by extra, and runs fn in a write transaction against a fresh copy of the
// reminder. If the reminder changed container before the lock was
// obtained, the whole sequence is retried.
func (b *base) withReminder(
	ctx context.Context,
	id string,
	extra func(model.Reminder) []string,
	fn func(tx *store.WriteTx, rem *model.Reminder) error,
) error {
	for attempt := 0; attempt < maxScopeRetries; attempt++ {
		seen, err := store.Read(ctx, b.store, func(tx *store.ReadTx) (*model.Reminder, error) {
			return tx.GetReminder(id)
		})
		if err != nil {
			return err
		}

		keys := []string{seen.Scope().Key()}
		if extra != nil {
			keys = append(keys, extra(*seen)...)
		}
		err = b.store.Locked(ctx, keys, func() error {
			return b.store.Update(ctx, func(tx *store.WriteTx) error {
				cur, err := tx.GetReminder(id)
				if err != nil {
					return err
				}
				if !cur.Scope().Equal(seen.Scope()) {
					return errScopeChanged
				}
				return fn(tx, cur)
			})
		})
		if errors.Is(err, errScopeChanged) {
			b.log.Debug().Str("reminder", id).Int("attempt", attempt+1).Msg("reminder moved; retrying")
			continue
		}
		return err
	}
	return fmt.Errorf("reminder %s kept moving: %w", id, store.ErrTransactionConflict)
}

// renumberReminders rewrites the orders of a reminder container densely.
func (b *base) renumberReminders(tx *store.WriteTx, scope model.ReminderScope) error {
	items, err := tx.ReminderItems(scope)
	if err != nil {
		return err
	}
	return tx.SetReminderOrders(ordering.Changes(items, b.engine.Renumber(items)))
}

// checkScope verifies that scope names an existing list and a sub-heading
// belonging to it.
func checkScope(tx *store.ReadTx, scope model.ReminderScope) error {
	if scope.ListID != nil {
		if _, err := tx.GetList(*scope.ListID); err != nil {
			return err
		}
	}
	if scope.SubHeadingID == nil {
		return nil
	}
	if scope.ListID == nil {
		return store.Invalid(store.KindReminder, "", "subheading",
			"cannot be set on a reminder without a list")
	}
	sub, err := tx.GetSubHeading(*scope.SubHeadingID)
	if err != nil {
		return err
	}
	if sub.ListID != *scope.ListID {
		return store.Invalid(store.KindReminder, "", "subheading",
			fmt.Sprintf("%s belongs to list %s, not %s", sub.ID, sub.ListID, *scope.ListID))
	}
	return nil
}

func orderingError(kind, id string, err error) error {
	switch {
	case errors.Is(err, ordering.ErrMismatchedSet):
		return store.Invalid(kind, id, "order", err.Error())
	case errors.Is(err, ordering.ErrUnknownItem), errors.Is(err, ordering.ErrIndexOutOfRange):
		return store.NotFound(kind, id)
	}
	return err
}
