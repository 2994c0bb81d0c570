package repository

import (
	"context"
	"time"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/store"
)

// Limits answers whether a day still has room under the configured daily
// caps. The caps are advisory: no repository operation enforces them.
type Limits struct {
	base
	cfg model.LimitsConfig
}

// CanAddWithStartDate reports whether fewer than the configured maximum of
// reminders start on day's calendar date. A zero cap always allows.
func (l *Limits) CanAddWithStartDate(ctx context.Context, day time.Time) (bool, error) {
	return l.under(ctx, l.cfg.MaxStartPerDay, day, func(f *store.ReminderFilter, from, to *time.Time) {
		f.StartFrom, f.StartTo = from, to
	})
}

// CanAddWithEndDate is CanAddWithStartDate for end dates.
func (l *Limits) CanAddWithEndDate(ctx context.Context, day time.Time) (bool, error) {
	return l.under(ctx, l.cfg.MaxEndPerDay, day, func(f *store.ReminderFilter, from, to *time.Time) {
		f.EndFrom, f.EndTo = from, to
	})
}

func (l *Limits) under(ctx context.Context, limit int, day time.Time, set func(*store.ReminderFilter, *time.Time, *time.Time)) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	var f store.ReminderFilter
	set(&f, &from, &to)
	n, err := store.Read(ctx, l.store, func(tx *store.ReadTx) (int, error) {
		return tx.CountReminders(f)
	})
	if err != nil {
		return false, err
	}
	return n < limit, nil
}
