package store

import (
	"context"
	"fmt"

	"github.com/nhle/reminders/internal/events"
	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
)

// SweepReport counts the rows a SweepOrphans pass removed or repaired.
type SweepReport struct {
	Photos        int
	VoiceNotes    int
	Locations     int
	TagLinks      int
	Reminders     int
	SubHeadings   int
	SectionsFixed int
}

// Total returns the number of rows touched.
func (r SweepReport) Total() int {
	return r.Photos + r.VoiceNotes + r.Locations + r.TagLinks +
		r.Reminders + r.SubHeadings + r.SectionsFixed
}

// orphanSweeps are applied in order; parents are swept before children.
var orphanSweeps = []struct {
	name  string
	query string
	count func(*SweepReport) *int
}{
	{"subheadings", `DELETE FROM subheadings
		WHERE list_id NOT IN (SELECT id FROM task_lists)`,
		func(r *SweepReport) *int { return &r.SubHeadings }},
	{"reminders", `DELETE FROM reminders
		WHERE list_id IS NOT NULL AND list_id NOT IN (SELECT id FROM task_lists)`,
		func(r *SweepReport) *int { return &r.Reminders }},
	{"sections", `UPDATE reminders SET subheading_id = NULL
		WHERE subheading_id IS NOT NULL AND NOT EXISTS (
			SELECT 1 FROM subheadings s
			WHERE s.id = reminders.subheading_id AND s.list_id IS reminders.list_id)`,
		func(r *SweepReport) *int { return &r.SectionsFixed }},
	{"photos", `DELETE FROM reminder_photos
		WHERE reminder_id NOT IN (SELECT id FROM reminders)`,
		func(r *SweepReport) *int { return &r.Photos }},
	{"voice notes", `DELETE FROM voice_notes
		WHERE reminder_id NOT IN (SELECT id FROM reminders)`,
		func(r *SweepReport) *int { return &r.VoiceNotes }},
	{"locations", `DELETE FROM locations
		WHERE reminder_id IS NOT NULL AND reminder_id NOT IN (SELECT id FROM reminders)`,
		func(r *SweepReport) *int { return &r.Locations }},
	{"tag links", `DELETE FROM reminder_tags
		WHERE reminder_id NOT IN (SELECT id FROM reminders)
		   OR tag_id NOT IN (SELECT id FROM tags)`,
		func(r *SweepReport) *int { return &r.TagLinks }},
}

// SweepOrphans removes rows whose owner no longer exists and clears
// sub-heading references that point outside the reminder's list. Foreign
// keys normally prevent both; the sweep reconciles databases written with
// enforcement off.
func (s *Store) SweepOrphans(ctx context.Context) (SweepReport, error) {
	return Write(ctx, s, func(tx *WriteTx) (SweepReport, error) {
		var rep SweepReport
		for _, sw := range orphanSweeps {
			result, err := tx.tx.ExecContext(tx.ctx, sw.query)
			if err != nil {
				return SweepReport{}, fmt.Errorf("sweeping orphaned %s: %w", sw.name, err)
			}
			n, _ := result.RowsAffected()
			*sw.count(&rep) = int(n)
		}
		if rep.SubHeadings > 0 {
			tx.Touch(events.SubHeadingChanged)
		}
		if rep.Reminders+rep.SectionsFixed+rep.Photos+rep.VoiceNotes+rep.TagLinks > 0 {
			tx.Touch(events.ReminderChanged)
		}
		if rep.Locations > 0 {
			tx.Touch(events.LocationChanged)
		}
		return rep, nil
	})
}

// RepairReport counts the ordering scopes RepairOrdering renumbered.
type RepairReport struct {
	Scopes int
	Items  int
}

// RepairOrdering renumbers every ordering scope whose stored order values
// are not dense. Each scope is repaired under its container lock.
func (s *Store) RepairOrdering(ctx context.Context, engine *ordering.Engine) (RepairReport, error) {
	var rep RepairReport

	repair := func(key string, load func(*ReadTx) ([]ordering.Item, error), save func(*WriteTx, map[string]int) error) error {
		return s.Locked(ctx, []string{key}, func() error {
			var changed int
			err := s.Update(ctx, func(tx *WriteTx) error {
				changed = 0
				items, err := load(&tx.ReadTx)
				if err != nil {
					return err
				}
				if ordering.IsDense(items) {
					return nil
				}
				changes := ordering.Changes(items, engine.Renumber(items))
				changed = len(changes)
				return save(tx, changes)
			})
			if err == nil && changed > 0 {
				rep.Scopes++
				rep.Items += changed
			}
			return err
		})
	}

	if err := repair(ListsScopeKey,
		func(tx *ReadTx) ([]ordering.Item, error) { return tx.ListItems() },
		func(tx *WriteTx, m map[string]int) error { return tx.SetListOrders(m) },
	); err != nil {
		return rep, err
	}

	lists, err := Read(ctx, s, func(tx *ReadTx) ([]model.TaskList, error) { return tx.Lists() })
	if err != nil {
		return rep, err
	}
	for _, l := range lists {
		listID := l.ID
		if err := repair(SubHeadingsScopeKey(listID),
			func(tx *ReadTx) ([]ordering.Item, error) { return tx.SubHeadingItems(listID) },
			func(tx *WriteTx, m map[string]int) error { return tx.SetSubHeadingOrders(m) },
		); err != nil {
			return rep, err
		}
	}

	scopes, err := Read(ctx, s, func(tx *ReadTx) ([]model.ReminderScope, error) { return tx.ReminderScopes() })
	if err != nil {
		return rep, err
	}
	for _, sc := range scopes {
		scope := sc
		if err := repair(scope.Key(),
			func(tx *ReadTx) ([]ordering.Item, error) { return tx.ReminderItems(scope) },
			func(tx *WriteTx, m map[string]int) error { return tx.SetReminderOrders(m) },
		); err != nil {
			return rep, err
		}
	}

	var owners []string
	err = s.View(ctx, func(tx *ReadTx) error {
		return tx.tx.SelectContext(tx.ctx, &owners,
			"SELECT DISTINCT reminder_id FROM reminder_photos ORDER BY reminder_id")
	})
	if err != nil {
		return rep, fmt.Errorf("listing photo owners: %w", err)
	}
	for _, id := range owners {
		reminderID := id
		if err := repair(PhotosScopeKey(reminderID),
			func(tx *ReadTx) ([]ordering.Item, error) { return tx.PhotoItems(reminderID) },
			func(tx *WriteTx, m map[string]int) error { return tx.SetPhotoOrders(reminderID, m) },
		); err != nil {
			return rep, err
		}
	}

	if rep.Scopes > 0 {
		s.log.Warn().Int("scopes", rep.Scopes).Int("items", rep.Items).Msg("repaired ordering gaps")
	}
	return rep, nil
}
