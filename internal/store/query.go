package store

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"

	"github.com/nhle/reminders/internal/model"
)

// SortKey selects the ordering of query results.
type SortKey string

// Sort keys accepted by ReminderFilter.
const (
	SortStartDate SortKey = "start_date"
	SortEndDate   SortKey = "end_date"
	SortPriority  SortKey = "priority"
	SortTitle     SortKey = "title"
	SortCreated   SortKey = "created_at"
	SortManual    SortKey = "sort_order"
)

// Sort is one ordering term.
type Sort struct {
	Key  SortKey
	Desc bool
}

// DefaultSort orders by start date ascending then priority descending.
var DefaultSort = []Sort{{Key: SortStartDate}, {Key: SortPriority, Desc: true}}

// ReminderFilter is a conjunctive predicate over reminders. Zero-valued
// fields do not constrain the result.
type ReminderFilter struct {
	// Text matches title or notes case-insensitively as a substring.
	Text string

	Priority *int

	// TagIDs requires every listed tag to be attached.
	TagIDs []string

	StartFrom *time.Time
	StartTo   *time.Time
	EndFrom   *time.Time
	EndTo     *time.Time

	Completed *bool

	// ListID scopes to one list. Inbox scopes to reminders without a list
	// and takes precedence over ListID.
	ListID *string
	Inbox  bool

	// SubHeadingID scopes to one sub-heading. Unsectioned scopes to
	// reminders without one and takes precedence over SubHeadingID.
	SubHeadingID *string
	Unsectioned  bool

	Sort   []Sort
	Limit  int
	Offset int
}

func init() {
	// SQLite's LOWER only folds ASCII. fold applies full Unicode case folding
	// so that text search matches titles such as "ÉCOLE" or "Straße".
	if err := sqlite.RegisterDeterministicScalarFunction("fold", 1, foldFunc); err != nil {
		panic(fmt.Sprintf("registering fold: %v", err))
	}
}

func foldCase(s string) string {
	return cases.Fold().String(s)
}

func foldFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return foldCase(v), nil
	case []byte:
		return foldCase(string(v)), nil
	default:
		return v, nil
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (f ReminderFilter) where() (string, []any) {
	var conds []string
	var args []any

	if text := strings.TrimSpace(f.Text); text != "" {
		pattern := "%" + likeEscaper.Replace(foldCase(text)) + "%"
		conds = append(conds,
			`(fold(title) LIKE ? ESCAPE '\' OR fold(notes) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if f.Priority != nil {
		conds = append(conds, "priority = ?")
		args = append(args, *f.Priority)
	}
	for _, tagID := range f.TagIDs {
		conds = append(conds,
			"EXISTS (SELECT 1 FROM reminder_tags rt WHERE rt.reminder_id = reminders.id AND rt.tag_id = ?)")
		args = append(args, tagID)
	}
	addRange := func(col string, from, to *time.Time) {
		if from != nil {
			conds = append(conds, col+" >= ?")
			args = append(args, from.UTC())
		}
		if to != nil {
			conds = append(conds, col+" < ?")
			args = append(args, to.UTC())
		}
	}
	addRange("start_date", f.StartFrom, f.StartTo)
	addRange("end_date", f.EndFrom, f.EndTo)

	if f.Completed != nil {
		conds = append(conds, "is_completed = ?")
		args = append(args, boolToInt(*f.Completed))
	}
	switch {
	case f.Inbox:
		conds = append(conds, "list_id IS NULL")
	case f.ListID != nil:
		conds = append(conds, "list_id = ?")
		args = append(args, *f.ListID)
	}
	switch {
	case f.Unsectioned:
		conds = append(conds, "subheading_id IS NULL")
	case f.SubHeadingID != nil:
		conds = append(conds, "subheading_id = ?")
		args = append(args, *f.SubHeadingID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (f ReminderFilter) orderBy() (string, error) {
	terms := f.Sort
	if len(terms) == 0 {
		terms = DefaultSort
	}
	parts := make([]string, 0, len(terms)+3)
	for _, s := range terms {
		switch s.Key {
		case SortStartDate, SortEndDate, SortPriority, SortTitle, SortCreated, SortManual:
		default:
			return "", Invalid(KindReminder, "", "sort", fmt.Sprintf("unknown sort key %q", s.Key))
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		col := string(s.Key)
		if s.Key == SortTitle {
			col = "title COLLATE NOCASE"
		}
		// Missing dates sort after present ones in either direction.
		if s.Key == SortStartDate || s.Key == SortEndDate {
			parts = append(parts, string(s.Key)+" IS NULL")
		}
		parts = append(parts, col+" "+dir)
	}
	parts = append(parts, "sort_order", "created_at", "id")
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// FindReminders returns the reminders matching f.
func (r *ReadTx) FindReminders(f ReminderFilter) ([]model.Reminder, error) {
	where, args := f.where()
	order, err := f.orderBy()
	if err != nil {
		return nil, err
	}
	query := "SELECT " + reminderColumns + " FROM reminders" + where + order
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}

	var out []model.Reminder
	if err := r.tx.SelectContext(r.ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("querying reminders: %w", err)
	}
	return out, nil
}

// CountReminders returns how many reminders match f, ignoring its sort and
// paging.
func (r *ReadTx) CountReminders(f ReminderFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := r.tx.GetContext(r.ctx, &n, "SELECT COUNT(*) FROM reminders"+where, args...); err != nil {
		return 0, fmt.Errorf("counting reminders: %w", err)
	}
	return n, nil
}
