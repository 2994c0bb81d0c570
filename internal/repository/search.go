package repository

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/store"
)

// filterTokenPattern matches typed filter tokens such as priority=3 or
// tag=<id> embedded in a search string.
var filterTokenPattern = regexp.MustCompile(`(?i)(?:^|\s)(priority|tag)=(\S+)`)

// SearchQuery is free text plus typed filter tokens.
type SearchQuery struct {
	Text     string
	Priority *int
	TagIDs   []string
}

// IsEmpty reports whether the query has neither text nor tokens.
func (q SearchQuery) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == "" && q.Priority == nil && len(q.TagIDs) == 0
}

// ParseSearch splits raw into free text and filter tokens. Tag ids are
// deduplicated preserving first occurrence; a repeated priority token keeps
// the last value.
func ParseSearch(raw string) (SearchQuery, error) {
	var q SearchQuery
	seen := make(map[string]bool)

	for _, m := range filterTokenPattern.FindAllStringSubmatch(raw, -1) {
		key, value := strings.ToLower(m[1]), m[2]
		switch key {
		case "priority":
			p, err := strconv.Atoi(value)
			if err != nil || !model.ValidPriority(p) {
				return SearchQuery{}, store.Invalid(store.KindReminder, "", "priority",
					fmt.Sprintf("token value %q is not 0-3", value))
			}
			q.Priority = &p
		case "tag":
			if seen[value] {
				continue
			}
			seen[value] = true
			q.TagIDs = append(q.TagIDs, value)
		}
	}

	text := filterTokenPattern.ReplaceAllString(raw, " ")
	q.Text = strings.Join(strings.Fields(text), " ")
	return q, nil
}

// Filter converts the query to a store filter with the default sort.
func (q SearchQuery) Filter() store.ReminderFilter {
	return store.ReminderFilter{
		Text:     q.Text,
		Priority: q.Priority,
		TagIDs:   q.TagIDs,
	}
}

// Search runs q as a conjunctive query. An empty query returns every
// reminder, the same as Query with an empty filter.
func (r *Reminders) Search(ctx context.Context, q SearchQuery) ([]model.Reminder, error) {
	return r.Query(ctx, q.Filter())
}

// SearchText parses raw with ParseSearch and runs it.
func (r *Reminders) SearchText(ctx context.Context, raw string) ([]model.Reminder, error) {
	q, err := ParseSearch(raw)
	if err != nil {
		return nil, err
	}
	return r.Search(ctx, q)
}
