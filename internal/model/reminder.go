package model

import "time"

// Priority levels. Zero means no priority.
const (
	PriorityNone   = 0
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// Repeat options understood by the scheduling collaborators.
const (
	RepeatNever   = "never"
	RepeatDaily   = "daily"
	RepeatWeekly  = "weekly"
	RepeatMonthly = "monthly"
	RepeatYearly  = "yearly"
	RepeatCustom  = "custom"
)

// ValidPriority reports whether p is within the accepted 0-3 range.
func ValidPriority(p int) bool {
	return p >= PriorityNone && p <= PriorityHigh
}

// Reminder is a single task item. ListID nil means the reminder lives in
// the Inbox; SubHeadingID, when set, must belong to ListID.
type Reminder struct {
	ID                   string     `json:"id" db:"id"`
	ListID               *string    `json:"list_id,omitempty" db:"list_id"`
	SubHeadingID         *string    `json:"subheading_id,omitempty" db:"subheading_id"`
	Title                string     `json:"title" db:"title"`
	Notes                string     `json:"notes" db:"notes"`
	URL                  string     `json:"url" db:"url"`
	Priority             int        `json:"priority" db:"priority"`
	StartDate            *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate              *time.Time `json:"end_date,omitempty" db:"end_date"`
	IsCompleted          bool       `json:"is_completed" db:"is_completed"`
	CompletedAt          *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	SortOrder            int        `json:"sort_order" db:"sort_order"`
	Notifications        TokenSet   `json:"notifications" db:"notifications"`
	RepeatOption         string     `json:"repeat_option" db:"repeat_option"`
	CustomRepeatInterval int        `json:"custom_repeat_interval" db:"custom_repeat_interval"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`

	// Populated by repository reads, never persisted through this struct.
	Tags     []Tag     `json:"tags,omitempty" db:"-"`
	Location *Location `json:"location,omitempty" db:"-"`
	HasVoice bool      `json:"has_voice_note,omitempty" db:"-"`
	PhotoIDs []string  `json:"photo_ids,omitempty" db:"-"`
}

// IsInInbox reports whether the reminder has no explicit list.
func (r Reminder) IsInInbox() bool { return r.ListID == nil }

// Scope returns the ordering container the reminder belongs to.
func (r Reminder) Scope() ReminderScope {
	return ReminderScope{ListID: r.ListID, SubHeadingID: r.SubHeadingID}
}

// IsOverdue reports whether the reminder's end date has passed while it is
// still open.
func (r Reminder) IsOverdue(now time.Time) bool {
	return r.EndDate != nil && r.EndDate.Before(now) && !r.IsCompleted
}
