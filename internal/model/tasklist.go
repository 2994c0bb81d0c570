package model

import "time"

// Reserved values for the distinguished Inbox list.
const (
	InboxName   = "Inbox"
	InboxSymbol = "tray"
)

// TaskList is a user-visible container of sub-headings and reminders.
type TaskList struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Symbol    string    `json:"symbol" db:"symbol"`
	Color     string    `json:"color" db:"color"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsInbox reports whether the list is the reserved Inbox list.
func (l TaskList) IsInbox() bool { return l.Name == InboxName }
