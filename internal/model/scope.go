package model

import "time"

// ReminderScope identifies a reminder ordering container: a list (nil for
// the Inbox) optionally narrowed to one of its sub-headings.
type ReminderScope struct {
	ListID       *string
	SubHeadingID *string
}

// Key renders the scope as a stable string, used for locking.
func (s ReminderScope) Key() string {
	list, sub := "inbox", "-"
	if s.ListID != nil {
		list = *s.ListID
	}
	if s.SubHeadingID != nil {
		sub = *s.SubHeadingID
	}
	return "reminders:" + list + "/" + sub
}

// Equal reports whether two scopes name the same container.
func (s ReminderScope) Equal(o ReminderScope) bool {
	return EqualString(s.ListID, o.ListID) && EqualString(s.SubHeadingID, o.SubHeadingID)
}

// EqualString reports whether two optional strings are both nil or equal.
func EqualString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// EqualTime reports whether two optional instants are both nil or equal.
func EqualTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
