package model

import "time"

// ReminderPhoto is an image blob owned by a reminder. Its lifecycle is bound
// to the reminder (CASCADE delete).
type ReminderPhoto struct {
	ID         string    `json:"id" db:"id"`
	ReminderID string    `json:"reminder_id" db:"reminder_id"`
	Data       []byte    `json:"-" db:"data"`
	SortOrder  int       `json:"sort_order" db:"sort_order"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// VoiceNote holds raw audio recorded for a reminder.
type VoiceNote struct {
	ReminderID string    `json:"reminder_id" db:"reminder_id"`
	Data       []byte    `json:"-" db:"data"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
