package store

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Entity kinds used in error context.
const (
	KindList       = "list"
	KindSubHeading = "subheading"
	KindReminder   = "reminder"
	KindTag        = "tag"
	KindPhoto      = "photo"
	KindLocation   = "location"
	KindVoiceNote  = "voice note"
)

var (
	// ErrInvalidInput matches every *ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable means the database could not be opened or has
	// been closed. Recovery requires reopening the store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrTransactionConflict means the database was busy or locked. The
	// whole transaction may be retried.
	ErrTransactionConflict = errors.New("transaction conflict")
)

// ValidationError reports bad caller input.
type ValidationError struct {
	Kind   string
	ID     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("invalid %s %s: %s %s", e.Kind, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s %s", e.Kind, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidInput) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid builds a *ValidationError.
func Invalid(kind, id, field, reason string) error {
	return &ValidationError{Kind: kind, ID: id, Field: field, Reason: reason}
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a *NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// isBusy reports whether err carries an SQLite BUSY or LOCKED result.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// classify maps driver failures onto the store taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isBusy(err) && !errors.Is(err, ErrTransactionConflict) {
		return fmt.Errorf("%w: %w", ErrTransactionConflict, err)
	}
	return err
}
