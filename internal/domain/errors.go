package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the event catalog and the booking ledger.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("slug conflict")
	ErrDuplicateBooking = errors.New("already booked")
	ErrEventNotExist    = errors.New("event does not exist")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports a malformed or missing input field.
// Field is the JSON name of the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError returns a *ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
