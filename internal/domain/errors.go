package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("access denied")
	ErrConflict     = errors.New("resource already exists")
	ErrRateLimited  = errors.New("too many requests")
)

// ReasonError gives a sentinel error a client-facing message.
type ReasonError struct {
	Err     error
	Message string
}

func (e *ReasonError) Error() string {
	return e.Message
}

func (e *ReasonError) Unwrap() error {
	return e.Err
}

// WithReason wraps err so callers can still match it with errors.Is.
func WithReason(err error, message string) error {
	return &ReasonError{Err: err, Message: message}
}

// ValidationError is a client error carrying the offending field names.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + " (" + strings.Join(e.Fields, ", ") + ")"
}

func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
