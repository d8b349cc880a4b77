// Package apperr defines the error kinds shared by repositories, the asset
// manager and the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	NotFound         Kind = "not_found"
	NotConfigured    Kind = "not_configured"
	ValidationFailed Kind = "validation_failed"
	DuplicateField   Kind = "duplicate_field"
	StoreUnavailable Kind = "store_unavailable"
	Internal         Kind = "internal"
)

// Error carries a kind, a client-facing message and the underlying cause.
// Field and Value are set only for DuplicateField.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Value   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Newf is New with a formatted message and no cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Duplicate reports a uniqueness violation on field with the offending value.
func Duplicate(field, value string, err error) *Error {
	return &Error{
		Kind:    DuplicateField,
		Message: "Duplicate field value. This value already exists.",
		Field:   field,
		Value:   value,
		Err:     err,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case ValidationFailed, DuplicateField, NotConfigured:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
