package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error into the response taxonomy.
type Kind int

const (
	// KindValidation covers missing or malformed input (400).
	KindValidation Kind = iota
	// KindUnauthenticated covers missing or invalid tokens (401).
	KindUnauthenticated
	// KindForbidden covers authenticated callers lacking privilege (403).
	KindForbidden
	// KindNotFound covers absent referenced entities (404).
	KindNotFound
	// KindConflict covers uniqueness violations (409).
	KindConflict
	// KindInvariant covers system misconfiguration (500).
	KindInvariant
)

// Error is a domain error with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Validation returns a 400-class error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Unauthenticated returns a 401-class error.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Forbidden returns a 403-class error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound returns a 404-class error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict returns a 409-class error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Invariant returns a 500-class error.
func Invariant(message string) *Error {
	return &Error{Kind: KindInvariant, Message: message}
}

// Status maps an error to its HTTP status code. Unclassified errors are
// treated as internal.
func Status(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing message for an error. Unclassified errors
// collapse to a generic message so internals never leak to clients.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
