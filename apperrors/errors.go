// Package apperrors defines the error kinds every operation reports and
// the HTTP status each kind collapses to at the transport boundary.
package apperrors

import (
	"errors"
	"net/http"
	"strings"
)

// Kind classifies a failure
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindValidation
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// InternalMessage is the only message a caller sees for an unexpected failure
const InternalMessage = "Internal server error"

// Error carries a kind, the user visible messages and an optional cause
type Error struct {
	Kind     Kind
	Messages []string
	Err      error
}

func (e *Error) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status. Authorization failures share 401
// with authentication failures.
func (e *Error) Status() int {
	switch e.Kind {
	case KindAuthentication, KindAuthorization:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the messages that may be shown to the caller
func (e *Error) Public() []string {
	if e.Kind == KindInternal || len(e.Messages) == 0 {
		return []string{InternalMessage}
	}
	return e.Messages
}

func Authentication(msg string) *Error {
	return &Error{Kind: KindAuthentication, Messages: []string{msg}}
}

func Authorization(msg string) *Error {
	return &Error{Kind: KindAuthorization, Messages: []string{msg}}
}

// Validation collects every violation found for a request
func Validation(msgs ...string) *Error {
	return &Error{Kind: KindValidation, Messages: msgs}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Messages: []string{msg}}
}

// Internal wraps an unexpected failure; the cause is logged, never returned
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// From converts any error into an *Error, treating unknown errors as internal
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Is reports whether err is an *Error of the given kind
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
