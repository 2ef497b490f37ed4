// Package apperr defines the error taxonomy shared by the service and HTTP
// layers. Every domain failure carries a Kind so handlers can pick a status
// code without knowing which component produced the error.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a domain error.
type Kind string

const (
	KindInternal           Kind = "INTERNAL"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindPreconditionFailed Kind = "PRECONDITION_FAILED"
	KindInvalid            Kind = "INVALID"
	KindExists             Kind = "EXISTS"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindForbidden          Kind = "FORBIDDEN"
)

// Error is a domain error with a stable kind and a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same kind and message, so wrapped
// sentinels still compare equal under errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Invalid is shorthand for an input validation failure.
func Invalid(message string) *Error {
	return New(KindInvalid, message)
}

var (
	ErrEventNotFound        = New(KindNotFound, "event not found")
	ErrRegistrationNotFound = New(KindNotFound, "registration not found")
	ErrUserNotFound         = New(KindNotFound, "user not found")

	ErrAlreadyRegistered = New(KindConflict, "already registered for this event")
	ErrAlreadyCancelled  = New(KindConflict, "registration already cancelled")

	ErrEventInPast         = New(KindPreconditionFailed, "cannot register for past events")
	ErrCapacityExceeded    = New(KindPreconditionFailed, "event is at full capacity")
	ErrCapacityBelowActive = New(KindPreconditionFailed, "capacity cannot be lower than active registrations")

	ErrEmailTaken     = New(KindExists, "user already exists with this email")
	ErrBadCredentials = New(KindUnauthorized, "invalid credentials")
	ErrForbidden      = New(KindForbidden, "access denied")
)

// KindOf returns the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps err to an HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindPreconditionFailed, KindInvalid:
		return http.StatusBadRequest
	case KindExists:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. Internal errors never
// leak their cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
