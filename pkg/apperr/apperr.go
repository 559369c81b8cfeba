// Package apperr defines the error taxonomy shared by the service layer
// and the HTTP handlers. Every business failure is an *Error carrying a
// Kind and the HTTP status class it should surface as; the handlers map
// anything else to a server error.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	// KindValidation marks a missing or malformed required field.
	KindValidation Kind = iota
	// KindReference marks a referenced id that does not resolve.
	KindReference
	// KindConflict marks a uniqueness violation such as a duplicate email.
	KindConflict
	// KindState marks an operation forbidden by the record's current state.
	KindState
	// KindNotFound marks a missing primary record.
	KindNotFound
	// KindQuery marks a structurally malformed query parameter.
	KindQuery
	// KindStore marks an underlying persistence failure.
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindReference:
		return "reference"
	case KindConflict:
		return "conflict"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	case KindQuery:
		return "query"
	case KindStore:
		return "store"
	}
	return "unknown"
}

func (k Kind) defaultStatus() int {
	switch k {
	case KindValidation, KindState, KindQuery:
		return http.StatusBadRequest
	case KindReference, KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Error is a tagged failure with a user-facing message and a suggested
// HTTP status. Err, when set, preserves the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the explicit status if one was set, otherwise the
// default for the error's kind.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return e.Kind.defaultStatus()
}

func newKind(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Validation(msg string) *Error { return newKind(KindValidation, msg) }
func Conflict(msg string) *Error   { return newKind(KindConflict, msg) }
func State(msg string) *Error      { return newKind(KindState, msg) }
func NotFound(msg string) *Error   { return newKind(KindNotFound, msg) }
func Query(msg string) *Error      { return newKind(KindQuery, msg) }

// Reference reports a dangling reference; it surfaces as not-found by
// default, matching the behavior for a missing assignee.
func Reference(msg string) *Error { return newKind(KindReference, msg) }

// BadReference is a reference error that surfaces as a bad request, used
// where the dangling id arrived inside the request body rather than the
// path.
func BadReference(msg string) *Error {
	return &Error{Kind: KindReference, Message: msg, Status: http.StatusBadRequest}
}

// Store wraps a persistence failure.
func Store(msg string, err error) *Error {
	return &Error{Kind: KindStore, Message: msg, Err: err}
}

// KindOf extracts the Kind of err, or KindStore when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// StatusOf extracts the HTTP status of err, defaulting to 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// Is lets errors.Is match two apperr values by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}
