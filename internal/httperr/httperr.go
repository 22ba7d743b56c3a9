// Package httperr defines the error taxonomy handlers return and the router
// maps to HTTP status codes.
package httperr

import (
	"fmt"
	"net/http"
)

type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("http error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// Input reports a client input problem (missing file, bad extension, ...).
func Input(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

// Forbidden reports an ownership mismatch.
func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Message: msg}
}

// NotFound reports an unknown resource or route.
func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

// Internal wraps an unexpected failure. The wrapped error's text is surfaced
// to the client in the response body.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Err: err}
}
