// Package apperr defines the typed domain errors the services surface to the
// transport layers. Handlers map codes to HTTP statuses; the event router maps
// them to error events on the originating session.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	CodeNotFound    Code = "not_found"
	CodeForbidden   Code = "forbidden"
	CodeBadRequest  Code = "bad_request"
	CodeConflict    Code = "conflict"
	CodeUnavailable Code = "unavailable" // storage fault, retryable by the caller
)

// Error is a domain error with a classification code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two apperr errors by code, so sentinel-style checks like
// errors.Is(err, apperr.NotFound("")) work regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func NotFound(msg string) *Error { return &Error{Code: CodeNotFound, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Code: CodeForbidden, Message: msg} }

func BadRequest(msg string) *Error { return &Error{Code: CodeBadRequest, Message: msg} }

func Conflict(msg string) *Error { return &Error{Code: CodeConflict, Message: msg} }

func Unavailable(err error) *Error {
	return &Error{Code: CodeUnavailable, Message: "storage unavailable", Err: err}
}

// CodeOf extracts the classification code, defaulting to CodeUnavailable for
// errors that did not come from the domain layer.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnavailable
}

// MessageOf returns the user-facing message for an error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
