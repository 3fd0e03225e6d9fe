package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors.
// The pipeline codes mirror how a failure propagates: MALFORMED never leaves the
// parser, CONNECTION/STREAM become a connection status change, DEVICE_* are
// reported per display tick, CONTROL only reaches the caller of a tune action.
const (
	ErrConfig        = "CONFIG"
	ErrNotConfigured = "NOT_CONFIGURED"
	ErrConnection    = "CONNECTION"
	ErrStream        = "STREAM"
	ErrMalformed     = "MALFORMED"
	ErrDeviceWrite   = "DEVICE_WRITE"
	ErrDeviceAbsent  = "DEVICE_ABSENT"
	ErrControl       = "CONTROL"
	ErrLock          = "LOCK"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Formatted output:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Summary returns the message and cause on a single line, for status bars and logs.
func (e *Error) Summary() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rbnErr *Error
	if errors.As(err, &rbnErr) {
		return rbnErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost structured Error in the chain,
// or "" when err carries none.
func CodeOf(err error) string {
	var rbnErr *Error
	if errors.As(err, &rbnErr) {
		return rbnErr.Code
	}
	return ""
}

// Summary flattens any error to one line. Structured errors use their Summary.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var rbnErr *Error
	if errors.As(err, &rbnErr) {
		return rbnErr.Summary()
	}
	return err.Error()
}

// Is forwards to the standard library so callers need only this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As forwards to the standard library so callers need only this package.
func As(err error, target any) bool {
	return errors.As(err, target)
}
