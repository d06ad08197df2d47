package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig      = "CONFIG"
	ErrNoServer    = "NO_SERVER"
	ErrPinUpdate   = "PIN_UPDATE"
	ErrPinOverride = "PIN_OVERRIDE"
	ErrParse       = "PARSE"
	ErrExec        = "EXEC"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
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

// Wrap wraps an existing error with a message, defaulting to ErrNoServer code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrNoServer,
		Message: message,
		Cause:   err,
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

// NewNoServer reports that the greenhouse API could not be reached or answered
// with something other than a 2xx for a read.
func NewNoServer(err error, endpoint string) *Error {
	return &Error{
		Code:       ErrNoServer,
		Message:    fmt.Sprintf("Couldn't reach the greenhouse API (%s)", endpoint),
		Suggestion: "Check that the agent is running and api_host points at it. 'gha doctor' can help.",
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Short returns the message and cause on a single line, for places like
// the dashboard toast line where the multi-line form doesn't fit.
func (e *Error) Short() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + strings.TrimSpace(e.Cause.Error())
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code && code != ""
}

// CodeOf returns the code of the outermost structured Error in err's chain,
// or "" when there is none.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var ghaErr *Error
	if errors.As(err, &ghaErr) {
		return ghaErr.Code
	}
	return ""
}
