// Package domainerrors defines the coded error taxonomy surfaced to callers.
// Services construct these at the boundary, translating store sentinel errors
// into codes the transport layer can map onto status codes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for the caller.
type Code string

const (
	// CodeInvalidValue marks malformed input: a bad RDQD string, a negative
	// counter, an unparseable id. Always recoverable by correcting input.
	CodeInvalidValue Code = "invalid_value"
	// CodeRuleViolation marks a business-rule rejection: future-dated report,
	// duplicate (user, date), mutating a non-draft report, validating a
	// non-submitted report.
	CodeRuleViolation Code = "rule_violation"
	// CodeNotFound marks a missing report or user.
	CodeNotFound Code = "not_found"
	// CodeForbidden marks a visibility denial. Callers must surface it without
	// revealing whether the resource exists.
	CodeForbidden Code = "forbidden"
	// CodeConflict marks the losing side of a concurrent create race.
	CodeConflict Code = "conflict"
	// CodeUnavailable marks a store transport failure; retryable.
	CodeUnavailable Code = "unavailable"
)

// Error is a coded domain error.
type Error struct {
	code    Code
	message string
	cause   error
}

// New builds a coded error with a caller-facing message.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap builds a coded error preserving the underlying cause for errors.Is/As.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{code: code, message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error { return e.cause }

// Code returns the classification of the error.
func (e *Error) Code() Code { return e.code }

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}
