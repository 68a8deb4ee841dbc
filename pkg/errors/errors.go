// Package errors provides structured error types for runorder.
//
// Error codes give the CLI and the HTTP surface a machine-readable category
// while the message stays human-friendly:
//   - INVALID_*: rejected input (declarations, paths, configuration)
//   - CYCLE_DETECTED: the declared relations cannot be ordered
//   - VALIDATION_FAILED: the optional validation pass found errors
//   - NOT_FOUND / CACHE_UNAVAILABLE / UNSUPPORTED / INTERNAL_ERROR
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidDeclaration, "empty identity in %s", path)
//	if errors.Is(err, errors.ErrCodeInvalidDeclaration) {
//	    // skip the candidate
//	}
//
//	err := errors.Wrap(errors.ErrCodeCycleDetected, cycleErr, "resolve %d components", n)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidDeclaration Code = "INVALID_DECLARATION"
	ErrCodeInvalidPath        Code = "INVALID_PATH"
	ErrCodeInvalidConfig      Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat      Code = "INVALID_FORMAT"

	// Ordering errors
	ErrCodeCycleDetected    Code = "CYCLE_DETECTED"
	ErrCodeValidationFailed Code = "VALIDATION_FAILED"

	// Resource errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeCacheUnavailable Code = "CACHE_UNAVAILABLE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err carries the given error code.
// The outermost *Error in the chain decides.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error code to the status used by the HTTP surface.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidDeclaration, ErrCodeInvalidPath,
		ErrCodeInvalidConfig, ErrCodeInvalidFormat:
		return 400
	case ErrCodeNotFound:
		return 404
	case ErrCodeCycleDetected:
		return 409
	case ErrCodeValidationFailed:
		return 422
	case ErrCodeCacheUnavailable:
		return 503
	case ErrCodeUnsupported:
		return 501
	default:
		return 500
	}
}
