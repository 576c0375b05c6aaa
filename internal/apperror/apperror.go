// Package apperror defines the domain error taxonomy shared by the service
// and handler layers.
//
// SENTINEL ERRORS + WRAPPER:
// Each failure category gets a sentinel (ErrNotFound, ErrValidation, ...).
// Services return an *AppError that wraps the sentinel plus a human-readable
// message. Handlers then use errors.Is to pick an HTTP status without ever
// string-matching on messages.
//
// AUTH FAILURES ARE TWO DISTINCT CATEGORIES:
//   - ErrAuthRequired: no credential was presented at all (401)
//   - ErrAuthRejected: a credential WAS presented but failed verification —
//     bad signature, malformed, expired (403)
//
// Conflating the two makes debugging miserable ("is my token missing or
// wrong?") and hides tampering attempts behind a generic 401.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrAuthRequired = errors.New("authentication required")
	ErrAuthRejected = errors.New("authentication rejected")
)

type AppError struct {
	Err     error  // sentinel category
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, detail string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict: %s", resource, detail),
	}
}

// Forbidden indicates the caller is authenticated but lacks the capability.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// AuthRequired indicates no credential was supplied on a protected operation.
func AuthRequired() *AppError {
	return &AppError{
		Err:     ErrAuthRequired,
		Message: "valid authentication required",
	}
}

// AuthRejected indicates the supplied credential failed verification.
func AuthRejected(message string) *AppError {
	return &AppError{
		Err:     ErrAuthRejected,
		Message: message,
	}
}
