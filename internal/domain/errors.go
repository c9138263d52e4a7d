package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a submission or payload fails validation.
	// It is usually wrapped by a *ValidationError naming the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrProvider is returned when the video provider rejects a submission.
	ErrProvider = errors.New("provider rejected request")

	// ErrStatusQuery is returned when a provider status query fails. It is
	// transient and must never change stored task state.
	ErrStatusQuery = errors.New("status query failed")

	// ErrAuth is the parent of all authentication failures.
	ErrAuth = errors.New("authentication failed")

	// ErrMissingSignature is returned when a webhook arrives without its signature header.
	ErrMissingSignature = fmt.Errorf("%w: missing webhook signature", ErrAuth)

	// ErrInvalidSignature is returned when a webhook signature does not match the body.
	ErrInvalidSignature = fmt.Errorf("%w: invalid webhook signature", ErrAuth)

	// ErrUnauthorized is returned when a request carries no usable identity.
	ErrUnauthorized = fmt.Errorf("%w: unauthorized", ErrAuth)

	// ErrForbidden is returned when the caller may not act for the requested user.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidStatus is returned for a task status outside the closed set.
	ErrInvalidStatus = errors.New("invalid task status")
)

// ValidationError names the first constraint a request violated.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError. If err is nil the error
// still matches ErrValidation.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrValidation so callers can match on the
// sentinel regardless of the wrapped cause.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ProviderError describes a submission the upstream provider refused.
// No task record exists when this error is returned.
type ProviderError struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s failed", e.Operation)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s with status %d", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = msg + ": " + e.Message
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is matches ErrProvider.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// StatusQueryError wraps a failed poll of the provider for a single task.
type StatusQueryError struct {
	TaskID string
	Err    error
}

// Error implements the error interface.
func (e *StatusQueryError) Error() string {
	return fmt.Sprintf("status query for task %s failed: %v", e.TaskID, e.Err)
}

// Unwrap returns the wrapped error.
func (e *StatusQueryError) Unwrap() error {
	return e.Err
}

// Is matches ErrStatusQuery.
func (e *StatusQueryError) Is(target error) bool {
	return target == ErrStatusQuery
}
