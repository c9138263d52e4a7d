package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrNotOwned indicates a task belongs to a different user than the caller.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")
)

// VideoServiceError wraps unexpected failures from the video service with context.
type VideoServiceError struct {
	// Operation is the operation that failed (e.g., "submit", "check_status")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for VideoServiceError.
func (e *VideoServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("video service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("video service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *VideoServiceError) Unwrap() error {
	return e.Err
}
