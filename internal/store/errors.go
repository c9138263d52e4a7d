package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the parent of every lookup miss.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is the parent of every unique key conflict.
	ErrDuplicate = errors.New("already exists")

	// ErrInvalidEntity means a record failed its own Validate before a write.
	ErrInvalidEntity = errors.New("invalid record")

	// ErrUpdateFailed means a merge could not be written back, for example
	// because the row lock was not granted.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed means a merge transaction did not commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrTaskNotFound is returned by Get and Merge for an unknown task id.
	ErrTaskNotFound = fmt.Errorf("task %w", ErrNotFound)

	// ErrTaskExists is returned by Create when the provider id is already stored.
	ErrTaskExists = fmt.Errorf("task %w", ErrDuplicate)
)

// IsNotFoundError reports whether err is a lookup miss.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is a unique key conflict.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// TaskError records which store operation failed for which task.
type TaskError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *TaskError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("task store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("task store %s %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// NewTaskError wraps err with the operation and task id it belongs to.
// A message, when given, is prefixed to err.
func NewTaskError(op, taskID, message string, err error) *TaskError {
	switch {
	case message == "":
	case err == nil:
		err = errors.New(message)
	default:
		err = fmt.Errorf("%s: %w", message, err)
	}
	return &TaskError{Op: op, TaskID: taskID, Err: err}
}
