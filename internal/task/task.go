package task

import (
	"context"

	"github.com/phrazzld/montage-api/internal/domain"
)

// Update is a normalized status report from either the poll path or the
// webhook path. It carries only internal statuses.
type Update struct {
	Status       domain.TaskStatus
	Progress     int
	VideoURL     string
	ErrorMessage string
}

// Store is the single authority over generation task records.
// Every status change goes through Merge, which is atomic per task id.
type Store interface {
	// Create persists the initial record for a newly accepted task.
	// Returns store.ErrTaskExists if the id is already present.
	Create(ctx context.Context, task *domain.GenerationTask) error

	// Get returns a copy of the record, or store.ErrTaskNotFound.
	Get(ctx context.Context, id string) (*domain.GenerationTask, error)

	// Merge folds update into the stored record using Reconcile. It returns
	// the record as stored after the merge and whether anything changed.
	// Unknown ids fail with store.ErrTaskNotFound.
	Merge(ctx context.Context, id string, update Update) (*domain.GenerationTask, bool, error)
}
