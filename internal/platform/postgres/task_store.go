package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/platform/logger"
	"github.com/phrazzld/montage-api/internal/store"
	"github.com/phrazzld/montage-api/internal/task"
)

const taskColumns = `id, user_id, event_id, photo_urls, style, duration_seconds, prompt,
	status, progress, video_url, error_message, estimated_time, created_at, updated_at`

// TaskStore implements task.Store using PostgreSQL.
type TaskStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewTaskStore creates a new TaskStore
func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{
		db:  db,
		now: time.Now,
	}
}

var _ task.Store = (*TaskStore)(nil)

// Create persists a newly accepted task.
func (s *TaskStore) Create(ctx context.Context, t *domain.GenerationTask) error {
	log := logger.FromContext(ctx)

	if err := t.Validate(); err != nil {
		return store.NewTaskError("create", t.ID, "",
			fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
	}

	photos, err := json.Marshal(t.PhotoURLs)
	if err != nil {
		return store.NewTaskError("create", t.ID, "failed to encode photo urls", err)
	}

	query := `
		INSERT INTO video_tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = s.db.ExecContext(ctx, query,
		t.ID,
		t.UserID,
		t.EventID,
		photos,
		t.Style,
		t.DurationSeconds,
		t.Prompt,
		t.Status,
		t.Progress,
		t.VideoURL,
		t.ErrorMessage,
		t.EstimatedTime,
		t.CreatedAt.UTC(),
		t.UpdatedAt.UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("task already exists", "task_id", t.ID)
			return store.ErrTaskExists
		}
		log.Error("failed to insert task",
			"task_id", t.ID,
			"error", err)
		return store.NewTaskError("create", t.ID, "insert failed", MapError(err))
	}

	log.Debug("task created", "task_id", t.ID, "status", t.Status)
	return nil
}

// Get returns the task with the given id.
func (s *TaskStore) Get(ctx context.Context, id string) (*domain.GenerationTask, error) {
	t, err := loadTask(ctx, s.db, id, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContext(ctx).Error("failed to load task",
			"task_id", id,
			"error", err)
		return nil, store.NewTaskError("get", id, "query failed", MapError(err))
	}
	return t, nil
}

// Merge locks the task row, applies task.Reconcile and writes the result
// back when it differs from the stored row.
func (s *TaskStore) Merge(
	ctx context.Context,
	id string,
	update task.Update,
) (*domain.GenerationTask, bool, error) {
	var (
		result  *domain.GenerationTask
		changed bool
	)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		current, err := loadTask(ctx, tx, id, true)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrTaskNotFound
			}
			return store.NewTaskError("merge", id, "lock failed", MapError(err))
		}

		next, ok := task.Reconcile(current, update, s.now())
		result, changed = next, ok
		if !ok {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE video_tasks
			SET status = $1, progress = $2, video_url = $3, error_message = $4, updated_at = $5
			WHERE id = $6
		`,
			next.Status,
			next.Progress,
			next.VideoURL,
			next.ErrorMessage,
			next.UpdatedAt,
			id,
		)
		if err != nil {
			return store.NewTaskError("merge", id, "update failed",
				fmt.Errorf("%w: %w", store.ErrUpdateFailed, MapError(err)))
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		logger.FromContext(ctx).Debug("task merged",
			"task_id", id,
			"status", result.Status,
			"progress", result.Progress)
	}
	return result, changed, nil
}

// loadTask reads one row through q, which is either the pool or an open
// transaction. forUpdate locks the row until the transaction ends.
func loadTask(ctx context.Context, q store.DBTX, id string, forUpdate bool) (*domain.GenerationTask, error) {
	query := `SELECT ` + taskColumns + ` FROM video_tasks WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return scanTask(q.QueryRowContext(ctx, query, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.GenerationTask, error) {
	var (
		t      domain.GenerationTask
		photos []byte
	)
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.EventID,
		&photos,
		&t.Style,
		&t.DurationSeconds,
		&t.Prompt,
		&t.Status,
		&t.Progress,
		&t.VideoURL,
		&t.ErrorMessage,
		&t.EstimatedTime,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(photos, &t.PhotoURLs); err != nil {
		return nil, fmt.Errorf("failed to decode photo urls for task %s: %w", t.ID, err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}
