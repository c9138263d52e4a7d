package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/store"
)

// MemoryStore is an in-process Store. Merges on the same id are serialized
// by a per-id mutex; different ids proceed in parallel.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*entry
	now   func() time.Time
}

type entry struct {
	mu   sync.Mutex
	task *domain.GenerationTask
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]*entry),
		now:   time.Now,
	}
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, task *domain.GenerationTask) error {
	if err := task.Validate(); err != nil {
		return store.NewTaskError("create", task.ID, "",
			fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return store.ErrTaskExists
	}
	s.tasks[task.ID] = &entry{task: task.Clone()}
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.GenerationTask, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, store.ErrTaskNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.task.Clone(), nil
}

// Merge implements Store.
func (s *MemoryStore) Merge(ctx context.Context, id string, update Update) (*domain.GenerationTask, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	e, ok := s.lookup(id)
	if !ok {
		return nil, false, store.ErrTaskNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next, changed := Reconcile(e.task, update, s.now())
	if changed {
		e.task = next
	}
	return e.task.Clone(), changed, nil
}

func (s *MemoryStore) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.tasks[id]
	return e, ok
}
