package task

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/store"
)

func TestMemoryStore_CreateGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	task := pendingTask()
	require.NoError(t, s.Create(ctx, task))

	got, err := s.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, got)

	// Returned records are copies.
	got.Status = domain.TaskStatusFailed
	got.PhotoURLs[0] = "mutated"
	again, err := s.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, again.Status)
	assert.Equal(t, "a", again.PhotoURLs[0])

	err = s.Create(ctx, pendingTask())
	assert.True(t, errors.Is(err, store.ErrTaskExists))
	assert.True(t, store.IsDuplicateError(err))

	_, err = s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrTaskNotFound))

	invalid := pendingTask()
	invalid.ID = "bad"
	invalid.Progress = 120
	err = s.Create(ctx, invalid)
	assert.True(t, errors.Is(err, store.ErrInvalidEntity))
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestMemoryStore_Merge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, pendingTask()))

	_, _, err := s.Merge(ctx, "missing", Update{Status: domain.TaskStatusProcessing})
	assert.True(t, errors.Is(err, store.ErrTaskNotFound))

	got, changed, err := s.Merge(ctx, "task-1", Update{Status: domain.TaskStatusProcessing, Progress: 40})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.TaskStatusProcessing, got.Status)

	done := Update{Status: domain.TaskStatusCompleted, VideoURL: "https://cdn.example.com/v.mp4"}
	first, changed, err := s.Merge(ctx, "task-1", done)
	require.NoError(t, err)
	assert.True(t, changed)

	second, changed, err := s.Merge(ctx, "task-1", done)
	require.NoError(t, err)
	assert.False(t, changed, "merge must be idempotent")
	assert.Equal(t, first, second)

	third, changed, err := s.Merge(ctx, "task-1", Update{Status: domain.TaskStatusFailed, ErrorMessage: "late"})
	require.NoError(t, err)
	assert.False(t, changed, "terminal state is sticky")
	assert.Equal(t, first, third)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = s.Merge(cancelled, "task-1", done)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestMemoryStore_ConcurrentConvergence delivers the same set of updates in
// random order from many goroutines and checks that the outcome never depends
// on the interleaving. The store clock ticks once per merge under the record
// lock, so UpdatedAt orders the returned snapshots by apply order.
func TestMemoryStore_ConcurrentConvergence(t *testing.T) {
	t.Parallel()

	const rounds = 20

	for round := 0; round < rounds; round++ {
		ctx := context.Background()
		s := NewMemoryStore()
		initial := pendingTask()
		require.NoError(t, s.Create(ctx, initial))

		var ticks atomic.Int64
		s.now = func() time.Time {
			return initial.UpdatedAt.Add(time.Duration(ticks.Add(1)) * time.Second)
		}

		updates := []Update{
			{Status: domain.TaskStatusPending, Progress: 10},
			{Status: domain.TaskStatusProcessing, Progress: 20},
			{Status: domain.TaskStatusProcessing, Progress: 40},
			{Status: domain.TaskStatusProcessing, Progress: 73},
			{Status: domain.TaskStatusCompleted, VideoURL: "https://cdn.example.com/v.mp4"},
		}
		rnd := rand.New(rand.NewSource(int64(round)))
		rnd.Shuffle(len(updates), func(i, j int) { updates[i], updates[j] = updates[j], updates[i] })

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			observed []*domain.GenerationTask
		)
		for _, u := range updates {
			u := u
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, _, err := s.Merge(ctx, "task-1", u)
				if err != nil {
					panic(fmt.Sprintf("merge failed: %v", err))
				}
				mu.Lock()
				observed = append(observed, got)
				mu.Unlock()
			}()
		}
		wg.Wait()

		final, err := s.Get(ctx, "task-1")
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, final.Status, "round %d", round)
		assert.Equal(t, 100, final.Progress)
		assert.Equal(t, "https://cdn.example.com/v.mp4", final.VideoURL)

		require.Len(t, observed, len(updates))
		sort.SliceStable(observed, func(i, j int) bool {
			return observed[i].UpdatedAt.Before(observed[j].UpdatedAt)
		})
		for i, o := range observed {
			assert.NoError(t, o.Validate())
			if i == 0 {
				continue
			}
			prev := observed[i-1]
			assert.GreaterOrEqual(t, o.Status.Rank(), prev.Status.Rank(),
				"round %d: status went from %s to %s", round, prev.Status, o.Status)
			assert.GreaterOrEqual(t, o.Progress, prev.Progress,
				"round %d: progress went from %d to %d", round, prev.Progress, o.Progress)
			if prev.Status.IsTerminal() {
				assert.Equal(t, prev.Status, o.Status, "round %d: terminal status replaced", round)
			}
		}
	}
}

func TestMemoryStore_IndependentKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		task := pendingTask()
		task.ID = fmt.Sprintf("task-%d", i)
		require.NoError(t, s.Create(ctx, task))

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for p := 10; p <= 90; p += 10 {
				_, _, _ = s.Merge(ctx, id, Update{Status: domain.TaskStatusProcessing, Progress: p})
			}
		}(task.ID)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		got, err := s.Get(ctx, fmt.Sprintf("task-%d", i))
		require.NoError(t, err)
		assert.Equal(t, 90, got.Progress)
	}
}
