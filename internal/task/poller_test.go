package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/montage-api/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig() PollerConfig {
	return PollerConfig{
		InitialDelay: time.Millisecond,
		Interval:     time.Millisecond,
		ErrorBackoff: 2 * time.Millisecond,
		MaxLifetime:  2 * time.Second,
	}
}

// scriptedStatus replays a fixed sequence of responses and counts calls.
type scriptedStatus struct {
	mu        sync.Mutex
	responses []statusResponse
	calls     int
}

type statusResponse struct {
	task *domain.GenerationTask
	err  error
}

func (s *scriptedStatus) fetch(ctx context.Context, id string) (*domain.GenerationTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	r := s.responses[i]
	return r.task.Clone(), r.err
}

func (s *scriptedStatus) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func remote(status domain.TaskStatus, progress int) *domain.GenerationTask {
	t := &domain.GenerationTask{ID: "task-1", Status: status, Progress: progress}
	switch status {
	case domain.TaskStatusCompleted:
		t.VideoURL = "https://cdn.example.com/v.mp4"
	case domain.TaskStatusFailed:
		t.ErrorMessage = "Video generation failed"
	}
	return t
}

func TestPoller_RunsToCompletion(t *testing.T) {
	t.Parallel()

	script := &scriptedStatus{responses: []statusResponse{
		{task: remote(domain.TaskStatusPending, 10)},
		{task: remote(domain.TaskStatusProcessing, 40)},
		{err: errors.New("connection reset")},
		{task: remote(domain.TaskStatusProcessing, 30)}, // stale, must not regress
		{task: remote(domain.TaskStatusCompleted, 100)},
	}}

	p := NewPoller("task-1", script.fetch, fastConfig(), quietLogger())

	var (
		mu       sync.Mutex
		progress []int
		failures int
	)
	p.SetUpdateHandler(func(s PollState) {
		mu.Lock()
		defer mu.Unlock()
		progress = append(progress, s.Task.Progress)
		failures = s.FailedAttempts
	})

	final, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, final.Status)
	assert.Equal(t, "https://cdn.example.com/v.mp4", final.VideoURL)
	assert.Equal(t, 5, script.callCount())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{10, 40, 40, 40, 100}, progress)
	assert.Equal(t, 1, failures)

	snap := p.Snapshot()
	assert.Equal(t, 5, snap.Attempts)
	assert.Equal(t, 1, snap.FailedAttempts)
	assert.NoError(t, snap.LastError)
}

func TestPoller_StopsOnFailure(t *testing.T) {
	t.Parallel()

	script := &scriptedStatus{responses: []statusResponse{
		{task: remote(domain.TaskStatusProcessing, 60)},
		{task: remote(domain.TaskStatusFailed, 0)},
	}}

	final, err := NewPoller("task-1", script.fetch, fastConfig(), quietLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, final.Status)
	assert.Equal(t, "Video generation failed", final.ErrorMessage)
	assert.Equal(t, 2, script.callCount())
}

func TestPoller_Timeout(t *testing.T) {
	t.Parallel()

	script := &scriptedStatus{responses: []statusResponse{
		{task: remote(domain.TaskStatusProcessing, 20)},
	}}
	cfg := fastConfig()
	cfg.MaxLifetime = 30 * time.Millisecond

	final, err := NewPoller("task-1", script.fetch, cfg, quietLogger()).Run(context.Background())
	assert.ErrorIs(t, err, ErrPollTimeout)
	require.NotNil(t, final)
	assert.Equal(t, domain.TaskStatusProcessing, final.Status)
	assert.Greater(t, script.callCount(), 1)
}

func TestPoller_Cancel(t *testing.T) {
	t.Parallel()

	script := &scriptedStatus{responses: []statusResponse{
		{err: errors.New("provider unavailable")},
	}}
	ctx, cancel := context.WithCancel(context.Background())

	p := NewPoller("task-1", script.fetch, fastConfig(), quietLogger())
	p.SetUpdateHandler(func(s PollState) {
		if s.FailedAttempts == 3 {
			cancel()
		}
	})

	_, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, p.Snapshot().FailedAttempts, 3)
	assert.Error(t, p.Snapshot().LastError)
}

func TestPoller_ErrorBackoff(t *testing.T) {
	t.Parallel()

	script := &scriptedStatus{responses: []statusResponse{
		{err: errors.New("timeout")},
		{task: remote(domain.TaskStatusCompleted, 100)},
	}}
	cfg := fastConfig()
	cfg.ErrorBackoff = 40 * time.Millisecond

	start := time.Now()
	_, err := NewPoller("task-1", script.fetch, cfg, quietLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestPollerConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := PollerConfig{}.withDefaults()
	assert.Equal(t, time.Duration(0), cfg.InitialDelay)
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, 5*time.Second, cfg.ErrorBackoff)
	assert.Equal(t, 10*time.Minute, cfg.MaxLifetime)
	assert.Equal(t, 2*time.Second, DefaultPollerConfig().InitialDelay)
}
