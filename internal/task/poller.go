package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/montage-api/internal/domain"
)

// ErrPollTimeout is returned by Poller.Run when the task did not reach a
// terminal state within MaxLifetime. The task itself is not touched.
var ErrPollTimeout = errors.New("polling timed out before the task finished")

// StatusFunc fetches the current record for a task, typically through the
// status endpoint.
type StatusFunc func(ctx context.Context, id string) (*domain.GenerationTask, error)

// PollerConfig holds the timing of a Poller.
type PollerConfig struct {
	// InitialDelay is the wait before the first status query.
	InitialDelay time.Duration

	// Interval is the wait between queries while the task is in flight.
	Interval time.Duration

	// ErrorBackoff is the wait after a failed query.
	ErrorBackoff time.Duration

	// MaxLifetime bounds the whole polling session.
	MaxLifetime time.Duration
}

// DefaultPollerConfig returns a PollerConfig with reasonable defaults
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		InitialDelay: 2 * time.Second,
		Interval:     2 * time.Second,
		ErrorBackoff: 5 * time.Second,
		MaxLifetime:  10 * time.Minute,
	}
}

func (c PollerConfig) withDefaults() PollerConfig {
	d := DefaultPollerConfig()
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = d.ErrorBackoff
	}
	if c.MaxLifetime <= 0 {
		c.MaxLifetime = d.MaxLifetime
	}
	return c
}

// PollState is the poller's local view of one task.
type PollState struct {
	Task           *domain.GenerationTask
	Attempts       int
	FailedAttempts int
	LastError      error
}

// Poller drives a single task to a terminal state by repeatedly querying
// its status. Its local mirror is folded with Reconcile, so an older
// response can never move it backwards.
type Poller struct {
	id       string
	status   StatusFunc
	config   PollerConfig
	logger   *slog.Logger
	onUpdate func(PollState)

	mu    sync.Mutex
	state PollState
}

// NewPoller creates a Poller for task id.
func NewPoller(id string, status StatusFunc, config PollerConfig, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		id:     id,
		status: status,
		config: config.withDefaults(),
		logger: logger.With("component", "poller", "task_id", id),
		state: PollState{
			Task: &domain.GenerationTask{ID: id, Status: domain.TaskStatusPending},
		},
	}
}

// SetUpdateHandler registers a callback invoked with a snapshot after every
// query, successful or not. It must be set before Run.
func (p *Poller) SetUpdateHandler(handler func(PollState)) {
	p.onUpdate = handler
}

// Snapshot returns a copy of the current local state.
func (p *Poller) Snapshot() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Poller) snapshotLocked() PollState {
	s := p.state
	s.Task = p.state.Task.Clone()
	return s
}

// Run polls until the task is terminal, MaxLifetime elapses, or ctx is done.
// It returns the last known task together with ErrPollTimeout or ctx.Err()
// when it stops early.
func (p *Poller) Run(ctx context.Context) (*domain.GenerationTask, error) {
	deadline := time.NewTimer(p.config.MaxLifetime)
	defer deadline.Stop()

	wait := p.config.InitialDelay
	for {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return p.Snapshot().Task, ctx.Err()
		case <-deadline.C:
			timer.Stop()
			p.logger.Warn("polling timed out", "max_lifetime", p.config.MaxLifetime)
			return p.Snapshot().Task, ErrPollTimeout
		case <-timer.C:
		}

		result, err := p.status(ctx, p.id)
		if err != nil {
			if ctx.Err() != nil {
				return p.Snapshot().Task, ctx.Err()
			}
			p.logger.Debug("status query failed, backing off",
				"error", err,
				"backoff", p.config.ErrorBackoff)
			p.notify(p.recordFailure(err))
			wait = p.config.ErrorBackoff
			continue
		}

		snap := p.apply(result)
		p.notify(snap)
		if snap.Task.Status.IsTerminal() {
			return snap.Task, nil
		}
		wait = p.config.Interval
	}
}

func (p *Poller) apply(result *domain.GenerationTask) PollState {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.Attempts++
	p.state.LastError = nil
	if result != nil {
		next, _ := Reconcile(p.state.Task, Update{
			Status:       result.Status,
			Progress:     result.Progress,
			VideoURL:     result.VideoURL,
			ErrorMessage: result.ErrorMessage,
		}, time.Now())
		p.state.Task = next
	}
	return p.snapshotLocked()
}

func (p *Poller) recordFailure(err error) PollState {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.Attempts++
	p.state.FailedAttempts++
	p.state.LastError = err
	return p.snapshotLocked()
}

func (p *Poller) notify(s PollState) {
	if p.onUpdate != nil {
		p.onUpdate(s)
	}
}
