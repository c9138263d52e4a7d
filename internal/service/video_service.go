package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/events"
	"github.com/phrazzld/montage-api/internal/generation"
	"github.com/phrazzld/montage-api/internal/platform/logger"
	"github.com/phrazzld/montage-api/internal/task"
)

const tracerName = "github.com/phrazzld/montage-api/internal/service"

// VideoService provides video generation operations
type VideoService interface {
	// Submit validates req, starts a provider job and records it as pending.
	// Nothing is sent to the provider when validation fails, and nothing is
	// stored when the provider rejects the job.
	Submit(ctx context.Context, req domain.SubmitRequest) (*domain.GenerationTask, error)

	// CheckStatus polls the provider for taskID on behalf of userID, merges the
	// result and returns the stored record.
	CheckStatus(ctx context.Context, userID uuid.UUID, taskID string) (*domain.GenerationTask, error)

	// IngestWebhook merges a provider push notification. The boolean reports
	// whether the stored record changed.
	IngestWebhook(ctx context.Context, report generation.ProviderTask) (*domain.GenerationTask, bool, error)
}

// Option configures a VideoService.
type Option func(*videoServiceImpl)

// WithTracerProvider sets the tracer provider used for service spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *videoServiceImpl) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// WithClock overrides the time source used for new records.
func WithClock(now func() time.Time) Option {
	return func(s *videoServiceImpl) {
		s.now = now
	}
}

// videoServiceImpl implements the VideoService interface
type videoServiceImpl struct {
	provider     generation.Provider
	store        task.Store
	eventEmitter events.EventEmitter
	logger       *slog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewVideoService creates a new VideoService.
// It returns an error if any of the required dependencies are nil.
func NewVideoService(
	provider generation.Provider,
	store task.Store,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) (VideoService, error) {
	if provider == nil {
		return nil, &VideoServiceError{Operation: "create_service", Message: "provider cannot be nil"}
	}
	if store == nil {
		return nil, &VideoServiceError{Operation: "create_service", Message: "store cannot be nil"}
	}
	if eventEmitter == nil {
		return nil, &VideoServiceError{Operation: "create_service", Message: "eventEmitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &videoServiceImpl{
		provider:     provider,
		store:        store,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "video_service"),
		tracer:       otel.Tracer(tracerName),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit implements VideoService.
func (s *videoServiceImpl) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.GenerationTask, error) {
	ctx, span := s.tracer.Start(ctx, "video.submit", trace.WithAttributes(
		attribute.String("video.style", string(req.Style)),
		attribute.Int("video.duration_seconds", req.Duration),
		attribute.Int("video.photo_count", len(req.PhotoURLs)),
	))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateSubmission(req); err != nil {
		log.Debug("submission rejected", "error", err)
		return nil, recordError(span, err)
	}

	prompt, err := generation.BuildPrompt(req.Style, req.Duration, len(req.PhotoURLs))
	if err != nil {
		return nil, recordError(span, &VideoServiceError{Operation: "submit", Message: "failed to build prompt", Err: err})
	}

	taskID, err := s.provider.Submit(ctx, generation.SubmitRequest{
		PromptText:      prompt,
		SeedImageURL:    req.PhotoURLs[0],
		DurationSeconds: req.Duration,
	})
	if err != nil {
		var pErr *domain.ProviderError
		if !errors.As(err, &pErr) {
			err = &domain.ProviderError{Operation: "submit", Err: err}
		}
		log.Warn("provider rejected submission", "error", err)
		return nil, recordError(span, err)
	}
	span.SetAttributes(attribute.String("task.id", taskID))

	t, err := domain.NewGenerationTask(taskID, req, prompt, s.now())
	if err != nil {
		return nil, recordError(span, &domain.ProviderError{Operation: "submit", Message: "provider returned an empty task id", Err: err})
	}

	if err := s.store.Create(ctx, t); err != nil {
		log.Error("provider accepted task but it could not be stored",
			"task_id", taskID,
			"error", err)
		return nil, recordError(span, &VideoServiceError{Operation: "submit", Message: "failed to store task", Err: err})
	}

	log.Info("video generation submitted",
		"task_id", t.ID,
		"user_id", t.UserID,
		"style", t.Style,
		"duration_seconds", t.DurationSeconds,
		"photo_count", len(t.PhotoURLs))
	return t, nil
}

// CheckStatus implements VideoService.
func (s *videoServiceImpl) CheckStatus(
	ctx context.Context,
	userID uuid.UUID,
	taskID string,
) (*domain.GenerationTask, error) {
	ctx, span := s.tracer.Start(ctx, "video.check_status", trace.WithAttributes(
		attribute.String("task.id", taskID),
	))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, s.logger).With("task_id", taskID)

	current, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, recordError(span, err)
	}
	if current.UserID != uuid.Nil && current.UserID != userID {
		return nil, recordError(span, ErrNotOwned)
	}
	if current.Status.IsTerminal() {
		// Terminal records never change; skip the provider round trip.
		return current, nil
	}

	report, err := s.provider.GetTask(ctx, taskID)
	if err != nil {
		log.Warn("provider status query failed", "error", err)
		return nil, recordError(span, &domain.StatusQueryError{TaskID: taskID, Err: err})
	}

	update, err := generation.Normalize(*report)
	if err != nil {
		log.Warn("provider returned an unusable status",
			"provider_status", report.Status,
			"error", err)
		return nil, recordError(span, &domain.StatusQueryError{TaskID: taskID, Err: err})
	}

	merged, _, err := s.merge(ctx, span, taskID, update)
	if err != nil {
		return nil, recordError(span, err)
	}
	return merged, nil
}

// IngestWebhook implements VideoService.
func (s *videoServiceImpl) IngestWebhook(
	ctx context.Context,
	report generation.ProviderTask,
) (*domain.GenerationTask, bool, error) {
	ctx, span := s.tracer.Start(ctx, "video.ingest_webhook", trace.WithAttributes(
		attribute.String("task.id", report.ID),
		attribute.String("provider.status", report.Status),
	))
	defer span.End()

	if report.ID == "" {
		return nil, false, recordError(span, domain.NewValidationError("id", "is required", domain.ErrValidation))
	}
	if report.Status == "" {
		return nil, false, recordError(span, domain.NewValidationError("status", "is required", domain.ErrValidation))
	}

	update, err := generation.Normalize(report)
	if err != nil {
		return nil, false, recordError(span, domain.NewValidationError("", err.Error(), err))
	}

	merged, changed, err := s.merge(ctx, span, report.ID, update)
	if err != nil {
		return nil, false, recordError(span, err)
	}
	return merged, changed, nil
}

// merge writes update through the store and emits a terminal event when the
// record has just become terminal.
func (s *videoServiceImpl) merge(
	ctx context.Context,
	span trace.Span,
	taskID string,
	update task.Update,
) (*domain.GenerationTask, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("task_id", taskID)

	merged, changed, err := s.store.Merge(ctx, taskID, update)
	if err != nil {
		return nil, false, err
	}
	span.AddEvent("task.merge", trace.WithAttributes(
		attribute.Bool("changed", changed),
		attribute.String("task.status", string(merged.Status)),
		attribute.Int("task.progress", merged.Progress),
	))

	if !changed {
		log.Debug("update discarded", "incoming_status", update.Status, "stored_status", merged.Status)
		return merged, false, nil
	}

	log.Info("task updated",
		"status", merged.Status,
		"progress", merged.Progress)

	if event, ok := events.NewTaskEvent(merged); ok {
		if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
			log.Error("failed to emit task event",
				"event_type", event.Type,
				"error", err)
		}
	}
	return merged, true, nil
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
