package events

import (
	"context"
	"log/slog"
)

// LoggingHandler records terminal task events in the structured log.
type LoggingHandler struct {
	logger *slog.Logger
}

// NewLoggingHandler creates a LoggingHandler.
func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger.With("component", "task_event_log")}
}

// HandleEvent implements EventHandler.
func (h *LoggingHandler) HandleEvent(ctx context.Context, event *TaskEvent) error {
	attrs := []any{
		"event_id", event.ID,
		"event_type", event.Type,
		"task_id", event.TaskID,
		"user_id", event.UserID,
	}
	if event.EventID != "" {
		attrs = append(attrs, "source_event_id", event.EventID)
	}

	if event.Type == TypeTaskFailed {
		h.logger.WarnContext(ctx, "video task failed", append(attrs, "error_message", event.ErrorMessage)...)
		return nil
	}
	h.logger.InfoContext(ctx, "video task completed", append(attrs, "video_url", event.VideoURL)...)
	return nil
}
