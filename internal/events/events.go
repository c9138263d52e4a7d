package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/montage-api/internal/domain"
)

// Event types emitted when a generation task reaches a terminal state.
const (
	TypeTaskCompleted = "video_task.completed"
	TypeTaskFailed    = "video_task.failed"
)

// TaskEvent announces that a generation task finished. It carries enough
// context for downstream consumers (for example the event datastore that
// attaches the video to its event) without depending on the task package.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is TypeTaskCompleted or TypeTaskFailed
	Type string `json:"type"`

	TaskID       string    `json:"task_id"`
	UserID       uuid.UUID `json:"user_id"`
	EventID      string    `json:"event_id,omitempty"`
	VideoURL     string    `json:"video_url,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskEvent builds the event for a terminal task. It returns false for
// tasks that are not terminal.
func NewTaskEvent(task *domain.GenerationTask) (*TaskEvent, bool) {
	var eventType string
	switch task.Status {
	case domain.TaskStatusCompleted:
		eventType = TypeTaskCompleted
	case domain.TaskStatusFailed:
		eventType = TypeTaskFailed
	default:
		return nil, false
	}

	return &TaskEvent{
		ID:           uuid.New(),
		Type:         eventType,
		TaskID:       task.ID,
		UserID:       task.UserID,
		EventID:      task.EventID,
		VideoURL:     task.VideoURL,
		ErrorMessage: task.ErrorMessage,
		CreatedAt:    time.Now().UTC(),
	}, true
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}
