package domain

import (
	"time"

	"github.com/google/uuid"
)

// Style selects the prompt template used for a video.
type Style string

// Supported video styles
const (
	StyleTrendy    Style = "trendy"
	StyleElegant   Style = "elegant"
	StyleEnergetic Style = "energetic"
)

// IsValid reports whether s is one of the supported styles.
func (s Style) IsValid() bool {
	switch s {
	case StyleTrendy, StyleElegant, StyleEnergetic:
		return true
	default:
		return false
	}
}

// TaskStatus is the internal, closed lifecycle state of a generation task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsValid reports whether s is one of the four known statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s is absorbing.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Rank orders the non-terminal lifecycle stages (pending < processing).
// Terminal statuses rank above both.
func (s TaskStatus) Rank() int {
	switch s {
	case TaskStatusPending:
		return 0
	case TaskStatusProcessing:
		return 1
	case TaskStatusCompleted, TaskStatusFailed:
		return 2
	default:
		return -1
	}
}

// Progress bounds and the synthetic value recorded for a freshly submitted task.
const (
	MinProgress     = 0
	MaxProgress     = 100
	PendingProgress = 10
)

// GenerationTask tracks one job at the external video provider.
type GenerationTask struct {
	ID              string     `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	EventID         string     `json:"event_id,omitempty"`
	PhotoURLs       []string   `json:"photo_urls"`
	Style           Style      `json:"style"`
	DurationSeconds int        `json:"duration_seconds"`
	Prompt          string     `json:"prompt"`
	Status          TaskStatus `json:"status"`
	Progress        int        `json:"progress"`
	VideoURL        string     `json:"video_url,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	EstimatedTime   string     `json:"estimated_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewGenerationTask creates the initial pending record for a task the
// provider accepted under providerID.
func NewGenerationTask(providerID string, req SubmitRequest, prompt string, now time.Time) (*GenerationTask, error) {
	if providerID == "" {
		return nil, NewValidationError("id", "is required", nil)
	}

	photos := make([]string, len(req.PhotoURLs))
	copy(photos, req.PhotoURLs)

	return &GenerationTask{
		ID:              providerID,
		UserID:          req.UserID,
		EventID:         req.EventID,
		PhotoURLs:       photos,
		Style:           req.Style,
		DurationSeconds: req.Duration,
		Prompt:          prompt,
		Status:          TaskStatusPending,
		Progress:        PendingProgress,
		EstimatedTime:   EstimateCompletion(req.Duration),
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}, nil
}

// Clone returns a deep copy of t.
func (t *GenerationTask) Clone() *GenerationTask {
	if t == nil {
		return nil
	}
	c := *t
	c.PhotoURLs = append([]string(nil), t.PhotoURLs...)
	return &c
}

// Validate checks the record invariants: known status, bounded progress, and
// result fields matching the terminal state.
func (t *GenerationTask) Validate() error {
	if t.ID == "" {
		return NewValidationError("id", "is required", nil)
	}
	if !t.Status.IsValid() {
		return NewValidationError("status", "is not a known status", ErrInvalidStatus)
	}
	if t.Progress < MinProgress || t.Progress > MaxProgress {
		return NewValidationError("progress", "must be between 0 and 100", nil)
	}
	if t.VideoURL != "" && t.Status != TaskStatusCompleted {
		return NewValidationError("video_url", "is only allowed on completed tasks", nil)
	}
	if t.ErrorMessage != "" && t.Status != TaskStatusFailed {
		return NewValidationError("error_message", "is only allowed on failed tasks", nil)
	}
	return nil
}

// EstimateCompletion returns the human-readable wait shown to the user after
// submission.
func EstimateCompletion(durationSeconds int) string {
	if durationSeconds >= 10 {
		return "4-5 minutes"
	}
	return "2-3 minutes"
}
