package api

import (
	"github.com/google/uuid"

	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/generation"
)

// GenerateVideoRequest is the body of POST /api/videos/generate. Field
// checks happen in domain.ValidateSubmission so every caller shares them.
type GenerateVideoRequest struct {
	PhotoURLs []string `json:"photoUrls"`
	Style     string   `json:"style"`
	Duration  int      `json:"duration"`
	EventID   string   `json:"eventId,omitempty"`
	UserID    string   `json:"userId,omitempty"`
}

// GenerateVideoResponse acknowledges an accepted submission.
type GenerateVideoResponse struct {
	TaskID        string `json:"taskId"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	EstimatedTime string `json:"estimatedTime"`
}

// VideoStatusResponse is the body of GET /api/videos/status.
type VideoStatusResponse struct {
	TaskID   string `json:"taskId"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	VideoURL string `json:"videoUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

// WebhookPayload is the provider's task notification.
type WebhookPayload struct {
	ID            string   `json:"id"`
	Status        string   `json:"status"`
	Progress      *float64 `json:"progress,omitempty"`
	Output        []string `json:"output,omitempty"`
	FailureReason string   `json:"failure_reason,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
}

const submitAcceptedMessage = "Video generation started"

func (p WebhookPayload) toProviderTask() generation.ProviderTask {
	return generation.ProviderTask{
		ID:            p.ID,
		Status:        p.Status,
		Progress:      p.Progress,
		Output:        p.Output,
		FailureReason: p.FailureReason,
	}
}

// toSubmitRequest resolves the submitting user against the authenticated
// caller. An empty userId means the caller; any other value must match.
func (r GenerateVideoRequest) toSubmitRequest(caller uuid.UUID) (domain.SubmitRequest, error) {
	userID := caller
	if r.UserID != "" {
		parsed, err := uuid.Parse(r.UserID)
		if err != nil {
			return domain.SubmitRequest{}, domain.NewValidationError("userId", "must be a UUID", domain.ErrValidation)
		}
		if parsed != caller {
			return domain.SubmitRequest{}, domain.ErrForbidden
		}
		userID = parsed
	}

	return domain.SubmitRequest{
		PhotoURLs: r.PhotoURLs,
		Style:     domain.Style(r.Style),
		Duration:  r.Duration,
		EventID:   r.EventID,
		UserID:    userID,
	}, nil
}

func taskToStatusResponse(t *domain.GenerationTask) VideoStatusResponse {
	return VideoStatusResponse{
		TaskID:   t.ID,
		Status:   string(t.Status),
		Progress: t.Progress,
		VideoURL: t.VideoURL,
		Error:    t.ErrorMessage,
	}
}
