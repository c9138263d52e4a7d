package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/montage-api/internal/api/shared"
	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/platform/logger"
	"github.com/phrazzld/montage-api/internal/service"
)

// VideoHandler serves the submission and status endpoints.
type VideoHandler struct {
	videoService service.VideoService
	logger       *slog.Logger
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(videoService service.VideoService, logger *slog.Logger) *VideoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VideoHandler{
		videoService: videoService,
		logger:       logger.With("component", "video_handler"),
	}
}

// GenerateVideo handles POST /api/videos/generate. It responds 202 once the
// provider has accepted the job.
func (h *VideoHandler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	caller, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	var body GenerateVideoRequest
	if err := shared.DecodeJSON(r, &body); err != nil {
		HandleAPIError(w, r, domain.NewValidationError("", "request body must be valid JSON", err), "Invalid request format")
		return
	}

	req, err := body.toSubmitRequest(caller)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			log.Warn("caller attempted to submit for another user", "requested_user_id", body.UserID)
		}
		HandleAPIError(w, r, err, "")
		return
	}

	created, err := h.videoService.Submit(r.Context(), req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, GenerateVideoResponse{
		TaskID:        created.ID,
		Status:        string(created.Status),
		Message:       submitAcceptedMessage,
		EstimatedTime: created.EstimatedTime,
	})
}

// GetVideoStatus handles GET /api/videos/status?taskId=.
func (h *VideoHandler) GetVideoStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "User ID not found or invalid")
		return
	}

	taskID := r.URL.Query().Get("taskId")
	if taskID == "" {
		HandleAPIError(w, r, domain.NewValidationError("taskId", "is required", domain.ErrValidation), "")
		return
	}

	current, err := h.videoService.CheckStatus(r.Context(), caller, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToStatusResponse(current))
}
