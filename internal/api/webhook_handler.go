package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/phrazzld/montage-api/internal/api/shared"
	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/generation"
	"github.com/phrazzld/montage-api/internal/platform/logger"
	"github.com/phrazzld/montage-api/internal/service"
)

// DefaultSignatureHeader carries the webhook body signature unless configured otherwise.
const DefaultSignatureHeader = "X-Webhook-Signature"

// WebhookHandler accepts provider task notifications.
type WebhookHandler struct {
	videoService    service.VideoService
	verifier        *generation.SignatureVerifier
	signatureHeader string
	logger          *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler. An empty signatureHeader
// selects DefaultSignatureHeader.
func NewWebhookHandler(
	videoService service.VideoService,
	verifier *generation.SignatureVerifier,
	signatureHeader string,
	logger *slog.Logger,
) *WebhookHandler {
	if signatureHeader == "" {
		signatureHeader = DefaultSignatureHeader
	}
	if verifier == nil {
		verifier = generation.NewSignatureVerifier("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		videoService:    videoService,
		verifier:        verifier,
		signatureHeader: signatureHeader,
		logger:          logger.With("component", "webhook_handler"),
	}
}

// HandleVideoWebhook handles POST /api/webhooks/video. The signature is
// checked against the raw body before it is decoded. An accepted update is
// acknowledged even when the task was already terminal.
func (h *WebhookHandler) HandleVideoWebhook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	signature := r.Header.Get(h.signatureHeader)
	if signature == "" {
		HandleAPIError(w, r, domain.ErrMissingSignature, "")
		return
	}

	body, err := shared.ReadBody(w, r)
	if err != nil {
		HandleAPIError(w, r, domain.NewValidationError("", "request body could not be read", err), "Invalid request format")
		return
	}

	if err := h.verifier.Verify(signature, body); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var payload WebhookPayload
	if err := shared.DecodeJSONBytes(bytes.NewReader(body), &payload); err != nil {
		HandleAPIError(w, r, domain.NewValidationError("", "request body must be valid JSON", err), "Invalid request format")
		return
	}

	merged, changed, err := h.videoService.IngestWebhook(r.Context(), payload.toProviderTask())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("webhook accepted",
		"task_id", merged.ID,
		"provider_status", payload.Status,
		"status", merged.Status,
		"changed", changed)

	shared.RespondWithJSON(w, r, http.StatusOK, shared.SuccessResponse{Success: true})
}
