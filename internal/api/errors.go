package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/montage-api/internal/api/shared"
	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/service"
	"github.com/phrazzld/montage-api/internal/service/auth"
	"github.com/phrazzld/montage-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrAuth):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Provider rejections and failed status queries are upstream failures.
	case errors.Is(err, domain.ErrProvider),
		errors.Is(err, domain.ErrStatusQuery):
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Validation
// errors keep their field and constraint; everything else is generic.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return vErr.Error()

	case errors.Is(err, domain.ErrMissingSignature):
		return "Missing webhook signature"
	case errors.Is(err, domain.ErrInvalidSignature):
		return "Invalid webhook signature"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, domain.ErrAuth),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken):
		return "Unauthorized"

	case errors.Is(err, domain.ErrForbidden):
		return "Cannot submit on behalf of another user"
	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this task"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrTaskExists):
		return "Task already exists"

	case errors.Is(err, domain.ErrProvider):
		return "Failed to start video generation"
	case errors.Is(err, domain.ErrStatusQuery):
		return "Failed to check video status"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and safe message for err and logs
// the redacted details. A non-empty customMsg replaces the safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, customMsg string) {
	status := MapErrorToStatusCode(err)

	msg := customMsg
	if msg == "" {
		msg = GetSafeErrorMessage(err)
	}

	var opts []shared.ResponseOption
	if errors.Is(err, domain.ErrMissingSignature) || errors.Is(err, domain.ErrInvalidSignature) {
		opts = append(opts, shared.WithLogLevel(slog.LevelWarn))
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}
