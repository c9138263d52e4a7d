package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/montage-api/internal/api/shared"
	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/platform/logger"
	"github.com/phrazzld/montage-api/internal/service/auth"
)

// bearerToken extracts the token from an Authorization header. The scheme
// is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// RequireUser rejects requests without a valid identity token and stores
// the caller's user id in the request context. The request logger gains a
// user_id attribute.
func RequireUser(tokens auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}
			token, ok := bearerToken(header)
			if !ok {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
				return
			}

			claims, err := tokens.ValidateToken(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
				return
			case errors.Is(err, domain.ErrUnauthorized):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
				return
			default:
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
				return
			}

			ctx := shared.WithUserID(r.Context(), claims.UserID)
			ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With("user_id", claims.UserID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
