package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/montage-api/internal/api/shared"
	"github.com/phrazzld/montage-api/internal/platform/logger"
)

// TraceMiddleware stores a trace id in the request context and attaches a
// request-scoped logger carrying it. Mount it after the OpenTelemetry
// handler so the span's trace id is reused.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())

			log := base.With(slog.String("trace_id", shared.GetTraceID(ctx)))
			ctx = logger.WithLogger(ctx, log)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
