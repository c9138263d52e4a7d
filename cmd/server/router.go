package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/phrazzld/montage-api/internal/api"
	apiMiddleware "github.com/phrazzld/montage-api/internal/api/middleware"
	"github.com/phrazzld/montage-api/internal/api/shared"
)

// requestTimeoutMargin is added to the provider timeout so a slow provider
// call surfaces as a provider error before the router gives up.
const requestTimeoutMargin = 5 * time.Second

// setupRouter builds the HTTP surface. The webhook route authenticates by
// signature; the video routes require a bearer token.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.CleanPath)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	videos := api.NewVideoHandler(app.videoService, app.logger)
	webhooks := api.NewWebhookHandler(
		app.videoService,
		app.verifier,
		app.config.Webhook.SignatureHeader,
		app.logger,
	)
	timeout := time.Duration(app.config.Provider.RequestTimeoutSeconds)*time.Second + requestTimeoutMargin

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		r.Post("/webhooks/video", webhooks.HandleVideoWebhook)

		r.Group(func(r chi.Router) {
			r.Use(apiMiddleware.RequireUser(app.jwtService))
			r.Post("/videos/generate", videos.GenerateVideo)
			r.Get("/videos/status", videos.GetVideoStatus)
		})
	})

	r.Get("/health", app.health)

	return otelhttp.NewHandler(r, "montage-api",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/health" }))
}

func (app *application) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		app.logger.Error("failed to write health check response", "error", err)
	}
}
