package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/montage-api/internal/config"
	"github.com/phrazzld/montage-api/internal/events"
	"github.com/phrazzld/montage-api/internal/generation"
	"github.com/phrazzld/montage-api/internal/platform/postgres"
	"github.com/phrazzld/montage-api/internal/platform/runway"
	"github.com/phrazzld/montage-api/internal/platform/telemetry"
	"github.com/phrazzld/montage-api/internal/platform/veo"
	"github.com/phrazzld/montage-api/internal/service"
	"github.com/phrazzld/montage-api/internal/service/auth"
	"github.com/phrazzld/montage-api/internal/task"
)

// application holds the wired dependencies of the server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	provider     generation.Provider
	taskStore    task.Store
	eventEmitter *events.InMemoryEventEmitter
	jwtService   auth.JWTService
	verifier     *generation.SignatureVerifier
	videoService service.VideoService

	shutdownTelemetry telemetry.ShutdownFunc
}

// newApplication wires every dependency from cfg. It connects to Postgres
// and applies migrations when database.url is set; otherwise tasks live in
// memory.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.shutdownTelemetry, err = telemetry.Init(ctx, cfg.Telemetry, version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.provider, err = newProvider(ctx, cfg.Provider, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize provider: %w", err)
	}
	logger.Info("video provider initialized",
		"provider", cfg.Provider.Name,
		"model", cfg.Provider.Model)

	if cfg.Database.URL != "" {
		app.db, err = openDatabase(ctx, cfg.Database.URL, logger)
		if err != nil {
			app.cleanup()
			return nil, err
		}
		if err := postgres.Migrate(ctx, app.db, "up", logger); err != nil {
			app.cleanup()
			return nil, err
		}
		app.taskStore = postgres.NewTaskStore(app.db)
		logger.Info("using postgres task store")
	} else {
		app.taskStore = task.NewMemoryStore()
		logger.Warn("database.url not set, task records are kept in memory only")
	}

	app.verifier = generation.NewSignatureVerifier(cfg.Webhook.Secret)
	if !app.verifier.Enforcing() {
		logger.Warn("webhook.secret not set, webhook signatures are checked for presence only")
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewLoggingHandler(logger))

	app.videoService, err = service.NewVideoService(app.provider, app.taskStore, app.eventEmitter, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create video service: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

func newProvider(ctx context.Context, cfg config.ProviderConfig, logger *slog.Logger) (generation.Provider, error) {
	switch cfg.Name {
	case "runway":
		c, err := runway.NewClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "veo":
		p, err := veo.NewProvider(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", generation.ErrInvalidConfig, cfg.Name)
	}
}

// Run serves HTTP until ctx is cancelled, then releases resources.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
		app.db = nil
	}
	if app.shutdownTelemetry != nil {
		if err := app.shutdownTelemetry(context.Background()); err != nil {
			app.logger.Error("error flushing telemetry", "error", err)
		}
		app.shutdownTelemetry = nil
	}
}
