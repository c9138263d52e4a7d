package veo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"

	"github.com/phrazzld/montage-api/internal/config"
	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/generation"
)

// maxSeedImageBytes bounds the seed photo download.
const maxSeedImageBytes = 20 << 20

// videoAPI is the subset of the genai client the provider needs.
type videoAPI interface {
	GenerateVideos(
		ctx context.Context,
		model, prompt string,
		image *genai.Image,
		cfg *genai.GenerateVideosConfig,
	) (*genai.GenerateVideosOperation, error)
	GetVideosOperation(ctx context.Context, name string) (*genai.GenerateVideosOperation, error)
}

// genaiVideoAPI adapts *genai.Client to videoAPI.
type genaiVideoAPI struct {
	client *genai.Client
}

func (a genaiVideoAPI) GenerateVideos(
	ctx context.Context,
	model, prompt string,
	image *genai.Image,
	cfg *genai.GenerateVideosConfig,
) (*genai.GenerateVideosOperation, error) {
	return a.client.Models.GenerateVideos(ctx, model, prompt, image, cfg)
}

func (a genaiVideoAPI) GetVideosOperation(ctx context.Context, name string) (*genai.GenerateVideosOperation, error) {
	return a.client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: name}, nil)
}

// Provider generates videos with Veo.
type Provider struct {
	api         videoAPI
	httpClient  *http.Client
	model       string
	aspectRatio string
	logger      *slog.Logger
}

var _ generation.Provider = (*Provider)(nil)

// NewProvider creates a Veo provider backed by the Gemini API.
func NewProvider(ctx context.Context, cfg config.ProviderConfig, logger *slog.Logger) (*Provider, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create genai client: %v", generation.ErrInvalidConfig, err)
	}

	return newProvider(genaiVideoAPI{client: client}, httpClient, cfg, logger), nil
}

func newProvider(api videoAPI, httpClient *http.Client, cfg config.ProviderConfig, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		api:         api,
		httpClient:  httpClient,
		model:       cfg.Model,
		aspectRatio: aspectRatio(cfg.Ratio),
		logger:      logger.With("component", "veo_provider", "model", cfg.Model),
	}
}

func validateConfig(cfg config.ProviderConfig) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("%w: api key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return fmt.Errorf("%w: model cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", generation.ErrInvalidConfig)
	}
	return nil
}

// aspectRatio maps a pixel ratio such as "1280:768" onto the ratios Veo accepts.
func aspectRatio(ratio string) string {
	var w, h int
	if _, err := fmt.Sscanf(ratio, "%d:%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return "16:9"
	}
	if h > w {
		return "9:16"
	}
	return "16:9"
}

// Submit downloads the seed photo and starts a generate-videos operation.
func (p *Provider) Submit(ctx context.Context, req generation.SubmitRequest) (string, error) {
	image, err := p.fetchSeedImage(ctx, req.SeedImageURL)
	if err != nil {
		return "", &domain.ProviderError{Operation: "submit", Message: "failed to fetch seed image", Err: err}
	}

	op, err := p.api.GenerateVideos(ctx, p.model, req.PromptText, image, &genai.GenerateVideosConfig{
		NumberOfVideos:  1,
		DurationSeconds: genai.Ptr[int32](int32(req.DurationSeconds)),
		AspectRatio:     p.aspectRatio,
	})
	if err != nil {
		p.logger.WarnContext(ctx, "veo rejected submission", "error", err)
		return "", &domain.ProviderError{Operation: "submit", Message: "generate videos failed", Err: err}
	}
	if op == nil || op.Name == "" {
		return "", &domain.ProviderError{
			Operation: "submit",
			Message:   "operation carried no name",
			Err:       generation.ErrInvalidResponse,
		}
	}

	p.logger.DebugContext(ctx, "veo operation started", "operation", op.Name)
	return op.Name, nil
}

// GetTask polls the operation and reports it in the provider status vocabulary.
func (p *Provider) GetTask(ctx context.Context, id string) (*generation.ProviderTask, error) {
	op, err := p.api.GetVideosOperation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get operation %s: %w", id, err)
	}
	return operationToTask(id, op), nil
}

func operationToTask(id string, op *genai.GenerateVideosOperation) *generation.ProviderTask {
	pt := &generation.ProviderTask{ID: id}

	switch {
	case op == nil || !op.Done:
		pt.Status = generation.ProviderStatusRunning
		if op != nil {
			pt.Progress = progressFromMetadata(op.Metadata)
		}
	case len(op.Error) > 0:
		pt.Status = generation.ProviderStatusFailed
		pt.FailureReason = errorMessage(op.Error)
	case op.Response == nil || len(op.Response.GeneratedVideos) == 0:
		pt.Status = generation.ProviderStatusFailed
		if op.Response != nil && len(op.Response.RAIMediaFilteredReasons) > 0 {
			pt.FailureReason = op.Response.RAIMediaFilteredReasons[0]
		}
	default:
		video := op.Response.GeneratedVideos[0].Video
		if video == nil || video.URI == "" {
			pt.Status = generation.ProviderStatusFailed
			pt.FailureReason = "generated video has no location"
			break
		}
		pt.Status = generation.ProviderStatusSucceeded
		pt.Output = []string{video.URI}
	}
	return pt
}

func progressFromMetadata(meta map[string]any) *float64 {
	v, ok := meta["progressPercent"]
	if !ok {
		return nil
	}
	var pct float64
	switch n := v.(type) {
	case float64:
		pct = n
	case int:
		pct = float64(n)
	case int32:
		pct = float64(n)
	case int64:
		pct = float64(n)
	default:
		return nil
	}
	f := pct / 100
	return &f
}

func errorMessage(e map[string]any) string {
	if msg, ok := e["message"].(string); ok && msg != "" {
		return msg
	}
	return ""
}

func (p *Provider) fetchSeedImage(ctx context.Context, imageURL string) (*genai.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("seed image request returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSeedImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxSeedImageBytes {
		return nil, fmt.Errorf("seed image exceeds %d bytes", maxSeedImageBytes)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	return &genai.Image{ImageBytes: data, MIMEType: mimeType}, nil
}
