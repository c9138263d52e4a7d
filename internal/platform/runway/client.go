package runway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/phrazzld/montage-api/internal/config"
	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/generation"
)

const (
	submitPath = "/v1/image_to_video"
	taskPath   = "/v1/tasks/"

	versionHeader = "X-Runway-Version"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 4 << 10
)

// Client talks to the Runway API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiVersion string
	model      string
	ratio      string
	logger     *slog.Logger
}

var _ generation.Provider = (*Client)(nil)

// NewClient creates a Client from the provider configuration.
func NewClient(cfg config.ProviderConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model cannot be empty", generation.ErrInvalidConfig)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", generation.ErrInvalidConfig, cfg.BaseURL)
	}

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:    strings.TrimRight(base.String(), "/"),
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		model:      cfg.Model,
		ratio:      cfg.Ratio,
		logger:     logger.With("component", "runway_client"),
	}, nil
}

type submitBody struct {
	Model       string `json:"model"`
	PromptImage string `json:"promptImage"`
	PromptText  string `json:"promptText,omitempty"`
	Duration    int    `json:"duration"`
	Ratio       string `json:"ratio,omitempty"`
}

type submitResponse struct {
	ID string `json:"id"`
}

type taskResponse struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	Progress    *float64 `json:"progress,omitempty"`
	Output      []string `json:"output,omitempty"`
	Failure     string   `json:"failure,omitempty"`
	FailureCode string   `json:"failureCode,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Submit starts an image-to-video job.
func (c *Client) Submit(ctx context.Context, req generation.SubmitRequest) (string, error) {
	payload, err := json.Marshal(submitBody{
		Model:       c.model,
		PromptImage: req.SeedImageURL,
		PromptText:  req.PromptText,
		Duration:    req.DurationSeconds,
		Ratio:       c.ratio,
	})
	if err != nil {
		return "", &domain.ProviderError{Operation: "submit", Message: "failed to encode request", Err: err}
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+submitPath, payload)
	if err != nil {
		return "", &domain.ProviderError{Operation: "submit", Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readErrorMessage(resp.Body)
		c.logger.WarnContext(ctx, "provider rejected submission",
			"status_code", resp.StatusCode,
			"message", msg)
		return "", &domain.ProviderError{Operation: "submit", StatusCode: resp.StatusCode, Message: msg}
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &domain.ProviderError{
			Operation: "submit",
			Message:   "malformed response",
			Err:       fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err),
		}
	}
	if out.ID == "" {
		return "", &domain.ProviderError{
			Operation: "submit",
			Message:   "response carried no task id",
			Err:       generation.ErrInvalidResponse,
		}
	}

	c.logger.DebugContext(ctx, "provider accepted submission", "task_id", out.ID)
	return out.ID, nil
}

// GetTask fetches the provider's view of task id.
func (c *Client) GetTask(ctx context.Context, id string) (*generation.ProviderTask, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+taskPath+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("task request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("task request returned status %d: %s",
			resp.StatusCode, readErrorMessage(resp.Body))
	}

	var out taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}
	if out.ID == "" {
		out.ID = id
	}

	failure := out.Failure
	if failure == "" && out.FailureCode != "" {
		failure = out.FailureCode
	}

	return &generation.ProviderTask{
		ID:            out.ID,
		Status:        out.Status,
		Progress:      out.Progress,
		Output:        out.Output,
		FailureReason: failure,
	}, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiVersion != "" {
		req.Header.Set(versionHeader, c.apiVersion)
	}

	return c.httpClient.Do(req)
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Error != "" {
		return er.Error
	}
	return strings.TrimSpace(string(raw))
}
