// Package client is a typed HTTP client for the montage API. Its Status
// method matches task.StatusFunc so a task.Poller can drive it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/phrazzld/montage-api/internal/domain"
)

const (
	generatePath = "/api/videos/generate"
	statusPath   = "/api/videos/status"

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
	TraceID    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.TraceID != "" {
		return fmt.Sprintf("api returned %d: %s (trace %s)", e.StatusCode, e.Message, e.TraceID)
	}
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the request might succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client calls the submission and status endpoints with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a Client for the API at baseURL.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SubmitRequest is the body of a generation request.
type SubmitRequest struct {
	PhotoURLs []string `json:"photoUrls"`
	Style     string   `json:"style"`
	Duration  int      `json:"duration"`
	EventID   string   `json:"eventId,omitempty"`
	UserID    string   `json:"userId,omitempty"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	TaskID        string `json:"taskId"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	EstimatedTime string `json:"estimatedTime"`
}

type statusResponse struct {
	TaskID   string `json:"taskId"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	VideoURL string `json:"videoUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id"`
}

// Submit starts a generation job.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var out SubmitResponse
	if err := c.do(ctx, http.MethodPost, generatePath, body, http.StatusAccepted, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches the current state of taskID. The result carries only the
// fields the status endpoint exposes.
func (c *Client) Status(ctx context.Context, taskID string) (*domain.GenerationTask, error) {
	var out statusResponse
	path := statusPath + "?" + url.Values{"taskId": {taskID}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}

	status := domain.TaskStatus(out.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, out.Status)
	}
	return &domain.GenerationTask{
		ID:           out.TaskID,
		Status:       status,
		Progress:     out.Progress,
		VideoURL:     out.VideoURL,
		ErrorMessage: out.Error,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, want int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e errorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&e); err == nil && e.Error != "" {
			apiErr.Message = e.Error
			apiErr.TraceID = e.TraceID
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
