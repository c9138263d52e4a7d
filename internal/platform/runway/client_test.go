package runway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/montage-api/internal/config"
	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/generation"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.ProviderConfig{
		Name:                  "runway",
		APIKey:                "rw-test-key",
		BaseURL:               srv.URL,
		Model:                 "gen3a_turbo",
		APIVersion:            "2024-11-06",
		Ratio:                 "1280:768",
		RequestTimeoutSeconds: 5,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.ProviderConfig
	}{
		{"missing_key", config.ProviderConfig{Model: "m", BaseURL: "https://api.example.com"}},
		{"missing_model", config.ProviderConfig{APIKey: "k", BaseURL: "https://api.example.com"}},
		{"bad_base_url", config.ProviderConfig{APIKey: "k", Model: "m", BaseURL: "not a url"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewClient(tc.cfg, nil)
			assert.ErrorIs(t, err, generation.ErrInvalidConfig)
		})
	}
}

func TestClient_Submit(t *testing.T) {
	t.Parallel()

	var received submitBody
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, submitPath, r.URL.Path)
		assert.Equal(t, "Bearer rw-test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-11-06", r.Header.Get(versionHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"17f20503-6c24-4c16-946b-35dbbce2af2f"}`))
	})

	id, err := c.Submit(context.Background(), generation.SubmitRequest{
		PromptText:      "elegant prompt",
		SeedImageURL:    "https://s.example.com/1.jpg",
		DurationSeconds: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "17f20503-6c24-4c16-946b-35dbbce2af2f", id)
	assert.Equal(t, submitBody{
		Model:       "gen3a_turbo",
		PromptImage: "https://s.example.com/1.jpg",
		PromptText:  "elegant prompt",
		Duration:    10,
		Ratio:       "1280:768",
	}, received)
}

func TestClient_Submit_Rejected(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"promptImage is not a supported image"}`))
	})

	_, err := c.Submit(context.Background(), generation.SubmitRequest{SeedImageURL: "https://s.example.com/x.gif", DurationSeconds: 5})
	require.Error(t, err)

	var pErr *domain.ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, http.StatusBadRequest, pErr.StatusCode)
	assert.Equal(t, "promptImage is not a supported image", pErr.Message)
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestClient_Submit_MissingID(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.Submit(context.Background(), generation.SubmitRequest{DurationSeconds: 5})
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestClient_GetTask(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case taskPath + "running":
			_, _ = w.Write([]byte(`{"id":"running","status":"RUNNING","progress":0.73}`))
		case taskPath + "done":
			_, _ = w.Write([]byte(`{"id":"done","status":"SUCCEEDED","output":["https://cdn.example.com/v.mp4"]}`))
		case taskPath + "failed":
			_, _ = w.Write([]byte(`{"id":"failed","status":"FAILED","failureCode":"SAFETY.INPUT.IMAGE"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Task not found"}`))
		}
	})

	ctx := context.Background()

	running, err := c.GetTask(ctx, "running")
	require.NoError(t, err)
	assert.Equal(t, "RUNNING", running.Status)
	require.NotNil(t, running.Progress)
	assert.InDelta(t, 0.73, *running.Progress, 1e-9)

	done, err := c.GetTask(ctx, "done")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/v.mp4"}, done.Output)
	assert.Nil(t, done.Progress)

	failed, err := c.GetTask(ctx, "failed")
	require.NoError(t, err)
	assert.Equal(t, "SAFETY.INPUT.IMAGE", failed.FailureReason)

	_, err = c.GetTask(ctx, "gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "Task not found")
}
