package veo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/phrazzld/montage-api/internal/config"
	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/generation"
)

// fakeVideoAPI records calls and returns configured results.
type fakeVideoAPI struct {
	mu sync.Mutex

	GenerateFn func(model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	GetFn      func(name string) (*genai.GenerateVideosOperation, error)

	GenerateCalls int
	GetCalls      int
}

func (f *fakeVideoAPI) GenerateVideos(
	ctx context.Context,
	model, prompt string,
	image *genai.Image,
	cfg *genai.GenerateVideosConfig,
) (*genai.GenerateVideosOperation, error) {
	f.mu.Lock()
	f.GenerateCalls++
	f.mu.Unlock()
	return f.GenerateFn(model, prompt, image, cfg)
}

func (f *fakeVideoAPI) GetVideosOperation(ctx context.Context, name string) (*genai.GenerateVideosOperation, error) {
	f.mu.Lock()
	f.GetCalls++
	f.mu.Unlock()
	return f.GetFn(name)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000000000000000")

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photo.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(pngHeader)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testProvider(api videoAPI, ratio string) *Provider {
	return newProvider(api, http.DefaultClient, config.ProviderConfig{
		Model: "veo-2.0-generate-001",
		Ratio: ratio,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProvider_Submit(t *testing.T) {
	t.Parallel()

	srv := imageServer(t)
	api := &fakeVideoAPI{
		GenerateFn: func(model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
			assert.Equal(t, "veo-2.0-generate-001", model)
			assert.Equal(t, "trendy prompt", prompt)
			require.NotNil(t, image)
			assert.Equal(t, pngHeader, image.ImageBytes)
			assert.Equal(t, "image/png", image.MIMEType)
			require.NotNil(t, cfg.DurationSeconds)
			assert.Equal(t, int32(10), *cfg.DurationSeconds)
			assert.Equal(t, "9:16", cfg.AspectRatio)
			return &genai.GenerateVideosOperation{Name: "models/veo/operations/abc123"}, nil
		},
	}

	id, err := testProvider(api, "768:1280").Submit(context.Background(), generation.SubmitRequest{
		PromptText:      "trendy prompt",
		SeedImageURL:    srv.URL + "/photo.png",
		DurationSeconds: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "models/veo/operations/abc123", id)
	assert.Equal(t, 1, api.GenerateCalls)
}

func TestProvider_Submit_Errors(t *testing.T) {
	t.Parallel()

	srv := imageServer(t)
	rejecting := &fakeVideoAPI{
		GenerateFn: func(string, string, *genai.Image, *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
			return nil, errors.New("INVALID_ARGUMENT: duration not supported")
		},
	}

	_, err := testProvider(rejecting, "").Submit(context.Background(), generation.SubmitRequest{
		SeedImageURL: srv.URL + "/missing.png", DurationSeconds: 5,
	})
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Equal(t, 0, rejecting.GenerateCalls, "no generation without a seed image")

	_, err = testProvider(rejecting, "").Submit(context.Background(), generation.SubmitRequest{
		SeedImageURL: srv.URL + "/photo.png", DurationSeconds: 5,
	})
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Equal(t, 1, rejecting.GenerateCalls)
}

func TestOperationToTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		op       *genai.GenerateVideosOperation
		status   string
		output   []string
		failure  string
		progress *float64
	}{
		{
			name:   "running",
			op:     &genai.GenerateVideosOperation{Name: "op"},
			status: generation.ProviderStatusRunning,
		},
		{
			name:     "running_with_progress",
			op:       &genai.GenerateVideosOperation{Name: "op", Metadata: map[string]any{"progressPercent": float64(40)}},
			status:   generation.ProviderStatusRunning,
			progress: func() *float64 { f := 0.4; return &f }(),
		},
		{
			name:    "error",
			op:      &genai.GenerateVideosOperation{Name: "op", Done: true, Error: map[string]any{"code": 3, "message": "unsafe content"}},
			status:  generation.ProviderStatusFailed,
			failure: "unsafe content",
		},
		{
			name: "filtered",
			op: &genai.GenerateVideosOperation{Name: "op", Done: true, Response: &genai.GenerateVideosResponse{
				RAIMediaFilteredReasons: []string{"filtered for safety"},
			}},
			status:  generation.ProviderStatusFailed,
			failure: "filtered for safety",
		},
		{
			name: "succeeded",
			op: &genai.GenerateVideosOperation{Name: "op", Done: true, Response: &genai.GenerateVideosResponse{
				GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: "https://generativelanguage.example.com/files/v1"}}},
			}},
			status: generation.ProviderStatusSucceeded,
			output: []string{"https://generativelanguage.example.com/files/v1"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			pt := operationToTask("op", tc.op)
			assert.Equal(t, tc.status, pt.Status)
			assert.Equal(t, tc.output, pt.Output)
			assert.Equal(t, tc.failure, pt.FailureReason)
			if tc.progress == nil {
				assert.Nil(t, pt.Progress)
			} else {
				require.NotNil(t, pt.Progress)
				assert.InDelta(t, *tc.progress, *pt.Progress, 1e-9)
			}

			// Every report must normalize cleanly.
			_, err := generation.Normalize(*pt)
			assert.NoError(t, err)
		})
	}
}

func TestProvider_GetTask(t *testing.T) {
	t.Parallel()

	api := &fakeVideoAPI{
		GetFn: func(name string) (*genai.GenerateVideosOperation, error) {
			if name == "broken" {
				return nil, errors.New("deadline exceeded")
			}
			return &genai.GenerateVideosOperation{Name: name}, nil
		},
	}
	p := testProvider(api, "")

	pt, err := p.GetTask(context.Background(), "op-1")
	require.NoError(t, err)
	assert.Equal(t, "op-1", pt.ID)
	assert.Equal(t, generation.ProviderStatusRunning, pt.Status)

	_, err = p.GetTask(context.Background(), "broken")
	assert.Error(t, err)
	assert.Equal(t, 2, api.GetCalls)
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, validateConfig(config.ProviderConfig{Model: "m", RequestTimeoutSeconds: 5}), generation.ErrInvalidConfig)
	assert.ErrorIs(t, validateConfig(config.ProviderConfig{APIKey: "k", RequestTimeoutSeconds: 5}), generation.ErrInvalidConfig)
	assert.ErrorIs(t, validateConfig(config.ProviderConfig{APIKey: "k", Model: "m"}), generation.ErrInvalidConfig)
	assert.NoError(t, validateConfig(config.ProviderConfig{APIKey: "k", Model: "m", RequestTimeoutSeconds: 5}))
	assert.Equal(t, "16:9", aspectRatio("1280:768"))
	assert.Equal(t, "9:16", aspectRatio("768:1280"))
	assert.Equal(t, "16:9", aspectRatio(""))
}
