package generation

import (
	"context"
)

// Provider defines the interface for the external video generation service.
// This interface serves as a boundary between the application core and the
// provider's API, following the hexagonal architecture pattern.
type Provider interface {
	// Submit starts a generation job and returns the provider-issued task id.
	// A rejected submission returns a *domain.ProviderError.
	Submit(ctx context.Context, req SubmitRequest) (string, error)

	// GetTask fetches the provider's current view of a task. The status in
	// the result is the provider's raw vocabulary and must go through
	// Normalize before it is used.
	GetTask(ctx context.Context, id string) (*ProviderTask, error)
}

// SubmitRequest is the provider-neutral description of one generation job.
type SubmitRequest struct {
	PromptText      string
	SeedImageURL    string
	DurationSeconds int
}

// Provider status vocabulary.
const (
	ProviderStatusPending   = "PENDING"
	ProviderStatusThrottled = "THROTTLED"
	ProviderStatusRunning   = "RUNNING"
	ProviderStatusSucceeded = "SUCCEEDED"
	ProviderStatusFailed    = "FAILED"
	ProviderStatusCancelled = "CANCELLED"
)

// ProviderTask is a provider's report on a task, either polled or pushed by webhook.
type ProviderTask struct {
	ID     string
	Status string
	// Progress is a fraction in [0,1]; nil when the provider did not report one.
	Progress      *float64
	Output        []string
	FailureReason string
}
