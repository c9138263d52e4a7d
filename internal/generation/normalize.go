package generation

import (
	"fmt"
	"math"

	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/task"
)

// Messages recorded on failed tasks when the provider gives no reason.
const (
	DefaultFailureMessage   = "Video generation failed"
	CancelledFailureMessage = "Video generation was cancelled"
)

// processingProgressFallback is reported for RUNNING tasks without a progress fraction.
const processingProgressFallback = 50

// Normalize maps a provider report onto the internal status vocabulary.
// Unrecognized provider statuses fail with ErrUnknownStatus.
func Normalize(pt ProviderTask) (task.Update, error) {
	switch pt.Status {
	case ProviderStatusPending, ProviderStatusThrottled:
		return task.Update{Status: domain.TaskStatusPending, Progress: domain.PendingProgress}, nil

	case ProviderStatusRunning:
		progress := processingProgressFallback
		if pt.Progress != nil {
			progress = fractionToPercent(*pt.Progress)
		}
		return task.Update{Status: domain.TaskStatusProcessing, Progress: progress}, nil

	case ProviderStatusSucceeded:
		// A success without output still completes the task; the video URL stays empty.
		u := task.Update{Status: domain.TaskStatusCompleted, Progress: domain.MaxProgress}
		if len(pt.Output) > 0 {
			u.VideoURL = pt.Output[0]
		}
		return u, nil

	case ProviderStatusFailed:
		msg := pt.FailureReason
		if msg == "" {
			msg = DefaultFailureMessage
		}
		return task.Update{Status: domain.TaskStatusFailed, Progress: domain.MinProgress, ErrorMessage: msg}, nil

	case ProviderStatusCancelled:
		return task.Update{
			Status:       domain.TaskStatusFailed,
			Progress:     domain.MinProgress,
			ErrorMessage: CancelledFailureMessage,
		}, nil

	default:
		return task.Update{}, fmt.Errorf("%w: %q", ErrUnknownStatus, pt.Status)
	}
}

func fractionToPercent(f float64) int {
	if math.IsNaN(f) {
		return processingProgressFallback
	}
	p := int(math.Round(f * 100))
	if p < domain.MinProgress {
		return domain.MinProgress
	}
	if p > domain.MaxProgress {
		return domain.MaxProgress
	}
	return p
}
