package task

import (
	"time"

	"github.com/phrazzld/montage-api/internal/domain"
)

// Reconcile computes the record that results from applying update to current.
// It never mutates current. When the update carries nothing new, the returned
// record is current itself and changed is false.
//
// Rules, in order: a terminal record absorbs every update; a terminal update
// is adopted wholesale; otherwise status may only move forward and progress
// may only grow.
func Reconcile(current *domain.GenerationTask, update Update, now time.Time) (*domain.GenerationTask, bool) {
	if current.Status.IsTerminal() || !update.Status.IsValid() {
		return current, false
	}

	next := current.Clone()

	switch update.Status {
	case domain.TaskStatusCompleted:
		next.Status = domain.TaskStatusCompleted
		next.Progress = domain.MaxProgress
		next.VideoURL = update.VideoURL
		next.ErrorMessage = ""
	case domain.TaskStatusFailed:
		next.Status = domain.TaskStatusFailed
		next.Progress = domain.MinProgress
		next.ErrorMessage = update.ErrorMessage
		next.VideoURL = ""
	default:
		if update.Status.Rank() >= current.Status.Rank() {
			next.Status = update.Status
		}
		if p := clampProgress(update.Progress); p >= current.Progress {
			next.Progress = p
		}
	}

	if sameState(current, next) {
		return current, false
	}
	next.UpdatedAt = now.UTC()
	return next, true
}

func sameState(a, b *domain.GenerationTask) bool {
	return a.Status == b.Status &&
		a.Progress == b.Progress &&
		a.VideoURL == b.VideoURL &&
		a.ErrorMessage == b.ErrorMessage
}

func clampProgress(p int) int {
	if p < domain.MinProgress {
		return domain.MinProgress
	}
	if p > domain.MaxProgress {
		return domain.MaxProgress
	}
	return p
}
