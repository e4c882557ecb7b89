package jobs

import (
	"context"

	"github.com/musicjacker/backend/internal/models"
	"github.com/pkg/errors"
)

// ErrNotFound is the normal outcome for an unknown or expired job id; the
// HTTP layer maps it to 404, never 500.
var ErrNotFound = errors.New("jobs: job not found")

// Registry is the single source of truth for conversion job state. Put and
// Update are called only by the job's owning worker; pollers only Get.
type Registry interface {
	Put(ctx context.Context, job *models.ConvertJob) error
	Get(ctx context.Context, jobID string) (*models.ConvertJob, error)
	Update(ctx context.Context, jobID string, mutate func(*models.ConvertJob)) error
}

// applyMutation runs the mutator against a copy-owner record while holding
// the registry's invariants: terminal records are frozen, progress never
// decreases, and done always carries progress 100.
func applyMutation(job *models.ConvertJob, mutate func(*models.ConvertJob)) {
	if job.Status.Terminal() {
		return
	}
	prevProgress := job.Progress
	mutate(job)
	if job.Progress < prevProgress {
		job.Progress = prevProgress
	}
	if job.Progress > 100 {
		job.Progress = 100
	}
	if job.Status == models.JobStatusDone {
		job.Progress = 100
	}
}
