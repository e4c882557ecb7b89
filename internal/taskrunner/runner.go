package taskrunner

import (
	"context"
	"time"

	"github.com/musicjacker/backend/internal/jobs"
	"github.com/musicjacker/backend/internal/media"
	"github.com/musicjacker/backend/internal/models"
	"github.com/musicjacker/backend/pkg/logger"
	"github.com/pkg/errors"
)

// Runner schedules one transcode unit of work. Which implementation backs
// it (distributed queue or local pool) is decided once at process startup.
type Runner interface {
	Submit(ctx context.Context, job *models.ConvertJob, spec models.TranscodeSpec) error
}

// Executor runs one transcode against the registry's state machine. Both
// the local pool and the queue worker drive their jobs through it, so the
// status/progress semantics cannot drift between the two paths.
type Executor struct {
	transcoder media.Transcoder
	registry   jobs.Registry
	logger     logger.Logger
}

func NewExecutor(transcoder media.Transcoder, registry jobs.Registry, log logger.Logger) *Executor {
	return &Executor{transcoder: transcoder, registry: registry, logger: log}
}

// Execute takes the job from queued to a terminal state. The flip to done
// carries progress 100 in the same registry update.
func (e *Executor) Execute(ctx context.Context, job *models.ConvertJob, spec models.TranscodeSpec) error {
	err := e.Run(ctx, job, spec)
	if err != nil {
		e.MarkFailed(ctx, job.JobID, err)
	}
	return err
}

// Run performs one transcode attempt without deciding the job's fate on
// failure. Callers that retry keep the job in processing between attempts
// and call MarkFailed once they give up.
func (e *Executor) Run(ctx context.Context, job *models.ConvertJob, spec models.TranscodeSpec) error {
	if err := e.registry.Update(ctx, job.JobID, func(j *models.ConvertJob) {
		j.Status = models.JobStatusProcessing
		j.StartedAt = time.Now()
	}); err != nil {
		return err
	}

	runCtx := ctx
	if spec.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(spec.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	err := e.transcoder.ConvertWithProgress(runCtx, spec.InputPath, spec.OutputPath, spec.CodecArgs, spec.DurationSeconds, func(pct int) {
		if updateErr := e.registry.Update(ctx, job.JobID, func(j *models.ConvertJob) {
			j.Progress = pct
		}); updateErr != nil {
			e.logger.Warnf("job %s: progress update failed: %v", job.JobID, updateErr)
		}
	})
	if err != nil {
		e.logger.Errorf("job %s: transcode failed: %v", job.JobID, err)
		return err
	}

	return e.registry.Update(ctx, job.JobID, func(j *models.ConvertJob) {
		j.Status = models.JobStatusDone
		j.Progress = 100
		j.CompletedAt = time.Now()
	})
}

// MarkFailed moves the job to its terminal error state with a
// caller-visible message.
func (e *Executor) MarkFailed(ctx context.Context, jobID string, cause error) {
	message := userMessage(cause)
	if err := e.registry.Update(ctx, jobID, func(j *models.ConvertJob) {
		j.Status = models.JobStatusError
		j.Message = message
		j.CompletedAt = time.Now()
	}); err != nil {
		e.logger.Warnf("job %s: error update failed: %v", jobID, err)
	}
}

// userMessage picks the caller-visible text for a failed transcode. Raw
// tool diagnostics never travel past this point.
func userMessage(err error) string {
	switch {
	case errors.Is(err, media.ErrToolMissing):
		return "conversion tool is not installed on the server"
	case errors.Is(err, media.ErrToolTimeout):
		return "conversion timed out"
	default:
		return "conversion failed"
	}
}
