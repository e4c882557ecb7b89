package worker

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musicjacker/backend/internal/config"
	"github.com/musicjacker/backend/internal/jobs"
	"github.com/musicjacker/backend/internal/media"
	"github.com/musicjacker/backend/internal/models"
	"github.com/musicjacker/backend/internal/taskrunner"
	"github.com/musicjacker/backend/pkg/logger"
)

type failingTranscoder struct {
	err   error
	calls int
}

func (f *failingTranscoder) ProbeDuration(context.Context, string) (float64, error) {
	return 0, nil
}

func (f *failingTranscoder) Convert(context.Context, string, string, []string) error {
	return f.err
}

func (f *failingTranscoder) ConvertWithProgress(context.Context, string, string, []string, float64, func(int)) error {
	f.calls++
	return f.err
}

func workerFixture(transcoder *failingTranscoder) (*Worker, jobs.Registry) {
	registry := jobs.NewMemoryRegistry()
	executor := taskrunner.NewExecutor(transcoder, registry, logger.NewNopLogger())
	cfg := &config.Config{}
	cfg.Worker.MaxRetries = 2
	cfg.Worker.QueueKey = "convert_jobs"
	return NewWorker(cfg, nil, executor, logger.NewNopLogger()), registry
}

func queuedTask(t *testing.T, registry jobs.Registry, attempt int) *models.QueueTask {
	t.Helper()
	job := &models.ConvertJob{
		JobID:     "job-1",
		SessionID: "sess-1",
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now(),
	}
	require.NoError(t, registry.Put(context.Background(), job))
	return &models.QueueTask{Job: job, Spec: models.TranscodeSpec{Target: "mp3"}, Attempt: attempt}
}

func TestProcessMarksNonRetryableFailure(t *testing.T) {
	transcoder := &failingTranscoder{err: media.ErrToolMissing}
	w, registry := workerFixture(transcoder)
	task := queuedTask(t, registry, 1)

	w.process(context.Background(), task)

	job, err := registry.Get(context.Background(), task.Job.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Equal(t, "conversion tool is not installed on the server", job.Message)
	assert.Equal(t, 1, transcoder.calls)
}

func TestProcessMarksFailureOnceAttemptsExhausted(t *testing.T) {
	transcoder := &failingTranscoder{err: errors.New("conversion failed")}
	w, registry := workerFixture(transcoder)
	task := queuedTask(t, registry, 3)

	w.process(context.Background(), task)

	job, err := registry.Get(context.Background(), task.Job.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Equal(t, "conversion failed", job.Message)
}

func TestRetryableClassification(t *testing.T) {
	assert.False(t, retryable(media.ErrToolMissing))
	assert.False(t, retryable(media.ErrToolTimeout))
	assert.False(t, retryable(errors.New("conversion failed")))
	assert.True(t, retryable(media.ErrTransient))
	assert.True(t, retryable(errors.Wrap(media.ErrTransient, "worker.process")))
}

func TestProcessDoesNotRetrySemanticFailure(t *testing.T) {
	transcoder := &failingTranscoder{err: errors.New("conversion failed")}
	w, registry := workerFixture(transcoder)
	task := queuedTask(t, registry, 1)

	w.process(context.Background(), task)

	job, err := registry.Get(context.Background(), task.Job.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Equal(t, 1, transcoder.calls, "a non-zero tool exit must fail the job on the first attempt")
}
