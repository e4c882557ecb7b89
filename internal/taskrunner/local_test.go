package taskrunner

import (
	"context"
	"testing"
	"time"

	"github.com/musicjacker/backend/internal/jobs"
	"github.com/musicjacker/backend/internal/media"
	"github.com/musicjacker/backend/internal/models"
	"github.com/musicjacker/backend/pkg/logger"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTranscoder drives the executor without shelling out.
type stubTranscoder struct {
	progress []int
	err      error
	delay    time.Duration
}

func (s *stubTranscoder) ProbeDuration(context.Context, string) (float64, error) {
	return 0, nil
}

func (s *stubTranscoder) Convert(context.Context, string, string, []string) error {
	return s.err
}

func (s *stubTranscoder) ConvertWithProgress(_ context.Context, _, _ string, _ []string, _ float64, onProgress func(int)) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	for _, pct := range s.progress {
		onProgress(pct)
	}
	return s.err
}

func waitForTerminal(t *testing.T, registry jobs.Registry, jobID string) *models.ConvertJob {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("job %s never reached a terminal state", jobID)
		default:
		}
		job, err := registry.Get(context.Background(), jobID)
		require.NoError(t, err)
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func submitJob(t *testing.T, runner Runner, registry jobs.Registry, id string) *models.ConvertJob {
	t.Helper()
	job := &models.ConvertJob{JobID: id, SessionID: "s-" + id, Status: models.JobStatusQueued}
	require.NoError(t, registry.Put(context.Background(), job))
	require.NoError(t, runner.Submit(context.Background(), job, models.TranscodeSpec{
		InputPath:  "in.wav",
		OutputPath: "out.mp3",
		Target:     "mp3",
	}))
	return job
}

func TestLocalRunner_JobCompletesWithProgress(t *testing.T) {
	registry := jobs.NewMemoryRegistry()
	transcoder := &stubTranscoder{progress: []int{10, 40, 90}}
	executor := NewExecutor(transcoder, registry, logger.NewNopLogger())
	runner := NewLocalRunner(context.Background(), executor, 2, logger.NewNopLogger())

	submitJob(t, runner, registry, "a")

	job := waitForTerminal(t, registry, "a")
	assert.Equal(t, models.JobStatusDone, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.False(t, job.CompletedAt.IsZero())
}

func TestLocalRunner_JobFailure(t *testing.T) {
	registry := jobs.NewMemoryRegistry()
	transcoder := &stubTranscoder{progress: []int{30}, err: errors.New("boom")}
	executor := NewExecutor(transcoder, registry, logger.NewNopLogger())
	runner := NewLocalRunner(context.Background(), executor, 1, logger.NewNopLogger())

	submitJob(t, runner, registry, "a")

	job := waitForTerminal(t, registry, "a")
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Equal(t, "conversion failed", job.Message)
	assert.NotEqual(t, 100, job.Progress, "a failed job never reports completion")
}

func TestLocalRunner_MissingToolMessage(t *testing.T) {
	registry := jobs.NewMemoryRegistry()
	transcoder := &stubTranscoder{err: media.ErrToolMissing}
	executor := NewExecutor(transcoder, registry, logger.NewNopLogger())
	runner := NewLocalRunner(context.Background(), executor, 1, logger.NewNopLogger())

	submitJob(t, runner, registry, "a")

	job := waitForTerminal(t, registry, "a")
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Equal(t, "conversion tool is not installed on the server", job.Message)
}

func TestLocalRunner_TimeoutMessage(t *testing.T) {
	registry := jobs.NewMemoryRegistry()
	transcoder := &stubTranscoder{err: media.ErrToolTimeout}
	executor := NewExecutor(transcoder, registry, logger.NewNopLogger())
	runner := NewLocalRunner(context.Background(), executor, 1, logger.NewNopLogger())

	submitJob(t, runner, registry, "a")

	job := waitForTerminal(t, registry, "a")
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Equal(t, "conversion timed out", job.Message)
}

func TestLocalRunner_PoolIsBounded(t *testing.T) {
	registry := jobs.NewMemoryRegistry()
	// a slow transcoder keeps the single worker busy so extra submissions
	// stack up in the queue instead of running concurrently
	transcoder := &stubTranscoder{delay: 50 * time.Millisecond}
	executor := NewExecutor(transcoder, registry, logger.NewNopLogger())
	runner := NewLocalRunner(context.Background(), executor, 1, logger.NewNopLogger())

	for i := 0; i < 3; i++ {
		submitJob(t, runner, registry, string(rune('a'+i)))
	}
	for i := 0; i < 3; i++ {
		job := waitForTerminal(t, registry, string(rune('a'+i)))
		assert.Equal(t, models.JobStatusDone, job.Status)
	}
}
