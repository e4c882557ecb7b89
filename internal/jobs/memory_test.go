package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/musicjacker/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob(id string) *models.ConvertJob {
	return &models.ConvertJob{
		JobID:     id,
		SessionID: "sess-" + id,
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now(),
	}
}

func TestMemoryRegistry_PutGet(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, newJob("a")))

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, got.Status)
	assert.Equal(t, 0, got.Progress)

	_, err = r.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRegistry_GetReturnsCopy(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()
	require.NoError(t, r.Put(ctx, newJob("a")))

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	got.Progress = 77

	again, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Progress)
}

func TestMemoryRegistry_ProgressNeverDecreases(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()
	require.NoError(t, r.Put(ctx, newJob("a")))

	require.NoError(t, r.Update(ctx, "a", func(j *models.ConvertJob) {
		j.Status = models.JobStatusProcessing
		j.Progress = 40
	}))
	require.NoError(t, r.Update(ctx, "a", func(j *models.ConvertJob) {
		j.Progress = 10
	}))

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 40, got.Progress)
}

func TestMemoryRegistry_DoneForcesProgress100(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()
	require.NoError(t, r.Put(ctx, newJob("a")))

	require.NoError(t, r.Update(ctx, "a", func(j *models.ConvertJob) {
		j.Status = models.JobStatusDone
	}))

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusDone, got.Status)
	assert.Equal(t, 100, got.Progress)
}

func TestMemoryRegistry_TerminalRecordsAreFrozen(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()
	require.NoError(t, r.Put(ctx, newJob("a")))

	require.NoError(t, r.Update(ctx, "a", func(j *models.ConvertJob) {
		j.Status = models.JobStatusError
		j.Progress = 30
		j.Message = "conversion failed"
	}))
	require.NoError(t, r.Update(ctx, "a", func(j *models.ConvertJob) {
		j.Status = models.JobStatusDone
		j.Message = "should not stick"
	}))

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, got.Status)
	assert.Equal(t, "conversion failed", got.Message)
	// error never gets its progress forced to 100
	assert.Equal(t, 30, got.Progress)
}

func TestMemoryRegistry_UpdateUnknownJob(t *testing.T) {
	r := NewMemoryRegistry()
	err := r.Update(context.Background(), "missing", func(j *models.ConvertJob) {})
	assert.ErrorIs(t, err, ErrNotFound)
}
