package jobs

import (
	"context"
	"sync"

	"github.com/musicjacker/backend/internal/models"
)

// memoryRegistry holds job records for the lifetime of the process. Nothing
// survives a restart, which is the documented contract of the single
// instance deployment.
type memoryRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*models.ConvertJob
}

func NewMemoryRegistry() Registry {
	return &memoryRegistry{jobs: make(map[string]*models.ConvertJob)}
}

func (r *memoryRegistry) Put(_ context.Context, job *models.ConvertJob) error {
	copied := *job
	r.mu.Lock()
	r.jobs[job.JobID] = &copied
	r.mu.Unlock()
	return nil
}

func (r *memoryRegistry) Get(_ context.Context, jobID string) (*models.ConvertJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *memoryRegistry) Update(_ context.Context, jobID string, mutate func(*models.ConvertJob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	applyMutation(job, mutate)
	return nil
}
