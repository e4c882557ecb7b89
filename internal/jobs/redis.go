package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/musicjacker/backend/internal/models"
	"github.com/pkg/errors"
)

const jobKeyPrefix = "convert:jobs:"

// redisRegistry stores job records as JSON with a TTL, so multiple API
// instances can serve status polls for the same job.
type redisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRegistry(client *redis.Client, ttl time.Duration) Registry {
	return &redisRegistry{client: client, ttl: ttl}
}

func (r *redisRegistry) Put(ctx context.Context, job *models.ConvertJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "jobs.redisRegistry.Put.Marshal")
	}
	return r.client.Set(ctx, jobKeyPrefix+job.JobID, data, r.ttl).Err()
}

func (r *redisRegistry) Get(ctx context.Context, jobID string) (*models.ConvertJob, error) {
	data, err := r.client.Get(ctx, jobKeyPrefix+jobID).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "jobs.redisRegistry.Get")
	}
	job := &models.ConvertJob{}
	if err := json.Unmarshal([]byte(data), job); err != nil {
		return nil, errors.Wrap(err, "jobs.redisRegistry.Get.Unmarshal")
	}
	return job, nil
}

// Update is a read-modify-write. Only the owning worker mutates a given
// job, so there is no competing writer to race against.
func (r *redisRegistry) Update(ctx context.Context, jobID string, mutate func(*models.ConvertJob)) error {
	job, err := r.Get(ctx, jobID)
	if err != nil {
		return err
	}
	applyMutation(job, mutate)
	return r.Put(ctx, job)
}
