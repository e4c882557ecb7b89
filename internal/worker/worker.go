package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/musicjacker/backend/internal/config"
	"github.com/musicjacker/backend/internal/media"
	"github.com/musicjacker/backend/internal/models"
	"github.com/musicjacker/backend/internal/taskrunner"
	"github.com/musicjacker/backend/pkg/logger"
	"github.com/musicjacker/backend/pkg/utils"
)

const (
	dequeueTimeout = 5 * time.Second
	cpuWait        = 10 * time.Second
)

// Worker drains the conversion queue. One Worker runs per process; the
// pool size inside the process is the number of Run loops started.
type Worker struct {
	cfg      *config.Config
	client   *redis.Client
	executor *taskrunner.Executor
	logger   logger.Logger
}

func NewWorker(cfg *config.Config, client *redis.Client, executor *taskrunner.Executor, log logger.Logger) *Worker {
	return &Worker{cfg: cfg, client: client, executor: executor, logger: log}
}

// Run consumes tasks until ctx is cancelled. New work is only accepted
// while CPU usage stays under the configured ceiling.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if ok, usage := utils.CheckCPUUsage(w.cfg.Worker.MaxCPUUsage); !ok {
			w.logger.Infof("CPU usage %.2f%% too high, waiting", usage)
			select {
			case <-ctx.Done():
				return
			case <-time.After(cpuWait):
			}
			continue
		}

		task, err := w.dequeue(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Warnf("dequeue failed: %v", err)
			}
			continue
		}
		if task == nil {
			continue
		}
		w.process(ctx, task)
	}
}

func (w *Worker) dequeue(ctx context.Context) (*models.QueueTask, error) {
	res, err := w.client.BLPop(ctx, dequeueTimeout, w.cfg.Worker.QueueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BLPOP returns the key followed by the popped value
	var task models.QueueTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, errors.Wrap(err, "worker.dequeue.Unmarshal")
	}
	return &task, nil
}

func (w *Worker) process(ctx context.Context, task *models.QueueTask) {
	w.logger.Infof("job %s: attempt %d/%d", task.Job.JobID, task.Attempt, w.cfg.Worker.MaxRetries+1)

	err := w.executor.Run(ctx, task.Job, task.Spec)
	if err == nil {
		w.logger.Infof("job %s: completed", task.Job.JobID)
		return
	}
	if ctx.Err() != nil {
		// shutdown mid-transcode, hand the task back to the queue
		w.requeue(task)
		return
	}
	if retryable(err) && task.Attempt <= w.cfg.Worker.MaxRetries {
		backoff := time.Duration(w.cfg.Worker.RetryBackoffSeconds) * time.Second * time.Duration(task.Attempt)
		w.logger.Warnf("job %s: attempt %d failed (%v), retrying in %s", task.Job.JobID, task.Attempt, err, backoff)
		select {
		case <-ctx.Done():
			w.requeue(task)
		case <-time.After(backoff):
			task.Attempt++
			w.requeue(task)
		}
		return
	}
	w.executor.MarkFailed(ctx, task.Job.JobID, err)
}

func (w *Worker) requeue(task *models.QueueTask) {
	payload, err := json.Marshal(task)
	if err != nil {
		w.logger.Errorf("job %s: requeue marshal failed: %v", task.Job.JobID, err)
		return
	}
	if err := w.client.LPush(context.Background(), w.cfg.Worker.QueueKey, payload).Err(); err != nil {
		w.logger.Errorf("job %s: requeue failed: %v", task.Job.JobID, err)
	}
}

// retryable reports whether another attempt could plausibly succeed. Only
// transient tool failures qualify; a semantic failure, a missing tool or an
// exhausted wall clock will fail the same way again.
func retryable(err error) bool {
	return errors.Is(err, media.ErrTransient)
}
