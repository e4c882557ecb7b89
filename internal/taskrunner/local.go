package taskrunner

import (
	"context"

	"github.com/musicjacker/backend/internal/models"
	"github.com/musicjacker/backend/pkg/logger"
	"github.com/pkg/errors"
)

// ErrQueueFull is returned when the local runner's backlog is saturated.
var ErrQueueFull = errors.New("taskrunner: local queue is full")

type localTask struct {
	job  *models.ConvertJob
	spec models.TranscodeSpec
}

// localRunner executes transcodes on a fixed-size in-process pool. Pool
// size is bounded so a burst of submissions queues instead of spawning a
// goroutine per job.
type localRunner struct {
	executor *Executor
	tasks    chan localTask
	logger   logger.Logger
}

const localQueueDepth = 64

func NewLocalRunner(ctx context.Context, executor *Executor, poolSize int, log logger.Logger) Runner {
	r := &localRunner{
		executor: executor,
		tasks:    make(chan localTask, localQueueDepth),
		logger:   log,
	}
	for i := 0; i < poolSize; i++ {
		go r.worker(ctx)
	}
	return r
}

func (r *localRunner) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-r.tasks:
			if err := r.executor.Execute(ctx, task.job, task.spec); err != nil {
				r.logger.Errorf("job %s: %v", task.job.JobID, err)
			}
		}
	}
}

func (r *localRunner) Submit(_ context.Context, job *models.ConvertJob, spec models.TranscodeSpec) error {
	select {
	case r.tasks <- localTask{job: job, spec: spec}:
		return nil
	default:
		return ErrQueueFull
	}
}
