package taskrunner

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/musicjacker/backend/internal/models"
	"github.com/pkg/errors"
)

// queueRunner hands the unit of work to the distributed broker. Execution
// happens in a separate worker process; submission only suspends on the
// broker round-trip.
type queueRunner struct {
	client   *redis.Client
	queueKey string
}

func NewQueueRunner(client *redis.Client, queueKey string) Runner {
	return &queueRunner{client: client, queueKey: queueKey}
}

func (r *queueRunner) Submit(ctx context.Context, job *models.ConvertJob, spec models.TranscodeSpec) error {
	task := models.QueueTask{Job: job, Spec: spec, Attempt: 1}
	payload, err := json.Marshal(task)
	if err != nil {
		return errors.Wrap(err, "taskrunner.queueRunner.Submit.Marshal")
	}
	return r.client.LPush(ctx, r.queueKey, payload).Err()
}
