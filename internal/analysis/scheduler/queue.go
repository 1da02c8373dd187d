package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hirelens/interview-analysis-be/shared/rabbitmq"
)

// QueueDispatcher publishes job ids to RabbitMQ for the worker service to
// consume. It requires a durable job store shared with the workers.
type QueueDispatcher struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewQueueDispatcher creates a dispatcher over an established connection.
func NewQueueDispatcher(client *rabbitmq.Client, logger *slog.Logger) *QueueDispatcher {
	return &QueueDispatcher{
		client: client,
		logger: logger,
	}
}

// Dispatch publishes the job id as a persistent JSON message.
func (d *QueueDispatcher) Dispatch(ctx context.Context, jobID string) error {
	body, err := json.Marshal(JobMessage{JobID: jobID})
	if err != nil {
		return fmt.Errorf("failed to encode job message: %w", err)
	}

	if err := d.client.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to dispatch job %s: %w", jobID, err)
	}

	d.logger.Info("Job dispatched to queue",
		slog.String("job_id", jobID),
	)

	return nil
}
