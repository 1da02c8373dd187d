// Package worker consumes analysis jobs from RabbitMQ and runs them
// through the pipeline. It is the processing half of the split
// api-service / worker-service deployment.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
	"github.com/hirelens/interview-analysis-be/internal/analysis/jobstore"
	"github.com/hirelens/interview-analysis-be/internal/analysis/scheduler"
	"github.com/hirelens/interview-analysis-be/shared/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Config holds worker dependencies and settings.
type Config struct {
	Logger       *slog.Logger
	RabbitClient *rabbitmq.Client
	Store        jobstore.Store
	Processor    scheduler.Processor
	Concurrency  int
	// Prefetch caps unacknowledged deliveries on the channel. Zero
	// defaults it to Concurrency so each goroutine holds at most one.
	Prefetch int
}

// Worker drains the analysis queue with a fixed number of goroutines.
type Worker struct {
	logger       *slog.Logger
	rabbitClient *rabbitmq.Client
	store        jobstore.Store
	processor    scheduler.Processor
	concurrency  int
	prefetch     int
	workerID     string

	wg sync.WaitGroup
}

// NewWorker creates a worker instance.
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	prefetch := cfg.Prefetch
	if prefetch < 1 {
		prefetch = concurrency
	}

	return &Worker{
		logger:       cfg.Logger,
		rabbitClient: cfg.RabbitClient,
		store:        cfg.Store,
		processor:    cfg.Processor,
		concurrency:  concurrency,
		prefetch:     prefetch,
		workerID:     fmt.Sprintf("analysis-worker-%s", uuid.New().String()[:8]),
	}
}

// Start configures QoS and spawns the consuming goroutines. It returns
// once consumption is running; Stop waits for the goroutines.
func (w *Worker) Start(ctx context.Context) error {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		return fmt.Errorf("rabbitmq channel is nil")
	}

	if err := channel.Qos(w.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := w.rabbitClient.Consume(w.workerID)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("Worker consuming analysis jobs",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Int("prefetch", w.prefetch),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.consumeLoop(ctx, i, deliveries)
	}

	return nil
}

// Stop waits for every consuming goroutine to finish its current job.
func (w *Worker) Stop() {
	w.wg.Wait()
	w.logger.Info("Worker stopped", slog.String("worker_id", w.workerID))
}

func (w *Worker) consumeLoop(ctx context.Context, workerNum int, deliveries <-chan amqp.Delivery) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Consumer goroutine stopping - context canceled",
				slog.Int("worker_num", workerNum),
			)
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed",
					slog.Int("worker_num", workerNum),
				)
				return
			}
			w.handleDelivery(ctx, delivery)
		}
	}
}

// handleDelivery runs one queued job end-to-end. The delivery is acked
// once the job reaches a terminal state; failed jobs are not redelivered
// because resubmission is a new job. Malformed payloads are rejected
// without requeue.
func (w *Worker) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	var msg scheduler.JobMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		w.logger.Error("Failed to parse job message",
			slog.String("error", err.Error()),
			slog.String("body", string(delivery.Body)),
		)
		w.nack(delivery, false)
		return
	}

	if _, err := uuid.Parse(msg.JobID); err != nil {
		w.logger.Error("Invalid job_id in message",
			slog.String("job_id", msg.JobID),
			slog.String("error", err.Error()),
		)
		w.nack(delivery, false)
		return
	}

	job, err := w.store.Get(ctx, msg.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			w.logger.Error("Dropping message for unknown job",
				slog.String("job_id", msg.JobID),
			)
			w.nack(delivery, false)
			return
		}
		w.logger.Error("Failed to load job, requeueing",
			slog.String("job_id", msg.JobID),
			slog.String("error", err.Error()),
		)
		w.nack(delivery, true)
		return
	}

	w.logger.Info("Worker received job",
		slog.String("worker_id", w.workerID),
		slog.String("job_id", msg.JobID),
		slog.Uint64("delivery_tag", delivery.DeliveryTag),
	)

	w.runJob(ctx, job)

	if err := delivery.Ack(false); err != nil {
		w.logger.Error("Failed to ACK message",
			slog.String("job_id", msg.JobID),
			slog.String("error", err.Error()),
		)
	}
}

// runJob processes the job, converting a stage panic into a failed job so
// the consumer survives.
func (w *Worker) runJob(ctx context.Context, job *domain.JobRecord) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Job processing panicked",
				slog.String("job_id", job.ID()),
				slog.Any("panic", r),
			)
			job.Fail(fmt.Sprintf("internal error: %v", r))
			if syncErr := w.store.Sync(ctx, job); syncErr != nil {
				w.logger.Error("Failed to sync panicked job",
					slog.String("job_id", job.ID()),
					slog.String("error", syncErr.Error()),
				)
			}
		}
	}()

	// Process records any stage failure on the job itself.
	_ = w.processor.Process(ctx, job)
}

func (w *Worker) nack(delivery amqp.Delivery, requeue bool) {
	if err := delivery.Nack(false, requeue); err != nil {
		w.logger.Error("Failed to NACK message",
			slog.String("error", err.Error()),
			slog.Bool("requeue", requeue),
		)
	}
}
