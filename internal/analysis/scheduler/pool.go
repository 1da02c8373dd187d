package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
	"github.com/hirelens/interview-analysis-be/internal/analysis/jobstore"
)

// Processor runs the analysis pipeline for one job.
type Processor interface {
	Process(ctx context.Context, job *domain.JobRecord) error
}

// Pool is the in-process dispatch backend: a bounded FIFO queue drained by
// a fixed number of worker goroutines. Queued jobs are processed in
// submission order; with a single worker this serializes all jobs.
type Pool struct {
	store     jobstore.Store
	processor Processor
	logger    *slog.Logger

	jobs chan string
	wg   sync.WaitGroup

	stopOnce sync.Once
}

// NewPool creates a pool with the given concurrency and queue capacity and
// starts its workers immediately. Size queueCapacity well above concurrency
// so Dispatch only blocks under sustained overload.
func NewPool(concurrency, queueCapacity int, store jobstore.Store, processor Processor, logger *slog.Logger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	if queueCapacity < 1 {
		queueCapacity = 1
	}

	p := &Pool{
		store:     store,
		processor: processor,
		logger:    logger,
		jobs:      make(chan string, queueCapacity),
	}

	p.logger.Info("Starting worker pool",
		slog.Int("concurrency", concurrency),
		slog.Int("queue_capacity", queueCapacity),
	)

	for i := 0; i < concurrency; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}

	return p
}

// Dispatch enqueues a job for processing. It blocks while the queue is
// full until a worker frees a slot or the context is canceled.
func (p *Pool) Dispatch(ctx context.Context, jobID string) error {
	select {
	case p.jobs <- jobID:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to enqueue job %s: %w", jobID, ctx.Err())
	}
}

// Stop closes the queue and waits for in-flight and already-queued jobs to
// finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *Pool) workerLoop(workerNum int) {
	defer p.wg.Done()

	for jobID := range p.jobs {
		p.logger.Info("Worker picked up job",
			slog.Int("worker_num", workerNum),
			slog.String("job_id", jobID),
		)
		p.runJob(jobID)
	}
}

// runJob resolves the record and processes it, converting a stage panic
// into a failed job so the pool survives.
func (p *Pool) runJob(jobID string) {
	ctx := context.Background()

	job, err := p.store.Get(ctx, jobID)
	if err != nil {
		p.logger.Error("Dropping job with no record",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Job processing panicked",
				slog.String("job_id", jobID),
				slog.Any("panic", r),
			)
			job.Fail(fmt.Sprintf("internal error: %v", r))
			if syncErr := p.store.Sync(ctx, job); syncErr != nil {
				p.logger.Error("Failed to sync panicked job",
					slog.String("job_id", jobID),
					slog.String("error", syncErr.Error()),
				)
			}
		}
	}()

	// Process records any stage failure on the job itself.
	_ = p.processor.Process(ctx, job)
}
