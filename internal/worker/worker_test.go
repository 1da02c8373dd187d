package worker

import (
	"context"
	"testing"

	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
	"github.com/hirelens/interview-analysis-be/internal/analysis/jobstore"
	"github.com/hirelens/interview-analysis-be/shared/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAcknowledger records ack/nack outcomes for one delivery.
type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcknowledger) Ack(_ uint64, _ bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	return f.Nack(0, false, requeue)
}

type completingProcessor struct {
	processed []string
	panicNext bool
}

func (p *completingProcessor) Process(_ context.Context, job *domain.JobRecord) error {
	if p.panicNext {
		panic("stage blew up")
	}
	p.processed = append(p.processed, job.ID())
	job.UpdateStatus(domain.StatusCompleted, "")
	return nil
}

func newTestWorker(store jobstore.Store, processor *completingProcessor) *Worker {
	return NewWorker(&Config{
		Logger:      logger.NewDefault().Logger,
		Store:       store,
		Processor:   processor,
		Concurrency: 1,
	})
}

func delivery(body string) (amqp.Delivery, *fakeAcknowledger) {
	ack := &fakeAcknowledger{}
	return amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		Body:         []byte(body),
	}, ack
}

func TestNewWorker_PrefetchDefaultsToConcurrency(t *testing.T) {
	w := NewWorker(&Config{
		Logger:      logger.NewDefault().Logger,
		Store:       jobstore.NewMemoryStore(),
		Processor:   &completingProcessor{},
		Concurrency: 4,
	})
	assert.Equal(t, 4, w.prefetch)
}

func TestNewWorker_ConfiguredPrefetch(t *testing.T) {
	w := NewWorker(&Config{
		Logger:      logger.NewDefault().Logger,
		Store:       jobstore.NewMemoryStore(),
		Processor:   &completingProcessor{},
		Concurrency: 4,
		Prefetch:    16,
	})
	assert.Equal(t, 16, w.prefetch)
}

func TestHandleDelivery(t *testing.T) {
	store := jobstore.NewMemoryStore()
	job, err := store.Create(context.Background(), "interview.mp4")
	require.NoError(t, err)

	processor := &completingProcessor{}
	w := newTestWorker(store, processor)

	d, ack := delivery(`{"job_id": "` + job.ID() + `"}`)
	w.handleDelivery(context.Background(), d)

	assert.Equal(t, []string{job.ID()}, processor.processed)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	assert.Equal(t, domain.StatusCompleted, job.Snapshot().Status)
}

func TestHandleDelivery_MalformedPayload(t *testing.T) {
	store := jobstore.NewMemoryStore()
	processor := &completingProcessor{}
	w := newTestWorker(store, processor)

	d, ack := delivery(`not json`)
	w.handleDelivery(context.Background(), d)

	assert.Empty(t, processor.processed)
	assert.False(t, ack.acked)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestHandleDelivery_NonUUIDJobID(t *testing.T) {
	store := jobstore.NewMemoryStore()
	processor := &completingProcessor{}
	w := newTestWorker(store, processor)

	d, ack := delivery(`{"job_id": "not-a-uuid"}`)
	w.handleDelivery(context.Background(), d)

	assert.Empty(t, processor.processed)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestHandleDelivery_UnknownJob(t *testing.T) {
	store := jobstore.NewMemoryStore()
	processor := &completingProcessor{}
	w := newTestWorker(store, processor)

	d, ack := delivery(`{"job_id": "e7a8f3f8-8f9f-4f10-9d8a-111111111111"}`)
	w.handleDelivery(context.Background(), d)

	assert.Empty(t, processor.processed)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestHandleDelivery_PanicFailsJobAndAcks(t *testing.T) {
	store := jobstore.NewMemoryStore()
	job, err := store.Create(context.Background(), "interview.mp4")
	require.NoError(t, err)

	processor := &completingProcessor{panicNext: true}
	w := newTestWorker(store, processor)

	d, ack := delivery(`{"job_id": "` + job.ID() + `"}`)
	w.handleDelivery(context.Background(), d)

	snap := job.Snapshot()
	assert.Equal(t, domain.StatusFailed, snap.Status)
	assert.Contains(t, snap.Error, "internal error")
	assert.True(t, ack.acked)
}
