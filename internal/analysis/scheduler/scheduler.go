// Package scheduler hands accepted jobs to the processing backend. Two
// backends exist: an in-process worker pool for single-binary deployments
// and a RabbitMQ publisher for the split api/worker deployment.
package scheduler

import "context"

// Dispatcher accepts a job id for asynchronous processing. Dispatch returns
// once the job is durably handed off, not when processing finishes.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID string) error
}

// JobMessage is the queue payload exchanged between the API service and
// worker service.
type JobMessage struct {
	JobID string `json:"job_id"`
}
