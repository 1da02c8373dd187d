// Package jobstore provides the registry of analysis jobs. The store only
// creates and looks up records; the orchestrator mutates records it already
// holds a handle to, then calls Sync so durable variants can flush them.
//
// Records are never removed: there is no expiry or garbage collection in
// this design, so a production deployment sizing for long retention should
// extend the store with a retention policy.
package jobstore

import (
	"context"

	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
)

// Store is the narrow registry interface the API and pipeline depend on.
type Store interface {
	// Create allocates a fresh job id and registers a pending record.
	Create(ctx context.Context, originalFilename string) (*domain.JobRecord, error)

	// Get returns the record for jobID or domain.ErrJobNotFound.
	Get(ctx context.Context, jobID string) (*domain.JobRecord, error)

	// List returns all known records in no guaranteed order.
	List(ctx context.Context) ([]*domain.JobRecord, error)

	// Sync flushes the record's current state to the backing storage.
	// In-memory stores treat this as a no-op.
	Sync(ctx context.Context, job *domain.JobRecord) error
}
