package jobstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/hirelens/interview-analysis-be/internal/analysis/domain"
)

// MemoryStore is the in-process job registry. Add and lookup are safe for
// concurrent use from the submission path and all workers.
type MemoryStore struct {
	mu    sync.RWMutex
	jobs  map[string]*domain.JobRecord
	order []string
}

// NewMemoryStore creates an empty registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*domain.JobRecord),
	}
}

// Create registers a new pending job under a fresh uuid.
func (s *MemoryStore) Create(_ context.Context, originalFilename string) (*domain.JobRecord, error) {
	job := domain.NewJobRecord(uuid.New().String(), originalFilename)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID()] = job
	s.order = append(s.order, job.ID())

	return job, nil
}

// Get returns the record for jobID or domain.ErrJobNotFound.
func (s *MemoryStore) Get(_ context.Context, jobID string) (*domain.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

// List returns all records in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]*domain.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*domain.JobRecord, 0, len(s.order))
	for _, id := range s.order {
		jobs = append(jobs, s.jobs[id])
	}
	return jobs, nil
}

// Sync is a no-op: callers already hold the live record.
func (s *MemoryStore) Sync(_ context.Context, _ *domain.JobRecord) error {
	return nil
}
