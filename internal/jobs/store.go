package jobs

import (
	"context"
	"sync"
	"time"
)

// Store is the persistence backing of the tracker. Implementations keep one
// record per job ID and evict records past the retention window.
type Store interface {
	Put(ctx context.Context, job Job) error
	// Get returns ErrUnknownJob for IDs that do not exist or were evicted.
	Get(ctx context.Context, id string) (Job, error)
	// Sweep evicts terminal jobs not updated within the retention window and
	// returns how many were removed. Backings with native expiry may no-op.
	Sweep(ctx context.Context, retention time.Duration) (int, error)
}

// MemoryStore keeps jobs in a process-local map. It is the default backing
// for single-replica deployments.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job)}
}

func (s *MemoryStore) Put(_ context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrUnknownJob
	}
	return job, nil
}

func (s *MemoryStore) Sweep(_ context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}
