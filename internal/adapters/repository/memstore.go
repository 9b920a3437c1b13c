package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/pkg/metrics"
)

// MemoryStore is a bounded, in-memory Store. When full, the oldest finished
// job is evicted. Queued and running jobs are never evicted; Create fails
// with ErrFull while every retained job is unfinished.
type MemoryStore struct {
	capacity int
	now      func() time.Time
	newID    func() string

	mu       sync.RWMutex
	byID     map[string]*Job
	byDigest map[uint64]string
	order    []string // creation order, oldest first
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a job store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		capacity: defaultCapacity,
		now:      time.Now,
		newID:    uuid.NewString,
		byID:     make(map[string]*Job),
		byDigest: make(map[uint64]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateStoreSize(0)
	return s
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, matches []model.Match) (Job, bool, error) {
	digest := Digest(matches)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byDigest[digest]; ok {
		if existing := s.byID[id]; existing.Status != StatusFailed {
			metrics.RecordDigestHit()
			return *existing, false, nil
		}
		s.removeLocked(id)
	}

	for len(s.order) >= s.capacity {
		if !s.evictLocked() {
			return Job{}, false, fmt.Errorf("%w: %d unfinished jobs", ErrFull, len(s.order))
		}
	}

	now := s.now()
	job := &Job{
		ID:        s.newID(),
		Digest:    digest,
		Status:    StatusQueued,
		Matches:   slices.Clone(matches),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[job.ID] = job
	s.byDigest[digest] = job.ID
	s.order = append(s.order, job.ID)
	metrics.UpdateStoreSize(len(s.order))
	return *job, true, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.byID[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *job, nil
}

// FindByDigest implements Store.
func (s *MemoryStore) FindByDigest(ctx context.Context, digest uint64) (Job, error) {
	s.mu.RLock()
	id, ok := s.byDigest[digest]
	s.mu.RUnlock()
	if !ok {
		return Job{}, fmt.Errorf("%w: digest %016x", ErrNotFound, digest)
	}
	return s.Get(ctx, id)
}

// Start implements Store.
func (s *MemoryStore) Start(_ context.Context, id string) error {
	return s.update(id, func(j *Job) error {
		if j.Status != StatusQueued {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, j.Status, StatusRunning)
		}
		j.Status = StatusRunning
		return nil
	})
}

// Complete implements Store.
func (s *MemoryStore) Complete(_ context.Context, id string, frames []model.Frame) error {
	return s.update(id, func(j *Job) error {
		if j.Status.Finished() {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, j.Status, StatusDone)
		}
		j.Status = StatusDone
		j.Frames = frames
		return nil
	})
}

// Fail implements Store.
func (s *MemoryStore) Fail(_ context.Context, id string, cause error) error {
	return s.update(id, func(j *Job) error {
		if j.Status.Finished() {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, j.Status, StatusFailed)
		}
		j.Status = StatusFailed
		if cause != nil {
			j.Err = cause.Error()
		}
		return nil
	})
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.removeLocked(id)
	metrics.UpdateStoreSize(len(s.order))
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *MemoryStore) update(id string, fn func(*Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := fn(job); err != nil {
		return err
	}
	job.UpdatedAt = s.now()
	return nil
}

// evictLocked removes the oldest finished job and reports whether one existed.
func (s *MemoryStore) evictLocked() bool {
	for _, id := range s.order {
		if s.byID[id].Status.Finished() {
			s.removeLocked(id)
			metrics.RecordStoreEviction()
			return true
		}
	}
	return false
}

func (s *MemoryStore) removeLocked(id string) {
	job := s.byID[id]
	delete(s.byID, id)
	if s.byDigest[job.Digest] == id {
		delete(s.byDigest, job.Digest)
	}
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}
