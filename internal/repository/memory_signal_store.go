package repository

import (
	"context"
	"fmt"
	"sync"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
)

// DefaultCapacity is the number of signals the volatile store keeps.
const DefaultCapacity = 100

// MemorySignalStore keeps the most recent signals in a fixed ring. Once full, each append
// overwrites the oldest record.
type MemorySignalStore struct {
	mu    sync.RWMutex
	ring  []*models.Signal
	head  int // index of the next write
	size  int
	index map[string]int // id -> ring slot
}

// NewMemorySignalStore creates a store holding at most capacity records.
func NewMemorySignalStore(capacity int) *MemorySignalStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemorySignalStore{
		ring:  make([]*models.Signal, capacity),
		index: make(map[string]int, capacity),
	}
}

func (s *MemorySignalStore) Append(ctx context.Context, sig *models.Signal) (int, error) {
	if sig == nil {
		return 0, fmt.Errorf("append: nil signal")
	}
	c := sig.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[c.ID]; ok {
		return s.size, fmt.Errorf("%w: %s", repository.ErrDuplicateID, c.ID)
	}

	if old := s.ring[s.head]; old != nil {
		delete(s.index, old.ID)
	}
	s.ring[s.head] = c
	s.index[c.ID] = s.head
	s.head = (s.head + 1) % len(s.ring)
	if s.size < len(s.ring) {
		s.size++
	}
	return s.size, nil
}

func (s *MemorySignalStore) List(ctx context.Context, limit int) ([]*models.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.size
	if limit >= 0 && limit < n {
		n = limit
	}
	out := make([]*models.Signal, 0, n)
	for i := 1; i <= n; i++ {
		slot := (s.head - i + len(s.ring)) % len(s.ring)
		out = append(out, s.ring[slot].Clone())
	}
	return out, nil
}

// Len returns the number of records held.
func (s *MemorySignalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Capacity returns the maximum number of records held.
func (s *MemorySignalStore) Capacity() int { return len(s.ring) }

func (s *MemorySignalStore) Health(ctx context.Context) error { return nil }

func (s *MemorySignalStore) Close() error { return nil }

var _ repository.SignalStore = (*MemorySignalStore)(nil)
