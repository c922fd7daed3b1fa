package aggregate

import (
	"context"
	"sync"
)

// itemAgg carries one item's statistics plus the mutex that serializes
// its writers. Readers take the same mutex only long enough to copy the
// pair, so a read never observes a half-applied delta.
type itemAgg struct {
	mu    sync.Mutex
	count int
	sum   float64
}

// MemoryStore keeps aggregates in process memory. The outer RWMutex only
// guards the map structure; per-item mutation uses the entry's own mutex
// so unrelated items proceed in parallel.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*itemAgg
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*itemAgg)}
}

func (s *MemoryStore) Register(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[itemID]; !ok {
		s.items[itemID] = &itemAgg{}
	}
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, itemID)
	return nil
}

func (s *MemoryStore) ApplyReview(_ context.Context, itemID string, oldRating, newRating *float64) (Aggregate, error) {
	s.mu.RLock()
	entry, ok := s.items[itemID]
	s.mu.RUnlock()
	if !ok {
		return Aggregate{}, ErrNotFound
	}

	countDelta, sumDelta := deltas(oldRating, newRating)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.count+countDelta < 0 {
		return Aggregate{}, ErrConflict
	}
	entry.count += countDelta
	entry.sum += sumDelta
	if entry.count == 0 {
		// invariant: count == 0 implies sum == 0 exactly
		entry.sum = 0
	}
	return Aggregate{ItemID: itemID, Count: entry.count, Sum: entry.sum}, nil
}

func (s *MemoryStore) Read(_ context.Context, itemID string) (Aggregate, error) {
	s.mu.RLock()
	entry, ok := s.items[itemID]
	s.mu.RUnlock()
	if !ok {
		return Aggregate{}, ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return Aggregate{ItemID: itemID, Count: entry.count, Sum: entry.sum}, nil
}
