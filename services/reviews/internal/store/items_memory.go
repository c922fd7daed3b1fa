package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryItemStore is a development-only in-memory implementation.
type InMemoryItemStore struct {
	mu    sync.RWMutex
	items map[string]Item
}

func NewInMemoryItemStore() *InMemoryItemStore {
	return &InMemoryItemStore{items: make(map[string]Item)}
}

func (s *InMemoryItemStore) Create(_ context.Context, it Item) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	it.CreatedAt = time.Now().UTC()
	s.items[it.ID] = it
	return it, nil
}

func (s *InMemoryItemStore) Get(_ context.Context, id string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (s *InMemoryItemStore) List(_ context.Context, f ItemFilter) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if f.Genre != "" && !strings.EqualFold(it.Genre, f.Genre) {
			continue
		}
		if f.System != "" && !strings.EqualFold(it.System, f.System) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(it.Title), strings.ToLower(f.Search)) {
			continue
		}
		if f.Featured != nil && it.IsFeatured != *f.Featured {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *InMemoryItemStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}
