package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryReviewStore is a development-only in-memory implementation.
type InMemoryReviewStore struct {
	mu      sync.RWMutex
	reviews map[string]map[string]Review // itemID -> authorID -> review
}

func NewInMemoryReviewStore() *InMemoryReviewStore {
	return &InMemoryReviewStore{reviews: make(map[string]map[string]Review)}
}

func (s *InMemoryReviewStore) Get(_ context.Context, authorID, itemID string) (Review, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[itemID][authorID]
	return r, ok, nil
}

func (s *InMemoryReviewStore) Upsert(_ context.Context, r Review) (*float64, Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reviews[r.ItemID] == nil {
		s.reviews[r.ItemID] = make(map[string]Review)
	}

	now := time.Now().UTC()
	var old *float64
	if prev, ok := s.reviews[r.ItemID][r.AuthorID]; ok {
		prevRating := prev.Rating
		old = &prevRating
		r.ID = prev.ID
		r.CreatedAt = prev.CreatedAt
	} else {
		r.ID = uuid.New().String()
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	s.reviews[r.ItemID][r.AuthorID] = r
	return old, r, nil
}

func (s *InMemoryReviewStore) Delete(_ context.Context, authorID, itemID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[itemID][authorID]
	if !ok {
		return 0, ErrNotFound
	}
	delete(s.reviews[itemID], authorID)
	return r.Rating, nil
}

func (s *InMemoryReviewStore) ListRecent(_ context.Context, limit int) ([]Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}
	out := []Review{}
	for _, byAuthor := range s.reviews {
		for _, r := range byAuthor {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryReviewStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, byAuthor := range s.reviews {
		n += len(byAuthor)
	}
	return n, nil
}

func (s *InMemoryReviewStore) CountDistinctAuthors(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	authors := make(map[string]struct{})
	for _, byAuthor := range s.reviews {
		for a := range byAuthor {
			authors[a] = struct{}{}
		}
	}
	return len(authors), nil
}
