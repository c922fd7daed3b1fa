package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryForumStore backs the forum in development and tests. It keeps
// the same atomicity contract as the Postgres store: InsertPost either
// applies the post and both counter updates or nothing at all.
type InMemoryForumStore struct {
	mu         sync.RWMutex
	categories map[string]Category
	threads    map[string]Thread
	posts      map[string][]Post // keyed by thread id, append order
}

func NewInMemoryForumStore() *InMemoryForumStore {
	s := &InMemoryForumStore{
		categories: make(map[string]Category),
		threads:    make(map[string]Thread),
		posts:      make(map[string][]Post),
	}
	for i, c := range []Category{
		{Name: "General Discussion", Description: "Anything tabletop"},
		{Name: "Rules Questions", Description: "Rulings and edge cases"},
		{Name: "Campaign Logs", Description: "Share your sessions"},
		{Name: "Looking for Group", Description: "Find players and GMs"},
	} {
		c.ID = uuid.NewString()
		c.SortOrder = i
		s.categories[c.ID] = c
	}
	return s
}

func (s *InMemoryForumStore) ListCategories(_ context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemoryForumStore) GetCategory(_ context.Context, id string) (Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (s *InMemoryForumStore) CreateThread(_ context.Context, th Thread, opening Post) (Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[th.CategoryID]; !ok {
		return Thread{}, ErrNotFound
	}
	if th.ID == "" {
		th.ID = uuid.NewString()
	}
	if th.CreatedAt.IsZero() {
		th.CreatedAt = time.Now().UTC()
	}
	th.ReplyCount = 0
	th.LastActivityAt = th.CreatedAt

	opening.ID = uuid.NewString()
	opening.ThreadID = th.ID
	if opening.CreatedAt.IsZero() {
		opening.CreatedAt = th.CreatedAt
	}

	s.threads[th.ID] = th
	s.posts[th.ID] = []Post{opening}
	return th, nil
}

func (s *InMemoryForumStore) GetThread(_ context.Context, id string) (Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	th, ok := s.threads[id]
	if !ok {
		return Thread{}, ErrNotFound
	}
	return th, nil
}

func (s *InMemoryForumStore) ListThreads(_ context.Context, categoryID string, limit, offset int) ([]Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Thread, 0)
	for _, th := range s.threads {
		if categoryID != "" && th.CategoryID != categoryID {
			continue
		}
		out = append(out, th)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		if !out[i].LastActivityAt.Equal(out[j].LastActivityAt) {
			return out[i].LastActivityAt.After(out[j].LastActivityAt)
		}
		return out[i].ID < out[j].ID
	})
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryForumStore) SetThreadLocked(_ context.Context, id string, locked bool) (Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[id]
	if !ok {
		return Thread{}, ErrNotFound
	}
	th.IsLocked = locked
	s.threads[id] = th
	return th, nil
}

func (s *InMemoryForumStore) SetThreadPinned(_ context.Context, id string, pinned bool) (Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[id]
	if !ok {
		return Thread{}, ErrNotFound
	}
	th.IsPinned = pinned
	s.threads[id] = th
	return th, nil
}

func (s *InMemoryForumStore) InsertPost(_ context.Context, p Post) (Post, Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[p.ThreadID]
	if !ok {
		return Post{}, Thread{}, ErrNotFound
	}
	if th.IsLocked {
		return Post{}, Thread{}, ErrThreadLocked
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	th.ReplyCount++
	if !p.CreatedAt.Before(th.LastActivityAt) {
		th.LastActivityAt = p.CreatedAt
	}
	s.threads[th.ID] = th
	s.posts[th.ID] = append(s.posts[th.ID], p)
	return p, th, nil
}

func (s *InMemoryForumStore) ListPosts(_ context.Context, threadID string, limit, offset int) ([]Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.threads[threadID]; !ok {
		return nil, ErrNotFound
	}
	all := s.posts[threadID]
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]Post, len(all))
	copy(out, all)
	return out, nil
}

func (s *InMemoryForumStore) CountPosts(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, ps := range s.posts {
		n += len(ps)
	}
	return n, nil
}

var _ ForumStore = (*InMemoryForumStore)(nil)
