// Package stats derives the site-wide display counters. It owns no
// mutable state of its own; everything is recomputed from the stores and
// memoized for a bounded interval, since these are display counters and
// staleness is a configuration choice, not a correctness concern.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/example/rpg-platform/services/reviews/internal/ranking"
	"github.com/example/rpg-platform/services/reviews/internal/store"
)

// PostCounter reports the forum post count. The reviews service feeds it
// from forum.post.created events rather than reaching into forum storage.
type PostCounter interface {
	Count(ctx context.Context) (int, error)
}

// Snapshot mirrors the shape the web client renders on the home page.
type Snapshot struct {
	RPGCount       int `json:"rpgCount"`
	ReviewCount    int `json:"reviewCount"`
	UserCount      int `json:"userCount"`
	ForumPostCount int `json:"forumPostCount"`
}

type Projector struct {
	engine  *ranking.Engine
	reviews store.ReviewStore
	posts   PostCounter
	ttl     time.Duration

	mu        sync.Mutex
	cached    Snapshot
	fetchedAt time.Time
}

// New creates a projector. ttl <= 0 disables memoization.
func New(engine *ranking.Engine, reviews store.ReviewStore, posts PostCounter, ttl time.Duration) *Projector {
	return &Projector{engine: engine, reviews: reviews, posts: posts, ttl: ttl}
}

func (p *Projector) Snapshot(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	if p.ttl > 0 && !p.fetchedAt.IsZero() && time.Since(p.fetchedAt) < p.ttl {
		snap := p.cached
		p.mu.Unlock()
		return snap, nil
	}
	p.mu.Unlock()

	snap, err := p.compute(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	p.mu.Lock()
	p.cached = snap
	p.fetchedAt = time.Now()
	p.mu.Unlock()
	return snap, nil
}

func (p *Projector) compute(ctx context.Context) (Snapshot, error) {
	reviewCount, err := p.reviews.Count(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	userCount, err := p.reviews.CountDistinctAuthors(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	postCount, err := p.posts.Count(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		// every item enters the overall bucket at registration, so the
		// bucket size is the catalog size
		RPGCount:       p.engine.Len(ranking.Overall),
		ReviewCount:    reviewCount,
		UserCount:      userCount,
		ForumPostCount: postCount,
	}, nil
}
