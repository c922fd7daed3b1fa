// Package service composes the review store, the aggregate store, the
// ranking engine and the ranking cache into the operations the handlers
// expose. Every mutation for one item runs inside that item's critical
// section, so a successful return is immediately visible to every
// subsequent read or ranking query.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/rpg-platform/internal/platform/events"
	"github.com/example/rpg-platform/internal/platform/keylock"
	"github.com/example/rpg-platform/services/reviews/internal/aggregate"
	"github.com/example/rpg-platform/services/reviews/internal/config"
	"github.com/example/rpg-platform/services/reviews/internal/ranking"
	"github.com/example/rpg-platform/services/reviews/internal/store"
)

// ErrInvalidRating is returned for ratings outside the configured scale.
var ErrInvalidRating = errors.New("rating out of bounds")

// Summary is the item rating state returned to the caller after a
// review write or a summary read.
type Summary struct {
	ItemID        string  `json:"item_id"`
	RatingCount   int     `json:"rating_count"`
	AverageRating float64 `json:"average_rating"`
	BayesianScore float64 `json:"bayesian_score"`
}

type Service struct {
	cfg        config.Ranking
	items      store.ItemStore
	reviews    store.ReviewStore
	aggregates aggregate.Store
	engine     *ranking.Engine
	cache      ranking.Cache // nil disables caching
	pub        *events.Publisher
	locks      *keylock.Table
	log        *zap.Logger
}

type Options struct {
	Ranking    config.Ranking
	Items      store.ItemStore
	Reviews    store.ReviewStore
	Aggregates aggregate.Store
	Engine     *ranking.Engine
	Cache      ranking.Cache
	Publisher  *events.Publisher
	Logger     *zap.Logger
}

func New(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		cfg:        opts.Ranking,
		items:      opts.Items,
		reviews:    opts.Reviews,
		aggregates: opts.Aggregates,
		engine:     opts.Engine,
		cache:      opts.Cache,
		pub:        opts.Publisher,
		locks:      keylock.New(),
		log:        log,
	}
}

// CreateItem inserts the catalog entry, registers its zero aggregate and
// seats it in the ranking buckets at the prior mean.
func (s *Service) CreateItem(ctx context.Context, it store.Item) (store.Item, error) {
	created, err := s.items.Create(ctx, it)
	if err != nil {
		return store.Item{}, err
	}
	if err := s.aggregates.Register(ctx, created.ID); err != nil {
		return store.Item{}, fmt.Errorf("register aggregate: %w", err)
	}
	s.engine.OnAggregateChanged(created.ID, created.Genre, 0, 0)
	s.invalidateRankings(ctx, created.Genre)
	return created, nil
}

// SubmitReview creates or overwrites the author's review for the item.
// A second submit for the same (author, item) pair is an update: the old
// rating's inverse delta and the new rating's delta are applied to the
// aggregate as one atomic step.
func (s *Service) SubmitReview(ctx context.Context, authorID, itemID string, rating float64) (Summary, error) {
	if rating < s.cfg.RatingMin || rating > s.cfg.RatingMax {
		return Summary{}, fmt.Errorf("%w: %v not in [%v, %v]",
			ErrInvalidRating, rating, s.cfg.RatingMin, s.cfg.RatingMax)
	}

	unlock := s.locks.Lock("item:" + itemID)
	defer unlock()

	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return Summary{}, err
	}

	old, _, err := s.reviews.Upsert(ctx, store.Review{AuthorID: authorID, ItemID: itemID, Rating: rating})
	if err != nil {
		return Summary{}, err
	}

	agg, err := s.applyWithRetry(ctx, itemID, old, &rating)
	if err != nil {
		s.revertReview(ctx, authorID, itemID, old)
		return Summary{}, err
	}

	s.engine.OnAggregateChanged(itemID, item.Genre, agg.Count, agg.Sum)
	s.invalidateRankings(ctx, item.Genre)
	s.pub.Publish(events.SubjectReviewUpserted, "review_upserted", authorID, map[string]any{
		"item_id": itemID,
		"rating":  rating,
	})
	return s.summarize(agg), nil
}

// DeleteReview removes the author's active review and applies the
// inverse delta to the item's aggregate.
func (s *Service) DeleteReview(ctx context.Context, authorID, itemID string) (Summary, error) {
	unlock := s.locks.Lock("item:" + itemID)
	defer unlock()

	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return Summary{}, err
	}

	old, err := s.reviews.Delete(ctx, authorID, itemID)
	if err != nil {
		return Summary{}, err
	}

	agg, err := s.applyWithRetry(ctx, itemID, &old, nil)
	if err != nil {
		// restore the deleted review so the failed call leaves no trace
		s.revertReview(ctx, authorID, itemID, &old)
		return Summary{}, err
	}

	s.engine.OnAggregateChanged(itemID, item.Genre, agg.Count, agg.Sum)
	s.invalidateRankings(ctx, item.Genre)
	s.pub.Publish(events.SubjectReviewDeleted, "review_deleted", authorID, map[string]any{
		"item_id": itemID,
	})
	return s.summarize(agg), nil
}

// ItemSummary reads the current aggregate without touching ranking state.
func (s *Service) ItemSummary(ctx context.Context, itemID string) (Summary, error) {
	agg, err := s.aggregates.Read(ctx, itemID)
	if err != nil {
		return Summary{}, err
	}
	return s.summarize(agg), nil
}

// Rankings serves a bucket slice, preferring the cache when enabled.
// Results are identical with the cache disabled. The miss path carries
// the generation from Get into Set so a fill computed before a
// concurrent write cannot overwrite that write's invalidation.
func (s *Service) Rankings(ctx context.Context, genre string, limit, offset int) []ranking.Entry {
	if limit <= 0 {
		limit = 10
	} else if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	var gen uint64
	if s.cache != nil {
		entries, g, ok := s.cache.Get(ctx, genre, limit, offset)
		if ok {
			return entries
		}
		gen = g
	}
	entries := s.engine.Query(genre, limit, offset)
	if s.cache != nil && len(entries) > 0 {
		s.cache.Set(ctx, genre, limit, offset, gen, entries)
	}
	return entries
}

// applyWithRetry applies the aggregate delta, retrying a Conflict once
// against fresh state before surfacing it.
func (s *Service) applyWithRetry(ctx context.Context, itemID string, oldRating, newRating *float64) (aggregate.Aggregate, error) {
	agg, err := s.aggregates.ApplyReview(ctx, itemID, oldRating, newRating)
	if !errors.Is(err, aggregate.ErrConflict) {
		return agg, err
	}

	s.log.Warn("aggregate conflict, retrying once", zap.String("item_id", itemID))
	if _, err := s.items.Get(ctx, itemID); err != nil {
		return aggregate.Aggregate{}, err
	}
	return s.aggregates.ApplyReview(ctx, itemID, oldRating, newRating)
}

// revertReview undoes a review-store mutation after a later step failed,
// so partial application is never observable. Runs inside the item's
// critical section.
func (s *Service) revertReview(ctx context.Context, authorID, itemID string, old *float64) {
	var err error
	if old == nil {
		_, err = s.reviews.Delete(ctx, authorID, itemID)
	} else {
		_, _, err = s.reviews.Upsert(ctx, store.Review{AuthorID: authorID, ItemID: itemID, Rating: *old})
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.log.Error("review revert failed", zap.String("item_id", itemID), zap.Error(err))
	}
}

func (s *Service) invalidateRankings(ctx context.Context, genre string) {
	genres := []string{ranking.Overall}
	if genre != "" && genre != ranking.Overall {
		genres = append(genres, genre)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, genres...)
	}
	for _, g := range genres {
		s.pub.PublishRaw(events.SubjectRankingsInvalidate, []byte(g))
	}
}

func (s *Service) summarize(agg aggregate.Aggregate) Summary {
	return Summary{
		ItemID:        agg.ItemID,
		RatingCount:   agg.Count,
		AverageRating: agg.Average(),
		BayesianScore: s.engine.Score(agg.Count, agg.Sum),
	}
}
