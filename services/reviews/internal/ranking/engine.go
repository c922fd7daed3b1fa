// Package ranking keeps the ordered genre buckets consumed by the
// rankings endpoints. Scores are Bayesian-adjusted so sparsely reviewed
// items regress toward the configured prior mean instead of sitting at
// the extremes on a single rating.
package ranking

import (
	"sort"
	"sync"
)

// Overall is the reserved bucket holding every item regardless of genre.
const Overall = "overall"

// Config is the process-wide prior, fixed at startup.
type Config struct {
	PriorMean   float64 // m
	PriorWeight float64 // C
}

// Entry is one item's position material inside a bucket.
type Entry struct {
	ItemID        string  `json:"item_id"`
	Genre         string  `json:"genre"`
	RatingCount   int     `json:"rating_count"`
	RatingSum     float64 `json:"rating_sum"`
	AverageRating float64 `json:"average_rating"`
	BayesianScore float64 `json:"bayesian_score"`
}

// Engine owns the bucket contents. It treats aggregates as read-only
// input: callers push changes through OnAggregateChanged after every
// aggregate write.
type Engine struct {
	cfg Config

	mu      sync.RWMutex
	buckets map[string][]Entry
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, buckets: make(map[string][]Entry)}
}

// Score computes (C*m + sum) / (C + count). With count=0 this is exactly
// the prior mean; as count grows it converges to the plain average.
func (e *Engine) Score(count int, sum float64) float64 {
	return (e.cfg.PriorWeight*e.cfg.PriorMean + sum) / (e.cfg.PriorWeight + float64(count))
}

// OnAggregateChanged repositions the item inside its genre bucket and the
// overall bucket. The remove+insert pair happens under one write lock, so
// readers never observe the item missing or present twice.
func (e *Engine) OnAggregateChanged(itemID, genre string, count int, sum float64) {
	ent := Entry{
		ItemID:        itemID,
		Genre:         genre,
		RatingCount:   count,
		RatingSum:     sum,
		BayesianScore: e.Score(count, sum),
	}
	if count > 0 {
		ent.AverageRating = sum / float64(count)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.repositionLocked(Overall, ent)
	if genre != "" && genre != Overall {
		e.repositionLocked(genre, ent)
	}
}

// Remove drops the item from its genre bucket and the overall bucket.
func (e *Engine) Remove(itemID, genre string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buckets[Overall] = removeEntry(e.buckets[Overall], itemID)
	if genre != "" && genre != Overall {
		e.buckets[genre] = removeEntry(e.buckets[genre], itemID)
	}
}

// Query returns a copy of the bucket slice [offset, offset+limit).
// An unknown or empty genre yields an empty result, not an error; genre
// fallback is the caller's policy.
func (e *Engine) Query(genre string, limit, offset int) []Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	b := e.buckets[genre]
	if offset < 0 {
		offset = 0
	}
	if offset >= len(b) || limit <= 0 {
		return []Entry{}
	}
	end := offset + limit
	if end > len(b) {
		end = len(b)
	}
	out := make([]Entry, end-offset)
	copy(out, b[offset:end])
	return out
}

// Len reports the bucket size. Len(Overall) equals the catalog size since
// every item enters the overall bucket at registration.
func (e *Engine) Len(genre string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.buckets[genre])
}

func (e *Engine) repositionLocked(bucket string, ent Entry) {
	b := removeEntry(e.buckets[bucket], ent.ItemID)
	i := sort.Search(len(b), func(i int) bool { return ranksBefore(ent, b[i]) })
	b = append(b, Entry{})
	copy(b[i+1:], b[i:])
	b[i] = ent
	e.buckets[bucket] = b
}

func removeEntry(b []Entry, itemID string) []Entry {
	for i := range b {
		if b[i].ItemID == itemID {
			return append(b[:i], b[i+1:]...)
		}
	}
	return b
}

// ranksBefore defines the bucket's strict total order: bayesianScore
// descending, then ratingCount descending, then itemID ascending. Two
// distinct items never compare equal, so replaying the same aggregate
// history always yields identical bucket contents.
func ranksBefore(a, b Entry) bool {
	if a.BayesianScore != b.BayesianScore {
		return a.BayesianScore > b.BayesianScore
	}
	if a.RatingCount != b.RatingCount {
		return a.RatingCount > b.RatingCount
	}
	return a.ItemID < b.ItemID
}
