// Package aggregate maintains the denormalized per-item rating statistics
// (count, sum) that every review write funnels through. It is the only
// writer of these fields; the ranking engine consumes them read-only.
package aggregate

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the item has no aggregate row. Unknown items are
	// never auto-created or silently treated as zero.
	ErrNotFound = errors.New("aggregate: item not found")
	// ErrConflict means a concurrent structural change (item deleted
	// mid-update) prevented applying the delta safely. Callers retry once
	// with fresh state before surfacing it.
	ErrConflict = errors.New("aggregate: conflicting concurrent change")
)

// Aggregate is a consistent snapshot of one item's rating statistics.
// Count and Sum are always read and written as a pair.
type Aggregate struct {
	ItemID string
	Count  int
	Sum    float64
}

// Average is Sum/Count, or 0 for an unrated item.
func (a Aggregate) Average() float64 {
	if a.Count == 0 {
		return 0
	}
	return a.Sum / float64(a.Count)
}

// Store is the durable home of per-item rating statistics.
//
// ApplyReview folds a review mutation into the item's aggregate:
// a create passes (nil, &new), an update (&old, &new), a delete (&old, nil).
// The count delta and sum delta derived from the pair are applied
// atomically. Calls for the same item are serialized; calls for different
// items never block each other.
type Store interface {
	// Register creates the zero aggregate for a new item. Idempotent.
	Register(ctx context.Context, itemID string) error
	// Remove drops the item's aggregate.
	Remove(ctx context.Context, itemID string) error
	ApplyReview(ctx context.Context, itemID string, oldRating, newRating *float64) (Aggregate, error)
	// Read returns a snapshot with no torn count/sum pair.
	Read(ctx context.Context, itemID string) (Aggregate, error)
}

// deltas derives the (count, sum) deltas for a review mutation.
func deltas(oldRating, newRating *float64) (countDelta int, sumDelta float64) {
	if oldRating != nil {
		countDelta--
		sumDelta -= *oldRating
	}
	if newRating != nil {
		countDelta++
		sumDelta += *newRating
	}
	return countDelta, sumDelta
}
