package store

import (
	"context"
	"time"
)

// Review is one author's active rating of one item. The store enforces a
// single active review per (author, item) pair: a second submit for the
// same pair overwrites the first.
type Review struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	ItemID    string    `json:"item_id"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ReviewStore interface {
	// Get returns the active review for the pair, if any.
	Get(ctx context.Context, authorID, itemID string) (Review, bool, error)
	// Upsert creates or overwrites the pair's review. old is the previous
	// rating when one existed; the caller feeds it to the aggregate store
	// so the inverse delta is applied before the new one.
	Upsert(ctx context.Context, r Review) (old *float64, saved Review, err error)
	// Delete removes the pair's review and returns its rating.
	// ErrNotFound when no active review exists.
	Delete(ctx context.Context, authorID, itemID string) (old float64, err error)
	// ListRecent returns reviews ordered by createdAt descending.
	ListRecent(ctx context.Context, limit int) ([]Review, error)
	Count(ctx context.Context) (int, error)
	CountDistinctAuthors(ctx context.Context) (int, error)
}
