package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an item or review does not exist. Callers
// must surface it; an unknown id is never treated as an empty record.
var ErrNotFound = errors.New("not found")

// Item is a rated catalog entry (an RPG adventure or sourcebook).
// Aggregate rating fields live in the aggregate package; the item store
// only owns descriptive metadata.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Genre       string    `json:"genre"`
	System      string    `json:"system"`
	Description string    `json:"description,omitempty"`
	IsFeatured  bool      `json:"is_featured"`
	CreatedAt   time.Time `json:"created_at"`
}

// ItemFilter narrows List results. Zero values match everything.
type ItemFilter struct {
	Genre    string
	System   string
	Search   string // case-insensitive substring match on title
	Featured *bool  // nil matches both featured and unfeatured items
	Limit    int
}

type ItemStore interface {
	Create(ctx context.Context, it Item) (Item, error)
	Get(ctx context.Context, id string) (Item, error)
	List(ctx context.Context, f ItemFilter) ([]Item, error)
	Count(ctx context.Context) (int, error)
}
