// Package store persists forum categories, threads and posts. Thread
// counter fields (reply_count, last_activity_at) are only written through
// InsertPost and are guarded by the tracker's per-thread lock; callers
// must not update them directly.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned for unknown category, thread or post ids.
	ErrNotFound = errors.New("not found")
	// ErrThreadLocked is returned when a post targets a locked thread.
	ErrThreadLocked = errors.New("thread locked")
)

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

// Thread carries denormalized activity counters. ReplyCount excludes the
// opening post; LastActivityAt starts at the thread's creation time and
// only ever moves forward.
type Thread struct {
	ID             string    `json:"id"`
	CategoryID     string    `json:"category_id"`
	AuthorID       string    `json:"author_id"`
	Title          string    `json:"title"`
	IsPinned       bool      `json:"is_pinned"`
	IsLocked       bool      `json:"is_locked"`
	ReplyCount     int       `json:"reply_count"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
}

type Post struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ForumStore interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (Category, error)

	// CreateThread inserts the thread and its opening post together. The
	// opening post does not count as a reply.
	CreateThread(ctx context.Context, th Thread, opening Post) (Thread, error)
	GetThread(ctx context.Context, id string) (Thread, error)
	// ListThreads orders pinned threads first, then by most recent
	// activity.
	ListThreads(ctx context.Context, categoryID string, limit, offset int) ([]Thread, error)
	SetThreadLocked(ctx context.Context, id string, locked bool) (Thread, error)
	SetThreadPinned(ctx context.Context, id string, pinned bool) (Thread, error)

	// InsertPost appends a reply and updates the parent thread's counters
	// in the same logical transaction: reply_count increments by one and
	// last_activity_at takes the post's createdAt only when it is not
	// earlier than the current value. A locked thread rejects the post
	// with ErrThreadLocked and leaves both counters untouched.
	InsertPost(ctx context.Context, p Post) (Post, Thread, error)
	ListPosts(ctx context.Context, threadID string, limit, offset int) ([]Post, error)
	CountPosts(ctx context.Context) (int, error)
}
