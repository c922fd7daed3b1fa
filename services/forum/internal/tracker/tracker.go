// Package tracker owns the forum thread activity counters. All counter
// mutations for one thread pass through a per-thread critical section, so
// the reply count and last-activity timestamp always move together
// regardless of the storage backend underneath.
package tracker

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/rpg-platform/internal/platform/events"
	"github.com/example/rpg-platform/internal/platform/keylock"
	"github.com/example/rpg-platform/services/forum/internal/store"
)

// ErrEmptyContent rejects posts and opening messages whose content is
// empty after trimming.
var ErrEmptyContent = errors.New("empty content")

// ThreadSummary is the consistent counter pair returned to readers.
type ThreadSummary struct {
	ThreadID       string    `json:"thread_id"`
	ReplyCount     int       `json:"reply_count"`
	LastActivityAt time.Time `json:"last_activity_at"`
	IsLocked       bool      `json:"is_locked"`
	IsPinned       bool      `json:"is_pinned"`
}

type Tracker struct {
	store store.ForumStore
	locks *keylock.Table
	pub   *events.Publisher
	log   *zap.Logger
}

type Options struct {
	Store     store.ForumStore
	Publisher *events.Publisher
	Logger    *zap.Logger
}

func New(opts Options) *Tracker {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		store: opts.Store,
		locks: keylock.New(),
		pub:   opts.Publisher,
		log:   log,
	}
}

// CreateThread opens a new thread with its first post. The opening post
// does not count as a reply; the thread starts with ReplyCount 0 and
// LastActivityAt equal to its creation time.
func (t *Tracker) CreateThread(ctx context.Context, th store.Thread, openingContent string) (store.Thread, error) {
	openingContent = strings.TrimSpace(openingContent)
	if openingContent == "" {
		return store.Thread{}, ErrEmptyContent
	}
	if strings.TrimSpace(th.Title) == "" {
		return store.Thread{}, ErrEmptyContent
	}

	created, err := t.store.CreateThread(ctx, th, store.Post{
		AuthorID: th.AuthorID,
		Content:  openingContent,
	})
	if err != nil {
		return store.Thread{}, err
	}

	t.pub.Publish(events.SubjectForumPostCreated, "forum_post_created", th.AuthorID, map[string]any{
		"thread_id":   created.ID,
		"category_id": created.CategoryID,
		"opening":     true,
	})
	return created, nil
}

// RecordPost appends a reply under the thread's critical section and
// returns the post together with the updated counters. A zero CreatedAt
// means "now"; an explicit older timestamp still increments the reply
// count but never moves LastActivityAt backward.
func (t *Tracker) RecordPost(ctx context.Context, p store.Post) (store.Post, ThreadSummary, error) {
	p.Content = strings.TrimSpace(p.Content)
	if p.Content == "" {
		return store.Post{}, ThreadSummary{}, ErrEmptyContent
	}

	unlock := t.locks.Lock("thread:" + p.ThreadID)
	defer unlock()

	created, th, err := t.store.InsertPost(ctx, p)
	if err != nil {
		return store.Post{}, ThreadSummary{}, err
	}

	t.pub.Publish(events.SubjectForumPostCreated, "forum_post_created", created.AuthorID, map[string]any{
		"thread_id": created.ThreadID,
		"post_id":   created.ID,
	})
	return created, summarize(th), nil
}

// Describe returns a read-only counter snapshot for one thread.
func (t *Tracker) Describe(ctx context.Context, threadID string) (ThreadSummary, error) {
	th, err := t.store.GetThread(ctx, threadID)
	if err != nil {
		return ThreadSummary{}, err
	}
	return summarize(th), nil
}

// SetLocked flips the thread's moderation state. Taking the thread lock
// here keeps the transition ordered against in-flight RecordPost calls.
func (t *Tracker) SetLocked(ctx context.Context, threadID string, locked bool) (store.Thread, error) {
	unlock := t.locks.Lock("thread:" + threadID)
	defer unlock()

	return t.store.SetThreadLocked(ctx, threadID, locked)
}

// SetPinned flips the display-order hint. Pinning is metadata only and
// does not touch counters.
func (t *Tracker) SetPinned(ctx context.Context, threadID string, pinned bool) (store.Thread, error) {
	return t.store.SetThreadPinned(ctx, threadID, pinned)
}

func summarize(th store.Thread) ThreadSummary {
	return ThreadSummary{
		ThreadID:       th.ID,
		ReplyCount:     th.ReplyCount,
		LastActivityAt: th.LastActivityAt,
		IsLocked:       th.IsLocked,
		IsPinned:       th.IsPinned,
	}
}
