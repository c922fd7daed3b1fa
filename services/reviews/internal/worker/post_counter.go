// Package worker hosts the NATS consumers of the reviews service.
package worker

import (
	"context"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/rpg-platform/internal/platform/events"
)

// PostCounter is an in-process forum post counter maintained from
// forum.post.created events. Seed it from durable storage at startup
// when one is available; otherwise it counts from zero.
type PostCounter struct {
	n atomic.Int64
}

func NewPostCounter() *PostCounter {
	return &PostCounter{}
}

func (c *PostCounter) Seed(n int64) {
	c.n.Store(n)
}

func (c *PostCounter) Add(delta int64) {
	c.n.Add(delta)
}

func (c *PostCounter) Count(context.Context) (int, error) {
	return int(c.n.Load()), nil
}

// StartPostCreatedConsumer subscribes to forum.post.created and bumps the
// counter for each event. The subscription is dropped when ctx ends.
func StartPostCreatedConsumer(ctx context.Context, nc *nats.Conn, counter *PostCounter, log *zap.Logger) {
	sub, err := nc.Subscribe(events.SubjectForumPostCreated, func(_ *nats.Msg) {
		counter.Add(1)
	})
	if err != nil {
		log.Error("post counter: subscribe", zap.Error(err))
		return
	}
	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
}
