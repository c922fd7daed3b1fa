// Package events provides a fire-and-forget NATS publisher for the
// platform's business events. Services that mutate review or forum state
// import this package; consumers subscribe to the subjects below.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject constants for every event type.
const (
	SubjectReviewUpserted     = "reviews.review.upserted"
	SubjectReviewDeleted      = "reviews.review.deleted"
	SubjectForumPostCreated   = "forum.post.created"
	SubjectRankingsInvalidate = "rankings.invalidate"
)

// Event is the canonical envelope sent to every subject except
// rankings.invalidate, which carries a bare genre string for cheap
// fan-out to per-replica caches.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	UserID     string         `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Publisher publishes events to core NATS.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	nc  *nats.Conn
	log *zap.Logger
}

// New creates a Publisher over an existing connection.
// Pass nc=nil to get a no-op stub (useful in tests and services without NATS).
func New(nc *nats.Conn, log *zap.Logger) *Publisher {
	return &Publisher{nc: nc, log: log}
}

// Publish sends an event asynchronously (fire-and-forget).
// Failures are logged as warnings and never surface to the caller.
// Safe to call with a nil receiver.
func (p *Publisher) Publish(subject, eventName, userID string, props map[string]any) {
	if p == nil || p.nc == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Properties: props,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

// PublishRaw sends an unenveloped payload, used for cache invalidation
// where subscribers only need the affected key.
func (p *Publisher) PublishRaw(subject string, payload []byte) {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Publish(subject, payload); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
