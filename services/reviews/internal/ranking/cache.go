package ranking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Cache memoizes Query results. It is an optimization only: serving with
// or without a cache must produce identical sequences, differing only in
// latency. Implementations must be safe for concurrent use.
//
// Fills are generation-fenced: a miss returns the genre's current
// generation, Invalidate advances it, and Set discards any fill carrying
// a superseded generation. Without the fence a reader could sample the
// engine before a write and store that result after the write's
// invalidation, pinning the pre-write ranking until expiry.
type Cache interface {
	// Get returns the cached page on a hit. On a miss it returns the
	// generation the caller must pass to Set when storing the recomputed
	// result.
	Get(ctx context.Context, genre string, limit, offset int) ([]Entry, uint64, bool)
	Set(ctx context.Context, genre string, limit, offset int, gen uint64, entries []Entry)
	// Invalidate drops every cached entry for the given genres and
	// advances their generations. Invalidation is by key removal, never
	// by value patch.
	Invalidate(ctx context.Context, genres ...string)
}

func cacheKey(genre string, limit, offset int) string {
	return fmt.Sprintf("%s|%d|%d", genre, limit, offset)
}

type cacheItem struct {
	entries   []Entry
	expiresAt time.Time
}

// TTLCache is an in-memory Cache with per-entry expiry and optional NATS
// genre-level invalidation, so replicas drop entries when any of them
// applies an aggregate change.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	gens  map[string]uint64
	ttl   time.Duration
}

// NewTTLCache creates a TTLCache and wires up NATS invalidation when nc
// is non-nil. The subject carries a bare genre name, or "ALL" to flush.
func NewTTLCache(ttl time.Duration, nc *nats.Conn, subj string) *TTLCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	c := &TTLCache{
		items: make(map[string]cacheItem),
		gens:  make(map[string]uint64),
		ttl:   ttl,
	}
	if nc != nil && subj != "" {
		_, _ = nc.Subscribe(subj, func(m *nats.Msg) {
			genre := string(m.Data)
			if genre == "" || strings.EqualFold(genre, "ALL") {
				c.mu.Lock()
				c.items = make(map[string]cacheItem)
				for g := range c.gens {
					c.gens[g]++
				}
				c.mu.Unlock()
				return
			}
			c.Invalidate(context.Background(), genre)
		})
	}
	return c
}

func (c *TTLCache) Get(_ context.Context, genre string, limit, offset int) ([]Entry, uint64, bool) {
	key := cacheKey(genre, limit, offset)
	c.mu.RLock()
	it, ok := c.items[key]
	gen := c.gens[genre]
	c.mu.RUnlock()
	if !ok {
		return nil, gen, false
	}
	if time.Now().After(it.expiresAt) {
		c.mu.Lock()
		if cur, ok2 := c.items[key]; ok2 && time.Now().After(cur.expiresAt) {
			delete(c.items, key)
		}
		gen = c.gens[genre]
		c.mu.Unlock()
		return nil, gen, false
	}
	return it.entries, gen, true
}

// Set stores the page unless the genre's generation moved past gen, in
// which case the fill is stale and dropped.
func (c *TTLCache) Set(_ context.Context, genre string, limit, offset int, gen uint64, entries []Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[genre] != gen {
		return
	}
	c.items[cacheKey(genre, limit, offset)] = cacheItem{entries: entries, expiresAt: time.Now().Add(c.ttl)}
}

func (c *TTLCache) Invalidate(_ context.Context, genres ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range genres {
		c.gens[g]++
		prefix := g + "|"
		for key := range c.items {
			if strings.HasPrefix(key, prefix) {
				delete(c.items, key)
			}
		}
	}
}
