package ranking

import (
	"context"
	"testing"
	"time"
)

func TestTTLCache_SetGet(t *testing.T) {
	c := NewTTLCache(time.Minute, nil, "")
	ctx := context.Background()

	_, gen, ok := c.Get(ctx, "fantasy", 10, 0)
	if ok {
		t.Fatal("expected miss on empty cache")
	}

	entries := []Entry{{ItemID: "item-1", Genre: "fantasy", BayesianScore: 3.5}}
	c.Set(ctx, "fantasy", 10, 0, gen, entries)

	got, _, ok := c.Get(ctx, "fantasy", 10, 0)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if len(got) != 1 || got[0].ItemID != "item-1" {
		t.Fatalf("unexpected cached entries: %+v", got)
	}
}

func TestTTLCache_KeyIncludesLimitAndOffset(t *testing.T) {
	c := NewTTLCache(time.Minute, nil, "")
	ctx := context.Background()

	_, gen, _ := c.Get(ctx, "fantasy", 10, 0)
	c.Set(ctx, "fantasy", 10, 0, gen, []Entry{{ItemID: "a"}})
	if _, _, ok := c.Get(ctx, "fantasy", 10, 5); ok {
		t.Fatal("different offset must not hit the same key")
	}
	if _, _, ok := c.Get(ctx, "fantasy", 20, 0); ok {
		t.Fatal("different limit must not hit the same key")
	}
}

func TestTTLCache_Expiry(t *testing.T) {
	c := NewTTLCache(10*time.Millisecond, nil, "")
	ctx := context.Background()

	_, gen, _ := c.Get(ctx, "fantasy", 10, 0)
	c.Set(ctx, "fantasy", 10, 0, gen, []Entry{{ItemID: "a"}})
	time.Sleep(30 * time.Millisecond)
	if _, _, ok := c.Get(ctx, "fantasy", 10, 0); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestTTLCache_InvalidateDropsWholeGenre(t *testing.T) {
	c := NewTTLCache(time.Minute, nil, "")
	ctx := context.Background()

	fill := func(genre string, limit, offset int, entries []Entry) {
		_, gen, _ := c.Get(ctx, genre, limit, offset)
		c.Set(ctx, genre, limit, offset, gen, entries)
	}
	fill("fantasy", 10, 0, []Entry{{ItemID: "a"}})
	fill("fantasy", 10, 10, []Entry{{ItemID: "b"}})
	fill(Overall, 10, 0, []Entry{{ItemID: "a"}})
	fill("horror", 10, 0, []Entry{{ItemID: "c"}})

	c.Invalidate(ctx, "fantasy", Overall)

	if _, _, ok := c.Get(ctx, "fantasy", 10, 0); ok {
		t.Fatal("expected fantasy page 1 invalidated")
	}
	if _, _, ok := c.Get(ctx, "fantasy", 10, 10); ok {
		t.Fatal("expected fantasy page 2 invalidated")
	}
	if _, _, ok := c.Get(ctx, Overall, 10, 0); ok {
		t.Fatal("expected overall invalidated")
	}
	if _, _, ok := c.Get(ctx, "horror", 10, 0); !ok {
		t.Fatal("expected untouched genre to survive invalidation")
	}
}

func TestTTLCache_DropsFillFromSupersededGeneration(t *testing.T) {
	c := NewTTLCache(time.Minute, nil, "")
	ctx := context.Background()

	// a reader misses and captures the generation, then a writer
	// invalidates the genre before the reader stores its result
	_, gen, ok := c.Get(ctx, "fantasy", 10, 0)
	if ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Invalidate(ctx, "fantasy")

	c.Set(ctx, "fantasy", 10, 0, gen, []Entry{{ItemID: "pre-write"}})
	if _, _, ok := c.Get(ctx, "fantasy", 10, 0); ok {
		t.Fatal("stale fill must be dropped, not served")
	}

	// a fill under the current generation still lands
	_, gen, _ = c.Get(ctx, "fantasy", 10, 0)
	c.Set(ctx, "fantasy", 10, 0, gen, []Entry{{ItemID: "post-write"}})
	got, _, ok := c.Get(ctx, "fantasy", 10, 0)
	if !ok || got[0].ItemID != "post-write" {
		t.Fatalf("expected current-generation fill to be served, got %+v ok=%v", got, ok)
	}
}

func TestTTLCache_InvalidationOnlyBumpsNamedGenres(t *testing.T) {
	c := NewTTLCache(time.Minute, nil, "")
	ctx := context.Background()

	_, genHorror, _ := c.Get(ctx, "horror", 10, 0)
	c.Invalidate(ctx, "fantasy")

	c.Set(ctx, "horror", 10, 0, genHorror, []Entry{{ItemID: "c"}})
	if _, _, ok := c.Get(ctx, "horror", 10, 0); !ok {
		t.Fatal("fill for an untouched genre must not be dropped")
	}
}

// TestCacheInterface ensures both implementations satisfy the interface.
func TestCacheInterface(t *testing.T) {
	var _ Cache = (*TTLCache)(nil)
	var _ Cache = (*RedisCache)(nil)
}
