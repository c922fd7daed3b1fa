package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache shared across replicas. The genre generation is
// part of every value key, so Invalidate is a single INCR: superseded
// pages become unreachable immediately and expire on their own TTL, and
// a stale fill lands on a dead key instead of resurrecting old data.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &RedisCache{client: redis.NewClient(opt), ttl: ttl}, nil
}

func genKey(genre string) string {
	return "rankings:gen:" + genre
}

func valueKey(gen uint64, genre string, limit, offset int) string {
	return fmt.Sprintf("rankings:%d:%s", gen, cacheKey(genre, limit, offset))
}

// generation reads the genre's current generation; a missing key is
// generation zero.
func (c *RedisCache) generation(ctx context.Context, genre string) (uint64, error) {
	gen, err := c.client.Get(ctx, genKey(genre)).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func (c *RedisCache) Get(ctx context.Context, genre string, limit, offset int) ([]Entry, uint64, bool) {
	gen, err := c.generation(ctx, genre)
	if err != nil {
		return nil, 0, false
	}
	val, err := c.client.Get(ctx, valueKey(gen, genre, limit, offset)).Result()
	if err != nil {
		return nil, gen, false
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		return nil, gen, false
	}
	return entries, gen, true
}

func (c *RedisCache) Set(ctx context.Context, genre string, limit, offset int, gen uint64, entries []Entry) {
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, valueKey(gen, genre, limit, offset), data, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, genres ...string) {
	for _, g := range genres {
		_ = c.client.Incr(ctx, genKey(g)).Err()
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
