// Package config holds the reviews service configuration. Ranking priors
// are process-wide and immutable after startup; changing them requires a
// restart and a full bucket rebuild.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/example/rpg-platform/internal/platform/config"
)

// Ranking carries the Bayesian prior and the accepted rating scale.
type Ranking struct {
	PriorMean   float64 // m: expected average rating across the corpus
	PriorWeight float64 // C: phantom reviews at the prior mean
	RatingMin   float64
	RatingMax   float64
}

type Config struct {
	Ranking      Ranking
	CacheBackend string        // "memory", "redis" or "none"
	CacheTTL     time.Duration // per-entry expiry for ranking query results
	RedisURL     string
	StatsRefresh time.Duration // staleness tolerance for the stats snapshot
}

func Load() (Config, error) {
	cfg := Config{
		Ranking: Ranking{
			PriorMean:   envFloat("RANKING_PRIOR_MEAN", 3.0),
			PriorWeight: envFloat("RANKING_PRIOR_WEIGHT", 5.0),
			RatingMin:   envFloat("RATING_MIN", 1.0),
			RatingMax:   envFloat("RATING_MAX", 5.0),
		},
		CacheBackend: config.Getenv("RANKINGS_CACHE_BACKEND"),
		CacheTTL:     envDuration("RANKINGS_CACHE_TTL", 60*time.Second),
		RedisURL:     config.Getenv("REDIS_URL"),
		StatsRefresh: envDuration("STATS_REFRESH_INTERVAL", 30*time.Second),
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "memory"
	}

	r := cfg.Ranking
	if r.RatingMin >= r.RatingMax {
		return Config{}, fmt.Errorf("RATING_MIN (%v) must be below RATING_MAX (%v)", r.RatingMin, r.RatingMax)
	}
	if r.PriorMean < r.RatingMin || r.PriorMean > r.RatingMax {
		return Config{}, fmt.Errorf("RANKING_PRIOR_MEAN (%v) must fall within the rating scale [%v, %v]", r.PriorMean, r.RatingMin, r.RatingMax)
	}
	// zero-review items score (C*m + 0) / (C + 0); C must be positive or
	// that expression is 0/0
	if r.PriorWeight <= 0 {
		return Config{}, fmt.Errorf("RANKING_PRIOR_WEIGHT (%v) must be positive", r.PriorWeight)
	}
	if cfg.CacheBackend == "redis" && cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL is required when RANKINGS_CACHE_BACKEND=redis")
	}
	return cfg, nil
}

func envFloat(key string, fallback float64) float64 {
	v := config.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := config.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
