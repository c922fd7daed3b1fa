package main

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/rpg-platform/internal/platform/auth"
	"github.com/example/rpg-platform/internal/platform/config"
	"github.com/example/rpg-platform/internal/platform/db"
	"github.com/example/rpg-platform/internal/platform/events"
	"github.com/example/rpg-platform/internal/platform/httpserver"
	"github.com/example/rpg-platform/internal/platform/logging"
	"github.com/example/rpg-platform/internal/platform/natsconn"
	"github.com/example/rpg-platform/internal/platform/run"
	"github.com/example/rpg-platform/services/reviews/internal/aggregate"
	reviewsconfig "github.com/example/rpg-platform/services/reviews/internal/config"
	"github.com/example/rpg-platform/services/reviews/internal/handlers"
	"github.com/example/rpg-platform/services/reviews/internal/ranking"
	"github.com/example/rpg-platform/services/reviews/internal/service"
	"github.com/example/rpg-platform/services/reviews/internal/stats"
	"github.com/example/rpg-platform/services/reviews/internal/store"
	"github.com/example/rpg-platform/services/reviews/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	svcCfg, err := reviewsconfig.Load()
	if err != nil {
		log.Error("load reviews config", zap.Error(err))
		run.Exit(1)
	}

	items, reviews, aggregates, pool := initStores(cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	nc, err := natsconn.Connect(natsconn.Options{})
	if err != nil {
		log.Warn("nats connect, events disabled", zap.Error(err))
		nc = nil
	} else {
		defer nc.Close()
	}
	publisher := events.New(nc, log)

	engine := ranking.NewEngine(ranking.Config{
		PriorMean:   svcCfg.Ranking.PriorMean,
		PriorWeight: svcCfg.Ranking.PriorWeight,
	})
	if err := seedEngine(context.Background(), engine, items, aggregates); err != nil {
		log.Error("seed ranking engine", zap.Error(err))
		run.Exit(1)
	}

	cache, err := initCache(svcCfg, nc, log)
	if err != nil {
		log.Error("init rankings cache", zap.Error(err))
		run.Exit(1)
	}

	svc := service.New(service.Options{
		Ranking:    svcCfg.Ranking,
		Items:      items,
		Reviews:    reviews,
		Aggregates: aggregates,
		Engine:     engine,
		Cache:      cache,
		Publisher:  publisher,
		Logger:     log,
	})

	posts := worker.NewPostCounter()
	seedPostCounter(context.Background(), posts, pool, log)
	projector := stats.New(engine, reviews, posts, svcCfg.StatsRefresh)

	verifier := auth.JWTVerifier{Secret: []byte(config.Getenv("JWT_SECRET"))}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: func() error {
		if pool != nil {
			return pool.Ping(context.Background())
		}
		return nil
	}})

	r.Get("/v1/items", handlers.ListItems(items))
	r.Get("/v1/items/{item_id}", handlers.GetItem(items, svc))
	r.Get("/v1/items/{item_id}/ratings", handlers.GetItemRatings(svc, reviews))
	r.Get("/v1/rankings/{genre}", handlers.GetRankings(svc))
	r.Get("/v1/reviews", handlers.RecentReviews(reviews))
	r.Get("/v1/stats", handlers.GetStats(projector))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Put("/v1/items/{item_id}/review", handlers.SubmitReview(svc))
		r.Delete("/v1/items/{item_id}/review", handlers.DeleteReview(svc))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/v1/items", handlers.CreateItem(svc))
		})
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if nc != nil {
			go worker.StartPostCreatedConsumer(ctx, nc, posts, log)
		}
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStores picks Postgres-backed stores when DATABASE_URL is set,
// otherwise falls back to in-memory ones. Production refuses to run
// without a database.
func initStores(cfg config.AppConfig, log *zap.Logger) (store.ItemStore, store.ReviewStore, aggregate.Store, *pgxpool.Pool) {
	pool, err := db.Open(context.Background())
	if err != nil {
		if cfg.IsProduction() {
			log.Error("db open", zap.Error(err))
			run.Exit(1)
		}
		log.Warn("db unavailable, using in-memory stores", zap.Error(err))
		return store.NewInMemoryItemStore(), store.NewInMemoryReviewStore(), aggregate.NewMemoryStore(), nil
	}
	log.Info("using postgres stores")
	return store.NewPostgresItemStore(pool), store.NewPostgresReviewStore(pool), aggregate.NewPostgresStore(pool), pool
}

func initCache(cfg reviewsconfig.Config, nc *nats.Conn, log *zap.Logger) (ranking.Cache, error) {
	switch cfg.CacheBackend {
	case "none":
		return nil, nil
	case "redis":
		c, err := ranking.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		log.Info("rankings cache: redis")
		return c, nil
	default:
		log.Info("rankings cache: in-process", zap.Duration("ttl", cfg.CacheTTL))
		return ranking.NewTTLCache(cfg.CacheTTL, nc, events.SubjectRankingsInvalidate), nil
	}
}

// seedEngine rebuilds the in-memory ranking buckets from the persisted
// aggregates so restarts do not lose standings.
func seedEngine(ctx context.Context, engine *ranking.Engine, items store.ItemStore, aggregates aggregate.Store) error {
	all, err := items.List(ctx, store.ItemFilter{})
	if err != nil {
		return err
	}
	for _, it := range all {
		agg, err := aggregates.Read(ctx, it.ID)
		if err != nil {
			return err
		}
		engine.OnAggregateChanged(it.ID, it.Genre, agg.Count, agg.Sum)
	}
	return nil
}

// seedPostCounter initializes the forum post total from the shared
// database; live updates arrive over NATS afterwards.
func seedPostCounter(ctx context.Context, posts *worker.PostCounter, pool *pgxpool.Pool, log *zap.Logger) {
	if pool == nil {
		return
	}
	var n int64
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM forum_posts`).Scan(&n); err != nil {
		log.Warn("seed forum post count", zap.Error(err))
		return
	}
	posts.Seed(n)
}
