package main

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/example/rpg-platform/internal/platform/auth"
	"github.com/example/rpg-platform/internal/platform/config"
	"github.com/example/rpg-platform/internal/platform/db"
	"github.com/example/rpg-platform/internal/platform/events"
	"github.com/example/rpg-platform/internal/platform/httpserver"
	"github.com/example/rpg-platform/internal/platform/logging"
	"github.com/example/rpg-platform/internal/platform/natsconn"
	"github.com/example/rpg-platform/internal/platform/run"
	"github.com/example/rpg-platform/services/forum/internal/handlers"
	"github.com/example/rpg-platform/services/forum/internal/store"
	"github.com/example/rpg-platform/services/forum/internal/tracker"
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

	st, pool := initStore(cfg, log)
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

	tr := tracker.New(tracker.Options{
		Store:     st,
		Publisher: events.New(nc, log),
		Logger:    log,
	})

	verifier := auth.JWTVerifier{Secret: []byte(config.Getenv("JWT_SECRET"))}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: func() error {
		if pool != nil {
			return pool.Ping(context.Background())
		}
		return nil
	}})

	r.Get("/v1/forum/categories", handlers.ListCategories(st))
	r.Get("/v1/forum/categories/{category_id}", handlers.GetCategory(st))
	r.Get("/v1/forum/categories/{category_id}/threads", handlers.ListThreads(st))
	r.Get("/v1/forum/threads/{thread_id}", handlers.GetThread(st, tr))
	r.Get("/v1/forum/threads/{thread_id}/posts", handlers.ListPosts(st))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/forum/categories/{category_id}/threads", handlers.CreateThread(tr))
		r.Post("/v1/forum/threads/{thread_id}/posts", handlers.CreatePost(tr))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Patch("/v1/forum/threads/{thread_id}", handlers.ModerateThread(tr))
		})
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

func initStore(cfg config.AppConfig, log *zap.Logger) (store.ForumStore, *pgxpool.Pool) {
	pool, err := db.Open(context.Background())
	if err != nil {
		if cfg.IsProduction() {
			log.Error("db open", zap.Error(err))
			run.Exit(1)
		}
		log.Warn("db unavailable, using in-memory forum store", zap.Error(err))
		return store.NewInMemoryForumStore(), nil
	}
	log.Info("using postgres forum store")
	return store.NewPostgresForumStore(pool), pool
}
