package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/neuralnarrative/internal/api"
	"github.com/nikhilbhutani/neuralnarrative/internal/config"
	"github.com/nikhilbhutani/neuralnarrative/internal/episode"
	"github.com/nikhilbhutani/neuralnarrative/internal/pipeline"
	"github.com/nikhilbhutani/neuralnarrative/internal/queue"
	"github.com/nikhilbhutani/neuralnarrative/internal/queue/workers"
	"github.com/nikhilbhutani/neuralnarrative/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := pipeline.Build(cfg, pipeline.OnEpisode(func(rec episode.Record) {
		slog.Info("episode recorded", "episode_id", rec.ID, "status", rec.Status, "artifact", rec.ArtifactRef())
	}))
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	orch := components.Orchestrator

	deps := api.Deps{
		Generator: orch,
		History:   components.Ledger,
	}

	// Task queue (optional). The worker runs in-process so queued runs share
	// the ledger and feed with inline ones.
	var worker *asynq.Server
	if cfg.Queue.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable, queued generation will fail until it recovers", "error", err)
		}
		defer rdb.Close()

		client := queue.NewClient(cfg.Redis, cfg.RunBudget())
		defer client.Close()

		deps.Queue = client
		deps.Redis = rdb

		registry := queue.NewHandlersRegistry()
		registry.Register(queue.TypeEpisodeGenerate, asynq.HandlerFunc(workers.NewEpisodeWorker(orch).ProcessTask))

		worker = queue.NewServer(queue.RedisOpt(cfg.Redis), cfg.Queue.Concurrency)
		if err := worker.Start(registry.Mux()); err != nil {
			slog.Error("failed to start queue worker", "error", err)
			os.Exit(1)
		}
		slog.Info("queue worker started", "concurrency", cfg.Queue.Concurrency)
	}

	var daily *scheduler.Daily
	if cfg.Scheduler.Enabled {
		daily, err = scheduler.NewDaily(cfg.Scheduler.Time, time.Local, scheduler.RunnerFunc(func(ctx context.Context) {
			orch.Run(ctx)
		}))
		if err != nil {
			slog.Error("failed to create scheduler", "error", err)
			os.Exit(1)
		}
		daily.Start()
	}

	router := api.NewRouter(cfg, deps)
	go router.Limiter().Cleanup(ctx)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RunBudget(), // inline generation answers only after the whole run
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr(), "version", cfg.Server.AppVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	if daily != nil {
		if err := daily.Stop(shutdownCtx); err != nil {
			slog.Error("scheduler forced shutdown", "error", err)
		}
	}
	if worker != nil {
		worker.Shutdown()
	}
	slog.Info("server stopped")
}
