// Command generate produces a single episode and prints its record as JSON
// on stdout. Logs go to stderr so the output can be piped.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikhilbhutani/neuralnarrative/internal/config"
	"github.com/nikhilbhutani/neuralnarrative/internal/episode"
	"github.com/nikhilbhutani/neuralnarrative/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := pipeline.Build(cfg)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	rec := components.Orchestrator.Run(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		slog.Error("failed to write record", "error", err)
		os.Exit(1)
	}

	if rec.Status == episode.StatusFailed {
		os.Exit(1)
	}
}
