package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/neuralnarrative/internal/episode"
	"github.com/nikhilbhutani/neuralnarrative/internal/queue"
)

// Runner produces one episode.
type Runner interface {
	Run(ctx context.Context) episode.Record
}

type EpisodeWorker struct {
	runner Runner
}

func NewEpisodeWorker(runner Runner) *EpisodeWorker {
	return &EpisodeWorker{runner: runner}
}

func (w *EpisodeWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.EpisodeGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	slog.Info("generating episode", "trigger", payload.Trigger, "requested_at", payload.RequestedAt)

	rec := w.runner.Run(ctx)

	if rw := t.ResultWriter(); rw != nil {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := rw.Write(data); err != nil {
			slog.Warn("failed to store task result", "task_id", rw.TaskID(), "error", err)
		}
	}

	if rec.Status == episode.StatusFailed {
		return fmt.Errorf("episode %s failed: %v: %w", rec.ID, rec.Notes, asynq.SkipRetry)
	}

	slog.Info("episode generated", "episode_id", rec.ID, "status", rec.Status)
	return nil
}
