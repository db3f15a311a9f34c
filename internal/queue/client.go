package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/neuralnarrative/internal/config"
)

// QueueEpisodes is the queue episode tasks are enqueued on.
const QueueEpisodes = "episodes"

var ErrTaskNotFound = errors.New("task not found")

// TaskStatus is the state of an enqueued episode task. Result holds the
// JSON episode record once the task has completed.
type TaskStatus struct {
	ID          string          `json:"id"`
	State       string          `json:"state"`
	LastError   string          `json:"last_error,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	timeout   time.Duration
}

// RedisOpt converts the Redis settings into asynq connection options.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewClient returns a Client. taskTimeout bounds one episode generation.
func NewClient(cfg config.RedisConfig, taskTimeout time.Duration) *Client {
	opt := RedisOpt(cfg)
	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		timeout:   taskTimeout,
	}
}

func (c *Client) Close() error {
	return errors.Join(c.client.Close(), c.inspector.Close())
}

// EnqueueEpisodeGenerate schedules one episode generation and returns the
// task ID.
func (c *Client) EnqueueEpisodeGenerate(ctx context.Context, payload EpisodeGeneratePayload) (string, error) {
	return c.enqueue(ctx, TypeEpisodeGenerate, payload,
		asynq.Queue(QueueEpisodes),
		asynq.MaxRetry(0),
		asynq.Timeout(c.timeout),
		asynq.Retention(24*time.Hour),
	)
}

// Status reports the state of a previously enqueued episode task.
func (c *Client) Status(id string) (TaskStatus, error) {
	info, err := c.inspector.GetTaskInfo(QueueEpisodes, id)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return TaskStatus{}, ErrTaskNotFound
		}
		return TaskStatus{}, fmt.Errorf("get task info: %w", err)
	}
	return statusOf(info), nil
}

func statusOf(info *asynq.TaskInfo) TaskStatus {
	st := TaskStatus{
		ID:        info.ID,
		State:     info.State.String(),
		LastError: info.LastErr,
	}
	if !info.CompletedAt.IsZero() {
		completed := info.CompletedAt
		st.CompletedAt = &completed
	}
	if len(info.Result) > 0 && json.Valid(info.Result) {
		st.Result = info.Result
	}
	return st
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	slog.Info("task enqueued", "type", taskType, "id", info.ID, "queue", info.Queue)
	return info.ID, nil
}

// asynqLogger routes asynq's internal logging through slog.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { slog.Debug(fmt.Sprint(args...), "component", "asynq") }
func (asynqLogger) Info(args ...interface{})  { slog.Info(fmt.Sprint(args...), "component", "asynq") }
func (asynqLogger) Warn(args ...interface{})  { slog.Warn(fmt.Sprint(args...), "component", "asynq") }
func (asynqLogger) Error(args ...interface{}) { slog.Error(fmt.Sprint(args...), "component", "asynq") }

func (asynqLogger) Fatal(args ...interface{}) {
	slog.Error(fmt.Sprint(args...), "component", "asynq")
	os.Exit(1)
}
