package queue

import (
	"github.com/hibiken/asynq"
)

type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{
		mux: asynq.NewServeMux(),
	}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

// NewServer builds the asynq server that drains the episode queue.
// Generation is not idempotent, so failed tasks are never retried.
func NewServer(redis asynq.RedisConnOpt, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 1
	}
	return asynq.NewServer(redis, asynq.Config{
		Concurrency:    concurrency,
		Queues:         map[string]int{QueueEpisodes: 1},
		RetryDelayFunc: asynq.DefaultRetryDelayFunc,
		Logger:         asynqLogger{},
	})
}
