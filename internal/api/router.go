package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/neuralnarrative/internal/api/handlers"
	"github.com/nikhilbhutani/neuralnarrative/internal/api/middleware"
	"github.com/nikhilbhutani/neuralnarrative/internal/config"
)

// Deps are the services exposed over HTTP.
type Deps struct {
	Generator handlers.Generator
	History   handlers.History
	Queue     handlers.Enqueuer // nil when the task queue is disabled
	Redis     *redis.Client     // nil when the task queue is disabled
}

type Router struct {
	mux     *chi.Mux
	cfg     *config.Config
	deps    Deps
	limiter *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:     chi.NewRouter(),
		cfg:     cfg,
		deps:    deps,
		limiter: middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
	}
}

// Limiter is the rate limiter guarding episode generation.
func (rt *Router) Limiter() *middleware.RateLimiter { return rt.limiter }

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	health := handlers.NewHealthHandler(rt.cfg.Server.AppVersion, rt.deps.Redis, rt.cfg.Podcast.Dir)
	r.Get("/health", health.Health)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	feedH := handlers.NewFeedHandler(rt.cfg.FeedFile())
	r.Get("/"+rt.cfg.Podcast.FeedPath, feedH.Serve)

	episodeH := handlers.NewEpisodeHandler(rt.deps.Generator, rt.deps.History, rt.deps.Queue)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/episodes", func(r chi.Router) {
			r.With(rt.limiter.Limit).Post("/", episodeH.Generate)
			r.Get("/", episodeH.List)
			r.Get("/latest", episodeH.Latest)
		})
		r.Get("/jobs/{id}", episodeH.Job)
	})

	return r
}
