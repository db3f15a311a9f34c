package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/neuralnarrative/internal/episode"
	"github.com/nikhilbhutani/neuralnarrative/internal/queue"
)

// Generator produces one episode. It always returns a record.
type Generator interface {
	Run(ctx context.Context) episode.Record
}

// History is the retained episode ledger.
type History interface {
	Latest() (episode.Record, error)
	All() []episode.Record
}

// Enqueuer schedules episode generation on the task queue.
type Enqueuer interface {
	EnqueueEpisodeGenerate(ctx context.Context, payload queue.EpisodeGeneratePayload) (string, error)
	Status(id string) (queue.TaskStatus, error)
}

type EpisodeHandler struct {
	gen     Generator
	history History
	queue   Enqueuer
}

// NewEpisodeHandler returns an EpisodeHandler. q may be nil when the task
// queue is disabled.
func NewEpisodeHandler(gen Generator, history History, q Enqueuer) *EpisodeHandler {
	return &EpisodeHandler{gen: gen, history: history, queue: q}
}

type episodeResponse struct {
	ID          string         `json:"id,omitempty"`
	PodcastText string         `json:"podcast_text"`
	AudioFile   string         `json:"audio_file"`
	CreatedAt   time.Time      `json:"created_at"`
	Status      episode.Status `json:"status,omitempty"`
}

// toResponse drops the record's notes; diagnostics stay in the logs.
func toResponse(r episode.Record) episodeResponse {
	return episodeResponse{
		ID:          r.ID,
		PodcastText: r.Text,
		AudioFile:   r.ArtifactRef(),
		CreatedAt:   r.CreatedAt,
		Status:      r.Status,
	}
}

// Generate runs the pipeline and returns the new episode. With ?async=true
// the run is queued and the task ID returned instead.
func (h *EpisodeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	if async {
		h.enqueue(w, r)
		return
	}

	// the episode is completed and recorded even if the client goes away
	rec := h.gen.Run(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusCreated, toResponse(rec))
}

func (h *EpisodeHandler) enqueue(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeError(w, http.StatusServiceUnavailable, "task queue is not enabled")
		return
	}

	id, err := h.queue.EnqueueEpisodeGenerate(r.Context(), queue.EpisodeGeneratePayload{
		Trigger:     queue.TriggerAPI,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "failed to enqueue episode generation")
		return
	}

	w.Header().Set("Location", "/api/v1/jobs/"+id)
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id, "status": "queued"})
}

// Latest returns the most recent episode.
func (h *EpisodeHandler) Latest(w http.ResponseWriter, r *http.Request) {
	rec, err := h.history.Latest()
	if errors.Is(err, episode.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toResponse(rec))
}

// List returns the retained episodes, oldest first.
func (h *EpisodeHandler) List(w http.ResponseWriter, r *http.Request) {
	records := h.history.All()
	out := make([]episodeResponse, len(records))
	for i, rec := range records {
		out[i] = toResponse(rec)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"episodes": out, "count": len(out)})
}

// Job reports the state of a queued generation.
func (h *EpisodeHandler) Job(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeError(w, http.StatusServiceUnavailable, "task queue is not enabled")
		return
	}

	st, err := h.queue.Status(chi.URLParam(r, "id"))
	if errors.Is(err, queue.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}
