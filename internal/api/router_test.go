package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/neuralnarrative/internal/config"
	"github.com/nikhilbhutani/neuralnarrative/internal/episode"
	"github.com/nikhilbhutani/neuralnarrative/internal/queue"
)

type fakeGenerator struct {
	mu     sync.Mutex
	ledger *episode.Ledger
	n      int
}

func (g *fakeGenerator) Run(ctx context.Context) episode.Record {
	g.mu.Lock()
	g.n++
	n := g.n
	g.mu.Unlock()

	rec := episode.Record{
		ID:           fmt.Sprintf("ep-%d", n),
		Text:         "Welcome to The Neural Narrative.",
		LocalPath:    "/tmp/episodes/podcast_episode_20261017_080000.mp3",
		PublicURL:    "https://cdn.example.com/podcast/episodes/podcast_episode_20261017_080000.mp3",
		RunTimestamp: "20261017_080000",
		CreatedAt:    time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC),
		Status:       episode.StatusOK,
	}
	g.ledger.Append(rec)
	return rec
}

type fakeQueue struct {
	enqueued []queue.EpisodeGeneratePayload
	err      error
	statuses map[string]queue.TaskStatus
}

func (q *fakeQueue) EnqueueEpisodeGenerate(ctx context.Context, p queue.EpisodeGeneratePayload) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.enqueued = append(q.enqueued, p)
	return "task-1", nil
}

func (q *fakeQueue) Status(id string) (queue.TaskStatus, error) {
	st, ok := q.statuses[id]
	if !ok {
		return queue.TaskStatus{}, queue.ErrTaskNotFound
	}
	return st, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{RateLimit: 0.01, RateBurst: 2, AppVersion: "1.0.0"},
		Podcast: config.PodcastConfig{
			Dir:      t.TempDir(),
			FeedPath: "feed.rss",
		},
	}
}

func newServer(t *testing.T, cfg *config.Config, deps Deps) (*httptest.Server, *episode.Ledger) {
	t.Helper()
	ledger := episode.NewLedger(10)
	if deps.Generator == nil {
		deps.Generator = &fakeGenerator{ledger: ledger}
	}
	if deps.History == nil {
		deps.History = ledger
	}
	srv := httptest.NewServer(NewRouter(cfg, deps).Setup())
	t.Cleanup(srv.Close)
	return srv, ledger
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t, testConfig(t), Deps{})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]string
	decode(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" || body["version"] != "1.0.0" {
		t.Errorf("unexpected health response %d %v", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("readyz = %d, want 200", resp.StatusCode)
	}
}

func TestReadyz_RedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	srv, _ := newServer(t, testConfig(t), Deps{Redis: rdb})

	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	if resp.StatusCode != http.StatusServiceUnavailable || !strings.HasPrefix(body.Checks["redis"], "unhealthy") {
		t.Errorf("expected unhealthy redis, got %d %+v", resp.StatusCode, body)
	}
}

func TestEpisodes_GenerateAndLatest(t *testing.T) {
	srv, ledger := newServer(t, testConfig(t), Deps{})

	resp, err := http.Get(srv.URL + "/api/v1/episodes/latest")
	if err != nil {
		t.Fatal(err)
	}
	var errBody map[string]string
	decode(t, resp, &errBody)
	if resp.StatusCode != http.StatusNotFound || errBody["error"] != "no episodes found" {
		t.Fatalf("expected 404 before the first run, got %d %v", resp.StatusCode, errBody)
	}

	resp, err = http.Post(srv.URL+"/api/v1/episodes", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	var created episodeBody
	decode(t, resp, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("generate status %d, want 201", resp.StatusCode)
	}
	if created.PodcastText == "" || !strings.HasPrefix(created.AudioFile, "https://cdn.example.com/") || created.CreatedAt.IsZero() {
		t.Errorf("unexpected episode %+v", created)
	}
	if ledger.Len() != 1 {
		t.Errorf("ledger length %d, want 1", ledger.Len())
	}

	resp, err = http.Get(srv.URL + "/api/v1/episodes/latest")
	if err != nil {
		t.Fatal(err)
	}
	var latest episodeBody
	decode(t, resp, &latest)
	if resp.StatusCode != http.StatusOK || latest.AudioFile != created.AudioFile || latest.PodcastText != created.PodcastText {
		t.Errorf("latest = %d %+v, want %+v", resp.StatusCode, latest, created)
	}

	resp, err = http.Get(srv.URL + "/api/v1/episodes")
	if err != nil {
		t.Fatal(err)
	}
	var list struct {
		Episodes []episodeBody `json:"episodes"`
		Count    int           `json:"count"`
	}
	decode(t, resp, &list)
	if list.Count != 1 || len(list.Episodes) != 1 {
		t.Errorf("unexpected list %+v", list)
	}
}

type episodeBody struct {
	PodcastText string    `json:"podcast_text"`
	AudioFile   string    `json:"audio_file"`
	CreatedAt   time.Time `json:"created_at"`
}

func TestEpisodes_GenerateRateLimited(t *testing.T) {
	srv, _ := newServer(t, testConfig(t), Deps{})

	codes := make([]int, 3)
	for i := range codes {
		resp, err := http.Post(srv.URL+"/api/v1/episodes", "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		codes[i] = resp.StatusCode
	}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [201 201 429]", codes)
	}

	resp, err := http.Get(srv.URL + "/api/v1/episodes/latest")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("reads should not be rate limited, got %d", resp.StatusCode)
	}
}

func TestEpisodes_Async(t *testing.T) {
	t.Run("queue disabled", func(t *testing.T) {
		srv, _ := newServer(t, testConfig(t), Deps{})
		resp, err := http.Post(srv.URL+"/api/v1/episodes?async=true", "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status %d, want 503", resp.StatusCode)
		}
	})

	t.Run("queued", func(t *testing.T) {
		q := &fakeQueue{statuses: map[string]queue.TaskStatus{
			"task-1": {ID: "task-1", State: "pending"},
		}}
		srv, ledger := newServer(t, testConfig(t), Deps{Queue: q})

		resp, err := http.Post(srv.URL+"/api/v1/episodes?async=true", "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		var body map[string]string
		decode(t, resp, &body)
		if resp.StatusCode != http.StatusAccepted || body["task_id"] != "task-1" {
			t.Fatalf("unexpected response %d %v", resp.StatusCode, body)
		}
		if resp.Header.Get("Location") != "/api/v1/jobs/task-1" {
			t.Errorf("Location = %q", resp.Header.Get("Location"))
		}
		if len(q.enqueued) != 1 || q.enqueued[0].Trigger != queue.TriggerAPI {
			t.Errorf("unexpected enqueued payloads %+v", q.enqueued)
		}
		if ledger.Len() != 0 {
			t.Error("async generation must not run inline")
		}

		resp, err = http.Get(srv.URL + "/api/v1/jobs/task-1")
		if err != nil {
			t.Fatal(err)
		}
		var st queue.TaskStatus
		decode(t, resp, &st)
		if resp.StatusCode != http.StatusOK || st.State != "pending" {
			t.Errorf("job status = %d %+v", resp.StatusCode, st)
		}

		resp, err = http.Get(srv.URL + "/api/v1/jobs/missing")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("missing job status %d, want 404", resp.StatusCode)
		}
	})

	t.Run("enqueue failure", func(t *testing.T) {
		srv, _ := newServer(t, testConfig(t), Deps{Queue: &fakeQueue{err: errors.New("redis down")}})
		resp, err := http.Post(srv.URL+"/api/v1/episodes?async=1", "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status %d, want 503", resp.StatusCode)
		}
	})
}

func TestFeed(t *testing.T) {
	cfg := testConfig(t)
	srv, _ := newServer(t, cfg, Deps{})

	resp, err := http.Get(srv.URL + "/feed.rss")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("feed before first run = %d, want 404", resp.StatusCode)
	}

	doc := `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>x</title></channel></rss>`
	if err := os.WriteFile(filepath.Join(cfg.Podcast.Dir, "feed.rss"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	resp, err = http.Get(srv.URL + "/feed.rss")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/rss+xml") {
		t.Errorf("feed = %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}
