package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PODCAST_DIR", "RSS_FEED_PATH", "PODCAST_TITLE", "NEWS_FEEDS", "SCHEDULED_TIME",
		"STORAGE_BUCKET", "ELEVENLABS_API_KEY", "TTS_BACKEND", "LEDGER_CAPACITY",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Podcast.Title != "The Neural Narrative" {
		t.Errorf("unexpected title %q", cfg.Podcast.Title)
	}
	if cfg.FeedFile() != "/tmp/episodes/feed.rss" {
		t.Errorf("unexpected feed file %q", cfg.FeedFile())
	}
	if len(cfg.News.Feeds) != 3 {
		t.Errorf("expected 3 default feeds, got %d", len(cfg.News.Feeds))
	}
	if cfg.Podcast.LedgerCapacity != 10 {
		t.Errorf("expected capacity 10, got %d", cfg.Podcast.LedgerCapacity)
	}
	if cfg.StorageEnabled() {
		t.Error("storage should be disabled without a bucket")
	}
	if cfg.TTSKey() != "" {
		t.Error("expected no TTS credential")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NEWS_FEEDS", " https://a.example/rss , ,https://b.example/atom")
	t.Setenv("FEED_TIMEOUT", "3s")
	t.Setenv("TTS_BACKEND", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PODCAST_BASE_URL", "https://pods.example.com/")
	t.Setenv("ENABLE_LOCAL_SCHEDULER", "TRUE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := strings.Join(cfg.News.Feeds, "|"); got != "https://a.example/rss|https://b.example/atom" {
		t.Errorf("unexpected feeds %q", got)
	}
	if cfg.News.Timeout != 3*time.Second {
		t.Errorf("unexpected feed timeout %s", cfg.News.Timeout)
	}
	if cfg.TTSKey() != "sk-test" {
		t.Errorf("expected openai key to be selected, got %q", cfg.TTSKey())
	}
	if cfg.Podcast.BaseURL != "https://pods.example.com" {
		t.Errorf("trailing slash not trimmed: %q", cfg.Podcast.BaseURL)
	}
	if !cfg.Scheduler.Enabled {
		t.Error("expected scheduler enabled")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"SERVER_PORT":     "http",
		"FEED_TIMEOUT":    "soon",
		"LEDGER_CAPACITY": "ten",
		"QUEUE_ENABLED":   "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), key) {
				t.Errorf("expected error mentioning %s, got %v", key, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Podcast:   PodcastConfig{FeedPath: "feed.rss", LedgerCapacity: 10},
			TTS:       TTSConfig{Backend: "elevenlabs"},
			Scheduler: SchedulerConfig{Time: "08:00"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "bad time", mutate: func(c *Config) { c.Scheduler.Time = "25:61" }, want: "SCHEDULED_TIME"},
		{name: "bad capacity", mutate: func(c *Config) { c.Podcast.LedgerCapacity = 0 }, want: "LEDGER_CAPACITY"},
		{name: "capacity above retention limit", mutate: func(c *Config) { c.Podcast.LedgerCapacity = 11 }, want: "LEDGER_CAPACITY"},
		{name: "nested feed path", mutate: func(c *Config) { c.Podcast.FeedPath = "a/feed.rss" }, want: "RSS_FEED_PATH"},
		{name: "unknown backend", mutate: func(c *Config) { c.TTS.Backend = "polly" }, want: "TTS_BACKEND"},
		{name: "bucket without credentials", mutate: func(c *Config) { c.Storage.Bucket = "podcast" }, want: "STORAGE_BUCKET"},
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock(" 07:45 ")
	if err != nil || h != 7 || m != 45 {
		t.Errorf("ParseClock = %d, %d, %v", h, m, err)
	}
	for _, bad := range []string{"", "7", "24:00", "08:60", "8am"} {
		if _, _, err := ParseClock(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestSlogLevel(t *testing.T) {
	if (LogConfig{Level: "DEBUG"}).SlogLevel() != slog.LevelDebug {
		t.Error("expected debug level")
	}
	if (LogConfig{Level: "nonsense"}).SlogLevel() != slog.LevelInfo {
		t.Error("expected info fallback")
	}
}

func TestRunBudget(t *testing.T) {
	cfg := &Config{
		News:    NewsConfig{Feeds: DefaultFeeds, Timeout: 15 * time.Second},
		TTS:     TTSConfig{Timeout: 2 * time.Minute},
		Storage: StorageConfig{Timeout: 2 * time.Minute},
	}

	// three fetches, synthesis, audio upload, feed upload, margin
	want := 45*time.Second + 2*time.Minute + 4*time.Minute + time.Minute
	if got := cfg.RunBudget(); got != want {
		t.Errorf("RunBudget() = %s, want %s", got, want)
	}
}
