package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/nikhilbhutani/neuralnarrative/internal/episode"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Podcast   PodcastConfig
	News      NewsConfig
	TTS       TTSConfig
	Storage   StorageConfig
	Scheduler SchedulerConfig
	Redis     RedisConfig
	Queue     QueueConfig
}

type ServerConfig struct {
	Host       string
	Port       int
	RateLimit  float64 // generate requests per second per client
	RateBurst  int
	AppVersion string
}

type LogConfig struct {
	Level string // debug, info, warn, error
}

type PodcastConfig struct {
	Dir            string
	FeedPath       string // file name of the RSS document, also its storage key
	Title          string
	Author         string
	Email          string
	Description    string
	BaseURL        string
	LedgerCapacity int
}

type NewsConfig struct {
	Feeds   []string
	Timeout time.Duration
}

type TTSConfig struct {
	Backend         string // "elevenlabs" or "openai"
	ElevenLabsKey   string
	ElevenLabsURL   string
	ElevenLabsModel string
	VoiceName       string
	VoiceID         string
	OpenAIKey       string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAIVoice     string
	Timeout         time.Duration
}

type StorageConfig struct {
	SupabaseURL string
	SupabaseKey string
	Bucket      string // empty means local-only
	Timeout     time.Duration
}

type SchedulerConfig struct {
	Enabled bool
	Time    string // HH:MM, local time
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type QueueConfig struct {
	Enabled     bool
	Concurrency int
}

var DefaultFeeds = []string{
	"https://news.ycombinator.com/rss",
	"https://www.theverge.com/rss/index.xml",
	"https://www.wired.com/feed/rss",
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	rateLimit, err := getEnvFloat("RATE_LIMIT_RPS", 0.2)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	rateBurst, err := getEnvInt("RATE_LIMIT_BURST", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	capacity, err := getEnvInt("LEDGER_CAPACITY", episode.DefaultCapacity)
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_CAPACITY: %w", err)
	}

	feedTimeout, err := getEnvDuration("FEED_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_TIMEOUT: %w", err)
	}

	ttsTimeout, err := getEnvDuration("TTS_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_TIMEOUT: %w", err)
	}

	uploadTimeout, err := getEnvDuration("UPLOAD_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_TIMEOUT: %w", err)
	}

	schedulerEnabled, err := getEnvBool("ENABLE_LOCAL_SCHEDULER", false)
	if err != nil {
		return nil, fmt.Errorf("invalid ENABLE_LOCAL_SCHEDULER: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	queueEnabled, err := getEnvBool("QUEUE_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_ENABLED: %w", err)
	}

	queueConcurrency, err := getEnvInt("QUEUE_CONCURRENCY", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_CONCURRENCY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:       getEnv("SERVER_HOST", "0.0.0.0"),
			Port:       port,
			RateLimit:  rateLimit,
			RateBurst:  rateBurst,
			AppVersion: getEnv("APP_VERSION", "1.0.0"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Podcast: PodcastConfig{
			Dir:            getEnv("PODCAST_DIR", "/tmp/episodes"),
			FeedPath:       getEnv("RSS_FEED_PATH", "feed.rss"),
			Title:          getEnv("PODCAST_TITLE", "The Neural Narrative"),
			Author:         getEnv("PODCAST_AUTHOR", "AI Podcast Generator"),
			Email:          getEnv("PODCAST_EMAIL", "ai@example.com"),
			Description:    getEnv("PODCAST_DESCRIPTION", "An AI-generated podcast about technology."),
			BaseURL:        strings.TrimRight(getEnv("PODCAST_BASE_URL", "https://example.com/podcast"), "/"),
			LedgerCapacity: capacity,
		},
		News: NewsConfig{
			Feeds:   getEnvList("NEWS_FEEDS", DefaultFeeds),
			Timeout: feedTimeout,
		},
		TTS: TTSConfig{
			Backend:         strings.ToLower(getEnv("TTS_BACKEND", "elevenlabs")),
			ElevenLabsKey:   getEnv("ELEVENLABS_API_KEY", ""),
			ElevenLabsURL:   getEnv("ELEVENLABS_BASE_URL", ""),
			ElevenLabsModel: getEnv("ELEVENLABS_MODEL", ""),
			VoiceName:       getEnv("VOICE_NAME", "Bella"),
			VoiceID:         getEnv("VOICE_ID", ""),
			OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("TTS_OPENAI_BASE_URL", ""),
			OpenAIModel:     getEnv("TTS_OPENAI_MODEL", ""),
			OpenAIVoice:     getEnv("TTS_OPENAI_VOICE", "alloy"),
			Timeout:         ttsTimeout,
		},
		Storage: StorageConfig{
			SupabaseURL: strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
			SupabaseKey: getEnv("SUPABASE_SERVICE_KEY", ""),
			Bucket:      getEnv("STORAGE_BUCKET", ""),
			Timeout:     uploadTimeout,
		},
		Scheduler: SchedulerConfig{
			Enabled: schedulerEnabled,
			Time:    getEnv("SCHEDULED_TIME", "08:00"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Queue: QueueConfig{
			Enabled:     queueEnabled,
			Concurrency: queueConcurrency,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// FeedFile is the local path of the published RSS document.
func (c *Config) FeedFile() string {
	return filepath.Join(c.Podcast.Dir, c.Podcast.FeedPath)
}

// StorageEnabled reports whether artifacts are uploaded or kept local-only.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Bucket != "" && c.Storage.SupabaseURL != ""
}

// TTSKey returns the credential of the selected backend; empty means
// synthesis is skipped.
func (c *Config) TTSKey() string {
	if c.TTS.Backend == "openai" {
		return c.TTS.OpenAIKey
	}
	return c.TTS.ElevenLabsKey
}

// RunBudget is the longest one episode run can take when every external call
// uses its full timeout: each feed fetch, synthesis, the audio upload and the
// feed upload, plus a margin for local work.
func (c *Config) RunBudget() time.Duration {
	return time.Duration(len(c.News.Feeds))*c.News.Timeout +
		c.TTS.Timeout +
		2*c.Storage.Timeout +
		time.Minute
}

func (c *Config) Validate() error {
	var problems []string
	if _, _, err := ParseClock(c.Scheduler.Time); err != nil {
		problems = append(problems, fmt.Sprintf("SCHEDULED_TIME: %v", err))
	}
	if c.Podcast.LedgerCapacity <= 0 || c.Podcast.LedgerCapacity > episode.DefaultCapacity {
		problems = append(problems, fmt.Sprintf("LEDGER_CAPACITY must be between 1 and %d", episode.DefaultCapacity))
	}
	if c.Podcast.FeedPath == "" || strings.ContainsAny(c.Podcast.FeedPath, `/\`) {
		problems = append(problems, "RSS_FEED_PATH must be a plain file name")
	}
	switch c.TTS.Backend {
	case "elevenlabs", "openai":
	default:
		problems = append(problems, fmt.Sprintf("TTS_BACKEND %q is not supported", c.TTS.Backend))
	}
	if c.Storage.Bucket != "" && (c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "") {
		problems = append(problems, "STORAGE_BUCKET requires SUPABASE_URL and SUPABASE_SERVICE_KEY")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return t.Hour(), t.Minute(), nil
}

// SlogLevel maps the configured level name onto slog.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(strings.ToLower(v))
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
