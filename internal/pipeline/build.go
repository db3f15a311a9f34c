package pipeline

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/nikhilbhutani/neuralnarrative/internal/config"
	"github.com/nikhilbhutani/neuralnarrative/internal/content"
	"github.com/nikhilbhutani/neuralnarrative/internal/episode"
	"github.com/nikhilbhutani/neuralnarrative/internal/feed"
	"github.com/nikhilbhutani/neuralnarrative/internal/script"
	"github.com/nikhilbhutani/neuralnarrative/internal/storage"
	"github.com/nikhilbhutani/neuralnarrative/internal/voice"
)

// Components is a fully wired pipeline.
type Components struct {
	Orchestrator *Orchestrator
	Ledger       *episode.Ledger
	Feed         *feed.Publisher
}

// Build wires the pipeline from configuration. Missing credentials are not
// errors: synthesis is skipped and artifacts stay local.
func Build(cfg *config.Config, opts ...Option) (*Components, error) {
	if err := os.MkdirAll(cfg.Podcast.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create podcast dir: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.News.Timeout}
	source := content.NewSource(content.NewFeedProviders(cfg.News.Feeds, httpClient), cfg.News.Timeout, nil)
	composer := script.NewComposer(cfg.Podcast.Title, nil)
	synth := voice.NewSynthesizer(voiceProvider(cfg), cfg.TTS.Timeout)

	var uploader *storage.Publisher
	if cfg.StorageEnabled() {
		store := storage.NewSupabaseStorage(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey)
		uploader = storage.NewPublisher(store, cfg.Storage.Bucket, cfg.Storage.Timeout)
	} else {
		uploader = storage.NewPublisher(nil, "", cfg.Storage.Timeout)
	}

	ledger := episode.NewLedger(cfg.Podcast.LedgerCapacity)
	fp := feed.NewPublisher(feed.Config{
		Title:       cfg.Podcast.Title,
		Author:      cfg.Podcast.Author,
		Email:       cfg.Podcast.Email,
		Description: cfg.Podcast.Description,
		BaseURL:     cfg.Podcast.BaseURL,
		Dir:         cfg.Podcast.Dir,
		FeedPath:    cfg.Podcast.FeedPath,
	}, uploader)

	slog.Info("pipeline configured",
		"feeds", len(cfg.News.Feeds),
		"tts_backend", cfg.TTS.Backend,
		"tts_enabled", synth.Enabled(),
		"storage_enabled", uploader.Enabled(),
		"podcast_dir", cfg.Podcast.Dir,
	)

	o := New(Deps{
		Topics:    source,
		Composer:  composer,
		Voice:     synth,
		Publisher: uploader,
		Ledger:    ledger,
		Feed:      fp,
	}, cfg.Podcast.Dir, opts...)

	return &Components{Orchestrator: o, Ledger: ledger, Feed: fp}, nil
}

// voiceProvider returns nil when the selected backend has no credential.
func voiceProvider(cfg *config.Config) voice.Provider {
	if cfg.TTSKey() == "" {
		return nil
	}
	switch cfg.TTS.Backend {
	case "openai":
		return voice.NewOpenAI(voice.OpenAIConfig{
			APIKey:  cfg.TTS.OpenAIKey,
			BaseURL: cfg.TTS.OpenAIBaseURL,
			Model:   cfg.TTS.OpenAIModel,
			Voice:   cfg.TTS.OpenAIVoice,
		})
	default:
		return voice.NewElevenLabs(voice.ElevenLabsConfig{
			APIKey:    cfg.TTS.ElevenLabsKey,
			BaseURL:   cfg.TTS.ElevenLabsURL,
			Model:     cfg.TTS.ElevenLabsModel,
			VoiceName: cfg.TTS.VoiceName,
			VoiceID:   cfg.TTS.VoiceID,
		})
	}
}
