package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Sentinel artifact paths returned instead of an audio file.
const (
	SkippedPath = "audio_generation_skipped.mp3"
	FailedPath  = "audio_generation_failed.mp3"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

var ErrNoCredential = errors.New("no synthesis credential configured")

// Result is the outcome of a synthesis. Path is always set: the written file
// on success, a sentinel otherwise.
type Result struct {
	Path   string
	Status Status
	Err    error
}

// Synthesizer writes episode audio using a Provider. A nil provider means no
// credential is configured and every call is skipped without network I/O.
type Synthesizer struct {
	provider Provider
	timeout  time.Duration
}

func NewSynthesizer(provider Provider, timeout time.Duration) *Synthesizer {
	return &Synthesizer{provider: provider, timeout: timeout}
}

// Enabled reports whether a provider is configured.
func (s *Synthesizer) Enabled() bool { return s.provider != nil }

// Synthesize converts text to audio at destination. Long text is split to
// the provider's input limit and the MP3 segments are concatenated in order.
func (s *Synthesizer) Synthesize(ctx context.Context, text, destination string) Result {
	if s.provider == nil {
		slog.Warn("no synthesis credential configured, audio generation skipped")
		return Result{Path: SkippedPath, Status: StatusSkipped, Err: ErrNoCredential}
	}

	if err := s.synthesize(ctx, text, destination); err != nil {
		slog.Error("audio generation failed", "provider", s.provider.Name(), "error", err)
		return Result{Path: FailedPath, Status: StatusFailed, Err: err}
	}

	slog.Info("audio saved", "path", destination, "provider", s.provider.Name())
	return Result{Path: destination, Status: StatusOK}
}

func (s *Synthesizer) synthesize(ctx context.Context, text, destination string) (err error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	parts := Split(text, s.provider.MaxInput())
	if len(parts) == 0 {
		return errors.New("nothing to synthesize")
	}

	var buf bytes.Buffer
	for i, part := range parts {
		audio, err := s.provider.Synthesize(ctx, Request{Input: part})
		if err != nil {
			return fmt.Errorf("segment %d/%d: %w", i+1, len(parts), err)
		}
		buf.Write(audio.Data)
	}

	return writeFile(destination, buf.Bytes())
}

// writeFile writes data next to path and renames it into place so readers
// never observe a partial file.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".audio-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write audio: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close audio: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move audio into place: %w", err)
	}
	return nil
}
