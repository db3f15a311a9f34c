package storage

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"
)

type Status string

const (
	StatusPublished Status = "published"
	StatusLocalOnly Status = "local_only"
	StatusFailed    Status = "failed"
)

// Outcome is the result of publishing one artifact. URL is empty unless
// Status is StatusPublished; callers then fall back to the local path.
type Outcome struct {
	URL    string
	Status Status
	Err    error
}

// Publisher uploads local artifacts to a public bucket.
type Publisher struct {
	store   Storage
	bucket  string
	timeout time.Duration
}

// NewPublisher returns a Publisher. An empty bucket or nil store puts it in
// local-only mode.
func NewPublisher(store Storage, bucket string, timeout time.Duration) *Publisher {
	return &Publisher{store: store, bucket: bucket, timeout: timeout}
}

// Enabled reports whether a storage target is configured.
func (p *Publisher) Enabled() bool {
	return p != nil && p.store != nil && p.bucket != ""
}

// Publish uploads localPath to remoteKey and returns its public URL.
// Failures are logged and reported in the Outcome, never returned.
func (p *Publisher) Publish(ctx context.Context, localPath, remoteKey string) Outcome {
	if !p.Enabled() {
		slog.Warn("storage bucket not set, skipping upload", "path", localPath)
		return Outcome{Status: StatusLocalOnly}
	}

	if err := p.upload(ctx, localPath, remoteKey); err != nil {
		slog.Error("upload failed", "path", localPath, "bucket", p.bucket, "key", remoteKey, "error", err)
		return Outcome{Status: StatusFailed, Err: err}
	}

	publicURL := p.store.GetPublicURL(p.bucket, remoteKey)
	slog.Info("file uploaded", "path", localPath, "bucket", p.bucket, "key", remoteKey, "public_url", publicURL)
	return Outcome{URL: publicURL, Status: StatusPublished}
}

// Remove deletes a previously published artifact.
func (p *Publisher) Remove(ctx context.Context, remoteKey string) error {
	if !p.Enabled() {
		return nil
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.store.Delete(ctx, p.bucket, remoteKey); err != nil {
		return fmt.Errorf("delete %s: %w", remoteKey, err)
	}
	slog.Info("file deleted", "bucket", p.bucket, "key", remoteKey)
	return nil
}

func (p *Publisher) upload(ctx context.Context, localPath, remoteKey string) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	return p.store.Upload(ctx, p.bucket, remoteKey, f, ContentType(localPath))
}

// ContentType guesses a MIME type from the file extension.
func ContentType(path string) string {
	switch ext := filepath.Ext(path); ext {
	case ".mp3":
		return "audio/mpeg"
	case ".rss", ".xml":
		return "application/rss+xml"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
