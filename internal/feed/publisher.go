package feed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/eduncan911/podcast"

	"github.com/nikhilbhutani/neuralnarrative/internal/episode"
	"github.com/nikhilbhutani/neuralnarrative/internal/storage"
	"github.com/nikhilbhutani/neuralnarrative/pkg/textextract"
)

// DescriptionLimit is the number of episode text characters used as an item
// description.
const DescriptionLimit = 500

// Config describes the channel.
type Config struct {
	Title       string
	Author      string
	Email       string
	Description string
	BaseURL     string
	Language    string
	Dir         string // local directory of the document
	FeedPath    string // file name, also the storage key
}

// Publisher renders the RSS document from the episode history and publishes
// it locally and, when configured, to storage.
type Publisher struct {
	cfg      Config
	uploader *storage.Publisher
	now      func() time.Time
}

func NewPublisher(cfg Config, uploader *storage.Publisher) *Publisher {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &Publisher{cfg: cfg, uploader: uploader, now: time.Now}
}

// Path is the local file the document is written to.
func (p *Publisher) Path() string {
	return filepath.Join(p.cfg.Dir, p.cfg.FeedPath)
}

// SelfURL is the canonical public location of the document.
func (p *Publisher) SelfURL() string {
	return p.cfg.BaseURL + "/" + p.cfg.FeedPath
}

// Build renders the document with one item per record, in input order.
func (p *Publisher) Build(records []episode.Record) ([]byte, error) {
	now := p.now()

	pc := podcast.New(p.cfg.Title, p.cfg.BaseURL, p.cfg.Description, nil, &now)
	pc.AddAuthor(p.cfg.Author, p.cfg.Email)
	pc.AddAtomLink(p.SelfURL())
	pc.Language = p.cfg.Language

	for _, r := range records {
		ref := r.ArtifactRef()
		pubDate := r.CreatedAt

		item := podcast.Item{
			GUID:        ref,
			Title:       "Episode " + r.RunTimestamp,
			Link:        ref,
			Description: textextract.Truncate(r.Text, DescriptionLimit) + "...",
		}
		item.AddPubDate(&pubDate)
		item.AddEnclosure(ref, podcast.MP3, 0)

		if _, err := pc.AddItem(item); err != nil {
			return nil, fmt.Errorf("add item %s: %w", r.RunTimestamp, err)
		}
	}

	var buf bytes.Buffer
	if err := pc.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	return buf.Bytes(), nil
}

// Regenerate replaces the published document with one built from records.
// The local file is always written first; the storage copy is overwritten
// when a bucket is configured.
func (p *Publisher) Regenerate(ctx context.Context, records []episode.Record) error {
	doc, err := p.Build(records)
	if err != nil {
		return err
	}

	if err := writeAtomic(p.Path(), doc); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	slog.Info("rss feed generated", "path", p.Path(), "episodes", len(records))

	if !p.uploader.Enabled() {
		return nil
	}
	out := p.uploader.Publish(ctx, p.Path(), p.cfg.FeedPath)
	if out.Status != storage.StatusPublished {
		return fmt.Errorf("upload feed: %w", out.Err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".feed-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
