package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/neuralnarrative/internal/content"
	"github.com/nikhilbhutani/neuralnarrative/internal/episode"
	"github.com/nikhilbhutani/neuralnarrative/internal/script"
	"github.com/nikhilbhutani/neuralnarrative/internal/storage"
	"github.com/nikhilbhutani/neuralnarrative/internal/voice"
)

// TopicSource yields the topics of one episode.
type TopicSource interface {
	Fetch(ctx context.Context) content.FetchResult
}

// ScriptWriter composes an episode script.
type ScriptWriter interface {
	Compose(topics []content.Topic, runTimestamp string) script.Script
}

// AudioSynthesizer renders a script to an audio file.
type AudioSynthesizer interface {
	Synthesize(ctx context.Context, text, destination string) voice.Result
}

// ArtifactPublisher uploads a local file and returns its public URL, and
// removes artifacts that are no longer referenced.
type ArtifactPublisher interface {
	Publish(ctx context.Context, localPath, remoteKey string) storage.Outcome
	Remove(ctx context.Context, remoteKey string) error
}

// FeedWriter republishes the syndication document from the full history.
type FeedWriter interface {
	Regenerate(ctx context.Context, records []episode.Record) error
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Topics    TopicSource
	Composer  ScriptWriter
	Voice     AudioSynthesizer
	Publisher ArtifactPublisher
	Ledger    *episode.Ledger
	Feed      FeedWriter
}

// Orchestrator produces one episode per Run.
type Orchestrator struct {
	deps     Deps
	audioDir string
	now      func() time.Time
	newID    func() string
	onRecord []func(episode.Record)

	// publishMu keeps ledger appends and the feed regeneration that follows
	// them in the same order, so an older snapshot never overwrites a newer
	// published document.
	publishMu sync.Mutex
}

type Option func(*Orchestrator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDs overrides episode ID generation.
func WithIDs(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// OnEpisode registers a callback invoked with every record Run returns.
func OnEpisode(fn func(episode.Record)) Option {
	return func(o *Orchestrator) { o.onRecord = append(o.onRecord, fn) }
}

func New(deps Deps, audioDir string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		deps:     deps,
		audioDir: audioDir,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ledger exposes the episode history the orchestrator appends to.
func (o *Orchestrator) Ledger() *episode.Ledger { return o.deps.Ledger }

// Run produces one episode: fetch, compose, synthesize, publish, record,
// republish the feed. It always returns a well-formed record; anything that
// escapes the steps' own degrade policies yields episode.Failed.
func (o *Orchestrator) Run(ctx context.Context) (rec episode.Record) {
	start := o.now()
	id := o.newID()
	log := slog.With("episode_id", id)

	defer func() {
		if r := recover(); r != nil {
			log.Error("episode generation aborted", "panic", r, "stack", string(debug.Stack()))
			rec = episode.Failed(id, o.now(), fmt.Sprintf("unexpected failure: %v", r))
		}
		for _, fn := range o.onRecord {
			fn(rec)
		}
	}()

	rec, err := o.run(ctx, id, start, log)
	if err != nil {
		log.Error("episode generation failed", "error", err)
		return episode.Failed(id, o.now(), err.Error())
	}

	log.Info("episode generation completed",
		"status", rec.Status,
		"artifact", rec.ArtifactRef(),
		"notes", len(rec.Notes),
		"duration", o.now().Sub(start),
	)
	return rec
}

func (o *Orchestrator) run(ctx context.Context, id string, start time.Time, log *slog.Logger) (episode.Record, error) {
	var notes []string
	ts := start.Format(episode.TimestampLayout)

	log.Info("fetching tech news")
	fetched := o.deps.Topics.Fetch(ctx)
	for _, f := range fetched.Failures {
		notes = append(notes, "news provider unavailable: "+f.String())
	}
	if fetched.Fallback {
		notes = append(notes, "no fresh news, fallback topic used")
	}
	if len(fetched.Topics) == 0 {
		// Fetch guarantees a fallback topic; an empty result is a contract breach.
		return episode.Record{}, fmt.Errorf("topic source returned no topics")
	}

	composed := o.deps.Composer.Compose(fetched.Topics, ts)
	if composed.Fallbacks > 0 {
		notes = append(notes, fmt.Sprintf("%d exchange(s) rendered with the fallback template", composed.Fallbacks))
	}

	log.Info("generating audio", "topics", len(fetched.Topics))
	fileName := artifactName(ts, id)
	audio := o.deps.Voice.Synthesize(ctx, composed.Text, filepath.Join(o.audioDir, fileName))
	switch audio.Status {
	case voice.StatusSkipped:
		notes = append(notes, "audio generation skipped: no synthesis credential")
	case voice.StatusFailed:
		notes = append(notes, fmt.Sprintf("audio generation failed: %v", audio.Err))
	}

	var publicURL, remoteKey string
	if audio.Status == voice.StatusOK {
		key := "episodes/" + fileName
		out := o.deps.Publisher.Publish(ctx, audio.Path, key)
		switch out.Status {
		case storage.StatusPublished:
			publicURL, remoteKey = out.URL, key
		case storage.StatusLocalOnly:
			notes = append(notes, "storage not configured, audio kept locally")
		case storage.StatusFailed:
			notes = append(notes, fmt.Sprintf("audio upload failed: %v", out.Err))
		}
	}

	rec := episode.Record{
		ID:           id,
		Text:         composed.Text,
		LocalPath:    audio.Path,
		PublicURL:    publicURL,
		RemoteKey:    remoteKey,
		RunTimestamp: ts,
		CreatedAt:    o.now(),
		Status:       episode.StatusOK,
	}
	degrade(&rec, notes...)

	evicted, feedErr := o.publish(ctx, rec)

	// the retained copy is already in the ledger; only the caller sees this note
	if feedErr != nil {
		log.Error("error generating rss feed", "error", feedErr)
		degrade(&rec, fmt.Sprintf("feed publication failed: %v", feedErr))
		return rec, nil
	}
	o.prune(ctx, evicted, log)
	return rec, nil
}

// publish appends rec to the ledger and regenerates the feed from the
// resulting history. A panicking FeedWriter is reported as feedErr.
func (o *Orchestrator) publish(ctx context.Context, rec episode.Record) (evicted []episode.Record, feedErr error) {
	o.publishMu.Lock()
	defer o.publishMu.Unlock()

	history, evicted := o.deps.Ledger.AppendEvicting(rec)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("feed writer panicked", "episode_id", rec.ID, "panic", r, "stack", string(debug.Stack()))
			feedErr = fmt.Errorf("feed writer panic: %v", r)
		}
	}()
	return evicted, o.deps.Feed.Regenerate(ctx, history)
}

// prune deletes the remote audio of records the ledger no longer holds. The
// feed has already been republished without them.
func (o *Orchestrator) prune(ctx context.Context, evicted []episode.Record, log *slog.Logger) {
	for _, old := range evicted {
		if old.RemoteKey == "" {
			continue
		}
		if err := o.deps.Publisher.Remove(ctx, old.RemoteKey); err != nil {
			log.Warn("failed to delete evicted episode audio", "evicted_id", old.ID, "key", old.RemoteKey, "error", err)
		}
	}
}

// artifactName names an episode's audio file. The ID prefix keeps runs that
// start within the same second apart.
func artifactName(ts, id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return "podcast_episode_" + ts + "_" + short + ".mp3"
}

func degrade(rec *episode.Record, notes ...string) {
	if len(notes) == 0 {
		return
	}
	rec.Status = episode.StatusDegraded
	rec.Notes = append(rec.Notes, notes...)
}
