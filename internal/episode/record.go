package episode

import (
	"time"
)

// TimestampLayout is the second-precision layout used for run timestamps,
// artifact file names and feed item titles.
const TimestampLayout = "20060102_150405"

// Sentinel artifact references and texts used when a run cannot produce audio.
const (
	ErrorText     = "Error generating podcast."
	ErrorArtifact = "error.mp3"
)

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// Record is one produced episode. Records are values; the ledger hands out
// copies so callers cannot mutate retained history.
type Record struct {
	ID           string    `json:"id"`
	Text         string    `json:"podcast_text"`
	LocalPath    string    `json:"audio_file"`
	PublicURL    string    `json:"audio_url,omitempty"`
	RemoteKey    string    `json:"audio_key,omitempty"` // storage key behind PublicURL
	RunTimestamp string    `json:"timestamp"`
	CreatedAt    time.Time `json:"created_at"`
	Status       Status    `json:"status"`
	Notes        []string  `json:"notes,omitempty"`
}

// ArtifactRef returns the public URL when the audio was published and the
// local path (or sentinel) otherwise.
func (r Record) ArtifactRef() string {
	if r.PublicURL != "" {
		return r.PublicURL
	}
	return r.LocalPath
}

// Failed builds the degraded record returned when a run aborts unexpectedly.
func Failed(id string, now time.Time, reason string) Record {
	return Record{
		ID:           id,
		Text:         ErrorText,
		LocalPath:    ErrorArtifact,
		RunTimestamp: now.Format(TimestampLayout),
		CreatedAt:    now,
		Status:       StatusFailed,
		Notes:        []string{reason},
	}
}

func (r Record) clone() Record {
	if r.Notes != nil {
		r.Notes = append([]string(nil), r.Notes...)
	}
	return r
}
