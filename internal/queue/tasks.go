package queue

import "time"

const (
	TypeEpisodeGenerate = "episode:generate"
)

// Trigger names what requested an episode.
const (
	TriggerAPI       = "api"
	TriggerScheduler = "scheduler"
)

type EpisodeGeneratePayload struct {
	Trigger     string    `json:"trigger"`
	RequestedAt time.Time `json:"requested_at"`
}
