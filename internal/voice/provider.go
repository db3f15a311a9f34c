package voice

import "context"

// Request holds the parameters for one text-to-speech call.
type Request struct {
	Input string  `json:"input"`
	Voice string  `json:"voice,omitempty"`
	Speed float64 `json:"speed,omitempty"`
}

// Audio is the synthesized output of a provider.
type Audio struct {
	Data        []byte
	ContentType string
}

// Provider is the interface for text-to-speech backends.
type Provider interface {
	Synthesize(ctx context.Context, req Request) (*Audio, error)
	Name() string
	// MaxInput is the largest input, in characters, accepted by one call.
	MaxInput() int
}
