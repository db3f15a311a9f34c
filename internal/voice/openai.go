package voice

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds configuration for the OpenAI speech backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // default: the client library's
	Model   string // default: "tts-1"
	Voice   string // default: "alloy"
}

// OpenAI synthesizes speech through the OpenAI audio API.
type OpenAI struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := openai.TTSModel1
	if cfg.Model != "" {
		model = openai.SpeechModel(cfg.Model)
	}
	v := openai.VoiceAlloy
	if cfg.Voice != "" {
		v = openai.SpeechVoice(cfg.Voice)
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(oc),
		model:  model,
		voice:  v,
	}
}

func (o *OpenAI) Name() string { return "openai-tts" }

func (o *OpenAI) MaxInput() int { return 4096 }

func (o *OpenAI) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	v := o.voice
	if req.Voice != "" {
		v = openai.SpeechVoice(req.Voice)
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          o.model,
		Input:          req.Input,
		Voice:          v,
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          req.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	return &Audio{
		Data:        audio,
		ContentType: "audio/mpeg",
	}, nil
}
