package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ElevenLabsConfig holds configuration for the ElevenLabs backend.
type ElevenLabsConfig struct {
	APIKey    string
	BaseURL   string // default: "https://api.elevenlabs.io"
	Model     string // default: "eleven_multilingual_v2"
	VoiceName string // resolved to an ID through /v1/voices
	VoiceID   string // takes precedence over VoiceName
}

// ElevenLabs synthesizes speech using the ElevenLabs REST API.
type ElevenLabs struct {
	cfg        ElevenLabsConfig
	httpClient *http.Client

	mu      sync.Mutex
	voiceID string
}

// NewElevenLabs creates an ElevenLabs provider with defaults applied.
func NewElevenLabs(cfg ElevenLabsConfig) *ElevenLabs {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "eleven_multilingual_v2"
	}
	if cfg.VoiceName == "" {
		cfg.VoiceName = "Bella"
	}
	return &ElevenLabs{
		cfg:     cfg,
		voiceID: cfg.VoiceID,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (e *ElevenLabs) Name() string { return "elevenlabs" }

func (e *ElevenLabs) MaxInput() int { return 5000 }

// Synthesize converts text to MP3 audio. req.Voice, when set, is a voice name
// overriding the configured one.
func (e *ElevenLabs) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	voiceID, err := e.resolveVoice(ctx, req.Voice)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"text":     req.Input,
		"model_id": e.cfg.Model,
	}
	if req.Speed > 0 {
		body["voice_settings"] = map[string]any{"speed": req.Speed}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := e.cfg.BaseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", e.cfg.APIKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("tts failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts returned no audio")
	}

	return &Audio{
		Data:        audio,
		ContentType: "audio/mpeg",
	}, nil
}

type voicesResponse struct {
	Voices []struct {
		VoiceID string `json:"voice_id"`
		Name    string `json:"name"`
	} `json:"voices"`
}

func (e *ElevenLabs) resolveVoice(ctx context.Context, override string) (string, error) {
	name := override
	if name == "" {
		e.mu.Lock()
		cached := e.voiceID
		e.mu.Unlock()
		if cached != "" {
			return cached, nil
		}
		name = e.cfg.VoiceName
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.BaseURL+"/v1/voices", nil)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("xi-api-key", e.cfg.APIKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("list voices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("list voices failed (status %d)", resp.StatusCode)
	}

	var voices voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return "", fmt.Errorf("decode voices: %w", err)
	}

	for _, v := range voices.Voices {
		if strings.EqualFold(v.Name, name) {
			if override == "" {
				e.mu.Lock()
				e.voiceID = v.VoiceID
				e.mu.Unlock()
			}
			return v.VoiceID, nil
		}
	}
	return "", fmt.Errorf("voice %q not found", name)
}
