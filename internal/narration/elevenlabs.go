package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ElevenLabsConfig holds the text-to-speech API settings.
type ElevenLabsConfig struct {
	APIURL  string
	APIKey  string
	ModelID string
}

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// ElevenLabsClient implements SpeechClient against the ElevenLabs HTTP API.
type ElevenLabsClient struct {
	cfg  ElevenLabsConfig
	http *http.Client
}

// NewElevenLabsClient creates a speech client. A nil httpClient uses a client with a 60s timeout.
func NewElevenLabsClient(cfg ElevenLabsConfig, httpClient *http.Client) *ElevenLabsClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &ElevenLabsClient{cfg: cfg, http: httpClient}
}

// RenderToFile streams synthesized speech for text into path.
func (c *ElevenLabsClient) RenderToFile(ctx context.Context, path, text, voice, format string) error {
	payload, err := json.Marshal(elevenLabsRequest{
		Text:          text,
		ModelID:       c.cfg.ModelID,
		VoiceSettings: voiceSettings{Stability: 0.5, SimilarityBoost: 0.75},
	})
	if err != nil {
		return fmt.Errorf("marshal tts request: %w", err)
	}

	endpoint := c.cfg.APIURL + "/text-to-speech/" + url.PathEscape(voice)
	if format != "" {
		endpoint += "?output_format=" + url.QueryEscape(format)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create tts request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("tts status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open audio file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return fmt.Errorf("write audio file: %w", err)
	}
	return f.Close()
}
