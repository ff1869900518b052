// Package tts converts post captions and assistant replies to speech through
// the ElevenLabs REST API.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stillwater/pulse/pkg/api"
)

const (
	DefaultBaseURL      = "https://api.elevenlabs.io"
	DefaultModel        = "eleven_turbo_v2_5"
	DefaultOutputFormat = "mp3_44100_128"
)

var ErrEmptyText = errors.New("text must not be empty")

// APIError is a non-2xx reply from the speech service.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("elevenlabs: status %d", e.Status)
	}
	return fmt.Sprintf("elevenlabs: status %d: %s", e.Status, e.Body)
}

type Client struct {
	BaseURL      string
	APIKey       string
	Model        string
	OutputFormat string
	HTTP         *http.Client
}

func New(apiKey string) *Client {
	return &Client{
		BaseURL:      DefaultBaseURL,
		APIKey:       apiKey,
		Model:        DefaultModel,
		OutputFormat: DefaultOutputFormat,
		HTTP:         &http.Client{Timeout: 60 * time.Second},
	}
}

type speakBody struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Speak strips markdown from text and returns the synthesised MP3 bytes.
func (c *Client) Speak(ctx context.Context, text, voiceID string) ([]byte, error) {
	clean := StripMarkdown(text)
	if clean == "" {
		return nil, ErrEmptyText
	}
	if voiceID == "" {
		voiceID = api.DefaultVoiceID
	}
	body, err := json.Marshal(speakBody{Text: clean, ModelID: c.model()})
	if err != nil {
		return nil, err
	}
	u := c.endpoint("/v1/text-to-speech/" + url.PathEscape(voiceID))
	u += "?output_format=" + url.QueryEscape(c.outputFormat())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	return audio, nil
}

type voicesBody struct {
	Voices []struct {
		VoiceID  string  `json:"voice_id"`
		Name     string  `json:"name"`
		Category *string `json:"category"`
	} `json:"voices"`
}

// Voices lists the voices available to the account.
func (c *Client) Voices(ctx context.Context) ([]api.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/v1/voices"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var vb voicesBody
	if err := json.NewDecoder(resp.Body).Decode(&vb); err != nil {
		return nil, fmt.Errorf("decoding voices: %w", err)
	}
	out := make([]api.Voice, 0, len(vb.Voices))
	for _, v := range vb.Voices {
		out = append(out, api.Voice{VoiceID: v.VoiceID, Name: v.Name, Category: v.Category})
	}
	return out, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.APIKey == "" {
		return nil, errors.New("elevenlabs api key is not set")
	}
	req.Header.Set("xi-api-key", c.APIKey)
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

func (c *Client) endpoint(path string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + path
}

func (c *Client) model() string {
	if c.Model == "" {
		return DefaultModel
	}
	return c.Model
}

func (c *Client) outputFormat() string {
	if c.OutputFormat == "" {
		return DefaultOutputFormat
	}
	return c.OutputFormat
}
