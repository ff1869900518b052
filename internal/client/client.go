// Package client talks to a running Pulse API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stillwater/pulse/pkg/api"
)

// Error is a non-2xx API reply.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("pulse api: %s", http.StatusText(e.Status))
	}
	return fmt.Sprintf("pulse api: %d: %s", e.Status, e.Detail)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 90 * time.Second},
	}
}

func (c *Client) Accounts(ctx context.Context) ([]string, error) {
	var out []string
	err := c.getJSON(ctx, "/accounts", nil, &out)
	return out, err
}

func (c *Client) Posts(ctx context.Context, username string) ([]api.Post, error) {
	var out []api.Post
	err := c.getJSON(ctx, "/posts", url.Values{"username": {username}}, &out)
	return out, err
}

// Feed returns the aggregated feed, restricted to accounts when given.
func (c *Client) Feed(ctx context.Context, accounts ...string) ([]api.Post, error) {
	var q url.Values
	if len(accounts) > 0 {
		q = url.Values{"account": accounts}
	}
	var out []api.Post
	err := c.getJSON(ctx, "/feed", q, &out)
	return out, err
}

func (c *Client) Chat(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error) {
	var out api.ChatResponse
	err := c.postJSON(ctx, "/chat", req, &out)
	return out, err
}

func (c *Client) Summarize(ctx context.Context, req api.SummaryRequest) (string, error) {
	var out api.SummaryResponse
	err := c.postJSON(ctx, "/summarize", req, &out)
	return out.Summary, err
}

// Speak returns MP3 audio for text.
func (c *Client) Speak(ctx context.Context, text, voiceID string) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodPost, "/tts", nil, api.TTSRequest{Text: text, VoiceID: voiceID})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) Voices(ctx context.Context) ([]api.Voice, error) {
	var out api.VoicesResponse
	err := c.getJSON(ctx, "/tts/voices", nil, &out)
	return out.Voices, err
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	resp, err := c.send(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (c *Client) postJSON(ctx context.Context, path string, body, dst any) error {
	resp, err := c.send(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (c *Client) send(ctx context.Context, method, path string, q url.Values, body any) (*http.Response, error) {
	u := strings.TrimRight(c.BaseURL, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
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
		apiErr := &Error{Status: resp.StatusCode}
		var eb api.ErrorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &eb) == nil && eb.Detail != "" {
			apiErr.Detail = eb.Detail
		} else {
			apiErr.Detail = strings.TrimSpace(string(raw))
		}
		return nil, apiErr
	}
	return resp, nil
}
