package api

import (
	"time"

	"github.com/stillwater/pulse/internal/markup"
)

// Post is one Instagram post as exposed through an account's RSS feed.
type Post struct {
	Title          string `json:"title"`
	Link           string `json:"link"`
	Image          string `json:"image"`
	Published      string `json:"published"`
	Account        string `json:"account,omitempty"`
	ContentSnippet string `json:"contentSnippet,omitempty"`
}

// PublishedTime parses Published. ok is false when the value is empty or in an
// unknown layout.
func (p Post) PublishedTime() (t time.Time, ok bool) {
	for _, layout := range publishedLayouts {
		if tt, err := time.Parse(layout, p.Published); err == nil {
			return tt, true
		}
	}
	return time.Time{}, false
}

var publishedLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type ChatRequest struct {
	Message string `json:"message"`
	Posts   []Post `json:"posts"`
}

type ChatResponse struct {
	Response  string           `json:"response"`
	Formatted *markup.Document `json:"formatted,omitempty"`
	HTML      string           `json:"html,omitempty"`
}

// DefaultVoiceID is the ElevenLabs "Rachel" voice.
const DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

type TTSRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id,omitempty"`
}

type Voice struct {
	VoiceID  string  `json:"voice_id"`
	Name     string  `json:"name"`
	Category *string `json:"category"`
}

type VoicesResponse struct {
	Voices []Voice `json:"voices"`
}

type SummaryRequest struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length,omitempty"`
}

type SummaryResponse struct {
	Summary string `json:"summary"`
}

type FormatRequest struct {
	Text string `json:"text"`
}

type FormatResponse struct {
	Formatted markup.Document `json:"formatted"`
	HTML      string          `json:"html"`
}

type Health struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorBody is the JSON shape of every non-2xx API response.
type ErrorBody struct {
	Detail string `json:"detail"`
}
