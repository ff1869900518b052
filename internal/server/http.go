// Package server exposes feeds, the assistant and speech over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/stillwater/pulse/internal/assistant"
	"github.com/stillwater/pulse/internal/feeds"
	"github.com/stillwater/pulse/internal/markup"
	"github.com/stillwater/pulse/internal/tts"
	"github.com/stillwater/pulse/pkg/api"
)

const (
	Title   = "Stillwater Pulse API"
	Version = "1.0.0"

	maxBodyBytes = 1 << 20
)

// Feeds is the part of feeds.Service the API needs.
type Feeds interface {
	Accounts() []string
	Fetch(ctx context.Context, username string) ([]api.Post, error)
	FetchAll(ctx context.Context, accounts ...string) ([]api.Post, error)
}

// Assistant is the part of assistant.Service the API needs.
type Assistant interface {
	Reply(ctx context.Context, message string, posts []api.Post) (string, error)
	Summarize(ctx context.Context, text string, maxLength int) (string, error)
}

// Speech is the part of tts.Client the API needs.
type Speech interface {
	Speak(ctx context.Context, text, voiceID string) ([]byte, error)
	Voices(ctx context.Context) ([]api.Voice, error)
}

// Options wires the server. Assistant and Speech are resolved per request so
// a missing API key only fails the routes that need it.
type Options struct {
	Feeds       Feeds
	Assistant   func(ctx context.Context) (Assistant, error)
	Speech      func(ctx context.Context) (Speech, error)
	VoiceID     string
	CORSOrigins []string
	Logger      *zap.Logger
}

// Server serves the Pulse API.
type Server struct {
	opts Options
	log  *zap.Logger
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.VoiceID == "" {
		opts.VoiceID = api.DefaultVoiceID
	}
	return &Server{opts: opts, log: log}
}

// Router returns an http.Handler with registered routes, CORS and request
// logging.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /accounts", s.handleAccounts)
	mux.HandleFunc("GET /posts", s.handlePosts)
	mux.HandleFunc("GET /feed", s.handleFeed)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /summarize", s.handleSummarize)
	mux.HandleFunc("POST /format", s.handleFormat)
	mux.HandleFunc("POST /tts", s.handleSpeak)
	mux.HandleFunc("GET /tts/voices", s.handleVoices)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions, http.MethodHead},
		AllowedHeaders:   []string{"*"},
	})
	return s.logRequests(c.Handler(mux))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, api.ErrorBody{Detail: detail})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		writeError(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.Health{Message: Title, Status: "running", Version: Version})
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := s.opts.Feeds.Accounts()
	if accounts == nil {
		accounts = []string{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "username query parameter is required")
		return
	}
	posts, err := s.opts.Feeds.Fetch(r.Context(), username)
	if err != nil {
		var unknown *feeds.UnknownAccountError
		if errors.As(err, &unknown) {
			writeError(w, http.StatusNotFound, unknown.Error())
			return
		}
		s.log.Warn("fetch failed", zap.String("account", username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error fetching RSS feed: "+err.Error())
		return
	}
	s.writePosts(w, r, posts)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	accounts := r.URL.Query()["account"]
	posts, err := s.opts.Feeds.FetchAll(r.Context(), accounts...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching RSS feeds: "+err.Error())
		return
	}
	s.writePosts(w, r, feeds.Filter(posts, accounts...))
}

// writePosts answers with posts, or 304 when the client already holds them.
func (s *Server) writePosts(w http.ResponseWriter, r *http.Request, posts api.Posts) {
	if posts == nil {
		posts = api.Posts{}
	}
	etag := strconv.Quote(posts.Hash())
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) assistant(w http.ResponseWriter, r *http.Request) (Assistant, bool) {
	if s.opts.Assistant == nil {
		writeError(w, http.StatusInternalServerError, "Configuration error: assistant is not configured")
		return nil, false
	}
	a, err := s.opts.Assistant(r.Context())
	if err != nil {
		s.log.Error("assistant unavailable", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Configuration error: "+err.Error())
		return nil, false
	}
	return a, true
}

func (s *Server) speech(w http.ResponseWriter, r *http.Request) (Speech, bool) {
	if s.opts.Speech == nil {
		writeError(w, http.StatusInternalServerError, "Configuration error: speech is not configured")
		return nil, false
	}
	sp, err := s.opts.Speech(r.Context())
	if err != nil {
		s.log.Error("speech unavailable", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Configuration error: "+err.Error())
		return nil, false
	}
	return sp, true
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusUnprocessableEntity, assistant.ErrEmptyMessage.Error())
		return
	}
	a, ok := s.assistant(w, r)
	if !ok {
		return
	}
	reply, err := a.Reply(r.Context(), req.Message, req.Posts)
	if err != nil {
		s.log.Error("chat failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error generating chat response: "+err.Error())
		return
	}
	doc := markup.Format(reply)
	resp := api.ChatResponse{Response: reply, Formatted: &doc}
	if r.URL.Query().Get("render") == "html" {
		resp.HTML = markup.HTML(doc)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req api.SummaryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "text must not be empty")
		return
	}
	a, ok := s.assistant(w, r)
	if !ok {
		return
	}
	summary, err := a.Summarize(r.Context(), req.Text, req.MaxLength)
	if err != nil {
		s.log.Error("summarize failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error generating summary: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, api.SummaryResponse{Summary: summary})
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var req api.FormatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	doc := markup.Format(req.Text)
	writeJSON(w, http.StatusOK, api.FormatResponse{Formatted: doc, HTML: markup.HTML(doc)})
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req api.TTSRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sp, ok := s.speech(w, r)
	if !ok {
		return
	}
	voice := req.VoiceID
	if voice == "" {
		voice = s.opts.VoiceID
	}
	audio, err := sp.Speak(r.Context(), req.Text, voice)
	if err != nil {
		if errors.Is(err, tts.ErrEmptyText) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.log.Error("speech failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error generating speech: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", "inline; filename=speech.mp3")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	_, _ = w.Write(audio)
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	sp, ok := s.speech(w, r)
	if !ok {
		return
	}
	voices, err := sp.Voices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error fetching voices: %v", err))
		return
	}
	if voices == nil {
		voices = []api.Voice{}
	}
	writeJSON(w, http.StatusOK, api.VoicesResponse{Voices: voices})
}
