// Package assistant answers questions about recent posts and summarises text
// with a generative model.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/stillwater/pulse/pkg/api"
)

var (
	ErrEmptyMessage  = errors.New("message must not be empty")
	ErrEmptyResponse = errors.New("model returned no text")
)

// GenerateOptions are the sampling parameters of one request.
type GenerateOptions struct {
	Temperature float32
	TopP        float32
	TopK        float32
	MaxTokens   int32
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Options configures a Service.
type Options struct {
	SystemPrompt    string
	MaxContextPosts int
	Generation      GenerateOptions
	Logger          *zap.Logger
}

// DefaultGeneration mirrors the backend's chat settings.
var DefaultGeneration = GenerateOptions{Temperature: 0.7, TopP: 0.95, TopK: 40, MaxTokens: 1024}

const (
	DefaultMaxContextPosts  = 40
	DefaultSummaryMaxLength = 150
)

type Service struct {
	gen  Generator
	opts Options
	log  *zap.Logger
}

func New(gen Generator, opts Options) *Service {
	if strings.TrimSpace(opts.SystemPrompt) == "" {
		opts.SystemPrompt = SystemPrompt
	}
	if opts.MaxContextPosts <= 0 {
		opts.MaxContextPosts = DefaultMaxContextPosts
	}
	if opts.Generation == (GenerateOptions{}) {
		opts.Generation = DefaultGeneration
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{gen: gen, opts: opts, log: log}
}

// Reply answers message using posts as context.
func (s *Service) Reply(ctx context.Context, message string, posts []api.Post) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}
	prompt := BuildPrompt(s.opts.SystemPrompt, message, BuildPostsContext(posts, s.opts.MaxContextPosts))
	s.log.Debug("chat request", zap.Int("posts", len(posts)), zap.Int("prompt_bytes", len(prompt)))
	out, err := s.gen.Generate(ctx, prompt, s.opts.Generation)
	if err != nil {
		return "", fmt.Errorf("generating chat response: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// Summarize condenses text to roughly maxLength characters.
func (s *Service) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}
	if maxLength <= 0 {
		maxLength = DefaultSummaryMaxLength
	}
	opts := s.opts.Generation
	// Roughly two characters per token.
	opts.MaxTokens = int32(maxLength / 2)
	out, err := s.gen.Generate(ctx, buildSummaryPrompt(text, maxLength), opts)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return truncateSummary(out, maxLength), nil
}
