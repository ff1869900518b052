package wire

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/stillwater/pulse/internal/assistant"
	"github.com/stillwater/pulse/internal/config"
	"github.com/stillwater/pulse/internal/feeds"
	"github.com/stillwater/pulse/internal/keys"
	"github.com/stillwater/pulse/internal/server"
	"github.com/stillwater/pulse/internal/tts"
)

// GeneratorFactory builds the model client behind the assistant.
type GeneratorFactory func(ctx context.Context, apiKey, model string) (assistant.Generator, error)

// App aggregates the major services for easy injection.
type App struct {
	Cfg        *viper.Viper
	Log        *zap.Logger
	Feeds      *feeds.Service
	FeedSource string
	// Keys is consulted after configuration when resolving API keys. When nil
	// the system keyring is used if one is available.
	Keys         keys.KeyStore
	NewGenerator GeneratorFactory

	keysOnce  sync.Once
	mu        sync.Mutex
	assistant *assistant.Service
	speech    *tts.Client
}

// BuildApp wires dependencies with the provided config.
func BuildApp(ctx context.Context, v *viper.Viper, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	accounts, source, err := config.LoadFeeds(v)
	if err != nil {
		return nil, err
	}
	log.Debug("feeds loaded", zap.String("source", source), zap.Int("accounts", len(accounts)))
	fs := feeds.New(accounts, feeds.Options{
		MaxPosts:    v.GetInt("feeds.max_posts_per_account"),
		CacheTTL:    config.Duration(v, "feeds.cache_ttl"),
		Concurrency: v.GetInt("feeds.concurrency"),
		Timeout:     config.Duration(v, "feeds.timeout"),
		Logger:      log.Named("feeds"),
	})
	return &App{
		Cfg:        v,
		Log:        log,
		Feeds:      fs,
		FeedSource: source,
		NewGenerator: func(ctx context.Context, apiKey, model string) (assistant.Generator, error) {
			return assistant.NewGemini(ctx, apiKey, model)
		},
	}, nil
}

func (a *App) keyStore() keys.KeyStore {
	a.keysOnce.Do(func() {
		if a.Keys == nil && keys.KeyringAvailable() {
			a.Keys = &keys.KeyringStore{Service: a.Cfg.GetString("keyring.service")}
		}
	})
	return a.Keys
}

// Assistant returns the chat assistant, creating it on first use. It fails
// when no Gemini API key is configured.
func (a *App) Assistant(ctx context.Context) (*assistant.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.assistant != nil {
		return a.assistant, nil
	}
	key, err := keys.Resolve(a.Cfg, a.keyStore(), keys.Gemini)
	if err != nil {
		return nil, fmt.Errorf("%w (set GEMINI_API_KEY or run `pulse config set-key gemini`)", err)
	}
	gen, err := a.NewGenerator(ctx, key, a.Cfg.GetString("gemini.model"))
	if err != nil {
		return nil, err
	}
	a.assistant = assistant.New(gen, assistant.Options{
		SystemPrompt:    a.Cfg.GetString("assistant.system_prompt"),
		MaxContextPosts: a.Cfg.GetInt("assistant.max_context_posts"),
		Generation: assistant.GenerateOptions{
			Temperature: float32(a.Cfg.GetFloat64("gemini.temperature")),
			TopP:        float32(a.Cfg.GetFloat64("gemini.top_p")),
			TopK:        float32(a.Cfg.GetFloat64("gemini.top_k")),
			MaxTokens:   int32(a.Cfg.GetInt("gemini.max_tokens")),
		},
		Logger: a.Log.Named("assistant"),
	})
	return a.assistant, nil
}

// Speech returns the ElevenLabs client. It fails when no API key is configured.
func (a *App) Speech(ctx context.Context) (*tts.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.speech != nil {
		return a.speech, nil
	}
	key, err := keys.Resolve(a.Cfg, a.keyStore(), keys.ElevenLabs)
	if err != nil {
		return nil, fmt.Errorf("%w (set ELEVENLABS_API_KEY or run `pulse config set-key elevenlabs`)", err)
	}
	c := tts.New(key)
	c.BaseURL = a.Cfg.GetString("elevenlabs.base_url")
	c.Model = a.Cfg.GetString("tts.model")
	c.OutputFormat = a.Cfg.GetString("tts.output_format")
	a.speech = c
	return c, nil
}

// Server builds the HTTP API over the app's services.
func (a *App) Server() *server.Server {
	return server.New(server.Options{
		Feeds: a.Feeds,
		Assistant: func(ctx context.Context) (server.Assistant, error) {
			svc, err := a.Assistant(ctx)
			if err != nil {
				return nil, err
			}
			return svc, nil
		},
		Speech: func(ctx context.Context) (server.Speech, error) {
			c, err := a.Speech(ctx)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		VoiceID:     a.Cfg.GetString("tts.voice_id"),
		CORSOrigins: a.Cfg.GetStringSlice("server.cors_origins"),
		Logger:      a.Log.Named("http"),
	})
}
