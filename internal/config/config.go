package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/stillwater/pulse/pkg/api"
)

const appName = "pulse"

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, appName))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// Environment variables: PULSE_* (highest among these sources)
	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The backend has always read the bare vendor variables too.
	_ = v.BindEnv("gemini.api_key", "PULSE_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("elevenlabs.api_key", "PULSE_ELEVENLABS_API_KEY", "ELEVENLABS_API_KEY")

	// Allow comma-separated env override for cors origins
	if s := strings.TrimSpace(os.Getenv("PULSE_SERVER_CORS_ORIGINS")); s != "" {
		v.Set("server.cors_origins", splitList(s))
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, appName, "config.toml")
}

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
// This is the single source of truth for default values and generator output.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "http_addr", Default: "127.0.0.1:8000", Comment: "HTTP listen address for the API server"},
		{Key: "accounts", Default: map[string]any{}, Comment: "Instagram accounts: [accounts] <username> = \"<rss url>\"; overrides feeds.file"},

		{Key: "server.cors_origins", Default: []string{"http://localhost:3000"}, Comment: "Origins allowed to call the API from a browser"},
		{Key: "server.shutdown_timeout", Default: "10s", Comment: "Grace period for in-flight requests on shutdown"},
		{Key: "server.tls.domain", Default: "", Comment: "Serve HTTPS for this domain with automatic certificates (empty disables TLS)"},
		{Key: "server.tls.email", Default: "", Comment: "ACME account email"},
		{Key: "server.tls.storage_dir", Default: "", Comment: "Certificate cache; defaults to $XDG_CACHE_HOME/pulse/certmagic"},

		{Key: "feeds.file", Default: "", Comment: "feeds.json (or YAML) mapping username to RSS url"},
		{Key: "feeds.max_posts_per_account", Default: 5, Comment: "Posts kept from each feed"},
		{Key: "feeds.cache_ttl", Default: "5m", Comment: "How long fetched feeds are reused; 0 disables caching"},
		{Key: "feeds.refresh_interval", Default: "0s", Comment: "serve: refetch all feeds on this interval to keep the cache warm; 0 disables"},
		{Key: "feeds.concurrency", Default: 4, Comment: "Feeds fetched in parallel when aggregating"},
		{Key: "feeds.timeout", Default: "15s", Comment: "Per-feed HTTP timeout"},

		{Key: "gemini.api_key", Default: "", Comment: "Gemini API key (or GEMINI_API_KEY, or the system keyring)"},
		{Key: "gemini.model", Default: "gemini-2.0-flash", Comment: "Gemini model used for chat and summaries"},
		{Key: "gemini.temperature", Default: 0.7, Comment: "Sampling temperature (0-2)"},
		{Key: "gemini.top_p", Default: 0.95, Comment: "Nucleus sampling probability (0-1]"},
		{Key: "gemini.top_k", Default: 40, Comment: "Top-k sampling"},
		{Key: "gemini.max_tokens", Default: 1024, Comment: "Maximum output tokens per reply"},

		{Key: "assistant.max_context_posts", Default: 40, Comment: "Posts included in the chat prompt"},
		{Key: "assistant.system_prompt", Default: "", Comment: "Replaces the built-in assistant instructions when set"},

		{Key: "elevenlabs.api_key", Default: "", Comment: "ElevenLabs API key (or ELEVENLABS_API_KEY, or the system keyring)"},
		{Key: "elevenlabs.base_url", Default: "https://api.elevenlabs.io", Comment: "ElevenLabs API base URL"},

		{Key: "tts.voice_id", Default: api.DefaultVoiceID, Comment: "Default voice (Rachel)"},
		{Key: "tts.model", Default: "eleven_turbo_v2_5", Comment: "ElevenLabs speech model"},
		{Key: "tts.output_format", Default: "mp3_44100_128", Comment: "Audio encoding requested from ElevenLabs"},

		{Key: "log.level", Default: "info", Comment: "debug, info, warn or error"},
		{Key: "log.format", Default: "json", Comment: "json or console"},

		{Key: "keyring.service", Default: appName, Comment: "System keyring service name holding API keys"},
	}
}

// CheckConfigValidity reports every invalid option at once.
func CheckConfigValidity(v *viper.Viper) error {
	var errs []error
	if strings.TrimSpace(v.GetString("http_addr")) == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	for _, key := range []string{"feeds.max_posts_per_account", "feeds.concurrency", "gemini.top_k", "gemini.max_tokens", "assistant.max_context_posts"} {
		if v.GetInt(key) <= 0 {
			errs = append(errs, fmt.Errorf("%s must be greater than 0", key))
		}
	}
	for _, key := range []string{"feeds.cache_ttl", "feeds.refresh_interval"} {
		if d, err := time.ParseDuration(v.GetString(key)); err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s must be a non-negative duration", key))
		}
	}
	for _, key := range []string{"feeds.timeout", "server.shutdown_timeout"} {
		if d, err := time.ParseDuration(v.GetString(key)); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration", key))
		}
	}
	if t := v.GetFloat64("gemini.temperature"); t < 0 || t > 2 {
		errs = append(errs, errors.New("gemini.temperature must be between 0 and 2"))
	}
	if p := v.GetFloat64("gemini.top_p"); p <= 0 || p > 1 {
		errs = append(errs, errors.New("gemini.top_p must be in (0, 1]"))
	}
	if !isHTTPURL(v.GetString("elevenlabs.base_url")) {
		errs = append(errs, errors.New("elevenlabs.base_url must be an http(s) url"))
	}
	for _, o := range v.GetStringSlice("server.cors_origins") {
		if o != "*" && !isHTTPURL(o) {
			errs = append(errs, fmt.Errorf("server.cors_origins has invalid origin %q", o))
		}
	}
	for name, raw := range v.GetStringMapString("accounts") {
		if !isHTTPURL(raw) {
			errs = append(errs, fmt.Errorf("account %s has invalid feed url", name))
		}
	}
	switch v.GetString("log.level") {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, errors.New("log.level must be one of debug, info, warn, error"))
	}
	switch v.GetString("log.format") {
	case "json", "console":
	default:
		errs = append(errs, errors.New("log.format must be json or console"))
	}
	return errors.Join(errs...)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Duration reads a duration option, falling back to the registered default
// when the configured value does not parse.
func Duration(v *viper.Viper, key string) time.Duration {
	if d, err := time.ParseDuration(v.GetString(key)); err == nil {
		return d
	}
	for _, o := range GetConfigOptions() {
		if o.Key == key {
			if s, ok := o.Default.(string); ok {
				d, _ := time.ParseDuration(s)
				return d
			}
		}
	}
	return 0
}

// DefaultCacheDir resolves $XDG_CACHE_HOME/pulse or ~/.cache/pulse.
func DefaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", appName)
}
