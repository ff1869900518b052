package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loaded(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err := Load(context.Background(), v); err != nil {
		t.Fatalf("config load: %v", err)
	}
	return v
}

func TestDefaultsAreValid(t *testing.T) {
	v := loaded(t)
	if err := CheckConfigValidity(v); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	assert.Equal(t, 5, v.GetInt("feeds.max_posts_per_account"))
	assert.Equal(t, "gemini-2.0-flash", v.GetString("gemini.model"))
	assert.Equal(t, []string{"http://localhost:3000"}, v.GetStringSlice("server.cors_origins"))
}

func TestLoadBindsVendorKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("PULSE_ELEVENLABS_API_KEY", "e-key")
	t.Setenv("PULSE_SERVER_CORS_ORIGINS", "http://a.test, http://b.test")
	v := loaded(t)
	assert.Equal(t, "g-key", v.GetString("gemini.api_key"))
	assert.Equal(t, "e-key", v.GetString("elevenlabs.api_key"))
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, v.GetStringSlice("server.cors_origins"))
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `http_addr = ":9000"
[feeds]
max_posts_per_account = 8
[accounts]
okstate = "https://rss.example/okstate.xml"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, Load(context.Background(), v))
	assert.Equal(t, ":9000", v.GetString("http_addr"))
	assert.Equal(t, 8, v.GetInt("feeds.max_posts_per_account"))
	assert.Equal(t, 4, v.GetInt("feeds.concurrency"), "untouched keys keep defaults")
	assert.Equal(t, map[string]string{"okstate": "https://rss.example/okstate.xml"}, v.GetStringMapString("accounts"))
}

func TestCheckConfigValidityInvalid(t *testing.T) {
	v := viper.New()
	v.Set("http_addr", "")
	v.Set("feeds.max_posts_per_account", 0)
	v.Set("feeds.concurrency", 0)
	v.Set("feeds.cache_ttl", "soon")
	v.Set("feeds.timeout", "0s")
	v.Set("server.shutdown_timeout", "10s")
	v.Set("gemini.temperature", 3.0)
	v.Set("gemini.top_p", 0.0)
	v.Set("gemini.top_k", 40)
	v.Set("gemini.max_tokens", 1024)
	v.Set("assistant.max_context_posts", 40)
	v.Set("elevenlabs.base_url", "not a url")
	v.Set("server.cors_origins", []string{"*", "localhost"})
	v.Set("accounts.okstate", "ftp://example")
	v.Set("log.level", "loud")
	v.Set("log.format", "json")

	err := CheckConfigValidity(v)
	if err == nil {
		t.Fatalf("expected error for invalid config")
	}

	msg := err.Error()
	expected := []string{
		"http_addr is required",
		"feeds.max_posts_per_account must be greater than 0",
		"feeds.concurrency must be greater than 0",
		"feeds.cache_ttl must be a non-negative duration",
		"feeds.timeout must be a positive duration",
		"gemini.temperature must be between 0 and 2",
		"gemini.top_p must be in (0, 1]",
		"elevenlabs.base_url must be an http(s) url",
		`server.cors_origins has invalid origin "localhost"`,
		"account okstate has invalid feed url",
		"log.level must be one of",
	}
	for _, want := range expected {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected error to contain %q, got %q", want, msg)
		}
	}
	assert.NotContains(t, msg, "log.format")
	assert.NotContains(t, msg, "server.shutdown_timeout")
}

func TestDuration(t *testing.T) {
	v := viper.New()
	v.Set("feeds.cache_ttl", "90s")
	assert.Equal(t, "1m30s", Duration(v, "feeds.cache_ttl").String())
	v.Set("feeds.timeout", "whenever")
	assert.Equal(t, "15s", Duration(v, "feeds.timeout").String())
}

func TestRenderDefaultTOMLRoundTrips(t *testing.T) {
	out := RenderDefaultTOML()
	assert.Contains(t, out, "[gemini]")
	assert.Contains(t, out, "temperature = 0.7")
	assert.Contains(t, out, "top_k = 40")
	assert.Contains(t, out, `voice_id = "21m00Tcm4TlvDq8ikWAM"`)

	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(out)))
	assert.InDelta(t, 0.7, v.GetFloat64("gemini.temperature"), 1e-9)
	assert.Equal(t, 1024, v.GetInt("gemini.max_tokens"))
}

func TestUpdateTOML(t *testing.T) {
	existing := `http_addr = ":9000"
stale_option = true
`
	got, changed := UpdateTOML(existing)
	assert.True(t, changed)
	assert.Contains(t, got, `http_addr = ":9000"`)
	assert.Contains(t, got, "# OUTDATED: option removed from config schema")
	assert.Contains(t, got, "# stale_option = true")
	assert.Contains(t, got, "[feeds]")

	again, changed := UpdateTOML(got)
	assert.False(t, changed)
	assert.Equal(t, got, again)
}

func TestUpsertAccountConfig(t *testing.T) {
	t.Run("creates section", func(t *testing.T) {
		got, changed := UpsertAccountConfig(`http_addr = ":8000"`, "okstate", "https://rss.example/a.xml")
		assert.True(t, changed)
		assert.Equal(t, "http_addr = \":8000\"\n\n[accounts]\nokstate = \"https://rss.example/a.xml\"", got)
	})

	t.Run("replaces existing key", func(t *testing.T) {
		input := "[accounts]\nokstate = \"https://old\"\n\n[feeds]\nconcurrency = 2"
		got, changed := UpsertAccountConfig(input, "okstate", "https://new")
		assert.True(t, changed)
		assert.Equal(t, "[accounts]\nokstate = \"https://new\"\n\n[feeds]\nconcurrency = 2", got)
	})

	t.Run("appends inside section before blank lines", func(t *testing.T) {
		input := "[accounts]\nokstate = \"https://a\"\n\n[feeds]\nconcurrency = 2"
		got, _ := UpsertAccountConfig(input, "releaseradar", "https://b")
		assert.Equal(t, "[accounts]\nokstate = \"https://a\"\nreleaseradar = \"https://b\"\n\n[feeds]\nconcurrency = 2", got)
	})

	t.Run("section header is last line", func(t *testing.T) {
		got, _ := UpsertAccountConfig("[accounts]", "okstate", "https://a")
		assert.Equal(t, "[accounts]\nokstate = \"https://a\"", got)
	})

	t.Run("unchanged value", func(t *testing.T) {
		input := "[accounts]\nokstate = \"https://a\""
		got, changed := UpsertAccountConfig(input, "okstate", "https://a")
		assert.False(t, changed)
		assert.Equal(t, input, got)
	})
}

func TestDeleteAccountConfig(t *testing.T) {
	input := "[accounts]\nokstate = \"https://a\"\nreleaseradar = \"https://b\"\n\n[feeds]\nokstate = 1"
	got, removed := DeleteAccountConfig(input, "okstate")
	assert.True(t, removed)
	assert.Equal(t, "[accounts]\nreleaseradar = \"https://b\"\n\n[feeds]\nokstate = 1", got)

	_, removed = DeleteAccountConfig(got, "missing")
	assert.False(t, removed)
}

func TestLoadFeeds(t *testing.T) {
	t.Run("config accounts win", func(t *testing.T) {
		v := viper.New()
		v.Set("accounts", map[string]any{"okstate": "https://a"})
		m, src, err := LoadFeeds(v)
		require.NoError(t, err)
		assert.Equal(t, "config", src)
		assert.Equal(t, map[string]string{"okstate": "https://a"}, m)
	})

	t.Run("explicit json file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "feeds.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"okstate":"https://a","downtown":"https://b"}`), 0o600))
		v := viper.New()
		v.Set("feeds.file", path)
		m, src, err := LoadFeeds(v)
		require.NoError(t, err)
		assert.Equal(t, path, src)
		assert.Len(t, m, 2)
	})

	t.Run("explicit yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "feeds.yaml")
		require.NoError(t, os.WriteFile(path, []byte("okstate: https://a\n"), 0o600))
		v := viper.New()
		v.Set("feeds.file", path)
		m, _, err := LoadFeeds(v)
		require.NoError(t, err)
		assert.Equal(t, "https://a", m["okstate"])
	})

	t.Run("missing explicit file fails", func(t *testing.T) {
		v := viper.New()
		v.Set("feeds.file", filepath.Join(t.TempDir(), "nope.json"))
		_, _, err := LoadFeeds(v)
		assert.Error(t, err)
	})

	t.Run("discovered data file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "feeds.json"), []byte(`{"x":"https://x"}`), 0o600))
		t.Chdir(dir)
		m, src, err := LoadFeeds(viper.New())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("data", "feeds.json"), src)
		assert.Equal(t, map[string]string{"x": "https://x"}, m)
	})

	t.Run("fallback", func(t *testing.T) {
		t.Chdir(t.TempDir())
		m, src, err := LoadFeeds(viper.New())
		require.NoError(t, err)
		assert.Equal(t, "builtin", src)
		assert.Equal(t, FallbackFeeds, m)
	})
}
