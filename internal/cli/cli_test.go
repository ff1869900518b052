package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"go.uber.org/zap"

	"github.com/stillwater/pulse/internal/config"
	"github.com/stillwater/pulse/internal/markup"
	"github.com/stillwater/pulse/internal/wire"
	"github.com/stillwater/pulse/pkg/api"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>okstate</title>
<item>
  <title>Game day!</title>
  <link>https://www.instagram.com/p/game/</link>
  <pubDate>Sat, 18 Oct 2025 15:00:00 +0000</pubDate>
</item>
<item>
  <title>Library hours</title>
  <link>https://www.instagram.com/p/library/</link>
  <pubDate>Thu, 16 Oct 2025 09:00:00 +0000</pubDate>
</item>
</channel>
</rss>`

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ELEVENLABS_API_KEY", "")
	t.Setenv("PULSE_LOG_LEVEL", "error")
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func rssServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testRSS))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFormatOutputs(t *testing.T) {
	dir := isolate(t)
	cfg := writeConfig(t, dir, "")

	out, err := run(t, "**Game day** is *Saturday*\nGo Pokes", "--config", cfg, "format", "-o", "html")
	require.NoError(t, err)
	assert.Equal(t, "<strong>Game day</strong> is <em>Saturday</em><br>Go Pokes\n", out)

	out, err = run(t, "**a** and *b*", "--config", cfg, "format", "-o", "text")
	require.NoError(t, err)
	assert.Equal(t, "a and b\n", out)

	out, err = run(t, "**a**", "--config", cfg, "format", "-o", "json")
	require.NoError(t, err)
	var doc markup.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, []markup.Span{{Kind: markup.Bold, Text: "a"}}, doc.Lines[0].Spans)

	_, err = run(t, "x", "--config", cfg, "format", "-o", "pdf")
	assert.ErrorContains(t, err, "invalid --output")
}

func TestFormatReadsFile(t *testing.T) {
	dir := isolate(t)
	cfg := writeConfig(t, dir, "")
	in := filepath.Join(dir, "reply.txt")
	require.NoError(t, os.WriteFile(in, []byte("*hi*"), 0o600))

	out, err := run(t, "", "--config", cfg, "format", "-o", "html", in)
	require.NoError(t, err)
	assert.Equal(t, "<em>hi</em>\n", out)
}

func TestAccountsFromConfig(t *testing.T) {
	dir := isolate(t)
	cfg := writeConfig(t, dir, "[accounts]\nokstate = \"https://example.com/a.xml\"\nreleaseradar = \"https://example.com/b.xml\"\n")

	out, err := run(t, "", "--config", cfg, "accounts", "--json")
	require.NoError(t, err)
	var got []string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.ElementsMatch(t, []string{"okstate", "releaseradar"}, got)

	out, err = run(t, "", "--config", cfg, "accounts")
	require.NoError(t, err)
	assert.Contains(t, out, "okstate\n")
}

func TestPostsJSON(t *testing.T) {
	dir := isolate(t)
	srv := rssServer(t)
	cfg := writeConfig(t, dir, fmt.Sprintf("[accounts]\nokstate = %q\n", srv.URL+"/okstate"))

	out, err := run(t, "", "--config", cfg, "posts", "-o", "json")
	require.NoError(t, err)
	var posts []api.Post
	require.NoError(t, json.Unmarshal([]byte(out), &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, "Game day!", posts[0].Title)
	assert.Equal(t, "okstate", posts[0].Account)

	out, err = run(t, "", "--config", cfg, "posts", "-o", "plain", "--noheaders")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"))
	assert.Contains(t, out, "https://www.instagram.com/p/library/")

	out, err = run(t, "", "--config", cfg, "posts", "-o", "json", "--since", "2025-10-17")
	require.NoError(t, err)
	posts = nil
	require.NoError(t, json.Unmarshal([]byte(out), &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "Game day!", posts[0].Title)

	_, err = run(t, "", "--config", cfg, "posts", "-o", "json", "--since", "soon")
	assert.ErrorContains(t, err, "invalid --since")

	_, err = run(t, "", "--config", cfg, "posts", "-o", "xml")
	assert.ErrorContains(t, err, "invalid --output")
}

func TestConfigGenerateAndCheck(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "gen", "config.toml")

	out, err := run(t, "", "--config", path, "config", "generate", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "http_addr")

	_, err = run(t, "", "--config", path, "config", "generate", "-o", path)
	assert.ErrorContains(t, err, "already exists")

	out, err = run(t, "", "--config", path, "config", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration OK: "+path)
}

func TestConfigCheckRejectsBadValues(t *testing.T) {
	dir := isolate(t)
	cfg := writeConfig(t, dir, "http_addr = \"\"\n")
	_, err := run(t, "", "--config", cfg, "config", "check")
	assert.ErrorContains(t, err, "http_addr is required")
}

func TestConfigAccountAddRemove(t *testing.T) {
	dir := isolate(t)
	cfg := writeConfig(t, dir, "http_addr = \"127.0.0.1:8000\"\n")

	out, err := run(t, "", "--config", cfg, "config", "account", "add", "@okstate", "https://rss.app/feeds/x.xml")
	require.NoError(t, err)
	assert.Contains(t, out, "Account okstate saved")

	out, err = run(t, "", "--config", cfg, "accounts")
	require.NoError(t, err)
	assert.Equal(t, "okstate\n", out)

	_, err = run(t, "", "--config", cfg, "config", "account", "add", "bad", "ftp://nope")
	assert.ErrorContains(t, err, "invalid feed url")

	out, err = run(t, "", "--config", cfg, "config", "account", "remove", "okstate")
	require.NoError(t, err)
	assert.Contains(t, out, "Account okstate removed")
	data, err := os.ReadFile(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "okstate =")

	out, err = run(t, "", "--config", cfg, "config", "account", "remove", "okstate")
	require.NoError(t, err)
	assert.Contains(t, out, "No change")
}

func TestConfigSetKey(t *testing.T) {
	keyring.MockInit()
	dir := isolate(t)
	cfg := writeConfig(t, dir, "")

	out, err := run(t, "secret-key\n", "--config", cfg, "config", "set-key", "gemini")
	require.NoError(t, err)
	assert.Contains(t, out, "Stored gemini key")
	got, err := keyring.Get("pulse", "gemini")
	require.NoError(t, err)
	assert.Equal(t, "secret-key", got)

	_, err = run(t, "", "--config", cfg, "config", "set-key", "openai")
	assert.ErrorContains(t, err, "unknown provider")

	_, err = run(t, "\n", "--config", cfg, "config", "set-key", "elevenlabs")
	assert.ErrorContains(t, err, "empty key")

	_, err = run(t, "", "--config", cfg, "config", "set-key", "gemini", "--delete")
	require.NoError(t, err)
	_, err = keyring.Get("pulse", "gemini")
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestAskWithoutKeyFails(t *testing.T) {
	keyring.MockInit()
	dir := isolate(t)
	cfg := writeConfig(t, dir, "[accounts]\nokstate = \"https://example.com/a.xml\"\n")

	_, err := run(t, "", "--config", cfg, "ask", "--no-posts", "hello")
	assert.ErrorContains(t, err, "gemini")
}

func testApp(t *testing.T, feedURL string) *wire.App {
	t.Helper()
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, config.Load(context.Background(), v))
	v.Set("accounts", map[string]any{"okstate": feedURL})
	v.Set("server.shutdown_timeout", "1s")
	app, err := wire.BuildApp(context.Background(), v, zap.NewNop())
	require.NoError(t, err)
	return app
}

func TestServeShutsDownOnCancel(t *testing.T) {
	isolate(t)
	app := testApp(t, rssServer(t).URL+"/okstate")

	ctx, cancel := context.WithCancel(context.Background())
	bound := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, app, "127.0.0.1:0", func(scheme string, addr net.Addr) {
			assert.Equal(t, "http", scheme)
			bound <- addr
		})
	}()

	var addr net.Addr
	select {
	case addr = <-bound:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr.String() + "/accounts")
	require.NoError(t, err)
	var accounts []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accounts))
	_ = resp.Body.Close()
	assert.Equal(t, []string{"okstate"}, accounts)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRemoteBackend(t *testing.T) {
	dir := isolate(t)
	app := testApp(t, rssServer(t).URL+"/okstate")
	remote := httptest.NewServer(app.Server().Router())
	t.Cleanup(remote.Close)
	cfg := writeConfig(t, dir, "")

	out, err := run(t, "", "--config", cfg, "--remote", remote.URL, "accounts", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `["okstate"]`, out)

	out, err = run(t, "", "--config", cfg, "--remote", remote.URL, "posts", "-o", "ndjson")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"))
	assert.Contains(t, out, `"title":"Game day!"`)

	out, err = run(t, "", "--config", cfg, "--remote", remote.URL, "posts", "-o", "json", "-a", "nobody")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out, "unknown accounts are skipped")

	_, err = run(t, "", "--config", cfg, "--remote", remote.URL, "summarize")
	assert.ErrorContains(t, err, "422", "blank text is rejected by the server")
}

func TestCompletion(t *testing.T) {
	dir := isolate(t)
	cfg := writeConfig(t, dir, "")
	for _, shell := range []string{"bash", "zsh", "fish"} {
		out, err := run(t, "", "--config", cfg, "completion", shell)
		require.NoError(t, err, shell)
		assert.Contains(t, out, "pulse", shell)
	}
}
