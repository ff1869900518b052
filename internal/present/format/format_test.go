package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillwater/pulse/pkg/api"
)

var samplePosts = []api.Post{
	{Title: "Game\tday!", Link: "https://instagram.com/p/1", Published: "2024-09-14T18:00:00Z", Account: "okstate", ContentSnippet: "Kickoff at 6"},
	{Title: "", Link: "", Published: "sometime", Account: "releaseradar"},
}

func TestWritePlainPosts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlainPosts(&buf, samplePosts, true))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "published"))
	assert.Contains(t, lines[1], `Game\tday!`)
	assert.Contains(t, lines[1], "@okstate")
	assert.True(t, strings.HasPrefix(lines[2], "sometime"))
}

func TestWriteJSONPosts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONPosts(&buf, nil, false))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteJSONPosts(&buf, samplePosts, true))
	var back []api.Post
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, samplePosts, back)
}

func TestWriteNDJSONPosts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNDJSONPosts(&buf, samplePosts))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestPostsMarkdown(t *testing.T) {
	now := time.Date(2024, 9, 14, 20, 0, 0, 0, time.UTC)
	md := PostsMarkdown(samplePosts, now)
	assert.Contains(t, md, "## Game\tday!")
	assert.Contains(t, md, "**@okstate** · 2h ago")
	assert.Contains(t, md, "Kickoff at 6")
	assert.Contains(t, md, "[View on Instagram](https://instagram.com/p/1)")
	assert.Contains(t, md, "## Untitled Post")
	assert.Contains(t, md, "**@releaseradar** · sometime")
	assert.Equal(t, "_No posts._\n", PostsMarkdown(nil, now))
}

func TestRelative(t *testing.T) {
	now := time.Date(2024, 9, 14, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", relative(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", relative(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3d ago", relative(now.Add(-72*time.Hour), now))
	assert.Contains(t, relative(now.Add(-30*24*time.Hour), now), "2024")
}

func TestWritePrettyPosts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePrettyPosts(&buf, samplePosts[:1]))
	assert.NotEmpty(t, strings.TrimSpace(buf.String()))
}
