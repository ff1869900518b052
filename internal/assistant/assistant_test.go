package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillwater/pulse/pkg/api"
)

type fakeGen struct {
	out     string
	err     error
	prompts []string
	opts    []GenerateOptions
}

func (f *fakeGen) Generate(_ context.Context, prompt string, opts GenerateOptions) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	return f.out, f.err
}

func TestReply(t *testing.T) {
	gen := &fakeGen{out: "  **Game day** is Saturday.\n"}
	svc := New(gen, Options{})
	posts := []api.Post{
		{Title: "Game day!", Account: "okstate", ContentSnippet: "Kickoff at 6"},
		{Account: "releaseradar"},
	}

	got, err := svc.Reply(context.Background(), "When is the game?", posts)
	require.NoError(t, err)
	assert.Equal(t, "**Game day** is Saturday.", got)

	require.Len(t, gen.prompts, 1)
	p := gen.prompts[0]
	assert.True(t, strings.HasPrefix(p, SystemPrompt))
	assert.Contains(t, p, "1. From @okstate: Game day!\n   Kickoff at 6\n")
	assert.Contains(t, p, "2. From @releaseradar: Untitled\n   Untitled\n")
	assert.Contains(t, p, "User question: When is the game?")
	assert.Equal(t, DefaultGeneration, gen.opts[0])
}

func TestReplyErrors(t *testing.T) {
	t.Run("empty message", func(t *testing.T) {
		gen := &fakeGen{out: "x"}
		_, err := New(gen, Options{}).Reply(context.Background(), "  ", nil)
		assert.ErrorIs(t, err, ErrEmptyMessage)
		assert.Empty(t, gen.prompts)
	})
	t.Run("generator failure is wrapped", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		_, err := New(&fakeGen{err: boom}, Options{}).Reply(context.Background(), "hi", nil)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "generating chat response")
	})
	t.Run("blank reply", func(t *testing.T) {
		_, err := New(&fakeGen{out: " \n"}, Options{}).Reply(context.Background(), "hi", nil)
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestReplyLimitsContext(t *testing.T) {
	gen := &fakeGen{out: "ok"}
	posts := make([]api.Post, 5)
	for i := range posts {
		posts[i] = api.Post{Title: "p", Account: "a"}
	}
	_, err := New(gen, Options{MaxContextPosts: 2, SystemPrompt: "be brief"}).Reply(context.Background(), "q", posts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gen.prompts[0], "be brief\n\n"))
	assert.Contains(t, gen.prompts[0], "2. From @a")
	assert.NotContains(t, gen.prompts[0], "3. From @a")
}

func TestBuildPostsContextEmpty(t *testing.T) {
	assert.Equal(t, "", BuildPostsContext(nil, 10))
	p := BuildPrompt("sys", "q", "")
	assert.True(t, strings.HasPrefix(p, "sys\n\n\n\nUser question: q\n\n"))
}

func TestSummarize(t *testing.T) {
	gen := &fakeGen{out: "Short and sweet."}
	svc := New(gen, Options{})

	got, err := svc.Summarize(context.Background(), "A long caption about the homecoming parade.", 100)
	require.NoError(t, err)
	assert.Equal(t, "Short and sweet.", got)
	assert.Equal(t, int32(50), gen.opts[0].MaxTokens)
	assert.Contains(t, gen.prompts[0], "approximately 100 characters")
	assert.Contains(t, gen.prompts[0], "Text to summarize:\nA long caption about the homecoming parade.\n")

	_, err = svc.Summarize(context.Background(), "", 100)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSummarizeTruncates(t *testing.T) {
	gen := &fakeGen{out: "The parade starts downtown at noon on Saturday"}
	got, err := New(gen, Options{}).Summarize(context.Background(), "text", 20)
	require.NoError(t, err)
	assert.Equal(t, "The parade starts...", got)
}

func TestTruncateSummary(t *testing.T) {
	assert.Equal(t, "short", truncateSummary("short", 10))
	assert.Equal(t, "abcdefghij...", truncateSummary("abcdefghijklmnop", 10))
	assert.Equal(t, "héllo...", truncateSummary("héllo wörld", 8))
}
