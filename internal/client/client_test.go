package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stillwater/pulse/internal/server"
	"github.com/stillwater/pulse/pkg/api"
)

type stubFeeds struct{}

func (stubFeeds) Accounts() []string { return []string{"okstate"} }

func (stubFeeds) Fetch(_ context.Context, username string) ([]api.Post, error) {
	if username != "okstate" {
		return nil, errors.New("boom")
	}
	return []api.Post{{Title: "Game day!", Account: "okstate"}}, nil
}

func (f stubFeeds) FetchAll(ctx context.Context, accounts ...string) ([]api.Post, error) {
	return f.Fetch(ctx, "okstate")
}

type echoAssistant struct{}

func (echoAssistant) Reply(_ context.Context, message string, _ []api.Post) (string, error) {
	return "**" + message + "**", nil
}

func (echoAssistant) Summarize(_ context.Context, text string, _ int) (string, error) {
	return text[:3], nil
}

func newClient(t *testing.T) *Client {
	t.Helper()
	srv := server.New(server.Options{
		Feeds:     stubFeeds{},
		Assistant: func(context.Context) (server.Assistant, error) { return echoAssistant{}, nil },
		Logger:    zap.NewNop(),
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	c := New(ts.URL + "/")
	c.HTTP = ts.Client()
	return c
}

func TestClientRoundTrips(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	accounts, err := c.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"okstate"}, accounts)

	posts, err := c.Posts(ctx, "okstate")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Game day!", posts[0].Title)

	feed, err := c.Feed(ctx, "okstate")
	require.NoError(t, err)
	assert.Len(t, feed, 1)

	reply, err := c.Chat(ctx, api.ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "**hi**", reply.Response)
	require.NotNil(t, reply.Formatted)

	summary, err := c.Summarize(ctx, api.SummaryRequest{Text: "parade"})
	require.NoError(t, err)
	assert.Equal(t, "par", summary)
}

func TestClientDecodesDetail(t *testing.T) {
	c := newClient(t)

	_, err := c.Posts(context.Background(), "nobody")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Error fetching RSS feed: boom", apiErr.Detail)

	_, err = c.Speak(context.Background(), "hi", "")
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Detail, "Configuration error")
}

func TestErrorWithoutDetail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := New(ts.URL).Voices(context.Background())
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "pulse api: Bad Gateway", apiErr.Error())
}
