package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stillwater/pulse/internal/client"
	"github.com/stillwater/pulse/internal/wire"
	"github.com/stillwater/pulse/pkg/api"
)

// backend is what the commands need, served either in-process or by a
// remote pulse API.
type backend interface {
	Accounts(ctx context.Context) ([]string, error)
	Feed(ctx context.Context, accounts ...string) ([]api.Post, error)
	Ask(ctx context.Context, message string, posts []api.Post) (string, error)
	Summarize(ctx context.Context, text string, maxLength int) (string, error)
	Speak(ctx context.Context, text, voiceID string) ([]byte, error)
	Voices(ctx context.Context) ([]api.Voice, error)
	Name() string
}

func backendFor(cmd *cobra.Command) backend {
	app := getApp(cmd)
	if remote, _ := cmd.Flags().GetString("remote"); strings.TrimSpace(remote) != "" {
		return &remoteBackend{c: client.New(remote)}
	}
	return &localBackend{app: app}
}

type localBackend struct {
	app *wire.App
}

func (b *localBackend) Name() string { return "local" }

func (b *localBackend) Accounts(context.Context) ([]string, error) {
	return b.app.Feeds.Accounts(), nil
}

func (b *localBackend) Feed(ctx context.Context, accounts ...string) ([]api.Post, error) {
	return b.app.Feeds.FetchAll(ctx, accounts...)
}

func (b *localBackend) Ask(ctx context.Context, message string, posts []api.Post) (string, error) {
	svc, err := b.app.Assistant(ctx)
	if err != nil {
		return "", err
	}
	return svc.Reply(ctx, message, posts)
}

func (b *localBackend) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	svc, err := b.app.Assistant(ctx)
	if err != nil {
		return "", err
	}
	return svc.Summarize(ctx, text, maxLength)
}

func (b *localBackend) Speak(ctx context.Context, text, voiceID string) ([]byte, error) {
	c, err := b.app.Speech(ctx)
	if err != nil {
		return nil, err
	}
	return c.Speak(ctx, text, voiceID)
}

func (b *localBackend) Voices(ctx context.Context) ([]api.Voice, error) {
	c, err := b.app.Speech(ctx)
	if err != nil {
		return nil, err
	}
	return c.Voices(ctx)
}

type remoteBackend struct {
	c *client.Client
}

func (b *remoteBackend) Name() string { return b.c.BaseURL }

func (b *remoteBackend) Accounts(ctx context.Context) ([]string, error) {
	return b.c.Accounts(ctx)
}

func (b *remoteBackend) Feed(ctx context.Context, accounts ...string) ([]api.Post, error) {
	return b.c.Feed(ctx, accounts...)
}

func (b *remoteBackend) Ask(ctx context.Context, message string, posts []api.Post) (string, error) {
	resp, err := b.c.Chat(ctx, api.ChatRequest{Message: message, Posts: posts})
	if err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (b *remoteBackend) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	return b.c.Summarize(ctx, api.SummaryRequest{Text: text, MaxLength: maxLength})
}

func (b *remoteBackend) Speak(ctx context.Context, text, voiceID string) ([]byte, error) {
	return b.c.Speak(ctx, text, voiceID)
}

func (b *remoteBackend) Voices(ctx context.Context) ([]api.Voice, error) {
	return b.c.Voices(ctx)
}
