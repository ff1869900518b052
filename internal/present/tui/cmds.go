package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stillwater/pulse/pkg/api"
)

// reloadResultMsg carries freshly fetched posts back to the list.
type reloadResultMsg struct {
	posts []api.Post
	err   error
	dur   time.Duration
}

// replyMsg carries the assistant's answer to the chat panel.
type replyMsg struct {
	text string
	err  error
	dur  time.Duration
}

// speakResultMsg reports where the spoken reply was saved.
type speakResultMsg struct {
	path string
	err  error
}

func reloadCmd(ctx context.Context, reload func(context.Context) ([]api.Post, error)) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		posts, err := reload(ctx)
		return reloadResultMsg{posts: posts, err: err, dur: time.Since(start)}
	}
}

func askCmd(ctx context.Context, ask AskFunc, message string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		text, err := ask(ctx, message)
		return replyMsg{text: text, err: err, dur: time.Since(start)}
	}
}

func speakCmd(ctx context.Context, speak SpeakFunc, text string) tea.Cmd {
	return func() tea.Msg {
		path, err := speak(ctx, text)
		return speakResultMsg{path: path, err: err}
	}
}
