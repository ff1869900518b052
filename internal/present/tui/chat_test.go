package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, m chatModel, msg tea.Msg) (chatModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	cm, ok := next.(chatModel)
	require.True(t, ok)
	return cm, cmd
}

func newTestChat(ask AskFunc) chatModel {
	m := newChatModel(context.Background(), ChatOptions{Ask: ask})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return next.(chatModel)
}

func TestChatSendAndReply(t *testing.T) {
	var asked string
	m := newTestChat(func(_ context.Context, msg string) (string, error) {
		asked = msg
		return "**Game day** is *Saturday*", nil
	})

	m.input.SetValue("  when is the game?  ")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	require.Len(t, m.messages, 1)
	assert.Equal(t, roleUser, m.messages[0].role)
	assert.Equal(t, "when is the game?", m.messages[0].text)
	assert.Empty(t, m.input.Value())

	// A second enter while waiting is ignored.
	m.input.SetValue("again")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Len(t, m.messages, 1)

	reply := askCmd(context.Background(), m.opts.Ask, "when is the game?")()
	assert.Equal(t, "when is the game?", asked)
	m, _ = update(t, m, reply)
	assert.False(t, m.loading)
	require.Len(t, m.messages, 2)
	assert.Equal(t, roleAssistant, m.messages[1].role)
	assert.NotEqual(t, m.messages[0].id, m.messages[1].id)
	assert.Contains(t, m.transcript(80), "Game day")
	assert.NotContains(t, m.transcript(80), "**")
}

func TestChatErrorReply(t *testing.T) {
	m := newTestChat(nil)
	m.loading = true
	m, _ = update(t, m, replyMsg{err: errors.New("backend down")})
	require.Len(t, m.messages, 1)
	assert.Equal(t, chatErrorReply, m.messages[0].text)
	assert.Equal(t, "backend down", m.status)
}

func TestChatBlankInputIgnored(t *testing.T) {
	m := newTestChat(func(context.Context, string) (string, error) { return "x", nil })
	m.input.SetValue("   ")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, m.messages)
}

func TestChatSuggestedPrompts(t *testing.T) {
	m := newTestChat(nil)
	assert.Contains(t, m.transcript(80), SuggestedPrompts[0])

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, SuggestedPrompts[0], m.input.Value())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, SuggestedPrompts[1], m.input.Value())
}

func TestChatSpeakLast(t *testing.T) {
	var spoken string
	m := newChatModel(context.Background(), ChatOptions{
		Speak: func(_ context.Context, text string) (string, error) {
			spoken = text
			return "/tmp/reply.mp3", nil
		},
	})
	m.append(roleAssistant, "**hello**")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.True(t, m.speaking)

	res := speakCmd(context.Background(), m.opts.Speak, "**hello**")()
	assert.Equal(t, "**hello**", spoken)
	m, _ = update(t, m, res)
	assert.False(t, m.speaking)
	assert.Equal(t, "saved audio to /tmp/reply.mp3", m.status)
}

func TestChatHelpOverlay(t *testing.T) {
	m := newTestChat(nil)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "speak the last reply")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.False(t, m.showHelp)
	assert.Empty(t, m.input.Value())
}
