package tui

import (
	"bytes"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	lipglossv2 "github.com/charmbracelet/lipgloss/v2"

	"github.com/stillwater/pulse/internal/present/format"
	"github.com/stillwater/pulse/pkg/api"
)

// postModal shows one post rendered with Glamour inside a scrollable viewport.
type postModal struct {
	post    api.Post
	vp      viewport.Model
	width   int
	height  int
	padX    int
	padY    int
	box     lipglossv2.Style
	content string
}

func newPostModal(p api.Post, termW, termH int) *postModal {
	m := &postModal{padX: 2, padY: 1}
	m.resizeForTerm(termW, termH)
	m.setPost(p)
	return m
}

func (m *postModal) resizeForTerm(termW, termH int) {
	if termW <= 0 || termH <= 0 {
		termW, termH = 80, 24
	}
	// 60% width, or nearly full width if terminal is small (<80 cols)
	w := int(float64(termW) * 0.6)
	if termW < 80 {
		w = termW - 4
	}
	if w < 40 {
		w = max(32, termW-2)
	}
	h := int(float64(termH) * 0.7)
	if termH < 20 {
		h = termH - 2
	}
	if h < 10 {
		h = max(8, termH-1)
	}
	m.width, m.height = w, h
	m.box = lipglossv2.NewStyle().
		Width(w).
		Height(h).
		Padding(m.padY, m.padX).
		Border(lipglossv2.RoundedBorder()).
		BorderForeground(lipglossv2.Color("63"))

	innerW := max(w-2-m.padX*2, 10)
	innerH := max(h-2-m.padY*2, 5)
	if m.vp.Width == 0 {
		m.vp = viewport.New(innerW, innerH)
	} else {
		m.vp.Width = innerW
		m.vp.Height = innerH
	}
	m.vp.SetContent(m.content)
}

func (m *postModal) setPost(p api.Post) {
	m.post = p
	var buf bytes.Buffer
	if err := format.WritePrettyPosts(&buf, []api.Post{p}); err != nil {
		m.setContent(format.PostsMarkdown([]api.Post{p}, timeNow()))
		return
	}
	m.setContent(buf.String())
}

func (m *postModal) setContent(s string) {
	m.content = s
	m.vp.SetContent(s)
}

func (m *postModal) update(msg tea.Msg) (*postModal, tea.Cmd) {
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.resizeForTerm(x.Width, x.Height)
		return m, nil
	case tea.KeyMsg:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m *postModal) View() string { return m.box.Render(m.vp.View()) }
