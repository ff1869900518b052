package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lipglossv2 "github.com/charmbracelet/lipgloss/v2"
	"github.com/google/uuid"

	"github.com/stillwater/pulse/internal/markup"
)

// AskFunc answers one chat message.
type AskFunc func(ctx context.Context, message string) (string, error)

// SpeakFunc turns text into audio and returns where it was written.
type SpeakFunc func(ctx context.Context, text string) (string, error)

// ChatOptions configures the chat panel.
type ChatOptions struct {
	Ask AskFunc
	// Speak is optional; without it ctrl+s is disabled.
	Speak SpeakFunc
	// Subtitle is shown under the panel title, e.g. the backend in use.
	Subtitle string
}

// SuggestedPrompts are offered while the conversation is empty.
var SuggestedPrompts = []string{
	"What events are happening this week?",
	"Show me recent food and restaurant posts",
	"Any OSU game day updates?",
	"What's new in downtown Stillwater?",
	"Tell me about local business announcements",
}

const chatErrorReply = "Sorry, I encountered an error connecting to the AI. Please make sure the backend is running."

type role int

const (
	roleUser role = iota
	roleAssistant
)

type message struct {
	id   string
	role role
	text string
	at   time.Time
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	subtitleStyle  = lipgloss.NewStyle().Faint(true)
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	faintStyle     = lipgloss.NewStyle().Faint(true)
)

// RunChat opens the chat panel until the user quits.
func RunChat(ctx context.Context, opts ChatOptions) error {
	m := newChatModel(ctx, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

type chatModel struct {
	ctx        context.Context
	opts       ChatOptions
	messages   []message
	input      textarea.Model
	vp         viewport.Model
	spin       spinner.Model
	styles     markup.Styles
	loading    bool
	speaking   bool
	suggestion int
	status     string
	showHelp   bool
	width      int
	height     int
}

func newChatModel(ctx context.Context, opts ChatOptions) chatModel {
	ta := textarea.New()
	ta.Placeholder = "Ask about local posts…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	m := chatModel{
		ctx:        ctx,
		opts:       opts,
		input:      ta,
		vp:         viewport.New(80, 16),
		spin:       spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:     markup.DefaultStyles(),
		suggestion: -1,
	}
	m.refresh()
	return m
}

func (m chatModel) Init() tea.Cmd { return textarea.Blink }

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		if !m.loading && !m.speaking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case replyMsg:
		m.loading = false
		text := msg.text
		if msg.err != nil {
			text = chatErrorReply
			m.status = msg.err.Error()
		} else {
			m.status = fmt.Sprintf("answered in %s", msg.dur.Round(time.Millisecond))
		}
		m.append(roleAssistant, text)
		return m, nil
	case speakResultMsg:
		m.speaking = false
		if msg.err != nil {
			m.status = "speech failed: " + msg.err.Error()
		} else {
			m.status = "saved audio to " + msg.path
		}
		return m, nil
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "f1":
			m.showHelp = true
			return m, nil
		case "enter":
			return m.send()
		case "tab":
			if len(m.messages) == 0 {
				m.suggestion = (m.suggestion + 1) % len(SuggestedPrompts)
				m.input.SetValue(SuggestedPrompts[m.suggestion])
				m.input.CursorEnd()
				return m, nil
			}
		case "ctrl+s":
			return m.speakLast()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.loading || m.opts.Ask == nil {
		return m, nil
	}
	m.input.Reset()
	m.append(roleUser, text)
	m.loading = true
	m.status = ""
	return m, tea.Batch(askCmd(m.ctx, m.opts.Ask, text), m.spin.Tick)
}

func (m chatModel) speakLast() (tea.Model, tea.Cmd) {
	if m.opts.Speak == nil || m.speaking {
		return m, nil
	}
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].role == roleAssistant && m.messages[i].text != chatErrorReply {
			m.speaking = true
			m.status = "generating audio…"
			return m, tea.Batch(speakCmd(m.ctx, m.opts.Speak, m.messages[i].text), m.spin.Tick)
		}
	}
	return m, nil
}

func (m *chatModel) append(r role, text string) {
	m.messages = append(m.messages, message{id: uuid.NewString(), role: r, text: text, at: timeNow()})
	m.refresh()
	m.vp.GotoBottom()
}

func (m *chatModel) layout() {
	w := max(m.width, 20)
	m.input.SetWidth(w - 2)
	// header (2) + input (3) + status (1) + spacing (2)
	m.vp.Width = w
	m.vp.Height = max(m.height-8, 3)
}

// refresh re-renders the transcript into the viewport.
func (m *chatModel) refresh() {
	m.vp.SetContent(m.transcript(max(m.vp.Width, 20)))
}

func (m chatModel) transcript(width int) string {
	if len(m.messages) == 0 {
		var b strings.Builder
		b.WriteString(lipgloss.NewStyle().Bold(true).Render("Ask me anything!") + "\n")
		b.WriteString("I can help you discover what's happening in Stillwater based on recent Instagram posts.\n\n")
		b.WriteString(faintStyle.Render("Try asking (tab cycles):") + "\n")
		for i, p := range SuggestedPrompts {
			marker := "  "
			if i == m.suggestion {
				marker = "› "
			}
			b.WriteString(marker + p + "\n")
		}
		return b.String()
	}
	wrap := lipgloss.NewStyle().Width(width)
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		stamp := faintStyle.Render(msg.at.Format("15:04"))
		switch msg.role {
		case roleUser:
			b.WriteString(userStyle.Render("You") + " " + stamp + "\n")
			b.WriteString(wrap.Render(msg.text) + "\n")
		case roleAssistant:
			b.WriteString(assistantStyle.Render("Stillwater AI") + " " + stamp + "\n")
			b.WriteString(wrap.Render(markup.ANSI(markup.Format(msg.text), m.styles)) + "\n")
		}
	}
	return b.String()
}

func (m chatModel) statusLine() string {
	left := "enter=send • alt+enter=newline • ctrl+s=speak • f1=help • esc=quit"
	switch {
	case m.loading:
		return m.spin.View() + " thinking…"
	case m.speaking:
		return m.spin.View() + " " + m.status
	case m.status != "":
		return faintStyle.Render(m.status + " • " + left)
	}
	return faintStyle.Render(left)
}

func (m chatModel) View() string {
	header := titleStyle.Render("Stillwater AI")
	sub := "Ask about local posts"
	if m.opts.Subtitle != "" {
		sub += " • " + m.opts.Subtitle
	}
	base := strings.Join([]string{
		header,
		subtitleStyle.Render(sub),
		m.vp.View(),
		m.input.View(),
		m.statusLine(),
	}, "\n")
	if !m.showHelp {
		return base
	}
	box := m.helpBox()
	return renderOverlay(base, box, m.width, m.height, lipglossv2.Width(box), lipglossv2.Height(box))
}

func (m chatModel) helpBox() string {
	lines := []string{
		"enter        send message",
		"alt+enter    new line",
		"tab          next suggested prompt",
		"pgup/pgdown  scroll conversation",
		"ctrl+s       speak the last reply",
		"esc          quit",
		"",
		"press any key to close",
	}
	return lipglossv2.NewStyle().
		Padding(1, 2).
		Border(lipglossv2.RoundedBorder()).
		BorderForeground(lipglossv2.Color("63")).
		Render(strings.Join(lines, "\n"))
}
