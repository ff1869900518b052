package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stillwater/pulse/internal/feeds"
	"github.com/stillwater/pulse/pkg/api"
)

// BrowseOptions configures the interactive posts list.
type BrowseOptions struct {
	Headers  bool
	Accounts []string
	// Reload refetches the feed on "r"; nil disables it.
	Reload func(ctx context.Context) ([]api.Post, error)
}

// BrowsePosts opens an interactive Bubble Tea table over posts.
func BrowsePosts(ctx context.Context, posts []api.Post, opts BrowseOptions) error {
	m := newBrowseModel(ctx, posts, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

type model struct {
	ctx          context.Context
	table        table.Model
	all          []api.Post
	posts        []api.Post
	filter       []string
	accounts     []string
	reload       func(context.Context) ([]api.Post, error)
	headers      bool
	width        int
	height       int
	status       string
	lastDuration time.Duration
	postModal    *postModal
	filterModal  *filterModal
}

func newBrowseModel(ctx context.Context, posts []api.Post, opts BrowseOptions) model {
	m := model{
		ctx:      ctx,
		all:      posts,
		posts:    posts,
		accounts: opts.Accounts,
		reload:   opts.Reload,
		headers:  opts.Headers,
	}
	m.initTable()
	return m
}

func (m *model) initTable() {
	cols := m.columnsFor(m.headers, 16, 16, 40)
	m.table = table.New(table.WithColumns(cols), table.WithFocused(true))
	m.updateRows()
	m.applyStyles()
}

func (m *model) applyFilter() {
	m.posts = feeds.Filter(m.all, m.filter...)
	m.updateRows()
	m.table.SetCursor(0)
}

func (m *model) updateRows() {
	rows := make([]table.Row, 0, len(m.posts))
	for _, p := range m.posts {
		rows = append(rows, table.Row{
			published(p),
			"@" + p.Account,
			postTitle(p),
		})
	}
	m.table.SetRows(rows)
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
		m.applyLayout()
		if m.postModal != nil {
			m.postModal.resizeForTerm(ws.Width, ws.Height)
		}
		if m.filterModal != nil {
			m.filterModal.resizeForTerm(ws.Width, ws.Height)
		}
		return m, nil
	}

	if m.postModal != nil {
		if k, ok := msg.(tea.KeyMsg); ok {
			switch k.String() {
			case "esc", "q", "enter":
				m.postModal = nil
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
		}
		var cmd tea.Cmd
		m.postModal, cmd = m.postModal.update(msg)
		return m, cmd
	}

	if m.filterModal != nil {
		if k, ok := msg.(tea.KeyMsg); ok {
			switch k.String() {
			case "esc", "ctrl+q":
				m.filterModal = nil
				return m, nil
			case "enter":
				m.filter = m.filterModal.values()
				m.filterModal = nil
				m.applyFilter()
				if len(m.filter) == 0 {
					m.status = "Showing all accounts"
				} else {
					m.status = "Showing " + strings.Join(m.filter, ", ")
				}
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
		}
		var cmd tea.Cmd
		m.filterModal, cmd = m.filterModal.update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case reloadResultMsg:
		m.lastDuration = msg.dur
		if msg.err != nil {
			m.status = fmt.Sprintf("Reload failed: %v", msg.err)
			return m, nil
		}
		m.all = msg.posts
		m.applyFilter()
		m.status = "Reloaded"
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c", "ctrl+q":
			return m, tea.Quit
		case "enter":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.posts) {
				m.postModal = newPostModal(m.posts[idx], m.width, m.height)
			}
			return m, nil
		case "f":
			m.filterModal = newFilterModal(m.filter, m.accounts, m.width, m.height)
			return m, nil
		case "r":
			if m.reload == nil {
				return m, nil
			}
			m.status = "Reloading…"
			return m, reloadCmd(m.ctx, m.reload)
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) renderFooter() string {
	left := "↑/↓ to navigate • enter=open • f=filter • r=reload • q=exit"

	var right string
	if m.status != "" {
		if m.lastDuration > 0 {
			right = fmt.Sprintf("%s (%s) • ", m.status, m.lastDuration.Round(time.Millisecond))
		} else {
			right = m.status + " • "
		}
	}
	right += fmt.Sprintf("%d posts ", len(m.posts))

	width := m.table.Width()
	space := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", space) + right
}

func (m model) View() string {
	var base string
	if len(m.posts) == 0 {
		base = "(no posts)\n" + m.renderFooter() + "\n"
	} else {
		base = m.table.View() + "\n" + m.renderFooter() + "\n"
	}
	switch {
	case m.postModal != nil:
		return renderOverlay(base, m.postModal.View(), m.width, m.height, m.postModal.width, m.postModal.height)
	case m.filterModal != nil:
		return renderOverlay(base, m.filterModal.View(), m.width, m.height, m.filterModal.width, m.filterModal.height)
	}
	return base
}

func (m *model) applyLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.table.SetHeight(max(6, m.height-1))
	m.table.SetWidth(m.width)
	avail := m.width - 4
	if avail < 40 {
		return
	}
	publishedW := 16
	accountW := 16
	for _, p := range m.all {
		accountW = max(accountW, min(len(p.Account)+1, 24))
	}
	titleW := max(avail-publishedW-accountW, 8)
	m.table.SetColumns(m.columnsFor(m.headers, publishedW, accountW, titleW))
}

func (m *model) applyStyles() {
	s := table.DefaultStyles()
	if m.headers {
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
	} else {
		s.Header = s.Header.
			BorderBottom(false).
			Bold(false)
	}
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	m.table.SetStyles(s)
}

// columnsFor returns columns with or without titles based on headers flag.
func (m *model) columnsFor(headers bool, publishedW, accountW, titleW int) []table.Column {
	if headers {
		return []table.Column{
			{Title: "Published", Width: publishedW},
			{Title: "Account", Width: accountW},
			{Title: "Title", Width: titleW},
		}
	}
	return []table.Column{
		{Title: "", Width: publishedW},
		{Title: "", Width: accountW},
		{Title: "", Width: titleW},
	}
}
