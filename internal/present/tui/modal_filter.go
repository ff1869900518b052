package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lipglossv2 "github.com/charmbracelet/lipgloss/v2"
)

// filterModal picks the account badges shown in the posts list.
type filterModal struct {
	accounts  textinput.Model
	available []string
	width     int
	height    int
	padX      int
	padY      int
	box       lipglossv2.Style
}

func newFilterModal(current, available []string, termW, termH int) *filterModal {
	m := &filterModal{padX: 2, padY: 1, available: available}
	ti := textinput.New()
	ti.Prompt = "accounts: "
	ti.Placeholder = "okstate,releaseradar"
	ti.SetValue(strings.Join(current, ","))
	ti.Focus()
	m.accounts = ti
	m.resizeForTerm(termW, termH)
	return m
}

func (m *filterModal) resizeForTerm(termW, termH int) {
	if termW <= 0 || termH <= 0 {
		termW, termH = 80, 24
	}
	w := int(float64(termW) * 0.6)
	if termW < 80 {
		w = termW - 4
	}
	w = min(max(w, 42), 90)
	h := min(max(8+len(m.available)/3, 10), 22)
	m.width, m.height = w, h
	m.box = lipglossv2.NewStyle().
		Width(w).
		Height(h).
		Padding(m.padY, m.padX).
		Border(lipglossv2.RoundedBorder()).
		BorderForeground(lipglossv2.Color("63"))

	innerW := max(w-2-m.padX*2, 12)
	m.accounts.Width = max(12, innerW-lipgloss.Width(m.accounts.Prompt))
}

// values returns the accounts typed into the filter; empty means all.
func (m *filterModal) values() []string {
	return splitCSV(m.accounts.Value())
}

func (m *filterModal) update(msg tea.Msg) (*filterModal, tea.Cmd) {
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.resizeForTerm(x.Width, x.Height)
		return m, nil
	case tea.KeyMsg:
		if x.String() == "ctrl+x" {
			m.accounts.SetValue("")
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.accounts, cmd = m.accounts.Update(msg)
	return m, cmd
}

func (m *filterModal) View() string {
	header := lipgloss.NewStyle().Bold(true).Render("Filter accounts")
	avail := lipgloss.NewStyle().Faint(true).Render("available: " + strings.Join(m.available, ", "))
	help := lipgloss.NewStyle().Faint(true).Render("enter=apply • esc=cancel • ctrl+x=clear")
	body := strings.Join([]string{
		header,
		"",
		m.accounts.View(),
		"",
		avail,
		"",
		help,
	}, "\n")
	return m.box.Render(body)
}
