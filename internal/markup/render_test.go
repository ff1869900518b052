package markup

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

type recorder struct{ events []string }

func (r *recorder) Span(s Span) { r.events = append(r.events, s.Kind.String()+":"+s.Text) }
func (r *recorder) Break()      { r.events = append(r.events, "br") }

func TestWalkBreaksBetweenLines(t *testing.T) {
	var r recorder
	Walk(Format("**a**\nb\n"), &r)
	assert.Equal(t, []string{"bold:a", "br", "plain:b", "br", "plain:"}, r.events)

	r = recorder{}
	Walk(Format(""), &r)
	assert.Equal(t, []string{"plain:"}, r.events, "no break after the only line")
}

func TestHTML(t *testing.T) {
	got := HTML(Format("**a** & *b*\n<c>"))
	assert.Equal(t, "<strong>a</strong> &amp; <em>b</em><br>&lt;c&gt;", got)
}

func TestText(t *testing.T) {
	assert.Equal(t, "a & b\nc", Text(Format("**a** & *b*\nc")))
	assert.Equal(t, "", Text(Format("")))
}

func TestANSI(t *testing.T) {
	unstyled := Styles{Plain: lipgloss.NewStyle(), Bold: lipgloss.NewStyle(), Italic: lipgloss.NewStyle()}
	got := ANSI(Format("**Game day** is *Saturday*\nGo Pokes"), unstyled)
	assert.Equal(t, "Game day is Saturday\nGo Pokes", got)

	styled := ANSI(Format("**x**\ny"), DefaultStyles())
	assert.Contains(t, styled, "x")
	assert.Equal(t, 1, strings.Count(styled, "\n"))
}
