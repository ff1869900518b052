package markup

import (
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Visitor receives a document in reading order.
type Visitor interface {
	Span(s Span)
	// Break is called after every line except the last.
	Break()
}

// Walk feeds doc to v.
func Walk(doc Document, v Visitor) {
	for _, line := range doc.Lines {
		for _, s := range line.Spans {
			v.Span(s)
		}
		if !line.Last {
			v.Break()
		}
	}
}

type funcVisitor struct {
	span func(Span)
	brk  func()
}

func (f funcVisitor) Span(s Span) { f.span(s) }
func (f funcVisitor) Break()      { f.brk() }

// HTML renders bold as <strong>, italic as <em> and line breaks as <br>.
// Text is escaped.
func HTML(doc Document) string {
	var b strings.Builder
	Walk(doc, funcVisitor{
		span: func(s Span) {
			switch s.Kind {
			case Bold:
				b.WriteString("<strong>" + html.EscapeString(s.Text) + "</strong>")
			case Italic:
				b.WriteString("<em>" + html.EscapeString(s.Text) + "</em>")
			default:
				b.WriteString(html.EscapeString(s.Text))
			}
		},
		brk: func() { b.WriteString("<br>") },
	})
	return b.String()
}

// Text renders the document without styling, one output line per input line.
func Text(doc Document) string {
	var b strings.Builder
	Walk(doc, funcVisitor{
		span: func(s Span) { b.WriteString(s.Text) },
		brk:  func() { b.WriteByte('\n') },
	})
	return b.String()
}

// Styles maps span kinds to terminal styles.
type Styles struct {
	Plain  lipgloss.Style
	Bold   lipgloss.Style
	Italic lipgloss.Style
}

// DefaultStyles returns bold and italic emphasis over an unstyled base.
func DefaultStyles() Styles {
	return Styles{
		Plain:  lipgloss.NewStyle(),
		Bold:   lipgloss.NewStyle().Bold(true),
		Italic: lipgloss.NewStyle().Italic(true),
	}
}

func (st Styles) forKind(k Kind) lipgloss.Style {
	switch k {
	case Bold:
		return st.Bold
	case Italic:
		return st.Italic
	}
	return st.Plain
}

// ANSI renders the document for a terminal using st.
func ANSI(doc Document, st Styles) string {
	var b strings.Builder
	Walk(doc, funcVisitor{
		span: func(s Span) {
			if s.Text == "" {
				return
			}
			b.WriteString(st.forKind(s.Kind).Render(s.Text))
		},
		brk: func() { b.WriteByte('\n') },
	})
	return b.String()
}
