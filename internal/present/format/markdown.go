package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/stillwater/pulse/pkg/api"
)

// PostsMarkdown lays posts out as markdown cards, newest first as given.
func PostsMarkdown(posts []api.Post, now time.Time) string {
	if len(posts) == 0 {
		return "_No posts._\n"
	}
	var b strings.Builder
	for i, p := range posts {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		title := p.Title
		if title == "" {
			title = "Untitled Post"
		}
		fmt.Fprintf(&b, "## %s\n\n", title)
		when := p.Published
		if t, ok := p.PublishedTime(); ok {
			when = relative(t, now)
		}
		fmt.Fprintf(&b, "**@%s** · %s\n\n", p.Account, when)
		if s := strings.TrimSpace(p.ContentSnippet); s != "" && s != p.Title {
			fmt.Fprintf(&b, "%s\n\n", s)
		}
		if p.Link != "" {
			fmt.Fprintf(&b, "[View on Instagram](%s)\n", p.Link)
		}
	}
	return b.String()
}

// WritePrettyPosts renders posts with markdown formatting using glamour.
func WritePrettyPosts(w io.Writer, posts []api.Post) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dracula"),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	out, err := r.Render(PostsMarkdown(posts, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}

	_, err = io.WriteString(w, out)
	return err
}
