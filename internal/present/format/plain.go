package format

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/stillwater/pulse/pkg/api"
)

// TSV columns: published, account, title, link
var headerLine = "published\taccount\ttitle\tlink\n"

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

// published renders the post date in local time, or the raw value when it
// cannot be parsed.
func published(p api.Post) string {
	if t, ok := p.PublishedTime(); ok {
		return t.Local().Format("2006-01-02 15:04")
	}
	return p.Published
}

func WritePlainPosts(w io.Writer, posts []api.Post, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, headerLine)
	}
	for _, p := range posts {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\n",
			esc(published(p)), esc("@"+p.Account), esc(p.Title), esc(p.Link))
		_, _ = io.WriteString(tw, line)
	}
	return tw.Flush()
}

// relative describes t relative to now the way the feed cards do.
func relative(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
	return t.Local().Format("Jan 2, 2006")
}
