package present

import (
	"context"
	"io"

	"github.com/stillwater/pulse/internal/present/format"
	"github.com/stillwater/pulse/internal/present/tui"
	"github.com/stillwater/pulse/pkg/api"
)

type Mode int

const (
	ModePlain Mode = iota
	ModePretty
	ModeJSON
	ModeNDJSON
	ModeTUI
)

type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
	// Accounts and Reload are used by the interactive list.
	Accounts []string
	Reload   func(ctx context.Context) ([]api.Post, error)
}

// ParseMode parses a string like "plain", "pretty", "json", "ndjson", "tui".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "plain":
		return ModePlain, true
	case "pretty":
		return ModePretty, true
	case "json":
		return ModeJSON, true
	case "ndjson":
		return ModeNDJSON, true
	case "tui":
		return ModeTUI, true
	default:
		return ModePlain, false
	}
}

// RenderPosts renders a list of posts according to options.
func RenderPosts(ctx context.Context, w io.Writer, posts []api.Post, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSONPosts(w, posts, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSONPosts(w, posts)
	case ModePretty:
		return format.WritePrettyPosts(w, posts)
	case ModeTUI:
		return tui.BrowsePosts(ctx, posts, tui.BrowseOptions{
			Headers:  opts.Headers,
			Accounts: opts.Accounts,
			Reload:   opts.Reload,
		})
	default:
		return format.WritePlainPosts(w, posts, opts.Headers)
	}
}
