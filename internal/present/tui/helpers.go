package tui

import (
	"strings"
	"time"

	"github.com/stillwater/pulse/pkg/api"
)

var timeNow = time.Now

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimPrefix(strings.TrimSpace(p), "@")
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func published(p api.Post) string {
	if t, ok := p.PublishedTime(); ok {
		return t.Local().Format("2006-01-02 15:04")
	}
	return p.Published
}

func postTitle(p api.Post) string {
	if p.Title == "" {
		return "Untitled Post"
	}
	return p.Title
}
