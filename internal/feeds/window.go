package feeds

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stillwater/pulse/pkg/api"
)

// ParseTime parses relative ("2h", "3d", "2w", "1mo") and absolute
// (RFC3339, "2006-01-02T15:04", "2006-01-02") time expressions. Relative
// values count back from now.
func ParseTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}

	// mo (months), w (weeks), d (days); Go durations keep 'm' as minutes.
	units := []struct {
		suffix string
		back   func(int) time.Time
	}{
		{"mo", func(n int) time.Time { return now.AddDate(0, -n, 0) }},
		{"w", func(n int) time.Time { return now.AddDate(0, 0, -7*n) }},
		{"d", func(n int) time.Time { return now.AddDate(0, 0, -n) }},
	}
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			if n, err := strconv.Atoi(strings.TrimSuffix(s, u.suffix)); err == nil && n >= 0 {
				return u.back(n), nil
			}
			return time.Time{}, fmt.Errorf("invalid %s duration: %q", u.suffix, s)
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time expression: %q", s)
}

// Window keeps posts published within [since, until]. A zero bound is open.
// Posts without a readable date are dropped once any bound is set. Reversed
// bounds are swapped.
func Window(posts []api.Post, since, until time.Time) []api.Post {
	if since.IsZero() && until.IsZero() {
		return posts
	}
	if !since.IsZero() && !until.IsZero() && since.After(until) {
		since, until = until, since
	}
	out := make([]api.Post, 0, len(posts))
	for _, p := range posts {
		t, ok := p.PublishedTime()
		if !ok {
			continue
		}
		if !since.IsZero() && t.Before(since) {
			continue
		}
		if !until.IsZero() && t.After(until) {
			continue
		}
		out = append(out, p)
	}
	return out
}
