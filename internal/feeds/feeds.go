// Package feeds fetches Instagram posts from per-account RSS feeds.
package feeds

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stillwater/pulse/pkg/api"
)

const (
	DefaultMaxPosts    = 5
	DefaultConcurrency = 4
	DefaultTimeout     = 15 * time.Second

	// UntitledPost replaces empty titles in aggregated listings.
	UntitledPost = "Untitled Post"

	maxSnippetRunes = 280
)

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	MaxPosts    int
	CacheTTL    time.Duration
	Concurrency int
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Service resolves account usernames to feed URLs and fetches their posts.
// It is safe for concurrent use.
type Service struct {
	feeds       map[string]string
	maxPosts    int
	ttl         time.Duration
	concurrency int
	client      *http.Client
	log         *zap.Logger
	strip       *bluemonday.Policy
	now         func() time.Time

	mu    sync.Mutex
	cache map[string]cached
}

type cached struct {
	posts []api.Post
	at    time.Time
}

// New returns a Service over feeds (username -> RSS url).
func New(feeds map[string]string, opts Options) *Service {
	s := &Service{
		feeds:       make(map[string]string, len(feeds)),
		maxPosts:    opts.MaxPosts,
		ttl:         opts.CacheTTL,
		concurrency: opts.Concurrency,
		client:      opts.HTTPClient,
		log:         opts.Logger,
		strip:       bluemonday.StrictPolicy(),
		now:         time.Now,
		cache:       map[string]cached{},
	}
	for k, v := range feeds {
		s.feeds[k] = v
	}
	if s.maxPosts <= 0 {
		s.maxPosts = DefaultMaxPosts
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultConcurrency
	}
	if s.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		s.client = &http.Client{Timeout: timeout}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Accounts returns the known usernames in sorted order.
func (s *Service) Accounts() []string {
	out := make([]string, 0, len(s.feeds))
	for k := range s.feeds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Has reports whether username is a known account.
func (s *Service) Has(username string) bool {
	_, ok := s.feeds[username]
	return ok
}

// UnknownAccountError is returned for usernames without a feed.
type UnknownAccountError struct {
	Username    string
	Available   []string
	Suggestions []string
}

func (e *UnknownAccountError) Error() string {
	msg := fmt.Sprintf("Username '%s' not found. Available accounts: %s", e.Username, strings.Join(e.Available, ", "))
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

func (s *Service) unknown(username string) error {
	available := s.Accounts()
	var suggestions []string
	for i, m := range fuzzy.Find(username, available) {
		if i == 3 {
			break
		}
		suggestions = append(suggestions, m.Str)
	}
	return &UnknownAccountError{Username: username, Available: available, Suggestions: suggestions}
}

// Fetch returns the latest posts of one account, newest as ordered by the feed.
func (s *Service) Fetch(ctx context.Context, username string) ([]api.Post, error) {
	feedURL, ok := s.feeds[username]
	if !ok {
		return nil, s.unknown(username)
	}
	if posts, ok := s.cached(username); ok {
		return posts, nil
	}
	return s.load(ctx, username, feedURL)
}

// load fetches one feed from the network and refreshes its cache entry.
func (s *Service) load(ctx context.Context, username, feedURL string) ([]api.Post, error) {
	feed, err := s.fetchFeed(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetching feed for %s: %w", username, err)
	}
	items := feed.Items
	if len(items) > s.maxPosts {
		items = items[:s.maxPosts]
	}
	posts := make([]api.Post, 0, len(items))
	for _, it := range items {
		posts = append(posts, api.Post{
			Title:          it.Title,
			Link:           it.Link,
			Image:          extractImage(it),
			Published:      extractPublished(it),
			Account:        username,
			ContentSnippet: s.snippet(it),
		})
	}
	s.store(username, posts)
	s.log.Debug("fetched feed", zap.String("account", username), zap.Int("posts", len(posts)))
	return clonePosts(posts), nil
}

func (s *Service) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "stillwater-pulse/1.0")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	// gofeed parsers keep per-parse state, so each fetch gets its own.
	return gofeed.NewParser().Parse(resp.Body)
}

// FetchAll fetches the given accounts (all when none are given) in parallel.
// Accounts that fail are logged and skipped. Posts are sorted newest first;
// empty titles and dates are filled in the way the dashboard displays them.
func (s *Service) FetchAll(ctx context.Context, accounts ...string) ([]api.Post, error) {
	if len(accounts) == 0 {
		accounts = s.Accounts()
	}
	results := make([][]api.Post, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, name := range accounts {
		g.Go(func() error {
			posts, err := s.Fetch(gctx, name)
			if err != nil {
				s.log.Warn("skipping account", zap.String("account", name), zap.Error(err))
				return nil
			}
			results[i] = posts
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var all []api.Post
	for _, posts := range results {
		for _, p := range posts {
			if p.Title == "" {
				p.Title = UntitledPost
			}
			if p.ContentSnippet == "" {
				p.ContentSnippet = p.Title
			}
			if p.Published == "" {
				p.Published = now.Format(time.RFC3339)
			}
			all = append(all, p)
		}
	}
	sortNewestFirst(all, now)
	return all, nil
}

func sortNewestFirst(posts []api.Post, now time.Time) {
	at := func(p api.Post) time.Time {
		if t, ok := p.PublishedTime(); ok {
			return t
		}
		return now
	}
	sort.SliceStable(posts, func(i, j int) bool { return at(posts[i]).After(at(posts[j])) })
}

// Filter keeps posts whose account is listed. No accounts keeps everything.
func Filter(posts []api.Post, accounts ...string) []api.Post {
	if len(accounts) == 0 {
		return posts
	}
	want := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		want[a] = true
	}
	out := make([]api.Post, 0, len(posts))
	for _, p := range posts {
		if want[p.Account] {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) cached(username string) ([]api.Post, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cache[username]
	if !ok || s.now().Sub(c.at) >= s.ttl {
		return nil, false
	}
	return clonePosts(c.posts), true
}

func (s *Service) store(username string, posts []api.Post) {
	if s.ttl <= 0 {
		return
	}
	s.mu.Lock()
	s.cache[username] = cached{posts: posts, at: s.now()}
	s.mu.Unlock()
}

// Invalidate drops cached posts so the next fetch goes to the network.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cache = map[string]cached{}
	s.mu.Unlock()
}

func clonePosts(in []api.Post) []api.Post {
	return append([]api.Post(nil), in...)
}

func extractImage(it *gofeed.Item) string {
	if media, ok := it.Extensions["media"]; ok {
		for _, name := range []string{"content", "thumbnail"} {
			for _, e := range media[name] {
				if u := e.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	for _, enc := range it.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

func extractPublished(it *gofeed.Item) string {
	if it.Published != "" {
		return it.Published
	}
	if it.PublishedParsed != nil {
		return it.PublishedParsed.UTC().Format(time.RFC3339)
	}
	return ""
}

// snippet is the item description as plain text, or the title when empty.
func (s *Service) snippet(it *gofeed.Item) string {
	text := html.UnescapeString(s.strip.Sanitize(it.Description))
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return it.Title
	}
	if utf8.RuneCountInString(text) > maxSnippetRunes {
		r := []rune(text)
		text = strings.TrimSpace(string(r[:maxSnippetRunes])) + "..."
	}
	return text
}
