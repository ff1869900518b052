package feeds

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Refresh refetches every account from the network, replacing cached posts.
// It returns the number of accounts that loaded.
func (s *Service) Refresh(ctx context.Context) int {
	accounts := s.Accounts()
	ok := make([]bool, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, name := range accounts {
		g.Go(func() error {
			if _, err := s.load(gctx, name, s.feeds[name]); err != nil {
				s.log.Warn("refresh failed", zap.String("account", name), zap.Error(err))
				return nil
			}
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()
	n := 0
	for _, loaded := range ok {
		if loaded {
			n++
		}
	}
	return n
}

// Refresher keeps the cache warm by calling Refresh on a fixed interval.
type Refresher struct {
	Every time.Duration
}

// Next returns when the refresh after now is due, or the zero time when the
// refresher is disabled.
func (r Refresher) Next(now time.Time) time.Time {
	if r.Every <= 0 {
		return time.Time{}
	}
	return now.Add(r.Every)
}

// Run refreshes s immediately and then every r.Every until ctx is done.
// A disabled refresher returns at once.
func (r Refresher) Run(ctx context.Context, s *Service) error {
	if r.Every <= 0 {
		return nil
	}
	t := time.NewTicker(r.Every)
	defer t.Stop()
	for {
		n := s.Refresh(ctx)
		s.log.Debug("feeds refreshed", zap.Int("accounts", n), zap.Time("next", r.Next(s.now())))
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
