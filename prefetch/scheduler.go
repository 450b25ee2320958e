// Package prefetch warms upcoming images and tops the feed up before the
// user reaches its end.
package prefetch

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/CrestNiraj12/commonswipe/app"
	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/feed"
	"github.com/CrestNiraj12/commonswipe/infra/logging"
)

const (
	DefaultWindow   = 3
	DefaultLowWater = 5
	maxParallel     = 2
)

// Feed is the part of feed.Store the scheduler reads.
type Feed interface {
	Lookahead(n int) []domain.Item
	Remaining() int
	HasMore() bool
	Refill(ctx context.Context, fromScratch bool) (feed.RefillResult, error)
}

// Scheduler runs best-effort background work after every cursor move.
type Scheduler struct {
	feed     Feed
	warmer   app.Warmer
	window   int
	lowWater int
	log      *log.Logger

	wg        sync.WaitGroup
	mu        sync.Mutex
	refilling bool
}

// New creates a Scheduler. window and lowWater fall back to defaults when
// not positive. warmer may be nil to skip payload warming.
func New(f Feed, warmer app.Warmer, window, lowWater int, logger *log.Logger) *Scheduler {
	if window <= 0 {
		window = DefaultWindow
	}
	if lowWater <= 0 {
		lowWater = DefaultLowWater
	}
	return &Scheduler{
		feed:     f,
		warmer:   warmer,
		window:   window,
		lowWater: lowWater,
		log:      logging.OrDiscard(logger).WithPrefix("prefetch"),
	}
}

// OnCursorMoved schedules warming of the next items and, when the feed is
// running low, a background refill. It returns immediately.
func (s *Scheduler) OnCursorMoved(ctx context.Context) {
	if s.warmer != nil {
		if upcoming := s.feed.Lookahead(s.window); len(upcoming) > 0 {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.warm(ctx, upcoming)
			}()
		}
	}

	if s.feed.Remaining() >= s.lowWater || !s.feed.HasMore() {
		return
	}
	s.mu.Lock()
	if s.refilling {
		s.mu.Unlock()
		return
	}
	s.refilling = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.refilling = false
			s.mu.Unlock()
		}()
		res, err := s.feed.Refill(ctx, false)
		if err != nil {
			if feed.IsStale(err) {
				return
			}
			s.log.Debug("background refill failed", "err", err)
			return
		}
		s.log.Debug("background refill", "added", res.Added)
	}()
}

func (s *Scheduler) warm(ctx context.Context, items []domain.Item) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for _, it := range items {
		g.Go(func() error {
			if err := s.warmer.Warm(gctx, it.ImageURL); err != nil {
				s.log.Debug("warming image", "id", it.ID, "err", err)
			}
			// Swallowed so one failure does not cancel its siblings.
			return nil
		})
	}
	_ = g.Wait()
}

// Wait blocks until all work scheduled so far has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
