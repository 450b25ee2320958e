// Package feed holds the ordered list of items for the active category and
// the cursor into it. Refills append to the list; switching category
// replaces it.
package feed

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/CrestNiraj12/commonswipe/app"
	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/infra/logging"
)

// Outcome classifies a cursor move.
type Outcome int

const (
	Moved Outcome = iota
	NeedsRefill
	AtStart
	AtEnd
)

func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case NeedsRefill:
		return "needs refill"
	case AtStart:
		return "at start"
	case AtEnd:
		return "at end"
	default:
		return "unknown"
	}
}

// Move is the result of Advance or Retreat. Item and Index are set only
// when Outcome is Moved.
type Move struct {
	Outcome Outcome
	Item    domain.Item
	Index   int
}

// Err maps terminal outcomes to their sentinel errors.
func (m Move) Err() error {
	switch m.Outcome {
	case AtStart:
		return domain.ErrAtStart
	case AtEnd:
		return domain.ErrAtEnd
	default:
		return nil
	}
}

// RefillResult describes a completed refill.
type RefillResult struct {
	Generation uint64
	Added      int
	Healed     bool // The viewed history was cleared to find content
}

// Clearer forgets every viewed id.
type Clearer interface {
	Clear() error
}

// SelfHeal is the policy applied when a fresh category load comes back
// empty: the viewed history is only a hint, so it is cleared and the fetch
// is tried once more. A zero SelfHeal never heals.
type SelfHeal struct {
	History Clearer
}

// apply clears the history and reports whether a second fetch is worth it.
func (h SelfHeal) apply(logger *log.Logger) bool {
	if h.History == nil {
		return false
	}
	if err := h.History.Clear(); err != nil {
		// Memory was cleared even if persisting failed.
		logger.Warn("clearing viewed history", "err", err)
	}
	return true
}

// Store is the feed state for one active category. Safe for concurrent
// use; the lock is never held across a fetch.
type Store struct {
	catalog app.Catalog
	heal    SelfHeal
	log     *log.Logger
	group   singleflight.Group

	mu         sync.Mutex
	category   domain.Category
	items      []domain.Item
	ids        map[string]struct{}
	cursor     int
	token      string
	noMore     bool
	generation uint64
}

// NewStore creates an empty store.
func NewStore(catalog app.Catalog, heal SelfHeal, logger *log.Logger) *Store {
	return &Store{
		catalog: catalog,
		heal:    heal,
		log:     logging.OrDiscard(logger).WithPrefix("feed"),
		ids:     make(map[string]struct{}),
	}
}

// Reset discards the current feed, makes c the active category and returns
// the new generation. Refills started before the reset become stale.
func (s *Store) Reset(c domain.Category) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.category = c
	s.clearLocked()
	return s.generation
}

// SelectCategory resets the store to c and loads its first page.
func (s *Store) SelectCategory(ctx context.Context, c domain.Category) (RefillResult, error) {
	s.Reset(c)
	return s.Refill(ctx, true)
}

// Refill fetches more items for the active category. Concurrent calls for
// the same generation share one fetch, whichever kind started it: an append
// issued while the first page is loading waits for that page instead of
// fetching it again.
func (s *Store) Refill(ctx context.Context, fromScratch bool) (RefillResult, error) {
	s.mu.Lock()
	gen := s.generation
	if !fromScratch && s.noMore {
		s.mu.Unlock()
		return RefillResult{Generation: gen}, nil
	}
	s.mu.Unlock()

	v, err, shared := s.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		return s.refill(ctx, gen, fromScratch)
	})
	if shared {
		s.log.Debug("refill coalesced", "generation", gen)
	}
	res, _ := v.(RefillResult)
	return res, err
}

func (s *Store) refill(ctx context.Context, gen uint64, fromScratch bool) (RefillResult, error) {
	s.mu.Lock()
	category := s.category
	token := s.token
	s.mu.Unlock()
	if fromScratch || !s.catalog.Paginated() {
		token = ""
	}

	res := RefillResult{Generation: gen}
	page, err := s.catalog.FetchPage(ctx, category, token)
	if err != nil {
		if s.stale(gen) {
			return res, domain.ErrStaleRefill
		}
		return res, err
	}

	if fromScratch && len(page.Items) == 0 {
		if s.stale(gen) {
			return res, domain.ErrStaleRefill
		}
		if s.heal.apply(s.log) {
			res.Healed = true
			s.log.Info("category exhausted, cleared viewed history", "category", category)
			page, err = s.catalog.FetchPage(ctx, category, "")
			if err != nil {
				if s.stale(gen) {
					return res, domain.ErrStaleRefill
				}
				return res, err
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return res, domain.ErrStaleRefill
	}

	if fromScratch {
		s.clearLocked()
		if len(page.Items) == 0 {
			s.noMore = true
			return res, domain.ErrNoContent
		}
	}

	res.Added = s.appendLocked(page.Items)
	if s.catalog.Paginated() {
		s.token = page.NextToken
		s.noMore = page.NextToken == ""
	}
	if !fromScratch && res.Added == 0 {
		s.noMore = true
	}
	s.log.Debug("refilled", "category", category, "added", res.Added, "total", len(s.items), "more", !s.noMore)
	return res, nil
}

// Advance moves the cursor forward.
func (s *Store) Advance() Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor+1 < len(s.items) {
		s.cursor++
		return Move{Outcome: Moved, Item: s.items[s.cursor], Index: s.cursor}
	}
	if s.noMore {
		return Move{Outcome: AtEnd}
	}
	return Move{Outcome: NeedsRefill}
}

// Retreat moves the cursor back. It never wraps.
func (s *Store) Retreat() Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor > 0 && s.cursor < len(s.items) {
		s.cursor--
		return Move{Outcome: Moved, Item: s.items[s.cursor], Index: s.cursor}
	}
	return Move{Outcome: AtStart}
}

// Current returns the item under the cursor.
func (s *Store) Current() (domain.Item, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return domain.Item{}, 0, false
	}
	return s.items[s.cursor], s.cursor, true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) Category() domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// HasMore reports whether another refill could add items.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.noMore
}

// Exhausted reports that there are no more pages and the cursor is on the
// last item.
func (s *Store) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noMore && (len(s.items) == 0 || s.cursor == len(s.items)-1)
}

// Remaining counts the items after the cursor.
func (s *Store) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return 0
	}
	return len(s.items) - 1 - s.cursor
}

// Lookahead returns up to n items after the cursor, without wrapping.
func (s *Store) Lookahead(n int) []domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || len(s.items) == 0 {
		return nil
	}
	start := s.cursor + 1
	end := min(start+n, len(s.items))
	if start >= end {
		return nil
	}
	return append([]domain.Item(nil), s.items[start:end]...)
}

func (s *Store) clearLocked() {
	s.items = nil
	s.ids = make(map[string]struct{})
	s.cursor = 0
	s.token = ""
	s.noMore = false
}

func (s *Store) appendLocked(items []domain.Item) int {
	added := 0
	for _, it := range items {
		if _, dup := s.ids[it.ID]; dup {
			continue
		}
		s.ids[it.ID] = struct{}{}
		s.items = append(s.items, it)
		added++
	}
	return added
}

func (s *Store) stale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation != gen
}

// IsStale reports whether err means a refill result was thrown away.
func IsStale(err error) bool { return errors.Is(err, domain.ErrStaleRefill) }
