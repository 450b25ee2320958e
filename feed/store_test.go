package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrestNiraj12/commonswipe/domain"
)

type fetchCall struct {
	category domain.Category
	token    string
}

type pageOrErr struct {
	page domain.Page
	err  error
}

// scriptedCatalog answers FetchPage calls from a queue. An exhausted queue
// answers with an empty page.
type scriptedCatalog struct {
	mu        sync.Mutex
	paginated bool
	script    []pageOrErr
	calls     []fetchCall
	// gate, when set, blocks every fetch until it is closed.
	gate    chan struct{}
	entered chan struct{}
}

func (c *scriptedCatalog) Paginated() bool { return c.paginated }

func (c *scriptedCatalog) FetchPage(ctx context.Context, category domain.Category, token string) (domain.Page, error) {
	c.mu.Lock()
	c.calls = append(c.calls, fetchCall{category: category, token: token})
	var next pageOrErr
	if len(c.script) > 0 {
		next = c.script[0]
		c.script = c.script[1:]
	}
	gate, entered := c.gate, c.entered
	c.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.Page{}, ctx.Err()
		}
	}
	return next.page, next.err
}

func (c *scriptedCatalog) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type countingClearer struct{ n atomic.Int32 }

func (c *countingClearer) Clear() error {
	c.n.Add(1)
	return nil
}

func items(ids ...string) []domain.Item {
	out := make([]domain.Item, len(ids))
	for i, id := range ids {
		out[i] = domain.Item{ID: id, Title: id + ".jpg"}
	}
	return out
}

func pageOf(token string, ids ...string) pageOrErr {
	return pageOrErr{page: domain.Page{Items: items(ids...), NextToken: token}}
}

func TestSelectCategory_LoadsFirstPage(t *testing.T) {
	cat := &scriptedCatalog{script: []pageOrErr{pageOf("", "a", "b", "c")}}
	s := NewStore(cat, SelfHeal{}, nil)

	res, err := s.SelectCategory(context.Background(), "Art")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Added)
	assert.Equal(t, uint64(1), res.Generation)

	item, idx, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "a", item.ID)
	assert.Equal(t, 0, idx)
	assert.Equal(t, domain.Category("Art"), s.Category())
	assert.Equal(t, 2, s.Remaining())
}

func TestAdvance_NeedsRefillThenAtEnd(t *testing.T) {
	cat := &scriptedCatalog{paginated: true, script: []pageOrErr{
		pageOf("t1", "a", "b"),
		pageOf("", "c"),
	}}
	s := NewStore(cat, SelfHeal{}, nil)
	ctx := context.Background()

	_, err := s.SelectCategory(ctx, "Art")
	require.NoError(t, err)

	m := s.Advance()
	require.Equal(t, Moved, m.Outcome)
	assert.Equal(t, "b", m.Item.ID)
	assert.Equal(t, 1, m.Index)

	assert.Equal(t, NeedsRefill, s.Advance().Outcome)
	assert.False(t, s.Exhausted())

	res, err := s.Refill(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.False(t, s.HasMore())

	m = s.Advance()
	require.Equal(t, Moved, m.Outcome)
	assert.Equal(t, "c", m.Item.ID)
	assert.True(t, s.Exhausted())

	m = s.Advance()
	assert.Equal(t, AtEnd, m.Outcome)
	assert.ErrorIs(t, m.Err(), domain.ErrAtEnd)

	require.Len(t, cat.calls, 2)
	assert.Equal(t, "", cat.calls[0].token)
	assert.Equal(t, "t1", cat.calls[1].token)
}

func TestRefill_NoFetchWhenNoMorePages(t *testing.T) {
	cat := &scriptedCatalog{paginated: true, script: []pageOrErr{pageOf("", "a")}}
	s := NewStore(cat, SelfHeal{}, nil)
	_, err := s.SelectCategory(context.Background(), "Art")
	require.NoError(t, err)

	res, err := s.Refill(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, res.Added)
	assert.Equal(t, 1, cat.callCount())
}

func TestRefill_RandomModeDedupsAndEndsOnNothingNew(t *testing.T) {
	cat := &scriptedCatalog{script: []pageOrErr{
		pageOf("", "a", "b"),
		pageOf("", "b", "c"),
		pageOf("", "a", "c"),
	}}
	s := NewStore(cat, SelfHeal{}, nil)
	ctx := context.Background()

	_, err := s.SelectCategory(ctx, "Art")
	require.NoError(t, err)

	res, err := s.Refill(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.HasMore())

	res, err = s.Refill(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, res.Added)
	assert.False(t, s.HasMore())
	for _, c := range cat.calls {
		assert.Empty(t, c.token)
	}
}

func TestRetreat_AtStartIsIdempotent(t *testing.T) {
	cat := &scriptedCatalog{script: []pageOrErr{pageOf("", "a", "b")}}
	s := NewStore(cat, SelfHeal{}, nil)
	_, err := s.SelectCategory(context.Background(), "Art")
	require.NoError(t, err)

	for range 3 {
		m := s.Retreat()
		assert.Equal(t, AtStart, m.Outcome)
		assert.ErrorIs(t, m.Err(), domain.ErrAtStart)
		_, idx, _ := s.Current()
		assert.Equal(t, 0, idx)
	}

	require.Equal(t, Moved, s.Advance().Outcome)
	m := s.Retreat()
	require.Equal(t, Moved, m.Outcome)
	assert.Equal(t, "a", m.Item.ID)
}

func TestCursorStaysInBounds(t *testing.T) {
	cat := &scriptedCatalog{paginated: true}
	for i := range 5 {
		token := fmt.Sprint("t", i)
		if i == 4 {
			token = ""
		}
		cat.script = append(cat.script, pageOf(token, fmt.Sprint(i, "a"), fmt.Sprint(i, "b"), fmt.Sprint(i, "c")))
	}
	s := NewStore(cat, SelfHeal{}, nil)
	ctx := context.Background()
	_, err := s.SelectCategory(ctx, "Art")
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(7, 11))
	for range 500 {
		var m Move
		if rng.IntN(3) == 0 {
			m = s.Retreat()
		} else {
			m = s.Advance()
			if m.Outcome == NeedsRefill {
				_, err := s.Refill(ctx, false)
				require.NoError(t, err)
			}
		}
		_, idx, ok := s.Current()
		require.True(t, ok)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, s.Len())
		if m.Outcome == Moved {
			require.Equal(t, idx, m.Index)
		}
	}
}

func TestSelfHeal_ClearsExactlyOnce(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		cat := &scriptedCatalog{script: []pageOrErr{pageOf(""), pageOf("", "a")}}
		clearer := &countingClearer{}
		s := NewStore(cat, SelfHeal{History: clearer}, nil)

		res, err := s.SelectCategory(context.Background(), "Art")
		require.NoError(t, err)
		assert.True(t, res.Healed)
		assert.Equal(t, 1, res.Added)
		assert.Equal(t, int32(1), clearer.n.Load())
		assert.Equal(t, 2, cat.callCount())
	})

	t.Run("still empty", func(t *testing.T) {
		cat := &scriptedCatalog{script: []pageOrErr{pageOf(""), pageOf("")}}
		clearer := &countingClearer{}
		s := NewStore(cat, SelfHeal{History: clearer}, nil)

		_, err := s.SelectCategory(context.Background(), "Art")
		assert.ErrorIs(t, err, domain.ErrNoContent)
		assert.Equal(t, int32(1), clearer.n.Load())
		assert.Equal(t, 2, cat.callCount())
		assert.False(t, s.HasMore())
		assert.Equal(t, AtEnd, s.Advance().Outcome)
	})

	t.Run("mid pagination never clears", func(t *testing.T) {
		cat := &scriptedCatalog{paginated: true, script: []pageOrErr{pageOf("t", "a"), pageOf("")}}
		clearer := &countingClearer{}
		s := NewStore(cat, SelfHeal{History: clearer}, nil)

		_, err := s.SelectCategory(context.Background(), "Art")
		require.NoError(t, err)
		_, err = s.Refill(context.Background(), false)
		require.NoError(t, err)
		assert.Zero(t, clearer.n.Load())
		assert.False(t, s.HasMore())
	})

	t.Run("zero policy", func(t *testing.T) {
		cat := &scriptedCatalog{script: []pageOrErr{pageOf("")}}
		s := NewStore(cat, SelfHeal{}, nil)

		_, err := s.SelectCategory(context.Background(), "Art")
		assert.ErrorIs(t, err, domain.ErrNoContent)
		assert.Equal(t, 1, cat.callCount())
	})
}

func TestRefill_FailureLeavesStateUntouched(t *testing.T) {
	fetchErr := domain.NewFetchError(domain.FetchNetwork, "Art", errors.New("offline"))
	cat := &scriptedCatalog{paginated: true, script: []pageOrErr{
		pageOf("t1", "a", "b"),
		{err: fetchErr},
	}}
	s := NewStore(cat, SelfHeal{}, nil)
	ctx := context.Background()
	_, err := s.SelectCategory(ctx, "Art")
	require.NoError(t, err)
	s.Advance()

	_, err = s.Refill(ctx, false)
	require.ErrorIs(t, err, domain.ErrFetch)
	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Same(t, fetchErr, fe)

	assert.Equal(t, 2, s.Len())
	_, idx, _ := s.Current()
	assert.Equal(t, 1, idx)
	assert.True(t, s.HasMore())
}

func TestRefill_StaleResultDiscarded(t *testing.T) {
	cat := &scriptedCatalog{
		script:  []pageOrErr{pageOf("", "old1", "old2")},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	s := NewStore(cat, SelfHeal{}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.SelectCategory(context.Background(), "Old")
		done <- err
	}()
	<-cat.entered

	gen := s.Reset("New")
	close(cat.gate)

	err := <-done
	assert.ErrorIs(t, err, domain.ErrStaleRefill)
	assert.True(t, IsStale(err))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, domain.Category("New"), s.Category())
	assert.Equal(t, gen, s.Generation())
}

func TestRefill_ConcurrentCallsCoalesce(t *testing.T) {
	cat := &scriptedCatalog{paginated: true, script: []pageOrErr{pageOf("t1", "a")}}
	s := NewStore(cat, SelfHeal{}, nil)
	_, err := s.SelectCategory(context.Background(), "Art")
	require.NoError(t, err)

	cat.mu.Lock()
	cat.script = []pageOrErr{pageOf("t2", "b", "c"), pageOf("", "d")}
	cat.gate = make(chan struct{})
	cat.entered = make(chan struct{}, 8)
	cat.mu.Unlock()

	var wg sync.WaitGroup
	results := make([]RefillResult, 3)
	errs := make([]error, 3)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = s.Refill(context.Background(), false)
	}()
	<-cat.entered
	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = s.Refill(context.Background(), false)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(cat.gate)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 2, results[0].Added)
	assert.GreaterOrEqual(t, s.Len(), 3)

	// Callers that joined the flight shared its fetch; a straggler can
	// only ever ask for the next token.
	cat.mu.Lock()
	defer cat.mu.Unlock()
	tokens := map[string]int{}
	for _, c := range cat.calls {
		tokens[c.token]++
	}
	assert.Equal(t, 1, tokens["t1"])
}

func TestRefill_AppendDuringFirstLoadSharesIt(t *testing.T) {
	cat := &scriptedCatalog{
		paginated: true,
		script:    []pageOrErr{pageOf("t2", "a", "b"), pageOf("t3", "c")},
		gate:      make(chan struct{}),
		entered:   make(chan struct{}, 8),
	}
	s := NewStore(cat, SelfHeal{}, nil)

	var wg sync.WaitGroup
	var selectErr, appendErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, selectErr = s.SelectCategory(context.Background(), "Art")
	}()
	<-cat.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, appendErr = s.Refill(context.Background(), false)
	}()
	time.Sleep(20 * time.Millisecond)
	close(cat.gate)
	wg.Wait()

	require.NoError(t, selectErr)
	require.NoError(t, appendErr)
	assert.True(t, s.HasMore(), "page two must still be reachable")
	assert.False(t, s.Exhausted())

	cat.mu.Lock()
	defer cat.mu.Unlock()
	tokens := map[string]int{}
	for _, c := range cat.calls {
		tokens[c.token]++
	}
	assert.Equal(t, 1, tokens[""], "the first page is fetched once")
}

func TestLookahead(t *testing.T) {
	cat := &scriptedCatalog{script: []pageOrErr{pageOf("", "a", "b", "c", "d", "e")}}
	s := NewStore(cat, SelfHeal{}, nil)
	_, err := s.SelectCategory(context.Background(), "Art")
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "c", "d"}, idsOf(s.Lookahead(3)))
	s.Advance()
	s.Advance()
	s.Advance()
	assert.Equal(t, []string{"e"}, idsOf(s.Lookahead(3)))
	s.Advance()
	assert.Empty(t, s.Lookahead(3))
	assert.Zero(t, s.Remaining())
}

func TestEmptyStore(t *testing.T) {
	s := NewStore(&scriptedCatalog{}, SelfHeal{}, nil)
	_, _, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, NeedsRefill, s.Advance().Outcome)
	assert.Equal(t, AtStart, s.Retreat().Outcome)
	assert.Zero(t, s.Remaining())
	assert.Nil(t, s.Lookahead(3))
}

func idsOf(items []domain.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
