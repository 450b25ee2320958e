// Package nav turns intents into feed movements and surface updates.
package nav

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/CrestNiraj12/commonswipe/app"
	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/feed"
	"github.com/CrestNiraj12/commonswipe/gesture"
	"github.com/CrestNiraj12/commonswipe/infra/logging"
)

// Feed is the cursor and refill API of feed.Store.
type Feed interface {
	SelectCategory(ctx context.Context, c domain.Category) (feed.RefillResult, error)
	Refill(ctx context.Context, fromScratch bool) (feed.RefillResult, error)
	Advance() feed.Move
	Retreat() feed.Move
	Current() (domain.Item, int, bool)
	Category() domain.Category
	Generation() uint64
	Exhausted() bool
}

// History records and forgets viewed items.
type History interface {
	Record(id string) error
	Clear() error
}

// Prefetcher is told about every cursor move.
type Prefetcher interface {
	OnCursorMoved(ctx context.Context)
}

// Preferences stores the active category.
type Preferences interface {
	Selected() domain.Category
	SetSelected(c domain.Category) error
}

// GestureResetter resets the gesture recognizer. ResetScale runs after every
// item render, Reset on category switches.
type GestureResetter interface {
	ResetScale()
	Reset()
}

// Opener shows a URL outside the app.
type Opener interface {
	Open(url string) error
}

// Deps wires a Controller. Prefetch, Gestures and Opener are optional.
type Deps struct {
	Feed     Feed
	History  History
	Surface  app.Surface
	Prefs    Preferences
	Prefetch Prefetcher
	Gestures GestureResetter
	Opener   Opener
	Catalog  domain.Catalog
	Logger   *log.Logger
}

// Controller coordinates navigation. Its methods block on network I/O and
// must not run on the UI event loop, except Handle for feedback intents.
type Controller struct {
	feed     Feed
	history  History
	surface  app.Surface
	prefs    Preferences
	prefetch Prefetcher
	gestures GestureResetter
	opener   Opener
	catalog  domain.Catalog
	log      *log.Logger

	mu sync.Mutex
	// placeholder is set while an empty-state card covers the current item.
	placeholder bool
}

// New creates a Controller.
func New(d Deps) *Controller {
	return &Controller{
		feed:     d.Feed,
		history:  d.History,
		surface:  d.Surface,
		prefs:    d.Prefs,
		prefetch: d.Prefetch,
		gestures: d.Gestures,
		opener:   d.Opener,
		catalog:  d.Catalog,
		log:      logging.OrDiscard(d.Logger).WithPrefix("nav"),
	}
}

// IsFeedback reports whether an intent only drives visual feedback and can
// be handled without blocking.
func IsFeedback(k gesture.IntentKind) bool {
	switch k {
	case gesture.PanProgress, gesture.ZoomProgress, gesture.SettleProgress,
		gesture.CancelGesture, gesture.ShowFilterView, gesture.ShowMainView:
		return true
	}
	return false
}

// Handle dispatches one intent.
func (c *Controller) Handle(ctx context.Context, in gesture.Intent) error {
	switch in.Kind {
	case gesture.Next:
		return c.Next(ctx)
	case gesture.Previous:
		return c.Previous(ctx)
	case gesture.PanProgress:
		c.surface.Pan(in.Value)
	case gesture.ZoomProgress:
		c.surface.Zoom(in.Value)
	case gesture.SettleProgress:
		c.surface.Settle(in.Value)
	case gesture.CancelGesture:
		c.surface.SnapBack()
	case gesture.ShowFilterView:
		c.surface.ShowView(domain.ViewCategoryPicker)
	case gesture.ShowMainView:
		c.surface.ShowView(domain.ViewMain)
	case gesture.Refresh:
		return c.Refresh(ctx)
	case gesture.OpenExternal:
		return c.OpenCurrent()
	case gesture.Quit:
		// Owned by the frontend.
	}
	return nil
}

// Start loads the persisted category.
func (c *Controller) Start(ctx context.Context) error {
	return c.SelectCategory(ctx, c.prefs.Selected())
}

// SelectCategory switches the active category and shows its first item.
func (c *Controller) SelectCategory(ctx context.Context, cat domain.Category) error {
	cat = cat.Normalize()
	if c.gestures != nil {
		c.gestures.Reset()
	}
	if err := c.prefs.SetSelected(cat); err != nil {
		c.log.Warn("saving selected category", "err", err)
	}
	c.surface.ShowView(domain.ViewMain)
	c.surface.ShowLoading()

	res, err := c.feed.SelectCategory(ctx, cat)
	if errors.Is(err, domain.ErrStaleRefill) {
		// A newer selection owns the loading indicator now.
		return nil
	}
	c.surface.HideLoading()
	if err != nil {
		c.showFailure(cat, err)
		return err
	}
	if res.Healed {
		c.log.Info("showing previously viewed images again", "category", cat)
	}

	item, idx, ok := c.feed.Current()
	if !ok {
		c.showFailure(cat, domain.ErrNoContent)
		return domain.ErrNoContent
	}
	c.show(ctx, item, idx)
	return nil
}

// Refresh forgets the viewed history and reloads the active category.
func (c *Controller) Refresh(ctx context.Context) error {
	if err := c.history.Clear(); err != nil {
		c.log.Warn("clearing viewed history", "err", err)
	}
	cat := c.feed.Category()
	if cat == "" {
		cat = c.prefs.Selected()
	}
	return c.SelectCategory(ctx, cat)
}

// Next moves to the following item, refilling the feed when needed.
func (c *Controller) Next(ctx context.Context) error {
	if c.feed.Exhausted() {
		c.showFailure(c.feed.Category(), domain.ErrAtEnd)
		return nil
	}
	gen := c.feed.Generation()
	m := c.feed.Advance()

	if m.Outcome == feed.NeedsRefill {
		c.surface.ShowLoading()
		_, err := c.feed.Refill(ctx, false)
		if errors.Is(err, domain.ErrStaleRefill) || c.feed.Generation() != gen {
			return nil
		}
		c.surface.HideLoading()
		if err != nil {
			c.showFailure(c.feed.Category(), err)
			return err
		}
		m = c.feed.Advance()
	}

	switch m.Outcome {
	case feed.Moved:
		c.show(ctx, m.Item, m.Index)
	case feed.NeedsRefill, feed.AtEnd:
		c.showFailure(c.feed.Category(), domain.ErrAtEnd)
	}
	return nil
}

// Previous moves back one item. At the first item it does nothing. When a
// placeholder is showing, it uncovers the current item instead.
func (c *Controller) Previous(ctx context.Context) error {
	if c.takePlaceholder() {
		if item, idx, ok := c.feed.Current(); ok {
			c.show(ctx, item, idx)
			return nil
		}
		return nil
	}
	m := c.feed.Retreat()
	if m.Outcome != feed.Moved {
		return nil
	}
	c.show(ctx, m.Item, m.Index)
	return nil
}

// OpenCurrent opens the current item's description page.
func (c *Controller) OpenCurrent() error {
	if c.opener == nil {
		return nil
	}
	item, _, ok := c.feed.Current()
	if !ok || item.PageURL == "" {
		return nil
	}
	if err := c.opener.Open(item.PageURL); err != nil {
		return fmt.Errorf("opening %s: %w", item.PageURL, err)
	}
	return nil
}

func (c *Controller) show(ctx context.Context, item domain.Item, idx int) {
	c.setPlaceholder(false)
	if err := c.history.Record(item.ID); err != nil {
		c.log.Warn("recording viewed image", "id", item.ID, "err", err)
	}
	c.surface.Render(item, idx)
	c.surface.ResetTransform()
	if c.gestures != nil {
		c.gestures.ResetScale()
	}
	if c.prefetch != nil {
		c.prefetch.OnCursorMoved(ctx)
	}
}

func (c *Controller) showFailure(cat domain.Category, err error) {
	c.setPlaceholder(true)
	name := c.catalog.DisplayName(cat)
	switch {
	case errors.Is(err, domain.ErrNoContent):
		c.surface.RenderEmpty(domain.EmptyState{
			Kind:    domain.EmptyNoContent,
			Message: fmt.Sprintf("No images found in %s. Try another category.", name),
			Err:     err,
		})
	case errors.Is(err, domain.ErrAtEnd):
		c.surface.RenderEmpty(domain.EmptyState{
			Kind:    domain.EmptyEnd,
			Message: fmt.Sprintf("You've reached the end of %s. Press r to start over.", name),
			Err:     err,
		})
	default:
		c.log.Error("loading images", "category", cat, "err", err)
		c.surface.RenderEmpty(domain.EmptyState{
			Kind:    domain.EmptyError,
			Message: "Couldn't load images. Press r to try again.",
			Err:     err,
		})
	}
}

func (c *Controller) setPlaceholder(v bool) {
	c.mu.Lock()
	c.placeholder = v
	c.mu.Unlock()
}

func (c *Controller) takePlaceholder() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.placeholder
	c.placeholder = false
	return v
}
