// Package viewer draws the swipe feed: one image card with its caption,
// the loading indicator and the transient pan and zoom feedback.
package viewer

import (
	"context"
	"image"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/tui/common"
)

// --- Messages ---

// ItemMsg shows item as the current card.
type ItemMsg struct {
	Item  domain.Item
	Index int
}

// EmptyMsg shows a placeholder card in the item slot.
type EmptyMsg struct {
	State domain.EmptyState
}

// LoadingMsg toggles the loading indicator.
type LoadingMsg struct {
	On bool
}

// PanMsg offsets the card by a fraction of its height.
type PanMsg struct {
	Fraction float64
}

// ZoomMsg scales the image.
type ZoomMsg struct {
	Scale float64
}

// SettleMsg is one frame of the card returning to rest.
type SettleMsg struct {
	Offset float64
}

// SnapBackMsg returns the card to rest immediately.
type SnapBackMsg struct{}

// ResetTransformMsg clears pan and zoom.
type ResetTransformMsg struct{}

type imageLoadedMsg struct {
	URL string
	Img image.Image
	Err error
}

// Images resolves image payloads. Implemented by imagecache.Cache.
type Images interface {
	Image(ctx context.Context, url string) (image.Image, error)
	Peek(url string) (image.Image, bool)
}

// --- Model ---

// Model holds the state of the main view.
type Model struct {
	ctx     context.Context
	images  Images
	catalog domain.Catalog

	category domain.Category
	item     domain.Item
	index    int
	hasItem  bool
	empty    *domain.EmptyState
	img      image.Image
	imgErr   error
	loading  bool

	pan  float64 // Fraction of the card height, negative is up
	zoom float64

	width, height int
	spinner       spinner.Model

	// card caches the ANSI rendering of img at the current size and zoom.
	card string
}

// New creates a viewer. ctx bounds image downloads.
func New(ctx context.Context, images Images, catalog domain.Catalog) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(common.Accent)

	return Model{
		ctx:      ctx,
		images:   images,
		catalog:  catalog,
		category: catalog.Default,
		zoom:     1,
		width:    80,
		height:   24,
		spinner:  s,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetCategory updates the header.
func (m *Model) SetCategory(c domain.Category) {
	m.category = c
}

// SetSize sets the area available to the view.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.redraw()
}

// Current returns the item on the card, if any.
func (m Model) Current() (domain.Item, int, bool) {
	if !m.hasItem || m.empty != nil {
		return domain.Item{}, 0, false
	}
	return m.item, m.index, true
}

// Empty returns the placeholder being shown, if any.
func (m Model) Empty() (domain.EmptyState, bool) {
	if m.empty == nil {
		return domain.EmptyState{}, false
	}
	return *m.empty, true
}

// Loading reports whether the loading indicator is on.
func (m Model) Loading() bool { return m.loading }

// Pan is the current card offset.
func (m Model) Pan() float64 { return m.pan }

// Zoom is the current image scale.
func (m Model) Zoom() float64 { return m.zoom }

// Filtered reports whether a category other than the default is active.
func (m Model) Filtered() bool {
	return m.category != "" && m.category != m.catalog.Default
}

// CardRows is the number of terminal rows the image is drawn in. Gesture
// fractions are relative to it.
func (m Model) CardRows() int {
	return layoutFor(m.width, m.height).cardRows
}
