package app

import (
	"context"

	"github.com/CrestNiraj12/commonswipe/domain"
)

// Surface draws the feed. Implemented by the presentation layer.
type Surface interface {
	// Render shows item as the current card.
	Render(item domain.Item, index int)

	// RenderEmpty shows a placeholder card in the item slot.
	RenderEmpty(state domain.EmptyState)

	ShowLoading()
	HideLoading()
	ShowView(view domain.View)

	// Pan, Zoom and Settle are transient visual feedback only.
	Pan(fraction float64)
	Zoom(scale float64)
	Settle(offset float64)

	// SnapBack returns the card to rest after a cancelled gesture.
	SnapBack()

	// ResetTransform clears pan and zoom after a new item is shown.
	ResetTransform()
}

// Warmer fetches an image payload into a cache without displaying it.
type Warmer interface {
	Warm(ctx context.Context, url string) error
}
