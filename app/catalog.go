package app

import (
	"context"

	"github.com/CrestNiraj12/commonswipe/domain"
)

// Catalog fetches pages of images for a category.
type Catalog interface {
	// FetchPage returns the next page for category. token is the
	// continuation returned by the previous page, or "" for the first.
	FetchPage(ctx context.Context, category domain.Category, token string) (domain.Page, error)

	// Paginated reports whether the catalog follows continuation tokens.
	// A non-paginated catalog is re-queried for more items instead.
	Paginated() bool
}
