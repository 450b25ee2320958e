package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultLicense is used when the catalog has no license label.
	DefaultLicense = "Unknown license"
	// DefaultAuthor is used when the catalog has no attribution.
	DefaultAuthor = "Unknown author"

	maxTitleRunes = 100
)

// Item is a single image from the catalog.
type Item struct {
	ID          string // Catalog page id; the canonical identity
	Title       string // File name without the "File:" prefix
	ImageURL    string // Width-bounded fetch URL
	PageURL     string // Description page
	License     string
	Author      string // Plain text, markup stripped
	Description string // Plain text, may be empty
	MIME        string
}

// DisplayTitle returns the title without its file extension, cut to a
// readable length.
func (i Item) DisplayTitle() string {
	t := i.Title
	if dot := strings.LastIndex(t, "."); dot > 0 && !strings.ContainsAny(t[dot:], "/ ") {
		t = t[:dot]
	}
	if utf8.RuneCountInString(t) <= maxTitleRunes {
		return t
	}
	return string([]rune(t)[:maxTitleRunes]) + "..."
}

// Attribution renders "<license> by <author>".
func (i Item) Attribution() string {
	license := i.License
	if license == "" {
		license = DefaultLicense
	}
	author := i.Author
	if author == "" {
		author = DefaultAuthor
	}
	return license + " by " + author
}

// Page is one catalog response after filtering.
type Page struct {
	Items     []Item
	NextToken string // Empty when there is no continuation
}

// EmptyKind tells the surface which placeholder card to draw.
type EmptyKind int

const (
	EmptyNoContent EmptyKind = iota
	EmptyEnd
	EmptyError
)

// EmptyState is rendered in the item slot instead of an image.
type EmptyState struct {
	Kind    EmptyKind
	Message string
	Err     error
}

// View identifies a top-level screen.
type View int

const (
	ViewMain View = iota
	ViewCategoryPicker
)

func (v View) String() string {
	switch v {
	case ViewMain:
		return "main"
	case ViewCategoryPicker:
		return "categories"
	default:
		return "unknown"
	}
}
