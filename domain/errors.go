package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch matches any *FetchError via errors.Is.
	ErrFetch = errors.New("catalog fetch failed")

	// ErrNoContent indicates the category had nothing to show, even after
	// the viewed history was cleared.
	ErrNoContent = errors.New("no new images found")

	// ErrStaleRefill indicates a refill finished after the active category
	// changed. Its result was discarded.
	ErrStaleRefill = errors.New("refill result is stale")

	// ErrAtStart is the terminal outcome of retreating from the first item.
	ErrAtStart = errors.New("already at the first image")

	// ErrAtEnd is the terminal outcome of advancing past the last item of
	// an exhausted feed.
	ErrAtEnd = errors.New("no more images")
)

// FetchErrorKind classifies catalog failures.
type FetchErrorKind int

const (
	// FetchNetwork covers transport failures, non-2xx statuses and errors
	// reported by the service itself.
	FetchNetwork FetchErrorKind = iota
	// FetchDecode means the response body was not the expected JSON.
	FetchDecode
	// FetchUpstreamEmpty means the service answered with an empty body.
	FetchUpstreamEmpty
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchNetwork:
		return "network"
	case FetchDecode:
		return "decode"
	case FetchUpstreamEmpty:
		return "upstream empty"
	default:
		return fmt.Sprintf("FetchErrorKind(%d)", int(k))
	}
}

// FetchError is returned by catalog clients. It is never retried
// automatically.
type FetchError struct {
	Kind     FetchErrorKind
	Category Category
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s (%s): %v", e.Category, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetching %s (%s)", e.Category, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFetch) match every fetch failure.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// NewFetchError builds a FetchError of the given kind.
func NewFetchError(kind FetchErrorKind, category Category, err error) *FetchError {
	return &FetchError{Kind: kind, Category: category, Err: err}
}

// IsFetchKind reports whether err is a FetchError of the given kind.
func IsFetchKind(err error, kind FetchErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}

// StorageError reports that the persistence layer could not serve a
// request. Callers keep working from memory.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
