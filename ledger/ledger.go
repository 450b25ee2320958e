// Package ledger remembers which images were already shown so that new
// fetches can skip them. It is a bounded hint, not a record: the oldest ids
// fall out once capacity is reached and the whole set may be cleared when
// a category runs dry.
package ledger

import (
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/CrestNiraj12/commonswipe/app"
	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/infra/logging"
)

const (
	// DefaultCapacity bounds the number of remembered ids.
	DefaultCapacity = 1000
	// StorageKey is where the JSON-encoded id list is persisted.
	StorageKey = "commonsSwipe_viewedImages"
)

// Ledger is a FIFO-bounded set of viewed item ids backed by a KVStore.
// Safe for concurrent use.
type Ledger struct {
	mu       sync.Mutex
	ids      []string
	index    map[string]struct{}
	capacity int
	store    app.KVStore
	log      *log.Logger
}

// Load restores the ledger from store. Missing or unreadable data yields an
// empty ledger; it is never fatal.
func Load(store app.KVStore, capacity int, logger *log.Logger) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Ledger{
		index:    make(map[string]struct{}),
		capacity: capacity,
		store:    store,
		log:      logging.OrDiscard(logger),
	}

	raw, ok, err := store.Get(StorageKey)
	if err != nil {
		l.log.Warn("reading viewed ledger", "err", err)
		return l
	}
	if !ok || raw == "" {
		return l
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		l.log.Warn("discarding corrupt viewed ledger", "err", err)
		return l
	}
	for _, id := range ids {
		l.appendLocked(id)
	}
	l.evictLocked()
	return l
}

// Contains reports whether id was recorded.
func (l *Ledger) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[id]
	return ok
}

// Record remembers id, evicting the oldest entries beyond capacity, and
// persists the result before returning. On a storage failure the in-memory
// state is kept and a *domain.StorageError is returned.
func (l *Ledger) Record(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.index[id]; ok {
		return nil
	}
	l.appendLocked(id)
	l.evictLocked()
	return l.persistLocked()
}

// Clear forgets every id.
func (l *Ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = nil
	l.index = make(map[string]struct{})
	if err := l.store.Remove(StorageKey); err != nil {
		return &domain.StorageError{Op: "remove", Key: StorageKey, Err: err}
	}
	return nil
}

// Len returns the number of remembered ids.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ids)
}

func (l *Ledger) appendLocked(id string) {
	if _, ok := l.index[id]; ok {
		return
	}
	l.ids = append(l.ids, id)
	l.index[id] = struct{}{}
}

func (l *Ledger) evictLocked() {
	if len(l.ids) <= l.capacity {
		return
	}
	drop := len(l.ids) - l.capacity
	for _, id := range l.ids[:drop] {
		delete(l.index, id)
	}
	l.ids = append([]string(nil), l.ids[drop:]...)
}

func (l *Ledger) persistLocked() error {
	data, err := json.Marshal(l.ids)
	if err != nil {
		return &domain.StorageError{Op: "encode", Key: StorageKey, Err: err}
	}
	if err := l.store.Set(StorageKey, string(data)); err != nil {
		return &domain.StorageError{Op: "set", Key: StorageKey, Err: err}
	}
	return nil
}
