// Package prefs persists the user's category choices.
package prefs

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/CrestNiraj12/commonswipe/app"
	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/infra/logging"
)

const (
	SelectedCategoryKey = "commonsSwipe_selectedCategory"
	CustomCategoriesKey = "commonsSwipe_customCategories"
)

// Store reads and writes category preferences. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	kv      app.KVStore
	catalog domain.Catalog
	custom  []domain.Category
	log     *log.Logger
}

// Load reads the custom category list from kv. Unreadable data is logged
// and treated as an empty list.
func Load(kv app.KVStore, catalog domain.Catalog, logger *log.Logger) *Store {
	s := &Store{
		kv:      kv,
		catalog: catalog,
		log:     logging.OrDiscard(logger).WithPrefix("prefs"),
	}
	raw, ok, err := kv.Get(CustomCategoriesKey)
	if err != nil {
		s.log.Warn("reading custom categories", "err", err)
		return s
	}
	if !ok || raw == "" {
		return s
	}
	var list []domain.Category
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		s.log.Warn("discarding corrupt custom categories", "err", err)
		return s
	}
	for _, c := range list {
		c = c.Normalize()
		if c != "" && !slices.Contains(s.custom, c) {
			s.custom = append(s.custom, c)
		}
	}
	return s
}

// Catalog returns the built-in catalog the store was loaded with.
func (s *Store) Catalog() domain.Catalog { return s.catalog }

// Selected returns the persisted active category, or the catalog default.
func (s *Store) Selected() domain.Category {
	raw, ok, err := s.kv.Get(SelectedCategoryKey)
	if err != nil {
		s.log.Warn("reading selected category", "err", err)
	}
	if c := domain.Category(raw).Normalize(); ok && c != "" {
		return c
	}
	return s.catalog.Default
}

// SetSelected persists c as the active category.
func (s *Store) SetSelected(c domain.Category) error {
	if err := s.kv.Set(SelectedCategoryKey, string(c)); err != nil {
		return &domain.StorageError{Op: "set", Key: SelectedCategoryKey, Err: err}
	}
	return nil
}

// Custom returns the user's categories in insertion order.
func (s *Store) Custom() []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.custom)
}

// All returns built-ins followed by custom categories.
func (s *Store) All() []domain.Category {
	return s.catalog.All(s.Custom())
}

// AddCustom appends c unless it is empty, built in or already present.
// It reports whether the list changed.
func (s *Store) AddCustom(c domain.Category) (bool, error) {
	c = c.Normalize()
	if c == "" || s.catalog.IsBuiltin(c) {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.custom, c) {
		return false, nil
	}
	s.custom = append(s.custom, c)
	return true, s.persistLocked()
}

// RemoveCustom deletes c from the custom list. It reports whether the
// list changed.
func (s *Store) RemoveCustom(c domain.Category) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.custom, c.Normalize())
	if i < 0 {
		return false, nil
	}
	s.custom = slices.Delete(s.custom, i, i+1)
	return true, s.persistLocked()
}

// IsCustom reports whether c was added by the user.
func (s *Store) IsCustom(c domain.Category) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.custom, c)
}

func (s *Store) persistLocked() error {
	list := s.custom
	if list == nil {
		list = []domain.Category{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if err := s.kv.Set(CustomCategoriesKey, string(data)); err != nil {
		return &domain.StorageError{Op: "set", Key: CustomCategoriesKey, Err: err}
	}
	return nil
}
