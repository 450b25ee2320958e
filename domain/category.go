package domain

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Category is a catalog filter scope, e.g. "Featured_pictures_on_Wikimedia_Commons".
type Category string

// Normalize trims whitespace and turns spaces into the underscores the
// catalog uses in category keys.
func (c Category) Normalize() Category {
	s := strings.TrimSpace(string(c))
	s = strings.TrimPrefix(s, "Category:")
	return Category(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}

//go:embed categories.yaml
var builtinYAML []byte

type catalogFile struct {
	Default    Category `yaml:"default"`
	Categories []struct {
		Key  Category `yaml:"key"`
		Name string   `yaml:"name"`
	} `yaml:"categories"`
}

// Catalog is the curated list of built-in categories.
type Catalog struct {
	Default  Category
	Builtins []Category
	names    map[Category]string
}

var (
	builtinOnce    sync.Once
	builtinCatalog Catalog
)

// Builtins returns the embedded category catalog. It panics if the
// embedded document is malformed, which only a broken build can cause.
func Builtins() Catalog {
	builtinOnce.Do(func() {
		c, err := ParseCatalog(builtinYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded categories: %v", err))
		}
		builtinCatalog = c
	})
	return builtinCatalog
}

// ParseCatalog decodes a category catalog document.
func ParseCatalog(data []byte) (Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Catalog{}, fmt.Errorf("parsing category catalog: %w", err)
	}
	if len(f.Categories) == 0 {
		return Catalog{}, fmt.Errorf("category catalog is empty")
	}
	c := Catalog{
		Default: f.Default,
		names:   make(map[Category]string),
	}
	seen := make(map[Category]struct{}, len(f.Categories))
	for _, entry := range f.Categories {
		key := entry.Key.Normalize()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		c.Builtins = append(c.Builtins, key)
		if entry.Name != "" {
			c.names[key] = entry.Name
		}
	}
	if c.Default == "" {
		c.Default = c.Builtins[0]
	}
	return c, nil
}

// IsBuiltin reports whether c is part of the curated list.
func (c Catalog) IsBuiltin(cat Category) bool {
	for _, b := range c.Builtins {
		if b == cat {
			return true
		}
	}
	return false
}

// DisplayName returns a human-friendly label for a category.
func (c Catalog) DisplayName(cat Category) string {
	if name, ok := c.names[cat]; ok {
		return name
	}
	return strings.ReplaceAll(string(cat), "_", " ")
}

// All returns built-ins followed by the custom categories that are not
// already built in.
func (c Catalog) All(custom []Category) []Category {
	out := make([]Category, 0, len(c.Builtins)+len(custom))
	out = append(out, c.Builtins...)
	for _, cat := range custom {
		if c.IsBuiltin(cat) {
			continue
		}
		out = append(out, cat)
	}
	return out
}
