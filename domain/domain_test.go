package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemDisplayTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "strips extension", title: "Sunset over Lake.jpg", want: "Sunset over Lake"},
		{name: "no extension", title: "Untitled", want: "Untitled"},
		{name: "dot in words kept", title: "St. Paul cathedral", want: "St. Paul cathedral"},
		{name: "leading dot kept", title: ".hidden", want: ".hidden"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Item{Title: tc.title}.DisplayTitle())
		})
	}

	long := Item{Title: strings.Repeat("a", 150) + ".png"}
	got := long.DisplayTitle()
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 103, len([]rune(got)))
}

func TestItemAttributionDefaults(t *testing.T) {
	assert.Equal(t, "Unknown license by Unknown author", Item{}.Attribution())
	assert.Equal(t, "CC BY-SA 4.0 by Jane", Item{License: "CC BY-SA 4.0", Author: "Jane"}.Attribution())
}

func TestFetchErrorMatching(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("refill: %w", NewFetchError(FetchNetwork, "Art", cause))

	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsFetchKind(err, FetchNetwork))
	assert.False(t, IsFetchKind(err, FetchDecode))
	assert.Contains(t, err.Error(), "Art")
	assert.Contains(t, err.Error(), "network")
}

func TestCategoryNormalize(t *testing.T) {
	assert.Equal(t, Category("Old_maps"), Category("  Category:Old maps ").Normalize())
	assert.Equal(t, Category("Art"), Category("Art").Normalize())
}

func TestBuiltinCatalog(t *testing.T) {
	c := Builtins()
	require.NotEmpty(t, c.Builtins)
	assert.Equal(t, Category("Featured_pictures_on_Wikimedia_Commons"), c.Default)
	assert.Equal(t, c.Default, c.Builtins[0])
	assert.Equal(t, "Featured Pictures", c.DisplayName(c.Default))
	assert.Equal(t, "Wiki Loves Earth 2024", c.DisplayName("Images_from_Wiki_Loves_Earth_2024"))
	assert.Equal(t, "Human body", c.DisplayName("Human_body"))
	assert.True(t, c.IsBuiltin("Art"))
	assert.False(t, c.IsBuiltin("Old_maps"))
}

func TestCatalogAllSkipsBuiltinDuplicates(t *testing.T) {
	c, err := ParseCatalog([]byte("categories:\n  - key: Art\n  - key: Cats\n  - key: Art\n"))
	require.NoError(t, err)
	assert.Equal(t, Category("Art"), c.Default)
	assert.Equal(t, []Category{"Art", "Cats"}, c.Builtins)
	assert.Equal(t, []Category{"Art", "Cats", "Old_maps"}, c.All([]Category{"Cats", "Old_maps"}))
}

func TestParseCatalogRejectsEmpty(t *testing.T) {
	_, err := ParseCatalog([]byte("categories: []\n"))
	require.Error(t, err)
	_, err = ParseCatalog([]byte(":::"))
	require.Error(t, err)
}
