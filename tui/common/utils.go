package common

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// TruncateLine collapses whitespace in s and cuts it to width cells,
// marking the cut with an ellipsis.
func TruncateLine(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

