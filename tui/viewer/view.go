package viewer

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/gesture"
	"github.com/CrestNiraj12/commonswipe/tui/common"
)

const (
	nextLabel   = "next ›"
	filterLabel = "☰ categories"

	// header, two card borders, three caption lines and the action bar
	chromeRows = 7
)

type layout struct {
	cardCols  int
	cardRows  int
	actionRow int
}

func layoutFor(width, height int) layout {
	rows := max(height-chromeRows, 3)
	return layout{
		cardCols:  max(width-2, 8),
		cardRows:  rows,
		actionRow: rows + 6,
	}
}

// View renders the main view.
func (m Model) View() string {
	l := layoutFor(m.width, m.height)
	sections := []string{
		m.viewHeader(),
		common.CardStyle.Width(l.cardCols).Height(l.cardRows).Render(m.viewCard(l)),
		m.viewCaption(),
		m.viewActions(),
	}
	return strings.Join(sections, "\n")
}

func (m Model) viewHeader() string {
	var b strings.Builder
	b.WriteString(common.AppTitleStyle.Render("commonswipe"))
	b.WriteString(common.CategoryStyle.Render(m.catalog.DisplayName(m.category)))
	if m.Filtered() {
		b.WriteString(common.FilterBadgeStyle.Render("● filtered"))
	}
	if m.hasItem && m.empty == nil {
		b.WriteString(common.TaglineStyle.Render(fmt.Sprintf("#%d", m.index+1)))
	}
	if m.loading {
		b.WriteString(" " + m.spinner.View())
	}
	return b.String()
}

func (m Model) viewCard(l layout) string {
	var body string
	switch {
	case m.empty != nil:
		body = lipgloss.Place(l.cardCols, l.cardRows, lipgloss.Center, lipgloss.Center,
			common.PlaceholderStyle.Width(max(l.cardCols-6, 10)).Render(placeholderText(*m.empty)))
	case !m.hasItem:
		body = lipgloss.Place(l.cardCols, l.cardRows, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading images...")
	case m.card != "":
		body = m.card
	case m.imgErr != nil:
		body = lipgloss.Place(l.cardCols, l.cardRows, lipgloss.Center, lipgloss.Center,
			common.ErrorStyle.Render("Could not load image")+"\n"+
				common.MetadataStyle.Render(common.TruncateLine(m.imgErr.Error(), l.cardCols-2)))
	default:
		body = lipgloss.Place(l.cardCols, l.cardRows, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Fetching image...")
	}
	return shiftLines(body, l.cardRows, int(math.Round(m.pan*float64(l.cardRows))))
}

func placeholderText(s domain.EmptyState) string {
	hint := "f for another category"
	if s.Kind == domain.EmptyEnd {
		hint = "k to go back · " + hint
	}
	msg := s.Message
	if s.Kind == domain.EmptyError {
		msg = common.ErrorStyle.Render(msg)
	}
	return msg + "\n\n" + common.MetadataStyle.Render(hint)
}

// shiftLines moves body down by shift rows (up when negative) inside a
// window of rows lines.
func shiftLines(body string, rows, shift int) string {
	if shift == 0 {
		return body
	}
	lines := strings.Split(body, "\n")
	out := make([]string, rows)
	for i := range out {
		if src := i - shift; src >= 0 && src < len(lines) {
			out[i] = lines[src]
		}
	}
	return strings.Join(out, "\n")
}

func (m Model) viewCaption() string {
	if !m.hasItem || m.empty != nil {
		return "\n\n"
	}
	w := max(m.width-1, 1)
	return strings.Join([]string{
		common.ImageTitleStyle.Render(common.TruncateLine(m.item.DisplayTitle(), w)),
		common.MetadataStyle.Render(common.TruncateLine(m.item.Attribution(), w)),
		common.ContentStyle.Render(common.TruncateLine(m.item.Description, w)),
	}, "\n")
}

func (m Model) viewActions() string {
	bar := common.ActionActiveStyle.Render(nextLabel) + " " + common.ActionInactiveStyle.Render(filterLabel)
	if m.zoom != 1 {
		bar += " " + common.MetadataStyle.Render(fmt.Sprintf("zoom %.1f×", m.zoom))
	}
	return bar
}

// HitTest maps a cell in the view to the button under it.
func (m Model) HitTest(x, y int) gesture.Target {
	if y != layoutFor(m.width, m.height).actionRow || x < 0 {
		return gesture.TargetNone
	}
	next := lipgloss.Width(common.ActionActiveStyle.Render(nextLabel))
	filter := lipgloss.Width(common.ActionInactiveStyle.Render(filterLabel))
	switch {
	case x < next:
		return gesture.TargetNext
	case x > next && x <= next+filter:
		return gesture.TargetFilter
	}
	return gesture.TargetNone
}
