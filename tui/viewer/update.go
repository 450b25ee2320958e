package viewer

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/commonswipe/infra/imagecache"
)

// Update handles surface messages and image loads.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ItemMsg:
		m.item, m.index, m.hasItem = msg.Item, msg.Index, true
		m.empty = nil
		m.img, m.imgErr = nil, nil
		if img, ok := m.images.Peek(msg.Item.ImageURL); ok {
			m.img = img
			m.redraw()
			return m, nil
		}
		m.card = ""
		return m, m.loadImage(msg.Item.ImageURL)

	case imageLoadedMsg:
		// A late download for a card that was swiped away.
		if !m.hasItem || m.empty != nil || msg.URL != m.item.ImageURL {
			return m, nil
		}
		m.img, m.imgErr = msg.Img, msg.Err
		m.redraw()
		return m, nil

	case EmptyMsg:
		state := msg.State
		m.empty = &state
		m.card = ""
		return m, nil

	case LoadingMsg:
		m.loading = msg.On
		return m, nil

	case PanMsg:
		m.pan = clampPan(msg.Fraction)
		return m, nil

	case SettleMsg:
		m.pan = clampPan(msg.Offset)
		return m, nil

	case SnapBackMsg:
		m.pan = 0
		return m, nil

	case ZoomMsg:
		if msg.Scale > 0 && msg.Scale != m.zoom {
			m.zoom = msg.Scale
			m.redraw()
		}
		return m, nil

	case ResetTransformMsg:
		m.pan = 0
		if m.zoom != 1 {
			m.zoom = 1
			m.redraw()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) loadImage(url string) tea.Cmd {
	if url == "" {
		return nil
	}
	images, ctx := m.images, m.ctx
	return func() tea.Msg {
		img, err := images.Image(ctx, url)
		return imageLoadedMsg{URL: url, Img: img, Err: err}
	}
}

func (m *Model) redraw() {
	if m.img == nil {
		m.card = ""
		return
	}
	l := layoutFor(m.width, m.height)
	m.card = imagecache.RenderANSI(m.img, l.cardCols, l.cardRows, m.zoom)
}

func clampPan(v float64) float64 {
	return max(-1, min(1, v))
}
