package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/tui/viewer"
)

// feedbackLimit is the queue length past which pan, zoom and settle
// frames are dropped.
const feedbackLimit = 256

// surfaceMsg wraps a message produced by a Surface call so the root model
// knows to listen for the next one.
type surfaceMsg struct {
	msg tea.Msg
}

type viewMsg struct {
	View domain.View
}

type resetScaleMsg struct{}

type resetGesturesMsg struct{}

// Surface implements app.Surface and nav.GestureResetter by turning each
// call into a message for the Bubble Tea program. Calls never block, so
// they are safe from the event loop and from command goroutines alike, and
// messages are delivered in call order.
type Surface struct {
	mu     sync.Mutex
	queue  []tea.Msg
	notify chan struct{}
	done   chan struct{}
}

// NewSurface creates a surface with an empty queue.
func NewSurface() *Surface {
	return &Surface{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Listen returns a command that waits for the next surface message. The
// root model re-issues it after every delivery.
func (s *Surface) Listen() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case <-s.done:
				return nil
			default:
			}
			if msg, ok := s.pop(); ok {
				return surfaceMsg{msg: msg}
			}
			select {
			case <-s.notify:
			case <-s.done:
				return nil
			}
		}
	}
}

// Close releases a pending Listen.
func (s *Surface) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *Surface) Render(item domain.Item, index int) {
	s.send(viewer.ItemMsg{Item: item, Index: index})
}

func (s *Surface) RenderEmpty(state domain.EmptyState) {
	s.send(viewer.EmptyMsg{State: state})
}

func (s *Surface) ShowLoading() { s.send(viewer.LoadingMsg{On: true}) }
func (s *Surface) HideLoading() { s.send(viewer.LoadingMsg{On: false}) }

func (s *Surface) ShowView(view domain.View) { s.send(viewMsg{View: view}) }

func (s *Surface) Pan(fraction float64) { s.offer(viewer.PanMsg{Fraction: fraction}) }
func (s *Surface) Zoom(scale float64)   { s.offer(viewer.ZoomMsg{Scale: scale}) }
func (s *Surface) Settle(offset float64) {
	s.offer(viewer.SettleMsg{Offset: offset})
}

func (s *Surface) SnapBack()       { s.send(viewer.SnapBackMsg{}) }
func (s *Surface) ResetTransform() { s.send(viewer.ResetTransformMsg{}) }

// ResetScale and Reset reach the gesture interpreter through the event loop.
func (s *Surface) ResetScale() { s.send(resetScaleMsg{}) }
func (s *Surface) Reset()      { s.send(resetGesturesMsg{}) }

// send queues msg. State changes are never dropped.
func (s *Surface) send(msg tea.Msg) {
	s.mu.Lock()
	s.queue = append(s.queue, msg)
	s.mu.Unlock()
	s.wake()
}

// offer drops msg when the queue is long; the next frame supersedes it.
func (s *Surface) offer(msg tea.Msg) {
	s.mu.Lock()
	if len(s.queue) >= feedbackLimit {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, msg)
	s.mu.Unlock()
	s.wake()
}

func (s *Surface) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Surface) pop() (tea.Msg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, false
	}
	msg := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return msg, true
}

// pending is the number of undelivered messages.
func (s *Surface) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
