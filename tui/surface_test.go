package tui

import (
	"strconv"
	"sync"
	"testing"

	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/tui/viewer"
)

func next(t *testing.T, s *Surface) any {
	t.Helper()
	msg, ok := s.Listen()().(surfaceMsg)
	if !ok {
		t.Fatalf("expected a surface message")
	}
	return msg.msg
}

func TestSurface_DeliversInOrder(t *testing.T) {
	s := NewSurface()
	s.ShowLoading()
	s.Render(domain.Item{ID: "1"}, 0)
	s.ResetTransform()
	s.ResetScale()

	if got, ok := next(t, s).(viewer.LoadingMsg); !ok || !got.On {
		t.Fatalf("expected loading on, got %#v", got)
	}
	if got, ok := next(t, s).(viewer.ItemMsg); !ok || got.Item.ID != "1" {
		t.Fatalf("expected item, got %#v", got)
	}
	if _, ok := next(t, s).(viewer.ResetTransformMsg); !ok {
		t.Fatalf("expected reset transform")
	}
	if _, ok := next(t, s).(resetScaleMsg); !ok {
		t.Fatalf("expected reset scale")
	}
}

func TestSurface_FeedbackDropsWhenFull(t *testing.T) {
	s := NewSurface()
	for range feedbackLimit + 10 {
		s.Pan(0.1)
	}
	if got := s.pending(); got != feedbackLimit {
		t.Fatalf("expected a full queue, got %d", got)
	}

	// State changes are never dropped.
	s.RenderEmpty(domain.EmptyState{Kind: domain.EmptyEnd})
	for range feedbackLimit {
		next(t, s)
	}
	if _, ok := next(t, s).(viewer.EmptyMsg); !ok {
		t.Fatalf("expected the empty card after the queued frames")
	}
}

func TestSurface_KeepsOrderPastTheFeedbackLimit(t *testing.T) {
	s := NewSurface()
	for range feedbackLimit {
		s.Pan(0.1)
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 50 {
			s.Render(domain.Item{ID: strconv.Itoa(i)}, i)
			s.ResetTransform()
		}
	}()
	wg.Wait()

	for range feedbackLimit {
		next(t, s)
	}
	for i := range 50 {
		got, ok := next(t, s).(viewer.ItemMsg)
		if !ok || got.Index != i {
			t.Fatalf("render %d arrived out of order: %#v", i, got)
		}
		if _, ok := next(t, s).(viewer.ResetTransformMsg); !ok {
			t.Fatalf("expected reset transform after render %d", i)
		}
	}
}

func TestSurface_ListenWakesOnSend(t *testing.T) {
	s := NewSurface()
	got := make(chan any, 1)
	go func() { got <- s.Listen()() }()
	s.SnapBack()
	msg, ok := (<-got).(surfaceMsg)
	if !ok {
		t.Fatalf("expected a surface message")
	}
	if _, ok := msg.msg.(viewer.SnapBackMsg); !ok {
		t.Fatalf("expected snap back, got %#v", msg.msg)
	}
}

func TestSurface_CloseReleasesListen(t *testing.T) {
	s := NewSurface()
	s.Close()
	s.Close()
	if msg := s.Listen()(); msg != nil {
		t.Fatalf("expected nil after close, got %#v", msg)
	}
}
