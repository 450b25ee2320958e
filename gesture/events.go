package gesture

import (
	"math"
	"time"
)

// Point is a contact position in the frontend's units.
type Point struct {
	X, Y float64
}

func distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Event is raw input fed to the Interpreter.
type Event interface {
	isEvent()
}

// PointerDown reports the contacts present after a new one touched down.
type PointerDown struct {
	Contacts []Point
	At       time.Time
}

// PointerMove reports the current contact positions.
type PointerMove struct {
	Contacts []Point
	At       time.Time
}

// PointerUp reports the contacts still down after one was lifted.
type PointerUp struct {
	Remaining []Point
	At        time.Time
}

// Wheel is a scroll step. Modifier is set for ctrl/meta scrolling, which
// zooms instead of paging.
type Wheel struct {
	DeltaY   float64
	Modifier bool
	At       time.Time
}

// Key is a key press named the way bubbletea names keys ("right", "ctrl+c").
type Key struct {
	Name string
}

func (k Key) String() string { return k.Name }

// Target is an on-screen affordance.
type Target int

const (
	TargetNone Target = iota
	TargetNext
	TargetFilter
	TargetBack
)

// Click activates an affordance.
type Click struct {
	Target Target
}

// Tick advances time while no other input arrives. Frontends send it at
// frame rate while an animation or wheel gesture is pending.
type Tick struct {
	At time.Time
}

func (PointerDown) isEvent() {}
func (PointerMove) isEvent() {}
func (PointerUp) isEvent()   {}
func (Wheel) isEvent()       {}
func (Key) isEvent()         {}
func (Click) isEvent()       {}
func (Tick) isEvent()        {}

// IntentKind names what the user asked for.
type IntentKind int

const (
	Next IntentKind = iota
	Previous
	PanProgress
	ZoomProgress
	CancelGesture
	SettleProgress
	ShowFilterView
	ShowMainView
	Refresh
	OpenExternal
	Quit
)

var intentNames = [...]string{
	Next:           "next",
	Previous:       "previous",
	PanProgress:    "pan",
	ZoomProgress:   "zoom",
	CancelGesture:  "cancel",
	SettleProgress: "settle",
	ShowFilterView: "filter",
	ShowMainView:   "main",
	Refresh:        "refresh",
	OpenExternal:   "open",
	Quit:           "quit",
}

func (k IntentKind) String() string {
	if int(k) < len(intentNames) {
		return intentNames[k]
	}
	return "unknown"
}

// Intent is a recognized user action. Value carries the fraction, scale or
// offset for the progress kinds.
type Intent struct {
	Kind  IntentKind
	Value float64
}

func intent(k IntentKind) Intent { return Intent{Kind: k} }
