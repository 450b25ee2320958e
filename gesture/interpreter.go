// Package gesture turns raw pointer, wheel and key input into navigation
// intents. The Interpreter is a pure state machine: it performs no I/O and
// never reads the clock, so every event carries its own timestamp.
package gesture

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
)

// Config holds the thresholds of the recognizer. Lengths are in the
// frontend's pointer units.
type Config struct {
	// DeadZone is how far a pan must travel before it counts.
	DeadZone float64
	// Extent is the viewport height a full pan corresponds to.
	Extent float64
	// DistanceThreshold is the pan fraction that commits a swipe.
	DistanceThreshold float64
	// VelocityThreshold commits a swipe regardless of distance, in units/ms.
	VelocityThreshold float64

	MinScale float64
	MaxScale float64

	WheelZoomFactor float64
	WheelPanFactor  float64
	WheelThreshold  float64
	WheelIdle       time.Duration

	// SettleFPS is the rate Ticks arrive at while settling.
	SettleFPS int

	Keys KeyMap
}

// DefaultConfig mirrors touch-screen defaults with an 800 unit viewport.
func DefaultConfig() Config {
	return Config{
		DeadZone:          10,
		Extent:            800,
		DistanceThreshold: 0.2,
		VelocityThreshold: 0.3,
		MinScale:          0.5,
		MaxScale:          2.0,
		WheelZoomFactor:   0.01,
		WheelPanFactor:    0.002,
		WheelThreshold:    0.3,
		WheelIdle:         200 * time.Millisecond,
		SettleFPS:         60,
		Keys:              DefaultKeyMap(),
	}
}

// Phase is the interpreter's coarse state.
type Phase int

const (
	Idle Phase = iota
	TrackingPan
	TrackingPinch
	Settling
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case TrackingPan:
		return "pan"
	case TrackingPinch:
		return "pinch"
	case Settling:
		return "settling"
	default:
		return "unknown"
	}
}

// Direction of a committed swipe.
type Direction int

const (
	None Direction = iota
	Forward
	Backward
)

// State is a snapshot of the gesture in flight. Fields outside the current
// Phase are zero.
type State struct {
	Phase Phase

	// TrackingPan
	Start     Point
	Current   Point
	StartTime time.Time

	// TrackingPinch
	StartDistance float64
	StartScale    float64

	// Settling
	Direction Direction
	Progress  float64
}

const (
	settleEpsilon  = 0.001
	maxSettleSteps = 120
)

// Interpreter recognizes gestures. It is not safe for concurrent use; feed
// it from a single event loop.
type Interpreter struct {
	cfg   Config
	state State
	scale float64

	// panning is set once the current pan left the dead zone.
	panning bool

	wheelAcc    float64
	wheelActive bool
	wheelZoom   bool
	lastWheel   time.Time

	spring      harmonica.Spring
	settleVel   float64
	settleSteps int
}

// New creates an Interpreter. Zero fields in cfg, other than DeadZone, take
// DefaultConfig values.
func New(cfg Config) *Interpreter {
	cfg = withDefaults(cfg)
	return &Interpreter{
		cfg:    cfg,
		scale:  1,
		spring: harmonica.NewSpring(harmonica.FPS(cfg.SettleFPS), 8.0, 1.0),
	}
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.DeadZone < 0 {
		cfg.DeadZone = 0
	}
	if cfg.Extent <= 0 {
		cfg.Extent = def.Extent
	}
	if cfg.DistanceThreshold <= 0 {
		cfg.DistanceThreshold = def.DistanceThreshold
	}
	if cfg.VelocityThreshold <= 0 {
		cfg.VelocityThreshold = def.VelocityThreshold
	}
	if cfg.MinScale <= 0 {
		cfg.MinScale = def.MinScale
	}
	if cfg.MaxScale <= 0 {
		cfg.MaxScale = def.MaxScale
	}
	if cfg.WheelZoomFactor <= 0 {
		cfg.WheelZoomFactor = def.WheelZoomFactor
	}
	if cfg.WheelPanFactor <= 0 {
		cfg.WheelPanFactor = def.WheelPanFactor
	}
	if cfg.WheelThreshold <= 0 {
		cfg.WheelThreshold = def.WheelThreshold
	}
	if cfg.WheelIdle <= 0 {
		cfg.WheelIdle = def.WheelIdle
	}
	if cfg.SettleFPS <= 0 {
		cfg.SettleFPS = def.SettleFPS
	}
	if len(cfg.Keys.Next.Keys()) == 0 {
		cfg.Keys = def.Keys
	}
	return cfg
}

// Config returns the effective configuration.
func (in *Interpreter) Config() Config { return in.cfg }

// State returns the current gesture snapshot.
func (in *Interpreter) State() State { return in.state }

// Scale is the current zoom factor.
func (in *Interpreter) Scale() float64 { return in.scale }

// SetExtent changes the viewport height a full pan corresponds to, for
// frontends whose viewport resizes. Non-positive values are ignored.
func (in *Interpreter) SetExtent(v float64) {
	if v > 0 {
		in.cfg.Extent = v
	}
}

// ResetScale returns the zoom factor to 1. Called after every item render.
func (in *Interpreter) ResetScale() { in.scale = 1 }

// Reset abandons any gesture in flight and the zoom factor.
func (in *Interpreter) Reset() {
	in.toIdle()
	in.scale = 1
	in.wheelAcc = 0
	in.wheelActive = false
	in.wheelZoom = false
	in.lastWheel = time.Time{}
}

// Busy reports whether the interpreter needs Ticks to finish what it is
// doing.
func (in *Interpreter) Busy() bool {
	return in.state.Phase == Settling || in.wheelActive || in.wheelZoom
}

// Handle consumes one event and returns the intents it produced, in order.
func (in *Interpreter) Handle(ev Event) []Intent {
	switch e := ev.(type) {
	case PointerDown:
		return in.pointerDown(e)
	case PointerMove:
		return in.pointerMove(e)
	case PointerUp:
		return in.pointerUp(e)
	case Wheel:
		return in.wheel(e)
	case Tick:
		return in.tick(e)
	case Key:
		if k, ok := in.cfg.Keys.match(e); ok {
			return []Intent{intent(k)}
		}
	case Click:
		switch e.Target {
		case TargetNext:
			return []Intent{intent(Next)}
		case TargetFilter:
			return []Intent{intent(ShowFilterView)}
		case TargetBack:
			return []Intent{intent(ShowMainView)}
		}
	}
	return nil
}

func (in *Interpreter) pointerDown(e PointerDown) []Intent {
	switch len(e.Contacts) {
	case 0:
		return nil
	case 1:
		in.startPan(e.Contacts[0], e.At)
	default:
		in.startPinch(e.Contacts[0], e.Contacts[1])
	}
	return nil
}

func (in *Interpreter) startPan(p Point, at time.Time) {
	in.wheelZoom = false
	in.panning = false
	in.state = State{Phase: TrackingPan, Start: p, Current: p, StartTime: at}
}

func (in *Interpreter) startPinch(a, b Point) {
	d := distance(a, b)
	if d <= 0 {
		d = 1
	}
	in.wheelZoom = false
	in.panning = false
	in.state = State{Phase: TrackingPinch, StartDistance: d, StartScale: in.scale}
}

func (in *Interpreter) pointerMove(e PointerMove) []Intent {
	switch in.state.Phase {
	case TrackingPan:
		if len(e.Contacts) == 0 {
			return nil
		}
		in.state.Current = e.Contacts[0]
		dy := in.state.Current.Y - in.state.Start.Y
		if !in.panning && math.Abs(dy) > in.cfg.DeadZone {
			in.panning = true
		}
		if !in.panning {
			return nil
		}
		return []Intent{{Kind: PanProgress, Value: dy / in.cfg.Extent}}
	case TrackingPinch:
		if len(e.Contacts) < 2 || in.state.StartDistance <= 0 {
			return nil
		}
		ratio := distance(e.Contacts[0], e.Contacts[1]) / in.state.StartDistance
		in.scale = in.clampScale(in.state.StartScale * ratio)
		return []Intent{{Kind: ZoomProgress, Value: in.scale}}
	}
	return nil
}

func (in *Interpreter) pointerUp(e PointerUp) []Intent {
	switch in.state.Phase {
	case TrackingPan:
		return in.resolvePan(e.At)
	case TrackingPinch:
		switch len(e.Remaining) {
		case 0:
			in.toIdle()
		case 1:
			// Fresh pan from the remaining finger; nothing carries over.
			in.startPan(e.Remaining[0], e.At)
		default:
			in.startPinch(e.Remaining[0], e.Remaining[1])
		}
	}
	return nil
}

func (in *Interpreter) resolvePan(at time.Time) []Intent {
	if !in.panning {
		in.toIdle()
		return []Intent{intent(CancelGesture)}
	}

	dy := in.state.Current.Y - in.state.Start.Y
	fraction := dy / in.cfg.Extent
	elapsed := float64(at.Sub(in.state.StartTime)) / float64(time.Millisecond)
	if elapsed < 1 {
		elapsed = 1
	}
	velocity := math.Abs(dy) / elapsed

	committed := math.Abs(fraction) > in.cfg.DistanceThreshold || velocity > in.cfg.VelocityThreshold
	var out Intent
	dir := None
	switch {
	case committed && fraction < 0:
		out, dir = intent(Next), Forward
	case committed && fraction > 0:
		out, dir = intent(Previous), Backward
	default:
		out = intent(CancelGesture)
	}
	in.startSettle(dir, fraction)
	return []Intent{out}
}

func (in *Interpreter) startSettle(dir Direction, offset float64) {
	in.panning = false
	in.settleVel = 0
	in.settleSteps = 0
	in.state = State{Phase: Settling, Direction: dir, Progress: offset}
}

func (in *Interpreter) wheel(e Wheel) []Intent {
	if e.Modifier {
		in.scale = in.clampScale(in.scale - e.DeltaY*in.cfg.WheelZoomFactor)
		in.state = State{Phase: TrackingPinch, StartScale: in.scale}
		in.wheelZoom = true
		in.lastWheel = e.At
		return []Intent{{Kind: ZoomProgress, Value: in.scale}}
	}

	switch in.state.Phase {
	case TrackingPinch, TrackingPan:
		return nil
	case Settling:
		in.toIdle()
	}

	if !in.wheelActive || e.At.Sub(in.lastWheel) > in.cfg.WheelIdle {
		in.wheelAcc = 0
	}
	in.wheelAcc = clamp(in.wheelAcc+e.DeltaY*in.cfg.WheelPanFactor, -1, 1)
	in.wheelActive = true
	in.lastWheel = e.At

	out := []Intent{{Kind: PanProgress, Value: in.wheelAcc}}
	if math.Abs(in.wheelAcc) > in.cfg.WheelThreshold {
		if in.wheelAcc < 0 {
			out = append(out, intent(Next))
		} else {
			out = append(out, intent(Previous))
		}
		in.wheelAcc = 0
		in.wheelActive = false
	}
	return out
}

func (in *Interpreter) tick(e Tick) []Intent {
	var out []Intent

	if in.state.Phase == Settling {
		pos, vel := in.spring.Update(in.state.Progress, in.settleVel, 0)
		in.settleSteps++
		if (math.Abs(pos) < settleEpsilon && math.Abs(vel) < settleEpsilon) || in.settleSteps >= maxSettleSteps {
			in.toIdle()
			out = append(out, Intent{Kind: SettleProgress, Value: 0})
		} else {
			in.state.Progress = pos
			in.settleVel = vel
			out = append(out, Intent{Kind: SettleProgress, Value: pos})
		}
	}

	if in.wheelActive && e.At.Sub(in.lastWheel) >= in.cfg.WheelIdle {
		in.wheelActive = false
		if in.wheelAcc != 0 {
			in.wheelAcc = 0
			out = append(out, intent(CancelGesture))
		}
	}

	if in.wheelZoom && e.At.Sub(in.lastWheel) >= in.cfg.WheelIdle {
		in.wheelZoom = false
		if in.state.Phase == TrackingPinch {
			in.toIdle()
		}
	}
	return out
}

func (in *Interpreter) toIdle() {
	in.panning = false
	in.settleVel = 0
	in.settleSteps = 0
	in.state = State{}
}

func (in *Interpreter) clampScale(s float64) float64 {
	return clamp(s, in.cfg.MinScale, in.cfg.MaxScale)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
