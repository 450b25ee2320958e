package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/gesture"
	"github.com/CrestNiraj12/commonswipe/infra/logging"
	"github.com/CrestNiraj12/commonswipe/nav"
	"github.com/CrestNiraj12/commonswipe/tui/common"
	"github.com/CrestNiraj12/commonswipe/tui/picker"
	"github.com/CrestNiraj12/commonswipe/tui/viewer"
)

// maxPending bounds navigation intents queued behind a running one or
// behind a category load.
const maxPending = 4

// Controller runs navigation. Implemented by nav.Controller.
type Controller interface {
	Handle(ctx context.Context, in gesture.Intent) error
	Start(ctx context.Context) error
	SelectCategory(ctx context.Context, c domain.Category) error
}

// Preferences is what the views read and edit. Implemented by prefs.Store.
type Preferences interface {
	picker.Prefs
	Selected() domain.Category
}

// Deps holds all dependencies the TUI needs. Plain struct, not a DI container.
type Deps struct {
	Ctx        context.Context
	Controller Controller
	Surface    *Surface
	Gestures   *gesture.Interpreter
	Prefs      Preferences
	Editor     picker.Editor // Optional
	Images     viewer.Images
	Logger     *log.Logger
}

type frameMsg time.Time

// actionDoneMsg reports a controller call that ran off the event loop.
type actionDoneMsg struct {
	Action string
	Queued bool // A navigation intent
	Load   bool // A category load (start, select or refresh)
	Err    error
}

type pointerState struct {
	down   bool
	pinch  bool
	start  gesture.Point
	anchor gesture.Point
}

// App is the root Bubble Tea model. It routes between sub-views and owns
// the gesture interpreter.
type App struct {
	deps     Deps
	ctx      context.Context
	active   domain.View
	viewer   viewer.Model
	picker   picker.Model
	gestures *gesture.Interpreter
	keys     common.KeyMap
	help     help.Model
	showHelp bool
	status   string // Transient status message
	failed   bool   // Whether status is an error
	log      *log.Logger

	width, height int
	ticking       bool
	pointer       pointerState

	navBusy bool
	loads   int // Category loads in flight
	pending []gesture.Intent
}

// GestureConfig tunes the recognizer for terminal cells: one row of drag
// is one unit, and a wheel notch is one unit of delta.
func GestureConfig() gesture.Config {
	cfg := gesture.DefaultConfig()
	cfg.DeadZone = 1
	cfg.Extent = 20
	cfg.VelocityThreshold = 0.02
	cfg.WheelPanFactor = 0.2
	cfg.WheelZoomFactor = 0.1
	return cfg
}

// NewApp creates the root model with all dependencies wired.
func NewApp(deps Deps) App {
	ctx := deps.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	gestures := deps.Gestures
	if gestures == nil {
		gestures = gesture.New(GestureConfig())
	}
	a := App{
		deps:     deps,
		ctx:      ctx,
		active:   domain.ViewMain,
		viewer:   viewer.New(ctx, deps.Images, deps.Prefs.Catalog()),
		picker:   picker.New(deps.Prefs, deps.Editor),
		gestures: gestures,
		keys:     common.DefaultKeyMap(),
		help:     help.New(),
		log:      logging.OrDiscard(deps.Logger).WithPrefix("tui"),
		width:    80,
		height:   24,
		loads:    1, // Init always starts one
	}
	a.viewer.SetCategory(deps.Prefs.Selected())
	a.resize()
	return a
}

// Init starts listening to the surface and loads the persisted category.
func (a App) Init() tea.Cmd {
	ctrl := a.deps.Controller
	return tea.Batch(
		a.deps.Surface.Listen(),
		a.viewer.Init(),
		a.run(actionDoneMsg{Action: "start", Load: true}, ctrl.Start),
	)
}

// Update handles messages and routes to the active sub-model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.resize()
		return a, nil

	case surfaceMsg:
		cmd := a.applySurface(msg.msg)
		return a, tea.Batch(cmd, a.deps.Surface.Listen())

	case actionDoneMsg:
		cmd := a.finish(msg)
		return a, cmd

	case frameMsg:
		intents := a.gestures.Handle(gesture.Tick{At: time.Time(msg)})
		a.ticking = false
		cmd := a.dispatch(intents)
		return a, cmd

	case tea.KeyMsg:
		return a.updateKey(msg)

	case tea.MouseMsg:
		if a.active != domain.ViewMain {
			return a, nil
		}
		cmd := a.dispatch(a.mouseIntents(msg))
		return a, cmd

	case picker.SelectedMsg:
		a.status = ""
		a.loads++
		ctrl, cat := a.deps.Controller, msg.Category
		cmd := a.run(actionDoneMsg{Action: "select category", Load: true}, func(ctx context.Context) error {
			return ctrl.SelectCategory(ctx, cat)
		})
		return a, cmd

	case picker.BackMsg:
		cmd := a.dispatch([]gesture.Intent{{Kind: gesture.ShowMainView}})
		return a, cmd
	}

	// Spinner ticks and image loads always reach the viewer; the picker
	// only runs while visible.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.viewer, cmd = a.viewer.Update(msg)
	cmds = append(cmds, cmd)
	if a.active == domain.ViewCategoryPicker {
		a.picker, cmd = a.picker.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.ForceQuit) {
		return a, tea.Quit
	}

	if a.active == domain.ViewCategoryPicker {
		if !a.picker.Adding() && key.Matches(msg, a.keys.ToggleHints) {
			a.toggleHelp()
			return a, nil
		}
		var cmd tea.Cmd
		a.picker, cmd = a.picker.Update(msg)
		return a, cmd
	}

	if key.Matches(msg, a.keys.ToggleHints) {
		a.toggleHelp()
		return a, nil
	}
	a.status = ""

	// Zoom from the keyboard for terminals that do not report ctrl+wheel.
	var intents []gesture.Intent
	switch msg.String() {
	case "+", "=":
		intents = a.gestures.Handle(gesture.Wheel{DeltaY: -1, Modifier: true, At: time.Now()})
	case "-":
		intents = a.gestures.Handle(gesture.Wheel{DeltaY: 1, Modifier: true, At: time.Now()})
	default:
		intents = a.gestures.Handle(gesture.Key{Name: msg.String()})
	}
	cmd := a.dispatch(intents)
	return a, cmd
}

// mouseIntents turns terminal mouse events into pointer gestures. A drag
// with alt held pinches around the card center.
func (a *App) mouseIntents(msg tea.MouseMsg) []gesture.Intent {
	now := time.Now()
	p := gesture.Point{X: float64(msg.X), Y: float64(msg.Y)}

	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		if msg.Action != tea.MouseActionPress {
			return nil
		}
		// Wheel down reads like a swipe up; with ctrl, wheel up zooms in.
		delta := 1.0
		if msg.Button == tea.MouseButtonWheelDown {
			delta = -1
		}
		if msg.Ctrl {
			delta = -delta
		}
		return a.gestures.Handle(gesture.Wheel{DeltaY: delta, Modifier: msg.Ctrl, At: now})

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		a.pointer = pointerState{down: true, start: p}
		if msg.Alt {
			a.pointer.pinch = true
			a.pointer.anchor = a.cardCenter()
			return a.gestures.Handle(gesture.PointerDown{Contacts: []gesture.Point{a.pointer.anchor, p}, At: now})
		}
		return a.gestures.Handle(gesture.PointerDown{Contacts: []gesture.Point{p}, At: now})

	case msg.Action == tea.MouseActionMotion && a.pointer.down:
		contacts := []gesture.Point{p}
		if a.pointer.pinch {
			contacts = []gesture.Point{a.pointer.anchor, p}
		}
		return a.gestures.Handle(gesture.PointerMove{Contacts: contacts, At: now})

	case msg.Action == tea.MouseActionRelease && a.pointer.down:
		ptr := a.pointer
		a.pointer = pointerState{}
		out := a.gestures.Handle(gesture.PointerUp{At: now})
		if !ptr.pinch && ptr.start == p {
			if target := a.viewer.HitTest(msg.X, msg.Y); target != gesture.TargetNone {
				out = append(out, a.gestures.Handle(gesture.Click{Target: target})...)
			}
		}
		return out
	}
	return nil
}

func (a App) cardCenter() gesture.Point {
	// The card starts below the one-line header.
	return gesture.Point{X: float64(a.width) / 2, Y: 1 + float64(a.viewer.CardRows())/2}
}

// dispatch hands intents to the controller. Feedback runs inline; anything
// that can block runs in a command. Navigation runs one at a time and waits
// for category loads so renders land in cursor order.
func (a *App) dispatch(intents []gesture.Intent) tea.Cmd {
	var cmds []tea.Cmd
	for _, in := range intents {
		switch {
		case in.Kind == gesture.Quit:
			return tea.Quit
		case nav.IsFeedback(in.Kind):
			if err := a.deps.Controller.Handle(a.ctx, in); err != nil {
				a.log.Warn("handling feedback", "intent", in.Kind, "err", err)
			}
		case in.Kind == gesture.Refresh:
			a.loads++
			cmds = append(cmds, a.runIntent(in, actionDoneMsg{Load: true}))
		default:
			if a.navBusy || a.loads > 0 {
				if len(a.pending) < maxPending {
					a.pending = append(a.pending, in)
				}
				continue
			}
			a.navBusy = true
			cmds = append(cmds, a.runIntent(in, actionDoneMsg{Queued: true}))
		}
	}
	if a.gestures.Busy() && !a.ticking {
		a.ticking = true
		cmds = append(cmds, a.frame())
	}
	return tea.Batch(cmds...)
}

func (a App) frame() tea.Cmd {
	fps := max(a.gestures.Config().SettleFPS, 1)
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (a App) runIntent(in gesture.Intent, done actionDoneMsg) tea.Cmd {
	ctrl := a.deps.Controller
	done.Action = in.Kind.String()
	return a.run(done, func(ctx context.Context) error {
		return ctrl.Handle(ctx, in)
	})
}

// run calls fn off the event loop and reports back with done, its Err set.
func (a App) run(done actionDoneMsg, fn func(context.Context) error) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		done.Err = fn(ctx)
		return done
	}
}

func (a *App) finish(msg actionDoneMsg) tea.Cmd {
	if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
		a.log.Warn("action failed", "action", msg.Action, "err", msg.Err)
		// Fetch failures already show a placeholder card.
		if !errors.Is(msg.Err, domain.ErrFetch) && !errors.Is(msg.Err, domain.ErrNoContent) {
			a.status = "Error: " + msg.Err.Error()
			a.failed = true
		}
	}
	switch {
	case msg.Queued:
		a.navBusy = false
	case msg.Load:
		a.loads = max(a.loads-1, 0)
	default:
		return nil
	}
	return a.startPending()
}

// startPending runs the oldest queued navigation intent once nothing else
// is in flight.
func (a *App) startPending() tea.Cmd {
	if a.navBusy || a.loads > 0 || len(a.pending) == 0 {
		return nil
	}
	next := a.pending[0]
	a.pending = a.pending[1:]
	a.navBusy = true
	return a.runIntent(next, actionDoneMsg{Queued: true})
}

func (a *App) applySurface(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case viewMsg:
		if msg.View == a.active {
			return nil
		}
		a.active = msg.View
		a.pointer = pointerState{}
		a.gestures.Reset()
		if msg.View == domain.ViewCategoryPicker {
			a.picker.Open(a.deps.Prefs.Selected())
		}
		return nil
	case resetScaleMsg:
		a.gestures.ResetScale()
		return nil
	case resetGesturesMsg:
		a.gestures.Reset()
		return nil
	case viewer.ItemMsg, viewer.EmptyMsg:
		a.viewer.SetCategory(a.deps.Prefs.Selected())
	}
	var cmd tea.Cmd
	a.viewer, cmd = a.viewer.Update(msg)
	return cmd
}

func (a *App) toggleHelp() {
	a.showHelp = !a.showHelp
	a.resize()
}

func (a *App) footerRows() int {
	// Help line plus the status line.
	if a.showHelp {
		return 5
	}
	return 2
}

func (a *App) resize() {
	h := max(a.height-a.footerRows(), 1)
	a.viewer.SetSize(a.width, h)
	a.picker.SetSize(a.width, h)
	a.help.Width = a.width
	a.gestures.SetExtent(float64(a.viewer.CardRows()))
}

// View renders the active sub-model.
func (a App) View() string {
	var s string
	var keys help.KeyMap = a.gestures.Config().Keys

	switch a.active {
	case domain.ViewMain:
		s = a.viewer.View()
	case domain.ViewCategoryPicker:
		s = a.picker.View()
		keys = a.keys
	}

	h := a.help
	h.ShowAll = a.showHelp
	s += "\n" + h.View(keys)

	// Append transient status if present.
	switch {
	case a.status == "":
		s += "\n"
	case a.failed:
		s += "\n" + common.ErrorStyle.Render(common.TruncateLine(a.status, a.width))
	default:
		s += "\n" + common.StatusBarStyle.Render(common.TruncateLine(a.status, a.width))
	}
	return s
}

