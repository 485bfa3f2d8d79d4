// Package interact turns normalized pointer events into chart
// interaction state: a crosshair position in domain coordinates, a
// percent-space zoom window, and the hover/click/pan/wheel gesture
// machine. The Engine is the sole writer of that state; consumers
// observe changes through its callbacks. Every state change carries a
// source tag so linked consumers can skip events they caused
// themselves.
package interact

import (
	"time"

	"github.com/gogpu/chartgpu/internal/scale"
)

// Gesture thresholds.
const (
	// clickTimeout is the longest press that still counts as a click.
	clickTimeout = 250 * time.Millisecond
	// dragSlop is the pointer travel in CSS pixels that turns a press
	// into a pan.
	dragSlop = 4.0
)

// Phase is the pointer state machine's current state.
type Phase int

// Pointer phases.
const (
	PhaseIdle Phase = iota
	PhaseHovering
	PhasePressing
	PhasePanning
	PhaseWheeling
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseHovering:
		return "hovering"
	case PhasePressing:
		return "pressing"
	case PhasePanning:
		return "panning"
	case PhaseWheeling:
		return "wheeling"
	default:
		return "unknown"
	}
}

// Engine consumes pointer events and owns the interaction state.
// Callbacks fire synchronously from the event methods; nil callbacks
// are skipped. The engine is not safe for concurrent use; the chart
// coordinator drives it from a single goroutine.
type Engine struct {
	// Source tags every state change the engine itself produces.
	Source string

	// DomainX converts a CSS x coordinate inside the grid to a domain
	// coordinate. Leaving it nil disables the crosshair.
	DomainX func(cssX float64) float64

	// OnCrosshair fires when the crosshair moves or clears. It is
	// coalesced: repeated events at the same position stay silent.
	OnCrosshair func(x float64, visible bool, source string)
	// OnHover fires on every hover move so the coordinator can rerun
	// hit testing.
	OnHover func(cssX, cssY float64)
	// OnClick fires when a press releases within clickTimeout and
	// dragSlop.
	OnClick func(cssX, cssY float64)
	// OnZoom fires when wheel or pan changes the window.
	OnZoom func(w Window, source string)
	// OnLeave fires when the pointer stops hovering, after the
	// crosshair has cleared.
	OnLeave func()

	phase Phase
	grid  scale.Rect

	zoomEnabled bool
	limits      Limits
	sensitivity float64
	zoom        Window
	zoomSource  string

	crossX      float64
	crossOn     bool
	crossSource string

	pressX  float64
	pressY  float64
	pressAt time.Time
	panZoom Window

	wheelAnchor float64
}

// NewEngine returns an idle engine whose own state changes carry the
// given source tag.
func NewEngine(source string) *Engine {
	return &Engine{Source: source, zoom: Full()}
}

// SetGrid updates the plot rectangle pointer events are tested against.
func (e *Engine) SetGrid(r scale.Rect) { e.grid = r }

// ConfigureZoom enables or disables the zoom gestures. Disabling resets
// the window to Full; enabling clamps the current window to the new
// limits.
func (e *Engine) ConfigureZoom(enabled bool, lim Limits, wheelSensitivity float64) {
	e.zoomEnabled = enabled
	e.limits = lim
	e.sensitivity = wheelSensitivity
	if !enabled {
		e.zoom = Full()
		return
	}
	e.zoom = Clamp(e.zoom, lim)
}

// Phase returns the current state machine phase.
func (e *Engine) Phase() Phase { return e.phase }

// Zoom returns the current window.
func (e *Engine) Zoom() Window { return e.zoom }

// ZoomEnabled reports whether zoom gestures are active.
func (e *Engine) ZoomEnabled() bool { return e.zoomEnabled }

// ZoomSource returns the tag of the window's last writer.
func (e *Engine) ZoomSource() string { return e.zoomSource }

// Crosshair returns the crosshair domain x and whether it is visible.
func (e *Engine) Crosshair() (float64, bool) { return e.crossX, e.crossOn }

// CrosshairSource returns the tag of the crosshair's last writer.
func (e *Engine) CrosshairSource() string { return e.crossSource }

// WheelAnchor returns the percent-space anchor of the last wheel zoom.
func (e *Engine) WheelAnchor() float64 { return e.wheelAnchor }

// SetZoom applies an externally driven window change, clamped to the
// configured limits. It returns the stored window and whether it
// changed; unchanged writes are dropped so callers can skip publishing
// them. A no-op while zoom is disabled.
func (e *Engine) SetZoom(w Window, source string) (Window, bool) {
	if !e.zoomEnabled {
		return e.zoom, false
	}
	next := Clamp(w, e.limits)
	if next == e.zoom {
		return e.zoom, false
	}
	e.zoom = next
	e.zoomSource = source
	return next, true
}

// SetCrosshair drives the crosshair from outside the pointer stream.
// visible=false clears it. Returns whether the stored state changed.
func (e *Engine) SetCrosshair(x float64, visible bool, source string) bool {
	if visible == e.crossOn && (!visible || x == e.crossX) {
		return false
	}
	e.crossX = x
	e.crossOn = visible
	e.crossSource = source
	return true
}

// Down begins a press. Presses outside the grid are ignored.
func (e *Engine) Down(x, y float64, at time.Time) {
	if !e.grid.Contains(x, y) {
		return
	}
	switch e.phase {
	case PhaseIdle, PhaseHovering, PhaseWheeling:
		e.phase = PhasePressing
		e.pressX = x
		e.pressY = y
		e.pressAt = at
		e.panZoom = e.zoom
	}
}

// Move advances hover, press, or pan state.
func (e *Engine) Move(x, y float64, at time.Time) {
	_ = at
	switch e.phase {
	case PhaseIdle, PhaseHovering, PhaseWheeling:
		if !e.grid.Contains(x, y) {
			e.exitHover()
			return
		}
		e.phase = PhaseHovering
		e.hover(x, y)
	case PhasePressing:
		dx := x - e.pressX
		dy := y - e.pressY
		if dx*dx+dy*dy >= dragSlop*dragSlop {
			e.phase = PhasePanning
			e.pan(x)
		}
	case PhasePanning:
		e.pan(x)
	}
}

// Up ends a press or pan. A press that releases within clickTimeout and
// dragSlop emits a click.
func (e *Engine) Up(x, y float64, at time.Time) {
	switch e.phase {
	case PhasePressing:
		dx := x - e.pressX
		dy := y - e.pressY
		if at.Sub(e.pressAt) < clickTimeout && dx*dx+dy*dy < dragSlop*dragSlop {
			if e.OnClick != nil {
				e.OnClick(x, y)
			}
		}
		e.settle(x, y)
	case PhasePanning:
		e.settle(x, y)
	}
}

// Leave handles the pointer leaving the canvas: the crosshair clears,
// OnLeave fires, and the machine returns to idle.
func (e *Engine) Leave() {
	e.exitHover()
}

// Wheel zooms about the domain position under the cursor and emits at
// most one zoom change. Ignored outside the grid, while zoom is
// disabled, or mid-press.
func (e *Engine) Wheel(x, y, delta float64) {
	if !e.grid.Contains(x, y) || !e.zoomEnabled || e.grid.W <= 0 {
		return
	}
	switch e.phase {
	case PhaseIdle, PhaseHovering, PhaseWheeling:
	default:
		return
	}
	e.phase = PhaseWheeling
	anchor := e.zoom.Start + (x-e.grid.X)/e.grid.W*e.zoom.Span()
	e.wheelAnchor = anchor
	next := ZoomAbout(e.zoom, anchor, WheelFactor(delta, e.sensitivity), e.limits)
	if next == e.zoom {
		return
	}
	e.zoom = next
	e.zoomSource = e.Source
	if e.OnZoom != nil {
		e.OnZoom(next, e.Source)
	}
}

// hover refreshes the crosshair from the pointer position and notifies
// the hover callback. Pointer-driven writes retake crosshair ownership
// from any earlier external writer.
func (e *Engine) hover(x, y float64) {
	if e.DomainX != nil {
		dx := e.DomainX(x)
		if !e.crossOn || e.crossX != dx || e.crossSource != e.Source {
			e.crossX = dx
			e.crossOn = true
			e.crossSource = e.Source
			if e.OnCrosshair != nil {
				e.OnCrosshair(dx, true, e.Source)
			}
		}
	}
	if e.OnHover != nil {
		e.OnHover(x, y)
	}
}

// settle returns to hovering after a press or pan, or to idle when the
// release landed outside the grid.
func (e *Engine) settle(x, y float64) {
	if e.grid.Contains(x, y) {
		e.phase = PhaseHovering
		e.hover(x, y)
		return
	}
	e.exitHover()
}

func (e *Engine) exitHover() {
	if e.phase == PhaseIdle {
		return
	}
	e.phase = PhaseIdle
	e.clearCrosshair()
	if e.OnLeave != nil {
		e.OnLeave()
	}
}

func (e *Engine) clearCrosshair() {
	if !e.crossOn {
		return
	}
	e.crossOn = false
	e.crossSource = e.Source
	if e.OnCrosshair != nil {
		e.OnCrosshair(0, false, e.Source)
	}
}

// pan translates the window grabbed at press time by the pointer's
// horizontal travel, expressed as a fraction of the grid width.
func (e *Engine) pan(x float64) {
	if !e.zoomEnabled || e.grid.W <= 0 {
		return
	}
	delta := (e.pressX - x) / e.grid.W * e.panZoom.Span()
	next := Translate(e.panZoom, delta, e.limits)
	if next == e.zoom {
		return
	}
	e.zoom = next
	e.zoomSource = e.Source
	if e.OnZoom != nil {
		e.OnZoom(next, e.Source)
	}
}
