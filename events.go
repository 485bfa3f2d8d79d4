package chartgpu

import (
	"time"

	"github.com/gogpu/chartgpu/overlay"
)

// PointerKind classifies a normalized pointer event.
type PointerKind int

// Pointer event kinds.
const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerLeave
	PointerWheel
)

// String returns the wire name of the pointer kind.
func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerLeave:
		return "leave"
	case PointerWheel:
		return "wheel"
	default:
		return "unknown"
	}
}

// PointerEvent is the normalized input record the interaction engine
// consumes. Coordinates are CSS pixels relative to the canvas origin.
type PointerEvent struct {
	Kind       PointerKind
	CSSX       float64
	CSSY       float64
	Buttons    int
	Modifiers  int
	WheelDelta float64
	Time       time.Time
}

// Modifier bits for PointerEvent.Modifiers.
const (
	ModShift = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// ZoomRange is the percent-space zoom window, 0 <= Start < End <= 100.
type ZoomRange struct {
	Start float64
	End   float64
}

// Span returns End - Start.
func (z ZoomRange) Span() float64 { return z.End - z.Start }

// Metrics is the scheduler's frame statistics snapshot over the metrics
// window (120 frames at most).
type Metrics struct {
	FrameCount       int
	FPS              float64
	MinFrame         time.Duration
	MaxFrame         time.Duration
	AvgFrame         time.Duration
	P50Frame         time.Duration
	P95Frame         time.Duration
	P99Frame         time.Duration
	AvgGPU           time.Duration
	ConsecutiveDrops int
	TotalDrops       int
	LastDropAt       time.Time
}

// DeviceLostReason says why the device went away.
type DeviceLostReason string

// Device-lost reasons.
const (
	// DeviceLostDestroyed means our own dispose destroyed the device.
	DeviceLostDestroyed DeviceLostReason = "destroyed"
	// DeviceLostUnknown covers every other loss.
	DeviceLostUnknown DeviceLostReason = "unknown"
)

// Capabilities is reported once after init.
type Capabilities struct {
	Backend         string
	AdapterName     string
	AdapterType     string
	MaxTextureSize  uint32
	SupportsCompute bool
}

// ErrorEvent is the classified error surfaced through OnError and the
// bridge's error messages.
type ErrorEvent struct {
	Code      ErrorCode
	Operation string
	Message   string
}

// Callbacks are the chart's outbound edges. Every field is optional; nil
// funcs are skipped. Callbacks fire on the goroutine driving the chart
// (the render loop or the worker controller), so implementations must not
// block.
type Callbacks struct {
	OnRendered      func(frameTime time.Duration)
	OnTooltip       func(p *overlay.TooltipPayload)
	OnLegend        func(items []overlay.LegendItem)
	OnAxisLabels    func(labels overlay.AxisLabelSet)
	OnHover         func(hit *overlay.HitInfo)
	OnClick         func(hit overlay.HitInfo, cssX, cssY float64)
	OnCrosshairMove func(xDomain *float64, cssX float64, source string)
	OnZoomChange    func(z ZoomRange, source string)
	OnDeviceLost    func(reason DeviceLostReason, message string)
	OnError         func(e ErrorEvent)
	OnDisposed      func(cleanupErrors []error)
}

// Source tags carried by crosshair and zoom notifications. A component
// that receives an update tagged with its own source must not re-emit it.
const (
	SourceAPI     = "api"
	SourceUser    = "user"
	SourceAutoScr = "autoscroll"
)
