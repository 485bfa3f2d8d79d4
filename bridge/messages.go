package bridge

import (
	"time"

	"github.com/gogpu/chartgpu"
	"github.com/gogpu/chartgpu/overlay"
)

// Inbound is a host-to-controller message. The set is closed: only
// types in this package satisfy it.
type Inbound interface{ inbound() }

// Outbound is a controller-to-host message.
type Outbound interface{ outbound() }

// Init creates a chart. It is the only correlated request: the
// controller answers with Ready carrying the same MessageID, or with
// an ErrorMessage when construction fails.
type Init struct {
	ChartID   string
	CSSWidth  float64
	CSSHeight float64
	DPR       float64
	Options   *chartgpu.ResolvedOptions
	MessageID uint64
}

// SetOptions replaces a chart's options tree.
type SetOptions struct {
	ChartID string
	Options *chartgpu.ResolvedOptions
}

// AppendData appends one transferred payload. The bytes move to the
// worker; the sender must not touch them afterwards.
type AppendData struct {
	ChartID     string
	SeriesIndex int
	Payload     []byte
	Count       int
	Stride      int
}

// AppendDataBatch appends several payloads as one update.
type AppendDataBatch struct {
	ChartID string
	Items   []chartgpu.BinaryAppend
}

// Resize updates the CSS size and device-pixel ratio. A resize always
// renders a fresh frame.
type Resize struct {
	ChartID   string
	CSSWidth  float64
	CSSHeight float64
	DPR       float64
}

// ForwardPointerEvent relays a normalized pointer event.
type ForwardPointerEvent struct {
	ChartID string
	Event   chartgpu.PointerEvent
}

// SetZoomRange applies a percent-space zoom window.
type SetZoomRange struct {
	ChartID string
	Start   float64
	End     float64
}

// SetInteractionX moves or clears the crosshair. The controller
// suppresses the chart's synchronous crosshair echo for the same
// source, so linked emitters never hear themselves.
type SetInteractionX struct {
	ChartID string
	X       *float64
	Source  string
}

// SetAnimation toggles animation. Animation config itself travels in
// SetOptions.
type SetAnimation struct {
	ChartID string
	Enabled bool
}

// Dispose tears a chart down. The controller answers with Disposed
// after cleanup; disposing an unknown chart is a no-op.
type Dispose struct {
	ChartID string
}

func (Init) inbound()                {}
func (SetOptions) inbound()          {}
func (AppendData) inbound()          {}
func (AppendDataBatch) inbound()     {}
func (Resize) inbound()              {}
func (ForwardPointerEvent) inbound() {}
func (SetZoomRange) inbound()        {}
func (SetInteractionX) inbound()     {}
func (SetAnimation) inbound()        {}
func (Dispose) inbound()             {}

// Ready answers an Init.
type Ready struct {
	ChartID      string
	MessageID    uint64
	Capabilities chartgpu.Capabilities
}

// Rendered reports a completed frame.
type Rendered struct {
	ChartID   string
	FrameTime time.Duration
}

// TooltipUpdate carries the current tooltip payload; nil hides it.
type TooltipUpdate struct {
	ChartID string
	Payload *overlay.TooltipPayload
}

// LegendUpdate carries the legend items after an options change.
type LegendUpdate struct {
	ChartID string
	Items   []overlay.LegendItem
}

// AxisLabelsUpdate carries the axis label set after a layout change.
type AxisLabelsUpdate struct {
	ChartID string
	Labels  overlay.AxisLabelSet
}

// HoverChange reports the hovered datum; nil clears it.
type HoverChange struct {
	ChartID string
	Hit     *overlay.HitInfo
}

// Click reports a click resolved to a datum.
type Click struct {
	ChartID string
	Hit     overlay.HitInfo
	CSSX    float64
	CSSY    float64
}

// CrosshairMove reports a crosshair change. X is nil when hidden.
type CrosshairMove struct {
	ChartID string
	X       *float64
	CSSX    float64
	Source  string
}

// ZoomChange reports a zoom window change with its source tag.
type ZoomChange struct {
	ChartID string
	Zoom    chartgpu.ZoomRange
	Source  string
}

// DeviceLost reports a terminal device loss.
type DeviceLost struct {
	ChartID string
	Reason  chartgpu.DeviceLostReason
	Message string
}

// Disposed confirms a dispose, carrying any cleanup errors.
type Disposed struct {
	ChartID       string
	CleanupErrors []error
}

// ErrorMessage reports a classified failure. MessageID is non-zero
// when the failure answers a correlated request.
type ErrorMessage struct {
	ChartID   string
	Code      chartgpu.ErrorCode
	Operation string
	Message   string
	MessageID uint64
}

func (Ready) outbound()            {}
func (Rendered) outbound()         {}
func (TooltipUpdate) outbound()    {}
func (LegendUpdate) outbound()     {}
func (AxisLabelsUpdate) outbound() {}
func (HoverChange) outbound()      {}
func (Click) outbound()            {}
func (CrosshairMove) outbound()    {}
func (ZoomChange) outbound()       {}
func (DeviceLost) outbound()       {}
func (Disposed) outbound()         {}
func (ErrorMessage) outbound()     {}
