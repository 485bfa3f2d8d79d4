package overlay

// TooltipParam is one series' contribution to a tooltip.
type TooltipParam struct {
	SeriesIndex int
	SeriesName  string
	DataIndex   int
	Value       []float64
	ColorCSS    string
}

// TooltipPayload is the computed tooltip state. Content is plain text,
// one line per param; hosts that render richer markup can rebuild it
// from Params.
type TooltipPayload struct {
	Content string
	Params  []TooltipParam
	XCSS    float64
	YCSS    float64
}

// LegendItem describes one legend entry.
type LegendItem struct {
	Name        string
	ColorCSS    string
	SeriesIndex int
}

// AxisLabel is a single positioned axis label. XCSS/YCSS anchor the
// text: x-axis labels hang top-center below the anchor, y-axis labels
// sit middle-right of it. RotationDeg rotates about the anchor,
// positive clockwise.
type AxisLabel struct {
	Text        string
	XCSS        float64
	YCSS        float64
	RotationDeg float64
	IsTitle     bool
}

// AxisLabelSet carries both axes' labels for one layout pass.
type AxisLabelSet struct {
	XLabels []AxisLabel
	YLabels []AxisLabel
}

// HitInfo identifies the datum behind a hover or click event.
type HitInfo struct {
	SeriesIndex int
	DataIndex   int
	// X, Y are the datum in domain coordinates (pie: value and
	// fraction).
	X float64
	Y float64
	// DistancePx is the screen-space distance for nearest-point hits;
	// zero for containment hits (pie wedge, candle body).
	DistancePx float64
}

// Mode selects how payloads leave the broker.
type Mode int

// Broker modes.
const (
	// ModeEmbedded invokes the registered Callbacks.
	ModeEmbedded Mode = iota
	// ModeHost drives a HostWidgets implementation directly.
	ModeHost
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeEmbedded:
		return "embedded"
	case ModeHost:
		return "host"
	default:
		return "unknown"
	}
}

// HostWidgets is implemented by hosts that render overlays themselves.
// The broker calls it synchronously from the chart's goroutine.
type HostWidgets interface {
	// UpdateTooltip shows or moves the tooltip; nil hides it.
	UpdateTooltip(p *TooltipPayload)
	// UpdateLegend replaces the legend entries.
	UpdateLegend(items []LegendItem)
	// UpdateAxisLabels replaces both axes' label sets.
	UpdateAxisLabels(set AxisLabelSet)
}

// Callbacks receive payloads and interaction events in embedded mode.
// Nil fields are skipped.
type Callbacks struct {
	// OnTooltip receives the tooltip state; nil hides it.
	OnTooltip func(p *TooltipPayload)
	// OnLegend receives the legend whenever the series set changes.
	OnLegend func(items []LegendItem)
	// OnAxisLabels receives repositioned labels after a layout pass.
	OnAxisLabels func(set AxisLabelSet)

	// OnHoverChange reports the hovered datum; nil means the pointer
	// left all hit targets.
	OnHoverChange func(hit *HitInfo)
	// OnClick reports a click on a datum.
	OnClick func(hit HitInfo, xCSS, yCSS float64)
	// OnCrosshairMove reports crosshair motion in domain and CSS x.
	OnCrosshairMove func(xDomain, xCSS float64, visible bool, source string)
	// OnZoomChange reports percent-window changes with their source tag.
	OnZoomChange func(start, end float64, source string)
}
