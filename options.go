package chartgpu

import (
	"fmt"
	"math"

	"github.com/gogpu/chartgpu/overlay"
)

// SeriesType identifies the renderer family for a series.
type SeriesType int

// Series types.
const (
	SeriesLine SeriesType = iota
	SeriesArea
	SeriesBar
	SeriesScatter
	SeriesPie
	SeriesCandlestick
	SeriesHistogram
	SeriesHeatmap
	SeriesScatterDensity
)

// String returns the wire name of the series type.
func (t SeriesType) String() string {
	switch t {
	case SeriesLine:
		return "line"
	case SeriesArea:
		return "area"
	case SeriesBar:
		return "bar"
	case SeriesScatter:
		return "scatter"
	case SeriesPie:
		return "pie"
	case SeriesCandlestick:
		return "candlestick"
	case SeriesHistogram:
		return "histogram"
	case SeriesHeatmap:
		return "heatmap"
	case SeriesScatterDensity:
		return "scatter-density"
	default:
		return fmt.Sprintf("SeriesType(%d)", int(t))
	}
}

// AxisKind selects the scale family of an axis.
type AxisKind int

// Axis kinds.
const (
	AxisValue AxisKind = iota
	AxisTime
	AxisCategory
)

// String returns the wire name of the axis kind.
func (k AxisKind) String() string {
	switch k {
	case AxisValue:
		return "value"
	case AxisTime:
		return "time"
	case AxisCategory:
		return "category"
	default:
		return fmt.Sprintf("AxisKind(%d)", int(k))
	}
}

// BoundsMode controls whether auto bounds derive from all data or only the
// zoom-visible window.
type BoundsMode int

// Bounds modes.
const (
	BoundsGlobal BoundsMode = iota
	BoundsVisible
)

// SamplingKind selects the downsampling strategy applied when a series
// exceeds its sampling threshold.
type SamplingKind int

// Sampling strategies.
const (
	SamplingNone SamplingKind = iota
	SamplingLTTB
	SamplingAverage
	SamplingMax
	SamplingMin
	SamplingOHLC
)

// String returns the wire name of the sampling kind.
func (k SamplingKind) String() string {
	switch k {
	case SamplingNone:
		return "none"
	case SamplingLTTB:
		return "lttb"
	case SamplingAverage:
		return "average"
	case SamplingMax:
		return "max"
	case SamplingMin:
		return "min"
	case SamplingOHLC:
		return "ohlc"
	default:
		return fmt.Sprintf("SamplingKind(%d)", int(k))
	}
}

// SymbolKind selects the scatter point mask.
type SymbolKind int

// Scatter symbols.
const (
	SymbolCircle SymbolKind = iota
	SymbolSquare
	SymbolTriangle
)

// CandleStyle selects candlestick body fill behavior.
type CandleStyle int

// Candlestick styles.
const (
	// CandleClassic fills both rising and falling bodies.
	CandleClassic CandleStyle = iota
	// CandleHollow leaves rising bodies unfilled (rim only).
	CandleHollow
)

// CurveKind is the density normalization curve.
type CurveKind int

// Density curves.
const (
	CurveLinear CurveKind = iota
	CurveSqrt
	CurveLog
)

// LegendPosition places the legend against one grid edge.
type LegendPosition int

// Legend positions.
const (
	LegendTop LegendPosition = iota
	LegendBottom
	LegendLeft
	LegendRight
)

// TooltipTrigger selects what a tooltip follows.
type TooltipTrigger int

// Tooltip triggers.
const (
	// TriggerItem shows a tooltip for the hit item under the pointer.
	TriggerItem TooltipTrigger = iota
	// TriggerAxis shows all series values at the crosshair x.
	TriggerAxis
)

// GridOptions are plot-area insets in CSS pixels.
type GridOptions struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// AxisOptions describe one axis of the grid.
type AxisOptions struct {
	Kind AxisKind

	// Min/Max pin the domain; nil means auto.
	Min *float64
	Max *float64

	// SplitNumber hints the tick count (0 = default).
	SplitNumber int

	// LabelRotation is in degrees, positive clockwise.
	LabelRotation float64

	// AutoBounds picks the window auto bounds derive from.
	AutoBounds BoundsMode

	// Categories supplies the band labels for AxisCategory.
	Categories []string

	// Name is the axis title; empty means none.
	Name string
}

// AreaStyle fills under a line series.
type AreaStyle struct {
	// Color overrides the series color for the fill; empty inherits.
	Color string
	// Opacity multiplies the fill alpha. Zero means the 0.25 default.
	Opacity float64
}

// SeriesOptions is one entry of the resolved series list. Type-specific
// fields are only read for their own series type.
type SeriesOptions struct {
	Type  SeriesType
	Name  string
	Color string

	// Data is the initial point list, one row per point. Row layouts:
	// [x,y] for point series, [t,o,c,l,h] for candlestick (normalized
	// internally), [x,y,value] for heatmap cells.
	Data [][]float64

	// Facet indexes into the facet grid when faceting is configured.
	Facet int

	Sampling          SamplingKind
	SamplingThreshold int

	// Line / area.
	LineWidth float64
	AreaStyle *AreaStyle

	// Bar / histogram.
	Stack        string
	BarWidth     float64 // fraction of the band, (0,1]; 0 means 0.7
	CornerRadius float64 // CSS px

	// Scatter / density.
	Symbol     SymbolKind
	SymbolSize float64 // CSS px; scaled by DPR at prepare

	// Pie.
	PieCenter     [2]float64 // fractions of the grid area; zero value means center
	PieRadius     float64    // CSS px; 0 means 40% of the min grid dimension
	PieStartAngle float64    // degrees, 0 = +x axis, counter-clockwise

	// Candlestick.
	CandleStyle CandleStyle
	UpColor     string
	DownColor   string

	// Heatmap / density colormap. Stops win over Colormap when set.
	Colormap      string
	ColormapStops []ColorStop

	// Density.
	DensityCellSize float64 // CSS px per bin cell; 0 means 4
	DensityCurve    CurveKind
}

// ZoomOptions enable the percent-space data zoom. Presence of the struct
// (non-nil) is what enables zooming.
type ZoomOptions struct {
	Start float64 // percent [0,100]
	End   float64 // percent [0,100], > Start
	// MinSpan/MaxSpan bound End-Start when > 0.
	MinSpan          float64
	MaxSpan          float64
	WheelSensitivity float64 // 0 means 1.0
}

// TooltipOptions configure tooltip computation.
type TooltipOptions struct {
	Trigger TooltipTrigger
}

// LegendOptions configure the legend payloads and layout inset.
type LegendOptions struct {
	Position LegendPosition
}

// AnimationOptions are accepted and carried but drive nothing yet; enabling
// animation only forces a redraw.
type AnimationOptions struct {
	Enabled  bool
	Duration float64 // milliseconds
	Easing   string
}

// FacetOptions tile the inner grid area.
type FacetOptions struct {
	Rows int
	Cols int
	Gap  float64 // CSS px between cells
}

// ResolvedOptions is the fully-defaulted configuration snapshot consumed by
// the coordinator. It is treated as immutable: SetOptions replaces the
// whole tree and the core never writes into it.
type ResolvedOptions struct {
	Grid   GridOptions
	XAxis  AxisOptions
	YAxis  AxisOptions
	Series []SeriesOptions

	// Palette entries are CSS color strings; invalid or missing entries
	// fall back to the built-in cycle.
	Palette []string

	// Theme is "light" or "dark".
	Theme string

	Zoom      *ZoomOptions
	Tooltip   *TooltipOptions
	Legend    *LegendOptions
	Animation *AnimationOptions
	Facet     *FacetOptions

	// AutoScroll keeps a tail-pinned zoom window pinned across appends.
	AutoScroll bool
}

// Validate checks structural invariants the resolver must have produced.
// It returns a *Error with CodeInvalidArgument on the first violation.
func (o *ResolvedOptions) Validate() error {
	if o == nil {
		return NewError(CodeInvalidArgument, "setOptions", "options are nil", nil)
	}
	for i := range o.Series {
		s := &o.Series[i]
		if s.Type < SeriesLine || s.Type > SeriesScatterDensity {
			return NewError(CodeInvalidArgument, "setOptions",
				fmt.Sprintf("series %d: unknown type %d", i, int(s.Type)), nil)
		}
		if s.SamplingThreshold < 0 {
			return NewError(CodeInvalidArgument, "setOptions",
				fmt.Sprintf("series %d: negative sampling threshold", i), nil)
		}
		if o.Facet != nil && (s.Facet < 0 || s.Facet >= o.Facet.Rows*o.Facet.Cols) {
			return NewError(CodeInvalidArgument, "setOptions",
				fmt.Sprintf("series %d: facet %d out of range", i, s.Facet), nil)
		}
	}
	if o.XAxis.Kind == AxisCategory && len(o.XAxis.Categories) == 0 {
		return NewError(CodeInvalidArgument, "setOptions", "x axis: category axis without categories", nil)
	}
	if o.YAxis.Kind == AxisCategory && len(o.YAxis.Categories) == 0 {
		// Heatmap series carry their cell coordinates in data, so an empty
		// category list is tolerable only when every series is a heatmap.
		for _, s := range o.Series {
			if s.Type != SeriesHeatmap {
				return NewError(CodeInvalidArgument, "setOptions", "y axis: category axis without categories", nil)
			}
		}
	}
	if z := o.Zoom; z != nil {
		if math.IsNaN(z.Start) || math.IsNaN(z.End) {
			return NewError(CodeInvalidArgument, "setOptions", "zoom: NaN bounds", nil)
		}
		if z.Start < 0 || z.End > 100 || z.Start >= z.End {
			return NewError(CodeInvalidArgument, "setOptions",
				fmt.Sprintf("zoom: bad range [%g,%g]", z.Start, z.End), nil)
		}
		if z.MinSpan < 0 || z.MaxSpan < 0 || (z.MaxSpan > 0 && z.MinSpan > z.MaxSpan) {
			return NewError(CodeInvalidArgument, "setOptions", "zoom: bad span bounds", nil)
		}
	}
	if f := o.Facet; f != nil && (f.Rows < 1 || f.Cols < 1) {
		return NewError(CodeInvalidArgument, "setOptions", "facet: rows and cols must be >= 1", nil)
	}
	return nil
}

// ResolvedTheme returns the theme struct for the options' theme name.
func (o *ResolvedOptions) ResolvedTheme() Theme {
	return ThemeByName(o.Theme)
}

// ResolvedPalette parses the configured palette, falling back to the
// default cycle when empty or unparseable.
func (o *ResolvedOptions) ResolvedPalette() []RGBA {
	if len(o.Palette) == 0 {
		return DefaultPalette
	}
	out := make([]RGBA, 0, len(o.Palette))
	for _, s := range o.Palette {
		if c, ok := ParseColor(s); ok {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return DefaultPalette
	}
	return out
}

// ===== Chart construction options =====

// PowerPreference biases GPU adapter selection.
type PowerPreference int

// Power preferences.
const (
	PowerDefault PowerPreference = iota
	PowerLow
	PowerHigh
)

// OverlayMode selects how tooltip/legend/axis payloads leave the chart.
type OverlayMode int

// Overlay modes.
const (
	// OverlayEmbedded emits payloads through the Callbacks funcs (and, via
	// the bridge, as outbound events).
	OverlayEmbedded OverlayMode = iota
	// OverlayHost drives a HostWidgets implementation directly.
	OverlayHost
)

// chartConfig holds optional configuration for chart creation.
type chartConfig struct {
	provider    any
	power       PowerPreference
	overlayMode OverlayMode
	widgets     overlay.HostWidgets
	fontData    []byte
	targetFPS   int
	dpr         float64
	widthCSS    float64
	heightCSS   float64
}

// Option configures a Chart during creation.
// Use functional options to customize behavior.
//
// Example:
//
//	// Default: own device, embedded overlays, 600x400 at dpr 1
//	chart, err := chartgpu.New(opts, cb)
//
//	// Shared device and an explicit surface size
//	chart, err := chartgpu.New(opts, cb,
//	    chartgpu.WithDeviceProvider(provider),
//	    chartgpu.WithSize(800, 600, 2))
type Option func(*chartConfig)

// defaultChartConfig returns the default construction config.
func defaultChartConfig() chartConfig {
	return chartConfig{
		power:       PowerDefault,
		overlayMode: OverlayEmbedded,
		targetFPS:   60,
		dpr:         1,
		widthCSS:    600,
		heightCSS:   400,
	}
}

// WithDeviceProvider shares an externally-owned GPU device instead of
// creating one. The provider is typically a DeviceHandle from the host
// and must expose HAL types via HalDevice()/HalQueue() (gpucontext
// providers do). A NullDeviceHandle means "nothing to share" and the
// chart creates its own device. Shared devices are not destroyed on
// dispose.
func WithDeviceProvider(provider any) Option {
	return func(c *chartConfig) { c.provider = provider }
}

// WithPowerPreference biases adapter selection during init.
func WithPowerPreference(p PowerPreference) Option {
	return func(c *chartConfig) { c.power = p }
}

// WithOverlayMode selects Host or Embedded overlay delivery.
func WithOverlayMode(m OverlayMode) Option {
	return func(c *chartConfig) { c.overlayMode = m }
}

// WithHostWidgets registers the widget driver used in OverlayHost mode and
// switches the chart to that mode.
func WithHostWidgets(w overlay.HostWidgets) Option {
	return func(c *chartConfig) {
		c.widgets = w
		c.overlayMode = OverlayHost
	}
}

// WithMeasureFont registers TTF/OTF bytes for axis and legend label
// measurement. Without it, measurement falls back to fixed-cell metrics.
func WithMeasureFont(data []byte) Option {
	return func(c *chartConfig) { c.fontData = data }
}

// WithTargetFPS overrides the 60 Hz frame clock.
func WithTargetFPS(fps int) Option {
	return func(c *chartConfig) {
		if fps > 0 {
			c.targetFPS = fps
		}
	}
}

// WithSize sets the initial CSS size and device-pixel ratio of the surface.
func WithSize(cssW, cssH, dpr float64) Option {
	return func(c *chartConfig) {
		if cssW > 0 {
			c.widthCSS = cssW
		}
		if cssH > 0 {
			c.heightCSS = cssH
		}
		if dpr > 0 {
			c.dpr = dpr
		}
	}
}
