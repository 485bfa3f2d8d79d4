package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/chartgpu"
)

// Scene is the YAML chart description the run command consumes. Every
// field maps onto the engine's resolved options; series may carry fixed
// data rows, a synthetic stream, or both.
type Scene struct {
	Theme      string        `yaml:"theme"`
	Width      float64       `yaml:"width"`
	Height     float64       `yaml:"height"`
	DPR        float64       `yaml:"dpr"`
	XAxis      AxisScene     `yaml:"x_axis"`
	YAxis      AxisScene     `yaml:"y_axis"`
	Tooltip    string        `yaml:"tooltip"`
	Legend     string        `yaml:"legend"`
	Palette    []string      `yaml:"palette"`
	AutoScroll bool          `yaml:"auto_scroll"`
	Zoom       *ZoomScene    `yaml:"zoom"`
	Facet      *FacetScene   `yaml:"facet"`
	Grid       *GridScene    `yaml:"grid"`
	Series     []SeriesScene `yaml:"series"`
}

// AxisScene describes one axis.
type AxisScene struct {
	Kind       string   `yaml:"kind"`
	Name       string   `yaml:"name"`
	Min        *float64 `yaml:"min"`
	Max        *float64 `yaml:"max"`
	Splits     int      `yaml:"splits"`
	Rotation   float64  `yaml:"rotation"`
	AutoBounds string   `yaml:"auto_bounds"`
	Categories []string `yaml:"categories"`
}

// ZoomScene enables the data zoom.
type ZoomScene struct {
	Start   float64 `yaml:"start"`
	End     float64 `yaml:"end"`
	MinSpan float64 `yaml:"min_span"`
	MaxSpan float64 `yaml:"max_span"`
}

// GridScene sets plot insets in CSS pixels.
type GridScene struct {
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
}

// FacetScene tiles the plot.
type FacetScene struct {
	Rows int     `yaml:"rows"`
	Cols int     `yaml:"cols"`
	Gap  float64 `yaml:"gap"`
}

// SeriesScene describes one series.
type SeriesScene struct {
	Type       string       `yaml:"type"`
	Name       string       `yaml:"name"`
	Color      string       `yaml:"color"`
	Width      float64      `yaml:"width"`
	Area       bool         `yaml:"area"`
	Stack      string       `yaml:"stack"`
	BarWidth   float64      `yaml:"bar_width"`
	Symbol     string       `yaml:"symbol"`
	SymbolSize float64      `yaml:"symbol_size"`
	Colormap   string       `yaml:"colormap"`
	UpColor    string       `yaml:"up_color"`
	DownColor  string       `yaml:"down_color"`
	Facet      int          `yaml:"facet"`
	Sampling   string       `yaml:"sampling"`
	Threshold  int          `yaml:"sampling_threshold"`
	Data       [][]float64  `yaml:"data"`
	Samples    []float64    `yaml:"samples"` // raw values binned via histogramBins
	Bins       int          `yaml:"bins"`
	Stream     *StreamScene `yaml:"stream"`
}

// StreamScene configures a synthetic feed for a series.
type StreamScene struct {
	Kind   string  `yaml:"kind"`   // sine, walk, ramp, candles
	Period float64 `yaml:"period"` // points per sine cycle
	Amp    float64 `yaml:"amp"`
	Base   float64 `yaml:"base"`
	Noise  float64 `yaml:"noise"`
	Step   float64 `yaml:"step"` // x increment per point
}

// loadScene reads a scene file, or returns the built-in demo scene when
// path is empty.
func loadScene(path string) (*Scene, error) {
	if path == "" {
		return defaultScene(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var s Scene
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return &s, nil
}

// defaultScene is a two-series streaming dashboard: a sine line with an
// area fill and a random walk, tail-pinned zoom following the stream.
func defaultScene() *Scene {
	return &Scene{
		Theme:      "dark",
		Width:      900,
		Height:     500,
		DPR:        1,
		XAxis:      AxisScene{Name: "t"},
		YAxis:      AxisScene{AutoBounds: "visible"},
		Tooltip:    "axis",
		Legend:     "top",
		AutoScroll: true,
		Zoom:       &ZoomScene{Start: 50, End: 100, MinSpan: 5},
		Series: []SeriesScene{
			{
				Type: "line", Name: "signal", Width: 1.5, Area: true,
				Stream: &StreamScene{Kind: "sine", Period: 240, Amp: 40, Base: 50, Noise: 2},
			},
			{
				Type: "line", Name: "walk",
				Stream: &StreamScene{Kind: "walk", Base: 50, Noise: 1.5},
			},
		},
	}
}

// options maps the scene onto the engine's resolved options tree.
func (s *Scene) options() (*chartgpu.ResolvedOptions, error) {
	opts := &chartgpu.ResolvedOptions{
		Theme:      s.Theme,
		Palette:    s.Palette,
		AutoScroll: s.AutoScroll,
	}
	if s.Grid != nil {
		opts.Grid = chartgpu.GridOptions{Left: s.Grid.Left, Right: s.Grid.Right, Top: s.Grid.Top, Bottom: s.Grid.Bottom}
	}
	var err error
	if opts.XAxis, err = s.XAxis.options("x_axis"); err != nil {
		return nil, err
	}
	if opts.YAxis, err = s.YAxis.options("y_axis"); err != nil {
		return nil, err
	}
	switch s.Tooltip {
	case "", "none":
	case "axis":
		opts.Tooltip = &chartgpu.TooltipOptions{Trigger: chartgpu.TriggerAxis}
	case "item":
		opts.Tooltip = &chartgpu.TooltipOptions{Trigger: chartgpu.TriggerItem}
	default:
		return nil, fmt.Errorf("tooltip: unknown trigger %q (axis, item, none)", s.Tooltip)
	}
	switch s.Legend {
	case "", "none":
	case "top":
		opts.Legend = &chartgpu.LegendOptions{Position: chartgpu.LegendTop}
	case "bottom":
		opts.Legend = &chartgpu.LegendOptions{Position: chartgpu.LegendBottom}
	case "left":
		opts.Legend = &chartgpu.LegendOptions{Position: chartgpu.LegendLeft}
	case "right":
		opts.Legend = &chartgpu.LegendOptions{Position: chartgpu.LegendRight}
	default:
		return nil, fmt.Errorf("legend: unknown position %q (top, bottom, left, right, none)", s.Legend)
	}
	if z := s.Zoom; z != nil {
		opts.Zoom = &chartgpu.ZoomOptions{Start: z.Start, End: z.End, MinSpan: z.MinSpan, MaxSpan: z.MaxSpan}
	}
	if f := s.Facet; f != nil {
		opts.Facet = &chartgpu.FacetOptions{Rows: f.Rows, Cols: f.Cols, Gap: f.Gap}
	}
	for i := range s.Series {
		so, err := s.Series[i].options(i)
		if err != nil {
			return nil, err
		}
		opts.Series = append(opts.Series, so)
	}
	return opts, nil
}

func (a *AxisScene) options(which string) (chartgpu.AxisOptions, error) {
	out := chartgpu.AxisOptions{
		Min:           a.Min,
		Max:           a.Max,
		SplitNumber:   a.Splits,
		LabelRotation: a.Rotation,
		Categories:    a.Categories,
		Name:          a.Name,
	}
	switch a.Kind {
	case "", "value":
		out.Kind = chartgpu.AxisValue
	case "time":
		out.Kind = chartgpu.AxisTime
	case "category":
		out.Kind = chartgpu.AxisCategory
	default:
		return out, fmt.Errorf("%s: unknown kind %q (value, time, category)", which, a.Kind)
	}
	switch a.AutoBounds {
	case "", "global":
		out.AutoBounds = chartgpu.BoundsGlobal
	case "visible":
		out.AutoBounds = chartgpu.BoundsVisible
	default:
		return out, fmt.Errorf("%s: unknown auto_bounds %q (global, visible)", which, a.AutoBounds)
	}
	return out, nil
}

func (ss *SeriesScene) options(idx int) (chartgpu.SeriesOptions, error) {
	out := chartgpu.SeriesOptions{
		Name:              ss.Name,
		Color:             ss.Color,
		Data:              ss.Data,
		Facet:             ss.Facet,
		SamplingThreshold: ss.Threshold,
		LineWidth:         ss.Width,
		Stack:             ss.Stack,
		BarWidth:          ss.BarWidth,
		SymbolSize:        ss.SymbolSize,
		Colormap:          ss.Colormap,
		UpColor:           ss.UpColor,
		DownColor:         ss.DownColor,
	}
	typ, err := parseSeriesType(ss.Type)
	if err != nil {
		return out, fmt.Errorf("series %d: %w", idx, err)
	}
	out.Type = typ
	if len(ss.Samples) > 0 {
		bins := ss.Bins
		if bins <= 0 {
			bins = 10
		}
		out.Data = histogramBins(ss.Samples, bins)
	}
	if ss.Area {
		out.AreaStyle = &chartgpu.AreaStyle{}
	}
	switch ss.Symbol {
	case "", "circle":
		out.Symbol = chartgpu.SymbolCircle
	case "square":
		out.Symbol = chartgpu.SymbolSquare
	case "triangle":
		out.Symbol = chartgpu.SymbolTriangle
	default:
		return out, fmt.Errorf("series %d: unknown symbol %q (circle, square, triangle)", idx, ss.Symbol)
	}
	switch ss.Sampling {
	case "", "none":
		out.Sampling = chartgpu.SamplingNone
	case "lttb":
		out.Sampling = chartgpu.SamplingLTTB
	case "average":
		out.Sampling = chartgpu.SamplingAverage
	case "max":
		out.Sampling = chartgpu.SamplingMax
	case "min":
		out.Sampling = chartgpu.SamplingMin
	case "ohlc":
		out.Sampling = chartgpu.SamplingOHLC
	default:
		return out, fmt.Errorf("series %d: unknown sampling %q (none, lttb, average, max, min, ohlc)", idx, ss.Sampling)
	}
	return out, nil
}

func parseSeriesType(name string) (chartgpu.SeriesType, error) {
	switch name {
	case "", "line":
		return chartgpu.SeriesLine, nil
	case "area":
		return chartgpu.SeriesArea, nil
	case "bar":
		return chartgpu.SeriesBar, nil
	case "scatter":
		return chartgpu.SeriesScatter, nil
	case "pie":
		return chartgpu.SeriesPie, nil
	case "candlestick":
		return chartgpu.SeriesCandlestick, nil
	case "histogram":
		return chartgpu.SeriesHistogram, nil
	case "heatmap":
		return chartgpu.SeriesHeatmap, nil
	case "scatter-density":
		return chartgpu.SeriesScatterDensity, nil
	default:
		return 0, fmt.Errorf("unknown series type %q", name)
	}
}
