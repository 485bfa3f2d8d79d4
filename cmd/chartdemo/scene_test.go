package main

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/chartgpu"
)

func TestDefaultSceneResolves(t *testing.T) {
	s, err := loadScene("")
	if err != nil {
		t.Fatalf("loadScene: %v", err)
	}
	opts, err := s.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(opts.Series) != 2 {
		t.Fatalf("len(Series) = %d, want 2", len(opts.Series))
	}
	if opts.Zoom == nil || !opts.AutoScroll {
		t.Error("default scene should carry an auto-scrolling zoom window")
	}
	if opts.Tooltip == nil || opts.Tooltip.Trigger != chartgpu.TriggerAxis {
		t.Errorf("Tooltip = %+v, want axis trigger", opts.Tooltip)
	}
	if s.Series[0].Stream == nil || s.Series[1].Stream == nil {
		t.Error("default scene series should both stream")
	}
}

func TestSceneYAMLMapping(t *testing.T) {
	const doc = `
theme: light
width: 800
height: 600
x_axis:
  kind: time
  name: when
y_axis:
  auto_bounds: visible
  min: -5
tooltip: item
legend: right
zoom: {start: 10, end: 90, min_span: 2}
series:
  - type: candlestick
    name: ohlc
    up_color: "#26a69a"
    down_color: "#ef5350"
  - type: scatter
    name: dots
    symbol: triangle
    symbol_size: 8
    sampling: lttb
    sampling_threshold: 2000
`
	var s Scene
	if err := yaml.Unmarshal([]byte(doc), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	opts, err := s.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.XAxis.Kind != chartgpu.AxisTime || opts.XAxis.Name != "when" {
		t.Errorf("XAxis = %+v, want time axis named \"when\"", opts.XAxis)
	}
	if opts.YAxis.AutoBounds != chartgpu.BoundsVisible {
		t.Errorf("YAxis.AutoBounds = %v, want BoundsVisible", opts.YAxis.AutoBounds)
	}
	if opts.YAxis.Min == nil || *opts.YAxis.Min != -5 {
		t.Errorf("YAxis.Min = %v, want -5", opts.YAxis.Min)
	}
	if opts.Tooltip == nil || opts.Tooltip.Trigger != chartgpu.TriggerItem {
		t.Errorf("Tooltip = %+v, want item trigger", opts.Tooltip)
	}
	if opts.Legend == nil || opts.Legend.Position != chartgpu.LegendRight {
		t.Errorf("Legend = %+v, want right", opts.Legend)
	}
	if opts.Zoom == nil || opts.Zoom.Start != 10 || opts.Zoom.End != 90 || opts.Zoom.MinSpan != 2 {
		t.Errorf("Zoom = %+v, want start 10 end 90 min span 2", opts.Zoom)
	}
	if opts.Series[0].Type != chartgpu.SeriesCandlestick || opts.Series[0].UpColor != "#26a69a" {
		t.Errorf("series 0 = %+v, want candlestick with up color", opts.Series[0])
	}
	if opts.Series[1].Symbol != chartgpu.SymbolTriangle || opts.Series[1].Sampling != chartgpu.SamplingLTTB {
		t.Errorf("series 1 = %+v, want triangle symbols with lttb sampling", opts.Series[1])
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestSceneRejectsUnknownNames(t *testing.T) {
	cases := []struct {
		name string
		s    Scene
		want string
	}{
		{"tooltip", Scene{Tooltip: "hover"}, "tooltip"},
		{"legend", Scene{Legend: "middle"}, "legend"},
		{"axis kind", Scene{XAxis: AxisScene{Kind: "log"}}, "x_axis"},
		{"series type", Scene{Series: []SeriesScene{{Type: "spline"}}}, "series 0"},
		{"sampling", Scene{Series: []SeriesScene{{Sampling: "median"}}}, "sampling"},
	}
	for _, tc := range cases {
		_, err := tc.s.options()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: err = %v, want mention of %q", tc.name, err, tc.want)
		}
	}
}

func TestSceneHistogramSamples(t *testing.T) {
	s := Scene{Series: []SeriesScene{{
		Type:    "histogram",
		Samples: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		Bins:    5,
	}}}
	opts, err := s.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	rows := opts.Series[0].Data
	if len(rows) != 5 {
		t.Fatalf("len(Data) = %d, want 5 bins", len(rows))
	}
	for i, row := range rows {
		if row[1] != 2 {
			t.Errorf("bin %d count = %g, want 2", i, row[1])
		}
	}
	if rows[0][0] >= rows[4][0] {
		t.Errorf("bin centers not increasing: %g .. %g", rows[0][0], rows[4][0])
	}
}
