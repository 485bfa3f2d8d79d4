package overlay

import "testing"

type fakeWidgets struct {
	tooltips []*TooltipPayload
	legends  [][]LegendItem
	labels   []AxisLabelSet
}

func (f *fakeWidgets) UpdateTooltip(p *TooltipPayload)   { f.tooltips = append(f.tooltips, p) }
func (f *fakeWidgets) UpdateLegend(items []LegendItem)   { f.legends = append(f.legends, items) }
func (f *fakeWidgets) UpdateAxisLabels(set AxisLabelSet) { f.labels = append(f.labels, set) }

func TestBrokerEmbeddedRoutesToCallbacks(t *testing.T) {
	b := NewBroker(ModeEmbedded)

	var tooltips []*TooltipPayload
	var legends int
	var labelSets int
	var hovers []*HitInfo
	var clicks []HitInfo
	var crosshairs []float64
	var zooms [][2]float64
	b.SetCallbacks(Callbacks{
		OnTooltip:     func(p *TooltipPayload) { tooltips = append(tooltips, p) },
		OnLegend:      func([]LegendItem) { legends++ },
		OnAxisLabels:  func(AxisLabelSet) { labelSets++ },
		OnHoverChange: func(hit *HitInfo) { hovers = append(hovers, hit) },
		OnClick: func(hit HitInfo, x, y float64) {
			clicks = append(clicks, hit)
		},
		OnCrosshairMove: func(xd, xc float64, visible bool, source string) {
			crosshairs = append(crosshairs, xc)
		},
		OnZoomChange: func(start, end float64, source string) {
			zooms = append(zooms, [2]float64{start, end})
		},
	})

	b.PublishTooltip(&TooltipPayload{Content: "x"})
	b.PublishTooltip(nil)
	b.PublishLegend([]LegendItem{{Name: "a"}})
	b.PublishAxisLabels(AxisLabelSet{})
	b.PublishHover(&HitInfo{SeriesIndex: 2, DataIndex: 7})
	b.PublishHover(nil)
	b.PublishClick(HitInfo{SeriesIndex: 1, DataIndex: 3}, 10, 20)
	b.PublishCrosshair(5, 250, true, "user")
	b.PublishZoom(10, 90, "api")

	if len(tooltips) != 2 || tooltips[0] == nil || tooltips[1] != nil {
		t.Errorf("tooltips = %v, want [payload nil]", tooltips)
	}
	if legends != 1 || labelSets != 1 {
		t.Errorf("legends = %d, labelSets = %d, want 1 each", legends, labelSets)
	}
	if len(hovers) != 2 || hovers[0] == nil || hovers[0].SeriesIndex != 2 || hovers[1] != nil {
		t.Errorf("hovers = %v, want [hit nil]", hovers)
	}
	if len(clicks) != 1 || clicks[0].SeriesIndex != 1 {
		t.Errorf("clicks = %v, want one hit on series 1", clicks)
	}
	if len(crosshairs) != 1 || crosshairs[0] != 250 {
		t.Errorf("crosshairs = %v, want [250]", crosshairs)
	}
	if len(zooms) != 1 || zooms[0] != [2]float64{10, 90} {
		t.Errorf("zooms = %v, want [[10 90]]", zooms)
	}
}

func TestBrokerHostDrivesWidgets(t *testing.T) {
	b := NewBroker(ModeHost)
	w := &fakeWidgets{}
	b.SetHost(w)

	called := false
	b.SetCallbacks(Callbacks{
		OnHoverChange:   func(*HitInfo) { called = true },
		OnCrosshairMove: func(float64, float64, bool, string) { called = true },
		OnZoomChange:    func(float64, float64, string) { called = true },
	})

	b.PublishTooltip(&TooltipPayload{Content: "x"})
	b.PublishTooltip(nil)
	b.PublishLegend([]LegendItem{{Name: "a"}, {Name: "b"}})
	b.PublishAxisLabels(AxisLabelSet{})
	// Interaction events are embedded-only.
	b.PublishHover(&HitInfo{})
	b.PublishCrosshair(1, 2, true, "user")
	b.PublishZoom(0, 50, "user")

	if len(w.tooltips) != 2 || w.tooltips[0] == nil || w.tooltips[0].Content != "x" || w.tooltips[1] != nil {
		t.Errorf("tooltips = %v, want [payload nil]", w.tooltips)
	}
	if len(w.legends) != 1 || len(w.legends[0]) != 2 {
		t.Errorf("legends = %v, want one set of 2", w.legends)
	}
	if len(w.labels) != 1 {
		t.Errorf("labels = %d sets, want 1", len(w.labels))
	}
	if called {
		t.Error("host mode delivered interaction events")
	}
}

func TestBrokerNilSinksAreSafe(t *testing.T) {
	b := NewBroker(ModeHost)
	b.PublishTooltip(nil)
	b.PublishLegend(nil)
	b.PublishAxisLabels(AxisLabelSet{})

	b = NewBroker(ModeEmbedded)
	b.PublishTooltip(&TooltipPayload{})
	b.PublishHover(nil)
	b.PublishClick(HitInfo{}, 0, 0)
	b.PublishCrosshair(0, 0, false, "")
	b.PublishZoom(0, 100, "")
}

func TestBuildTooltip(t *testing.T) {
	params := []TooltipParam{
		{SeriesIndex: 0, SeriesName: "cpu", DataIndex: 4, Value: []float64{1, 2}},
		{SeriesIndex: 1, DataIndex: 4, Value: []float64{3.5}},
	}
	p := BuildTooltip(params, 120, 80)
	want := "cpu: 1, 2\nseries 1: 3.5"
	if p.Content != want {
		t.Errorf("Content = %q, want %q", p.Content, want)
	}
	if p.XCSS != 120 || p.YCSS != 80 {
		t.Errorf("anchor = (%v, %v), want (120, 80)", p.XCSS, p.YCSS)
	}
	if len(p.Params) != 2 {
		t.Errorf("Params = %d, want 2", len(p.Params))
	}
}

func TestModeString(t *testing.T) {
	if ModeEmbedded.String() != "embedded" || ModeHost.String() != "host" {
		t.Errorf("Mode strings = %q, %q", ModeEmbedded.String(), ModeHost.String())
	}
	if Mode(9).String() != "unknown" {
		t.Errorf("Mode(9).String() = %q, want unknown", Mode(9).String())
	}
}
