package overlay

import (
	"strings"
	"testing"

	"github.com/gogpu/chartgpu/internal/scale"
)

var labelPlot = scale.Rect{X: 60, Y: 40, W: 400, H: 300}

func TestBuildAxisLabelsPositions(t *testing.T) {
	x := []AxisTick{{CSS: 60, Text: "0"}, {CSS: 260, Text: "50"}, {CSS: 460, Text: "100"}}
	y := []AxisTick{{CSS: 340, Text: "0"}, {CSS: 190, Text: "5"}, {CSS: 40, Text: "10"}}

	set := BuildAxisLabels(x, y, labelPlot, NewMeasurer(), LabelStyle{}, "", "")
	if len(set.XLabels) != 3 || len(set.YLabels) != 3 {
		t.Fatalf("labels = %d x, %d y, want 3 and 3", len(set.XLabels), len(set.YLabels))
	}
	for i, l := range set.XLabels {
		if l.XCSS != x[i].CSS {
			t.Errorf("x label %d XCSS = %v, want %v", i, l.XCSS, x[i].CSS)
		}
		if l.YCSS != labelPlot.MaxY()+labelPad {
			t.Errorf("x label %d YCSS = %v, want %v", i, l.YCSS, labelPlot.MaxY()+labelPad)
		}
		if l.RotationDeg != 0 {
			t.Errorf("x label %d rotated %v, want 0 (labels fit)", i, l.RotationDeg)
		}
	}
	for i, l := range set.YLabels {
		if l.YCSS != y[i].CSS {
			t.Errorf("y label %d YCSS = %v, want %v", i, l.YCSS, y[i].CSS)
		}
		if l.XCSS != labelPlot.X-labelPad {
			t.Errorf("y label %d XCSS = %v, want %v", i, l.XCSS, labelPlot.X-labelPad)
		}
	}
}

func TestBuildAxisLabelsAutoRotates(t *testing.T) {
	long := strings.Repeat("2024-01-01 ", 3)
	var x []AxisTick
	for i := 0; i < 5; i++ {
		x = append(x, AxisTick{CSS: float64(i) * 25, Text: long})
	}
	narrow := scale.Rect{X: 0, Y: 0, W: 100, H: 100}

	set := BuildAxisLabels(x, nil, narrow, NewMeasurer(), LabelStyle{}, "", "")
	for i, l := range set.XLabels {
		if l.RotationDeg != autoRotation {
			t.Errorf("x label %d rotation = %v, want %v", i, l.RotationDeg, autoRotation)
		}
	}
}

func TestBuildAxisLabelsExplicitRotationWins(t *testing.T) {
	x := []AxisTick{{CSS: 0, Text: "aaaaaaaaaaaaaaaaaaaa"}, {CSS: 10, Text: "bbbbbbbbbbbbbbbbbbbb"}}
	narrow := scale.Rect{X: 0, Y: 0, W: 20, H: 20}

	set := BuildAxisLabels(x, nil, narrow, NewMeasurer(), LabelStyle{XRotation: 30}, "", "")
	for i, l := range set.XLabels {
		if l.RotationDeg != 30 {
			t.Errorf("x label %d rotation = %v, want 30", i, l.RotationDeg)
		}
	}
}

func TestBuildAxisLabelsTitles(t *testing.T) {
	x := []AxisTick{{CSS: 100, Text: "1"}}
	y := []AxisTick{{CSS: 100, Text: "25"}}

	set := BuildAxisLabels(x, y, labelPlot, NewMeasurer(), LabelStyle{}, "time", "load")
	if len(set.XLabels) != 2 || len(set.YLabels) != 2 {
		t.Fatalf("labels = %d x, %d y, want 2 and 2 with titles", len(set.XLabels), len(set.YLabels))
	}

	xt := set.XLabels[1]
	if !xt.IsTitle || xt.Text != "time" {
		t.Errorf("x title = %+v, want IsTitle time", xt)
	}
	if xt.XCSS != labelPlot.X+labelPlot.W/2 {
		t.Errorf("x title XCSS = %v, want centered %v", xt.XCSS, labelPlot.X+labelPlot.W/2)
	}
	if xt.YCSS <= labelPlot.MaxY()+labelPad {
		t.Errorf("x title YCSS = %v, want below the tick labels", xt.YCSS)
	}

	yt := set.YLabels[1]
	if !yt.IsTitle || yt.Text != "load" || yt.RotationDeg != -90 {
		t.Errorf("y title = %+v, want IsTitle load rotated -90", yt)
	}
	if yt.XCSS >= labelPlot.X-labelPad {
		t.Errorf("y title XCSS = %v, want left of the tick labels", yt.XCSS)
	}
	if yt.YCSS != labelPlot.Y+labelPlot.H/2 {
		t.Errorf("y title YCSS = %v, want centered %v", yt.YCSS, labelPlot.Y+labelPlot.H/2)
	}
}

func TestBuildAxisLabelsNilMeasurer(t *testing.T) {
	x := []AxisTick{{CSS: 0, Text: "a"}, {CSS: 10, Text: "b"}}
	set := BuildAxisLabels(x, nil, labelPlot, nil, LabelStyle{}, "", "")
	if len(set.XLabels) != 2 {
		t.Fatalf("labels = %d, want 2", len(set.XLabels))
	}
	if set.XLabels[0].RotationDeg != 0 {
		t.Errorf("rotation without measurer = %v, want 0", set.XLabels[0].RotationDeg)
	}
}
