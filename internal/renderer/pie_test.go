package renderer

import (
	"math"
	"testing"
)

func TestBuildPieWedgesSpans(t *testing.T) {
	slices := []PieSlice{{Value: 1}, {Value: 1}, {Value: 2}}
	start := float32(-math.Pi / 2)
	quads, spans := BuildPieWedges(slices, [2]float32{100, 100}, 0, 50, start)

	if len(spans) != 3 {
		t.Fatalf("len(spans) = %d, want 3", len(spans))
	}
	// Quarter, quarter, half; the half wedge splits into two quads.
	if len(quads) != 4 {
		t.Fatalf("len(quads) = %d, want 4", len(quads))
	}

	wantSweeps := []float64{math.Pi / 2, math.Pi / 2, math.Pi}
	for i, span := range spans {
		got := float64(span[1] - span[0])
		if math.Abs(got-wantSweeps[i]) > 1e-5 {
			t.Errorf("slice %d sweep = %v, want %v", i, got, wantSweeps[i])
		}
	}
	// Config order: spans are contiguous from the start angle.
	if spans[0][0] != start {
		t.Errorf("spans[0][0] = %v, want %v", spans[0][0], start)
	}
	for i := 1; i < len(spans); i++ {
		if spans[i][0] != spans[i-1][1] {
			t.Errorf("span %d starts at %v, want %v", i, spans[i][0], spans[i-1][1])
		}
	}
	if got := float64(spans[2][1] - spans[0][0]); math.Abs(got-2*math.Pi) > 1e-5 {
		t.Errorf("total sweep = %v, want 2pi", got)
	}
}

func TestBuildPieWedgesZeroAndNegative(t *testing.T) {
	quads, spans := BuildPieWedges([]PieSlice{
		{Value: 1}, {Value: 0}, {Value: -5}, {Value: 1},
	}, [2]float32{0, 0}, 0, 10, 0)

	if len(quads) != 2 {
		t.Fatalf("len(quads) = %d, want 2", len(quads))
	}
	if spans[1][0] != spans[1][1] {
		t.Errorf("zero slice has sweep %v", spans[1][1]-spans[1][0])
	}
	if spans[2][0] != spans[2][1] {
		t.Errorf("negative slice has sweep %v", spans[2][1]-spans[2][0])
	}
}

func TestBuildPieWedgesEmptyTotal(t *testing.T) {
	quads, spans := BuildPieWedges([]PieSlice{{Value: 0}, {Value: 0}}, [2]float32{0, 0}, 0, 10, 1)
	if quads != nil {
		t.Fatalf("quads = %v, want nil", quads)
	}
	for i, s := range spans {
		if s[0] != 1 || s[1] != 1 {
			t.Errorf("span %d = %v, want collapsed at start angle", i, s)
		}
	}
}

func TestBuildPieWedgesConvexSplit(t *testing.T) {
	// A single slice is a full circle and must split into two pi parts.
	quads, _ := BuildPieWedges([]PieSlice{{Value: 3}}, [2]float32{0, 0}, 5, 20, 0)
	if len(quads) != 2 {
		t.Fatalf("len(quads) = %d, want 2", len(quads))
	}
	for i, q := range quads {
		sweep := float64(q.Params[1] - q.Params[0])
		if sweep > math.Pi+1e-5 {
			t.Errorf("quad %d sweep = %v, exceeds pi", i, sweep)
		}
		if q.Params[2] != 5 || q.Params[3] != 20 {
			t.Errorf("quad %d radii = (%v, %v), want (5, 20)", i, q.Params[2], q.Params[3])
		}
	}
	if quads[0].Params[1] != quads[1].Params[0] {
		t.Errorf("split parts not contiguous: %v vs %v", quads[0].Params[1], quads[1].Params[0])
	}
}

func TestBuildPieWedgesInnerRadiusClamped(t *testing.T) {
	quads, _ := BuildPieWedges([]PieSlice{{Value: 1}, {Value: 1}}, [2]float32{0, 0}, 99, 20, 0)
	for i, q := range quads {
		if q.Params[2] > q.Params[3] {
			t.Errorf("quad %d inner radius %v exceeds outer %v", i, q.Params[2], q.Params[3])
		}
	}
}
