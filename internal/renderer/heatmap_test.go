package renderer

import "testing"

// grayRamp is the test colormap: t maps to opaque gray t.
func grayRamp(t float32) [4]float32 { return [4]float32{t, t, t, 1} }

func TestBuildHeatmapCellsLayout(t *testing.T) {
	plot := [4]float32{10, 20, 300, 150}
	cells := []HeatmapCell{
		{Col: 0, Row: 0, Value: 0},
		{Col: 2, Row: 1, Value: 9},
	}
	quads := BuildHeatmapCells(cells, 3, 2, plot, grayRamp, 0, 9)
	if len(quads) != 2 {
		t.Fatalf("len(quads) = %d, want 2", len(quads))
	}

	// 3x2 grid over 300x150: cells are 100x75.
	q := quads[0]
	if q.Center != [2]float32{60, 57.5} {
		t.Errorf("cell (0,0) center = %v, want (60, 57.5)", q.Center)
	}
	if q.Half != [2]float32{50, 37.5} {
		t.Errorf("cell half = %v, want (50, 37.5)", q.Half)
	}
	if q.Kind != QuadRect {
		t.Errorf("Kind = %v, want QuadRect", q.Kind)
	}

	q = quads[1]
	if q.Center != [2]float32{260, 132.5} {
		t.Errorf("cell (2,1) center = %v, want (260, 132.5)", q.Center)
	}
}

func TestBuildHeatmapCellsColorMonotone(t *testing.T) {
	plot := [4]float32{0, 0, 90, 90}
	var cells []HeatmapCell
	for i := 0; i < 9; i++ {
		cells = append(cells, HeatmapCell{Col: i % 3, Row: i / 3, Value: float64(i)})
	}
	quads := BuildHeatmapCells(cells, 3, 3, plot, grayRamp, 0, 8)
	for i := 1; i < len(quads); i++ {
		if quads[i].Color[0] < quads[i-1].Color[0] {
			t.Errorf("cell %d gray %v below cell %d gray %v", i, quads[i].Color[0], i-1, quads[i-1].Color[0])
		}
	}
	if quads[0].Color[0] != 0 {
		t.Errorf("first cell gray = %v, want 0", quads[0].Color[0])
	}
	if quads[8].Color[0] != 1 {
		t.Errorf("last cell gray = %v, want 1", quads[8].Color[0])
	}
}

func TestBuildHeatmapCellsDropsOutOfRange(t *testing.T) {
	plot := [4]float32{0, 0, 100, 100}
	quads := BuildHeatmapCells([]HeatmapCell{
		{Col: -1, Row: 0, Value: 1},
		{Col: 0, Row: 5, Value: 1},
		{Col: 1, Row: 1, Value: 1},
	}, 2, 2, plot, grayRamp, 0, 1)
	if len(quads) != 1 {
		t.Fatalf("len(quads) = %d, want 1", len(quads))
	}
}

func TestBuildHeatmapCellsZeroSpan(t *testing.T) {
	plot := [4]float32{0, 0, 100, 100}
	quads := BuildHeatmapCells([]HeatmapCell{{Col: 0, Row: 0, Value: 7}}, 1, 1, plot, grayRamp, 7, 7)
	if len(quads) != 1 {
		t.Fatalf("len(quads) = %d, want 1", len(quads))
	}
	if quads[0].Color[0] != 0.5 {
		t.Errorf("zero-span color = %v, want midpoint 0.5", quads[0].Color[0])
	}
}

func TestBuildHeatmapCellsDegenerate(t *testing.T) {
	if q := BuildHeatmapCells(nil, 0, 3, [4]float32{0, 0, 10, 10}, grayRamp, 0, 1); q != nil {
		t.Errorf("zero cols: quads = %v, want nil", q)
	}
	if q := BuildHeatmapCells(nil, 3, 3, [4]float32{0, 0, 0, 10}, grayRamp, 0, 1); q != nil {
		t.Errorf("zero plot width: quads = %v, want nil", q)
	}
}
