package renderer

// HeatmapCell is one (column, row, value) triple. Row 0 is the top row;
// callers flip indices when their category axis grows upward.
type HeatmapCell struct {
	Col, Row int
	Value    float64
}

// BuildHeatmapCells tiles the plot rect into cols x rows equal cells and
// colors each present cell by its normalized value through the colormap.
// Cells outside the grid are dropped; a zero-width value domain maps
// everything to the colormap midpoint.
func BuildHeatmapCells(cells []HeatmapCell, cols, rows int, plot [4]float32, color ColorFunc, vmin, vmax float64) []Quad {
	if cols < 1 || rows < 1 || plot[2] <= 0 || plot[3] <= 0 {
		return nil
	}
	cw := plot[2] / float32(cols)
	ch := plot[3] / float32(rows)
	span := vmax - vmin

	quads := make([]Quad, 0, len(cells))
	for _, c := range cells {
		if c.Col < 0 || c.Col >= cols || c.Row < 0 || c.Row >= rows {
			continue
		}
		t := float32(0.5)
		if span > 0 {
			t = float32((c.Value - vmin) / span)
		}
		quads = append(quads, Quad{
			Kind: QuadRect,
			Center: [2]float32{
				plot[0] + (float32(c.Col)+0.5)*cw,
				plot[1] + (float32(c.Row)+0.5)*ch,
			},
			Half:  [2]float32{cw / 2, ch / 2},
			Color: color(t),
		})
	}
	return quads
}
