package scale

// Rect is an axis-aligned rectangle in pixel space.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Margins are the pixel gaps between the container edge and the plot.
type Margins struct {
	Left, Right, Top, Bottom float64
}

// PlotRect returns the plot area of a width x height container after
// removing the margins. Collapses to a zero-size rectangle rather than
// going negative.
func PlotRect(width, height float64, m Margins) Rect {
	w := width - m.Left - m.Right
	h := height - m.Top - m.Bottom
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rect{X: m.Left, Y: m.Top, W: w, H: h}
}

// LegendInset carves a legend strip off one side of the plot area and
// returns the legend rectangle plus the remaining plot. Position is one
// of "top", "bottom", "left", "right"; anything else leaves the plot
// untouched and returns a zero legend rect.
func LegendInset(plot Rect, position string, size float64) (legend, inner Rect) {
	if size <= 0 {
		return Rect{}, plot
	}
	switch position {
	case "top":
		if size > plot.H {
			size = plot.H
		}
		legend = Rect{X: plot.X, Y: plot.Y, W: plot.W, H: size}
		inner = Rect{X: plot.X, Y: plot.Y + size, W: plot.W, H: plot.H - size}
	case "bottom":
		if size > plot.H {
			size = plot.H
		}
		legend = Rect{X: plot.X, Y: plot.MaxY() - size, W: plot.W, H: size}
		inner = Rect{X: plot.X, Y: plot.Y, W: plot.W, H: plot.H - size}
	case "left":
		if size > plot.W {
			size = plot.W
		}
		legend = Rect{X: plot.X, Y: plot.Y, W: size, H: plot.H}
		inner = Rect{X: plot.X + size, Y: plot.Y, W: plot.W - size, H: plot.H}
	case "right":
		if size > plot.W {
			size = plot.W
		}
		legend = Rect{X: plot.MaxX() - size, Y: plot.Y, W: size, H: plot.H}
		inner = Rect{X: plot.X, Y: plot.Y, W: plot.W - size, H: plot.H}
	default:
		return Rect{}, plot
	}
	return legend, inner
}

// FacetTiles splits the plot area into rows x cols tiles in row-major
// order with a uniform gap between neighbors. Invalid counts yield the
// whole plot as a single tile.
func FacetTiles(plot Rect, rows, cols int, gap float64) []Rect {
	if rows < 1 || cols < 1 {
		return []Rect{plot}
	}
	if gap < 0 {
		gap = 0
	}
	tileW := (plot.W - float64(cols-1)*gap) / float64(cols)
	tileH := (plot.H - float64(rows-1)*gap) / float64(rows)
	if tileW < 0 {
		tileW = 0
	}
	if tileH < 0 {
		tileH = 0
	}
	tiles := make([]Rect, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			tiles = append(tiles, Rect{
				X: plot.X + float64(c)*(tileW+gap),
				Y: plot.Y + float64(r)*(tileH+gap),
				W: tileW,
				H: tileH,
			})
		}
	}
	return tiles
}
