package interact

import "math"

// Hit identifies a datum found by a hit test.
type Hit struct {
	Series int
	Index  int
	// Dist is the screen-space distance for nearest-point hits; zero
	// for containment hits.
	Dist float64
}

// PointSource exposes one series' points in screen space.
type PointSource struct {
	Count int
	At    func(i int) (x, y float64)
}

// RectSource exposes hit rectangles in screen space, normalized so
// x0 <= x1 and y0 <= y1.
type RectSource struct {
	Count int
	At    func(i int) (x0, y0, x1, y1 float64)
}

// NearestPoint scans every source for the point closest to (x, y)
// within maxDist pixels (inclusive). Ties go to the smallest series
// index, then the smallest data index: a later candidate must be
// strictly closer to win. Non-finite points never match.
func NearestPoint(sources []PointSource, x, y, maxDist float64) (Hit, bool) {
	best := Hit{Series: -1, Index: -1}
	bestD2 := maxDist * maxDist
	found := false
	for si, src := range sources {
		if src.At == nil {
			continue
		}
		for i := 0; i < src.Count; i++ {
			px, py := src.At(i)
			dx, dy := px-x, py-y
			d2 := dx*dx + dy*dy
			if d2 < bestD2 || (!found && d2 == bestD2) {
				best = Hit{Series: si, Index: i, Dist: math.Sqrt(d2)}
				bestD2 = d2
				found = true
			}
		}
	}
	return best, found
}

// WedgeHit tests (x, y) against pie wedges around (cx, cy). spans holds
// per-slice [start, end] angles in radians using the screen convention
// (y down, clockwise positive, 12 o'clock at -pi/2) with end >= start.
// The first containing slice in config order wins; slice boundaries are
// inclusive on both sides, so a point exactly on a shared edge goes to
// the earlier slice.
func WedgeHit(cx, cy, innerR, outerR float64, spans [][2]float64, x, y float64) (int, bool) {
	dx, dy := x-cx, y-cy
	r := math.Hypot(dx, dy)
	if r < innerR || r > outerR {
		return -1, false
	}
	ang := math.Atan2(dy, dx)
	for i, s := range spans {
		sweep := s[1] - s[0]
		if sweep <= 0 {
			continue
		}
		rel := math.Mod(ang-s[0], 2*math.Pi)
		if rel < 0 {
			rel += 2 * math.Pi
		}
		if rel <= sweep {
			return i, true
		}
	}
	return -1, false
}

// RectHit returns the first rectangle containing (x, y), edges
// inclusive.
func RectHit(src RectSource, x, y float64) (int, bool) {
	if src.At == nil {
		return -1, false
	}
	for i := 0; i < src.Count; i++ {
		x0, y0, x1, y1 := src.At(i)
		if x >= x0 && x <= x1 && y >= y0 && y <= y1 {
			return i, true
		}
	}
	return -1, false
}
