package renderer

import "math"

// PieSlice is one wedge input; non-positive values take no angular
// space but keep their slot in the returned spans.
type PieSlice struct {
	Value float32
	Color [4]float32
}

// BuildPieWedges lays slices clockwise from startAngle (radians, screen
// coordinates, so -pi/2 is twelve o'clock). It returns the wedge quads
// and the per-slice [begin, end) angle spans in config order for hit
// testing. Wedges sweeping more than pi are split so the fragment SDF
// only ever sees convex spans; spans crossing the 2 pi seam need no
// special casing because the shader works on raw angles.
func BuildPieWedges(slices []PieSlice, center [2]float32, innerR, outerR, startAngle float32) ([]Quad, [][2]float32) {
	spans := make([][2]float32, len(slices))
	var total float64
	for _, s := range slices {
		if s.Value > 0 {
			total += float64(s.Value)
		}
	}
	if total <= 0 || outerR <= 0 {
		for i := range spans {
			spans[i] = [2]float32{startAngle, startAngle}
		}
		return nil, spans
	}
	if innerR < 0 {
		innerR = 0
	}
	if innerR > outerR {
		innerR = outerR
	}

	var quads []Quad
	angle := float64(startAngle)
	for i, s := range slices {
		sweep := 0.0
		if s.Value > 0 {
			sweep = 2 * math.Pi * float64(s.Value) / total
		}
		a0 := angle
		a1 := angle + sweep
		spans[i] = [2]float32{float32(a0), float32(a1)}
		angle = a1
		if sweep == 0 {
			continue
		}

		parts := [][2]float64{{a0, a1}}
		if sweep > math.Pi {
			mid := a0 + sweep/2
			parts = [][2]float64{{a0, mid}, {mid, a1}}
		}
		for _, p := range parts {
			quads = append(quads, Quad{
				Kind:   QuadWedge,
				Center: center,
				Half:   [2]float32{outerR + 1, outerR + 1},
				Params: [4]float32{float32(p[0]), float32(p[1]), innerR, outerR},
				Color:  s.Color,
			})
		}
	}
	return quads, spans
}
