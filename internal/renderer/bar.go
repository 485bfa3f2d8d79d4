package renderer

import "math"

// BarSeries is one bar series in a batch. Series sharing a non-empty
// Stack tag accumulate on a common base per category; the rest get
// their own lane inside the band.
type BarSeries struct {
	// Values holds one bar height per category index; NaN skips the bar.
	Values []float32
	// XS optionally overrides the x data value per bar; nil uses the
	// category index.
	XS    []float32
	Color [4]float32
	Stack string
}

// BarBatch fixes the shared geometry of a bar build.
type BarBatch struct {
	XA, XB float32 // x data to px
	YA, YB float32 // y data to px
	Band   float32 // band width px
	Gap    float32 // fraction of the band left empty, in [0, 1)
	Radius float32 // corner radius px
}

// BuildBars expands bar series into rounded-rect quads. Non-stacked
// series split the band into side-by-side lanes in declaration order;
// stacked series pile up from the zero line, negatives downward.
func BuildBars(series []BarSeries, b BarBatch) []Quad {
	if len(series) == 0 {
		return nil
	}

	// Lane assignment: one lane per stack tag, one per loose series.
	lanes := 0
	laneOf := make([]int, len(series))
	stackLane := make(map[string]int)
	for i, s := range series {
		if s.Stack == "" {
			laneOf[i] = lanes
			lanes++
			continue
		}
		lane, ok := stackLane[s.Stack]
		if !ok {
			lane = lanes
			lanes++
			stackLane[s.Stack] = lane
		}
		laneOf[i] = lane
	}

	gap := b.Gap
	if gap < 0 {
		gap = 0
	}
	if gap >= 1 {
		gap = 0.99
	}
	usable := b.Band * (1 - gap)
	laneW := usable / float32(lanes)
	halfW := laneW / 2

	type acc struct{ pos, neg float32 }
	bases := make(map[[2]int]*acc)
	stacked := func(i int) (int, bool) {
		if series[i].Stack == "" {
			return 0, false
		}
		return stackLane[series[i].Stack], true
	}

	var quads []Quad
	for si, s := range series {
		lane := laneOf[si]
		for ci, v := range s.Values {
			if math.IsNaN(float64(v)) {
				continue
			}
			x := float32(ci)
			if s.XS != nil && ci < len(s.XS) {
				x = s.XS[ci]
			}
			bandCenter := b.XA*x + b.XB
			cx := bandCenter - usable/2 + float32(lane)*laneW + halfW

			y0 := float32(0)
			y1 := v
			if laneKey, ok := stacked(si); ok {
				key := [2]int{laneKey, ci}
				a := bases[key]
				if a == nil {
					a = &acc{}
					bases[key] = a
				}
				if v >= 0 {
					y0 = a.pos
					y1 = a.pos + v
					a.pos = y1
				} else {
					y0 = a.neg
					y1 = a.neg + v
					a.neg = y1
				}
			}

			p0 := b.YA*y0 + b.YB
			p1 := b.YA*y1 + b.YB
			top := float32(math.Min(float64(p0), float64(p1)))
			bot := float32(math.Max(float64(p0), float64(p1)))
			halfH := (bot - top) / 2
			if halfH <= 0 {
				continue
			}
			r := b.Radius
			if r > halfW {
				r = halfW
			}
			if r > halfH {
				r = halfH
			}
			quads = append(quads, Quad{
				Kind:   QuadRoundedRect,
				Center: [2]float32{cx, (top + bot) / 2},
				Half:   [2]float32{halfW + 1, halfH + 1},
				Params: [4]float32{halfW, halfH, r, 0},
				Color:  s.Color,
			})
		}
	}
	return quads
}
