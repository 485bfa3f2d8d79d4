package chartgpu

import (
	"math"

	"github.com/gogpu/chartgpu/internal/interact"
	"github.com/gogpu/chartgpu/overlay"
)

// Engine callbacks fire synchronously inside the pointer methods, so
// every handler here runs with c.mu held and queues its emissions.

func (c *Chart) onEngineCrosshair(_ float64, _ bool, source string) {
	c.interactDirty = true
	c.sched.MarkDirty()
	c.queueCrosshair(source)
}

func (c *Chart) onEngineZoom(w interact.Window, source string) {
	c.layoutDirty = true
	c.sched.MarkDirty()
	c.queueZoom(w, source)
}

func (c *Chart) onEngineLeave() {
	c.setHover(nil)
	c.setTooltip(nil)
}

func (c *Chart) onEngineHover(cssX, cssY float64) {
	hit := c.hitTest(cssX, cssY)
	c.setHover(hit)
	c.setTooltip(c.buildTooltip(hit, cssX, cssY))
}

func (c *Chart) onEngineClick(cssX, cssY float64) {
	hit := c.hitTest(cssX, cssY)
	if hit == nil {
		return
	}
	h := *hit
	c.queueEmit(func() { c.broker.PublishClick(h, cssX, cssY) })
}

// setHover publishes only identity changes; moves across the same datum
// update the stored hit silently. Caller holds c.mu.
func (c *Chart) setHover(hit *overlay.HitInfo) {
	same := (hit == nil) == (c.hover == nil)
	if same && hit != nil {
		same = hit.SeriesIndex == c.hover.SeriesIndex && hit.DataIndex == c.hover.DataIndex
	}
	c.hover = hit
	if same {
		return
	}
	h := hit
	c.queueEmit(func() { c.broker.PublishHover(h) })
}

// setTooltip publishes the payload when it differs from the last one.
// Caller holds c.mu.
func (c *Chart) setTooltip(p *overlay.TooltipPayload) {
	if p == nil && c.lastTooltip == nil {
		return
	}
	if p != nil && c.lastTooltip != nil && tooltipEqual(*p, *c.lastTooltip) {
		return
	}
	c.lastTooltip = p
	c.queueEmit(func() { c.broker.PublishTooltip(p) })
}

func tooltipEqual(a, b overlay.TooltipPayload) bool {
	if a.Content != b.Content || a.XCSS != b.XCSS || a.YCSS != b.YCSS || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		pa, pb := &a.Params[i], &b.Params[i]
		if pa.SeriesIndex != pb.SeriesIndex || pa.DataIndex != pb.DataIndex || len(pa.Value) != len(pb.Value) {
			return false
		}
		for j := range pa.Value {
			if pa.Value[j] != pb.Value[j] {
				return false
			}
		}
	}
	return true
}

// ===== Hit testing =====

// hitTest resolves the datum under the cursor. Point proximity wins over
// containment so a scatter point on top of a bar is preferred; within a
// family, earlier series win. Caller holds c.mu.
func (c *Chart) hitTest(x, y float64) *overlay.HitInfo {
	if hit := c.hitPoints(x, y); hit != nil {
		return hit
	}
	if hit := c.hitBars(x, y); hit != nil {
		return hit
	}
	if hit := c.hitCandles(x, y); hit != nil {
		return hit
	}
	if hit := c.hitPies(x, y); hit != nil {
		return hit
	}
	return c.hitHeatmaps(x, y)
}

// hitPoints runs nearest-point over every [x, y] series through its
// tile's scales.
func (c *Chart) hitPoints(x, y float64) *overlay.HitInfo {
	var sources []interact.PointSource
	var refs []int
	var datas [][]float32
	for i, st := range c.series {
		switch st.typ {
		case SeriesLine, SeriesArea, SeriesScatter, SeriesScatterDensity:
		default:
			continue
		}
		f := c.data.Floats(i)
		n := len(f) / 2
		if n == 0 {
			continue
		}
		xs, ys := c.xScales[st.tile], c.yScales[st.tile]
		pts := f
		sources = append(sources, interact.PointSource{
			Count: n,
			At: func(j int) (float64, float64) {
				return xs.Apply(float64(pts[2*j])), ys.Apply(float64(pts[2*j+1]))
			},
		})
		refs = append(refs, i)
		datas = append(datas, f)
	}
	hit, ok := interact.NearestPoint(sources, x, y, hitRadius)
	if !ok {
		return nil
	}
	f := datas[hit.Series]
	return &overlay.HitInfo{
		SeriesIndex: refs[hit.Series],
		DataIndex:   hit.Index,
		X:           float64(f[2*hit.Index]),
		Y:           float64(f[2*hit.Index+1]),
		DistancePx:  hit.Dist,
	}
}

// hitBars tests the retained bar rectangles. Attribution is off (nil
// rects) when the batch dropped bars the owner mirror did not predict.
func (c *Chart) hitBars(x, y float64) *overlay.HitInfo {
	rects := c.barRects
	if len(rects) == 0 {
		return nil
	}
	idx, ok := interact.RectHit(interact.RectSource{
		Count: len(rects),
		At: func(i int) (float64, float64, float64, float64) {
			r := rects[i]
			return r[0], r[1], r[2], r[3]
		},
	}, x, y)
	if !ok {
		return nil
	}
	owner := c.barOwners[idx]
	f := c.data.Floats(owner[0])
	j := owner[1]
	return &overlay.HitInfo{
		SeriesIndex: owner[0],
		DataIndex:   j,
		X:           float64(f[2*j]),
		Y:           float64(f[2*j+1]),
	}
}

// hitCandles tests candle bodies: body width around the time slot, open
// to close vertically.
func (c *Chart) hitCandles(x, y float64) *overlay.HitInfo {
	for i, st := range c.series {
		if st.typ != SeriesCandlestick {
			continue
		}
		f := c.data.Floats(i)
		n := len(f) / 5
		if n == 0 {
			continue
		}
		xs, ys := c.xScales[st.tile], c.yScales[st.tile]
		half := float64(c.candleBodyPx(i, st)) / 2
		idx, ok := interact.RectHit(interact.RectSource{
			Count: n,
			At: func(j int) (float64, float64, float64, float64) {
				cx := xs.Apply(float64(f[5*j]))
				y0 := ys.Apply(float64(f[5*j+1])) // open
				y1 := ys.Apply(float64(f[5*j+4])) // close
				if y0 > y1 {
					y0, y1 = y1, y0
				}
				return cx - half, y0, cx + half, y1
			},
		}, x, y)
		if ok {
			return &overlay.HitInfo{
				SeriesIndex: i,
				DataIndex:   idx,
				X:           float64(f[5*idx]),
				Y:           float64(f[5*idx+4]),
			}
		}
	}
	return nil
}

// hitPies tests the retained wedge spans. X carries the slice value and
// Y its fraction of the positive total.
func (c *Chart) hitPies(x, y float64) *overlay.HitInfo {
	for i, st := range c.series {
		if st.typ != SeriesPie || len(st.pieSpans) == 0 {
			continue
		}
		idx, ok := interact.WedgeHit(st.pieCenter[0], st.pieCenter[1],
			st.pieInner, st.pieOuter, st.pieSpans, x, y)
		if !ok {
			continue
		}
		f := c.data.Floats(i)
		if 2*idx+1 >= len(f) {
			continue
		}
		v := float64(f[2*idx+1])
		total := 0.0
		for k := 1; k < len(f); k += 2 {
			if pv := float64(f[k]); pv > 0 && !math.IsNaN(pv) {
				total += pv
			}
		}
		frac := 0.0
		if total > 0 {
			frac = v / total
		}
		return &overlay.HitInfo{SeriesIndex: i, DataIndex: idx, X: v, Y: frac}
	}
	return nil
}

// hitHeatmaps maps the cursor to a cell and scans for a datum there.
func (c *Chart) hitHeatmaps(x, y float64) *overlay.HitInfo {
	for i, st := range c.series {
		if st.typ != SeriesHeatmap {
			continue
		}
		t := c.tiles[st.tile]
		if !t.Contains(x, y) {
			continue
		}
		f := c.data.Floats(i)
		cols := len(c.opts.XAxis.Categories)
		rows := len(c.opts.YAxis.Categories)
		if cols == 0 || rows == 0 {
			maxCol, maxRow := -1, -1
			for k := 0; k+3 <= len(f); k += 3 {
				if v := int(math.Round(float64(f[k]))); v > maxCol {
					maxCol = v
				}
				if v := int(math.Round(float64(f[k+1]))); v > maxRow {
					maxRow = v
				}
			}
			if cols == 0 {
				cols = maxCol + 1
			}
			if rows == 0 {
				rows = maxRow + 1
			}
		}
		if cols < 1 || rows < 1 {
			continue
		}
		col := int((x - t.X) / t.W * float64(cols))
		row := rows - 1 - int((y-t.Y)/t.H*float64(rows))
		for k := 0; k+3 <= len(f); k += 3 {
			if int(math.Round(float64(f[k]))) == col && int(math.Round(float64(f[k+1]))) == row {
				return &overlay.HitInfo{SeriesIndex: i, DataIndex: k / 3, X: float64(col), Y: float64(row)}
			}
		}
	}
	return nil
}

// ===== Tooltip assembly =====

// buildTooltip computes the payload for the current pointer state, nil
// when tooltips are off or nothing is under the pointer.
// Caller holds c.mu.
func (c *Chart) buildTooltip(hit *overlay.HitInfo, cssX, cssY float64) *overlay.TooltipPayload {
	tt := c.opts.Tooltip
	if tt == nil {
		return nil
	}
	if tt.Trigger == TriggerAxis {
		return c.axisTooltip(cssY)
	}
	if hit == nil {
		return nil
	}
	p := overlay.BuildTooltip([]overlay.TooltipParam{c.itemParam(*hit)}, cssX, cssY)
	return &p
}

// axisTooltip collects every cartesian series' value nearest the
// crosshair x, anchored at the crosshair.
func (c *Chart) axisTooltip(cssY float64) *overlay.TooltipPayload {
	x, on := c.engine.Crosshair()
	if !on {
		return nil
	}
	var params []overlay.TooltipParam
	for i, st := range c.series {
		stride := 2
		switch st.typ {
		case SeriesPie, SeriesHeatmap:
			continue
		case SeriesCandlestick:
			stride = 5
		}
		f := c.data.Floats(i)
		idx := nearestIndex(f, stride, x)
		if idx < 0 {
			continue
		}
		params = append(params, c.itemParam(overlay.HitInfo{
			SeriesIndex: i,
			DataIndex:   idx,
			X:           float64(f[idx*stride]),
			Y:           float64(f[idx*stride+1]),
		}))
	}
	if len(params) == 0 {
		return nil
	}
	p := overlay.BuildTooltip(params, c.cssForDomain(x), cssY)
	return &p
}

// itemParam formats one series datum for the tooltip. Candlestick
// values read back in wire order [open, close, low, high].
func (c *Chart) itemParam(hit overlay.HitInfo) overlay.TooltipParam {
	i := hit.SeriesIndex
	p := overlay.TooltipParam{
		SeriesIndex: i,
		SeriesName:  c.opts.Series[i].Name,
		DataIndex:   hit.DataIndex,
		ColorCSS:    c.seriesColor(i).CSS(),
	}
	f := c.data.Floats(i)
	switch c.series[i].typ {
	case SeriesCandlestick:
		if k := hit.DataIndex * 5; k+5 <= len(f) {
			p.Value = []float64{float64(f[k+1]), float64(f[k+4]), float64(f[k+3]), float64(f[k+2])}
		}
	case SeriesHeatmap:
		if k := hit.DataIndex * 3; k+3 <= len(f) {
			p.Value = []float64{float64(f[k]), float64(f[k+1]), float64(f[k+2])}
		}
	case SeriesPie:
		p.Value = []float64{hit.X}
	default:
		p.Value = []float64{hit.X, hit.Y}
	}
	return p
}

// nearestIndex returns the point whose x value is closest to x, or -1.
func nearestIndex(f []float32, stride int, x float64) int {
	best, bestD := -1, math.Inf(1)
	for j := 0; j*stride+stride <= len(f); j++ {
		xv := float64(f[j*stride])
		if math.IsNaN(xv) {
			continue
		}
		if d := math.Abs(xv - x); d < bestD {
			best, bestD = j, d
		}
	}
	return best
}

// ===== Coordinate mapping =====

// domainAt resolves a CSS x to a domain coordinate through the tile
// under it, defaulting to the first tile between tiles or outside the
// grid. Caller holds c.mu (invoked from engine callbacks).
func (c *Chart) domainAt(cssX float64) float64 {
	if len(c.xScales) == 0 {
		return 0
	}
	for i, t := range c.tiles {
		if cssX >= t.X && cssX <= t.MaxX() {
			return c.xScales[i].Invert(cssX)
		}
	}
	return c.xScales[0].Invert(cssX)
}

// cssForDomain maps a domain x to CSS pixels. Facet tiles share the
// window, so the first tile's scale is representative.
func (c *Chart) cssForDomain(x float64) float64 {
	if len(c.xScales) == 0 {
		return 0
	}
	return c.xScales[0].Apply(x)
}
