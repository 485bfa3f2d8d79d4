package chartgpu

import (
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/chartgpu/internal/gpu"
	"github.com/gogpu/chartgpu/internal/renderer"
	"github.com/gogpu/chartgpu/internal/scale"
	"github.com/gogpu/chartgpu/internal/store"
	"github.com/gogpu/chartgpu/overlay"
)

// defaultMargins apply when the grid options are all zero.
var defaultMargins = scale.Margins{Left: 60, Right: 20, Top: 30, Bottom: 40}

const (
	legendSize     = 28.0 // legend strip depth in CSS px
	labelFontSize  = 12.0
	crosshairHalfW = 0.5 // half width of the crosshair line in CSS px
	hitRadius      = 24.0
)

// renderFrame produces one frame. Invoked by the scheduler, either on
// the loop goroutine or, via TickOnce, on a caller's.
func (c *Chart) renderFrame() (time.Duration, error) {
	frameStart := time.Now()
	c.mu.Lock()
	if c.disposed || c.lost || c.opts == nil {
		c.mu.Unlock()
		return 0, nil
	}
	err := c.flushState()
	var gpuDur time.Duration
	if err == nil {
		gpuDur, err = c.recordFrame()
	}
	fire := c.drainLocked()
	c.mu.Unlock()
	runAll(fire)
	if err != nil {
		return 0, err
	}
	if c.cb.OnRendered != nil {
		c.cb.OnRendered(time.Since(frameStart))
	}
	return gpuDur, nil
}

// flushState settles the dirty cascade: data uploads invalidate layout,
// layout invalidates the crosshair geometry, and every frame re-prepares
// the renderers against the settled state. Caller holds c.mu.
func (c *Chart) flushState() error {
	if c.dataDirty {
		if err := c.data.Flush(); err != nil {
			return fmt.Errorf("flush data: %w", err)
		}
		c.dataDirty = false
		c.layoutDirty = true
	}
	if c.layoutDirty {
		c.relayout()
		c.layoutDirty = false
		c.interactDirty = true
	}
	if c.interactDirty {
		c.rebuildCrosshair()
		c.interactDirty = false
	}
	return c.prepareSeries()
}

// recordFrame encodes and submits the frame: compute passes first, then
// one render pass with bars under the streamed series and the crosshair
// on top. Caller holds c.mu.
func (c *Chart) recordFrame() (time.Duration, error) {
	f, err := gpu.BeginFrame(c.ctx.Device(), c.ctx.Queue(), "chart_frame")
	if err != nil {
		return 0, err
	}
	for _, st := range c.series {
		if st.visible && st.density != nil {
			st.density.Dispatch(f.Encoder())
		}
	}

	bg := c.theme.Background
	rp := f.BeginPass(c.surface, gputypes.Color{R: bg.R, G: bg.G, B: bg.B, A: bg.A})
	if c.bars != nil {
		c.bars.Record(rp)
	}
	for _, st := range c.series {
		if !st.visible {
			continue
		}
		switch {
		case st.pull != nil:
			st.pull.Record(rp)
		case st.density != nil:
			st.density.Record(rp)
		case st.quads != nil:
			st.quads.Record(rp)
		}
	}
	c.cross.Record(rp)
	rp.End()
	return f.Finish()
}

// relayout recomputes the plot geometry, domains, scales, CPU-built quad
// sets, and axis labels. Caller holds c.mu.
func (c *Chart) relayout() {
	m := scale.Margins{
		Left:   c.opts.Grid.Left,
		Right:  c.opts.Grid.Right,
		Top:    c.opts.Grid.Top,
		Bottom: c.opts.Grid.Bottom,
	}
	if m == (scale.Margins{}) {
		m = defaultMargins
	}
	inner := scale.PlotRect(c.widthCSS, c.heightCSS, m)

	c.legend = scale.Rect{}
	if c.opts.Legend != nil {
		c.legend, inner = scale.LegendInset(inner, legendPos(c.opts.Legend.Position), legendSize)
	}
	c.plot = inner

	if f := c.opts.Facet; f != nil {
		c.tiles = scale.FacetTiles(inner, f.Rows, f.Cols, f.Gap)
	} else {
		c.tiles = []scale.Rect{inner}
	}

	c.xDom = c.xDomain()
	z := c.engine.Zoom()
	span := c.xDom[1] - c.xDom[0]
	c.visX = [2]float64{c.xDom[0] + span*z.Start/100, c.xDom[0] + span*z.End/100}
	c.yDom = c.yDomain()

	c.xScales = c.xScales[:0]
	c.yScales = c.yScales[:0]
	for _, t := range c.tiles {
		c.xScales = append(c.xScales, scale.NewLinear(c.visX[0], c.visX[1], t.X, t.MaxX()))
		c.yScales = append(c.yScales, scale.NewLinear(c.yDom[0], c.yDom[1], t.MaxY(), t.Y))
	}
	c.engine.SetGrid(c.plot)

	for i, st := range c.series {
		st.tile = 0
		if c.opts.Facet != nil {
			if ft := c.opts.Series[i].Facet; ft >= 0 && ft < len(c.tiles) {
				st.tile = ft
			}
		}
	}

	c.buildBarBatch()
	for i, st := range c.series {
		switch st.typ {
		case SeriesPie:
			c.buildPie(i, st)
		case SeriesHeatmap:
			c.buildHeatmap(i, st)
		}
	}
	c.buildLabels()
}

func legendPos(p LegendPosition) string {
	switch p {
	case LegendBottom:
		return "bottom"
	case LegendLeft:
		return "left"
	case LegendRight:
		return "right"
	default:
		return "top"
	}
}

// xDomain returns the full x extent before zoom windowing. Category axes
// band the indices; value and time axes span the data, with pins winning
// over the scan.
func (c *Chart) xDomain() [2]float64 {
	if c.opts.XAxis.Kind == AxisCategory {
		return [2]float64{-0.5, float64(len(c.opts.XAxis.Categories)) - 0.5}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, st := range c.series {
		if st.typ == SeriesPie {
			continue
		}
		f := c.data.Floats(i)
		stride := c.data.Layout(i).FloatsPerPoint()
		for k := 0; k+stride <= len(f); k += stride {
			x := float64(f[k])
			if math.IsNaN(x) {
				continue
			}
			if x < lo {
				lo = x
			}
			if x > hi {
				hi = x
			}
		}
	}
	if lo > hi {
		lo, hi = 0, 1
	}
	if p := c.opts.XAxis.Min; p != nil {
		lo = *p
	}
	if p := c.opts.XAxis.Max; p != nil {
		hi = *p
	}
	if lo >= hi {
		return [2]float64{lo - 1, lo + 1}
	}
	return [2]float64{lo, hi}
}

// yDomain returns the y extent. Auto bounds scan the data (the visible
// window only under BoundsVisible), stack bar contributions, snap to
// nice step multiples, and then yield to explicit pins.
func (c *Chart) yDomain() [2]float64 {
	if c.opts.YAxis.Kind == AxisCategory {
		n := len(c.opts.YAxis.Categories)
		if n == 0 {
			n = c.heatmapRows()
		}
		return [2]float64{-0.5, float64(n) - 0.5}
	}

	visibleOnly := c.opts.YAxis.AutoBounds == BoundsVisible
	inWindow := func(x float64) bool {
		return !visibleOnly || (x >= c.visX[0] && x <= c.visX[1])
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	take := func(v float64) {
		if math.IsNaN(v) {
			return
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	type stackAcc struct{ pos, neg float64 }
	stacks := map[string]map[int]*stackAcc{}

	for i, st := range c.series {
		f := c.data.Floats(i)
		switch st.typ {
		case SeriesPie, SeriesHeatmap:
			// Pie has no axes; heatmap values map to color.
		case SeriesCandlestick:
			for k := 0; k+5 <= len(f); k += 5 {
				if !inWindow(float64(f[k])) {
					continue
				}
				take(float64(f[k+1]))
				take(float64(f[k+2]))
				take(float64(f[k+3]))
				take(float64(f[k+4]))
			}
		case SeriesBar, SeriesHistogram:
			tag := c.opts.Series[i].Stack
			var acc map[int]*stackAcc
			if tag != "" {
				acc = stacks[tag]
				if acc == nil {
					acc = map[int]*stackAcc{}
					stacks[tag] = acc
				}
			}
			for k := 0; k+2 <= len(f); k += 2 {
				if !inWindow(float64(f[k])) {
					continue
				}
				v := float64(f[k+1])
				if math.IsNaN(v) {
					continue
				}
				if acc == nil {
					take(v)
					continue
				}
				ci := k / 2
				a := acc[ci]
				if a == nil {
					a = &stackAcc{}
					acc[ci] = a
				}
				if v >= 0 {
					a.pos += v
					take(a.pos)
				} else {
					a.neg += v
					take(a.neg)
				}
			}
			take(0) // bars grow from the zero line
		case SeriesArea:
			for k := 0; k+2 <= len(f); k += 2 {
				if inWindow(float64(f[k])) {
					take(float64(f[k+1]))
				}
			}
			take(0) // the fill baseline
		default:
			for k := 0; k+2 <= len(f); k += 2 {
				if inWindow(float64(f[k])) {
					take(float64(f[k+1]))
				}
			}
		}
	}

	if lo > hi {
		lo, hi = 0, 1
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	split := c.opts.YAxis.SplitNumber
	if split <= 0 {
		split = 5
	}
	lo, hi = niceBounds(lo, hi, split)
	if p := c.opts.YAxis.Min; p != nil {
		lo = *p
	}
	if p := c.opts.YAxis.Max; p != nil {
		hi = *p
	}
	if lo >= hi {
		return [2]float64{lo - 1, lo + 1}
	}
	return [2]float64{lo, hi}
}

// heatmapRows returns the implied row count when the y category list is
// empty: the largest row index in any heatmap series plus one.
func (c *Chart) heatmapRows() int {
	maxRow := -1
	for i, st := range c.series {
		if st.typ != SeriesHeatmap {
			continue
		}
		f := c.data.Floats(i)
		for k := 0; k+3 <= len(f); k += 3 {
			if r := int(math.Round(float64(f[k+1]))); r > maxRow {
				maxRow = r
			}
		}
	}
	return maxRow + 1
}

// niceBounds expands [lo, hi] outward to multiples of the nice tick
// step. The epsilon keeps exact multiples from spilling a full step.
func niceBounds(lo, hi float64, count int) (float64, float64) {
	step := scale.NiceStep(hi-lo, count)
	if step <= 0 {
		return lo, hi
	}
	return math.Floor(lo/step+1e-9) * step, math.Ceil(hi/step-1e-9) * step
}

// buildBarBatch expands every bar and histogram series into the shared
// quad batch. Stacking crosses series, so they cannot build one by one.
// Hit rectangles mirror the build; when the builder dropped bars the
// mirror did not predict (sub-pixel heights), attribution switches off
// rather than misattribute. Caller holds c.mu.
func (c *Chart) buildBarBatch() {
	var list []renderer.BarSeries
	var owners [][2]int
	c.barTile = 0
	var width, radius float64
	first := true

	for i, st := range c.series {
		if st.typ != SeriesBar && st.typ != SeriesHistogram {
			continue
		}
		so := &c.opts.Series[i]
		if first {
			first = false
			c.barTile = st.tile
			width = so.BarWidth
			radius = so.CornerRadius
		}
		f := c.data.Floats(i)
		n := len(f) / 2
		vals := make([]float32, n)
		xs := make([]float32, n)
		for j := 0; j < n; j++ {
			xs[j] = f[2*j]
			vals[j] = f[2*j+1]
		}
		list = append(list, renderer.BarSeries{
			Values: vals,
			XS:     xs,
			Color:  colorVec(c.seriesColor(i)),
			Stack:  so.Stack,
		})
		for j := 0; j < n; j++ {
			v := float64(vals[j])
			if math.IsNaN(v) || v == 0 {
				continue
			}
			owners = append(owners, [2]int{i, j})
		}
	}

	if len(list) == 0 {
		if c.bars != nil {
			c.bars.SetQuads(nil)
		}
		c.barRects, c.barOwners = nil, nil
		return
	}
	if c.bars == nil {
		c.bars = renderer.NewQuadRenderer(c.pipes, true)
	}
	if width <= 0 || width > 1 {
		width = 0.7
	}

	xa, xb := scaleAB(c.xScales[c.barTile])
	ya, yb := scaleAB(c.yScales[c.barTile])
	band := float32(math.Abs(float64(xa)) * minPositiveGap(list[0].XS))
	quads := renderer.BuildBars(list, renderer.BarBatch{
		XA: xa, XB: xb, YA: ya, YB: yb,
		Band:   band,
		Gap:    float32(1 - width),
		Radius: float32(radius),
	})
	c.bars.SetQuads(quads)

	if len(quads) != len(owners) {
		c.barRects, c.barOwners = nil, nil
		return
	}
	rects := make([][4]float64, len(quads))
	for qi, q := range quads {
		hw, hh := float64(q.Params[0]), float64(q.Params[1])
		cx, cy := float64(q.Center[0]), float64(q.Center[1])
		rects[qi] = [4]float64{cx - hw, cy - hh, cx + hw, cy + hh}
	}
	c.barRects, c.barOwners = rects, owners
}

// minPositiveGap returns the smallest positive step between consecutive
// x values, in domain units. One domain unit when fewer than two points
// or no positive step exists (category bars land here).
func minPositiveGap(xs []float32) float64 {
	gap := math.Inf(1)
	for j := 1; j < len(xs); j++ {
		if d := float64(xs[j] - xs[j-1]); d > 0 && d < gap {
			gap = d
		}
	}
	if math.IsInf(gap, 1) {
		return 1
	}
	return gap
}

// buildPie expands a pie series into wedge quads and retains the hit
// geometry. Slices cycle the palette in row order. Caller holds c.mu.
func (c *Chart) buildPie(idx int, st *seriesState) {
	t := c.tiles[st.tile]
	f := c.data.Floats(idx)
	n := len(f) / 2
	slices := make([]renderer.PieSlice, 0, n)
	for j := 0; j < n; j++ {
		slices = append(slices, renderer.PieSlice{
			Value: f[2*j+1],
			Color: colorVec(PaletteColor("", j, c.palette)),
		})
	}

	so := &c.opts.Series[idx]
	cxf, cyf := so.PieCenter[0], so.PieCenter[1]
	if cxf == 0 {
		cxf = 0.5
	}
	if cyf == 0 {
		cyf = 0.5
	}
	cx := t.X + t.W*cxf
	cy := t.Y + t.H*cyf
	outer := so.PieRadius
	if outer <= 0 {
		outer = 0.4 * math.Min(t.W, t.H)
	}
	// Config angles run counter-clockwise from +x; screen y points down,
	// so the screen angle is negated.
	start := -so.PieStartAngle * math.Pi / 180

	quads, spans := renderer.BuildPieWedges(slices,
		[2]float32{float32(cx), float32(cy)}, 0, float32(outer), float32(start))
	st.quads.SetQuads(quads)

	st.pieCenter = [2]float64{cx, cy}
	st.pieInner, st.pieOuter = 0, outer
	st.pieSpans = st.pieSpans[:0]
	for _, s := range spans {
		st.pieSpans = append(st.pieSpans, [2]float64{float64(s[0]), float64(s[1])})
	}
}

// buildHeatmap expands a heatmap series into cell quads. Data rows index
// categories bottom-up while cell rows count from the top, hence the
// flip. Caller holds c.mu.
func (c *Chart) buildHeatmap(idx int, st *seriesState) {
	t := c.tiles[st.tile]
	f := c.data.Floats(idx)
	cols := len(c.opts.XAxis.Categories)
	rows := len(c.opts.YAxis.Categories)

	vmin, vmax := math.Inf(1), math.Inf(-1)
	maxCol, maxRow := -1, -1
	cells := make([]renderer.HeatmapCell, 0, len(f)/3)
	for k := 0; k+3 <= len(f); k += 3 {
		col := int(math.Round(float64(f[k])))
		row := int(math.Round(float64(f[k+1])))
		v := float64(f[k+2])
		if col > maxCol {
			maxCol = col
		}
		if row > maxRow {
			maxRow = row
		}
		if math.IsNaN(v) {
			continue // absent cell
		}
		if v < vmin {
			vmin = v
		}
		if v > vmax {
			vmax = v
		}
		cells = append(cells, renderer.HeatmapCell{Col: col, Row: row, Value: v})
	}
	if cols == 0 {
		cols = maxCol + 1
	}
	if rows == 0 {
		rows = maxRow + 1
	}
	for j := range cells {
		cells[j].Row = rows - 1 - cells[j].Row
	}

	cm := c.colormapOf(idx)
	st.quads.SetQuads(renderer.BuildHeatmapCells(cells, cols, rows, rectVec(t), colormapFunc(cm), vmin, vmax))
}

// colormapOf resolves the colormap of a heatmap or density series:
// explicit stops win, then the named map, then viridis.
func (c *Chart) colormapOf(idx int) Colormap {
	so := &c.opts.Series[idx]
	if len(so.ColormapStops) > 0 {
		return NewColormap(so.ColormapStops)
	}
	if cm, ok := ColormapByName(so.Colormap); ok {
		return cm
	}
	return Viridis
}

// buildLabels recomputes both axes' tick labels and publishes the set
// when it differs from the last published one. Caller holds c.mu.
func (c *Chart) buildLabels() {
	set := overlay.BuildAxisLabels(c.xTickSet(), c.yTickSet(), c.plot, c.measurer,
		overlay.LabelStyle{FontSize: labelFontSize, XRotation: c.opts.XAxis.LabelRotation},
		c.opts.XAxis.Name, c.opts.YAxis.Name)
	if c.labelsSent && labelSetsEqual(set, c.lastLabels) {
		return
	}
	c.lastLabels = set
	c.labelsSent = true
	c.queueEmit(func() { c.broker.PublishAxisLabels(set) })
}

// xTickSet computes x ticks against the full plot rect; facet tiles
// share the window, so labels describe all of them.
func (c *Chart) xTickSet() []overlay.AxisTick {
	ax := &c.opts.XAxis
	px := scale.NewLinear(c.visX[0], c.visX[1], c.plot.X, c.plot.MaxX())
	count := ax.SplitNumber
	if count <= 0 {
		count = 6
	}
	var out []overlay.AxisTick
	switch ax.Kind {
	case AxisCategory:
		lo := int(math.Ceil(c.visX[0]))
		hi := int(math.Floor(c.visX[1]))
		if lo < 0 {
			lo = 0
		}
		if hi > len(ax.Categories)-1 {
			hi = len(ax.Categories) - 1
		}
		if hi < lo {
			return nil
		}
		step := (hi - lo + 12) / 12 // label at most a dozen bands
		for i := lo; i <= hi; i += step {
			out = append(out, overlay.AxisTick{CSS: px.Apply(float64(i)), Text: ax.Categories[i]})
		}
	case AxisTime:
		span := c.visX[1] - c.visX[0]
		for _, tv := range scale.TimeTicks(c.visX[0], c.visX[1], count) {
			out = append(out, overlay.AxisTick{CSS: px.Apply(tv), Text: overlay.FormatTime(tv, span)})
		}
	default:
		for _, tv := range scale.Ticks(c.visX[0], c.visX[1], count) {
			out = append(out, overlay.AxisTick{CSS: px.Apply(tv), Text: overlay.FormatValue(tv)})
		}
	}
	return out
}

func (c *Chart) yTickSet() []overlay.AxisTick {
	ax := &c.opts.YAxis
	px := scale.NewLinear(c.yDom[0], c.yDom[1], c.plot.MaxY(), c.plot.Y)
	count := ax.SplitNumber
	if count <= 0 {
		count = 5
	}
	var out []overlay.AxisTick
	if ax.Kind == AxisCategory {
		n := len(ax.Categories)
		for i := 0; i < n; i++ {
			out = append(out, overlay.AxisTick{CSS: px.Apply(float64(i)), Text: ax.Categories[i]})
		}
		return out
	}
	for _, tv := range scale.Ticks(c.yDom[0], c.yDom[1], count) {
		out = append(out, overlay.AxisTick{CSS: px.Apply(tv), Text: overlay.FormatValue(tv)})
	}
	return out
}

func labelSetsEqual(a, b overlay.AxisLabelSet) bool {
	if len(a.XLabels) != len(b.XLabels) || len(a.YLabels) != len(b.YLabels) {
		return false
	}
	for i := range a.XLabels {
		if a.XLabels[i] != b.XLabels[i] {
			return false
		}
	}
	for i := range a.YLabels {
		if a.YLabels[i] != b.YLabels[i] {
			return false
		}
	}
	return true
}

// rebuildCrosshair rebuilds the vertical line quads. Facet tiles share
// the x domain, so the line appears in every tile the position falls
// inside. Caller holds c.mu.
func (c *Chart) rebuildCrosshair() {
	x, on := c.engine.Crosshair()
	if !on {
		c.cross.SetQuads(nil)
		return
	}
	var quads []renderer.Quad
	col := colorVec(c.theme.CrosshairLine)
	for i, t := range c.tiles {
		px := c.xScales[i].Apply(x)
		if px < t.X || px > t.MaxX() {
			continue
		}
		quads = append(quads, renderer.Quad{
			Kind:   renderer.QuadRect,
			Center: [2]float32{float32(px), float32(t.Y + t.H/2)},
			Half:   [2]float32{crosshairHalfW, float32(t.H / 2)},
			Color:  col,
		})
	}
	c.cross.SetQuads(quads)
}

// prepareSeries pushes the per-frame draw state into every renderer.
// Runs each frame, after relayout when the layout was dirty.
// Caller holds c.mu.
func (c *Chart) prepareSeries() error {
	vp := [2]float32{float32(c.widthCSS), float32(c.heightCSS)}

	for i, st := range c.series {
		t := c.tiles[st.tile]
		in := renderer.Input{
			Viewport: vp,
			Plot:     rectVec(t),
		}
		in.XA, in.XB = scaleAB(c.xScales[st.tile])
		in.YA, in.YB = scaleAB(c.yScales[st.tile])

		switch {
		case st.pull != nil:
			so := &c.opts.Series[i]
			view, err := c.data.DisplayView(i, sampleKindOf(so.Sampling), so.SamplingThreshold)
			if err != nil {
				return fmt.Errorf("series %d: %w", i, err)
			}
			if view.Buffer == nil || view.Count == 0 {
				st.visible = false
				continue
			}
			st.visible = true
			in.Data = view.Buffer
			in.DataSize = view.Capacity
			in.Count = view.Count
			c.fillSeriesStyle(i, st, &in)
			if err := st.pull.Prepare(in); err != nil {
				return fmt.Errorf("series %d: %w", i, err)
			}

		case st.density != nil:
			n := c.data.Count(i)
			if n == 0 || c.data.Buffer(i) == nil {
				st.visible = false
				continue
			}
			st.visible = true
			in.Data = c.data.Buffer(i)
			in.DataSize = c.data.BufferCapacity(i)
			in.Count = n
			so := &c.opts.Series[i]
			cell := so.DensityCellSize
			if cell <= 0 {
				cell = 4
			}
			cols, rows := int(t.W/cell), int(t.H/cell)
			if cols < 1 {
				cols = 1
			}
			if rows < 1 {
				rows = 1
			}
			st.density.SetGrid(cols, rows)
			st.density.SetCurve(int(so.DensityCurve))
			st.density.SetColormap(colormapFunc(c.colormapOf(i)))
			if err := st.density.Prepare(in); err != nil {
				return fmt.Errorf("series %d: %w", i, err)
			}

		case st.quads != nil:
			st.visible = true
			if err := st.quads.Prepare(in); err != nil {
				return fmt.Errorf("series %d: %w", i, err)
			}

		default:
			// Bar and histogram series draw through the shared batch.
			st.visible = false
		}
	}

	if c.bars != nil {
		in := renderer.Input{Viewport: vp, Plot: rectVec(c.tiles[c.barTile])}
		if err := c.bars.Prepare(in); err != nil {
			return fmt.Errorf("bars: %w", err)
		}
	}
	in := renderer.Input{Viewport: vp, Plot: rectVec(c.plot)}
	if err := c.cross.Prepare(in); err != nil {
		return fmt.Errorf("crosshair: %w", err)
	}
	return nil
}

// fillSeriesStyle sets the colors and shader params of one pulling
// series. Params slots are documented on the renderer ctors.
func (c *Chart) fillSeriesStyle(idx int, st *seriesState, in *renderer.Input) {
	so := &c.opts.Series[idx]
	color := c.seriesColor(idx)
	in.Color = colorVec(color)

	switch st.typ {
	case SeriesLine:
		w := so.LineWidth
		if w <= 0 {
			w = 2
		}
		in.Params[0] = float32(w)

	case SeriesArea:
		op := 0.25
		fill := color
		if a := so.AreaStyle; a != nil {
			if a.Opacity > 0 {
				op = a.Opacity
			}
			if a.Color != "" {
				if p, ok := ParseColor(a.Color); ok {
					fill = p
				}
			}
		}
		top, base := fill, fill
		top.A *= op
		base.A *= op * 0.05
		in.Color = colorVec(top)
		in.Color2 = colorVec(base)
		in.Params[0] = float32(c.areaBaseline())

	case SeriesScatter:
		d := so.SymbolSize
		if d <= 0 {
			d = 8
		}
		in.Params[0] = float32(d)
		in.Params[1] = float32(so.Symbol)

	case SeriesCandlestick:
		up, ok := ParseColor(so.UpColor)
		if !ok {
			up = Hex("#26a69a")
		}
		down, ok := ParseColor(so.DownColor)
		if !ok {
			down = Hex("#ef5350")
		}
		in.Color = colorVec(up)
		in.Color2 = colorVec(down)
		body := c.candleBodyPx(idx, st)
		wick := body * 0.15
		if wick < 1 {
			wick = 1
		}
		in.Params[0] = body
		in.Params[1] = wick
		if so.CandleStyle == CandleHollow {
			in.Params[2] = 1
		}
	}
}

// areaBaseline clamps the zero line into the y domain so the fill
// degrades to the nearer edge when zero is off-axis.
func (c *Chart) areaBaseline() float64 {
	b := 0.0
	if b < c.yDom[0] {
		b = c.yDom[0]
	}
	if b > c.yDom[1] {
		b = c.yDom[1]
	}
	return b
}

// candleBodyPx derives the candle body width from the smallest time gap
// between consecutive candles, 70% of the slot.
func (c *Chart) candleBodyPx(idx int, st *seriesState) float32 {
	f := c.data.Floats(idx)
	n := len(f) / 5
	gap := math.Inf(1)
	for j := 1; j < n; j++ {
		if d := float64(f[5*j] - f[5*(j-1)]); d > 0 && d < gap {
			gap = d
		}
	}
	if math.IsInf(gap, 1) {
		return 6
	}
	xa, _ := scaleAB(c.xScales[st.tile])
	body := math.Abs(float64(xa)) * gap * 0.7
	if body < 1 {
		body = 1
	}
	return float32(body)
}

// ===== Small conversions =====

func colorVec(c RGBA) [4]float32 {
	p := c.Premultiply()
	return [4]float32{float32(p.R), float32(p.G), float32(p.B), float32(p.A)}
}

func colormapFunc(cm Colormap) renderer.ColorFunc {
	return func(t float32) [4]float32 {
		return colorVec(cm.At(float64(t)))
	}
}

func scaleAB(s scale.Linear) (float32, float32) {
	d0, d1 := s.Domain()
	r0, r1 := s.Range()
	return renderer.LinearCoeffs(d0, d1, r0, r1)
}

func rectVec(r scale.Rect) [4]float32 {
	return [4]float32{float32(r.X), float32(r.Y), float32(r.W), float32(r.H)}
}

func sampleKindOf(k SamplingKind) store.SampleKind {
	switch k {
	case SamplingLTTB:
		return store.SampleLTTB
	case SamplingAverage:
		return store.SampleAverage
	case SamplingMax:
		return store.SampleMax
	case SamplingMin:
		return store.SampleMin
	case SamplingOHLC:
		return store.SampleOHLC
	default:
		return store.SampleNone
	}
}
