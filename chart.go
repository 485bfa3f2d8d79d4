package chartgpu

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/chartgpu/internal/gpu"
	"github.com/gogpu/chartgpu/internal/interact"
	"github.com/gogpu/chartgpu/internal/renderer"
	"github.com/gogpu/chartgpu/internal/scale"
	"github.com/gogpu/chartgpu/internal/sched"
	"github.com/gogpu/chartgpu/internal/store"
	"github.com/gogpu/chartgpu/overlay"
)

// seriesState is the per-series render state the coordinator keeps
// between frames. Bar and histogram series leave all renderer fields
// nil and draw through the chart's shared bar batch instead.
type seriesState struct {
	typ SeriesType

	pull    *renderer.PullingRenderer
	density *renderer.DensityRenderer
	quads   *renderer.QuadRenderer

	visible bool
	tile    int

	// Pie hit geometry retained from the last quad build.
	pieSpans  [][2]float64
	pieCenter [2]float64
	pieInner  float64
	pieOuter  float64
}

func newSeriesState(p *renderer.Pipelines, typ SeriesType) *seriesState {
	st := &seriesState{typ: typ}
	switch typ {
	case SeriesLine:
		st.pull = renderer.NewLine(p)
	case SeriesArea:
		st.pull = renderer.NewArea(p)
	case SeriesScatter:
		st.pull = renderer.NewScatter(p)
	case SeriesCandlestick:
		st.pull = renderer.NewCandle(p)
	case SeriesScatterDensity:
		st.density = renderer.NewDensityRenderer(p)
	case SeriesPie:
		st.quads = renderer.NewQuadRenderer(p, false)
	case SeriesHeatmap:
		st.quads = renderer.NewQuadRenderer(p, true)
	}
	return st
}

func (st *seriesState) destroy() {
	if st.pull != nil {
		st.pull.Destroy()
		st.pull = nil
	}
	if st.density != nil {
		st.density.Destroy()
		st.density = nil
	}
	if st.quads != nil {
		st.quads.Destroy()
		st.quads = nil
	}
}

// seriesLayout maps a series type to its store packing.
func seriesLayout(typ SeriesType) store.Layout {
	switch typ {
	case SeriesCandlestick:
		return store.LayoutOHLC
	case SeriesHeatmap:
		return store.LayoutCell
	default:
		return store.LayoutXY
	}
}

// Chart is one GPU-rendered chart instance: a device context, the
// per-series data store and renderers, the frame scheduler, the pointer
// interaction engine, and the overlay broker, coordinated behind a
// single mutex.
//
// Public methods are safe for concurrent use. Callbacks fire after the
// lock is released, so handlers may call back into the chart.
type Chart struct {
	mu sync.Mutex

	cfg chartConfig
	cb  Callbacks

	ctx      *gpu.Context
	surface  *gpu.Surface
	pipes    *renderer.Pipelines
	data     *store.Store
	engine   *interact.Engine
	broker   *overlay.Broker
	measurer *overlay.Measurer
	sched    *sched.Scheduler

	opts    *ResolvedOptions
	theme   Theme
	palette []RGBA
	animate bool

	widthCSS  float64
	heightCSS float64
	dpr       float64

	// Dirty flags, flushed in order at the head of each frame.
	dataDirty     bool
	layoutDirty   bool
	interactDirty bool

	plot    scale.Rect   // inner plot after margins and legend inset
	legend  scale.Rect   // reserved legend band, zero when none
	tiles   []scale.Rect // facet tiles; a single entry without faceting
	xScales []scale.Linear
	yScales []scale.Linear
	xDom    [2]float64 // full x extent before windowing
	visX    [2]float64 // zoom-windowed x domain
	yDom    [2]float64

	series []*seriesState

	// Shared bar batch: stacking spans series, so every bar and
	// histogram series expands into one quad set.
	bars      *renderer.QuadRenderer
	barTile   int
	barRects  [][4]float64
	barOwners [][2]int

	cross *renderer.QuadRenderer

	hover       *overlay.HitInfo
	lastTooltip *overlay.TooltipPayload
	lastLabels  overlay.AxisLabelSet
	labelsSent  bool

	// pending holds event emissions queued under the lock and fired
	// after it is released.
	pending []func()

	zoomSubs map[int]func(ZoomRange, string)
	xSubs    map[int]func(*float64, string)
	nextSub  int

	disposed bool
	lost     bool
}

// New creates a chart, acquires a GPU device, applies the initial
// options, and starts the render loop. The chart renders into an
// offscreen surface sized by WithSize (600x400 at DPR 1 by default)
// until Resize says otherwise.
func New(opts *ResolvedOptions, cb Callbacks, options ...Option) (*Chart, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cfg := defaultChartConfig()
	for _, o := range options {
		o(&cfg)
	}
	if dh, ok := cfg.provider.(DeviceHandle); ok && dh.Device() == nil {
		// Null handle: the host has no device to share.
		cfg.provider = nil
	}

	ctx, err := gpu.NewContext(gpu.Config{Provider: cfg.provider, Power: gpu.PowerPreference(cfg.power)})
	if err != nil {
		return nil, NewError(CodeGraphicsInitFailed, "init", "acquire GPU device", err)
	}

	c := &Chart{
		cfg:       cfg,
		cb:        cb,
		ctx:       ctx,
		surface:   gpu.NewSurface(ctx.Device()),
		pipes:     renderer.NewPipelines(ctx.Device(), ctx.Queue()),
		measurer:  overlay.NewMeasurer(),
		widthCSS:  cfg.widthCSS,
		heightCSS: cfg.heightCSS,
		dpr:       cfg.dpr,
		zoomSubs:  map[int]func(ZoomRange, string){},
		xSubs:     map[int]func(*float64, string){},
	}
	c.data = store.New(ctx.Device(), ctx.Queue())
	c.cross = renderer.NewQuadRenderer(c.pipes, true)

	mode := overlay.ModeEmbedded
	if cfg.overlayMode == OverlayHost {
		mode = overlay.ModeHost
	}
	c.broker = overlay.NewBroker(mode)
	if cfg.widgets != nil {
		c.broker.SetHost(cfg.widgets)
	}
	c.broker.SetCallbacks(c.overlayCallbacks())

	if cfg.fontData != nil {
		if err := c.measurer.SetFont(cfg.fontData); err != nil {
			c.destroyGraphics()
			c.ctx.Destroy()
			return nil, NewError(CodeInvalidArgument, "init", "label font", err)
		}
	}
	if err := c.surface.Ensure(c.devicePx()); err != nil {
		c.destroyGraphics()
		c.ctx.Destroy()
		return nil, NewError(CodeGraphicsInitFailed, "init", "create surface", err)
	}

	c.engine = interact.NewEngine(SourceUser)
	c.engine.DomainX = c.domainAt
	c.engine.OnCrosshair = c.onEngineCrosshair
	c.engine.OnHover = c.onEngineHover
	c.engine.OnClick = c.onEngineClick
	c.engine.OnZoom = c.onEngineZoom
	c.engine.OnLeave = c.onEngineLeave

	c.sched = sched.New(sched.Config{
		TargetFPS: cfg.targetFPS,
		Render:    c.renderFrame,
		OnError:   c.onRenderError,
	})
	ctx.OnLost(c.onDeviceLost)

	c.mu.Lock()
	applyErr := c.applyOptions(opts)
	if applyErr != nil {
		c.disposed = true
		c.pending = nil
		c.mu.Unlock()
		c.teardown()
		return nil, applyErr
	}
	fire := c.drainLocked()
	c.mu.Unlock()
	runAll(fire)

	c.sched.Start()
	c.sched.MarkDirty()
	return c, nil
}

// destroyGraphics releases the chart-owned GPU objects. The context is
// destroyed separately: Context.Destroy fires loss callbacks on the
// calling goroutine, so it must never run under c.mu.
func (c *Chart) destroyGraphics() {
	c.cross.Destroy()
	c.data.Dispose()
	c.pipes.Destroy()
	c.surface.Destroy()
}

// overlayCallbacks adapts the root callback surface to the broker's.
func (c *Chart) overlayCallbacks() overlay.Callbacks {
	cb := c.cb
	out := overlay.Callbacks{
		OnTooltip:     cb.OnTooltip,
		OnLegend:      cb.OnLegend,
		OnAxisLabels:  cb.OnAxisLabels,
		OnHoverChange: cb.OnHover,
		OnClick:       cb.OnClick,
	}
	if cb.OnCrosshairMove != nil {
		out.OnCrosshairMove = func(xDomain, xCSS float64, visible bool, source string) {
			if !visible {
				cb.OnCrosshairMove(nil, xCSS, source)
				return
			}
			x := xDomain
			cb.OnCrosshairMove(&x, xCSS, source)
		}
	}
	if cb.OnZoomChange != nil {
		out.OnZoomChange = func(start, end float64, source string) {
			cb.OnZoomChange(ZoomRange{Start: start, End: end}, source)
		}
	}
	return out
}

func (c *Chart) devicePx() (uint32, uint32) {
	return uint32(math.Round(c.widthCSS * c.dpr)), uint32(math.Round(c.heightCSS * c.dpr))
}

// queueEmit defers an event emission until the lock is released.
// Caller holds c.mu.
func (c *Chart) queueEmit(f func()) { c.pending = append(c.pending, f) }

func (c *Chart) drainLocked() []func() {
	p := c.pending
	c.pending = nil
	return p
}

func runAll(fns []func()) {
	for _, f := range fns {
		f()
	}
}

// applyOptions swaps the options tree and reconciles every dependent
// subsystem: store layouts, renderers, interaction config, legend.
// Initial Data rows replace series content. Caller holds c.mu.
func (c *Chart) applyOptions(opts *ResolvedOptions) error {
	c.opts = opts
	c.theme = opts.ResolvedTheme()
	c.palette = opts.ResolvedPalette()
	c.animate = opts.Animation != nil && opts.Animation.Enabled

	layouts := make([]store.Layout, len(opts.Series))
	for i := range opts.Series {
		layouts[i] = seriesLayout(opts.Series[i].Type)
	}
	c.data.Reset(layouts)
	c.reconcileRenderers()
	c.configureInteraction()
	c.queueLegend()
	c.hover = nil
	c.lastTooltip = nil
	c.labelsSent = false
	c.dataDirty = true
	c.layoutDirty = true

	for i := range opts.Series {
		rows := opts.Series[i].Data
		if len(rows) == 0 {
			continue
		}
		if err := c.data.Replace(i, normalizeRows(opts.Series[i].Type, rows)); err != nil {
			return NewError(CodeDataError, "setOptions",
				fmt.Sprintf("series %d initial data", i), err)
		}
	}
	return nil
}

// reconcileRenderers keeps renderer state for series whose type at an
// index is unchanged and rebuilds the rest. Caller holds c.mu.
func (c *Chart) reconcileRenderers() {
	old := c.series
	c.series = make([]*seriesState, len(c.opts.Series))
	for i := range c.opts.Series {
		typ := c.opts.Series[i].Type
		if i < len(old) && old[i] != nil && old[i].typ == typ {
			c.series[i] = old[i]
			old[i] = nil
			continue
		}
		c.series[i] = newSeriesState(c.pipes, typ)
	}
	for _, st := range old {
		if st != nil {
			st.destroy()
		}
	}
}

// configureInteraction pushes the zoom options into the engine and, if
// the configured window differs from the stored one, publishes the
// change with the API source tag. Caller holds c.mu.
func (c *Chart) configureInteraction() {
	z := c.opts.Zoom
	if z == nil {
		c.engine.ConfigureZoom(false, interact.Limits{}, 0)
		return
	}
	c.engine.ConfigureZoom(true, interact.Limits{MinSpan: z.MinSpan, MaxSpan: z.MaxSpan}, z.WheelSensitivity)
	if w, changed := c.engine.SetZoom(interact.Window{Start: z.Start, End: z.End}, SourceAPI); changed {
		c.queueZoom(w, SourceAPI)
	}
}

// queueLegend snapshots the legend payload and queues its publication.
// Caller holds c.mu.
func (c *Chart) queueLegend() {
	items := make([]overlay.LegendItem, 0, len(c.opts.Series))
	for i := range c.opts.Series {
		name := c.opts.Series[i].Name
		if name == "" {
			name = fmt.Sprintf("series %d", i)
		}
		items = append(items, overlay.LegendItem{
			Name:        name,
			ColorCSS:    c.seriesColor(i).CSS(),
			SeriesIndex: i,
		})
	}
	c.queueEmit(func() { c.broker.PublishLegend(items) })
}

// seriesColor resolves the effective color of series idx.
func (c *Chart) seriesColor(idx int) RGBA {
	return PaletteColor(c.opts.Series[idx].Color, idx, c.palette)
}

// normalizeRows maps wire row order to the store layout. Candlestick
// rows arrive as [t, open, close, low, high] and are stored as
// [t, open, high, low, close].
func normalizeRows(typ SeriesType, rows [][]float64) [][]float64 {
	if typ != SeriesCandlestick {
		return rows
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		if len(r) != 5 {
			out[i] = r // let the store report the width mismatch
			continue
		}
		out[i] = []float64{r[0], r[1], r[4], r[3], r[2]}
	}
	return out
}

// ===== Public operations =====

// SetOptions replaces the options tree. Series keep their renderers and
// GPU buffers where the type at an index is unchanged; everything else
// is rebuilt, and initial Data rows in the new options replace series
// content.
func (c *Chart) SetOptions(opts *ResolvedOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	if err := c.guardLocked("setOptions"); err != nil {
		c.mu.Unlock()
		return err
	}
	applyErr := c.applyOptions(opts)
	fire := c.drainLocked()
	c.mu.Unlock()
	runAll(fire)
	if applyErr != nil {
		return applyErr
	}
	c.sched.MarkDirty()
	return nil
}

// guardLocked rejects operations on disposed or lost charts.
// Caller holds c.mu.
func (c *Chart) guardLocked(op string) error {
	if c.disposed {
		return NewError(CodeDisposed, op, "chart is disposed", nil)
	}
	if c.lost {
		return NewError(CodeDeviceLost, op, "GPU device lost", nil)
	}
	return nil
}

// AppendData appends rows to one series and schedules a redraw. Row
// layouts follow the series type: [x, y] for point series,
// [t, open, close, low, high] for candlestick, [x, y, value] for
// heatmap cells. With AutoScroll on and the zoom window pinned to the
// tail, the window slides so the visible point count stays constant.
func (c *Chart) AppendData(seriesIdx int, rows [][]float64) error {
	c.mu.Lock()
	if err := c.guardLocked("appendData"); err != nil {
		c.mu.Unlock()
		return err
	}
	if seriesIdx < 0 || seriesIdx >= len(c.series) {
		n := len(c.series)
		c.mu.Unlock()
		return NewError(CodeDataError, "appendData",
			fmt.Sprintf("series %d out of range (%d series)", seriesIdx, n), nil)
	}
	prev := c.data.Count(seriesIdx)
	if err := c.data.Append(seriesIdx, normalizeRows(c.series[seriesIdx].typ, rows)); err != nil {
		c.mu.Unlock()
		return NewError(CodeDataError, "appendData", "append rows", err)
	}
	c.autoScroll(prev, c.data.Count(seriesIdx))
	c.dataDirty = true
	fire := c.drainLocked()
	c.mu.Unlock()
	runAll(fire)
	c.sched.MarkDirty()
	return nil
}

// SeriesAppend is one batch entry for AppendDataBatch.
type SeriesAppend struct {
	SeriesIndex int
	Rows        [][]float64
}

// AppendDataBatch appends to several series as one update: a single
// redraw and at most one auto-scroll adjustment, driven by the series
// whose count grew the most.
func (c *Chart) AppendDataBatch(batch []SeriesAppend) error {
	c.mu.Lock()
	if err := c.guardLocked("appendData"); err != nil {
		c.mu.Unlock()
		return err
	}
	bestOld, bestNew := 0, 0
	for _, b := range batch {
		if b.SeriesIndex < 0 || b.SeriesIndex >= len(c.series) {
			n := len(c.series)
			c.mu.Unlock()
			return NewError(CodeDataError, "appendData",
				fmt.Sprintf("series %d out of range (%d series)", b.SeriesIndex, n), nil)
		}
		prev := c.data.Count(b.SeriesIndex)
		if err := c.data.Append(b.SeriesIndex, normalizeRows(c.series[b.SeriesIndex].typ, b.Rows)); err != nil {
			c.mu.Unlock()
			return NewError(CodeDataError, "appendData", "append rows", err)
		}
		if now := c.data.Count(b.SeriesIndex); now > bestNew {
			bestOld, bestNew = prev, now
		}
	}
	c.autoScroll(bestOld, bestNew)
	c.dataDirty = true
	fire := c.drainLocked()
	c.mu.Unlock()
	runAll(fire)
	c.sched.MarkDirty()
	return nil
}

// BinaryAppend is one transferred wire payload for AppendBinary and
// AppendBinaryBatch.
type BinaryAppend struct {
	SeriesIndex int
	Payload     []byte
	Count       int
	Stride      int
}

// AppendBinary appends a transferred flat payload without cloning it.
// The payload holds Count points in the series' lane layout: stride
// 4 bytes per lane for f32 payloads or 8 for f64 (re-packed to f32 by
// the store). Candlestick payloads are already canonical
// [t, open, high, low, close]; binary ingress skips row normalization.
func (c *Chart) AppendBinary(seriesIdx int, payload []byte, count, stride int) error {
	c.mu.Lock()
	if err := c.guardLocked("appendData"); err != nil {
		c.mu.Unlock()
		return err
	}
	prev, now, err := c.appendBinaryLocked(seriesIdx, payload, count, stride)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.autoScroll(prev, now)
	c.dataDirty = true
	fire := c.drainLocked()
	c.mu.Unlock()
	runAll(fire)
	c.sched.MarkDirty()
	return nil
}

// AppendBinaryBatch applies several transferred payloads as one update,
// like AppendDataBatch does for rows.
func (c *Chart) AppendBinaryBatch(batch []BinaryAppend) error {
	c.mu.Lock()
	if err := c.guardLocked("appendData"); err != nil {
		c.mu.Unlock()
		return err
	}
	bestOld, bestNew := 0, 0
	for _, b := range batch {
		prev, now, err := c.appendBinaryLocked(b.SeriesIndex, b.Payload, b.Count, b.Stride)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		if now > bestNew {
			bestOld, bestNew = prev, now
		}
	}
	c.autoScroll(bestOld, bestNew)
	c.dataDirty = true
	fire := c.drainLocked()
	c.mu.Unlock()
	runAll(fire)
	c.sched.MarkDirty()
	return nil
}

// appendBinaryLocked validates one wire payload against the series
// layout and feeds it to the store, reinterpreting the bytes in place.
// Caller holds c.mu.
func (c *Chart) appendBinaryLocked(seriesIdx int, payload []byte, count, stride int) (prev, now int, err error) {
	if seriesIdx < 0 || seriesIdx >= len(c.series) {
		return 0, 0, NewError(CodeDataError, "appendData",
			fmt.Sprintf("series %d out of range (%d series)", seriesIdx, len(c.series)), nil)
	}
	if count < 0 || stride <= 0 {
		return 0, 0, NewError(CodeDataError, "appendData",
			fmt.Sprintf("bad payload shape: count %d, stride %d", count, stride), nil)
	}
	if len(payload) != count*stride {
		return 0, 0, NewError(CodeDataError, "appendData",
			fmt.Sprintf("payload is %d bytes, want count %d x stride %d", len(payload), count, stride), nil)
	}
	prev = c.data.Count(seriesIdx)
	if count == 0 {
		return prev, prev, nil
	}
	fpp := c.data.Layout(seriesIdx).FloatsPerPoint()
	base := unsafe.Pointer(&payload[0])
	switch stride {
	case 4 * fpp:
		if uintptr(base)%4 != 0 {
			return 0, 0, NewError(CodeDataError, "appendData", "payload is not 4-byte aligned", nil)
		}
		err = c.data.AppendFlat32(seriesIdx, unsafe.Slice((*float32)(base), count*fpp)) //nolint:gosec // transferred buffer, alignment checked
	case 8 * fpp:
		if uintptr(base)%8 != 0 {
			return 0, 0, NewError(CodeDataError, "appendData", "payload is not 8-byte aligned", nil)
		}
		err = c.data.AppendFlat64(seriesIdx, unsafe.Slice((*float64)(base), count*fpp)) //nolint:gosec // transferred buffer, alignment checked
	default:
		return 0, 0, NewError(CodeDataError, "appendData",
			fmt.Sprintf("stride %d does not match a %d-lane point", stride, fpp), nil)
	}
	if err != nil {
		return 0, 0, NewError(CodeDataError, "appendData", "append payload", err)
	}
	return prev, c.data.Count(seriesIdx), nil
}

// autoScroll slides a tail-pinned zoom window left so the number of
// visible points survives an append. Caller holds c.mu.
func (c *Chart) autoScroll(oldCount, newCount int) {
	if c.opts == nil || !c.opts.AutoScroll || !c.engine.ZoomEnabled() {
		return
	}
	if oldCount <= 0 || newCount <= oldCount {
		return
	}
	z := c.engine.Zoom()
	if z.End < 100-1e-9 || z.Span() >= 100 {
		return
	}
	span := z.Span() * float64(oldCount) / float64(newCount)
	if w, changed := c.engine.SetZoom(interact.Window{Start: 100 - span, End: 100}, SourceAutoScr); changed {
		c.layoutDirty = true
		c.queueZoom(w, SourceAutoScr)
	}
}

// Resize updates the CSS size and device pixel ratio and re-allocates
// the surface at the new device pixel size.
func (c *Chart) Resize(widthCSS, heightCSS, dpr float64) error {
	if !(widthCSS > 0) || !(heightCSS > 0) || !(dpr > 0) ||
		math.IsInf(widthCSS, 0) || math.IsInf(heightCSS, 0) || math.IsInf(dpr, 0) {
		return NewError(CodeInvalidArgument, "resize",
			fmt.Sprintf("bad size %gx%g at dpr %g", widthCSS, heightCSS, dpr), nil)
	}
	c.mu.Lock()
	if err := c.guardLocked("resize"); err != nil {
		c.mu.Unlock()
		return err
	}
	c.widthCSS, c.heightCSS, c.dpr = widthCSS, heightCSS, dpr
	if err := c.surface.Ensure(c.devicePx()); err != nil {
		c.mu.Unlock()
		return NewError(CodeRenderError, "resize", "resize surface", err)
	}
	c.layoutDirty = true
	c.mu.Unlock()
	c.sched.MarkDirty()
	return nil
}

// SetZoomRange drives the zoom window programmatically, in percent of
// the data extent. The window is clamped to the configured span limits;
// a write that does not change the stored window emits nothing. Charts
// without zoom options ignore the call.
func (c *Chart) SetZoomRange(start, end float64) error {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return NewError(CodeInvalidArgument, "setZoomRange",
			fmt.Sprintf("non-finite range [%g, %g]", start, end), nil)
	}
	if start >= end {
		return NewError(CodeInvalidArgument, "setZoomRange",
			fmt.Sprintf("empty range [%g, %g]", start, end), nil)
	}
	c.mu.Lock()
	if err := c.guardLocked("setZoomRange"); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.engine.ZoomEnabled() {
		c.mu.Unlock()
		return nil
	}
	w, changed := c.engine.SetZoom(interact.Window{Start: start, End: end}, SourceAPI)
	if changed {
		c.layoutDirty = true
		c.queueZoom(w, SourceAPI)
	}
	fire := c.drainLocked()
	c.mu.Unlock()
	runAll(fire)
	if changed {
		c.sched.MarkDirty()
	}
	return nil
}

// SetInteractionX drives the crosshair from outside the pointer stream,
// for linked charts. x is a domain coordinate; nil clears. The change
// is re-published with the given source tag so subscribers can skip
// their own echo.
func (c *Chart) SetInteractionX(x *float64, source string) {
	c.mu.Lock()
	if c.disposed || c.lost {
		c.mu.Unlock()
		return
	}
	var changed bool
	if x == nil {
		changed = c.engine.SetCrosshair(0, false, source)
	} else {
		changed = c.engine.SetCrosshair(*x, true, source)
	}
	if changed {
		c.interactDirty = true
		c.queueCrosshair(source)
	}
	fire := c.drainLocked()
	c.mu.Unlock()
	runAll(fire)
	if changed {
		c.sched.MarkDirty()
	}
}

// SetAnimation toggles animated transitions. Animation currently only
// forces a redraw when enabled; the flag is carried for hosts that key
// behavior off it.
func (c *Chart) SetAnimation(enabled bool) {
	c.mu.Lock()
	if c.disposed || c.lost {
		c.mu.Unlock()
		return
	}
	c.animate = enabled
	c.mu.Unlock()
	if enabled {
		c.sched.MarkDirty()
	}
}

// HandlePointerEvent feeds one normalized pointer event through the
// interaction engine. Crosshair, hover, tooltip, zoom, and click
// payloads come out through the broker and callbacks.
func (c *Chart) HandlePointerEvent(ev PointerEvent) {
	c.mu.Lock()
	if c.disposed || c.lost || c.opts == nil {
		c.mu.Unlock()
		return
	}
	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}
	switch ev.Kind {
	case PointerDown:
		c.engine.Down(ev.CSSX, ev.CSSY, at)
	case PointerMove:
		c.engine.Move(ev.CSSX, ev.CSSY, at)
	case PointerUp:
		c.engine.Up(ev.CSSX, ev.CSSY, at)
	case PointerLeave:
		c.engine.Leave()
	case PointerWheel:
		c.engine.Wheel(ev.CSSX, ev.CSSY, ev.WheelDelta)
	}
	fire := c.drainLocked()
	c.mu.Unlock()
	runAll(fire)
}

// ===== Accessors =====

// ZoomRange returns the current zoom window in percent of the data
// extent.
func (c *Chart) ZoomRange() ZoomRange {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.engine.Zoom()
	return ZoomRange{Start: w.Start, End: w.End}
}

// InteractionX returns the crosshair domain position, or nil while it
// is hidden.
func (c *Chart) InteractionX() *float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	x, on := c.engine.Crosshair()
	if !on {
		return nil
	}
	v := x
	return &v
}

// Metrics returns a snapshot of recent frame statistics.
func (c *Chart) Metrics() Metrics {
	m := c.sched.Metrics()
	return Metrics{
		FrameCount:       m.FrameCount,
		FPS:              m.FPS,
		MinFrame:         m.MinFrame,
		MaxFrame:         m.MaxFrame,
		AvgFrame:         m.AvgFrame,
		P50Frame:         m.P50Frame,
		P95Frame:         m.P95Frame,
		P99Frame:         m.P99Frame,
		AvgGPU:           m.AvgGPU,
		ConsecutiveDrops: m.ConsecutiveDrops,
		TotalDrops:       m.TotalDrops,
		LastDropAt:       m.LastDropAt,
	}
}

// Capabilities describes the adapter backing the chart.
func (c *Chart) Capabilities() Capabilities {
	caps := c.ctx.Caps()
	return Capabilities{
		Backend:         caps.Backend,
		AdapterName:     caps.AdapterName,
		AdapterType:     caps.AdapterType,
		MaxTextureSize:  caps.MaxTextureSize,
		SupportsCompute: caps.Compute,
	}
}

// TickOnce renders one frame synchronously on the calling goroutine,
// regardless of the dirty flag. Intended for headless rendering and
// tests; the background loop stays untouched.
func (c *Chart) TickOnce() error {
	return c.sched.TickOnce()
}

// NotifyDeviceLost reports an externally-observed device loss. Hosts
// that share their own device through WithDeviceProvider see the loss
// first and relay it here; the chart latches it exactly as if the
// device had failed mid-frame.
func (c *Chart) NotifyDeviceLost(message string) {
	c.ctx.NotifyLost(message)
}

// Pixels reads back the last resolved frame as tightly packed BGRA8
// bytes plus the surface size in device pixels.
func (c *Chart) Pixels() ([]byte, int, int, error) {
	c.mu.Lock()
	if err := c.guardLocked("readPixels"); err != nil {
		c.mu.Unlock()
		return nil, 0, 0, err
	}
	w, h := c.surface.Size()
	buf, err := gpu.ReadPixels(c.ctx.Device(), c.ctx.Queue(), c.surface)
	c.mu.Unlock()
	if err != nil {
		return nil, 0, 0, NewError(CodeRenderError, "readPixels", "read surface", err)
	}
	return buf, int(w), int(h), nil
}

// ===== Subscriptions =====

// OnZoomRangeChange registers a zoom listener and returns its remove
// func. Listeners receive every window change with its source tag;
// linked consumers skip tags they wrote themselves.
func (c *Chart) OnZoomRangeChange(fn func(ZoomRange, string)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.zoomSubs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.zoomSubs, id)
		c.mu.Unlock()
	}
}

// OnInteractionXChange registers a crosshair listener and returns its
// remove func. The position is nil when the crosshair clears.
func (c *Chart) OnInteractionXChange(fn func(*float64, string)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.xSubs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.xSubs, id)
		c.mu.Unlock()
	}
}

// queueZoom snapshots the window and queues its publication.
// Caller holds c.mu.
func (c *Chart) queueZoom(w interact.Window, source string) {
	z := ZoomRange{Start: w.Start, End: w.End}
	subs := make([]func(ZoomRange, string), 0, len(c.zoomSubs))
	for _, fn := range c.zoomSubs {
		subs = append(subs, fn)
	}
	c.queueEmit(func() {
		c.broker.PublishZoom(z.Start, z.End, source)
		for _, fn := range subs {
			fn(z, source)
		}
	})
}

// queueCrosshair snapshots the crosshair and queues its publication.
// Caller holds c.mu.
func (c *Chart) queueCrosshair(source string) {
	x, visible := c.engine.Crosshair()
	cssX := 0.0
	var xp *float64
	if visible {
		v := x
		xp = &v
		cssX = c.cssForDomain(x)
	}
	subs := make([]func(*float64, string), 0, len(c.xSubs))
	for _, fn := range c.xSubs {
		subs = append(subs, fn)
	}
	dom := x
	c.queueEmit(func() {
		c.broker.PublishCrosshair(dom, cssX, visible, source)
		for _, fn := range subs {
			fn(xp, source)
		}
	})
}

// ===== Failure paths and teardown =====

// onRenderError receives frame errors from the scheduler loop. Errors
// that look like a lost device promote to device loss; the rest are
// reported as render errors.
func (c *Chart) onRenderError(err error) {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "lost") || strings.Contains(msg, "timed out") {
		c.ctx.NotifyLost(gpu.LostUnknown)
		return
	}
	if c.cb.OnError != nil {
		c.cb.OnError(ErrorEvent{Code: CodeRenderError, Operation: "render", Message: err.Error()})
	}
}

// onDeviceLost latches the loss, stops the loop, and reports once.
// Registered with the context; may fire from any goroutine.
func (c *Chart) onDeviceLost(reason string) {
	c.mu.Lock()
	if c.disposed || c.lost {
		c.mu.Unlock()
		return
	}
	c.lost = true
	c.mu.Unlock()

	// Stop on a fresh goroutine: the loss may surface mid-frame, and
	// Stop joins the render loop.
	go c.sched.Stop()

	r := DeviceLostUnknown
	if reason == gpu.LostDestroyed {
		r = DeviceLostDestroyed
	}
	if c.cb.OnDeviceLost != nil {
		c.cb.OnDeviceLost(r, "GPU device lost: "+reason)
	}
}

// Dispose stops the render loop and releases every GPU resource. It is
// idempotent; repeat calls return immediately.
func (c *Chart) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.mu.Unlock()

	c.teardown()

	if c.cb.OnDisposed != nil {
		c.cb.OnDisposed(nil)
	}
}

// teardown joins the loop and releases everything. The context goes
// last, outside the lock: its Destroy reports loss "destroyed"
// synchronously, and onDeviceLost takes c.mu before checking the
// disposed flag.
func (c *Chart) teardown() {
	c.sched.Stop()

	c.mu.Lock()
	for _, st := range c.series {
		st.destroy()
	}
	c.series = nil
	if c.bars != nil {
		c.bars.Destroy()
		c.bars = nil
	}
	c.destroyGraphics()
	c.mu.Unlock()

	c.ctx.Destroy()
}
