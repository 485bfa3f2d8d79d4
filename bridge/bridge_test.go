package bridge

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/gogpu/chartgpu"
	"github.com/gogpu/chartgpu/internal/gputest"
	"github.com/gogpu/chartgpu/overlay"
)

func TestMailboxFIFO(t *testing.T) {
	m := newMailbox[int]()
	if _, ok := m.TryPop(); ok {
		t.Fatal("TryPop on empty mailbox returned a value")
	}
	for i := 0; i < 3; i++ {
		if !m.Push(i) {
			t.Fatalf("Push(%d) = false", i)
		}
	}
	if got := m.Len(); got != 3 {
		t.Errorf("Len = %d, want 3", got)
	}
	for i := 0; i < 3; i++ {
		v, ok := m.Pop()
		if !ok || v != i {
			t.Fatalf("Pop = %d/%v, want %d/true", v, ok, i)
		}
	}
}

func TestMailboxCloseDrainsBacklog(t *testing.T) {
	m := newMailbox[string]()
	m.Push("a")
	m.Push("b")
	m.Close()
	if m.Push("c") {
		t.Error("Push after Close = true")
	}
	if v, ok := m.Pop(); !ok || v != "a" {
		t.Errorf("Pop = %q/%v, want a/true", v, ok)
	}
	if v, ok := m.Pop(); !ok || v != "b" {
		t.Errorf("Pop = %q/%v, want b/true", v, ok)
	}
	if _, ok := m.Pop(); ok {
		t.Error("Pop on drained closed mailbox = true")
	}
}

func TestMailboxCompaction(t *testing.T) {
	m := newMailbox[int]()
	for i := 0; i < 200; i++ {
		m.Push(i)
	}
	for i := 0; i < 150; i++ {
		if v, ok := m.Pop(); !ok || v != i {
			t.Fatalf("Pop = %d/%v, want %d/true", v, ok, i)
		}
	}
	for i := 200; i < 210; i++ {
		m.Push(i)
	}
	want := 150
	for {
		v, ok := m.TryPop()
		if !ok {
			break
		}
		if v != want {
			t.Fatalf("Pop = %d, want %d", v, want)
		}
		want++
	}
	if want != 210 {
		t.Errorf("drained through %d, want 210", want)
	}
}

func TestMailboxBlockingPop(t *testing.T) {
	m := newMailbox[int]()
	got := make(chan int, 128)
	go func() {
		for {
			v, ok := m.Pop()
			if !ok {
				close(got)
				return
			}
			got <- v
		}
	}()
	for i := 0; i < 100; i++ {
		m.Push(i)
	}
	m.Close()
	want := 0
	for v := range got {
		if v != want {
			t.Fatalf("received %d, want %d", v, want)
		}
		want++
	}
	if want != 100 {
		t.Errorf("received %d values, want 100", want)
	}
}

func TestEncodeRowsPacksFloat32(t *testing.T) {
	payload, count, stride, err := EncodeRows(chartgpu.SeriesLine, [][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("EncodeRows failed: %v", err)
	}
	if count != 2 || stride != 8 {
		t.Errorf("count/stride = %d/%d, want 2/8", count, stride)
	}
	if len(payload) != 16 {
		t.Fatalf("payload = %d bytes, want 16", len(payload))
	}
	vals := unsafe.Slice((*float32)(unsafe.Pointer(&payload[0])), 4)
	want := []float32{1, 2, 3, 4}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("vals[%d] = %v, want %v", i, vals[i], want[i])
		}
	}
}

func TestEncodeRowsCandlestickCanonicalOrder(t *testing.T) {
	// Public rows are [t, open, close, low, high]; the payload carries
	// [t, open, high, low, close].
	payload, count, stride, err := EncodeRows(chartgpu.SeriesCandlestick, [][]float64{{1000, 10, 20, 5, 25}})
	if err != nil {
		t.Fatalf("EncodeRows failed: %v", err)
	}
	if count != 1 || stride != 20 {
		t.Errorf("count/stride = %d/%d, want 1/20", count, stride)
	}
	vals := unsafe.Slice((*float32)(unsafe.Pointer(&payload[0])), 5)
	want := []float32{1000, 10, 25, 5, 20}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("vals[%d] = %v, want %v", i, vals[i], want[i])
		}
	}
}

func TestEncodeRowsValidation(t *testing.T) {
	if _, _, _, err := EncodeRows(chartgpu.SeriesLine, nil); err == nil {
		t.Error("EncodeRows(nil) succeeded, want error")
	}
	_, _, _, err := EncodeRows(chartgpu.SeriesLine, [][]float64{{1, 2}, {3}})
	var cerr *chartgpu.Error
	if !errors.As(err, &cerr) || cerr.Code != chartgpu.CodeDataError {
		t.Errorf("ragged rows = %v, want CodeDataError", err)
	}
	if _, _, _, err := EncodeRows(chartgpu.SeriesCandlestick, [][]float64{{1, 2}}); err == nil {
		t.Error("short candlestick row succeeded, want error")
	}
}

// hostLog captures callback traffic on the proxy side. The dispatch
// goroutine fires callbacks concurrently with test assertions, so every
// access locks.
type hostLog struct {
	mu         sync.Mutex
	rendered   int
	legends    [][]overlay.LegendItem
	labels     []overlay.AxisLabelSet
	tooltips   []*overlay.TooltipPayload
	hovers     []*overlay.HitInfo
	crosshairs []crossEvent
	zooms      []zoomEvent
	lost       []string
	errs       []chartgpu.ErrorEvent
	disposed   int
}

type crossEvent struct {
	x      *float64
	cssX   float64
	source string
}

type zoomEvent struct {
	z      chartgpu.ZoomRange
	source string
}

func (l *hostLog) callbacks() chartgpu.Callbacks {
	return chartgpu.Callbacks{
		OnRendered: func(time.Duration) {
			l.mu.Lock()
			l.rendered++
			l.mu.Unlock()
		},
		OnLegend: func(items []overlay.LegendItem) {
			l.mu.Lock()
			l.legends = append(l.legends, items)
			l.mu.Unlock()
		},
		OnAxisLabels: func(set overlay.AxisLabelSet) {
			l.mu.Lock()
			l.labels = append(l.labels, set)
			l.mu.Unlock()
		},
		OnTooltip: func(p *overlay.TooltipPayload) {
			l.mu.Lock()
			l.tooltips = append(l.tooltips, p)
			l.mu.Unlock()
		},
		OnHover: func(hit *overlay.HitInfo) {
			l.mu.Lock()
			l.hovers = append(l.hovers, hit)
			l.mu.Unlock()
		},
		OnCrosshairMove: func(x *float64, cssX float64, source string) {
			l.mu.Lock()
			l.crosshairs = append(l.crosshairs, crossEvent{x: x, cssX: cssX, source: source})
			l.mu.Unlock()
		},
		OnZoomChange: func(z chartgpu.ZoomRange, source string) {
			l.mu.Lock()
			l.zooms = append(l.zooms, zoomEvent{z: z, source: source})
			l.mu.Unlock()
		},
		OnDeviceLost: func(reason chartgpu.DeviceLostReason, _ string) {
			l.mu.Lock()
			l.lost = append(l.lost, string(reason))
			l.mu.Unlock()
		},
		OnError: func(e chartgpu.ErrorEvent) {
			l.mu.Lock()
			l.errs = append(l.errs, e)
			l.mu.Unlock()
		},
		OnDisposed: func([]error) {
			l.mu.Lock()
			l.disposed++
			l.mu.Unlock()
		},
	}
}

func (l *hostLog) renderCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rendered
}

func (l *hostLog) lastLegend() []overlay.LegendItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.legends) == 0 {
		return nil
	}
	return l.legends[len(l.legends)-1]
}

func (l *hostLog) lastLabels() overlay.AxisLabelSet {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.labels) == 0 {
		return overlay.AxisLabelSet{}
	}
	return l.labels[len(l.labels)-1]
}

func (l *hostLog) tooltipList() []*overlay.TooltipPayload {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*overlay.TooltipPayload(nil), l.tooltips...)
}

func (l *hostLog) hoverList() []*overlay.HitInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*overlay.HitInfo(nil), l.hovers...)
}

func (l *hostLog) crossList() []crossEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]crossEvent(nil), l.crosshairs...)
}

func (l *hostLog) zoomList() []zoomEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]zoomEvent(nil), l.zooms...)
}

func (l *hostLog) lostList() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lost...)
}

func (l *hostLog) errList() []chartgpu.ErrorEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]chartgpu.ErrorEvent(nil), l.errs...)
}

func (l *hostLog) disposedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disposed
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// newBridge wires a full pipeline on the noop backend: running
// controller, running dispatch, 1 FPS loops so frames come from bursts.
func newBridge(t *testing.T) (*Proxy, *Controller) {
	t.Helper()
	device, queue, cleanup := gputest.Device(t)
	t.Cleanup(cleanup)
	p, ctrl := New(Config{
		ChartOptions: []chartgpu.Option{
			chartgpu.WithDeviceProvider(gputest.NewProvider(device, queue)),
			chartgpu.WithTargetFPS(1),
		},
		Timeout: 5 * time.Second,
	})
	go ctrl.Run()
	t.Cleanup(p.Close)
	return p, ctrl
}

func lineSeriesOptions(rows [][]float64) *chartgpu.ResolvedOptions {
	return &chartgpu.ResolvedOptions{
		Series:  []chartgpu.SeriesOptions{{Type: chartgpu.SeriesLine, Name: "cpu", Data: rows}},
		Tooltip: &chartgpu.TooltipOptions{Trigger: chartgpu.TriggerAxis},
	}
}

var rampRows = [][]float64{{0, 0}, {50, 50}, {100, 100}}

func createChart(t *testing.T, p *Proxy, id string, opts *chartgpu.ResolvedOptions, log *hostLog) chartgpu.Capabilities {
	t.Helper()
	caps, err := p.CreateChart(id, opts, 600, 400, 1, log.callbacks())
	if err != nil {
		t.Fatalf("CreateChart failed: %v", err)
	}
	return caps
}

func appendRows(t *testing.T, p *Proxy, id string, series int, typ chartgpu.SeriesType, rows [][]float64) {
	t.Helper()
	payload, count, stride, err := EncodeRows(typ, rows)
	if err != nil {
		t.Fatalf("EncodeRows failed: %v", err)
	}
	if err := p.AppendData(id, series, payload, count, stride); err != nil {
		t.Fatalf("AppendData failed: %v", err)
	}
}

func TestBridgeCreateAppendRender(t *testing.T) {
	p, _ := newBridge(t)
	log := &hostLog{}
	caps := createChart(t, p, "main", lineSeriesOptions(nil), log)
	if caps.Backend == "" || caps.MaxTextureSize == 0 {
		t.Errorf("capabilities = %+v, want backend and texture size", caps)
	}

	appendRows(t, p, "main", 0, chartgpu.SeriesLine, [][]float64{{0, 0}, {1, 1}, {2, 4}})
	waitFor(t, "append frame", func() bool { return log.renderCount() >= 2 })

	items := log.lastLegend()
	if len(items) != 1 || items[0].Name != "cpu" {
		t.Errorf("legend = %+v, want one item named cpu", items)
	}
	set := log.lastLabels()
	if len(set.XLabels) == 0 || len(set.YLabels) == 0 {
		t.Errorf("axis labels = %d x, %d y, want both non-empty", len(set.XLabels), len(set.YLabels))
	}
	if got := log.tooltipList(); len(got) != 0 {
		t.Errorf("tooltip updates = %d, want 0 without pointer input", len(got))
	}
	if errs := log.errList(); len(errs) != 0 {
		t.Errorf("bridge errors = %+v, want none", errs)
	}
}

func TestBridgeHoverRoutesEvents(t *testing.T) {
	p, _ := newBridge(t)
	log := &hostLog{}
	opts := &chartgpu.ResolvedOptions{
		Series: []chartgpu.SeriesOptions{
			{Type: chartgpu.SeriesLine, Name: "cpu"},
			{Type: chartgpu.SeriesLine, Name: "mem"},
		},
		Tooltip: &chartgpu.TooltipOptions{Trigger: chartgpu.TriggerAxis},
	}
	createChart(t, p, "main", opts, log)
	pay0, n0, s0, err := EncodeRows(chartgpu.SeriesLine, [][]float64{{0, 0}, {1, 2}, {2, 4}})
	if err != nil {
		t.Fatalf("EncodeRows failed: %v", err)
	}
	pay1, n1, s1, err := EncodeRows(chartgpu.SeriesLine, [][]float64{{0, 1}, {1, 3}, {2, 4}})
	if err != nil {
		t.Fatalf("EncodeRows failed: %v", err)
	}
	// One batch, so both series land before the next frame.
	if err := p.AppendDataBatch("main", []chartgpu.BinaryAppend{
		{SeriesIndex: 0, Payload: pay0, Count: n0, Stride: s0},
		{SeriesIndex: 1, Payload: pay1, Count: n1, Stride: s1},
	}); err != nil {
		t.Fatalf("AppendDataBatch failed: %v", err)
	}
	waitFor(t, "data frame", func() bool { return log.renderCount() >= 2 })

	// Plot center: x domain [0, 2], y domain [0, 4], so (320, 195) sits
	// exactly on the cpu datum (1, 2).
	p.ForwardPointerEvent("main", chartgpu.PointerEvent{Kind: chartgpu.PointerMove, CSSX: 320, CSSY: 195})
	waitFor(t, "crosshair event", func() bool { return len(log.crossList()) >= 1 })
	time.Sleep(10 * time.Millisecond)

	cross := log.crossList()
	if len(cross) != 1 {
		t.Fatalf("crosshair events = %d, want 1", len(cross))
	}
	if cross[0].x == nil || math.Abs(*cross[0].x-1) > 1e-9 || math.Abs(cross[0].cssX-320) > 1e-9 {
		t.Errorf("crosshair = %+v, want x 1 at css 320", cross[0])
	}
	if cross[0].source != chartgpu.SourceUser {
		t.Errorf("crosshair source = %q, want %q", cross[0].source, chartgpu.SourceUser)
	}

	hovers := log.hoverList()
	if len(hovers) != 1 || hovers[0] == nil {
		t.Fatalf("hover events = %d, want 1 non-nil", len(hovers))
	}
	if hovers[0].SeriesIndex != 0 || hovers[0].DataIndex != 1 {
		t.Errorf("hover hit = series %d index %d, want 0/1", hovers[0].SeriesIndex, hovers[0].DataIndex)
	}

	tips := log.tooltipList()
	if len(tips) != 1 || tips[0] == nil {
		t.Fatalf("tooltip updates = %d, want 1", len(tips))
	}
	if len(tips[0].Params) != 2 {
		t.Fatalf("tooltip params = %d, want 2", len(tips[0].Params))
	}
	if v := tips[0].Params[0].Value; len(v) != 2 || v[0] != 1 || v[1] != 2 {
		t.Errorf("cpu param value = %v, want [1 2]", v)
	}
	if v := tips[0].Params[1].Value; len(v) != 2 || v[0] != 1 || v[1] != 3 {
		t.Errorf("mem param value = %v, want [1 3]", v)
	}
}

func TestBridgeCandlestickRoundTrip(t *testing.T) {
	p, _ := newBridge(t)
	log := &hostLog{}
	opts := &chartgpu.ResolvedOptions{
		XAxis:   chartgpu.AxisOptions{Kind: chartgpu.AxisTime},
		Series:  []chartgpu.SeriesOptions{{Type: chartgpu.SeriesCandlestick, Name: "ohlc"}},
		Tooltip: &chartgpu.TooltipOptions{Trigger: chartgpu.TriggerAxis},
	}
	createChart(t, p, "main", opts, log)
	appendRows(t, p, "main", 0, chartgpu.SeriesCandlestick, [][]float64{
		{1000, 10, 20, 5, 25},
		{2000, 12, 18, 8, 22},
	})
	waitFor(t, "data frame", func() bool { return log.renderCount() >= 2 })

	// Left plot edge sits on t=1000.
	p.ForwardPointerEvent("main", chartgpu.PointerEvent{Kind: chartgpu.PointerMove, CSSX: 60, CSSY: 195})
	waitFor(t, "tooltip", func() bool { return len(log.tooltipList()) >= 1 })

	tips := log.tooltipList()
	tip := tips[len(tips)-1]
	if tip == nil || len(tip.Params) != 1 {
		t.Fatalf("tooltip = %+v, want one param", tip)
	}
	// Values come back in the public [open, close, low, high] order even
	// though the payload was packed canonically.
	v := tip.Params[0].Value
	want := []float64{10, 20, 5, 25}
	if len(v) != len(want) {
		t.Fatalf("value = %v, want 4 entries", v)
	}
	for i := range want {
		if v[i] != want[i] {
			t.Errorf("value[%d] = %v, want %v", i, v[i], want[i])
		}
	}
}

func TestBridgeWheelZoomMatchesAPIWrite(t *testing.T) {
	p, _ := newBridge(t)
	log := &hostLog{}
	opts := lineSeriesOptions(rampRows)
	opts.Zoom = &chartgpu.ZoomOptions{Start: 0, End: 100}
	createChart(t, p, "main", opts, log)
	waitFor(t, "first frame", func() bool { return log.renderCount() >= 1 })

	p.ForwardPointerEvent("main", chartgpu.PointerEvent{Kind: chartgpu.PointerWheel, CSSX: 320, CSSY: 195, WheelDelta: -120})
	waitFor(t, "zoom event", func() bool { return len(log.zoomList()) >= 1 })

	zooms := log.zoomList()
	if zooms[0].source != chartgpu.SourceUser {
		t.Errorf("zoom source = %q, want %q", zooms[0].source, chartgpu.SourceUser)
	}
	z := zooms[0].z
	if z.Span() >= 100 {
		t.Errorf("span = %v, want < 100 after zoom in", z.Span())
	}
	if math.Abs(z.Start+z.End-100) > 1e-9 {
		t.Errorf("window = [%v, %v], want symmetric about 50", z.Start, z.End)
	}

	// Writing the same window back is not a change; a different window is.
	if err := p.SetZoomRange("main", z.Start, z.End); err != nil {
		t.Fatalf("SetZoomRange failed: %v", err)
	}
	if err := p.SetZoomRange("main", 10, 90); err != nil {
		t.Fatalf("SetZoomRange failed: %v", err)
	}
	waitFor(t, "api zoom event", func() bool { return len(log.zoomList()) >= 2 })
	time.Sleep(10 * time.Millisecond)

	zooms = log.zoomList()
	if len(zooms) != 2 {
		t.Fatalf("zoom events = %d, want 2 (echo write must not emit)", len(zooms))
	}
	if zooms[1].z.Start != 10 || zooms[1].z.End != 90 || zooms[1].source != chartgpu.SourceAPI {
		t.Errorf("second zoom = %+v, want [10, 90] from api", zooms[1])
	}
}

func TestBridgeDeviceLossRejectsWork(t *testing.T) {
	p, ctrl := newBridge(t)
	log := &hostLog{}
	createChart(t, p, "main", lineSeriesOptions(rampRows), log)
	waitFor(t, "first frame", func() bool { return log.renderCount() >= 1 })

	ctrl.charts["main"].chart.NotifyDeviceLost("surprise reset")
	waitFor(t, "device lost event", func() bool { return len(log.lostList()) >= 1 })
	lost := log.lostList()
	if len(lost) != 1 || lost[0] != string(chartgpu.DeviceLostUnknown) {
		t.Errorf("lost events = %v, want one %q", lost, chartgpu.DeviceLostUnknown)
	}

	appendRows(t, p, "main", 0, chartgpu.SeriesLine, [][]float64{{200, 1}})
	waitFor(t, "rejection", func() bool { return len(log.errList()) >= 1 })
	errs := log.errList()
	if errs[0].Code != chartgpu.CodeDeviceLost {
		t.Errorf("error code = %v, want CodeDeviceLost", errs[0].Code)
	}

	renders := log.renderCount()
	time.Sleep(30 * time.Millisecond)
	if got := log.renderCount(); got != renders {
		t.Errorf("renders after loss = %d, want %d", got, renders)
	}
}

func TestBridgeBurstCoalescesFrames(t *testing.T) {
	device, queue, cleanup := gputest.Device(t)
	t.Cleanup(cleanup)
	ctrl := &Controller{
		in:  newMailbox[Inbound](),
		out: newMailbox[Outbound](),
		chartOpts: []chartgpu.Option{
			chartgpu.WithDeviceProvider(gputest.NewProvider(device, queue)),
			chartgpu.WithTargetFPS(1),
		},
		charts: make(map[string]*instance),
	}
	t.Cleanup(ctrl.shutdown)

	ctrl.handle(Init{ChartID: "main", CSSWidth: 600, CSSHeight: 400, DPR: 1, Options: lineSeriesOptions(nil), MessageID: 1})
	ctrl.flushFrames()
	if got := drainRendered(t, ctrl.out); got != 1 {
		t.Fatalf("frames after init = %d, want 1", got)
	}

	pay0, n0, s0, err := EncodeRows(chartgpu.SeriesLine, [][]float64{{0, 1}, {1, 2}})
	if err != nil {
		t.Fatalf("EncodeRows failed: %v", err)
	}
	pay1, n1, s1, err := EncodeRows(chartgpu.SeriesLine, [][]float64{{2, 3}})
	if err != nil {
		t.Fatalf("EncodeRows failed: %v", err)
	}
	ctrl.handle(AppendDataBatch{ChartID: "main", Items: []chartgpu.BinaryAppend{
		{SeriesIndex: 0, Payload: pay0, Count: n0, Stride: s0},
		{SeriesIndex: 0, Payload: pay1, Count: n1, Stride: s1},
	}})
	ctrl.handle(Resize{ChartID: "main", CSSWidth: 800, CSSHeight: 600, DPR: 2})
	ctrl.flushFrames()
	if got := drainRendered(t, ctrl.out); got != 1 {
		t.Errorf("frames after burst = %d, want 1", got)
	}

	buf, w, h, err := ctrl.charts["main"].chart.Pixels()
	if err != nil {
		t.Fatalf("Pixels failed: %v", err)
	}
	if w != 1600 || h != 1200 || len(buf) != w*h*4 {
		t.Errorf("surface = %dx%d (%d bytes), want 1600x1200", w, h, len(buf))
	}
}

// drainRendered empties the outbound mailbox, counting frames and
// failing on any error message.
func drainRendered(t *testing.T, out *mailbox[Outbound]) int {
	t.Helper()
	rendered := 0
	for {
		msg, ok := out.TryPop()
		if !ok {
			return rendered
		}
		switch m := msg.(type) {
		case Rendered:
			rendered++
		case ErrorMessage:
			t.Fatalf("bridge error during %s: %v %s", m.Operation, m.Code, m.Message)
		}
	}
}

func TestBridgeInteractionEchoSuppressed(t *testing.T) {
	p, _ := newBridge(t)
	log := &hostLog{}
	createChart(t, p, "main", lineSeriesOptions(rampRows), log)
	waitFor(t, "first frame", func() bool { return log.renderCount() >= 1 })

	// A linked peer pushes its crosshair in; applying it must not bounce
	// a crosshair event back out.
	x := 30.0
	if err := p.SetInteractionX("main", &x, "linker"); err != nil {
		t.Fatalf("SetInteractionX failed: %v", err)
	}
	// Local pointer input still emits.
	p.ForwardPointerEvent("main", chartgpu.PointerEvent{Kind: chartgpu.PointerMove, CSSX: 320, CSSY: 195})
	waitFor(t, "crosshair event", func() bool { return len(log.crossList()) >= 1 })
	time.Sleep(10 * time.Millisecond)

	cross := log.crossList()
	if len(cross) != 1 {
		t.Fatalf("crosshair events = %d, want only the pointer one", len(cross))
	}
	if cross[0].source != chartgpu.SourceUser {
		t.Errorf("crosshair source = %q, want %q", cross[0].source, chartgpu.SourceUser)
	}
	if cross[0].x == nil || *cross[0].x != 50 {
		t.Errorf("crosshair x = %v, want snap to 50", cross[0].x)
	}
}

func TestBridgeCreateChartTimeout(t *testing.T) {
	// No controller loop: the init stays queued and the deadline fires.
	p, _ := New(Config{Timeout: 50 * time.Millisecond})
	t.Cleanup(p.out.Close)

	_, err := p.CreateChart("main", lineSeriesOptions(nil), 600, 400, 1, chartgpu.Callbacks{})
	if !errors.Is(err, chartgpu.ErrTimeout) {
		t.Fatalf("CreateChart = %v, want ErrTimeout", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.charts) != 0 || len(p.pending) != 0 {
		t.Errorf("leftover state: %d charts, %d pending", len(p.charts), len(p.pending))
	}
}

func TestBridgeDisposeCancelsPendingInit(t *testing.T) {
	p, _ := New(Config{Timeout: 5 * time.Second})
	t.Cleanup(p.out.Close)

	errCh := make(chan error, 1)
	go func() {
		_, err := p.CreateChart("main", lineSeriesOptions(nil), 600, 400, 1, chartgpu.Callbacks{})
		errCh <- err
	}()
	waitFor(t, "pending init", func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return len(p.pending) == 1
	})

	if err := p.Dispose("main"); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	select {
	case err := <-errCh:
		if !errors.Is(err, chartgpu.ErrDisposed) {
			t.Errorf("CreateChart = %v, want ErrDisposed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("CreateChart still blocked after dispose")
	}
}

func TestBridgeResizeCoalesces(t *testing.T) {
	// Bare proxy with a short window; the inbound mailbox is inspected
	// directly.
	p := &Proxy{
		in:          newMailbox[Inbound](),
		out:         newMailbox[Outbound](),
		timeout:     time.Second,
		resizeEvery: 5 * time.Millisecond,
		pending:     make(map[uint64]*pendingInit),
		charts:      map[string]*proxyChart{"main": {initialized: true}},
		done:        make(chan struct{}),
	}
	for i := 0; i < 5; i++ {
		if err := p.Resize("main", float64(100+i), 100, 1); err != nil {
			t.Fatalf("Resize failed: %v", err)
		}
	}
	time.Sleep(40 * time.Millisecond)

	var widths []float64
	for {
		msg, ok := p.in.TryPop()
		if !ok {
			break
		}
		r, isResize := msg.(Resize)
		if !isResize {
			t.Fatalf("unexpected message %T", msg)
		}
		widths = append(widths, r.CSSWidth)
	}
	if len(widths) != 2 {
		t.Fatalf("resize messages = %d (%v), want leading + trailing", len(widths), widths)
	}
	if widths[0] != 100 || widths[1] != 104 {
		t.Errorf("widths = %v, want [100 104]", widths)
	}
}

func TestBridgeDisposeFreesChartID(t *testing.T) {
	p, _ := newBridge(t)
	log := &hostLog{}
	createChart(t, p, "main", lineSeriesOptions(rampRows), log)

	if err := p.Dispose("main"); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	waitFor(t, "disposed event", func() bool { return log.disposedCount() == 1 })

	relog := &hostLog{}
	if _, err := p.CreateChart("main", lineSeriesOptions(nil), 600, 400, 1, relog.callbacks()); err != nil {
		t.Fatalf("recreate after dispose = %v", err)
	}
}
