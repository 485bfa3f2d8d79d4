package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/chartgpu"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultResizeEvery = 16 * time.Millisecond
)

// Config configures a bridge pair.
type Config struct {
	// ChartOptions apply to every chart the controller creates: device
	// provider, target FPS, measurement font.
	ChartOptions []chartgpu.Option

	// Timeout bounds correlated requests. Zero means 30 seconds.
	Timeout time.Duration
}

// New wires a proxy/controller pair over fresh mailboxes. The caller
// runs the controller loop (typically `go ctrl.Run()`); the proxy's
// dispatch loop starts immediately.
func New(cfg Config) (*Proxy, *Controller) {
	in := newMailbox[Inbound]()
	out := newMailbox[Outbound]()
	ctrl := &Controller{
		in:        in,
		out:       out,
		chartOpts: cfg.ChartOptions,
		charts:    make(map[string]*instance),
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	p := &Proxy{
		in:          in,
		out:         out,
		timeout:     timeout,
		resizeEvery: defaultResizeEvery,
		pending:     make(map[uint64]*pendingInit),
		charts:      make(map[string]*proxyChart),
		done:        make(chan struct{}),
	}
	go p.dispatch()
	return p, ctrl
}

// proxyChart is the host-side record of one chart.
type proxyChart struct {
	cb          chartgpu.Callbacks
	initialized bool
	disposing   bool

	resizeArmed   bool
	pendingResize *Resize
}

type pendingInit struct {
	chartID string
	ch      chan initResult
}

type initResult struct {
	caps chartgpu.Capabilities
	err  error
}

// Proxy is the host side of the bridge. Its methods enqueue inbound
// messages; chart events come back through the callbacks registered at
// CreateChart, invoked on the proxy's dispatch goroutine.
type Proxy struct {
	in          *mailbox[Inbound]
	out         *mailbox[Outbound]
	timeout     time.Duration
	resizeEvery time.Duration
	done        chan struct{}

	mu      sync.Mutex
	nextMsg uint64
	pending map[uint64]*pendingInit
	charts  map[string]*proxyChart
	closed  bool
}

// CreateChart builds a chart on the controller and blocks until its
// ready answer, the configured timeout (ErrTimeout), or a dispose
// (ErrDisposed). Callbacks fire on the dispatch goroutine and must not
// block it.
func (p *Proxy) CreateChart(chartID string, opts *chartgpu.ResolvedOptions, cssW, cssH, dpr float64, cb chartgpu.Callbacks) (chartgpu.Capabilities, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return chartgpu.Capabilities{}, closedErr("init")
	}
	if _, exists := p.charts[chartID]; exists {
		p.mu.Unlock()
		return chartgpu.Capabilities{}, chartgpu.NewError(chartgpu.CodeInvalidArgument, "init",
			fmt.Sprintf("chart %q already exists", chartID), nil)
	}
	p.nextMsg++
	msgID := p.nextMsg
	pend := &pendingInit{chartID: chartID, ch: make(chan initResult, 1)}
	p.pending[msgID] = pend
	p.charts[chartID] = &proxyChart{cb: cb}
	p.mu.Unlock()

	if !p.in.Push(Init{
		ChartID:   chartID,
		CSSWidth:  cssW,
		CSSHeight: cssH,
		DPR:       dpr,
		Options:   opts,
		MessageID: msgID,
	}) {
		p.forget(chartID, msgID)
		return chartgpu.Capabilities{}, closedErr("init")
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case r := <-pend.ch:
		if r.err != nil {
			p.forget(chartID, msgID)
			return chartgpu.Capabilities{}, r.err
		}
		return r.caps, nil
	case <-timer.C:
		p.forget(chartID, msgID)
		return chartgpu.Capabilities{}, chartgpu.NewError(chartgpu.CodeTimeout, "init",
			fmt.Sprintf("no ready for chart %q within %s", chartID, p.timeout), nil)
	}
}

// forget drops the host-side record of a chart whose init failed.
func (p *Proxy) forget(chartID string, msgID uint64) {
	p.mu.Lock()
	delete(p.pending, msgID)
	delete(p.charts, chartID)
	p.mu.Unlock()
}

// SetOptions replaces a chart's options tree.
func (p *Proxy) SetOptions(chartID string, opts *chartgpu.ResolvedOptions) error {
	return p.push(SetOptions{ChartID: chartID, Options: opts}, "setOptions")
}

// AppendData transfers a flat payload to one series. Ownership of the
// bytes moves to the worker.
func (p *Proxy) AppendData(chartID string, seriesIndex int, payload []byte, count, stride int) error {
	return p.push(AppendData{
		ChartID:     chartID,
		SeriesIndex: seriesIndex,
		Payload:     payload,
		Count:       count,
		Stride:      stride,
	}, "appendData")
}

// AppendDataBatch transfers several payloads as one update.
func (p *Proxy) AppendDataBatch(chartID string, items []chartgpu.BinaryAppend) error {
	return p.push(AppendDataBatch{ChartID: chartID, Items: items}, "appendData")
}

// SetZoomRange applies a percent-space zoom window.
func (p *Proxy) SetZoomRange(chartID string, start, end float64) error {
	return p.push(SetZoomRange{ChartID: chartID, Start: start, End: end}, "setZoomRange")
}

// SetInteractionX moves or clears the crosshair. The source tag rides
// along so the emitter never hears its own update back.
func (p *Proxy) SetInteractionX(chartID string, x *float64, source string) error {
	return p.push(SetInteractionX{ChartID: chartID, X: x, Source: source}, "setInteractionX")
}

// SetAnimation toggles animation.
func (p *Proxy) SetAnimation(chartID string, enabled bool) error {
	return p.push(SetAnimation{ChartID: chartID, Enabled: enabled}, "setAnimation")
}

// ForwardPointerEvent relays a pointer event. Events are silently
// dropped until the chart's ready arrives and after its dispose, so
// early input cannot race construction.
func (p *Proxy) ForwardPointerEvent(chartID string, ev chartgpu.PointerEvent) {
	p.mu.Lock()
	pc := p.charts[chartID]
	ok := pc != nil && pc.initialized && !pc.disposing
	p.mu.Unlock()
	if !ok {
		return
	}
	p.in.Push(ForwardPointerEvent{ChartID: chartID, Event: ev})
}

// Resize records new geometry and forwards at most one resize per
// frame interval: the first change in a quiet period goes out
// immediately, later ones coalesce into a single trailing message
// carrying the newest values.
func (p *Proxy) Resize(chartID string, cssW, cssH, dpr float64) error {
	msg := Resize{ChartID: chartID, CSSWidth: cssW, CSSHeight: cssH, DPR: dpr}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return closedErr("resize")
	}
	pc := p.charts[chartID]
	if pc == nil || pc.disposing {
		p.mu.Unlock()
		return chartgpu.NewError(chartgpu.CodeInvalidArgument, "resize",
			fmt.Sprintf("unknown chart id %q", chartID), nil)
	}
	if pc.resizeArmed {
		pc.pendingResize = &msg
		p.mu.Unlock()
		return nil
	}
	pc.resizeArmed = true
	p.mu.Unlock()
	if err := p.push(msg, "resize"); err != nil {
		return err
	}
	p.armResizeFlush(chartID)
	return nil
}

// armResizeFlush schedules the trailing edge of the resize window. A
// send re-arms the window so a resize storm settles to one message per
// interval.
func (p *Proxy) armResizeFlush(chartID string) {
	time.AfterFunc(p.resizeEvery, func() {
		p.mu.Lock()
		pc := p.charts[chartID]
		if pc == nil {
			p.mu.Unlock()
			return
		}
		msg := pc.pendingResize
		pc.pendingResize = nil
		if msg == nil {
			pc.resizeArmed = false
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
		p.in.Push(*msg)
		p.armResizeFlush(chartID)
	})
}

// Dispose tears a chart down. Pending requests for it reject with
// ErrDisposed; the Disposed event arrives through the callbacks once
// the controller has cleaned up.
func (p *Proxy) Dispose(chartID string) error {
	p.mu.Lock()
	if pc := p.charts[chartID]; pc != nil {
		pc.disposing = true
	}
	for id, pend := range p.pending {
		if pend.chartID != chartID {
			continue
		}
		delete(p.pending, id)
		pend.ch <- initResult{err: chartgpu.NewError(chartgpu.CodeDisposed, "init", "chart disposed while initializing", nil)}
	}
	p.mu.Unlock()
	return p.push(Dispose{ChartID: chartID}, "dispose")
}

// Close shuts the whole bridge down: the controller disposes surviving
// charts, their disposed events drain, and both loops exit. Close must
// not be called from an event callback.
func (p *Proxy) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	p.in.Close()
	<-p.done
}

func (p *Proxy) push(msg Inbound, op string) error {
	if !p.in.Push(msg) {
		return closedErr(op)
	}
	return nil
}

func closedErr(op string) error {
	return chartgpu.NewError(chartgpu.CodeCommunicationError, op, "bridge is closed", nil)
}

// dispatch consumes outbound messages until the controller closes the
// mailbox, resolving correlated requests and fanning events into the
// per-chart callbacks.
func (p *Proxy) dispatch() {
	defer close(p.done)
	for {
		msg, ok := p.out.Pop()
		if !ok {
			p.failPending()
			return
		}
		switch m := msg.(type) {
		case Ready:
			p.mu.Lock()
			pend, ok := p.pending[m.MessageID]
			if ok {
				delete(p.pending, m.MessageID)
				if pc := p.charts[pend.chartID]; pc != nil {
					pc.initialized = true
				}
			}
			p.mu.Unlock()
			if ok {
				pend.ch <- initResult{caps: m.Capabilities}
			}
		case ErrorMessage:
			if m.MessageID != 0 {
				p.mu.Lock()
				pend, ok := p.pending[m.MessageID]
				if ok {
					delete(p.pending, m.MessageID)
				}
				p.mu.Unlock()
				if ok {
					pend.ch <- initResult{err: chartgpu.NewError(m.Code, m.Operation, m.Message, nil)}
					continue
				}
			}
			if cb, ok := p.cbFor(m.ChartID); ok && cb.OnError != nil {
				cb.OnError(chartgpu.ErrorEvent{Code: m.Code, Operation: m.Operation, Message: m.Message})
			}
		case Rendered:
			if cb, ok := p.cbFor(m.ChartID); ok && cb.OnRendered != nil {
				cb.OnRendered(m.FrameTime)
			}
		case TooltipUpdate:
			if cb, ok := p.cbFor(m.ChartID); ok && cb.OnTooltip != nil {
				cb.OnTooltip(m.Payload)
			}
		case LegendUpdate:
			if cb, ok := p.cbFor(m.ChartID); ok && cb.OnLegend != nil {
				cb.OnLegend(m.Items)
			}
		case AxisLabelsUpdate:
			if cb, ok := p.cbFor(m.ChartID); ok && cb.OnAxisLabels != nil {
				cb.OnAxisLabels(m.Labels)
			}
		case HoverChange:
			if cb, ok := p.cbFor(m.ChartID); ok && cb.OnHover != nil {
				cb.OnHover(m.Hit)
			}
		case Click:
			if cb, ok := p.cbFor(m.ChartID); ok && cb.OnClick != nil {
				cb.OnClick(m.Hit, m.CSSX, m.CSSY)
			}
		case CrosshairMove:
			if cb, ok := p.cbFor(m.ChartID); ok && cb.OnCrosshairMove != nil {
				cb.OnCrosshairMove(m.X, m.CSSX, m.Source)
			}
		case ZoomChange:
			if cb, ok := p.cbFor(m.ChartID); ok && cb.OnZoomChange != nil {
				cb.OnZoomChange(m.Zoom, m.Source)
			}
		case DeviceLost:
			if cb, ok := p.cbFor(m.ChartID); ok && cb.OnDeviceLost != nil {
				cb.OnDeviceLost(m.Reason, m.Message)
			}
		case Disposed:
			p.mu.Lock()
			pc := p.charts[m.ChartID]
			delete(p.charts, m.ChartID)
			p.mu.Unlock()
			if pc != nil && pc.cb.OnDisposed != nil {
				pc.cb.OnDisposed(m.CleanupErrors)
			}
		}
	}
}

// cbFor snapshots a chart's callbacks.
func (p *Proxy) cbFor(chartID string) (chartgpu.Callbacks, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pc, ok := p.charts[chartID]
	if !ok {
		return chartgpu.Callbacks{}, false
	}
	return pc.cb, true
}

// failPending rejects every leftover correlated request when the
// bridge dies under it.
func (p *Proxy) failPending() {
	p.mu.Lock()
	pending := p.pending
	p.pending = make(map[uint64]*pendingInit)
	p.mu.Unlock()
	for _, pend := range pending {
		pend.ch <- initResult{err: chartgpu.NewError(chartgpu.CodeCommunicationError, "init", "bridge closed before ready", nil)}
	}
}
