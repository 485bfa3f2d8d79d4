package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/chartgpu"
	"github.com/gogpu/chartgpu/overlay"
)

// chartState tracks a chart instance through the bridge lifecycle.
type chartState int

const (
	stateInit chartState = iota
	stateRunning
	stateLost
	stateDisposed
)

// String returns the state name.
func (s chartState) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateRunning:
		return "running"
	case stateLost:
		return "lost"
	case stateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// instance is one owned chart. The dirty flag and applying tag are
// touched on the Run goroutine only; state needs the mutex because the
// loss callback can fire from the chart's render loop.
type instance struct {
	id    string
	chart *chartgpu.Chart

	mu    sync.Mutex
	state chartState

	// applying holds the source tag of the SetInteractionX currently
	// being applied, scoping the echo suppression to its synchronous
	// callbacks.
	applying string

	dirty bool
}

func (i *instance) setState(s chartState) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
}

func (i *instance) getState() chartState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Controller is the worker side of the bridge. It owns every chart:
// all chart calls happen on the Run goroutine, and chart callbacks fan
// into the outbound mailbox, which is safe from any goroutine.
type Controller struct {
	in        *mailbox[Inbound]
	out       *mailbox[Outbound]
	chartOpts []chartgpu.Option
	charts    map[string]*instance
}

// Run processes inbound messages until the proxy closes the bridge. It
// drains each burst of queued messages before rendering, so k
// back-to-back updates produce one frame. On shutdown the surviving
// charts are disposed and the outbound mailbox closes after their
// disposed events.
func (c *Controller) Run() {
	for {
		msg, ok := c.in.Pop()
		if !ok {
			c.shutdown()
			return
		}
		c.handle(msg)
		for {
			next, ok := c.in.TryPop()
			if !ok {
				break
			}
			c.handle(next)
		}
		c.flushFrames()
	}
}

func (c *Controller) shutdown() {
	for id, inst := range c.charts {
		inst.chart.Dispose()
		inst.setState(stateDisposed)
		delete(c.charts, id)
	}
	c.out.Close()
}

// flushFrames renders one frame for every chart a burst touched.
func (c *Controller) flushFrames() {
	for _, inst := range c.charts {
		if !inst.dirty {
			continue
		}
		inst.dirty = false
		if inst.getState() != stateRunning {
			continue
		}
		if err := inst.chart.TickOnce(); err != nil {
			c.fail(inst.id, "render", err)
		}
	}
}

func (c *Controller) handle(msg Inbound) {
	switch m := msg.(type) {
	case Init:
		c.handleInit(m)
	case SetOptions:
		if inst, ok := c.instanceFor(m.ChartID, "setOptions"); ok {
			if err := inst.chart.SetOptions(m.Options); err != nil {
				c.fail(m.ChartID, "setOptions", err)
				return
			}
			inst.dirty = true
		}
	case AppendData:
		if inst, ok := c.instanceFor(m.ChartID, "appendData"); ok {
			if err := inst.chart.AppendBinary(m.SeriesIndex, m.Payload, m.Count, m.Stride); err != nil {
				c.fail(m.ChartID, "appendData", err)
				return
			}
			inst.dirty = true
		}
	case AppendDataBatch:
		if inst, ok := c.instanceFor(m.ChartID, "appendData"); ok {
			if err := inst.chart.AppendBinaryBatch(m.Items); err != nil {
				c.fail(m.ChartID, "appendData", err)
				return
			}
			inst.dirty = true
		}
	case Resize:
		if inst, ok := c.instanceFor(m.ChartID, "resize"); ok {
			if err := inst.chart.Resize(m.CSSWidth, m.CSSHeight, m.DPR); err != nil {
				c.fail(m.ChartID, "resize", err)
				return
			}
			inst.dirty = true
		}
	case ForwardPointerEvent:
		// Stray events for unknown or lost charts are dropped, not
		// errors: the proxy's ready gate cannot cover a dispose that is
		// already in flight.
		inst, ok := c.charts[m.ChartID]
		if !ok || inst.getState() != stateRunning {
			return
		}
		inst.chart.HandlePointerEvent(m.Event)
		inst.dirty = true
	case SetZoomRange:
		if inst, ok := c.instanceFor(m.ChartID, "setZoomRange"); ok {
			if err := inst.chart.SetZoomRange(m.Start, m.End); err != nil {
				c.fail(m.ChartID, "setZoomRange", err)
				return
			}
			inst.dirty = true
		}
	case SetInteractionX:
		if inst, ok := c.instanceFor(m.ChartID, "setInteractionX"); ok {
			inst.applying = m.Source
			inst.chart.SetInteractionX(m.X, m.Source)
			inst.applying = ""
			inst.dirty = true
		}
	case SetAnimation:
		if inst, ok := c.instanceFor(m.ChartID, "setAnimation"); ok {
			inst.chart.SetAnimation(m.Enabled)
			if m.Enabled {
				inst.dirty = true
			}
		}
	case Dispose:
		inst, ok := c.charts[m.ChartID]
		if !ok {
			return
		}
		inst.chart.Dispose()
		inst.setState(stateDisposed)
		delete(c.charts, m.ChartID)
		chartgpu.Logger().Debug("bridge: chart disposed", "chart", m.ChartID)
	}
}

func (c *Controller) handleInit(m Init) {
	if _, exists := c.charts[m.ChartID]; exists {
		c.out.Push(ErrorMessage{
			ChartID:   m.ChartID,
			Code:      chartgpu.CodeInvalidArgument,
			Operation: "init",
			Message:   fmt.Sprintf("chart %q already exists", m.ChartID),
			MessageID: m.MessageID,
		})
		return
	}
	inst := &instance{id: m.ChartID, state: stateInit}
	opts := make([]chartgpu.Option, 0, len(c.chartOpts)+1)
	opts = append(opts, c.chartOpts...)
	opts = append(opts, chartgpu.WithSize(m.CSSWidth, m.CSSHeight, m.DPR))
	chart, err := chartgpu.New(m.Options, c.callbacksFor(inst), opts...)
	if err != nil {
		c.out.Push(ErrorMessage{
			ChartID:   m.ChartID,
			Code:      chartgpu.CodeOf(err),
			Operation: "init",
			Message:   err.Error(),
			MessageID: m.MessageID,
		})
		return
	}
	inst.chart = chart
	inst.setState(stateRunning)
	inst.dirty = true
	c.charts[m.ChartID] = inst
	chartgpu.Logger().Debug("bridge: chart created", "chart", m.ChartID)
	c.out.Push(Ready{ChartID: m.ChartID, MessageID: m.MessageID, Capabilities: chart.Capabilities()})
}

// instanceFor resolves a chart for a state-changing operation. Unknown
// ids and lost charts answer with an error message; dispose bypasses
// this so lost charts can still be cleaned up.
func (c *Controller) instanceFor(id, op string) (*instance, bool) {
	inst, ok := c.charts[id]
	if !ok {
		c.out.Push(ErrorMessage{
			ChartID:   id,
			Code:      chartgpu.CodeInvalidArgument,
			Operation: op,
			Message:   fmt.Sprintf("unknown chart id %q", id),
		})
		return nil, false
	}
	if inst.getState() == stateLost {
		c.out.Push(ErrorMessage{
			ChartID:   id,
			Code:      chartgpu.CodeDeviceLost,
			Operation: op,
			Message:   "GPU device lost",
		})
		return nil, false
	}
	return inst, true
}

func (c *Controller) fail(id, op string, err error) {
	c.out.Push(ErrorMessage{
		ChartID:   id,
		Code:      chartgpu.CodeOf(err),
		Operation: op,
		Message:   err.Error(),
	})
}

// callbacksFor adapts one chart's events into outbound messages. The
// chart invokes these synchronously on whichever goroutine drives it;
// mailbox pushes are safe from all of them.
func (c *Controller) callbacksFor(inst *instance) chartgpu.Callbacks {
	id := inst.id
	return chartgpu.Callbacks{
		OnRendered: func(frameTime time.Duration) {
			c.out.Push(Rendered{ChartID: id, FrameTime: frameTime})
		},
		OnTooltip: func(p *overlay.TooltipPayload) {
			c.out.Push(TooltipUpdate{ChartID: id, Payload: p})
		},
		OnLegend: func(items []overlay.LegendItem) {
			c.out.Push(LegendUpdate{ChartID: id, Items: items})
		},
		OnAxisLabels: func(labels overlay.AxisLabelSet) {
			c.out.Push(AxisLabelsUpdate{ChartID: id, Labels: labels})
		},
		OnHover: func(hit *overlay.HitInfo) {
			c.out.Push(HoverChange{ChartID: id, Hit: hit})
		},
		OnClick: func(hit overlay.HitInfo, cssX, cssY float64) {
			c.out.Push(Click{ChartID: id, Hit: hit, CSSX: cssX, CSSY: cssY})
		},
		OnCrosshairMove: func(x *float64, cssX float64, source string) {
			// The echo of an inbound SetInteractionX fires synchronously
			// inside the apply, on this same goroutine; the applying tag
			// is set exactly for that window.
			if source != "" && source == inst.applying {
				return
			}
			c.out.Push(CrosshairMove{ChartID: id, X: x, CSSX: cssX, Source: source})
		},
		OnZoomChange: func(z chartgpu.ZoomRange, source string) {
			c.out.Push(ZoomChange{ChartID: id, Zoom: z, Source: source})
		},
		OnDeviceLost: func(reason chartgpu.DeviceLostReason, message string) {
			inst.setState(stateLost)
			chartgpu.Logger().Warn("bridge: device lost", "chart", id, "reason", reason)
			c.out.Push(DeviceLost{ChartID: id, Reason: reason, Message: message})
		},
		OnError: func(e chartgpu.ErrorEvent) {
			c.out.Push(ErrorMessage{ChartID: id, Code: e.Code, Operation: e.Operation, Message: e.Message})
		},
		OnDisposed: func(cleanupErrors []error) {
			c.out.Push(Disposed{ChartID: id, CleanupErrors: cleanupErrors})
		},
	}
}
