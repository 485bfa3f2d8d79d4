package overlay

import (
	"fmt"
	"strings"
)

// Broker fans chart payloads out to the host. It holds no payload
// state; deduplication is the caller's job. Not safe for concurrent
// use; the chart coordinator drives it from one goroutine.
type Broker struct {
	mode Mode
	host HostWidgets
	cb   Callbacks
}

// NewBroker returns a broker in the given mode.
func NewBroker(mode Mode) *Broker {
	return &Broker{mode: mode}
}

// Mode returns the delivery mode.
func (b *Broker) Mode() Mode { return b.mode }

// SetHost registers the widget sink for ModeHost.
func (b *Broker) SetHost(h HostWidgets) { b.host = h }

// SetCallbacks registers the event sinks for ModeEmbedded.
func (b *Broker) SetCallbacks(cb Callbacks) { b.cb = cb }

// PublishTooltip delivers the tooltip state; nil hides it.
func (b *Broker) PublishTooltip(p *TooltipPayload) {
	if b.mode == ModeHost {
		if b.host != nil {
			b.host.UpdateTooltip(p)
		}
		return
	}
	if b.cb.OnTooltip != nil {
		b.cb.OnTooltip(p)
	}
}

// PublishLegend delivers the legend entries.
func (b *Broker) PublishLegend(items []LegendItem) {
	if b.mode == ModeHost {
		if b.host != nil {
			b.host.UpdateLegend(items)
		}
		return
	}
	if b.cb.OnLegend != nil {
		b.cb.OnLegend(items)
	}
}

// PublishAxisLabels delivers a positioned label set.
func (b *Broker) PublishAxisLabels(set AxisLabelSet) {
	if b.mode == ModeHost {
		if b.host != nil {
			b.host.UpdateAxisLabels(set)
		}
		return
	}
	if b.cb.OnAxisLabels != nil {
		b.cb.OnAxisLabels(set)
	}
}

// PublishHover reports the hovered datum; nil means the pointer left
// all hit targets. Host mode drops interaction events; the host
// observes its own widgets there.
func (b *Broker) PublishHover(hit *HitInfo) {
	if b.mode != ModeEmbedded || b.cb.OnHoverChange == nil {
		return
	}
	b.cb.OnHoverChange(hit)
}

// PublishClick reports a click on a datum.
func (b *Broker) PublishClick(hit HitInfo, xCSS, yCSS float64) {
	if b.mode != ModeEmbedded || b.cb.OnClick == nil {
		return
	}
	b.cb.OnClick(hit, xCSS, yCSS)
}

// PublishCrosshair reports crosshair motion.
func (b *Broker) PublishCrosshair(xDomain, xCSS float64, visible bool, source string) {
	if b.mode != ModeEmbedded || b.cb.OnCrosshairMove == nil {
		return
	}
	b.cb.OnCrosshairMove(xDomain, xCSS, visible, source)
}

// PublishZoom reports a window change with its source tag.
func (b *Broker) PublishZoom(start, end float64, source string) {
	if b.mode != ModeEmbedded || b.cb.OnZoomChange == nil {
		return
	}
	b.cb.OnZoomChange(start, end, source)
}

// BuildTooltip assembles a payload from per-series params, formatting
// one content line per param. Params with no name fall back to their
// series index.
func BuildTooltip(params []TooltipParam, xCSS, yCSS float64) TooltipPayload {
	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('\n')
		}
		name := p.SeriesName
		if name == "" {
			name = fmt.Sprintf("series %d", p.SeriesIndex)
		}
		sb.WriteString(name)
		sb.WriteString(": ")
		for j, v := range p.Value {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(FormatValue(v))
		}
	}
	return TooltipPayload{
		Content: sb.String(),
		Params:  params,
		XCSS:    xCSS,
		YCSS:    yCSS,
	}
}
