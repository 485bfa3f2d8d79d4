package renderer

import "github.com/gogpu/wgpu/hal"

// PullingRenderer draws one streaming series by pulling point data from
// the store's GPU buffer inside the vertex shader. Line, area, scatter
// and candlestick series differ only in pipeline and vertex count.
//
// Params layout per kind:
//
//	line:    x = stroke width px
//	area:    x = baseline in data units
//	scatter: x = symbol size px, y = symbol kind
//	candle:  x = body width px, y = wick width px, z = style
type PullingRenderer struct {
	pipes  *Pipelines
	bundle func(*Pipelines) (*bundle, error)
	verts  func(points int) int

	slot  *uniformSlot
	cur   *bundle
	draws int
}

// NewLine returns a renderer for polyline series.
func NewLine(p *Pipelines) *PullingRenderer {
	return &PullingRenderer{
		pipes:  p,
		bundle: (*Pipelines).Line,
		verts:  segmentVerts,
	}
}

// NewArea returns a renderer for filled area series.
func NewArea(p *Pipelines) *PullingRenderer {
	return &PullingRenderer{
		pipes:  p,
		bundle: (*Pipelines).Area,
		verts:  segmentVerts,
	}
}

// NewScatter returns a renderer for scatter series.
func NewScatter(p *Pipelines) *PullingRenderer {
	return &PullingRenderer{
		pipes:  p,
		bundle: (*Pipelines).Scatter,
		verts:  func(n int) int { return n * 6 },
	}
}

// NewCandle returns a renderer for candlestick series.
func NewCandle(p *Pipelines) *PullingRenderer {
	return &PullingRenderer{
		pipes:  p,
		bundle: (*Pipelines).Candle,
		verts:  func(n int) int { return n * 12 },
	}
}

func segmentVerts(n int) int {
	if n < 2 {
		return 0
	}
	return (n - 1) * 6
}

// Prepare uploads uniforms and rebinds the storage buffer if the store
// swapped it while growing.
func (r *PullingRenderer) Prepare(in Input) error {
	r.draws = 0
	b, err := r.bundle(r.pipes)
	if err != nil {
		return err
	}
	r.cur = b
	if r.slot == nil {
		r.slot = newUniformSlot(r.pipes.device, r.pipes.queue, b.bindLayout, true)
	}
	n := r.verts(in.Count)
	if n == 0 || in.Data == nil {
		return nil
	}
	if err := r.slot.update(uniformsFor(in), in.Data, in.DataSize); err != nil {
		return err
	}
	r.draws = n
	return nil
}

// Record emits the draw; a no-op when Prepare saw no points.
func (r *PullingRenderer) Record(rp hal.RenderPassEncoder) {
	if r.draws == 0 || r.cur == nil || r.slot == nil || r.slot.bindGroup == nil {
		return
	}
	rp.SetPipeline(r.cur.pipeline)
	rp.SetBindGroup(0, r.slot.bindGroup, nil)
	rp.Draw(uint32(r.draws), 1, 0, 0)
}

// Destroy releases the renderer's uniform buffer and bind group. The
// shared pipelines stay alive in the cache.
func (r *PullingRenderer) Destroy() {
	if r.slot != nil {
		r.slot.destroy()
		r.slot = nil
	}
	r.cur = nil
	r.draws = 0
}
