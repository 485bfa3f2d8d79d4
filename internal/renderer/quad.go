package renderer

import (
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// QuadKind selects the fragment SDF; values match quad.wgsl.
type QuadKind uint32

const (
	QuadRect QuadKind = iota
	QuadRoundedRect
	QuadWedge
)

// Quad is one CPU-expanded primitive: a screen rect centered at Center
// with half extents Half, evaluated against a per-kind SDF.
//
//	QuadRect:        plain fill, Params unused
//	QuadRoundedRect: Params = (half_w, half_h, radius, 0); Half carries
//	                 a one pixel feather margin beyond the true extents
//	QuadWedge:       Center is the pie center, Half covers the outer
//	                 radius; Params = (angle0, angle1, r_inner, r_outer)
type Quad struct {
	Kind   QuadKind
	Center [2]float32
	Half   [2]float32
	Params [4]float32
	Color  [4]float32
}

// quadFloats is the float32 count of one expanded vertex.
const quadFloats = int(quadVertexStride / 4)

// QuadRenderer draws a batch of SDF quads from a persistent vertex
// buffer that grows in powers of two.
type QuadRenderer struct {
	pipes *Pipelines
	clip  bool

	slot  *uniformSlot
	vbuf  hal.Buffer
	vcap  uint64
	verts []float32
	count int
	dirty bool
}

// NewQuadRenderer returns a quad batch renderer. clipToPlot controls
// whether fragments outside the plot rect are discarded.
func NewQuadRenderer(p *Pipelines, clipToPlot bool) *QuadRenderer {
	return &QuadRenderer{pipes: p, clip: clipToPlot}
}

// SetQuads replaces the batch. The expansion is CPU-side; the upload
// happens in the next Prepare.
func (r *QuadRenderer) SetQuads(quads []Quad) {
	need := len(quads) * 6 * quadFloats
	if cap(r.verts) < need {
		r.verts = make([]float32, 0, need)
	}
	r.verts = r.verts[:0]
	for i := range quads {
		r.verts = appendQuadVerts(r.verts, &quads[i])
	}
	r.count = len(quads) * 6
	r.dirty = true
}

// appendQuadVerts expands one quad into two triangles.
func appendQuadVerts(dst []float32, q *Quad) []float32 {
	// Triangle order matches the corner decode in the pulling shaders.
	corners := [6][2]float32{
		{-1, -1}, {1, -1}, {1, 1},
		{-1, -1}, {1, 1}, {-1, 1},
	}
	for _, c := range corners {
		lx := c[0] * q.Half[0]
		ly := c[1] * q.Half[1]
		dst = append(dst,
			q.Center[0]+lx, q.Center[1]+ly,
			lx, ly,
			float32(q.Kind),
			q.Params[0], q.Params[1], q.Params[2], q.Params[3],
			q.Color[0], q.Color[1], q.Color[2], q.Color[3],
		)
	}
	return dst
}

// Prepare uploads the vertex batch and uniforms.
func (r *QuadRenderer) Prepare(in Input) error {
	b, err := r.pipes.Quad()
	if err != nil {
		return err
	}
	if r.slot == nil {
		r.slot = newUniformSlot(r.pipes.device, r.pipes.queue, b.bindLayout, false)
	}

	u := uniformsFor(in)
	u.Params[0] = 0
	if r.clip {
		u.Params[0] = 1
	}
	if err := r.slot.update(u, nil, 0); err != nil {
		return err
	}

	if r.count == 0 {
		return nil
	}
	need := uint64(len(r.verts)) * 4
	buf, capacity, recreated, err := growBuffer(r.pipes.device, r.vbuf, r.vcap, need,
		"quad_vertices", gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	r.vbuf, r.vcap = buf, capacity
	if r.dirty || recreated {
		r.pipes.queue.WriteBuffer(r.vbuf, 0, floatBytes(r.verts))
		r.dirty = false
	}
	return nil
}

// Record draws the batch.
func (r *QuadRenderer) Record(rp hal.RenderPassEncoder) {
	if r.count == 0 || r.vbuf == nil || r.slot == nil || r.slot.bindGroup == nil {
		return
	}
	b, err := r.pipes.Quad()
	if err != nil {
		return
	}
	rp.SetPipeline(b.pipeline)
	rp.SetBindGroup(0, r.slot.bindGroup, nil)
	rp.SetVertexBuffer(0, r.vbuf, 0)
	rp.Draw(uint32(r.count), 1, 0, 0)
}

// Destroy releases the vertex buffer and uniform slot.
func (r *QuadRenderer) Destroy() {
	if r.slot != nil {
		r.slot.destroy()
		r.slot = nil
	}
	if r.vbuf != nil {
		r.pipes.device.DestroyBuffer(r.vbuf)
		r.vbuf = nil
	}
	r.vcap = 0
	r.verts = nil
	r.count = 0
}

// floatBytes returns the raw byte view of a float32 slice for upload.
func floatBytes(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4) //nolint:gosec // safe slice serialization
}
