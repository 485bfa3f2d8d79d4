package renderer

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/chartgpu/internal/gpu"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// densityLutSize is the resampled color table length in density_draw.wgsl.
const densityLutSize = 256

// densityWorkgroup matches @workgroup_size in density_compute.wgsl.
const densityWorkgroup = 256

// Density curve values; match density_draw.wgsl.
const (
	CurveLinear = iota
	CurveSqrt
	CurveLog
)

type densityPipelines struct {
	computeShader hal.ShaderModule
	drawShader    hal.ShaderModule

	computeBindLayout hal.BindGroupLayout
	computePipeLayout hal.PipelineLayout
	clearPipeline     hal.ComputePipeline
	binPipeline       hal.ComputePipeline
	maxPipeline       hal.ComputePipeline

	drawBindLayout hal.BindGroupLayout
	drawPipeLayout hal.PipelineLayout
	drawPipeline   hal.RenderPipeline
}

func buildDensityPipelines(device hal.Device) (*densityPipelines, error) {
	d := &densityPipelines{}
	var err error

	d.computeShader, err = gpu.CreateModule(device, "density_compute_shader", densityComputeShaderSource)
	if err != nil {
		return nil, err
	}
	d.computeBindLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "density_compute_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
			{
				Binding:    3,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
		},
	})
	if err != nil {
		d.destroy(device)
		return nil, fmt.Errorf("create density compute bind layout: %w", err)
	}
	d.computePipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "density_compute_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{d.computeBindLayout},
	})
	if err != nil {
		d.destroy(device)
		return nil, fmt.Errorf("create density compute pipeline layout: %w", err)
	}
	for _, p := range []struct {
		entry string
		dst   *hal.ComputePipeline
	}{
		{"cs_clear", &d.clearPipeline},
		{"cs_bin", &d.binPipeline},
		{"cs_max", &d.maxPipeline},
	} {
		pipe, perr := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:  "density_" + p.entry,
			Layout: d.computePipeLayout,
			Compute: hal.ComputeState{
				Module:     d.computeShader,
				EntryPoint: p.entry,
			},
		})
		if perr != nil {
			d.destroy(device)
			return nil, fmt.Errorf("create density %s pipeline: %w", p.entry, perr)
		}
		*p.dst = pipe
	}

	d.drawShader, err = gpu.CreateModule(device, "density_draw_shader", densityDrawShaderSource)
	if err != nil {
		d.destroy(device)
		return nil, err
	}
	d.drawBindLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "density_draw_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    3,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		d.destroy(device)
		return nil, fmt.Errorf("create density draw bind layout: %w", err)
	}
	d.drawPipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "density_draw_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{d.drawBindLayout},
	})
	if err != nil {
		d.destroy(device)
		return nil, fmt.Errorf("create density draw pipeline layout: %w", err)
	}
	premulBlend := gputypes.BlendStatePremultiplied()
	d.drawPipeline, err = device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "density_draw_pipeline",
		Layout: d.drawPipeLayout,
		Vertex: hal.VertexState{
			Module:     d.drawShader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     d.drawShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatBGRA8Unorm,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: msaaSamples,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		d.destroy(device)
		return nil, fmt.Errorf("create density draw pipeline: %w", err)
	}
	slogger().Debug("built density pipelines")
	return d, nil
}

func (d *densityPipelines) destroy(device hal.Device) {
	if d.drawPipeline != nil {
		device.DestroyRenderPipeline(d.drawPipeline)
		d.drawPipeline = nil
	}
	if d.drawPipeLayout != nil {
		device.DestroyPipelineLayout(d.drawPipeLayout)
		d.drawPipeLayout = nil
	}
	if d.drawBindLayout != nil {
		device.DestroyBindGroupLayout(d.drawBindLayout)
		d.drawBindLayout = nil
	}
	if d.drawShader != nil {
		device.DestroyShaderModule(d.drawShader)
		d.drawShader = nil
	}
	for _, p := range []*hal.ComputePipeline{&d.maxPipeline, &d.binPipeline, &d.clearPipeline} {
		if *p != nil {
			device.DestroyComputePipeline(*p)
			*p = nil
		}
	}
	if d.computePipeLayout != nil {
		device.DestroyPipelineLayout(d.computePipeLayout)
		d.computePipeLayout = nil
	}
	if d.computeBindLayout != nil {
		device.DestroyBindGroupLayout(d.computeBindLayout)
		d.computeBindLayout = nil
	}
	if d.computeShader != nil {
		device.DestroyShaderModule(d.computeShader)
		d.computeShader = nil
	}
}

// DensityRenderer bins series points into a screen-aligned grid on the
// GPU and shades cells by normalized count through a color table.
//
// It implements ComputeStage: Dispatch must run before the render pass
// opens.
type DensityRenderer struct {
	pipes *Pipelines

	cols, rows int
	curve      int
	lut        [densityLutSize][4]float32
	lutDirty   bool

	ubuf     hal.Buffer
	cells    hal.Buffer
	cellsCap uint64
	maxBuf   hal.Buffer
	lutBuf   hal.Buffer

	computeBind hal.BindGroup
	drawBind    hal.BindGroup
	boundData   hal.Buffer

	points int
	ready  bool
}

// NewDensityRenderer returns a density renderer with a 256x256 grid, a
// grayscale ramp and linear curve; configure with SetGrid, SetCurve and
// SetColormap.
func NewDensityRenderer(p *Pipelines) *DensityRenderer {
	r := &DensityRenderer{pipes: p, cols: 256, rows: 256}
	r.SetColormap(func(t float32) [4]float32 { return [4]float32{t, t, t, 1} })
	return r
}

// SetGrid sets the binning resolution. Values clamp to at least 1.
func (r *DensityRenderer) SetGrid(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	if cols == r.cols && rows == r.rows {
		return
	}
	r.cols, r.rows = cols, rows
}

// SetCurve selects the normalization curve.
func (r *DensityRenderer) SetCurve(curve int) {
	if curve < CurveLinear || curve > CurveLog {
		curve = CurveLinear
	}
	r.curve = curve
}

// SetColormap resamples the colormap into the shader's lookup table.
func (r *DensityRenderer) SetColormap(color ColorFunc) {
	if color == nil {
		return
	}
	for i := 0; i < densityLutSize; i++ {
		r.lut[i] = color(float32(i) / float32(densityLutSize-1))
	}
	r.lutDirty = true
}

// Prepare sizes the grid buffers and uploads uniforms and the LUT.
func (r *DensityRenderer) Prepare(in Input) error {
	r.ready = false
	d, err := r.pipes.Density()
	if err != nil {
		return err
	}
	device, queue := r.pipes.device, r.pipes.queue

	u := uniformsFor(in)
	u.Params = [4]float32{float32(r.curve), densityLutSize, 0, 0}
	u.Misc = [4]float32{float32(in.Count), float32(r.cols), float32(r.rows), 0}
	if r.ubuf == nil {
		r.ubuf, err = device.CreateBuffer(&hal.BufferDescriptor{
			Label: "density_uniforms",
			Size:  uniformSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create density uniform buffer: %w", err)
		}
	}
	queue.WriteBuffer(r.ubuf, 0, structToBytes(unsafe.Pointer(&u), unsafe.Sizeof(u)))

	if r.maxBuf == nil {
		r.maxBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
			Label: "density_max",
			Size:  16,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create density max buffer: %w", err)
		}
	}
	if r.lutBuf == nil {
		r.lutBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
			Label: "density_lut",
			Size:  densityLutSize * 16,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create density lut buffer: %w", err)
		}
		r.lutDirty = true
	}
	if r.lutDirty {
		queue.WriteBuffer(r.lutBuf, 0, structToBytes(unsafe.Pointer(&r.lut), unsafe.Sizeof(r.lut)))
		r.lutDirty = false
	}

	need := uint64(r.cols*r.rows) * 4
	cells, capacity, recreated, err := growBuffer(device, r.cells, r.cellsCap, need,
		"density_cells", gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	r.cells, r.cellsCap = cells, capacity

	if in.Data == nil || in.Count == 0 {
		return nil
	}
	if recreated || r.boundData != in.Data || r.computeBind == nil {
		if err := r.rebind(d, in.Data, in.DataSize); err != nil {
			return err
		}
		r.boundData = in.Data
	}
	r.points = in.Count
	r.ready = true
	return nil
}

func (r *DensityRenderer) rebind(d *densityPipelines, data hal.Buffer, dataSize uint64) error {
	device := r.pipes.device
	if r.computeBind != nil {
		device.DestroyBindGroup(r.computeBind)
		r.computeBind = nil
	}
	if r.drawBind != nil {
		device.DestroyBindGroup(r.drawBind)
		r.drawBind = nil
	}
	var err error
	r.computeBind, err = device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "density_compute_bind",
		Layout: d.computeBindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: r.ubuf.NativeHandle(), Offset: 0, Size: uniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: data.NativeHandle(), Offset: 0, Size: dataSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: r.cells.NativeHandle(), Offset: 0, Size: r.cellsCap}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: r.maxBuf.NativeHandle(), Offset: 0, Size: 16}},
		},
	})
	if err != nil {
		return fmt.Errorf("create density compute bind group: %w", err)
	}
	r.drawBind, err = device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "density_draw_bind",
		Layout: d.drawBindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: r.ubuf.NativeHandle(), Offset: 0, Size: uniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: r.cells.NativeHandle(), Offset: 0, Size: r.cellsCap}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: r.maxBuf.NativeHandle(), Offset: 0, Size: 16}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: r.lutBuf.NativeHandle(), Offset: 0, Size: densityLutSize * 16}},
		},
	})
	if err != nil {
		return fmt.Errorf("create density draw bind group: %w", err)
	}
	return nil
}

// Dispatch records the clear, bin and reduce passes.
func (r *DensityRenderer) Dispatch(enc hal.CommandEncoder) {
	if !r.ready {
		return
	}
	d, err := r.pipes.Density()
	if err != nil {
		return
	}
	cellGroups := uint32((r.cols*r.rows + densityWorkgroup - 1) / densityWorkgroup)
	pointGroups := uint32((r.points + densityWorkgroup - 1) / densityWorkgroup)

	clear := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: "density_clear"})
	clear.SetPipeline(d.clearPipeline)
	clear.SetBindGroup(0, r.computeBind, nil)
	clear.Dispatch(cellGroups, 1, 1)
	clear.End()

	bin := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: "density_bin"})
	bin.SetPipeline(d.binPipeline)
	bin.SetBindGroup(0, r.computeBind, nil)
	bin.Dispatch(pointGroups, 1, 1)
	bin.End()

	reduce := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: "density_max"})
	reduce.SetPipeline(d.maxPipeline)
	reduce.SetBindGroup(0, r.computeBind, nil)
	reduce.Dispatch(cellGroups, 1, 1)
	reduce.End()
}

// Record draws the shaded grid quad.
func (r *DensityRenderer) Record(rp hal.RenderPassEncoder) {
	if !r.ready || r.drawBind == nil {
		return
	}
	d, err := r.pipes.Density()
	if err != nil {
		return
	}
	rp.SetPipeline(d.drawPipeline)
	rp.SetBindGroup(0, r.drawBind, nil)
	rp.Draw(6, 1, 0, 0)
}

// Destroy releases the renderer's buffers and bind groups.
func (r *DensityRenderer) Destroy() {
	device := r.pipes.device
	if r.computeBind != nil {
		device.DestroyBindGroup(r.computeBind)
		r.computeBind = nil
	}
	if r.drawBind != nil {
		device.DestroyBindGroup(r.drawBind)
		r.drawBind = nil
	}
	for _, b := range []*hal.Buffer{&r.lutBuf, &r.maxBuf, &r.cells, &r.ubuf} {
		if *b != nil {
			device.DestroyBuffer(*b)
			*b = nil
		}
	}
	r.cellsCap = 0
	r.boundData = nil
	r.ready = false
}
