package renderer

import (
	"fmt"

	"github.com/gogpu/chartgpu/internal/gpu"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// msaaSamples matches the chart surface sample count.
const msaaSamples = 4

// quadVertexStride is the byte stride of the CPU-expanded quad vertex:
// pos(2) local(2) kind(1) params(4) color(4) float32s.
const quadVertexStride = 13 * 4

// bundle is one compiled render pipeline with its layouts.
type bundle struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
}

// Pipelines lazily builds and caches the render pipelines of one chart.
// All series renderers of the chart share it.
type Pipelines struct {
	device hal.Device
	queue  hal.Queue

	line    *bundle
	area    *bundle
	scatter *bundle
	candle  *bundle
	quad    *bundle

	density *densityPipelines
}

// NewPipelines creates an empty cache bound to a device and queue.
func NewPipelines(device hal.Device, queue hal.Queue) *Pipelines {
	return &Pipelines{device: device, queue: queue}
}

// Device returns the device the cache builds on.
func (p *Pipelines) Device() hal.Device { return p.device }

// Queue returns the upload queue.
func (p *Pipelines) Queue() hal.Queue { return p.queue }

// pullingBindLayout declares the uniform + storage pair used by the
// vertex-pulling pipelines.
func (p *Pipelines) pullingBindLayout(label string) (hal.BindGroupLayout, error) {
	return p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label,
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
		},
	})
}

// buildPulling compiles a vertex-pulling pipeline: no vertex buffers,
// geometry decoded from the vertex index.
func (p *Pipelines) buildPulling(label, src string) (*bundle, error) {
	shader, err := gpu.CreateModule(p.device, label+"_shader", src)
	if err != nil {
		return nil, err
	}
	b := &bundle{shader: shader}

	b.bindLayout, err = p.pullingBindLayout(label + "_bind_layout")
	if err != nil {
		p.destroyBundle(b)
		return nil, fmt.Errorf("create %s bind layout: %w", label, err)
	}
	b.pipeLayout, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{b.bindLayout},
	})
	if err != nil {
		p.destroyBundle(b)
		return nil, fmt.Errorf("create %s pipeline layout: %w", label, err)
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	b.pipeline, err = p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label + "_pipeline",
		Layout: b.pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
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
		p.destroyBundle(b)
		return nil, fmt.Errorf("create %s pipeline: %w", label, err)
	}
	slogger().Debug("built pulling pipeline", "label", label)
	return b, nil
}

// buildQuad compiles the CPU-quad pipeline with its vertex layout.
func (p *Pipelines) buildQuad(label, src string) (*bundle, error) {
	shader, err := gpu.CreateModule(p.device, label+"_shader", src)
	if err != nil {
		return nil, err
	}
	b := &bundle{shader: shader}

	b.bindLayout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label + "_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		p.destroyBundle(b)
		return nil, fmt.Errorf("create %s bind layout: %w", label, err)
	}
	b.pipeLayout, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{b.bindLayout},
	})
	if err != nil {
		p.destroyBundle(b)
		return nil, fmt.Errorf("create %s pipeline layout: %w", label, err)
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	b.pipeline, err = p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label + "_pipeline",
		Layout: b.pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    quadVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
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
		p.destroyBundle(b)
		return nil, fmt.Errorf("create %s pipeline: %w", label, err)
	}
	slogger().Debug("built quad pipeline", "label", label)
	return b, nil
}

func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: quadVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // position px
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},  // local
				{Format: gputypes.VertexFormatFloat32, Offset: 16, ShaderLocation: 2},   // kind
				{Format: gputypes.VertexFormatFloat32x4, Offset: 20, ShaderLocation: 3}, // params
				{Format: gputypes.VertexFormatFloat32x4, Offset: 36, ShaderLocation: 4}, // color
			},
		},
	}
}

// Line returns the line strip pipeline, building it on first use.
func (p *Pipelines) Line() (*bundle, error) {
	if p.line == nil {
		b, err := p.buildPulling("chart_line", lineShaderSource)
		if err != nil {
			return nil, err
		}
		p.line = b
	}
	return p.line, nil
}

// Area returns the area fill pipeline.
func (p *Pipelines) Area() (*bundle, error) {
	if p.area == nil {
		b, err := p.buildPulling("chart_area", areaShaderSource)
		if err != nil {
			return nil, err
		}
		p.area = b
	}
	return p.area, nil
}

// Scatter returns the point symbol pipeline.
func (p *Pipelines) Scatter() (*bundle, error) {
	if p.scatter == nil {
		b, err := p.buildPulling("chart_scatter", scatterShaderSource)
		if err != nil {
			return nil, err
		}
		p.scatter = b
	}
	return p.scatter, nil
}

// Candle returns the candlestick pipeline.
func (p *Pipelines) Candle() (*bundle, error) {
	if p.candle == nil {
		b, err := p.buildPulling("chart_candle", candleShaderSource)
		if err != nil {
			return nil, err
		}
		p.candle = b
	}
	return p.candle, nil
}

// Quad returns the shared SDF quad pipeline (bars, pie, heatmap).
func (p *Pipelines) Quad() (*bundle, error) {
	if p.quad == nil {
		b, err := p.buildQuad("chart_quad", quadShaderSource)
		if err != nil {
			return nil, err
		}
		p.quad = b
	}
	return p.quad, nil
}

// Density returns the density compute and draw pipelines.
func (p *Pipelines) Density() (*densityPipelines, error) {
	if p.density == nil {
		d, err := buildDensityPipelines(p.device)
		if err != nil {
			return nil, err
		}
		p.density = d
	}
	return p.density, nil
}

func (p *Pipelines) destroyBundle(b *bundle) {
	if b == nil {
		return
	}
	if b.pipeline != nil {
		p.device.DestroyRenderPipeline(b.pipeline)
	}
	if b.pipeLayout != nil {
		p.device.DestroyPipelineLayout(b.pipeLayout)
	}
	if b.bindLayout != nil {
		p.device.DestroyBindGroupLayout(b.bindLayout)
	}
	if b.shader != nil {
		p.device.DestroyShaderModule(b.shader)
	}
}

// Destroy releases every cached pipeline in reverse dependency order.
func (p *Pipelines) Destroy() {
	p.destroyBundle(p.line)
	p.destroyBundle(p.area)
	p.destroyBundle(p.scatter)
	p.destroyBundle(p.candle)
	p.destroyBundle(p.quad)
	p.line, p.area, p.scatter, p.candle, p.quad = nil, nil, nil, nil, nil
	if p.density != nil {
		p.density.destroy(p.device)
		p.density = nil
	}
}
