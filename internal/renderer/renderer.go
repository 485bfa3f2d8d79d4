// Package renderer draws chart series into a render pass. Streaming
// series (line, area, scatter, candlestick) pull their points straight
// from the data store's GPU buffer via vertex-index arithmetic, so a
// data append never re-tessellates on the CPU. Option-driven series
// (bar, pie, heatmap) are expanded into SDF quads on the CPU, and
// density maps are binned by a compute pass.
package renderer

import (
	"github.com/gogpu/wgpu/hal"
)

// Input is the per-series, per-frame draw description.
type Input struct {
	// Data is the series storage buffer for pulling renderers; quad
	// renderers leave it nil.
	Data hal.Buffer
	// DataSize is the byte capacity of Data, used for the storage
	// binding.
	DataSize uint64
	// Count is the number of points in Data.
	Count int
	// Viewport is the surface size in pixels.
	Viewport [2]float32
	// Plot is the clip rectangle (x, y, w, h) in pixels.
	Plot [4]float32
	// XA, XB map data x to pixels: px = XA*x + XB. Same for y.
	XA, XB float32
	YA, YB float32
	// Color is the primary series color, premultiplied.
	Color [4]float32
	// Color2 is the secondary color (down candles, area fade).
	Color2 [4]float32
	// Params carries per-kind scalars, documented on each renderer.
	Params [4]float32
}

// Renderer prepares GPU state for a frame and records draw commands.
//
// Prepare runs before the render pass opens (buffer and bind group
// updates are not legal inside a pass); Record runs inside it.
type Renderer interface {
	Prepare(in Input) error
	Record(rp hal.RenderPassEncoder)
	Destroy()
}

// ComputeStage is implemented by renderers that record compute passes
// before the render pass opens.
type ComputeStage interface {
	Dispatch(enc hal.CommandEncoder)
}

// ColorFunc samples a colormap at t in [0, 1], returning premultiplied
// RGBA. The root package adapts its Colormap type to this.
type ColorFunc func(t float32) [4]float32

// LinearCoeffs converts a domain/range pair into the (a, b) pixel map
// used by the shaders: px = a*v + b. A zero-width domain collapses to
// the range midpoint, matching the scale package.
func LinearCoeffs(d0, d1, r0, r1 float64) (a, b float32) {
	if d1 == d0 {
		return 0, float32((r0 + r1) / 2)
	}
	af := (r1 - r0) / (d1 - d0)
	return float32(af), float32(r0 - af*d0)
}
