// Package chartgpu renders interactive 2D charts on the GPU.
//
// # Overview
//
// chartgpu is a windowless charting engine for the GoGPU ecosystem. A
// Chart owns its data, scales, and render pipelines; hosts feed it data
// and pointer events and receive frames plus overlay payloads (tooltip,
// legend, axis labels) through callbacks. Rendering goes through
// gogpu/wgpu's HAL, so the same chart runs against Vulkan or any
// provided device.
//
// # Quick Start
//
//	import "github.com/gogpu/chartgpu"
//
//	opts := &chartgpu.ResolvedOptions{
//	    Series: []chartgpu.SeriesOptions{{Type: chartgpu.SeriesLine, Name: "cpu"}},
//	}
//	chart, err := chartgpu.New(opts, chartgpu.Callbacks{
//	    OnRendered: func(ft time.Duration) { /* frame done */ },
//	})
//	if err != nil {
//	    return err
//	}
//	defer chart.Dispose()
//
//	chart.AppendData(0, [][]float64{{0, 1}, {1, 3}, {2, 2}})
//	chart.TickOnce()
//
// # Architecture
//
// The library is organized into:
//   - Public API: Chart, ResolvedOptions, Callbacks, events
//   - Internal: gpu (device/surface), store (series buffers, sampling),
//     scale (domain mapping, ticks), renderer (primitive pipelines),
//     interact (zoom/crosshair), sched (frame loop)
//   - overlay: host-facing tooltip/legend/label payloads and text
//     measurement
//   - bridge: a message-passing proxy/controller pair for hosts that keep
//     the chart on a worker goroutine
//
// # Coordinate System
//
// CSS-pixel coordinates with the origin at the top-left; device pixels
// are CSS times the device pixel ratio. Data maps through per-axis
// scales into the plot rect.
//
// # Threading
//
// A Chart is safe for concurrent use; callbacks fire on the goroutine
// driving the frame, so they must not block. The bridge serializes all
// chart work onto one controller goroutine.
package chartgpu

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
