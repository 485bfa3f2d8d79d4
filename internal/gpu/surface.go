package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SampleCount is the MSAA sample count for the chart surface.
const SampleCount = 4

// Surface is the offscreen render target for one chart: a 4x MSAA color
// texture that resolves into a single-sample texture readable by the CPU.
//
// Textures are lazily (re)created by Ensure; a size change destroys the
// old set first. Pixels are BGRA8, premultiplied alpha.
type Surface struct {
	device hal.Device

	width  uint32
	height uint32

	msaaTex     hal.Texture
	msaaView    hal.TextureView
	resolveTex  hal.Texture
	resolveView hal.TextureView
	staging     hal.Buffer
	stagingSize uint64
}

// NewSurface creates an empty surface bound to device. Call Ensure before
// rendering.
func NewSurface(device hal.Device) *Surface {
	return &Surface{device: device}
}

// Ensure creates or recreates the MSAA color, resolve, and staging
// resources if the requested dimensions differ from the current size.
// If dimensions match the current textures, this is a no-op.
//
// On resize, existing resources are destroyed before creating new ones to
// avoid GPU memory leaks. Returns an error if any creation fails; in that
// case, partially created resources are cleaned up.
func (s *Surface) Ensure(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("gpu: surface size %dx%d invalid", width, height)
	}
	if s.width == width && s.height == height && s.msaaTex != nil {
		return nil
	}

	s.Destroy()

	size := hal.Extent3D{
		Width:              width,
		Height:             height,
		DepthOrArrayLayers: 1,
	}

	msaaTex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "chart_msaa_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   SampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create MSAA color texture: %w", err)
	}
	s.msaaTex = msaaTex

	msaaView, err := s.device.CreateTextureView(msaaTex, &hal.TextureViewDescriptor{
		Label: "chart_msaa_color_view",
	})
	if err != nil {
		s.Destroy()
		return fmt.Errorf("create MSAA color view: %w", err)
	}
	s.msaaView = msaaView

	resolveTex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "chart_resolve",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		s.Destroy()
		return fmt.Errorf("create resolve texture: %w", err)
	}
	s.resolveTex = resolveTex

	resolveView, err := s.device.CreateTextureView(resolveTex, &hal.TextureViewDescriptor{
		Label: "chart_resolve_view",
	})
	if err != nil {
		s.Destroy()
		return fmt.Errorf("create resolve view: %w", err)
	}
	s.resolveView = resolveView

	stagingSize := uint64(width) * 4 * uint64(height)
	staging, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "chart_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		s.Destroy()
		return fmt.Errorf("create readback buffer: %w", err)
	}
	s.staging = staging
	s.stagingSize = stagingSize

	s.width = width
	s.height = height
	slogger().Debug("gpu: surface resized", "width", width, "height", height)
	return nil
}

// Size returns the current pixel dimensions.
func (s *Surface) Size() (width, height uint32) { return s.width, s.height }

// ColorView returns the MSAA color attachment view.
func (s *Surface) ColorView() hal.TextureView { return s.msaaView }

// ResolveView returns the single-sample resolve target view.
func (s *Surface) ResolveView() hal.TextureView { return s.resolveView }

// ResolveTexture returns the single-sample texture holding the last
// resolved frame.
func (s *Surface) ResolveTexture() hal.Texture { return s.resolveTex }

// Destroy releases all GPU resources. The surface can be reused by
// calling Ensure again.
func (s *Surface) Destroy() {
	if s.staging != nil {
		s.device.DestroyBuffer(s.staging)
		s.staging = nil
		s.stagingSize = 0
	}
	if s.resolveView != nil {
		s.device.DestroyTextureView(s.resolveView)
		s.resolveView = nil
	}
	if s.resolveTex != nil {
		s.device.DestroyTexture(s.resolveTex)
		s.resolveTex = nil
	}
	if s.msaaView != nil {
		s.device.DestroyTextureView(s.msaaView)
		s.msaaView = nil
	}
	if s.msaaTex != nil {
		s.device.DestroyTexture(s.msaaTex)
		s.msaaTex = nil
	}
	s.width = 0
	s.height = 0
}
