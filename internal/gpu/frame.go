package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// submitTimeout bounds how long we wait for the GPU to finish a frame.
const submitTimeout = 5 * time.Second

// Frame wraps one command encoder from BeginFrame to Finish.
type Frame struct {
	device  hal.Device
	queue   hal.Queue
	encoder hal.CommandEncoder
	label   string
}

// BeginFrame creates a command encoder and starts encoding.
func BeginFrame(device hal.Device, queue hal.Queue, label string) (*Frame, error) {
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	return &Frame{device: device, queue: queue, encoder: encoder, label: label}, nil
}

// Encoder exposes the underlying command encoder for copies and barriers.
func (f *Frame) Encoder() hal.CommandEncoder { return f.encoder }

// BeginPass opens the chart render pass: MSAA color attachment resolving
// into the surface's single-sample texture, cleared to the given color.
// The caller must call End on the returned pass before Finish.
func (f *Frame) BeginPass(surface *Surface, clear gputypes.Color) hal.RenderPassEncoder {
	return f.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: f.label + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:          surface.ColorView(),
				ResolveTarget: surface.ResolveView(),
				LoadOp:        gputypes.LoadOpClear,
				StoreOp:       gputypes.StoreOpStore,
				ClearValue:    clear,
			},
		},
	})
}

// Finish ends encoding, submits the command buffer, and blocks until the
// GPU signals completion. Returns the time spent waiting on the fence.
func (f *Frame) Finish() (time.Duration, error) {
	cmdBuf, err := f.encoder.EndEncoding()
	if err != nil {
		return 0, fmt.Errorf("end encoding: %w", err)
	}
	defer f.device.FreeCommandBuffer(cmdBuf)

	fence, err := f.device.CreateFence()
	if err != nil {
		return 0, fmt.Errorf("create fence: %w", err)
	}
	defer f.device.DestroyFence(fence)

	start := time.Now()
	if err := f.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return 0, fmt.Errorf("submit: %w", err)
	}
	ok, err := f.device.Wait(fence, 1, submitTimeout)
	if err != nil {
		return 0, fmt.Errorf("wait fence: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("wait fence: timed out after %v", submitTimeout)
	}
	return time.Since(start), nil
}

// Abort discards the encoder without submitting.
func (f *Frame) Abort() {
	f.encoder.DiscardEncoding()
}

// ReadPixels copies the last resolved frame into a BGRA8 byte slice of
// length width*height*4. It encodes a barrier, a texture-to-buffer copy,
// submits, waits, and reads the staging buffer back.
func ReadPixels(device hal.Device, queue hal.Queue, surface *Surface) ([]byte, error) {
	w, h := surface.Size()
	if w == 0 || h == 0 || surface.resolveTex == nil {
		return nil, fmt.Errorf("gpu: surface has no frame to read")
	}

	frame, err := BeginFrame(device, queue, "chart_readback")
	if err != nil {
		return nil, err
	}

	// Vulkan requires the resolve texture in TRANSFER_SRC before the copy.
	// This is a no-op on the noop backend.
	frame.encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: surface.resolveTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	frame.encoder.CopyTextureToBuffer(surface.resolveTex, surface.staging, []hal.BufferTextureCopy{
		{
			BufferLayout: hal.ImageDataLayout{
				Offset:       0,
				BytesPerRow:  w * 4,
				RowsPerImage: h,
			},
			TextureBase: hal.ImageCopyTexture{Texture: surface.resolveTex, MipLevel: 0},
			Size:        hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		},
	})
	if _, err := frame.Finish(); err != nil {
		return nil, err
	}

	out := make([]byte, surface.stagingSize)
	if err := queue.ReadBuffer(surface.staging, 0, out); err != nil {
		return nil, fmt.Errorf("read staging buffer: %w", err)
	}
	return out, nil
}
