package renderer

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// seriesUniforms is the uniform block shared by every series pipeline.
// Field order and padding mirror the WGSL declaration; keep them in
// sync with shaders/*.wgsl.
type seriesUniforms struct {
	Viewport [4]float32 // (w, h, dpr, 0)
	Plot     [4]float32 // (x, y, w, h)
	XMap     [2]float32 // px = a*x + b
	YMap     [2]float32
	Color    [4]float32
	Color2   [4]float32
	Params   [4]float32
	Misc     [4]float32 // x: count, rest per-kind
}

// uniformSize is the byte size of seriesUniforms.
const uniformSize = uint64(unsafe.Sizeof(seriesUniforms{}))

// structToBytes returns the raw byte view of a struct for GPU upload.
func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size) //nolint:gosec // safe struct serialization
}

// uniformsFor packs an Input into the shared uniform block.
func uniformsFor(in Input) seriesUniforms {
	return seriesUniforms{
		Viewport: [4]float32{in.Viewport[0], in.Viewport[1], 1, 0},
		Plot:     in.Plot,
		XMap:     [2]float32{in.XA, in.XB},
		YMap:     [2]float32{in.YA, in.YB},
		Color:    in.Color,
		Color2:   in.Color2,
		Params:   in.Params,
		Misc:     [4]float32{float32(in.Count), 0, 0, 0},
	}
}

// uniformSlot owns one uniform buffer plus the bind group tying it to a
// series storage buffer. The bind group is rebuilt whenever the storage
// buffer identity changes (the store swaps buffers when they grow).
type uniformSlot struct {
	device hal.Device
	queue  hal.Queue
	layout hal.BindGroupLayout

	buf       hal.Buffer
	bindGroup hal.BindGroup
	boundData hal.Buffer
	withData  bool
}

func newUniformSlot(device hal.Device, queue hal.Queue, layout hal.BindGroupLayout, withData bool) *uniformSlot {
	return &uniformSlot{device: device, queue: queue, layout: layout, withData: withData}
}

// update uploads the uniform block and (re)binds the storage buffer.
func (s *uniformSlot) update(u seriesUniforms, data hal.Buffer, dataSize uint64) error {
	if s.buf == nil {
		buf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "series_uniforms",
			Size:  uniformSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create uniform buffer: %w", err)
		}
		s.buf = buf
	}
	s.queue.WriteBuffer(s.buf, 0, structToBytes(unsafe.Pointer(&u), unsafe.Sizeof(u)))

	if s.bindGroup != nil && (!s.withData || s.boundData == data) {
		return nil
	}
	if s.bindGroup != nil {
		s.device.DestroyBindGroup(s.bindGroup)
		s.bindGroup = nil
	}
	entries := []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{
			Buffer: s.buf.NativeHandle(), Offset: 0, Size: uniformSize,
		}},
	}
	if s.withData {
		if data == nil {
			return fmt.Errorf("series bind group needs a data buffer")
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: 1, Resource: gputypes.BufferBinding{
				Buffer: data.NativeHandle(), Offset: 0, Size: dataSize,
			},
		})
	}
	bg, err := s.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "series_bind",
		Layout:  s.layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	s.bindGroup = bg
	s.boundData = data
	return nil
}

func (s *uniformSlot) destroy() {
	if s.bindGroup != nil {
		s.device.DestroyBindGroup(s.bindGroup)
		s.bindGroup = nil
	}
	if s.buf != nil {
		s.device.DestroyBuffer(s.buf)
		s.buf = nil
	}
	s.boundData = nil
}

// growBuffer ensures buf holds at least need bytes, recreating it at the
// next power of two when it does not. Returns the (possibly new) buffer
// and capacity, and whether it was recreated.
func growBuffer(device hal.Device, buf hal.Buffer, capacity, need uint64, label string, usage gputypes.BufferUsage) (hal.Buffer, uint64, bool, error) {
	if buf != nil && need <= capacity {
		return buf, capacity, false, nil
	}
	if buf != nil {
		device.DestroyBuffer(buf)
	}
	newCap := uint64(4)
	for newCap < need {
		newCap *= 2
	}
	nb, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  newCap,
		Usage: usage,
	})
	if err != nil {
		return nil, 0, false, fmt.Errorf("create %s: %w", label, err)
	}
	return nb, newCap, true, nil
}
