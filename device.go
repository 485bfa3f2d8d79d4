package chartgpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// A chart never has to own its GPU device: a host that already drives a
// device (a gogpu app, an engine, another chart) can hand it over through
// WithDeviceProvider and the chart will render on it without creating an
// instance of its own. Shared devices survive Dispose; the chart only
// destroys devices it created itself.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, so any provider
// from the gpucontext ecosystem can be passed to WithDeviceProvider
// unchanged. For the chart to actually use the shared device the provider
// must also expose the raw HAL handles:
//
//	HalDevice() any // hal.Device
//	HalQueue() any  // hal.Queue
//
// gogpu's providers implement both.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle with no device behind it.
//
// Hosts that may or may not have a GPU can pass their handle
// unconditionally; a chart that receives a null handle creates and owns
// its own device, exactly as if no provider had been given.
type NullDeviceHandle struct{}

// Device returns nil for the null handle.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null handle.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null handle.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined for the null handle.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

var _ DeviceHandle = NullDeviceHandle{}
