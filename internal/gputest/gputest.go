// Package gputest provides GPU fixtures for tests, backed by the noop
// HAL backend. The noop backend accepts every command and returns zeroed
// data on readback, which is enough to exercise resource lifecycles and
// encoding paths without real hardware.
package gputest

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Device opens a device and queue on the noop backend.
// Returns the device, queue, and a cleanup function.
func Device(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("no noop adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// Provider wraps a device and queue in the external device provider shape
// accepted by the graphics context.
type Provider struct {
	device hal.Device
	queue  hal.Queue
}

// NewProvider returns a Provider handing out the given device and queue.
func NewProvider(device hal.Device, queue hal.Queue) *Provider {
	return &Provider{device: device, queue: queue}
}

// HalDevice returns the wrapped hal.Device.
func (p *Provider) HalDevice() any { return p.device }

// HalQueue returns the wrapped hal.Queue.
func (p *Provider) HalQueue() any { return p.queue }
