// Package gpu owns adapter, device, and queue acquisition for chart
// rendering, along with the offscreen surface and per-frame encoding
// helpers built on wgpu/hal.
package gpu

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // registers the vulkan backend
)

// Sentinel errors reported by the graphics layer.
var (
	// ErrInit indicates adapter or device acquisition failed.
	ErrInit = errors.New("gpu: graphics init failed")
	// ErrLost indicates the device has been lost and the context is unusable.
	ErrLost = errors.New("gpu: device lost")
	// ErrDestroyed indicates the context was already destroyed.
	ErrDestroyed = errors.New("gpu: context destroyed")
)

// PowerPreference selects which adapter class to prefer at init.
type PowerPreference int

const (
	PowerDefault PowerPreference = iota
	PowerLow
	PowerHigh
)

// Device-loss reasons reported to registered callbacks.
const (
	LostDestroyed = "destroyed"
	LostUnknown   = "unknown"
)

// ErrorClass buckets uncaptured device errors.
type ErrorClass int

const (
	ErrorOther ErrorClass = iota
	ErrorValidation
	ErrorOutOfMemory
)

func (c ErrorClass) String() string {
	switch c {
	case ErrorValidation:
		return "validation"
	case ErrorOutOfMemory:
		return "out-of-memory"
	default:
		return "other"
	}
}

// Capabilities describes the adapter the context ended up on.
type Capabilities struct {
	Backend        string
	AdapterName    string
	AdapterType    string
	MaxTextureSize uint32
	Compute        bool
}

// halProvider is the duck-typed interface for external device providers.
// Implementations return hal.Device and hal.Queue from HalDevice/HalQueue.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// Config controls context creation.
type Config struct {
	// Provider optionally supplies an already-open device and queue.
	// It must implement HalDevice() any and HalQueue() any.
	Provider any
	// Power selects the preferred adapter class when opening our own device.
	Power PowerPreference
}

// Context owns the GPU instance, device, and queue for one chart.
//
// When created from an external provider the device is shared and is not
// destroyed on Destroy. Destroy always reports device loss with reason
// "destroyed" to registered callbacks, at most once.
type Context struct {
	mu        sync.Mutex
	instance  hal.Instance
	device    hal.Device
	queue     hal.Queue
	external  bool
	destroyed bool
	lost      bool
	caps      Capabilities
	lostCBs   []func(reason string)
}

// NewContext acquires a device and queue, either from cfg.Provider or by
// opening an adapter on the registered backend. All failures wrap ErrInit.
func NewContext(cfg Config) (*Context, error) {
	c := &Context{}
	if cfg.Provider != nil {
		if err := c.initExternal(cfg.Provider); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err := c.initGPU(cfg.Power); err != nil {
		c.releaseLocked()
		return nil, err
	}
	return c, nil
}

func (c *Context) initExternal(provider any) error {
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("%w: provider %T does not implement HalDevice/HalQueue", ErrInit, provider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrInit)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrInit)
	}
	c.device = device
	c.queue = queue
	c.external = true
	c.caps = Capabilities{
		Backend:        "external",
		AdapterName:    "external device",
		AdapterType:    "unknown",
		MaxTextureSize: defaultMaxTextureSize,
		Compute:        true,
	}
	slogger().Debug("gpu: using external device provider")
	return nil
}

func (c *Context) initGPU(power PowerPreference) error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan backend not available", ErrInit)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("%w: create instance: %v", ErrInit, err)
	}
	c.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("%w: no GPU adapters found", ErrInit)
	}
	selected := pickAdapter(adapters, power)
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("%w: open device: %v", ErrInit, err)
	}
	c.device = openDev.Device
	c.queue = openDev.Queue
	c.caps = Capabilities{
		Backend:        "vulkan",
		AdapterName:    selected.Info.Name,
		AdapterType:    adapterTypeName(selected.Info.DeviceType),
		MaxTextureSize: defaultMaxTextureSize,
		Compute:        true,
	}
	slogger().Info("gpu: device opened", "adapter", selected.Info.Name, "type", c.caps.AdapterType)
	return nil
}

// defaultMaxTextureSize matches the WebGPU guaranteed minimum.
const defaultMaxTextureSize = 8192

// pickAdapter selects an adapter honoring the power preference. Discrete
// beats integrated for high performance; integrated beats discrete for low
// power. Falls back to the first adapter when no preferred class exists.
func pickAdapter(adapters []hal.ExposedAdapter, power PowerPreference) *hal.ExposedAdapter {
	order := []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU}
	if power == PowerLow {
		order = []gputypes.DeviceType{gputypes.DeviceTypeIntegratedGPU, gputypes.DeviceTypeDiscreteGPU}
	}
	for _, want := range order {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

func adapterTypeName(t gputypes.DeviceType) string {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return "discrete-gpu"
	case gputypes.DeviceTypeIntegratedGPU:
		return "integrated-gpu"
	default:
		return "other"
	}
}

// Device returns the HAL device, or nil after Destroy.
func (c *Context) Device() hal.Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

// Queue returns the HAL queue, or nil after Destroy.
func (c *Context) Queue() hal.Queue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue
}

// Caps returns the capabilities captured at init.
func (c *Context) Caps() Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps
}

// Alive reports whether the context still has a usable device.
func (c *Context) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.destroyed && !c.lost && c.device != nil
}

// OnLost registers a callback invoked once when the device is lost.
// The reason is "destroyed" or "unknown".
func (c *Context) OnLost(fn func(reason string)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lostCBs = append(c.lostCBs, fn)
}

// NotifyLost marks the device lost and fires registered callbacks.
// Unrecognized reasons are reported as "unknown". Subsequent calls and
// a later Destroy do not fire the callbacks again.
func (c *Context) NotifyLost(reason string) {
	if reason != LostDestroyed {
		reason = LostUnknown
	}
	c.mu.Lock()
	if c.lost || c.destroyed {
		c.mu.Unlock()
		return
	}
	c.lost = true
	cbs := append([]func(string){}, c.lostCBs...)
	c.mu.Unlock()

	slogger().Warn("gpu: device lost", "reason", reason)
	for _, fn := range cbs {
		fn(reason)
	}
}

// Destroy releases the device and instance unless they came from an
// external provider. Safe to call more than once. The first call reports
// device loss with reason "destroyed" if no loss was reported before.
func (c *Context) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	fireLost := !c.lost
	c.lost = true
	cbs := append([]func(string){}, c.lostCBs...)
	c.lostCBs = nil
	c.releaseLocked()
	c.mu.Unlock()

	if fireLost {
		for _, fn := range cbs {
			fn(LostDestroyed)
		}
	}
	slogger().Debug("gpu: context destroyed")
}

// releaseLocked drops device and instance references. Caller holds mu
// (or owns the context exclusively during failed init).
func (c *Context) releaseLocked() {
	if c.device != nil && !c.external {
		c.device.Destroy()
	}
	c.device = nil
	c.queue = nil
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}
}

// Classify buckets an uncaptured device error into validation,
// out-of-memory, or other, by inspecting the error text.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorOther
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "out of memory") || strings.Contains(msg, "out-of-memory") ||
		strings.Contains(msg, "oom") || strings.Contains(msg, "allocation failed"):
		return ErrorOutOfMemory
	case strings.Contains(msg, "validation") || strings.Contains(msg, "invalid descriptor") ||
		strings.Contains(msg, "invalid usage"):
		return ErrorValidation
	default:
		return ErrorOther
	}
}
