//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/instanced"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Open creates a device on the first discrete or integrated GPU the
// Vulkan backend reports, falling back to the first adapter. The device
// is destroyed by Release.
func Open(opts ...Option) (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrNoBackend
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}

	d := NewDevice(openDev.Device, openDev.Queue, opts...)
	d.instance = instance
	d.owned = true
	instanced.Logger().Info("native: device opened", "adapter", selected.Info.Name)
	return d, nil
}

// halAccessor is implemented by *wgpu.Device.
type halAccessor interface {
	HalDevice() hal.Device
	HalQueue() hal.Queue
}

// NewDeviceFromProvider shares the device of a gpucontext.DeviceProvider
// such as a gogpu window. The provider's Device must expose its HAL device
// and queue the way *wgpu.Device does. Pipelines target the provider's
// surface format when it reports one.
func NewDeviceFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	if provider == nil {
		return nil, ErrProvider
	}
	acc, ok := provider.Device().(halAccessor)
	if !ok {
		return nil, fmt.Errorf("%w: device %T has no HAL accessors", ErrProvider, provider.Device())
	}
	device, queue := acc.HalDevice(), acc.HalQueue()
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: device released", ErrProvider)
	}

	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		opts = append([]Option{WithFormat(f)}, opts...)
	}
	return NewDevice(device, queue, opts...), nil
}
