package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Device bundles a HAL device with its submission queue. It is constructed
// either by Open (real adapter enumeration) or by NewDevice (caller
// supplies the handles, e.g. a fake device in tests), so nothing in this
// package depends on global adapter state.
type Device struct {
	handle hal.Device
	queue  hal.Queue

	// Set only by Open; owned resources torn down by Close.
	instance hal.Instance

	adapterName string
}

// NewDevice wraps an externally acquired device and queue. Close on the
// returned Device does not destroy them; their lifetime stays with the
// caller.
func NewDevice(handle hal.Device, queue hal.Queue) *Device {
	return &Device{handle: handle, queue: queue}
}

// Open enumerates adapters on the Vulkan backend and opens a device,
// preferring discrete over integrated GPUs. It returns ErrNoGPU (wrapped
// with detail) when no backend, adapter or device is available.
func Open() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %v", ErrNoGPU, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapters enumerated", ErrNoGPU)
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			selected = &adapters[i]
			break
		}
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %v", ErrNoGPU, err)
	}

	slogger().Info("quartz: GPU device opened",
		"adapter", selected.Info.Name,
		"deviceType", selected.Info.DeviceType)

	return &Device{
		handle:      openDev.Device,
		queue:       openDev.Queue,
		instance:    instance,
		adapterName: selected.Info.Name,
	}, nil
}

// Handle returns the HAL device.
func (d *Device) Handle() hal.Device { return d.handle }

// Queue returns the submission queue.
func (d *Device) Queue() hal.Queue { return d.queue }

// AdapterName returns the adapter name, empty for injected devices.
func (d *Device) AdapterName() string { return d.adapterName }

// Close releases resources owned by Open. Devices wrapped via NewDevice
// are left untouched.
func (d *Device) Close() {
	if d.instance == nil {
		return
	}
	if d.handle != nil {
		d.handle.Destroy()
	}
	d.instance.Destroy()
	d.instance = nil
}
