package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
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

// newTestRenderer builds a renderer on a noop device. Closing the returned
// cleanup tears down the renderer and the device.
func newTestRenderer(t *testing.T, cfg Config) (*Renderer, func()) {
	t.Helper()
	device, queue, cleanupDev := createNoopDevice(t)
	r, err := NewRenderer(NewDevice(device, queue), cfg)
	if err != nil {
		cleanupDev()
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return r, func() {
		r.Close()
		cleanupDev()
	}
}
