// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// InstanceFactory creates HAL instances. Backends returned by
// hal.GetBackend and the noop API both satisfy it.
type InstanceFactory interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// Device is an opened logical device together with the instance it came
// from. The Device owns both and releases them in Close.
type Device struct {
	Instance hal.Instance
	Device   hal.Device
	Queue    hal.Queue

	AdapterName string
	AdapterType gputypes.DeviceType
}

// OpenDevice acquires a high-performance adapter from the given backend and
// opens a device and queue on it with default features and limits.
//
// There is no software fallback: if the backend is missing or exposes no
// adapters, the returned error wraps ErrNoGPU.
func OpenDevice(backend gputypes.Backend) (*Device, error) {
	b, ok := hal.GetBackend(backend)
	if !ok {
		return nil, fmt.Errorf("%w: %w (%v)", ErrNoGPU, ErrBackendUnavailable, backend)
	}
	return OpenDeviceFrom(b)
}

// OpenDeviceFrom is OpenDevice for an explicit instance factory.
func OpenDeviceFrom(factory InstanceFactory) (*Device, error) {
	instance, err := factory.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoGPU, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapters found", ErrNoGPU)
	}
	selected := selectAdapter(adapters)

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %w", ErrNoGPU, err)
	}

	slogger().Info("gpu: adapter acquired",
		"name", selected.Info.Name,
		"type", selected.Info.DeviceType,
	)

	return &Device{
		Instance: instance,
		Device:   openDev.Device,
		Queue:    openDev.Queue,

		AdapterName: selected.Info.Name,
		AdapterType: selected.Info.DeviceType,
	}, nil
}

// Close destroys the device and its instance.
func (d *Device) Close() {
	if d.Device != nil {
		d.Device.Destroy()
		d.Device = nil
	}
	if d.Instance != nil {
		d.Instance.Destroy()
		d.Instance = nil
	}
	d.Queue = nil
}

// selectAdapter prefers a discrete GPU, then an integrated one, then
// whatever the backend listed first.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	best := 0
	for i := range adapters {
		if adapterRank(adapters[i].Info.DeviceType) < adapterRank(adapters[best].Info.DeviceType) {
			best = i
		}
	}
	return &adapters[best]
}

func adapterRank(t gputypes.DeviceType) int {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return 0
	case gputypes.DeviceTypeIntegratedGPU:
		return 1
	default:
		return 2
	}
}
