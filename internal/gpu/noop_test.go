// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
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

// heldQueue reports only submissions up to completed as finished.
type heldQueue struct {
	hal.Queue
	completed uint64
	polls     int
}

func (q *heldQueue) PollCompleted() uint64 {
	q.polls++
	return q.completed
}

// brokenDevice reports every fence query as failed.
type brokenDevice struct {
	hal.Device
}

var errFenceLost = errors.New("fence lost")

func (brokenDevice) GetFenceStatus(hal.Fence) (bool, error) {
	return false, errFenceLost
}

// unmappableDevice fails every buffer mapping.
type unmappableDevice struct {
	hal.Device
}

func (unmappableDevice) MapBuffer(hal.Buffer, uint64, uint64) (hal.BufferMapping, error) {
	return hal.BufferMapping{}, hal.ErrInvalidMapRange
}

// countingDevice counts destroyed objects.
type countingDevice struct {
	hal.Device
	fences, pipelines, buffers int
	textures, commandBuffers   int
	unmaps                     int
}

func (d *countingDevice) DestroyFence(f hal.Fence) {
	d.fences++
	d.Device.DestroyFence(f)
}

func (d *countingDevice) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.pipelines++
	d.Device.DestroyRenderPipeline(p)
}

func (d *countingDevice) DestroyBuffer(b hal.Buffer) {
	d.buffers++
	d.Device.DestroyBuffer(b)
}

func (d *countingDevice) DestroyTexture(tex hal.Texture) {
	d.textures++
	d.Device.DestroyTexture(tex)
}

func (d *countingDevice) FreeCommandBuffer(c hal.CommandBuffer) {
	d.commandBuffers++
	d.Device.FreeCommandBuffer(c)
}

func (d *countingDevice) UnmapBuffer(b hal.Buffer) error {
	d.unmaps++
	return d.Device.UnmapBuffer(b)
}
