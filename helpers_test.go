// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raymarks

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/raymarks/internal/gputest"
)

// newNoopDevice opens a device on the noop backend. It is destroyed when
// the test ends, after any cleanup registered later.
func newNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	require.NoError(t, err)
	adapters := instance.EnumerateAdapters(nil)
	require.NotEmpty(t, adapters)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
	}
	require.NoError(t, err, "open noop adapter")
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// newSoftGPU wraps a noop device so that recorded passes and copies are
// executed on the host.
func newSoftGPU(t *testing.T) (*gputest.Device, *gputest.Queue) {
	t.Helper()
	device, queue := newNoopDevice(t)
	return gputest.New(device, queue)
}

// newTestContext creates a Context writing into a temporary directory.
func newTestContext(t *testing.T, device hal.Device, queue hal.Queue, opts ...Option) *Context {
	t.Helper()
	opts = append([]Option{WithOutputDirectory(t.TempDir())}, opts...)
	c, err := NewWithDevice(device, queue, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// heldQueue reports only submissions up to completed as finished. The
// zero value never completes anything.
type heldQueue struct {
	hal.Queue
	completed uint64
}

func (q *heldQueue) PollCompleted() uint64 { return q.completed }

// lostDevice fails every fence query.
type lostDevice struct {
	hal.Device
}

var errVanished = errors.New("device vanished")

func (lostDevice) GetFenceStatus(hal.Fence) (bool, error) {
	return false, errVanished
}

// trackedDevice counts Destroy calls.
type trackedDevice struct {
	hal.Device
	destroyed int
}

func (d *trackedDevice) Destroy() { d.destroyed++ }

// Colors as stored in the RGBA8 sRGB target.
var (
	opaqueBlack = [4]byte{0, 0, 0, 255}
	shaderRed   = [4]byte{255, 0, 0, 255}
)

// insideTriangle reports whether the center of pixel (x, y) lies in the
// triangle (-1,-1), (0,1), (1,-1) drawn by the rasterization shader.
func insideTriangle(x, y, w, h int) bool {
	nx := (float64(x)+0.5)/float64(w)*2 - 1
	ny := 1 - (float64(y)+0.5)/float64(h)*2
	half := (1 - ny) / 2
	return nx >= -half && nx <= half
}

// expectedPixel is the color of a rasterization pass at (x, y).
func expectedPixel(x, y, w, h int) [4]byte {
	if insideTriangle(x, y, w, h) {
		return shaderRed
	}
	return opaqueBlack
}
