// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raymarks

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/raymarks/internal/gpu"
	"github.com/gogpu/raymarks/shaders"
)

// ClearColor is the color every pass clears the render target to: opaque
// black.
var ClearColor = gputypes.Color{R: 0, G: 0, B: 0, A: 1}

// Vertex and instance counts of the rasterization draw.
const (
	rasterizationVertices  = 3
	rasterizationInstances = 1
)

// Context owns a GPU device and queue, the live command recorder and the
// render target with its staging buffer.
//
// A Context is driven by a single owner and is NOT safe for concurrent use.
// Recording appends to the live recorder; Submit moves it out to the queue
// and installs a fresh one in the same call, so the Context always has a
// usable recorder.
type Context struct {
	opts options

	// owned is set when the Context opened the device itself.
	owned  *gpu.Device
	device hal.Device
	queue  hal.Queue

	recorder    *gpu.Recorder
	target      *gpu.TargetPair
	submissions *gpu.Submissions

	// pendingMaps are staging buffers with a requested but unresolved
	// mapping. They are resolved once the queue is idle.
	pendingMaps []*gpu.StagingBuffer

	lastSubmitted int
	closed        bool
}

// New acquires a high-performance adapter, opens a device and queue on it
// and allocates the initial render target. There is no software fallback:
// without a usable GPU the error wraps ErrNoGPU.
func New(opts ...Option) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.provider != nil {
		device, queue, err := halFromProvider(o.provider)
		if err != nil {
			return nil, err
		}
		return newContext(o, nil, device, queue)
	}

	dev, err := gpu.OpenDevice(o.backend)
	if err != nil {
		return nil, err
	}
	c, err := newContext(o, dev, dev.Device, dev.Queue)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return c, nil
}

// NewWithDevice creates a Context on a caller-owned device and queue. Close
// leaves the device alive.
func NewWithDevice(device hal.Device, queue hal.Queue, opts ...Option) (*Context, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil device or queue", ErrNoGPU)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newContext(o, nil, device, queue)
}

func newContext(o options, owned *gpu.Device, device hal.Device, queue hal.Queue) (*Context, error) {
	recorder, err := gpu.NewRecorder(device, "benchmark_encoder")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoGPU, err)
	}
	target, err := gpu.NewTargetPair(device, o.width, o.height)
	if err != nil {
		recorder.Discard()
		return nil, fmt.Errorf("allocate render target: %w", err)
	}

	attrs := []any{"width", o.width, "height", o.height, "owned", owned != nil}
	if owned != nil {
		attrs = append(attrs, "adapter", owned.AdapterName, "adapter_type", owned.AdapterType)
	}
	Logger().Info("raymarks: context initialized", attrs...)

	return &Context{
		opts:        o,
		owned:       owned,
		device:      device,
		queue:       queue,
		recorder:    recorder,
		target:      target,
		submissions: gpu.NewSubmissions(device, queue),
	}, nil
}

// halFromProvider extracts HAL handles from a device provider that exposes
// HalDevice() and HalQueue().
func halFromProvider(provider any) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, fmt.Errorf("%w: provider does not expose HAL handles", ErrNoGPU)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrNoGPU)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrNoGPU)
	}
	return device, queue, nil
}

// Resize replaces the render target and staging buffer with a pair of the
// given size. A pending mapping on the old pair ends with a failure status.
// The old pair is destroyed once no command buffer can use it anymore:
// immediately when the queue is idle and nothing is recorded, otherwise
// after the work referencing it completes. Resizing to the current size
// still reallocates.
func (c *Context) Resize(width, height uint32) error {
	if c.closed {
		return ErrClosed
	}
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	if c.target != nil {
		c.failPendingMaps(gpu.MapStatusDestroyedBeforeCallback)
		if c.recorder.Len() > 0 {
			c.recorder.Retain(c.target)
		} else {
			c.submissions.Retire(c.target)
		}
		c.target = nil
	}

	target, err := gpu.NewTargetPair(c.device, width, height)
	if err != nil {
		return fmt.Errorf("resize to %dx%d: %w", width, height, err)
	}
	c.target = target
	Logger().Debug("raymarks: resized", "width", width, "height", height)
	return nil
}

// Size returns the current render target size.
func (c *Context) Size() (width, height uint32) {
	if c.target == nil {
		return 0, 0
	}
	return c.target.Width(), c.target.Height()
}

// StagingSize returns the staging buffer capacity in bytes:
// BytesPerRow()*height, which is 4*width*height for widths that are a
// multiple of 64.
func (c *Context) StagingSize() uint64 {
	if c.target == nil || c.target.Staging == nil {
		return 0
	}
	return c.target.Staging.Size()
}

// BytesPerRow returns the row pitch of the staging buffer.
func (c *Context) BytesPerRow() uint32 {
	if c.target == nil {
		return 0
	}
	return c.target.BytesPerRow()
}

// BuildRasterizationPipeline loads the rasterization shader and builds a new
// pipeline from it. Pipelines are never cached; the caller owns the result.
func (c *Context) BuildRasterizationPipeline() (*gpu.RasterizationPipeline, error) {
	if c.closed {
		return nil, ErrClosed
	}
	source, err := c.shaderSource(shaders.Rasterization)
	if err != nil {
		return nil, err
	}
	pipeline, err := gpu.NewRasterizationPipeline(c.device, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShaderAsset, err)
	}
	return pipeline, nil
}

func (c *Context) shaderSource(s shaders.Shader) (hal.ShaderSource, error) {
	var (
		text string
		err  error
	)
	if c.opts.shaderDir != "" {
		text, err = s.LoadFrom(c.opts.shaderDir)
	} else {
		text, err = s.Load()
	}
	if err != nil {
		return hal.ShaderSource{}, fmt.Errorf("%w: %w", ErrShaderAsset, err)
	}

	if c.opts.shaderFormat == ShaderFormatSPIRV {
		code, err := shaders.CompileSPIRV(text)
		if err != nil {
			return hal.ShaderSource{}, fmt.Errorf("%w: %v: %w", ErrShaderAsset, s, err)
		}
		return hal.ShaderSource{SPIRV: code}, nil
	}
	return hal.ShaderSource{WGSL: text}, nil
}

// RecordRasterizationPass records a render pass that clears the target to
// ClearColor and draws one triangle (3 vertices, 1 instance), followed by a
// copy of the full target into the staging buffer. Nothing runs until
// Submit.
func (c *Context) RecordRasterizationPass() error {
	if c.closed {
		return ErrClosed
	}
	pipeline, err := c.BuildRasterizationPipeline()
	if err != nil {
		return err
	}
	return c.recordPass(pipeline)
}

// RecordClearPass records the same pass as RecordRasterizationPass without
// the draw, followed by the copy into the staging buffer.
func (c *Context) RecordClearPass() error {
	if c.closed {
		return ErrClosed
	}
	return c.recordPass(nil)
}

func (c *Context) recordPass(pipeline *gpu.RasterizationPipeline) error {
	if c.target == nil {
		if pipeline != nil {
			pipeline.Destroy(c.device)
		}
		return ErrNoTarget
	}
	err := c.recorder.RecordPass(c.target, ClearColor, pipeline, rasterizationVertices, rasterizationInstances)
	if err != nil {
		return fmt.Errorf("record pass: %w", err)
	}
	if err := c.recorder.CopyTargetToStaging(c.target); err != nil {
		return fmt.Errorf("record copy: %w", err)
	}
	return nil
}

// Submit hands everything recorded since the previous Submit to the queue
// and returns without waiting for the GPU. A fresh recorder replaces the
// submitted one before the old one is finished, so a failure never leaves
// the Context without a recorder. Submitting with nothing recorded enqueues
// an empty command buffer.
func (c *Context) Submit() error {
	if c.closed {
		return ErrClosed
	}
	fresh, err := gpu.NewRecorder(c.device, "benchmark_encoder")
	if err != nil {
		return fmt.Errorf("create recorder: %w", err)
	}
	old := c.recorder
	c.recorder = fresh

	recording, err := old.Finish()
	if err != nil {
		return fmt.Errorf("finish recorder: %w", err)
	}
	commands := recording.Commands
	if err := c.submissions.Submit(recording); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceLost, err)
	}
	c.lastSubmitted = commands
	return nil
}

// LastSubmitted returns the number of commands in the most recently
// submitted command buffer.
func (c *Context) LastSubmitted() int { return c.lastSubmitted }

// InFlight returns the number of submissions the host has not yet observed
// complete.
func (c *Context) InFlight() int { return c.submissions.InFlight() }

// Poll drives the device one step: it releases completed submissions and,
// when the queue is idle, completes pending staging buffer mappings. Each
// call waits at most the poll interval. It reports whether the queue is
// idle. Mappings only complete while Poll is being called.
func (c *Context) Poll() (bool, error) {
	if c.closed {
		return false, ErrClosed
	}
	idle, err := c.submissions.Poll(c.opts.pollInterval)
	if err != nil {
		c.failPendingMaps(gpu.MapStatusDeviceLost)
		return false, err
	}
	if !idle {
		return false, nil
	}

	pending := c.pendingMaps
	c.pendingMaps = nil
	for _, b := range pending {
		b.Resolve()
	}
	return true, nil
}

func (c *Context) failPendingMaps(status gpu.MapStatus) {
	pending := c.pendingMaps
	c.pendingMaps = nil
	for _, b := range pending {
		b.Fail(status)
	}
}

func (c *Context) dropPendingMap(b *gpu.StagingBuffer) {
	for i, p := range c.pendingMaps {
		if p == b {
			c.pendingMaps = append(c.pendingMaps[:i], c.pendingMaps[i+1:]...)
			return
		}
	}
}

// Close waits for in-flight work, then releases the recorder, the target
// pair and, if the Context opened it, the device. If the work does not
// complete within the map timeout, those objects are leaked instead of
// destroyed under the GPU and the error is returned. Calling Close more
// than once is a no-op.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.submissions.WaitIdle(c.opts.mapTimeout)
	c.failPendingMaps(gpu.MapStatusDestroyedBeforeCallback)
	if err != nil {
		Logger().Warn("raymarks: GPU work still in flight, leaking device resources",
			"in_flight", c.submissions.InFlight(), "err", err)
		return err
	}

	c.submissions.Destroy()
	if c.recorder != nil {
		c.recorder.Discard()
		c.recorder = nil
	}
	if c.target != nil {
		c.target.Destroy(c.device)
		c.target = nil
	}
	if c.owned != nil {
		c.owned.Close()
		c.owned = nil
	}
	return nil
}
