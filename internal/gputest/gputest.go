// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gputest provides a host-side stand-in for a GPU.
//
// Device and Queue wrap real HAL objects, usually from the noop backend,
// and keep a software copy of every texture. Render passes and
// texture-to-buffer copies recorded through a Device are executed on the
// host when their command buffer is submitted to a Queue, so readbacks
// observe exactly what was recorded. Every pass, draw and copy is also
// kept for inspection.
package gputest

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// PaddingByte fills the bytes of a copied row past the texel data.
const PaddingByte = 0xAB

// FragmentColor is the color every draw writes, matching the
// rasterization shader.
var FragmentColor = gputypes.Color{R: 1, G: 0, B: 0, A: 1}

// VertexPosition returns the clip-space position of vertex i, matching the
// rasterization shader: (-1,-1), (0,1), (1,-1).
func VertexPosition(i uint32) (x, y float64) {
	return float64(int(i) - 1), float64(int(i&1)*2 - 1)
}

// Draw is one recorded draw call.
type Draw struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// Pass is one recorded render pass.
type Pass struct {
	Desc     hal.RenderPassDescriptor
	Pipeline hal.RenderPipeline
	Draws    []Draw
	Ended    bool
}

// Copy is one recorded texture-to-buffer copy.
type Copy struct {
	Src     *Texture
	Dst     hal.Buffer
	Regions []hal.BufferTextureCopy
}

// Device wraps a hal.Device. Textures and command encoders it creates are
// software-backed; everything else passes through.
type Device struct {
	hal.Device

	passes            []*Pass
	copies            []Copy
	destroyedTextures int
}

// New wraps device and queue.
func New(device hal.Device, queue hal.Queue) (*Device, *Queue) {
	return &Device{Device: device}, &Queue{Queue: queue}
}

// Passes returns every render pass begun so far, in order.
func (d *Device) Passes() []Pass {
	out := make([]Pass, len(d.passes))
	for i, p := range d.passes {
		out[i] = *p
	}
	return out
}

// Copies returns every texture-to-buffer copy recorded so far, in order.
func (d *Device) Copies() []Copy { return d.copies }

// DestroyedTextures returns how many textures were destroyed.
func (d *Device) DestroyedTextures() int { return d.destroyedTextures }

// Reset forgets recorded passes and copies.
func (d *Device) Reset() {
	d.passes = nil
	d.copies = nil
}

// Texture is a texture with host-side RGBA8 contents.
type Texture struct {
	hal.Texture

	Width  uint32
	Height uint32
	Format gputypes.TextureFormat

	pixels []byte
}

// Pixel returns the RGBA bytes at (x, y).
func (t *Texture) Pixel(x, y int) [4]byte {
	i := (y*int(t.Width) + x) * 4
	return [4]byte(t.pixels[i : i+4])
}

// TextureView is a view of a software-backed texture.
type TextureView struct {
	hal.TextureView
	Texture *Texture
}

// CreateTexture creates the underlying texture and a host copy of its
// contents.
func (d *Device) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	raw, err := d.Device.CreateTexture(desc)
	if err != nil {
		return nil, err
	}
	return &Texture{
		Texture: raw,
		Width:   desc.Size.Width,
		Height:  desc.Size.Height,
		Format:  desc.Format,
		pixels:  make([]byte, int(desc.Size.Width)*int(desc.Size.Height)*4),
	}, nil
}

// DestroyTexture destroys the underlying texture.
func (d *Device) DestroyTexture(texture hal.Texture) {
	if t, ok := texture.(*Texture); ok {
		d.destroyedTextures++
		d.Device.DestroyTexture(t.Texture)
		return
	}
	d.Device.DestroyTexture(texture)
}

// CreateTextureView creates a view that remembers its texture.
func (d *Device) CreateTextureView(texture hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	t, ok := texture.(*Texture)
	if !ok {
		return d.Device.CreateTextureView(texture, desc)
	}
	raw, err := d.Device.CreateTextureView(t.Texture, desc)
	if err != nil {
		return nil, err
	}
	return &TextureView{TextureView: raw, Texture: t}, nil
}

// DestroyTextureView destroys the underlying view.
func (d *Device) DestroyTextureView(view hal.TextureView) {
	if v, ok := view.(*TextureView); ok {
		d.Device.DestroyTextureView(v.TextureView)
		return
	}
	d.Device.DestroyTextureView(view)
}

// CreateCommandEncoder creates an encoder that records for host execution.
func (d *Device) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	raw, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &encoder{CommandEncoder: raw, device: d}, nil
}

// FreeCommandBuffer frees the underlying command buffer.
func (d *Device) FreeCommandBuffer(cmdBuffer hal.CommandBuffer) {
	if cb, ok := cmdBuffer.(*CommandBuffer); ok {
		d.Device.FreeCommandBuffer(cb.CommandBuffer)
		return
	}
	d.Device.FreeCommandBuffer(cmdBuffer)
}

// op is one command executed on submit.
type op func(queue hal.Queue) error

// CommandBuffer is a finished recording awaiting execution.
type CommandBuffer struct {
	hal.CommandBuffer
	ops []op
}

type encoder struct {
	hal.CommandEncoder
	device *Device
	ops    []op
}

func (e *encoder) BeginEncoding(label string) error {
	e.ops = nil
	return e.CommandEncoder.BeginEncoding(label)
}

func (e *encoder) EndEncoding() (hal.CommandBuffer, error) {
	raw, err := e.CommandEncoder.EndEncoding()
	if err != nil {
		return nil, err
	}
	cb := &CommandBuffer{CommandBuffer: raw, ops: e.ops}
	e.ops = nil
	return cb, nil
}

func (e *encoder) DiscardEncoding() {
	e.ops = nil
	e.CommandEncoder.DiscardEncoding()
}

func (e *encoder) TransitionTextures(barriers []hal.TextureBarrier) {
	raw := make([]hal.TextureBarrier, len(barriers))
	for i, b := range barriers {
		b.Texture = unwrapTexture(b.Texture)
		raw[i] = b
	}
	e.CommandEncoder.TransitionTextures(raw)
}

func (e *encoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	pass := &Pass{Desc: *desc}
	pass.Desc.ColorAttachments = append([]hal.RenderPassColorAttachment(nil), desc.ColorAttachments...)
	e.device.passes = append(e.device.passes, pass)

	raw := *desc
	raw.ColorAttachments = make([]hal.RenderPassColorAttachment, len(desc.ColorAttachments))
	var targets []*Texture
	for i, a := range desc.ColorAttachments {
		if v, ok := a.View.(*TextureView); ok {
			targets = append(targets, v.Texture)
			a.View = v.TextureView
			if a.LoadOp == gputypes.LoadOpClear {
				tex, color := v.Texture, a.ClearValue
				e.ops = append(e.ops, func(hal.Queue) error {
					tex.fill(color)
					return nil
				})
			}
		}
		raw.ColorAttachments[i] = a
	}
	return &renderPass{
		RenderPassEncoder: e.CommandEncoder.BeginRenderPass(&raw),
		encoder:           e,
		pass:              pass,
		targets:           targets,
	}
}

func (e *encoder) CopyTextureToBuffer(src hal.Texture, dst hal.Buffer, regions []hal.BufferTextureCopy) {
	regions = append([]hal.BufferTextureCopy(nil), regions...)
	tex, ok := src.(*Texture)
	if !ok {
		e.CommandEncoder.CopyTextureToBuffer(src, dst, regions)
		return
	}
	e.device.copies = append(e.device.copies, Copy{Src: tex, Dst: dst, Regions: regions})

	raw := make([]hal.BufferTextureCopy, len(regions))
	for i, r := range regions {
		r.TextureBase.Texture = tex.Texture
		raw[i] = r
	}
	e.CommandEncoder.CopyTextureToBuffer(tex.Texture, dst, raw)

	e.ops = append(e.ops, func(queue hal.Queue) error {
		for _, r := range regions {
			if err := tex.copyTo(queue, dst, r); err != nil {
				return err
			}
		}
		return nil
	})
}

type renderPass struct {
	hal.RenderPassEncoder
	encoder *encoder
	pass    *Pass
	targets []*Texture
}

func (p *renderPass) SetPipeline(pipeline hal.RenderPipeline) {
	p.pass.Pipeline = pipeline
	p.RenderPassEncoder.SetPipeline(pipeline)
}

func (p *renderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.pass.Draws = append(p.pass.Draws, Draw{
		VertexCount:   vertexCount,
		InstanceCount: instanceCount,
		FirstVertex:   firstVertex,
		FirstInstance: firstInstance,
	})
	p.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)

	if p.pass.Pipeline == nil || instanceCount == 0 {
		return
	}
	targets := p.targets
	p.encoder.ops = append(p.encoder.ops, func(hal.Queue) error {
		for _, t := range targets {
			for v := firstVertex; v+3 <= firstVertex+vertexCount; v += 3 {
				t.rasterize(v)
			}
		}
		return nil
	})
}

func (p *renderPass) End() {
	p.pass.Ended = true
	p.RenderPassEncoder.End()
}

// Queue wraps a hal.Queue and executes software command buffers on submit.
type Queue struct {
	hal.Queue
}

// Submit executes the recorded commands, then submits the underlying
// command buffers.
func (q *Queue) Submit(commandBuffers []hal.CommandBuffer) (uint64, error) {
	raw := make([]hal.CommandBuffer, len(commandBuffers))
	for i, c := range commandBuffers {
		cb, ok := c.(*CommandBuffer)
		if !ok {
			raw[i] = c
			continue
		}
		for _, run := range cb.ops {
			if err := run(q.Queue); err != nil {
				return 0, err
			}
		}
		raw[i] = cb.CommandBuffer
	}
	return q.Queue.Submit(raw)
}

func (t *Texture) fill(c gputypes.Color) {
	px := t.encode(c)
	for i := 0; i < len(t.pixels); i += 4 {
		copy(t.pixels[i:i+4], px[:])
	}
}

// rasterize fills the pixels whose centers lie in the triangle formed by
// vertices first, first+1 and first+2.
func (t *Texture) rasterize(first uint32) {
	ax, ay := VertexPosition(first)
	bx, by := VertexPosition(first + 1)
	cx, cy := VertexPosition(first + 2)
	px := t.encode(FragmentColor)

	w, h := int(t.Width), int(t.Height)
	for y := range h {
		ny := 1 - (float64(y)+0.5)/float64(h)*2
		for x := range w {
			nx := (float64(x)+0.5)/float64(w)*2 - 1
			e0 := edge(ax, ay, bx, by, nx, ny)
			e1 := edge(bx, by, cx, cy, nx, ny)
			e2 := edge(cx, cy, ax, ay, nx, ny)
			if (e0 >= 0 && e1 >= 0 && e2 >= 0) || (e0 <= 0 && e1 <= 0 && e2 <= 0) {
				i := (y*w + x) * 4
				copy(t.pixels[i:i+4], px[:])
			}
		}
	}
}

func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// copyTo writes the region into dst row by row. Row bytes past the texel
// data are set to PaddingByte.
func (t *Texture) copyTo(queue hal.Queue, dst hal.Buffer, r hal.BufferTextureCopy) error {
	width := int(r.Size.Width)
	stride := int(r.BufferLayout.BytesPerRow)
	if stride < width*4 {
		return fmt.Errorf("gputest: bytes per row %d below %d texels", stride, width)
	}
	ox, oy := int(r.TextureBase.Origin.X), int(r.TextureBase.Origin.Y)
	if ox+width > int(t.Width) || oy+int(r.Size.Height) > int(t.Height) {
		return fmt.Errorf("gputest: copy %dx%d at (%d,%d) exceeds %dx%d texture",
			width, r.Size.Height, ox, oy, t.Width, t.Height)
	}

	row := make([]byte, stride)
	for y := range int(r.Size.Height) {
		for i := range row {
			row[i] = PaddingByte
		}
		src := ((oy+y)*int(t.Width) + ox) * 4
		copy(row, t.pixels[src:src+width*4])
		offset := r.BufferLayout.Offset + uint64(y)*uint64(stride)
		if err := queue.WriteBuffer(dst, offset, row); err != nil {
			return err
		}
	}
	return nil
}

func (t *Texture) encode(c gputypes.Color) [4]byte {
	srgb := t.Format == gputypes.TextureFormatRGBA8UnormSrgb
	return [4]byte{
		channel(c.R, srgb),
		channel(c.G, srgb),
		channel(c.B, srgb),
		channel(c.A, false),
	}
}

func channel(v float64, srgb bool) byte {
	v = max(0, min(1, v))
	if srgb {
		if v <= 0.0031308 {
			v *= 12.92
		} else {
			v = 1.055*math.Pow(v, 1/2.4) - 0.055
		}
	}
	return byte(math.Round(v * 255))
}

func unwrapTexture(t hal.Texture) hal.Texture {
	if st, ok := t.(*Texture); ok {
		return st.Texture
	}
	return t
}
