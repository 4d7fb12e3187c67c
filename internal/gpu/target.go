// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	// BytesPerPixel is the size of one RGBA8 texel.
	BytesPerPixel = 4

	// CopyPitchAlignment is the row pitch alignment required by
	// texture-to-buffer copies (WebGPU, DX12).
	CopyPitchAlignment = 256

	// TargetFormat is the pixel format of every render target.
	TargetFormat = gputypes.TextureFormatRGBA8UnormSrgb
)

// AlignedBytesPerRow returns the row pitch used for copying a row of width
// RGBA8 pixels, rounded up to CopyPitchAlignment.
func AlignedBytesPerRow(width uint32) uint32 {
	bytesPerRow := width * BytesPerPixel
	return (bytesPerRow + CopyPitchAlignment - 1) &^ (CopyPitchAlignment - 1)
}

// TargetPair is an off-screen render target and the staging buffer its
// contents are copied into. The two are only ever created and destroyed
// together, so the staging buffer always matches the target dimensions:
// Staging.Size() == BytesPerRow() * Height(), which is exactly
// 4*Width()*Height() whenever the row is already 256-byte aligned.
type TargetPair struct {
	Texture hal.Texture
	View    hal.TextureView
	Staging *StagingBuffer

	width       uint32
	height      uint32
	bytesPerRow uint32
}

// NewTargetPair allocates a width x height RGBA8 sRGB render target
// (RenderAttachment|CopySrc) and its staging buffer.
func NewTargetPair(device hal.Device, width, height uint32) (*TargetPair, error) {
	if device == nil {
		return nil, ErrNilHALDevice
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	p := &TargetPair{
		width:       width,
		height:      height,
		bytesPerRow: AlignedBytesPerRow(width),
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "render_target",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        TargetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create render target: %w", err)
	}
	p.Texture = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "render_target_view",
	})
	if err != nil {
		p.Destroy(device)
		return nil, fmt.Errorf("create render target view: %w", err)
	}
	p.View = view

	staging, err := NewStagingBuffer(device, "output_staging", uint64(p.bytesPerRow)*uint64(height))
	if err != nil {
		p.Destroy(device)
		return nil, err
	}
	p.Staging = staging

	slogger().Debug("gpu: target pair created",
		"width", width, "height", height,
		"bytes_per_row", p.bytesPerRow, "staging_size", staging.Size())
	return p, nil
}

// Width returns the target width in pixels.
func (p *TargetPair) Width() uint32 { return p.width }

// Height returns the target height in pixels.
func (p *TargetPair) Height() uint32 { return p.height }

// BytesPerRow returns the aligned row pitch of the staging buffer.
func (p *TargetPair) BytesPerRow() uint32 { return p.bytesPerRow }

// ImageSize returns the tight host image size, 4*width*height bytes.
func (p *TargetPair) ImageSize() uint64 {
	return uint64(p.width) * uint64(p.height) * BytesPerPixel
}

// Destroy releases the staging buffer, view and texture. Safe to call on a
// partially constructed pair and more than once.
func (p *TargetPair) Destroy(device hal.Device) {
	if p.Staging != nil {
		p.Staging.Destroy()
		p.Staging = nil
	}
	if p.View != nil {
		device.DestroyTextureView(p.View)
		p.View = nil
	}
	if p.Texture != nil {
		device.DestroyTexture(p.Texture)
		p.Texture = nil
	}
}
