// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package image holds host-side copies of render targets and writes them
// out as PNG files.
package image

import (
	"errors"
	"fmt"
	"image"
)

// Common errors for image operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrInvalidStride is returned when stride is less than minimum required.
	ErrInvalidStride = errors.New("image: stride too small for width")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("image: data buffer too small")
)

// bytesPerPixel is the size of an RGBA8 pixel.
const bytesPerPixel = 4

// ImageBuf is a tightly packed RGBA8 image: rows top to bottom, 4 bytes per
// pixel, no padding, straight (non-premultiplied) alpha.
type ImageBuf struct {
	data   []byte
	width  int
	height int
}

// NewImageBuf creates a zeroed buffer with the given dimensions.
func NewImageBuf(width, height int) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &ImageBuf{
		data:   make([]byte, width*height*bytesPerPixel),
		width:  width,
		height: height,
	}, nil
}

// FromRows copies height rows of width pixels out of data, where
// consecutive rows start stride bytes apart. Bytes past width*4 in each
// row are padding and are dropped.
func FromRows(data []byte, width, height, stride int) (*ImageBuf, error) {
	b, err := NewImageBuf(width, height)
	if err != nil {
		return nil, err
	}
	rowBytes := width * bytesPerPixel
	if stride < rowBytes {
		return nil, fmt.Errorf("%w: stride %d < %d", ErrInvalidStride, stride, rowBytes)
	}
	if need := stride*(height-1) + rowBytes; len(data) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrDataTooSmall, len(data), need)
	}

	if stride == rowBytes {
		copy(b.data, data[:rowBytes*height])
		return b, nil
	}
	for y := range height {
		copy(b.RowBytes(y), data[y*stride:y*stride+rowBytes])
	}
	return b, nil
}

// Width returns the image width in pixels.
func (b *ImageBuf) Width() int { return b.width }

// Height returns the image height in pixels.
func (b *ImageBuf) Height() int { return b.height }

// Data returns the pixel bytes.
func (b *ImageBuf) Data() []byte { return b.data }

// RowBytes returns the bytes of row y.
func (b *ImageBuf) RowBytes(y int) []byte {
	start := y * b.width * bytesPerPixel
	return b.data[start : start+b.width*bytesPerPixel]
}

// Pixel returns the RGBA bytes at (x, y).
func (b *ImageBuf) Pixel(x, y int) [4]byte {
	i := (y*b.width + x) * bytesPerPixel
	return [4]byte{b.data[i], b.data[i+1], b.data[i+2], b.data[i+3]}
}

// ToStdImage returns the buffer as an *image.NRGBA sharing the pixel data.
func (b *ImageBuf) ToStdImage() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.data,
		Stride: b.width * bytesPerPixel,
		Rect:   image.Rect(0, 0, b.width, b.height),
	}
}
