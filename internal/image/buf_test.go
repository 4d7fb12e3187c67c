// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package image

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewImageBuf(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		wantErr error
	}{
		{"valid", 100, 100, nil},
		{"1x1 minimum", 1, 1, nil},
		{"zero width", 0, 100, ErrInvalidDimensions},
		{"zero height", 100, 0, ErrInvalidDimensions},
		{"negative width", -1, 100, ErrInvalidDimensions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := NewImageBuf(tt.width, tt.height)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewImageBuf() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got, want := len(buf.Data()), tt.width*tt.height*4; got != want {
				t.Errorf("len(Data()) = %d, want %d", got, want)
			}
		})
	}
}

// paddedRows builds height rows of width pixels with stride bytes per row.
// Pixel (x, y) is (x, y, 7, 255); padding bytes are 0xAB.
func paddedRows(width, height, stride int) []byte {
	data := bytes.Repeat([]byte{0xAB}, stride*height)
	for y := range height {
		for x := range width {
			copy(data[y*stride+x*4:], []byte{byte(x), byte(y), 7, 255})
		}
	}
	return data
}

func TestFromRowsStripsPadding(t *testing.T) {
	const width, height, stride = 100, 3, 512
	buf, err := FromRows(paddedRows(width, height, stride), width, height, stride)
	if err != nil {
		t.Fatalf("FromRows() error = %v", err)
	}

	if len(buf.Data()) != width*height*4 {
		t.Fatalf("len(Data()) = %d, want %d", len(buf.Data()), width*height*4)
	}
	if bytes.IndexByte(buf.Data(), 0xAB) >= 0 {
		t.Error("padding byte leaked into the image")
	}
	if got := buf.Pixel(99, 2); got != [4]byte{99, 2, 7, 255} {
		t.Errorf("Pixel(99, 2) = %v", got)
	}
}

func TestFromRowsTight(t *testing.T) {
	const width, height = 64, 2
	data := paddedRows(width, height, width*4)
	buf, err := FromRows(data, width, height, width*4)
	if err != nil {
		t.Fatalf("FromRows() error = %v", err)
	}
	if !bytes.Equal(buf.Data(), data) {
		t.Error("tight rows must be copied unchanged")
	}
	data[0] = 42
	if buf.Data()[0] == 42 {
		t.Error("FromRows must copy, not alias")
	}
}

func TestFromRowsErrors(t *testing.T) {
	tests := []struct {
		name                  string
		size                  int
		width, height, stride int
		wantErr               error
	}{
		{"stride too small", 1024, 10, 1, 39, ErrInvalidStride},
		{"data too small", 100, 10, 2, 256, ErrDataTooSmall},
		{"zero width", 1024, 0, 1, 256, ErrInvalidDimensions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRows(make([]byte, tt.size), tt.width, tt.height, tt.stride)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FromRows() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromRowsLastRowUnpadded(t *testing.T) {
	// The final row needs only width*4 bytes.
	const width, height, stride = 10, 2, 256
	data := paddedRows(width, height, stride)[:stride+width*4]
	if _, err := FromRows(data, width, height, stride); err != nil {
		t.Fatalf("FromRows() error = %v", err)
	}
}

func TestToStdImage(t *testing.T) {
	buf, _ := FromRows(paddedRows(4, 4, 16), 4, 4, 16)
	img := buf.ToStdImage()
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 4 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	c := img.NRGBAAt(3, 1)
	if c.R != 3 || c.G != 1 || c.B != 7 || c.A != 255 {
		t.Errorf("NRGBAAt(3, 1) = %v", c)
	}
}
