// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package image

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
)

// pngSignature starts every PNG stream.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

const (
	pngBitDepth8      = 8
	pngColorTypeRGBA  = 6
	pngFilterNone     = 0
	pngCompressionStd = 0
	pngInterlaceNone  = 0
)

// FileName returns the output file name for a benchmark image:
// "{name}_{width}x{height}.png".
func FileName(name string, width, height int) string {
	return fmt.Sprintf("%s_%dx%d.png", name, width, height)
}

// EncodePNG writes the image as an 8-bit RGBA PNG (color type 6).
//
// image/png picks RGB for fully opaque images; output files are always
// RGBA so the encoder is written out here.
func (b *ImageBuf) EncodePNG(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(pngSignature); err != nil {
		return fmt.Errorf("image: encode PNG: %w", err)
	}

	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(b.width))  //nolint:gosec // dimensions validated positive
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(b.height)) //nolint:gosec // dimensions validated positive
	ihdr[8] = pngBitDepth8
	ihdr[9] = pngColorTypeRGBA
	ihdr[10] = pngCompressionStd
	ihdr[11] = pngFilterNone
	ihdr[12] = pngInterlaceNone
	if err := writeChunk(bw, "IHDR", ihdr[:]); err != nil {
		return err
	}

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	filter := []byte{pngFilterNone}
	for y := range b.height {
		if _, err := zw.Write(filter); err != nil {
			return fmt.Errorf("image: compress PNG: %w", err)
		}
		if _, err := zw.Write(b.RowBytes(y)); err != nil {
			return fmt.Errorf("image: compress PNG: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("image: compress PNG: %w", err)
	}
	if err := writeChunk(bw, "IDAT", idat.Bytes()); err != nil {
		return err
	}
	if err := writeChunk(bw, "IEND", nil); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("image: encode PNG: %w", err)
	}
	return nil
}

// SavePNG saves the image as a PNG file, creating the parent directory if
// needed.
func (b *ImageBuf) SavePNG(path string) error {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("image: create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("image: create file: %w", err)
	}

	if err := b.EncodePNG(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

func writeChunk(w io.Writer, kind string, data []byte) error {
	var header [8]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(data))) //nolint:gosec // chunk size bounded by image size
	copy(header[4:8], kind)

	crc := crc32.NewIEEE()
	crc.Write(header[4:8])
	crc.Write(data)
	var footer [4]byte
	binary.BigEndian.PutUint32(footer[:], crc.Sum32())

	for _, part := range [][]byte{header[:], data, footer[:]} {
		if _, err := w.Write(part); err != nil {
			return fmt.Errorf("image: write %s chunk: %w", kind, err)
		}
	}
	return nil
}
