// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raymarks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGPUContext creates a Context on a real adapter or skips the test.
func newGPUContext(t *testing.T) *Context {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping GPU test in short mode")
	}
	c, err := New(WithOutputDirectory(t.TempDir()))
	if err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGPUClearPassReadsBackBlack(t *testing.T) {
	c := newGPUContext(t)

	require.NoError(t, c.Resize(64, 64))
	require.NoError(t, c.RecordClearPass())
	require.NoError(t, c.Submit())
	path, err := c.SaveRenderTargetSync("clear")
	require.NoError(t, err)

	img := decodePNG(t, path)
	for y := range 64 {
		for x := range 64 {
			require.Equal(t, opaqueBlack, pixelAt(img, x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestGPURasterizationEndToEnd(t *testing.T) {
	c := newGPUContext(t)

	require.NoError(t, c.Resize(64, 64))
	require.NoError(t, c.RecordRasterizationPass())
	require.NoError(t, c.Submit())
	path, err := c.SaveRenderTargetSync("bunny_rasterization")
	require.NoError(t, err)

	img := decodePNG(t, path)
	assert.Equal(t, opaqueBlack, pixelAt(img, 0, 0))
	assert.Equal(t, shaderRed, pixelAt(img, 32, 60))
}

func TestGPUUnalignedWidth(t *testing.T) {
	c := newGPUContext(t)

	require.NoError(t, c.Resize(100, 30))
	require.NoError(t, c.RecordRasterizationPass())
	require.NoError(t, c.Submit())
	path, err := c.SaveRenderTargetSync("unaligned")
	require.NoError(t, err)

	img := decodePNG(t, path)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
	assert.Equal(t, opaqueBlack, pixelAt(img, 99, 0))
}
