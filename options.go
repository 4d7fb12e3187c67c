// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raymarks

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// ShaderFormat selects how shader sources are handed to the device.
type ShaderFormat int

const (
	// ShaderFormatWGSL passes WGSL text to the backend.
	ShaderFormatWGSL ShaderFormat = iota
	// ShaderFormatSPIRV compiles WGSL to SPIR-V with naga first.
	ShaderFormatSPIRV
)

// String returns the format name as used in configuration files.
func (f ShaderFormat) String() string {
	switch f {
	case ShaderFormatWGSL:
		return "wgsl"
	case ShaderFormatSPIRV:
		return "spirv"
	default:
		return fmt.Sprintf("ShaderFormat(%d)", int(f))
	}
}

// Defaults applied by New when no option overrides them.
const (
	DefaultWidth        = 1024
	DefaultHeight       = 1024
	DefaultMapTimeout   = 5 * time.Second
	DefaultPollInterval = 10 * time.Millisecond
)

// Option configures a Context during creation.
//
// Example:
//
//	ctx, err := raymarks.New(
//	    raymarks.WithOutputDirectory("out"),
//	    raymarks.WithMapTimeout(2*time.Second),
//	)
type Option func(*options)

// options holds optional configuration for Context creation.
type options struct {
	backend      gputypes.Backend
	provider     gpucontext.DeviceProvider
	shaderDir    string
	shaderFormat ShaderFormat
	outputDir    string
	mapTimeout   time.Duration
	pollInterval time.Duration
	width        uint32
	height       uint32
}

// defaultOptions returns the default context options.
func defaultOptions() options {
	return options{
		backend:      gputypes.BackendVulkan,
		shaderFormat: ShaderFormatWGSL,
		outputDir:    ImageDirectory(),
		mapTimeout:   DefaultMapTimeout,
		pollInterval: DefaultPollInterval,
		width:        DefaultWidth,
		height:       DefaultHeight,
	}
}

// WithBackend selects the HAL backend New acquires an adapter from.
func WithBackend(b gputypes.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithDeviceProvider makes New use the HAL device and queue of an existing
// provider (for example a gogpu application) instead of opening its own.
// The provider must expose HalDevice() and HalQueue(); the Context never
// destroys a provided device.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithShaderDirectory loads shader sources from dir instead of the
// directory of the shaders package.
func WithShaderDirectory(dir string) Option {
	return func(o *options) {
		o.shaderDir = dir
	}
}

// WithShaderFormat selects WGSL or SPIR-V shader input.
func WithShaderFormat(f ShaderFormat) Option {
	return func(o *options) {
		o.shaderFormat = f
	}
}

// WithOutputDirectory sets the directory saved images are written to. It is
// created on first save if missing.
func WithOutputDirectory(dir string) Option {
	return func(o *options) {
		o.outputDir = dir
	}
}

// WithMapTimeout bounds how long a readback may wait for its mapping.
// Non-positive values are ignored.
func WithMapTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.mapTimeout = d
		}
	}
}

// WithPollInterval sets how long a single poll waits on the oldest
// in-flight submission. Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithInitialSize sets the size of the render target allocated at
// construction. Zero dimensions are ignored.
func WithInitialSize(width, height uint32) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width, o.height = width, height
		}
	}
}

// mapAttempts returns the number of polls a readback may spend waiting.
func (o *options) mapAttempts() int {
	n := int(o.mapTimeout / o.pollInterval)
	if n < 1 {
		n = 1
	}
	return n
}

// ImageDirectory returns the default output directory: "images" next to the
// module sources.
func ImageDirectory() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "images"
	}
	return filepath.Join(filepath.Dir(file), "images")
}
