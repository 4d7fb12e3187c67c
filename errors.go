// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raymarks

import (
	"errors"

	"github.com/gogpu/raymarks/internal/gpu"
)

// Errors returned by Context operations. Every one of them ends the
// benchmark run; none is retried.
var (
	// ErrNoGPU is returned when no adapter or device can be acquired.
	ErrNoGPU = gpu.ErrNoGPU

	// ErrInvalidSize is returned by Resize for a zero width or height.
	ErrInvalidSize = gpu.ErrInvalidSize

	// ErrDeviceLost is returned when waiting for submitted work fails.
	ErrDeviceLost = gpu.ErrDeviceLost

	// ErrShaderAsset is returned when a shader source cannot be loaded or
	// compiled.
	ErrShaderAsset = errors.New("raymarks: shader asset unavailable")

	// ErrMapTimeout is returned when a staging buffer mapping does not
	// complete within the configured map timeout.
	ErrMapTimeout = errors.New("raymarks: staging buffer mapping timed out")

	// ErrMapFailed is returned when a mapping completes with a non-success
	// status, for example because the target was resized while it was
	// pending.
	ErrMapFailed = errors.New("raymarks: staging buffer mapping failed")

	// ErrPersist is returned when the image cannot be encoded or written.
	ErrPersist = errors.New("raymarks: cannot save render target")

	// ErrNoTarget is returned when a previous Resize failed and left the
	// Context without a render target.
	ErrNoTarget = errors.New("raymarks: no render target")

	// ErrClosed is returned by operations on a closed Context.
	ErrClosed = errors.New("raymarks: context is closed")
)
