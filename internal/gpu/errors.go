// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "errors"

// Device and resource errors.
var (
	// ErrNoGPU is returned when no adapter or device can be obtained.
	ErrNoGPU = errors.New("gpu: no compatible GPU adapter")

	// ErrBackendUnavailable is returned when the requested HAL backend is not registered.
	ErrBackendUnavailable = errors.New("gpu: backend not available")

	// ErrNilHALDevice is returned when an operation is given a nil device.
	ErrNilHALDevice = errors.New("gpu: HAL device is nil")

	// ErrInvalidSize is returned for zero-sized render targets.
	ErrInvalidSize = errors.New("gpu: width and height must be positive")

	// ErrDeviceLost is returned when waiting on submitted work fails.
	ErrDeviceLost = errors.New("gpu: device lost")

	// ErrRecorderFinished is returned when recording into a finished recorder.
	ErrRecorderFinished = errors.New("gpu: recorder already finished")
)
