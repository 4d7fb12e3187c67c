// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer errors.
var (
	// ErrBufferDestroyed is returned when operating on a destroyed buffer.
	ErrBufferDestroyed = errors.New("gpu: buffer has been destroyed")

	// ErrInvalidBufferSize is returned when buffer size is invalid.
	ErrInvalidBufferSize = errors.New("gpu: invalid buffer size")

	// ErrBufferAlreadyMapped is returned when attempting to map an already mapped buffer.
	ErrBufferAlreadyMapped = errors.New("gpu: buffer is already mapped or mapping is pending")

	// ErrBufferNotMapped is returned when attempting to access unmapped buffer data.
	ErrBufferNotMapped = errors.New("gpu: buffer is not mapped")

	// ErrBufferMapPending is returned when accessing a buffer with pending map operation.
	ErrBufferMapPending = errors.New("gpu: buffer mapping is pending")

	// ErrCallbackNil is returned when MapAsync is called with nil callback.
	ErrCallbackNil = errors.New("gpu: map callback is nil")
)

// MapState represents the mapping state of a staging buffer.
type MapState int

const (
	// MapStateUnmapped means the buffer is not mapped.
	MapStateUnmapped MapState = iota
	// MapStatePending means a map operation is waiting for the device.
	MapStatePending
	// MapStateMapped means the buffer contents are readable by the host.
	MapStateMapped
)

// String returns the string representation of MapState.
func (s MapState) String() string {
	switch s {
	case MapStateUnmapped:
		return "Unmapped"
	case MapStatePending:
		return "Pending"
	case MapStateMapped:
		return "Mapped"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// MapStatus is the result delivered to a MapAsync callback.
type MapStatus int

const (
	// MapStatusSuccess indicates mapping completed successfully.
	MapStatusSuccess MapStatus = iota
	// MapStatusError indicates the device failed to deliver the contents.
	MapStatusError
	// MapStatusDeviceLost indicates the device was lost while the map was pending.
	MapStatusDeviceLost
	// MapStatusDestroyedBeforeCallback indicates the buffer was destroyed.
	MapStatusDestroyedBeforeCallback
	// MapStatusUnmappedBeforeCallback indicates the buffer was unmapped.
	MapStatusUnmappedBeforeCallback
)

// String returns the string representation of MapStatus.
func (s MapStatus) String() string {
	switch s {
	case MapStatusSuccess:
		return "Success"
	case MapStatusError:
		return "Error"
	case MapStatusDeviceLost:
		return "DeviceLost"
	case MapStatusDestroyedBeforeCallback:
		return "DestroyedBeforeCallback"
	case MapStatusUnmappedBeforeCallback:
		return "UnmappedBeforeCallback"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// StagingBuffer is a host-readable copy destination.
//
// Reading follows the WebGPU pattern: MapAsync only records the request and
// moves the buffer to Pending. Nothing happens until the owner drives the
// device forward and calls Resolve once every submission that writes the
// buffer has completed; Resolve maps the buffer on the device, copies the
// contents to the host and fires the callback.
//
// Lifecycle:
//  1. Create via NewStagingBuffer()
//  2. MapAsync() to request a read mapping
//  3. Resolve() after the queue is idle (or Fail() if the device is lost)
//  4. MappedRange() to read the contents
//  5. Unmap() when done
//  6. Destroy() when the buffer is no longer needed
type StagingBuffer struct {
	mu sync.Mutex

	raw    hal.Buffer
	device hal.Device
	label  string
	size   uint64

	mapState    MapState
	mappedData  []byte
	mapCallback func(MapStatus)

	destroyed bool
}

// NewStagingBuffer creates a MapRead|CopyDst buffer of the given size.
func NewStagingBuffer(device hal.Device, label string, size uint64) (*StagingBuffer, error) {
	if device == nil {
		return nil, ErrNilHALDevice
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: size is 0", ErrInvalidBufferSize)
	}

	raw, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}

	return &StagingBuffer{
		raw:      raw,
		device:   device,
		label:    label,
		size:     size,
		mapState: MapStateUnmapped,
	}, nil
}

// Label returns the buffer's debug label.
func (b *StagingBuffer) Label() string { return b.label }

// Size returns the buffer size in bytes.
func (b *StagingBuffer) Size() uint64 { return b.size }

// MapState returns the current mapping state.
func (b *StagingBuffer) MapState() MapState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mapState
}

// IsDestroyed returns true if the buffer has been destroyed.
func (b *StagingBuffer) IsDestroyed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.destroyed
}

// Raw returns the underlying buffer handle, or nil after Destroy.
func (b *StagingBuffer) Raw() hal.Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return nil
	}
	return b.raw
}

// MapAsync requests a read mapping of the whole buffer.
//
// The callback runs from Resolve, Fail, Unmap or Destroy, whichever ends the
// pending state first. It is called without the buffer lock held.
func (b *StagingBuffer) MapAsync(callback func(MapStatus)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return ErrBufferDestroyed
	}
	if callback == nil {
		return ErrCallbackNil
	}
	if b.mapState != MapStateUnmapped {
		return ErrBufferAlreadyMapped
	}

	b.mapState = MapStatePending
	b.mapCallback = callback
	return nil
}

// Resolve completes a pending mapping by copying the buffer contents out
// of a device mapping. The caller guarantees that all submitted work
// writing the buffer has finished. Returns true if a pending mapping was
// completed.
func (b *StagingBuffer) Resolve() bool {
	b.mu.Lock()
	if b.destroyed || b.mapState != MapStatePending {
		b.mu.Unlock()
		return false
	}

	status := MapStatusSuccess
	data, err := b.read()
	if err != nil {
		slogger().Warn("gpu: staging readback failed", "buffer", b.label, "err", err)
		status = MapStatusError
	}

	callback := b.mapCallback
	b.mapCallback = nil
	if status == MapStatusSuccess {
		b.mapState = MapStateMapped
		b.mappedData = data
	} else {
		b.mapState = MapStateUnmapped
	}
	b.mu.Unlock()

	callback(status)
	return true
}

// read copies the whole buffer through a host mapping, which is released
// before returning.
func (b *StagingBuffer) read() ([]byte, error) {
	mapping, err := b.device.MapBuffer(b.raw, 0, b.size)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", b.label, err)
	}
	data := make([]byte, b.size)
	copy(data, unsafe.Slice((*byte)(mapping.Ptr), b.size))
	if err := b.device.UnmapBuffer(b.raw); err != nil {
		return nil, fmt.Errorf("unmap %s: %w", b.label, err)
	}
	return data, nil
}

// Fail ends a pending mapping with the given status.
func (b *StagingBuffer) Fail(status MapStatus) {
	b.mu.Lock()
	if b.mapState != MapStatePending {
		b.mu.Unlock()
		return
	}
	callback := b.mapCallback
	b.mapCallback = nil
	b.mapState = MapStateUnmapped
	b.mu.Unlock()

	callback(status)
}

// MappedRange returns the mapped contents. The slice is only valid until
// Unmap.
func (b *StagingBuffer) MappedRange() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return nil, ErrBufferDestroyed
	}
	switch b.mapState {
	case MapStatePending:
		return nil, ErrBufferMapPending
	case MapStateMapped:
		return b.mappedData, nil
	default:
		return nil, ErrBufferNotMapped
	}
}

// Unmap releases the mapping. A pending mapping is cancelled and its
// callback receives MapStatusUnmappedBeforeCallback. Unmapping an unmapped
// buffer is a no-op.
func (b *StagingBuffer) Unmap() error {
	b.mu.Lock()

	if b.destroyed {
		b.mu.Unlock()
		return ErrBufferDestroyed
	}

	if b.mapState == MapStatePending {
		callback := b.mapCallback
		b.mapCallback = nil
		b.mapState = MapStateUnmapped
		b.mu.Unlock()
		callback(MapStatusUnmappedBeforeCallback)
		return nil
	}

	b.mapState = MapStateUnmapped
	b.mappedData = nil
	b.mu.Unlock()
	return nil
}

// Destroy releases the GPU allocation immediately. A pending mapping
// receives MapStatusDestroyedBeforeCallback.
//
// This method is idempotent - calling it multiple times is safe.
func (b *StagingBuffer) Destroy() {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.destroyed = true
	device := b.device
	raw := b.raw
	callback := b.mapCallback
	wasMapping := b.mapState == MapStatePending
	b.raw = nil
	b.mappedData = nil
	b.mapCallback = nil
	b.mapState = MapStateUnmapped
	b.mu.Unlock()

	if wasMapping && callback != nil {
		callback(MapStatusDestroyedBeforeCallback)
	}

	if device != nil && raw != nil {
		device.DestroyBuffer(raw)
	}
}
