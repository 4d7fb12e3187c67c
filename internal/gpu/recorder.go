// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Resource is a GPU object a command buffer may reference. It must stay
// alive until every command buffer that uses it has finished executing.
type Resource interface {
	Destroy(device hal.Device)
}

// Recording is the output of a finished Recorder: the command buffer and
// the resources it references.
type Recording struct {
	CommandBuffer hal.CommandBuffer
	Commands      int

	retained []Resource
}

// Retained returns the resources released together with the command
// buffer.
func (r *Recording) Retained() []Resource { return r.retained }

// Retain keeps res alive until the recording is released.
func (r *Recording) Retain(res Resource) { r.retained = append(r.retained, res) }

// Release frees the command buffer and destroys retained resources. The
// caller guarantees the GPU is done with them.
func (r *Recording) Release(device hal.Device) {
	if r.CommandBuffer != nil {
		device.FreeCommandBuffer(r.CommandBuffer)
		r.CommandBuffer = nil
	}
	for _, res := range r.retained {
		res.Destroy(device)
	}
	r.retained = nil
}

// Recorder is an append-only list of GPU commands that have not been sent to
// the device yet. It wraps a command encoder in the recording state and
// keeps the resources its commands reference alive until the recorder is
// finished and handed to Submissions.
//
// A Recorder is used once: Finish or Discard ends it. It is NOT safe for
// concurrent use; the owner replaces it with a fresh one on every submit.
type Recorder struct {
	device  hal.Device
	encoder hal.CommandEncoder
	label   string

	commands int
	retained []Resource
	finished bool
}

// NewRecorder creates a command encoder and begins encoding.
func NewRecorder(device hal.Device, label string) (*Recorder, error) {
	if device == nil {
		return nil, ErrNilHALDevice
	}
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: label,
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	return &Recorder{
		device:  device,
		encoder: encoder,
		label:   label,
	}, nil
}

// Len returns the number of commands recorded so far. A render pass counts
// as one command.
func (r *Recorder) Len() int { return r.commands }

// Finished reports whether Finish or Discard has been called.
func (r *Recorder) Finished() bool { return r.finished }

// RecordPass records a render pass on the target: clear to clearColor,
// store, and if pipeline is non-nil a single non-indexed draw of
// vertexCount vertices and instanceCount instances. The recorder takes
// ownership of the pipeline.
func (r *Recorder) RecordPass(
	target *TargetPair,
	clearColor gputypes.Color,
	pipeline *RasterizationPipeline,
	vertexCount, instanceCount uint32,
) error {
	if r.finished {
		if pipeline != nil {
			pipeline.Destroy(r.device)
		}
		return ErrRecorderFinished
	}

	rp := r.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "rasterization_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target.View,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clearColor,
		}},
	})
	if pipeline != nil {
		rp.SetPipeline(pipeline.Raw())
		rp.Draw(vertexCount, instanceCount, 0, 0)
		r.retained = append(r.retained, pipeline)
	}
	rp.End()

	r.commands++
	return nil
}

// CopyTargetToStaging records a copy of the full target extent into its
// staging buffer using the pair's aligned row pitch. Recorded after a pass
// in the same recorder, the copy observes the pass output through
// same-queue ordering.
func (r *Recorder) CopyTargetToStaging(target *TargetPair) error {
	if r.finished {
		return ErrRecorderFinished
	}

	// After a render pass the texture is in attachment layout; the copy
	// needs it as a transfer source. No-op on Metal, GLES and noop.
	r.encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: target.Texture,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	r.encoder.CopyTextureToBuffer(target.Texture, target.Staging.Raw(), []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  target.BytesPerRow(),
			RowsPerImage: target.Height(),
		},
		TextureBase: hal.ImageCopyTexture{Texture: target.Texture, MipLevel: 0},
		Size:        hal.Extent3D{Width: target.Width(), Height: target.Height(), DepthOrArrayLayers: 1},
	}})

	r.encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: target.Texture,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	r.commands++
	return nil
}

// Retain keeps res alive until the command buffer produced by this recorder
// has finished executing. On a finished recorder res is destroyed at once.
func (r *Recorder) Retain(res Resource) {
	if r.finished {
		res.Destroy(r.device)
		return
	}
	r.retained = append(r.retained, res)
}

// Finish ends encoding and returns the command buffer together with the
// resources that must outlive its execution. The recorder cannot be used
// afterwards.
func (r *Recorder) Finish() (*Recording, error) {
	if r.finished {
		return nil, ErrRecorderFinished
	}
	r.finished = true

	cmdBuf, err := r.encoder.EndEncoding()
	if err != nil {
		r.releaseRetained()
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	rec := &Recording{CommandBuffer: cmdBuf, Commands: r.commands, retained: r.retained}
	r.retained = nil
	return rec, nil
}

// Discard drops everything recorded and releases retained resources.
func (r *Recorder) Discard() {
	if r.finished {
		return
	}
	r.finished = true
	r.encoder.DiscardEncoding()
	r.releaseRetained()
}

func (r *Recorder) releaseRetained() {
	for _, res := range r.retained {
		res.Destroy(r.device)
	}
	r.retained = nil
}
