// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu is the HAL plumbing behind raymarks.Context.
//
// It talks to gogpu/wgpu's hal layer directly (zero CGO) and provides:
//
//   - Device: adapter selection and device/queue acquisition
//   - TargetPair: an RGBA8 sRGB render target and the staging buffer it is
//     copied into, created and destroyed together
//   - StagingBuffer: a MapRead buffer with WebGPU-style asynchronous mapping
//   - RasterizationPipeline: the render pipeline built for every pass
//   - Recorder: a command encoder in the recording state plus the objects
//     its commands keep alive
//   - Submissions: fire-and-forget queue submissions tracked by index
//
// # Readback
//
// A readback is three steps that never block the caller for long:
//
//	rec.RecordPass(target, clear, pipeline, 3, 1)
//	rec.CopyTargetToStaging(target)
//	recording, _ := rec.Finish()
//	subs.Submit(recording)
//
//	target.Staging.MapAsync(onMapped)
//	for {
//	    idle, err := subs.Poll(10 * time.Millisecond)
//	    ...
//	    if idle {
//	        target.Staging.Resolve() // runs onMapped
//	        break
//	    }
//	}
//
// Copies use rows padded to CopyPitchAlignment; image.FromRows strips the
// padding again.
package gpu
