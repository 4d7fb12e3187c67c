// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package raymarks is a minimal GPU rendering benchmark harness.
//
// # Overview
//
// A [Context] owns one GPU device and queue, a live command recorder and an
// off-screen render target paired with a host-readable staging buffer. The
// benchmark loop is:
//
//	ctx, err := raymarks.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	_ = ctx.Resize(512, 512)
//	_ = ctx.RecordRasterizationPass()
//	_ = ctx.Submit()
//	path, err := ctx.SaveRenderTargetSync("bunny_rasterization")
//
// # Synchronization
//
// Submit is fire-and-forget: it hands the recorded commands to the queue and
// returns. The texture-to-staging copy is recorded after the render pass in
// the same command buffer, so in-order queue execution makes the copy see the
// rendered pixels without a host-side wait.
//
// Reading the staging buffer is asynchronous. SaveRenderTarget requests a
// mapping and returns a [Readback]; the mapping only completes while someone
// drives the context through [Context.Poll] (Readback.Poll and Readback.Wait
// do this). Wait gives up after a bounded number of polls and reports
// [ErrMapTimeout].
//
// # Row pitch
//
// Texture-to-buffer copies need rows aligned to 256 bytes. The staging
// buffer uses padded rows and readback strips the padding, so the saved
// image is always exactly width*height*4 bytes regardless of width.
//
// # Logging
//
// The package is silent by default. Use [SetLogger] to enable output.
package raymarks
