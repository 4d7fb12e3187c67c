// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/wgpu/hal"
)

const testShader = `
@vertex
fn vertex_shader(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(f32(i32(i) - 1), f32(i32(i & 1u) * 2 - 1), 0.0, 1.0);
}

@fragment
fn fragment_shader() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

func newTestPipeline(t *testing.T, device hal.Device) *RasterizationPipeline {
	t.Helper()
	p, err := NewRasterizationPipeline(device, hal.ShaderSource{WGSL: testShader})
	if err != nil {
		t.Fatalf("NewRasterizationPipeline failed: %v", err)
	}
	return p
}

func TestNewRasterizationPipeline(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()

	p := newTestPipeline(t, device)
	if p.Raw() == nil {
		t.Fatal("pipeline handle is nil")
	}
	p.Destroy(device)
	if p.Raw() != nil {
		t.Error("Destroy must clear the pipeline handle")
	}
	// Second Destroy is a no-op.
	p.Destroy(device)
}

func TestNewRasterizationPipelineNilDevice(t *testing.T) {
	_, err := NewRasterizationPipeline(nil, hal.ShaderSource{WGSL: testShader})
	if !errors.Is(err, ErrNilHALDevice) {
		t.Errorf("err = %v, want ErrNilHALDevice", err)
	}
}

func TestPipelineDestroyCounts(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()
	counting := &countingDevice{Device: device}

	p := newTestPipeline(t, counting)
	p.Destroy(counting)
	if counting.pipelines != 1 {
		t.Errorf("DestroyRenderPipeline called %d times, want 1", counting.pipelines)
	}
}
