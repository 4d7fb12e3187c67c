// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Shader entry points every rasterization shader must define.
const (
	VertexEntryPoint   = "vertex_shader"
	FragmentEntryPoint = "fragment_shader"
)

// RasterizationPipeline is a compiled render pipeline together with the
// shader module and layout it was built from. It is not cached: each pass
// builds its own and the recorder retains it until the submission that
// uses it has completed.
type RasterizationPipeline struct {
	shader   hal.ShaderModule
	layout   hal.PipelineLayout
	pipeline hal.RenderPipeline
}

// NewRasterizationPipeline compiles source and creates a pipeline with a
// single TargetFormat color target, no depth/stencil, no multisampling and
// a triangle list topology.
func NewRasterizationPipeline(device hal.Device, source hal.ShaderSource) (*RasterizationPipeline, error) {
	if device == nil {
		return nil, ErrNilHALDevice
	}
	p := &RasterizationPipeline{}

	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "rasterization_shader",
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("compile rasterization shader: %w", err)
	}
	p.shader = shader

	layout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "rasterization_pipe_layout",
	})
	if err != nil {
		p.Destroy(device)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	p.layout = layout

	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "rasterization_pipeline",
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: VertexEntryPoint,
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    TargetFormat,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.Destroy(device)
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	p.pipeline = pipeline

	return p, nil
}

// Raw returns the render pipeline handle.
func (p *RasterizationPipeline) Raw() hal.RenderPipeline { return p.pipeline }

// Destroy releases the pipeline, layout and shader module.
func (p *RasterizationPipeline) Destroy(device hal.Device) {
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.layout != nil {
		device.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.shader != nil {
		device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
