//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/instanced"
	"github.com/gogpu/instanced/gpucore"
	"github.com/gogpu/instanced/shaders"
	"github.com/gogpu/wgpu/hal"
)

// depthFormat is the format of the depth attachment every pipeline tests against.
const depthFormat = gputypes.TextureFormatDepth24PlusStencil8

// Stream layouts. Vertex stream: position, normal. Instance stream: world
// position, rotation columns 0-3, color.
var (
	vertexAttributes = []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
		{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1}, // normal
	}
	instanceAttributes = []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 2},  // world_position
		{Format: gputypes.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 3}, // rotation col 0
		{Format: gputypes.VertexFormatFloat32x4, Offset: 28, ShaderLocation: 4}, // rotation col 1
		{Format: gputypes.VertexFormatFloat32x4, Offset: 44, ShaderLocation: 5}, // rotation col 2
		{Format: gputypes.VertexFormatFloat32x4, Offset: 60, ShaderLocation: 6}, // rotation col 3
		{Format: gputypes.VertexFormatFloat32x4, Offset: 76, ShaderLocation: 7}, // color
	}
)

// program owns the shader modules, layouts, uniform binding and the
// pipelines built from one ProgramDescriptor. Pipelines are created on
// first use per topology.
type program struct {
	desc gpucore.ProgramDescriptor

	vertex, fragment hal.ShaderModule
	uniformLayout    hal.BindGroupLayout
	pipeLayout       hal.PipelineLayout
	uniforms         hal.Buffer
	bindGroup        hal.BindGroup

	pipelines map[gpucore.Topology]hal.RenderPipeline
}

// CreateProgram compiles both stages and creates the uniform binding.
// Pipelines are built lazily by the first frame that draws with them.
func (d *Device) CreateProgram(desc *gpucore.ProgramDescriptor) (gpucore.ProgramID, error) {
	switch {
	case desc.VertexSource == "" || desc.FragmentSource == "":
		return gpucore.InvalidID, fmt.Errorf("native: program %q: empty shader stage", desc.Label)
	case desc.VertexStride < instanced.VertexSize || desc.InstanceStride < instanced.AttributeSize:
		return gpucore.InvalidID, fmt.Errorf("%w: program %q strides %d/%d below %d/%d",
			gpucore.ErrLayoutMismatch, desc.Label, desc.VertexStride, desc.InstanceStride,
			instanced.VertexSize, instanced.AttributeSize)
	}
	if d.validate {
		if err := shaders.Validate(desc.VertexSource, desc.FragmentSource); err != nil {
			return gpucore.InvalidID, fmt.Errorf("native: program %q: %w", desc.Label, err)
		}
	}

	p := &program{desc: *desc, pipelines: make(map[gpucore.Topology]hal.RenderPipeline)}
	if err := p.create(d.device); err != nil {
		p.destroy(d.device)
		return gpucore.InvalidID, fmt.Errorf("native: program %q: %w", desc.Label, err)
	}

	id := gpucore.ProgramID(d.newID())
	d.mu.Lock()
	d.programs[id] = p
	d.mu.Unlock()

	instanced.Logger().Debug("native: program created", "label", desc.Label, "id", id)
	return id, nil
}

// DestroyProgram releases the program and its pipelines.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	d.mu.Lock()
	p, ok := d.programs[id]
	if ok {
		delete(d.programs, id)
	}
	d.mu.Unlock()

	if ok {
		p.destroy(d.device)
	}
}

func (p *program) create(device hal.Device) error {
	vs, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.desc.Label + "_vs",
		Source: hal.ShaderSource{WGSL: p.desc.VertexSource},
	})
	if err != nil {
		return fmt.Errorf("compile vertex stage: %w", err)
	}
	p.vertex = vs

	fs, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.desc.Label + "_fs",
		Source: hal.ShaderSource{WGSL: p.desc.FragmentSource},
	})
	if err != nil {
		return fmt.Errorf("compile fragment stage: %w", err)
	}
	p.fragment = fs

	uniformLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: p.desc.Label + "_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create uniform layout: %w", err)
	}
	p.uniformLayout = uniformLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.desc.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	uniforms, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: p.desc.Label + "_uniforms",
		Size:  gpucore.UniformsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	p.uniforms = uniforms

	bindGroup, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  p.desc.Label + "_bind",
		Layout: p.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniforms.NativeHandle(), Offset: 0, Size: gpucore.UniformsSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	p.bindGroup = bindGroup
	return nil
}

// pipeline returns the pipeline for topology, creating it on first use.
// The caller must hold the device lock for writing.
func (p *program) pipeline(device hal.Device, topology gpucore.Topology, format gputypes.TextureFormat) (hal.RenderPipeline, error) {
	if pl, ok := p.pipelines[topology]; ok {
		return pl, nil
	}
	vsEntry, fsEntry := p.desc.Entries()
	pl, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("%s_%s", p.desc.Label, topology),
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.vertex,
			EntryPoint: vsEntry,
			Buffers:    p.vertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.fragment,
			EntryPoint: fsEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilReadMask:  0x00,
			StencilWriteMask: 0x00,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: convertTopology(topology),
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s pipeline: %w", topology, err)
	}
	p.pipelines[topology] = pl
	instanced.Logger().Debug("native: pipeline created", "program", p.desc.Label, "topology", topology.String())
	return pl, nil
}

func (p *program) vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: p.desc.VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes:  vertexAttributes,
		},
		{
			ArrayStride: p.desc.InstanceStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes:  instanceAttributes,
		},
	}
}

// destroy releases resources in reverse creation order. It tolerates a
// partially created program.
func (p *program) destroy(device hal.Device) {
	for t, pl := range p.pipelines {
		device.DestroyRenderPipeline(pl)
		delete(p.pipelines, t)
	}
	if p.bindGroup != nil {
		device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.uniforms != nil {
		device.DestroyBuffer(p.uniforms)
		p.uniforms = nil
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.uniformLayout != nil {
		device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.fragment != nil {
		device.DestroyShaderModule(p.fragment)
		p.fragment = nil
	}
	if p.vertex != nil {
		device.DestroyShaderModule(p.vertex)
		p.vertex = nil
	}
}

func convertTopology(t gpucore.Topology) gputypes.PrimitiveTopology {
	switch t {
	case gpucore.TopologyPointList:
		return gputypes.PrimitiveTopologyPointList
	case gpucore.TopologyLineList:
		return gputypes.PrimitiveTopologyLineList
	case gpucore.TopologyLineStrip:
		return gputypes.PrimitiveTopologyLineStrip
	case gpucore.TopologyTriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}
