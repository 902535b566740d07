package gpu

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/envprobe/envrt/rt/material"
	"github.com/go-gl/mathgl/mgl32"
)

// Globals matches the uniform block of the reflective shader.
type Globals struct {
	InvViewProj  mgl32.Mat4
	Eye          mgl32.Vec4
	Sphere       mgl32.Vec4 // xyz center, w radius
	ReflectColor mgl32.Vec4
}

// Presenter draws one reflective sphere (the visor) with the bound cube
// texture, over a backdrop sampled from the same map.
type Presenter struct {
	device   *wgpu.Device
	queue    *wgpu.Queue
	pipeline *wgpu.RenderPipeline
	sampler  *wgpu.Sampler
	globals  *wgpu.Buffer

	bindGroup *wgpu.BindGroup
	bound     *CubeTexture
}

func NewPresenter(device *wgpu.Device, queue *wgpu.Queue, format wgpu.TextureFormat, shader *material.Shader) (*Presenter, error) {
	if !shader.Valid() {
		return nil, errors.New("gpu: presenter needs a reflective shader")
	}
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          shader.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shader.Source},
	})
	if err != nil {
		return nil, err
	}
	defer module.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Reflective presenter",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		pipeline.Release()
		return nil, err
	}

	globals, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Reflective globals",
		Contents: wgpu.ToBytes([]Globals{{InvViewProj: mgl32.Ident4()}}),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		sampler.Release()
		pipeline.Release()
		return nil, err
	}

	return &Presenter{
		device:   device,
		queue:    queue,
		pipeline: pipeline,
		sampler:  sampler,
		globals:  globals,
	}, nil
}

func (p *Presenter) SetGlobals(g Globals) error {
	return p.queue.WriteBuffer(p.globals, 0, wgpu.ToBytes([]Globals{g}))
}

// Bind selects the cube texture to present. The bind group is rebuilt only when
// the texture changes.
func (p *Presenter) Bind(t *CubeTexture) error {
	if t == p.bound && p.bindGroup != nil {
		return nil
	}
	layout := p.pipeline.GetBindGroupLayout(0)
	defer layout.Release()

	bg, err := p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Reflective bind group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.globals, Size: wgpu.WholeSize},
			{Binding: 1, TextureView: t.View},
			{Binding: 2, Sampler: p.sampler},
		},
	})
	if err != nil {
		return err
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup, p.bound = bg, t
	return nil
}

// Draw records the presenter pass into encoder, targeting view.
func (p *Presenter) Draw(encoder *wgpu.CommandEncoder, view *wgpu.TextureView) error {
	if p.bindGroup == nil {
		return errors.New("gpu: presenter has no cube texture bound")
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	defer pass.Release()

	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, p.bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	return pass.End()
}

func (p *Presenter) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.globals.Release()
	p.sampler.Release()
	p.pipeline.Release()
}
