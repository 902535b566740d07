// Package gpu keeps environment maps resident on a wgpu device and draws the
// reflective presenter.
package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/envprobe/envrt/rt/core"
	"github.com/gekko3d/envprobe/envrt/rt/cube"
	"github.com/gekko3d/envprobe/envrt/rt/material"
	"github.com/google/uuid"
)

// Uploader mirrors a changing set of cube maps onto the device, one CubeTexture per map.
type Uploader struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue
	log    core.Logger

	textures map[uuid.UUID]*CubeTexture
	faces    uint64
}

func NewUploader(device *wgpu.Device, queue *wgpu.Queue, log core.Logger) *Uploader {
	return &Uploader{
		Device:   device,
		Queue:    queue,
		log:      core.OrNop(log),
		textures: make(map[uuid.UUID]*CubeTexture),
	}
}

// Texture returns the resident texture of m, if it was synced.
func (u *Uploader) Texture(m *cube.Map) (*CubeTexture, bool) {
	if m == nil {
		return nil, false
	}
	t, ok := u.textures[m.ID()]
	return t, ok
}

// FacesUploaded counts face uploads since creation.
func (u *Uploader) FacesUploaded() uint64 { return u.faces }

// Sync makes every map in maps resident and current, and releases the textures of
// maps that are no longer listed or were released.
func (u *Uploader) Sync(maps []*cube.Map) error {
	live := make(map[uuid.UUID]struct{}, len(maps))
	for _, m := range maps {
		if m == nil || m.Released() {
			continue
		}
		live[m.ID()] = struct{}{}
		t, ok := u.textures[m.ID()]
		if !ok {
			var err error
			if t, err = NewCubeTexture(u.Device, m); err != nil {
				return err
			}
			u.textures[m.ID()] = t
			u.log.Debugf("gpu: env map %s resident (%dpx)", m.ID(), m.Size())
		}
		uploaded, err := t.Sync(u.Queue)
		if err != nil {
			return err
		}
		u.faces += uint64(uploaded.Count())
	}
	for id, t := range u.textures {
		if _, ok := live[id]; ok {
			continue
		}
		t.Release()
		delete(u.textures, id)
		u.log.Debugf("gpu: env map %s evicted", id)
	}
	return nil
}

func (u *Uploader) Release() {
	for id, t := range u.textures {
		t.Release()
		delete(u.textures, id)
	}
}

// CompileShader checks that shader builds into a shader module on device.
func CompileShader(device *wgpu.Device, shader *material.Shader) error {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          shader.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shader.Source},
	})
	if err != nil {
		return err
	}
	module.Release()
	return nil
}
