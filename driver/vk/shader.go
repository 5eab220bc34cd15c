package vk

import (
	"errors"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/crydafan/MyCamera/driver"
)

// shaderCode implements driver.ShaderCode.
type shaderCode struct {
	d   *Driver
	mod vk.ShaderModule
}

// NewShaderCode implements driver.GPU. data must be a SPIR-V module:
// its length must be a multiple of four, per the Vulkan spec.
func (d *Driver) NewShaderCode(data []byte) (driver.ShaderCode, error) {
	n := len(data)
	if n == 0 || n&3 != 0 {
		return nil, errors.New("vk: invalid shader code size")
	}
	words := unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), n/4)
	info := &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(n),
		PCode:    words,
	}
	var mod vk.ShaderModule
	if res := vk.CreateShaderModule(d.dev, info, nil, &mod); res != vk.Success {
		return nil, checkResult(res)
	}
	return &shaderCode{d: d, mod: mod}, nil
}

// Destroy implements driver.Destroyer.
func (c *shaderCode) Destroy() {
	if c == nil || c.d == nil {
		return
	}
	vk.DestroyShaderModule(c.d.dev, c.mod, nil)
	*c = shaderCode{}
}
