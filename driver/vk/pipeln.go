package vk

import (
	"errors"

	vk "github.com/goki/vulkan"

	"github.com/crydafan/MyCamera/driver"
)

// pipeline implements driver.Pipeline.
type pipeline struct {
	d      *Driver
	pl     vk.Pipeline
	layout vk.PipelineLayout
}

// NewPipeline implements driver.GPU. Unlike the graphics/compute split
// the abstraction was grounded on, every pipeline here is a compute
// pipeline, so state must be a *driver.CompState.
func (d *Driver) NewPipeline(state any) (driver.Pipeline, error) {
	cs, ok := state.(*driver.CompState)
	if !ok {
		return nil, errors.New("vk: unknown pipeline state type")
	}
	return d.newCompute(cs)
}

func (d *Driver) newCompute(cs *driver.CompState) (driver.Pipeline, error) {
	var setLayouts []vk.DescriptorSetLayout
	if cs.Desc != nil {
		t := cs.Desc.(*descTable)
		setLayouts = make([]vk.DescriptorSetLayout, len(t.heaps))
		for i, h := range t.heaps {
			setLayouts[i] = h.layout
		}
	}

	layoutInfo := &vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(setLayouts)),
	}
	if len(setLayouts) > 0 {
		layoutInfo.PSetLayouts = setLayouts
	}
	if cs.ConstntSize > 0 {
		ranges := []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageComputeBit),
			Offset:     0,
			Size:       uint32(cs.ConstntSize),
		}}
		layoutInfo.PushConstantRangeCount = 1
		layoutInfo.PPushConstantRanges = ranges
	}
	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(d.dev, layoutInfo, nil, &layout); res != vk.Success {
		return nil, checkResult(res)
	}

	stage := vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageComputeBit,
		Module: cs.Func.Code.(*shaderCode).mod,
		PName:  cs.Func.Name + "\x00",
	}
	info := vk.ComputePipelineCreateInfo{
		SType:             vk.StructureTypeComputePipelineCreateInfo,
		Stage:             stage,
		Layout:            layout,
		BasePipelineIndex: -1,
	}
	pls := make([]vk.Pipeline, 1)
	res := vk.CreateComputePipelines(d.dev, vk.NullPipelineCache, 1, []vk.ComputePipelineCreateInfo{info}, nil, pls)
	if err := checkResult(res); err != nil {
		vk.DestroyPipelineLayout(d.dev, layout, nil)
		return nil, err
	}
	return &pipeline{d: d, pl: pls[0], layout: layout}, nil
}

// Destroy implements driver.Destroyer.
func (p *pipeline) Destroy() {
	if p == nil || p.d == nil {
		return
	}
	vk.DestroyPipeline(p.d.dev, p.pl, nil)
	vk.DestroyPipelineLayout(p.d.dev, p.layout, nil)
	*p = pipeline{}
}
