package vk

import (
	"errors"

	vk "github.com/goki/vulkan"

	"github.com/crydafan/MyCamera/driver"
)

// descHeap implements driver.DescHeap. Every heap in this pipeline
// holds either storage buffers or storage images; there are no
// samplers, sampled images or uniform buffers, since all per-dispatch
// parameters travel as push constants instead.
type descHeap struct {
	d      *Driver
	layout vk.DescriptorSetLayout
	pool   vk.DescriptorPool
	sets   []vk.DescriptorSet
	ds     []driver.Descriptor

	nbuf int
	nimg int
}

// NewDescHeap implements driver.GPU.
func (d *Driver) NewDescHeap(ds []driver.Descriptor) (driver.DescHeap, error) {
	var nbuf, nimg int
	binds := make([]vk.DescriptorSetLayoutBinding, len(ds))
	for i := range ds {
		for j := i + 1; j < len(ds); j++ {
			if ds[i].Nr == ds[j].Nr {
				return nil, errors.New("vk: descriptor number is not unique")
			}
		}
		switch ds[i].Type {
		case driver.DBuffer:
			nbuf += ds[i].Len
			binds[i].DescriptorType = vk.DescriptorTypeStorageBuffer
		case driver.DImage:
			nimg += ds[i].Len
			binds[i].DescriptorType = vk.DescriptorTypeStorageImage
		}
		binds[i].Binding = uint32(ds[i].Nr)
		binds[i].DescriptorCount = uint32(ds[i].Len)
		binds[i].StageFlags = vk.ShaderStageFlags(convStage(ds[i].Stages))
	}

	info := &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(binds)),
		PBindings:    binds,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(d.dev, info, nil, &layout); res != vk.Success {
		return nil, checkResult(res)
	}
	return &descHeap{d: d, layout: layout, ds: ds, nbuf: nbuf, nimg: nimg}, nil
}

// New implements driver.DescHeap.
func (h *descHeap) New(n int) error {
	switch {
	case n == len(h.sets):
		return nil
	case len(h.sets) == 0:
		// Nothing to destroy yet.
	default:
		vk.DestroyDescriptorPool(h.d.dev, h.pool, nil)
		h.sets = nil
		if n == 0 {
			return nil
		}
	}
	if n == 0 {
		return nil
	}

	var sizes []vk.DescriptorPoolSize
	if h.nbuf > 0 {
		sizes = append(sizes, vk.DescriptorPoolSize{
			Type:            vk.DescriptorTypeStorageBuffer,
			DescriptorCount: uint32(h.nbuf * n),
		})
	}
	if h.nimg > 0 {
		sizes = append(sizes, vk.DescriptorPoolSize{
			Type:            vk.DescriptorTypeStorageImage,
			DescriptorCount: uint32(h.nimg * n),
		})
	}

	pinfo := &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(n),
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(h.d.dev, pinfo, nil, &pool); res != vk.Success {
		return checkResult(res)
	}

	layouts := make([]vk.DescriptorSetLayout, n)
	for i := range layouts {
		layouts[i] = h.layout
	}
	sinfo := &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: uint32(n),
		PSetLayouts:        layouts,
	}
	sets := make([]vk.DescriptorSet, n)
	if res := vk.AllocateDescriptorSets(h.d.dev, sinfo, &sets[0]); res != vk.Success {
		vk.DestroyDescriptorPool(h.d.dev, pool, nil)
		return checkResult(res)
	}
	h.pool = pool
	h.sets = sets
	return nil
}

// SetBuffer implements driver.DescHeap.
func (h *descHeap) SetBuffer(cpy, nr int, buf []driver.Buffer, off, size []int64) {
	infos := make([]vk.DescriptorBufferInfo, len(buf))
	for i := range infos {
		infos[i] = vk.DescriptorBufferInfo{
			Buffer: buf[i].(*buffer).buf,
			Offset: vk.DeviceSize(off[i]),
			Range:  vk.DeviceSize(size[i]),
		}
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          h.sets[cpy],
		DstBinding:      uint32(nr),
		DescriptorCount: uint32(len(buf)),
		DescriptorType:  vk.DescriptorTypeStorageBuffer,
		PBufferInfo:     infos,
	}
	vk.UpdateDescriptorSets(h.d.dev, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

// SetImage implements driver.DescHeap.
func (h *descHeap) SetImage(cpy, nr int, iv []driver.ImageView) {
	infos := make([]vk.DescriptorImageInfo, len(iv))
	for i := range infos {
		infos[i] = vk.DescriptorImageInfo{
			ImageView:   iv[i].(*view).iv,
			ImageLayout: vk.ImageLayoutGeneral,
		}
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          h.sets[cpy],
		DstBinding:      uint32(nr),
		DescriptorCount: uint32(len(iv)),
		DescriptorType:  vk.DescriptorTypeStorageImage,
		PImageInfo:      infos,
	}
	vk.UpdateDescriptorSets(h.d.dev, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

// Count implements driver.DescHeap.
func (h *descHeap) Count() int { return len(h.sets) }

// Destroy implements driver.Destroyer.
func (h *descHeap) Destroy() {
	if h == nil || h.d == nil {
		return
	}
	vk.DestroyDescriptorSetLayout(h.d.dev, h.layout, nil)
	if len(h.sets) != 0 {
		vk.DestroyDescriptorPool(h.d.dev, h.pool, nil)
	}
	*h = descHeap{}
}

// descTable implements driver.DescTable. Unlike the graphics-era
// abstraction this was grounded on, the table itself does not own a
// VkPipelineLayout: since every pipeline here also carries a
// push-constant range sized per CompState.ConstntSize, the pipeline
// layout is built once, in NewPipeline, from the table's heaps plus
// that range.
type descTable struct {
	d     *Driver
	heaps []*descHeap
}

// NewDescTable implements driver.GPU.
func (d *Driver) NewDescTable(dh []driver.DescHeap) (driver.DescTable, error) {
	heaps := make([]*descHeap, len(dh))
	for i := range heaps {
		heaps[i] = dh[i].(*descHeap)
	}
	return &descTable{d: d, heaps: heaps}, nil
}

// Destroy implements driver.Destroyer. The underlying set layouts are
// owned by the descHeaps, not the table, so there is nothing to free
// here.
func (t *descTable) Destroy() { *t = descTable{} }

// convStage converts a driver.Stage to a VkShaderStageFlagBits.
func convStage(stg driver.Stage) (flags vk.ShaderStageFlagBits) {
	if stg&driver.SCompute != 0 {
		flags |= vk.ShaderStageComputeBit
	}
	return
}
