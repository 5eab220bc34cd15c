package vk

import (
	"errors"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// memory is a single device memory allocation, optionally mapped for
// host access.
type memory struct {
	d     *Driver
	size  int64
	vis   bool
	bound bool
	p     []byte
	mem   vk.DeviceMemory
	typ   int
}

// selectMemory returns the index of a memory type satisfying both
// typeBits (a bitmask of acceptable indices, from the resource's
// memory requirements) and prop (the required property flags), or -1
// if none match.
func (d *Driver) selectMemory(typeBits uint32, prop vk.MemoryPropertyFlagBits) int {
	for i := 0; i < int(d.mprop.MemoryTypeCount); i++ {
		if 1<<uint(i)&typeBits != 0 {
			d.mprop.MemoryTypes[i].Deref()
			flags := d.mprop.MemoryTypes[i].PropertyFlags
			if flags&vk.MemoryPropertyFlags(prop) == vk.MemoryPropertyFlags(prop) {
				return i
			}
		}
	}
	return -1
}

// newMemory allocates device memory satisfying req. If visible is
// true, the memory must additionally be host-visible and host-coherent
// so it can be mapped for staging. Device-local memory is preferred
// but not required; if no device-local type is available the
// allocation falls back to any type that still satisfies the
// visibility requirement.
func (d *Driver) newMemory(req vk.MemoryRequirements, visible bool) (*memory, error) {
	prop := vk.MemoryPropertyDeviceLocalBit
	if visible {
		prop |= vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
	}

	typ := d.selectMemory(req.MemoryTypeBits, prop)
	if typ == -1 && prop&vk.MemoryPropertyDeviceLocalBit != 0 {
		prop &^= vk.MemoryPropertyDeviceLocalBit
		typ = d.selectMemory(req.MemoryTypeBits, prop)
	}
	if typ == -1 {
		return nil, errors.New("vk: no suitable memory type found")
	}

	info := &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: uint32(typ),
	}
	var mem vk.DeviceMemory
	if res := vk.AllocateMemory(d.dev, info, nil, &mem); res != vk.Success {
		return nil, checkResult(res)
	}
	return &memory{
		d:    d,
		size: int64(req.Size),
		vis:  visible,
		mem:  mem,
		typ:  typ,
	}, nil
}

// mmap maps the memory for host access. The memory must be visible
// and must have already been bound to a resource.
func (m *memory) mmap() error {
	if !m.vis {
		panic("vk: cannot map memory that is not host visible")
	}
	if !m.bound {
		panic("vk: cannot map memory that is not bound to a resource")
	}
	if len(m.p) == 0 {
		var p unsafe.Pointer
		if res := vk.MapMemory(m.d.dev, m.mem, 0, vk.DeviceSize(m.size), 0, &p); res != vk.Success {
			return checkResult(res)
		}
		m.p = unsafe.Slice((*byte)(p), m.size)
	}
	return nil
}

// unmap unmaps the memory, if mapped.
func (m *memory) unmap() {
	if len(m.p) != 0 {
		vk.UnmapMemory(m.d.dev, m.mem)
		m.p = nil
	}
}

// free deallocates and invalidates the memory.
func (m *memory) free() {
	if m == nil || m.d == nil {
		return
	}
	vk.FreeMemory(m.d.dev, m.mem, nil)
	*m = memory{}
}
