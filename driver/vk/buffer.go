package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/crydafan/MyCamera/driver"
)

// buffer implements driver.Buffer.
type buffer struct {
	m   *memory
	buf vk.Buffer
}

// NewBuffer implements driver.GPU.
func (d *Driver) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	var u vk.BufferUsageFlagBits
	if usg&driver.UCopySrc != 0 {
		u |= vk.BufferUsageTransferSrcBit
	}
	if usg&driver.UCopyDst != 0 {
		u |= vk.BufferUsageTransferDstBit
	}
	if usg&(driver.UShaderRead|driver.UShaderWrite) != 0 {
		u |= vk.BufferUsageStorageBufferBit
	}

	info := &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(u),
		SharingMode: vk.SharingModeExclusive,
	}
	var buf vk.Buffer
	if res := vk.CreateBuffer(d.dev, info, nil, &buf); res != vk.Success {
		return nil, checkResult(res)
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.dev, buf, &req)
	req.Deref()
	m, err := d.newMemory(req, visible)
	if err != nil {
		vk.DestroyBuffer(d.dev, buf, nil)
		return nil, err
	}
	if res := vk.BindBufferMemory(d.dev, buf, m.mem, 0); res != vk.Success {
		m.free()
		vk.DestroyBuffer(d.dev, buf, nil)
		return nil, checkResult(res)
	}
	m.bound = true
	if visible {
		// Keep the memory mapped for the lifetime of the buffer, since
		// every stage's staging traffic goes through host-visible
		// buffers exactly once per frame.
		if err := m.mmap(); err != nil {
			m.free()
			vk.DestroyBuffer(d.dev, buf, nil)
			return nil, err
		}
	}

	return &buffer{m: m, buf: buf}, nil
}

// Visible implements driver.Buffer.
func (b *buffer) Visible() bool { return b.m.vis }

// Bytes implements driver.Buffer.
func (b *buffer) Bytes() []byte { return b.m.p }

// Cap implements driver.Buffer.
func (b *buffer) Cap() int64 { return b.m.size }

// Destroy implements driver.Destroyer.
func (b *buffer) Destroy() {
	if b == nil || b.m == nil {
		return
	}
	vk.DestroyBuffer(b.m.d.dev, b.buf, nil)
	b.m.free()
	*b = buffer{}
}
