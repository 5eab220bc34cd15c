package vk

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/crydafan/MyCamera/driver"
)

// Command buffer recording status.
const (
	cbIdle = iota
	cbBegun
	cbEnded
	cbFailed
	cbCommitted
)

// cmdBuffer implements driver.CmdBuffer.
type cmdBuffer struct {
	d      *Driver
	pool   vk.CommandPool
	cb     vk.CommandBuffer
	status int
	pl     *pipeline // bound pipeline, needed by SetDescTable
}

// NewCmdBuffer implements driver.GPU. Its pool is created from the
// driver's single compute/transfer queue family.
func (d *Driver) NewCmdBuffer() (driver.CmdBuffer, error) {
	poolInfo := &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: d.qfam,
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(d.dev, poolInfo, nil, &pool); res != vk.Success {
		return nil, checkResult(res)
	}
	cbInfo := &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	cbs := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(d.dev, cbInfo, cbs); res != vk.Success {
		vk.DestroyCommandPool(d.dev, pool, nil)
		return nil, checkResult(res)
	}
	return &cmdBuffer{d: d, pool: pool, cb: cbs[0]}, nil
}

// Begin implements driver.CmdBuffer.
func (cb *cmdBuffer) Begin() error {
	switch cb.status {
	case cbIdle:
		info := &vk.CommandBufferBeginInfo{
			SType: vk.StructureTypeCommandBufferBeginInfo,
			Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
		}
		if res := vk.BeginCommandBuffer(cb.cb, info); res != vk.Success {
			return checkResult(res)
		}
		cb.status = cbBegun
		return nil
	case cbBegun:
		return nil
	}
	panic("vk: invalid call to CmdBuffer.Begin")
}

// IsRecording implements driver.CmdBuffer.
func (cb *cmdBuffer) IsRecording() bool { return cb.status == cbBegun }

// End implements driver.CmdBuffer.
func (cb *cmdBuffer) End() error {
	switch cb.status {
	case cbBegun:
		if res := vk.EndCommandBuffer(cb.cb); res != vk.Success {
			cb.status = cbIdle
			return checkResult(res)
		}
		cb.status = cbEnded
		return nil
	case cbEnded:
		return nil
	}
	panic("vk: invalid call to CmdBuffer.End")
}

// Reset implements driver.CmdBuffer.
func (cb *cmdBuffer) Reset() error {
	if cb.status == cbCommitted {
		panic("vk: invalid call to CmdBuffer.Reset")
	}
	if res := vk.ResetCommandBuffer(cb.cb, 0); res != vk.Success {
		return checkResult(res)
	}
	cb.status = cbIdle
	cb.pl = nil
	return nil
}

// SetPipeline implements driver.CmdBuffer.
func (cb *cmdBuffer) SetPipeline(pl driver.Pipeline) {
	p := pl.(*pipeline)
	cb.pl = p
	vk.CmdBindPipeline(cb.cb, vk.PipelineBindPointCompute, p.pl)
}

// SetConstants implements driver.CmdBuffer. The pipeline argument must
// be the one last bound with SetPipeline; it is passed explicitly
// (rather than relying on cb.pl) because the driver interface makes
// no guarantee about call ordering beyond what the stage code itself
// enforces.
func (cb *cmdBuffer) SetConstants(pl driver.Pipeline, data []byte) {
	p := pl.(*pipeline)
	vk.CmdPushConstants(cb.cb, p.layout, vk.ShaderStageFlags(vk.ShaderStageComputeBit), 0, uint32(len(data)), unsafe.Pointer(&data[0]))
}

// SetDescTable implements driver.CmdBuffer.
func (cb *cmdBuffer) SetDescTable(table driver.DescTable, heapCopy []int) {
	t := table.(*descTable)
	sets := make([]vk.DescriptorSet, len(t.heaps))
	for i, h := range t.heaps {
		sets[i] = h.sets[heapCopy[i]]
	}
	var layout vk.PipelineLayout
	if cb.pl != nil {
		layout = cb.pl.layout
	}
	vk.CmdBindDescriptorSets(cb.cb, vk.PipelineBindPointCompute, layout, 0, uint32(len(sets)), sets, 0, nil)
}

// Dispatch implements driver.CmdBuffer.
func (cb *cmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int) {
	vk.CmdDispatch(cb.cb, uint32(grpCountX), uint32(grpCountY), uint32(grpCountZ))
}

// CopyBufToImg implements driver.CmdBuffer.
func (cb *cmdBuffer) CopyBufToImg(param *driver.BufImgCopy) {
	buf := param.Buf.(*buffer)
	img := param.Img.(*image)
	cpy := vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(param.BufOff),
		BufferRowLength:   uint32(param.RowStrd),
		BufferImageHeight: uint32(param.SlcStrd),
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageOffset: vk.Offset3D{X: int32(param.ImgOff.X), Y: int32(param.ImgOff.Y), Z: int32(param.ImgOff.Z)},
		ImageExtent: vk.Extent3D{Width: uint32(param.Size.Width), Height: uint32(param.Size.Height), Depth: uint32(param.Size.Depth)},
	}
	vk.CmdCopyBufferToImage(cb.cb, buf.buf, img.img, vk.ImageLayoutGeneral, 1, []vk.BufferImageCopy{cpy})
}

// CopyImgToBuf implements driver.CmdBuffer.
func (cb *cmdBuffer) CopyImgToBuf(param *driver.BufImgCopy) {
	img := param.Img.(*image)
	buf := param.Buf.(*buffer)
	cpy := vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(param.BufOff),
		BufferRowLength:   uint32(param.RowStrd),
		BufferImageHeight: uint32(param.SlcStrd),
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageOffset: vk.Offset3D{X: int32(param.ImgOff.X), Y: int32(param.ImgOff.Y), Z: int32(param.ImgOff.Z)},
		ImageExtent: vk.Extent3D{Width: uint32(param.Size.Width), Height: uint32(param.Size.Height), Depth: uint32(param.Size.Depth)},
	}
	vk.CmdCopyImageToBuffer(cb.cb, img.img, vk.ImageLayoutGeneral, buf.buf, 1, []vk.BufferImageCopy{cpy})
}

// Transition implements driver.CmdBuffer.
func (cb *cmdBuffer) Transition(t []driver.Transition) {
	barriers := make([]vk.ImageMemoryBarrier, len(t))
	for i := range t {
		img := t[i].Img.(*image)
		barriers[i] = vk.ImageMemoryBarrier{
			SType:         vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask: vk.AccessFlags(convAccess(t[i].AccessBefore)),
			DstAccessMask: vk.AccessFlags(convAccess(t[i].AccessAfter)),
			OldLayout:     convLayout(t[i].LayoutBefore),
			NewLayout:     convLayout(t[i].LayoutAfter),
			Image:         img.img,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		img.layout = barriers[i].NewLayout
	}
	vk.CmdPipelineBarrier(cb.cb,
		vk.PipelineStageFlags(convSync(syncBeforeOf(t))),
		vk.PipelineStageFlags(convSync(syncAfterOf(t))),
		0, 0, nil, 0, nil, uint32(len(barriers)), barriers)
}

// Barrier implements driver.CmdBuffer.
func (cb *cmdBuffer) Barrier(b []driver.Barrier) {
	barriers := make([]vk.MemoryBarrier, len(b))
	var before, after driver.Sync
	for i := range b {
		barriers[i] = vk.MemoryBarrier{
			SType:         vk.StructureTypeMemoryBarrier,
			SrcAccessMask: vk.AccessFlags(convAccess(b[i].AccessBefore)),
			DstAccessMask: vk.AccessFlags(convAccess(b[i].AccessAfter)),
		}
		before |= b[i].SyncBefore
		after |= b[i].SyncAfter
	}
	vk.CmdPipelineBarrier(cb.cb,
		vk.PipelineStageFlags(convSync(before)),
		vk.PipelineStageFlags(convSync(after)),
		0, uint32(len(barriers)), barriers, 0, nil, 0, nil)
}

// Destroy implements driver.Destroyer.
func (cb *cmdBuffer) Destroy() {
	if cb == nil || cb.d == nil {
		return
	}
	vk.DeviceWaitIdle(cb.d.dev)
	vk.DestroyCommandPool(cb.d.dev, cb.pool, nil)
	*cb = cmdBuffer{}
}

// Commit implements driver.GPU. Submission is fenced: the caller is
// notified on ch only once every command buffer in wk.Work has
// finished executing. Every per-frame submission (Stage0 upload, the
// six-stage dispatch, Stage5 readback) is committed separately, so
// each carries its own fence rather than sharing one across the
// frame.
func (d *Driver) Commit(wk *driver.WorkItem, ch chan<- *driver.WorkItem) error {
	if wk == nil || len(wk.Work) == 0 || ch == nil {
		panic("vk: invalid call to GPU.Commit")
	}
	cbs := make([]vk.CommandBuffer, len(wk.Work))
	for i, w := range wk.Work {
		cbs[i] = w.(*cmdBuffer).cb
	}
	fenceInfo := &vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	var fence vk.Fence
	if res := vk.CreateFence(d.dev, fenceInfo, nil, &fence); res != vk.Success {
		return checkResult(res)
	}
	info := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(cbs)),
		PCommandBuffers:    cbs,
	}
	d.qmu.Lock()
	res := vk.QueueSubmit(d.que, 1, []vk.SubmitInfo{info}, fence)
	d.qmu.Unlock()
	if res != vk.Success {
		vk.DestroyFence(d.dev, fence, nil)
		return checkResult(res)
	}
	for _, w := range wk.Work {
		w.(*cmdBuffer).status = cbCommitted
	}
	go func() {
		res := vk.WaitForFences(d.dev, 1, []vk.Fence{fence}, vk.True, vk.MaxUint64)
		vk.DestroyFence(d.dev, fence, nil)
		wk.Err = checkResult(res)
		for _, w := range wk.Work {
			w.(*cmdBuffer).status = cbIdle
		}
		ch <- wk
	}()
	return nil
}

// syncBeforeOf and syncAfterOf combine the sync scopes of a batch of
// transitions, since the classic (non-synchronization2) barrier API
// takes a single pipeline-stage mask for the whole call rather than
// one per barrier.
func syncBeforeOf(t []driver.Transition) (s driver.Sync) {
	for i := range t {
		s |= t[i].SyncBefore
	}
	return
}

func syncAfterOf(t []driver.Transition) (s driver.Sync) {
	for i := range t {
		s |= t[i].SyncAfter
	}
	return
}

// convSync converts a driver.Sync to a VkPipelineStageFlagBits.
func convSync(s driver.Sync) (flags vk.PipelineStageFlagBits) {
	if s&driver.SHost != 0 {
		flags |= vk.PipelineStageHostBit
	}
	if s&driver.SComputeShading != 0 {
		flags |= vk.PipelineStageComputeShaderBit
	}
	if s&driver.SCopy != 0 {
		flags |= vk.PipelineStageTransferBit
	}
	if s&driver.SAll != 0 || s == driver.SNone {
		flags |= vk.PipelineStageAllCommandsBit
	}
	return
}

// convAccess converts a driver.Access to a VkAccessFlagBits.
func convAccess(a driver.Access) (flags vk.AccessFlagBits) {
	if a&driver.AShaderRead != 0 {
		flags |= vk.AccessShaderReadBit
	}
	if a&driver.AShaderWrite != 0 {
		flags |= vk.AccessShaderWriteBit
	}
	if a&driver.ACopyRead != 0 {
		flags |= vk.AccessTransferReadBit
	}
	if a&driver.ACopyWrite != 0 {
		flags |= vk.AccessTransferWriteBit
	}
	if a&driver.AHostWrite != 0 {
		flags |= vk.AccessHostWriteBit
	}
	return
}

// convLayout converts a driver.Layout to a VkImageLayout.
func convLayout(l driver.Layout) vk.ImageLayout {
	switch l {
	case driver.LShaderStore:
		return vk.ImageLayoutGeneral
	case driver.LCopySrc:
		return vk.ImageLayoutTransferSrcOptimal
	case driver.LCopyDst:
		return vk.ImageLayoutTransferDstOptimal
	}
	return vk.ImageLayoutUndefined
}
