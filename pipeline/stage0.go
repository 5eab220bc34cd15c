package pipeline

import (
	"fmt"

	"github.com/crydafan/MyCamera/driver"
)

// stage0 shifts a packed 16-bit Bayer capture so its top-left 2x2
// tile reads RGGB regardless of the sensor's native arrangement.
// Grounded on finish.rs's Stage0: the raw bytes are uploaded to a
// staging buffer, copied into an R16_UINT image in a submission that
// runs (and is fenced) during provisioning itself, outside the main
// command stream, since Stage 1 cannot read the image until that
// copy has completed.
type stage0 struct {
	cfa    CFA
	raw    []byte
	extent driver.Dim3D
}

func (s *stage0) provision(ctx *Context, f *Finish, _ *StageOutput) (*stageResources, error) {
	gpu := ctx.GPU()

	staging, err := gpu.NewBuffer(int64(len(s.raw)), true, driver.UCopySrc)
	if err != nil {
		return nil, fmt.Errorf("pipeline: stage0 staging buffer: %w", err)
	}
	f.track(staging)
	copy(staging.Bytes(), s.raw)

	rawImg, rawView, err := newStorageImage(ctx, f, driver.R16Uint, s.extent, driver.UShaderRead|driver.UShaderWrite|driver.UCopyDst)
	if err != nil {
		return nil, fmt.Errorf("pipeline: stage0 raw image: %w", err)
	}

	uploadCB, err := gpu.NewCmdBuffer()
	if err != nil {
		return nil, fmt.Errorf("pipeline: stage0 upload command buffer: %w", err)
	}
	f.track(uploadCB)
	if err := uploadCB.Begin(); err != nil {
		return nil, fmt.Errorf("pipeline: stage0 begin upload: %w", err)
	}
	uploadCB.CopyBufToImg(&driver.BufImgCopy{
		Buf:     staging,
		RowStrd: s.extent.Width,
		SlcStrd: s.extent.Height,
		Img:     rawImg,
		Size:    s.extent,
	})
	if err := uploadCB.End(); err != nil {
		return nil, fmt.Errorf("pipeline: stage0 end upload: %w", err)
	}
	if err := runOnce(ctx, uploadCB); err != nil {
		return nil, fmt.Errorf("pipeline: stage0 upload submit: %w", err)
	}

	_, shiftedView, err := newStorageImage(ctx, f, driver.R16Uint, s.extent, driver.UShaderRead|driver.UShaderWrite)
	if err != nil {
		return nil, fmt.Errorf("pipeline: stage0 shifted image: %w", err)
	}

	descs := []driver.Descriptor{
		{Type: driver.DImage, Stages: driver.SCompute, Nr: 0, Len: 1},
		{Type: driver.DImage, Stages: driver.SCompute, Nr: 1, Len: 1},
	}
	pl, heap, table, err := newComputePipeline(ctx, f, shiftBayerSPV, 8, descs)
	if err != nil {
		return nil, err
	}
	heap.SetImage(0, 0, []driver.ImageView{rawView})
	heap.SetImage(0, 1, []driver.ImageView{shiftedView})

	return &stageResources{
		pipeline: pl,
		table:    table,
		output:   StageOutput{Views: []driver.ImageView{rawView, shiftedView}},
	}, nil
}

func (s *stage0) dispatch(cb driver.CmdBuffer, res *stageResources, wg [3]int) {
	cb.SetPipeline(res.pipeline)
	shift := s.cfa.shiftVector()
	var data []byte
	data = appendI32(data, shift[0])
	data = appendI32(data, shift[1])
	cb.SetConstants(res.pipeline, data)
	cb.SetDescTable(res.table, []int{0})
	cb.Dispatch(wg[0], wg[1], wg[2])
}
