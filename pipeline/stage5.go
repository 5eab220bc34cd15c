package pipeline

import (
	"fmt"

	"github.com/crydafan/MyCamera/driver"
)

// stage5 quantizes the gamma-corrected float RGBA image into an
// 8-bit-unorm image and prepares its host readback. Grounded on
// finish.rs's Stage5: the readback buffer and the image-to-buffer
// copy command are built here, during provisioning, but are not
// executed — Finish runs them, fenced, only after the main six-stage
// command buffer has completed (spec.md §4.9 step 6).
type stage5 struct {
	extent driver.Dim3D
}

func (s *stage5) provision(ctx *Context, f *Finish, input *StageOutput) (*stageResources, error) {
	gpu := ctx.GPU()
	rgbaView := input.Views[0]

	_, quantizedView, err := newStorageImage(ctx, f, driver.RGBA8Unorm, s.extent, driver.UShaderRead|driver.UShaderWrite|driver.UCopySrc)
	if err != nil {
		return nil, fmt.Errorf("pipeline: stage5 quantized image: %w", err)
	}
	quantizedImg := quantizedView.Image()

	readback, err := gpu.NewBuffer(int64(4*s.extent.Width*s.extent.Height), true, driver.UCopyDst)
	if err != nil {
		return nil, fmt.Errorf("pipeline: stage5 readback buffer: %w", err)
	}
	f.track(readback)

	readbackCB, err := gpu.NewCmdBuffer()
	if err != nil {
		return nil, fmt.Errorf("pipeline: stage5 readback command buffer: %w", err)
	}
	f.track(readbackCB)
	if err := readbackCB.Begin(); err != nil {
		return nil, fmt.Errorf("pipeline: stage5 begin readback: %w", err)
	}
	readbackCB.CopyImgToBuf(&driver.BufImgCopy{
		Buf:     readback,
		RowStrd: s.extent.Width,
		SlcStrd: s.extent.Height,
		Img:     quantizedImg,
		Size:    s.extent,
	})
	if err := readbackCB.End(); err != nil {
		return nil, fmt.Errorf("pipeline: stage5 end readback: %w", err)
	}

	descs := []driver.Descriptor{
		{Type: driver.DImage, Stages: driver.SCompute, Nr: 0, Len: 1},
		{Type: driver.DImage, Stages: driver.SCompute, Nr: 1, Len: 1},
	}
	pl, heap, table, err := newComputePipeline(ctx, f, quantizeSPV, 0, descs)
	if err != nil {
		return nil, err
	}
	heap.SetImage(0, 0, []driver.ImageView{rgbaView})
	heap.SetImage(0, 1, []driver.ImageView{quantizedView})

	return &stageResources{
		pipeline: pl,
		table:    table,
		output: StageOutput{
			Views:   []driver.ImageView{quantizedView},
			Buffers: []driver.Buffer{readback},
			Cmds:    []driver.CmdBuffer{readbackCB},
		},
	}, nil
}

func (s *stage5) dispatch(cb driver.CmdBuffer, res *stageResources, wg [3]int) {
	cb.SetPipeline(res.pipeline)
	cb.SetDescTable(res.table, []int{0})
	cb.Dispatch(wg[0], wg[1], wg[2])
}
