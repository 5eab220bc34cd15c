package pipeline

import (
	"fmt"

	"github.com/crydafan/MyCamera/driver"
)

// stage2 reconstructs a full RGBA image from the single-channel
// normalized Bayer mosaic by interpolating the missing samples at
// every pixel. The interpolation kernel is a shader-local decision;
// this stage's contract is only the descriptor layout and the output
// format. Grounded on finish.rs's Stage2.
type stage2 struct {
	extent driver.Dim3D
}

func (s *stage2) provision(ctx *Context, f *Finish, input *StageOutput) (*stageResources, error) {
	normalizedView := input.Views[0]

	_, rgbaView, err := newStorageImage(ctx, f, driver.RGBA16Sfloat, s.extent, driver.UShaderRead|driver.UShaderWrite)
	if err != nil {
		return nil, fmt.Errorf("pipeline: stage2 rgba image: %w", err)
	}

	descs := []driver.Descriptor{
		{Type: driver.DImage, Stages: driver.SCompute, Nr: 0, Len: 1},
		{Type: driver.DImage, Stages: driver.SCompute, Nr: 1, Len: 1},
	}
	pl, heap, table, err := newComputePipeline(ctx, f, demosaicSPV, 8, descs)
	if err != nil {
		return nil, err
	}
	heap.SetImage(0, 0, []driver.ImageView{normalizedView})
	heap.SetImage(0, 1, []driver.ImageView{rgbaView})

	return &stageResources{
		pipeline: pl,
		table:    table,
		output:   StageOutput{Views: []driver.ImageView{rgbaView}},
	}, nil
}

func (s *stage2) dispatch(cb driver.CmdBuffer, res *stageResources, wg [3]int) {
	cb.SetPipeline(res.pipeline)
	var data []byte
	data = appendI32(data, int32(s.extent.Width))
	data = appendI32(data, int32(s.extent.Height))
	cb.SetConstants(res.pipeline, data)
	cb.SetDescTable(res.table, []int{0})
	cb.Dispatch(wg[0], wg[1], wg[2])
}
