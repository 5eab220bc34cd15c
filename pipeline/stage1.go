package pipeline

import (
	"fmt"

	"github.com/crydafan/MyCamera/driver"
)

// stage1 subtracts the per-phase black level, divides by the sensor's
// usable range, and applies the per-phase white-balance gain,
// clamping to [0, 1]. Grounded on finish.rs's Stage1: input is the
// shifted Bayer image (view index 1 of Stage0's output), output is a
// single-channel R16_SFLOAT storage image.
type stage1 struct {
	colorGains [4]float32
	blackLevel [4]int32
	whiteLevel int32
	extent     driver.Dim3D
}

func (s *stage1) provision(ctx *Context, f *Finish, input *StageOutput) (*stageResources, error) {
	shiftedView := input.Views[1]

	_, normalizedView, err := newStorageImage(ctx, f, driver.R16Sfloat, s.extent, driver.UShaderRead|driver.UShaderWrite)
	if err != nil {
		return nil, fmt.Errorf("pipeline: stage1 normalized image: %w", err)
	}

	descs := []driver.Descriptor{
		{Type: driver.DImage, Stages: driver.SCompute, Nr: 0, Len: 1},
		{Type: driver.DImage, Stages: driver.SCompute, Nr: 1, Len: 1},
	}
	pl, heap, table, err := newComputePipeline(ctx, f, normalizeSPV, 36, descs)
	if err != nil {
		return nil, err
	}
	heap.SetImage(0, 0, []driver.ImageView{shiftedView})
	heap.SetImage(0, 1, []driver.ImageView{normalizedView})

	return &stageResources{
		pipeline: pl,
		table:    table,
		output:   StageOutput{Views: []driver.ImageView{normalizedView}},
	}, nil
}

func (s *stage1) dispatch(cb driver.CmdBuffer, res *stageResources, wg [3]int) {
	cb.SetPipeline(res.pipeline)
	var data []byte
	for _, g := range s.colorGains {
		data = appendF32(data, g)
	}
	for _, b := range s.blackLevel {
		data = appendI32(data, b)
	}
	data = appendI32(data, s.whiteLevel)
	cb.SetConstants(res.pipeline, data)
	cb.SetDescTable(res.table, []int{0})
	cb.Dispatch(wg[0], wg[1], wg[2])
}
