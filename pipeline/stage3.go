package pipeline

import (
	"fmt"

	"github.com/crydafan/MyCamera/driver"
)

// stage3 multiplies each pixel's RGB by a 3x3 color-correction matrix
// in place, preserving alpha. The matrix travels as three 4-float
// rows; the fourth lane of each row is padding to satisfy the 16-byte
// row alignment push-constant blocks require.
//
// forwardMatrix1, forwardMatrix2 and neutralPoint are carried on this
// struct but never placed into the push-constant block, exactly as
// the original left them commented out: the sensor-to-XYZ-to-display
// pipeline they belong to (spec.md §9) was planned but never wired up
// upstream of this stage.
type stage3 struct {
	colorCorrectionTransform [9]float32
	forwardMatrix1           [9]float32
	forwardMatrix2           [9]float32
	neutralPoint             [3]float32
}

func (s *stage3) provision(ctx *Context, f *Finish, input *StageOutput) (*stageResources, error) {
	rgbaView := input.Views[0]

	descs := []driver.Descriptor{
		{Type: driver.DImage, Stages: driver.SCompute, Nr: 0, Len: 1},
	}
	pl, heap, table, err := newComputePipeline(ctx, f, colorCorrectionSPV, 48, descs)
	if err != nil {
		return nil, fmt.Errorf("pipeline: stage3: %w", err)
	}
	heap.SetImage(0, 0, []driver.ImageView{rgbaView})

	return &stageResources{
		pipeline: pl,
		table:    table,
		output:   StageOutput{Views: input.Views},
	}, nil
}

func (s *stage3) dispatch(cb driver.CmdBuffer, res *stageResources, wg [3]int) {
	cb.SetPipeline(res.pipeline)
	m := s.colorCorrectionTransform
	var data []byte
	data = appendF32(data, m[0])
	data = appendF32(data, m[1])
	data = appendF32(data, m[2])
	data = appendF32(data, 0) // row 0 padding
	data = appendF32(data, m[3])
	data = appendF32(data, m[4])
	data = appendF32(data, m[5])
	data = appendF32(data, 0) // row 1 padding
	data = appendF32(data, m[6])
	data = appendF32(data, m[7])
	data = appendF32(data, m[8])
	data = appendF32(data, 0) // row 2 padding
	cb.SetConstants(res.pipeline, data)
	cb.SetDescTable(res.table, []int{0})
	cb.Dispatch(wg[0], wg[1], wg[2])
}
