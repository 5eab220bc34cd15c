package pipeline

import (
	"fmt"

	"github.com/crydafan/MyCamera/driver"
)

// stage4 applies the display-space transfer function to each RGB
// channel in place, preserving alpha. The gamma curve is a shader
// constant; this stage has no push constants at all. Grounded on
// finish.rs's Stage4, which is an empty struct for the same reason.
type stage4 struct{}

func (s *stage4) provision(ctx *Context, f *Finish, input *StageOutput) (*stageResources, error) {
	rgbaView := input.Views[0]

	descs := []driver.Descriptor{
		{Type: driver.DImage, Stages: driver.SCompute, Nr: 0, Len: 1},
	}
	pl, heap, table, err := newComputePipeline(ctx, f, gammaCorrectionSPV, 0, descs)
	if err != nil {
		return nil, fmt.Errorf("pipeline: stage4: %w", err)
	}
	heap.SetImage(0, 0, []driver.ImageView{rgbaView})

	return &stageResources{
		pipeline: pl,
		table:    table,
		output:   StageOutput{Views: input.Views},
	}, nil
}

func (s *stage4) dispatch(cb driver.CmdBuffer, res *stageResources, wg [3]int) {
	cb.SetPipeline(res.pipeline)
	cb.SetDescTable(res.table, []int{0})
	cb.Dispatch(wg[0], wg[1], wg[2])
}
