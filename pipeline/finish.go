package pipeline

import (
	"fmt"

	"github.com/crydafan/MyCamera/driver"
)

// Finish is the per-frame pipeline driver: it instantiates the six
// stages against one set of frame parameters, threads each stage's
// output into the next stage's input, records and submits one main
// command buffer, then runs the terminal stage's readback. Grounded
// on finish.rs's `Finish` struct and `finish` method (spec.md §4.9).
//
// Every resource a frame creates — images, views, pipelines,
// descriptor heaps and tables, shader modules, command buffers, the
// readback buffer — is tracked here and released by Close. None of it
// is reused across frames, matching spec.md §5's "created fresh each
// call and destroyed when the driver object is dropped".
type Finish struct {
	resources []driver.Destroyer
	output    driver.Buffer
}

// NewFinish returns a Finish ready for a single Run call.
func NewFinish() *Finish { return &Finish{} }

func (f *Finish) track(d driver.Destroyer) { f.resources = append(f.resources, d) }

// Run executes the full pipeline for one frame: spec.md §4.9 steps
// 1-7. On success, f.Output holds the staging buffer the caller
// should read and copy into its own output region; Close must be
// called once that copy is done.
func (f *Finish) Run(ctx *Context, p *FrameParams) error {
	if err := p.validate(); err != nil {
		return err
	}
	extent := driver.Dim3D{Width: p.Width, Height: p.Height, Depth: 1}

	stages := []stage{
		&stage0{cfa: p.CFA, raw: p.Raw, extent: extent},
		&stage1{
			colorGains: p.ColorGains,
			blackLevel: p.BlackLevel,
			whiteLevel: p.WhiteLevel,
			extent:     extent,
		},
		&stage2{extent: extent},
		&stage3{
			colorCorrectionTransform: p.ColorCorrectionTransform,
			forwardMatrix1:           p.ForwardMatrix1,
			forwardMatrix2:           p.ForwardMatrix2,
			neutralPoint:             p.NeutralPoint,
		},
		&stage4{},
		&stage5{extent: extent},
	}

	cb, err := ctx.GPU().NewCmdBuffer()
	if err != nil {
		return fmt.Errorf("pipeline: main command buffer: %w", err)
	}
	f.track(cb)
	if err := cb.Begin(); err != nil {
		return fmt.Errorf("pipeline: begin main command buffer: %w", err)
	}

	// Rounding up: covers every output pixel with 8x8 work-groups.
	wg := [3]int{(p.Width + 7) / 8, (p.Height + 7) / 8, 1}

	var prevOutput *StageOutput
	var terminal *stageResources
	for i, st := range stages {
		res, err := st.provision(ctx, f, prevOutput)
		if err != nil {
			return fmt.Errorf("pipeline: stage %d resources: %w", i, err)
		}
		st.dispatch(cb, res, wg)
		if i < len(stages)-1 {
			betweenStages(cb)
		}
		out := res.output
		prevOutput = &out
		terminal = res
	}

	if err := cb.End(); err != nil {
		return fmt.Errorf("pipeline: end main command buffer: %w", err)
	}
	if err := runOnce(ctx, cb); err != nil {
		return fmt.Errorf("pipeline: main submission: %w", err)
	}

	if len(terminal.output.Cmds) == 0 || len(terminal.output.Buffers) == 0 {
		return fmt.Errorf("pipeline: terminal stage produced no readback resources")
	}
	if err := runOnce(ctx, terminal.output.Cmds[0]); err != nil {
		return fmt.Errorf("pipeline: readback submission: %w", err)
	}

	f.output = terminal.output.Buffers[0]
	return nil
}

// Output returns the host-visible staging buffer holding the
// quantized RGBA8 result, valid only after a successful Run and
// before Close.
func (f *Finish) Output() driver.Buffer { return f.output }

// Close releases every resource this frame created, in reverse
// creation order. The Finish must not be used afterward.
func (f *Finish) Close() {
	for i := len(f.resources) - 1; i >= 0; i-- {
		f.resources[i].Destroy()
	}
	f.resources = nil
	f.output = nil
}
