package pipeline

import (
	"fmt"

	"github.com/crydafan/MyCamera/driver"
)

// StageOutput is the bundle a stage hands to its successor: the image
// views it produced (order is stage-defined; downstream stages pick
// the index their contract calls for), and, for the terminal stage
// only, the buffers and pre-recorded command buffers needed for the
// final readback.
type StageOutput struct {
	Views   []driver.ImageView
	Buffers []driver.Buffer
	Cmds    []driver.CmdBuffer
}

// stageResources is what a stage's provisioning step produces: a
// compute pipeline and bound descriptor table ready for recording,
// plus the output bundle to hand to the next stage.
type stageResources struct {
	pipeline driver.Pipeline
	table    driver.DescTable
	output   StageOutput
}

// stage is the capability every pipeline stage implements: provision
// its GPU resources against the Context and the prior stage's output,
// then record its dispatch onto a shared command buffer. A stage
// knows nothing about scheduling or submission; Finish owns that.
type stage interface {
	provision(ctx *Context, f *Finish, input *StageOutput) (*stageResources, error)
	dispatch(cb driver.CmdBuffer, res *stageResources, wg [3]int)
}

// ErrBadParams indicates a caller-parameter violation (spec.md §7):
// a null or undersized raw buffer, an undersized out region, or a
// non-positive extent.
var ErrBadParams = fmt.Errorf("pipeline: invalid frame parameters")

// newComputePipeline builds a driver.Pipeline plus its backing
// descriptor heap and table from a single set of descriptors, all
// tracked on f for cleanup when the frame is done. It always
// allocates exactly one heap copy, since nothing in this pipeline
// reuses a heap across multiple bound instances within a frame.
func newComputePipeline(ctx *Context, f *Finish, spv []byte, constSize int, descs []driver.Descriptor) (driver.Pipeline, driver.DescHeap, driver.DescTable, error) {
	gpu := ctx.GPU()

	fn, err := loadShaderFunc(gpu, spv)
	if err != nil {
		return nil, nil, nil, err
	}
	f.track(fn.Code)

	heap, err := gpu.NewDescHeap(descs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pipeline: new desc heap: %w", err)
	}
	f.track(heap)
	if err := heap.New(1); err != nil {
		return nil, nil, nil, fmt.Errorf("pipeline: alloc desc heap: %w", err)
	}

	table, err := gpu.NewDescTable([]driver.DescHeap{heap})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pipeline: new desc table: %w", err)
	}
	f.track(table)

	pl, err := gpu.NewPipeline(&driver.CompState{Func: fn, Desc: table, ConstntSize: constSize})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pipeline: new compute pipeline: %w", err)
	}
	f.track(pl)

	return pl, heap, table, nil
}

// newStorageImage creates a 2D storage image of the given format and
// usage, tracked on f, and returns a view onto it, also tracked. Every
// image this pipeline creates lives in the general layout for its
// entire lifetime (there are no sampled-image or presentation uses
// that would call for anything else), so newStorageImage performs that
// one transition here, once, rather than making every stage remember
// to do it before its first read or write.
func newStorageImage(ctx *Context, f *Finish, pf driver.PixelFmt, extent driver.Dim3D, usg driver.Usage) (driver.Image, driver.ImageView, error) {
	img, err := ctx.GPU().NewImage(pf, extent, usg)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: new image: %w", err)
	}
	f.track(img)
	if err := transitionToGeneral(ctx, f, img); err != nil {
		return nil, nil, err
	}
	view, err := img.NewView()
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: new image view: %w", err)
	}
	f.track(view)
	return img, view, nil
}

// transitionToGeneral moves a freshly created image out of the
// undefined layout vk.NewImage leaves it in and into the general
// layout, via a one-shot command buffer fenced before this call
// returns. It must run before the image is bound into any descriptor
// table or named in a copy command, both of which assume the image is
// already in the general layout.
func transitionToGeneral(ctx *Context, f *Finish, img driver.Image) error {
	cb, err := ctx.GPU().NewCmdBuffer()
	if err != nil {
		return fmt.Errorf("pipeline: transition command buffer: %w", err)
	}
	f.track(cb)
	if err := cb.Begin(); err != nil {
		return fmt.Errorf("pipeline: begin transition: %w", err)
	}
	cb.Transition([]driver.Transition{{
		Barrier: driver.Barrier{
			SyncBefore:   driver.SNone,
			SyncAfter:    driver.SComputeShading | driver.SCopy,
			AccessBefore: driver.ANone,
			AccessAfter:  driver.AShaderRead | driver.AShaderWrite | driver.ACopyRead | driver.ACopyWrite,
		},
		LayoutBefore: driver.LUndefined,
		LayoutAfter:  driver.LShaderStore,
		Img:          img,
	}})
	if err := cb.End(); err != nil {
		return fmt.Errorf("pipeline: end transition: %w", err)
	}
	return runOnce(ctx, cb)
}

// runOnce records nothing itself; it submits a single already-ended
// command buffer, waits for its fence, and reports any execution
// error. It is used for every submission that falls outside the main
// command stream: each new image's layout transition, Stage 0's
// upload, and Stage 5's readback.
func runOnce(ctx *Context, cb driver.CmdBuffer) error {
	wk := &driver.WorkItem{Work: []driver.CmdBuffer{cb}}
	ch := make(chan *driver.WorkItem, 1)
	if err := ctx.GPU().Commit(wk, ch); err != nil {
		return err
	}
	done := <-ch
	return done.Err
}

// betweenStages inserts a global barrier ordering one stage's storage
// writes before the next stage's storage reads. Every image involved
// is already in the general layout by the time it reaches its first
// dispatch (newStorageImage transitions it there once, at creation),
// so no further layout change is needed between stages: a plain memory
// barrier is enough.
func betweenStages(cb driver.CmdBuffer) {
	cb.Barrier([]driver.Barrier{{
		SyncBefore:   driver.SComputeShading,
		SyncAfter:    driver.SComputeShading,
		AccessBefore: driver.AShaderWrite,
		AccessAfter:  driver.AShaderRead | driver.AShaderWrite,
	}})
}
