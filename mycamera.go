// Package mycamera exposes the raw-to-RGBA GPU pipeline at the
// granularity a host embedding actually calls it at: init once per
// process, process once per captured frame, fini once at shutdown.
// It is the Go-native analogue of the reference native bindings
// (`nativeInit`/`nativeProcess`/`nativeFini`); marshaling frame data
// across any further foreign-function boundary is the embedder's job
// (spec.md §1 Non-goals).
package mycamera

import (
	"fmt"
	"log"
	"sync"

	"github.com/crydafan/MyCamera/pipeline"
)

var logOnce sync.Once

// Context is the process-lifetime handle returned by Init and passed
// to every Process/Fini call.
type Context = pipeline.Context

// Init constructs the process-lifetime Context: the first time it's
// called it installs the process's logging configuration, then it
// opens a compute-capable driver. A driver-load failure is
// fatal at init, per spec.md §7.
func Init() (*Context, error) {
	logOnce.Do(func() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	})
	ctx, err := pipeline.NewContext()
	if err != nil {
		return nil, fmt.Errorf("mycamera: init: %w", err)
	}
	return ctx, nil
}

// Fini destroys the Context. ctx is invalid for any further call
// after Fini returns.
func Fini(ctx *Context) {
	ctx.Close()
}

// Process runs the full pipeline for one frame and writes
// 4 * Width * Height bytes into params.Out. A panic anywhere in the
// pipeline is caught here, logged with its recovered value, and
// converted into an error return: this is the boundary the reference
// binding's installed panic hook exists to provide, since unwinding
// across a host embedding boundary is undefined (spec.md §9 "Panic
// boundary").
func Process(ctx *Context, params pipeline.FrameParams) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("mycamera: recovered panic in Process: %v", r)
			err = fmt.Errorf("mycamera: recovered panic: %v", r)
		}
	}()

	f := pipeline.NewFinish()
	defer f.Close()

	if err := f.Run(ctx, &params); err != nil {
		log.Printf("mycamera: frame failed: %v", err)
		return err
	}

	out := f.Output()
	want := 4 * params.Width * params.Height
	n := copy(params.Out[:want], out.Bytes())
	if n < want {
		return fmt.Errorf("mycamera: short readback: got %d bytes, want %d", n, want)
	}
	return nil
}
