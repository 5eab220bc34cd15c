//go:build hwtest

package mycamera

import (
	"encoding/binary"
	"testing"

	"github.com/crydafan/MyCamera/pipeline"
)

// TestInitProcessFini exercises the full init/process/fini surface
// spec.md §6 describes over three consecutive Init/Process/Fini
// cycles, checking that every Init and Process call succeeds (Process
// itself returns an error if fewer than 4*width*height bytes were read
// back). It does not measure device-memory usage across cycles.
func TestInitProcessFini(t *testing.T) {
	for i := 0; i < 3; i++ {
		ctx, err := Init()
		if err != nil {
			t.Fatalf("Init: %v", err)
		}

		const w, h = 32, 32
		raw := make([]byte, 2*w*h)
		for px := 0; px < w*h; px++ {
			binary.LittleEndian.PutUint16(raw[px*2:], 512)
		}
		out := make([]byte, 4*w*h)

		params := pipeline.FrameParams{
			Width:                    w,
			Height:                   h,
			CFA:                      pipeline.RGGB,
			WhiteLevel:               1023,
			BlackLevel:               [4]int32{0, 0, 0, 0},
			ColorGains:               [4]float32{1, 1, 1, 1},
			ColorCorrectionTransform: [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1},
			Raw:                      raw,
			Out:                      out,
		}
		if err := Process(ctx, params); err != nil {
			t.Fatalf("Process: %v", err)
		}

		Fini(ctx)
	}
}
