package pipeline

import (
	_ "embed"
	"fmt"

	"github.com/crydafan/MyCamera/driver"
)

// Embedded SPIR-V binaries, one per compute stage, loaded at
// provisioning time; each stage names the "main" entry point of its
// module. The shader source itself is out of scope (spec.md §1). The
// files under shaders/ hold only a 20-byte SPIR-V header: they contain
// no code and define no entry point.

//go:embed shaders/shiftbayer.spv
var shiftBayerSPV []byte

//go:embed shaders/normalize.spv
var normalizeSPV []byte

//go:embed shaders/demosaic.spv
var demosaicSPV []byte

//go:embed shaders/colorcorrection.spv
var colorCorrectionSPV []byte

//go:embed shaders/gammacorrection.spv
var gammaCorrectionSPV []byte

//go:embed shaders/quantize.spv
var quantizeSPV []byte

// ErrShaderLoad indicates an embedded SPIR-V module could not be
// turned into a driver.ShaderCode. Per spec.md §7 this is fatal to the
// frame and indicates a build error, not a caller mistake.
var ErrShaderLoad = fmt.Errorf("pipeline: shader module load failed")

// loadShaderFunc creates a driver.ShaderFunc for the "main" entry
// point of the given embedded SPIR-V module.
func loadShaderFunc(gpu driver.GPU, spv []byte) (driver.ShaderFunc, error) {
	code, err := gpu.NewShaderCode(spv)
	if err != nil {
		return driver.ShaderFunc{}, fmt.Errorf("%w: %v", ErrShaderLoad, err)
	}
	return driver.ShaderFunc{Code: code, Name: "main"}, nil
}
