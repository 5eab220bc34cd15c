package pipeline

import (
	"encoding/binary"
	"math"
)

// appendI32 and appendF32 append the little-endian bytes of a single
// push-constant field. Every stage's Constants layout in the original
// source is a flat, tightly packed struct of these two field kinds
// (std430-style, no implicit padding beyond what each stage lays out
// by hand for row alignment), so building the byte slice field by
// field keeps the layout visible at the call site instead of hidden
// behind a struct tag or reflection-based encoder.
func appendI32(b []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(v))
}

func appendF32(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}
