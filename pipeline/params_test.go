package pipeline

import "testing"

func TestCFAShiftVector(t *testing.T) {
	cases := []struct {
		cfa  CFA
		want [2]int32
	}{
		{RGGB, [2]int32{0, 0}},
		{GRBG, [2]int32{1, 0}},
		{GBRG, [2]int32{0, 1}},
		{BGGR, [2]int32{1, 1}},
		{CFA(99), [2]int32{0, 0}}, // unknown falls back to RGGB
	}
	for _, c := range cases {
		if got := c.cfa.shiftVector(); got != c.want {
			t.Errorf("CFA(%d).shiftVector() = %v, want %v", c.cfa, got, c.want)
		}
	}
}

func TestFrameParamsValidate(t *testing.T) {
	good := FrameParams{
		Width:  4,
		Height: 4,
		Raw:    make([]byte, 2*4*4),
		Out:    make([]byte, 4*4*4),
	}
	if err := good.validate(); err != nil {
		t.Errorf("validate: unexpected error for well-formed params: %v", err)
	}

	cases := []FrameParams{
		{Width: 0, Height: 4, Raw: make([]byte, 32), Out: make([]byte, 64)},
		{Width: 4, Height: -1, Raw: make([]byte, 32), Out: make([]byte, 64)},
		{Width: 4, Height: 4, Raw: make([]byte, 10), Out: make([]byte, 64)},
		{Width: 4, Height: 4, Raw: make([]byte, 32), Out: make([]byte, 10)},
	}
	for i, c := range cases {
		if err := c.validate(); err != ErrBadParams {
			t.Errorf("case %d: validate() = %v, want ErrBadParams", i, err)
		}
	}
}

func TestWorkGroupRounding(t *testing.T) {
	cases := []struct{ n, want int }{
		{8, 1},
		{9, 2},
		{640, 80},
		{480, 60},
		{1920, 240},
		{1080, 135},
		{4032, 504},
		{3024, 378},
	}
	for _, c := range cases {
		if got := (c.n + 7) / 8; got != c.want {
			t.Errorf("(%d+7)/8 = %d, want %d", c.n, got, c.want)
		}
	}
}
