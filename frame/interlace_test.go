package frame

import (
	"testing"

	"github.com/gogpu/playout/pixfmt"
)

func filled(w, h int, v byte) *Frame {
	f := New(pixfmt.NewPacked(pixfmt.BGRA, w, h), w, h)
	for i := range f.planes[0] {
		f.planes[0][i] = v
	}
	return f
}

func TestInterlace(t *testing.T) {
	tests := []struct {
		mode     FieldMode
		evenWant byte
		oddWant  byte
	}{
		{Upper, 1, 2},
		{Lower, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			a, b := filled(4, 6, 1), filled(4, 6, 2)
			out := Interlace(a, b, tt.mode)
			if out == a || out == b {
				t.Fatal("Interlace returned an input frame")
			}
			if !out.Interlaced() {
				t.Error("output not marked interlaced")
			}
			if out.TopFieldFirst() != (tt.mode == Upper) {
				t.Errorf("TopFieldFirst = %v", out.TopFieldFirst())
			}
			stride := 4 * 4
			for y := range 6 {
				want := tt.evenWant
				if y%2 == 1 {
					want = tt.oddWant
				}
				if got := out.Plane(0)[y*stride]; got != want {
					t.Errorf("row %d = %d, want %d", y, got, want)
				}
			}
		})
	}
}

func TestInterlaceDegenerate(t *testing.T) {
	a, b := filled(2, 2, 1), filled(2, 2, 2)
	if Interlace(a, b, Progressive) != a {
		t.Error("Progressive should return the first frame")
	}
	if Interlace(a, nil, Upper) != a {
		t.Error("nil second frame should return the first")
	}
	if Interlace(nil, b, Upper) != b {
		t.Error("nil first frame should return the second")
	}
	c := filled(4, 4, 3)
	if Interlace(a, c, Upper) != a {
		t.Error("mismatched layouts should return the first frame")
	}
}
