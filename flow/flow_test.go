/*
DESCRIPTION
  flow_test.go provides testing for flow streams and the pure Go estimators.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package flow

import (
	"errors"
	"image"
	"image/color"
	"io"
	"math"
	"testing"

	"github.com/ausocean/hoof/config"
)

// texture returns a smooth w by h frame shifted right by dx pixels.
func texture(w, h int, dx float64) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 128 + 50*math.Sin(0.3*(float64(x)-dx)) + 50*math.Sin(0.35*float64(y))
			g.SetGray(x, y, color.Gray{Y: uint8(math.Round(math.Max(0, math.Min(255, v))))})
		}
	}
	return g
}

type frameSlice struct {
	frames []*image.Gray
}

func (f *frameSlice) Next() (*image.Gray, error) {
	if len(f.frames) == 0 {
		return nil, io.EOF
	}
	g := f.frames[0]
	f.frames = f.frames[1:]
	return g, nil
}

// zeroEstimator returns a zero field of the frame size.
type zeroEstimator struct{}

func (zeroEstimator) Estimate(prev, curr *image.Gray) (*Field, error) {
	return NewField(prev.Bounds().Dx(), prev.Bounds().Dy()), nil
}
func (zeroEstimator) Close() error { return nil }

func TestStream(t *testing.T) {
	tests := []struct {
		frames int
		want   int
	}{
		{frames: 0, want: 0},
		{frames: 1, want: 0},
		{frames: 2, want: 1},
		{frames: 7, want: 6},
	}

	for i, test := range tests {
		src := &frameSlice{}
		for n := 0; n < test.frames; n++ {
			src.frames = append(src.frames, texture(8, 8, float64(n)))
		}
		frames := append([]*image.Gray(nil), src.frames...)

		s := NewStream(src, zeroEstimator{})
		var got int
		for {
			f, err := s.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("did not expect error: %v", err)
			}
			if f.Prev != frames[got] || f.Curr != frames[got+1] {
				t.Errorf("field %d of test %d does not reference its frame pair", got, i)
			}
			got++
		}
		if got != test.want {
			t.Errorf("did not get expected number of fields for test %d\nGot: %v\nWant: %v\n", i, got, test.want)
		}
	}
}

func TestLimitAndSliceSource(t *testing.T) {
	fields := []*Field{NewField(1, 1), NewField(1, 1), NewField(1, 1)}

	for _, test := range []struct{ n, want int }{{0, 3}, {-1, 3}, {2, 2}, {5, 3}} {
		src := Limit(NewSliceSource(fields), test.n)
		var got int
		for {
			_, err := src.Next()
			if err == io.EOF {
				break
			}
			got++
		}
		if got != test.want {
			t.Errorf("limit %d: got %d fields, want %d", test.n, got, test.want)
		}
	}
}

func TestFieldAccess(t *testing.T) {
	f := NewField(3, 2)
	f.Set(2, 1, 1.5, -2)
	dx, dy := f.At(2, 1)
	if dx != 1.5 || dy != -2 {
		t.Errorf("did not get expected displacement, got: (%v, %v)", dx, dy)
	}
	if f.Vec[2*(1*3+2)] != 1.5 {
		t.Error("displacement not stored row-major interleaved")
	}
}

func TestEstimatorsStatic(t *testing.T) {
	c := config.Config{HSAlpha: 100, HSIterations: 20, LKWindow: 7}
	g := texture(16, 12, 0)
	for _, est := range []Estimator{NewHornSchunck(c), NewLucasKanade(c)} {
		f, err := est.Estimate(g, g)
		if err != nil {
			t.Fatalf("did not expect error: %v", err)
		}
		if f.Width != 16 || f.Height != 12 {
			t.Fatalf("unexpected field size %dx%d", f.Width, f.Height)
		}
		for i, v := range f.Vec {
			if v != 0 {
				t.Fatalf("%T: expected zero flow for identical frames, got %v at %d", est, v, i)
			}
		}
	}
}

func TestEstimatorsShift(t *testing.T) {
	const w, h = 48, 40
	c := config.Config{HSAlpha: 100, HSIterations: 200, LKWindow: 9}
	prev, curr := texture(w, h, 0), texture(w, h, 1)

	mean := func(f *Field) (mx, my float64) {
		var n int
		for y := 5; y < h-5; y++ {
			for x := 5; x < w-5; x++ {
				dx, dy := f.At(x, y)
				mx += float64(dx)
				my += float64(dy)
				n++
			}
		}
		return mx / float64(n), my / float64(n)
	}

	lk, err := NewLucasKanade(c).Estimate(prev, curr)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	mx, my := mean(lk)
	if mx < 0.7 || mx > 1.3 || math.Abs(my) > 0.2 {
		t.Errorf("lucas-kanade: unexpected mean flow (%v, %v) for unit shift", mx, my)
	}

	hs, err := NewHornSchunck(c).Estimate(prev, curr)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	mx, _ = mean(hs)
	if mx <= 0 {
		t.Errorf("horn-schunck: expected positive horizontal flow, got %v", mx)
	}
}

func TestEstimateBadFrames(t *testing.T) {
	est := NewLucasKanade(config.Config{LKWindow: 3})
	_, err := est.Estimate(texture(4, 4, 0), texture(5, 4, 0))
	if err == nil {
		t.Error("expected error for mismatched frames")
	}
	_, err = est.Estimate(nil, texture(4, 4, 0))
	if err == nil {
		t.Error("expected error for nil frame")
	}
}

func TestFarnebackWithoutCV(t *testing.T) {
	_, err := NewFarneback(config.Config{})
	if err != nil && !errors.Is(err, ErrNoOpenCV) {
		t.Errorf("unexpected error: %v", err)
	}
}
