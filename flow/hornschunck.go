/*
DESCRIPTION
  hornschunck.go provides a pure Go dense flow estimator using the global
  method of Horn & Schunck, solved with Jacobi iterations.

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
	"image"

	"github.com/ausocean/hoof/config"
)

// Indices of the spatio-temporal derivatives in a derivative triple.
const (
	fx = iota
	fy
	ft
)

// HornSchunck is a dense flow estimator that minimises brightness constancy
// error plus a smoothness term weighted by Alpha.
type HornSchunck struct {
	alpha      float32
	iterations int
}

// NewHornSchunck returns a HornSchunck estimator using the HSAlpha and
// HSIterations fields of c. c is expected to be validated.
func NewHornSchunck(c config.Config) *HornSchunck {
	return &HornSchunck{alpha: float32(c.HSAlpha), iterations: int(c.HSIterations)}
}

// Close implements Estimator.
func (h *HornSchunck) Close() error { return nil }

// Estimate implements Estimator.
func (h *HornSchunck) Estimate(prev, curr *image.Gray) (*Field, error) {
	err := checkFrames(prev, curr)
	if err != nil {
		return nil, err
	}

	w, ht := prev.Bounds().Dx(), prev.Bounds().Dy()
	d := derivatives(grayFloats(prev), grayFloats(curr), w, ht)

	uv := NewField(w, ht)
	old := NewField(w, ht)
	for k := 0; k < h.iterations; k++ {
		h.step(d, old, uv)
		copy(old.Vec, uv.Vec)
	}
	return uv, nil
}

// step performs one Jacobi iteration, reading the previous estimate from old
// and writing the new estimate to uv.
func (h *HornSchunck) step(d []float32, old, uv *Field) {
	help := 1 / h.alpha
	w, ht := uv.Width, uv.Height
	for j := 0; j < ht; j++ {
		for i := 0; i < w; i++ {
			var nn int
			var uSum, vSum float32
			if i > 0 {
				nn++
				u, v := old.At(i-1, j)
				uSum += u
				vSum += v
			}
			if i < w-1 {
				nn++
				u, v := old.At(i+1, j)
				uSum += u
				vSum += v
			}
			if j > 0 {
				nn++
				u, v := old.At(i, j-1)
				uSum += u
				vSum += v
			}
			if j < ht-1 {
				nn++
				u, v := old.At(i, j+1)
				uSum += u
				vSum += v
			}

			n := 3 * (j*w + i)
			dx, dy, dt := d[n+fx], d[n+fy], d[n+ft]
			u, v := old.At(i, j)
			uSum -= help * dx * (dy*v + dt)
			uSum /= float32(nn) + help*dx*dx
			vSum -= help * dy * (dx*u + dt)
			vSum /= float32(nn) + help*dy*dy
			uv.Set(i, j, uSum, vSum)
		}
	}
}

// derivatives returns interleaved (fx, fy, ft) triples for every pixel.
// Spatial derivatives are central differences averaged over both frames with
// mirrored boundaries; the temporal derivative is the frame difference.
func derivatives(f1, f2 []float32, w, h int) []float32 {
	d := make([]float32, 3*w*h)
	at := func(f []float32, x, y int) float32 {
		return f[clamp(y, h)*w+clamp(x, w)]
	}
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			n := 3 * (j*w + i)
			d[n+fx] = (at(f1, i+1, j) - at(f1, i-1, j) + at(f2, i+1, j) - at(f2, i-1, j)) / 4
			d[n+fy] = (at(f1, i, j+1) - at(f1, i, j-1) + at(f2, i, j+1) - at(f2, i, j-1)) / 4
			d[n+ft] = at(f2, i, j) - at(f1, i, j)
		}
	}
	return d
}

// grayFloats returns the pixels of g as row-major float32 values in [0, 255].
func grayFloats(g *image.Gray) []float32 {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	f := make([]float32, w*h)
	for y := 0; y < h; y++ {
		row := g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			f[y*w+x] = float32(row[x])
		}
	}
	return f
}

// clamp mirrors out of range index i back into [0, n).
func clamp(i, n int) int {
	switch {
	case n == 1:
		return 0
	case i < 0:
		return -i
	case i >= n:
		return 2*n - i - 2
	}
	return i
}
