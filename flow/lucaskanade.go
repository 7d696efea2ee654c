/*
DESCRIPTION
  lucaskanade.go provides a pure Go dense flow estimator that solves the
  Lucas-Kanade least squares system in a square window around every pixel.

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

// Determinants below this are treated as singular and yield zero flow.
const lkMinDet = 1e-6

// LucasKanade is a dense flow estimator that assumes constant flow within a
// square window around each pixel.
type LucasKanade struct {
	radius int
}

// NewLucasKanade returns a LucasKanade estimator with a window of LKWindow
// pixels per side. Even windows are widened by one pixel.
func NewLucasKanade(c config.Config) *LucasKanade {
	return &LucasKanade{radius: int(c.LKWindow) / 2}
}

// Close implements Estimator.
func (l *LucasKanade) Close() error { return nil }

// Estimate implements Estimator.
func (l *LucasKanade) Estimate(prev, curr *image.Gray) (*Field, error) {
	err := checkFrames(prev, curr)
	if err != nil {
		return nil, err
	}

	w, h := prev.Bounds().Dx(), prev.Bounds().Dy()
	d := derivatives(grayFloats(prev), grayFloats(curr), w, h)

	// Summed area tables of the structure tensor and mismatch terms.
	xx := newSAT(w, h)
	xy := newSAT(w, h)
	yy := newSAT(w, h)
	xt := newSAT(w, h)
	yt := newSAT(w, h)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			n := 3 * (j*w + i)
			dx, dy, dt := float64(d[n+fx]), float64(d[n+fy]), float64(d[n+ft])
			xx.add(i, j, dx*dx)
			xy.add(i, j, dx*dy)
			yy.add(i, j, dy*dy)
			xt.add(i, j, dx*dt)
			yt.add(i, j, dy*dt)
		}
	}

	f := NewField(w, h)
	r := l.radius
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			x0, y0 := max(i-r, 0), max(j-r, 0)
			x1, y1 := min(i+r+1, w), min(j+r+1, h)
			a, b, c := xx.sum(x0, y0, x1, y1), xy.sum(x0, y0, x1, y1), yy.sum(x0, y0, x1, y1)
			p, q := xt.sum(x0, y0, x1, y1), yt.sum(x0, y0, x1, y1)

			det := a*c - b*b
			if det < lkMinDet {
				continue
			}
			u := (-c*p + b*q) / det
			v := (b*p - a*q) / det
			f.Set(i, j, float32(u), float32(v))
		}
	}
	return f, nil
}

// sat is a summed area table with a zero row and column prepended.
type sat struct {
	w int
	s []float64
}

func newSAT(w, h int) *sat { return &sat{w: w + 1, s: make([]float64, (w+1)*(h+1))} }

// add accumulates v at (x, y). Calls must be made in row-major order.
func (t *sat) add(x, y int, v float64) {
	i := (y+1)*t.w + x + 1
	t.s[i] = v + t.s[i-1] + t.s[i-t.w] - t.s[i-t.w-1]
}

// sum returns the total over [x0, x1) x [y0, y1).
func (t *sat) sum(x0, y0, x1, y1 int) float64 {
	return t.s[y1*t.w+x1] - t.s[y0*t.w+x1] - t.s[y1*t.w+x0] + t.s[y0*t.w+x0]
}
