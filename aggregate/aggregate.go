/*
DESCRIPTION
  aggregate.go provides summarising of per frame HOOF features over a whole
  clip or a sliding window of frames.

AUTHORS
  Scott Barnard <scott@ausocean.org>
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package aggregate summarises sequences of hoof.FeatureSets into feature
// vectors.
package aggregate

import (
	"errors"
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/hoof/hoof"
	"github.com/ausocean/hoof/nanstat"
)

const pkg = "aggregate: "

// Errors returned by Summarize.
var (
	ErrEmpty    = errors.New("no feature sets to summarise")
	ErrMismatch = errors.New("feature sets differ in shape")
)

// Vector is the summary of a run of consecutive FeatureSets.
type Vector struct {
	XCells, YCells, Bins int

	// Hist holds the mean histogram per cell, ordered (x, y, bin).
	Hist []float64

	// Edges holds the histogram bin edges.
	Edges []float64

	// Mag holds the mean magnitude per cell, min-max normalised across cells.
	Mag []float64

	// Variance holds, per cell, the sum over bins of each bin's variance over
	// time, min-max normalised across cells.
	Variance []float64

	// Frames is the number of feature sets summarised.
	Frames int
}

// Flatten returns the concatenation of Hist, Mag and Variance.
func (v *Vector) Flatten() []float64 {
	f := make([]float64, 0, len(v.Hist)+len(v.Mag)+len(v.Variance))
	f = append(f, v.Hist...)
	f = append(f, v.Mag...)
	return append(f, v.Variance...)
}

// Len returns the length of a flattened vector for the given shape.
func Len(xCells, yCells, bins int) int {
	return xCells*yCells*bins + 2*xCells*yCells
}

// Summarize returns the summary of sets. All sets must share a shape.
func Summarize(sets []*hoof.FeatureSet) (*Vector, error) {
	if len(sets) == 0 {
		return nil, ErrEmpty
	}
	first := sets[0]
	cells := first.XCells * first.YCells
	for i, s := range sets {
		if s.XCells != first.XCells || s.YCells != first.YCells || s.Bins != first.Bins ||
			len(s.Hist) != cells*first.Bins || len(s.Mag) != cells {
			return nil, fmt.Errorf("%w: set %d", ErrMismatch, i)
		}
	}

	v := &Vector{
		XCells:   first.XCells,
		YCells:   first.YCells,
		Bins:     first.Bins,
		Hist:     make([]float64, cells*first.Bins),
		Edges:    append([]float64(nil), first.Edges...),
		Mag:      make([]float64, cells),
		Variance: make([]float64, cells),
		Frames:   len(sets),
	}

	series := make([]float64, len(sets))
	for c := 0; c < cells; c++ {
		for b := 0; b < first.Bins; b++ {
			k := c*first.Bins + b
			for t, s := range sets {
				series[t] = s.Hist[k]
			}
			v.Hist[k] = nanstat.Mean(series)

			// A NaN bin variance makes the cell's variance NaN.
			v.Variance[c] += nanstat.Var(series)
		}

		for t, s := range sets {
			series[t] = s.Mag[c]
		}
		v.Mag[c] = nanstat.Mean(series)
	}

	nanstat.MinMax(v.Mag)
	nanstat.MinMax(v.Variance)
	return v, nil
}

// Aggregator produces Vectors from a hoof.Source. With a window of zero a
// single Vector summarises the whole source. With a window of W, one Vector
// is produced for each run of W consecutive sets, so N sets give N-W+1
// Vectors, or none if N < W.
type Aggregator struct {
	src    hoof.Source
	window int
	buf    []*hoof.FeatureSet
	done   bool
	log    logging.Logger
}

// New returns an Aggregator over src.
func New(src hoof.Source, window int, log logging.Logger) (*Aggregator, error) {
	if window < 0 {
		return nil, fmt.Errorf("invalid window: %d", window)
	}
	return &Aggregator{src: src, window: window, log: log}, nil
}

// Next returns the next Vector, or io.EOF once the source is exhausted.
func (a *Aggregator) Next() (*Vector, error) {
	if a.done {
		return nil, io.EOF
	}
	if a.window == 0 {
		return a.whole()
	}
	return a.slide()
}

// whole consumes the entire source and summarises it.
func (a *Aggregator) whole() (*Vector, error) {
	for {
		s, err := a.src.Next()
		if err == io.EOF {
			a.done = true
			if len(a.buf) == 0 {
				a.debug("source empty")
				return nil, io.EOF
			}
			n := len(a.buf)
			v, err := Summarize(a.buf)
			a.buf = nil
			a.debug("summarised clip", "frames", n)
			return v, err
		}
		if err != nil {
			return nil, err
		}
		a.buf = append(a.buf, s)
	}
}

// slide reads sets until a full window can be emitted. The buffer is
// summarised before the incoming set is added, and once more when the source
// ends.
func (a *Aggregator) slide() (*Vector, error) {
	for {
		s, err := a.src.Next()
		if err == io.EOF {
			a.done = true
			if len(a.buf) < a.window {
				return nil, io.EOF
			}
			v, err := Summarize(a.buf)
			a.buf = nil
			a.debug("summarised final window")
			return v, err
		}
		if err != nil {
			return nil, err
		}

		if len(a.buf) < a.window {
			a.buf = append(a.buf, s)
			continue
		}

		v, err := Summarize(a.buf)
		copy(a.buf, a.buf[1:])
		a.buf[len(a.buf)-1] = s
		return v, err
	}
}

func (a *Aggregator) debug(msg string, args ...interface{}) {
	if a.log != nil {
		a.log.Debug(pkg+msg, args...)
	}
}
