/*
DESCRIPTION
  nanstat.go provides reductions that ignore NaN elements, and min-max
  normalisation over NaN containing data.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package nanstat provides NaN-aware statistics. Each reduction ignores NaN
// elements and returns NaN only when no valid element remains.
package nanstat

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Valid returns the non-NaN elements of x. The returned slice shares no
// memory with x.
func Valid(x []float64) []float64 {
	v := make([]float64, 0, len(x))
	for _, e := range x {
		if !math.IsNaN(e) {
			v = append(v, e)
		}
	}
	return v
}

// Mean returns the mean of the non-NaN elements of x.
func Mean(x []float64) float64 {
	v := Valid(x)
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// Var returns the population variance of the non-NaN elements of x.
func Var(x []float64) float64 {
	v := Valid(x)
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.PopVariance(v, nil)
}

// Min returns the smallest non-NaN element of x.
func Min(x []float64) float64 {
	v := Valid(x)
	if len(v) == 0 {
		return math.NaN()
	}
	return floats.Min(v)
}

// Max returns the largest non-NaN element of x.
func Max(x []float64) float64 {
	v := Valid(x)
	if len(v) == 0 {
		return math.NaN()
	}
	return floats.Max(v)
}

// MinMax rescales x in place so that its smallest valid element becomes 0
// and its largest 1. NaN elements stay NaN. If every valid element is equal,
// or there are none, every element becomes NaN.
func MinMax(x []float64) {
	lo, hi := Min(x), Max(x)
	span := hi - lo
	if math.IsNaN(span) || span == 0 {
		for i := range x {
			x[i] = math.NaN()
		}
		return
	}
	for i := range x {
		x[i] = (x[i] - lo) / span
	}
}
