/*
DESCRIPTION
  impute.go provides replacement of undefined feature values.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package classify

import (
	"math"

	"github.com/ausocean/hoof/nanstat"
)

// Imputer replaces NaN features with the mean of that feature over a
// training set.
type Imputer struct {
	Means []float64
}

// FitImputer returns an Imputer for x, whose rows must share a length.
// Features that are NaN throughout x are replaced with zero.
func FitImputer(x [][]float64) (*Imputer, error) {
	d, err := dims(x)
	if err != nil {
		return nil, err
	}
	im := &Imputer{Means: make([]float64, d)}
	col := make([]float64, len(x))
	for j := range im.Means {
		for i, row := range x {
			col[i] = row[j]
		}
		m := nanstat.Mean(col)
		if math.IsNaN(m) {
			m = 0
		}
		im.Means[j] = m
	}
	return im, nil
}

// Transform returns a copy of v with NaN features replaced.
func (im *Imputer) Transform(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, e := range v {
		if math.IsNaN(e) {
			e = im.Means[i]
		}
		out[i] = e
	}
	return out
}
