/*
DESCRIPTION
  hoof.go provides extraction of per cell histograms of oriented optical flow
  (HOOF) and mean flow magnitudes from dense flow fields.

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

// Package hoof computes per cell histograms of oriented optical flow.
//
// Every pixel of a cell contributes its flow orientation atan2(dx, dy) to a
// histogram over [-π, π], weighted by its flow magnitude. Note the argument
// order: orientation is measured from the vertical axis.
package hoof

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ausocean/hoof/flow"
	"github.com/ausocean/hoof/grid"
	"github.com/ausocean/hoof/nanstat"
)

// ErrFieldSize is returned when a field does not match the extractor grid.
var ErrFieldSize = errors.New("field size does not match grid")

// FeatureSet holds the features of one flow field.
type FeatureSet struct {
	XCells, YCells, Bins int

	// Hist holds Bins values per cell, ordered (x, y, bin).
	Hist []float64

	// Edges holds the Bins+1 histogram bin edges.
	Edges []float64

	// Mag holds the mean flow magnitude per cell, ordered (x, y).
	Mag []float64
}

// Cell returns the histogram of cell (i, j). The result shares memory with
// s.Hist.
func (s *FeatureSet) Cell(i, j int) []float64 {
	n := (i*s.YCells + j) * s.Bins
	return s.Hist[n : n+s.Bins]
}

// Extractor computes FeatureSets for fields of a fixed size.
type Extractor struct {
	grid    grid.Grid
	bins    int
	density bool
	edges   []float64
}

// NewExtractor returns an Extractor for fields tiled by g with the given
// number of histogram bins. If density is true histograms are normalised so
// that they integrate to one over [-π, π].
func NewExtractor(g grid.Grid, bins int, density bool) (*Extractor, error) {
	if bins < 1 {
		return nil, fmt.Errorf("invalid bin count: %d", bins)
	}
	if g.XCells <= 0 || g.YCells <= 0 {
		return nil, fmt.Errorf("%w: %v", grid.ErrNotTiled, g)
	}
	return &Extractor{grid: g, bins: bins, density: density, edges: BinEdges(bins)}, nil
}

// Grid returns the grid the extractor was built for.
func (e *Extractor) Grid() grid.Grid { return e.grid }

// Edges returns a copy of the bin edges.
func (e *Extractor) Edges() []float64 { return append([]float64(nil), e.edges...) }

// Extract returns the features of f.
func (e *Extractor) Extract(f *flow.Field) (*FeatureSet, error) {
	if f == nil || f.Width != e.grid.Width || f.Height != e.grid.Height {
		return nil, fmt.Errorf("%w: want %dx%d", ErrFieldSize, e.grid.Width, e.grid.Height)
	}
	if len(f.Vec) != 2*f.Width*f.Height {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrFieldSize, len(f.Vec), f.Width, f.Height)
	}

	s := &FeatureSet{
		XCells: e.grid.XCells,
		YCells: e.grid.YCells,
		Bins:   e.bins,
		Hist:   make([]float64, e.grid.Cells()*e.bins),
		Edges:  append([]float64(nil), e.edges...),
		Mag:    make([]float64, e.grid.Cells()),
	}

	n := e.grid.CellWidth() * e.grid.CellHeight()
	theta := make([]float64, n)
	mag := make([]float64, n)
	for i := 0; i < e.grid.XCells; i++ {
		for j := 0; j < e.grid.YCells; j++ {
			r := e.grid.Cell(i, j)
			k := 0
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					dx, dy := f.At(x, y)
					theta[k] = math.Atan2(float64(dx), float64(dy))
					mag[k] = math.Sqrt(float64(dx)*float64(dx) + float64(dy)*float64(dy))
					k++
				}
			}
			Histogram(s.Cell(i, j), theta, mag, e.edges, e.density)
			s.Mag[e.grid.Index(i, j)] = nanstat.Mean(mag)
		}
	}
	return s, nil
}

// BinEdges returns bins+1 equally spaced edges spanning [-π, π].
func BinEdges(bins int) []float64 {
	edges := floats.Span(make([]float64, bins+1), -math.Pi, math.Pi)
	edges[bins] = math.Pi
	return edges
}

// Histogram accumulates the weights of samples into dst, one value per bin of
// the equally spaced edges. Bins are half open except the last, which also
// holds samples equal to the upper edge. Samples outside the edges, or with
// a NaN sample or weight, are skipped. If density is true dst is scaled so
// that its integral over the edges is one; a zero total weight then gives NaN
// in every bin.
func Histogram(dst, samples, weights, edges []float64, density bool) {
	bins := len(edges) - 1
	lo, hi := edges[0], edges[bins]
	norm := float64(bins) / (hi - lo)
	for i := range dst {
		dst[i] = 0
	}

	for i, v := range samples {
		w := weights[i]
		if math.IsNaN(w) || !(v >= lo && v <= hi) {
			continue
		}

		// Compute the index directly then correct for rounding against the
		// actual edges.
		k := int((v - lo) * norm)
		if k == bins {
			k--
		}
		if v < edges[k] {
			k--
		}
		if v >= edges[k+1] && k != bins-1 {
			k++
		}
		dst[k] += w
	}

	if !density {
		return
	}
	total := floats.Sum(dst)
	for i := range dst {
		dst[i] /= total * (edges[i+1] - edges[i])
	}
}

// Source is an ordered, single pass source of FeatureSets. Next returns
// io.EOF once no sets remain.
type Source interface {
	Next() (*FeatureSet, error)
}

// Stream extracts a FeatureSet from every field of a flow source.
type Stream struct {
	src flow.Source
	ex  *Extractor
}

// NewStream returns a Stream extracting features from the fields of src.
func NewStream(src flow.Source, ex *Extractor) *Stream {
	return &Stream{src: src, ex: ex}
}

// Next implements Source.
func (s *Stream) Next() (*FeatureSet, error) {
	f, err := s.src.Next()
	if err != nil {
		return nil, err
	}
	return s.ex.Extract(f)
}
