/*
DESCRIPTION
  hoofplot.go provides rendering of HOOF feature vectors as a grid of rose
  plots, one per cell.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package hoofplot draws feature vectors for inspection.
package hoofplot

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/hoof/aggregate"
)

// Default image size used by Save.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

// Largest rose radius as a fraction of a cell.
const maxRadius = 0.45

var (
	roseColor = color.RGBA{R: 31, G: 119, B: 180, A: 160}
	gridColor = color.Gray{Y: 180}
)

// Render returns a plot of v with the histogram of each cell drawn as a rose
// centred in the cell. The rose extends in the flow direction of each bin
// by an amount proportional to the bin's value, scaled so that the largest
// bin of the vector fills the cell. Rows are drawn top down as in the image.
func Render(v *aggregate.Vector, title string) (*plot.Plot, error) {
	if len(v.Hist) != v.XCells*v.YCells*v.Bins || len(v.Edges) != v.Bins+1 {
		return nil, fmt.Errorf("inconsistent vector: %d values for %dx%d cells of %d bins", len(v.Hist), v.XCells, v.YCells, v.Bins)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Min, p.X.Max = 0, float64(v.XCells)
	p.Y.Min, p.Y.Max = 0, float64(v.YCells)
	p.HideAxes()

	if err := addGrid(p, v.XCells, v.YCells); err != nil {
		return nil, err
	}

	var peak float64
	for _, h := range v.Hist {
		if !math.IsNaN(h) {
			peak = math.Max(peak, h)
		}
	}

	for i := 0; i < v.XCells; i++ {
		for j := 0; j < v.YCells; j++ {
			k := (i*v.YCells + j) * v.Bins
			rose, err := plotter.NewPolygon(roseXYs(v.Hist[k:k+v.Bins], v.Edges, peak, float64(i)+0.5, float64(v.YCells-j)-0.5))
			if err != nil {
				return nil, fmt.Errorf("could not draw cell (%d, %d): %w", i, j, err)
			}
			rose.Color = roseColor
			rose.LineStyle.Width = vg.Points(0.5)
			p.Add(rose)
		}
	}
	return p, nil
}

// Save renders v and writes it to path in the format given by the file
// extension, e.g. png or svg.
func Save(v *aggregate.Vector, title, path string, w, h vg.Length) error {
	p, err := Render(v, title)
	if err != nil {
		return err
	}
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("could not save plot: %w", err)
	}
	return nil
}

// roseXYs returns the vertices of a rose with one vertex per bin, placed at
// the bin's mid angle. Angles are atan2(dx, dy) with dy pointing down the
// image, so an angle θ points along (sin θ, -cos θ) in plot space.
func roseXYs(hist, edges []float64, peak, cx, cy float64) plotter.XYs {
	xys := make(plotter.XYs, len(hist))
	for b, h := range hist {
		var r float64
		if peak > 0 && !math.IsNaN(h) {
			r = maxRadius * h / peak
		}
		theta := (edges[b] + edges[b+1]) / 2
		xys[b].X = cx + r*math.Sin(theta)
		xys[b].Y = cy - r*math.Cos(theta)
	}
	return xys
}

// addGrid draws the cell boundaries.
func addGrid(p *plot.Plot, xCells, yCells int) error {
	add := func(x0, y0, x1, y1 float64) error {
		l, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y1}})
		if err != nil {
			return fmt.Errorf("could not draw grid: %w", err)
		}
		l.Color = gridColor
		l.Width = vg.Points(0.5)
		p.Add(l)
		return nil
	}
	for i := 0; i <= xCells; i++ {
		if err := add(float64(i), 0, float64(i), float64(yCells)); err != nil {
			return err
		}
	}
	for j := 0; j <= yCells; j++ {
		if err := add(0, float64(j), float64(xCells), float64(j)); err != nil {
			return err
		}
	}
	return nil
}
