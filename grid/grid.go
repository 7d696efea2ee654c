/*
DESCRIPTION
  grid.go provides partitioning of a frame into an exactly tiling grid of
  equal rectangular cells, and selection of grid dimensions close to a
  requested guess.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package grid divides a frame into an X by Y grid of equal sized cells.
package grid

import (
	"errors"
	"fmt"
	"image"
)

var (
	ErrBadDims  = errors.New("frame dimensions must be positive")
	ErrNotTiled = errors.New("cell counts do not exactly divide frame dimensions")
)

// Grid is a partition of a Width by Height frame into XCells by YCells
// equal cells. A Grid obtained from New or Fit always tiles the frame exactly.
type Grid struct {
	Width, Height  int
	XCells, YCells int
}

// New returns a Grid for the given frame and cell counts. An error wrapping
// ErrNotTiled is returned if the counts do not exactly divide the frame.
func New(width, height, xCells, yCells int) (Grid, error) {
	if width <= 0 || height <= 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d", ErrBadDims, width, height)
	}
	if xCells <= 0 || yCells <= 0 || width%xCells != 0 || height%yCells != 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d cells for %dx%d frame", ErrNotTiled, xCells, yCells, width, height)
	}
	return Grid{Width: width, Height: height, XCells: xCells, YCells: yCells}, nil
}

// Fit returns the Grid for the frame whose cell counts are the closest to the
// guesses that exactly tile the frame.
func Fit(width, height, xGuess, yGuess int) (Grid, error) {
	x, y, err := FitCells(width, height, xGuess, yGuess)
	if err != nil {
		return Grid{}, err
	}
	return New(width, height, x, y)
}

// FitCells chooses cell counts for a width by height frame. Each count is the
// divisor of the corresponding dimension closest to its guess, with the
// smaller divisor chosen on a tie.
func FitCells(width, height, xGuess, yGuess int) (xCells, yCells int, err error) {
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrBadDims, width, height)
	}
	return closestDivisor(width, xGuess), closestDivisor(height, yGuess), nil
}

// closestDivisor returns the divisor of n closest to g. Divisors are visited
// in increasing order and only a strictly closer divisor replaces the best, so
// the smaller divisor wins ties. n must be positive.
func closestDivisor(n, g int) int {
	best := 1
	for k := 2; k <= n; k++ {
		if n%k == 0 && abs(k-g) < abs(best-g) {
			best = k
		}
	}
	return best
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// CellWidth returns the width of a cell in pixels.
func (g Grid) CellWidth() int { return g.Width / g.XCells }

// CellHeight returns the height of a cell in pixels.
func (g Grid) CellHeight() int { return g.Height / g.YCells }

// Cells returns the number of cells in the grid.
func (g Grid) Cells() int { return g.XCells * g.YCells }

// Cell returns the pixel bounds of cell (i, j), where i indexes columns of
// cells and j rows of cells.
func (g Grid) Cell(i, j int) image.Rectangle {
	w, h := g.CellWidth(), g.CellHeight()
	return image.Rect(i*w, j*h, (i+1)*w, (j+1)*h)
}

// Index returns the flat index of cell (i, j). Cells are ordered x-major,
// i.e. all rows of cell column 0 first.
func (g Grid) Index(i, j int) int { return i*g.YCells + j }

// String implements fmt.Stringer.
func (g Grid) String() string {
	return fmt.Sprintf("%dx%d cells over %dx%d", g.XCells, g.YCells, g.Width, g.Height)
}
