//go:build withcv
// +build withcv

/*
DESCRIPTION
  farneback.go provides a dense flow estimator using OpenCV's implementation
  of Gunnar Farneback's polynomial expansion algorithm.

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
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ausocean/hoof/config"
)

// Farneback is a dense flow estimator backed by gocv.
type Farneback struct {
	pyrScale   float64
	levels     int
	winSize    int
	iterations int
	polyN      int
	polySigma  float64
}

// NewFarneback returns a Farneback estimator configured from the Farneback
// fields of c. c is expected to be validated.
func NewFarneback(c config.Config) (*Farneback, error) {
	return &Farneback{
		pyrScale:   c.FarnebackPyrScale,
		levels:     int(c.FarnebackLevels),
		winSize:    int(c.FarnebackWinSize),
		iterations: int(c.FarnebackIterations),
		polyN:      int(c.FarnebackPolyN),
		polySigma:  c.FarnebackPolySigma,
	}, nil
}

// Close implements Estimator.
func (f *Farneback) Close() error { return nil }

// Estimate implements Estimator.
func (f *Farneback) Estimate(prev, curr *image.Gray) (*Field, error) {
	err := checkFrames(prev, curr)
	if err != nil {
		return nil, err
	}

	p, err := gocv.ImageGrayToMatGray(prev)
	if err != nil {
		return nil, fmt.Errorf("could not convert previous frame: %w", err)
	}
	defer p.Close()

	c, err := gocv.ImageGrayToMatGray(curr)
	if err != nil {
		return nil, fmt.Errorf("could not convert current frame: %w", err)
	}
	defer c.Close()

	m := gocv.NewMat()
	defer m.Close()

	gocv.CalcOpticalFlowFarneback(p, c, &m, f.pyrScale, f.levels, f.winSize, f.iterations, f.polyN, f.polySigma, 0)

	vec, err := m.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("could not access flow data: %w", err)
	}

	fld := NewField(m.Cols(), m.Rows())
	if len(vec) != len(fld.Vec) {
		return nil, fmt.Errorf("unexpected flow size: %d values for %dx%d", len(vec), m.Cols(), m.Rows())
	}
	copy(fld.Vec, vec)
	return fld, nil
}
