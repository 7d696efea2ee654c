//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces estimators that use the gocv package when Circle-CI builds hoof.
  This is needed because Circle-CI does not have a copy of Open CV installed.

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

// Farneback is unavailable without OpenCV.
type Farneback struct{}

// NewFarneback returns ErrNoOpenCV.
func NewFarneback(c config.Config) (*Farneback, error) { return nil, ErrNoOpenCV }

// Close implements Estimator.
func (f *Farneback) Close() error { return nil }

// Estimate returns ErrNoOpenCV.
func (f *Farneback) Estimate(prev, curr *image.Gray) (*Field, error) { return nil, ErrNoOpenCV }
