/*
DESCRIPTION
  dims.go provides functionality shared by video sources regardless of
  decoder availability.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package file provides an implementation of FrameSource for video files.
package file

import (
	"errors"
	"fmt"
)

const pkg = "file: "

// ErrNoOpenCV is returned when video decoding is requested from a binary
// built without the withcv tag.
var ErrNoOpenCV = errors.New("video decoding requires OpenCV (withcv tag)")

// scaledDims returns the size of a w by h frame scaled to width, matching
// device.Scale. A width of zero keeps the native size.
func scaledDims(w, h int, width uint) (int, int, error) {
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid frame dimensions %dx%d", w, h)
	}
	if width == 0 || int(width) == w {
		return w, h, nil
	}
	scale := float64(w) / float64(width)
	return int(width), int(0.7 + float64(h)/scale), nil
}
