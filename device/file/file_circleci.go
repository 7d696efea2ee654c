//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the OpenCV video source when Circle-CI builds hoof. This is needed
  because Circle-CI does not have a copy of Open CV installed.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package file

import (
	"errors"
	"image"

	"github.com/ausocean/hoof/config"
	"github.com/ausocean/hoof/device"
	"github.com/ausocean/utils/logging"
)

// Video is unable to decode frames without OpenCV; Start always fails.
type Video struct {
	path  string
	width uint
	log   logging.Logger
}

// New returns a new Video.
func New(l logging.Logger) *Video { return &Video{log: l} }

// NewWith returns a new Video with required params provided.
func NewWith(l logging.Logger, path string, width uint) *Video {
	return &Video{log: l, path: path, width: width}
}

// Name returns the name of the device.
func (v *Video) Name() string { return "File" }

// Set uses the InputPath and FrameWidth fields of c.
func (v *Video) Set(c config.Config) error {
	if c.InputPath == "" {
		return device.MultiError{errors.New("no video file provided")}
	}
	v.path, v.width = c.InputPath, c.FrameWidth
	return nil
}

// Start returns ErrNoOpenCV.
func (v *Video) Start() error {
	v.log.Warning(pkg+"cannot decode video without OpenCV", "path", v.path)
	return ErrNoOpenCV
}

// Stop is a no-op.
func (v *Video) Stop() error { return nil }

// IsRunning always returns false.
func (v *Video) IsRunning() bool { return false }

// Dims returns device.ErrNotRunning.
func (v *Video) Dims() (int, int, error) { return 0, 0, device.ErrNotRunning }

// Next returns device.ErrNotRunning.
func (v *Video) Next() (*image.Gray, error) { return nil, device.ErrNotRunning }
