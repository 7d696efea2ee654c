//go:build withcv
// +build withcv

/*
DESCRIPTION
  file.go provides an implementation of the FrameSource interface for video
  files decoded with OpenCV.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
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
	"fmt"
	"image"
	"io"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/hoof/config"
	"github.com/ausocean/hoof/device"
	"github.com/ausocean/utils/logging"
)

// Video is an implementation of the FrameSource interface for a video file.
type Video struct {
	vc        *gocv.VideoCapture
	img       gocv.Mat
	gray      gocv.Mat
	path      string
	width     uint
	isRunning bool
	log       logging.Logger
	set       bool
	mu        sync.Mutex
}

// New returns a new Video.
func New(l logging.Logger) *Video { return &Video{log: l} }

// NewWith returns a new Video with required params provided i.e. the Set
// method does not need to be called.
func NewWith(l logging.Logger, path string, width uint) *Video {
	return &Video{log: l, path: path, width: width, set: true}
}

// Name returns the name of the device.
func (v *Video) Name() string { return "File" }

// Set uses the InputPath and FrameWidth fields of c.
func (v *Video) Set(c config.Config) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if c.InputPath == "" {
		return device.MultiError{errors.New("no video file provided")}
	}
	v.path = c.InputPath
	v.width = c.FrameWidth
	v.set = true
	return nil
}

// Start opens the video file at the location of the InputPath field of the
// config struct.
func (v *Video) Start() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.set {
		return errors.New("Video has not been set with config")
	}

	vc, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return fmt.Errorf("could not open video file: %w", err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("could not open video file: %s", v.path)
	}
	v.vc = vc
	v.img = gocv.NewMat()
	v.gray = gocv.NewMat()
	v.isRunning = true
	v.log.Debug(pkg+"started", "path", v.path, "frames", vc.Get(gocv.VideoCaptureFrameCount))
	return nil
}

// Stop closes the video such that any further calls to Next fail.
func (v *Video) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.isRunning {
		return nil
	}
	v.isRunning = false
	v.img.Close()
	v.gray.Close()
	err := v.vc.Close()
	v.vc = nil
	if err != nil {
		return fmt.Errorf("could not close video capture: %w", err)
	}
	return nil
}

// IsRunning is used to determine if the Video device is running.
func (v *Video) IsRunning() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vc != nil && v.isRunning
}

// Dims returns the size of frames after scaling.
func (v *Video) Dims() (int, int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.isRunning {
		return 0, 0, device.ErrNotRunning
	}
	w := int(v.vc.Get(gocv.VideoCaptureFrameWidth))
	h := int(v.vc.Get(gocv.VideoCaptureFrameHeight))
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid video dimensions %dx%d", w, h)
	}
	return scaledDims(w, h, v.width)
}

// Next decodes the next frame and converts it to grayscale.
func (v *Video) Next() (*image.Gray, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.isRunning {
		return nil, device.ErrNotRunning
	}
	if !v.vc.Read(&v.img) || v.img.Empty() {
		return nil, io.EOF
	}

	if v.img.Channels() == 1 {
		v.img.CopyTo(&v.gray)
	} else {
		gocv.CvtColor(v.img, &v.gray, gocv.ColorBGRToGray)
	}
	img, err := v.gray.ToImage()
	if err != nil {
		return nil, fmt.Errorf("could not convert frame: %w", err)
	}
	return device.Scale(device.Gray(img), v.width), nil
}
