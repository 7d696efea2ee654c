/*
DESCRIPTION
  device.go provides FrameSource, an interface that describes a configurable
  source of grayscale video frames that can be started and stopped.

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

// Package device provides an interface and implementations for frame sources
// that can be started and stopped from which grayscale frames can be obtained.
package device

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"sync"

	"github.com/nfnt/resize"

	"github.com/ausocean/hoof/config"
)

// ErrNotRunning is returned by Next when the source has not been started.
var ErrNotRunning = errors.New("frame source not running")

// FrameSource describes a configurable source of grayscale frames. Frames are
// produced in order and Next returns io.EOF once the input is exhausted.
type FrameSource interface {
	// Name returns the name of the FrameSource.
	Name() string

	// Set allows for configuration of the FrameSource using a Config struct.
	// An implementation should specify what fields are considered.
	Set(c config.Config) error

	// Start opens the input, after which Next may be called.
	Start() error

	// Stop releases the input. From this point calls to Next fail.
	Stop() error

	// IsRunning is used to determine if the source is running.
	IsRunning() bool

	// Dims returns the size of the frames produced. It may only be called
	// once the source is running.
	Dims() (w, h int, err error)

	// Next returns the next frame.
	Next() (*image.Gray, error)
}

// MultiError implements the built in error interface. MultiError is used here
// to collect multiple errors during validation of configuration parameters for
// FrameSources.
type MultiError []error

func (me MultiError) Error() string {
	if len(me) == 0 {
		panic("device: invalid use of MultiError")
	}
	return fmt.Sprintf("%v", []error(me))
}

// Gray returns img as a grayscale image with bounds starting at the origin.
// If img is already such an image it is returned unchanged.
func Gray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

// Scale returns g resized to width pixels wide, preserving its aspect ratio.
// A width of 0, or the width of g, returns g unchanged.
func Scale(g *image.Gray, width uint) *image.Gray {
	if width == 0 || int(width) == g.Bounds().Dx() {
		return g
	}
	return Gray(resize.Resize(width, 0, g, resize.Bilinear))
}

// ManualInput is an implementation of FrameSource whose frames are supplied
// through software with Write, rather than read from a device or file. Once
// the written frames are exhausted Next returns io.EOF.
type ManualInput struct {
	mu        sync.Mutex
	frames    []*image.Gray
	isRunning bool
}

// NewManualInput provides a new ManualInput holding frames.
func NewManualInput(frames ...*image.Gray) *ManualInput {
	return &ManualInput{frames: frames}
}

// Name returns the name of ManualInput i.e. "ManualInput".
func (m *ManualInput) Name() string { return "ManualInput" }

// Set is a stub to satisfy the FrameSource interface; no configuration fields
// are required by ManualInput.
func (m *ManualInput) Set(c config.Config) error { return nil }

// Start sets the ManualInput isRunning flag to true.
func (m *ManualInput) Start() error {
	m.mu.Lock()
	m.isRunning = true
	m.mu.Unlock()
	return nil
}

// Stop sets the isRunning flag to false.
func (m *ManualInput) Stop() error {
	m.mu.Lock()
	m.isRunning = false
	m.mu.Unlock()
	return nil
}

// IsRunning returns the value of the isRunning flag to indicate if Start has
// been called (and Stop has not been called after).
func (m *ManualInput) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}

// Write appends frames to the input.
func (m *ManualInput) Write(frames ...*image.Gray) {
	m.mu.Lock()
	m.frames = append(m.frames, frames...)
	m.mu.Unlock()
}

// Dims returns the size of the next frame.
func (m *ManualInput) Dims() (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return 0, 0, errors.New("no frames to size")
	}
	b := m.frames[0].Bounds()
	return b.Dx(), b.Dy(), nil
}

// Next returns the oldest unread frame.
func (m *ManualInput) Next() (*image.Gray, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isRunning {
		return nil, ErrNotRunning
	}
	if len(m.frames) == 0 {
		return nil, io.EOF
	}
	g := m.frames[0]
	m.frames = m.frames[1:]
	return g, nil
}
