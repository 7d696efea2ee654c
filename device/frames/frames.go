/*
DESCRIPTION
  frames.go provides an implementation of the FrameSource interface for a
  directory of still images.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package frames provides an implementation of FrameSource for directories
// of still images, read in file name order.
package frames

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/hoof/config"
	"github.com/ausocean/hoof/device"
)

const pkg = "frames: "

// Extensions of files considered frames.
var extensions = map[string]bool{
	".bmp":  true,
	".gif":  true,
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// Frames is an implementation of the FrameSource interface for a directory
// of images. Files are read in lexical order of their names and files with
// unknown extensions are ignored.
type Frames struct {
	dir       string
	width     uint
	files     []string
	peek      *image.Gray
	isRunning bool
	set       bool
	log       logging.Logger
	mu        sync.Mutex
}

// New returns a new Frames.
func New(l logging.Logger) *Frames { return &Frames{log: l} }

// NewWith returns a new Frames with required params provided i.e. the Set
// method does not need to be called.
func NewWith(l logging.Logger, dir string, width uint) *Frames {
	return &Frames{log: l, dir: dir, width: width, set: true}
}

// Name returns the name of the device.
func (f *Frames) Name() string { return "Frames" }

// Set uses the InputPath and FrameWidth fields of c.
func (f *Frames) Set(c config.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.InputPath == "" {
		return device.MultiError{errors.New("no frame directory provided")}
	}
	f.dir = c.InputPath
	f.width = c.FrameWidth
	f.set = true
	return nil
}

// Start lists the frames of the directory. It is an error for the directory
// to hold no frames.
func (f *Frames) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.set {
		return errors.New("Frames has not been set with config")
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("could not read frame directory: %w", err)
	}
	f.files = f.files[:0]
	for _, e := range entries {
		if e.IsDir() || !extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		f.files = append(f.files, filepath.Join(f.dir, e.Name()))
	}
	if len(f.files) == 0 {
		return fmt.Errorf("no frames in %s", f.dir)
	}
	sort.Strings(f.files)

	f.log.Debug(pkg+"started", "dir", f.dir, "frames", len(f.files))
	f.peek = nil
	f.isRunning = true
	return nil
}

// Stop discards any unread frames.
func (f *Frames) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = nil
	f.peek = nil
	f.isRunning = false
	return nil
}

// IsRunning is used to determine if the Frames device is running.
func (f *Frames) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isRunning
}

// Dims returns the size of the first unread frame after scaling.
func (f *Frames) Dims() (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.peek == nil {
		g, err := f.next()
		if err != nil {
			return 0, 0, err
		}
		f.peek = g
	}
	b := f.peek.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Next decodes and returns the next frame.
func (f *Frames) Next() (*image.Gray, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.peek != nil {
		g := f.peek
		f.peek = nil
		return g, nil
	}
	return f.next()
}

func (f *Frames) next() (*image.Gray, error) {
	if !f.isRunning {
		return nil, device.ErrNotRunning
	}
	if len(f.files) == 0 {
		return nil, io.EOF
	}
	name := f.files[0]
	f.files = f.files[1:]

	r, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("could not open frame: %w", err)
	}
	defer r.Close()

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode frame %s: %w", filepath.Base(name), err)
	}
	return device.Scale(device.Gray(img), f.width), nil
}
