/*
DESCRIPTION
  flow.go provides the Field type that holds a dense optical flow field, the
  Estimator interface for dense flow algorithms and streams that produce
  fields from consecutive frame pairs.

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

// Package flow provides dense optical flow fields and the estimators and
// streams that produce them.
package flow

import (
	"errors"
	"fmt"
	"image"
	"io"
)

// ErrNoOpenCV is returned by estimators that need OpenCV when the binary was
// built without the withcv tag.
var ErrNoOpenCV = errors.New("built without OpenCV support (withcv tag)")

// Field is the dense displacement field between two consecutive frames.
// Vec holds one interleaved (dx, dy) pair per pixel in row-major order, so
// its logical shape is (Height, Width, 2). A Field is not modified once
// produced.
type Field struct {
	Width, Height int
	Vec           []float32

	Curr, Prev *image.Gray // Frames the field was computed from, may be nil.
}

// NewField returns a zero displacement field of the given size.
func NewField(w, h int) *Field {
	return &Field{Width: w, Height: h, Vec: make([]float32, 2*w*h)}
}

// At returns the displacement at pixel (x, y).
func (f *Field) At(x, y int) (dx, dy float32) {
	i := 2 * (y*f.Width + x)
	return f.Vec[i], f.Vec[i+1]
}

// Set sets the displacement at pixel (x, y).
func (f *Field) Set(x, y int, dx, dy float32) {
	i := 2 * (y*f.Width + x)
	f.Vec[i], f.Vec[i+1] = dx, dy
}

// Bounds returns the rectangle covered by the field.
func (f *Field) Bounds() image.Rectangle { return image.Rect(0, 0, f.Width, f.Height) }

// Estimator is the interface for dense optical flow algorithms.
type Estimator interface {
	// Estimate returns the displacement of every pixel of prev in curr. The
	// frames must have equal bounds.
	Estimate(prev, curr *image.Gray) (*Field, error)
	Close() error
}

// Frames is an ordered source of grayscale frames. Next returns io.EOF once
// no frames remain.
type Frames interface {
	Next() (*image.Gray, error)
}

// Source is an ordered, single pass source of flow fields. Next returns
// io.EOF once no fields remain.
type Source interface {
	Next() (*Field, error)
}

// Stream produces one field per consecutive pair of frames, so a source of n
// frames yields n-1 fields.
type Stream struct {
	frames Frames
	est    Estimator
	prev   *image.Gray
}

// NewStream returns a Stream pulling frames from src and estimating flow with
// est.
func NewStream(src Frames, est Estimator) *Stream {
	return &Stream{frames: src, est: est}
}

// Next pulls the next frame and returns its flow from the previous frame.
func (s *Stream) Next() (*Field, error) {
	if s.prev == nil {
		f, err := s.frames.Next()
		if err != nil {
			return nil, err
		}
		s.prev = f
	}

	curr, err := s.frames.Next()
	if err != nil {
		return nil, err
	}

	f, err := s.est.Estimate(s.prev, curr)
	if err != nil {
		return nil, fmt.Errorf("could not estimate flow: %w", err)
	}
	f.Prev, f.Curr = s.prev, curr
	s.prev = curr
	return f, nil
}

// SliceSource replays a slice of previously computed fields.
type SliceSource struct {
	fields []*Field
	i      int
}

// NewSliceSource returns a SliceSource over fields.
func NewSliceSource(fields []*Field) *SliceSource { return &SliceSource{fields: fields} }

// Next implements Source.
func (s *SliceSource) Next() (*Field, error) {
	if s.i >= len(s.fields) {
		return nil, io.EOF
	}
	f := s.fields[s.i]
	s.i++
	return f, nil
}

// Limit returns a Source that ends after n fields of src. A non-positive n
// means no limit.
func Limit(src Source, n int) Source {
	if n <= 0 {
		return src
	}
	return &limited{src: src, n: n}
}

type limited struct {
	src Source
	n   int
}

func (l *limited) Next() (*Field, error) {
	if l.n <= 0 {
		return nil, io.EOF
	}
	l.n--
	return l.src.Next()
}

// checkFrames returns an error if prev and curr cannot be compared.
func checkFrames(prev, curr *image.Gray) error {
	if prev == nil || curr == nil {
		return errors.New("nil frame")
	}
	if !prev.Bounds().Eq(curr.Bounds()) {
		return fmt.Errorf("frame bounds differ: %v and %v", prev.Bounds(), curr.Bounds())
	}
	if prev.Bounds().Empty() {
		return errors.New("empty frame")
	}
	return nil
}
