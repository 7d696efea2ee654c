/*
DESCRIPTION
  pipeline.go provides Pipeline, which ties together frame sources, flow
  estimation, HOOF extraction, aggregation and artifact caching.

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

// Package pipeline computes HOOF feature vectors for videos.
package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/hoof/aggregate"
	"github.com/ausocean/hoof/cache"
	"github.com/ausocean/hoof/config"
	"github.com/ausocean/hoof/device"
	"github.com/ausocean/hoof/device/file"
	"github.com/ausocean/hoof/device/frames"
	"github.com/ausocean/hoof/flow"
	"github.com/ausocean/hoof/grid"
	"github.com/ausocean/hoof/hoof"
)

const pkg = "pipeline: "

// ErrNoFeatures is returned when a clip has too few frames to produce a
// feature vector.
var ErrNoFeatures = errors.New("clip produced no features")

// SourceFunc returns an unstarted FrameSource for the input described by c.
type SourceFunc func(c config.Config) (device.FrameSource, error)

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithCache sets the artifact cache, overriding the cache described by the
// config.
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) error {
		p.cache = c
		return nil
	}
}

// WithSource sets the function used to create frame sources.
func WithSource(fn SourceFunc) Option {
	return func(p *Pipeline) error {
		p.newSource = fn
		return nil
	}
}

// WithEstimator sets the flow estimator, overriding the estimator described
// by the config.
func WithEstimator(e flow.Estimator) Option {
	return func(p *Pipeline) error {
		p.est = e
		return nil
	}
}

// Pipeline produces feature vectors for clips. A Pipeline is not safe for
// concurrent use.
type Pipeline struct {
	cfg       config.Config
	cache     cache.Cache
	newSource SourceFunc
	est       flow.Estimator
	log       logging.Logger
}

// New returns a Pipeline for the validated form of c.
func New(c config.Config, opts ...Option) (*Pipeline, error) {
	if c.Logger == nil {
		return nil, errors.New("no logger in config")
	}
	err := c.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p := &Pipeline{cfg: c, log: c.Logger, newSource: NewSource}
	for i, opt := range opts {
		err = opt(p)
		if err != nil {
			return nil, fmt.Errorf("could not apply option %d: %w", i, err)
		}
	}

	if p.cache == nil {
		p.cache, err = cache.Open(c)
		if err != nil {
			return nil, fmt.Errorf("could not open cache: %w", err)
		}
	}
	if p.est == nil {
		p.est, err = NewEstimator(c)
		if err != nil {
			return nil, fmt.Errorf("could not create estimator: %w", err)
		}
	}
	return p, nil
}

// Config returns the validated config of the pipeline.
func (p *Pipeline) Config() config.Config { return p.cfg }

// Close releases the estimator and cache.
func (p *Pipeline) Close() error {
	var errs device.MultiError
	err := p.est.Close()
	if err != nil {
		errs = append(errs, fmt.Errorf("could not close estimator: %w", err))
	}
	err = p.cache.Close()
	if err != nil {
		errs = append(errs, fmt.Errorf("could not close cache: %w", err))
	}
	if len(errs) != 0 {
		return errs
	}
	return nil
}

// NewSource returns the FrameSource selected by the Input field of c, set
// with c.
func NewSource(c config.Config) (device.FrameSource, error) {
	var src device.FrameSource
	switch c.Input {
	case config.InputFile:
		src = file.New(c.Logger)
	case config.InputFrames:
		src = frames.New(c.Logger)
	default:
		return nil, fmt.Errorf("unknown input: %d", c.Input)
	}
	err := src.Set(c)
	if err != nil {
		return nil, fmt.Errorf("could not set %s source: %w", src.Name(), err)
	}
	return src, nil
}

// NewEstimator returns the flow estimator selected by the Estimator field of
// c.
func NewEstimator(c config.Config) (flow.Estimator, error) {
	switch c.Estimator {
	case config.EstimatorFarneback:
		return flow.NewFarneback(c)
	case config.EstimatorHornSchunck:
		return flow.NewHornSchunck(c), nil
	case config.EstimatorLucasKanade:
		return flow.NewLucasKanade(c), nil
	default:
		return nil, fmt.Errorf("unknown estimator: %d", c.Estimator)
	}
}

// Run is the lazy sequence of feature vectors of one clip.
type Run struct {
	agg  *aggregate.Aggregator
	grid grid.Grid
	src  device.FrameSource
}

// Open starts producing feature vectors for the clip at path, summarising
// windows of the configured length.
func (p *Pipeline) Open(path string) (*Run, error) {
	return p.open(path, int(p.cfg.Window))
}

// OpenWindow is like Open but summarises windows of the given length, with
// 0 summarising the whole clip.
func (p *Pipeline) OpenWindow(path string, window int) (*Run, error) {
	if window < 0 {
		return nil, fmt.Errorf("invalid window: %d", window)
	}
	return p.open(path, window)
}

func (p *Pipeline) open(path string, window int) (*Run, error) {
	r := &Run{}
	fs, w, h, err := p.cachedFlow(path)
	if err != nil {
		p.log.Debug(pkg+"no cached flow", "path", path, "reason", err.Error())
		fs, w, h, err = p.startFlow(path, r)
		if err != nil {
			return nil, err
		}
	}

	x, y, err := grid.FitCells(w, h, int(p.cfg.XCells), int(p.cfg.YCells))
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("could not fit grid: %w", err)
	}
	r.grid, err = grid.New(w, h, x, y)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("could not create grid: %w", err)
	}
	p.log.Info(pkg+"opened clip", "path", path, "grid", r.grid.String(), "window", window)

	ex, err := hoof.NewExtractor(r.grid, int(p.cfg.Bins), !p.cfg.RawHist)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("could not create extractor: %w", err)
	}
	r.agg, err = aggregate.New(hoof.NewStream(fs, ex), window, p.log)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("could not create aggregator: %w", err)
	}
	return r, nil
}

// startFlow starts a frame source for path and returns a flow source over
// its frames, recording the fields if flow caching is enabled.
func (p *Pipeline) startFlow(path string, r *Run) (flow.Source, int, int, error) {
	c := p.cfg
	c.InputPath = path
	src, err := p.newSource(c)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("could not create source: %w", err)
	}
	err = src.Start()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("could not start %s source: %w", src.Name(), err)
	}
	r.src = src

	w, h, err := src.Dims()
	if err != nil {
		r.Close()
		return nil, 0, 0, fmt.Errorf("could not get frame size: %w", err)
	}

	fs := flow.Limit(flow.NewStream(src, p.est), int(p.cfg.MaxFrames))
	if p.cfg.CacheFlows {
		fs = &recorder{src: fs, key: p.flowKey(path), cache: p.cache, log: p.log}
	}
	return fs, w, h, nil
}

// cachedFlow returns a replay of the cached flow fields of path.
func (p *Pipeline) cachedFlow(path string) (flow.Source, int, int, error) {
	if !p.cfg.CacheFlows {
		return nil, 0, 0, errors.New("flow caching disabled")
	}
	b, err := p.cache.Get(p.flowKey(path))
	if err != nil {
		return nil, 0, 0, err
	}
	fields, err := cache.DecodeFields(b)
	if err != nil {
		p.log.Warning(pkg+"discarding corrupt flow artifact", "path", path, "error", err.Error())
		return nil, 0, 0, err
	}
	if len(fields) == 0 {
		return nil, 0, 0, errors.New("no fields cached")
	}
	w, h := fields[0].Width, fields[0].Height
	if w <= 0 || h <= 0 {
		return nil, 0, 0, fmt.Errorf("cached fields are %dx%d", w, h)
	}
	p.log.Info(pkg+"using cached flow", "path", path, "fields", len(fields))
	return flow.NewSliceSource(fields), w, h, nil
}

// Next returns the next feature vector, or io.EOF once the clip is
// exhausted.
func (r *Run) Next() (*aggregate.Vector, error) { return r.agg.Next() }

// Grid returns the cell grid used for the clip.
func (r *Run) Grid() grid.Grid { return r.grid }

// Close stops the frame source, if any.
func (r *Run) Close() error {
	if r.src == nil || !r.src.IsRunning() {
		return nil
	}
	return r.src.Stop()
}

// ClipFeatures returns the flattened whole clip feature vector of the clip at
// path, using the cache when possible.
func (p *Pipeline) ClipFeatures(path string) ([]float64, error) {
	key := p.featuresKey(path)
	b, err := p.cache.Get(key)
	if err == nil {
		v, err := cache.DecodeVectors(b)
		if err == nil && len(v) == 1 {
			p.log.Debug(pkg+"using cached features", "path", path)
			return v[0], nil
		}
		p.log.Warning(pkg+"discarding bad features artifact", "path", path)
	} else if !errors.Is(err, cache.ErrMiss) {
		p.log.Warning(pkg+"could not read features artifact", "path", path, "error", err.Error())
	}

	r, err := p.open(path, 0)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	v, err := r.Next()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s", ErrNoFeatures, path)
	}
	if err != nil {
		return nil, fmt.Errorf("could not compute features: %w", err)
	}
	feat := v.Flatten()

	b, err = cache.EncodeVectors([][]float64{feat})
	if err == nil {
		err = p.cache.Put(key, b)
	}
	if err != nil {
		p.log.Warning(pkg+"could not cache features", "path", path, "error", err.Error())
	}
	return feat, nil
}

// recorder passes fields through from src, storing them all in the cache
// once src is exhausted.
type recorder struct {
	src    flow.Source
	key    string
	cache  cache.Cache
	log    logging.Logger
	fields []*flow.Field
	failed bool
}

func (r *recorder) Next() (*flow.Field, error) {
	f, err := r.src.Next()
	if err == io.EOF {
		r.store()
		return nil, err
	}
	if err != nil {
		r.failed = true
		r.fields = nil
		return nil, err
	}
	r.fields = append(r.fields, f)
	return f, nil
}

func (r *recorder) store() {
	if r.failed || len(r.fields) == 0 {
		return
	}
	b, err := cache.EncodeFields(r.fields)
	if err == nil {
		err = r.cache.Put(r.key, b)
	}
	if err != nil {
		r.log.Warning(pkg+"could not cache flow", "error", err.Error())
	} else {
		r.log.Debug(pkg+"cached flow", "fields", len(r.fields))
	}
	r.fields = nil
}
