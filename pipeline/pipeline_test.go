/*
DESCRIPTION
  pipeline_test.go provides testing for Pipeline.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ausocean/hoof/aggregate"
	"github.com/ausocean/hoof/cache"
	"github.com/ausocean/hoof/config"
	"github.com/ausocean/hoof/device"
	"github.com/ausocean/hoof/flow"
)

const frameW, frameH = 16, 12

// frame returns a textured frame whose pattern is shifted by t pixels.
func frame(t int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, frameW, frameH))
	for y := 0; y < frameH; y++ {
		for x := 0; x < frameW; x++ {
			v := 128 + 50*math.Sin(0.5*float64(x-t)) + 40*math.Cos(0.6*float64(y+t))
			g.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	return g
}

// manual returns a source function producing n frames per clip and counting
// the clips opened.
func manual(n int, opened *int) SourceFunc {
	return func(c config.Config) (device.FrameSource, error) {
		*opened++
		var frames []*image.Gray
		for i := 0; i < n; i++ {
			frames = append(frames, frame(i))
		}
		return device.NewManualInput(frames...), nil
	}
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Logger:    (*logging.TestLogger)(t),
		Estimator: config.EstimatorLucasKanade,
		LKWindow:  5,
		XCells:    3,
		YCells:    3,
	}
}

func drain(t *testing.T, r *Run) []*aggregate.Vector {
	t.Helper()
	var vs []*aggregate.Vector
	for {
		v, err := r.Next()
		if err == io.EOF {
			return vs
		}
		if err != nil {
			t.Fatalf("did not expect error: %v", err)
		}
		vs = append(vs, v)
	}
}

var nanOpts = cmp.Options{cmpopts.EquateNaNs()}

func TestOpen(t *testing.T) {
	tests := []struct {
		window    uint
		maxFrames uint
		want      int
		frames    int
	}{
		{window: 0, want: 1, frames: 5},
		{window: 1, want: 5, frames: 1},
		{window: 2, want: 4, frames: 2},
		{window: 5, want: 1, frames: 5},
		{window: 6, want: 0},
		{window: 0, maxFrames: 3, want: 1, frames: 3},
	}

	for i, test := range tests {
		var opened int
		c := testConfig(t)
		c.Window = test.window
		c.MaxFrames = test.maxFrames
		p, err := New(c, WithSource(manual(6, &opened)))
		if err != nil {
			t.Fatalf("could not create pipeline: %v", err)
		}

		r, err := p.Open("clip")
		if err != nil {
			t.Fatalf("could not open clip: %v", err)
		}
		if g := r.Grid(); g.XCells != 2 || g.YCells != 3 {
			t.Errorf("unexpected grid for test %d: %v", i, g)
		}

		vs := drain(t, r)
		if len(vs) != test.want {
			t.Errorf("did not get expected number of vectors for test %d\nGot: %v\nWant: %v\n", i, len(vs), test.want)
		}
		for _, v := range vs {
			if v.Frames != test.frames {
				t.Errorf("test %d: vector summarises %d frames, want %d", i, v.Frames, test.frames)
			}
			if n := len(v.Flatten()); n != aggregate.Len(2, 3, 8) {
				t.Errorf("test %d: flattened vector has length %d", i, n)
			}
		}
		if err := r.Close(); err != nil {
			t.Errorf("could not close run: %v", err)
		}
	}
}

func TestOpenWindow(t *testing.T) {
	var opened int
	p, err := New(testConfig(t), WithSource(manual(6, &opened)))
	if err != nil {
		t.Fatalf("could not create pipeline: %v", err)
	}

	r, err := p.OpenWindow("clip", 3)
	if err != nil {
		t.Fatalf("could not open clip: %v", err)
	}
	vs := drain(t, r)
	r.Close()
	if len(vs) != 3 {
		t.Errorf("got %d windows, want 3", len(vs))
	}

	_, err = p.OpenWindow("clip", -1)
	if err == nil {
		t.Error("expected error for negative window")
	}
}

func TestClipFeaturesCache(t *testing.T) {
	var opened int
	c := testConfig(t)
	c.CacheDriver = config.CacheDir
	c.CachePath = t.TempDir()

	p, err := New(c, WithSource(manual(4, &opened)))
	if err != nil {
		t.Fatalf("could not create pipeline: %v", err)
	}
	defer p.Close()

	first, err := p.ClipFeatures("clip.mp4")
	if err != nil {
		t.Fatalf("could not get features: %v", err)
	}
	second, err := p.ClipFeatures("clip.mp4")
	if err != nil {
		t.Fatalf("could not get features: %v", err)
	}
	if opened != 1 {
		t.Errorf("expected cached features to be used, source opened %d times", opened)
	}
	if !cmp.Equal(first, second, nanOpts) {
		t.Errorf("cached features differ.\n%s", cmp.Diff(first, second, nanOpts))
	}

	// Different feature parameters miss the cache.
	c.Bins = 4
	p2, err := New(c, WithSource(manual(4, &opened)))
	if err != nil {
		t.Fatalf("could not create pipeline: %v", err)
	}
	third, err := p2.ClipFeatures("clip.mp4")
	if err != nil {
		t.Fatalf("could not get features: %v", err)
	}
	if opened != 2 || len(third) != aggregate.Len(2, 3, 4) {
		t.Errorf("expected recomputation, opened %d, length %d", opened, len(third))
	}
}

func TestFlowCache(t *testing.T) {
	var opened int
	c := testConfig(t)
	c.Window = 2
	c.CacheFlows = true

	d, err := cache.NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("could not create cache: %v", err)
	}
	p, err := New(c, WithSource(manual(5, &opened)), WithCache(d))
	if err != nil {
		t.Fatalf("could not create pipeline: %v", err)
	}

	r, err := p.Open("clip.mp4")
	if err != nil {
		t.Fatalf("could not open clip: %v", err)
	}
	want := drain(t, r)
	r.Close()

	r, err = p.Open("clip.mp4")
	if err != nil {
		t.Fatalf("could not open clip: %v", err)
	}
	got := drain(t, r)
	if opened != 1 {
		t.Errorf("expected cached flow to be used, source opened %d times", opened)
	}
	if !cmp.Equal(got, want, nanOpts) {
		t.Errorf("vectors from cached flow differ.\n%s", cmp.Diff(want, got, nanOpts))
	}
}

func TestCorruptArtifacts(t *testing.T) {
	empty, err := cache.EncodeFields([]*flow.Field{flow.NewField(0, 0)})
	if err != nil {
		t.Fatalf("could not encode fields: %v", err)
	}

	tests := []struct {
		features []byte
		flow     []byte
	}{
		{features: []byte("garbage"), flow: []byte("garbage")},
		{features: []byte("garbage"), flow: empty},
	}

	for i, test := range tests {
		var opened int
		c := testConfig(t)
		c.CacheFlows = true

		d, err := cache.NewDir(t.TempDir())
		if err != nil {
			t.Fatalf("could not create cache for test %d: %v", i, err)
		}
		p, err := New(c, WithSource(manual(4, &opened)), WithCache(d))
		if err != nil {
			t.Fatalf("could not create pipeline for test %d: %v", i, err)
		}
		err = d.Put(p.featuresKey("clip.mp4"), test.features)
		if err != nil {
			t.Fatalf("could not put features for test %d: %v", i, err)
		}
		err = d.Put(p.flowKey("clip.mp4"), test.flow)
		if err != nil {
			t.Fatalf("could not put flow for test %d: %v", i, err)
		}

		got, err := p.ClipFeatures("clip.mp4")
		if err != nil {
			t.Errorf("did not expect error for test %d: %v", i, err)
			continue
		}
		if opened != 1 {
			t.Errorf("expected recomputation for test %d, source opened %d times", i, opened)
		}
		if len(got) != aggregate.Len(2, 3, 8) {
			t.Errorf("did not get expected result for test %d\nGot: %v\nWant: %v\n", i, len(got), aggregate.Len(2, 3, 8))
		}
	}
}

func TestNoFeatures(t *testing.T) {
	var opened int
	p, err := New(testConfig(t), WithSource(manual(1, &opened)))
	if err != nil {
		t.Fatalf("could not create pipeline: %v", err)
	}
	_, err = p.ClipFeatures("short.mp4")
	if !errors.Is(err, ErrNoFeatures) {
		t.Errorf("expected ErrNoFeatures, got: %v", err)
	}
}

func TestNewErrors(t *testing.T) {
	_, err := New(config.Config{})
	if err == nil {
		t.Error("expected error for config without logger")
	}

	c := testConfig(t)
	c.Estimator = config.EstimatorFarneback
	_, err = New(c, WithEstimator(flow.NewHornSchunck(c)))
	if err != nil {
		t.Errorf("did not expect error with injected estimator: %v", err)
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "videos/walking03.mp4", want: "walking"},
		{path: "run.avi", want: "run"},
		{path: "/a/b/jumpingJacks1.mp4", want: "jumping"},
		{path: "07clip.mp4", want: ""},
		{path: "frames/wave2", want: "wave"},
	}
	for i, test := range tests {
		got := Category(test.path)
		if got != test.want {
			t.Errorf("did not get expected result for test %d\nGot: %v\nWant: %v\n", i, got, test.want)
		}
	}
}

func TestIsVideo(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "walk.mp4", want: true},
		{path: "dir/RUN.AVI", want: true},
		{path: "frame.png", want: false},
		{path: "clip", want: false},
	}
	for i, test := range tests {
		got := IsVideo(test.path)
		if got != test.want {
			t.Errorf("did not get expected result for test %d\nGot: %v\nWant: %v\n", i, got, test.want)
		}
	}
}

// writeClip writes n frames as PNGs to a new directory dir/name.
func writeClip(t *testing.T, dir, name string, n int) {
	t.Helper()
	clip := filepath.Join(dir, name)
	err := os.Mkdir(clip, 0o755)
	if err != nil {
		t.Fatalf("could not create clip directory: %v", err)
	}
	for i := 0; i < n; i++ {
		f, err := os.Create(filepath.Join(clip, fmt.Sprintf("%04d.png", i)))
		if err != nil {
			t.Fatalf("could not create frame: %v", err)
		}
		err = png.Encode(f, frame(i))
		f.Close()
		if err != nil {
			t.Fatalf("could not encode frame: %v", err)
		}
	}
}

func TestDataset(t *testing.T) {
	dir := t.TempDir()
	writeClip(t, dir, "walk1", 4)
	writeClip(t, dir, "run1", 3)
	writeClip(t, dir, "walk2", 5)
	writeClip(t, dir, "01", 3)
	writeClip(t, dir, "wave1", 1)

	c := testConfig(t)
	c.Input = config.InputFrames
	c.CacheDriver = config.CacheSQLite
	c.CachePath = filepath.Join(t.TempDir(), "hoof.db")
	p, err := New(c)
	if err != nil {
		t.Fatalf("could not create pipeline: %v", err)
	}
	defer p.Close()

	feats, cats, err := p.Dataset(dir)
	if err != nil {
		t.Fatalf("could not build dataset: %v", err)
	}
	wantCats := []string{"run", "walk", "walk"}
	if !cmp.Equal(cats, wantCats) {
		t.Errorf("did not get expected categories.\nGot: %v\nWant: %v\n", cats, wantCats)
	}
	if len(feats) != len(wantCats) {
		t.Fatalf("got %d feature vectors, want %d", len(feats), len(wantCats))
	}

	// The dataset is served from the cache once the clips are gone.
	err = os.RemoveAll(dir)
	if err != nil {
		t.Fatalf("could not remove clips: %v", err)
	}
	feats2, cats2, err := p.Dataset(dir)
	if err != nil {
		t.Fatalf("could not get cached dataset: %v", err)
	}
	if !cmp.Equal(cats2, cats) || !cmp.Equal(feats2, feats, nanOpts) {
		t.Error("cached dataset differs")
	}
}
