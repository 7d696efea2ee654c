/*
DESCRIPTION
  main_test.go provides testing for the hoof command's helpers.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/hoof/aggregate"
)

func TestVars(t *testing.T) {
	v := vars{}
	for _, s := range []string{"Bins=4", "CachePath=/tmp/a=b", "RawHist="} {
		if err := v.Set(s); err != nil {
			t.Fatalf("did not expect error for %q: %v", s, err)
		}
	}
	want := vars{"Bins": "4", "CachePath": "/tmp/a=b", "RawHist": ""}
	if !cmp.Equal(v, want) {
		t.Errorf("did not get expected result.\nGot: %v\nWant: %v\n", v, want)
	}

	for _, s := range []string{"Bins", "=4"} {
		if err := v.Set(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestRecord(t *testing.T) {
	v := &aggregate.Vector{
		Hist:     []float64{0.5, 1},
		Mag:      []float64{math.NaN()},
		Variance: []float64{1e-7},
	}
	got := record(3, v)
	want := []string{"3", "0.5", "1", "NaN", "1e-07"}
	if !cmp.Equal(got, want) {
		t.Errorf("did not get expected result.\nGot: %v\nWant: %v\n", got, want)
	}
}

func TestIndexed(t *testing.T) {
	tests := []struct {
		path string
		n    int
		want string
	}{
		{path: "out/rose.png", n: 0, want: "out/rose_0000.png"},
		{path: "rose.svg", n: 12, want: "rose_0012.svg"},
		{path: "rose", n: 1, want: "rose_0001"},
	}
	for i, test := range tests {
		got := indexed(test.path, test.n)
		if got != test.want {
			t.Errorf("did not get expected result for test %d\nGot: %v\nWant: %v\n", i, got, test.want)
		}
	}
}

func TestClipOf(t *testing.T) {
	dir := filepath.Join("data", "in")
	tests := []struct {
		name   string
		frames bool
		want   string
	}{
		{name: filepath.Join(dir, "walk1.mp4"), want: filepath.Join(dir, "walk1.mp4")},
		{name: filepath.Join(dir, "notes.txt"), want: ""},
		{name: filepath.Join(dir, "sub", "walk1.mp4"), want: ""},
		{name: filepath.Join("data", "other.mp4"), want: ""},
		{name: dir, want: ""},
		{name: filepath.Join(dir, "run2"), frames: true, want: filepath.Join(dir, "run2")},
		{name: filepath.Join(dir, "run2", "0001.png"), frames: true, want: filepath.Join(dir, "run2")},
	}
	for i, test := range tests {
		got := clipOf(dir, test.name, test.frames)
		if got != test.want {
			t.Errorf("did not get expected result for test %d\nGot: %v\nWant: %v\n", i, got, test.want)
		}
	}
}

func TestDebouncer(t *testing.T) {
	const settle = 50 * time.Millisecond
	d := newDebouncer(settle)
	defer d.stop()

	start := time.Now()
	d.touch("a")
	time.Sleep(settle / 2)
	d.touch("a")
	d.touch("b")

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case p := <-d.ready:
			if got[p] {
				t.Fatalf("%s delivered twice", p)
			}
			got[p] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for settled path")
		}
	}
	if !got["a"] || !got["b"] {
		t.Errorf("did not get expected paths: %v", got)
	}
	if elapsed := time.Since(start); elapsed < settle*5/4 {
		t.Errorf("retouched path delivered after %v, before settling", elapsed)
	}

	select {
	case p := <-d.ready:
		t.Errorf("unexpected delivery of %s", p)
	case <-time.After(2 * settle):
	}
}
