/*
DESCRIPTION
  train builds a HOOF feature dataset from a directory of categorised clips,
  trains an activity classifier on it and optionally evaluates the
  classifier with sliding window predictions over a labelled test clip.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package train is a command for training and evaluating HOOF activity
// classifiers.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/hoof/aggregate"
	"github.com/ausocean/hoof/classify"
	"github.com/ausocean/hoof/config"
	"github.com/ausocean/hoof/pipeline"
	"github.com/ausocean/utils/logging"
)

// Logging configuration.
const (
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logSuppress  = true
)

const pkg = "train: "

// Window used for evaluation if none is configured.
const defaultWindow = 30

func main() {
	var (
		trainDir   = flag.String("train", "", "directory of categorised training clips")
		testClip   = flag.String("test", "", "clip to evaluate the classifier on")
		labelsPath = flag.String("labels", "", "per frame labels of the test clip, as label,end_frame lines")
		start      = flag.Int("start", 0, "frame the first evaluated window ends at or after")
		end        = flag.Int("end", 0, "frame the last evaluated window ends at or before, 0 for the whole clip")
		input      = flag.String("input", "", "input type, file or frames")
		logPath    = flag.String("log", "train.log", "log file")
		verbose    = flag.Bool("debug", false, "log debug messages")
		set        = vars{}
	)
	flag.Var(set, "set", "config variable as Key=Value, may be repeated")
	flag.Parse()

	if *trainDir == "" {
		fmt.Fprintln(os.Stderr, "no training directory given")
		os.Exit(2)
	}

	level := int8(logging.Info)
	if *verbose {
		level = logging.Debug
	}
	fileLog := &lumberjack.Logger{
		Filename:   *logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	defer fileLog.Close()
	log := logging.New(level, io.MultiWriter(fileLog, os.Stderr), logSuppress)

	if *input != "" {
		set[config.KeyInput] = *input
	}
	cfg := config.Config{Logger: log, LogLevel: level}
	cfg.Update(set)

	p, err := pipeline.New(cfg)
	if err != nil {
		log.Fatal(pkg+"could not create pipeline", "error", err.Error())
	}
	defer p.Close()
	cfg = p.Config()

	x, y, err := p.Dataset(*trainDir)
	if err != nil {
		log.Fatal(pkg+"could not build dataset", "error", err.Error())
	}
	m, err := classify.Train(x, y, int(cfg.Components), int(cfg.Neighbours), log)
	if err != nil {
		log.Fatal(pkg+"could not train classifier", "error", err.Error())
	}
	fmt.Printf("trained on %d clips, labels %v\n", len(x), m.Labels())

	if *testClip == "" {
		return
	}
	if *labelsPath == "" {
		log.Fatal(pkg + "test clip given without labels")
	}
	f, err := os.Open(*labelsPath)
	if err != nil {
		log.Fatal(pkg+"could not open labels", "error", err.Error())
	}
	labels, err := classify.ReadLabels(f)
	f.Close()
	if err != nil {
		log.Fatal(pkg+"could not read labels", "error", err.Error())
	}

	window := int(cfg.Window)
	if window == 0 {
		window = defaultWindow
		log.Info(pkg+"no window configured, using default", "window", window)
	}
	r, err := p.OpenWindow(*testClip, window)
	if err != nil {
		log.Fatal(pkg+"could not open test clip", "error", err.Error())
	}
	res, err := evaluate(m, r, labels, window, *start, *end)
	r.Close()
	if err != nil {
		log.Fatal(pkg+"could not evaluate", "error", err.Error())
	}
	fmt.Println(res)
}

// vectorSource is satisfied by pipeline.Run.
type vectorSource interface {
	Next() (*aggregate.Vector, error)
}

type result struct {
	confusion *classify.Confusion
	auc       map[string]float64
}

func (r *result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\naccuracy: %.4f\n", r.confusion, r.confusion.Accuracy())
	for _, l := range classify.SortedKeys(r.auc) {
		fmt.Fprintf(&b, "AUC %s: %.4f\n", l, r.auc[l])
	}
	return b.String()
}

// evaluate predicts each window of src and compares the prediction with the
// label of the window's central frame. The window at position pos ends at
// frame window+pos; only windows ending in [start, end] are evaluated. An end
// of 0 evaluates until src or labels are exhausted.
func evaluate(m *classify.Model, src vectorSource, labels []string, window, start, end int) (*result, error) {
	var truth, pred []string
	var probs [][]float64
	for pos := 0; end == 0 || window+pos <= end; pos++ {
		v, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not get window %d: %w", pos, err)
		}
		if window+pos < start {
			continue
		}
		label, ok := classify.WindowLabel(labels, window, pos)
		if !ok {
			break
		}

		flat := v.Flatten()
		p, err := m.Probabilities(flat)
		if err != nil {
			return nil, fmt.Errorf("could not classify window %d: %w", pos, err)
		}
		l, err := m.Predict(flat)
		if err != nil {
			return nil, fmt.Errorf("could not classify window %d: %w", pos, err)
		}
		truth = append(truth, label)
		pred = append(pred, l)
		probs = append(probs, p)
	}
	if len(truth) == 0 {
		return nil, errors.New("no windows evaluated")
	}

	c, err := classify.NewConfusion(truth, pred)
	if err != nil {
		return nil, err
	}
	auc, err := classify.AUC(m.Labels(), probs, truth)
	if err != nil {
		return nil, err
	}
	return &result{confusion: c, auc: auc}, nil
}

// vars collects repeated Key=Value flags as config variables.
type vars map[string]string

func (v vars) String() string {
	var s []string
	for k, e := range v {
		s = append(s, k+"="+e)
	}
	return strings.Join(s, ",")
}

func (v vars) Set(s string) error {
	k, e, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected Key=Value, got %q", s)
	}
	v[k] = e
	return nil
}
