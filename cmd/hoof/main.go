/*
DESCRIPTION
  hoof extracts histogram of oriented optical flow feature vectors from
  video clips and writes them as CSV, optionally plotting them. In watch
  mode it runs as a service, processing clips as they appear in a
  directory.

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

// Package hoof is a command line client for the HOOF feature pipeline.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/hoof/aggregate"
	"github.com/ausocean/hoof/config"
	"github.com/ausocean/hoof/hoofplot"
	"github.com/ausocean/hoof/pipeline"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logSuppress  = true
)

// Misc constants.
const (
	profilePath = "hoof.prof"
	pkg         = "hoof: "
)

// This is set to true if the 'profile' build tag is provided on build.
var canProfile = false

var levels = map[string]int8{
	"Debug":   logging.Debug,
	"Info":    logging.Info,
	"Warning": logging.Warning,
	"Error":   logging.Error,
	"Fatal":   logging.Fatal,
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

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version")
		in          = flag.String("in", "", "clip to extract features from, a video file or frame directory")
		input       = flag.String("input", "", "input type, file or frames")
		window      = flag.Uint("window", 0, "sliding window length in frames, 0 for whole clip")
		out         = flag.String("out", "", "CSV output file, standard output if empty")
		plotPath    = flag.String("plot", "", "plot the feature vectors to this .png or .svg file")
		watchDir    = flag.String("watch", "", "process clips as they are added to this directory")
		outDir      = flag.String("outdir", "", "CSV output directory in watch mode, defaults to the watched directory")
		logPath     = flag.String("log", "hoof.log", "log file")
		verbosity   = flag.String("v", "Info", "log verbosity, one of Debug, Info, Warning, Error, Fatal")
		set         = vars{}
	)
	flag.Var(set, "set", "config variable as Key=Value, may be repeated")
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	level, ok := levels[*verbosity]
	if !ok {
		fmt.Fprintf(os.Stderr, "invalid verbosity %q\n", *verbosity)
		os.Exit(2)
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   *logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	defer fileLog.Close()
	log := logging.New(level, io.MultiWriter(fileLog, os.Stderr), logSuppress)
	log.Info("starting hoof", "version", version)

	if canProfile {
		profile(log)
		defer pprof.StopCPUProfile()
		log.Info("profiling started")
	}

	if *input != "" {
		set[config.KeyInput] = *input
	}
	if *window != 0 {
		set[config.KeyWindow] = strconv.FormatUint(uint64(*window), 10)
	}
	cfg := config.Config{Logger: log, LogLevel: level}
	cfg.Update(set)

	p, err := pipeline.New(cfg)
	if err != nil {
		log.Fatal(pkg+"could not create pipeline", "error", err.Error())
	}
	defer p.Close()

	if *watchDir != "" {
		dst := *outDir
		if dst == "" {
			dst = *watchDir
		}
		err = watch(p, *watchDir, dst, log)
		if err != nil {
			log.Fatal(pkg+"watch failed", "error", err.Error())
		}
		return
	}

	if *in == "" {
		fmt.Fprintln(os.Stderr, "no clip given, use -in or -watch")
		os.Exit(2)
	}
	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatal(pkg+"could not create output", "error", err.Error())
		}
		defer f.Close()
		w = f
	}
	n, err := extract(p, *in, w, *plotPath)
	if err != nil {
		log.Fatal(pkg+"could not extract features", "clip", *in, "error", err.Error())
	}
	log.Info("finished", "clip", *in, "vectors", n)
}

// extract writes one CSV record per feature vector of the clip at path to
// w, and plots each vector if plotPath is not empty. It returns the number of
// vectors written.
func extract(p *pipeline.Pipeline, path string, w io.Writer, plotPath string) (int, error) {
	r, err := p.Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	cw := csv.NewWriter(w)
	var n int
	for ; ; n++ {
		v, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}

		err = cw.Write(record(n, v))
		if err != nil {
			return n, fmt.Errorf("could not write record: %w", err)
		}

		if plotPath != "" {
			dst := plotPath
			if p.Config().Window != 0 {
				dst = indexed(plotPath, n)
			}
			title := fmt.Sprintf("%s (%d frames)", filepath.Base(path), v.Frames)
			err = hoofplot.Save(v, title, dst, hoofplot.DefaultWidth, hoofplot.DefaultHeight)
			if err != nil {
				return n, err
			}
		}
	}
	cw.Flush()
	return n, cw.Error()
}

// record returns the CSV fields for the nth vector, its index followed by
// its flattened values.
func record(n int, v *aggregate.Vector) []string {
	flat := v.Flatten()
	rec := make([]string, 0, len(flat)+1)
	rec = append(rec, strconv.Itoa(n))
	for _, f := range flat {
		rec = append(rec, strconv.FormatFloat(f, 'g', -1, 64))
	}
	return rec
}

// indexed inserts n before the extension of path.
func indexed(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%04d%s", strings.TrimSuffix(path, ext), n, ext)
}

// profile opens a file to hold CPU profiling metrics and then starts the
// CPU profiler.
func profile(l logging.Logger) {
	f, err := os.Create(profilePath)
	if err != nil {
		l.Fatal(pkg+"could not create CPU profile", "error", err.Error())
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		l.Fatal(pkg+"could not start CPU profile", "error", err.Error())
	}
}
