/*
NAME
  config.go

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

// Package config contains the configuration settings for the hoof feature
// pipeline and its collaborators.
package config

import (
	"github.com/ausocean/utils/logging"
)

// Enums to define inputs, estimators and cache drivers.
const (
	// Indicates no option has been set.
	NothingDefined = iota

	// Inputs.
	InputFile   // Video file decoded with OpenCV.
	InputFrames // Directory of still images.

	// Flow estimators.
	EstimatorFarneback
	EstimatorHornSchunck
	EstimatorLucasKanade

	// Cache drivers.
	CacheNone
	CacheDir
	CacheSQLite
)

// Config provides parameters relevant to a pipeline instance. A new config
// must be passed to the constructor. Default values for these fields are
// defined as consts in variables.go.
type Config struct {
	// Bins is the number of HOOF orientation bins spanning [-π, π].
	Bins uint

	// CacheDriver selects the artifact cache used to skip recomputation of
	// flow fields and feature vectors.
	//
	// Valid values are defined by enums:
	// CacheNone:
	//		No caching.
	// CacheDir:
	//		One file per artifact in the directory CachePath.
	// CacheSQLite:
	//		An SQLite database at CachePath.
	CacheDriver uint8

	CacheFlows bool   // If true flow fields are persisted in addition to feature vectors.
	CachePath  string // Location of the cache, see CacheDriver.

	Components uint // Number of principal components kept by the classifier.

	// Estimator defines the dense optical flow algorithm.
	//
	// Valid values are defined by enums:
	// EstimatorFarneback:
	//		Gunnar Farneback's polynomial expansion method (requires OpenCV).
	// EstimatorHornSchunck:
	//		Horn & Schunck global method solved with Jacobi iterations.
	// EstimatorLucasKanade:
	//		Dense Lucas-Kanade local least squares.
	Estimator uint8

	FarnebackIterations uint    // Iterations at each pyramid level.
	FarnebackLevels     uint    // Number of pyramid layers including the initial image.
	FarnebackPolyN      uint    // Pixel neighbourhood used for polynomial expansion.
	FarnebackPolySigma  float64 // Gaussian standard deviation for polynomial expansion.
	FarnebackPyrScale   float64 // Image scale between pyramid layers.
	FarnebackWinSize    uint    // Averaging window size.

	// FrameWidth, if non zero, is the width frames are scaled to before flow
	// estimation. Aspect ratio is preserved.
	FrameWidth uint

	HSAlpha      float64 // Horn-Schunck smoothness weight.
	HSIterations uint    // Horn-Schunck Jacobi iterations.

	// Input defines the frame source.
	//
	// Valid values are defined by enums:
	// InputFile:
	//		Read a video file, location must be specified in InputPath.
	// InputFrames:
	//		Read an ordered directory of images, location must be specified in
	//		InputPath.
	Input uint8

	// InputPath defines the video file or frame directory location.
	InputPath string

	LKWindow uint // Lucas-Kanade square window side in pixels.

	// Logger holds an implementation of the Logger interface.
	// This must be set for the pipeline to work correctly.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logger package: logging.Debug,
	// logging.Info, logging.Warning logging.Error, logging.Fatal.
	LogLevel int8

	MaxFrames  uint // Maximum number of flow fields considered per video, 0 for no limit.
	Neighbours uint // Number of neighbours consulted by the classifier.

	// RawHist, if true, keeps HOOF histograms as summed magnitudes. Otherwise
	// histograms are densities that integrate to one over [-π, π].
	RawHist bool

	Suppress bool // Holds logger suppression state.

	// Window is the sliding window length in frames. A value of 0 summarises
	// the whole clip once.
	Window uint

	// XCells and YCells are guesses for the cell grid dimensions. The grid
	// actually used is the closest that exactly tiles the frame.
	XCells uint
	YCells uint
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	return nil
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
