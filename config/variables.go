/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function to check the validity of the
  corresponding field value in the Config.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Config map Keys.
const (
	KeyBins                = "Bins"
	KeyCacheDriver         = "CacheDriver"
	KeyCacheFlows          = "CacheFlows"
	KeyCachePath           = "CachePath"
	KeyComponents          = "Components"
	KeyEstimator           = "Estimator"
	KeyFarnebackIterations = "FarnebackIterations"
	KeyFarnebackLevels     = "FarnebackLevels"
	KeyFarnebackPolyN      = "FarnebackPolyN"
	KeyFarnebackPolySigma  = "FarnebackPolySigma"
	KeyFarnebackPyrScale   = "FarnebackPyrScale"
	KeyFarnebackWinSize    = "FarnebackWinSize"
	KeyFrameWidth          = "FrameWidth"
	KeyHSAlpha             = "HSAlpha"
	KeyHSIterations        = "HSIterations"
	KeyInput               = "Input"
	KeyInputPath           = "InputPath"
	KeyLKWindow            = "LKWindow"
	KeyLogging             = "logging"
	KeyMaxFrames           = "MaxFrames"
	KeyNeighbours          = "Neighbours"
	KeyRawHist             = "RawHist"
	KeySuppress            = "Suppress"
	KeyWindow              = "Window"
	KeyXCells              = "XCells"
	KeyYCells              = "YCells"
)

// Config map parameter types.
const (
	typeString = "string"
	typeUint   = "uint"
	typeBool   = "bool"
	typeFloat  = "float"
)

// Default variable values.
const (
	// General defaults.
	defaultInput       = InputFile
	defaultEstimator   = EstimatorFarneback
	defaultCacheDriver = CacheNone
	defaultVerbosity   = logging.Error

	// Feature defaults.
	defaultBins   = 8
	defaultXCells = 3
	defaultYCells = 3

	// Farneback defaults.
	defaultFarnebackPyrScale   = 0.5
	defaultFarnebackLevels     = 3
	defaultFarnebackWinSize    = 15
	defaultFarnebackIterations = 10
	defaultFarnebackPolyN      = 7
	defaultFarnebackPolySigma  = 1.5

	// Horn-Schunck and Lucas-Kanade defaults.
	defaultHSAlpha      = 100.0
	defaultHSIterations = 100
	defaultLKWindow     = 15

	// Classifier defaults.
	defaultComponents = 6
	defaultNeighbours = 5
)

// Variables describes the variables that can be used for pipeline control.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:   KeyBins,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Bins = parseUint(KeyBins, v, c) },
		Validate: func(c *Config) {
			c.Bins = lessThanOrEqual(KeyBins, c.Bins, 0, c, defaultBins)
		},
	},
	{
		Name: KeyCacheDriver,
		Type: "enum:none,dir,sqlite",
		Update: func(c *Config, v string) {
			c.CacheDriver = parseEnum(
				KeyCacheDriver,
				v,
				map[string]uint8{
					"none":   CacheNone,
					"dir":    CacheDir,
					"sqlite": CacheSQLite,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.CacheDriver {
			case CacheNone:
			case CacheDir, CacheSQLite:
				if c.CachePath == "" {
					c.LogInvalidField(KeyCachePath, "no cache")
					c.CacheDriver = CacheNone
				}
			default:
				c.LogInvalidField(KeyCacheDriver, defaultCacheDriver)
				c.CacheDriver = defaultCacheDriver
			}
		},
	},
	{
		Name:   KeyCacheFlows,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.CacheFlows = parseBool(KeyCacheFlows, v, c) },
	},
	{
		Name:   KeyCachePath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.CachePath = v },
	},
	{
		Name:   KeyComponents,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Components = parseUint(KeyComponents, v, c) },
		Validate: func(c *Config) {
			c.Components = lessThanOrEqual(KeyComponents, c.Components, 0, c, defaultComponents)
		},
	},
	{
		Name: KeyEstimator,
		Type: "enum:farneback,hornschunck,lucaskanade",
		Update: func(c *Config, v string) {
			c.Estimator = parseEnum(
				KeyEstimator,
				v,
				map[string]uint8{
					"farneback":   EstimatorFarneback,
					"hornschunck": EstimatorHornSchunck,
					"lucaskanade": EstimatorLucasKanade,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Estimator {
			case EstimatorFarneback, EstimatorHornSchunck, EstimatorLucasKanade:
			default:
				c.LogInvalidField(KeyEstimator, defaultEstimator)
				c.Estimator = defaultEstimator
			}
		},
	},
	{
		Name:   KeyFarnebackIterations,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FarnebackIterations = parseUint(KeyFarnebackIterations, v, c) },
		Validate: func(c *Config) {
			c.FarnebackIterations = lessThanOrEqual(KeyFarnebackIterations, c.FarnebackIterations, 0, c, defaultFarnebackIterations)
		},
	},
	{
		Name:   KeyFarnebackLevels,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FarnebackLevels = parseUint(KeyFarnebackLevels, v, c) },
		Validate: func(c *Config) {
			c.FarnebackLevels = lessThanOrEqual(KeyFarnebackLevels, c.FarnebackLevels, 0, c, defaultFarnebackLevels)
		},
	},
	{
		Name:   KeyFarnebackPolyN,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FarnebackPolyN = parseUint(KeyFarnebackPolyN, v, c) },
		Validate: func(c *Config) {
			// OpenCV only supports neighbourhoods of 5 or 7.
			if c.FarnebackPolyN != 5 && c.FarnebackPolyN != 7 {
				c.LogInvalidField(KeyFarnebackPolyN, defaultFarnebackPolyN)
				c.FarnebackPolyN = defaultFarnebackPolyN
			}
		},
	},
	{
		Name:   KeyFarnebackPolySigma,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.FarnebackPolySigma = parseFloat(KeyFarnebackPolySigma, v, c) },
		Validate: func(c *Config) {
			if c.FarnebackPolySigma <= 0 {
				c.LogInvalidField(KeyFarnebackPolySigma, defaultFarnebackPolySigma)
				c.FarnebackPolySigma = defaultFarnebackPolySigma
			}
		},
	},
	{
		Name:   KeyFarnebackPyrScale,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.FarnebackPyrScale = parseFloat(KeyFarnebackPyrScale, v, c) },
		Validate: func(c *Config) {
			if c.FarnebackPyrScale <= 0 || c.FarnebackPyrScale >= 1 {
				c.LogInvalidField(KeyFarnebackPyrScale, defaultFarnebackPyrScale)
				c.FarnebackPyrScale = defaultFarnebackPyrScale
			}
		},
	},
	{
		Name:   KeyFarnebackWinSize,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FarnebackWinSize = parseUint(KeyFarnebackWinSize, v, c) },
		Validate: func(c *Config) {
			c.FarnebackWinSize = lessThanOrEqual(KeyFarnebackWinSize, c.FarnebackWinSize, 0, c, defaultFarnebackWinSize)
		},
	},
	{
		Name:   KeyFrameWidth,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FrameWidth = parseUint(KeyFrameWidth, v, c) },
	},
	{
		Name:   KeyHSAlpha,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.HSAlpha = parseFloat(KeyHSAlpha, v, c) },
		Validate: func(c *Config) {
			if c.HSAlpha <= 0 {
				c.LogInvalidField(KeyHSAlpha, defaultHSAlpha)
				c.HSAlpha = defaultHSAlpha
			}
		},
	},
	{
		Name:   KeyHSIterations,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.HSIterations = parseUint(KeyHSIterations, v, c) },
		Validate: func(c *Config) {
			c.HSIterations = lessThanOrEqual(KeyHSIterations, c.HSIterations, 0, c, defaultHSIterations)
		},
	},
	{
		Name: KeyInput,
		Type: "enum:file,frames",
		Update: func(c *Config, v string) {
			c.Input = parseEnum(
				KeyInput,
				v,
				map[string]uint8{
					"file":   InputFile,
					"frames": InputFrames,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Input {
			case InputFile, InputFrames:
			default:
				c.LogInvalidField(KeyInput, defaultInput)
				c.Input = defaultInput
			}
		},
	},
	{
		Name:   KeyInputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.InputPath = v },
	},
	{
		Name:   KeyLKWindow,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.LKWindow = parseUint(KeyLKWindow, v, c) },
		Validate: func(c *Config) {
			c.LKWindow = lessThanOrEqual(KeyLKWindow, c.LKWindow, 1, c, defaultLKWindow)
		},
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("LogLevel", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
	{
		Name:   KeyMaxFrames,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MaxFrames = parseUint(KeyMaxFrames, v, c) },
	},
	{
		Name:   KeyNeighbours,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Neighbours = parseUint(KeyNeighbours, v, c) },
		Validate: func(c *Config) {
			c.Neighbours = lessThanOrEqual(KeyNeighbours, c.Neighbours, 0, c, defaultNeighbours)
		},
	},
	{
		Name:   KeyRawHist,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.RawHist = parseBool(KeyRawHist, v, c) },
	},
	{
		Name: KeySuppress,
		Type: typeBool,
		Update: func(c *Config, v string) {
			c.Suppress = parseBool(KeySuppress, v, c)
			if l, ok := c.Logger.(*logging.JSONLogger); ok {
				l.SetSuppress(c.Suppress)
			}
		},
	},
	{
		Name:   KeyWindow,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Window = parseUint(KeyWindow, v, c) },
	},
	{
		Name:   KeyXCells,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.XCells = parseUint(KeyXCells, v, c) },
		Validate: func(c *Config) {
			c.XCells = lessThanOrEqual(KeyXCells, c.XCells, 0, c, defaultXCells)
		},
	},
	{
		Name:   KeyYCells,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.YCells = parseUint(KeyYCells, v, c) },
		Validate: func(c *Config) {
			c.YCells = lessThanOrEqual(KeyYCells, c.YCells, 0, c, defaultYCells)
		},
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseFloat(n, v string, c *Config) float64 {
	_v, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected float for param %s", n), "value", v)
	}
	return _v
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}

func parseEnum(n, v string, enums map[string]uint8, c *Config) uint8 {
	_v, ok := enums[strings.ToLower(v)]
	if !ok {
		c.Logger.Warning(fmt.Sprintf("invalid value for %s param", n), "value", v)
	}
	return _v
}

func lessThanOrEqual(n string, v, cmp uint, c *Config, def uint) uint {
	if v <= cmp {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}
