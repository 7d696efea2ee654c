/*
DESCRIPTION
  dataset.go provides computation of labelled whole clip feature vectors for
  a directory of clips, and the cache keys used by the pipeline.

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
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ausocean/hoof/cache"
	"github.com/ausocean/hoof/config"
)

// Extensions of files considered videos by Dataset.
var videoExts = map[string]bool{
	".avi":  true,
	".mkv":  true,
	".mov":  true,
	".mp4":  true,
	".mpg":  true,
	".webm": true,
}

// IsVideo reports whether path has a known video file extension.
func IsVideo(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

var categoryRE = regexp.MustCompile(`^[a-z]+`)

// Category returns the category of a clip, the leading run of lower case
// letters of its base name, e.g. "walking" for "walking03.mp4".
func Category(path string) string {
	return categoryRE.FindString(filepath.Base(path))
}

// Clips returns the clips in dir in name order. For video input these are
// files with known video extensions; for frame input these are
// subdirectories.
func (p *Pipeline) Clips(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read clip directory: %w", err)
	}
	var clips []string
	for _, e := range entries {
		var ok bool
		if p.cfg.Input == config.InputFrames {
			ok = e.IsDir()
		} else {
			ok = !e.IsDir() && IsVideo(e.Name())
		}
		if ok {
			clips = append(clips, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(clips)
	return clips, nil
}

// Dataset returns the whole clip feature vector and category of every clip
// in dir. Clips without a category or whose features cannot be computed are
// skipped. The results are cached against dir.
func (p *Pipeline) Dataset(dir string) (features [][]float64, categories []string, err error) {
	fKey, cKey := cache.Key(cache.KindFeatures, p.datasetIdent(dir)), cache.Key(cache.KindCategory, p.datasetIdent(dir))
	features, categories, err = p.cachedDataset(fKey, cKey)
	if err == nil {
		p.log.Info(pkg+"using cached dataset", "dir", dir, "clips", len(features))
		return features, categories, nil
	}

	clips, err := p.Clips(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, clip := range clips {
		cat := Category(clip)
		if cat == "" {
			p.log.Warning(pkg+"skipping clip with no category", "clip", clip)
			continue
		}
		feat, err := p.ClipFeatures(clip)
		if err != nil {
			p.log.Warning(pkg+"skipping clip", "clip", clip, "error", err.Error())
			continue
		}
		features = append(features, feat)
		categories = append(categories, cat)
	}
	if len(features) == 0 {
		return nil, nil, fmt.Errorf("no usable clips in %s", dir)
	}

	fb, err := cache.EncodeVectors(features)
	if err == nil {
		err = p.cache.Put(fKey, fb)
	}
	if err == nil {
		var cb []byte
		cb, err = cache.EncodeLabels(categories)
		if err == nil {
			err = p.cache.Put(cKey, cb)
		}
	}
	if err != nil {
		p.log.Warning(pkg+"could not cache dataset", "dir", dir, "error", err.Error())
	}
	p.log.Info(pkg+"built dataset", "dir", dir, "clips", len(features))
	return features, categories, nil
}

func (p *Pipeline) cachedDataset(fKey, cKey string) ([][]float64, []string, error) {
	fb, err := p.cache.Get(fKey)
	if err != nil {
		return nil, nil, err
	}
	cb, err := p.cache.Get(cKey)
	if err != nil {
		return nil, nil, err
	}
	features, err := cache.DecodeVectors(fb)
	if err != nil {
		return nil, nil, err
	}
	categories, err := cache.DecodeLabels(cb)
	if err != nil {
		return nil, nil, err
	}
	if len(features) == 0 || len(features) != len(categories) {
		return nil, nil, errors.New("inconsistent dataset artifacts")
	}
	return features, categories, nil
}

// flowKey returns the cache key of the flow fields of path. The key covers
// the parameters that change the fields.
func (p *Pipeline) flowKey(path string) string {
	c := p.cfg
	return cache.Key(cache.KindFlow, fmt.Sprintf("%s|est=%d|width=%d|max=%d|%s", path, c.Estimator, c.FrameWidth, c.MaxFrames, p.estimatorParams()))
}

// featuresKey returns the cache key of the whole clip features of path.
func (p *Pipeline) featuresKey(path string) string {
	return cache.Key(cache.KindFeatures, p.featuresIdent(path))
}

func (p *Pipeline) featuresIdent(path string) string {
	c := p.cfg
	return fmt.Sprintf("%s|est=%d|width=%d|max=%d|%s|bins=%d|cells=%dx%d|raw=%t",
		path, c.Estimator, c.FrameWidth, c.MaxFrames, p.estimatorParams(), c.Bins, c.XCells, c.YCells, c.RawHist)
}

func (p *Pipeline) datasetIdent(dir string) string {
	return p.featuresIdent(filepath.Clean(dir)) + fmt.Sprintf("|input=%d", p.cfg.Input)
}

func (p *Pipeline) estimatorParams() string {
	c := p.cfg
	switch c.Estimator {
	case config.EstimatorFarneback:
		return fmt.Sprintf("%g,%d,%d,%d,%d,%g", c.FarnebackPyrScale, c.FarnebackLevels, c.FarnebackWinSize,
			c.FarnebackIterations, c.FarnebackPolyN, c.FarnebackPolySigma)
	case config.EstimatorHornSchunck:
		return fmt.Sprintf("%g,%d", c.HSAlpha, c.HSIterations)
	case config.EstimatorLucasKanade:
		return fmt.Sprintf("%d", c.LKWindow)
	}
	return ""
}
