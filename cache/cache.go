/*
DESCRIPTION
  cache.go provides the Cache interface for persisting intermediate pipeline
  artifacts, keys for those artifacts and construction of a Cache from config.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package cache provides persistence of flow fields and feature vectors so
// that expensive stages can be skipped on later runs. Caching is advisory:
// a missing, unreadable or corrupt artifact is a miss and the caller
// recomputes it.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"

	"github.com/ausocean/hoof/config"
)

// Artifact kinds.
const (
	KindFlow     = "flow"
	KindFeatures = "features"
	KindCategory = "category"
)

// ErrMiss is returned by Get when no artifact is stored under a key.
var ErrMiss = errors.New("cache miss")

// Cache stores opaque artifacts by key.
type Cache interface {
	// Get returns the artifact stored under key, or ErrMiss.
	Get(key string) ([]byte, error)

	// Put stores data under key, replacing any existing artifact.
	Put(key string, data []byte) error

	Close() error
}

// Key returns the key for an artifact of the given kind derived from path.
func Key(kind, path string) string {
	sum := md5.Sum([]byte(path))
	return kind + "_" + hex.EncodeToString(sum[:])
}

// Open returns the Cache selected by the CacheDriver and CachePath fields of
// c.
func Open(c config.Config) (Cache, error) {
	switch c.CacheDriver {
	case config.CacheNone, config.NothingDefined:
		return Nop{}, nil
	case config.CacheDir:
		return NewDir(c.CachePath)
	case config.CacheSQLite:
		return OpenSQLite(c.CachePath)
	default:
		return nil, fmt.Errorf("unknown cache driver: %d", c.CacheDriver)
	}
}

// Nop is a Cache that stores nothing.
type Nop struct{}

// Get always returns ErrMiss.
func (Nop) Get(key string) ([]byte, error) { return nil, ErrMiss }

// Put discards data.
func (Nop) Put(key string, data []byte) error { return nil }

// Close implements Cache.
func (Nop) Close() error { return nil }
