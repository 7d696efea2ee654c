/*
DESCRIPTION
  dir.go provides a Cache storing one file per artifact in a directory.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package cache

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const artifactExt = ".bin"

// Dir is a Cache that keeps each artifact in its own file. Writes go to a
// temporary file that is renamed into place, so readers never see a partial
// artifact.
type Dir struct {
	path string
}

// NewDir returns a Dir rooted at path, creating the directory if needed.
func NewDir(path string) (*Dir, error) {
	if path == "" {
		return nil, errors.New("no cache directory provided")
	}
	err := os.MkdirAll(path, 0o755)
	if err != nil {
		return nil, errors.Wrap(err, "could not create cache directory")
	}
	return &Dir{path: path}, nil
}

func (d *Dir) file(key string) string { return filepath.Join(d.path, key+artifactExt) }

// Get implements Cache.
func (d *Dir) Get(key string) ([]byte, error) {
	b, err := os.ReadFile(d.file(key))
	if os.IsNotExist(err) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read artifact %s", key)
	}
	return b, nil
}

// Put implements Cache.
func (d *Dir) Put(key string, data []byte) error {
	f, err := os.CreateTemp(d.path, key+".tmp*")
	if err != nil {
		return errors.Wrap(err, "could not create temporary artifact")
	}
	tmp := f.Name()

	_, err = f.Write(data)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "could not write artifact %s", key)
	}
	err = f.Close()
	if err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "could not close artifact %s", key)
	}

	err = os.Rename(tmp, d.file(key))
	if err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "could not move artifact %s into place", key)
	}
	return nil
}

// Close implements Cache.
func (d *Dir) Close() error { return nil }
