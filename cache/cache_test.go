/*
DESCRIPTION
  cache_test.go provides testing for the cache implementations and codecs.

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
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ausocean/hoof/config"
	"github.com/ausocean/hoof/flow"
)

func TestKey(t *testing.T) {
	k := Key(KindFlow, "videos/clip.mp4")
	assert.True(t, strings.HasPrefix(k, "flow_"))
	assert.Len(t, k, len("flow_")+32)
	assert.Equal(t, k, Key(KindFlow, "videos/clip.mp4"))
	assert.NotEqual(t, k, Key(KindFeatures, "videos/clip.mp4"))
	assert.NotEqual(t, k, Key(KindFlow, "videos/clip2.mp4"))
	assert.Equal(t, "features_d41d8cd98f00b204e9800998ecf8427e", Key(KindFeatures, ""))
}

// exercise checks the behaviour common to all caches.
func exercise(t *testing.T, c Cache) {
	t.Helper()
	_, err := c.Get("missing")
	assert.True(t, errors.Is(err, ErrMiss), "expected miss, got: %v", err)

	require.NoError(t, c.Put("a", []byte("first")))
	got, err := c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)

	require.NoError(t, c.Put("a", []byte("second")))
	got, err = c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache")
	d, err := NewDir(path)
	require.NoError(t, err)
	defer d.Close()
	exercise(t, d)

	// No temporary files remain.
	entries, err := os.ReadDir(path)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = NewDir("")
	assert.Error(t, err)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	exercise(t, s)

	w, err := s.WriterOf("a")
	require.NoError(t, err)
	assert.Equal(t, s.Writer(), w)
	require.NoError(t, s.Close())

	// Artifacts persist and a new instance has a new writer id.
	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
	assert.NotEqual(t, w, s2.Writer())
}

func TestOpen(t *testing.T) {
	c, err := Open(config.Config{CacheDriver: config.CacheNone})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, c)
	exerciseNop(t, c)

	c, err = Open(config.Config{CacheDriver: config.CacheDir, CachePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Dir{}, c)

	c, err = Open(config.Config{CacheDriver: config.CacheSQLite, CachePath: filepath.Join(t.TempDir(), "c.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, c)
	require.NoError(t, c.Close())

	_, err = Open(config.Config{CacheDriver: 99})
	assert.Error(t, err)
}

func exerciseNop(t *testing.T, c Cache) {
	require.NoError(t, c.Put("a", []byte("x")))
	_, err := c.Get("a")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestFieldsCodec(t *testing.T) {
	var fields []*flow.Field
	for i := 0; i < 3; i++ {
		f := flow.NewField(5, 4)
		for j := range f.Vec {
			f.Vec[j] = float32(i*100+j) / 7
		}
		fields = append(fields, f)
	}
	fields[1].Vec[3] = float32(math.Inf(-1))

	b, err := EncodeFields(fields)
	require.NoError(t, err)
	got, err := DecodeFields(b)
	require.NoError(t, err)
	require.Len(t, got, len(fields))
	for i := range fields {
		assert.Equal(t, fields[i].Width, got[i].Width)
		assert.Equal(t, fields[i].Height, got[i].Height)
		assert.Equal(t, fields[i].Vec, got[i].Vec)
	}

	_, err = EncodeFields([]*flow.Field{flow.NewField(2, 2), flow.NewField(3, 2)})
	assert.Error(t, err, "expected error for fields of differing size")
}

func TestFieldsCodecCorrupt(t *testing.T) {
	b, err := EncodeFields([]*flow.Field{flow.NewField(4, 4)})
	require.NoError(t, err)

	_, err = DecodeFields(b[:len(b)/2])
	assert.Error(t, err)
	_, err = DecodeFields([]byte("not zstd at all"))
	assert.Error(t, err)

	b, err = EncodeVectors([][]float64{{1}})
	require.NoError(t, err)
	_, err = DecodeFields(b)
	assert.Error(t, err)

	// Fields without pixels encode but are rejected on decode.
	b, err = EncodeFields([]*flow.Field{flow.NewField(0, 0), flow.NewField(0, 0)})
	require.NoError(t, err)
	_, err = DecodeFields(b)
	assert.Error(t, err, "expected error for empty fields")
}

func TestVectorsAndLabelsCodec(t *testing.T) {
	v := [][]float64{{1, 2, math.NaN()}, {4, 5, 6}}
	b, err := EncodeVectors(v)
	require.NoError(t, err)
	got, err := DecodeVectors(b)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, math.IsNaN(got[0][2]))
	assert.Equal(t, v[1], got[1])

	l := []string{"walking", "running"}
	b, err = EncodeLabels(l)
	require.NoError(t, err)
	gotL, err := DecodeLabels(b)
	require.NoError(t, err)
	assert.Equal(t, l, gotL)

	_, err = DecodeLabels([]byte("garbage"))
	assert.Error(t, err)
}
