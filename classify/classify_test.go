/*
DESCRIPTION
  classify_test.go provides testing for the classifier.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package classify

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImputer(t *testing.T) {
	nan := math.NaN()
	im, err := FitImputer([][]float64{{1, nan}, {3, nan}, {nan, nan}})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 0}, im.Means)

	v := []float64{nan, 5}
	assert.Equal(t, []float64{2, 5}, im.Transform(v))
	assert.True(t, math.IsNaN(v[0]), "input modified")

	_, err = FitImputer(nil)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = FitImputer([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestPCA(t *testing.T) {
	// Points along (1, 2, 0) through the origin.
	var x [][]float64
	for i := 0; i < 5; i++ {
		f := float64(i)
		x = append(x, []float64{f, 2 * f, 0})
	}

	p, err := FitPCA(x, 1)
	require.NoError(t, err)
	require.Equal(t, 1, p.Components())

	for i, v := range x {
		got := p.Transform(v)
		require.Len(t, got, 1)
		want := math.Abs(float64(i)-2) * math.Sqrt(5)
		assert.InDelta(t, want, math.Abs(got[0]), 1e-9, "point %d", i)
	}
	assert.InDelta(t, 12.5, p.Variances()[0], 1e-9)

	p, err = FitPCA(x, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Components())

	_, err = FitPCA(x, 0)
	assert.Error(t, err)
}

func TestKNN(t *testing.T) {
	x := [][]float64{{0, 0}, {0, 1}, {1, 0}, {10, 10}, {10, 11}, {11, 10}}
	y := []string{"walk", "walk", "walk", "run", "run", "run"}

	c, err := FitKNN(x, y, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"run", "walk"}, c.Labels())

	p, err := c.Probabilities([]float64{0.5, 0.5})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1}, p, 1e-12)

	got, err := c.Predict([]float64{9, 9})
	require.NoError(t, err)
	assert.Equal(t, "run", got)

	// An exact match dominates the vote.
	p, err = c.Probabilities([]float64{0, 1})
	require.NoError(t, err)
	assert.Greater(t, p[1], 0.999)

	_, err = c.Probabilities([]float64{1})
	assert.Error(t, err)

	_, err = FitKNN(x, y[:2], 3)
	assert.Error(t, err)
	_, err = FitKNN(x, y, 0)
	assert.Error(t, err)
}

func TestKNNTie(t *testing.T) {
	c, err := FitKNN([][]float64{{0, 0}, {2, 0}}, []string{"b", "a"}, 2)
	require.NoError(t, err)

	p, err := c.Probabilities([]float64{1, 0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, p, 1e-12)

	got, err := c.Predict([]float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func clusters(rnd *rand.Rand, n, d int) ([][]float64, []string) {
	var x [][]float64
	var y []string
	for i := 0; i < n; i++ {
		for _, c := range []struct {
			label  string
			centre float64
		}{{"walk", 0}, {"run", 5}} {
			v := make([]float64, d)
			for j := range v {
				v[j] = c.centre + rnd.NormFloat64()*0.3
			}
			x = append(x, v)
			y = append(y, c.label)
		}
	}
	return x, y
}

func TestModel(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	x, y := clusters(rnd, 10, 8)
	x[0][3] = math.NaN()
	x[5][7] = math.NaN()

	m, err := Train(x, y, 2, 3, (*logging.TestLogger)(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"run", "walk"}, m.Labels())

	tests := []struct {
		centre float64
		want   string
	}{
		{0, "walk"},
		{5, "run"},
		{4, "run"},
		{1, "walk"},
	}
	for i, test := range tests {
		v := make([]float64, 8)
		for j := range v {
			v[j] = test.centre
		}
		v[2] = math.NaN()
		got, err := m.Predict(v)
		require.NoError(t, err)
		assert.Equal(t, test.want, got, "test %d", i)

		p, err := m.Probabilities(v)
		require.NoError(t, err)
		assert.InDelta(t, 1, p[0]+p[1], 1e-12)
	}

	_, err = m.Predict(make([]float64, 3))
	assert.Error(t, err)
}

func TestTrainDefaults(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	x, y := clusters(rnd, 10, 12)
	m, err := Train(x, y, 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultComponents, m.pca.Components())

	_, err = Train(nil, nil, 0, 0, nil)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = Train(x, y[1:], 0, 0, nil)
	assert.Error(t, err)
}
