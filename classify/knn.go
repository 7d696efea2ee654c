/*
DESCRIPTION
  knn.go provides a distance weighted k nearest neighbour classifier.

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
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Added to neighbour distances so exact matches have finite weight.
const distanceEpsilon = 1e-9

// KNN classifies vectors by a vote of their k nearest training vectors,
// each weighted by the inverse of its distance.
type KNN struct {
	k      int
	x      [][]float64
	y      []int
	labels []string
}

type neighbour struct {
	index    int
	distance float64
}

// FitKNN returns a KNN over the training vectors x with labels y.
func FitKNN(x [][]float64, y []string, k int) (*KNN, error) {
	if k < 1 {
		return nil, fmt.Errorf("invalid neighbour count: %d", k)
	}
	_, err := dims(x)
	if err != nil {
		return nil, err
	}
	if len(y) != len(x) {
		return nil, fmt.Errorf("%d labels for %d vectors", len(y), len(x))
	}

	c := &KNN{k: min(k, len(x)), x: x, labels: uniq(y)}
	index := make(map[string]int, len(c.labels))
	for i, l := range c.labels {
		index[l] = i
	}
	c.y = make([]int, len(y))
	for i, l := range y {
		c.y[i] = index[l]
	}
	return c, nil
}

// Labels returns the sorted distinct training labels.
func (c *KNN) Labels() []string { return c.labels }

// Probabilities returns the confidence in each label, ordered as Labels.
// The confidence of a label is the share of total neighbour weight held by
// neighbours with that label.
func (c *KNN) Probabilities(v []float64) ([]float64, error) {
	if len(v) != len(c.x[0]) {
		return nil, fmt.Errorf("vector has %d features, want %d", len(v), len(c.x[0]))
	}

	ns := make([]neighbour, len(c.x))
	for i, x := range c.x {
		ns[i] = neighbour{index: i, distance: floats.Distance(v, x, 2)}
	}
	sort.SliceStable(ns, func(i, j int) bool { return ns[i].distance < ns[j].distance })

	p := make([]float64, len(c.labels))
	var total float64
	for _, n := range ns[:c.k] {
		w := 1 / (n.distance + distanceEpsilon)
		p[c.y[n.index]] += w
		total += w
	}
	floats.Scale(1/total, p)
	return p, nil
}

// Predict returns the most likely label of v. Ties go to the label that
// sorts first.
func (c *KNN) Predict(v []float64) (string, error) {
	p, err := c.Probabilities(v)
	if err != nil {
		return "", err
	}
	return c.labels[floats.MaxIdx(p)], nil
}

func uniq(s []string) []string {
	seen := make(map[string]bool)
	var u []string
	for _, e := range s {
		if !seen[e] {
			seen[e] = true
			u = append(u, e)
		}
	}
	sort.Strings(u)
	return u
}
