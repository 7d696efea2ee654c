/*
DESCRIPTION
  classify.go provides Model, a classifier of HOOF feature vectors built
  from mean imputation, principal components analysis and a k nearest
  neighbour vote.

AUTHORS
  Scott Barnard <scott@ausocean.org>
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package classify provides training and evaluation of activity classifiers
// over flattened HOOF feature vectors.
package classify

import (
	"errors"
	"fmt"

	"github.com/ausocean/utils/logging"
)

const pkg = "classify: "

// Defaults used by Train when zero is given.
const (
	DefaultComponents = 6
	DefaultNeighbours = 5
)

// ErrNoData is returned when training data is empty.
var ErrNoData = errors.New("no training data")

// Model is a trained classifier.
type Model struct {
	imp *Imputer
	pca *PCA
	knn *KNN
}

// Train fits a Model to the vectors x with labels y. NaN features are
// imputed before projection onto the leading components principal
// components, which are classified by a vote of the nearest neighbours
// training vectors.
func Train(x [][]float64, y []string, components, neighbours int, log logging.Logger) (*Model, error) {
	if components == 0 {
		components = DefaultComponents
	}
	if neighbours == 0 {
		neighbours = DefaultNeighbours
	}
	if len(y) != len(x) {
		return nil, fmt.Errorf("%d labels for %d vectors", len(y), len(x))
	}

	imp, err := FitImputer(x)
	if err != nil {
		return nil, fmt.Errorf("could not fit imputer: %w", err)
	}
	filled := make([][]float64, len(x))
	for i, v := range x {
		filled[i] = imp.Transform(v)
	}

	pca, err := FitPCA(filled, components)
	if err != nil {
		return nil, fmt.Errorf("could not fit PCA: %w", err)
	}
	proj := make([][]float64, len(filled))
	for i, v := range filled {
		proj[i] = pca.Transform(v)
	}

	knn, err := FitKNN(proj, y, neighbours)
	if err != nil {
		return nil, fmt.Errorf("could not fit classifier: %w", err)
	}
	if log != nil {
		log.Info(pkg+"trained model", "vectors", len(x), "features", len(x[0]), "components", pca.Components(), "labels", knn.Labels())
	}
	return &Model{imp: imp, pca: pca, knn: knn}, nil
}

// Labels returns the sorted distinct labels the model predicts.
func (m *Model) Labels() []string { return m.knn.Labels() }

// Probabilities returns the model's confidence in each label for v, ordered
// as Labels.
func (m *Model) Probabilities(v []float64) ([]float64, error) {
	if len(v) != len(m.imp.Means) {
		return nil, fmt.Errorf("vector has %d features, want %d", len(v), len(m.imp.Means))
	}
	return m.knn.Probabilities(m.pca.Transform(m.imp.Transform(v)))
}

// Predict returns the most likely label for v.
func (m *Model) Predict(v []float64) (string, error) {
	if len(v) != len(m.imp.Means) {
		return "", fmt.Errorf("vector has %d features, want %d", len(v), len(m.imp.Means))
	}
	return m.knn.Predict(m.pca.Transform(m.imp.Transform(v)))
}

// dims returns the common row length of x.
func dims(x [][]float64) (int, error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return 0, ErrNoData
	}
	d := len(x[0])
	for i, row := range x {
		if len(row) != d {
			return 0, fmt.Errorf("vector %d has %d features, want %d", i, len(row), d)
		}
	}
	return d, nil
}
