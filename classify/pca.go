/*
DESCRIPTION
  pca.go provides projection of feature vectors onto their principal
  components.

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
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA projects vectors onto the leading principal components of a training
// set.
type PCA struct {
	mean []float64
	vecs *mat.Dense // d×k, one component per column.
	vars []float64
}

// FitPCA returns a PCA keeping k components of x. k is reduced to the rank
// limit min(rows, columns) of x if needed. x must not contain NaN.
func FitPCA(x [][]float64, k int) (*PCA, error) {
	d, err := dims(x)
	if err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, fmt.Errorf("invalid component count: %d", k)
	}
	k = min(k, len(x), d)

	a := mat.NewDense(len(x), d, nil)
	for i, row := range x {
		a.SetRow(i, row)
	}

	var pc stat.PC
	if !pc.PrincipalComponents(a, nil) {
		return nil, errors.New("principal components analysis failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	p := &PCA{
		mean: make([]float64, d),
		vecs: mat.DenseCopyOf(vecs.Slice(0, d, 0, k)),
		vars: pc.VarsTo(nil)[:k],
	}
	col := make([]float64, len(x))
	for j := range p.mean {
		mat.Col(col, j, a)
		p.mean[j] = stat.Mean(col, nil)
	}
	return p, nil
}

// Components returns the number of components kept.
func (p *PCA) Components() int {
	_, k := p.vecs.Dims()
	return k
}

// Variances returns the variance of the training set along each kept
// component, largest first.
func (p *PCA) Variances() []float64 { return append([]float64(nil), p.vars...) }

// Transform returns the projection of v.
func (p *PCA) Transform(v []float64) []float64 {
	c := make([]float64, len(v))
	floats.SubTo(c, v, p.mean)
	var out mat.VecDense
	out.MulVec(p.vecs.T(), mat.NewVecDense(len(c), c))
	return out.RawVector().Data
}
