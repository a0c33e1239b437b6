// Package data loads MNIST-style digit datasets and prepares them for the
// network: normalization, one-hot targets, shuffling and splitting.
package data

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Dataset is a feature matrix with one class label per row.
type Dataset struct {
	X      *mat.Dense
	Labels []int
}

// Len is the number of samples.
func (ds *Dataset) Len() int {
	return len(ds.Labels)
}

// Features is the number of columns of X.
func (ds *Dataset) Features() int {
	if ds.X == nil {
		return 0
	}
	_, c := ds.X.Dims()
	return c
}

func newDataset(rows [][]float64, labels []int, features int) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, errors.New("dataset is empty")
	}
	X := mat.NewDense(len(rows), features, nil)
	for i, row := range rows {
		X.SetRow(i, row)
	}
	return &Dataset{X: X, Labels: labels}, nil
}

// MinMaxNormalize rescales every entry of X to (x-min)/(max-min), using the
// minimum and maximum over the whole matrix. A constant matrix maps to zeros.
func MinMaxNormalize(X mat.Matrix) *mat.Dense {
	lo, hi := Range(X)
	return Rescale(X, lo, hi)
}

// Range returns the smallest and largest entries of X, or zeros when X is
// empty.
func Range(X mat.Matrix) (lo, hi float64) {
	v := mat.DenseCopyOf(X).RawMatrix().Data
	if len(v) == 0 {
		return 0, 0
	}
	return floats.Min(v), floats.Max(v)
}

// Rescale returns a copy of X with every entry mapped to (x-lo)/(hi-lo).
// Entries outside [lo, hi] map outside [0, 1]. When hi equals lo the copy is
// all zeros.
func Rescale(X mat.Matrix, lo, hi float64) *mat.Dense {
	o := mat.DenseCopyOf(X)
	if hi == lo {
		o.Zero()
		return o
	}
	v := o.RawMatrix().Data
	floats.AddConst(-lo, v)
	floats.Scale(1/(hi-lo), v)
	return o
}

// OneHot returns a len(labels) x classes matrix with a single 1 per row.
func OneHot(labels []int, classes int) (*mat.Dense, error) {
	if len(labels) == 0 {
		return nil, errors.New("no labels")
	}
	if classes <= 0 {
		return nil, errors.Errorf("class count must be positive, got %d", classes)
	}
	o := mat.NewDense(len(labels), classes, nil)
	for i, l := range labels {
		if l < 0 || l >= classes {
			return nil, errors.Errorf("label %d of sample %d is outside [0, %d)", l, i, classes)
		}
		o.Set(i, l, 1)
	}
	return o, nil
}

// Shuffle returns a copy of ds with its samples permuted by src.
func Shuffle(ds *Dataset, src rand.Source) *Dataset {
	n := ds.Len()
	if n == 0 {
		return &Dataset{}
	}
	perm := rand.New(src).Perm(n)

	X := mat.NewDense(n, ds.Features(), nil)
	labels := make([]int, n)
	for i, p := range perm {
		X.SetRow(i, ds.X.RawRowView(p))
		labels[i] = ds.Labels[p]
	}
	return &Dataset{X: X, Labels: labels}
}

// Split returns the first n samples as train and the rest as test. Both
// share memory with ds.
func Split(ds *Dataset, n int) (train, test *Dataset, err error) {
	if n <= 0 || n >= ds.Len() {
		return nil, nil, errors.Errorf("split point %d outside (0, %d)", n, ds.Len())
	}
	c := ds.Features()
	train = &Dataset{
		X:      ds.X.Slice(0, n, 0, c).(*mat.Dense),
		Labels: ds.Labels[:n],
	}
	test = &Dataset{
		X:      ds.X.Slice(n, ds.Len(), 0, c).(*mat.Dense),
		Labels: ds.Labels[n:],
	}
	return train, test, nil
}

// AddBias returns a copy of X with a trailing column of ones.
func AddBias(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	o := mat.NewDense(r, c+1, nil)
	o.Slice(0, r, 0, c).(*mat.Dense).Copy(X)
	for i := 0; i < r; i++ {
		o.Set(i, c, 1)
	}
	return o
}
