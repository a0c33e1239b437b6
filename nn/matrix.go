package nn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

func dot(m, n mat.Matrix) *mat.Dense {
	r, _ := m.Dims()
	_, c := n.Dims()
	o := mat.NewDense(r, c, nil)
	o.Product(m, n)
	return o
}

func apply(fn func(i, j int, v float64) float64, m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Apply(fn, m)
	return o
}

func scale(s float64, m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Scale(s, m)
	return o
}

func multiply(m, n mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.MulElem(m, n)
	return o
}

func subtract(m, n mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Sub(m, n)
	return o
}

// randomArray draws size standard normal values and divides them by sqrt(fanIn).
func randomArray(size int, fanIn float64, src rand.Source) []float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
		Src:   src,
	}

	data := make([]float64, size)
	for i := range data {
		data[i] = dist.Rand() / math.Sqrt(fanIn)
	}
	return data
}

// broadcastTargets expands a target matrix to cols columns. A single target
// column is repeated across every output unit.
func broadcastTargets(y mat.Matrix, cols int) (*mat.Dense, error) {
	r, c := y.Dims()
	switch c {
	case cols:
		return mat.DenseCopyOf(y), nil
	case 1:
		o := mat.NewDense(r, cols, nil)
		for i := 0; i < r; i++ {
			v := y.At(i, 0)
			for j := 0; j < cols; j++ {
				o.Set(i, j, v)
			}
		}
		return o, nil
	}
	return nil, shapeErrorf("targets have %d columns, output layer has %d", c, cols)
}
