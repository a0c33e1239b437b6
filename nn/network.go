package nn

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"digitnet/data"
	"digitnet/utils"
)

// Config describes a network to build.
type Config struct {
	// Layers holds the layer widths, input first and output last.
	Layers []int
	// Alpha is the learning rate.
	Alpha float64
	// Activation is "sigmoid" or "relu".
	Activation string
	// Seed seeds the source the initial weights are drawn from.
	Seed uint64
	// Reporter receives the periodic training loss. Nil discards it.
	Reporter Reporter
}

// Network is a fully connected feedforward network trained one sample at a
// time. Biases are folded into the weights: every input row carries a
// trailing constant 1, so each weight matrix has one row more than the width
// of the layer feeding it. All but the last matrix also carry one extra
// column, which becomes an extra learned unit in the next layer.
//
// A Network is not safe for concurrent use.
type Network struct {
	layers     []int
	weights    []*mat.Dense
	activation Activation
	alpha      float64
	reporter   Reporter
	stats      utils.TimingStats
}

// New builds a network with weights drawn from a standard normal
// distribution and divided by the square root of the feeding layer's width.
func New(c Config) (*Network, error) {
	net, err := newNetwork(c)
	if err != nil {
		return nil, err
	}

	src := rand.NewSource(c.Seed)
	for i := range net.weights {
		rows, cols := weightShape(net.layers, i)
		net.weights[i] = mat.NewDense(rows, cols, randomArray(rows*cols, float64(net.layers[i]), src))
	}
	return net, nil
}

// NewWithWeights builds a network around copies of the given matrices, which
// must have the shapes New would give them. c.Seed is ignored.
func NewWithWeights(c Config, weights []mat.Matrix) (*Network, error) {
	net, err := newNetwork(c)
	if err != nil {
		return nil, err
	}
	if len(weights) != len(net.weights) {
		return nil, shapeErrorf("got %d weight matrices, want %d", len(weights), len(net.weights))
	}
	for i, w := range weights {
		rows, cols := weightShape(net.layers, i)
		r, c := w.Dims()
		if r != rows || c != cols {
			return nil, shapeErrorf("weight matrix %d is %dx%d, want %dx%d", i, r, c, rows, cols)
		}
		net.weights[i] = mat.DenseCopyOf(w)
	}
	return net, nil
}

func newNetwork(c Config) (*Network, error) {
	if len(c.Layers) < 2 {
		return nil, configErrorf("need at least 2 layers, got %d", len(c.Layers))
	}
	for i, l := range c.Layers {
		if l <= 0 {
			return nil, configErrorf("layer %d has width %d", i, l)
		}
	}
	if !(c.Alpha > 0) {
		return nil, configErrorf("learning rate must be positive, got %v", c.Alpha)
	}
	act, err := ActivationByName(c.Activation)
	if err != nil {
		return nil, err
	}

	reporter := c.Reporter
	if reporter == nil {
		reporter = discardReporter{}
	}
	return &Network{
		layers:     append([]int(nil), c.Layers...),
		weights:    make([]*mat.Dense, len(c.Layers)-1),
		activation: act,
		alpha:      c.Alpha,
		reporter:   reporter,
	}, nil
}

// weightShape is the shape of the matrix for transition i.
func weightShape(layers []int, i int) (rows, cols int) {
	rows = layers[i] + 1
	cols = layers[i+1]
	if i < len(layers)-2 {
		cols++
	}
	return rows, cols
}

func (net *Network) inputWidth() int {
	r, _ := net.weights[0].Dims()
	return r
}

func (net *Network) outputWidth() int {
	return net.layers[len(net.layers)-1]
}

// Forward propagates a single input row, which must already end with the
// bias feature, and returns the activations of every layer, input included.
func (net *Network) Forward(x []float64) ([]*mat.Dense, error) {
	if len(x) != net.inputWidth() {
		return nil, shapeErrorf("input has %d features, want %d including bias", len(x), net.inputWidth())
	}

	A := make([]*mat.Dense, 0, len(net.weights)+1)
	A = append(A, mat.NewDense(1, len(x), append([]float64(nil), x...)))
	for i, w := range net.weights {
		A = append(A, apply(net.activation.Activate, dot(A[i], w)))
	}
	return A, nil
}

// Backward backpropagates the error of one forward pass against target y and
// updates every weight matrix in place. A single-element y is compared with
// every output unit.
func (net *Network) Backward(A []*mat.Dense, y []float64) error {
	if len(A) != len(net.weights)+1 {
		return shapeErrorf("got %d activations, want %d", len(A), len(net.weights)+1)
	}
	for i, w := range net.weights {
		rows, _ := w.Dims()
		if r, c := A[i].Dims(); r != 1 || c != rows {
			return shapeErrorf("activation %d is %dx%d, want 1x%d", i, r, c, rows)
		}
	}
	if len(y) == 0 {
		return shapeErrorf("empty target")
	}
	target, err := broadcastTargets(mat.NewDense(1, len(y), y), net.outputWidth())
	if err != nil {
		return err
	}

	// deltas[i] is the error signal of A[i+1].
	last := len(net.weights) - 1
	deltas := make([]*mat.Dense, len(net.weights))
	out := A[last+1]
	deltas[last] = multiply(subtract(out, target), apply(net.activation.Derivative, out))
	for i := last; i > 0; i-- {
		deltas[i-1] = multiply(dot(deltas[i], net.weights[i].T()), apply(net.activation.Derivative, A[i]))
	}

	for i, w := range net.weights {
		w.Sub(w, scale(net.alpha, dot(A[i].T(), deltas[i])))
	}
	return nil
}

// Train runs per-sample gradient descent over X and y for the given number of
// epochs, visiting samples in the order given. X holds raw features; the bias
// column is added here. After the first epoch and every displayUpdate epochs
// the loss over the whole set is sent to the reporter.
func (net *Network) Train(X, y mat.Matrix, epochs, displayUpdate int) error {
	if epochs < 0 {
		return configErrorf("epochs must not be negative, got %d", epochs)
	}
	if displayUpdate < 1 {
		return configErrorf("display interval must be at least 1, got %d", displayUpdate)
	}
	r, c := X.Dims()
	if r == 0 {
		return shapeErrorf("no training samples")
	}
	if c+1 != net.inputWidth() {
		return shapeErrorf("samples have %d features, want %d", c, net.inputWidth()-1)
	}
	if yr, _ := y.Dims(); yr != r {
		return shapeErrorf("%d samples but %d targets", r, yr)
	}
	targets, err := broadcastTargets(y, net.outputWidth())
	if err != nil {
		return err
	}
	Xb := data.AddBias(X)

	for epoch := 0; epoch < epochs; epoch++ {
		for i := 0; i < r; i++ {
			start := time.Now()
			A, err := net.Forward(Xb.RawRowView(i))
			net.stats.ForwardPassTime += time.Since(start)
			if err != nil {
				return errors.Wrapf(err, "epoch %d, sample %d", epoch+1, i)
			}

			start = time.Now()
			err = net.Backward(A, targets.RawRowView(i))
			net.stats.BackwardPassTime += time.Since(start)
			if err != nil {
				return errors.Wrapf(err, "epoch %d, sample %d", epoch+1, i)
			}
		}

		if epoch == 0 || (epoch+1)%displayUpdate == 0 {
			start := time.Now()
			loss := sumSquaredError(net.predict(Xb), targets)
			net.stats.LossComputationTime += time.Since(start)
			net.reporter.Report(epoch+1, loss)
		}
	}
	return nil
}

// Predict returns the output layer activations for every row of X. When
// addBias is true the bias column is appended first; otherwise X must
// already carry it.
func (net *Network) Predict(X mat.Matrix, addBias bool) (*mat.Dense, error) {
	start := time.Now()
	defer func() { net.stats.PredictionTime += time.Since(start) }()

	p, err := net.withBias(X, addBias)
	if err != nil {
		return nil, err
	}
	return net.predict(p), nil
}

func (net *Network) withBias(X mat.Matrix, addBias bool) (*mat.Dense, error) {
	r, c := X.Dims()
	if r == 0 {
		return nil, shapeErrorf("no samples")
	}
	if addBias {
		c++
	}
	if c != net.inputWidth() {
		return nil, shapeErrorf("samples have %d columns including bias, want %d", c, net.inputWidth())
	}
	if addBias {
		return data.AddBias(X), nil
	}
	return mat.DenseCopyOf(X), nil
}

func (net *Network) predict(p *mat.Dense) *mat.Dense {
	for _, w := range net.weights {
		p = apply(net.activation.Activate, dot(p, w))
	}
	return p
}

// Loss is half the sum of squared differences between the predictions for X
// and y, over every sample and output unit. It is a sum, not a mean.
func (net *Network) Loss(X, y mat.Matrix, addBias bool) (float64, error) {
	start := time.Now()
	defer func() { net.stats.LossComputationTime += time.Since(start) }()

	p, err := net.withBias(X, addBias)
	if err != nil {
		return 0, err
	}
	if yr, _ := y.Dims(); yr != p.RawMatrix().Rows {
		return 0, shapeErrorf("%d samples but %d targets", p.RawMatrix().Rows, yr)
	}
	targets, err := broadcastTargets(y, net.outputWidth())
	if err != nil {
		return 0, err
	}
	return sumSquaredError(net.predict(p), targets), nil
}

func sumSquaredError(p, t *mat.Dense) float64 {
	diff := subtract(p, t).RawMatrix().Data
	return 0.5 * floats.Dot(diff, diff)
}

// Layers returns the layer widths.
func (net *Network) Layers() []int {
	return append([]int(nil), net.layers...)
}

// Weights returns copies of the weight matrices.
func (net *Network) Weights() []*mat.Dense {
	ws := make([]*mat.Dense, len(net.weights))
	for i, w := range net.weights {
		ws[i] = mat.DenseCopyOf(w)
	}
	return ws
}

func (net *Network) Alpha() float64 {
	return net.alpha
}

func (net *Network) Activation() Activation {
	return net.activation
}

// Stats returns the time spent in each stage since the network was built or
// the stats were last reset.
func (net *Network) Stats() utils.TimingStats {
	return net.stats
}

func (net *Network) ResetStats() {
	net.stats = utils.TimingStats{}
}

func (net *Network) String() string {
	widths := make([]string, len(net.layers))
	for i, l := range net.layers {
		widths[i] = strconv.Itoa(l)
	}
	return "NeuralNetwork:" + strings.Join(widths, "-")
}
