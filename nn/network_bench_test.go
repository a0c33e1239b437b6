package nn

import (
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func benchNetwork(b *testing.B) *Network {
	net, err := New(Config{Layers: []int{784, 100, 10}, Alpha: 0.02, Activation: "sigmoid", Seed: 1})
	if err != nil {
		b.Fatal(err)
	}
	return net
}

func randomInput(n int) []float64 {
	r := rand.New(rand.NewSource(2))
	x := make([]float64, n+1)
	for i := 0; i < n; i++ {
		x[i] = r.Float64()
	}
	x[n] = 1
	return x
}

func BenchmarkForwardMNIST(b *testing.B) {
	net := benchNetwork(b)
	x := randomInput(784)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = net.Forward(x)
	}
}

func BenchmarkTrainStepMNIST(b *testing.B) {
	net := benchNetwork(b)
	x := randomInput(784)
	y := make([]float64, 10)
	y[3] = 1
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		A, _ := net.Forward(x)
		_ = net.Backward(A, y)
	}
}

func BenchmarkPredictMNIST(b *testing.B) {
	net := benchNetwork(b)
	X := mat.NewDense(100, 784, nil)
	for i := 0; i < 100; i++ {
		X.SetRow(i, randomInput(784)[:784])
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = net.Predict(X, true)
	}
}
