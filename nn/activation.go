package nn

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Activation is an elementwise nonlinearity paired with its derivative.
// Derivative receives the activation's OUTPUT, not its input: the backward
// pass only has post-activation values cached.
type Activation interface {
	Activate(i, j int, x float64) float64
	Derivative(i, j int, a float64) float64
	fmt.Stringer
}

var activationLookup = map[string]Activation{
	"sigmoid": Sigmoid{},
	"relu":    ReLU{},
}

// ActivationByName resolves one of "sigmoid" or "relu".
func ActivationByName(name string) (Activation, error) {
	act, ok := activationLookup[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedActivation, "%q", name)
	}
	return act, nil
}

type Sigmoid struct{}

func (Sigmoid) Activate(i, j int, x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func (Sigmoid) Derivative(i, j int, a float64) float64 {
	return a * (1 - a)
}

func (Sigmoid) String() string {
	return "sigmoid"
}

type ReLU struct{}

func (ReLU) Activate(i, j int, x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

func (ReLU) Derivative(i, j int, a float64) float64 {
	if a > 0 {
		return 1
	}
	return 0
}

func (ReLU) String() string {
	return "relu"
}
