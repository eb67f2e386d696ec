package nn

import (
	"math"

	"github.com/fern-ml/fern/internal/tensor"
)

// Activator is an elementwise nonlinearity with its derivative.
//
// Forward applies the function to every element of a tensor. Backward
// evaluates the derivative at the given pre-activation input, not at the
// activated output; layers multiply its result into the gradient flowing
// backwards.
type Activator interface {
	Forward(t *tensor.Dense) *tensor.Dense
	Backward(t *tensor.Dense) *tensor.Dense
}

// apply maps f over t into a fresh tensor of the same shape.
func apply(t *tensor.Dense, f func(float64) float64) *tensor.Dense {
	out := tensor.Zeros(t.Shape())
	src := t.Data()
	dst := out.Data()
	for i, v := range src {
		dst[i] = f(v)
	}
	return out
}

// ReLU is the rectified linear unit: f(x) = max(0, x).
type ReLU struct{}

// NewReLU creates a new ReLU activator.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies f(x) = max(0, x) elementwise.
func (r *ReLU) Forward(t *tensor.Dense) *tensor.Dense {
	return apply(t, func(x float64) float64 {
		if x > 0 {
			return x
		}
		return 0
	})
}

// Backward evaluates the derivative: 1 where x > 0, else 0.
func (r *ReLU) Backward(t *tensor.Dense) *tensor.Dense {
	return apply(t, func(x float64) float64 {
		if x > 0 {
			return 1
		}
		return 0
	})
}

// Sigmoid is the logistic activation: f(x) = 1 / (1 + exp(-x)).
type Sigmoid struct{}

// NewSigmoid creates a new Sigmoid activator.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{}
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Forward applies the logistic function elementwise.
func (s *Sigmoid) Forward(t *tensor.Dense) *tensor.Dense {
	return apply(t, sigmoid)
}

// Backward evaluates the derivative f'(x) = f(x) * (1 - f(x)).
func (s *Sigmoid) Backward(t *tensor.Dense) *tensor.Dense {
	return apply(t, func(x float64) float64 {
		y := sigmoid(x)
		return y * (1 - y)
	})
}

// Tanh is the hyperbolic tangent activation.
type Tanh struct{}

// NewTanh creates a new Tanh activator.
func NewTanh() *Tanh {
	return &Tanh{}
}

// Forward applies tanh elementwise.
func (t *Tanh) Forward(x *tensor.Dense) *tensor.Dense {
	return apply(x, math.Tanh)
}

// Backward evaluates the derivative f'(x) = 1 - tanh(x)^2.
func (t *Tanh) Backward(x *tensor.Dense) *tensor.Dense {
	return apply(x, func(v float64) float64 {
		y := math.Tanh(v)
		return 1 - y*y
	})
}

// Identity passes values through unchanged. Useful for layers whose output
// feeds a loss directly and in gradient tests.
type Identity struct{}

// NewIdentity creates a new Identity activator.
func NewIdentity() *Identity {
	return &Identity{}
}

// Forward returns a copy of the input.
func (id *Identity) Forward(t *tensor.Dense) *tensor.Dense {
	return t.Clone()
}

// Backward returns a tensor of ones.
func (id *Identity) Backward(t *tensor.Dense) *tensor.Dense {
	return tensor.Full(t.Shape(), 1)
}
