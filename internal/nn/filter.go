package nn

import (
	"fmt"

	"github.com/fern-ml/fern/internal/tensor"
)

// Filter holds one convolution kernel: a weight tensor of shape
// [filterHeight, filterWidth, inputChannels], a scalar bias, and their
// gradient accumulators.
//
// WeightGrad and BiasGrad hold the unscaled gradient of the loss with
// respect to the weights and bias. They are overwritten (not summed) by each
// backward pass of the owning layer; the layer scales them by the learning
// rate immediately before calling Update, at which point they represent the
// actual step taken.
type Filter struct {
	w      *tensor.Dense
	b      float64
	deltaW *tensor.Dense
	deltaB float64
}

// NewFilter creates a filter with initializer-seeded weights, zero bias, and
// zero gradients.
func NewFilter(height, width, channels int, init Initializer) *Filter {
	shape := tensor.Shape{height, width, channels}
	return &Filter{
		w:      init(shape),
		deltaW: tensor.Zeros(shape),
	}
}

// Weights returns the weight tensor.
func (f *Filter) Weights() *tensor.Dense {
	return f.w
}

// Bias returns the bias scalar.
func (f *Filter) Bias() float64 {
	return f.b
}

// SetWeights replaces the weight tensor. The shape must match.
func (f *Filter) SetWeights(w *tensor.Dense) {
	if !w.Shape().Equal(f.w.Shape()) {
		panic(fmt.Sprintf("filter: weight shape %v, want %v", w.Shape(), f.w.Shape()))
	}
	f.w = w
}

// SetBias replaces the bias scalar.
func (f *Filter) SetBias(b float64) {
	f.b = b
}

// WeightGrad returns the weight gradient accumulator.
func (f *Filter) WeightGrad() *tensor.Dense {
	return f.deltaW
}

// BiasGrad returns the bias gradient accumulator.
func (f *Filter) BiasGrad() float64 {
	return f.deltaB
}

// Update applies the accumulated step in place:
//
//	W ← W − deltaW
//	b ← b − deltaB
//
// The caller is responsible for having pre-scaled the gradients by the
// learning rate.
func (f *Filter) Update() {
	f.w.Sub(f.deltaW)
	f.b -= f.deltaB
}
