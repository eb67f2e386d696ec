package nn

import (
	"math"
	"math/rand"

	"github.com/fern-ml/fern/internal/tensor"
)

// Initializer produces an initial weight tensor for a requested shape.
// It is called once per filter at layer construction.
type Initializer func(shape tensor.Shape) *tensor.Dense

// XavierUniform initializes weights from a uniform distribution
// U(-bound, bound) with bound = sqrt(6 / (fan_in + fan_out)).
//
// For a filter shape [h, w, c] both fans are taken as h*w*c, which keeps the
// activation variance stable across layers sharing the same filter geometry.
func XavierUniform(shape tensor.Shape) *tensor.Dense {
	fan := shape.NumElements()
	bound := math.Sqrt(6.0 / float64(fan+fan))

	t := tensor.Zeros(shape)
	data := t.Data()
	for i := range data {
		//nolint:gosec // math/rand is fine for weight initialization
		data[i] = (rand.Float64()*2.0 - 1.0) * bound
	}
	return t
}

// HeNormal initializes weights from N(0, sqrt(2 / fan_in)), the common
// choice in front of ReLU activations.
func HeNormal(shape tensor.Shape) *tensor.Dense {
	std := math.Sqrt(2.0 / float64(shape.NumElements()))

	t := tensor.Zeros(shape)
	data := t.Data()
	for i := range data {
		//nolint:gosec // math/rand is fine for weight initialization
		data[i] = rand.NormFloat64() * std
	}
	return t
}

// ZeroInit initializes weights to zero.
func ZeroInit(shape tensor.Shape) *tensor.Dense {
	return tensor.Zeros(shape)
}

// Constant returns an initializer that fills every weight with v.
// Mostly useful in tests where deterministic weights are needed.
func Constant(v float64) Initializer {
	return func(shape tensor.Shape) *tensor.Dense {
		return tensor.Full(shape, v)
	}
}
