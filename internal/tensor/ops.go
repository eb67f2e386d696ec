package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Add accumulates other into t elementwise: t += other.
func (t *Dense) Add(other *Dense) {
	t.checkSameShape("Add", other)
	floats.Add(t.data, other.data)
}

// Sub subtracts other from t elementwise: t -= other.
func (t *Dense) Sub(other *Dense) {
	t.checkSameShape("Sub", other)
	floats.Sub(t.data, other.data)
}

// Mul multiplies t by other elementwise: t *= other.
func (t *Dense) Mul(other *Dense) {
	t.checkSameShape("Mul", other)
	floats.Mul(t.data, other.data)
}

// Scale multiplies every element by v: t *= v.
func (t *Dense) Scale(v float64) {
	floats.Scale(v, t.data)
}

// Sum returns the sum of all elements.
func (t *Dense) Sum() float64 {
	return floats.Sum(t.data)
}

func (t *Dense) checkSameShape(op string, other *Dense) {
	if !t.shape.Equal(other.shape) {
		panic(fmt.Sprintf("tensor: %s shape mismatch %v vs %v", op, t.shape, other.shape))
	}
}
