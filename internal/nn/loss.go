package nn

import (
	"fmt"

	"github.com/fern-ml/fern/internal/tensor"
)

// MSELoss computes mean squared error: mean((pred - target)^2).
//
// Backward returns the gradient of the loss with respect to the
// predictions, which a ConvLayer with an Identity activator can consume
// directly as its pre-activation output gradient.
type MSELoss struct{}

// NewMSELoss creates a new MSE loss.
func NewMSELoss() *MSELoss {
	return &MSELoss{}
}

// Forward returns mean((pred - target)^2).
func (m *MSELoss) Forward(pred, target *tensor.Dense) float64 {
	checkLossShapes(pred, target)
	p := pred.Data()
	t := target.Data()
	var sum float64
	for i := range p {
		d := p[i] - t[i]
		sum += d * d
	}
	return sum / float64(len(p))
}

// Backward returns dLoss/dPred = 2*(pred - target)/n.
func (m *MSELoss) Backward(pred, target *tensor.Dense) *tensor.Dense {
	checkLossShapes(pred, target)
	grad := tensor.Zeros(pred.Shape())
	p := pred.Data()
	t := target.Data()
	g := grad.Data()
	n := float64(len(p))
	for i := range p {
		g[i] = 2 * (p[i] - t[i]) / n
	}
	return grad
}

func checkLossShapes(pred, target *tensor.Dense) {
	if !pred.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("mse: shape mismatch %v vs %v", pred.Shape(), target.Shape()))
	}
}
