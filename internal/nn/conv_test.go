package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fern-ml/fern/internal/tensor"
)

// identityLayer builds a layer with deterministic all-ones weights, zero
// bias, and no nonlinearity, so outputs and gradients can be computed by
// hand.
func identityLayer(t *testing.T, cfg ConvConfig) *ConvLayer {
	t.Helper()
	cfg.Activator = NewIdentity()
	if cfg.Initializer == nil {
		cfg.Initializer = Constant(1)
	}
	layer, err := NewConvLayer(cfg)
	require.NoError(t, err)
	return layer
}

func TestNewConvLayer_Validation(t *testing.T) {
	base := ConvConfig{
		InputHeight: 4, InputWidth: 4, InputChannels: 1,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 1,
	}

	tests := []struct {
		name   string
		mutate func(*ConvConfig)
	}{
		{"zero input height", func(c *ConvConfig) { c.InputHeight = 0 }},
		{"negative input width", func(c *ConvConfig) { c.InputWidth = -3 }},
		{"zero channels", func(c *ConvConfig) { c.InputChannels = 0 }},
		{"zero filter count", func(c *ConvConfig) { c.FilterCount = 0 }},
		{"zero filter height", func(c *ConvConfig) { c.FilterHeight = 0 }},
		{"negative padding", func(c *ConvConfig) { c.Padding = [2]int{-1, 0} }},
		{"zero stride component", func(c *ConvConfig) { c.Stride = [2]int{0, 2} }},
		{"filter larger than padded input", func(c *ConvConfig) { c.FilterHeight = 7 }},
		{"negative learning rate", func(c *ConvConfig) { c.LearningRate = -0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			_, err := NewConvLayer(cfg)
			require.ErrorIs(t, err, ErrInvalidDimension)
		})
	}
}

func TestNewConvLayer_Defaults(t *testing.T) {
	layer, err := NewConvLayer(ConvConfig{
		InputHeight: 4, InputWidth: 4, InputChannels: 1,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, [2]int{1, 1}, layer.Stride())
	assert.Equal(t, [2]int{0, 0}, layer.Padding())
	assert.InDelta(t, 0.01, layer.LearningRate(), 0)
	assert.IsType(t, &ReLU{}, layer.activator)
}

func TestConvLayer_OutputShapeInvariant(t *testing.T) {
	tests := []struct {
		inH, inW, inC int
		fH, fW, fNum  int
		pad, stride   [2]int
		wantH, wantW  int
	}{
		{28, 28, 1, 5, 5, 6, [2]int{0, 0}, [2]int{1, 1}, 24, 24},
		{28, 28, 1, 3, 3, 4, [2]int{1, 1}, [2]int{1, 1}, 28, 28},
		{28, 28, 3, 3, 3, 2, [2]int{0, 0}, [2]int{2, 2}, 13, 13},
		{4, 4, 1, 2, 2, 1, [2]int{0, 0}, [2]int{2, 2}, 2, 2},
		{5, 7, 2, 3, 2, 3, [2]int{1, 0}, [2]int{2, 3}, 3, 2},
	}

	for _, tt := range tests {
		layer := identityLayer(t, ConvConfig{
			InputHeight: tt.inH, InputWidth: tt.inW, InputChannels: tt.inC,
			FilterHeight: tt.fH, FilterWidth: tt.fW, FilterCount: tt.fNum,
			Padding: tt.pad, Stride: tt.stride,
		})

		want := tensor.Shape{tt.wantH, tt.wantW, tt.fNum}
		require.True(t, layer.OutputShape().Equal(want),
			"OutputShape = %v, want %v", layer.OutputShape(), want)

		out, err := layer.Forward(tensor.Zeros(tensor.Shape{tt.inH, tt.inW, tt.inC}))
		require.NoError(t, err)
		assert.True(t, out.Shape().Equal(want), "Forward shape = %v, want %v", out.Shape(), want)
	}
}

func TestConvLayer_ForwardKnownSmallConvolution(t *testing.T) {
	// All-ones 3x3x1 input against an all-ones 2x2x1 filter, bias 0,
	// stride (1,1), no padding: every output cell is 4.
	layer := identityLayer(t, ConvConfig{
		InputHeight: 3, InputWidth: 3, InputChannels: 1,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 1,
	})

	out, err := layer.Forward(tensor.Full(tensor.Shape{3, 3, 1}, 1))
	require.NoError(t, err)
	for _, v := range out.Data() {
		assert.Equal(t, 4.0, v)
	}
}

func TestConvLayer_ForwardWithPadding(t *testing.T) {
	layer := identityLayer(t, ConvConfig{
		InputHeight: 2, InputWidth: 2, InputChannels: 1,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 1,
		Padding: [2]int{1, 1},
	})

	out, err := layer.Forward(tensor.Full(tensor.Shape{2, 2, 1}, 1))
	require.NoError(t, err)

	want := []float64{1, 2, 1, 2, 4, 2, 1, 2, 1}
	assert.Equal(t, want, out.Data())
}

func TestConvLayer_ForwardBiasAndFilterOrder(t *testing.T) {
	layer := identityLayer(t, ConvConfig{
		InputHeight: 2, InputWidth: 2, InputChannels: 1,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 2,
	})
	layer.Filters()[0].SetBias(10)
	layer.Filters()[1].SetBias(20)

	out, err := layer.Forward(tensor.Full(tensor.Shape{2, 2, 1}, 1))
	require.NoError(t, err)

	// Single 2x2 window of ones sums to 4 for both filters.
	assert.Equal(t, 14.0, out.At(0, 0, 0))
	assert.Equal(t, 24.0, out.At(0, 0, 1))
}

func TestConvLayer_ForwardMultiChannel(t *testing.T) {
	layer := identityLayer(t, ConvConfig{
		InputHeight: 3, InputWidth: 3, InputChannels: 2,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 1,
	})

	out, err := layer.Forward(tensor.Full(tensor.Shape{3, 3, 2}, 1))
	require.NoError(t, err)
	for _, v := range out.Data() {
		assert.Equal(t, 8.0, v, "2x2 window summed across 2 channels")
	}
}

func TestConvLayer_ForwardAppliesActivator(t *testing.T) {
	cfg := ConvConfig{
		InputHeight: 3, InputWidth: 3, InputChannels: 1,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 1,
		Activator:   NewReLU(),
		Initializer: Constant(-1),
	}
	layer, err := NewConvLayer(cfg)
	require.NoError(t, err)

	out, err := layer.Forward(tensor.Full(tensor.Shape{3, 3, 1}, 1))
	require.NoError(t, err)
	for _, v := range out.Data() {
		assert.Equal(t, 0.0, v, "negative pre-activations must be clamped")
	}
}

func TestConvLayer_ForwardRejectsBadRank(t *testing.T) {
	layer := identityLayer(t, ConvConfig{
		InputHeight: 3, InputWidth: 3, InputChannels: 1,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 1,
		Padding: [2]int{1, 1},
	})

	_, err := layer.Forward(tensor.Zeros(tensor.Shape{1, 3, 3, 1}))
	require.ErrorIs(t, err, tensor.ErrInvalidRank)
}

func TestConvLayer_BiasGradientIsSumOfSensitivityPlane(t *testing.T) {
	layer := identityLayer(t, ConvConfig{
		InputHeight: 4, InputWidth: 4, InputChannels: 1,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 2,
	})
	_, err := layer.Forward(tensor.Full(tensor.Shape{4, 4, 1}, 1))
	require.NoError(t, err)

	preDelta := tensor.Zeros(tensor.Shape{3, 3, 2})
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			preDelta.Set(i, j, 0, 1)
			preDelta.Set(i, j, 1, float64(i*3+j))
		}
	}

	_, err = layer.Backward(preDelta)
	require.NoError(t, err)

	assert.InDelta(t, 9.0, layer.Filters()[0].BiasGrad(), 1e-12)
	assert.InDelta(t, 36.0, layer.Filters()[1].BiasGrad(), 1e-12)
}

func TestConvLayer_BiasGradientWithStride(t *testing.T) {
	// Zero-insertion does not change the sum, so the strided bias gradient
	// still equals the sum of the raw sensitivity plane.
	layer := identityLayer(t, ConvConfig{
		InputHeight: 4, InputWidth: 4, InputChannels: 1,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 1,
		Stride: [2]int{2, 2},
	})
	_, err := layer.Forward(tensor.Full(tensor.Shape{4, 4, 1}, 1))
	require.NoError(t, err)

	preDelta, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2, 1})
	require.NoError(t, err)

	_, err = layer.Backward(preDelta)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, layer.Filters()[0].BiasGrad(), 1e-12)
}

func TestConvLayer_BackwardWeightGradientKnownValues(t *testing.T) {
	// Ones input, ones sensitivity map: each weight gradient entry counts
	// the input cells its weight touched, which is the full 2x2 output.
	layer := identityLayer(t, ConvConfig{
		InputHeight: 3, InputWidth: 3, InputChannels: 1,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 1,
	})
	_, err := layer.Forward(tensor.Full(tensor.Shape{3, 3, 1}, 1))
	require.NoError(t, err)

	_, err = layer.Backward(tensor.Full(tensor.Shape{2, 2, 1}, 1))
	require.NoError(t, err)

	for _, g := range layer.Filters()[0].WeightGrad().Data() {
		assert.InDelta(t, 4.0, g, 1e-12)
	}
}

func TestConvLayer_BackwardShapes(t *testing.T) {
	layer := identityLayer(t, ConvConfig{
		InputHeight: 5, InputWidth: 5, InputChannels: 2,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 3,
		Stride: [2]int{2, 2},
	})

	_, err := layer.Forward(tensor.Full(tensor.Shape{5, 5, 2}, 0.5))
	require.NoError(t, err)

	delta, err := layer.Backward(tensor.Full(layer.OutputShape(), 1))
	require.NoError(t, err)

	assert.True(t, delta.Shape().Equal(tensor.Shape{5, 5, 2}), "delta shape = %v", delta.Shape())
	assert.Same(t, delta, layer.Delta())
	for _, f := range layer.Filters() {
		assert.True(t, f.WeightGrad().Shape().Equal(tensor.Shape{2, 2, 2}))
	}
}

func TestConvLayer_BackwardDoesNotAccumulateAcrossCalls(t *testing.T) {
	layer := identityLayer(t, ConvConfig{
		InputHeight: 4, InputWidth: 4, InputChannels: 1,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 1,
	})
	_, err := layer.Forward(tensor.Full(tensor.Shape{4, 4, 1}, 1))
	require.NoError(t, err)

	preDelta := tensor.Full(tensor.Shape{3, 3, 1}, 1)
	first, err := layer.Backward(preDelta)
	require.NoError(t, err)
	snapshot := first.Clone()

	second, err := layer.Backward(preDelta)
	require.NoError(t, err)

	assert.True(t, second.EqualApprox(snapshot, 1e-12),
		"repeated backward with the same sensitivity map must not accumulate")
	assert.InDelta(t, 9.0, layer.Filters()[0].BiasGrad(), 1e-12,
		"bias gradient must be overwritten, not summed")
}

func TestConvLayer_GradientCheckWeights(t *testing.T) {
	layer, input, target, loss := gradientCheckSetup(t)

	out, err := layer.Forward(input)
	require.NoError(t, err)
	_, err = layer.Backward(loss.Backward(out, target))
	require.NoError(t, err)

	analytic := layer.Filters()[0].WeightGrad().Clone()
	weights := layer.Filters()[0].Weights().Data()

	const eps = 1e-6
	for i := range weights {
		orig := weights[i]

		weights[i] = orig + eps
		outPlus, err := layer.Forward(input)
		require.NoError(t, err)
		lossPlus := loss.Forward(outPlus, target)

		weights[i] = orig - eps
		outMinus, err := layer.Forward(input)
		require.NoError(t, err)
		lossMinus := loss.Forward(outMinus, target)

		weights[i] = orig

		fd := (lossPlus - lossMinus) / (2 * eps)
		assert.InDelta(t, fd, analytic.Data()[i], 1e-4,
			"weight %d: analytic %v vs finite difference %v", i, analytic.Data()[i], fd)
	}
}

func TestConvLayer_GradientCheckInput(t *testing.T) {
	layer, input, target, loss := gradientCheckSetup(t)

	out, err := layer.Forward(input)
	require.NoError(t, err)
	delta, err := layer.Backward(loss.Backward(out, target))
	require.NoError(t, err)
	analytic := delta.Clone()

	data := input.Data()
	const eps = 1e-6
	for i := range data {
		orig := data[i]

		data[i] = orig + eps
		outPlus, err := layer.Forward(input)
		require.NoError(t, err)
		lossPlus := loss.Forward(outPlus, target)

		data[i] = orig - eps
		outMinus, err := layer.Forward(input)
		require.NoError(t, err)
		lossMinus := loss.Forward(outMinus, target)

		data[i] = orig

		fd := (lossPlus - lossMinus) / (2 * eps)
		assert.InDelta(t, fd, analytic.Data()[i], 1e-4,
			"input %d: analytic %v vs finite difference %v", i, analytic.Data()[i], fd)
	}
}

// gradientCheckSetup builds a small deterministic layer with an identity
// activation, an input with distinct values, and an MSE loss against a zero
// target.
func gradientCheckSetup(t *testing.T) (*ConvLayer, *tensor.Dense, *tensor.Dense, *MSELoss) {
	t.Helper()

	layer := identityLayer(t, ConvConfig{
		InputHeight: 4, InputWidth: 4, InputChannels: 1,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 1,
		Initializer: ZeroInit,
	})
	w, err := tensor.FromSlice([]float64{0.3, -0.1, 0.2, 0.05}, tensor.Shape{2, 2, 1})
	require.NoError(t, err)
	layer.Filters()[0].SetWeights(w)

	input := tensor.Zeros(tensor.Shape{4, 4, 1})
	for i, d := 0, input.Data(); i < len(d); i++ {
		d[i] = 0.1*float64(i) - 0.7
	}

	target := tensor.Zeros(tensor.Shape{3, 3, 1})
	return layer, input, target, NewMSELoss()
}

func TestConvLayer_UpdateAppliesScaledStep(t *testing.T) {
	layer := identityLayer(t, ConvConfig{
		InputHeight: 3, InputWidth: 3, InputChannels: 1,
		FilterHeight: 2, FilterWidth: 2, FilterCount: 1,
		LearningRate: 0.1,
	})
	_, err := layer.Forward(tensor.Full(tensor.Shape{3, 3, 1}, 1))
	require.NoError(t, err)
	_, err = layer.Backward(tensor.Full(tensor.Shape{2, 2, 1}, 1))
	require.NoError(t, err)

	// Weight gradient is 4 everywhere, bias gradient 4; with lr 0.1 the
	// step is 0.4.
	layer.Update()
	for _, w := range layer.Weights()[0].Data() {
		assert.InDelta(t, 0.6, w, 1e-12)
	}
	assert.InDelta(t, -0.4, layer.Biases()[0], 1e-12)
}

func TestConvLayer_UpdateDirection(t *testing.T) {
	layer, input, target, loss := gradientCheckSetup(t)

	out, err := layer.Forward(input)
	require.NoError(t, err)
	_, err = layer.Backward(loss.Backward(out, target))
	require.NoError(t, err)

	grads := layer.Filters()[0].WeightGrad().Clone()
	before := layer.Weights()[0].Clone()
	layer.Update()
	after := layer.Weights()[0]

	decreased := false
	for i, g := range grads.Data() {
		if g > 0 {
			assert.Less(t, after.Data()[i], before.Data()[i],
				"weight with positive gradient must strictly decrease")
			decreased = true
		}
	}
	require.True(t, decreased, "setup must produce at least one positive weight gradient")
}

func TestConvLayer_TrainingStepReducesLoss(t *testing.T) {
	layer, input, target, loss := gradientCheckSetup(t)

	out, err := layer.Forward(input)
	require.NoError(t, err)
	before := loss.Forward(out, target)

	for i := 0; i < 5; i++ {
		out, err = layer.Forward(input)
		require.NoError(t, err)
		_, err = layer.Backward(loss.Backward(out, target))
		require.NoError(t, err)
		layer.Update()
	}

	out, err = layer.Forward(input)
	require.NoError(t, err)
	after := loss.Forward(out, target)
	assert.Less(t, after, before, "gradient descent must reduce the loss on a fixed example")
}

func TestFilter_UpdateAppliesUnscaledStep(t *testing.T) {
	f := NewFilter(2, 2, 1, Constant(1))
	step, err := tensor.FromSlice([]float64{0.1, 0.2, 0.3, 0.4}, tensor.Shape{2, 2, 1})
	require.NoError(t, err)
	f.deltaW = step
	f.deltaB = 0.5

	f.Update()

	want := []float64{0.9, 0.8, 0.7, 0.6}
	for i, w := range f.Weights().Data() {
		assert.InDelta(t, want[i], w, 1e-12)
	}
	assert.InDelta(t, -0.5, f.Bias(), 1e-12)
}
