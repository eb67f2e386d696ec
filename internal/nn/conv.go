// Package nn implements the layers of a small hand-written neural network:
//   - ConvLayer: 2-D convolution with explicit forward, backward, and update
//   - Filter: convolution weights, bias, and their gradient accumulators
//   - Activator: elementwise nonlinearities (ReLU, Sigmoid, Tanh, Identity)
//   - Initializer: weight initialization schemes (Xavier, He)
//   - MSELoss: mean squared error with its gradient
//
// Layers process one example per call; batching belongs to the caller.
package nn

import (
	"errors"
	"fmt"

	"github.com/fern-ml/fern/internal/kernel"
	"github.com/fern-ml/fern/internal/tensor"
)

// ErrInvalidDimension reports construction parameters that fail validation.
var ErrInvalidDimension = errors.New("nn: invalid dimension")

// ConvConfig holds the construction parameters for a ConvLayer.
//
// Zero values pick sensible defaults: stride (1, 1), no padding, ReLU
// activation, Xavier initialization, learning rate 0.01.
type ConvConfig struct {
	InputHeight   int
	InputWidth    int
	InputChannels int

	FilterHeight int
	FilterWidth  int
	FilterCount  int

	Padding [2]int // (height pad, width pad)
	Stride  [2]int // (height stride, width stride)

	Activator    Activator
	Initializer  Initializer
	LearningRate float64
}

// ConvLayer is a 2-D convolutional layer over channel-last tensors.
//
// Forward consumes one [inputHeight, inputWidth, inputChannels] example and
// produces [outputHeight, outputWidth, filterCount], where
//
//	outputHeight = (inputHeight + 2*padH - filterHeight)/strideH + 1
//
// and symmetrically for the width.
//
// Calls must follow the sequence Forward -> Backward -> Update for one
// training step: Forward retains the (padded) input that Backward consumes,
// and Backward fills the gradient accumulators that Update applies. The
// layer performs no locking; concurrent use of one instance must be
// serialized by the caller.
type ConvLayer struct {
	inputHeight   int
	inputWidth    int
	inputChannels int
	filterHeight  int
	filterWidth   int
	filterCount   int
	outputHeight  int
	outputWidth   int
	padding       [2]int
	stride        [2]int

	filters   []*Filter
	activator Activator
	lr        float64

	input       *tensor.Dense // last forward input, consumed by Backward
	paddedInput *tensor.Dense
	output      *tensor.Dense
	delta       *tensor.Dense // gradient w.r.t. the layer input
	deltaBuf    *tensor.Dense // per-filter contribution scratch
}

// NewConvLayer validates cfg and constructs the layer, seeding every
// filter through the initializer.
func NewConvLayer(cfg ConvConfig) (*ConvLayer, error) {
	cfg = withDefaults(cfg)
	if err := checkGeometry(cfg); err != nil {
		return nil, err
	}

	outH := outputSize(cfg.InputHeight, cfg.FilterHeight, cfg.Stride[0], cfg.Padding[0])
	outW := outputSize(cfg.InputWidth, cfg.FilterWidth, cfg.Stride[1], cfg.Padding[1])
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("conv: output size %dx%d: filter exceeds padded input: %w",
			outH, outW, ErrInvalidDimension)
	}

	filters := make([]*Filter, cfg.FilterCount)
	for i := range filters {
		filters[i] = NewFilter(cfg.FilterHeight, cfg.FilterWidth, cfg.InputChannels, cfg.Initializer)
	}

	return &ConvLayer{
		inputHeight:   cfg.InputHeight,
		inputWidth:    cfg.InputWidth,
		inputChannels: cfg.InputChannels,
		filterHeight:  cfg.FilterHeight,
		filterWidth:   cfg.FilterWidth,
		filterCount:   cfg.FilterCount,
		outputHeight:  outH,
		outputWidth:   outW,
		padding:       cfg.Padding,
		stride:        cfg.Stride,
		filters:       filters,
		activator:     cfg.Activator,
		lr:            cfg.LearningRate,
		delta:         tensor.Zeros(tensor.Shape{cfg.InputHeight, cfg.InputWidth, cfg.InputChannels}),
		deltaBuf:      tensor.Zeros(tensor.Shape{cfg.InputHeight, cfg.InputWidth, cfg.InputChannels}),
	}, nil
}

func withDefaults(cfg ConvConfig) ConvConfig {
	if cfg.Stride == ([2]int{}) {
		cfg.Stride = [2]int{1, 1}
	}
	if cfg.Activator == nil {
		cfg.Activator = NewReLU()
	}
	if cfg.Initializer == nil {
		cfg.Initializer = XavierUniform
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = 0.01
	}
	return cfg
}

// checkGeometry validates construction parameters once; the layer assumes
// valid geometry on every subsequent call.
func checkGeometry(cfg ConvConfig) error {
	if cfg.InputHeight <= 0 || cfg.InputWidth <= 0 || cfg.InputChannels <= 0 {
		return fmt.Errorf("conv: input %dx%dx%d: %w",
			cfg.InputHeight, cfg.InputWidth, cfg.InputChannels, ErrInvalidDimension)
	}
	if cfg.FilterHeight <= 0 || cfg.FilterWidth <= 0 || cfg.FilterCount <= 0 {
		return fmt.Errorf("conv: filter %dx%d count %d: %w",
			cfg.FilterHeight, cfg.FilterWidth, cfg.FilterCount, ErrInvalidDimension)
	}
	if cfg.Padding[0] < 0 || cfg.Padding[1] < 0 {
		return fmt.Errorf("conv: padding %v: %w", cfg.Padding, ErrInvalidDimension)
	}
	if cfg.Stride[0] < 1 || cfg.Stride[1] < 1 {
		return fmt.Errorf("conv: stride %v must be >= 1: %w", cfg.Stride, ErrInvalidDimension)
	}
	if cfg.FilterHeight > cfg.InputHeight+2*cfg.Padding[0] ||
		cfg.FilterWidth > cfg.InputWidth+2*cfg.Padding[1] {
		return fmt.Errorf("conv: filter %dx%d larger than padded input: %w",
			cfg.FilterHeight, cfg.FilterWidth, ErrInvalidDimension)
	}
	if cfg.LearningRate <= 0 {
		return fmt.Errorf("conv: learning rate %v must be positive: %w",
			cfg.LearningRate, ErrInvalidDimension)
	}
	return nil
}

func outputSize(inputLen, filterLen, stride, padding int) int {
	return (inputLen+2*padding-filterLen)/stride + 1
}

// Forward runs the layer on one example of shape
// [inputHeight, inputWidth, inputChannels] and returns the activated output
// of shape [outputHeight, outputWidth, filterCount]. The input and its
// padded form are retained for the subsequent Backward call.
func (l *ConvLayer) Forward(input *tensor.Dense) (*tensor.Dense, error) {
	l.input = input
	padded, err := kernel.Pad(input, l.padding[0], l.padding[1])
	if err != nil {
		return nil, err
	}
	l.paddedInput = padded

	preAct := tensor.Zeros(tensor.Shape{l.outputHeight, l.outputWidth, l.filterCount})
	for k, f := range l.filters {
		if err := kernel.Correlate(padded, f.w, preAct, k, f.b, l.stride[0], l.stride[1]); err != nil {
			return nil, err
		}
	}

	l.output = l.activator.Forward(preAct)
	return l.output, nil
}

// Backward propagates preDelta, the gradient of the loss with respect to
// this layer's pre-activation output ([outputHeight, outputWidth,
// filterCount]), and returns the gradient with respect to the layer input.
// As a side effect it overwrites every filter's weight and bias gradients.
//
// The strided forward pass is undone by zero-expanding preDelta, then
// padding it so that a stride-1 correlation against each 180-degree rotated
// filter reproduces the input's spatial extent. The weight gradient is the
// correlation of the retained padded input with the expanded map.
func (l *ConvLayer) Backward(preDelta *tensor.Dense) (*tensor.Dense, error) {
	expanded, err := kernel.Expand(preDelta, l.stride[0], l.stride[1])
	if err != nil {
		return nil, err
	}
	eh, ew, _ := expanded.Dims3()

	// Solve expandedHeight + 2*pad - filterHeight + 1 = inputHeight for pad,
	// clamped to zero when the forward padding already covers it.
	padH := max(0, (l.inputHeight+l.filterHeight-eh-1)/2)
	padW := max(0, (l.inputWidth+l.filterWidth-ew-1)/2)
	paddedDelta, err := kernel.Pad(expanded, padH, padW)
	if err != nil {
		return nil, err
	}

	l.delta.Zero()
	for k, f := range l.filters {
		rot := kernel.Rot180(f.w)
		deltaPlane := paddedDelta.Plane(k)
		expandedPlane := expanded.Plane(k)

		l.deltaBuf.Zero()
		for c := 0; c < l.inputChannels; c++ {
			if err := kernel.Correlate(deltaPlane, rot.Plane(c), l.deltaBuf, c, 0, 1, 1); err != nil {
				return nil, err
			}
			if err := kernel.Correlate(l.paddedInput.Plane(c), expandedPlane, f.deltaW, c, 0, 1, 1); err != nil {
				return nil, err
			}
		}
		f.deltaB = expandedPlane.Sum()
		l.delta.Add(l.deltaBuf)
	}

	l.delta.Mul(l.activator.Backward(l.input))
	return l.delta, nil
}

// Update scales every filter's gradients by the learning rate and applies
// the gradient-descent step.
func (l *ConvLayer) Update() {
	for _, f := range l.filters {
		f.deltaW.Scale(l.lr)
		f.deltaB *= l.lr
		f.Update()
	}
}

// Weights returns the weight tensor of each filter, in filter order.
func (l *ConvLayer) Weights() []*tensor.Dense {
	ws := make([]*tensor.Dense, len(l.filters))
	for i, f := range l.filters {
		ws[i] = f.w
	}
	return ws
}

// Biases returns the bias of each filter, in filter order.
func (l *ConvLayer) Biases() []float64 {
	bs := make([]float64, len(l.filters))
	for i, f := range l.filters {
		bs[i] = f.b
	}
	return bs
}

// Filters returns the layer's filters, in order.
func (l *ConvLayer) Filters() []*Filter {
	return l.filters
}

// Delta returns the input gradient computed by the last Backward call.
func (l *ConvLayer) Delta() *tensor.Dense {
	return l.delta
}

// OutputShape returns [outputHeight, outputWidth, filterCount].
func (l *ConvLayer) OutputShape() tensor.Shape {
	return tensor.Shape{l.outputHeight, l.outputWidth, l.filterCount}
}

// InputShape returns [inputHeight, inputWidth, inputChannels].
func (l *ConvLayer) InputShape() tensor.Shape {
	return tensor.Shape{l.inputHeight, l.inputWidth, l.inputChannels}
}

// Stride returns the (height, width) stride.
func (l *ConvLayer) Stride() [2]int {
	return l.stride
}

// Padding returns the (height, width) zero padding.
func (l *ConvLayer) Padding() [2]int {
	return l.padding
}

// LearningRate returns the layer's learning rate.
func (l *ConvLayer) LearningRate() float64 {
	return l.lr
}
