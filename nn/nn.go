// Copyright 2025 The Fern Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for Fern's neural network layers.
//
// Example:
//
//	layer, err := nn.NewConvLayer(nn.ConvConfig{
//	    InputHeight: 28, InputWidth: 28, InputChannels: 1,
//	    FilterHeight: 5, FilterWidth: 5, FilterCount: 6,
//	    Activator:    nn.NewReLU(),
//	    LearningRate: 0.05,
//	})
//	if err != nil {
//	    return err
//	}
//	out, err := layer.Forward(example)       // one example per call
//	delta, err := layer.Backward(outputGrad) // fills weight/bias gradients
//	layer.Update()                           // gradient-descent step
package nn

import (
	"github.com/fern-ml/fern/internal/nn"
	"github.com/fern-ml/fern/internal/tensor"
)

// ErrInvalidDimension reports construction parameters that fail validation.
var ErrInvalidDimension = nn.ErrInvalidDimension

// Activator is an elementwise nonlinearity with its derivative.
type Activator = nn.Activator

// ReLU is the rectified linear unit activation.
type ReLU = nn.ReLU

// NewReLU creates a new ReLU activator.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// Sigmoid is the logistic activation.
type Sigmoid = nn.Sigmoid

// NewSigmoid creates a new Sigmoid activator.
func NewSigmoid() *Sigmoid {
	return nn.NewSigmoid()
}

// Tanh is the hyperbolic tangent activation.
type Tanh = nn.Tanh

// NewTanh creates a new Tanh activator.
func NewTanh() *Tanh {
	return nn.NewTanh()
}

// Identity passes values through unchanged.
type Identity = nn.Identity

// NewIdentity creates a new Identity activator.
func NewIdentity() *Identity {
	return nn.NewIdentity()
}

// Initializer produces an initial weight tensor for a requested shape.
type Initializer = nn.Initializer

// XavierUniform initializes weights from a Glorot uniform distribution.
func XavierUniform(shape tensor.Shape) *tensor.Dense {
	return nn.XavierUniform(shape)
}

// HeNormal initializes weights from a He normal distribution.
func HeNormal(shape tensor.Shape) *tensor.Dense {
	return nn.HeNormal(shape)
}

// ZeroInit initializes weights to zero.
func ZeroInit(shape tensor.Shape) *tensor.Dense {
	return nn.ZeroInit(shape)
}

// Constant returns an initializer that fills every weight with v.
func Constant(v float64) Initializer {
	return nn.Constant(v)
}

// Filter holds one convolution kernel's weights, bias, and gradients.
type Filter = nn.Filter

// ConvLayer is a 2-D convolutional layer over channel-last tensors.
type ConvLayer = nn.ConvLayer

// ConvConfig holds the construction parameters for a ConvLayer.
type ConvConfig = nn.ConvConfig

// NewConvLayer validates the configuration and constructs the layer.
func NewConvLayer(cfg ConvConfig) (*ConvLayer, error) {
	return nn.NewConvLayer(cfg)
}

// MSELoss computes mean squared error and its gradient.
type MSELoss = nn.MSELoss

// NewMSELoss creates a new MSE loss.
func NewMSELoss() *MSELoss {
	return nn.NewMSELoss()
}
