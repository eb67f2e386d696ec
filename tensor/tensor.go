// Copyright 2025 The Fern Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for Fern's dense tensors.
//
// Tensors are float64, row-major, and channel-last: rank-3 tensors have
// shape [height, width, channels], and rank-2 tensors are treated as
// single-channel by the convolution routines.
//
// Example:
//
//	x := tensor.Zeros(tensor.Shape{28, 28, 1})
//	y := tensor.Full(tensor.Shape{28, 28, 1}, 0.5)
//	x.Add(y) // elementwise, in place
package tensor

import (
	"github.com/fern-ml/fern/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{28, 28, 3} is a 28x28 image with 3 channels.
type Shape = tensor.Shape

// Dense is a dense float64 tensor with row-major, channel-last layout.
type Dense = tensor.Dense

// ErrInvalidRank reports a tensor whose rank is unsupported by an operation.
var ErrInvalidRank = tensor.ErrInvalidRank

// NewDense creates a zero-filled tensor, returning an error for invalid shapes.
func NewDense(shape Shape) (*Dense, error) {
	return tensor.NewDense(shape)
}

// Zeros creates a zero-filled tensor, panicking on an invalid shape.
func Zeros(shape Shape) *Dense {
	return tensor.Zeros(shape)
}

// Full creates a tensor with every element set to v.
func Full(shape Shape, v float64) *Dense {
	return tensor.Full(shape, v)
}

// FromSlice creates a tensor that adopts data as its backing storage.
func FromSlice(data []float64, shape Shape) (*Dense, error) {
	return tensor.FromSlice(data, shape)
}
