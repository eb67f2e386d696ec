// Copyright 2025 The Fern Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernel provides the public API for Fern's convolution primitives:
// zero padding, strided cross-correlation, sensitivity-map expansion, and
// 180-degree filter rotation.
//
// These are the building blocks nn.ConvLayer is assembled from; they are
// exported for callers that want to compose convolution arithmetic directly.
package kernel

import (
	"github.com/fern-ml/fern/internal/kernel"
	"github.com/fern-ml/fern/internal/tensor"
)

// Pad surrounds t with a zero border of padH rows and padW columns.
// With (0, 0) padding the input is returned unchanged.
func Pad(t *tensor.Dense, padH, padW int) (*tensor.Dense, error) {
	return kernel.Pad(t, padH, padW)
}

// Correlate computes a strided cross-correlation of in against filt plus
// bias into channel outCh of the caller-supplied output buffer.
func Correlate(in, filt, out *tensor.Dense, outCh int, bias float64, strideH, strideW int) error {
	return kernel.Correlate(in, filt, out, outCh, bias, strideH, strideW)
}

// Expand reinserts the zero rows and columns removed by a strided
// convolution. With stride (1, 1) this is the identity.
func Expand(m *tensor.Dense, strideH, strideW int) (*tensor.Dense, error) {
	return kernel.Expand(m, strideH, strideW)
}

// Rot180 returns t with both spatial axes reversed within each channel plane.
func Rot180(t *tensor.Dense) *tensor.Dense {
	return kernel.Rot180(t)
}
