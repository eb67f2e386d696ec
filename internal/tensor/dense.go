// Package tensor implements the dense float64 tensors used throughout Fern.
//
// Tensors are row-major and channel-last: a rank-3 tensor has shape
// [height, width, channels], and a rank-2 tensor [height, width] shares the
// memory layout of [height, width, 1]. Convolution routines exploit this by
// promoting rank-2 tensors to single-channel rank-3 views for free.
package tensor

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRank reports a tensor whose rank is unsupported by an operation.
// The convolution routines accept rank 2 or 3 only.
var ErrInvalidRank = errors.New("tensor: invalid rank")

// Dense is a dense float64 tensor with row-major, channel-last layout.
type Dense struct {
	shape  Shape
	stride []int
	data   []float64
}

// NewDense creates a zero-filled tensor with the given shape.
func NewDense(shape Shape) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Dense{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		data:   make([]float64, shape.NumElements()),
	}, nil
}

// Zeros creates a zero-filled tensor, panicking on an invalid shape.
// Use NewDense when the shape comes from untrusted input.
func Zeros(shape Shape) *Dense {
	t, err := NewDense(shape)
	if err != nil {
		panic(err)
	}
	return t
}

// Full creates a tensor with every element set to v.
func Full(shape Shape, v float64) *Dense {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = v
	}
	return t
}

// FromSlice creates a tensor that adopts data as its backing storage.
// The data length must match the shape's element count.
func FromSlice(data []float64, shape Shape) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	return &Dense{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		data:   data,
	}, nil
}

// Rank returns the number of dimensions.
func (t *Dense) Rank() int {
	return len(t.shape)
}

// Shape returns the tensor's shape. The caller must not modify it.
func (t *Dense) Shape() Shape {
	return t.shape
}

// Data returns the backing slice in row-major order.
func (t *Dense) Data() []float64 {
	return t.data
}

// Dims3 returns (height, width, channels), promoting a rank-2 tensor to a
// single channel. Panics for other ranks.
func (t *Dense) Dims3() (h, w, c int) {
	switch len(t.shape) {
	case 2:
		return t.shape[0], t.shape[1], 1
	case 3:
		return t.shape[0], t.shape[1], t.shape[2]
	default:
		panic(fmt.Sprintf("tensor: Dims3 on rank-%d tensor", len(t.shape)))
	}
}

// At returns the element at spatial position (i, j), channel c.
// For rank-2 tensors c must be 0.
func (t *Dense) At(i, j, c int) float64 {
	h, w, ch := t.Dims3()
	if i < 0 || i >= h || j < 0 || j >= w || c < 0 || c >= ch {
		panic(fmt.Sprintf("tensor: index (%d,%d,%d) out of range for %v", i, j, c, t.shape))
	}
	return t.data[(i*w+j)*ch+c]
}

// Set stores v at spatial position (i, j), channel c.
func (t *Dense) Set(i, j, c int, v float64) {
	h, w, ch := t.Dims3()
	if i < 0 || i >= h || j < 0 || j >= w || c < 0 || c >= ch {
		panic(fmt.Sprintf("tensor: index (%d,%d,%d) out of range for %v", i, j, c, t.shape))
	}
	t.data[(i*w+j)*ch+c] = v
}

// Plane extracts channel c as a rank-2 [height, width] copy.
func (t *Dense) Plane(c int) *Dense {
	h, w, ch := t.Dims3()
	if c < 0 || c >= ch {
		panic(fmt.Sprintf("tensor: channel %d out of range for %v", c, t.shape))
	}
	p := Zeros(Shape{h, w})
	for i := 0; i < h; i++ {
		row := t.data[i*w*ch : (i+1)*w*ch]
		for j := 0; j < w; j++ {
			p.data[i*w+j] = row[j*ch+c]
		}
	}
	return p
}

// Clone returns a deep copy.
func (t *Dense) Clone() *Dense {
	c := Zeros(t.shape)
	copy(c.data, t.data)
	return c
}

// Zero resets every element to zero.
func (t *Dense) Zero() {
	for i := range t.data {
		t.data[i] = 0
	}
}

// EqualApprox reports whether both tensors have the same shape and all
// elements agree within tol.
func (t *Dense) EqualApprox(other *Dense, tol float64) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i := range t.data {
		if math.Abs(t.data[i]-other.data[i]) > tol {
			return false
		}
	}
	return true
}
