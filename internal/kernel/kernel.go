// Package kernel implements the numeric routines behind 2-D convolution:
// zero padding, strided cross-correlation, sensitivity-map expansion, and
// 180-degree filter rotation.
//
// All routines operate on channel-last tensors and accept rank-2 inputs by
// promoting them to a single channel. Correlate writes into a caller-supplied
// output buffer, which lets the same routine compute forward outputs, input
// gradients, and weight gradients depending on which tensor plays the role
// of "input" and which the role of "filter".
package kernel

import (
	"fmt"

	"github.com/fern-ml/fern/internal/tensor"
	"gonum.org/v1/gonum/floats"
)

// Pad surrounds t with a zero border of padH rows above and below and padW
// columns left and right. A rank-2 tensor is treated as single-channel, so
// the result is always rank 3 unless no padding is requested, in which case
// t is returned unchanged.
func Pad(t *tensor.Dense, padH, padW int) (*tensor.Dense, error) {
	if padH == 0 && padW == 0 {
		return t, nil
	}
	if r := t.Rank(); r != 2 && r != 3 {
		return nil, fmt.Errorf("pad: rank %d: %w", r, tensor.ErrInvalidRank)
	}

	h, w, c := t.Dims3()
	padded := tensor.Zeros(tensor.Shape{h + 2*padH, w + 2*padW, c})

	src := t.Data()
	dst := padded.Data()
	pw := w + 2*padW
	for i := 0; i < h; i++ {
		// Each source row is a contiguous w*c run; it lands padW columns
		// into the destination row.
		off := ((i+padH)*pw + padW) * c
		copy(dst[off:off+w*c], src[i*w*c:(i+1)*w*c])
	}
	return padded, nil
}

// Correlate computes a strided cross-correlation of in against filt and
// writes the result plus bias into channel outCh of out:
//
//	out[i, j, outCh] = sum(in[window(i,j)] * filt) + bias
//
// The window for output cell (i, j) starts at (i*strideH, j*strideW) and
// spans filt's spatial extent across all channels. in and filt may be rank 2
// (promoted to a single channel); their channel counts must match, which is
// guaranteed when the caller derives geometry from the standard output-size
// formula. Iteration stops before any window would leave in's bounds, so the
// routine never reads out of range even for over-declared output shapes.
func Correlate(in, filt, out *tensor.Dense, outCh int, bias float64, strideH, strideW int) error {
	if r := in.Rank(); r != 2 && r != 3 {
		return fmt.Errorf("correlate: input rank %d: %w", r, tensor.ErrInvalidRank)
	}
	if r := filt.Rank(); r != 2 && r != 3 {
		return fmt.Errorf("correlate: filter rank %d: %w", r, tensor.ErrInvalidRank)
	}

	ih, iw, ic := in.Dims3()
	fh, fw, _ := filt.Dims3()
	oh, ow, oc := out.Dims3()

	inData := in.Data()
	filtData := filt.Data()
	outData := out.Data()

	for i := 0; i < oh; i++ {
		bh := i * strideH
		if bh+fh > ih {
			break
		}
		for j := 0; j < ow; j++ {
			bw := j * strideW
			if bw+fw > iw {
				break
			}
			sum := bias
			for kh := 0; kh < fh; kh++ {
				// Window row and filter row are contiguous in channel-last
				// layout, so the multiply-accumulate is a single dot product.
				rowOff := ((bh+kh)*iw + bw) * ic
				sum += floats.Dot(inData[rowOff:rowOff+fw*ic], filtData[kh*fw*ic:(kh+1)*fw*ic])
			}
			outData[(i*ow+j)*oc+outCh] = sum
		}
	}
	return nil
}

// Expand reinserts the zero rows and columns removed by a strided
// convolution: every cell of m lands at its original strided coordinate,
// expanded[i*strideH, j*strideW, :] = m[i, j, :], and all other cells are
// zero. With stride (1, 1) this is the identity and m is returned unchanged.
func Expand(m *tensor.Dense, strideH, strideW int) (*tensor.Dense, error) {
	if strideH == 1 && strideW == 1 {
		return m, nil
	}
	if m.Rank() != 3 {
		return nil, fmt.Errorf("expand: rank %d: %w", m.Rank(), tensor.ErrInvalidRank)
	}

	h, w, c := m.Dims3()
	eh := (h-1)*strideH + 1
	ew := (w-1)*strideW + 1
	expanded := tensor.Zeros(tensor.Shape{eh, ew, c})

	src := m.Data()
	dst := expanded.Data()
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			off := (i*strideH*ew + j*strideW) * c
			copy(dst[off:off+c], src[(i*w+j)*c:(i*w+j+1)*c])
		}
	}
	return expanded, nil
}

// Rot180 returns t with both spatial axes reversed within each channel
// plane. Applying it twice yields the original tensor. Rotating a filter
// this way converts the forward cross-correlation into the true convolution
// needed to propagate gradients back to the layer input.
func Rot180(t *tensor.Dense) *tensor.Dense {
	h, w, c := t.Dims3()
	rot := tensor.Zeros(t.Shape())

	src := t.Data()
	dst := rot.Data()
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			srcOff := (i*w + j) * c
			dstOff := ((h-1-i)*w + (w - 1 - j)) * c
			copy(dst[dstOff:dstOff+c], src[srcOff:srcOff+c])
		}
	}
	return rot
}
