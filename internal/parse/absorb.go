package parse

import (
	"fmt"
	"math"

	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// AbsorbBatchNorm folds batch normalization parameters into the weights
// of the preceding affine layer.
//
// With inv = 1/sqrt(variance + epsilon) per output unit j:
//
//	W'[j,...] = W[j,...] * gamma[j] * inv[j]
//	b'[j]     = beta[j] + (b[j] - mean[j]) * gamma[j] * inv[j]
//
// The first weight dimension indexes output units: rows of a dense
// [out, in] matrix, filters of a conv [out, in, kh, kw] kernel. The
// returned tensors are fresh; no input is modified. W' has the shape of
// weights and b' the shape [out]. A nil biases counts as a zero vector,
// so folding a bias-free layer still yields the shift term.
//
// All tensors must share one dtype, float32 or float64, and the four
// statistics vectors must be rank 1 of length out. The epsilon term
// keeps near-zero variances finite.
func AbsorbBatchNorm(weights, biases, gamma, beta, mean, variance *tensor.RawTensor, epsilon float64) (*tensor.RawTensor, *tensor.RawTensor, error) {
	if weights == nil {
		return nil, nil, fmt.Errorf("absorb: weights tensor is nil")
	}
	wShape := weights.Shape()
	if len(wShape) == 0 {
		return nil, nil, fmt.Errorf("absorb: weights tensor has no dimensions: %w", nn.ErrShapeMismatch)
	}
	out := wShape[0]

	stats := []struct {
		name string
		raw  *tensor.RawTensor
	}{
		{"gamma", gamma},
		{"beta", beta},
		{"mean", mean},
		{"variance", variance},
	}
	for _, s := range stats {
		if s.raw == nil {
			return nil, nil, fmt.Errorf("absorb: %s tensor is nil", s.name)
		}
		if len(s.raw.Shape()) != 1 || s.raw.Shape()[0] != out {
			return nil, nil, fmt.Errorf("absorb: %s shape %v, want [%d]: %w",
				s.name, s.raw.Shape(), out, nn.ErrShapeMismatch)
		}
		if s.raw.DType() != weights.DType() {
			return nil, nil, fmt.Errorf("absorb: %s dtype %s, want %s: %w",
				s.name, s.raw.DType(), weights.DType(), nn.ErrShapeMismatch)
		}
	}
	if biases != nil {
		if len(biases.Shape()) != 1 || biases.Shape()[0] != out {
			return nil, nil, fmt.Errorf("absorb: biases shape %v, want [%d]: %w",
				biases.Shape(), out, nn.ErrShapeMismatch)
		}
		if biases.DType() != weights.DType() {
			return nil, nil, fmt.Errorf("absorb: biases dtype %s, want %s: %w",
				biases.DType(), weights.DType(), nn.ErrShapeMismatch)
		}
	}

	foldedW, err := tensor.NewRaw(wShape.Clone(), weights.DType(), weights.Device())
	if err != nil {
		return nil, nil, err
	}
	foldedB, err := tensor.NewRaw(tensor.Shape{out}, weights.DType(), weights.Device())
	if err != nil {
		return nil, nil, err
	}

	switch weights.DType() {
	case tensor.Float32:
		var bias []float32
		if biases != nil {
			bias = biases.AsFloat32()
		}
		fold(weights.AsFloat32(), bias,
			gamma.AsFloat32(), beta.AsFloat32(), mean.AsFloat32(), variance.AsFloat32(),
			foldedW.AsFloat32(), foldedB.AsFloat32(), epsilon)
	case tensor.Float64:
		var bias []float64
		if biases != nil {
			bias = biases.AsFloat64()
		}
		fold(weights.AsFloat64(), bias,
			gamma.AsFloat64(), beta.AsFloat64(), mean.AsFloat64(), variance.AsFloat64(),
			foldedW.AsFloat64(), foldedB.AsFloat64(), epsilon)
	default:
		return nil, nil, fmt.Errorf("absorb: unsupported dtype %s", weights.DType())
	}

	return foldedW, foldedB, nil
}

// fold runs the absorption arithmetic over flat buffers. Unit j scales
// the contiguous weight block starting at j*blockSize; a nil bias slice
// stands in for zeros. The inverse standard deviation is computed in
// float64 either way so float32 folding loses no precision to the
// square root.
func fold[T float32 | float64](w, b, gamma, beta, mean, variance []T, wOut, bOut []T, epsilon float64) {
	out := len(gamma)
	blockSize := len(w) / out

	for j := 0; j < out; j++ {
		inv := T(1.0 / math.Sqrt(float64(variance[j])+epsilon))
		scale := gamma[j] * inv

		start := j * blockSize
		for k := start; k < start+blockSize; k++ {
			wOut[k] = w[k] * scale
		}

		var bias T
		if b != nil {
			bias = b[j]
		}
		bOut[j] = beta[j] + (bias-mean[j])*scale
	}
}
