package cpu

import (
	"fmt"
	"math"

	"github.com/snnkit/snnkit/internal/tensor"
)

// ReLU computes element-wise rectified linear unit: max(0, x).
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, opReLU)
}

// Sigmoid computes element-wise logistic sigmoid: 1 / (1 + exp(-x)).
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, opSigmoid)
}

// Tanh computes element-wise hyperbolic tangent.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, opTanh)
}

// Softmax computes softmax along the specified dimension.
// Negative dims count from the back.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("softmax: dimension %d out of range for tensor of rank %d", dim, len(shape)))
	}

	result, err := tensor.NewRaw(shape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("softmax: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		softmaxSlices(result.AsFloat32(), x.AsFloat32(), shape, dim)
	case tensor.Float64:
		softmaxSlices(result.AsFloat64(), x.AsFloat64(), shape, dim)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}
	return result
}

// softmaxSlices normalizes every 1-D slice along dim: exp(x - max) / sum.
func softmaxSlices[T floatDType](dst, src []T, shape tensor.Shape, dim int) {
	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]

	// One pass per combination of the remaining coordinates.
	rows := 1
	for i, s := range shape {
		if i != dim {
			rows *= s
		}
	}

	for row := 0; row < rows; row++ {
		base := 0
		rem := row
		for i := 0; i < len(shape); i++ {
			if i == dim {
				continue
			}
			base += (rem % shape[i]) * strides[i]
			rem /= shape[i]
		}

		// Max subtraction for numerical stability.
		maxVal := T(math.Inf(-1))
		for i := 0; i < dimSize; i++ {
			if v := src[base+i*dimStride]; v > maxVal {
				maxVal = v
			}
		}

		var sum T
		for i := 0; i < dimSize; i++ {
			idx := base + i*dimStride
			e := T(math.Exp(float64(src[idx] - maxVal)))
			dst[idx] = e
			sum += e
		}
		for i := 0; i < dimSize; i++ {
			dst[base+i*dimStride] /= sum
		}
	}
}
