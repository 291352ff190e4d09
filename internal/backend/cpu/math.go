package cpu

import (
	"fmt"
	"math"

	"github.com/snnkit/snnkit/internal/tensor"
)

// unOp selects the function applied by the unary float kernels.
type unOp int

const (
	opExp unOp = iota
	opSqrt
	opReLU
	opSigmoid
	opTanh
)

func (op unOp) String() string {
	switch op {
	case opExp:
		return "exp"
	case opSqrt:
		return "sqrt"
	case opReLU:
		return "relu"
	case opSigmoid:
		return "sigmoid"
	case opTanh:
		return "tanh"
	}
	return "unknown"
}

// floatDType covers the dtypes the unary kernels are instantiated for.
type floatDType interface {
	~float32 | ~float64
}

// mapFloat applies op element-wise. float32 values round-trip through
// float64 for the math package calls.
func mapFloat[T floatDType](dst, src []T, op unOp) {
	switch op {
	case opExp:
		for i, v := range src {
			dst[i] = T(math.Exp(float64(v)))
		}
	case opSqrt:
		for i, v := range src {
			if v < 0 {
				panic(fmt.Sprintf("sqrt: negative value at index %d: %f", i, v))
			}
			dst[i] = T(math.Sqrt(float64(v)))
		}
	case opReLU:
		for i, v := range src {
			if v > 0 {
				dst[i] = v
			}
		}
	case opSigmoid:
		for i, v := range src {
			dst[i] = T(1.0 / (1.0 + math.Exp(float64(-v))))
		}
	case opTanh:
		for i, v := range src {
			dst[i] = T(math.Tanh(float64(v)))
		}
	}
}

// unary allocates the result tensor and dispatches on dtype.
func (cpu *CPUBackend) unary(x *tensor.RawTensor, op unOp) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%v: %v", op, err))
	}

	switch x.DType() {
	case tensor.Float32:
		mapFloat(result.AsFloat32(), x.AsFloat32(), op)
	case tensor.Float64:
		mapFloat(result.AsFloat64(), x.AsFloat64(), op)
	default:
		panic(fmt.Sprintf("%v: unsupported dtype %s (only float32/float64 supported)", op, x.DType()))
	}
	return result
}

// Exp computes element-wise exponential: exp(x).
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, opExp)
}

// Sqrt computes element-wise square root: sqrt(x).
// Negative inputs panic rather than produce NaN.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(x, opSqrt)
}
