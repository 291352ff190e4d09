package cpu

import (
	"github.com/snnkit/snnkit/internal/tensor"
)

// binOp selects the arithmetic applied by the element-wise kernels.
type binOp int

const (
	opAdd binOp = iota
	opSub
	opMul
	opDiv
)

func (op binOp) String() string {
	switch op {
	case opAdd:
		return "add"
	case opSub:
		return "sub"
	case opMul:
		return "mul"
	case opDiv:
		return "div"
	}
	return "unknown"
}

// arithDType covers the dtypes the arithmetic kernels are instantiated for.
type arithDType interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// elemwiseInplace applies a[i] = a[i] op b[i].
// Requires len(b) >= len(a) and a uniquely owned. The op switch sits
// outside the loops so each branch stays a tight per-dtype loop.
func elemwiseInplace[T arithDType](a, b []T, op binOp) {
	switch op {
	case opAdd:
		for i := range a {
			a[i] += b[i]
		}
	case opSub:
		for i := range a {
			a[i] -= b[i]
		}
	case opMul:
		for i := range a {
			a[i] *= b[i]
		}
	case opDiv:
		for i := range a {
			a[i] /= b[i]
		}
	}
}

// elemwiseInto applies dst[i] = a[i] op b[i] for same-shape operands.
func elemwiseInto[T arithDType](dst, a, b []T, op binOp) {
	switch op {
	case opAdd:
		for i := range a {
			dst[i] = a[i] + b[i]
		}
	case opSub:
		for i := range a {
			dst[i] = a[i] - b[i]
		}
	case opMul:
		for i := range a {
			dst[i] = a[i] * b[i]
		}
	case opDiv:
		for i := range a {
			dst[i] = a[i] / b[i]
		}
	}
}

// elemwiseBroadcast applies dst[i] = a[ai] op b[bi], where ai and bi are
// read through broadcast strides (stride 0 on size-1 and padded dimensions).
func elemwiseBroadcast[T arithDType](dst, a, b []T, aShape, bShape, outShape tensor.Shape, op binOp) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		x := a[sourceIndex(i, outStrides, aStrides)]
		y := b[sourceIndex(i, outStrides, bStrides)]
		switch op {
		case opAdd:
			dst[i] = x + y
		case opSub:
			dst[i] = x - y
		case opMul:
			dst[i] = x * y
		case opDiv:
			dst[i] = x / y
		}
	}
}

// transposeInto permutes src into dst according to axes. For each source
// dimension, perm holds the stride that dimension contributes in dst, so a
// single pass over src places every element.
func transposeInto[T arithDType](dst, src []T, shape tensor.Shape, axes []int) {
	ndim := len(shape)
	srcStrides := shape.ComputeStrides()

	dstShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		dstShape[i] = shape[ax]
	}
	dstStrides := dstShape.ComputeStrides()

	perm := make([]int, ndim)
	for dstDim, srcDim := range axes {
		perm[srcDim] = dstStrides[dstDim]
	}

	for i, v := range src {
		dstIdx := 0
		rem := i
		for d := 0; d < ndim; d++ {
			dstIdx += (rem / srcStrides[d]) * perm[d]
			rem %= srcStrides[d]
		}
		dst[dstIdx] = v
	}
}

// The dispatchers below switch on the dtype once and hand the typed slices
// to the matching kernel instantiation.

func arithInplace(a, b *tensor.RawTensor, op binOp) {
	switch a.DType() {
	case tensor.Float32:
		elemwiseInplace(a.AsFloat32(), b.AsFloat32(), op)
	case tensor.Float64:
		elemwiseInplace(a.AsFloat64(), b.AsFloat64(), op)
	case tensor.Int32:
		elemwiseInplace(a.AsInt32(), b.AsInt32(), op)
	case tensor.Int64:
		elemwiseInplace(a.AsInt64(), b.AsInt64(), op)
	default:
		panic("cpu: unsupported dtype " + a.DType().String())
	}
}

func arithInto(result, a, b *tensor.RawTensor, op binOp) {
	switch a.DType() {
	case tensor.Float32:
		elemwiseInto(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), op)
	case tensor.Float64:
		elemwiseInto(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), op)
	case tensor.Int32:
		elemwiseInto(result.AsInt32(), a.AsInt32(), b.AsInt32(), op)
	case tensor.Int64:
		elemwiseInto(result.AsInt64(), a.AsInt64(), b.AsInt64(), op)
	default:
		panic("cpu: unsupported dtype " + a.DType().String())
	}
}

func arithBroadcast(result, a, b *tensor.RawTensor, outShape tensor.Shape, op binOp) {
	switch a.DType() {
	case tensor.Float32:
		elemwiseBroadcast(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, op)
	case tensor.Float64:
		elemwiseBroadcast(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, op)
	case tensor.Int32:
		elemwiseBroadcast(result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape, op)
	case tensor.Int64:
		elemwiseBroadcast(result.AsInt64(), a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape, op)
	default:
		panic("cpu: unsupported dtype " + a.DType().String())
	}
}

func transposeData(result, src *tensor.RawTensor, axes []int) {
	switch src.DType() {
	case tensor.Float32:
		transposeInto(result.AsFloat32(), src.AsFloat32(), src.Shape(), axes)
	case tensor.Float64:
		transposeInto(result.AsFloat64(), src.AsFloat64(), src.Shape(), axes)
	case tensor.Int32:
		transposeInto(result.AsInt32(), src.AsInt32(), src.Shape(), axes)
	case tensor.Int64:
		transposeInto(result.AsInt64(), src.AsInt64(), src.Shape(), axes)
	default:
		panic("cpu: unsupported dtype " + src.DType().String())
	}
}
