package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is the reference backend used by tests. Every operation is
// a direct transcription of its mathematical definition: inputs are never
// modified and results are always freshly allocated, so optimized kernels
// can be checked against it.
type MockBackend struct{}

// NewMockBackend returns a stateless mock backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns "mock".
func (m *MockBackend) Name() string {
	return "mock"
}

// Device reports CPU; the mock has no device memory of its own.
func (m *MockBackend) Device() Device {
	return CPU
}

// widenF64 copies a tensor's values into a fresh float64 slice.
func widenF64(t *RawTensor) []float64 {
	out := make([]float64, t.NumElements())
	switch t.DType() {
	case Float32:
		for i, v := range t.AsFloat32() {
			out[i] = float64(v)
		}
	case Float64:
		copy(out, t.AsFloat64())
	case Int32:
		for i, v := range t.AsInt32() {
			out[i] = float64(v)
		}
	case Int64:
		for i, v := range t.AsInt64() {
			out[i] = float64(v)
		}
	default:
		panic(fmt.Sprintf("unsupported dtype: %s", t.DType()))
	}
	return out
}

// storeF64 narrows float64 values back into the destination's dtype.
func storeF64(dst *RawTensor, src []float64) {
	switch dst.DType() {
	case Float32:
		out := dst.AsFloat32()
		for i, v := range src {
			out[i] = float32(v)
		}
	case Float64:
		copy(dst.AsFloat64(), src)
	case Int32:
		out := dst.AsInt32()
		for i, v := range src {
			out[i] = int32(v)
		}
	case Int64:
		out := dst.AsInt64()
		for i, v := range src {
			out[i] = int64(v)
		}
	}
}

// broadcastOffset maps a flat index in the broadcast result shape back to
// the flat index of the operand it reads from. Size-1 operand dimensions
// absorb every result index along that axis.
func broadcastOffset(flat int, out, in Shape) int {
	inStrides := in.ComputeStrides()
	shift := len(out) - len(in)

	offset := 0
	for i := len(out) - 1; i >= 0; i-- {
		idx := flat % out[i]
		flat /= out[i]

		j := i - shift
		if j < 0 || in[j] == 1 {
			continue
		}
		offset += idx * inStrides[j]
	}
	return offset
}

// broadcastBinary evaluates op element-wise over the broadcast of a and b.
// The result carries a's dtype.
func (m *MockBackend) broadcastBinary(a, b *RawTensor, op func(x, y float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result, err := NewRaw(outShape, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	av := widenF64(a)
	bv := widenF64(b)
	out := make([]float64, outShape.NumElements())
	for i := range out {
		out[i] = op(av[broadcastOffset(i, outShape, a.Shape())], bv[broadcastOffset(i, outShape, b.Shape())])
	}

	storeF64(result, out)
	return result
}

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.broadcastBinary(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.broadcastBinary(a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.broadcastBinary(a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.broadcastBinary(a, b, func(x, y float64) float64 { return x / y })
}

// MatMul performs matrix multiplication.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic("MatMul only supports 2D tensors in mock backend")
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("incompatible shapes for MatMul: %v @ %v", aShape, bShape))
	}

	rows, inner := aShape[0], aShape[1]
	cols := bShape[1]

	result, err := NewRaw(Shape{rows, cols}, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	av := widenF64(a)
	bv := widenF64(b)
	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			acc := 0.0
			for k := 0; k < inner; k++ {
				acc += av[i*inner+k] * bv[k*cols+j]
			}
			out[i*cols+j] = acc
		}
	}

	storeF64(result, out)
	return result
}

// Conv2D performs 2D convolution with zero padding.
func (m *MockBackend) Conv2D(input, kernel *RawTensor, strideH, strideW, padH, padW int) *RawTensor {
	in, k := input.Shape(), kernel.Shape()
	if len(in) != 4 || len(k) != 4 {
		panic("Conv2D requires 4D tensors [N,C,H,W]")
	}

	batch, inCh, height, width := in[0], in[1], in[2], in[3]
	outCh, kernH, kernW := k[0], k[2], k[3]
	if inCh != k[1] {
		panic(fmt.Sprintf("Conv2D: input channels %d != kernel channels %d", inCh, k[1]))
	}

	outH := (height+2*padH-kernH)/strideH + 1
	outW := (width+2*padW-kernW)/strideW + 1

	output, err := NewRaw(Shape{batch, outCh, outH, outW}, input.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	src := widenF64(input)
	taps := widenF64(kernel)
	out := make([]float64, output.NumElements())

	pos := 0
	for b := 0; b < batch; b++ {
		for co := 0; co < outCh; co++ {
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					acc := 0.0
					for ci := 0; ci < inCh; ci++ {
						for ky := 0; ky < kernH; ky++ {
							y := oy*strideH - padH + ky
							if y < 0 || y >= height {
								continue
							}
							for kx := 0; kx < kernW; kx++ {
								x := ox*strideW - padW + kx
								if x < 0 || x >= width {
									continue
								}
								acc += src[((b*inCh+ci)*height+y)*width+x] *
									taps[((co*inCh+ci)*kernH+ky)*kernW+kx]
							}
						}
					}
					out[pos] = acc
					pos++
				}
			}
		}
	}

	storeF64(output, out)
	return output
}

// pool2d walks every pooling window and reduces it to a single value.
func (m *MockBackend) pool2d(x *RawTensor, poolH, poolW, strideH, strideW int, reduce func(window []float64) float64) *RawTensor {
	in := x.Shape()
	if len(in) != 4 {
		panic(fmt.Sprintf("pooling expects 4D input [N,C,H,W], got %dD", len(in)))
	}

	batch, channels, height, width := in[0], in[1], in[2], in[3]
	outH := (height-poolH)/strideH + 1
	outW := (width-poolW)/strideW + 1

	output, err := NewRaw(Shape{batch, channels, outH, outW}, x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	src := widenF64(x)
	out := make([]float64, output.NumElements())
	window := make([]float64, 0, poolH*poolW)

	pos := 0
	for b := 0; b < batch; b++ {
		for c := 0; c < channels; c++ {
			plane := (b*channels + c) * height * width
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					window = window[:0]
					for ky := 0; ky < poolH; ky++ {
						row := plane + (oy*strideH+ky)*width + ox*strideW
						window = append(window, src[row:row+poolW]...)
					}
					out[pos] = reduce(window)
					pos++
				}
			}
		}
	}

	storeF64(output, out)
	return output
}

// MaxPool2D performs 2D max pooling.
func (m *MockBackend) MaxPool2D(x *RawTensor, poolH, poolW, strideH, strideW int) *RawTensor {
	return m.pool2d(x, poolH, poolW, strideH, strideW, func(window []float64) float64 {
		best := window[0]
		for _, v := range window[1:] {
			if v > best {
				best = v
			}
		}
		return best
	})
}

// AvgPool2D performs 2D average pooling.
func (m *MockBackend) AvgPool2D(x *RawTensor, poolH, poolW, strideH, strideW int) *RawTensor {
	return m.pool2d(x, poolH, poolW, strideH, strideW, func(window []float64) float64 {
		sum := 0.0
		for _, v := range window {
			sum += v
		}
		return sum / float64(len(window))
	})
}

// Reshape changes tensor shape.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(err)
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("cannot reshape tensor with %d elements to shape %v (%d elements)",
			t.NumElements(), newShape, newShape.NumElements()))
	}

	result, err := NewRaw(newShape, t.DType(), m.Device())
	if err != nil {
		panic(err)
	}
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes tensor dimensions.
func (m *MockBackend) Transpose(t *RawTensor, axes ...int) *RawTensor {
	shape := t.Shape()
	rank := len(shape)

	// Default: reverse all dimensions
	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	if len(axes) != rank {
		panic(fmt.Sprintf("axes length %d doesn't match tensor dimensions %d", len(axes), rank))
	}

	newShape := make(Shape, rank)
	for i, axis := range axes {
		if axis < 0 || axis >= rank {
			panic(fmt.Sprintf("axis %d out of bounds for tensor with %d dimensions", axis, rank))
		}
		newShape[i] = shape[axis]
	}

	result, err := NewRaw(newShape, t.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	// dstStride[d] is the stride the result uses for source dimension d.
	oldStrides := shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()
	dstStride := make([]int, rank)
	for j, axis := range axes {
		dstStride[axis] = newStrides[j]
	}

	src := widenF64(t)
	out := make([]float64, len(src))
	for i, v := range src {
		rem := i
		dst := 0
		for d := 0; d < rank; d++ {
			dst += (rem / oldStrides[d]) * dstStride[d]
			rem %= oldStrides[d]
		}
		out[dst] = v
	}

	storeF64(result, out)
	return result
}

// mapUnary applies op element-wise into a fresh tensor.
func (m *MockBackend) mapUnary(x *RawTensor, op func(float64) float64) *RawTensor {
	result, err := NewRaw(x.Shape(), x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	vals := widenF64(x)
	for i, v := range vals {
		vals[i] = op(v)
	}

	storeF64(result, vals)
	return result
}

// Exp computes element-wise exponential.
func (m *MockBackend) Exp(x *RawTensor) *RawTensor {
	return m.mapUnary(x, math.Exp)
}

// Sqrt computes element-wise square root.
func (m *MockBackend) Sqrt(x *RawTensor) *RawTensor {
	return m.mapUnary(x, math.Sqrt)
}

// Softmax applies softmax along the given dimension.
func (m *MockBackend) Softmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("Softmax: dim %d out of range for shape %v", dim, shape))
	}

	result, err := NewRaw(shape, x.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	vals := widenF64(x)
	dimSize := shape[dim]
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	outer := x.NumElements() / (dimSize * inner)

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in

			// Subtract max for numerical stability
			maxVal := vals[base]
			for d := 1; d < dimSize; d++ {
				if v := vals[base+d*inner]; v > maxVal {
					maxVal = v
				}
			}

			sum := 0.0
			for d := 0; d < dimSize; d++ {
				e := math.Exp(vals[base+d*inner] - maxVal)
				vals[base+d*inner] = e
				sum += e
			}
			for d := 0; d < dimSize; d++ {
				vals[base+d*inner] /= sum
			}
		}
	}

	storeF64(result, vals)
	return result
}
