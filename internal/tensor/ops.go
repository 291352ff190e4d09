package tensor

// The methods below forward to the backend and wrap the result. Broadcasting
// follows the usual trailing-dimension rules, so a [3, 1] operand combines
// with a [3, 5] one to give [3, 5].

// Add returns t + other element-wise with broadcasting.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub returns t - other element-wise with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul returns t * other element-wise with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div returns t / other element-wise with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// MatMul multiplies two 2D tensors, (M, K) @ (K, N) -> (M, N).
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Conv2D performs a 2D cross-correlation over a [batch, channels, height, width]
// input with a [out_channels, in_channels, kh, kw] kernel.
//
// The stride and padding are given per spatial axis. The output shape is
// [batch, out_channels, (H+2*padH-KH)/strideH+1, (W+2*padW-KW)/strideW+1].
//
// Example:
//
//	input := tensor.Randn[float32](Shape{1, 1, 28, 28}, backend)
//	kernel := tensor.Randn[float32](Shape{6, 1, 5, 5}, backend)
//	out := input.Conv2D(kernel, 1, 1, 0, 0) // Shape: [1, 6, 24, 24]
func (t *Tensor[T, B]) Conv2D(kernel *Tensor[T, B], strideH, strideW, padH, padW int) *Tensor[T, B] {
	return New[T, B](t.backend.Conv2D(t.raw, kernel.raw, strideH, strideW, padH, padW), t.backend)
}

// MaxPool2D applies 2D max pooling over a [batch, channels, height, width] input.
//
// Example:
//
//	input := tensor.Randn[float32](Shape{1, 6, 24, 24}, backend)
//	out := input.MaxPool2D(2, 2, 2, 2) // Shape: [1, 6, 12, 12]
func (t *Tensor[T, B]) MaxPool2D(poolH, poolW, strideH, strideW int) *Tensor[T, B] {
	return New[T, B](t.backend.MaxPool2D(t.raw, poolH, poolW, strideH, strideW), t.backend)
}

// AvgPool2D applies 2D average pooling over a [batch, channels, height, width] input.
func (t *Tensor[T, B]) AvgPool2D(poolH, poolW, strideH, strideW int) *Tensor[T, B] {
	return New[T, B](t.backend.AvgPool2D(t.raw, poolH, poolW, strideH, strideW), t.backend)
}

// Reshape returns a tensor with the same data and a new shape. The element
// count must not change.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Transpose permutes the dimensions. With no axes it reverses them all,
// which for 2D is the standard transpose.
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// T swaps the two axes of a 2D tensor and panics on any other rank.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if len(t.Shape()) != 2 {
		panic("T() only works for 2D tensors")
	}
	return t.Transpose(1, 0)
}

// Exp computes the element-wise exponential e^x.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	return New[T, B](t.backend.Exp(t.raw), t.backend)
}

// Sqrt computes the element-wise square root.
func (t *Tensor[T, B]) Sqrt() *Tensor[T, B] {
	return New[T, B](t.backend.Sqrt(t.raw), t.backend)
}

// Softmax normalizes along dim so the slices there sum to one. Negative
// dims count from the end, -1 being the last dimension.
func (t *Tensor[T, B]) Softmax(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Softmax(t.raw, dim), t.backend)
}
