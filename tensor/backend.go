// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/snnkit/snnkit/internal/tensor"

// Backend is the compute interface behind Tensor operations.
//
// snnkit ships one implementation, backend/cpu, with pure Go kernels and a
// BLAS-backed matmul. The indirection keeps the layer stack independent of
// the kernels and lets tests substitute a mock. Kernels treat misuse (shape
// or dtype mismatch) as programmer error and panic; caller-visible failures
// surface as errors before a backend is reached.
type Backend interface {
	// Element-wise arithmetic with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	MatMul(a, b *RawTensor) *RawTensor

	// Convolution and pooling expect NCHW layout.
	Conv2D(input, kernel *RawTensor, strideH, strideW, padH, padW int) *RawTensor
	MaxPool2D(x *RawTensor, poolH, poolW, strideH, strideW int) *RawTensor
	AvgPool2D(x *RawTensor, poolH, poolW, strideH, strideW int) *RawTensor

	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	Exp(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor

	// Softmax normalizes along dim, counted from the back when negative.
	Softmax(x *RawTensor, dim int) *RawTensor

	Name() string
	Device() Device
}

// The public interface must stay assignable from the internal one.
var _ Backend = tensor.Backend(nil)
