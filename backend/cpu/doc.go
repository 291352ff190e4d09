// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the CPU backend for tensor operations. Matrix
// multiplication goes through gonum's native Go BLAS, convolutions use
// im2col, and the convolution and pooling kernels split their work
// across goroutines.
//
// Usage:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
//
// The backend is safe for concurrent use; operations do not share
// mutable state.
package cpu
