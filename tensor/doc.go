// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the snnkit toolbox.
//
// # Overview
//
// Tensors carry all numeric data in snnkit: network weights, activations
// and extracted parameters. The package provides generic type-safe tensors
// (Tensor[T, B]), NumPy-style broadcasting and a backend abstraction over
// the compute kernels.
//
// # Basic Usage
//
//	import (
//	    "github.com/snnkit/snnkit/tensor"
//	    "github.com/snnkit/snnkit/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    z := x.Add(y)
//	    result := x.MatMul(y.T())
//	}
//
// # Supported Data Types
//
// The DType constraint admits float32 and float64, int32 and int64, uint8
// and bool. Model parameters and activations are float32 throughout; the
// other types exist for label data, image bytes and masks.
//
// # Device Support
//
// All computation runs on the CPU. Extraction results feed spiking-network
// conversion and must be reproducible across runs, which rules out
// device-dependent kernels.
//
// # Broadcasting
//
// Element-wise operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend)     // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)      // (3, 4)
//	c := a.Add(b)                                                // (3, 4)
//
// # Memory Management
//
// The underlying buffers are reference-counted with copy-on-write semantics:
// Clone is cheap, and in-place optimizations kick in when a buffer has a
// single owner.
package tensor
