// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/snnkit/snnkit/internal/backend/cpu"
	"github.com/snnkit/snnkit/tensor"
)

// CPUBackend represents the CPU backend implementation.
//
// It provides pure Go implementations of all tensor operations, with
// parallel kernels for the heavy ones.
type CPUBackend = internalcpu.CPUBackend

// Compile-time check that CPUBackend implements tensor.Backend.
var _ tensor.Backend = (*CPUBackend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/snnkit/snnkit/backend/cpu"
//	    "github.com/snnkit/snnkit/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *CPUBackend {
	return internalcpu.New()
}
