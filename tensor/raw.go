// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/snnkit/snnkit/internal/tensor"
)

// RawTensor is the untyped tensor representation. Layer weights,
// batch-normalization statistics and extracted parameters travel as raw
// tensors; typed code should use Tensor[T, B].
//
// A raw tensor carries its shape, dtype and device, exposes its data
// through the As methods (AsFloat32, AsInt64 and so on), and shares its
// buffer under reference counting. Clone adds a reference, DeepClone
// copies the bytes.
type RawTensor = tensor.RawTensor
