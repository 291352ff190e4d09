// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/tensor"
)

// Parameter is a named trainable tensor with a gradient slot. Layers expose
// their weights and biases as parameters so optimizers and checkpointing can
// reach them without knowing the layer type.
//
// Parameter is a type alias rather than a wrapper because Module returns it,
// and interface satisfaction needs the exact type.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}
