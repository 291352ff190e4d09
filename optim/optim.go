// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/optim"
	"github.com/snnkit/snnkit/internal/tensor"
)

// Optimizer is the interface shared by SGD and Adam.
type Optimizer = optim.Optimizer

// Config holds settings common to every optimizer.
type Config = optim.Config

// SGD is stochastic gradient descent with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig configures NewSGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	return optim.NewSGD(params, config, backend)
}

// Adam is the Adam optimizer with bias-corrected first and second moments.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig configures NewAdam.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer over the given parameters.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	return optim.NewAdam(params, config, backend)
}
