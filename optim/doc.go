// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the optimizers used to train networks: SGD with
// optional momentum and Adam with bias-corrected moment estimates. Both
// satisfy the Optimizer interface, so training loops can swap one for the
// other without changes.
//
// A typical loop:
//
//	optimizer := optim.NewAdam(
//	    model.Parameters(),
//	    optim.AdamConfig{LR: 0.001, Betas: [2]float32{0.9, 0.999}},
//	    backend,
//	)
//	for epoch := 0; epoch < 10; epoch++ {
//	    optimizer.ZeroGrad()
//	    logits := model.Forward(x)
//	    setGradients(model, logits, labels) // backward pass fills parameter gradients
//	    optimizer.Step()
//	}
package optim
