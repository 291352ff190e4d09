// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers, losses and model container for
// describing feed-forward networks.
//
// The package re-exports:
//   - Layers: Dense, Conv2D, MaxPool2D, AvgPool2D, BatchNorm, Flatten, Dropout
//   - Activations: ReLU, Sigmoid, Tanh, Softmax
//   - Losses: CrossEntropyLoss, MSELoss
//   - Models: Model with shape inference, Sequential, Module interface
//   - Serialization: architecture JSON, weights files, checkpoints
//   - Initializers: Xavier, Zeros, Ones, Randn
//
// # Building a model
//
//	backend := cpu.New()
//	relu, _ := nn.NewActivation(nn.ActReLU, backend)
//	model, err := nn.NewModel(
//	    tensor.Shape{nn.DynamicDim, 784},
//	    []nn.Layer[*cpu.CPUBackend]{
//	        nn.NewDense(784, 128, true, backend),
//	        relu,
//	        nn.NewDense(128, 10, true, backend),
//	    },
//	    backend,
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	output := model.Forward(input)
//
// Model is an ordered layer stack with a declared input shape. Shapes
// are inferred through the stack at construction, so shape errors
// surface in NewModel rather than mid-forward. Models round-trip to
// disk as an architecture JSON file plus a weights file:
//
//	arch, _ := nn.ArchitectureOf(model)
//	data, _ := nn.EncodeArchitecture(arch)
//	_ = nn.SaveWeights("model.h5", model, nil)
//
// # Losses and parameters
//
// CrossEntropyLoss takes raw logits and is numerically stable; MSELoss
// serves regression:
//
//	criterion := nn.NewCrossEntropyLoss(backend)
//	loss := criterion.Forward(logits, labels)
//
// Model.Parameters() exposes every trainable tensor for the optimizers
// in the optim package:
//
//	for _, param := range model.Parameters() {
//	    fmt.Println(param.Name(), param.Tensor().Shape())
//	}
package nn
