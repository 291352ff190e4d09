// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/serialization"
	"github.com/snnkit/snnkit/tensor"
)

// Module is the base interface for all neural network components.
//
// Every module implements:
//   - Forward: compute output from input
//   - Parameters: return all trainable parameters
//
// Modules can be composed to build larger networks:
//
//	model := nn.NewSequential[*cpu.CPUBackend](
//	    nn.NewDense(784, 128, true, backend),
//	    nn.NewReLU[*cpu.CPUBackend](),
//	    nn.NewDense(128, 10, true, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] = nn.Module[B]

// StateDicter is implemented by components whose parameters round-trip
// through a named state dictionary: Model, Sequential, and every
// weighted layer.
type StateDicter interface {
	// StateDict returns a map of parameter names to raw tensors.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads parameters from a state dictionary. Returns an
	// error if a required parameter is missing or has the wrong shape.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Save saves a component's parameters to a weights file.
//
// This is a convenience function that exports the state dictionary and
// writes it using the native container format.
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewDense(784, 10, true, backend)
//	err := nn.Save(model, "model.snnw", "Dense", nil)
func Save(module StateDicter, path, modelType string, metadata map[string]string) error {
	return serialization.WriteWeights(path, module.StateDict(), modelType, metadata)
}

// Load loads a component's parameters from a weights file.
//
// This is a convenience function that reads a state dictionary from a
// file and loads it into the provided component.
//
// Returns the file header and an error if loading fails.
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewDense(784, 10, true, backend)
//	header, err := nn.Load("model.snnw", backend, model)
func Load[B tensor.Backend](path string, backend B, module StateDicter) (serialization.Header, error) {
	reader, err := serialization.NewWeightsReader(path)
	if err != nil {
		return serialization.Header{}, err
	}
	defer func() {
		_ = reader.Close()
	}()

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return serialization.Header{}, err
	}

	if err := module.LoadStateDict(stateDict); err != nil {
		return serialization.Header{}, err
	}

	return reader.Header(), nil
}
