// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/tensor"
)

// Architecture JSON format identification.
const (
	ArchFormat  = nn.ArchFormat
	ArchVersion = nn.ArchVersion
)

// LayerSpec is the JSON description of one layer: a type name plus a
// type-specific config payload.
type LayerSpec = nn.LayerSpec

// Per-type config payloads for LayerSpec.
type (
	DenseConfig      = nn.DenseConfig
	Conv2DConfig     = nn.Conv2DConfig
	PoolConfig       = nn.PoolConfig
	ActivationConfig = nn.ActivationConfig
	BatchNormConfig  = nn.BatchNormConfig
	DropoutConfig    = nn.DropoutConfig
)

// Architecture is the JSON description of a model: the input shape
// (batch dimension excluded) and the ordered layer list.
type Architecture = nn.Architecture

// EncodeArchitecture serializes an architecture to indented JSON.
func EncodeArchitecture(arch *Architecture) ([]byte, error) {
	return nn.EncodeArchitecture(arch)
}

// DecodeArchitecture parses and validates architecture JSON.
func DecodeArchitecture(data []byte) (*Architecture, error) {
	return nn.DecodeArchitecture(data)
}

// BuildModel constructs a model from an architecture description.
//
// Weights are freshly initialized; use LoadWeights to fill them from a
// weights file.
//
// Example:
//
//	arch, err := nn.DecodeArchitecture(data)
//	if err != nil {
//	    return err
//	}
//	model, err := nn.BuildModel(arch, backend)
func BuildModel[B tensor.Backend](arch *Architecture, backend B) (*Model[B], error) {
	return nn.BuildModel(arch, backend)
}

// ArchitectureOf derives the JSON description of an existing model.
func ArchitectureOf[B tensor.Backend](m *Model[B]) (*Architecture, error) {
	return nn.ArchitectureOf(m)
}

// SaveWeights writes the model's parameters to a weights file.
//
// Example:
//
//	err := nn.SaveWeights("model.h5", model, nil)
func SaveWeights[B tensor.Backend](path string, model *Model[B], metadata map[string]string) error {
	return nn.SaveWeights(path, model, metadata)
}

// LoadWeights reads parameters from a weights file into the model.
//
// Loading is strict: the file must provide exactly the tensors the
// model's layers expect.
func LoadWeights[B tensor.Backend](path string, model *Model[B]) error {
	return nn.LoadWeights(path, model)
}

// Checkpoint is a complete training state snapshot: model parameters,
// optimizer state, and training progress.
type Checkpoint[B tensor.Backend] = nn.Checkpoint[B]

// LoadCheckpoint loads a checkpoint from a weights file.
//
// The model and optimizer must be pre-constructed with the same
// architecture and configuration as when the checkpoint was saved.
//
// Example:
//
//	checkpoint, err := nn.LoadCheckpoint("checkpoint.h5", backend, model, optimizer)
//	startEpoch := checkpoint.Epoch + 1
func LoadCheckpoint[B tensor.Backend](
	path string,
	backend B,
	model *Model[B],
	optimizer OptimizerState,
) (*Checkpoint[B], error) {
	return nn.LoadCheckpoint(path, backend, model, optimizer)
}

// SaveCheckpoint is a convenience wrapper for saving a checkpoint at
// the end of an epoch.
func SaveCheckpoint[B tensor.Backend](
	path string,
	model *Model[B],
	optimizer OptimizerState,
	epoch int,
) error {
	return nn.SaveCheckpoint(path, model, optimizer, epoch)
}
