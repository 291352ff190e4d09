package nn

import (
	"fmt"
	"strings"
	"time"

	"github.com/snnkit/snnkit/internal/serialization"
	"github.com/snnkit/snnkit/internal/tensor"
)

// SaveWeights writes the model's parameters to a weights file.
//
// Tensor names follow StateDict: layer index plus parameter name, for
// example "0.weight" or "2.gamma". The metadata map is stored verbatim
// in the file header and may be nil.
func SaveWeights[B tensor.Backend](path string, model *Model[B], metadata map[string]string) error {
	return serialization.WriteWeights(path, model.StateDict(), "Model", metadata)
}

// LoadWeights reads parameters from a weights file into the model.
//
// Loading is strict in both directions: a tensor in the file that no
// layer owns, or a model parameter the file does not provide, means the
// file describes a different architecture and is an error. Shape and
// dtype mismatches are rejected by the layers themselves.
func LoadWeights[B tensor.Backend](path string, model *Model[B]) error {
	stateDict, _, err := serialization.ReadWeights(path, model.Backend())
	if err != nil {
		return err
	}

	expected := model.StateDict()
	for key := range stateDict {
		if _, ok := expected[key]; !ok {
			return fmt.Errorf("weights file %s: unknown tensor %q", path, key)
		}
	}
	for key := range expected {
		if _, ok := stateDict[key]; !ok {
			return fmt.Errorf("weights file %s: missing tensor %q", path, key)
		}
	}

	return model.LoadStateDict(stateDict)
}

// Checkpoint is a complete training state snapshot: model parameters,
// optimizer state, and training progress. Checkpoints let a training
// run resume from where it stopped.
//
// Example:
//
//	checkpoint := &nn.Checkpoint[*cpu.CPUBackend]{
//	    Model:     model,
//	    Optimizer: optimizer,
//	    Epoch:     10,
//	    Step:      5000,
//	    Loss:      0.123,
//	}
//	err := checkpoint.Save("checkpoint_epoch_10.h5")
//
// To resume training:
//
//	checkpoint, err := nn.LoadCheckpoint("checkpoint.h5", backend, model, optimizer)
//	startEpoch := checkpoint.Epoch + 1
type Checkpoint[B tensor.Backend] struct {
	Model     *Model[B]      // The model being trained
	Optimizer OptimizerState // The optimizer with its state, may be nil
	Epoch     int            // Training epoch number
	Step      int64          // Training step number
	Loss      float64        // Loss value at this checkpoint
	Metadata  map[string]any // Additional training metadata
	CreatedAt time.Time      // When the checkpoint was created
}

// optimizerPrefix separates optimizer tensors from model tensors inside
// a checkpoint's combined state dictionary.
const optimizerPrefix = "optimizer."

// Save writes the checkpoint to a weights file.
//
// Model parameters and optimizer state share one state dictionary;
// optimizer tensors are stored under the "optimizer." prefix. The file
// can be loaded with LoadCheckpoint to resume training.
func (c *Checkpoint[B]) Save(path string) (err error) {
	combined := c.Model.StateDict()
	if c.Optimizer != nil {
		for name, raw := range c.Optimizer.StateDict() {
			combined[optimizerPrefix+name] = raw
		}
	}

	meta := &serialization.CheckpointMeta{
		IsCheckpoint: true,
		Epoch:        c.Epoch,
		Step:         c.Step,
		Loss:         c.Loss,
		TrainingMeta: c.Metadata,
	}
	if c.Optimizer != nil {
		meta.OptimizerType = optimizerTypeName(c.Optimizer)
		meta.OptimizerConfig = map[string]any{"lr": c.Optimizer.GetLR()}
	}

	writer, err := serialization.NewWeightsWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	header := serialization.Header{
		ModelType:      "Checkpoint",
		CheckpointMeta: meta,
	}
	if err := writer.WriteStateDictWithHeader(combined, header); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	return nil
}

// LoadCheckpoint loads a checkpoint from a weights file.
//
// The model and optimizer must be pre-constructed with the same
// architecture and configuration as when the checkpoint was saved.
// A nil optimizer skips the optimizer state entirely.
//
// Returns the checkpoint with restored state, or an error if the file
// is not a checkpoint or the state does not fit.
func LoadCheckpoint[B tensor.Backend](
	path string,
	backend B,
	model *Model[B],
	optimizer OptimizerState,
) (*Checkpoint[B], error) {
	reader, err := serialization.NewWeightsReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	defer reader.Close()

	header := reader.Header()
	if header.CheckpointMeta == nil || !header.CheckpointMeta.IsCheckpoint {
		return nil, fmt.Errorf("file %s is not a checkpoint", path)
	}

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return nil, fmt.Errorf("failed to read state dict: %w", err)
	}

	modelState := make(map[string]*tensor.RawTensor)
	optimizerState := make(map[string]*tensor.RawTensor)
	for name, raw := range stateDict {
		if strings.HasPrefix(name, optimizerPrefix) {
			optimizerState[strings.TrimPrefix(name, optimizerPrefix)] = raw
		} else {
			modelState[name] = raw
		}
	}

	if err := model.LoadStateDict(modelState); err != nil {
		return nil, fmt.Errorf("failed to load model state: %w", err)
	}
	if optimizer != nil {
		if err := optimizer.LoadStateDict(optimizerState); err != nil {
			return nil, fmt.Errorf("failed to load optimizer state: %w", err)
		}
	}

	return &Checkpoint[B]{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     header.CheckpointMeta.Epoch,
		Step:      header.CheckpointMeta.Step,
		Loss:      header.CheckpointMeta.Loss,
		Metadata:  header.CheckpointMeta.TrainingMeta,
		CreatedAt: header.CreatedAt,
	}, nil
}

// SaveCheckpoint is a convenience wrapper for saving a checkpoint at
// the end of an epoch.
func SaveCheckpoint[B tensor.Backend](
	path string,
	model *Model[B],
	optimizer OptimizerState,
	epoch int,
) error {
	checkpoint := &Checkpoint[B]{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     epoch,
		CreatedAt: time.Now().UTC(),
	}
	return checkpoint.Save(path)
}

// optimizerTypeName returns a display name for the optimizer.
func optimizerTypeName(opt OptimizerState) string {
	if n, ok := opt.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "Optimizer"
}
