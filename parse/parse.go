// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package parse turns a trained model into a framework-agnostic network
// description for the spiking conversion stages.
//
// Extract is the entry point: it walks a model's layers in order and
// emits one record per layer, folding batch normalization parameters
// into the preceding affine layer as it goes.
//
// # Example Usage
//
//	import (
//	    "github.com/snnkit/snnkit/backend/cpu"
//	    "github.com/snnkit/snnkit/loader"
//	    "github.com/snnkit/snnkit/parse"
//	)
//
//	backend := cpu.New()
//	loaded, err := loader.Load(backend, loader.Config[*cpu.CPUBackend]{
//	    Path:      "models",
//	    ModelName: "lenet",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	desc, err := parse.Extract(loaded.Model, parse.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, rec := range desc.Layers {
//	    fmt.Println(rec.Core().Label)
//	}
package parse

import (
	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/parse"
	"github.com/snnkit/snnkit/internal/tensor"
)

// ErrBatchNormPlacement reports a batch normalization layer with no
// absorbable layer directly before it.
var ErrBatchNormPlacement = parse.ErrBatchNormPlacement

// Config controls extraction.
type Config = parse.Config

// NetworkDescription is the result of extraction: one record per
// emitted layer, in model order, with batch normalization layers folded
// away.
type NetworkDescription[B tensor.Backend] = parse.NetworkDescription[B]

// Record is one emitted layer of a NetworkDescription. Consumers
// dispatch on the concrete record types:
//
//	switch rec := desc.Layers[k].(type) {
//	case *parse.DenseRecord[*cpu.CPUBackend]:
//	    use(rec.Weights, rec.Biases)
//	case *parse.ActivationRecord[*cpu.CPUBackend]:
//	    out, err := rec.Activations.Compute(batch)
//	}
type Record[B tensor.Backend] = parse.Record[B]

// RecordCore carries the fields every record has.
type RecordCore = parse.RecordCore

// The concrete record cases, one per layer kind.
type (
	DenseRecord[B tensor.Backend]      = parse.DenseRecord[B]
	ConvRecord[B tensor.Backend]       = parse.ConvRecord[B]
	PoolRecord[B tensor.Backend]       = parse.PoolRecord[B]
	ActivationRecord[B tensor.Backend] = parse.ActivationRecord[B]
	GenericRecord[B tensor.Backend]    = parse.GenericRecord[B]
)

// LayerActivations probes the inference-mode output of one layer of a
// live model.
type LayerActivations[B tensor.Backend] = parse.LayerActivations[B]

// EvalFunc evaluates a model on a labelled batch: inputs x in the
// model's input shape, one-hot float32 targets y, loss and accuracy
// out.
type EvalFunc = parse.EvalFunc

// Extract walks a trained model and builds its network description.
//
// Layers are visited in order. A batch normalization layer is never
// emitted: its parameters fold into the preceding layer's record, whose
// kind must be absorbable per cfg, otherwise extraction fails with
// ErrBatchNormPlacement and no partial description. The model is never
// modified; record weights are snapshots.
//
// Example:
//
//	desc, err := parse.Extract(model, parse.Config{})
func Extract[B tensor.Backend](model *nn.Model[B], cfg Config) (*NetworkDescription[B], error) {
	return parse.Extract(model, cfg)
}

// AbsorbBatchNorm folds batch normalization parameters into the weights
// of the preceding affine layer.
//
// With inv = 1/sqrt(variance + epsilon) per output unit j:
//
//	W'[j,...] = W[j,...] * gamma[j] * inv[j]
//	b'[j]     = beta[j] + (b[j] - mean[j]) * gamma[j] * inv[j]
//
// The returned tensors are fresh; no input is modified. A nil biases
// counts as a zero vector.
func AbsorbBatchNorm(weights, biases, gamma, beta, mean, variance *tensor.RawTensor, epsilon float64) (*tensor.RawTensor, *tensor.RawTensor, error) {
	return parse.AbsorbBatchNorm(weights, biases, gamma, beta, mean, variance, epsilon)
}

// SetLayerParams overwrites the learnable parameters of model layer i.
//
// The replacement tensors must match the layer's weights in count,
// order, shape, and dtype; any mismatch fails with nn.ErrShapeMismatch
// before anything is written.
func SetLayerParams[B tensor.Backend](model *nn.Model[B], params []*tensor.RawTensor, i int) error {
	return parse.SetLayerParams(model, params, i)
}

// EvaluateANN runs the stored evaluation callable on a test set. The
// callable's metrics come back unmodified.
func EvaluateANN(eval EvalFunc, x, y *tensor.RawTensor) (nn.Metrics, error) {
	return parse.EvaluateANN(eval, x, y)
}
