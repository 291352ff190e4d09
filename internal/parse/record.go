package parse

import (
	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// RecordCore carries the fields every record has.
//
// LayerNum is the zero-based position in the emitted sequence and
// always equals the record's index in the description's Layers slice.
// Absorbed batch normalization layers leave no gaps: records renumber
// contiguously and the description's LayerIdxMap keeps the original
// positions. OutputShape includes the batch dimension, DynamicDim when
// the model was built with a dynamic batch.
type RecordCore struct {
	LayerNum    int
	Kind        nn.LayerKind
	OutputShape tensor.Shape
	Label       string
}

// Core returns the shared record fields.
func (c RecordCore) Core() RecordCore { return c }

func (RecordCore) isRecord() {}

// Record is one emitted layer of a NetworkDescription. The set of cases
// is closed: one concrete type per layer kind, each carrying only the
// fields relevant to that kind. Consumers dispatch with a type switch:
//
//	switch rec := desc.Layers[k].(type) {
//	case *parse.DenseRecord[B]:
//		use(rec.Weights, rec.Biases)
//	case *parse.ActivationRecord[B]:
//		out, err := rec.Activations.Compute(batch)
//	}
//
// Probe returns the activations probe for the kinds that carry one
// (activation and pooling layers) and nil for all others.
type Record[B tensor.Backend] interface {
	Core() RecordCore
	Probe() *LayerActivations[B]

	// isRecord keeps the case set closed to this package.
	isRecord()
}

// DenseRecord describes a fully connected layer. When a batch
// normalization layer followed it in the original model, its parameters
// are already folded into Weights and Biases.
type DenseRecord[B tensor.Backend] struct {
	RecordCore

	Weights *tensor.RawTensor // [out, in]
	Biases  *tensor.RawTensor // [out], nil when the layer has no bias
}

func (*DenseRecord[B]) Probe() *LayerActivations[B] { return nil }

// ConvRecord describes a 2D convolution layer. Folding applies as for
// DenseRecord, per filter.
type ConvRecord[B tensor.Backend] struct {
	RecordCore

	Weights    *tensor.RawTensor // [out, in, kh, kw]
	Biases     *tensor.RawTensor // [out], nil when the layer has no bias
	InputShape tensor.Shape
	Filters    int
	KernelRows int
	KernelCols int
	BorderMode string
}

func (*ConvRecord[B]) Probe() *LayerActivations[B] { return nil }

// PoolRecord describes a pooling layer; Kind distinguishes max from
// average pooling.
type PoolRecord[B tensor.Backend] struct {
	RecordCore

	InputShape  tensor.Shape
	PoolSize    [2]int
	Strides     [2]int
	BorderMode  string
	Activations *LayerActivations[B]
}

// Probe returns the probe bound to the pooling layer.
func (r *PoolRecord[B]) Probe() *LayerActivations[B] { return r.Activations }

// ActivationRecord describes a standalone activation layer. Activation
// is the function name (relu, sigmoid, tanh, softmax, linear).
type ActivationRecord[B tensor.Backend] struct {
	RecordCore

	Activation  string
	Activations *LayerActivations[B]
}

// Probe returns the probe bound to the activation layer.
func (r *ActivationRecord[B]) Probe() *LayerActivations[B] { return r.Activations }

// GenericRecord covers kinds with no extraction-relevant parameters,
// such as Flatten and Dropout.
type GenericRecord[B tensor.Backend] struct {
	RecordCore
}

func (*GenericRecord[B]) Probe() *LayerActivations[B] { return nil }
