package parse

import (
	"fmt"
	"log/slog"

	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// Config controls extraction.
type Config struct {
	// Absorbable lists the layer kinds allowed to absorb a directly
	// following batch normalization layer. Empty means the default,
	// Dense and Conv2D.
	Absorbable []nn.LayerKind

	// Logger receives extraction progress. Nil disables logging.
	Logger *slog.Logger
}

// absorbable returns the configured allow-list as a set.
func (c Config) absorbable() map[nn.LayerKind]bool {
	kinds := c.Absorbable
	if len(kinds) == 0 {
		kinds = []nn.LayerKind{nn.KindDense, nn.KindConv2D}
	}
	set := make(map[nn.LayerKind]bool, len(kinds))
	for _, kind := range kinds {
		set[kind] = true
	}
	return set
}

// NetworkDescription is the result of extraction: one record per
// emitted layer, in model order, with batch normalization layers folded
// away.
//
// Labels aligns positionally with Layers. LayerIdxMap maps an emitted
// record's index to the layer's position in the original model: the
// identity when nothing was absorbed, skipping the absorbed positions
// otherwise. A description lives in memory only and is rebuilt per
// extraction call; the model's own serialization is separate.
type NetworkDescription[B tensor.Backend] struct {
	InputShape  tensor.Shape
	Layers      []Record[B]
	Labels      []string
	LayerIdxMap []int
}

// Extract walks a trained model and builds its network description.
//
// Layers are visited in order. A batch normalization layer is never
// emitted: its parameters fold into the preceding layer's record, whose
// kind must be absorbable per cfg, otherwise extraction fails with
// ErrBatchNormPlacement and no partial description. Activation and
// pooling records receive an activations probe bound to the layer's
// original position. The model is never modified; record weights are
// snapshots.
func Extract[B tensor.Backend](model *nn.Model[B], cfg Config) (*NetworkDescription[B], error) {
	absorbable := cfg.absorbable()
	layers := model.Layers()

	desc := &NetworkDescription[B]{
		InputShape: model.InputShape(),
	}

	skipNext := false
	for i, layer := range layers {
		if skipNext {
			skipNext = false
			continue
		}
		kind := layer.Kind()
		if kind == nn.KindBatchNorm {
			// Reachable only at position 0 or directly after another
			// batch normalization layer; nothing absorbed it.
			return nil, fmt.Errorf("parse: layer %d: %w", i, ErrBatchNormPlacement)
		}

		layerNum := len(desc.Layers)
		outputShape := model.LayerOutputShape(i)
		core := RecordCore{
			LayerNum:    layerNum,
			Kind:        kind,
			OutputShape: outputShape,
			Label:       labelFor(layerNum, kind, outputShape),
		}

		weights := layer.Weights()

		if i+1 < len(layers) && layers[i+1].Kind() == nn.KindBatchNorm {
			if !absorbable[kind] {
				return nil, fmt.Errorf("parse: layer %d (%s) precedes batch normalization: %w",
					i, kind, ErrBatchNormPlacement)
			}
			if len(weights) == 0 {
				return nil, fmt.Errorf("parse: layer %d (%s) has no weights to fold into: %w",
					i, kind, ErrBatchNormPlacement)
			}
			bn, ok := any(layers[i+1]).(*nn.BatchNorm[B])
			if !ok {
				return nil, fmt.Errorf("parse: layer %d reports kind BatchNorm but is %T", i+1, layers[i+1])
			}

			var biases *tensor.RawTensor
			if len(weights) > 1 {
				biases = weights[1]
			}
			bnWeights := bn.Weights() // [gamma, beta, mean, variance]
			foldedW, foldedB, err := AbsorbBatchNorm(weights[0], biases,
				bnWeights[0], bnWeights[1], bnWeights[2], bnWeights[3], float64(bn.Epsilon()))
			if err != nil {
				return nil, fmt.Errorf("parse: layer %d (%s): %w", i, kind, err)
			}
			weights = []*tensor.RawTensor{foldedW, foldedB}
			skipNext = true

			if cfg.Logger != nil {
				cfg.Logger.Debug("absorbed batch normalization",
					"layer", i+1, "into", core.Label)
			}
		}

		inputShape := model.InputShape()
		if i > 0 {
			inputShape = model.LayerOutputShape(i - 1)
		}

		desc.Layers = append(desc.Layers, newRecord(model, i, layer, core, inputShape, weights))
		desc.Labels = append(desc.Labels, core.Label)
		desc.LayerIdxMap = append(desc.LayerIdxMap, i)
	}

	if cfg.Logger != nil {
		cfg.Logger.Debug("extraction complete",
			"model_layers", len(layers), "records", len(desc.Layers))
	}
	return desc, nil
}

// newRecord builds the kind-specific record case for one layer. The
// weights slice is the snapshot to store, already folded when a batch
// normalization layer followed.
func newRecord[B tensor.Backend](model *nn.Model[B], index int, layer nn.Layer[B],
	core RecordCore, inputShape tensor.Shape, weights []*tensor.RawTensor) Record[B] {

	var w, b *tensor.RawTensor
	if len(weights) > 0 {
		w = weights[0]
	}
	if len(weights) > 1 {
		b = weights[1]
	}

	switch l := any(layer).(type) {
	case *nn.Dense[B]:
		return &DenseRecord[B]{RecordCore: core, Weights: w, Biases: b}

	case *nn.Conv2D[B]:
		kernel := l.KernelSize()
		return &ConvRecord[B]{
			RecordCore: core,
			Weights:    w,
			Biases:     b,
			InputShape: inputShape,
			Filters:    l.OutChannels(),
			KernelRows: kernel[0],
			KernelCols: kernel[1],
			BorderMode: l.BorderMode(),
		}

	case *nn.MaxPool2D[B]:
		return &PoolRecord[B]{
			RecordCore:  core,
			InputShape:  inputShape,
			PoolSize:    l.PoolSize(),
			Strides:     l.Strides(),
			BorderMode:  nn.BorderValid,
			Activations: &LayerActivations[B]{model: model, layerIndex: index},
		}

	case *nn.AvgPool2D[B]:
		return &PoolRecord[B]{
			RecordCore:  core,
			InputShape:  inputShape,
			PoolSize:    l.PoolSize(),
			Strides:     l.Strides(),
			BorderMode:  nn.BorderValid,
			Activations: &LayerActivations[B]{model: model, layerIndex: index},
		}

	case *nn.Activation[B]:
		return &ActivationRecord[B]{
			RecordCore:  core,
			Activation:  l.ActivationName(),
			Activations: &LayerActivations[B]{model: model, layerIndex: index},
		}

	default:
		return &GenericRecord[B]{RecordCore: core}
	}
}
