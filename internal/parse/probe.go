package parse

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// LayerActivations probes the inference-mode output of one layer of a
// live model.
//
// The probe is bound to the layer's position in the original model.
// Extraction never modifies the model, so the binding stays valid even
// when batch normalization layers ahead of the probed layer were folded
// into earlier records. Probes are independent of each other and hold
// no mutable state.
type LayerActivations[B tensor.Backend] struct {
	model      *nn.Model[B]
	layerIndex int
}

// LayerIndex returns the probed layer's position in the original model.
func (p *LayerActivations[B]) LayerIndex() int {
	return p.layerIndex
}

// Compute runs a batch through the model up to the probed layer and
// returns that layer's output. The input must match the model's input
// shape.
func (p *LayerActivations[B]) Compute(x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	if err := checkBatchShape(p.model.InputShape(), x.Shape()); err != nil {
		return nil, err
	}
	return p.model.ForwardTo(p.layerIndex, x), nil
}

// checkBatchShape validates a concrete input shape against a model
// input shape whose batch dimension may be DynamicDim.
func checkBatchShape(want, got tensor.Shape) error {
	if len(got) != len(want) {
		return fmt.Errorf("parse: input rank %d, want %d: %w", len(got), len(want), nn.ErrShapeMismatch)
	}
	for i, dim := range want {
		if dim == nn.DynamicDim {
			continue
		}
		if got[i] != dim {
			return fmt.Errorf("parse: input shape %v, want %v: %w", got, want, nn.ErrShapeMismatch)
		}
	}
	return nil
}
