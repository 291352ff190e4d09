package parse

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// SetLayerParams overwrites the learnable parameters of model layer i.
//
// The replacement tensors must match the layer's weights in count,
// order, shape, and dtype; any mismatch fails with nn.ErrShapeMismatch
// before anything is written. There is no reshaping and no partial
// update. An out-of-range index is an error.
func SetLayerParams[B tensor.Backend](model *nn.Model[B], params []*tensor.RawTensor, i int) error {
	if i < 0 || i >= model.Len() {
		return fmt.Errorf("parse: layer index %d out of range [0, %d)", i, model.Len())
	}
	if err := model.Layer(i).SetWeights(params); err != nil {
		return fmt.Errorf("parse: layer %d: %w", i, err)
	}
	return nil
}
