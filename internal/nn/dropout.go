package nn

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/tensor"
)

// Dropout is a dropout layer running in inference mode.
//
// During inference dropout is the identity function, so Forward returns
// its input unchanged. The layer exists so trained models that contain
// dropout can be loaded and described faithfully; the rate is kept for
// reporting only.
type Dropout[B tensor.Backend] struct {
	rate float32
}

// NewDropout creates a dropout layer with the given drop rate in [0, 1).
func NewDropout[B tensor.Backend](rate float32) *Dropout[B] {
	if rate < 0 || rate >= 1 {
		panic(fmt.Sprintf("dropout: rate must be in [0, 1), got %g", rate))
	}
	return &Dropout[B]{rate: rate}
}

// Forward returns the input unchanged.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input
}

// Kind returns KindDropout.
func (d *Dropout[B]) Kind() LayerKind {
	return KindDropout
}

// OutputShape returns the input shape unchanged.
func (d *Dropout[B]) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	if len(input) == 0 {
		return nil, wrapShapeErr("Dropout: empty input shape")
	}
	return input.Clone(), nil
}

// Weights returns nil: Dropout has no weights.
func (d *Dropout[B]) Weights() []*tensor.RawTensor {
	return nil
}

// SetWeights rejects any non-empty weight list.
func (d *Dropout[B]) SetWeights(weights []*tensor.RawTensor) error {
	return setWeights[B](KindDropout, nil, weights)
}

// Parameters returns nil; Dropout has nothing to train.
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}

// Rate returns the configured drop rate.
func (d *Dropout[B]) Rate() float32 {
	return d.rate
}

// String returns a string representation of the layer.
func (d *Dropout[B]) String() string {
	return fmt.Sprintf("Dropout(rate=%g)", d.rate)
}
