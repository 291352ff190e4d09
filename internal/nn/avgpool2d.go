package nn

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/tensor"
)

// AvgPool2D downsamples a [batch, channels, height, width] input by taking
// the mean over each pooling window. The output shape follows the same rule
// as MaxPool2D. Spiking-oriented conversion pipelines usually prefer average
// pooling, since a rate-coded mean maps onto spike counts directly.
type AvgPool2D[B tensor.Backend] struct {
	poolSize [2]int
	strides  [2]int
	backend  B
}

// NewAvgPool2D creates an average pooling layer with the given
// [height, width] window and strides. Both must be positive.
func NewAvgPool2D[B tensor.Backend](poolSize, strides [2]int, backend B) *AvgPool2D[B] {
	if poolSize[0] <= 0 || poolSize[1] <= 0 {
		panic(fmt.Sprintf("avgpool2d: invalid pool size h=%d, w=%d", poolSize[0], poolSize[1]))
	}
	if strides[0] <= 0 || strides[1] <= 0 {
		panic(fmt.Sprintf("avgpool2d: invalid strides h=%d, w=%d", strides[0], strides[1]))
	}

	return &AvgPool2D[B]{
		poolSize: poolSize,
		strides:  strides,
		backend:  backend,
	}
}

// Forward pools a [batch, channels, height, width] input.
func (a *AvgPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("avgpool2d: expected 4D input [N,C,H,W], got %dD", len(input.Shape())))
	}
	return input.AvgPool2D(a.poolSize[0], a.poolSize[1], a.strides[0], a.strides[1])
}

// Kind returns KindAvgPool2D.
func (a *AvgPool2D[B]) Kind() LayerKind {
	return KindAvgPool2D
}

// OutputShape computes the output shape for a [batch, channels, height, width]
// input. The batch dimension passes through unchanged.
func (a *AvgPool2D[B]) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	return poolOutputShape(KindAvgPool2D, input, a.poolSize, a.strides)
}

// Weights returns nil: pooling has no weights.
func (a *AvgPool2D[B]) Weights() []*tensor.RawTensor {
	return nil
}

// SetWeights rejects any non-empty weight list.
func (a *AvgPool2D[B]) SetWeights(weights []*tensor.RawTensor) error {
	return setWeights[B](KindAvgPool2D, nil, weights)
}

// Parameters returns nil; pooling has nothing to train.
func (a *AvgPool2D[B]) Parameters() []*Parameter[B] {
	return nil
}

func (a *AvgPool2D[B]) String() string {
	return fmt.Sprintf("AvgPool2D(pool_size=(%d, %d), strides=(%d, %d))",
		a.poolSize[0], a.poolSize[1], a.strides[0], a.strides[1])
}

// PoolSize returns the pooling window size [height, width].
func (a *AvgPool2D[B]) PoolSize() [2]int {
	return a.poolSize
}

// Strides returns the strides [height, width].
func (a *AvgPool2D[B]) Strides() [2]int {
	return a.strides
}
