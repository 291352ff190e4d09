package nn

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/tensor"
)

// MaxPool2D downsamples a [batch, channels, height, width] input by taking
// the maximum over each pooling window:
//
//	out_height = (height - pool_h) / stride_h + 1
//	out_width = (width - pool_w) / stride_w + 1
//
// The usual configuration is a 2x2 window with stride 2, which halves both
// spatial dimensions. Pooling has no learnable parameters.
type MaxPool2D[B tensor.Backend] struct {
	poolSize [2]int
	strides  [2]int
	backend  B
}

// NewMaxPool2D creates a max pooling layer with the given [height, width]
// window and strides. Both must be positive.
func NewMaxPool2D[B tensor.Backend](poolSize, strides [2]int, backend B) *MaxPool2D[B] {
	if poolSize[0] <= 0 || poolSize[1] <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid pool size h=%d, w=%d", poolSize[0], poolSize[1]))
	}
	if strides[0] <= 0 || strides[1] <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid strides h=%d, w=%d", strides[0], strides[1]))
	}

	return &MaxPool2D[B]{
		poolSize: poolSize,
		strides:  strides,
		backend:  backend,
	}
}

// Forward pools a [batch, channels, height, width] input.
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %dD", len(input.Shape())))
	}
	return input.MaxPool2D(m.poolSize[0], m.poolSize[1], m.strides[0], m.strides[1])
}

// Kind returns KindMaxPool2D.
func (m *MaxPool2D[B]) Kind() LayerKind {
	return KindMaxPool2D
}

// OutputShape computes the output shape for a [batch, channels, height, width]
// input. The batch dimension passes through unchanged.
func (m *MaxPool2D[B]) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	return poolOutputShape(KindMaxPool2D, input, m.poolSize, m.strides)
}

// Weights returns nil: pooling has no weights.
func (m *MaxPool2D[B]) Weights() []*tensor.RawTensor {
	return nil
}

// SetWeights rejects any non-empty weight list.
func (m *MaxPool2D[B]) SetWeights(weights []*tensor.RawTensor) error {
	return setWeights[B](KindMaxPool2D, nil, weights)
}

// Parameters returns nil; pooling has nothing to train.
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] {
	return nil
}

func (m *MaxPool2D[B]) String() string {
	return fmt.Sprintf("MaxPool2D(pool_size=(%d, %d), strides=(%d, %d))",
		m.poolSize[0], m.poolSize[1], m.strides[0], m.strides[1])
}

// PoolSize returns the pooling window size [height, width].
func (m *MaxPool2D[B]) PoolSize() [2]int {
	return m.poolSize
}

// Strides returns the strides [height, width].
func (m *MaxPool2D[B]) Strides() [2]int {
	return m.strides
}

// poolOutputShape is the shared shape rule for MaxPool2D and AvgPool2D.
func poolOutputShape(kind LayerKind, input tensor.Shape, poolSize, strides [2]int) (tensor.Shape, error) {
	if len(input) != 4 {
		return nil, wrapShapeErr("%s: expected 4D input [batch, channels, height, width], got %v", kind, input)
	}
	if input[2] <= 0 || input[3] <= 0 {
		return nil, wrapShapeErr("%s: spatial dimensions must be positive, got %v", kind, input)
	}
	if poolSize[0] > input[2] || poolSize[1] > input[3] {
		return nil, wrapShapeErr("%s: pool size %dx%d exceeds input %v",
			kind, poolSize[0], poolSize[1], input)
	}

	outH := (input[2]-poolSize[0])/strides[0] + 1
	outW := (input[3]-poolSize[1])/strides[1] + 1
	return tensor.Shape{input[0], input[1], outH, outW}, nil
}
