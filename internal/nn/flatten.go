package nn

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/tensor"
)

// Flatten collapses all dimensions after the batch dimension.
//
// Input shape:  [batch, d1, d2, ..., dn]
// Output shape: [batch, d1*d2*...*dn]
//
// Typically used between the convolutional and dense parts of a
// classifier, e.g. [batch, 16, 4, 4] -> [batch, 256].
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a new Flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward reshapes the input to [batch, features].
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) < 2 {
		panic(fmt.Sprintf("flatten: expected at least 2D input, got %dD", len(inputShape)))
	}

	features := 1
	for _, dim := range inputShape[1:] {
		features *= dim
	}
	return input.Reshape(inputShape[0], features)
}

// Kind returns KindFlatten.
func (f *Flatten[B]) Kind() LayerKind {
	return KindFlatten
}

// OutputShape computes [batch, product of remaining dims]. The batch
// dimension passes through unchanged, the rest must be concrete.
func (f *Flatten[B]) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	if len(input) < 2 {
		return nil, wrapShapeErr("Flatten: expected at least 2D input, got %v", input)
	}

	features := 1
	for _, dim := range input[1:] {
		if dim <= 0 {
			return nil, wrapShapeErr("Flatten: non-batch dimensions must be positive, got %v", input)
		}
		features *= dim
	}
	return tensor.Shape{input[0], features}, nil
}

// Weights returns nil: Flatten has no weights.
func (f *Flatten[B]) Weights() []*tensor.RawTensor {
	return nil
}

// SetWeights rejects any non-empty weight list.
func (f *Flatten[B]) SetWeights(weights []*tensor.RawTensor) error {
	return setWeights[B](KindFlatten, nil, weights)
}

// Parameters returns nil; Flatten has nothing to train.
func (f *Flatten[B]) Parameters() []*Parameter[B] {
	return nil
}

// String returns a string representation of the layer.
func (f *Flatten[B]) String() string {
	return "Flatten()"
}
