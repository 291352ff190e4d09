package nn

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/tensor"
)

// Dense is a fully connected layer computing y = x W^T + b.
//
// The weight has shape [out_features, in_features] and the bias, when
// present, [out_features]. Input is [batch_size, in_features].
type Dense[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	useBias     bool
	weight      *Parameter[B]
	bias        *Parameter[B]
	backend     B
}

// NewDense creates a fully connected layer with Xavier-initialized
// weights and a zero bias.
func NewDense[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B) *Dense[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("dense: invalid features in=%d, out=%d", inFeatures, outFeatures))
	}

	weight := NewParameter("weight", Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend))

	var bias *Parameter[B]
	if useBias {
		bias = NewParameter("bias", Zeros(tensor.Shape{outFeatures}, backend))
	}

	return &Dense[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		useBias:     useBias,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward computes x W^T + b for a [batch_size, in_features] input.
func (l *Dense[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Dense.Forward: expected 2D input [batch, features], got shape %v", shape))
	}
	if shape[1] != l.inFeatures {
		panic(fmt.Sprintf("Dense.Forward: expected input with %d features, got %d", l.inFeatures, shape[1]))
	}

	output := input.MatMul(l.weight.Tensor().Transpose())
	if l.bias != nil {
		// Broadcast the bias over the batch as [1, out_features].
		output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}
	return output
}

// Kind returns KindDense.
func (l *Dense[B]) Kind() LayerKind {
	return KindDense
}

// OutputShape computes [batch, out_features] for a [batch, in_features] input.
func (l *Dense[B]) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	if len(input) != 2 {
		return nil, wrapShapeErr("Dense: expected 2D input [batch, features], got %v", input)
	}
	if input[1] != l.inFeatures {
		return nil, wrapShapeErr("Dense: input features %d, want %d", input[1], l.inFeatures)
	}
	return tensor.Shape{input[0], l.outFeatures}, nil
}

// Weights returns deep copies of [weight, bias] ([weight] without bias).
func (l *Dense[B]) Weights() []*tensor.RawTensor {
	return weightSnapshots(l.Parameters())
}

// SetWeights replaces [weight, bias] after strict shape validation.
func (l *Dense[B]) SetWeights(weights []*tensor.RawTensor) error {
	return setWeights(KindDense, l.Parameters(), weights)
}

// Parameters returns the weight, plus the bias when present.
func (l *Dense[B]) Parameters() []*Parameter[B] {
	if l.bias == nil {
		return []*Parameter[B]{l.weight}
	}
	return []*Parameter[B]{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Dense[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter, or nil when the layer has no bias.
func (l *Dense[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the input width.
func (l *Dense[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the output width.
func (l *Dense[B]) OutFeatures() int {
	return l.outFeatures
}

// String renders the layer configuration.
func (l *Dense[B]) String() string {
	return fmt.Sprintf("Dense(in_features=%d, out_features=%d, bias=%v)",
		l.inFeatures, l.outFeatures, l.useBias)
}

// StateDict returns the parameters keyed "weight" and "bias".
func (l *Dense[B]) StateDict() map[string]*tensor.RawTensor {
	state := map[string]*tensor.RawTensor{"weight": l.weight.Tensor().Raw()}
	if l.bias != nil {
		state["bias"] = l.bias.Tensor().Raw()
	}
	return state
}

// LoadStateDict restores the parameters from a state dictionary.
func (l *Dense[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadStateEntry(stateDict, "weight", tensor.Shape{l.outFeatures, l.inFeatures}, l.weight); err != nil {
		return err
	}
	if l.bias == nil {
		return nil
	}
	return loadStateEntry(stateDict, "bias", tensor.Shape{l.outFeatures}, l.bias)
}
