package nn

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/tensor"
)

// Backends advertise the activations they implement through these
// optional interfaces. Forward panics when the backend lacks the one
// it needs; the CPU backend implements all three.
type (
	ReLUBackend interface {
		ReLU(*tensor.RawTensor) *tensor.RawTensor
	}
	SigmoidBackend interface {
		Sigmoid(*tensor.RawTensor) *tensor.RawTensor
	}
	TanhBackend interface {
		Tanh(*tensor.RawTensor) *tensor.RawTensor
	}
)

// ReLU zeroes negative elements, f(x) = max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies the activation element-wise.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	rb, ok := any(backend).(ReLUBackend)
	if !ok {
		panic("ReLU: backend must implement ReLU operation")
	}
	return tensor.New[float32, B](rb.ReLU(input.Raw()), backend)
}

// Parameters returns nil; ReLU has nothing to train.
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// Sigmoid squashes elements into (0, 1) via 1 / (1 + exp(-x)).
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies the activation element-wise.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	sb, ok := any(backend).(SigmoidBackend)
	if !ok {
		panic("Sigmoid: backend must implement Sigmoid operation")
	}
	return tensor.New[float32, B](sb.Sigmoid(input.Raw()), backend)
}

// Parameters returns nil; Sigmoid has nothing to train.
func (s *Sigmoid[B]) Parameters() []*Parameter[B] {
	return nil
}

// Tanh squashes elements into (-1, 1), zero-centered.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies the activation element-wise.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	tb, ok := any(backend).(TanhBackend)
	if !ok {
		panic("Tanh: backend must implement Tanh operation")
	}
	return tensor.New[float32, B](tb.Tanh(input.Raw()), backend)
}

// Parameters returns nil; Tanh has nothing to train.
func (t *Tanh[B]) Parameters() []*Parameter[B] {
	return nil
}

// Softmax is a softmax activation module.
//
// Applies softmax along the given dimension, producing a probability
// distribution (non-negative values summing to 1 along that dimension).
// Typically used as the final activation of a classifier with dim -1.
type Softmax[B tensor.Backend] struct {
	dim int
}

// NewSoftmax creates a new Softmax activation module.
// Negative dims count from the end (-1 is the last dimension).
func NewSoftmax[B tensor.Backend](dim int) *Softmax[B] {
	return &Softmax[B]{dim: dim}
}

// Forward applies softmax along the configured dimension.
func (s *Softmax[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Softmax(s.dim)
}

// Parameters returns nil; Softmax has nothing to train.
func (s *Softmax[B]) Parameters() []*Parameter[B] {
	return nil
}

// Activation function names accepted by NewActivation.
const (
	ActReLU    = "relu"
	ActSigmoid = "sigmoid"
	ActTanh    = "tanh"
	ActSoftmax = "softmax"
	ActLinear  = "linear"
)

// Activation is a named activation layer.
//
// It wraps one of the activation modules above and remembers its name, so
// model descriptions can round-trip through serialization and the layer
// can be identified when scanning a network. The "linear" activation is
// the identity and applies no transformation.
type Activation[B tensor.Backend] struct {
	name  string
	inner Module[B] // nil for linear
}

// NewActivation creates an activation layer from a function name.
//
// Supported names: "relu", "sigmoid", "tanh", "softmax", "linear".
// Softmax is applied along the last dimension. Returns
// ErrUnknownActivation for any other name.
func NewActivation[B tensor.Backend](name string, backend B) (*Activation[B], error) {
	var inner Module[B]
	switch name {
	case ActReLU:
		inner = NewReLU[B]()
	case ActSigmoid:
		inner = NewSigmoid[B]()
	case ActTanh:
		inner = NewTanh[B]()
	case ActSoftmax:
		inner = NewSoftmax[B](-1)
	case ActLinear:
		inner = nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownActivation)
	}
	return &Activation[B]{name: name, inner: inner}, nil
}

// Forward applies the named activation function element-wise.
func (a *Activation[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if a.inner == nil {
		return input
	}
	return a.inner.Forward(input)
}

// Kind returns KindActivation.
func (a *Activation[B]) Kind() LayerKind {
	return KindActivation
}

// OutputShape returns the input shape unchanged.
func (a *Activation[B]) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	if len(input) == 0 {
		return nil, wrapShapeErr("Activation: empty input shape")
	}
	return input.Clone(), nil
}

// Weights returns nil: activations have no weights.
func (a *Activation[B]) Weights() []*tensor.RawTensor {
	return nil
}

// SetWeights rejects any non-empty weight list.
func (a *Activation[B]) SetWeights(weights []*tensor.RawTensor) error {
	return setWeights[B](KindActivation, nil, weights)
}

// Parameters returns nil; activations have nothing to train.
func (a *Activation[B]) Parameters() []*Parameter[B] {
	return nil
}

// ActivationName returns the function name ("relu", "softmax", ...).
func (a *Activation[B]) ActivationName() string {
	return a.name
}

// String returns a string representation of the layer.
func (a *Activation[B]) String() string {
	return fmt.Sprintf("Activation(%s)", a.name)
}
