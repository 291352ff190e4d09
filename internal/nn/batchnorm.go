package nn

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/tensor"
)

// DefaultBNEpsilon is the numerical stability constant used when a model
// description does not specify one. Matches the Keras default.
const DefaultBNEpsilon float32 = 1e-3

// BatchNorm is a batch normalization layer running in inference mode.
//
// Normalizes each feature (or channel) using the stored running statistics:
//
//	y = gamma * (x - mean) / sqrt(variance + epsilon) + beta
//
// Input shape: [batch, features] or [batch, channels, height, width].
// The normalized axis is axis 1 in both cases.
//
// There is no training mode: the running mean and variance are loaded
// from a trained model, never updated. This matches how the layer is used
// during weight normalization and folding, where batch statistics are
// already frozen.
type BatchNorm[B tensor.Backend] struct {
	numFeatures int
	epsilon     float32

	gamma    *Parameter[B] // scale, shape [features]
	beta     *Parameter[B] // shift, shape [features]
	mean     *Parameter[B] // running mean, shape [features]
	variance *Parameter[B] // running variance, shape [features]

	backend B
}

// NewBatchNorm creates a batch normalization layer.
//
// Parameters:
//   - numFeatures: Size of the normalized axis (features for 2D input,
//     channels for 4D input)
//   - epsilon: Small constant added to the variance for numerical stability
//     (Keras uses 1e-3, PyTorch 1e-5)
//   - backend: Backend for computation
//
// Initialization: gamma and variance start at ones, beta and mean at zeros,
// making the fresh layer an identity transform.
func NewBatchNorm[B tensor.Backend](numFeatures int, epsilon float32, backend B) *BatchNorm[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("batchnorm: invalid feature count %d", numFeatures))
	}
	if epsilon <= 0 {
		panic(fmt.Sprintf("batchnorm: epsilon must be positive, got %g", epsilon))
	}

	shape := tensor.Shape{numFeatures}
	return &BatchNorm[B]{
		numFeatures: numFeatures,
		epsilon:     epsilon,
		gamma:       NewParameter("gamma", Ones(shape, backend)),
		beta:        NewParameter("beta", Zeros(shape, backend)),
		mean:        NewParameter("mean", Zeros(shape, backend)),
		variance:    NewParameter("variance", Ones(shape, backend)),
		backend:     backend,
	}
}

// Forward normalizes the input with the stored running statistics.
//
// Input: [batch, features] or [batch, channels, height, width]
// Output: same shape as input.
func (bn *BatchNorm[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	statShape := bn.statShape(input.Shape())

	gamma := bn.gamma.Tensor().Reshape(statShape...)
	beta := bn.beta.Tensor().Reshape(statShape...)
	mean := bn.mean.Tensor().Reshape(statShape...)
	variance := bn.variance.Tensor().Reshape(statShape...)

	// std = sqrt(variance + epsilon)
	eps := tensor.Full[float32](tensor.Shape{1}, bn.epsilon, bn.backend)
	std := variance.Add(eps).Sqrt()

	// y = gamma * (x - mean) / std + beta
	return input.Sub(mean).Div(std).Mul(gamma).Add(beta)
}

// statShape returns the broadcast shape for the per-feature statistics,
// [1, F] for 2D input and [1, C, 1, 1] for 4D input.
func (bn *BatchNorm[B]) statShape(inputShape tensor.Shape) []int {
	if len(inputShape) != 2 && len(inputShape) != 4 {
		panic(fmt.Sprintf("batchnorm: expected 2D or 4D input, got %dD", len(inputShape)))
	}
	if inputShape[1] != bn.numFeatures {
		panic(fmt.Sprintf("batchnorm: input features %d != expected %d", inputShape[1], bn.numFeatures))
	}

	if len(inputShape) == 2 {
		return []int{1, bn.numFeatures}
	}
	return []int{1, bn.numFeatures, 1, 1}
}

// Kind returns KindBatchNorm.
func (bn *BatchNorm[B]) Kind() LayerKind {
	return KindBatchNorm
}

// OutputShape returns the input shape unchanged after validating it.
func (bn *BatchNorm[B]) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	if len(input) != 2 && len(input) != 4 {
		return nil, wrapShapeErr("BatchNorm: expected 2D or 4D input, got %v", input)
	}
	if input[1] != bn.numFeatures {
		return nil, wrapShapeErr("BatchNorm: input features %d, want %d", input[1], bn.numFeatures)
	}
	return input.Clone(), nil
}

// Weights returns deep copies of [gamma, beta, mean, variance].
func (bn *BatchNorm[B]) Weights() []*tensor.RawTensor {
	return weightSnapshots(bn.allParams())
}

// SetWeights replaces [gamma, beta, mean, variance] after strict shape validation.
func (bn *BatchNorm[B]) SetWeights(weights []*tensor.RawTensor) error {
	return setWeights(KindBatchNorm, bn.allParams(), weights)
}

// Parameters returns the trainable parameters [gamma, beta].
//
// The running mean and variance are state, not parameters: they are set
// from trained weights and excluded from optimization.
func (bn *BatchNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.gamma, bn.beta}
}

// allParams returns every stored tensor in weight order.
func (bn *BatchNorm[B]) allParams() []*Parameter[B] {
	return []*Parameter[B]{bn.gamma, bn.beta, bn.mean, bn.variance}
}

// NumFeatures returns the size of the normalized axis.
func (bn *BatchNorm[B]) NumFeatures() int {
	return bn.numFeatures
}

// Epsilon returns the numerical stability constant.
func (bn *BatchNorm[B]) Epsilon() float32 {
	return bn.epsilon
}

// Gamma returns the scale parameter.
func (bn *BatchNorm[B]) Gamma() *Parameter[B] {
	return bn.gamma
}

// Beta returns the shift parameter.
func (bn *BatchNorm[B]) Beta() *Parameter[B] {
	return bn.beta
}

// Mean returns the running mean.
func (bn *BatchNorm[B]) Mean() *Parameter[B] {
	return bn.mean
}

// Variance returns the running variance.
func (bn *BatchNorm[B]) Variance() *Parameter[B] {
	return bn.variance
}

// String returns a string representation of the layer.
func (bn *BatchNorm[B]) String() string {
	return fmt.Sprintf("BatchNorm(num_features=%d, epsilon=%g)", bn.numFeatures, bn.epsilon)
}

// StateDict returns a map of parameter names to raw tensors.
func (bn *BatchNorm[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"gamma":    bn.gamma.Tensor().Raw(),
		"beta":     bn.beta.Tensor().Raw(),
		"mean":     bn.mean.Tensor().Raw(),
		"variance": bn.variance.Tensor().Raw(),
	}
}

// LoadStateDict loads parameters from a state dictionary.
func (bn *BatchNorm[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	expected := tensor.Shape{bn.numFeatures}
	for _, name := range []string{"gamma", "beta", "mean", "variance"} {
		raw, ok := stateDict[name]
		if !ok {
			return fmt.Errorf("missing %s in state dict", name)
		}
		if !raw.Shape().Equal(expected) {
			return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, expected, raw.Shape())
		}
		if raw.DType() != tensor.Float32 {
			return fmt.Errorf("%s dtype mismatch: expected float32, got %v", name, raw.DType())
		}
	}

	copy(bn.gamma.Tensor().Raw().AsFloat32(), stateDict["gamma"].AsFloat32())
	copy(bn.beta.Tensor().Raw().AsFloat32(), stateDict["beta"].AsFloat32())
	copy(bn.mean.Tensor().Raw().AsFloat32(), stateDict["mean"].AsFloat32())
	copy(bn.variance.Tensor().Raw().AsFloat32(), stateDict["variance"].AsFloat32())
	return nil
}
