// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// Module is defined in module.go, Parameter in parameter.go.

// Layers

// Dense is a fully connected layer computing x*W^T + b.
type Dense[B tensor.Backend] = nn.Dense[B]

// NewDense creates a dense layer with Xavier-initialized weights.
func NewDense[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B) *Dense[B] {
	return nn.NewDense(inFeatures, outFeatures, useBias, backend)
}

// Border modes for Conv2D.
const (
	// BorderValid applies the kernel only where it fits entirely.
	BorderValid = nn.BorderValid
	// BorderSame pads the input so the spatial size is preserved at stride 1.
	BorderSame = nn.BorderSame
	// BorderFull pads so every partial overlap produces an output.
	BorderFull = nn.BorderFull
)

// Conv2D is a 2D convolutional layer over NCHW input.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a convolutional layer.
//
//	conv := nn.NewConv2D(1, 32, [2]int{3, 3}, [2]int{1, 1}, nn.BorderValid, true, backend)
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelSize, strides [2]int,
	borderMode string,
	useBias bool,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelSize, strides, borderMode, useBias, backend)
}

// MaxPool2D is a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D[B tensor.Backend](poolSize, strides [2]int, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(poolSize, strides, backend)
}

// AvgPool2D is a 2D average pooling layer.
type AvgPool2D[B tensor.Backend] = nn.AvgPool2D[B]

// NewAvgPool2D creates an average pooling layer.
func NewAvgPool2D[B tensor.Backend](poolSize, strides [2]int, backend B) *AvgPool2D[B] {
	return nn.NewAvgPool2D(poolSize, strides, backend)
}

// DefaultBNEpsilon is the default numerical stability constant for
// batch normalization.
const DefaultBNEpsilon = nn.DefaultBNEpsilon

// BatchNorm is a batch normalization layer in inference mode.
type BatchNorm[B tensor.Backend] = nn.BatchNorm[B]

// NewBatchNorm creates a batch normalization layer over numFeatures channels.
func NewBatchNorm[B tensor.Backend](numFeatures int, epsilon float32, backend B) *BatchNorm[B] {
	return nn.NewBatchNorm(numFeatures, epsilon, backend)
}

// Flatten collapses all non-batch dimensions into one.
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// Dropout is the identity at inference; the rate is kept so the layer
// survives save/load round trips.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout layer with the given rate.
func NewDropout[B tensor.Backend](rate float32) *Dropout[B] {
	return nn.NewDropout[B](rate)
}

// Activations

// Activation names accepted by NewActivation.
const (
	ActReLU    = nn.ActReLU
	ActSigmoid = nn.ActSigmoid
	ActTanh    = nn.ActTanh
	ActSoftmax = nn.ActSoftmax
	ActLinear  = nn.ActLinear
)

// Activation is a named activation layer.
type Activation[B tensor.Backend] = nn.Activation[B]

// NewActivation creates an activation layer from its name. It returns
// ErrUnknownActivation for names not listed above.
func NewActivation[B tensor.Backend](name string, backend B) (*Activation[B], error) {
	return nn.NewActivation(name, backend)
}

// ReLU is the rectified linear unit, max(0, x).
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid is the logistic activation, 1/(1+exp(-x)).
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a sigmoid layer.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh is the hyperbolic tangent activation.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a tanh layer.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Softmax normalizes along one dimension to a probability distribution.
type Softmax[B tensor.Backend] = nn.Softmax[B]

// NewSoftmax creates a softmax layer over dim, counted from the back
// when negative.
func NewSoftmax[B tensor.Backend](dim int) *Softmax[B] {
	return nn.NewSoftmax[B](dim)
}

// Loss Functions

// CrossEntropyLoss is the cross-entropy loss for classification.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates a cross-entropy criterion.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss(backend)
}

// MSELoss is the mean squared error loss for regression.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates an MSE criterion.
func NewMSELoss[B tensor.Backend](backend B) *MSELoss[B] {
	return nn.NewMSELoss(backend)
}

// Sequential

// Sequential chains modules, feeding each one's output to the next.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential model from the given modules.
//
//	model := nn.NewSequential[*cpu.CPUBackend](
//	    nn.NewDense(784, 128, true, backend),
//	    nn.NewReLU[*cpu.CPUBackend](),
//	    nn.NewDense(128, 10, true, backend),
//	)
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Initialization functions

// Xavier draws weights from the Glorot uniform distribution for the given
// fan-in and fan-out.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// Zeros returns a float32 tensor of zeros, the usual bias initializer.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones returns a float32 tensor of ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}

// Randn returns a float32 tensor drawn from N(0, 1).
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Randn(shape, backend)
}

// Utility functions

// CrossEntropyBackward computes the cross-entropy gradient with respect
// to the logits, (softmax(logits) - onehot(targets)) / batchSize.
func CrossEntropyBackward[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
	backend B,
) *tensor.Tensor[float32, B] {
	return nn.CrossEntropyBackward(logits, targets, backend)
}

// Accuracy reports the fraction of rows whose argmax matches the target.
func Accuracy[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) float32 {
	return nn.Accuracy(logits, targets)
}

// Errors

// Sentinel errors for errors.Is checks.
var (
	// ErrShapeMismatch reports a tensor shape a layer cannot accept.
	ErrShapeMismatch = nn.ErrShapeMismatch
	// ErrUnknownActivation reports an activation name with no implementation.
	ErrUnknownActivation = nn.ErrUnknownActivation
	// ErrUnknownLayerType reports an architecture entry naming an
	// unimplemented layer type.
	ErrUnknownLayerType = nn.ErrUnknownLayerType
	// ErrNotCompiled reports evaluation on a model without a criterion.
	ErrNotCompiled = nn.ErrNotCompiled
)
