// Package nn implements the neural network layer stack for SNNKit.
//
// The package provides the building blocks for describing the feed-forward
// classifiers the conversion front end can walk: the Module and Layer
// interfaces, the concrete layers (Dense, Conv2D, pooling, BatchNorm,
// Activation, Flatten, Dropout), the Model container with static shape
// inference, and the MSE and cross-entropy losses.
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/snnkit/snnkit/internal/tensor"
)

// Module is the interface every network component implements. Forward maps
// an input tensor to an output tensor whose shape depends on the module.
// Parameters lists the trainable parameters, including those of nested
// modules; modules with nothing to train return nil or an empty slice.
type Module[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*Parameter[B]
}
