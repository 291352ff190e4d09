// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// DynamicDim marks a dimension whose size is only known at run time,
// usually the batch dimension of a model's input shape.
const DynamicDim = nn.DynamicDim

// LayerKind identifies the structural role of a layer.
type LayerKind = nn.LayerKind

// Layer kinds, in the order layers commonly appear in a network.
const (
	KindDense      = nn.KindDense
	KindConv2D     = nn.KindConv2D
	KindMaxPool2D  = nn.KindMaxPool2D
	KindAvgPool2D  = nn.KindAvgPool2D
	KindActivation = nn.KindActivation
	KindBatchNorm  = nn.KindBatchNorm
	KindFlatten    = nn.KindFlatten
	KindDropout    = nn.KindDropout
)

// ParseLayerKind maps a canonical name like "Dense" back to its kind.
func ParseLayerKind(name string) (LayerKind, error) {
	return nn.ParseLayerKind(name)
}

// Layer is a Module that additionally describes itself: its structural
// kind, how it transforms shapes, and the weights it carries.
type Layer[B tensor.Backend] = nn.Layer[B]

// OptimizerState is the subset of an optimizer a model needs to hold on
// to. Optimizers from the optim package implement this interface.
type OptimizerState = nn.OptimizerState

// Metrics holds the result of evaluating a model on a labelled batch.
type Metrics = nn.Metrics

// Builder constructs a model against a backend. Builders are the
// programmatic alternative to loading a model from disk.
type Builder[B tensor.Backend] = nn.Builder[B]

// Model is a feed-forward neural network: an ordered stack of layers
// with a fixed input shape.
type Model[B tensor.Backend] = nn.Model[B]

// NewModel creates a model from an input shape and a layer stack.
//
// The input shape includes the batch dimension, which is usually
// DynamicDim. Layer output shapes are computed once here, so an error
// means two adjacent layers disagree about shapes.
//
// Example:
//
//	backend := cpu.New()
//	relu, _ := nn.NewActivation(nn.ActReLU, backend)
//	model, err := nn.NewModel(
//	    tensor.Shape{nn.DynamicDim, 784},
//	    []nn.Layer[*cpu.CPUBackend]{
//	        nn.NewDense(784, 128, true, backend),
//	        relu,
//	        nn.NewDense(128, 10, true, backend),
//	    },
//	    backend,
//	)
func NewModel[B tensor.Backend](inputShape tensor.Shape, layers []Layer[B], backend B) (*Model[B], error) {
	return nn.NewModel(inputShape, layers, backend)
}
