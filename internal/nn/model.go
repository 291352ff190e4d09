package nn

import (
	"fmt"
	"math"
	"strings"

	"github.com/snnkit/snnkit/internal/tensor"
)

// OptimizerState represents an optimizer that can save/load its state.
//
// This interface is used by Model.Compile and the weight files to refer
// to optimizers without creating import cycles. Optimizers from the
// optim package implement this interface.
type OptimizerState interface {
	// StateDict returns the optimizer state for serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads optimizer state from serialization.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error

	// GetLR returns the current learning rate.
	GetLR() float32
}

// Metrics holds the result of evaluating a model on a labelled batch.
type Metrics struct {
	Loss     float32
	Accuracy float32
}

// Builder constructs a model against a backend.
//
// Builders are the programmatic alternative to loading a model from disk:
// code that knows how to assemble an architecture hands the loader a
// Builder instead of a file path.
type Builder[B tensor.Backend] func(backend B) (*Model[B], error)

// Model is a feed-forward neural network: an ordered stack of layers
// with a fixed input shape.
//
// The output shape of every layer is computed once at construction, so a
// model that survives NewModel is internally consistent: each layer
// accepts what the previous one produces. The input shape includes the
// batch dimension, which is usually DynamicDim.
//
// Example:
//
//	model, err := nn.NewModel(
//	    tensor.Shape{nn.DynamicDim, 784},
//	    []nn.Layer[*cpu.CPUBackend]{
//	        nn.NewDense(784, 128, true, backend),
//	        relu,
//	        nn.NewDense(128, 10, true, backend),
//	    },
//	    backend,
//	)
//
// Model itself satisfies Module, so it can be used anywhere a single
// layer can.
type Model[B tensor.Backend] struct {
	inputShape   tensor.Shape
	layers       []Layer[B]
	outputShapes []tensor.Shape
	backend      B

	// Set by Compile.
	criterion *CrossEntropyLoss[B]
	optimizer OptimizerState
}

// NewModel creates a model from an input shape and an ordered layer list.
//
// The input shape includes the batch dimension; pass DynamicDim for a
// batch size decided at call time. All other dimensions must be positive.
// The layer shapes are chained immediately: if any layer rejects the
// shape produced by its predecessor, NewModel fails with an error that
// names the offending layer.
func NewModel[B tensor.Backend](inputShape tensor.Shape, layers []Layer[B], backend B) (*Model[B], error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("model: needs at least one layer")
	}
	if len(inputShape) < 2 {
		return nil, wrapShapeErr("model: input shape must include batch and feature dimensions, got %v", inputShape)
	}
	for i, dim := range inputShape {
		if i == 0 && dim == DynamicDim {
			continue
		}
		if dim <= 0 {
			return nil, wrapShapeErr("model: input dimension %d must be positive, got %v", i, inputShape)
		}
	}

	outputShapes := make([]tensor.Shape, 0, len(layers))
	current := inputShape.Clone()
	for i, layer := range layers {
		next, err := layer.OutputShape(current)
		if err != nil {
			return nil, fmt.Errorf("model: layer %d (%s): %w", i, layer.Kind(), err)
		}
		outputShapes = append(outputShapes, next)
		current = next
	}

	return &Model[B]{
		inputShape:   inputShape.Clone(),
		layers:       layers,
		outputShapes: outputShapes,
		backend:      backend,
	}, nil
}

// Forward runs the input through every layer in order.
//
// The input must match the model's input shape (any batch size is
// accepted when the model was built with a DynamicDim batch).
func (m *Model[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if err := m.checkInputShape(input.Shape()); err != nil {
		panic(fmt.Sprintf("model: %v", err))
	}

	output := input
	for _, layer := range m.layers {
		output = layer.Forward(output)
	}
	return output
}

// ForwardTo runs the input through layers 0..index inclusive and returns
// the activation of layer index. Used to probe intermediate outputs.
//
// Panics if index is out of bounds.
func (m *Model[B]) ForwardTo(index int, input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if index < 0 || index >= len(m.layers) {
		panic(fmt.Sprintf("model: ForwardTo index %d out of bounds [0, %d)", index, len(m.layers)))
	}
	if err := m.checkInputShape(input.Shape()); err != nil {
		panic(fmt.Sprintf("model: %v", err))
	}

	output := input
	for i := 0; i <= index; i++ {
		output = m.layers[i].Forward(output)
	}
	return output
}

// checkInputShape verifies a concrete input against the model input shape.
func (m *Model[B]) checkInputShape(got tensor.Shape) error {
	if len(got) != len(m.inputShape) {
		return wrapShapeErr("input rank %d, want %d", len(got), len(m.inputShape))
	}
	for i, dim := range m.inputShape {
		if dim == DynamicDim {
			continue
		}
		if got[i] != dim {
			return wrapShapeErr("input shape %v, want %v", got, m.inputShape)
		}
	}
	return nil
}

// Compile attaches a loss function and an optimizer to the model.
//
// Evaluate requires a compiled model. The optimizer may be nil for
// models that are only evaluated, never trained.
func (m *Model[B]) Compile(criterion *CrossEntropyLoss[B], optimizer OptimizerState) {
	m.criterion = criterion
	m.optimizer = optimizer
}

// Compiled reports whether Compile has been called with a loss function.
func (m *Model[B]) Compiled() bool {
	return m.criterion != nil
}

// Evaluate computes loss and accuracy on a labelled batch.
//
// Parameters:
//   - x: Input batch matching the model input shape
//   - y: One-hot targets with shape [batch, classes]
//
// The class index of each sample is the argmax of its one-hot row.
// When the model ends in a softmax activation the loss is the negative
// log-likelihood of the emitted probabilities; otherwise the output is
// treated as logits and passed through the cross-entropy criterion.
//
// Returns ErrNotCompiled if Compile was never called.
func (m *Model[B]) Evaluate(x, y *tensor.Tensor[float32, B]) (Metrics, error) {
	if m.criterion == nil {
		return Metrics{}, ErrNotCompiled
	}
	if err := m.checkInputShape(x.Shape()); err != nil {
		return Metrics{}, err
	}

	yShape := y.Shape()
	if len(yShape) != 2 {
		return Metrics{}, wrapShapeErr("targets must be one-hot [batch, classes], got %v", yShape)
	}
	if yShape[0] != x.Shape()[0] {
		return Metrics{}, wrapShapeErr("input batch %d != target batch %d", x.Shape()[0], yShape[0])
	}

	targets, err := targetsFromOneHot(y, m.backend)
	if err != nil {
		return Metrics{}, err
	}

	output := m.Forward(x)
	outShape := output.Shape()
	if len(outShape) != 2 || outShape[1] != yShape[1] {
		return Metrics{}, wrapShapeErr("model output %v does not match %d target classes", outShape, yShape[1])
	}

	var loss float32
	if m.endsWithSoftmax() {
		loss = nllFromProbs(output.Raw().AsFloat32(), outShape[1], targets.Raw().AsInt32())
	} else {
		loss = m.criterion.Forward(output, targets).Raw().AsFloat32()[0]
	}

	return Metrics{
		Loss:     loss,
		Accuracy: Accuracy(output, targets),
	}, nil
}

// endsWithSoftmax reports whether the final layer emits probabilities.
func (m *Model[B]) endsWithSoftmax() bool {
	last := m.layers[len(m.layers)-1]
	if act, ok := any(last).(*Activation[B]); ok {
		return act.ActivationName() == ActSoftmax
	}
	return false
}

// targetsFromOneHot converts one-hot rows to class indices.
func targetsFromOneHot[B tensor.Backend](y *tensor.Tensor[float32, B], backend B) (*tensor.Tensor[int32, B], error) {
	yShape := y.Shape()
	batchSize := yShape[0]
	numClasses := yShape[1]

	raw, err := tensor.NewRaw(tensor.Shape{batchSize}, tensor.Int32, backend.Device())
	if err != nil {
		return nil, err
	}

	yData := y.Raw().AsFloat32()
	targets := raw.AsInt32()
	for b := 0; b < batchSize; b++ {
		row := yData[b*numClasses : (b+1)*numClasses]
		targets[b] = int32(argmax(row))
	}

	return tensor.New[int32, B](raw, backend), nil
}

// nllFromProbs computes -mean(log p[target]) over the batch, clipping
// probabilities at 1e-7 so a confident miss stays finite.
func nllFromProbs(probs []float32, numClasses int, targets []int32) float32 {
	const floor = 1e-7

	total := float32(0)
	batchSize := len(targets)
	for b := 0; b < batchSize; b++ {
		p := probs[b*numClasses+int(targets[b])]
		if p < floor {
			p = floor
		}
		total += -float32(math.Log(float64(p)))
	}
	return total / float32(batchSize)
}

// Parameters returns all trainable parameters from all layers.
func (m *Model[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, layer := range m.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// NumParameters returns the total number of trainable scalars.
func (m *Model[B]) NumParameters() int {
	total := 0
	for _, p := range m.Parameters() {
		total += p.Tensor().Shape().NumElements()
	}
	return total
}

// Backend returns the backend the model computes on.
func (m *Model[B]) Backend() B {
	return m.backend
}

// Optimizer returns the optimizer set by Compile, or nil.
func (m *Model[B]) Optimizer() OptimizerState {
	return m.optimizer
}

// Criterion returns the loss function set by Compile, or nil.
func (m *Model[B]) Criterion() *CrossEntropyLoss[B] {
	return m.criterion
}

// Len returns the number of layers.
func (m *Model[B]) Len() int {
	return len(m.layers)
}

// Layer returns the layer at the given index.
//
// Panics if index is out of bounds.
func (m *Model[B]) Layer(index int) Layer[B] {
	if index < 0 || index >= len(m.layers) {
		panic(fmt.Sprintf("model: Layer index %d out of bounds [0, %d)", index, len(m.layers)))
	}
	return m.layers[index]
}

// Layers returns a copy of the layer list.
func (m *Model[B]) Layers() []Layer[B] {
	layers := make([]Layer[B], len(m.layers))
	copy(layers, m.layers)
	return layers
}

// InputShape returns a copy of the model input shape (batch included).
func (m *Model[B]) InputShape() tensor.Shape {
	return m.inputShape.Clone()
}

// OutputShape returns a copy of the final layer's output shape.
func (m *Model[B]) OutputShape() tensor.Shape {
	return m.outputShapes[len(m.outputShapes)-1].Clone()
}

// LayerOutputShape returns a copy of the output shape of the layer at
// the given index.
//
// Panics if index is out of bounds.
func (m *Model[B]) LayerOutputShape(index int) tensor.Shape {
	if index < 0 || index >= len(m.outputShapes) {
		panic(fmt.Sprintf("model: LayerOutputShape index %d out of bounds [0, %d)", index, len(m.outputShapes)))
	}
	return m.outputShapes[index].Clone()
}

// String returns a one-line description of the model.
func (m *Model[B]) String() string {
	return fmt.Sprintf("Model(layers=%d, input_shape=%v, params=%d)",
		len(m.layers), m.inputShape, m.NumParameters())
}

// Summary returns a multi-line, per-layer description of the model:
// index, kind, output shape, and parameter count.
func (m *Model[B]) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-5s %-12s %-20s %s\n", "Layer", "Kind", "Output shape", "Params")

	for i, layer := range m.layers {
		params := 0
		for _, p := range layer.Parameters() {
			params += p.Tensor().Shape().NumElements()
		}
		fmt.Fprintf(&sb, "%-5d %-12s %-20v %d\n", i, layer.Kind(), m.outputShapes[i], params)
	}

	fmt.Fprintf(&sb, "Total params: %d\n", m.NumParameters())
	return sb.String()
}

// StateDict returns a map of parameter names to raw tensors.
//
// Keys are prefixed with the layer index (e.g. "0.weight", "0.bias",
// "2.gamma") to avoid name collisions. Layers without state contribute
// nothing.
func (m *Model[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)

	for i, layer := range m.layers {
		sd, ok := any(layer).(stateDicter)
		if !ok {
			continue
		}
		for name, raw := range sd.StateDict() {
			stateDict[fmt.Sprintf("%d.%s", i, name)] = raw
		}
	}

	return stateDict
}

// LoadStateDict loads parameters from a state dictionary.
//
// Keys must be prefixed with the layer index, matching StateDict.
func (m *Model[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, layer := range m.layers {
		sd, ok := any(layer).(stateDicter)
		if !ok {
			continue
		}

		// Extract parameters for this layer
		layerStateDict := make(map[string]*tensor.RawTensor)
		prefix := fmt.Sprintf("%d.", i)

		for key, raw := range stateDict {
			if strings.HasPrefix(key, prefix) {
				layerStateDict[strings.TrimPrefix(key, prefix)] = raw
			}
		}

		if len(layerStateDict) > 0 {
			if err := sd.LoadStateDict(layerStateDict); err != nil {
				return fmt.Errorf("failed to load layer %d: %w", i, err)
			}
		}
	}

	return nil
}
