package nn

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/tensor"
)

// DynamicDim marks a dimension whose size is only known at run time.
// Model input shapes carry it in the batch position; shape inference
// propagates it without ever multiplying it into a size.
const DynamicDim = -1

// Layer is a Module that additionally describes itself: its structural
// kind, how it transforms shapes, and the weights it carries.
//
// The extra surface exists for model introspection. The parse package
// walks a model's layers and needs, for each one, the output shape and
// a snapshot of the weights without knowing the concrete layer type.
type Layer[B tensor.Backend] interface {
	Module[B]

	// Kind returns the structural kind of this layer.
	Kind() LayerKind

	// OutputShape computes the shape this layer produces for the given
	// input shape. The batch dimension may be DynamicDim and is passed
	// through unchanged. Returns an error wrapping ErrShapeMismatch when
	// the input shape is not acceptable.
	OutputShape(input tensor.Shape) (tensor.Shape, error)

	// Weights returns deep copies of the layer's weight tensors in the
	// layer's canonical order (for example [weight, bias] for Dense).
	// Mutating the returned tensors never affects the layer. Layers
	// without weights return nil.
	Weights() []*tensor.RawTensor

	// SetWeights replaces the layer's weights with the given tensors,
	// which must match Weights() in count, order, shape, and dtype.
	// Returns an error wrapping ErrShapeMismatch otherwise.
	SetWeights(weights []*tensor.RawTensor) error
}

// stateDicter is implemented by layers that participate in weights
// serialization under named keys.
type stateDicter interface {
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// setWeights copies replacement tensors into a layer's parameters after
// strict validation. Shared by every layer with weights.
func setWeights[B tensor.Backend](kind LayerKind, params []*Parameter[B], weights []*tensor.RawTensor) error {
	if len(weights) != len(params) {
		return wrapShapeErr("%s: got %d weight tensors, want %d", kind, len(weights), len(params))
	}
	for i, p := range params {
		want := p.Tensor().Shape()
		got := weights[i]
		if got.DType() != tensor.Float32 {
			return wrapShapeErr("%s: weights[%d] (%s) dtype %s, want float32", kind, i, p.Name(), got.DType())
		}
		if !got.Shape().Equal(want) {
			return wrapShapeErr("%s: weights[%d] (%s) shape %v, want %v", kind, i, p.Name(), got.Shape(), want)
		}
	}
	for i, p := range params {
		copy(p.Tensor().Raw().AsFloat32(), weights[i].AsFloat32())
	}
	return nil
}

// weightSnapshots returns deep copies of the given parameters' tensors.
func weightSnapshots[B tensor.Backend](params []*Parameter[B]) []*tensor.RawTensor {
	out := make([]*tensor.RawTensor, len(params))
	for i, p := range params {
		out[i] = p.Tensor().Raw().DeepClone()
	}
	return out
}

// loadStateEntry copies state[name] into dst after checking shape and dtype.
func loadStateEntry[B tensor.Backend](state map[string]*tensor.RawTensor, name string, want tensor.Shape, dst *Parameter[B]) error {
	raw, ok := state[name]
	if !ok {
		return fmt.Errorf("missing %s in state dict", name)
	}
	if !raw.Shape().Equal(want) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, want, raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %v", name, raw.DType())
	}
	copy(dst.Tensor().Raw().AsFloat32(), raw.AsFloat32())
	return nil
}
