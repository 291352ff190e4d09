package nn

import (
	"errors"
	"testing"

	"github.com/snnkit/snnkit/internal/backend/cpu"
	"github.com/snnkit/snnkit/internal/tensor"
)

func TestFlatten_Forward(t *testing.T) {
	backend := cpu.New()
	flatten := NewFlatten[*cpu.CPUBackend]()

	if flatten.Kind() != KindFlatten {
		t.Errorf("Expected kind %v, got %v", KindFlatten, flatten.Kind())
	}

	input := tensor.Randn[float32](tensor.Shape{2, 3, 4, 4}, backend)
	output := flatten.Forward(input)

	if !output.Shape().Equal(tensor.Shape{2, 48}) {
		t.Fatalf("Expected output shape [2 48], got %v", output.Shape())
	}

	// Reshape preserves element order.
	in := input.Data()
	out := output.Data()
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("Output[%d] = %f, want %f", i, out[i], in[i])
		}
	}
}

func TestFlatten_OutputShape(t *testing.T) {
	flatten := NewFlatten[*cpu.CPUBackend]()

	tests := []struct {
		name  string
		input tensor.Shape
		want  tensor.Shape
	}{
		{"conv output", tensor.Shape{32, 16, 4, 4}, tensor.Shape{32, 256}},
		{"already flat", tensor.Shape{32, 128}, tensor.Shape{32, 128}},
		{"dynamic batch", tensor.Shape{DynamicDim, 16, 4, 4}, tensor.Shape{DynamicDim, 256}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flatten.OutputShape(tt.input)
			if err != nil {
				t.Fatalf("Failed to compute output shape: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("OutputShape(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if _, err := flatten.OutputShape(tensor.Shape{10}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for 1D input, got %v", err)
	}
	if _, err := flatten.OutputShape(tensor.Shape{32, 16, DynamicDim, 4}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for dynamic non-batch dim, got %v", err)
	}
}

func TestFlatten_NoWeights(t *testing.T) {
	flatten := NewFlatten[*cpu.CPUBackend]()

	if params := flatten.Parameters(); len(params) != 0 {
		t.Errorf("Expected no parameters, got %d", len(params))
	}
	if weights := flatten.Weights(); len(weights) != 0 {
		t.Errorf("Expected no weights, got %d", len(weights))
	}
	if err := flatten.SetWeights(nil); err != nil {
		t.Errorf("Expected nil error for empty weights, got %v", err)
	}

	extra := []*tensor.RawTensor{rawFromValues(t, tensor.Shape{2}, []float32{1, 2})}
	if err := flatten.SetWeights(extra); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for unexpected weights, got %v", err)
	}
}
