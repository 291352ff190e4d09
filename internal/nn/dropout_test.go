package nn

import (
	"errors"
	"testing"

	"github.com/snnkit/snnkit/internal/backend/cpu"
	"github.com/snnkit/snnkit/internal/tensor"
)

func TestDropout_ForwardIsIdentity(t *testing.T) {
	backend := cpu.New()
	dropout := NewDropout[*cpu.CPUBackend](0.5)

	if dropout.Kind() != KindDropout {
		t.Errorf("Expected kind %v, got %v", KindDropout, dropout.Kind())
	}
	if dropout.Rate() != 0.5 {
		t.Errorf("Expected rate 0.5, got %g", dropout.Rate())
	}

	input := tensor.Randn[float32](tensor.Shape{4, 10}, backend)
	output := dropout.Forward(input)

	// Inference mode: no masking, no rescaling.
	if output != input {
		t.Error("Expected forward to return its input unchanged")
	}
}

func TestDropout_OutputShape(t *testing.T) {
	dropout := NewDropout[*cpu.CPUBackend](0.25)

	shape, err := dropout.OutputShape(tensor.Shape{DynamicDim, 16, 8, 8})
	if err != nil {
		t.Fatalf("Failed to compute output shape: %v", err)
	}
	if !shape.Equal(tensor.Shape{DynamicDim, 16, 8, 8}) {
		t.Errorf("Expected shape pass-through, got %v", shape)
	}

	if _, err := dropout.OutputShape(tensor.Shape{}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for empty shape, got %v", err)
	}
}

func TestDropout_InvalidRate(t *testing.T) {
	for _, rate := range []float32{-0.1, 1.0, 1.5} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Expected panic for rate %g", rate)
				}
			}()
			NewDropout[*cpu.CPUBackend](rate)
		}()
	}
}

func TestDropout_NoWeights(t *testing.T) {
	dropout := NewDropout[*cpu.CPUBackend](0.1)

	if params := dropout.Parameters(); len(params) != 0 {
		t.Errorf("Expected no parameters, got %d", len(params))
	}
	if weights := dropout.Weights(); len(weights) != 0 {
		t.Errorf("Expected no weights, got %d", len(weights))
	}

	extra := []*tensor.RawTensor{rawFromValues(t, tensor.Shape{2}, []float32{1, 2})}
	if err := dropout.SetWeights(extra); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for unexpected weights, got %v", err)
	}
}
