package nn

import (
	"errors"
	"testing"

	"github.com/snnkit/snnkit/internal/backend/cpu"
	"github.com/snnkit/snnkit/internal/tensor"
)

func TestConv2D_Creation(t *testing.T) {
	backend := cpu.New()

	conv := NewConv2D(1, 6, [2]int{5, 5}, [2]int{1, 1}, BorderValid, true, backend)

	if conv.InChannels() != 1 || conv.OutChannels() != 6 {
		t.Errorf("channels = %d -> %d, want 1 -> 6", conv.InChannels(), conv.OutChannels())
	}
	if ks := conv.KernelSize(); ks != [2]int{5, 5} {
		t.Errorf("KernelSize() = %v, want [5 5]", ks)
	}
	if conv.BorderMode() != BorderValid {
		t.Errorf("BorderMode() = %q, want %q", conv.BorderMode(), BorderValid)
	}

	if got, want := conv.weight.Tensor().Shape(), (tensor.Shape{6, 1, 5, 5}); !got.Equal(want) {
		t.Errorf("weight shape = %v, want %v", got, want)
	}
	if got, want := conv.bias.Tensor().Shape(), (tensor.Shape{6}); !got.Equal(want) {
		t.Errorf("bias shape = %v, want %v", got, want)
	}

	if params := conv.Parameters(); len(params) != 2 {
		t.Errorf("Parameters() returned %d entries, want weight and bias", len(params))
	}
}

func TestConv2D_ForwardShape(t *testing.T) {
	backend := cpu.New()

	conv := NewConv2D(1, 6, [2]int{5, 5}, [2]int{1, 1}, BorderValid, true, backend)

	// A valid 5x5 kernel shrinks 28x28 to 24x24.
	input := tensor.Zeros[float32](tensor.Shape{2, 1, 28, 28}, backend)
	output := conv.Forward(input)

	if want := (tensor.Shape{2, 6, 24, 24}); !output.Shape().Equal(want) {
		t.Errorf("output shape = %v, want %v", output.Shape(), want)
	}
}

func TestConv2D_ForwardValues(t *testing.T) {
	backend := cpu.New()

	conv := NewConv2D(1, 1, [2]int{2, 2}, [2]int{1, 1}, BorderValid, false, backend)
	copy(conv.weight.Tensor().Raw().AsFloat32(), []float32{1, 2, 3, 4})

	input, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	output := conv.Forward(input)

	// Sliding the kernel over the 3x3 grid by hand: the top-left window
	// gives 1*1 + 2*2 + 3*4 + 4*5 = 37, and so on.
	want := []float32{37, 47, 67, 77}
	got := output.Raw().AsFloat32()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("output[%d] = %.1f, want %.1f", i, got[i], want[i])
		}
	}
}

func TestConv2D_WithBias(t *testing.T) {
	backend := cpu.New()

	conv := NewConv2D(1, 2, [2]int{2, 2}, [2]int{1, 1}, BorderValid, true, backend)

	weightData := conv.weight.Tensor().Raw().AsFloat32()
	for i := range weightData {
		weightData[i] = 1
	}
	copy(conv.bias.Tensor().Raw().AsFloat32(), []float32{10, 20})

	// An all-ones kernel over an all-ones 2x2 input sums to 4, then the
	// per-channel bias lands on top.
	input := tensor.Ones[float32](tensor.Shape{1, 1, 2, 2}, backend)
	output := conv.Forward(input)

	got := output.Raw().AsFloat32()
	if got[0] != 14 {
		t.Errorf("channel 0 = %.1f, want 14", got[0])
	}
	if got[1] != 24 {
		t.Errorf("channel 1 = %.1f, want 24", got[1])
	}
}

// TestConv2D_OutputShape tests shape inference per border mode.
func TestConv2D_OutputShape(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name                 string
		kernel               [2]int
		strides              [2]int
		borderMode           string
		inputH, inputW       int
		expectedH, expectedW int
	}{
		{"valid 5x5 on 28x28", [2]int{5, 5}, [2]int{1, 1}, BorderValid, 28, 28, 24, 24},
		{"same 3x3 on 28x28", [2]int{3, 3}, [2]int{1, 1}, BorderSame, 28, 28, 28, 28},
		{"valid 3x3 stride 2", [2]int{3, 3}, [2]int{2, 2}, BorderValid, 28, 28, 13, 13},
		{"valid 2x2 stride 2", [2]int{2, 2}, [2]int{2, 2}, BorderValid, 4, 4, 2, 2},
		{"full 3x3 on 4x4", [2]int{3, 3}, [2]int{1, 1}, BorderFull, 4, 4, 6, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewConv2D(1, 1, tt.kernel, tt.strides, tt.borderMode, false, backend)

			out, err := conv.OutputShape(tensor.Shape{DynamicDim, 1, tt.inputH, tt.inputW})
			if err != nil {
				t.Fatalf("OutputShape failed: %v", err)
			}

			expected := tensor.Shape{DynamicDim, 1, tt.expectedH, tt.expectedW}
			if !out.Equal(expected) {
				t.Errorf("OutputShape = %v, want %v", out, expected)
			}
		})
	}
}

// TestConv2D_OutputShapeErrors tests shape inference rejections.
func TestConv2D_OutputShapeErrors(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D(3, 8, [2]int{3, 3}, [2]int{1, 1}, BorderValid, true, backend)

	// Wrong rank
	if _, err := conv.OutputShape(tensor.Shape{DynamicDim, 3, 8}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for 3D input, got: %v", err)
	}

	// Wrong channel count
	if _, err := conv.OutputShape(tensor.Shape{DynamicDim, 1, 8, 8}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for wrong channels, got: %v", err)
	}

	// Kernel larger than input
	if _, err := conv.OutputShape(tensor.Shape{DynamicDim, 3, 2, 2}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for oversized kernel, got: %v", err)
	}
}

// TestConv2D_BorderSame tests that same padding preserves spatial size.
func TestConv2D_BorderSame(t *testing.T) {
	backend := cpu.New()

	conv := NewConv2D(1, 1, [2]int{3, 3}, [2]int{1, 1}, BorderSame, false, backend)

	input := tensor.Randn[float32](tensor.Shape{1, 1, 8, 8}, backend)
	output := conv.Forward(input)

	expectedShape := tensor.Shape{1, 1, 8, 8}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape: expected %v, got %v", expectedShape, output.Shape())
	}
}
