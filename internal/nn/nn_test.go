package nn_test

import (
	"errors"
	"math"
	"testing"

	"github.com/snnkit/snnkit/internal/backend/cpu"
	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// floatEqual reports whether a and b differ by less than 1e-5.
func floatEqual(a, b float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-5
}

func TestParameter(t *testing.T) {
	backend := cpu.New()

	data, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	param := nn.NewParameter("test_param", data)

	if param.Name() != "test_param" {
		t.Errorf("Name() = %s, want test_param", param.Name())
	}
	if param.Tensor() != data {
		t.Error("Tensor() should return the original tensor")
	}
	if param.Grad() != nil {
		t.Error("fresh parameter should have no gradient")
	}

	grad, _ := tensor.FromSlice([]float32{0.1, 0.2, 0.3}, tensor.Shape{3}, backend)
	param.SetGrad(grad)
	if param.Grad() != grad {
		t.Error("SetGrad() should set the gradient")
	}

	param.ZeroGrad()
	if param.Grad() != nil {
		t.Error("ZeroGrad() should clear the gradient")
	}
}

func TestDense_Creation(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewDense(10, 5, true, backend)

	if layer.InFeatures() != 10 || layer.OutFeatures() != 5 {
		t.Errorf("features = (%d, %d), want (10, 5)", layer.InFeatures(), layer.OutFeatures())
	}
	if layer.Kind() != nn.KindDense {
		t.Errorf("Kind() = %s, want %s", layer.Kind(), nn.KindDense)
	}
	if got := layer.Weight().Tensor().Shape(); !got.Equal(tensor.Shape{5, 10}) {
		t.Errorf("weight shape = %v, want [5 10]", got)
	}

	bias := layer.Bias().Tensor()
	if got := bias.Shape(); !got.Equal(tensor.Shape{5}) {
		t.Errorf("bias shape = %v, want [5]", got)
	}
	for i, v := range bias.Raw().AsFloat32() {
		if v != 0 {
			t.Fatalf("bias[%d] = %f, want 0", i, v)
		}
	}

	if got := len(layer.Parameters()); got != 2 {
		t.Errorf("Parameters() length = %d, want 2", got)
	}
}

// TestDense_NoBias tests Dense without a bias term.
func TestDense_NoBias(t *testing.T) {
	backend := cpu.New()

	layer := nn.NewDense(4, 3, false, backend)

	if layer.Bias() != nil {
		t.Error("Bias() should be nil for a bias-free layer")
	}
	if len(layer.Parameters()) != 1 {
		t.Errorf("Parameters() length = %d, want 1", len(layer.Parameters()))
	}
	if len(layer.Weights()) != 1 {
		t.Errorf("Weights() length = %d, want 1", len(layer.Weights()))
	}
}

func TestDense_Forward(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewDense(2, 2, true, backend)
	copy(layer.Weight().Tensor().Raw().AsFloat32(), []float32{1, 2, 3, 4})
	copy(layer.Bias().Tensor().Raw().AsFloat32(), []float32{0.5, 1.0})

	input, _ := tensor.FromSlice([]float32{1, 1}, tensor.Shape{1, 2}, backend)
	output := layer.Forward(input)

	// y = x W^T + b. With x = [1, 1] and W = [[1, 2], [3, 4]] the product
	// is [3, 7]; adding the bias gives [3.5, 8].
	want := []float32{3.5, 8.0}
	got := output.Raw().AsFloat32()
	for i := range want {
		if !floatEqual(got[i], want[i]) {
			t.Errorf("output[%d] = %f, want %f", i, got[i], want[i])
		}
	}
	if !output.Shape().Equal(tensor.Shape{1, 2}) {
		t.Errorf("output shape = %v, want [1 2]", output.Shape())
	}
}

func TestDense_ForwardBatch(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewDense(3, 2, true, backend)

	input := tensor.Randn[float32](tensor.Shape{4, 3}, backend)
	output := layer.Forward(input)

	if !output.Shape().Equal(tensor.Shape{4, 2}) {
		t.Errorf("output shape = %v, want [4 2]", output.Shape())
	}
}

// TestDense_OutputShape tests static shape inference.
func TestDense_OutputShape(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewDense(3, 2, true, backend)

	out, err := layer.OutputShape(tensor.Shape{nn.DynamicDim, 3})
	if err != nil {
		t.Fatalf("OutputShape failed: %v", err)
	}
	if !out.Equal(tensor.Shape{nn.DynamicDim, 2}) {
		t.Errorf("OutputShape = %v, want [-1 2]", out)
	}

	// Wrong feature count
	if _, err := layer.OutputShape(tensor.Shape{nn.DynamicDim, 5}); !errors.Is(err, nn.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got: %v", err)
	}

	// Wrong rank
	if _, err := layer.OutputShape(tensor.Shape{nn.DynamicDim, 3, 3}); !errors.Is(err, nn.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got: %v", err)
	}
}

// TestDense_SetWeights tests strict weight replacement.
func TestDense_SetWeights(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewDense(2, 2, true, backend)

	weight, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, backend.Device())
	copy(weight.AsFloat32(), []float32{1, 2, 3, 4})
	bias, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, backend.Device())
	copy(bias.AsFloat32(), []float32{5, 6})

	if err := layer.SetWeights([]*tensor.RawTensor{weight, bias}); err != nil {
		t.Fatalf("SetWeights failed: %v", err)
	}

	got := layer.Weight().Tensor().Raw().AsFloat32()
	if got[0] != 1 || got[3] != 4 {
		t.Errorf("Weight not replaced: %v", got)
	}

	// Wrong count
	if err := layer.SetWeights([]*tensor.RawTensor{weight}); !errors.Is(err, nn.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for wrong count, got: %v", err)
	}

	// Wrong shape
	bad, _ := tensor.NewRaw(tensor.Shape{3, 2}, tensor.Float32, backend.Device())
	if err := layer.SetWeights([]*tensor.RawTensor{bad, bias}); !errors.Is(err, nn.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for wrong shape, got: %v", err)
	}
}

// TestDense_WeightsAreCopies verifies Weights() returns snapshots.
func TestDense_WeightsAreCopies(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewDense(2, 2, true, backend)

	snapshot := layer.Weights()
	before := layer.Weight().Tensor().Raw().AsFloat32()[0]

	// Mutating the snapshot must not affect the layer
	snapshot[0].AsFloat32()[0] = before + 100

	after := layer.Weight().Tensor().Raw().AsFloat32()[0]
	if after != before {
		t.Errorf("Mutating snapshot changed layer weight: %f -> %f", before, after)
	}
}

func TestReLU_Forward(t *testing.T) {
	backend := cpu.New()
	relu := nn.NewReLU[*cpu.CPUBackend]()

	input, _ := tensor.FromSlice([]float32{-2, -1, 0, 1, 2}, tensor.Shape{5}, backend)
	output := relu.Forward(input)

	want := []float32{0, 0, 0, 1, 2}
	got := output.Raw().AsFloat32()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("output[%d] = %f, want %f", i, got[i], want[i])
		}
	}
	if len(relu.Parameters()) != 0 {
		t.Error("ReLU should have no parameters")
	}
}

// TestActivation_Functions tests the named activation layer.
func TestActivation_Functions(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name     string
		input    []float32
		expected []float32
	}{
		{
			name:     "relu",
			input:    []float32{-2, -1, 0, 1, 2},
			expected: []float32{0, 0, 0, 1, 2},
		},
		{
			name:  "sigmoid",
			input: []float32{0, 1, -1},
			expected: []float32{
				0.5,
				float32(1.0 / (1.0 + math.Exp(-1.0))),
				float32(1.0 / (1.0 + math.Exp(1.0))),
			},
		},
		{
			name:  "tanh",
			input: []float32{0, 1, -1},
			expected: []float32{
				0,
				float32(math.Tanh(1.0)),
				float32(math.Tanh(-1.0)),
			},
		},
		{
			name:     "linear",
			input:    []float32{-2, 0, 3},
			expected: []float32{-2, 0, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act, err := nn.NewActivation(tt.name, backend)
			if err != nil {
				t.Fatalf("NewActivation(%q) failed: %v", tt.name, err)
			}
			if act.ActivationName() != tt.name {
				t.Errorf("ActivationName() = %s, want %s", act.ActivationName(), tt.name)
			}

			input, _ := tensor.FromSlice(tt.input, tensor.Shape{len(tt.input)}, backend)
			output := act.Forward(input)

			actual := output.Raw().AsFloat32()
			for i, exp := range tt.expected {
				if !floatEqual(actual[i], exp) {
					t.Errorf("%s output[%d] = %f, want %f", tt.name, i, actual[i], exp)
				}
			}

			if len(act.Parameters()) != 0 {
				t.Errorf("%s should have no parameters", tt.name)
			}
			if len(act.Weights()) != 0 {
				t.Errorf("%s should have no weights", tt.name)
			}
		})
	}
}

// TestActivation_Softmax tests the softmax activation sums to one.
func TestActivation_Softmax(t *testing.T) {
	backend := cpu.New()

	act, err := nn.NewActivation("softmax", backend)
	if err != nil {
		t.Fatalf("NewActivation failed: %v", err)
	}

	input, _ := tensor.FromSlice([]float32{1, 2, 3, 1, 2, 3}, tensor.Shape{2, 3}, backend)
	output := act.Forward(input)

	data := output.Raw().AsFloat32()
	for b := 0; b < 2; b++ {
		var sum float32
		for i := 0; i < 3; i++ {
			v := data[b*3+i]
			if v < 0 || v > 1 {
				t.Errorf("Softmax output[%d][%d] = %f, want in [0, 1]", b, i, v)
			}
			sum += v
		}
		if !floatEqual(sum, 1.0) {
			t.Errorf("Softmax row %d sums to %f, want 1", b, sum)
		}
	}

	// Larger logit gets larger probability
	if data[0] >= data[1] || data[1] >= data[2] {
		t.Errorf("Softmax should be monotone in logits: %v", data[:3])
	}
}

// TestActivation_Unknown tests the error for unsupported names.
func TestActivation_Unknown(t *testing.T) {
	backend := cpu.New()

	_, err := nn.NewActivation("swish", backend)
	if !errors.Is(err, nn.ErrUnknownActivation) {
		t.Errorf("Expected ErrUnknownActivation, got: %v", err)
	}
}

func TestMSELoss(t *testing.T) {
	backend := cpu.New()
	mse := nn.NewMSELoss(backend)

	predictions, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	targets, _ := tensor.FromSlice([]float32{1, 1, 1}, tensor.Shape{3}, backend)

	loss := mse.Forward(predictions, targets)

	// mean(0 + 1 + 4) = 5/3
	want := float32(5.0 / 3.0)
	got := loss.Raw().AsFloat32()[0]
	if !floatEqual(got, want) {
		t.Errorf("MSE loss = %f, want %f", got, want)
	}
	if len(mse.Parameters()) != 0 {
		t.Error("MSE loss should have no parameters")
	}
}

func TestInitialization(t *testing.T) {
	backend := cpu.New()

	w := nn.Xavier(100, 50, tensor.Shape{50, 100}, backend)

	// Glorot uniform bound for fanIn=100, fanOut=50 is sqrt(6/150).
	bound := math.Sqrt(6.0 / 150.0)
	for i, v := range w.Raw().AsFloat32() {
		if math.Abs(float64(v)) > bound {
			t.Errorf("Xavier value[%d] = %f exceeds bound %f", i, v, bound)
		}
	}
}

// TestParseLayerKind tests layer kind name round-trips.
func TestParseLayerKind(t *testing.T) {
	kinds := []nn.LayerKind{
		nn.KindDense, nn.KindConv2D, nn.KindMaxPool2D, nn.KindAvgPool2D,
		nn.KindActivation, nn.KindBatchNorm, nn.KindFlatten, nn.KindDropout,
	}

	for _, kind := range kinds {
		parsed, err := nn.ParseLayerKind(kind.String())
		if err != nil {
			t.Errorf("ParseLayerKind(%q) failed: %v", kind.String(), err)
			continue
		}
		if parsed != kind {
			t.Errorf("ParseLayerKind(%q) = %v, want %v", kind.String(), parsed, kind)
		}
	}

	if _, err := nn.ParseLayerKind("LSTM"); !errors.Is(err, nn.ErrUnknownLayerType) {
		t.Errorf("Expected ErrUnknownLayerType, got: %v", err)
	}
}
