package tensor

import (
	"math"
	"testing"
)

// checkF32 compares a float32 slice element-wise with a small tolerance.
func checkF32(t *testing.T, label string, got, want []float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d values, want %d", label, len(got), len(want))
	}
	for i := range want {
		if !approxF32(got[i], want[i]) {
			t.Errorf("%s[%d] = %v, want %v", label, i, got[i], want[i])
		}
	}
}

func TestTensorDiv(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{10, 20, 30, 40}, Shape{2, 2}, backend)
	b, _ := FromSlice([]float32{2, 4, 5, 8}, Shape{2, 2}, backend)

	c := a.Div(b)

	checkF32(t, "Div", c.Data(), []float32{5, 5, 6, 5})
}

func TestTensorDivBroadcast(t *testing.T) {
	backend := NewMockBackend()
	// (2, 3) / (1, 3) → (2, 3)
	a, _ := FromSlice([]float32{2, 4, 6, 8, 10, 12}, Shape{2, 3}, backend)
	b, _ := FromSlice([]float32{2, 2, 2}, Shape{1, 3}, backend)

	c := a.Div(b)

	if !c.Shape().Equal(Shape{2, 3}) {
		t.Fatalf("Div broadcast shape = %v, want [2 3]", c.Shape())
	}
	checkF32(t, "Div broadcast", c.Data(), []float32{1, 2, 3, 4, 5, 6})
}

func TestMockConv2D(t *testing.T) {
	backend := NewMockBackend()

	// 1x1x3x3 input, 1x1x2x2 kernel, stride 1, no padding → 1x1x2x2 output
	input, _ := NewRaw(Shape{1, 1, 3, 3}, Float32, CPU)
	copy(input.AsFloat32(), []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})

	kernel, _ := NewRaw(Shape{1, 1, 2, 2}, Float32, CPU)
	copy(kernel.AsFloat32(), []float32{1, 0, 0, 1})

	out := backend.Conv2D(input, kernel, 1, 1, 0, 0)

	if !out.Shape().Equal(Shape{1, 1, 2, 2}) {
		t.Fatalf("Conv2D output shape = %v, want [1 1 2 2]", out.Shape())
	}

	// Each output is the sum of the top-left and bottom-right of the window
	checkF32(t, "Conv2D", out.AsFloat32(), []float32{6, 8, 12, 14})
}

func TestMockConv2DPadding(t *testing.T) {
	backend := NewMockBackend()

	// 1x1x2x2 input, 1x1x3x3 identity-center kernel, padding 1 → same size output
	input, _ := NewRaw(Shape{1, 1, 2, 2}, Float32, CPU)
	copy(input.AsFloat32(), []float32{1, 2, 3, 4})

	kernel, _ := NewRaw(Shape{1, 1, 3, 3}, Float32, CPU)
	k := kernel.AsFloat32()
	k[4] = 1 // center tap only

	out := backend.Conv2D(input, kernel, 1, 1, 1, 1)

	if !out.Shape().Equal(Shape{1, 1, 2, 2}) {
		t.Fatalf("Conv2D padded output shape = %v, want [1 1 2 2]", out.Shape())
	}

	checkF32(t, "Conv2D padded", out.AsFloat32(), []float32{1, 2, 3, 4})
}

func TestMockMaxPool2D(t *testing.T) {
	backend := NewMockBackend()

	input, _ := NewRaw(Shape{1, 1, 4, 4}, Float32, CPU)
	copy(input.AsFloat32(), []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})

	out := backend.MaxPool2D(input, 2, 2, 2, 2)

	if !out.Shape().Equal(Shape{1, 1, 2, 2}) {
		t.Fatalf("MaxPool2D output shape = %v, want [1 1 2 2]", out.Shape())
	}

	checkF32(t, "MaxPool2D", out.AsFloat32(), []float32{6, 8, 14, 16})
}

func TestMockMaxPool2DRectangular(t *testing.T) {
	backend := NewMockBackend()

	// 2x4 input with a 1x2 window pools along width only
	input, _ := NewRaw(Shape{1, 1, 2, 4}, Float32, CPU)
	copy(input.AsFloat32(), []float32{
		1, 3, 2, 4,
		8, 6, 7, 5,
	})

	out := backend.MaxPool2D(input, 1, 2, 1, 2)

	if !out.Shape().Equal(Shape{1, 1, 2, 2}) {
		t.Fatalf("MaxPool2D output shape = %v, want [1 1 2 2]", out.Shape())
	}

	checkF32(t, "MaxPool2D rect", out.AsFloat32(), []float32{3, 4, 8, 7})
}

func TestMockAvgPool2D(t *testing.T) {
	backend := NewMockBackend()

	input, _ := NewRaw(Shape{1, 1, 4, 4}, Float32, CPU)
	copy(input.AsFloat32(), []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})

	out := backend.AvgPool2D(input, 2, 2, 2, 2)

	if !out.Shape().Equal(Shape{1, 1, 2, 2}) {
		t.Fatalf("AvgPool2D output shape = %v, want [1 1 2 2]", out.Shape())
	}

	checkF32(t, "AvgPool2D", out.AsFloat32(), []float32{3.5, 5.5, 11.5, 13.5})
}

func TestMockSoftmaxMiddleDim(t *testing.T) {
	backend := NewMockBackend()

	// Softmax over dim 1 of a [2, 2, 2] tensor
	x, _ := NewRaw(Shape{2, 2, 2}, Float32, CPU)
	copy(x.AsFloat32(), []float32{
		1, 2,
		3, 4,

		5, 6,
		7, 8,
	})

	out := backend.Softmax(x, 1)
	got := out.AsFloat32()

	// For each (batch, inner) pair, the pair (d=0, d=1) sums to 1
	for b := 0; b < 2; b++ {
		for in := 0; in < 2; in++ {
			v0 := got[b*4+0*2+in]
			v1 := got[b*4+1*2+in]
			if math.Abs(float64(v0+v1-1)) > 1e-5 {
				t.Errorf("Softmax pair (%d, %d) sums to %v, want 1", b, in, v0+v1)
			}
			if v0 >= v1 {
				t.Errorf("Softmax pair (%d, %d): smaller logit got larger probability", b, in)
			}
		}
	}
}
