package tensor

import (
	"math"
	"strings"
	"testing"
)

// The typed tensor is a thin wrapper over RawTensor plus a backend, so
// these tests run against the mock backend and pin down the wrapper
// semantics: typed access, element addressing, operator dispatch, and
// the shared-buffer clone contract.

func approxF32(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestTensorAccessors(t *testing.T) {
	backend := NewMockBackend()
	tn := Zeros[float32](Shape{2, 3}, backend)

	if tn.DType() != Float32 {
		t.Errorf("DType: got %v, want Float32", tn.DType())
	}
	if tn.Device() != CPU {
		t.Errorf("Device: got %v, want CPU", tn.Device())
	}
	if tn.NumElements() != 6 {
		t.Errorf("NumElements: got %d, want 6", tn.NumElements())
	}
	if tn.Backend() != backend {
		t.Error("Backend() must return the construction backend")
	}

	raw := tn.Raw()
	if raw == nil {
		t.Fatal("Raw() returned nil")
	}
	if !raw.Shape().Equal(Shape{2, 3}) || raw.DType() != Float32 {
		t.Errorf("Raw() header: shape %v dtype %v", raw.Shape(), raw.DType())
	}
}

// TestTensorTypedDType covers the type-parameter to DataType mapping for
// every supported element type.
func TestTensorTypedDType(t *testing.T) {
	backend := NewMockBackend()

	if got := Zeros[float32](Shape{2}, backend).DType(); got != Float32 {
		t.Errorf("float32: got %v", got)
	}
	if got := Zeros[float64](Shape{2}, backend).DType(); got != Float64 {
		t.Errorf("float64: got %v", got)
	}
	if got := Zeros[int32](Shape{2}, backend).DType(); got != Int32 {
		t.Errorf("int32: got %v", got)
	}
	if got := Zeros[int64](Shape{2}, backend).DType(); got != Int64 {
		t.Errorf("int64: got %v", got)
	}
	if got := Zeros[uint8](Shape{2}, backend).DType(); got != Uint8 {
		t.Errorf("uint8: got %v", got)
	}
	if got := Zeros[bool](Shape{2}, backend).DType(); got != Bool {
		t.Errorf("bool: got %v", got)
	}
}

func TestTensorString(t *testing.T) {
	backend := NewMockBackend()
	tn := Zeros[float32](Shape{2, 2}, backend)

	str := tn.String()
	for _, want := range []string{"float32", "[2 2]", "CPU"} {
		if !strings.Contains(str, want) {
			t.Errorf("String() = %q, missing %q", str, want)
		}
	}
}

// TestTensorDataIsView verifies Data() aliases the tensor's memory for
// each element type rather than copying it.
func TestTensorDataIsView(t *testing.T) {
	backend := NewMockBackend()

	t.Run("float64", func(t *testing.T) {
		tn, err := FromSlice([]float64{1.5, 2.5, 3.5, 4.5}, Shape{2, 2}, backend)
		if err != nil {
			t.Fatalf("FromSlice failed: %v", err)
		}
		tn.Data()[3] = 9.5
		if tn.At(1, 1) != 9.5 {
			t.Error("Write through Data() not visible via At()")
		}
	})

	t.Run("int64", func(t *testing.T) {
		tn, err := FromSlice([]int64{1, 2, 3, 4}, Shape{4}, backend)
		if err != nil {
			t.Fatalf("FromSlice failed: %v", err)
		}
		tn.Data()[0] = -7
		if tn.At(0) != -7 {
			t.Error("Write through Data() not visible via At()")
		}
	})

	t.Run("bool", func(t *testing.T) {
		tn, err := FromSlice([]bool{true, false, true, false}, Shape{4}, backend)
		if err != nil {
			t.Fatalf("FromSlice failed: %v", err)
		}
		tn.Data()[1] = true
		if !tn.At(1) {
			t.Error("Write through Data() not visible via At()")
		}
	})
}

func TestTensorAtSet(t *testing.T) {
	backend := NewMockBackend()

	tn, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	// Row-major addressing.
	wantAt := [][3]int{{0, 0, 1}, {0, 2, 3}, {1, 0, 4}, {1, 2, 6}}
	for _, tc := range wantAt {
		if got := tn.At(tc[0], tc[1]); got != float32(tc[2]) {
			t.Errorf("At(%d, %d) = %v, want %d", tc[0], tc[1], got, tc[2])
		}
	}

	tn.Set(42, 1, 1)
	if got := tn.At(1, 1); got != 42 {
		t.Errorf("At(1, 1) after Set = %v, want 42", got)
	}

	// Non-float element types go through the same path.
	tu8 := Zeros[uint8](Shape{2, 2}, backend)
	tu8.Set(255, 0, 1)
	if got := tu8.At(0, 1); got != 255 {
		t.Errorf("uint8 At after Set = %v, want 255", got)
	}

	tb := Zeros[bool](Shape{2, 2}, backend)
	tb.Set(true, 1, 0)
	if !tb.At(1, 0) {
		t.Error("bool At after Set = false, want true")
	}
}

func TestTensorAtPanics(t *testing.T) {
	backend := NewMockBackend()
	tn := Zeros[float32](Shape{2, 3}, backend)

	for name, fn := range map[string]func(){
		"wrong index count": func() { tn.At(1) },
		"out of bounds":     func() { tn.At(2, 0) },
		"negative index":    func() { tn.At(0, -1) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Expected panic")
				}
			}()
			fn()
		})
	}
}

// TestTensorItem pins down the scalar contract: Item() accepts only
// rank-0 tensors, which Reshape() with no dimensions produces.
func TestTensorItem(t *testing.T) {
	backend := NewMockBackend()

	if got := Full(Shape{1}, float32(42), backend).Reshape().Item(); got != 42 {
		t.Errorf("Item() = %v, want 42", got)
	}
	if got := Full(Shape{1}, int32(-3), backend).Reshape().Item(); got != -3 {
		t.Errorf("Item() = %v, want -3", got)
	}
	if got := Full(Shape{1}, true, backend).Reshape().Item(); !got {
		t.Error("Item() = false, want true")
	}

	t.Run("rank 1 panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic for non-scalar Item()")
			}
		}()
		Full(Shape{1}, float32(1), backend).Item()
	})
}

func TestTensorArithmetic(t *testing.T) {
	backend := NewMockBackend()

	a, _ := FromSlice([]float32{8, 12, 18, 32}, Shape{2, 2}, backend)
	b, _ := FromSlice([]float32{2, 3, 6, 8}, Shape{2, 2}, backend)

	cases := []struct {
		name string
		got  *Tensor[float32, *MockBackend]
		want []float32
	}{
		{"Add", a.Clone().Add(b), []float32{10, 15, 24, 40}},
		{"Sub", a.Clone().Sub(b), []float32{6, 9, 12, 24}},
		{"Mul", a.Clone().Mul(b), []float32{16, 36, 108, 256}},
		{"Div", a.Clone().Div(b), []float32{4, 4, 3, 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := tc.got.Data()
			for i, want := range tc.want {
				if !approxF32(data[i], want) {
					t.Errorf("Element %d: got %v, want %v", i, data[i], want)
				}
			}
		})
	}
}

func TestTensorMatMul(t *testing.T) {
	backend := NewMockBackend()

	// [[1 2] [3 4]] @ [[5 6] [7 8]] = [[19 22] [43 50]]
	a, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, backend)
	b, _ := FromSlice([]float32{5, 6, 7, 8}, Shape{2, 2}, backend)

	c := a.MatMul(b)

	want := []float32{19, 22, 43, 50}
	for i, v := range c.Data() {
		if !approxF32(v, want[i]) {
			t.Errorf("Element %d: got %v, want %v", i, v, want[i])
		}
	}
}

func TestTensorReshapeTranspose(t *testing.T) {
	backend := NewMockBackend()

	flat, _ := FromSlice([]int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, Shape{12}, backend)

	grid := flat.Reshape(3, 4)
	if !grid.Shape().Equal(Shape{3, 4}) {
		t.Fatalf("Reshape shape: got %v, want [3 4]", grid.Shape())
	}
	if grid.At(0, 0) != 0 || grid.At(2, 3) != 11 {
		t.Error("Reshape must keep row-major element order")
	}

	m, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	mt := m.T()
	if !mt.Shape().Equal(Shape{3, 2}) {
		t.Fatalf("T() shape: got %v, want [3 2]", mt.Shape())
	}
	for i, want := range []float32{1, 4, 2, 5, 3, 6} {
		if mt.Data()[i] != want {
			t.Errorf("T() element %d: got %v, want %v", i, mt.Data()[i], want)
		}
	}
}

func TestTensorUnaryMath(t *testing.T) {
	backend := NewMockBackend()

	t.Run("Exp", func(t *testing.T) {
		tn, _ := FromSlice([]float32{0, 1, 2}, Shape{3}, backend)
		got := tn.Exp().Data()
		want := []float32{1, float32(math.E), float32(math.E * math.E)}
		for i := range want {
			if math.Abs(float64(got[i]-want[i])) > 1e-4 {
				t.Errorf("Exp element %d: got %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("Sqrt", func(t *testing.T) {
		tn, _ := FromSlice([]float32{1, 4, 9, 16}, Shape{4}, backend)
		got := tn.Sqrt().Data()
		for i, want := range []float32{1, 2, 3, 4} {
			if !approxF32(got[i], want) {
				t.Errorf("Sqrt element %d: got %v, want %v", i, got[i], want)
			}
		}
	})
}

func TestTensorSoftmaxRows(t *testing.T) {
	backend := NewMockBackend()
	tn, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)

	probs := tn.Softmax(-1)

	if !probs.Shape().Equal(Shape{2, 3}) {
		t.Fatalf("Softmax shape: got %v, want [2 3]", probs.Shape())
	}
	data := probs.Data()
	for row := 0; row < 2; row++ {
		var sum float32
		for col := 0; col < 3; col++ {
			v := data[row*3+col]
			if v <= 0 || v >= 1 {
				t.Errorf("Softmax[%d, %d] = %v, want in (0, 1)", row, col, v)
			}
			sum += v
		}
		if !approxF32(sum, 1) {
			t.Errorf("Row %d sums to %v, want 1", row, sum)
		}
	}
	if data[0] >= data[1] || data[1] >= data[2] {
		t.Error("Softmax must be monotone in the logits")
	}
}

// TestTensorCloneShares pins the copy-on-write ownership model: Clone
// bumps the reference count and shares the buffer, so direct writes are
// visible through both handles.
func TestTensorCloneShares(t *testing.T) {
	backend := NewMockBackend()
	tn, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, backend)

	clone := tn.Clone()
	if clone.At(0, 0) != 1 {
		t.Error("Clone does not see original data")
	}

	clone.Set(999, 0, 0)
	if tn.At(0, 0) != 999 {
		t.Error("Clone must share the buffer with the original")
	}
}

func TestTensorBroadcastAdd(t *testing.T) {
	backend := NewMockBackend()

	// [3 1] + [3 5] broadcasts the column across each row.
	a := Ones[float32](Shape{3, 1}, backend)
	b := Full(Shape{3, 5}, float32(2), backend)

	c := a.Add(b)

	if !c.Shape().Equal(Shape{3, 5}) {
		t.Fatalf("Broadcast shape: got %v, want [3 5]", c.Shape())
	}
	for i, v := range c.Data() {
		if !approxF32(v, 3) {
			t.Errorf("Element %d: got %v, want 3", i, v)
		}
	}
}
