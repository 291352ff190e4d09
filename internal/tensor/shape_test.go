package tensor

import (
	"testing"
)

func TestDataTypeSizeAndName(t *testing.T) {
	cases := []struct {
		dtype DataType
		size  int
		name  string
	}{
		{Float32, 4, "float32"},
		{Float64, 8, "float64"},
		{Int32, 4, "int32"},
		{Int64, 8, "int64"},
		{Uint8, 1, "uint8"},
		{Bool, 1, "bool"},
	}

	for _, tc := range cases {
		if got := tc.dtype.Size(); got != tc.size {
			t.Errorf("%s.Size() = %d, want %d", tc.name, got, tc.size)
		}
		if got := tc.dtype.String(); got != tc.name {
			t.Errorf("String() = %q, want %q", got, tc.name)
		}
	}
}

func TestDtypeOf(t *testing.T) {
	if dt := dtypeOf[float32](); dt != Float32 {
		t.Errorf("float32 mapped to %v", dt)
	}
	if dt := dtypeOf[float64](); dt != Float64 {
		t.Errorf("float64 mapped to %v", dt)
	}
	if dt := dtypeOf[int32](); dt != Int32 {
		t.Errorf("int32 mapped to %v", dt)
	}
	if dt := dtypeOf[int64](); dt != Int64 {
		t.Errorf("int64 mapped to %v", dt)
	}
	if dt := dtypeOf[bool](); dt != Bool {
		t.Errorf("bool mapped to %v", dt)
	}
}

func TestShapeNumElements(t *testing.T) {
	cases := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1}, // rank 0 is a scalar
		{Shape{5}, 5},
		{Shape{3, 4}, 12},
		{Shape{2, 3, 4}, 24},
		{Shape{1, 1, 1}, 1},
	}

	for _, tc := range cases {
		if got := tc.shape.NumElements(); got != tc.want {
			t.Errorf("%v.NumElements() = %d, want %d", tc.shape, got, tc.want)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	for _, s := range []Shape{{1}, {3, 4}, {2, 3, 4}} {
		if err := s.Validate(); err != nil {
			t.Errorf("%v.Validate() failed: %v", s, err)
		}
	}

	// Zero and negative extents are rejected.
	for _, s := range []Shape{{0}, {3, 0}, {-1}, {3, -4}} {
		if err := s.Validate(); err == nil {
			t.Errorf("%v.Validate() succeeded, want error", s)
		}
	}
}

func TestShapeEqual(t *testing.T) {
	cases := []struct {
		a, b Shape
		want bool
	}{
		{Shape{3, 4}, Shape{3, 4}, true},
		{Shape{3, 4}, Shape{4, 3}, false},
		{Shape{3}, Shape{3, 1}, false},
		{Shape{}, Shape{}, true},
	}

	for _, tc := range cases {
		if got := tc.a.Equal(tc.b); got != tc.want {
			t.Errorf("%v.Equal(%v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestComputeStrides(t *testing.T) {
	cases := []struct {
		shape Shape
		want  []int
	}{
		{Shape{4}, []int{1}},
		{Shape{3, 4}, []int{4, 1}},
		{Shape{2, 3, 4}, []int{12, 4, 1}},
	}

	for _, tc := range cases {
		got := tc.shape.ComputeStrides()
		if len(got) != len(tc.want) {
			t.Fatalf("%v: stride count %d, want %d", tc.shape, len(got), len(tc.want))
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%v: stride[%d] = %d, want %d", tc.shape, i, got[i], tc.want[i])
			}
		}
	}
}

func TestBroadcastShapes(t *testing.T) {
	compatible := []struct {
		a, b, out Shape
		broadcast bool
	}{
		{Shape{3, 4}, Shape{3, 4}, Shape{3, 4}, false},
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true},
		{Shape{1, 5}, Shape{3, 5}, Shape{3, 5}, true},
		{Shape{1}, Shape{3, 4}, Shape{3, 4}, true},
		{Shape{3, 4}, Shape{1}, Shape{3, 4}, true},
		{Shape{3, 1}, Shape{4}, Shape{3, 4}, true},
	}
	for _, tc := range compatible {
		out, broadcast, err := BroadcastShapes(tc.a, tc.b)
		if err != nil {
			t.Errorf("BroadcastShapes(%v, %v) failed: %v", tc.a, tc.b, err)
			continue
		}
		if !out.Equal(tc.out) {
			t.Errorf("BroadcastShapes(%v, %v) = %v, want %v", tc.a, tc.b, out, tc.out)
		}
		if broadcast != tc.broadcast {
			t.Errorf("BroadcastShapes(%v, %v) broadcast = %v, want %v", tc.a, tc.b, broadcast, tc.broadcast)
		}
	}

	incompatible := [][2]Shape{
		{Shape{3, 4}, Shape{3, 5}},
		{Shape{2, 3}, Shape{3, 3}},
	}
	for _, tc := range incompatible {
		if _, _, err := BroadcastShapes(tc[0], tc[1]); err == nil {
			t.Errorf("BroadcastShapes(%v, %v) succeeded, want error", tc[0], tc[1])
		}
	}
}
