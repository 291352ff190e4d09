package tensor

import (
	"fmt"
	"slices"
)

// Shape represents the dimensions of a tensor.
//
// Concrete tensors always carry fully specified shapes. Static shapes used
// for model description may mark the batch dimension as unknown; such shapes
// are never allocated.
type Shape []int

// NumElements returns the total number of elements in the tensor.
// A scalar (rank 0) has one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate returns an error unless every dimension is positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal reports whether s and other have identical dimensions.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	return slices.Clone(s)
}

// ComputeStrides calculates row-major strides for the shape: the last
// dimension is contiguous and each stride is the running product of the
// dimensions after it.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// BroadcastShapes applies NumPy-style broadcasting to a pair of shapes.
//
// Dimensions are matched from the right. Two dimensions are compatible
// when they are equal or when either is 1; a missing dimension counts
// as 1. The returned flag reports whether any dimension actually needs
// broadcasting, so callers can keep the fast same-shape path.
//
// Examples:
//
//	(3, 1) + (3, 5) -> (3, 5), true, nil
//	(1, 5) + (3, 5) -> (3, 5), true, nil
//	(3, 5) + (3, 5) -> (3, 5), false, nil
//	(3, 4) + (3, 5) -> nil, false, error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	rank := max(len(a), len(b))
	out := make(Shape, rank)
	broadcast := false

	for i := 1; i <= rank; i++ {
		dimA, dimB := 1, 1
		if i <= len(a) {
			dimA = a[len(a)-i]
		}
		if i <= len(b) {
			dimB = b[len(b)-i]
		}

		switch {
		case dimA == dimB:
			out[rank-i] = dimA
		case dimA == 1:
			out[rank-i] = dimB
			broadcast = true
		case dimB == 1:
			out[rank-i] = dimA
			broadcast = true
		default:
			return nil, false, fmt.Errorf("shapes not compatible for broadcasting: %v vs %v (dimension %d: %d vs %d)",
				a, b, rank-i, dimA, dimB)
		}
	}

	return out, broadcast, nil
}
