package tensor

import (
	"math"
	"math/rand"
)

// one returns the value 1 (or true) in the element type T.
func one[T DType]() T {
	var v any
	switch dtypeOf[T]() {
	case Float32:
		v = float32(1)
	case Float64:
		v = float64(1)
	case Int32:
		v = int32(1)
	case Int64:
		v = int64(1)
	case Uint8:
		v = uint8(1)
	case Bool:
		v = true
	}
	return v.(T)
}

// Zeros creates a tensor of zeros. The other constructors in this file
// build on it.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	raw, err := NewRaw(shape, dtypeOf[T](), b.Device())
	if err != nil {
		panic(err)
	}
	// A fresh buffer from make is already zeroed.
	return New[T, B](raw, b)
}

// Ones creates a tensor of ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full(shape, one[T](), b)
}

// Full creates a tensor with every element set to value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// boxMuller turns two uniform draws into two independent samples from
// the standard normal distribution.
func boxMuller() (float64, float64) {
	u1 := rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally for reproducibility
	u2 := rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally for reproducibility
	r := math.Sqrt(-2.0 * math.Log(u1))
	return r * math.Cos(2.0 * math.Pi * u2), r * math.Sin(2.0 * math.Pi * u2)
}

// Randn fills a float tensor with standard normal draws, two per
// Box-Muller transform. Panics for non-float element types.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)

	switch data := any(t.Data()).(type) {
	case []float32:
		for i := 0; i < len(data); i += 2 {
			z0, z1 := boxMuller()
			data[i] = float32(z0)
			if i+1 < len(data) {
				data[i+1] = float32(z1)
			}
		}
	case []float64:
		for i := 0; i < len(data); i += 2 {
			z0, z1 := boxMuller()
			data[i] = z0
			if i+1 < len(data) {
				data[i+1] = z1
			}
		}
	default:
		panic("Randn only supports float32 and float64 types")
	}
	return t
}

// Rand fills a float tensor with uniform draws from [0, 1). Panics for
// non-float element types.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)

	switch data := any(t.Data()).(type) {
	case []float32:
		for i := range data {
			data[i] = float32(rand.Float64()) //nolint:gosec // G404: ML uses math/rand intentionally
		}
	case []float64:
		for i := range data {
			data[i] = rand.Float64() //nolint:gosec // G404: ML uses math/rand intentionally
		}
	default:
		panic("Rand only supports float32 and float64 types")
	}
	return t
}

// Eye creates the n by n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	for i := 0; i < n; i++ {
		t.Set(one[T](), i, i)
	}
	return t
}
