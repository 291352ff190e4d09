package tensor

import (
	"fmt"
	"testing"
)

func BenchmarkCreation(b *testing.B) {
	backend := NewMockBackend()
	shape := Shape{100, 100}

	makers := []struct {
		name string
		make func() *Tensor[float32, *MockBackend]
	}{
		{"Zeros", func() *Tensor[float32, *MockBackend] { return Zeros[float32](shape, backend) }},
		{"Ones", func() *Tensor[float32, *MockBackend] { return Ones[float32](shape, backend) }},
		{"Randn", func() *Tensor[float32, *MockBackend] { return Randn[float32](shape, backend) }},
	}

	for _, m := range makers {
		b.Run(m.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = m.make()
			}
		})
	}
}

func BenchmarkShapeOperations(b *testing.B) {
	shape := Shape{100, 100}
	other := Shape{100, 100}

	b.Run("NumElements", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = shape.NumElements()
		}
	})
	b.Run("ComputeStrides", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = shape.ComputeStrides()
		}
	})
	b.Run("BroadcastShapes", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _, _ = BroadcastShapes(shape, other)
		}
	})
	b.Run("Validate", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = shape.Validate()
		}
	})
}

func BenchmarkElementwise(b *testing.B) {
	backend := NewMockBackend()

	for _, size := range []int{100, 1000, 10000} {
		x := Ones[float32](Shape{size}, backend)
		y := Ones[float32](Shape{size}, backend)

		b.Run(fmt.Sprintf("Add-%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = x.Add(y)
			}
		})
		b.Run(fmt.Sprintf("Mul-%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = x.Mul(y)
			}
		})
	}
}

func BenchmarkMatMul(b *testing.B) {
	backend := NewMockBackend()

	for _, size := range []int{10, 50, 100} {
		x := Randn[float32](Shape{size, size}, backend)
		y := Randn[float32](Shape{size, size}, backend)

		b.Run(fmt.Sprintf("MatMul-%dx%d", size, size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = x.MatMul(y)
			}
		})
	}
}

func BenchmarkViewsAndAccess(b *testing.B) {
	backend := NewMockBackend()
	x := Randn[float32](Shape{100, 100}, backend)

	b.Run("Reshape", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = x.Reshape(10000)
		}
	})
	b.Run("Transpose", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = x.T()
		}
	})
	b.Run("At", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = x.At(50, 50)
		}
	})
	b.Run("Set", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			x.Set(1.0, 50, 50)
		}
	})
	b.Run("Data", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = x.Data()
		}
	})
}
