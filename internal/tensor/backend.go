package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// The toolbox ships a single CPU implementation (internal/backend/cpu);
// the interface exists so the layer stack and the extraction code stay
// independent of the kernels, and so tests can substitute a mock.
//
// Kernels treat misuse (shape or dtype mismatch) as programmer error and
// panic; the extraction-facing API converts caller-visible failures into
// errors before they reach a backend.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// Convolution and pooling (NCHW layout)
	Conv2D(input, kernel *RawTensor, strideH, strideW, padH, padW int) *RawTensor
	MaxPool2D(x *RawTensor, poolH, poolW, strideH, strideW int) *RawTensor
	AvgPool2D(x *RawTensor, poolH, poolW, strideH, strideW int) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Math operations (element-wise)
	Exp(x *RawTensor) *RawTensor  // exponential
	Sqrt(x *RawTensor) *RawTensor // square root

	// Activation functions
	Softmax(x *RawTensor, dim int) *RawTensor // softmax along dimension

	// Metadata
	Name() string
	Device() Device
}
