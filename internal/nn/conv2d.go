package nn

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/tensor"
)

// Border modes for convolution padding.
//
// The mode determines how much zero padding is applied to the input
// before the kernel is slid across it:
//
//   - BorderValid: no padding, the kernel stays inside the input
//   - BorderSame: pads so that stride-1 convolution preserves spatial size
//   - BorderFull: pads by kernel-1 so every overlap position is computed
const (
	BorderValid = "valid"
	BorderSame  = "same"
	BorderFull  = "full"
)

// Conv2D is a 2D convolutional layer over [batch, channels, height, width]
// input. The kernel has shape [out_channels, in_channels, kernel_h, kernel_w]
// and the output spatial size follows from the strides and border mode:
//
//	out_h = (height + 2*pad_h - kernel_h)/stride_h + 1
//
// Example:
//
//	conv := nn.NewConv2D(1, 6, [2]int{5, 5}, [2]int{1, 1}, nn.BorderValid, true, backend)
//	output := conv.Forward(input) // [32, 1, 28, 28] -> [32, 6, 24, 24]
type Conv2D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	kernelSize  [2]int
	strides     [2]int
	borderMode  string
	useBias     bool

	weight *Parameter[B]
	bias   *Parameter[B]

	backend B
}

// NewConv2D creates a convolutional layer with Xavier-initialized weights
// and a zero bias. BorderSame requires odd kernel dimensions so that the
// padding is symmetric.
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelSize, strides [2]int,
	borderMode string,
	useBias bool,
	backend B,
) *Conv2D[B] {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernelSize[0] <= 0 || kernelSize[1] <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size h=%d, w=%d", kernelSize[0], kernelSize[1]))
	}
	if strides[0] <= 0 || strides[1] <= 0 {
		panic(fmt.Sprintf("conv2d: invalid strides h=%d, w=%d", strides[0], strides[1]))
	}
	switch borderMode {
	case BorderValid, BorderFull:
	case BorderSame:
		if kernelSize[0]%2 == 0 || kernelSize[1]%2 == 0 {
			panic(fmt.Sprintf("conv2d: border mode %q requires odd kernel size, got %dx%d",
				borderMode, kernelSize[0], kernelSize[1]))
		}
	default:
		panic(fmt.Sprintf("conv2d: unknown border mode %q", borderMode))
	}

	// Glorot fans for a conv kernel count channels times kernel area.
	fanIn := inChannels * kernelSize[0] * kernelSize[1]
	fanOut := outChannels * kernelSize[0] * kernelSize[1]
	weightShape := tensor.Shape{outChannels, inChannels, kernelSize[0], kernelSize[1]}
	weight := NewParameter("weight", Xavier(fanIn, fanOut, weightShape, backend))

	var bias *Parameter[B]
	if useBias {
		bias = NewParameter("bias", Zeros(tensor.Shape{outChannels}, backend))
	}

	return &Conv2D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		strides:     strides,
		borderMode:  borderMode,
		useBias:     useBias,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward convolves the input with the kernel and adds the bias.
// Input is [batch, in_channels, height, width].
func (c *Conv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("conv2d: input channels %d != expected %d", shape[1], c.inChannels))
	}

	padH, padW := c.Padding()
	output := input.Conv2D(c.weight.Tensor(), c.strides[0], c.strides[1], padH, padW)
	if c.useBias {
		// Broadcast the bias over batch and space as [1, out_channels, 1, 1].
		output = output.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
	}
	return output
}

// Kind returns KindConv2D.
func (c *Conv2D[B]) Kind() LayerKind {
	return KindConv2D
}

// OutputShape computes the output shape for a [batch, channels, height, width]
// input. The batch dimension passes through unchanged (it may be DynamicDim),
// the spatial dimensions must be concrete.
func (c *Conv2D[B]) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	if len(input) != 4 {
		return nil, wrapShapeErr("Conv2D: expected 4D input [batch, channels, height, width], got %v", input)
	}
	if input[1] != c.inChannels {
		return nil, wrapShapeErr("Conv2D: input channels %d, want %d", input[1], c.inChannels)
	}
	if input[2] <= 0 || input[3] <= 0 {
		return nil, wrapShapeErr("Conv2D: spatial dimensions must be positive, got %v", input)
	}

	padH, padW := c.Padding()
	outH := (input[2]+2*padH-c.kernelSize[0])/c.strides[0] + 1
	outW := (input[3]+2*padW-c.kernelSize[1])/c.strides[1] + 1
	if outH <= 0 || outW <= 0 {
		return nil, wrapShapeErr("Conv2D: kernel %dx%d does not fit input %v with border mode %q",
			c.kernelSize[0], c.kernelSize[1], input, c.borderMode)
	}

	return tensor.Shape{input[0], c.outChannels, outH, outW}, nil
}

// Weights returns deep copies of [weight, bias] ([weight] without bias).
func (c *Conv2D[B]) Weights() []*tensor.RawTensor {
	return weightSnapshots(c.Parameters())
}

// SetWeights replaces [weight, bias] after strict shape validation.
func (c *Conv2D[B]) SetWeights(weights []*tensor.RawTensor) error {
	return setWeights(KindConv2D, c.Parameters(), weights)
}

// Parameters returns the kernel, plus the bias when present.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	if !c.useBias {
		return []*Parameter[B]{c.weight}
	}
	return []*Parameter[B]{c.weight, c.bias}
}

// String renders the layer configuration.
func (c *Conv2D[B]) String() string {
	return fmt.Sprintf("Conv2D(in_channels=%d, out_channels=%d, kernel_size=(%d, %d), strides=(%d, %d), border_mode=%s, bias=%v)",
		c.inChannels, c.outChannels,
		c.kernelSize[0], c.kernelSize[1],
		c.strides[0], c.strides[1],
		c.borderMode, c.useBias)
}

// Weight returns the kernel parameter.
func (c *Conv2D[B]) Weight() *Parameter[B] {
	return c.weight
}

// Bias returns the bias parameter, or nil when the layer has no bias.
func (c *Conv2D[B]) Bias() *Parameter[B] {
	return c.bias
}

// OutChannels returns the number of filters.
func (c *Conv2D[B]) OutChannels() int {
	return c.outChannels
}

// InChannels returns the expected input channel count.
func (c *Conv2D[B]) InChannels() int {
	return c.inChannels
}

// KernelSize returns [kernel_h, kernel_w].
func (c *Conv2D[B]) KernelSize() [2]int {
	return c.kernelSize
}

// Strides returns [stride_h, stride_w].
func (c *Conv2D[B]) Strides() [2]int {
	return c.strides
}

// BorderMode returns one of the Border constants.
func (c *Conv2D[B]) BorderMode() string {
	return c.borderMode
}

// Padding returns the zero padding per spatial axis implied by the border mode.
func (c *Conv2D[B]) Padding() (padH, padW int) {
	switch c.borderMode {
	case BorderSame:
		return (c.kernelSize[0] - 1) / 2, (c.kernelSize[1] - 1) / 2
	case BorderFull:
		return c.kernelSize[0] - 1, c.kernelSize[1] - 1
	default:
		return 0, 0
	}
}

// StateDict returns the parameters keyed "weight" and "bias".
func (c *Conv2D[B]) StateDict() map[string]*tensor.RawTensor {
	state := map[string]*tensor.RawTensor{"weight": c.weight.Tensor().Raw()}
	if c.bias != nil {
		state["bias"] = c.bias.Tensor().Raw()
	}
	return state
}

// LoadStateDict restores the parameters from a state dictionary.
func (c *Conv2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	weightShape := tensor.Shape{c.outChannels, c.inChannels, c.kernelSize[0], c.kernelSize[1]}
	if err := loadStateEntry(stateDict, "weight", weightShape, c.weight); err != nil {
		return err
	}
	if c.bias == nil {
		return nil
	}
	return loadStateEntry(stateDict, "bias", tensor.Shape{c.outChannels}, c.bias)
}
