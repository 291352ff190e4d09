package cpu

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/parallel"
	"github.com/snnkit/snnkit/internal/tensor"
)

// AvgPool2D performs 2D average pooling.
//
// Average pooling reduces spatial dimensions by taking the mean value
// in each pooling window. Shape semantics match MaxPool2D.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
func (cpu *CPUBackend) AvgPool2D(input *tensor.RawTensor, poolH, poolW, strideH, strideW int) *tensor.RawTensor {
	N, C, H, W, HOut, WOut := pool2dDims("avgpool2d", input, poolH, poolW, strideH, strideW)

	outputShape := tensor.Shape{N, C, HOut, WOut}
	output, err := tensor.NewRaw(outputShape, input.DType(), cpu.Device())
	if err != nil {
		panic(fmt.Sprintf("avgpool2d: failed to create output: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		avgpool2dKernel(output.AsFloat32(), input.AsFloat32(), N, C, H, W, HOut, WOut, poolH, poolW, strideH, strideW, cpu.parallel)
	case tensor.Float64:
		avgpool2dKernel(output.AsFloat64(), input.AsFloat64(), N, C, H, W, HOut, WOut, poolH, poolW, strideH, strideW, cpu.parallel)
	default:
		panic(fmt.Sprintf("avgpool2d: unsupported dtype %v", input.DType()))
	}

	return output
}

// avgpool2dKernel pools one tensor, parallel over (batch, channel) pairs
// like maxpool2dKernel.
func avgpool2dKernel[T floatDType](outputData, inputData []T, N, C, H, W, HOut, WOut, poolH, poolW, strideH, strideW int, cfg parallel.Config) {
	windowSize := T(poolH * poolW)

	parallel.ForBatch(N, C, func(n, c int) {
		channelOffset := (n*C + c) * H * W
		channelData := inputData[channelOffset : channelOffset+H*W]

		for outH := 0; outH < HOut; outH++ {
			hStart := outH * strideH

			for outW := 0; outW < WOut; outW++ {
				wStart := outW * strideW

				var sum T
				for kh := 0; kh < poolH; kh++ {
					rowStart := (hStart + kh) * W
					rowData := channelData[rowStart : rowStart+W]

					for kw := 0; kw < poolW; kw++ {
						sum += rowData[wStart+kw]
					}
				}

				outputData[((n*C+c)*HOut+outH)*WOut+outW] = sum / windowSize
			}
		}
	}, cfg)
}
