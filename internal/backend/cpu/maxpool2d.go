package cpu

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/parallel"
	"github.com/snnkit/snnkit/internal/tensor"
)

// MaxPool2D performs 2D max pooling.
//
// Max pooling reduces spatial dimensions by taking the maximum value
// in each pooling window. It has no learnable parameters. The window and
// stride are given per axis, so rectangular pools are supported.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height - poolH) / strideH + 1
//	out_width = (width - poolW) / strideW + 1
//
// Example (2x2 pool, stride 2):
//
//	Input: [[1,2,3,4],    Output: [[6,8],
//	        [5,6,7,8],             [14,16]]
//	        [9,10,11,12],
//	        [13,14,15,16]]
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, poolH, poolW, strideH, strideW int) *tensor.RawTensor {
	N, C, H, W, HOut, WOut := pool2dDims("maxpool2d", input, poolH, poolW, strideH, strideW)

	outputShape := tensor.Shape{N, C, HOut, WOut}
	output, err := tensor.NewRaw(outputShape, input.DType(), cpu.Device())
	if err != nil {
		panic(fmt.Sprintf("maxpool2d: failed to create output: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		maxpool2dKernel(output.AsFloat32(), input.AsFloat32(), N, C, H, W, HOut, WOut, poolH, poolW, strideH, strideW, cpu.parallel)
	case tensor.Float64:
		maxpool2dKernel(output.AsFloat64(), input.AsFloat64(), N, C, H, W, HOut, WOut, poolH, poolW, strideH, strideW, cpu.parallel)
	default:
		panic(fmt.Sprintf("maxpool2d: unsupported dtype %v", input.DType()))
	}

	return output
}

// pool2dDims validates pooling arguments and computes output dimensions.
// Shared by MaxPool2D and AvgPool2D.
func pool2dDims(op string, input *tensor.RawTensor, poolH, poolW, strideH, strideW int) (n, c, h, w, hOut, wOut int) {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,C,H,W], got %dD", op, len(inputShape)))
	}

	n = inputShape[0]
	c = inputShape[1]
	h = inputShape[2]
	w = inputShape[3]

	if poolH <= 0 || poolW <= 0 {
		panic(fmt.Sprintf("%s: invalid pool size %dx%d", op, poolH, poolW))
	}
	if strideH <= 0 || strideW <= 0 {
		panic(fmt.Sprintf("%s: invalid stride %dx%d", op, strideH, strideW))
	}
	if poolH > h || poolW > w {
		panic(fmt.Sprintf("%s: pool size %dx%d too large for input %dx%d", op, poolH, poolW, h, w))
	}

	hOut = (h-poolH)/strideH + 1
	wOut = (w-poolW)/strideW + 1

	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("%s: invalid output dimensions %dx%d (pool=%dx%d, stride=%dx%d, input=%dx%d)",
			op, hOut, wOut, poolH, poolW, strideH, strideW, h, w))
	}

	return n, c, h, w, hOut, wOut
}

// maxpool2dKernel pools one tensor. Channel planes are independent, so
// (batch, channel) pairs run in parallel. Each plane and row is
// pre-sliced to keep bounds checks out of the window loops.
func maxpool2dKernel[T floatDType](outputData, inputData []T, N, C, H, W, HOut, WOut, poolH, poolW, strideH, strideW int, cfg parallel.Config) {
	parallel.ForBatch(N, C, func(n, c int) {
		channelOffset := (n*C + c) * H * W
		channelData := inputData[channelOffset : channelOffset+H*W]

		for outH := 0; outH < HOut; outH++ {
			hStart := outH * strideH

			for outW := 0; outW < WOut; outW++ {
				wStart := outW * strideW

				// The first window element seeds the max, so no
				// sentinel minimum is needed.
				maxVal := channelData[hStart*W+wStart]
				for kh := 0; kh < poolH; kh++ {
					rowStart := (hStart + kh) * W
					rowData := channelData[rowStart : rowStart+W]

					for kw := 0; kw < poolW; kw++ {
						if v := rowData[wStart+kw]; v > maxVal {
							maxVal = v
						}
					}
				}

				outputData[((n*C+c)*HOut+outH)*WOut+outW] = maxVal
			}
		}
	}, cfg)
}
