package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/snnkit/snnkit/internal/parallel"
	"github.com/snnkit/snnkit/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape: [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Stride and zero padding are given per axis.
//
// Algorithm: Im2col
//  1. Transform input patches into columns (im2col), parallel over rows
//  2. Reshape kernel into matrix
//  3. Multiply via BLAS Gemm
//  4. Rearrange output to [N, C_out, H_out, W_out]
//
// Reference: "High Performance Convolutional Neural Networks for Document Processing"
// (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, strideH, strideW, padH, padW int) *tensor.RawTensor {
	in, k := input.Shape(), kernel.Shape()
	if len(in) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(in)))
	}
	if len(k) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(k)))
	}
	if strideH <= 0 || strideW <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %dx%d", strideH, strideW))
	}
	if padH < 0 || padW < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %dx%d", padH, padW))
	}

	N, CIn, H, W := in[0], in[1], in[2], in[3]
	COut, KH, KW := k[0], k[2], k[3]
	if CIn != k[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", CIn, k[1]))
	}

	HOut := (H+2*padH-KH)/strideH + 1
	WOut := (W+2*padW-KW)/strideW + 1
	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", HOut, WOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{N, COut, HOut, WOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: failed to create output tensor: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		conv2dFloat32(output, input, kernel, N, CIn, H, W, COut, KH, KW, HOut, WOut, strideH, strideW, padH, padW, cpu.parallel)
	case tensor.Float64:
		conv2dFloat64(output, input, kernel, N, CIn, H, W, COut, KH, KW, HOut, WOut, strideH, strideW, padH, padW, cpu.parallel)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

// conv2dFloat32 performs Conv2D for float32 using im2col + SGEMM.
//
//  1. Im2col: [N, C, H, W] -> colBuf [N * H_out * W_out, C * K_h * K_w]
//  2. Gemm: kernel [C_out, C*K_h*K_w] @ colBuf^T -> [C_out, N*H_out*W_out]
//  3. Rearrange: [C_out, N*H_out*W_out] -> [N, C_out, H_out, W_out]
func conv2dFloat32(output, input, kernel *tensor.RawTensor, N, CIn, H, W, COut, KH, KW, HOut, WOut, strideH, strideW, padH, padW int, cfg parallel.Config) {
	inputData := input.AsFloat32()
	kernelData := kernel.AsFloat32()
	outputData := output.AsFloat32()

	colWidth := CIn * KH * KW
	colHeight := N * HOut * WOut
	colBuf := make([]float32, colHeight*colWidth)

	im2colFloat32(colBuf, inputData, N, CIn, H, W, KH, KW, HOut, WOut, strideH, strideW, padH, padW, cfg)

	// kernelData is already in [C_out, C_in * K_h * K_w] layout (row-major),
	// and colBuf rows hold flattened patches, so the convolution collapses to
	// gemmBuf = kernel @ colBuf^T.
	gemmBuf := make([]float32, COut*colHeight)
	km := blas32.General{Rows: COut, Cols: colWidth, Stride: colWidth, Data: kernelData}
	cm := blas32.General{Rows: colHeight, Cols: colWidth, Stride: colWidth, Data: colBuf}
	om := blas32.General{Rows: COut, Cols: colHeight, Stride: colHeight, Data: gemmBuf}
	blas32.Gemm(blas.NoTrans, blas.Trans, 1, km, cm, 0, om)

	// Rearrange from [C_out, N*H_out*W_out] to [N, C_out, H_out, W_out].
	// For fixed (c, n) the source block over (h, w) is contiguous.
	plane := HOut * WOut
	parallel.ForBatch(N, COut, func(n, c int) {
		srcBase := c*colHeight + n*plane
		dstBase := n*COut*plane + c*plane
		copy(outputData[dstBase:dstBase+plane], gemmBuf[srcBase:srcBase+plane])
	}, cfg)
}

// im2colFloat32 transforms the input tensor into a column matrix.
//
// Input: [N, C, H, W]
// Output: colBuf [N * H_out * W_out, C * K_h * K_w]
//
// Each row of colBuf corresponds to one output position, each column to one
// kernel weight. Rows are independent, so the fill runs in parallel.
func im2colFloat32(colBuf, inputData []float32, N, C, H, W, KH, KW, HOut, WOut, strideH, strideW, padH, padW int, cfg parallel.Config) {
	colWidth := C * KH * KW
	rowsPerBatch := HOut * WOut

	parallel.For(N*rowsPerBatch, func(colIdx int) {
		n := colIdx / rowsPerBatch
		rem := colIdx % rowsPerBatch
		outH := rem / WOut
		outW := rem % WOut

		// Top-left corner of the patch in input space
		hStart := outH*strideH - padH
		wStart := outW*strideW - padW

		bufIdx := colIdx * colWidth
		for c := 0; c < C; c++ {
			for kh := 0; kh < KH; kh++ {
				for kw := 0; kw < KW; kw++ {
					h := hStart + kh
					w := wStart + kw

					// Positions outside the input read as zero padding.
					if h >= 0 && h < H && w >= 0 && w < W {
						colBuf[bufIdx] = inputData[n*C*H*W+c*H*W+h*W+w]
					} else {
						colBuf[bufIdx] = 0
					}
					bufIdx++
				}
			}
		}
	}, cfg)
}

// conv2dFloat64 performs Conv2D for float64 using im2col + DGEMM.
func conv2dFloat64(output, input, kernel *tensor.RawTensor, N, CIn, H, W, COut, KH, KW, HOut, WOut, strideH, strideW, padH, padW int, cfg parallel.Config) {
	inputData := input.AsFloat64()
	kernelData := kernel.AsFloat64()
	outputData := output.AsFloat64()

	colWidth := CIn * KH * KW
	colHeight := N * HOut * WOut
	colBuf := make([]float64, colHeight*colWidth)

	im2colFloat64(colBuf, inputData, N, CIn, H, W, KH, KW, HOut, WOut, strideH, strideW, padH, padW, cfg)

	gemmBuf := make([]float64, COut*colHeight)
	km := blas64.General{Rows: COut, Cols: colWidth, Stride: colWidth, Data: kernelData}
	cm := blas64.General{Rows: colHeight, Cols: colWidth, Stride: colWidth, Data: colBuf}
	om := blas64.General{Rows: COut, Cols: colHeight, Stride: colHeight, Data: gemmBuf}
	blas64.Gemm(blas.NoTrans, blas.Trans, 1, km, cm, 0, om)

	plane := HOut * WOut
	parallel.ForBatch(N, COut, func(n, c int) {
		srcBase := c*colHeight + n*plane
		dstBase := n*COut*plane + c*plane
		copy(outputData[dstBase:dstBase+plane], gemmBuf[srcBase:srcBase+plane])
	}, cfg)
}

func im2colFloat64(colBuf, inputData []float64, N, C, H, W, KH, KW, HOut, WOut, strideH, strideW, padH, padW int, cfg parallel.Config) {
	colWidth := C * KH * KW
	rowsPerBatch := HOut * WOut

	parallel.For(N*rowsPerBatch, func(colIdx int) {
		n := colIdx / rowsPerBatch
		rem := colIdx % rowsPerBatch
		outH := rem / WOut
		outW := rem % WOut

		hStart := outH*strideH - padH
		wStart := outW*strideW - padW

		bufIdx := colIdx * colWidth
		for c := 0; c < C; c++ {
			for kh := 0; kh < KH; kh++ {
				for kw := 0; kw < KW; kw++ {
					h := hStart + kh
					w := wStart + kw

					if h >= 0 && h < H && w >= 0 && w < W {
						colBuf[bufIdx] = inputData[n*C*H*W+c*H*W+h*W+w]
					} else {
						colBuf[bufIdx] = 0
					}
					bufIdx++
				}
			}
		}
	}, cfg)
}
