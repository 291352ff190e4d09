package cpu

import (
	"github.com/snnkit/snnkit/internal/tensor"
)

// broadcastStrides maps a shape onto outShape for NumPy-style broadcasting.
// The result has one stride per output dimension; missing leading dimensions
// and size-1 dimensions get stride 0 so every output index along them reads
// the same input element.
func broadcastStrides(in, out tensor.Shape) []int {
	strides := make([]int, len(out))
	orig := in.ComputeStrides()
	shift := len(out) - len(in)

	for i := range out {
		j := i - shift
		if j < 0 || in[j] == 1 {
			continue
		}
		strides[i] = orig[j]
	}
	return strides
}

// sourceIndex converts a flat output index into the flat input index using
// broadcast-adjusted input strides.
func sourceIndex(flat int, outStrides, inStrides []int) int {
	idx := 0
	for i, s := range outStrides {
		idx += (flat / s) * inStrides[i]
		flat %= s
	}
	return idx
}
