package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// labelFor builds an emitted record's label: two-digit emitted index,
// kind name, then the output shape with the batch dimension dropped.
//
//	00Dense_128
//	02Conv2D_16x8x8
//
// Indices from 10 up widen naturally (10Dense_10). One label per
// emitted index keeps labels unique within a description.
func labelFor(layerNum int, kind nn.LayerKind, outputShape tensor.Shape) string {
	dims := make([]string, 0, len(outputShape)-1)
	for _, dim := range outputShape[1:] {
		dims = append(dims, strconv.Itoa(dim))
	}
	return fmt.Sprintf("%02d%s_%s", layerNum, kind, strings.Join(dims, "x"))
}
