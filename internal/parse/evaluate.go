package parse

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// EvalFunc evaluates a model on a labelled batch: inputs x in the
// model's input shape, one-hot float32 targets y, loss and accuracy
// out. The loader binds one to each loaded model.
type EvalFunc func(x, y *tensor.RawTensor) (nn.Metrics, error)

// EvaluateANN runs the stored evaluation callable on a test set. The
// callable's metrics come back unmodified: no transformation, no
// aggregation.
func EvaluateANN(eval EvalFunc, x, y *tensor.RawTensor) (nn.Metrics, error) {
	if eval == nil {
		return nn.Metrics{}, fmt.Errorf("parse: no evaluation function")
	}
	return eval(x, y)
}
