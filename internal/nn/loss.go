package nn

import (
	"github.com/snnkit/snnkit/internal/tensor"
)

// MSELoss is the mean squared error, mean((predictions - targets)^2),
// the usual regression loss.
type MSELoss[B tensor.Backend] struct {
	backend B
}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss[B tensor.Backend](backend B) *MSELoss[B] {
	return &MSELoss[B]{backend: backend}
}

// Forward reduces the squared differences to a single-element tensor.
// Predictions and targets must have the same shape.
func (m *MSELoss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic("MSELoss: predictions and targets must have the same shape")
	}

	diff := predictions.Sub(targets)
	squared := diff.Mul(diff)

	data := squared.Raw().AsFloat32()
	var sum float32
	for _, v := range data {
		sum += v
	}

	loss, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, m.backend.Device())
	if err != nil {
		panic(err)
	}
	loss.AsFloat32()[0] = sum / float32(len(data))

	return tensor.New[float32, B](loss, m.backend)
}

// Parameters returns nil; losses have nothing to train.
func (m *MSELoss[B]) Parameters() []*Parameter[B] {
	return nil
}
