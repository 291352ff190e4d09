package nn

import (
	"math"

	"github.com/snnkit/snnkit/internal/tensor"
)

// CrossEntropyLoss is the standard loss for multi-class classification.
//
// It takes raw logits rather than probabilities and evaluates
//
//	loss_b = -log softmax(logits_b)[target_b] = logSumExp(logits_b) - logits_b[target_b]
//
// per sample, returning the mean over the batch as a scalar tensor. The
// log-sum-exp form keeps the loss finite for logits far outside the range
// where exp can be evaluated directly.
type CrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewCrossEntropyLoss creates the loss for the given backend.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{backend: backend}
}

// Forward computes the mean cross-entropy over a batch.
//
// logits must be [batch_size, num_classes] and targets [batch_size] with
// class indices in [0, num_classes).
func (c *CrossEntropyLoss[B]) Forward(
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) *tensor.Tensor[float32, B] {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic("CrossEntropyLoss: logits must be 2D [batch_size, num_classes]")
	}
	batchSize, numClasses := shape[0], shape[1]

	targetsData := targets.Raw().AsInt32()
	if len(targetsData) != batchSize {
		panic("CrossEntropyLoss: targets must have shape [batch_size]")
	}
	logitsData := logits.Raw().AsFloat32()

	var total float32
	for b := 0; b < batchSize; b++ {
		row := logitsData[b*numClasses : (b+1)*numClasses]

		target := int(targetsData[b])
		if target < 0 || target >= numClasses {
			panic("CrossEntropyLoss: target index out of bounds")
		}

		total += logSumExp(row) - row[target]
	}

	lossRaw, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, c.backend.Device())
	if err != nil {
		panic(err)
	}
	lossRaw.AsFloat32()[0] = total / float32(batchSize)

	return tensor.New[float32, B](lossRaw, c.backend)
}

// Parameters returns nil; loss functions have nothing to train.
func (c *CrossEntropyLoss[B]) Parameters() []*Parameter[B] {
	return nil
}

// logSumExp computes log(sum(exp(z))). The maximum is factored out first
// so neither exp overflow nor all-negative underflow can occur.
func logSumExp(z []float32) float32 {
	maxZ := z[0]
	for _, v := range z[1:] {
		if v > maxZ {
			maxZ = v
		}
	}

	var sum float32
	for _, v := range z {
		sum += float32(math.Exp(float64(v - maxZ)))
	}
	return maxZ + float32(math.Log(float64(sum)))
}

// CrossEntropyBackward computes the gradient of the mean cross-entropy
// with respect to the logits:
//
//	grad_b[i] = (softmax(logits_b)[i] - [i == target_b]) / batch_size
//
// The softmax probabilities come from the same log-sum-exp used by the
// forward pass, so forward and backward agree numerically.
func CrossEntropyBackward[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
	backend B,
) *tensor.Tensor[float32, B] {
	shape := logits.Shape()
	batchSize, numClasses := shape[0], shape[1]
	logitsData := logits.Raw().AsFloat32()
	targetsData := targets.Raw().AsInt32()

	gradRaw, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}
	gradData := gradRaw.AsFloat32()

	for b := 0; b < batchSize; b++ {
		row := logitsData[b*numClasses : (b+1)*numClasses]
		gradRow := gradData[b*numClasses : (b+1)*numClasses]

		lse := logSumExp(row)
		target := int(targetsData[b])

		for i, v := range row {
			p := float32(math.Exp(float64(v - lse)))
			if i == target {
				p -= 1
			}
			gradRow[i] = p / float32(batchSize)
		}
	}

	return tensor.New[float32, B](gradRaw, backend)
}

// argmax returns the index of the largest value.
func argmax(z []float32) int {
	maxIdx := 0
	for i, v := range z[1:] {
		if v > z[maxIdx] {
			maxIdx = i + 1
		}
	}
	return maxIdx
}

// Accuracy reports the fraction of samples whose highest logit matches
// the target class.
func Accuracy[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) float32 {
	shape := logits.Shape()
	batchSize, numClasses := shape[0], shape[1]
	logitsData := logits.Raw().AsFloat32()
	targetsData := targets.Raw().AsInt32()

	correct := 0
	for b := 0; b < batchSize; b++ {
		row := logitsData[b*numClasses : (b+1)*numClasses]
		if argmax(row) == int(targetsData[b]) {
			correct++
		}
	}
	return float32(correct) / float32(batchSize)
}
