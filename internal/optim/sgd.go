package optim

import (
	"fmt"

	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// SGD is stochastic gradient descent with optional momentum.
//
// Without momentum each step applies
//
//	param -= lr * grad
//
// and with momentum
//
//	velocity = momentum*velocity + grad
//	param -= lr * velocity
//
// Velocity accumulates raw gradients (no dampening). Updates run
// element-wise over the parameter buffers in place.
//
// Example:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	}, backend)
//
//	for epoch := range epochs {
//	    setGradients(model, batch)
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	backend    B
}

// SGDConfig configures NewSGD. A zero LR falls back to 0.01; zero
// momentum means plain gradient descent.
type SGDConfig struct {
	LR       float32
	Momentum float32 // in [0, 1)
}

// NewSGD creates an SGD optimizer over the given parameters. Velocity
// buffers are allocated lazily, on the first step that sees a gradient
// for the parameter.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	s := &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend:    backend,
	}
	if s.lr == 0 {
		s.lr = 0.01
	}
	return s
}

// Step performs a single optimization step.
//
// Every parameter carrying a gradient is updated in place. Parameters
// with no gradient set are skipped.
func (s *SGD[B]) Step() {
	for _, param := range s.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		paramData := param.Tensor().Raw().AsFloat32()
		gradData := grad.Raw().AsFloat32()

		if s.momentum == 0 {
			for i := range paramData {
				paramData[i] -= s.lr * gradData[i]
			}
			continue
		}

		vData := s.velocity(param).Raw().AsFloat32()
		for i := range paramData {
			vData[i] = s.momentum*vData[i] + gradData[i]
			paramData[i] -= s.lr * vData[i]
		}
	}
}

// velocity returns the momentum buffer for param, allocating a zeroed
// one on first use.
func (s *SGD[B]) velocity(param *nn.Parameter[B]) *tensor.Tensor[float32, B] {
	v, ok := s.velocities[param]
	if !ok {
		v = tensor.Zeros[float32](param.Tensor().Shape(), s.backend)
		s.velocities[param] = v
	}
	return v
}

// ZeroGrad clears the gradient of every parameter.
func (s *SGD[B]) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR replaces the learning rate. Schedules call this between epochs.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}

// Name returns "SGD".
func (s *SGD[B]) Name() string {
	return "SGD"
}

// StateDict returns the optimizer state for serialization.
//
// With momentum enabled, exports one velocity buffer per parameter
// under "velocity.{param_index}" keys, where the index is the
// parameter's position in the constructor slice. Plain SGD carries no
// state and returns an empty map.
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	if s.momentum == 0 {
		return stateDict
	}

	for i, param := range s.params {
		if v, ok := s.velocities[param]; ok {
			stateDict[fmt.Sprintf("velocity.%d", i)] = v.Raw()
		}
	}

	return stateDict
}

// LoadStateDict restores velocity buffers exported by StateDict.
//
// Buffers missing from the dict stay unallocated and are zeroed on
// the next step. With momentum disabled the dict is ignored entirely.
//
// Returns an error if a velocity shape doesn't match its parameter.
func (s *SGD[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if s.momentum == 0 {
		return nil
	}

	s.velocities = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])

	for i, param := range s.params {
		raw, ok := stateDict[fmt.Sprintf("velocity.%d", i)]
		if !ok {
			continue
		}

		if !raw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("velocity shape mismatch for parameter %d: expected %v, got %v",
				i, param.Tensor().Shape(), raw.Shape())
		}

		s.velocities[param] = tensor.New[float32, B](raw, s.backend)
	}

	return nil
}
