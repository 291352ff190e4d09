package optim

import (
	"fmt"
	"math"

	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// Adam implements the Adam optimizer (Kingma & Ba, "Adam: A Method
// for Stochastic Optimization", 2014).
//
// Each parameter carries two exponential moving averages, one over
// the gradient (first moment m) and one over the squared gradient
// (second moment v). Both start at zero, so early estimates are
// biased toward zero and get rescaled before use:
//
//	m = beta1*m + (1-beta1)*g
//	v = beta2*v + (1-beta2)*g*g
//	m_hat = m / (1 - beta1^t)
//	v_hat = v / (1 - beta2^t)
//	param -= lr * m_hat / (sqrt(v_hat) + eps)
//
// Example:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float32{0.9, 0.999},
//	    Eps:   1e-8,
//	}, backend)
type Adam[B tensor.Backend] struct {
	params  []*nn.Parameter[B]
	lr      float32
	beta1   float32
	beta2   float32
	eps     float32
	t       int // step count, drives the bias correction
	m       map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	v       map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	backend B
}

// AdamConfig configures NewAdam. Zero-valued fields fall back to the
// usual defaults: LR 0.001, Betas [0.9, 0.999], Eps 1e-8.
type AdamConfig struct {
	LR    float32
	Betas [2]float32
	Eps   float32
}

// NewAdam creates an Adam optimizer over the given parameters. Moment
// buffers are allocated lazily, on the first step that sees a gradient
// for the parameter.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	a := &Adam[B]{
		params:  params,
		lr:      config.LR,
		beta1:   config.Betas[0],
		beta2:   config.Betas[1],
		eps:     config.Eps,
		m:       make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		v:       make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend: backend,
	}
	if a.lr == 0 {
		a.lr = 0.001
	}
	if a.beta1 == 0 {
		a.beta1 = 0.9
	}
	if a.beta2 == 0 {
		a.beta2 = 0.999
	}
	if a.eps == 0 {
		a.eps = 1e-8
	}
	return a
}

// Step performs a single optimization step using the Adam algorithm.
//
// The timestep increments first, so the bias correction at t=1
// exactly undoes the zero initialization of the moment buffers.
// Parameters with no gradient set are skipped.
func (a *Adam[B]) Step() {
	a.t++

	biasCorrection1 := float32(1.0 - math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range a.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}

		mData, vData := a.moments(param)
		gradData := grad.Raw().AsFloat32()
		paramData := param.Tensor().Raw().AsFloat32()

		for i := range paramData {
			g := gradData[i]

			mData[i] = a.beta1*mData[i] + (1.0-a.beta1)*g
			vData[i] = a.beta2*vData[i] + (1.0-a.beta2)*g*g

			mHat := mData[i] / biasCorrection1
			vHat := vData[i] / biasCorrection2

			paramData[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// moments returns float32 views of the first and second moment
// buffers for param, allocating zeroed buffers on first use.
func (a *Adam[B]) moments(param *nn.Parameter[B]) (mData, vData []float32) {
	m, ok := a.m[param]
	if !ok {
		m = tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
		a.m[param] = m
	}

	v, ok := a.v[param]
	if !ok {
		v = tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
		a.v[param] = v
	}

	return m.Raw().AsFloat32(), v.Raw().AsFloat32()
}

// ZeroGrad clears the gradient of every parameter.
func (a *Adam[B]) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the learning rate.
func (a *Adam[B]) GetLR() float32 {
	return a.lr
}

// SetLR replaces the learning rate. Schedules call this between epochs.
func (a *Adam[B]) SetLR(lr float32) {
	a.lr = lr
}

// Name returns "Adam".
func (a *Adam[B]) Name() string {
	return "Adam"
}

// GetTimestep returns the number of steps taken so far.
func (a *Adam[B]) GetTimestep() int {
	return a.t
}

// StateDict returns the optimizer state for serialization.
//
// Exports both moment buffers per parameter plus the timestep:
// "m.{param_index}", "v.{param_index}", and "t" (int64 scalar).
func (a *Adam[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)

	for i, param := range a.params {
		if m, ok := a.m[param]; ok {
			stateDict[fmt.Sprintf("m.%d", i)] = m.Raw()
		}
		if v, ok := a.v[param]; ok {
			stateDict[fmt.Sprintf("v.%d", i)] = v.Raw()
		}
	}

	tRaw, err := tensor.NewRaw(tensor.Shape{1}, tensor.Int64, a.backend.Device())
	if err == nil {
		tRaw.AsInt64()[0] = int64(a.t)
		stateDict["t"] = tRaw
	}

	return stateDict
}

// LoadStateDict loads optimizer state from serialization.
//
// Restores moment buffers and the timestep. Missing buffers are left
// to initialize on the next step.
//
// Returns an error if a buffer shape doesn't match its parameter.
func (a *Adam[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	a.m = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])
	a.v = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])

	for i, param := range a.params {
		if mRaw, ok := stateDict[fmt.Sprintf("m.%d", i)]; ok {
			if !mRaw.Shape().Equal(param.Tensor().Shape()) {
				return fmt.Errorf("first moment shape mismatch for parameter %d: expected %v, got %v",
					i, param.Tensor().Shape(), mRaw.Shape())
			}
			a.m[param] = tensor.New[float32, B](mRaw, a.backend)
		}
		if vRaw, ok := stateDict[fmt.Sprintf("v.%d", i)]; ok {
			if !vRaw.Shape().Equal(param.Tensor().Shape()) {
				return fmt.Errorf("second moment shape mismatch for parameter %d: expected %v, got %v",
					i, param.Tensor().Shape(), vRaw.Shape())
			}
			a.v[param] = tensor.New[float32, B](vRaw, a.backend)
		}
	}

	if tRaw, ok := stateDict["t"]; ok {
		if tRaw.DType() != tensor.Int64 || tRaw.Shape().NumElements() != 1 {
			return fmt.Errorf("timestep must be an int64 scalar, got %v %v", tRaw.DType(), tRaw.Shape())
		}
		a.t = int(tRaw.AsInt64()[0])
	}

	return nil
}
