// Package optim implements the optimizers used to train networks: SGD
// with optional momentum and Adam with bias-corrected moments.
//
// Design inspired by PyTorch's torch.optim but adapted for Go generics.
//
// Gradients are computed by the caller and attached to each parameter
// through Parameter.SetGrad before calling Step. There is no tape: for
// classifier heads nn.CrossEntropyBackward produces the output gradient
// and the caller propagates it to the parameters it trains.
//
// Example usage:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR: 0.01,
//	}, backend)
//
//	for epoch := range epochs {
//	    setGradients(model, batch) // caller-computed, via Parameter.SetGrad
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
package optim

// Optimizer is the interface SGD and Adam share. Step applies one update
// to every parameter carrying a gradient and skips the rest; ZeroGrad
// clears the gradients afterward so a stale gradient is never applied
// twice. Name is the short algorithm name recorded in checkpoint headers.
type Optimizer interface {
	Step()
	ZeroGrad()
	GetLR() float32
	Name() string
}

// Config is the base configuration shared by the optimizer configs.
type Config struct {
	LR float32
}
