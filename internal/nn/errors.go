package nn

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrShapeMismatch is returned when a tensor's shape does not match
	// what a layer expects, either as input or as replacement weights.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrUnknownActivation is returned when an activation name has no
	// registered implementation.
	ErrUnknownActivation = errors.New("unknown activation")

	// ErrUnknownLayerType is returned when an architecture description
	// names a layer type this package does not implement.
	ErrUnknownLayerType = errors.New("unknown layer type")

	// ErrNotCompiled is returned when evaluation is requested on a model
	// that has no criterion attached.
	ErrNotCompiled = errors.New("model is not compiled")
)

// wrapShapeErr formats a message and wraps ErrShapeMismatch under it.
func wrapShapeErr(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrShapeMismatch)...)
}
