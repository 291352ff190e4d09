package nn

import "fmt"

// LayerKind identifies the structural role of a layer.
//
// Kinds drive everything downstream of model construction: shape
// inference, architecture serialization, and the per-layer records the
// parse package emits. String values match the type names used in the
// architecture JSON.
type LayerKind int

const (
	KindDense LayerKind = iota
	KindConv2D
	KindMaxPool2D
	KindAvgPool2D
	KindActivation
	KindBatchNorm
	KindFlatten
	KindDropout
)

// String returns the canonical name of the kind.
func (k LayerKind) String() string {
	switch k {
	case KindDense:
		return "Dense"
	case KindConv2D:
		return "Conv2D"
	case KindMaxPool2D:
		return "MaxPool2D"
	case KindAvgPool2D:
		return "AvgPool2D"
	case KindActivation:
		return "Activation"
	case KindBatchNorm:
		return "BatchNorm"
	case KindFlatten:
		return "Flatten"
	case KindDropout:
		return "Dropout"
	default:
		return "Unknown"
	}
}

// ParseLayerKind maps a canonical name back to its kind.
func ParseLayerKind(name string) (LayerKind, error) {
	switch name {
	case "Dense":
		return KindDense, nil
	case "Conv2D":
		return KindConv2D, nil
	case "MaxPool2D":
		return KindMaxPool2D, nil
	case "AvgPool2D":
		return KindAvgPool2D, nil
	case "Activation":
		return KindActivation, nil
	case "BatchNorm":
		return KindBatchNorm, nil
	case "Flatten":
		return KindFlatten, nil
	case "Dropout":
		return KindDropout, nil
	default:
		return 0, fmt.Errorf("%q: %w", name, ErrUnknownLayerType)
	}
}
