package nn

import (
	"encoding/json"
	"fmt"

	"github.com/snnkit/snnkit/internal/tensor"
)

// ArchFormat and ArchVersion identify the architecture JSON format.
//
// Every architecture file starts with {"format": "snnkit.model",
// "version": 1, ...} so readers can reject files they do not understand.
const (
	ArchFormat  = "snnkit.model"
	ArchVersion = 1
)

// LayerSpec is the JSON description of one layer: a type name plus a
// type-specific config payload.
//
// The config is kept as raw JSON until the type is known, then decoded
// into the matching *Config struct. Input sizes (Dense in_features,
// Conv2D in_channels, BatchNorm features) are never written: they are
// inferred from the incoming shape when the model is built, the same
// way the output shape of each layer is.
type LayerSpec struct {
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config,omitempty"`
}

// DenseConfig is the config payload for Dense layers.
type DenseConfig struct {
	Units   int   `json:"units"`
	UseBias *bool `json:"use_bias,omitempty"` // nil means true
}

// Conv2DConfig is the config payload for Conv2D layers.
type Conv2DConfig struct {
	Filters    int    `json:"filters"`
	KernelSize []int  `json:"kernel_size"`
	Strides    []int  `json:"strides,omitempty"`     // default [1, 1]
	BorderMode string `json:"border_mode,omitempty"` // default "valid"
	UseBias    *bool  `json:"use_bias,omitempty"`    // nil means true
}

// PoolConfig is the config payload for MaxPool2D and AvgPool2D layers.
type PoolConfig struct {
	PoolSize []int `json:"pool_size"`
	Strides  []int `json:"strides,omitempty"` // default: the pool size
}

// ActivationConfig is the config payload for Activation layers.
type ActivationConfig struct {
	Activation string `json:"activation"`
}

// BatchNormConfig is the config payload for BatchNorm layers.
type BatchNormConfig struct {
	Epsilon float32 `json:"epsilon,omitempty"` // default DefaultBNEpsilon
}

// DropoutConfig is the config payload for Dropout layers.
type DropoutConfig struct {
	Rate float32 `json:"rate"`
}

// Architecture is the JSON description of a model: the input shape
// (batch dimension excluded) and the ordered layer list.
//
// This is the `<name>.json` half of a model pair on disk; the weights
// live separately in the `<name>.h5` file.
type Architecture struct {
	Format     string      `json:"format"`
	Version    int         `json:"version"`
	InputShape []int       `json:"input_shape"`
	Layers     []LayerSpec `json:"layers"`
}

// EncodeArchitecture serializes an architecture to indented JSON.
func EncodeArchitecture(arch *Architecture) ([]byte, error) {
	return json.MarshalIndent(arch, "", "  ")
}

// DecodeArchitecture parses architecture JSON and validates the header.
func DecodeArchitecture(data []byte) (*Architecture, error) {
	var arch Architecture
	if err := json.Unmarshal(data, &arch); err != nil {
		return nil, fmt.Errorf("invalid architecture JSON: %w", err)
	}
	if arch.Format != ArchFormat {
		return nil, fmt.Errorf("unexpected architecture format %q, want %q", arch.Format, ArchFormat)
	}
	if arch.Version != ArchVersion {
		return nil, fmt.Errorf("unsupported architecture version %d, want %d", arch.Version, ArchVersion)
	}
	return &arch, nil
}

// BuildModel constructs a model from an architecture description.
//
// Shapes are inferred front to back: the input shape (with a DynamicDim
// batch prepended) flows through the layer list, and each layer's input
// sizes come from the shape its predecessor produces. Freshly built
// layers carry initialization weights; load trained weights separately.
func BuildModel[B tensor.Backend](arch *Architecture, backend B) (*Model[B], error) {
	if len(arch.InputShape) == 0 {
		return nil, wrapShapeErr("architecture: missing input_shape")
	}
	for i, dim := range arch.InputShape {
		if dim <= 0 {
			return nil, wrapShapeErr("architecture: input_shape dimension %d must be positive, got %v",
				i, arch.InputShape)
		}
	}
	if len(arch.Layers) == 0 {
		return nil, fmt.Errorf("architecture: no layers")
	}

	// Prepend the dynamic batch dimension.
	inputShape := make(tensor.Shape, 0, len(arch.InputShape)+1)
	inputShape = append(inputShape, DynamicDim)
	inputShape = append(inputShape, arch.InputShape...)

	layers := make([]Layer[B], 0, len(arch.Layers))
	current := inputShape
	for i, spec := range arch.Layers {
		layer, err := buildLayer(spec, current, backend)
		if err != nil {
			return nil, fmt.Errorf("architecture: layer %d: %w", i, err)
		}

		next, err := layer.OutputShape(current)
		if err != nil {
			return nil, fmt.Errorf("architecture: layer %d (%s): %w", i, spec.Type, err)
		}

		layers = append(layers, layer)
		current = next
	}

	return NewModel(inputShape, layers, backend)
}

// decodeConfig parses a spec's raw config into the type-specific struct.
// An absent config leaves dst at its zero value.
func decodeConfig(spec LayerSpec, dst any) error {
	if len(spec.Config) == 0 {
		return nil
	}
	if err := json.Unmarshal(spec.Config, dst); err != nil {
		return fmt.Errorf("%s: invalid config: %w", spec.Type, err)
	}
	return nil
}

// buildLayer constructs one layer from its spec and the incoming shape.
//
//nolint:gocyclo,cyclop // One arm per layer kind.
func buildLayer[B tensor.Backend](spec LayerSpec, input tensor.Shape, backend B) (Layer[B], error) {
	kind, err := ParseLayerKind(spec.Type)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", spec.Type, err)
	}

	switch kind {
	case KindDense:
		var cfg DenseConfig
		if err := decodeConfig(spec, &cfg); err != nil {
			return nil, err
		}
		if cfg.Units <= 0 {
			return nil, fmt.Errorf("Dense: units must be positive, got %d", cfg.Units)
		}
		if len(input) != 2 {
			return nil, wrapShapeErr("Dense: expected 2D input [batch, features], got %v", input)
		}
		return NewDense(input[1], cfg.Units, useBias(cfg.UseBias), backend), nil

	case KindConv2D:
		var cfg Conv2DConfig
		if err := decodeConfig(spec, &cfg); err != nil {
			return nil, err
		}
		if cfg.Filters <= 0 {
			return nil, fmt.Errorf("Conv2D: filters must be positive, got %d", cfg.Filters)
		}
		kernelSize, err := pair("Conv2D", "kernel_size", cfg.KernelSize, nil)
		if err != nil {
			return nil, err
		}
		strides, err := pair("Conv2D", "strides", cfg.Strides, []int{1, 1})
		if err != nil {
			return nil, err
		}
		if len(input) != 4 {
			return nil, wrapShapeErr("Conv2D: expected 4D input [batch, channels, height, width], got %v", input)
		}
		borderMode := cfg.BorderMode
		if borderMode == "" {
			borderMode = BorderValid
		}
		switch borderMode {
		case BorderValid, BorderFull:
		case BorderSame:
			if kernelSize[0]%2 == 0 || kernelSize[1]%2 == 0 {
				return nil, fmt.Errorf("Conv2D: border mode %q requires odd kernel size, got %dx%d",
					borderMode, kernelSize[0], kernelSize[1])
			}
		default:
			return nil, fmt.Errorf("Conv2D: unknown border mode %q", borderMode)
		}
		return NewConv2D(input[1], cfg.Filters, kernelSize, strides, borderMode, useBias(cfg.UseBias), backend), nil

	case KindMaxPool2D, KindAvgPool2D:
		var cfg PoolConfig
		if err := decodeConfig(spec, &cfg); err != nil {
			return nil, err
		}
		poolSize, err := pair(spec.Type, "pool_size", cfg.PoolSize, nil)
		if err != nil {
			return nil, err
		}
		// Keras convention: strides default to the pool size.
		strides, err := pair(spec.Type, "strides", cfg.Strides, poolSize[:])
		if err != nil {
			return nil, err
		}
		if kind == KindMaxPool2D {
			return NewMaxPool2D[B](poolSize, strides, backend), nil
		}
		return NewAvgPool2D[B](poolSize, strides, backend), nil

	case KindActivation:
		var cfg ActivationConfig
		if err := decodeConfig(spec, &cfg); err != nil {
			return nil, err
		}
		return NewActivation(cfg.Activation, backend)

	case KindBatchNorm:
		var cfg BatchNormConfig
		if err := decodeConfig(spec, &cfg); err != nil {
			return nil, err
		}
		if len(input) != 2 && len(input) != 4 {
			return nil, wrapShapeErr("BatchNorm: expected 2D or 4D input, got %v", input)
		}
		epsilon := cfg.Epsilon
		if epsilon == 0 {
			epsilon = DefaultBNEpsilon
		}
		if epsilon < 0 {
			return nil, fmt.Errorf("BatchNorm: epsilon must be positive, got %g", epsilon)
		}
		return NewBatchNorm[B](input[1], epsilon, backend), nil

	case KindFlatten:
		return NewFlatten[B](), nil

	case KindDropout:
		var cfg DropoutConfig
		if err := decodeConfig(spec, &cfg); err != nil {
			return nil, err
		}
		if cfg.Rate < 0 || cfg.Rate >= 1 {
			return nil, fmt.Errorf("Dropout: rate must be in [0, 1), got %g", cfg.Rate)
		}
		return NewDropout[B](cfg.Rate), nil

	default:
		return nil, fmt.Errorf("%q: %w", spec.Type, ErrUnknownLayerType)
	}
}

// useBias resolves the optional use_bias field, defaulting to true.
func useBias(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}

// pair validates a two-element [height, width] field, falling back to a
// default when the field is absent and a default exists.
func pair(layerType, field string, value, fallback []int) ([2]int, error) {
	if len(value) == 0 {
		if fallback == nil {
			return [2]int{}, fmt.Errorf("%s: missing %s", layerType, field)
		}
		value = fallback
	}
	if len(value) != 2 {
		return [2]int{}, fmt.Errorf("%s: %s must have 2 elements, got %v", layerType, field, value)
	}
	if value[0] <= 0 || value[1] <= 0 {
		return [2]int{}, fmt.Errorf("%s: %s must be positive, got %v", layerType, field, value)
	}
	return [2]int{value[0], value[1]}, nil
}

// ArchitectureOf describes an existing model as an architecture.
//
// The result round-trips through BuildModel: building it against the
// same backend yields a model with identical layer structure (weights
// excluded, those travel separately).
func ArchitectureOf[B tensor.Backend](m *Model[B]) (*Architecture, error) {
	inputShape := m.InputShape()
	arch := &Architecture{
		Format:     ArchFormat,
		Version:    ArchVersion,
		InputShape: inputShape[1:],
		Layers:     make([]LayerSpec, 0, m.Len()),
	}

	for i, layer := range m.Layers() {
		spec, err := specOf(layer)
		if err != nil {
			return nil, fmt.Errorf("architecture: layer %d: %w", i, err)
		}
		arch.Layers = append(arch.Layers, spec)
	}

	return arch, nil
}

// specFor packs a kind plus its config payload into a LayerSpec.
// A nil config produces a spec with no config object (Flatten).
func specFor(kind LayerKind, cfg any) (LayerSpec, error) {
	spec := LayerSpec{Type: kind.String()}
	if cfg == nil {
		return spec, nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return LayerSpec{}, fmt.Errorf("%s: encode config: %w", kind, err)
	}
	spec.Config = raw
	return spec, nil
}

// specOf describes one layer as a LayerSpec.
func specOf[B tensor.Backend](layer Layer[B]) (LayerSpec, error) {
	switch l := any(layer).(type) {
	case *Dense[B]:
		bias := l.Bias() != nil
		return specFor(KindDense, DenseConfig{
			Units:   l.OutFeatures(),
			UseBias: &bias,
		})

	case *Conv2D[B]:
		kernelSize := l.KernelSize()
		strides := l.Strides()
		bias := l.Bias() != nil
		return specFor(KindConv2D, Conv2DConfig{
			Filters:    l.OutChannels(),
			KernelSize: kernelSize[:],
			Strides:    strides[:],
			BorderMode: l.BorderMode(),
			UseBias:    &bias,
		})

	case *MaxPool2D[B]:
		poolSize := l.PoolSize()
		strides := l.Strides()
		return specFor(KindMaxPool2D, PoolConfig{
			PoolSize: poolSize[:],
			Strides:  strides[:],
		})

	case *AvgPool2D[B]:
		poolSize := l.PoolSize()
		strides := l.Strides()
		return specFor(KindAvgPool2D, PoolConfig{
			PoolSize: poolSize[:],
			Strides:  strides[:],
		})

	case *Activation[B]:
		return specFor(KindActivation, ActivationConfig{
			Activation: l.ActivationName(),
		})

	case *BatchNorm[B]:
		return specFor(KindBatchNorm, BatchNormConfig{
			Epsilon: l.Epsilon(),
		})

	case *Flatten[B]:
		return specFor(KindFlatten, nil)

	case *Dropout[B]:
		return specFor(KindDropout, DropoutConfig{
			Rate: l.Rate(),
		})

	default:
		return LayerSpec{}, fmt.Errorf("%s: %w", layer.Kind(), ErrUnknownLayerType)
	}
}
