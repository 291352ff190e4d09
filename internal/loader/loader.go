package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/optim"
	"github.com/snnkit/snnkit/internal/parse"
	"github.com/snnkit/snnkit/internal/serialization"
	"github.com/snnkit/snnkit/internal/tensor"
)

// File extensions of the on-disk pair. The weights extensions are
// probed in the order listed here.
const (
	ExtArch        = ".json"
	ExtWeights     = ".h5"
	ExtSafeTensors = ".safetensors"
)

// Config describes where a model comes from.
//
// A non-nil Builder constructs the model programmatically and wins over
// the disk pair. Otherwise Path and ModelName locate <ModelName>.json
// and the weights file next to it.
type Config[B tensor.Backend] struct {
	// Path is the directory holding the architecture and weights pair.
	Path string

	// ModelName is the file stem shared by the pair.
	ModelName string

	// Builder, when set, supersedes the disk pair.
	Builder nn.Builder[B]

	// LR is the learning rate the model is compiled with. Zero means
	// the optimizer default.
	LR float32

	// Logger receives progress at debug level. Nil disables logging.
	Logger *slog.Logger
}

// Loaded bundles a compiled model with its evaluation function.
type Loaded[B tensor.Backend] struct {
	Model *nn.Model[B]
	Eval  parse.EvalFunc
}

// Load materializes a model from the configured source and compiles it
// with a cross-entropy criterion so Eval works out of the box.
func Load[B tensor.Backend](backend B, cfg Config[B]) (*Loaded[B], error) {
	var (
		model *nn.Model[B]
		err   error
	)

	switch {
	case cfg.Builder != nil:
		model, err = cfg.Builder(backend)
		if err != nil {
			return nil, fmt.Errorf("loader: builder: %w", err)
		}
		logDebug(cfg.Logger, "built model",
			"layers", model.Len(), "params", model.NumParameters())
	case cfg.Path != "" && cfg.ModelName != "":
		model, err = loadFromDisk(backend, cfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("loader: need a builder or a path and model name")
	}

	model.Compile(
		nn.NewCrossEntropyLoss(backend),
		optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: cfg.LR}, backend),
	)

	return &Loaded[B]{
		Model: model,
		Eval:  evalFunc(model, backend),
	}, nil
}

// Save writes the model as an architecture and weights pair under dir,
// the same layout Load reads back.
func Save[B tensor.Backend](model *nn.Model[B], dir, name string) error {
	arch, err := nn.ArchitectureOf(model)
	if err != nil {
		return fmt.Errorf("loader: save %s: %w", name, err)
	}
	data, err := nn.EncodeArchitecture(arch)
	if err != nil {
		return fmt.Errorf("loader: save %s: %w", name, err)
	}

	stem := filepath.Join(dir, name)
	if err := os.WriteFile(stem+ExtArch, data, 0o600); err != nil {
		return fmt.Errorf("loader: save architecture: %w", err)
	}
	if err := nn.SaveWeights(stem+ExtWeights, model, map[string]string{"name": name}); err != nil {
		return fmt.Errorf("loader: save weights: %w", err)
	}
	return nil
}

// loadFromDisk reads the architecture JSON, builds the model, and fills
// it from whichever weights file sits next to the JSON.
func loadFromDisk[B tensor.Backend](backend B, cfg Config[B]) (*nn.Model[B], error) {
	stem := filepath.Join(cfg.Path, cfg.ModelName)

	archPath := stem + ExtArch
	data, err := os.ReadFile(archPath)
	if err != nil {
		return nil, fmt.Errorf("loader: read architecture: %w", err)
	}
	arch, err := nn.DecodeArchitecture(data)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", archPath, err)
	}
	model, err := nn.BuildModel(arch, backend)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", archPath, err)
	}

	stateDict, format, err := readStateDict(stem, backend)
	if err != nil {
		return nil, err
	}
	if err := model.LoadStateDict(stateDict); err != nil {
		return nil, fmt.Errorf("loader: weights for %s: %w", cfg.ModelName, err)
	}

	logDebug(cfg.Logger, "loaded model",
		"name", cfg.ModelName,
		"format", format,
		"layers", model.Len(),
		"params", model.NumParameters())
	return model, nil
}

// readStateDict loads the weights next to the architecture JSON,
// preferring the native container over the safetensors fallback.
func readStateDict[B tensor.Backend](stem string, backend B) (map[string]*tensor.RawTensor, string, error) {
	native := stem + ExtWeights
	switch _, err := os.Stat(native); {
	case err == nil:
		stateDict, _, err := serialization.ReadWeights(native, backend)
		if err != nil {
			return nil, "", fmt.Errorf("loader: %s: %w", native, err)
		}
		return stateDict, "native", nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, "", fmt.Errorf("loader: stat %s: %w", native, err)
	}

	fallback := stem + ExtSafeTensors
	reader, err := serialization.NewSafeTensorsReader(fallback)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("loader: no weights for %s: tried %s and %s",
				filepath.Base(stem), native, fallback)
		}
		return nil, "", fmt.Errorf("loader: %s: %w", fallback, err)
	}
	defer reader.Close()

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return nil, "", fmt.Errorf("loader: %s: %w", fallback, err)
	}
	return stateDict, "safetensors", nil
}

// evalFunc adapts Model.Evaluate to the raw-tensor signature the
// conversion pipeline consumes.
func evalFunc[B tensor.Backend](model *nn.Model[B], backend B) parse.EvalFunc {
	return func(x, y *tensor.RawTensor) (nn.Metrics, error) {
		if x == nil || y == nil {
			return nn.Metrics{}, errors.New("loader: evaluate: nil batch")
		}
		if x.DType() != tensor.Float32 {
			return nn.Metrics{}, fmt.Errorf("loader: evaluate: input dtype %s, want float32", x.DType())
		}
		if y.DType() != tensor.Float32 {
			return nn.Metrics{}, fmt.Errorf("loader: evaluate: target dtype %s, want float32", y.DType())
		}
		return model.Evaluate(tensor.New[float32](x, backend), tensor.New[float32](y, backend))
	}
}

func logDebug(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}
