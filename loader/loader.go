// Package loader materializes models for the conversion front end.
//
// A model comes from one of two sources: a programmatic Builder, or an
// on-disk pair of files sharing a stem, <name>.json for the
// architecture and <name>.h5 (or <name>.safetensors) for the weights.
// Either way the result is a compiled model bundled with an evaluation
// function the parse package can consume.
//
// Example usage:
//
//	import (
//	    "github.com/snnkit/snnkit/backend/cpu"
//	    "github.com/snnkit/snnkit/loader"
//	)
//
//	backend := cpu.New()
//	loaded, err := loader.Load(backend, loader.Config[*cpu.CPUBackend]{
//	    Path:      "models",
//	    ModelName: "lenet",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(loaded.Model.Summary())
package loader

import (
	"github.com/snnkit/snnkit/internal/loader"
	"github.com/snnkit/snnkit/internal/nn"
	"github.com/snnkit/snnkit/internal/tensor"
)

// File extensions of the on-disk pair.
const (
	ExtArch        = loader.ExtArch
	ExtWeights     = loader.ExtWeights
	ExtSafeTensors = loader.ExtSafeTensors
)

// Config describes where a model comes from.
//
// A non-nil Builder constructs the model programmatically and wins over
// the disk pair. Otherwise Path and ModelName locate <ModelName>.json
// and the weights file next to it.
type Config[B tensor.Backend] = loader.Config[B]

// Loaded bundles a compiled model with its evaluation function.
type Loaded[B tensor.Backend] = loader.Loaded[B]

// Load materializes a model from the configured source and compiles it
// with a cross-entropy criterion so Eval works out of the box.
//
// Example:
//
//	loaded, err := loader.Load(backend, loader.Config[*cpu.CPUBackend]{
//	    Path:      "models",
//	    ModelName: "lenet",
//	})
func Load[B tensor.Backend](backend B, cfg Config[B]) (*Loaded[B], error) {
	return loader.Load(backend, cfg)
}

// Save writes the model as an architecture and weights pair under dir,
// the same layout Load reads back.
//
// Example:
//
//	err := loader.Save(model, "models", "lenet")
func Save[B tensor.Backend](model *nn.Model[B], dir, name string) error {
	return loader.Save(model, dir, name)
}
