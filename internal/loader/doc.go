// Package loader materializes models for the conversion pipeline.
//
// A model arrives in one of two ways: as an architecture and weights
// pair on disk, or as a Builder that constructs it programmatically.
// The disk pair shares a file stem: <name>.json holds the architecture,
// and the weights sit next to it as <name>.h5 in the native container
// with <name>.safetensors accepted as a fallback.
//
// Load compiles the model for evaluation and bundles it with an
// evaluation function, so callers downstream never touch the loss or
// optimizer setup:
//
//	loaded, err := loader.Load(backend, loader.Config[*cpu.CPUBackend]{
//	    Path:      "models",
//	    ModelName: "lenet",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	metrics, err := loaded.Eval(x, y)
package loader
