// Package parse turns a trained model into a framework-agnostic network
// description for the spiking conversion stages.
//
// Extract walks a model's layers in order and emits one record per
// layer, folding batch normalization parameters into the preceding
// affine layer as it goes. The resulting NetworkDescription carries
// per-layer shapes, labels, weight snapshots, and activation probes; it
// is the sole handoff artifact to downstream consumers. The package
// also holds the surrounding helpers of the extraction step: the pure
// folding arithmetic, the evaluation passthrough, and the strict
// parameter write-back.
package parse
