// Package onnx imports ONNX models as native models.
//
// The wire format is decoded by a hand-written protobuf parser, so the
// package has no dependency on generated protobuf code. Import walks
// the graph as a single layer chain and maps each operator onto the
// matching layer type; graphs with branches or unsupported operators
// are rejected with a descriptive error.
//
// Example usage:
//
//	model, err := onnx.ImportFile("lenet.onnx", backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out := model.Forward(input)
//
// Parse and ParseFile expose the decoded protobuf structures directly
// for callers that only need to inspect a model.
package onnx
