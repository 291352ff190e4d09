// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package onnx imports ONNX models as native models.
//
// The importer targets the feed-forward classifiers the conversion
// front end works on: a single chain of nodes from one data input to
// one output, built from Gemm, Conv, pooling, BatchNormalization,
// Dropout, Flatten, and the standard activations. Anything outside
// that subset is rejected with an error naming the operator.
//
// # Example Usage
//
//	import (
//	    "github.com/snnkit/snnkit/backend/cpu"
//	    "github.com/snnkit/snnkit/onnx"
//	)
//
//	backend := cpu.New()
//	model, err := onnx.ImportFile("mlp.onnx", backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(model.Summary())
//
// Parse and ParseFile expose the decoded protobuf structures for
// callers that want to inspect a model without importing it.
package onnx

import (
	"github.com/snnkit/snnkit/internal/nn"
	internalonnx "github.com/snnkit/snnkit/internal/onnx"
	"github.com/snnkit/snnkit/internal/tensor"
)

// Decoded ONNX protobuf structures, as produced by Parse.
type (
	ModelProto     = internalonnx.ModelProto
	GraphProto     = internalonnx.GraphProto
	NodeProto      = internalonnx.NodeProto
	TensorProto    = internalonnx.TensorProto
	ValueInfoProto = internalonnx.ValueInfoProto
	AttributeProto = internalonnx.AttributeProto
	OperatorSetID  = internalonnx.OperatorSetID
)

// ImportFile reads an ONNX file and imports it as a native model.
//
// Example:
//
//	backend := cpu.New()
//	model, err := onnx.ImportFile("lenet.onnx", backend)
func ImportFile[B tensor.Backend](path string, backend B) (*nn.Model[B], error) {
	return internalonnx.ImportFile(path, backend)
}

// Import converts serialized ONNX bytes into a native model.
//
// The graph must be a single chain from one data input to one output.
// Weights are copied out of the initializers, so the byte slice can be
// discarded afterwards.
func Import[B tensor.Backend](data []byte, backend B) (*nn.Model[B], error) {
	return internalonnx.Import(data, backend)
}

// ParseFile reads an ONNX file and decodes its protobuf structure.
func ParseFile(path string) (*ModelProto, error) {
	return internalonnx.ParseFile(path)
}

// Parse decodes serialized ONNX bytes without importing them.
//
// Example:
//
//	model, err := onnx.Parse(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, node := range model.Graph.Nodes {
//	    fmt.Println(node.OpType)
//	}
func Parse(data []byte) (*ModelProto, error) {
	return internalonnx.Parse(data)
}
