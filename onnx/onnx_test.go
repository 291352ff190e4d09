// Copyright 2025 the snnkit authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package onnx_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snnkit/snnkit/backend/cpu"
	"github.com/snnkit/snnkit/onnx"
)

// headerOnly is a serialized ModelProto with ir_version 8 and producer
// name "test", but no graph.
func headerOnly() []byte {
	return []byte{
		0x08, 0x08, // field 1, varint: ir_version = 8
		0x12, 0x04, 't', 'e', 's', 't', // field 2, bytes: producer_name
	}
}

func TestParse(t *testing.T) {
	model, err := onnx.Parse(headerOnly())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if model.IRVersion != 8 {
		t.Errorf("IRVersion = %d, want 8", model.IRVersion)
	}
	if model.ProducerName != "test" {
		t.Errorf("ProducerName = %q, want %q", model.ProducerName, "test")
	}
	if model.Graph != nil {
		t.Errorf("Graph = %v, want nil", model.Graph)
	}
}

func TestImportRejectsGraphlessModel(t *testing.T) {
	_, err := onnx.Import(headerOnly(), cpu.New())
	if err == nil {
		t.Fatal("Import() succeeded on a model without a graph")
	}
	if !strings.Contains(err.Error(), "no graph") {
		t.Errorf("Import() error = %v, want mention of missing graph", err)
	}
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "model.onnx")
	if err := os.WriteFile(path, headerOnly(), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := onnx.ImportFile(path, cpu.New()); err == nil {
		t.Error("ImportFile() succeeded on a model without a graph")
	}

	if _, err := onnx.ImportFile(filepath.Join(dir, "missing.onnx"), cpu.New()); err == nil {
		t.Error("ImportFile() succeeded on a missing file")
	}
}
