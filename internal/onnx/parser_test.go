package onnx

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseModel(t *testing.T) {
	data := gemmModelBytes()

	model, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if model.IRVersion != 8 {
		t.Errorf("IRVersion = %d, want 8", model.IRVersion)
	}
	if model.ProducerName != "snnkit-test" {
		t.Errorf("ProducerName = %q, want %q", model.ProducerName, "snnkit-test")
	}
	if len(model.OpsetImport) != 1 || model.OpsetImport[0].Version != 13 {
		t.Errorf("OpsetImport = %+v, want one entry with version 13", model.OpsetImport)
	}

	graph := model.Graph
	if graph == nil {
		t.Fatal("Graph is nil")
	}
	if graph.Name != "gemm_graph" {
		t.Errorf("Graph.Name = %q, want %q", graph.Name, "gemm_graph")
	}
	if len(graph.Nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(graph.Nodes))
	}

	node := graph.Nodes[0]
	if node.OpType != "Gemm" {
		t.Errorf("OpType = %q, want %q", node.OpType, "Gemm")
	}
	if node.Name != "fc1" {
		t.Errorf("Name = %q, want %q", node.Name, "fc1")
	}
	wantInputs := []string{"X", "W", "B"}
	if len(node.Inputs) != len(wantInputs) {
		t.Fatalf("got %d inputs, want %d", len(node.Inputs), len(wantInputs))
	}
	for i, want := range wantInputs {
		if node.Inputs[i] != want {
			t.Errorf("Inputs[%d] = %q, want %q", i, node.Inputs[i], want)
		}
	}
	if len(node.Outputs) != 1 || node.Outputs[0] != "Y" {
		t.Errorf("Outputs = %v, want [Y]", node.Outputs)
	}

	if len(node.Attributes) != 2 {
		t.Fatalf("got %d attributes, want 2", len(node.Attributes))
	}
	alpha := node.Attributes[0]
	if alpha.Name != "alpha" || alpha.F != 1 || alpha.Type != AttributeProtoFloat {
		t.Errorf("attribute 0 = %+v, want alpha/1/float", alpha)
	}
	transB := node.Attributes[1]
	if transB.Name != "transB" || transB.I != 1 || transB.Type != AttributeProtoInt {
		t.Errorf("attribute 1 = %+v, want transB/1/int", transB)
	}
}

func TestParseInitializer(t *testing.T) {
	model, err := Parse(gemmModelBytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	inits := model.Graph.Initializers
	if len(inits) != 2 {
		t.Fatalf("got %d initializers, want 2", len(inits))
	}

	w := inits[0]
	if w.Name != "W" {
		t.Errorf("Name = %q, want W", w.Name)
	}
	if w.DataType != TensorProtoFloat {
		t.Errorf("DataType = %d, want %d", w.DataType, TensorProtoFloat)
	}
	if len(w.Dims) != 2 || w.Dims[0] != 4 || w.Dims[1] != 3 {
		t.Errorf("Dims = %v, want [4 3]", w.Dims)
	}
	if len(w.RawData) != 4*3*4 {
		t.Errorf("RawData is %d bytes, want %d", len(w.RawData), 4*3*4)
	}
	got := math.Float32frombits(binary.LittleEndian.Uint32(w.RawData))
	if got != 0.5 {
		t.Errorf("first weight = %g, want 0.5", got)
	}
}

func TestParseValueInfo(t *testing.T) {
	model, err := Parse(gemmModelBytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	graph := model.Graph
	if len(graph.Inputs) != 3 {
		t.Fatalf("got %d inputs, want 3", len(graph.Inputs))
	}
	if len(graph.Outputs) != 1 {
		t.Fatalf("got %d outputs, want 1", len(graph.Outputs))
	}

	x := graph.Inputs[0]
	if x.Name != "X" {
		t.Errorf("input name = %q, want X", x.Name)
	}
	if x.Type == nil || x.Type.TensorType == nil || x.Type.TensorType.Shape == nil {
		t.Fatal("input X has no tensor type")
	}
	if x.Type.TensorType.ElemType != TensorProtoFloat {
		t.Errorf("ElemType = %d, want %d", x.Type.TensorType.ElemType, TensorProtoFloat)
	}
	dims := x.Type.TensorType.Shape.Dims
	if len(dims) != 2 {
		t.Fatalf("got %d dims, want 2", len(dims))
	}
	if dims[0].DimParam != "N" || dims[0].DimValue != 0 {
		t.Errorf("dims[0] = %+v, want symbolic N", dims[0])
	}
	if dims[1].DimValue != 3 {
		t.Errorf("dims[1].DimValue = %d, want 3", dims[1].DimValue)
	}
}

func TestParseTensorFloatData(t *testing.T) {
	var e enc
	e.msg(5, func(e *enc) {
		e.msg(1, func(e *enc) { // packed dims
			e.uvarint(3)
		})
		e.varint(2, int64(TensorProtoFloat))
		e.str(8, "legacy")
		e.msg(4, func(e *enc) { // float_data
			for _, v := range []float32{1.5, -2, 0.25} {
				e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
			}
		})
	})
	graph := e.buf

	var m enc
	m.bytes(7, graph)

	model, err := Parse(m.buf)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	inits := model.Graph.Initializers
	if len(inits) != 1 {
		t.Fatalf("got %d initializers, want 1", len(inits))
	}
	tensor := inits[0]
	if len(tensor.Dims) != 1 || tensor.Dims[0] != 3 {
		t.Errorf("Dims = %v, want [3]", tensor.Dims)
	}
	want := []float32{1.5, -2, 0.25}
	if len(tensor.FloatData) != len(want) {
		t.Fatalf("got %d float values, want %d", len(tensor.FloatData), len(want))
	}
	for i, v := range want {
		if tensor.FloatData[i] != v {
			t.Errorf("FloatData[%d] = %g, want %g", i, tensor.FloatData[i], v)
		}
	}
}

func TestParseUnpackedDims(t *testing.T) {
	// Older exporters write repeated int64 one varint per entry.
	var e enc
	e.msg(7, func(e *enc) {
		e.msg(5, func(e *enc) {
			e.varint(1, 2)
			e.varint(1, 5)
			e.varint(2, int64(TensorProtoFloat))
			e.str(8, "unpacked")
		})
	})

	model, err := Parse(e.buf)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	dims := model.Graph.Initializers[0].Dims
	if len(dims) != 2 || dims[0] != 2 || dims[1] != 5 {
		t.Errorf("Dims = %v, want [2 5]", dims)
	}
}

func TestParseSkipsUnknownFields(t *testing.T) {
	var e enc
	e.varint(1, 8)             // ir_version
	e.varint(99, 42)           // unknown varint
	e.str(98, "future")        // unknown bytes
	e.tag(97, wire32Bit)       // unknown fixed32
	e.raw(1, 2, 3, 4)
	e.tag(96, wire64Bit)       // unknown fixed64
	e.raw(1, 2, 3, 4, 5, 6, 7, 8)
	e.str(2, "producer")

	model, err := Parse(e.buf)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if model.IRVersion != 8 {
		t.Errorf("IRVersion = %d, want 8", model.IRVersion)
	}
	if model.ProducerName != "producer" {
		t.Errorf("ProducerName = %q, want producer", model.ProducerName)
	}
}

func TestParseNegativeAttributeInt(t *testing.T) {
	var e enc
	e.msg(7, func(e *enc) {
		e.msg(1, func(e *enc) {
			e.str(4, "Softmax")
			e.msg(5, intAttr("axis", -1))
		})
	})

	model, err := Parse(e.buf)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	attrs := model.Graph.Nodes[0].Attributes
	if len(attrs) != 1 || attrs[0].I != -1 {
		t.Errorf("attributes = %+v, want axis=-1", attrs)
	}
}

func TestParseTruncated(t *testing.T) {
	data := gemmModelBytes()
	for _, cut := range []int{1, 7, len(data) / 2} {
		_, err := Parse(data[:len(data)-cut])
		if err == nil {
			t.Errorf("cut %d bytes: expected error, got nil", cut)
			continue
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("cut %d bytes: error = %v, want ErrUnexpectedEOF", cut, err)
		}
	}
}

func TestParseVarintOverflow(t *testing.T) {
	data := []byte{0x08} // field 1, varint
	for i := 0; i < 10; i++ {
		data = append(data, 0xff)
	}
	data = append(data, 0x01)

	_, err := Parse(data)
	if err == nil || !strings.Contains(err.Error(), "varint overflow") {
		t.Errorf("error = %v, want varint overflow", err)
	}
}

func TestParseEmptyData(t *testing.T) {
	model, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if model.Graph != nil {
		t.Errorf("Graph = %+v, want nil", model.Graph)
	}
}

func TestParseFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.onnx")
	if err := os.WriteFile(path, gemmModelBytes(), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	model, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if model.Graph == nil || len(model.Graph.Nodes) != 1 {
		t.Fatal("parsed model is incomplete")
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.onnx")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

// gemmModelBytes assembles wire bytes for a one-node model,
// Y = Gemm(X, W, B), with both weights as initializers.
func gemmModelBytes() []byte {
	var e enc
	e.varint(1, 8) // ir_version
	e.str(2, "snnkit-test")
	e.msg(8, func(e *enc) { // opset_import
		e.str(1, "")
		e.varint(2, 13)
	})
	e.msg(7, func(e *enc) {
		e.str(2, "gemm_graph")
		e.msg(1, func(e *enc) {
			e.str(1, "X")
			e.str(1, "W")
			e.str(1, "B")
			e.str(2, "Y")
			e.str(3, "fc1")
			e.str(4, "Gemm")
			e.msg(5, floatAttr("alpha", 1))
			e.msg(5, intAttr("transB", 1))
		})
		e.msg(5, floatTensor("W", []int64{4, 3}, []float32{
			0.5, 0, 0, 0, 0.5, 0, 0, 0, 0.5, 1, 1, 1,
		}))
		e.msg(5, floatTensor("B", []int64{4}, []float32{0, 0, 0, 0}))
		e.msg(11, valueInfo("X", -1, 3))
		e.msg(11, valueInfo("W", 4, 3))
		e.msg(11, valueInfo("B", 4))
		e.msg(12, valueInfo("Y", -1, 4))
	})
	return e.buf
}

// valueInfo writes a ValueInfoProto; dims <= 0 become the symbolic
// dimension "N".
func valueInfo(name string, dims ...int64) func(*enc) {
	return func(e *enc) {
		e.str(1, name)
		e.msg(2, func(e *enc) {
			e.msg(1, func(e *enc) {
				e.varint(1, int64(TensorProtoFloat))
				e.msg(2, func(e *enc) {
					for _, d := range dims {
						e.msg(1, func(e *enc) {
							if d > 0 {
								e.varint(1, d)
							} else {
								e.str(2, "N")
							}
						})
					}
				})
			})
		})
	}
}

// floatTensor writes a TensorProto with raw little-endian data.
func floatTensor(name string, dims []int64, values []float32) func(*enc) {
	return func(e *enc) {
		e.msg(1, func(e *enc) {
			for _, d := range dims {
				e.uvarint(uint64(d))
			}
		})
		e.varint(2, int64(TensorProtoFloat))
		e.str(8, name)
		raw := make([]byte, 0, len(values)*4)
		for _, v := range values {
			raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(v))
		}
		e.bytes(9, raw)
	}
}

func floatAttr(name string, v float32) func(*enc) {
	return func(e *enc) {
		e.str(1, name)
		e.float(2, v)
		e.varint(20, AttributeProtoFloat)
	}
}

func intAttr(name string, v int64) func(*enc) {
	return func(e *enc) {
		e.str(1, name)
		e.varint(3, v)
		e.varint(20, AttributeProtoInt)
	}
}

func intsAttr(name string, vs ...int64) func(*enc) {
	return func(e *enc) {
		e.str(1, name)
		e.msg(7, func(e *enc) {
			for _, v := range vs {
				e.uvarint(uint64(v))
			}
		})
		e.varint(20, AttributeProtoInts)
	}
}

func strAttr(name, s string) func(*enc) {
	return func(e *enc) {
		e.str(1, name)
		e.str(4, s)
		e.varint(20, AttributeProtoString)
	}
}

// enc assembles protobuf wire bytes for hand-built test models.
type enc struct {
	buf []byte
}

func (e *enc) raw(bs ...byte) {
	e.buf = append(e.buf, bs...)
}

func (e *enc) tag(field, wire int) {
	e.uvarint(uint64(field<<3 | wire))
}

func (e *enc) uvarint(u uint64) {
	for u >= 0x80 {
		e.buf = append(e.buf, byte(u)|0x80)
		u >>= 7
	}
	e.buf = append(e.buf, byte(u))
}

func (e *enc) varint(field int, v int64) {
	e.tag(field, wireVarint)
	e.uvarint(uint64(v))
}

func (e *enc) bytes(field int, data []byte) {
	e.tag(field, wireBytes)
	e.uvarint(uint64(len(data)))
	e.buf = append(e.buf, data...)
}

func (e *enc) str(field int, s string) {
	e.bytes(field, []byte(s))
}

func (e *enc) float(field int, v float32) {
	e.tag(field, wire32Bit)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
}

func (e *enc) msg(field int, build func(*enc)) {
	var sub enc
	build(&sub)
	e.bytes(field, sub.buf)
}
