package serialization

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/snnkit/snnkit/internal/backend/cpu"
	"github.com/snnkit/snnkit/internal/tensor"
)

// newRawTensor allocates an uninitialized CPU tensor, failing the test on error.
func newRawTensor(t testing.TB, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		t.Fatalf("Failed to create tensor: %v", err)
	}
	return raw
}

// tensorEqual reports whether two raw tensors match in shape, dtype and bytes.
func tensorEqual(a, b *tensor.RawTensor) bool {
	return a.Shape().Equal(b.Shape()) && a.DType() == b.DType() && bytes.Equal(a.Data(), b.Data())
}

func TestSafeTensorsExportBasic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.safetensors")

	weight := newRawTensor(t, tensor.Shape{2, 3}, tensor.Float32)
	for i := range weight.AsFloat32() {
		weight.AsFloat32()[i] = float32(i + 1)
	}
	bias := newRawTensor(t, tensor.Shape{3}, tensor.Float32)
	for i := range bias.AsFloat32() {
		bias.AsFloat32()[i] = float32(i+1) * 0.1
	}

	stateDict := map[string]*tensor.RawTensor{
		"weight": weight,
		"bias":   bias,
	}
	metadata := map[string]string{
		"format":    "pt",
		"framework": "snnkit",
	}

	if err := WriteSafeTensors(path, stateDict, metadata); err != nil {
		t.Fatalf("WriteSafeTensors failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("SafeTensors file was not created: %v", err)
	}
}

func TestSafeTensorsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.safetensors")
	backend := cpu.New()

	weight := newRawTensor(t, tensor.Shape{2, 3}, tensor.Float32)
	copy(weight.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})
	bias := newRawTensor(t, tensor.Shape{3}, tensor.Float32)
	copy(bias.AsFloat32(), []float32{0.1, 0.2, 0.3})

	original := map[string]*tensor.RawTensor{
		"weight": weight,
		"bias":   bias,
	}

	if err := WriteSafeTensors(path, original, map[string]string{"format": "pt"}); err != nil {
		t.Fatalf("WriteSafeTensors failed: %v", err)
	}

	reader, err := NewSafeTensorsReader(path)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	defer reader.Close()

	if got := reader.Metadata()["format"]; got != "pt" {
		t.Errorf("Metadata format = %q, want pt", got)
	}
	if got := len(reader.TensorNames()); got != 2 {
		t.Errorf("TensorNames returned %d names, want 2", got)
	}

	for name, want := range original {
		loaded, err := reader.LoadTensor(name, backend)
		if err != nil {
			t.Fatalf("Failed to load %s: %v", name, err)
		}
		if !tensorEqual(want, loaded) {
			t.Errorf("Tensor %s differs after round-trip", name)
		}
	}
}

func TestSafeTensorsReadStateDict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statedict.safetensors")
	backend := cpu.New()

	weight := newRawTensor(t, tensor.Shape{2, 2}, tensor.Float32)
	copy(weight.AsFloat32(), []float32{1, 2, 3, 4})
	bias := newRawTensor(t, tensor.Shape{2}, tensor.Float32)
	copy(bias.AsFloat32(), []float32{0.5, -0.5})

	original := map[string]*tensor.RawTensor{
		"0.weight": weight,
		"0.bias":   bias,
	}
	if err := WriteSafeTensors(path, original, nil); err != nil {
		t.Fatalf("WriteSafeTensors failed: %v", err)
	}

	reader, err := NewSafeTensorsReader(path)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	defer reader.Close()

	loaded, err := reader.ReadStateDict(backend)
	if err != nil {
		t.Fatalf("ReadStateDict failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("ReadStateDict returned %d tensors, want 2", len(loaded))
	}
	if !tensorEqual(weight, loaded["0.weight"]) {
		t.Error("0.weight differs after round-trip")
	}
	if !tensorEqual(bias, loaded["0.bias"]) {
		t.Error("0.bias differs after round-trip")
	}
}

func TestSafeTensorsDTypes(t *testing.T) {
	backend := cpu.New()

	cases := []struct {
		name  string
		dtype tensor.DataType
		want  SafeTensorsDType
		fill  func(raw *tensor.RawTensor)
	}{
		{"float64", tensor.Float64, SafeTensorsF64, func(r *tensor.RawTensor) {
			copy(r.AsFloat64(), []float64{1.1, 2.2, 3.3, 4.4})
		}},
		{"int32", tensor.Int32, SafeTensorsI32, func(r *tensor.RawTensor) {
			copy(r.AsInt32(), []int32{10, 20, 30, 40})
		}},
		{"uint8", tensor.Uint8, SafeTensorsU8, func(r *tensor.RawTensor) {
			copy(r.AsUint8(), []uint8{1, 2, 3, 251})
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := newRawTensor(t, tensor.Shape{4}, tc.dtype)
			tc.fill(raw)

			path := filepath.Join(t.TempDir(), tc.name+".safetensors")
			if err := WriteSafeTensors(path, map[string]*tensor.RawTensor{"x": raw}, nil); err != nil {
				t.Fatalf("WriteSafeTensors failed: %v", err)
			}

			reader, err := NewSafeTensorsReader(path)
			if err != nil {
				t.Fatalf("NewSafeTensorsReader failed: %v", err)
			}
			defer reader.Close()

			info, err := reader.TensorInfo("x")
			if err != nil {
				t.Fatalf("TensorInfo failed: %v", err)
			}
			if info.DType != tc.want {
				t.Errorf("dtype = %s, want %s", info.DType, tc.want)
			}

			loaded, err := reader.LoadTensor("x", backend)
			if err != nil {
				t.Fatalf("Failed to load tensor: %v", err)
			}
			if !tensorEqual(raw, loaded) {
				t.Error("Tensor differs after round-trip")
			}
		})
	}
}

func TestSafeTensorsShapes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shapes.safetensors")

	scalar := newRawTensor(t, tensor.Shape{}, tensor.Float32)
	scalar.AsFloat32()[0] = 42.0

	stateDict := map[string]*tensor.RawTensor{
		"scalar":   scalar,
		"vector":   newRawTensor(t, tensor.Shape{5}, tensor.Float32),
		"matrix":   newRawTensor(t, tensor.Shape{3, 4}, tensor.Float32),
		"tensor4d": newRawTensor(t, tensor.Shape{2, 3, 4, 4}, tensor.Float32),
	}
	if err := WriteSafeTensors(path, stateDict, nil); err != nil {
		t.Fatalf("WriteSafeTensors failed: %v", err)
	}

	reader, err := NewSafeTensorsReader(path)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	defer reader.Close()

	for name, raw := range stateDict {
		info, err := reader.TensorInfo(name)
		if err != nil {
			t.Errorf("TensorInfo(%s) failed: %v", name, err)
			continue
		}
		if len(info.Shape) != len(raw.Shape()) {
			t.Errorf("%s: header shape %v, want rank %d", name, info.Shape, len(raw.Shape()))
			continue
		}
		for i, dim := range raw.Shape() {
			if info.Shape[i] != int64(dim) {
				t.Errorf("%s: shape[%d] = %d, want %d", name, i, info.Shape[i], dim)
			}
		}
	}
}

func TestSafeTensorsEmptyMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no_metadata.safetensors")

	stateDict := map[string]*tensor.RawTensor{
		"tensor": newRawTensor(t, tensor.Shape{2}, tensor.Float32),
	}
	if err := WriteSafeTensors(path, stateDict, nil); err != nil {
		t.Fatalf("WriteSafeTensors failed: %v", err)
	}

	reader, err := NewSafeTensorsReader(path)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	defer reader.Close()

	if metadata := reader.Metadata(); len(metadata) > 0 {
		t.Errorf("Metadata = %v, want empty", metadata)
	}
}

func TestSafeTensorsAlphabeticalOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.safetensors")
	backend := cpu.New()

	values := map[string]float32{
		"z_last":  3.0,
		"a_first": 1.0,
		"m_mid":   2.0,
	}
	stateDict := make(map[string]*tensor.RawTensor, len(values))
	for name, v := range values {
		raw := newRawTensor(t, tensor.Shape{1}, tensor.Float32)
		raw.AsFloat32()[0] = v
		stateDict[name] = raw
	}

	if err := WriteSafeTensors(path, stateDict, nil); err != nil {
		t.Fatalf("WriteSafeTensors failed: %v", err)
	}

	reader, err := NewSafeTensorsReader(path)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	defer reader.Close()

	// Names are sorted on write, so the alphabetically first tensor
	// starts the data section.
	info, err := reader.TensorInfo("a_first")
	if err != nil {
		t.Fatalf("TensorInfo failed: %v", err)
	}
	if info.DataOffsets[0] != 0 {
		t.Errorf("a_first data offset = %d, want 0", info.DataOffsets[0])
	}

	for name, want := range values {
		loaded, err := reader.LoadTensor(name, backend)
		if err != nil {
			t.Fatalf("Failed to load %s: %v", name, err)
		}
		if got := loaded.AsFloat32()[0]; got != want {
			t.Errorf("%s = %f, want %f", name, got, want)
		}
	}
}
