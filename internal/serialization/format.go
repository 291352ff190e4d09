package serialization

import (
	"fmt"
	"time"

	"github.com/snnkit/snnkit/internal/tensor"
)

// SNNW wire format constants. The fixed header occupies the first 64
// bytes, the JSON tensor table follows, and tensor data starts at the
// next alignment boundary after the table.
const (
	MagicBytes      = "SNNW"
	FormatVersion   = 1
	FixedHeaderSize = 64
	HeaderAlignment = 64
	ChecksumSize    = 32
	ChecksumOffset  = 0x20
)

// Wire names for tensor dtypes. The format stores dtypes as strings so
// readers in other languages need no numeric mapping.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
	DTypeUint8   = "uint8"
	DTypeBool    = "bool"
)

// Feature bits stored in the fixed header.
const (
	FlagCompressed   uint32 = 1 << 0 // reserved, never written
	FlagHasOptimizer uint32 = 1 << 1
	FlagHasMetadata  uint32 = 1 << 2
)

// Header is the JSON tensor table in an SNNW file.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	ToolkitVersion string            `json:"toolkit_version"`
	ModelType      string            `json:"model_type"`
	CreatedAt      time.Time         `json:"created_at"`
	Tensors        []TensorMeta      `json:"tensors"`
	Metadata       map[string]string `json:"metadata"`
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta carries the training state stored alongside the weights
// in checkpoint files.
type CheckpointMeta struct {
	IsCheckpoint    bool           `json:"is_checkpoint"`
	Epoch           int            `json:"epoch"`
	Step            int64          `json:"step"`
	Loss            float64        `json:"loss"`
	OptimizerType   string         `json:"optimizer_type"`
	OptimizerConfig map[string]any `json:"optimizer_config"`
	TrainingMeta    map[string]any `json:"training_meta"`
}

// TensorMeta locates one tensor inside the data section. Offset is
// relative to the start of the aligned data section, not the file.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

var dtypeNames = map[tensor.DataType]string{
	tensor.Float32: DTypeFloat32,
	tensor.Float64: DTypeFloat64,
	tensor.Int32:   DTypeInt32,
	tensor.Int64:   DTypeInt64,
	tensor.Uint8:   DTypeUint8,
	tensor.Bool:    DTypeBool,
}

// dtypeToString returns the wire name for dt, or "unknown".
func dtypeToString(dt tensor.DataType) string {
	if s, ok := dtypeNames[dt]; ok {
		return s
	}
	return "unknown"
}

// stringToDtype is the inverse of dtypeToString.
func stringToDtype(s string) (tensor.DataType, bool) {
	for dt, name := range dtypeNames {
		if name == s {
			return dt, true
		}
	}
	return 0, false
}

// findTensor locates a tensor entry by name.
func findTensor(tensors []TensorMeta, name string) (*TensorMeta, error) {
	for i := range tensors {
		if tensors[i].Name == name {
			return &tensors[i], nil
		}
	}
	return nil, fmt.Errorf("tensor %q not found", name)
}

// materializeTensor allocates a RawTensor described by meta on the
// backend's device and fills it with data.
func materializeTensor(meta *TensorMeta, data []byte, backend tensor.Backend) (*tensor.RawTensor, error) {
	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, fmt.Errorf("unsupported dtype: %s", meta.DType)
	}

	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape for tensor %s: %w", meta.Name, err)
	}

	raw, err := tensor.NewRaw(shape, dtype, backend.Device())
	if err != nil {
		return nil, fmt.Errorf("failed to create tensor: %w", err)
	}
	copy(raw.Data(), data)
	return raw, nil
}
