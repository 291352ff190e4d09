package onnx

// Hand-written subset of the ONNX protobuf schema. Field numbers follow
// onnx.proto3; fields the importer never reads are skipped at the wire
// level rather than carried here.

// ModelProto is the top-level ONNX container.
type ModelProto struct {
	IRVersion    int64
	ProducerName string
	OpsetImport  []OperatorSetID
	Graph        *GraphProto
}

// GraphProto holds the computation graph.
type GraphProto struct {
	Name         string
	Nodes        []NodeProto
	Inputs       []ValueInfoProto
	Outputs      []ValueInfoProto
	Initializers []TensorProto
}

// NodeProto is one operation in the graph.
type NodeProto struct {
	Name       string
	OpType     string
	Inputs     []string
	Outputs    []string
	Attributes []AttributeProto
}

// TensorProto carries an initializer's shape and data. Weight data
// normally arrives as RawData; FloatData is the legacy encoding some
// exporters still emit.
type TensorProto struct {
	Name      string
	DataType  int32
	Dims      []int64
	RawData   []byte
	FloatData []float32
}

// ValueInfoProto describes a graph input or output.
type ValueInfoProto struct {
	Name string
	Type *TypeProto
}

// TypeProto wraps the tensor type of a value.
type TypeProto struct {
	TensorType *TensorTypeProto
}

// TensorTypeProto is an element type plus a shape.
type TensorTypeProto struct {
	ElemType int32
	Shape    *TensorShapeProto
}

// TensorShapeProto lists the dimensions of a value.
type TensorShapeProto struct {
	Dims []DimensionProto
}

// DimensionProto is one dimension: a static size or a named dynamic
// dimension such as "batch_size".
type DimensionProto struct {
	DimValue int64
	DimParam string
}

// AttributeProto is a node attribute. Only the scalar and integer-list
// payloads the supported operators use are decoded.
type AttributeProto struct {
	Name string
	Type int32
	F    float32
	I    int64
	S    []byte
	Ints []int64
}

// OperatorSetID names an opset and its version.
type OperatorSetID struct {
	Domain  string
	Version int64
}

// TensorProto.DataType values.
const (
	TensorProtoUndefined = 0
	TensorProtoFloat     = 1
	TensorProtoUint8     = 2
	TensorProtoInt8      = 3
	TensorProtoUint16    = 4
	TensorProtoInt16     = 5
	TensorProtoInt32     = 6
	TensorProtoInt64     = 7
	TensorProtoString    = 8
	TensorProtoBool      = 9
	TensorProtoFloat16   = 10
	TensorProtoDouble    = 11
)

// AttributeProto.Type values.
const (
	AttributeProtoUndefined = 0
	AttributeProtoFloat     = 1
	AttributeProtoInt       = 2
	AttributeProtoString    = 3
	AttributeProtoTensor    = 4
	AttributeProtoGraph     = 5
	AttributeProtoFloats    = 6
	AttributeProtoInts      = 7
	AttributeProtoStrings   = 8
)
