package onnx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ParseFile parses an ONNX model from disk.
func ParseFile(path string) (*ModelProto, error) {
	//nolint:gosec // G304: the model path comes from the caller.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("onnx: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes an ONNX model from protobuf wire bytes.
func Parse(data []byte) (*ModelProto, error) {
	p := &parser{data: data}
	model := &ModelProto{}
	if err := p.readModel(model); err != nil {
		return nil, fmt.Errorf("onnx: parse model: %w", err)
	}
	return model, nil
}

// parser decodes protobuf wire format field by field. Each embedded
// message is handed to a sub-parser over its length-delimited bytes.
type parser struct {
	data []byte
	pos  int
}

// Protobuf wire types.
const (
	wireVarint = 0
	wire64Bit  = 1
	wireBytes  = 2
	wire32Bit  = 5
)

// fields drives the field loop for one message: it reads tags until
// the payload is exhausted and hands each field to fn. A clean end of
// input terminates the loop; any other error aborts it.
func (p *parser) fields(fn func(fieldNum, wireType int) error) error {
	for {
		fieldNum, wireType, err := p.readTag()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(fieldNum, wireType); err != nil {
			return err
		}
	}
}

func (p *parser) readModel(m *ModelProto) error {
	return p.fields(func(fieldNum, wireType int) (err error) {
		switch fieldNum {
		case 1: // ir_version
			m.IRVersion, err = p.readVarint()
		case 2: // producer_name
			m.ProducerName, err = p.readString()
		case 7: // graph
			var sub *parser
			if sub, err = p.readSub(); err == nil {
				m.Graph = &GraphProto{}
				err = sub.readGraph(m.Graph)
			}
		case 8: // opset_import
			var sub *parser
			if sub, err = p.readSub(); err == nil {
				var opset OperatorSetID
				if err = sub.readOpset(&opset); err == nil {
					m.OpsetImport = append(m.OpsetImport, opset)
				}
			}
		default:
			err = p.skipField(wireType)
		}
		return err
	})
}

func (p *parser) readGraph(m *GraphProto) error {
	return p.fields(func(fieldNum, wireType int) (err error) {
		switch fieldNum {
		case 1: // node
			var sub *parser
			if sub, err = p.readSub(); err == nil {
				var node NodeProto
				if err = sub.readNode(&node); err == nil {
					m.Nodes = append(m.Nodes, node)
				}
			}
		case 2: // name
			m.Name, err = p.readString()
		case 5: // initializer
			var sub *parser
			if sub, err = p.readSub(); err == nil {
				var t TensorProto
				if err = sub.readTensor(&t); err == nil {
					m.Initializers = append(m.Initializers, t)
				}
			}
		case 11: // input
			var sub *parser
			if sub, err = p.readSub(); err == nil {
				var vi ValueInfoProto
				if err = sub.readValueInfo(&vi); err == nil {
					m.Inputs = append(m.Inputs, vi)
				}
			}
		case 12: // output
			var sub *parser
			if sub, err = p.readSub(); err == nil {
				var vi ValueInfoProto
				if err = sub.readValueInfo(&vi); err == nil {
					m.Outputs = append(m.Outputs, vi)
				}
			}
		default:
			err = p.skipField(wireType)
		}
		return err
	})
}

func (p *parser) readNode(m *NodeProto) error {
	return p.fields(func(fieldNum, wireType int) (err error) {
		switch fieldNum {
		case 1: // input
			var s string
			if s, err = p.readString(); err == nil {
				m.Inputs = append(m.Inputs, s)
			}
		case 2: // output
			var s string
			if s, err = p.readString(); err == nil {
				m.Outputs = append(m.Outputs, s)
			}
		case 3: // name
			m.Name, err = p.readString()
		case 4: // op_type
			m.OpType, err = p.readString()
		case 5: // attribute
			var sub *parser
			if sub, err = p.readSub(); err == nil {
				var attr AttributeProto
				if err = sub.readAttribute(&attr); err == nil {
					m.Attributes = append(m.Attributes, attr)
				}
			}
		default:
			err = p.skipField(wireType)
		}
		return err
	})
}

func (p *parser) readTensor(m *TensorProto) error {
	return p.fields(func(fieldNum, wireType int) (err error) {
		switch fieldNum {
		case 1: // dims, packed or one varint per entry
			if wireType == wireBytes {
				var sub *parser
				if sub, err = p.readSub(); err == nil {
					m.Dims, err = sub.readPackedVarints(m.Dims)
				}
				break
			}
			var v int64
			if v, err = p.readVarint(); err == nil {
				m.Dims = append(m.Dims, v)
			}
		case 2: // data_type
			m.DataType, err = p.readInt32()
		case 4: // float_data, packed
			var data []byte
			if data, err = p.readBytes(); err == nil {
				for i := 0; i+4 <= len(data); i += 4 {
					bits := binary.LittleEndian.Uint32(data[i:])
					m.FloatData = append(m.FloatData, math.Float32frombits(bits))
				}
			}
		case 8: // name
			m.Name, err = p.readString()
		case 9: // raw_data
			m.RawData, err = p.readBytes()
		default:
			err = p.skipField(wireType)
		}
		return err
	})
}

func (p *parser) readValueInfo(m *ValueInfoProto) error {
	return p.fields(func(fieldNum, wireType int) (err error) {
		switch fieldNum {
		case 1: // name
			m.Name, err = p.readString()
		case 2: // type
			var sub *parser
			if sub, err = p.readSub(); err == nil {
				m.Type = &TypeProto{}
				err = sub.readType(m.Type)
			}
		default:
			err = p.skipField(wireType)
		}
		return err
	})
}

func (p *parser) readType(m *TypeProto) error {
	return p.fields(func(fieldNum, wireType int) (err error) {
		if fieldNum != 1 { // tensor_type
			return p.skipField(wireType)
		}
		var sub *parser
		if sub, err = p.readSub(); err == nil {
			m.TensorType = &TensorTypeProto{}
			err = sub.readTensorType(m.TensorType)
		}
		return err
	})
}

func (p *parser) readTensorType(m *TensorTypeProto) error {
	return p.fields(func(fieldNum, wireType int) (err error) {
		switch fieldNum {
		case 1: // elem_type
			m.ElemType, err = p.readInt32()
		case 2: // shape
			var sub *parser
			if sub, err = p.readSub(); err == nil {
				m.Shape = &TensorShapeProto{}
				err = sub.readShape(m.Shape)
			}
		default:
			err = p.skipField(wireType)
		}
		return err
	})
}

func (p *parser) readShape(m *TensorShapeProto) error {
	return p.fields(func(fieldNum, wireType int) (err error) {
		if fieldNum != 1 { // dim
			return p.skipField(wireType)
		}
		var sub *parser
		if sub, err = p.readSub(); err == nil {
			var dim DimensionProto
			if err = sub.readDimension(&dim); err == nil {
				m.Dims = append(m.Dims, dim)
			}
		}
		return err
	})
}

func (p *parser) readDimension(m *DimensionProto) error {
	return p.fields(func(fieldNum, wireType int) (err error) {
		switch fieldNum {
		case 1: // dim_value
			m.DimValue, err = p.readVarint()
		case 2: // dim_param
			m.DimParam, err = p.readString()
		default:
			err = p.skipField(wireType)
		}
		return err
	})
}

func (p *parser) readAttribute(m *AttributeProto) error {
	return p.fields(func(fieldNum, wireType int) (err error) {
		switch fieldNum {
		case 1: // name
			m.Name, err = p.readString()
		case 2: // f
			m.F, err = p.readFloat32()
		case 3: // i
			m.I, err = p.readVarint()
		case 4: // s
			m.S, err = p.readBytes()
		case 7: // ints, packed
			var sub *parser
			if sub, err = p.readSub(); err == nil {
				m.Ints, err = sub.readPackedVarints(m.Ints)
			}
		case 20: // type
			m.Type, err = p.readInt32()
		default:
			err = p.skipField(wireType)
		}
		return err
	})
}

func (p *parser) readOpset(m *OperatorSetID) error {
	return p.fields(func(fieldNum, wireType int) (err error) {
		switch fieldNum {
		case 1: // domain
			m.Domain, err = p.readString()
		case 2: // version
			m.Version, err = p.readVarint()
		default:
			err = p.skipField(wireType)
		}
		return err
	})
}

// readTag reads the next field tag. io.EOF means the message ended
// cleanly at a field boundary; a tag truncated mid-varint surfaces as
// io.ErrUnexpectedEOF instead.
func (p *parser) readTag() (fieldNum, wireType int, err error) {
	if p.pos >= len(p.data) {
		return 0, 0, io.EOF
	}
	tag, err := p.readVarint()
	if err != nil {
		return 0, 0, err
	}
	return int(tag >> 3), int(tag & 0x7), nil
}

func (p *parser) readVarint() (int64, error) {
	var result uint64
	for shift := uint(0); ; shift += 7 {
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
		if p.pos >= len(p.data) {
			return 0, io.ErrUnexpectedEOF
		}
		b := p.data[p.pos]
		p.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return int64(result), nil //nolint:gosec // G115: wire varints fit in int64.
		}
	}
}

func (p *parser) readInt32() (int32, error) {
	v, err := p.readVarint()
	if err != nil {
		return 0, err
	}
	return int32(v), nil //nolint:gosec // G115: enum values fit in int32.
}

func (p *parser) readBytes() ([]byte, error) {
	n, err := p.readVarint()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.New("negative length")
	}
	if int(n) > len(p.data)-p.pos {
		return nil, io.ErrUnexpectedEOF
	}
	payload := p.data[p.pos : p.pos+int(n)]
	p.pos += int(n)
	return payload, nil
}

func (p *parser) readString() (string, error) {
	data, err := p.readBytes()
	return string(data), err
}

// readSub returns a parser over the next length-delimited payload.
func (p *parser) readSub() (*parser, error) {
	data, err := p.readBytes()
	if err != nil {
		return nil, err
	}
	return &parser{data: data}, nil
}

// readPackedVarints appends every varint in the remaining payload.
func (p *parser) readPackedVarints(dst []int64) ([]int64, error) {
	for p.pos < len(p.data) {
		v, err := p.readVarint()
		if err != nil {
			return dst, err
		}
		dst = append(dst, v)
	}
	return dst, nil
}

func (p *parser) readFloat32() (float32, error) {
	if len(p.data)-p.pos < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint32(p.data[p.pos:])
	p.pos += 4
	return math.Float32frombits(bits), nil
}

// skip advances past n bytes of fixed-width payload.
func (p *parser) skip(n int) error {
	if len(p.data)-p.pos < n {
		return io.ErrUnexpectedEOF
	}
	p.pos += n
	return nil
}

// skipField consumes a field of any wire type without decoding it.
func (p *parser) skipField(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := p.readVarint()
		return err
	case wire64Bit:
		return p.skip(8)
	case wireBytes:
		_, err := p.readBytes()
		return err
	case wire32Bit:
		return p.skip(4)
	default:
		return fmt.Errorf("unknown wire type %d", wireType)
	}
}
