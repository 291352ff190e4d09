package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/snnkit/snnkit/internal/tensor"
)

const toolkitVersion = "0.3.1" // Current toolkit version

// WeightsWriter writes model parameters in the SNNW container format.
type WeightsWriter struct {
	file   *os.File
	closed bool
}

// NewWeightsWriter creates a writer for path, truncating any existing file.
func NewWeightsWriter(path string) (*WeightsWriter, error) {
	//nolint:gosec // G304: the output path comes from the caller.
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create weights file: %w", err)
	}
	return &WeightsWriter{file: file}, nil
}

// WriteStateDict writes a state dictionary with a default header.
//
// The state dictionary is a map from parameter names to tensors.
// All tensors must be on the same device.
func (w *WeightsWriter) WriteStateDict(stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	return w.WriteStateDictWithHeader(stateDict, Header{
		ModelType: modelType,
		Metadata:  metadata,
	})
}

// WriteStateDictWithHeader writes a state dictionary with a caller-built
// header, which allows setting CheckpointMeta and custom metadata.
//
// The header's format version, toolkit version, creation time and tensor
// table are always stamped by the writer.
func (w *WeightsWriter) WriteStateDictWithHeader(stateDict map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return errWriterClosed
	}

	header.FormatVersion = FormatVersion
	header.ToolkitVersion = toolkitVersion
	header.CreatedAt = time.Now().UTC()
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	// Tensors are laid out sorted by name, so the same dict always
	// produces the same bytes and the same checksum.
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	slices.Sort(names)

	var offset int64
	header.Tensors = make([]TensorMeta, 0, len(names))
	for _, name := range names {
		raw := stateDict[name]
		size := int64(raw.NumElements() * raw.DType().Size())

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	// Collect the data section to compute its checksum.
	tensorData := make([]byte, 0, offset)
	for _, name := range names {
		tensorData = append(tensorData, stateDict[name].Data()...)
	}
	checksum := ComputeChecksum(tensorData)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	headerSize := uint64(len(headerJSON))

	// Fixed header (64 bytes):
	// 0x00-0x03 magic, 0x04-0x07 version, 0x08-0x0B flags,
	// 0x0C-0x0F reserved, 0x10-0x17 header size, 0x18-0x1F data size,
	// 0x20-0x3F SHA-256 checksum of the data section.
	fixedHeader := make([]byte, FixedHeaderSize)
	copy(fixedHeader[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixedHeader[4:8], uint32(FormatVersion))

	binary.LittleEndian.PutUint32(fixedHeader[8:12], headerFlags(&header))

	binary.LittleEndian.PutUint64(fixedHeader[16:24], headerSize)
	binary.LittleEndian.PutUint64(fixedHeader[24:32], uint64(len(tensorData)))
	copy(fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.file.Write(fixedHeader); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	// Pad so the data section starts on an alignment boundary.
	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	currentPos := int64(FixedHeaderSize) + int64(headerSize)
	if padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment; padding > 0 {
		if _, err := w.file.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := w.file.Write(tensorData); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return nil
}

// headerFlags derives the feature bits stored in the fixed header.
func headerFlags(h *Header) uint32 {
	var flags uint32
	if len(h.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if h.CheckpointMeta != nil && h.CheckpointMeta.IsCheckpoint {
		flags |= FlagHasOptimizer
	}
	return flags
}

// Close closes the underlying file. Calling it again is a no-op.
func (w *WeightsWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteWeights writes a state dictionary to an SNNW file in one call.
func WriteWeights(path string, stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	writer, err := NewWeightsWriter(path)
	if err != nil {
		return err
	}

	if err := writer.WriteStateDict(stateDict, modelType, metadata); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}
