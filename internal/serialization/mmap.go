package serialization

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/snnkit/snnkit/internal/tensor"
)

// MmapReader provides memory-mapped access to SNNW files. Only the header
// is read up front; tensor data is paged in by the OS on access, which
// keeps opening large models cheap.
//
// The stored checksum is exposed but not validated here: validating would
// force the whole data section through memory, defeating the point of the
// mapping. Use WeightsReader when integrity validation is required.
type MmapReader struct {
	file       *os.File
	data       []byte // mmap'd region (read-only)
	size       int64
	header     Header
	flags      uint32
	dataOffset int64
	dataSize   int64
	checksum   [32]byte
	closed     bool
}

// NewMmapReader opens an SNNW file read-only and maps it into memory.
// Callers must Close the reader to unmap the file.
func NewMmapReader(path string) (*MmapReader, error) {
	file, err := os.Open(path) //nolint:gosec // G304: the model path comes from the caller
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	fi, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	data, err := mmapFile(file, fi.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	r := &MmapReader{file: file, data: data, size: fi.Size()}
	if err := r.parseHeader(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	return r, nil
}

// parseHeader decodes the fixed header and JSON tensor table from the
// mapped region. Headers are always validated strictly: mmap'd files may
// be shared or arrive from other machines, and a bad offset here turns
// into an out-of-range slice later.
func (r *MmapReader) parseHeader() error {
	if r.size < FixedHeaderSize {
		return fmt.Errorf("file too small: %d bytes (minimum %d bytes required)", r.size, FixedHeaderSize)
	}

	fixed := r.data[:FixedHeaderSize]
	if string(fixed[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	r.flags = binary.LittleEndian.Uint32(fixed[8:12])
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	copy(r.checksum[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}
	if dataSize > 0x7FFFFFFFFFFFFFFF {
		return fmt.Errorf("data size too large: %d", dataSize)
	}
	r.dataSize = int64(dataSize)

	headerEnd := int64(FixedHeaderSize) + int64(headerSize) //nolint:gosec // G115: bounded by MaxHeaderSize
	if headerEnd > r.size {
		return fmt.Errorf("header extends beyond file: header_end=%d, file_size=%d", headerEnd, r.size)
	}

	if err := json.Unmarshal(r.data[FixedHeaderSize:headerEnd], &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}

	// Tensor data starts at the next alignment boundary after the JSON.
	r.dataOffset = ((headerEnd + HeaderAlignment - 1) / HeaderAlignment) * HeaderAlignment

	if err := ValidateHeader(&r.header, r.dataSize, ValidationStrict); err != nil {
		return fmt.Errorf("header validation failed: %w", err)
	}

	return nil
}

// Close unmaps the region and closes the file. Further calls are no-ops.
func (r *MmapReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	if r.data != nil {
		errs = append(errs, munmapFile(r.data))
		r.data = nil
	}
	errs = append(errs, r.file.Close())
	return errors.Join(errs...)
}

// Header returns the parsed header with the tensor table.
func (r *MmapReader) Header() Header {
	return r.header
}

// Flags returns the feature bits from the fixed header.
func (r *MmapReader) Flags() uint32 {
	return r.flags
}

// Checksum returns the stored SHA-256 checksum of the data section.
func (r *MmapReader) Checksum() [32]byte {
	return r.checksum
}

// TensorNames lists the tensors in header order.
func (r *MmapReader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns the metadata entry for the named tensor.
func (r *MmapReader) TensorInfo(name string) (*TensorMeta, error) {
	return findTensor(r.header.Tensors, name)
}

// TensorData returns a zero-copy slice into the mapped tensor data.
// The slice is valid only while the reader is open and must be treated
// as read-only. Use TensorDataCopy when the bytes need to be modified.
func (r *MmapReader) TensorData(name string) ([]byte, error) {
	if r.closed {
		return nil, errReaderClosed
	}

	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	start := r.dataOffset + meta.Offset
	end := start + meta.Size
	if end > r.size {
		return nil, fmt.Errorf("%w: tensor %q: offset %d + size %d > file_size %d",
			ErrOutOfBounds, name, start, meta.Size, r.size)
	}
	return r.data[start:end], nil
}

// TensorDataCopy returns the named tensor's bytes in a freshly allocated
// buffer that the caller owns.
func (r *MmapReader) TensorDataCopy(name string) ([]byte, error) {
	data, err := r.TensorData(name)
	if err != nil {
		return nil, err
	}
	return slices.Clone(data), nil
}

// LoadTensor copies the named tensor out of the mapping into a RawTensor.
func (r *MmapReader) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	if r.closed {
		return nil, errReaderClosed
	}

	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	data, err := r.TensorData(name)
	if err != nil {
		return nil, err
	}
	return materializeTensor(meta, data, backend)
}

// ReadStateDict reads all tensors into a state dictionary.
func (r *MmapReader) ReadStateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	if r.closed {
		return nil, errReaderClosed
	}

	stateDict := make(map[string]*tensor.RawTensor)
	for _, meta := range r.header.Tensors {
		raw, err := r.LoadTensor(meta.Name, backend)
		if err != nil {
			return nil, fmt.Errorf("failed to load tensor %s: %w", meta.Name, err)
		}
		stateDict[meta.Name] = raw
	}
	return stateDict, nil
}
