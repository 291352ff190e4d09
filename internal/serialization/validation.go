package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits. Weights files may come from other machines or other
// toolchains, so headers are treated as untrusted input.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
	MaxMetadataSize  = 10 * 1024 * 1024 // 10MB
)

// ValidationLevel controls the strictness of header validation.
type ValidationLevel int

const (
	// ValidationStrict performs all checks, including offset overlap scans.
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names and sizes but skips offset scans.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

// ValidateTensorOffsets checks that tensor data regions are non-negative,
// stay inside the data section, and do not overlap each other.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Err:     ErrTooManyTensors,
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	// Overlaps are detected between offset-sorted neighbors.
	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		// The negative check must run first: a negative size could slip
		// past the bounds comparison below.
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Err:     ErrNegativeOffset,
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", t.Offset, t.Size),
			}
		}

		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Err:     ErrOutOfBounds,
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
			}
		}

		if i+1 < len(sorted) {
			next := sorted[i+1]
			if end := t.Offset + t.Size; end > next.Offset {
				return &ValidationError{
					Err:     ErrOffsetOverlap,
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, end, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}

	return nil
}

// ValidateTensorName rejects names that could be abused when tensor names
// are used to build file paths or log lines.
func ValidateTensorName(name string) error {
	switch {
	case len(name) > MaxTensorNameLen:
		return &ValidationError{
			Err:     ErrTensorNameTooLong,
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	case strings.Contains(name, ".."):
		return &ValidationError{
			Err:     ErrInvalidTensorName,
			Tensor:  name,
			Details: "contains '..' (path traversal attempt)",
		}
	case strings.ContainsAny(name, `/\`):
		return &ValidationError{
			Err:     ErrInvalidTensorName,
			Tensor:  name,
			Details: `contains path separator (/ or \)`,
		}
	case strings.ContainsRune(name, 0):
		return &ValidationError{
			Err:     ErrInvalidTensorName,
			Tensor:  name,
			Details: "contains null byte",
		}
	}
	return nil
}

// ValidateHeader validates a parsed header at the requested level.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Err:     ErrTooManyTensors,
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}

	var metadataSize int
	for key, value := range h.Metadata {
		metadataSize += len(key) + len(value)
	}
	if metadataSize > MaxMetadataSize {
		return &ValidationError{
			Err:     ErrMetadataTooLarge,
			Details: fmt.Sprintf("got %d bytes, max %d", metadataSize, MaxMetadataSize),
		}
	}

	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
	}

	// The offset scan is linear in tensor count and only runs in strict mode.
	if level == ValidationStrict {
		return ValidateTensorOffsets(h.Tensors, dataSize)
	}

	return nil
}
