package serialization

import (
	"errors"
	"fmt"
)

// Sentinel categories for validation failures, in the order the reader
// checks them. ValidationError wraps one of these, so errors.Is can match
// on the kind.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrMetadataTooLarge   = errors.New("metadata exceeds maximum size")
	ErrTooManyTensors     = errors.New("too many tensors in file")
	ErrTensorNameTooLong  = errors.New("tensor name too long")
	ErrInvalidTensorName  = errors.New("invalid tensor name")
	ErrNegativeOffset     = errors.New("negative offset or size")
	ErrOffsetOverlap      = errors.New("tensor offsets overlap")
	ErrOutOfBounds        = errors.New("tensor extends beyond data section")
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
)

// Returned on any access after Close.
var (
	errReaderClosed = errors.New("reader is closed")
	errWriterClosed = errors.New("writer is closed")
)

// ValidationError carries the tensor names and detail text for a failed
// validation check. Err holds the sentinel category.
type ValidationError struct {
	Err     error
	Tensor  string
	Tensor2 string // second tensor for overlap errors
	Details string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Tensor2 != "":
		return fmt.Sprintf("%v: tensors %q and %q: %s", e.Err, e.Tensor, e.Tensor2, e.Details)
	case e.Tensor != "":
		return fmt.Sprintf("%v: tensor %q: %s", e.Err, e.Tensor, e.Details)
	default:
		return fmt.Sprintf("%v: %s", e.Err, e.Details)
	}
}

// Unwrap returns the sentinel category error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
