package serialization

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func TestComputeChecksum(t *testing.T) {
	sum := ComputeChecksum([]byte("test data"))

	if sum != ComputeChecksum([]byte("test data")) {
		t.Error("same input should digest to the same sum")
	}
	if sum == ComputeChecksum([]byte("different data")) {
		t.Error("different input should digest to a different sum")
	}
}

func TestComputeChecksumReader(t *testing.T) {
	data := []byte("test data for reader")

	sum, err := ComputeChecksumReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ComputeChecksumReader failed: %v", err)
	}
	if sum != ComputeChecksum(data) {
		t.Error("streaming digest should match the in-memory digest")
	}
}

func TestValidateChecksum(t *testing.T) {
	sum := ComputeChecksum([]byte("test data"))

	if err := ValidateChecksum(sum, sum); err != nil {
		t.Errorf("matching digests: unexpected error %v", err)
	}
	if err := ValidateChecksum(sum, [32]byte{1, 2, 3}); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("got %v, want ErrChecksumMismatch", err)
	}
}

// TestSHA256KnownVectors pins the digest against published SHA-256 vectors.
func TestSHA256KnownVectors(t *testing.T) {
	vectors := map[string]string{
		"":            "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		"hello world": "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
	}

	for input, want := range vectors {
		sum := ComputeChecksum([]byte(input))
		if got := hex.EncodeToString(sum[:]); got != want {
			t.Errorf("ComputeChecksum(%q) = %s, want %s", input, got, want)
		}
	}
}
