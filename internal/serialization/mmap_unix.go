//go:build unix

package serialization

import (
	"os"
	"syscall"
)

// mmapFile maps size bytes of f read-only into memory.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	return syscall.Mmap(
		int(f.Fd()), //nolint:gosec // G115: file descriptors fit in int
		0,
		int(size), //nolint:gosec // G115: the caller bounds size by the file length
		syscall.PROT_READ,
		syscall.MAP_SHARED,
	)
}

// munmapFile releases the mapping created by mmapFile.
func munmapFile(data []byte) error {
	return syscall.Munmap(data)
}
