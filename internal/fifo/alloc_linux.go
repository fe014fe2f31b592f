//go:build linux
// +build linux

// File: internal/fifo/alloc_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux storage is an anonymous private mapping, kept outside the Go heap
// for the lifetime of the session.

package fifo

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-fifo/api"
)

// MmapAllocator maps anonymous memory for ring storage.
type MmapAllocator struct{}

// Alloc maps n bytes of zeroed, private, read-write memory.
func (MmapAllocator) Alloc(n uint64) ([]byte, error) {
	if n > MaxCapacity {
		return nil, api.ErrResourceExhausted
	}
	buf, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %w", api.ErrResourceExhausted, n, err)
	}
	return buf, nil
}

// Free unmaps a region returned by Alloc.
func (MmapAllocator) Free(buf []byte) error {
	if buf == nil {
		return nil
	}
	return unix.Munmap(buf)
}

// DefaultAllocator returns the platform allocator.
func DefaultAllocator() Allocator { return MmapAllocator{} }
