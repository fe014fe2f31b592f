// File: internal/fifo/alloc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Storage allocators for ring buffer backing memory.

package fifo

import (
	"math"

	"github.com/momentics/hioload-fifo/api"
)

// MaxCapacity is the largest storage area any allocator hands out.
const MaxCapacity = math.MaxInt32

// Allocator provides and releases ring storage. Alloc must return a slice of
// exactly n bytes or an error; it never returns a shorter area.
type Allocator interface {
	Alloc(n uint64) ([]byte, error)
	Free(buf []byte) error
}

// HeapAllocator backs storage with ordinary Go memory.
type HeapAllocator struct{}

// Alloc returns a zeroed heap slice.
func (HeapAllocator) Alloc(n uint64) ([]byte, error) {
	if n > MaxCapacity {
		return nil, api.ErrResourceExhausted
	}
	return make([]byte, n), nil
}

// Free is a no-op; the collector reclaims the slice.
func (HeapAllocator) Free([]byte) error { return nil }
