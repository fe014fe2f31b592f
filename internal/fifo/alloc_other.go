//go:build !linux
// +build !linux

package fifo

// DefaultAllocator returns the platform allocator.
func DefaultAllocator() Allocator { return HeapAllocator{} }
