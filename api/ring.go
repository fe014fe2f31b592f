// Package api
// Author: momentics@gmail.com
//
// Byte FIFO contract shared by the engine and the dispatcher.

package api

// HeaderSize is the width of the length word stored in front of every
// record in packetized mode. It is a little-endian uint64.
const HeaderSize = 8

// FIFO is a fixed-capacity byte ring. Implementations are not required to be
// safe for concurrent use; callers serialize access.
type FIFO interface {
	// Put writes up to len(p) bytes and returns how many were stored.
	Put(p []byte) int
	// Get reads up to len(p) bytes (or one record in packetized mode).
	Get(p []byte) int
	// BytesToPut returns the room left for payload bytes.
	BytesToPut() uint64
	// BytesToGet returns the payload bytes waiting to be read.
	BytesToGet() uint64
	// Reset zeroes both counters and keeps the modes.
	Reset()
	// Flush discards every unread byte.
	Flush()
	// SetPacketized toggles record framing and always resets the counters.
	SetPacketized(enabled bool) bool
	// SetAllOrNothing toggles rejection of partial transfers.
	SetAllOrNothing(enabled bool) bool
	// Status returns the current size, flags and counters.
	Status() Status
}
