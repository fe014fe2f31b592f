// Package fifo
// Author: momentics <momentics@gmail.com>
//
// Byte FIFO engine for the device layer.
//
// Storage is exactly Cap() bytes; absolute byte n lives at storage[n mod Cap()].
// Two modes are independent:
//   - packetized: every Put stores an 8-byte little-endian length word before
//     its payload; every Get consumes one whole record, dropping whatever
//     does not fit the caller buffer.
//   - all-or-nothing: a Put or Get that cannot be served in full moves zero
//     bytes instead of a partial amount.
//
// Full and empty conditions are reported as short counts, never errors.
package fifo
