// File: internal/fifo/ring.go
// Package fifo implements the byte ring buffer behind the FIFO device.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RingBuffer keeps two monotonically increasing counters, putCount and
// getCount, and maps absolute byte n onto storage[n mod capacity]. It performs
// no locking of its own; the device dispatcher serializes every call.

package fifo

import (
	"encoding/binary"

	"github.com/momentics/hioload-fifo/api"
)

// Ensure compile-time interface compliance.
var _ api.FIFO = (*RingBuffer)(nil)

// Transfer describes the outcome of a single Get.
type Transfer struct {
	N         int    // bytes delivered to the caller
	Record    uint64 // stored record length, packetized mode only
	Discarded uint64 // record bytes skipped because the caller buffer was short
	Rejected  bool   // all-or-nothing refused the request
	Corrupt   bool   // a record header exceeded the stored bytes; counters were reset
}

// Truncated reports whether part of a record was dropped.
func (t Transfer) Truncated() bool { return t.Discarded > 0 }

// Stats are engine-local event counters. They survive Reset and Flush.
type Stats struct {
	RejectedPuts     uint64
	RejectedGets     uint64
	ClampedPuts      uint64
	ClampedGets      uint64
	TruncatedRecords uint64
	DiscardedBytes   uint64
	Corruptions      uint64
}

// RingBuffer is a fixed-capacity byte FIFO with optional record framing.
type RingBuffer struct {
	storage  []byte
	capacity uint64
	mask     uint64 // capacity-1, valid when pow2
	pow2     bool
	flags    uint64
	putCount uint64
	getCount uint64
	stats    Stats
	alloc    Allocator
}

// New allocates a ring buffer holding exactly capacity bytes. A capacity
// that is not a power of two is legal and uses modulo indexing.
func New(capacity uint64, opts ...Option) (*RingBuffer, error) {
	o := applyOptions(opts...)
	r := &RingBuffer{alloc: o.allocator}
	if err := r.setStorage("fifo.New", capacity); err != nil {
		return nil, err
	}
	if o.allOrNothing {
		r.flags |= api.FlagAllOrNothing
	}
	if o.packetized {
		r.flags |= api.FlagPacketized
	}
	return r, nil
}

func (r *RingBuffer) setStorage(op string, capacity uint64) error {
	if capacity == 0 {
		return api.Wrap(op, api.ErrInvalidArgument).WithContext("capacity", capacity)
	}
	buf, err := r.alloc.Alloc(capacity)
	if err != nil {
		return api.Wrap(op, err).WithContext("capacity", capacity)
	}
	old := r.storage
	r.storage = buf
	r.capacity = capacity
	r.pow2 = capacity&(capacity-1) == 0
	r.mask = capacity - 1
	r.Reset()
	if old == nil {
		return nil
	}
	// The replacement is already installed; a failed release only leaks
	// the old area.
	if err := r.alloc.Free(old); err != nil {
		return api.Wrap(op, err).
			WithContext("capacity", capacity).
			WithContext("released", false)
	}
	return nil
}

func (r *RingBuffer) valid() bool {
	return r != nil && r.storage != nil
}

func (r *RingBuffer) index(n uint64) uint64 {
	if r.pow2 {
		return n & r.mask
	}
	return n % r.capacity
}

// rawPut copies p at putCount with wraparound. No checking is performed.
func (r *RingBuffer) rawPut(p []byte) {
	at := r.index(r.putCount)
	toEnd := r.capacity - at
	if uint64(len(p)) <= toEnd {
		copy(r.storage[at:], p)
	} else {
		copy(r.storage[at:], p[:toEnd])
		copy(r.storage, p[toEnd:])
	}
	r.putCount += uint64(len(p))
}

// rawGet copies len(p) bytes out from getCount with wraparound.
func (r *RingBuffer) rawGet(p []byte) {
	at := r.index(r.getCount)
	toEnd := r.capacity - at
	if uint64(len(p)) <= toEnd {
		copy(p, r.storage[at:at+uint64(len(p))])
	} else {
		copy(p, r.storage[at:])
		copy(p[toEnd:], r.storage[:uint64(len(p))-toEnd])
	}
	r.getCount += uint64(len(p))
}

// Put writes up to len(p) bytes. In packetized mode the stored length word
// records the possibly clamped byte count.
func (r *RingBuffer) Put(p []byte) int {
	if !r.valid() || len(p) == 0 {
		return 0
	}
	avail := r.BytesToPut()
	if avail == 0 {
		return 0
	}
	n := uint64(len(p))
	if n > avail {
		if r.IsAllOrNothing() {
			r.stats.RejectedPuts++
			return 0
		}
		n = avail
		r.stats.ClampedPuts++
	}
	if r.IsPacketized() {
		var hdr [api.HeaderSize]byte
		binary.LittleEndian.PutUint64(hdr[:], n)
		r.rawPut(hdr[:])
	}
	r.rawPut(p[:n])
	return int(n)
}

// Get reads up to len(p) bytes and returns the delivered count.
func (r *RingBuffer) Get(p []byte) int {
	return r.GetRecord(p).N
}

// GetRecord is Get with the framing details. In packetized mode exactly one
// record is consumed; bytes beyond len(p) are skipped so the next call starts
// at the following record.
func (r *RingBuffer) GetRecord(p []byte) Transfer {
	if !r.valid() || len(p) == 0 {
		return Transfer{}
	}
	avail := r.BytesToGet()
	if avail == 0 {
		return Transfer{}
	}
	n := uint64(len(p))
	if n > avail {
		if r.IsAllOrNothing() {
			r.stats.RejectedGets++
			return Transfer{Rejected: true}
		}
		n = avail
		if !r.IsPacketized() {
			r.stats.ClampedGets++
		}
	}
	if !r.IsPacketized() {
		r.rawGet(p[:n])
		return Transfer{N: int(n)}
	}

	var hdr [api.HeaderSize]byte
	r.rawGet(hdr[:])
	record := binary.LittleEndian.Uint64(hdr[:])
	if record > avail {
		r.stats.Corruptions++
		r.Reset()
		return Transfer{Record: record, Corrupt: true}
	}
	if record < n {
		n = record
	}
	r.rawGet(p[:n])
	skip := record - n
	r.getCount += skip
	if skip > 0 {
		r.stats.TruncatedRecords++
		r.stats.DiscardedBytes += skip
	}
	return Transfer{N: int(n), Record: record, Discarded: skip}
}

// BytesToPut returns the payload room left, less one header in packetized
// mode, never below zero.
func (r *RingBuffer) BytesToPut() uint64 {
	if !r.valid() {
		return 0
	}
	free := r.capacity - (r.putCount - r.getCount)
	return r.lessHeader(free)
}

// BytesToGet returns the stored bytes, less one header in packetized mode.
// With several records queued this exceeds what the next Get can return.
func (r *RingBuffer) BytesToGet() uint64 {
	if !r.valid() {
		return 0
	}
	return r.lessHeader(r.putCount - r.getCount)
}

func (r *RingBuffer) lessHeader(n uint64) uint64 {
	if !r.IsPacketized() {
		return n
	}
	if n <= api.HeaderSize {
		return 0
	}
	return n - api.HeaderSize
}

// Reset zeroes both counters. Modes and storage contents are kept.
func (r *RingBuffer) Reset() {
	if r == nil {
		return
	}
	r.putCount = 0
	r.getCount = 0
}

// Flush discards every unread byte without touching storage.
func (r *RingBuffer) Flush() {
	if r == nil {
		return
	}
	r.getCount = r.putCount
}

// IsAllOrNothing reports whether partial transfers are rejected.
func (r *RingBuffer) IsAllOrNothing() bool {
	return r != nil && r.flags&api.FlagAllOrNothing != 0
}

// IsPacketized reports whether records are length-framed.
func (r *RingBuffer) IsPacketized() bool {
	return r != nil && r.flags&api.FlagPacketized != 0
}

// SetAllOrNothing sets the overflow policy and returns the previous value.
func (r *RingBuffer) SetAllOrNothing(enabled bool) bool {
	prev := r.IsAllOrNothing()
	if r != nil {
		r.setFlag(api.FlagAllOrNothing, enabled)
	}
	return prev
}

// SetPacketized sets record framing and returns the previous value. Stored
// bytes are invalidated: the counters are always reset.
func (r *RingBuffer) SetPacketized(enabled bool) bool {
	prev := r.IsPacketized()
	if r != nil {
		r.setFlag(api.FlagPacketized, enabled)
		r.Reset()
	}
	return prev
}

func (r *RingBuffer) setFlag(bit uint64, on bool) {
	if on {
		r.flags |= bit
	} else {
		r.flags &^= bit
	}
}

// Flags returns the raw mode bits.
func (r *RingBuffer) Flags() uint64 {
	if r == nil {
		return 0
	}
	return r.flags
}

// Cap returns the storage size in bytes.
func (r *RingBuffer) Cap() uint64 {
	if !r.valid() {
		return 0
	}
	return r.capacity
}

// PutCount returns the total bytes written, headers included.
func (r *RingBuffer) PutCount() uint64 {
	if r == nil {
		return 0
	}
	return r.putCount
}

// GetCount returns the total bytes consumed, headers and skips included.
func (r *RingBuffer) GetCount() uint64 {
	if r == nil {
		return 0
	}
	return r.getCount
}

// Status snapshots size, flags and counters.
func (r *RingBuffer) Status() api.Status {
	return api.Status{
		Size:     r.Cap(),
		Flags:    r.Flags(),
		PutCount: r.PutCount(),
		GetCount: r.GetCount(),
	}
}

// Stats returns the event counters.
func (r *RingBuffer) Stats() Stats {
	if r == nil {
		return Stats{}
	}
	return r.stats
}

// Resize replaces the storage with a fresh area of capacity bytes and resets
// the counters. Modes are kept. When allocation fails the buffer is left
// untouched. An error from releasing the old area is returned after the new
// storage is in use; Cap reports which storage is active.
func (r *RingBuffer) Resize(capacity uint64) error {
	if r == nil {
		return api.ErrNotReady
	}
	return r.setStorage("fifo.Resize", capacity)
}

// Close releases the storage. Later calls transfer nothing.
func (r *RingBuffer) Close() error {
	if !r.valid() {
		return nil
	}
	buf := r.storage
	r.storage = nil
	r.capacity = 0
	r.Reset()
	return r.alloc.Free(buf)
}
