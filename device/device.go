// File: device/device.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Device serializes STATUS, RESET, FLUSH, PUT and GET on one ring buffer.
// Engine work happens under d.mu; logging and metrics run after it is
// released.

package device

import (
	"log/slog"
	"sync"

	"github.com/momentics/hioload-fifo/api"
	"github.com/momentics/hioload-fifo/control"
	"github.com/momentics/hioload-fifo/internal/fifo"
	"github.com/momentics/hioload-fifo/internal/logging"
)

// Device is the command dispatcher of one FIFO.
type Device struct {
	mu     sync.Mutex
	ring   *fifo.RingBuffer
	strict bool

	alloc   fifo.Allocator
	metrics *control.Metrics
	log     *slog.Logger
}

// level is the fill state captured under the lock for the gauges.
type level struct {
	fill     uint64
	capacity uint64
}

// New creates a device with a ring buffer configured by cfg.
func New(cfg control.FIFOConfig, opts ...Option) (*Device, error) {
	d := &Device{
		strict: cfg.StrictPackets,
		log:    logging.For(logging.ComponentDevice),
	}
	for _, opt := range opts {
		opt(d)
	}
	ring, err := fifo.New(cfg.Capacity,
		fifo.WithPacketized(cfg.Packetized),
		fifo.WithAllOrNothing(cfg.AllOrNothing),
		fifo.WithAllocator(d.alloc),
	)
	if err != nil {
		return nil, api.Wrap("device.New", err)
	}
	d.ring = ring
	d.metrics.SetLevel(0, ring.Cap())
	d.log.Info("fifo device created",
		"capacity", ring.Cap(),
		"packetized", ring.IsPacketized(),
		"all_or_nothing", ring.IsAllOrNothing(),
	)
	return d, nil
}

func (d *Device) levelLocked() level {
	st := d.ring.Status()
	return level{fill: st.BytesToGet(), capacity: st.Size}
}

// record finishes a request: metrics, gauges and a debug trace.
func (d *Device) record(op string, err error, lvl *level) {
	d.metrics.ObserveRequest(op, api.CodeOf(err).String())
	if lvl != nil {
		d.metrics.SetLevel(lvl.fill, lvl.capacity)
	}
	if err != nil {
		d.log.Debug("request failed", "op", op, "err", err)
	}
}

// Status returns the current size, flags and counters.
func (d *Device) Status() (api.Status, error) {
	st, err := d.status()
	d.record("status", err, nil)
	return st, err
}

func (d *Device) status() (api.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ring == nil {
		return api.Status{}, api.Wrap("device.Status", api.ErrNotReady)
	}
	return d.ring.Status(), nil
}

// StatusInto encodes the status record into out and returns the bytes
// written. A short out is reported before readiness is checked.
func (d *Device) StatusInto(out []byte) (int, error) {
	if len(out) < api.StatusSize {
		err := api.Wrap("device.Status", api.ErrBufferTooSmall).
			WithContext("have", len(out)).
			WithContext("need", api.StatusSize)
		d.record("status", err, nil)
		return 0, err
	}
	st, err := d.Status()
	if err != nil {
		return 0, err
	}
	return st.MarshalTo(out)
}

// Reset zeroes both counters. A non-zero newSize also replaces the storage
// with newSize bytes; on allocation failure the old storage stays in use.
// Failing to release the old storage is logged and does not fail the reset.
func (d *Device) Reset(newSize uint64) error {
	lvl, err := d.reset(newSize)
	d.record("reset", err, lvl)
	if err == nil && newSize != 0 {
		d.log.Info("fifo resized", "capacity", newSize)
	} else if err != nil && newSize != 0 {
		d.log.Warn("fifo resize failed", "capacity", newSize, "err", err)
	}
	return err
}

func (d *Device) reset(newSize uint64) (*level, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ring == nil {
		return nil, api.Wrap("device.Reset", api.ErrNotReady)
	}
	if newSize == 0 {
		d.ring.Reset()
	} else if err := d.ring.Resize(newSize); err != nil {
		if d.ring.Cap() != newSize {
			return nil, api.Wrap("device.Reset", err)
		}
		// Resized; only the old area leaked.
		d.log.Warn("old fifo storage not released", "capacity", newSize, "err", err)
	}
	lvl := d.levelLocked()
	return &lvl, nil
}

// Flush discards all unread data.
func (d *Device) Flush() error {
	lvl, err := d.flush()
	d.record("flush", err, lvl)
	return err
}

func (d *Device) flush() (*level, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ring == nil {
		return nil, api.Wrap("device.Flush", api.ErrNotReady)
	}
	d.ring.Flush()
	lvl := d.levelLocked()
	return &lvl, nil
}

// Put stores p. A write larger than the free room fails with ErrNoCapacity
// and stores nothing.
func (d *Device) Put(p []byte) (int, error) {
	n, lvl, err := d.put(p)
	d.record("put", err, lvl)
	d.metrics.AddPut(n)
	return n, err
}

func (d *Device) put(p []byte) (int, *level, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ring == nil {
		return 0, nil, api.Wrap("device.Put", api.ErrNotReady)
	}
	if len(p) == 0 {
		return 0, nil, nil
	}
	if room := d.ring.BytesToPut(); uint64(len(p)) > room {
		return 0, nil, api.Wrap("device.Put", api.ErrNoCapacity).
			WithContext("requested", len(p)).
			WithContext("available", room)
	}
	n := d.ring.Put(p)
	lvl := d.levelLocked()
	return n, &lvl, nil
}

// Get reads into p. In packetized mode one record is consumed per call and
// whatever does not fit in p is dropped. With strict packets enabled such a
// drop is reported as ErrPacketTruncated alongside the delivered count.
func (d *Device) Get(p []byte) (int, error) {
	tr, strict, lvl, err := d.get(p)
	if tr.Corrupt {
		d.metrics.IncCorruption()
		d.log.Warn("corrupt record header, fifo counters reset", "record", tr.Record)
	}
	d.metrics.AddDiscarded(tr.Discarded)
	if err == nil && strict && tr.Truncated() {
		err = api.Wrap("device.Get", api.ErrPacketTruncated).
			WithContext("record", tr.Record).
			WithContext("delivered", tr.N)
	}
	d.record("get", err, lvl)
	d.metrics.AddGet(tr.N)
	return tr.N, err
}

func (d *Device) get(p []byte) (fifo.Transfer, bool, *level, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ring == nil {
		return fifo.Transfer{}, false, nil, api.Wrap("device.Get", api.ErrNotReady)
	}
	if len(p) == 0 {
		return fifo.Transfer{}, d.strict, nil, nil
	}
	tr := d.ring.GetRecord(p)
	lvl := d.levelLocked()
	return tr, d.strict, &lvl, nil
}

// SetPacketized switches record framing and returns the previous setting.
// Stored data is discarded.
func (d *Device) SetPacketized(enabled bool) (bool, error) {
	prev, err := d.setFlag("device.SetPacketized", func(r *fifo.RingBuffer) bool {
		return r.SetPacketized(enabled)
	})
	d.record("set_mode", err, nil)
	return prev, err
}

// SetAllOrNothing switches the overflow policy and returns the previous setting.
func (d *Device) SetAllOrNothing(enabled bool) (bool, error) {
	prev, err := d.setFlag("device.SetAllOrNothing", func(r *fifo.RingBuffer) bool {
		return r.SetAllOrNothing(enabled)
	})
	d.record("set_mode", err, nil)
	return prev, err
}

func (d *Device) setFlag(op string, fn func(*fifo.RingBuffer) bool) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ring == nil {
		return false, api.Wrap(op, api.ErrNotReady)
	}
	return fn(d.ring), nil
}

// SetStrictPackets toggles truncation reporting on Get and returns the
// previous setting.
func (d *Device) SetStrictPackets(enabled bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.strict
	d.strict = enabled
	return prev
}

// setMode applies a flags word. The counters are only reset when the
// packetized bit actually changes.
func (d *Device) setMode(flags uint64) (uint64, error) {
	prev, err := d.applyFlags(flags)
	d.record("set_mode", err, nil)
	return prev, err
}

func (d *Device) applyFlags(flags uint64) (uint64, error) {
	if flags&^(api.FlagAllOrNothing|api.FlagPacketized) != 0 {
		return 0, api.Wrap("device.SetMode", api.ErrInvalidArgument).WithContext("flags", flags)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ring == nil {
		return 0, api.Wrap("device.SetMode", api.ErrNotReady)
	}
	prev := d.ring.Flags()
	d.ring.SetAllOrNothing(flags&api.FlagAllOrNothing != 0)
	if packetized := flags&api.FlagPacketized != 0; packetized != d.ring.IsPacketized() {
		d.ring.SetPacketized(packetized)
	}
	return prev, nil
}

// Apply reconciles the running device with a FIFO configuration. The size
// is compared with the live storage, not with an earlier configuration. A
// failed resize returns before any mode is touched, leaving the device as
// it was.
func (d *Device) Apply(next control.FIFOConfig) error {
	st, err := d.Status()
	if err != nil {
		return err
	}
	if next.Capacity != st.Size {
		if err := d.Reset(next.Capacity); err != nil {
			return err
		}
	}
	var flags uint64
	if next.AllOrNothing {
		flags |= api.FlagAllOrNothing
	}
	if next.Packetized {
		flags |= api.FlagPacketized
	}
	if _, err := d.setMode(flags); err != nil {
		return err
	}
	d.SetStrictPackets(next.StrictPackets)
	d.log.Info("fifo configuration applied",
		"capacity", next.Capacity,
		"packetized", next.Packetized,
		"all_or_nothing", next.AllOrNothing,
		"strict_packets", next.StrictPackets,
	)
	return nil
}

// Stats returns the engine event counters and the strict flag.
func (d *Device) Stats() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.ring.Stats()
	return map[string]any{
		"ready":             d.ring != nil,
		"strict_packets":    d.strict,
		"rejected_puts":     st.RejectedPuts,
		"rejected_gets":     st.RejectedGets,
		"clamped_puts":      st.ClampedPuts,
		"clamped_gets":      st.ClampedGets,
		"truncated_records": st.TruncatedRecords,
		"discarded_bytes":   st.DiscardedBytes,
		"corruptions":       st.Corruptions,
	}
}

// Close releases the ring buffer. Later requests fail with ErrNotReady.
// Closing twice is a no-op.
func (d *Device) Close() error {
	d.mu.Lock()
	ring := d.ring
	d.ring = nil
	d.mu.Unlock()
	if ring == nil {
		return nil
	}
	d.metrics.SetLevel(0, 0)
	d.log.Info("fifo device closed")
	if err := ring.Close(); err != nil {
		return api.Wrap("device.Close", err)
	}
	return nil
}
