// File: device/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package device

import (
	"log/slog"

	"github.com/momentics/hioload-fifo/control"
	"github.com/momentics/hioload-fifo/internal/fifo"
)

// Option configures a Device.
type Option func(*Device)

// WithMetrics attaches Prometheus recorders. Nil disables metrics.
func WithMetrics(m *control.Metrics) Option {
	return func(d *Device) {
		d.metrics = m
	}
}

// WithLogger replaces the device component logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.log = l
		}
	}
}

// WithAllocator selects the storage allocator of the ring buffer.
func WithAllocator(a fifo.Allocator) Option {
	return func(d *Device) {
		d.alloc = a
	}
}
