// File: internal/fifo/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fifo

// Option configures a RingBuffer at creation.
type Option func(*options)

type options struct {
	packetized   bool
	allOrNothing bool
	allocator    Allocator
}

// WithPacketized starts the buffer in length-framed record mode.
func WithPacketized(enabled bool) Option {
	return func(o *options) { o.packetized = enabled }
}

// WithAllOrNothing starts the buffer with partial transfers rejected.
func WithAllOrNothing(enabled bool) Option {
	return func(o *options) { o.allOrNothing = enabled }
}

// WithAllocator overrides the storage allocator. A nil allocator is ignored.
func WithAllocator(a Allocator) Option {
	return func(o *options) {
		if a != nil {
			o.allocator = a
		}
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{allocator: DefaultAllocator()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
