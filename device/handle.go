// File: device/handle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Handle is the transport-facing side of a Device: writes become PUT, reads
// become GET and control requests pass through Ioctl.

package device

import (
	"io"
	"sync/atomic"

	"github.com/momentics/hioload-fifo/api"
)

var _ io.ReadWriteCloser = (*Handle)(nil)

// Handle is an open reference to a Device. Several handles may share one
// device; each is closed independently.
type Handle struct {
	dev    *Device
	closed atomic.Bool
}

// Open returns a new handle on d.
func (d *Device) Open() *Handle {
	return &Handle{dev: d}
}

func (h *Handle) check(op string) error {
	if h == nil || h.dev == nil || h.closed.Load() {
		return api.Wrap(op, api.ErrIO)
	}
	return nil
}

// Write puts p into the FIFO.
func (h *Handle) Write(p []byte) (int, error) {
	if err := h.check("handle.Write"); err != nil {
		return 0, err
	}
	return h.dev.Put(p)
}

// Read gets the next bytes or record from the FIFO. An empty FIFO yields
// (0, nil).
func (h *Handle) Read(p []byte) (int, error) {
	if err := h.check("handle.Read"); err != nil {
		return 0, err
	}
	return h.dev.Get(p)
}

// Ioctl forwards a control command to the device.
func (h *Handle) Ioctl(cmd api.Command, in, out []byte) (int, error) {
	if err := h.check("handle.Ioctl"); err != nil {
		return 0, err
	}
	return h.dev.Ioctl(cmd, in, out)
}

// Close detaches the handle. The device itself stays open.
func (h *Handle) Close() error {
	if h == nil || !h.closed.CompareAndSwap(false, true) {
		return api.Wrap("handle.Close", api.ErrIO)
	}
	return nil
}
