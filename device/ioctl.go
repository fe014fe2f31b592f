// File: device/ioctl.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package device

import (
	"encoding/binary"

	"github.com/momentics/hioload-fifo/api"
)

// Ioctl executes a tagged control command. in carries the request
// arguments, out receives the reply; the reply length is returned.
//
//	CmdStatus   out: 32-byte status record
//	CmdReset    in: optional 8-byte little-endian new size
//	CmdFlush    no arguments
//	CmdSetMode  in: 8-byte flags word; out: previous flags, when it has room
func (d *Device) Ioctl(cmd api.Command, in, out []byte) (int, error) {
	switch cmd {
	case api.CmdStatus:
		return d.StatusInto(out)

	case api.CmdReset:
		var newSize uint64
		switch {
		case len(in) == 0:
		case len(in) >= 8:
			newSize = binary.LittleEndian.Uint64(in)
		default:
			err := api.Wrap("device.Ioctl", api.ErrInvalidArgument).
				WithContext("cmd", cmd.String()).
				WithContext("in", len(in))
			d.record("reset", err, nil)
			return 0, err
		}
		return 0, d.Reset(newSize)

	case api.CmdFlush:
		return 0, d.Flush()

	case api.CmdSetMode:
		if len(in) < 8 {
			err := api.Wrap("device.Ioctl", api.ErrBufferTooSmall).
				WithContext("cmd", cmd.String()).
				WithContext("in", len(in))
			d.record("set_mode", err, nil)
			return 0, err
		}
		prev, err := d.setMode(binary.LittleEndian.Uint64(in))
		if err != nil {
			return 0, err
		}
		if len(out) < 8 {
			return 0, nil
		}
		binary.LittleEndian.PutUint64(out, prev)
		return 8, nil

	default:
		err := api.Wrap("device.Ioctl", api.ErrInvalidRequest).
			WithContext("cmd", cmd.String()).
			WithContext("function", cmd.Function())
		d.record("ioctl", err, nil)
		return 0, err
	}
}
