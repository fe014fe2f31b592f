// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations, wire records, and constants.

package api

import (
	"encoding/binary"
	"fmt"
)

// Mode flag bits reported in Status.Flags.
const (
	FlagAllOrNothing uint64 = 1 << 0
	FlagPacketized   uint64 = 1 << 1
)

// StatusSize is the encoded size of a Status record: four uint64 words.
const StatusSize = 4 * 8

// Status is the fixed-layout record returned by the STATUS command.
type Status struct {
	Size     uint64 // capacity in bytes
	Flags    uint64 // FlagAllOrNothing | FlagPacketized
	PutCount uint64 // bytes ever written
	GetCount uint64 // bytes ever read
}

// BytesToGet is the number of stored bytes, framing included.
func (s Status) BytesToGet() uint64 { return s.PutCount - s.GetCount }

// BytesToPut is the free room, framing included.
func (s Status) BytesToPut() uint64 { return s.Size - s.BytesToGet() }

// Packetized reports the packetized flag.
func (s Status) Packetized() bool { return s.Flags&FlagPacketized != 0 }

// AllOrNothing reports the all-or-nothing flag.
func (s Status) AllOrNothing() bool { return s.Flags&FlagAllOrNothing != 0 }

// MarshalTo encodes s into buf in field order, little-endian.
func (s Status) MarshalTo(buf []byte) (int, error) {
	if len(buf) < StatusSize {
		return 0, ErrBufferTooSmall
	}
	binary.LittleEndian.PutUint64(buf[0:], s.Size)
	binary.LittleEndian.PutUint64(buf[8:], s.Flags)
	binary.LittleEndian.PutUint64(buf[16:], s.PutCount)
	binary.LittleEndian.PutUint64(buf[24:], s.GetCount)
	return StatusSize, nil
}

// UnmarshalStatus decodes a record produced by MarshalTo.
func UnmarshalStatus(buf []byte) (Status, error) {
	if len(buf) < StatusSize {
		return Status{}, ErrBufferTooSmall
	}
	return Status{
		Size:     binary.LittleEndian.Uint64(buf[0:]),
		Flags:    binary.LittleEndian.Uint64(buf[8:]),
		PutCount: binary.LittleEndian.Uint64(buf[16:]),
		GetCount: binary.LittleEndian.Uint64(buf[24:]),
	}, nil
}

// Command identifies a tagged device control request.
type Command uint32

// FileDeviceFIFO is the device type folded into every command code. Only
// its low 16 bits survive the shift into a 32-bit code, so the commands
// carry 0x70FC in their upper half.
const FileDeviceFIFO = 0x00B770FC

// deviceBits is FileDeviceFIFO<<16 truncated to 32 bits.
const deviceBits = (FileDeviceFIFO << 16) & 0xFFFFFFFF

// Access bits folded into command codes.
const (
	accessRead  = 1
	accessWrite = 2
)

// Device control commands. PUT and GET travel as plain writes and reads.
const (
	CmdReset   Command = deviceBits | accessWrite<<14 | 0x01<<2 // 0x70FC8004
	CmdFlush   Command = deviceBits | accessWrite<<14 | 0x02<<2 // 0x70FC8008
	CmdStatus  Command = deviceBits | accessRead<<14 | 0x03<<2  // 0x70FC400C
	CmdSetMode Command = deviceBits | accessWrite<<14 | 0x04<<2 // 0x70FC8010
)

// Function returns the function number of the command.
func (c Command) Function() uint32 { return uint32(c) >> 2 & 0xFFF }

func (c Command) String() string {
	switch c {
	case CmdReset:
		return "RESET"
	case CmdFlush:
		return "FLUSH"
	case CmdStatus:
		return "STATUS"
	case CmdSetMode:
		return "SET_MODE"
	default:
		return fmt.Sprintf("CMD(%#x fn=%d)", uint32(c), c.Function())
	}
}
