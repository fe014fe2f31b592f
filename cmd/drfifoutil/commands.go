// File: cmd/drfifoutil/commands.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/momentics/hioload-fifo/api"
	"github.com/momentics/hioload-fifo/device"
	"github.com/momentics/hioload-fifo/internal/session"
)

// defaultWrite is the payload of a write without argument, NUL included.
const defaultWrite = "test_string.\x00"

// defaultReadSize is the read buffer size of a read without argument.
const defaultReadSize = 0x40

type command struct {
	name string
	arg  string
	has  bool
}

// arity gives the number of optional (or, for mode, required) arguments.
var arity = map[string]struct{ min, max int }{
	"status":  {0, 0},
	"read":    {0, 1},
	"write":   {0, 1},
	"reset":   {0, 1},
	"flush":   {0, 0},
	"mode":    {1, 1},
	"probes":  {0, 0},
	"metrics": {0, 0},
}

// parseCommands splits args into commands. An optional argument is only
// taken when it is not itself a command name.
func parseCommands(args []string) ([]command, error) {
	var cmds []command
	for i := 0; i < len(args); i++ {
		name := strings.ToLower(args[i])
		a, ok := arity[name]
		if !ok {
			return nil, fmt.Errorf("unknown command %q", args[i])
		}
		c := command{name: name}
		if a.max > 0 && i+1 < len(args) {
			if _, isCmd := arity[strings.ToLower(args[i+1])]; !isCmd || a.min > 0 {
				i++
				c.arg, c.has = args[i], true
			}
		}
		if a.min > 0 && !c.has {
			return nil, fmt.Errorf("%s needs an argument", name)
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

type runner struct {
	s   *session.Session
	h   *device.Handle
	out io.Writer
}

func (r *runner) exec(c command) error {
	switch c.name {
	case "status":
		return r.status()
	case "write":
		data := defaultWrite
		if c.has {
			data = c.arg
		}
		n, err := r.h.Write([]byte(data))
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "wrote %d bytes to device.\n", n)
	case "read":
		size := defaultReadSize
		if c.has {
			v, err := strconv.Atoi(c.arg)
			if err != nil || v < 0 {
				return fmt.Errorf("bad read size %q", c.arg)
			}
			size = v
		}
		buf := make([]byte, size)
		n, err := r.h.Read(buf)
		fmt.Fprintf(r.out, "read %d bytes from device.\n", n)
		fmt.Fprintf(r.out, "%q\n", strings.TrimRight(string(buf[:n]), "\x00"))
		return err
	case "reset":
		var in []byte
		if c.has {
			v, err := strconv.ParseUint(c.arg, 0, 64)
			if err != nil {
				return fmt.Errorf("bad size %q", c.arg)
			}
			in = binary.LittleEndian.AppendUint64(nil, v)
		}
		if _, err := r.h.Ioctl(api.CmdReset, in, nil); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "fifo reset.")
	case "flush":
		if _, err := r.h.Ioctl(api.CmdFlush, nil, nil); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "fifo flushed.")
	case "mode":
		return r.mode(c.arg)
	case "probes":
		state := r.s.DumpState()
		for _, k := range sortedKeys(state) {
			fmt.Fprintf(r.out, "%s = %v\n", k, state[k])
		}
	case "metrics":
		snap, err := r.s.Metrics().Snapshot()
		if err != nil {
			return err
		}
		for _, k := range sortedKeys(snap) {
			fmt.Fprintf(r.out, "%s %g\n", k, snap[k])
		}
	}
	return nil
}

func (r *runner) readStatus() (api.Status, error) {
	out := make([]byte, api.StatusSize)
	n, err := r.h.Ioctl(api.CmdStatus, nil, out)
	if err != nil {
		return api.Status{}, err
	}
	return api.UnmarshalStatus(out[:n])
}

func (r *runner) status() error {
	st, err := r.readStatus()
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "size      = %d\n", st.Size)
	fmt.Fprintf(r.out, "flags     = %d\n", st.Flags)
	fmt.Fprintf(r.out, "put_count = %d\n", st.PutCount)
	fmt.Fprintf(r.out, "get_count = %d\n", st.GetCount)
	fmt.Fprintf(r.out, "bytes available for put = %d\n", st.BytesToPut())
	fmt.Fprintf(r.out, "bytes available for get = %d\n", st.BytesToGet())
	return nil
}

func (r *runner) mode(arg string) error {
	st, err := r.readStatus()
	if err != nil {
		return err
	}
	flags := st.Flags
	switch strings.ToLower(arg) {
	case "packetized":
		flags |= api.FlagPacketized
	case "raw":
		flags &^= api.FlagPacketized
	case "aon":
		flags |= api.FlagAllOrNothing
	case "partial":
		flags &^= api.FlagAllOrNothing
	default:
		return fmt.Errorf("unknown mode %q", arg)
	}
	in := binary.LittleEndian.AppendUint64(nil, flags)
	prev := make([]byte, 8)
	if _, err := r.h.Ioctl(api.CmdSetMode, in, prev); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "flags %d -> %d\n", binary.LittleEndian.Uint64(prev), flags)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
