// File: cmd/drfifoutil/main.go
// Package main
// drfifoutil opens an in-process FIFO device session and runs a sequence of
// commands against it through a device handle.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Usage:
//
//	drfifoutil [flags] <command> [args...] [<command> [args...]]...
//
// Commands are status, read [size], write [text], reset [new_size], flush,
// mode <packetized|raw|aon|partial>, probes and metrics.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/momentics/hioload-fifo/control"
	"github.com/momentics/hioload-fifo/internal/logging"
	"github.com/momentics/hioload-fifo/internal/session"
)

const programName = "drfifoutil"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "\nUsage: %s [flags] <command> [args...] [<command> [args...]]...\n\n", programName)
	fmt.Fprintln(w, "Commands are 'status', 'read', 'write', 'reset', 'flush', 'mode', 'probes' and 'metrics'.")
	fmt.Fprintln(w)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// run parses flags, opens a session and executes the command list. The exit
// code is 1 for usage errors and 2 for command failures.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "YAML configuration file")
	capacity := fs.Uint64("capacity", 0, "FIFO size in bytes (overrides config)")
	packetized := fs.String("packetized", "", "record framing on|off (overrides config)")
	allOrNothing := fs.String("all-or-nothing", "", "reject partial transfers on|off (overrides config)")
	logLevel := fs.String("log-level", "", "debug|info|warn|error (overrides config)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", programName, err)
		usage(fs, stderr)
		return 1
	}
	if fs.NArg() == 0 {
		usage(fs, stderr)
		return 1
	}
	cmds, err := parseCommands(fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", programName, err)
		usage(fs, stderr)
		return 1
	}

	logging.SetOutput(stderr)
	cfg := control.DefaultConfig()
	if *configPath != "" {
		loaded, err := control.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", programName, err)
			return 1
		}
		cfg = loaded
	}
	if *capacity != 0 {
		cfg.FIFO.Capacity = *capacity
	}
	for _, o := range []struct {
		name  string
		value string
		dst   *bool
	}{
		{"packetized", *packetized, &cfg.FIFO.Packetized},
		{"all-or-nothing", *allOrNothing, &cfg.FIFO.AllOrNothing},
	} {
		if o.value == "" {
			continue
		}
		on, err := parseSwitch(o.value)
		if err != nil {
			fmt.Fprintf(stderr, "%s: -%s: %v\n", programName, o.name, err)
			return 1
		}
		*o.dst = on
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	s, err := session.Open(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", programName, err)
		return 1
	}
	defer s.Close()
	logging.For(logging.ComponentCLI).Debug("running commands", "session", s.ID(), "commands", len(cmds))

	r := &runner{s: s, h: s.Handle(), out: stdout}
	defer r.h.Close()
	for _, c := range cmds {
		if err := r.exec(c); err != nil {
			fmt.Fprintf(stderr, "%s: %s failed: %v\n", programName, c.name, err)
			return 2
		}
	}
	return 0
}
