// File: internal/logging/log.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Component-tagged structured logging on top of log/slog.

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Component identifies a subsystem for log filtering.
type Component string

const (
	ComponentFIFO      Component = "fifo"
	ComponentDevice    Component = "device"
	ComponentSession   Component = "session"
	ComponentWorkQueue Component = "workqueue"
	ComponentControl   Component = "control"
	ComponentCLI       Component = "cli"
)

// Format selects the handler used by the default logger.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

var (
	level = new(slog.LevelVar)

	mu      sync.RWMutex
	logger  *slog.Logger
	output  io.Writer = os.Stderr
	current           = FormatText
)

func init() {
	level.Set(slog.LevelWarn)
	logger = newLogger(output, current)
}

func newLogger(w io.Writer, f Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SetLevel sets the minimum level for every component logger.
func SetLevel(l slog.Level) { level.Set(l) }

// Level returns the current minimum level.
func Level() slog.Level { return level.Level() }

// SetFormat rebuilds the default logger with the given handler format.
func SetFormat(f Format) {
	mu.Lock()
	defer mu.Unlock()
	current = f
	logger = newLogger(output, f)
}

// SetOutput redirects the default logger, keeping level and format.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	logger = newLogger(w, current)
}

// SetLogger replaces the default logger.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// Default returns the process-wide logger.
func Default() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// For returns the default logger tagged with component.
func For(c Component) *slog.Logger {
	return Default().With("component", string(c))
}

// ParseLevel maps debug, info, warn and error onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat maps text and json onto Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}
