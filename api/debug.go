// Package api
// Author: momentics
//
// Live debug support for running devices.

package api

// Debug exposes runtime introspection.
type Debug interface {
	// DumpState emits a snapshot of probe outputs for diagnostics.
	DumpState() map[string]any

	// RegisterProbe registers or replaces a named probe.
	RegisterProbe(name string, fn func() any)
}
