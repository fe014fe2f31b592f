// File: api/control.go
// Package api defines Control interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Control exposes runtime stats and debug probes of a running device session.
type Control interface {
	Stats() map[string]any
	RegisterDebugProbe(name string, fn func() any)
	DumpState() map[string]any
}
