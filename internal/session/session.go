// File: internal/session/session.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/momentics/hioload-fifo/api"
	"github.com/momentics/hioload-fifo/control"
	"github.com/momentics/hioload-fifo/device"
	"github.com/momentics/hioload-fifo/internal/concurrency"
	"github.com/momentics/hioload-fifo/internal/fifo"
	"github.com/momentics/hioload-fifo/internal/logging"
)

// Ensure compliance with api.Control interface.
var _ api.Control = (*Session)(nil)

// Option configures a Session.
type Option func(*options)

type options struct {
	alloc fifo.Allocator
	now   func() time.Time
}

// WithAllocator selects the FIFO storage allocator.
func WithAllocator(a fifo.Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// WithClock replaces the clock used by the startup timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Session owns a running FIFO device and its supporting services.
type Session struct {
	id      string
	config  *control.ConfigStore
	dev     *device.Device
	metrics *control.Metrics
	probes  *control.DebugProbes
	work    *concurrency.WorkQueue
	log     *slog.Logger

	done     chan struct{}
	once     sync.Once
	closeErr error
}

// Open validates cfg, creates the device and starts the work queue. A nil
// cfg selects the defaults.
func Open(cfg *control.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = control.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyLogging(); err != nil {
		return nil, err
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		id:     uuid.NewString(),
		config: control.NewConfigStore(cfg),
		probes: control.NewDebugProbes(),
		done:   make(chan struct{}),
	}
	s.log = logging.For(logging.ComponentSession).With("session", s.id)

	if cfg.Metrics.Enabled {
		m, err := control.NewMetrics()
		if err != nil {
			return nil, api.Wrap("session.Open", err)
		}
		s.metrics = m
	}

	dev, err := device.New(cfg.FIFO, device.WithMetrics(s.metrics), device.WithAllocator(o.alloc))
	if err != nil {
		return nil, err
	}
	s.dev = dev
	s.work = concurrency.NewWorkQueue()
	s.config.OnReload(s.reload)
	s.registerProbes()

	if path := cfg.Stamp.File; path != "" {
		now := o.now
		if err := s.work.Submit(func() { s.stamp(path, now()) }); err != nil {
			s.log.Warn("startup timestamp not queued", "err", err)
		}
	}
	s.log.Info("session opened", "capacity", cfg.FIFO.Capacity)
	return s, nil
}

func (s *Session) stamp(path string, now time.Time) {
	if err := appendStamp(path, now); err != nil {
		s.log.Warn("startup timestamp failed", "file", path, "err", err)
		return
	}
	s.log.Debug("startup timestamp written", "file", path)
}

func (s *Session) registerProbes() {
	s.probes.RegisterProbe("fifo.status", func() any {
		st, err := s.dev.Status()
		if err != nil {
			return map[string]any{"error": err.Error()}
		}
		return map[string]any{
			"size":           st.Size,
			"flags":          st.Flags,
			"put_count":      st.PutCount,
			"get_count":      st.GetCount,
			"bytes_to_get":   st.BytesToGet(),
			"bytes_to_put":   st.BytesToPut(),
			"packetized":     st.Packetized(),
			"all_or_nothing": st.AllOrNothing(),
		}
	})
	s.probes.RegisterProbe("fifo.stats", func() any {
		return s.dev.Stats()
	})
	s.probes.RegisterProbe("session.id", func() any {
		return s.id
	})
	s.probes.RegisterProbe("workqueue", func() any {
		return s.work.Stats()
	})
	control.RegisterPlatformProbes(s.probes)
}

// reload pushes a configuration change into the running services. A fifo
// change the device cannot take rejects the whole update.
func (s *Session) reload(prev, next control.Config) error {
	if prev.FIFO != next.FIFO {
		if err := s.dev.Apply(next.FIFO); err != nil {
			s.log.Warn("fifo reconfiguration failed", "err", err)
			return api.Wrap("session.reload", err)
		}
	}
	if prev.Log != next.Log {
		if err := next.ApplyLogging(); err != nil {
			return api.Wrap("session.reload", err)
		}
	}
	if prev.Metrics != next.Metrics {
		s.log.Info("metrics setting takes effect on next session", "enabled", next.Metrics.Enabled)
	}
	return nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Device returns the FIFO dispatcher.
func (s *Session) Device() *device.Device { return s.dev }

// Handle opens a new transport handle on the device.
func (s *Session) Handle() *device.Handle { return s.dev.Open() }

// Config returns the live configuration store.
func (s *Session) Config() *control.ConfigStore { return s.config }

// Metrics returns the Prometheus recorders, nil when disabled.
func (s *Session) Metrics() *control.Metrics { return s.metrics }

// Stats returns device counters, queue counters and flattened metrics.
func (s *Session) Stats() map[string]any {
	out := map[string]any{
		"session": s.id,
		"device":  s.dev.Stats(),
		"queue":   s.work.Stats(),
	}
	if snap, err := s.metrics.Snapshot(); err == nil && len(snap) > 0 {
		out["metrics"] = snap
	}
	return out
}

// RegisterDebugProbe adds or replaces a named probe.
func (s *Session) RegisterDebugProbe(name string, fn func() any) {
	s.probes.RegisterProbe(name, fn)
}

// DumpState runs every probe.
func (s *Session) DumpState() map[string]any {
	return s.probes.DumpState()
}

// Done is closed once the session has shut down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close drains the work queue, then releases the device. Safe to call more
// than once; later calls return the first result.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.work.Close()
		s.closeErr = s.dev.Close()
		close(s.done)
		s.log.Info("session closed")
	})
	return s.closeErr
}
