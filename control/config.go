// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Device configuration: YAML loading, defaults, validation, and a
// thread-safe live store with reload propagation.

package control

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-fifo/api"
	"github.com/momentics/hioload-fifo/internal/fifo"
	"github.com/momentics/hioload-fifo/internal/logging"
)

// DefaultCapacity matches the FIFO size the device has always started with.
const DefaultCapacity = 0x0800

// Config holds the complete session configuration.
type Config struct {
	FIFO    FIFOConfig    `yaml:"fifo"`
	Log     LogConfig     `yaml:"log"`
	Stamp   StampConfig   `yaml:"stamp"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// FIFOConfig configures the ring buffer and dispatcher.
type FIFOConfig struct {
	Capacity      uint64 `yaml:"capacity"`
	Packetized    bool   `yaml:"packetized"`
	AllOrNothing  bool   `yaml:"all_or_nothing"`
	StrictPackets bool   `yaml:"strict_packets"`
}

// LogConfig selects log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StampConfig configures the startup timestamp task. An empty File disables it.
type StampConfig struct {
	File string `yaml:"file"`
}

// MetricsConfig toggles Prometheus collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns the defaults: a 2 KiB packetized FIFO.
func DefaultConfig() *Config {
	return &Config{
		FIFO: FIFOConfig{
			Capacity:   DefaultCapacity,
			Packetized: true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// ParseConfig overlays YAML data onto the defaults and validates the result.
// Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, api.Wrap("control.ParseConfig", api.ErrInvalidArgument).WithContext("yaml", err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, api.Wrap("control.LoadConfig", err).WithContext("path", path)
	}
	return ParseConfig(data)
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if c.FIFO.Capacity == 0 || c.FIFO.Capacity > fifo.MaxCapacity {
		return api.Wrap("control.Validate", api.ErrInvalidArgument).WithContext("fifo.capacity", c.FIFO.Capacity)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return api.Wrap("control.Validate", api.ErrInvalidArgument).WithContext("log.level", c.Log.Level)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return api.Wrap("control.Validate", api.ErrInvalidArgument).WithContext("log.format", c.Log.Format)
	}
	return nil
}

// ApplyLogging configures the process logger from c.Log.
func (c *Config) ApplyLogging() error {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(c.Log.Format)
	if err != nil {
		return err
	}
	logging.SetFormat(format)
	logging.SetLevel(level)
	return nil
}

// ReloadFunc applies a configuration change. A non-nil error rejects the
// change.
type ReloadFunc func(prev, next Config) error

// ConfigStore holds the live configuration with snapshot reads.
type ConfigStore struct {
	update    sync.Mutex // serializes Update, listeners included
	mu        sync.RWMutex
	config    Config
	listeners []ReloadFunc
}

// NewConfigStore initializes a store from cfg, or from defaults when nil.
func NewConfigStore(cfg *Config) *ConfigStore {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &ConfigStore{config: *cfg}
}

// Snapshot returns a copy of the current configuration.
func (cs *ConfigStore) Snapshot() Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.config
}

// Update applies fn to a copy, validates it, swaps it in and runs the
// listeners in registration order. An invalid result leaves the store
// unchanged. When a listener fails the previous configuration is restored,
// the listeners that already ran are called again with prev and next
// swapped, and the listener error is returned. Listeners must not call
// Update.
func (cs *ConfigStore) Update(fn func(*Config)) error {
	log := logging.For(logging.ComponentControl)
	cs.update.Lock()
	defer cs.update.Unlock()

	cs.mu.Lock()
	prev := cs.config
	next := prev
	fn(&next)
	if err := next.Validate(); err != nil {
		cs.mu.Unlock()
		log.Warn("configuration update rejected", "err", err)
		return err
	}
	cs.config = next
	listeners := append([]ReloadFunc(nil), cs.listeners...)
	cs.mu.Unlock()

	log.Debug("configuration updated", "listeners", len(listeners))
	for i, l := range listeners {
		err := l(prev, next)
		if err == nil {
			continue
		}
		cs.mu.Lock()
		cs.config = prev
		cs.mu.Unlock()
		for j := i - 1; j >= 0; j-- {
			if rerr := listeners[j](next, prev); rerr != nil {
				log.Error("configuration rollback failed", "err", rerr)
			}
		}
		log.Warn("configuration update rolled back", "err", err)
		return err
	}
	return nil
}

// OnReload registers a listener called after every valid Update.
func (cs *ConfigStore) OnReload(fn ReloadFunc) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
