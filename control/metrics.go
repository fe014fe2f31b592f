// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus metrics for the FIFO device. Every recorder is safe on a nil
// *Metrics so callers can run with metrics disabled.

package control

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "hioload"
	metricsSubsystem = "fifo"
)

// Metrics holds the device collectors and their private registry.
type Metrics struct {
	registry *prometheus.Registry

	PutBytes    prometheus.Counter
	GetBytes    prometheus.Counter
	Requests    *prometheus.CounterVec
	Discarded   prometheus.Counter
	Corruptions prometheus.Counter
	Fill        prometheus.Gauge
	Capacity    prometheus.Gauge
}

// NewMetrics creates and registers the device collectors.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PutBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "put_bytes_total",
			Help:      "Payload bytes accepted by put operations",
		}),
		GetBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "get_bytes_total",
			Help:      "Payload bytes delivered by get operations",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "requests_total",
			Help:      "Dispatcher requests by operation and result code",
		}, []string{"op", "result"}),
		Discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "discarded_bytes_total",
			Help:      "Record bytes dropped because the read buffer was shorter than the record",
		}),
		Corruptions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "corruptions_total",
			Help:      "Record headers exceeding stored bytes; each one reset the counters",
		}),
		Fill: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "fill_bytes",
			Help:      "Bytes currently held, framing included",
		}),
		Capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "capacity_bytes",
			Help:      "Storage size of the FIFO",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.PutBytes, m.GetBytes, m.Requests, m.Discarded, m.Corruptions, m.Fill, m.Capacity,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest counts one dispatcher request.
func (m *Metrics) ObserveRequest(op, result string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(op, result).Inc()
}

// AddPut records accepted payload bytes.
func (m *Metrics) AddPut(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PutBytes.Add(float64(n))
}

// AddGet records delivered payload bytes.
func (m *Metrics) AddGet(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.GetBytes.Add(float64(n))
}

// AddDiscarded records dropped record tails.
func (m *Metrics) AddDiscarded(n uint64) {
	if m == nil || n == 0 {
		return
	}
	m.Discarded.Add(float64(n))
}

// IncCorruption records one corruption recovery.
func (m *Metrics) IncCorruption() {
	if m == nil {
		return
	}
	m.Corruptions.Inc()
}

// SetLevel publishes the fill level and capacity.
func (m *Metrics) SetLevel(fill, capacity uint64) {
	if m == nil {
		return
	}
	m.Fill.Set(float64(fill))
	m.Capacity.Set(float64(capacity))
}

// Snapshot flattens every counter and gauge to name{labels} -> value.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	out := make(map[string]float64)
	if m == nil {
		return out, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var labels []string
			for _, lp := range metric.GetLabel() {
				labels = append(labels, lp.GetName()+`="`+lp.GetValue()+`"`)
			}
			sort.Strings(labels)
			key := mf.GetName()
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				out[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				out[key] = metric.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}
