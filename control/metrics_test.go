package control

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecorders(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.AddPut(10)
	m.AddPut(0)
	m.AddGet(4)
	m.AddDiscarded(3)
	m.IncCorruption()
	m.ObserveRequest("put", "ok")
	m.ObserveRequest("put", "ok")
	m.ObserveRequest("get", "not_ready")
	m.SetLevel(6, 2048)

	assert.Equal(t, 10.0, testutil.ToFloat64(m.PutBytes))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.GetBytes))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Discarded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Corruptions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("put", "ok")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.Fill))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.Capacity))
}

func TestMetricsSnapshot(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	m.AddPut(7)
	m.ObserveRequest("flush", "ok")

	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 7.0, snap["hioload_fifo_put_bytes_total"])
	assert.Equal(t, 1.0, snap[`hioload_fifo_requests_total{op="flush",result="ok"}`])
	assert.Contains(t, snap, "hioload_fifo_capacity_bytes")
}

func TestNilMetricsIsDisabled(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddPut(1)
		m.AddGet(1)
		m.AddDiscarded(1)
		m.IncCorruption()
		m.ObserveRequest("put", "ok")
		m.SetLevel(1, 1)
	})
	assert.Nil(t, m.Registry())
	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap)
}
