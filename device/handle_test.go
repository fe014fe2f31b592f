package device_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-fifo/api"
	"github.com/momentics/hioload-fifo/control"
)

func TestHandleReadWrite(t *testing.T) {
	d := newDevice(t, control.FIFOConfig{Capacity: 8})
	h := d.Open()

	n, err := h.Write([]byte("ABCDEFGH"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	_, err = h.Write([]byte("I"))
	assert.ErrorIs(t, err, api.ErrNoCapacity)

	buf := make([]byte, 5)
	n, err = h.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ABCDE", string(buf[:n]))

	out := make([]byte, api.StatusSize)
	n, err = h.Ioctl(api.CmdStatus, nil, out)
	require.NoError(t, err)
	st, _ := api.UnmarshalStatus(out[:n])
	assert.EqualValues(t, 3, st.BytesToGet())
}

func TestClosedHandleFailsWithIO(t *testing.T) {
	d := newDevice(t, control.FIFOConfig{Capacity: 8})
	h := d.Open()
	other := d.Open()
	require.NoError(t, h.Close())

	_, err := h.Write([]byte("x"))
	assert.ErrorIs(t, err, api.ErrIO)
	_, err = h.Read(make([]byte, 1))
	assert.ErrorIs(t, err, api.ErrIO)
	_, err = h.Ioctl(api.CmdFlush, nil, nil)
	assert.ErrorIs(t, err, api.ErrIO)
	assert.Equal(t, api.CodeIO, api.CodeOf(h.Close()))

	// The device and other handles are unaffected.
	n, err := other.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHandleOnClosedDevice(t *testing.T) {
	d := newDevice(t, control.FIFOConfig{Capacity: 8})
	h := d.Open()
	require.NoError(t, d.Close())
	_, err := h.Write([]byte("x"))
	assert.ErrorIs(t, err, api.ErrNotReady)
}
