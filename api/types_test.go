package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandCodes(t *testing.T) {
	// Truncated CTL_CODE values of the FIFO device, buffered method.
	assert.EqualValues(t, 0x70FC8004, CmdReset)
	assert.EqualValues(t, 0x70FC8008, CmdFlush)
	assert.EqualValues(t, 0x70FC400C, CmdStatus)
	assert.EqualValues(t, 0x70FC8010, CmdSetMode)

	assert.EqualValues(t, 1, CmdReset.Function())
	assert.EqualValues(t, 3, CmdStatus.Function())
	assert.Equal(t, "STATUS", CmdStatus.String())
	assert.Equal(t, "CMD(0x70fc8014 fn=5)", Command(0x70FC8014).String())
}

func TestStatusRecord(t *testing.T) {
	st := Status{Size: 16, Flags: FlagPacketized, PutCount: 10, GetCount: 4}
	assert.EqualValues(t, 6, st.BytesToGet())
	assert.EqualValues(t, 10, st.BytesToPut())

	_, err := st.MarshalTo(make([]byte, StatusSize-1))
	assert.ErrorIs(t, err, ErrBufferTooSmall)

	buf := make([]byte, StatusSize)
	n, err := st.MarshalTo(buf)
	require.NoError(t, err)
	assert.Equal(t, StatusSize, n)
	assert.Equal(t, []byte{16, 0, 0, 0, 0, 0, 0, 0}, buf[:8])
	got, err := UnmarshalStatus(buf)
	require.NoError(t, err)
	assert.Equal(t, st, got)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeOK, CodeOf(nil))
	assert.Equal(t, CodeNoCapacity, CodeOf(ErrNoCapacity))
	err := Wrap("device.Put", ErrNoCapacity).WithContext("requested", 9)
	assert.Equal(t, CodeNoCapacity, CodeOf(Wrap("handle.Write", err)))
	assert.ErrorIs(t, err, ErrNoCapacity)
	assert.Contains(t, err.Error(), "device.Put: insufficient fifo capacity")
	assert.Equal(t, "no_capacity", CodeNoCapacity.String())
}
