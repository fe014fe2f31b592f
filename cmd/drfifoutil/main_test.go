package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestStatusOnFreshDevice(t *testing.T) {
	code, out, _ := runCLI(t, "status")
	require.Equal(t, 0, code)
	assert.Equal(t, "size      = 2048\n"+
		"flags     = 2\n"+
		"put_count = 0\n"+
		"get_count = 0\n"+
		"bytes available for put = 2048\n"+
		"bytes available for get = 0\n", out)
}

func TestWriteReadDefaults(t *testing.T) {
	code, out, _ := runCLI(t, "write", "read", "status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "wrote 13 bytes to device.\n")
	assert.Contains(t, out, "read 13 bytes from device.\n\"test_string.\"\n")
	assert.Contains(t, out, "put_count = 21\n")
	assert.Contains(t, out, "get_count = 21\n")
}

func TestRawModeAndFlush(t *testing.T) {
	code, out, _ := runCLI(t, "-packetized", "off", "-capacity", "8",
		"write", "ABCDEFGH", "read", "5", "flush", "status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "read 5 bytes from device.\n\"ABCDE\"\n")
	assert.Contains(t, out, "flags     = 0\n")
	assert.Contains(t, out, "bytes available for get = 0\n")
}

func TestWriteTooLargeFails(t *testing.T) {
	code, _, errOut := runCLI(t, "-capacity", "4", "-packetized", "off", "write", "toolong")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "write failed")
}

func TestResetResizesAndMode(t *testing.T) {
	code, out, _ := runCLI(t, "reset", "0x100", "mode", "raw", "mode", "aon", "status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "fifo reset.\n")
	assert.Contains(t, out, "flags 2 -> 0\n")
	assert.Contains(t, out, "flags 0 -> 1\n")
	assert.Contains(t, out, "size      = 256\n")
}

func TestProbesAndMetrics(t *testing.T) {
	code, out, _ := runCLI(t, "write", "abc", "probes", "metrics")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "fifo.status = ")
	assert.Contains(t, out, "platform.cpus = ")
	assert.Contains(t, out, "hioload_fifo_put_bytes_total 3\n")
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fifo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fifo:\n  capacity: 32\n  packetized: false\n"), 0o600))
	code, out, _ := runCLI(t, "-config", path, "status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "size      = 32\n")
	assert.Contains(t, out, "flags     = 0\n")
}

func TestUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"bogus"},
		{"mode"},
		{"-packetized", "maybe", "status"},
		{"-nosuchflag"},
	} {
		code, _, errOut := runCLI(t, args...)
		assert.Equal(t, 1, code, "args %q", args)
		assert.NotEmpty(t, errOut)
	}
}

func TestParseCommands(t *testing.T) {
	cmds, err := parseCommands([]string{"write", "read", "read", "16", "mode", "raw"})
	require.NoError(t, err)
	require.Len(t, cmds, 4)
	assert.Equal(t, command{name: "write"}, cmds[0])
	assert.Equal(t, command{name: "read"}, cmds[1])
	assert.Equal(t, command{name: "read", arg: "16", has: true}, cmds[2])
	assert.Equal(t, command{name: "mode", arg: "raw", has: true}, cmds[3])
}
