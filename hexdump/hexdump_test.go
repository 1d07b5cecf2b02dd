package hexdump

import (
	"strings"
	"testing"

	"memscan/coloransi"
	"memscan/process"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainOptions() Options {
	o := DefaultOptions()
	return o
}

func withoutColor(t *testing.T) {
	t.Helper()
	coloransi.Enabled = false
	t.Cleanup(func() { coloransi.Enabled = true })
}

func TestDumpBasic(t *testing.T) {
	withoutColor(t)

	data := append([]byte("HELLO"), 0x00, 0x01)
	out := Dump(data, plainOptions())

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "48 65 6c 6c 6f 00 01")
	assert.Contains(t, lines[0], "HELLO..")
}

func TestDumpLineSplit(t *testing.T) {
	withoutColor(t)

	data := make([]byte, 32)
	out := Dump(data, plainOptions())

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, 2, strings.Count(line, "| "), "mid-line divider plus ASCII gutter")
	}
}

func TestDumpStartOffset(t *testing.T) {
	withoutColor(t)

	opts := plainOptions()
	opts.StartOffset = 0x7ffc8a000000
	out := Dump(make([]byte, 20), opts)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "7ffc8a000000"))
	assert.True(t, strings.HasPrefix(lines[1], "7ffc8a000010"))
}

func TestDumpMaxLines(t *testing.T) {
	withoutColor(t)

	opts := plainOptions()
	opts.MaxLines = 2
	out := Dump(make([]byte, 64), opts)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "32 more bytes")
}

func TestDumpPointerAnnotation(t *testing.T) {
	withoutColor(t)

	regions := []process.Region{
		{Base: 0x400000, Size: 0x1000, Readable: true},
	}

	data := make([]byte, 16)
	// Little-endian 0x400010 in the first quadword, garbage in the second.
	data[0] = 0x10
	data[2] = 0x40
	data[8] = 0xff

	out := DumpAt(data, 0x1000, regions)
	assert.Contains(t, out, "0x400010")
	assert.NotContains(t, out, "0xff")
}
