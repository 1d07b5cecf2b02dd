package table

import (
	"strings"
	"testing"

	"memscan/coloransi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tbl := New(
		ColumnSpec{Header: "ID", MinWidth: 4},
		ColumnSpec{Header: "Name"},
	)
	tbl.AddRow("0", "alpha")
	tbl.AddRow("1", "")
	require.Equal(t, 2, tbl.Len())

	var sb strings.Builder
	require.NoError(t, tbl.Render(&sb))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID    Name", strings.TrimRight(lines[0], " "))
	assert.Contains(t, lines[2], "alpha")
	assert.Contains(t, lines[3], "-", "missing cells render the blank value")
}

func TestRenderIgnoresColorCodesForWidth(t *testing.T) {
	colored := coloransi.Foreground(coloransi.Green, "ok")

	tbl := New(ColumnSpec{Header: "Status"}, ColumnSpec{Header: "X"})
	tbl.AddRow(colored, "y")

	var sb strings.Builder
	require.NoError(t, tbl.Render(&sb))

	// The second column must stay aligned with its header despite the
	// escape sequences in the first cell.
	lines := strings.Split(sb.String(), "\n")
	headerX := strings.Index(lines[0], "X")
	rowY := strings.Index(stripEscapes(lines[2]), "y")
	assert.Equal(t, headerX, rowY)
}

func stripEscapes(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
