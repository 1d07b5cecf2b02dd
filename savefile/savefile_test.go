package savefile

import (
	"os"
	"path/filepath"
	"testing"

	"memscan/process"
	"memscan/scan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeMatch(t *testing.T, addr process.MemoryAddress, kind scan.ValueKind, literal string) scan.Match {
	t.Helper()
	v, err := scan.Encode(kind, literal)
	require.NoError(t, err)
	return scan.Match{Address: addr, Value: v, Description: kind.Format(v.Bytes)}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	rs := scan.NewResultSet(scan.KindInt32, []scan.Match{
		makeMatch(t, 0x7FFC8A000000, scan.KindInt32, "100"),
		makeMatch(t, 0x7FFC8A000010, scan.KindInt32, "-42"),
	})

	path := filepath.Join(t.TempDir(), "results.txt")
	require.NoError(t, Save(path, "target", 1234, rs))

	loaded, meta, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Title, meta.Title)
	assert.Equal(t, "target", meta.ProcessName)
	assert.Equal(t, process.ProcessID(1234), meta.PID)
	assert.Equal(t, 2, meta.Count)
	assert.False(t, meta.Timestamp.IsZero())

	require.Equal(t, rs.Len(), loaded.Len())
	assert.Equal(t, scan.KindInt32, loaded.Kind())
	for i := 0; i < rs.Len(); i++ {
		assert.Equal(t, rs.At(i).Address, loaded.At(i).Address)
		assert.Equal(t, rs.At(i).Value, loaded.At(i).Value)
		assert.Equal(t, rs.At(i).Description, loaded.At(i).Description)
	}
}

func TestSaveLoadTextWithCommas(t *testing.T) {
	// Text descriptions may contain commas; they must not break parsing
	// and the raw bytes must survive the round trip.
	rs := scan.NewResultSet(scan.KindText, []scan.Match{
		makeMatch(t, 0x1000, scan.KindText, "a,b,c"),
	})

	path := filepath.Join(t.TempDir(), "results.txt")
	require.NoError(t, Save(path, "target", 1, rs))

	loaded, _, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
	assert.Equal(t, []byte("a,b,c"), loaded.At(0).Value.Bytes)
	assert.Equal(t, `"a,b,c"`, loaded.At(0).Description)
}

func TestSaveEmptySet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	err := Save(path, "target", 1, scan.NewResultSet(scan.KindInt32, nil))
	assert.Error(t, err)
}

func TestLoadRejectsBadLines(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"bad_address": "0,zzzz,2,64000000,100\n",
		"bad_kind":    "0,0x1000,9,64000000,?\n",
		"bad_hex":     "0,0x1000,2,xx,100\n",
		"wrong_width": "0,0x1000,2,6400,100\n",
		"mixed_kinds": "0,0x1000,2,64000000,100\n1,0x2000,1,6400,100\n",
		"empty":       "# header only\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".txt")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, _, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadRegeneratesDescriptions(t *testing.T) {
	// A stale description in the file is ignored; the rendering comes
	// from the decoded bytes.
	path := filepath.Join(t.TempDir(), "results.txt")
	content := "# memscan scan results\n# Process: x (PID: 1)\n# Timestamp: 1\n# Results: 1\n" +
		"0,0x1000,2,64000000,stale text\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	loaded, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "100", loaded.At(0).Description)
}
