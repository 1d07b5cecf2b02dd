package scan

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEncode(t *testing.T, kind ValueKind, literal string) TypedValue {
	t.Helper()
	v, err := Encode(kind, literal)
	require.NoError(t, err)
	return v
}

func TestExactIsRawByteEquality(t *testing.T) {
	target := mustEncode(t, KindInt32, "100")
	match, err := matcher(Exact, target)
	require.NoError(t, err)

	windows := [][]byte{
		{0x64, 0x00, 0x00, 0x00},
		{0x64, 0x00, 0x00, 0x01},
		{0x00, 0x00, 0x00, 0x64},
		{0x00, 0x00, 0x00, 0x00},
	}
	for _, w := range windows {
		assert.Equal(t, bytes.Equal(w, target.Bytes), match(w, nil))
	}
}

func TestOrderingIsSigned(t *testing.T) {
	target := mustEncode(t, KindInt32, "1")

	greater, err := matcher(Greater, target)
	require.NoError(t, err)
	less, err := matcher(Less, target)
	require.NoError(t, err)

	minusOne := mustEncode(t, KindInt32, "-1").Bytes // 0xFFFFFFFF as raw bytes
	two := mustEncode(t, KindInt32, "2").Bytes
	one := mustEncode(t, KindInt32, "1").Bytes

	// Raw byte comparison would order -1 above 1; signed comparison must not.
	assert.False(t, greater(minusOne, nil))
	assert.True(t, less(minusOne, nil))

	assert.True(t, greater(two, nil))
	assert.False(t, less(two, nil))

	assert.False(t, greater(one, nil))
	assert.False(t, less(one, nil))
}

func TestOrderingFloat(t *testing.T) {
	target := mustEncode(t, KindFloat64, "2.5")

	greater, err := matcher(Greater, target)
	require.NoError(t, err)

	assert.True(t, greater(mustEncode(t, KindFloat64, "2.75").Bytes, nil))
	assert.False(t, greater(mustEncode(t, KindFloat64, "-10").Bytes, nil))
}

func TestOrderingUnsupportedForText(t *testing.T) {
	target := mustEncode(t, KindText, "abc")

	_, err := matcher(Greater, target)
	require.ErrorIs(t, err, ErrUnsupportedPredicate)

	_, err = matcher(Less, target)
	require.ErrorIs(t, err, ErrUnsupportedPredicate)

	// Exact still works for text.
	match, err := matcher(Exact, target)
	require.NoError(t, err)
	assert.True(t, match([]byte("abc"), nil))
}

func TestChangedUnchangedAreComplementary(t *testing.T) {
	target := mustEncode(t, KindInt32, "0") // literal is ignored but must parse

	changed, err := matcher(Changed, target)
	require.NoError(t, err)
	unchanged, err := matcher(Unchanged, target)
	require.NoError(t, err)

	prev := []byte{1, 2, 3, 4}
	same := []byte{1, 2, 3, 4}
	diff := []byte{1, 2, 3, 5}

	assert.False(t, changed(same, prev))
	assert.True(t, unchanged(same, prev))
	assert.True(t, changed(diff, prev))
	assert.False(t, unchanged(diff, prev))

	// Exactly one of the two succeeds for any window.
	for _, w := range [][]byte{same, diff, {0, 0, 0, 0}} {
		assert.NotEqual(t, changed(w, prev), unchanged(w, prev))
	}
}

func TestParsePredicate(t *testing.T) {
	cases := map[string]Predicate{
		"exact":     Exact,
		"":          Exact, // shell default
		"greater":   Greater,
		"less":      Less,
		"changed":   Changed,
		"unchanged": Unchanged,
	}
	for name, want := range cases {
		got, err := ParsePredicate(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParsePredicate("between")
	assert.Error(t, err)

	assert.True(t, Changed.RefineOnly())
	assert.True(t, Unchanged.RefineOnly())
	assert.False(t, Exact.RefineOnly())
	assert.False(t, Greater.RefineOnly())
}
