package scan

import (
	"memscan/process"
)

// Match is one discovered address together with the bytes seen there
// during the pass that produced it.
type Match struct {
	Address     process.MemoryAddress
	Value       TypedValue
	Description string
}

// ResultSet is the ordered collection of matches produced by one scan
// pass. It is append-only while the pass runs and immutable afterwards;
// accessors hand out copies.
type ResultSet struct {
	kind    ValueKind
	matches []Match
}

// NewResultSet builds a result set from existing matches, e.g. when
// loading a save file. The matches slice is owned by the set afterwards.
func NewResultSet(kind ValueKind, matches []Match) *ResultSet {
	return &ResultSet{kind: kind, matches: matches}
}

func newResultSet(kind ValueKind) *ResultSet {
	return &ResultSet{kind: kind}
}

// Kind returns the value kind the set was scanned with.
func (rs *ResultSet) Kind() ValueKind { return rs.kind }

// Len returns the number of matches.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.matches)
}

// At returns the i-th match in pass order.
func (rs *ResultSet) At(i int) Match { return rs.matches[i] }

// Matches returns a copy of the matches in pass order.
func (rs *ResultSet) Matches() []Match {
	if rs == nil {
		return nil
	}
	out := make([]Match, len(rs.matches))
	copy(out, rs.matches)
	return out
}

func (rs *ResultSet) append(m Match) {
	rs.matches = append(rs.matches, m)
}

// valueWidth returns the stored byte width of the set's values, zero for
// an empty set.
func (rs *ResultSet) valueWidth() int {
	if rs.Len() == 0 {
		return 0
	}
	return len(rs.matches[0].Value.Bytes)
}

// newMatch copies the window bytes out of the scan buffer and renders the
// description once.
func newMatch(addr process.MemoryAddress, kind ValueKind, window []byte) Match {
	b := make([]byte, len(window))
	copy(b, window)
	return Match{
		Address:     addr,
		Value:       TypedValue{Kind: kind, Bytes: b},
		Description: kind.Format(b),
	}
}
