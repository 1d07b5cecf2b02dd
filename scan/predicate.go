package scan

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPredicate is returned when a predicate cannot be
	// applied: greater/less against text, or changed/unchanged on a first
	// scan. It is raised before any memory is touched.
	ErrUnsupportedPredicate = errors.New("unsupported predicate")

	// ErrNoPriorResults is returned when a refine scan is requested
	// without a prior non-empty result set.
	ErrNoPriorResults = errors.New("no previous scan results to refine")

	// ErrWidthMismatch is returned when a refine literal's width differs
	// from the width of the previous generation's stored values.
	ErrWidthMismatch = errors.New("value width differs from previous scan")
)

// Predicate is the comparison rule deciding whether a byte window
// constitutes a match.
type Predicate int

const (
	// Exact matches byte-for-byte equality with the search value.
	Exact Predicate = iota
	// Greater matches windows that order after the search value as the
	// kind's native numeric type.
	Greater
	// Less matches windows that order before the search value.
	Less
	// Changed matches addresses whose bytes differ from the previously
	// recorded bytes. Refine passes only.
	Changed
	// Unchanged matches addresses whose bytes equal the previously
	// recorded bytes. Refine passes only.
	Unchanged
)

func (p Predicate) String() string {
	switch p {
	case Exact:
		return "exact"
	case Greater:
		return "greater"
	case Less:
		return "less"
	case Changed:
		return "changed"
	case Unchanged:
		return "unchanged"
	default:
		return fmt.Sprintf("predicate(%d)", int(p))
	}
}

// ParsePredicate parses a predicate name as used by the shell.
func ParsePredicate(s string) (Predicate, error) {
	switch s {
	case "exact", "":
		return Exact, nil
	case "greater":
		return Greater, nil
	case "less":
		return Less, nil
	case "changed":
		return Changed, nil
	case "unchanged":
		return Unchanged, nil
	default:
		return 0, fmt.Errorf("unknown predicate %q", s)
	}
}

// RefineOnly reports whether the predicate requires a previous generation
// to compare against.
func (p Predicate) RefineOnly() bool {
	return p == Changed || p == Unchanged
}

// matcher builds the window test for one scan pass. The returned function
// receives the candidate window and, during a refine pass, the bytes
// previously recorded for that address. Applicability is checked here,
// once, before any memory access.
func matcher(p Predicate, target TypedValue) (func(window, prev []byte) bool, error) {
	c := kindCodec(target.Kind)

	switch p {
	case Exact:
		return func(window, _ []byte) bool {
			return bytes.Equal(window, target.Bytes)
		}, nil
	case Greater, Less:
		if !c.orderable() {
			return nil, fmt.Errorf("%w: %s is not defined for %s values", ErrUnsupportedPredicate, p, target.Kind)
		}
		if p == Greater {
			return func(window, _ []byte) bool {
				return c.less(target.Bytes, window)
			}, nil
		}
		return func(window, _ []byte) bool {
			return c.less(window, target.Bytes)
		}, nil
	case Changed:
		return func(window, prev []byte) bool {
			return !bytes.Equal(window, prev)
		}, nil
	case Unchanged:
		return func(window, prev []byte) bool {
			return bytes.Equal(window, prev)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPredicate, p)
	}
}
