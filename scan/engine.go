package scan

import (
	"fmt"

	"memscan/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// MaxResults is the hard ceiling on matches per scan pass. A pass stops
// as soon as it is reached.
const MaxResults = 10000

// Reader is the single-address read primitive the core needs from the OS
// layer. Reads are best effort: a failure skips the address, it never
// aborts a whole pass.
type Reader interface {
	ReadMemory(addr process.MemoryAddress, size process.MemorySize) ([]byte, error)
}

// Memory is the view of an attached process the scan engine needs.
// process.Process satisfies it.
type Memory interface {
	Reader

	// Regions returns the region catalog, consumed once per first scan.
	Regions() ([]process.Region, error)
}

// Engine owns the current and previous result generations and runs scan
// passes against one attached process. It is designed for single-caller,
// single-session use: one target, one in-flight scan at a time.
type Engine struct {
	mem  Memory
	log  *logger.Logger
	cur  *ResultSet
	prev *ResultSet
}

// NewEngine creates a scan engine over the given process memory.
func NewEngine(mem Memory) *Engine {
	return &Engine{
		mem: mem,
		log: logger.NewLogger(coloransi.Color(coloransi.Green, coloransi.ColorOrange, "scan-engine")),
	}
}

// Results returns the current result generation, nil before the first scan.
func (e *Engine) Results() *ResultSet { return e.cur }

// Count returns the size of the current result generation.
func (e *Engine) Count() int { return e.cur.Len() }

// Clear discards all result generations, e.g. on detach.
func (e *Engine) Clear() {
	e.cur = nil
	e.prev = nil
}

// Restore replaces the current generation with a loaded result set.
func (e *Engine) Restore(rs *ResultSet) {
	e.cur = rs
	e.prev = nil
}

// FirstScan encodes the literal and sweeps every readable region of the
// catalog, in catalog order, testing the predicate at every byte offset.
// Unreadable or vanished regions are skipped silently. The pass stops
// once MaxResults matches have accumulated.
func (e *Engine) FirstScan(kind ValueKind, literal string, pred Predicate) (*ResultSet, error) {
	if pred.RefineOnly() {
		return nil, fmt.Errorf("%w: %s requires a previous scan", ErrUnsupportedPredicate, pred)
	}

	target, err := Encode(kind, literal)
	if err != nil {
		return nil, err
	}
	match, err := matcher(pred, target)
	if err != nil {
		return nil, err
	}

	regions, err := e.mem.Regions()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate regions: %w", err)
	}

	w := widthFor(kind, literal)
	cur := newResultSet(kind)

	e.log.Infoln("Starting scan for", kind.String(), "value", literal, "predicate", pred.String())

scanning:
	for _, region := range regions {
		if !region.Readable {
			continue
		}

		data, err := e.mem.ReadMemory(region.Base, region.Size)
		if err != nil {
			// Regions can be unmapped between enumeration and read
			e.log.Debugln("Skipping region at", region.Base.String(), ":", err)
			continue
		}

		// A region shorter than the window has no candidate offsets
		if len(data) < w {
			continue
		}

		for off := 0; off <= len(data)-w; off++ {
			if !match(data[off:off+w], nil) {
				continue
			}
			cur.append(newMatch(region.Base+process.MemoryAddress(off), kind, data[off:off+w]))
			if cur.Len() >= MaxResults {
				e.log.Infoln("Result ceiling reached, stopping scan")
				break scanning
			}
		}
	}

	e.prev = nil
	e.cur = cur
	e.log.Infoln("Scan complete, found", cur.Len(), "matches")
	return cur, nil
}

// NextScan refines the current generation: the prior current moves into
// the previous slot, every prior address is re-read at the search width,
// and survivors form the new current generation. Addresses that can no
// longer be read are dropped silently. Changed/unchanged compare the
// fresh bytes against the bytes recorded for the match in the prior pass.
func (e *Engine) NextScan(kind ValueKind, literal string, pred Predicate) (*ResultSet, error) {
	if e.cur.Len() == 0 {
		return nil, ErrNoPriorResults
	}

	target, err := Encode(kind, literal)
	if err != nil {
		return nil, err
	}
	match, err := matcher(pred, target)
	if err != nil {
		return nil, err
	}

	w := widthFor(kind, literal)
	if pw := e.cur.valueWidth(); pw != w {
		return nil, fmt.Errorf("%w: search width %d, previous width %d", ErrWidthMismatch, w, pw)
	}

	// Generation handoff: the old current moves, it is not copied. The new
	// current replaces it only when the pass finishes.
	prev := e.cur
	e.prev = prev
	cur := newResultSet(kind)

	e.log.Infoln("Refining", prev.Len(), "addresses with predicate", pred.String())

	for _, m := range prev.matches {
		data, err := e.mem.ReadMemory(m.Address, process.MemorySize(w))
		if err != nil || len(data) < w {
			// Address may have been unmapped since the previous pass
			continue
		}
		if !match(data[:w], m.Value.Bytes) {
			continue
		}
		cur.append(newMatch(m.Address, kind, data[:w]))
		if cur.Len() >= MaxResults {
			e.log.Infoln("Result ceiling reached, stopping refine")
			break
		}
	}

	e.cur = cur
	e.prev = nil
	e.log.Infoln("Refine complete,", cur.Len(), "of", prev.Len(), "matches remain")
	return cur, nil
}
