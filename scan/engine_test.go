package scan

import (
	"errors"
	"testing"

	"memscan/process"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMemory is a synthetic process: a handful of regions backed by byte
// slices, with per-region read failure injection.
type fakeMemory struct {
	regions    []process.Region
	buffers    map[process.MemoryAddress][]byte // keyed by region base
	failReads  map[process.MemoryAddress]bool   // fail any read touching this region
	regionsErr error
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{
		buffers:   make(map[process.MemoryAddress][]byte),
		failReads: make(map[process.MemoryAddress]bool),
	}
}

func (m *fakeMemory) addRegion(base process.MemoryAddress, data []byte, readable bool) {
	m.regions = append(m.regions, process.Region{
		Base:     base,
		Size:     process.MemorySize(len(data)),
		Readable: readable,
		Writable: true,
	})
	m.buffers[base] = data
}

func (m *fakeMemory) Regions() ([]process.Region, error) {
	if m.regionsErr != nil {
		return nil, m.regionsErr
	}
	out := make([]process.Region, len(m.regions))
	copy(out, m.regions)
	return out, nil
}

func (m *fakeMemory) ReadMemory(addr process.MemoryAddress, size process.MemorySize) ([]byte, error) {
	for _, r := range m.regions {
		if !r.Contains(addr) {
			continue
		}
		if m.failReads[r.Base] {
			return nil, errors.New("injected read failure")
		}
		buf := m.buffers[r.Base]
		off := int(addr - r.Base)
		if off+int(size) > len(buf) {
			return nil, process.ErrAddressNotMapped
		}
		out := make([]byte, size)
		copy(out, buf[off:off+int(size)])
		return out, nil
	}
	return nil, process.ErrAddressNotMapped
}

// poke rewrites bytes inside a fake region, simulating the target process
// changing a value between passes.
func (m *fakeMemory) poke(addr process.MemoryAddress, b []byte) {
	for _, r := range m.regions {
		if r.Contains(addr) {
			copy(m.buffers[r.Base][addr-r.Base:], b)
			return
		}
	}
	panic("poke outside any region")
}

func int32Bytes(t *testing.T, literal string) []byte {
	t.Helper()
	return mustEncode(t, KindInt32, literal).Bytes
}

func TestFirstScanFindsInt32(t *testing.T) {
	// Scenario: value 100 as little-endian int32 at the region base,
	// the rest of the 16-byte region zero.
	mem := newFakeMemory()
	data := make([]byte, 16)
	copy(data, int32Bytes(t, "100"))
	mem.addRegion(0x1000, data, true)

	e := NewEngine(mem)
	rs, err := e.FirstScan(KindInt32, "100", Exact)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())

	m := rs.At(0)
	assert.Equal(t, process.MemoryAddress(0x1000), m.Address)
	assert.Equal(t, "100", m.Description)
	assert.Equal(t, int32Bytes(t, "100"), m.Value.Bytes)
}

func TestFirstScanFindsText(t *testing.T) {
	mem := newFakeMemory()
	data := make([]byte, 32)
	copy(data[8:], "HELLO")
	mem.addRegion(0x2000, data, true)

	e := NewEngine(mem)
	rs, err := e.FirstScan(KindText, "HELLO", Exact)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	assert.Equal(t, process.MemoryAddress(0x2008), rs.At(0).Address)
	assert.Equal(t, `"HELLO"`, rs.At(0).Description)
}

func TestFirstScanCatalogOrderAndOffsets(t *testing.T) {
	// Two regions, deliberately out of address order in the catalog:
	// result order must follow catalog order, offsets ascending within
	// each region.
	mem := newFakeMemory()
	high := make([]byte, 8)
	high[0], high[3] = 7, 7
	low := make([]byte, 8)
	low[5] = 7
	mem.addRegion(0x9000, high, true)
	mem.addRegion(0x1000, low, true)

	e := NewEngine(mem)
	rs, err := e.FirstScan(KindByte, "7", Exact)
	require.NoError(t, err)
	require.Equal(t, 3, rs.Len())
	assert.Equal(t, process.MemoryAddress(0x9000), rs.At(0).Address)
	assert.Equal(t, process.MemoryAddress(0x9003), rs.At(1).Address)
	assert.Equal(t, process.MemoryAddress(0x1005), rs.At(2).Address)
}

func TestFirstScanSkipsUnreadableAndFailedRegions(t *testing.T) {
	mem := newFakeMemory()
	mem.addRegion(0x1000, int32Bytes(t, "100"), false) // not readable
	mem.addRegion(0x2000, int32Bytes(t, "100"), true)  // read will fail
	mem.failReads[0x2000] = true
	mem.addRegion(0x3000, int32Bytes(t, "100"), true)

	e := NewEngine(mem)
	rs, err := e.FirstScan(KindInt32, "100", Exact)
	require.NoError(t, err, "per-region failures must not abort the scan")
	require.Equal(t, 1, rs.Len())
	assert.Equal(t, process.MemoryAddress(0x3000), rs.At(0).Address)
}

func TestFirstScanRegionSmallerThanWindow(t *testing.T) {
	mem := newFakeMemory()
	mem.addRegion(0x1000, []byte{0x64, 0x00}, true) // 2 bytes, window is 4

	e := NewEngine(mem)
	rs, err := e.FirstScan(KindInt32, "100", Exact)
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
}

func TestFirstScanCeiling(t *testing.T) {
	// More than MaxResults matching offsets in the first region; the
	// second region must never be reached.
	mem := newFakeMemory()
	mem.addRegion(0x1000, make([]byte, MaxResults+5000), true)
	second := []byte{0, 0, 0, 0}
	mem.addRegion(0x100000, second, true)

	e := NewEngine(mem)
	rs, err := e.FirstScan(KindByte, "0", Exact)
	require.NoError(t, err)
	require.Equal(t, MaxResults, rs.Len())

	last := rs.At(rs.Len() - 1)
	assert.Less(t, uint64(last.Address), uint64(0x100000), "scan must stop before later regions")
}

func TestFirstScanRejectsRefinePredicates(t *testing.T) {
	e := NewEngine(newFakeMemory())

	_, err := e.FirstScan(KindInt32, "100", Changed)
	require.ErrorIs(t, err, ErrUnsupportedPredicate)

	_, err = e.FirstScan(KindInt32, "100", Unchanged)
	require.ErrorIs(t, err, ErrUnsupportedPredicate)
}

func TestFirstScanRejectsTextOrdering(t *testing.T) {
	mem := newFakeMemory()
	mem.addRegion(0x1000, []byte("HELLO"), true)
	mem.failReads[0x1000] = true // prove no memory is touched

	e := NewEngine(mem)
	_, err := e.FirstScan(KindText, "HELLO", Greater)
	require.ErrorIs(t, err, ErrUnsupportedPredicate)
}

func TestFirstScanBadLiteral(t *testing.T) {
	e := NewEngine(newFakeMemory())

	_, err := e.FirstScan(KindInt32, "abc", Exact)
	var encErr *EncodeError
	require.ErrorAs(t, err, &encErr)
	assert.Nil(t, e.Results(), "a failed scan must not create a generation")
}

func TestNextScanGreaterFilters(t *testing.T) {
	// Prior generation: addresses holding 50 and 150; refining with
	// greater 100 keeps only the 150 address.
	mem := newFakeMemory()
	buf := make([]byte, 16)
	copy(buf[0:], int32Bytes(t, "50"))
	copy(buf[8:], int32Bytes(t, "150"))
	mem.addRegion(0x1000, buf, true)

	e := NewEngine(mem)
	e.Restore(NewResultSet(KindInt32, []Match{
		newMatch(0x1000, KindInt32, int32Bytes(t, "50")),
		newMatch(0x1008, KindInt32, int32Bytes(t, "150")),
	}))

	rs, err := e.NextScan(KindInt32, "100", Greater)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	assert.Equal(t, process.MemoryAddress(0x1008), rs.At(0).Address)
	assert.Equal(t, "150", rs.At(0).Description)
}

func TestNextScanRequiresPriorResults(t *testing.T) {
	mem := newFakeMemory()
	mem.addRegion(0x1000, int32Bytes(t, "100"), true)

	e := NewEngine(mem)
	_, err := e.NextScan(KindInt32, "100", Exact)
	require.ErrorIs(t, err, ErrNoPriorResults)
	assert.Nil(t, e.Results(), "failed refine must not create a generation")
}

func TestNextScanIsSubsetOfPrevious(t *testing.T) {
	mem := newFakeMemory()
	buf := make([]byte, 64)
	for i := 0; i < 64; i += 4 {
		copy(buf[i:], int32Bytes(t, "100"))
	}
	mem.addRegion(0x1000, buf, true)

	e := NewEngine(mem)
	first, err := e.FirstScan(KindInt32, "100", Exact)
	require.NoError(t, err)

	prevAddrs := make(map[process.MemoryAddress]bool)
	for _, m := range first.Matches() {
		prevAddrs[m.Address] = true
	}

	// Change one value so the refine drops it.
	mem.poke(0x1000, int32Bytes(t, "999"))

	second, err := e.NextScan(KindInt32, "100", Exact)
	require.NoError(t, err)
	assert.Equal(t, first.Len()-1, second.Len())
	for _, m := range second.Matches() {
		assert.True(t, prevAddrs[m.Address], "refine must never introduce new addresses")
	}
}

func TestNextScanChangedUnchanged(t *testing.T) {
	mem := newFakeMemory()
	buf := make([]byte, 16)
	copy(buf[0:], int32Bytes(t, "100"))
	copy(buf[8:], int32Bytes(t, "100"))
	mem.addRegion(0x1000, buf, true)

	e := NewEngine(mem)
	first, err := e.FirstScan(KindInt32, "100", Exact)
	require.NoError(t, err)
	require.Equal(t, 2, first.Len())

	mem.poke(0x1008, int32Bytes(t, "250"))

	// The literal is ignored for changed but must still parse.
	rs, err := e.NextScan(KindInt32, "0", Changed)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	assert.Equal(t, process.MemoryAddress(0x1008), rs.At(0).Address)
	assert.Equal(t, "250", rs.At(0).Description, "a refined match carries the freshly read bytes")

	// Rebuild the two-address generation and check the complement.
	e.Restore(first)
	rs, err = e.NextScan(KindInt32, "0", Unchanged)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	assert.Equal(t, process.MemoryAddress(0x1000), rs.At(0).Address)
}

func TestNextScanDropsUnreadableAddresses(t *testing.T) {
	mem := newFakeMemory()
	mem.addRegion(0x1000, int32Bytes(t, "100"), true)
	mem.addRegion(0x2000, int32Bytes(t, "100"), true)

	e := NewEngine(mem)
	first, err := e.FirstScan(KindInt32, "100", Exact)
	require.NoError(t, err)
	require.Equal(t, 2, first.Len())

	// The first region vanishes between passes.
	mem.failReads[0x1000] = true

	rs, err := e.NextScan(KindInt32, "100", Exact)
	require.NoError(t, err, "per-address failures must not abort the refine")
	require.Equal(t, 1, rs.Len())
	assert.Equal(t, process.MemoryAddress(0x2000), rs.At(0).Address)
}

func TestNextScanWidthMismatchFailsFast(t *testing.T) {
	mem := newFakeMemory()
	mem.addRegion(0x1000, int32Bytes(t, "100"), true)

	e := NewEngine(mem)
	first, err := e.FirstScan(KindInt32, "100", Exact)
	require.NoError(t, err)
	require.Equal(t, 1, first.Len())

	_, err = e.NextScan(KindInt16, "100", Exact)
	require.ErrorIs(t, err, ErrWidthMismatch)

	// The generation the refine started from must be intact.
	assert.Equal(t, 1, e.Count())
	assert.Equal(t, process.MemoryAddress(0x1000), e.Results().At(0).Address)
}

func TestClearDiscardsResults(t *testing.T) {
	mem := newFakeMemory()
	mem.addRegion(0x1000, int32Bytes(t, "100"), true)

	e := NewEngine(mem)
	_, err := e.FirstScan(KindInt32, "100", Exact)
	require.NoError(t, err)
	require.Equal(t, 1, e.Count())

	e.Clear()
	assert.Equal(t, 0, e.Count())
	assert.Nil(t, e.Results())
}

func TestResultSetViewsAreCopies(t *testing.T) {
	mem := newFakeMemory()
	mem.addRegion(0x1000, int32Bytes(t, "100"), true)

	e := NewEngine(mem)
	rs, err := e.FirstScan(KindInt32, "100", Exact)
	require.NoError(t, err)

	view := rs.Matches()
	view[0].Address = 0xDEAD
	assert.Equal(t, process.MemoryAddress(0x1000), rs.At(0).Address)
}
