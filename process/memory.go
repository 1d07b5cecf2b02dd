package process

import (
	"fmt"
)

// MemoryAddress represents a memory address within a process
type MemoryAddress uint64

func (addr MemoryAddress) String() string {
	return fmt.Sprintf("0x%X", uint64(addr))
}

// MemorySize represents a size of memory in bytes
type MemorySize uint

// Region describes one contiguous span of a process's virtual address
// space with uniform access protection. Region values are snapshot
// entries; callers never mutate them.
type Region struct {
	Base       MemoryAddress // Starting address of the region
	Size       MemorySize    // Size of the region in bytes
	Readable   bool
	Writable   bool
	Executable bool
	Path       string // Backing file or pseudo-path ([heap], [stack], ...), best effort
}

// End returns the first address past the region.
func (r Region) End() MemoryAddress {
	return r.Base + MemoryAddress(r.Size)
}

// Contains reports whether addr falls inside the region.
func (r Region) Contains(addr MemoryAddress) bool {
	return addr >= r.Base && addr < r.End()
}

// Perms renders the protection flags in the /proc/pid/maps style ("rw-").
func (r Region) Perms() string {
	b := [3]byte{'-', '-', '-'}
	if r.Readable {
		b[0] = 'r'
	}
	if r.Writable {
		b[1] = 'w'
	}
	if r.Executable {
		b[2] = 'x'
	}
	return string(b[:])
}

func (r Region) String() string {
	return fmt.Sprintf("%s-%s %s %s", r.Base, r.End(), r.Perms(), r.Path)
}

// RegionFor returns the region containing addr, or nil. The catalog must
// be sorted by base address.
func RegionFor(addr MemoryAddress, catalog []Region) *Region {
	for i := range catalog {
		if catalog[i].Contains(addr) {
			return &catalog[i]
		}
	}
	return nil
}
