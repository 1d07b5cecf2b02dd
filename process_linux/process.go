//go:build linux

// Package process_linux implements process.Process for Linux using the
// proc filesystem and the process_vm_readv/process_vm_writev syscalls.
package process_linux

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"memscan/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// LinuxProcess implements the process.Process interface for Linux systems
type LinuxProcess struct {
	pid     process.ProcessID
	name    string
	log     *logger.Logger
	regions []process.Region
	mu      sync.Mutex
}

// New creates a new, unattached LinuxProcess instance
func New() process.Process {
	return &LinuxProcess{
		log: logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open")),
	}
}

// NewWithPID creates a new LinuxProcess instance and opens it with the given PID
func NewWithPID(pid process.ProcessID) (process.Process, error) {
	p := &LinuxProcess{}
	if err := p.Open(pid); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *LinuxProcess) Open(pid process.ProcessID) error {
	procPath := fmt.Sprintf("/proc/%d", pid)
	if _, err := os.Stat(procPath); os.IsNotExist(err) {
		return fmt.Errorf("process with PID %d does not exist", pid)
	}

	name := "unknown"
	if comm, err := os.ReadFile(filepath.Join(procPath, "comm")); err == nil {
		name = strings.TrimSpace(string(comm))
	}

	p.mu.Lock()
	p.pid = pid
	p.name = name
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))
	p.mu.Unlock()

	// Load the region catalog without holding the lock to avoid deadlock
	if err := p.UpdateRegions(); err != nil {
		return fmt.Errorf("failed to read region catalog: %w", err)
	}

	p.log.Infoln("Process opened:", name)

	return nil
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.Infoln("Closing process")

	p.pid = 0
	p.name = ""
	p.regions = nil

	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return nil
}

// PID returns the process ID
func (p *LinuxProcess) PID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// Name returns the process name read from /proc/[pid]/comm at open time
func (p *LinuxProcess) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// UpdateRegions re-reads /proc/[pid]/maps and replaces the region catalog
func (p *LinuxProcess) UpdateRegions() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return process.ErrProcessNotOpen
	}

	regions, err := readMaps(int(p.pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	// Address lookups require the catalog sorted by base address
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Base < regions[j].Base
	})

	p.regions = regions
	return nil
}

func (p *LinuxProcess) Regions() ([]process.Region, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	// Copy so callers cannot mutate the catalog
	result := make([]process.Region, len(p.regions))
	copy(result, p.regions)
	return result, nil
}

// Internal helper, assumes the mutex is already locked
func (p *LinuxProcess) isValidAddressInternal(addr process.MemoryAddress) bool {
	if addr <= 0x10000 {
		return false
	}
	if addr > 0x7FFFFFFFFFFF {
		return false
	}

	i := sort.Search(len(p.regions), func(i int) bool {
		return p.regions[i].End() > addr
	})
	if i < len(p.regions) && p.regions[i].Base <= addr {
		return p.regions[i].Readable
	}
	return false
}

// Internal helper, assumes the mutex is already locked
func (p *LinuxProcess) regionForAddress(addr process.MemoryAddress) *process.Region {
	return process.RegionFor(addr, p.regions)
}
