// Package process provides the OS-neutral types and interfaces for
// attaching to another process and working with its memory.
package process

import "errors"

var (
	// ErrAddressNotMapped is returned when a memory address is not found
	// within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open
	// process is attempted before the process has been successfully opened
	// or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")
)

// Process is the interface for interacting with an attached system process.
// Implementations live in platform packages (process_linux).
type Process interface {
	// Open attaches to the process with the given PID.
	Open(pid ProcessID) error

	// Close detaches from the process and releases resources.
	Close() error

	// PID returns the process ID, zero when not attached.
	PID() ProcessID

	// Name returns the process name, best effort.
	Name() string

	// UpdateRegions refreshes the region catalog for the process.
	UpdateRegions() error

	// Regions returns a copy of the current region catalog, ordered by
	// base address.
	Regions() ([]Region, error)

	// ReadMemory reads size bytes from the process at addr.
	ReadMemory(addr MemoryAddress, size MemorySize) ([]byte, error)

	// WriteMemory writes data to the process memory at addr.
	WriteMemory(addr MemoryAddress, data []byte) error
}
