package process

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessInfo contains basic information about a process
type ProcessInfo struct {
	PID    ProcessID // Process ID
	PPID   ProcessID // Parent Process ID
	Name   string    // Process name
	User   string    // User running the process
	Memory uint64    // Resident Set Size (memory usage in bytes)
}
