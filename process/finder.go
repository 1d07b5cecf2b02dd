package process

import (
	"fmt"
	"os"

	gops "github.com/shirou/gopsutil/v4/process"
)

// ListProcesses returns information about all running processes, ordered
// as the OS reports them. Fields that cannot be read (permissions, races
// with process exit) are left at their zero value.
func ListProcesses() ([]ProcessInfo, error) {
	procs, err := gops.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	self := os.Getpid()
	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		if int(p.Pid) == self {
			continue
		}

		info := ProcessInfo{PID: ProcessID(p.Pid)}
		if name, err := p.Name(); err == nil {
			info.Name = name
		}
		if ppid, err := p.Ppid(); err == nil {
			info.PPID = ProcessID(ppid)
		}
		if user, err := p.Username(); err == nil {
			info.User = user
		}
		if mem, err := p.MemoryInfo(); err == nil && mem != nil {
			info.Memory = mem.RSS
		}
		out = append(out, info)
	}

	return out, nil
}

// FindByName returns all processes whose name equals name. Match is
// case-sensitive, like pidof.
func FindByName(name string) ([]ProcessInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("empty process name")
	}

	all, err := ListProcesses()
	if err != nil {
		return nil, err
	}

	var out []ProcessInfo
	for _, info := range all {
		if info.Name == name {
			out = append(out, info)
		}
	}
	return out, nil
}

// Exists reports whether a process with the given PID is running.
func Exists(pid ProcessID) bool {
	ok, err := gops.PidExists(int32(pid))
	return err == nil && ok
}
