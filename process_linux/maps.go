//go:build linux

package process_linux

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"memscan/process"
)

// readMaps reads and parses /proc/[pid]/maps into a region catalog.
func readMaps(pid int) ([]process.Region, error) {
	file, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return parseMaps(file)
}

// parseMaps parses maps-format lines, e.g.
//
//	00400000-0040b000 r-xp 00000000 08:01 1234 /usr/bin/cat
//
// Malformed lines are skipped.
func parseMaps(r io.Reader) ([]process.Region, error) {
	var regions []process.Region

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		addrRange := strings.Split(fields[0], "-")
		if len(addrRange) != 2 {
			continue
		}

		start, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseUint(addrRange[1], 16, 64)
		if err != nil || end < start {
			continue
		}

		perms := fields[1]
		path := ""
		if len(fields) >= 6 {
			path = fields[5]
		}

		regions = append(regions, process.Region{
			Base:       process.MemoryAddress(start),
			Size:       process.MemorySize(end - start),
			Readable:   len(perms) > 0 && perms[0] == 'r',
			Writable:   len(perms) > 1 && perms[1] == 'w',
			Executable: len(perms) > 2 && perms[2] == 'x',
			Path:       path,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return regions, nil
}
