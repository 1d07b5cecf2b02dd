// Package savefile persists scan result sets as plain text: four
// #-prefixed metadata lines followed by one CSV line per match,
// `id,0xADDRESS,kindOrdinal,hexbytes,description`. Reloading a file
// reconstructs the matches (address, kind, raw bytes); descriptions are
// regenerated from the decoded bytes.
package savefile

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"memscan/process"
	"memscan/scan"
)

// Title is the first metadata line of every save file.
const Title = "memscan scan results"

// Meta is the save-file header block.
type Meta struct {
	Title       string
	ProcessName string
	PID         process.ProcessID
	Timestamp   time.Time
	Count       int
}

// Save writes the result set to path, identifying the target process in
// the header.
func Save(path string, procName string, pid process.ProcessID, rs *scan.ResultSet) error {
	if rs.Len() == 0 {
		return errors.New("no results to save")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create save file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# %s\n", Title)
	fmt.Fprintf(w, "# Process: %s (PID: %d)\n", procName, pid)
	fmt.Fprintf(w, "# Timestamp: %d\n", time.Now().Unix())
	fmt.Fprintf(w, "# Results: %d\n", rs.Len())

	for i, m := range rs.Matches() {
		fmt.Fprintf(w, "%d,%s,%d,%s,%s\n",
			i, m.Address, int(m.Value.Kind), hex.EncodeToString(m.Value.Bytes), m.Description)
	}

	return w.Flush()
}

// Load reads a save file back into a result set. Matches must all carry
// the same value kind; the byte buffer of each match must fit its kind's
// width.
func Load(path string) (*scan.ResultSet, Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("failed to open save file: %w", err)
	}
	defer f.Close()

	var meta Meta
	var matches []scan.Match
	kind := scan.ValueKind(-1)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			parseMetaLine(line, &meta)
			continue
		}

		m, k, err := parseMatchLine(line)
		if err != nil {
			return nil, Meta{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if kind == scan.ValueKind(-1) {
			kind = k
		} else if k != kind {
			return nil, Meta{}, fmt.Errorf("line %d: mixed value kinds (%s and %s)", lineNo, kind, k)
		}
		matches = append(matches, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, Meta{}, err
	}

	if len(matches) == 0 {
		return nil, Meta{}, errors.New("save file contains no matches")
	}

	return scan.NewResultSet(kind, matches), meta, nil
}

func parseMetaLine(line string, meta *Meta) {
	body := strings.TrimSpace(strings.TrimPrefix(line, "#"))

	switch {
	case strings.HasPrefix(body, "Process: "):
		id := strings.TrimPrefix(body, "Process: ")
		if i := strings.LastIndex(id, " (PID: "); i >= 0 {
			meta.ProcessName = id[:i]
			pidStr := strings.TrimSuffix(id[i+len(" (PID: "):], ")")
			if pid, err := strconv.Atoi(pidStr); err == nil {
				meta.PID = process.ProcessID(pid)
			}
		} else {
			meta.ProcessName = id
		}
	case strings.HasPrefix(body, "Timestamp: "):
		if ts, err := strconv.ParseInt(strings.TrimPrefix(body, "Timestamp: "), 10, 64); err == nil {
			meta.Timestamp = time.Unix(ts, 0)
		}
	case strings.HasPrefix(body, "Results: "):
		if n, err := strconv.Atoi(strings.TrimPrefix(body, "Results: ")); err == nil {
			meta.Count = n
		}
	default:
		if meta.Title == "" {
			meta.Title = body
		}
	}
}

// parseMatchLine parses `id,0xADDRESS,kindOrdinal,hexbytes,description`.
// The description is the final field and may itself contain commas; it is
// ignored here and regenerated from the bytes.
func parseMatchLine(line string) (scan.Match, scan.ValueKind, error) {
	fields := strings.SplitN(line, ",", 5)
	if len(fields) < 4 {
		return scan.Match{}, 0, fmt.Errorf("malformed match line %q", line)
	}

	addrStr := strings.TrimPrefix(strings.ToLower(fields[1]), "0x")
	addr, err := strconv.ParseUint(addrStr, 16, 64)
	if err != nil {
		return scan.Match{}, 0, fmt.Errorf("bad address %q: %w", fields[1], err)
	}

	ordinal, err := strconv.Atoi(fields[2])
	if err != nil {
		return scan.Match{}, 0, fmt.Errorf("bad kind ordinal %q: %w", fields[2], err)
	}
	kind, err := scan.KindFromOrdinal(ordinal)
	if err != nil {
		return scan.Match{}, 0, err
	}

	raw, err := hex.DecodeString(fields[3])
	if err != nil {
		return scan.Match{}, 0, fmt.Errorf("bad hex value %q: %w", fields[3], err)
	}

	if w := kind.Width(); w > 0 && len(raw) != w {
		return scan.Match{}, 0, fmt.Errorf("%s value has %d bytes, want %d", kind, len(raw), w)
	}
	if len(raw) == 0 {
		return scan.Match{}, 0, fmt.Errorf("empty value bytes")
	}

	return scan.Match{
		Address:     process.MemoryAddress(addr),
		Value:       scan.TypedValue{Kind: kind, Bytes: raw},
		Description: kind.Format(raw),
	}, kind, nil
}
