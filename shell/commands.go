//go:build linux

package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"memscan/hexdump"
	"memscan/process"
	"memscan/savefile"
	"memscan/scan"
	"memscan/table"
)

// errExit signals the REPL loop to terminate cleanly.
var errExit = errors.New("exit")

type command struct {
	name    string
	aliases []string
	usage   string
	help    string
	fn      func(*Shell, []string) error
}

// commands is the dispatch table, in help display order.
var commands = []command{
	{"help", nil, "help", "Show this help message", (*Shell).cmdHelp},
	{"ps", []string{"processes"}, "ps [filter]", "List running processes, optionally filtered by name", (*Shell).cmdPs},
	{"attach", nil, "attach <pid|name>", "Attach to a process by PID or unique name", (*Shell).cmdAttach},
	{"detach", nil, "detach", "Detach from the current process and clear results", (*Shell).cmdDetach},
	{"info", nil, "info", "Show the attached process and session state", (*Shell).cmdInfo},
	{"regions", nil, "regions", "List the memory regions of the attached process", (*Shell).cmdRegions},
	{"scan", nil, "scan <type> <value> [cmp]", "Start a new scan (cmp: exact, greater, less)", (*Shell).cmdScan},
	{"next", nil, "next <type> <value> [cmp]", "Refine the current results (cmp adds changed, unchanged)", (*Shell).cmdNext},
	{"results", nil, "results [limit]", "Show the current matches", (*Shell).cmdResults},
	{"clear", nil, "clear", "Discard the current results", (*Shell).cmdClear},
	{"read", nil, "read <addr> <type>", "Read and display one value", (*Shell).cmdRead},
	{"write", nil, "write <addr> <type> <value>", "Write one value", (*Shell).cmdWrite},
	{"dump", nil, "dump <addr> [length]", "Hex dump memory at an address", (*Shell).cmdDump},
	{"watch", nil, "watch <addr> <type> [ms]", "Poll an address and report changes, Ctrl+C stops", (*Shell).cmdWatch},
	{"save", nil, "save <file>", "Save the current results to a file", (*Shell).cmdSave},
	{"load", nil, "load <file>", "Load results from a file into the session", (*Shell).cmdLoad},
	{"exit", []string{"quit"}, "exit", "Leave the shell", (*Shell).cmdExit},
}

func (s *Shell) dispatch(name string, args []string) error {
	for i := range commands {
		c := &commands[i]
		if c.name == name {
			return c.fn(s, args)
		}
		for _, alias := range c.aliases {
			if alias == name {
				return c.fn(s, args)
			}
		}
	}
	return fmt.Errorf("unknown command %q (try 'help')", name)
}

func (s *Shell) cmdHelp(args []string) error {
	tbl := table.New(
		table.ColumnSpec{Header: "Command", MinWidth: 28},
		table.ColumnSpec{Header: "Description"},
	)
	for _, c := range commands {
		tbl.AddRow(c.usage, c.help)
	}
	if err := tbl.Render(s.out); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "\nTypes: byte, int16 (short), int32 (int), int64 (long), float32 (float), float64 (double), text (string)")
	fmt.Fprintln(s.out, "Addresses are hex with a 0x prefix.")
	return nil
}

func (s *Shell) cmdExit(args []string) error {
	return errExit
}

func (s *Shell) cmdPs(args []string) error {
	procs, err := process.ListProcesses()
	if err != nil {
		return err
	}

	var filter string
	if len(args) > 0 {
		filter = strings.ToLower(args[0])
	}

	tbl := table.New(
		table.ColumnSpec{Header: "PID", MinWidth: 7},
		table.ColumnSpec{Header: "PPID", MinWidth: 7},
		table.ColumnSpec{Header: "User", MinWidth: 8},
		table.ColumnSpec{Header: "RSS", MinWidth: 10},
		table.ColumnSpec{Header: "Name"},
	)
	for _, p := range procs {
		if filter != "" && !strings.Contains(strings.ToLower(p.Name), filter) {
			continue
		}
		tbl.AddRow(
			strconv.Itoa(int(p.PID)),
			strconv.Itoa(int(p.PPID)),
			p.User,
			formatBytes(p.Memory),
			p.Name,
		)
	}
	if tbl.Len() == 0 {
		fmt.Fprintln(s.out, "No matching processes.")
		return nil
	}
	return tbl.Render(s.out)
}

func (s *Shell) cmdAttach(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: attach <pid|name>")
	}

	if pid, err := strconv.Atoi(args[0]); err == nil {
		return s.attach(process.ProcessID(pid))
	}

	candidates, err := process.FindByName(args[0])
	if err != nil {
		return err
	}
	switch len(candidates) {
	case 0:
		return fmt.Errorf("no process matches %q", args[0])
	case 1:
		return s.attach(candidates[0].PID)
	default:
		fmt.Fprintf(s.out, "%d processes match %q:\n", len(candidates), args[0])
		for _, c := range candidates {
			fmt.Fprintf(s.out, "  %d  %s\n", c.PID, c.Name)
		}
		return fmt.Errorf("ambiguous name, attach by PID")
	}
}

func (s *Shell) cmdDetach(args []string) error {
	if s.proc == nil {
		return fmt.Errorf("not attached")
	}
	s.detach()
	return nil
}

func (s *Shell) cmdInfo(args []string) error {
	if s.proc == nil {
		fmt.Fprintln(s.out, "Not attached. Use 'ps' to find a target and 'attach <pid>'.")
		return nil
	}

	fmt.Fprintf(s.out, "Process:  %s (PID %d)\n", s.proc.Name(), s.proc.PID())
	if !process.Exists(s.proc.PID()) {
		fmt.Fprintln(s.out, "Warning: process no longer exists")
	}

	regions, err := s.proc.Regions()
	if err != nil {
		return err
	}
	var readable, writable int
	var total uint64
	for _, r := range regions {
		if r.Readable {
			readable++
			total += uint64(r.Size)
		}
		if r.Writable {
			writable++
		}
	}
	fmt.Fprintf(s.out, "Regions:  %d total, %d readable, %d writable, %s readable bytes\n",
		len(regions), readable, writable, formatBytes(total))

	if rs := s.engine.Results(); rs.Len() > 0 {
		fmt.Fprintf(s.out, "Results:  %d %s matches\n", rs.Len(), rs.Kind())
	} else {
		fmt.Fprintln(s.out, "Results:  none")
	}
	return nil
}

func (s *Shell) cmdRegions(args []string) error {
	if err := s.requireAttached(); err != nil {
		return err
	}
	if err := s.proc.UpdateRegions(); err != nil {
		return err
	}
	regions, err := s.proc.Regions()
	if err != nil {
		return err
	}

	tbl := table.New(
		table.ColumnSpec{Header: "Base", MinWidth: 14},
		table.ColumnSpec{Header: "End", MinWidth: 14},
		table.ColumnSpec{Header: "Size", MinWidth: 10},
		table.ColumnSpec{Header: "Perms", MinWidth: 5},
		table.ColumnSpec{Header: "Path"},
	)
	for _, r := range regions {
		tbl.AddRow(r.Base.String(), r.End().String(), formatBytes(uint64(r.Size)), r.Perms(), r.Path)
	}
	return tbl.Render(s.out)
}

func (s *Shell) cmdScan(args []string) error {
	if err := s.requireAttached(); err != nil {
		return err
	}
	kind, literal, pred, err := parseScanArgs(args, "scan")
	if err != nil {
		return err
	}

	// Regions may have changed since attach or the last scan
	if err := s.proc.UpdateRegions(); err != nil {
		return err
	}

	rs, err := s.engine.FirstScan(kind, literal, pred)
	if err != nil {
		return err
	}
	s.reportScan(rs)
	return nil
}

func (s *Shell) cmdNext(args []string) error {
	if err := s.requireAttached(); err != nil {
		return err
	}
	kind, literal, pred, err := parseScanArgs(args, "next")
	if err != nil {
		return err
	}

	rs, err := s.engine.NextScan(kind, literal, pred)
	if err != nil {
		return err
	}
	s.reportScan(rs)
	return nil
}

func (s *Shell) reportScan(rs *scan.ResultSet) {
	switch {
	case rs.Len() == 0:
		fmt.Fprintln(s.out, "No matches.")
	case rs.Len() >= scan.MaxResults:
		fmt.Fprintf(s.out, "%d matches (ceiling reached, refine to narrow down).\n", rs.Len())
	default:
		fmt.Fprintf(s.out, "%d matches.\n", rs.Len())
	}
}

func (s *Shell) cmdResults(args []string) error {
	if s.engine == nil || s.engine.Count() == 0 {
		fmt.Fprintln(s.out, "No results. Run a scan first.")
		return nil
	}

	limit := s.cfg.DisplayLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("bad limit %q", args[0])
		}
		limit = n
	}

	rs := s.engine.Results()
	tbl := table.New(
		table.ColumnSpec{Header: "ID", MinWidth: 5},
		table.ColumnSpec{Header: "Address", MinWidth: 14},
		table.ColumnSpec{Header: "Value"},
	)
	shown := rs.Len()
	if shown > limit {
		shown = limit
	}
	for i := 0; i < shown; i++ {
		m := rs.At(i)
		tbl.AddRow(strconv.Itoa(i), m.Address.String(), m.Description)
	}
	if err := tbl.Render(s.out); err != nil {
		return err
	}
	if rs.Len() > shown {
		fmt.Fprintf(s.out, "... %d more (results %d to show them)\n", rs.Len()-shown, rs.Len())
	}
	return nil
}

func (s *Shell) cmdClear(args []string) error {
	if s.engine == nil {
		return nil
	}
	s.engine.Clear()
	fmt.Fprintln(s.out, "Results cleared.")
	return nil
}

func (s *Shell) cmdRead(args []string) error {
	if err := s.requireAttached(); err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: read <addr> <type>")
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	kind, err := scan.ParseKind(args[1])
	if err != nil {
		return err
	}

	w := kind.Width()
	if w == 0 {
		w = scan.TextWatchWidth
	}
	data, err := s.proc.ReadMemory(addr, process.MemorySize(w))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s = %s\n", addr, kind.Format(data))
	return nil
}

func (s *Shell) cmdWrite(args []string) error {
	if err := s.requireAttached(); err != nil {
		return err
	}
	if len(args) != 3 {
		return fmt.Errorf("usage: write <addr> <type> <value>")
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	kind, err := scan.ParseKind(args[1])
	if err != nil {
		return err
	}
	value, err := scan.Encode(kind, args[2])
	if err != nil {
		return err
	}

	if err := s.proc.WriteMemory(addr, value.Bytes); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Wrote %s to %s\n", value, addr)
	return nil
}

func (s *Shell) cmdDump(args []string) error {
	if err := s.requireAttached(); err != nil {
		return err
	}
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: dump <addr> [length]")
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	length := 256
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("bad length %q", args[1])
		}
		length = n
	}

	data, err := s.proc.ReadMemory(addr, process.MemorySize(length))
	if err != nil {
		return err
	}
	regions, err := s.proc.Regions()
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, hexdump.DumpAt(data, addr, regions))
	return nil
}

func (s *Shell) cmdWatch(args []string) error {
	if err := s.requireAttached(); err != nil {
		return err
	}
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: watch <addr> <type> [interval-ms]")
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	kind, err := scan.ParseKind(args[1])
	if err != nil {
		return err
	}
	interval := time.Duration(s.cfg.WatchIntervalMillis) * time.Millisecond
	if len(args) == 3 {
		ms, err := strconv.Atoi(args[2])
		if err != nil || ms <= 0 {
			return fmt.Errorf("bad interval %q", args[2])
		}
		interval = time.Duration(ms) * time.Millisecond
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintf(s.out, "Watching %s as %s every %s. Ctrl+C stops.\n", addr, kind, interval)
	err = scan.Watch(ctx, s.proc, addr, kind, interval, func(ev scan.ChangeEvent) {
		fmt.Fprintf(s.out, "%s  %s: %s -> %s\n",
			time.Now().Format("15:04:05"), ev.Address, kind.Format(ev.Old), kind.Format(ev.New))
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Watch stopped.")
	return nil
}

func (s *Shell) cmdSave(args []string) error {
	if err := s.requireAttached(); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: save <file>")
	}
	rs := s.engine.Results()
	if rs.Len() == 0 {
		return fmt.Errorf("no results to save")
	}

	if err := savefile.Save(args[0], s.proc.Name(), s.proc.PID(), rs); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Saved %d matches to %s\n", rs.Len(), args[0])
	return nil
}

func (s *Shell) cmdLoad(args []string) error {
	if err := s.requireAttached(); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: load <file>")
	}

	rs, meta, err := savefile.Load(args[0])
	if err != nil {
		return err
	}

	s.engine.Restore(rs)
	fmt.Fprintf(s.out, "Loaded %d %s matches (saved from %s, PID %d)\n",
		rs.Len(), rs.Kind(), meta.ProcessName, meta.PID)
	if meta.PID != s.proc.PID() {
		fmt.Fprintln(s.out, "Warning: results were saved from a different process; addresses may not be valid.")
	}
	return nil
}

// parseScanArgs parses `<type> <value> [cmp]` for scan and next.
func parseScanArgs(args []string, cmd string) (scan.ValueKind, string, scan.Predicate, error) {
	if len(args) < 2 || len(args) > 3 {
		return 0, "", 0, fmt.Errorf("usage: %s <type> <value> [cmp]", cmd)
	}
	kind, err := scan.ParseKind(args[0])
	if err != nil {
		return 0, "", 0, err
	}
	predName := ""
	if len(args) == 3 {
		predName = args[2]
	}
	pred, err := scan.ParsePredicate(predName)
	if err != nil {
		return 0, "", 0, err
	}
	return kind, args[1], pred, nil
}

// parseAddress accepts 0x-prefixed hex or plain decimal.
func parseAddress(s string) (process.MemoryAddress, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad address %q", s)
	}
	return process.MemoryAddress(v), nil
}

// formatBytes renders a byte count in a short human unit.
func formatBytes(n uint64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
