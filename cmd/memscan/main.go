//go:build linux

// memscan is an interactive scanner for the virtual memory of running
// processes: find typed values, refine the candidates across passes,
// then read, write or watch the surviving addresses.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"memscan/config"
	"memscan/process"
	"memscan/shell"
	"memscan/table"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var pid int

	root := &cobra.Command{
		Use:   "memscan",
		Short: "Interactive process memory scanner",
		Long: `memscan attaches to a running process and scans its virtual memory
for typed values (byte, int16, int32, int64, float32, float64, text).
Successive passes refine the candidate set until the address holding a
value is isolated; it can then be read, rewritten or watched.

Start the shell and type 'help' for the command list.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			s := shell.New(cfg)
			if pid != 0 {
				if err := s.AttachPID(process.ProcessID(pid)); err != nil {
					return err
				}
			}
			return s.Run()
		},
	}

	root.Flags().IntVarP(&pid, "pid", "p", 0, "attach to this PID on startup")
	root.AddCommand(newPsCommand())

	return root
}

func newPsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ps [filter]",
		Short: "List running processes without starting the shell",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			procs, err := process.ListProcesses()
			if err != nil {
				return err
			}

			var filter string
			if len(args) == 1 {
				filter = strings.ToLower(args[0])
			}

			tbl := table.New(
				table.ColumnSpec{Header: "PID", MinWidth: 7},
				table.ColumnSpec{Header: "User", MinWidth: 8},
				table.ColumnSpec{Header: "Name"},
			)
			for _, p := range procs {
				if filter != "" && !strings.Contains(strings.ToLower(p.Name), filter) {
					continue
				}
				tbl.AddRow(strconv.Itoa(int(p.PID)), p.User, p.Name)
			}
			return tbl.Render(os.Stdout)
		},
	}
}
