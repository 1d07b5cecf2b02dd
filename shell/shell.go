//go:build linux

// Package shell implements the interactive memscan session: a readline
// REPL dispatching to attach/scan/refine/read/write/watch commands
// against one target process at a time.
package shell

import (
	"fmt"
	"io"
	"os"
	"strings"

	gcolor "github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/chzyer/readline"

	"memscan/coloransi"
	"memscan/config"
	"memscan/process"
	"memscan/process_linux"
	"memscan/scan"
)

// Shell holds the session state: the attached process, its scan engine
// and the readline instance driving the loop.
type Shell struct {
	cfg    *config.Config
	log    *logger.Logger
	out    io.Writer
	proc   process.Process
	engine *scan.Engine
	rl     *readline.Instance
}

// New creates a shell session with the given configuration.
func New(cfg *config.Config) *Shell {
	if cfg == nil {
		cfg = config.Default()
	}
	coloransi.Enabled = !cfg.NoColor

	return &Shell{
		cfg: cfg,
		log: logger.NewLogger(gcolor.Color(gcolor.Green, gcolor.ColorOrange, "shell")),
		out: os.Stdout,
	}
}

// AttachPID attaches the session to the given process before the loop
// starts, for the --pid flag.
func (s *Shell) AttachPID(pid process.ProcessID) error {
	return s.attach(pid)
}

// Run drives the REPL until exit, Ctrl+D or a readline failure.
func (s *Shell) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     s.cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	s.rl = rl
	defer rl.Close()

	s.log.Debugln("Session started, history at", s.cfg.HistoryFile)

	fmt.Fprintln(s.out, "memscan interactive shell. Type 'help' for commands, 'exit' to quit.")
	if s.proc != nil {
		fmt.Fprintf(s.out, "Attached to %s (PID %d)\n", s.proc.Name(), s.proc.PID())
	}

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(s.out)
				break
			}
			return fmt.Errorf("readline error: %w", err)
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if err := s.dispatch(fields[0], fields[1:]); err != nil {
			if err == errExit {
				break
			}
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}

		rl.SetPrompt(s.prompt())
	}

	if s.proc != nil {
		s.proc.Close()
	}
	return nil
}

// prompt reflects the attachment state.
func (s *Shell) prompt() string {
	if s.proc == nil {
		return coloransi.Foreground(coloransi.Yellow, "memscan") + "> "
	}
	label := fmt.Sprintf("%s(%d)", s.proc.Name(), s.proc.PID())
	return coloransi.Foreground(coloransi.Green, label) + "> "
}

func (s *Shell) attach(pid process.ProcessID) error {
	if s.proc != nil {
		s.proc.Close()
		s.proc = nil
		s.engine = nil
	}

	proc, err := process_linux.NewWithPID(pid)
	if err != nil {
		return err
	}

	s.proc = proc
	s.engine = scan.NewEngine(proc)
	fmt.Fprintf(s.out, "Attached to %s (PID %d)\n", proc.Name(), proc.PID())
	return nil
}

func (s *Shell) detach() {
	if s.proc == nil {
		return
	}
	fmt.Fprintf(s.out, "Detached from %s (PID %d)\n", s.proc.Name(), s.proc.PID())
	s.proc.Close()
	s.proc = nil
	s.engine = nil
}

// requireAttached guards commands that need a target process.
func (s *Shell) requireAttached() error {
	if s.proc == nil {
		return fmt.Errorf("not attached to a process (use 'attach <pid>')")
	}
	return nil
}
