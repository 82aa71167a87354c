// shell.go - Interactive command shell consuming the scheduler's shell
// command surface.
//
// The shell is an external collaborator around the scheduler core — its
// interface is what matters, not its exact feature set — so this package
// implements a working command loop against the scheduler façade to keep
// the repo runnable end to end.
//
// The input loop reads whole lines rather than individual keystrokes: a
// command shell tokenizes on lines, not on every byte, so terminal_host.go's
// raw single-character mode and MMIO byte feed do not apply here. What is
// kept from terminal_host.go is its use of x/term to query the controlling
// fd directly (here, sizing the status divider to the real terminal width
// instead of assuming a fixed column count).
//
// License: GPLv3 or later

package shellio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/term"

	"github.com/csopesy-lab/osemu/internal/batchgen"
	"github.com/csopesy-lab/osemu/internal/config"
	"github.com/csopesy-lab/osemu/internal/memmgr"
	"github.com/csopesy-lab/osemu/internal/report"
	"github.com/csopesy-lab/osemu/internal/scheduler"
)

// DefaultReportPath is the report-util default output file.
const DefaultReportPath = "csopesy-log.txt"

// MemorySnapshotDir is where periodic memory_stamp_<k>.txt files land.
const MemorySnapshotDir = "."

// Shell implements the interactive command surface.
type Shell struct {
	in  *bufio.Scanner
	out io.Writer

	sched        *scheduler.Scheduler
	cfg          config.Config
	ready        bool // true once "initialize" has succeeded
	snapshotNext atomic.Uint64
}

// New creates a shell reading commands from in and writing output to out.
func New(in io.Reader, out io.Writer) *Shell {
	return &Shell{in: bufio.NewScanner(in), out: out}
}

// Run reads and dispatches commands until "exit" or EOF. Returns the
// process exit code (0 on clean shutdown).
func (sh *Shell) Run() int {
	for sh.in.Scan() {
		line := strings.TrimSpace(sh.in.Text())
		if line == "" {
			continue
		}
		if code, done := sh.dispatch(line); done {
			return code
		}
	}
	if sh.sched != nil {
		_ = sh.sched.Stop()
	}
	return 0
}

func (sh *Shell) dispatch(line string) (code int, done bool) {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "initialize":
		sh.cmdInitialize(args)
	case "screen":
		sh.cmdScreen(args)
	case "scheduler-start":
		sh.cmdSchedulerStart()
	case "scheduler-stop":
		sh.cmdSchedulerStop()
	case "report-util":
		sh.cmdReportUtil()
	case "clear":
		fmt.Fprint(sh.out, "\033[H\033[2J")
	case "exit":
		if sh.sched != nil {
			_ = sh.sched.Stop()
		}
		return 0, true
	default:
		fmt.Fprintf(sh.out, "unknown command: %s\n", cmd)
	}
	return 0, false
}

func (sh *Shell) cmdInitialize(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(sh.out, "usage: initialize <path>")
		return
	}
	cfg, err := config.Load(args[0])
	if err != nil {
		fmt.Fprintf(sh.out, "initialize failed: %v\n", err)
		return
	}
	sh.cfg = cfg
	sh.sched = scheduler.New(cfg, sh.onMemoryQuantum)
	if err := sh.sched.Start(); err != nil {
		fmt.Fprintf(sh.out, "initialize failed: %v\n", err)
		sh.sched = nil
		return
	}
	sh.ready = true
	fmt.Fprintln(sh.out, "initialized.")
}

// onMemoryQuantum is wired as the scheduler's clock quantum callback: every
// quantum_cycles ticks, write memory_stamp_<k>.txt.
func (sh *Shell) onMemoryQuantum(mem *memmgr.Manager, memPerProcess uint64, tick uint64) {
	idx := sh.snapshotNext.Add(1) - 1
	if err := report.WriteMemorySnapshot(MemorySnapshotDir, idx, time.Now(), mem); err != nil {
		fmt.Fprintf(sh.out, "memory snapshot %d failed: %v\n", idx, err)
	}
}

func (sh *Shell) cmdScreen(args []string) {
	if !sh.requireReady() || len(args) < 1 {
		fmt.Fprintln(sh.out, "usage: screen -s <name> | screen -r <name> | screen -ls")
		return
	}
	switch args[0] {
	case "-s":
		if len(args) != 2 {
			fmt.Fprintln(sh.out, "usage: screen -s <name>")
			return
		}
		name := args[1]
		program := batchgen.RandomProgram(int(sh.cfg.MinInstructions), int(sh.cfg.MaxInstructions))
		if err := sh.sched.Submit(name, program); err != nil {
			fmt.Fprintf(sh.out, "screen -s failed: %v\n", err)
			return
		}
		fmt.Fprintf(sh.out, "process %s created and queued for admission.\n", name)
	case "-r":
		if len(args) != 2 {
			fmt.Fprintln(sh.out, "usage: screen -r <name>")
			return
		}
		p, ok := sh.sched.FindByName(args[1])
		if !ok {
			fmt.Fprintf(sh.out, "no such process: %s\n", args[1])
			return
		}
		fmt.Fprintf(sh.out, "process %s (pid %d): %d / %d ticks\n", p.Name, p.PID, p.Cursor(), p.TotalTicksBudget)
		for _, line := range p.Log() {
			fmt.Fprintln(sh.out, line.Text)
		}
	case "-ls":
		sh.printStatus()
	default:
		fmt.Fprintln(sh.out, "usage: screen -s <name> | screen -r <name> | screen -ls")
	}
}

func (sh *Shell) cmdSchedulerStart() {
	if !sh.requireReady() {
		return
	}
	if err := sh.sched.BeginBatchGeneration(); err != nil {
		fmt.Fprintf(sh.out, "scheduler-start failed: %v\n", err)
		return
	}
	fmt.Fprintln(sh.out, "batch generation started.")
}

func (sh *Shell) cmdSchedulerStop() {
	if !sh.requireReady() {
		return
	}
	if err := sh.sched.EndBatchGeneration(); err != nil {
		fmt.Fprintf(sh.out, "scheduler-stop failed: %v\n", err)
		return
	}
	fmt.Fprintln(sh.out, "batch generation stopped.")
}

func (sh *Shell) cmdReportUtil() {
	// report-util on a closed system still produces a file with
	// zero running and zero finished processes.
	r := scheduler.StatusReport{}
	if sh.ready {
		r = sh.sched.Status()
	}
	if err := report.WriteCPUReport(DefaultReportPath, r); err != nil {
		fmt.Fprintf(sh.out, "report-util failed: %v\n", err)
		return
	}
	fmt.Fprintf(sh.out, "report written to %s\n", DefaultReportPath)
}

// ruleWidth sizes the status divider to the controlling terminal, the way
// terminal_host.go queries the raw fd rather than assuming a fixed width.
// Falls back to 72 columns when stdout isn't a terminal (piped/redirected).
func ruleWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 72
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 72
	}
	return w
}

func (sh *Shell) printStatus() {
	r := sh.sched.Status()
	fmt.Fprintf(sh.out, "CPU utilization: %d%%\n", r.CPUUtilizationPercent)
	fmt.Fprintf(sh.out, "Cores used: %d\n", r.CoresUsed)
	fmt.Fprintf(sh.out, "Cores available: %d\n\n", r.CoresAvailable)
	fmt.Fprintln(sh.out, strings.Repeat("-", ruleWidth()))
	fmt.Fprintln(sh.out, "Running processes:")
	for _, p := range r.Running {
		fmt.Fprintf(sh.out, "PID:%d %s  %s   %d / %d\n", p.PID, p.Name, p.State, p.Cursor, p.Budget)
	}
	fmt.Fprintln(sh.out)
	fmt.Fprintln(sh.out, "Finished processes:")
	for _, p := range r.Finished {
		fmt.Fprintf(sh.out, "PID:%d %s  %s   %d / %d\n", p.PID, p.Name, p.State, p.Cursor, p.Budget)
	}
	fmt.Fprintln(sh.out, strings.Repeat("-", ruleWidth()))
}

func (sh *Shell) requireReady() bool {
	if !sh.ready {
		fmt.Fprintln(sh.out, "scheduler not initialized; run `initialize <path>` first")
		return false
	}
	return true
}
