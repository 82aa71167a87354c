// report.go - CPU/process/memory report file writers.
//
// Grounded on file_io.go's pattern (os.Create + buffered writes, errors
// returned rather than panicking). The process-log and memory-snapshot
// writers take a directory; the CPU report writer takes a full file path.
//
// License: GPLv3 or later

package report

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/csopesy-lab/osemu/internal/memmgr"
	"github.com/csopesy-lab/osemu/internal/pcb"
	"github.com/csopesy-lab/osemu/internal/scheduler"
)

const timestampLayout = "01/02/2006 03:04:05 PM"

// WriteCPUReport writes the CPU utilization/process report format to path.
func WriteCPUReport(path string, r scheduler.StatusReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "CPU utilization: %d%%\n", r.CPUUtilizationPercent)
	fmt.Fprintf(w, "Cores used: %d\n", r.CoresUsed)
	fmt.Fprintf(w, "Cores available: %d\n", r.CoresAvailable)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Running processes:")
	for _, p := range r.Running {
		writeStatusLine(w, p)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Finished processes:")
	for _, p := range r.Finished {
		writeStatusLine(w, p)
	}
	return w.Flush()
}

func writeStatusLine(w *bufio.Writer, p scheduler.ProcessStatus) {
	fmt.Fprintf(w, "PID:%d %s (%s)  %s   %d / %d\n",
		p.PID, p.Name, p.CreatedAt.Format(timestampLayout), p.State, p.Cursor, p.Budget)
}

// WriteProcessLog writes the per-process log file `<name>.txt`: one
// line per PRINT execution, in the exact text the interpreter already
// produced.
func WriteProcessLog(dir string, p *pcb.PCB) error {
	path := dir + string(os.PathSeparator) + p.Name + ".txt"
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range p.Log() {
		fmt.Fprintln(w, line.Text)
	}
	return w.Flush()
}

// WriteMemorySnapshot writes `memory_stamp_<index>.txt` in the block-diagram
// format: a timestamp, the resident process count and the external
// fragmentation in whole KB, then one "[ 0x<start> ] ---" line per block
// followed by "|  P<pid>  |" or "| FREE |", and a final line with the end
// address.
func WriteMemorySnapshot(dir string, index uint64, at time.Time, mem *memmgr.Manager) error {
	blocks, numProcesses := mem.Snapshot()
	frag := mem.ExternalFragmentationBytes()

	path := fmt.Sprintf("%s%cmemory_stamp_%d.txt", dir, os.PathSeparator, index)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "Timestamp: %s\n", at.Format(timestampLayout))
	fmt.Fprintf(w, "Number of processes in memory: %d\n", numProcesses)
	fmt.Fprintf(w, "Total external fragmentation: %d KB\n", frag/1024)
	fmt.Fprintln(w)
	for _, b := range blocks {
		fmt.Fprintf(w, "[ 0x%04x ] ---\n", b.Start)
		if b.Free {
			fmt.Fprintln(w, "| FREE |")
		} else {
			fmt.Fprintf(w, "|  P%02d  |\n", b.Owner)
		}
	}
	end := mem.TotalMemory()
	fmt.Fprintf(w, "[ 0x%04x ] ---\n", end)
	return w.Flush()
}
