// report.go - Status report assembly ("CPU report file" and "status line"
// formats; the file-writing side lives in internal/report so this package
// stays free of os/bufio concerns).
//
// License: GPLv3 or later

package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/csopesy-lab/osemu/internal/pcb"
)

// ProcessStatus is one status-line's worth of data.
type ProcessStatus struct {
	PID       uint32
	Name      string
	CreatedAt time.Time
	State     string // "Finished", "Core: <id>", or "Ready (in queue)"
	Cursor    uint64
	Budget    uint64
}

// StatusReport is the full report.
type StatusReport struct {
	CPUUtilizationPercent int
	CoresUsed             int
	CoresAvailable        int
	Running               []ProcessStatus
	Finished              []ProcessStatus
}

// Status assembles a point-in-time report from every registered PCB. Safe
// to call on a stopped scheduler: finished PCBs are listed as Finished, and
// every registered PCB that has not finished is listed under Running (as
// "Ready (in queue)" once no core holds it). An empty registry yields zero
// running and zero finished processes.
func (s *Scheduler) Status() StatusReport {
	s.mu.Lock()
	cpuCount := s.cfg.CPUCount
	s.mu.Unlock()

	all := s.reg.all()
	report := StatusReport{CoresAvailable: cpuCount}

	coresUsed := 0
	for _, p := range all {
		if _, finished := p.FinishedAt(); finished {
			report.Finished = append(report.Finished, statusOf(p, "Finished"))
			continue
		}
		if core := p.AssignedCore(); core != pcb.NoCore {
			coresUsed++
			report.Running = append(report.Running, statusOf(p, fmt.Sprintf("Core: %d", core)))
		} else {
			report.Running = append(report.Running, statusOf(p, "Ready (in queue)"))
		}
	}
	report.CoresUsed = coresUsed
	if cpuCount > 0 {
		report.CPUUtilizationPercent = int((coresUsed * 100) / cpuCount) // truncated, not rounded
	}

	sort.Slice(report.Running, func(i, j int) bool { return report.Running[i].PID < report.Running[j].PID })
	sort.Slice(report.Finished, func(i, j int) bool { return report.Finished[i].PID < report.Finished[j].PID })
	return report
}

func statusOf(p *pcb.PCB, state string) ProcessStatus {
	return ProcessStatus{
		PID:       p.PID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		State:     state,
		Cursor:    p.Cursor(),
		Budget:    p.TotalTicksBudget,
	}
}
