// lists.go - Running and finished PCB lists.
//
// Two separate mutexes. Whenever code needs both (PCB completion
// migration), the acquisition order is running-first, finished-second, and
// no other code in this package may take them in reverse.
//
// License: GPLv3 or later

package scheduler

import (
	"sync"

	"github.com/csopesy-lab/osemu/internal/pcb"
)

type processLists struct {
	runningMu sync.Mutex
	running   []*pcb.PCB

	finishedMu sync.Mutex
	finished   []*pcb.PCB
}

func newProcessLists() *processLists {
	return &processLists{}
}

func (l *processLists) addRunning(p *pcb.PCB) {
	l.runningMu.Lock()
	defer l.runningMu.Unlock()
	l.running = append(l.running, p)
}

func (l *processLists) removeRunning(p *pcb.PCB) {
	l.runningMu.Lock()
	defer l.runningMu.Unlock()
	for i, q := range l.running {
		if q == p {
			l.running = append(l.running[:i], l.running[i+1:]...)
			return
		}
	}
}

// migrateToFinished removes p from running and appends it to finished,
// taking the running mutex first and the finished mutex second; the running
// mutex is released before the finished mutex is taken.
func (l *processLists) migrateToFinished(p *pcb.PCB) {
	l.runningMu.Lock()
	for i, q := range l.running {
		if q == p {
			l.running = append(l.running[:i], l.running[i+1:]...)
			break
		}
	}
	l.runningMu.Unlock()

	l.finishedMu.Lock()
	defer l.finishedMu.Unlock()
	l.finished = append(l.finished, p)
}

func (l *processLists) runningCount() int {
	l.runningMu.Lock()
	defer l.runningMu.Unlock()
	return len(l.running)
}
