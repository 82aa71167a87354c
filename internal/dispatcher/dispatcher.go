// dispatcher.go - Pulls ready PCBs, gates on memory admission, hands them to
// an idle worker.
//
// Grounded on coprocessor_manager.go's ticket-routing loop: a single
// dispatching goroutine that scans a small fixed worker array and backs off
// rather than busy-spinning when nothing is available.
//
// License: GPLv3 or later

package dispatcher

import (
	"sync"
	"time"

	"github.com/csopesy-lab/osemu/internal/memmgr"
	"github.com/csopesy-lab/osemu/internal/pcb"
	"github.com/csopesy-lab/osemu/internal/queue"
	"github.com/csopesy-lab/osemu/internal/worker"
)

// Algorithm selects the scheduling discipline.
type Algorithm int

const (
	FCFS Algorithm = iota
	RR
)

// BackoffInterval is the bounded pause used when memory is saturated or
// every worker is busy, to avoid a busy spin.
const BackoffInterval = 50 * time.Millisecond

// Dispatcher pulls admitted, ready PCBs and hands them to idle workers.
type Dispatcher struct {
	ready         *queue.Queue
	mem           *memmgr.Manager
	workers       []*worker.Worker // indexed by core id, ascending
	algorithm     Algorithm
	quantumCycles uint64
	memPerProcess uint64

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New constructs a dispatcher. workers must be ordered by core id ascending
// (tie-break: lowest idle core wins).
func New(ready *queue.Queue, mem *memmgr.Manager, workers []*worker.Worker, algo Algorithm, quantumCycles, memPerProcess uint64) *Dispatcher {
	return &Dispatcher{
		ready:         ready,
		mem:           mem,
		workers:       workers,
		algorithm:     algo,
		quantumCycles: quantumCycles,
		memPerProcess: memPerProcess,
		stopCh:        make(chan struct{}),
	}
}

// Run loops until the ready queue is shut down or Stop is called.
func (d *Dispatcher) Run() {
	for {
		select {
		case <-d.stopCh:
			return
		default:
		}

		p, ok := d.ready.WaitAndPop()
		if !ok {
			return // shutdown sentinel: queue drained and shut down
		}

		if !d.admit(p) {
			continue
		}
		d.assign(p)
	}
}

// admit reserves memory for p. A preempted RR process keeps its allocation
// across bursts, so residency alone satisfies
// admission. On a saturated heap, p is pushed back to the ready-queue tail
// and admit backs off briefly before giving up this call: Run's outer loop
// then re-pops the queue, so other ready PCBs are not starved behind one
// that can't yet fit.
func (d *Dispatcher) admit(p *pcb.PCB) bool {
	if d.mem.IsAllocated(p.PID) || d.mem.Allocate(p.PID, d.memPerProcess) {
		return true
	}
	d.ready.Push(p)
	select {
	case <-d.stopCh:
	case <-time.After(BackoffInterval):
	}
	return false
}

// assign scans workers in core-id order for an idle one and hands it p with
// the algorithm-appropriate quantum. Blocks (with back-off) until a worker
// is idle or shutdown is requested.
func (d *Dispatcher) assign(p *pcb.PCB) {
	for {
		select {
		case <-d.stopCh:
			return
		default:
		}
		for _, w := range d.workers {
			if w.IsIdle() {
				w.Assign(p, d.quantum(p))
				return
			}
		}
		select {
		case <-d.stopCh:
			return
		case <-time.After(BackoffInterval):
		}
	}
}

// quantum computes the per-burst quantum for p under the configured
// algorithm.
func (d *Dispatcher) quantum(p *pcb.PCB) uint64 {
	remaining := p.TotalTicksBudget - p.Cursor()
	if d.algorithm == FCFS {
		return remaining
	}
	if d.quantumCycles < remaining {
		return d.quantumCycles
	}
	return remaining
}

// Stop requests the dispatcher loop to exit. The ready queue's own Shutdown
// is the primary unblocking signal; Stop additionally short-
// circuits any in-progress admission/assignment back-off.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}
