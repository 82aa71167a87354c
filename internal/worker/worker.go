// worker.go - One goroutine per CPU core, executing a bounded burst per
// dispatch.
//
// Grounded on coproc_worker_ie32.go's assign/execute/done shape and
// coprocessor_manager.go's array of per-core workers, adapted from a
// one-shot coprocessor job runner into a repeatedly-reassigned burst
// executor gated by the global clock.
//
// License: GPLv3 or later

package worker

import (
	"log"
	"sync"
	"time"

	"github.com/csopesy-lab/osemu/internal/clock"
	"github.com/csopesy-lab/osemu/internal/interp"
	"github.com/csopesy-lab/osemu/internal/pcb"
)

// Callbacks lets a Worker report PCB lifecycle transitions without owning
// the running/finished lists or the ready queue itself — the scheduler
// façade implements these against its own mutex-guarded lists.
type Callbacks interface {
	// OnDispatch is called once a PCB begins executing on this core, before
	// the first step of the burst.
	OnDispatch(p *pcb.PCB, coreID int)
	// OnPreempt is called when a burst ends with the PCB incomplete: the
	// PCB must be requeued at the ready-queue tail.
	OnPreempt(p *pcb.PCB)
	// OnComplete is called when a burst ends with the PCB complete: its
	// memory must be freed and it must migrate to the finished list.
	OnComplete(p *pcb.PCB)
}

// Worker executes bursts for one CPU core.
type Worker struct {
	CoreID       int
	clock        *clock.Clock
	cb           Callbacks
	delayPerExec uint64

	mu       sync.Mutex
	cond     *sync.Cond
	idle     bool
	shutdown bool
	task     *pcb.PCB
	quantum  uint64
}

// New creates a worker for coreID. delayPerExec is the configured
// delay-per-exec: the worker executes exactly one step every
// (delayPerExec+1) ticks.
func New(coreID int, clk *clock.Clock, delayPerExec uint64, cb Callbacks) *Worker {
	w := &Worker{
		CoreID:       coreID,
		clock:        clk,
		cb:           cb,
		delayPerExec: delayPerExec,
		idle:         true,
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// IsIdle reports whether the worker is waiting for an assignment.
func (w *Worker) IsIdle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.idle
}

// Assign hands a PCB and its burst quantum to the worker, atomically
// clearing idle and waking the worker's main loop.
func (w *Worker) Assign(p *pcb.PCB, quantum uint64) {
	w.mu.Lock()
	w.task = p
	w.quantum = quantum
	w.idle = false
	w.mu.Unlock()
	w.cond.Signal()
}

// Run is the worker's main loop: wait until assigned or shutdown, execute a
// burst, repeat. Intended to run on its own dedicated goroutine.
func (w *Worker) Run() {
	for {
		w.mu.Lock()
		for w.idle && !w.shutdown {
			w.cond.Wait()
		}
		if w.shutdown {
			w.mu.Unlock()
			return
		}
		task, quantum := w.task, w.quantum
		w.mu.Unlock()

		w.executeBurst(task, quantum)

		w.mu.Lock()
		w.task = nil
		w.idle = true
		w.mu.Unlock()
	}
}

func (w *Worker) isShutdown() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shutdown
}

// executeBurst runs the burst-execution algorithm: step at most quantum
// times, gated to one step every (delayPerExec+1) ticks, stopping early on
// completion or shutdown.
func (w *Worker) executeBurst(p *pcb.PCB, quantum uint64) {
	p.SetAssignedCore(int32(w.CoreID))
	w.cb.OnDispatch(p, w.CoreID)

	lastSeenTick := w.clock.Now()
	var executedSteps uint64
	for executedSteps < quantum && !p.IsComplete() && !w.isShutdown() {
		tick, running := w.clock.WaitForTick(lastSeenTick)
		if !running {
			break
		}
		lastSeenTick = tick
		if w.isShutdown() {
			break
		}
		if lastSeenTick%(w.delayPerExec+1) == 0 {
			if err := interp.Step(p, int32(w.CoreID), time.Now()); err != nil {
				log.Printf("pid %d (%s): instruction evaluation error: %v", p.PID, p.Name, err)
			}
			executedSteps++
		}
	}

	if p.IsComplete() {
		p.MarkFinished(time.Now())
		p.SetAssignedCore(pcb.NoCore)
		w.cb.OnComplete(p)
		return
	}
	p.SetAssignedCore(pcb.NoCore)
	w.cb.OnPreempt(p)
}

// Shutdown tells the worker to exit its main loop once any in-progress
// burst ends (bursts themselves also observe shutdown and stop early).
func (w *Worker) Shutdown() {
	w.mu.Lock()
	w.shutdown = true
	w.mu.Unlock()
	w.cond.Broadcast()
}
