// scheduler.go - Scheduler façade: lifecycle, registry, reports.
//
// Grounded on coprocessor_manager.go's registry+lifecycle shape and
// main.go's wiring order (construct subsystems, launch goroutines, tear
// down in reverse). Goroutine supervision uses golang.org/x/sync's
// errgroup — promoted from an unused indirect go.mod dependency into the
// thing that actually supervises the clock, the dispatcher, and the
// per-core workers.
//
// License: GPLv3 or later

package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/csopesy-lab/osemu/internal/batchgen"
	"github.com/csopesy-lab/osemu/internal/clock"
	"github.com/csopesy-lab/osemu/internal/config"
	"github.com/csopesy-lab/osemu/internal/dispatcher"
	"github.com/csopesy-lab/osemu/internal/instr"
	"github.com/csopesy-lab/osemu/internal/memmgr"
	"github.com/csopesy-lab/osemu/internal/pcb"
	"github.com/csopesy-lab/osemu/internal/queue"
	"github.com/csopesy-lab/osemu/internal/worker"
)

var (
	// ErrAlreadyStarted is returned by Start when the scheduler is already running.
	ErrAlreadyStarted = errors.New("scheduler: already started")
	// ErrNotStarted is returned by operations that require a running scheduler.
	ErrNotStarted = errors.New("scheduler: not started")
	// ErrDuplicateName is returned by Submit when the name is already registered.
	ErrDuplicateName = errors.New("scheduler: duplicate process name")
)

// MemorySnapshotFunc is invoked by the clock every quantum_cycles ticks;
// internal/shellio wires it to internal/report.
type MemorySnapshotFunc func(mem *memmgr.Manager, memPerProcess uint64, tick uint64)

// Scheduler is the lifecycle/registry/report façade over the scheduler
// subsystems.
type Scheduler struct {
	cfg config.Config

	snapshotFn MemorySnapshotFunc

	mu      sync.Mutex
	started bool

	mem     *memmgr.Manager
	ready   *queue.Queue
	clk     *clock.Clock
	workers []*worker.Worker
	disp    *dispatcher.Dispatcher
	gen     *batchgen.Generator
	eg      *errgroup.Group

	reg     *registry
	lists   *processLists
	nextPID atomic.Uint32
}

// New creates an unstarted façade bound to cfg. snapshotFn may be nil (no
// periodic memory snapshots are written).
func New(cfg config.Config, snapshotFn MemorySnapshotFunc) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		snapshotFn: snapshotFn,
		reg:        newRegistry(),
		lists:      newProcessLists(),
	}
}

// Start constructs the memory manager, and spawns the clock, the per-core
// workers, and the dispatcher. Batch generation is a separate lifecycle —
// see BeginBatchGeneration.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}

	s.mem = memmgr.New(s.cfg.MaxOverallMemory, s.cfg.MemoryPerFrame)
	s.ready = queue.New()
	s.clk = clock.New(clock.DefaultInterval, s.cfg.QuantumCycles, s.onQuantumTick)

	s.workers = make([]*worker.Worker, s.cfg.CPUCount)
	for i := range s.workers {
		s.workers[i] = worker.New(i, s.clk, s.cfg.DelayPerExec, s)
	}

	algo := dispatcher.FCFS
	if s.cfg.Algorithm == config.RR {
		algo = dispatcher.RR
	}
	s.disp = dispatcher.New(s.ready, s.mem, s.workers, algo, s.cfg.QuantumCycles, s.cfg.MemoryPerProcess)
	s.gen = batchgen.New(s.clk, s.cfg.BatchGenFrequency, int(s.cfg.MinInstructions), int(s.cfg.MaxInstructions), s)

	s.eg = &errgroup.Group{}
	s.eg.Go(func() error { s.clk.Run(); return nil })
	for _, w := range s.workers {
		w := w
		s.eg.Go(func() error { w.Run(); return nil })
	}
	s.eg.Go(func() error { s.disp.Run(); return nil })

	s.started = true
	return nil
}

// Stop is idempotent. It stops the batch generator and waits for it, then
// signals the dispatcher, the ready queue, the workers and the clock, waits
// for all of their goroutines with a single errgroup Wait, and destroys the
// memory manager. The dispatcher, worker and clock goroutines are not joined
// one at a time, so the order in which they exit is not fixed.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}

	if s.gen.Running() {
		s.gen.Stop()
	}
	s.disp.Stop()
	s.ready.Shutdown()
	for _, w := range s.workers {
		w.Shutdown()
	}
	s.clk.Stop()
	err := s.eg.Wait()

	s.mem = nil
	s.started = false
	return err
}

// BeginBatchGeneration starts the batch generator. Requires Start to have
// been called first (the generator waits on the scheduler's clock).
func (s *Scheduler) BeginBatchGeneration() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	s.gen.Start()
	return nil
}

// EndBatchGeneration stops the batch generator without affecting workers,
// the dispatcher, or the clock.
func (s *Scheduler) EndBatchGeneration() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	s.gen.Stop()
	return nil
}

// NameExists implements batchgen.Submitter / used by the shell's "screen -s".
func (s *Scheduler) NameExists(name string) bool { return s.reg.exists(name) }

// Submit assigns a pid, registers name, and pushes the new PCB onto the
// ready queue. Explicit submissions must ensure
// uniqueness themselves: a collision here is returned, not silently
// resolved — auto-retry is a generator-only behavior.
func (s *Scheduler) Submit(name string, program []instr.Instruction) error {
	if name == "" {
		return fmt.Errorf("scheduler: process name must be non-empty")
	}
	pid := s.nextPID.Add(1)
	p := pcb.New(pid, name, program)
	if !s.reg.insert(p) {
		return ErrDuplicateName
	}
	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()
	if ready == nil {
		return ErrNotStarted
	}
	ready.Push(p)
	return nil
}

// FindByName looks up a PCB in the registry.
func (s *Scheduler) FindByName(name string) (*pcb.PCB, bool) { return s.reg.find(name) }

// --- worker.Callbacks ---

func (s *Scheduler) OnDispatch(p *pcb.PCB, coreID int) { s.lists.addRunning(p) }

func (s *Scheduler) OnPreempt(p *pcb.PCB) {
	s.lists.removeRunning(p)
	s.ready.Push(p)
}

func (s *Scheduler) OnComplete(p *pcb.PCB) {
	s.mem.Free(p.PID)
	s.lists.migrateToFinished(p)
}

func (s *Scheduler) onQuantumTick(tick uint64) {
	if s.snapshotFn == nil {
		return
	}
	s.snapshotFn(s.mem, s.cfg.MemoryPerProcess, tick)
}

// CPUCount returns the configured core count (for utilization reporting).
func (s *Scheduler) CPUCount() int { return s.cfg.CPUCount }

// RunningCoreCount returns how many cores currently have a PCB assigned.
func (s *Scheduler) RunningCoreCount() int { return s.lists.runningCount() }

// Now is exposed so the shell/report layer can stamp wall-clock output
// consistently with the rest of the emulator (it is not tick time).
func (s *Scheduler) Now() time.Time { return time.Now() }
