// pcb.go - Process control block.
//
// A PCB is observed concurrently by the registry, the ready queue, the
// running list, the finished list, and (at most one at a time) an executing
// worker. Rather than the source's reference-counted smart pointer, this
// keeps a single *PCB shared via Go's garbage-collected pointers (which
// already gives the needed shared ownership) and guards the fields that
// change post-construction with atomics or a small mutex.
//
// License: GPLv3 or later

package pcb

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/csopesy-lab/osemu/internal/instr"
)

// NoCore is the sentinel AssignedCore value meaning "not running on a core".
const NoCore = -1

// LogLine is one timestamped PRINT output line.
type LogLine struct {
	At   time.Time
	Text string
}

// PCB is the process control block.
type PCB struct {
	PID          uint32
	Name         string
	Instructions []instr.Instruction

	TotalTicksBudget uint64

	// cursor is the reported tick-progress counter in [0, TotalTicksBudget]
	// ip is the separate instruction pointer indexing
	// Instructions: cursor advances by one on every tick (sleep decay or
	// instruction evaluation alike), while ip only advances when an
	// instruction is actually evaluated. The two coincide only for
	// programs with no SLEEP.
	cursor         atomic.Uint64
	ip             atomic.Uint64
	sleepRemaining atomic.Uint64
	assignedCore   atomic.Int32

	varsMu    sync.Mutex
	variables map[string]uint16

	logMu sync.Mutex
	log   []LogLine

	CreatedAt  time.Time
	finishedMu sync.Mutex
	finishedAt time.Time
	finished   bool
}

// New constructs a PCB. pid must be unique and monotone (assigned by the
// scheduler façade's Submit); name must be non-empty and unique across the
// live registry.
func New(pid uint32, name string, program []instr.Instruction) *PCB {
	p := &PCB{
		PID:              pid,
		Name:             name,
		Instructions:     program,
		TotalTicksBudget: instr.TotalTicksBudget(program),
		variables:        make(map[string]uint16),
		CreatedAt:        time.Now(),
	}
	p.assignedCore.Store(NoCore)
	return p
}

// Cursor returns the current instruction cursor, in [0, TotalTicksBudget].
func (p *PCB) Cursor() uint64 { return p.cursor.Load() }

// SleepRemaining returns the number of ticks still owed to an in-progress
// SLEEP.
func (p *PCB) SleepRemaining() uint64 { return p.sleepRemaining.Load() }

// AssignedCore returns the core id the PCB is running on, or NoCore.
func (p *PCB) AssignedCore() int32 { return p.assignedCore.Load() }

// SetAssignedCore is called by the dispatcher/worker on dispatch (core id)
// and on preempt/complete (NoCore).
func (p *PCB) SetAssignedCore(core int32) { p.assignedCore.Store(core) }

// IsComplete reports whether the PCB has exhausted its tick budget.
func (p *PCB) IsComplete() bool { return p.cursor.Load() >= p.TotalTicksBudget }

// Variable reads a variable, returning 0 for an undefined name — name
// resolution of an undefined variable yields 0, not an error.
func (p *PCB) Variable(name string) uint16 {
	p.varsMu.Lock()
	defer p.varsMu.Unlock()
	return p.variables[name]
}

// SetVariable assigns a variable's value.
func (p *PCB) SetVariable(name string, value uint16) {
	p.varsMu.Lock()
	defer p.varsMu.Unlock()
	p.variables[name] = value
}

// AppendLog appends one timestamped output line, in PRINT execution order.
func (p *PCB) AppendLog(line LogLine) {
	p.logMu.Lock()
	defer p.logMu.Unlock()
	p.log = append(p.log, line)
}

// Log returns a snapshot copy of the PCB's output log.
func (p *PCB) Log() []LogLine {
	p.logMu.Lock()
	defer p.logMu.Unlock()
	out := make([]LogLine, len(p.log))
	copy(out, p.log)
	return out
}

// BeginSleep sets sleep_remaining from a resolved SLEEP argument.
func (p *PCB) BeginSleep(cycles uint16) { p.sleepRemaining.Store(uint64(cycles)) }

// DecaySleep decrements sleep_remaining by one tick (invariant: never below
// zero) and advances the reported cursor by one tick. The instruction
// pointer does not move: the PCB is still "at" the instruction after the
// SLEEP, waiting for sleep_remaining to drain.
func (p *PCB) DecaySleep() {
	for {
		cur := p.sleepRemaining.Load()
		if cur == 0 {
			break
		}
		if p.sleepRemaining.CompareAndSwap(cur, cur-1) {
			break
		}
	}
	p.cursor.Add(1)
}

// NextInstructionIndex returns the instruction pointer (index into
// Instructions) of the next instruction to evaluate.
func (p *PCB) NextInstructionIndex() uint64 { return p.ip.Load() }

// AdvanceInstruction evaluates-and-advances: moves the instruction pointer
// past the instruction just evaluated and advances the reported cursor by
// one tick. Called by the interpreter's Step after evaluating
// Instructions[NextInstructionIndex()].
func (p *PCB) AdvanceInstruction() {
	p.ip.Add(1)
	p.cursor.Add(1)
}

// MarkFinished records the completion timestamp exactly once.
func (p *PCB) MarkFinished(at time.Time) {
	p.finishedMu.Lock()
	defer p.finishedMu.Unlock()
	if p.finished {
		return
	}
	p.finished = true
	p.finishedAt = at
}

// FinishedAt returns the completion timestamp and whether it has been set.
func (p *PCB) FinishedAt() (time.Time, bool) {
	p.finishedMu.Lock()
	defer p.finishedMu.Unlock()
	return p.finishedAt, p.finished
}
