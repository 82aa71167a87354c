// generator.go - Periodic random-process batch generator.
//
// Grounded on original_source/src/instruction_generator.cpp: uniformly
// choose a top-level instruction count in [min,max], then compose a program
// from a small fixed set of instruction shapes, nesting FOR at most once
// with a small bounded repeat count so generated programs always terminate
// quickly.
//
// The generator waits on the same global clock as the workers — the clock
// publishes ticks, and workers and generators alike wake on ticks — rather
// than keeping an independent wall timer.
//
// License: GPLv3 or later

package batchgen

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/csopesy-lab/osemu/internal/clock"
	"github.com/csopesy-lab/osemu/internal/instr"
)

// Submitter is the subset of the scheduler façade the generator needs: a
// name-collision check and an insertion point. Submit is expected to
// perform the same registry-insert + ready-queue-push as an explicit
// submission.
type Submitter interface {
	NameExists(name string) bool
	Submit(name string, program []instr.Instruction) error
}

// Generator periodically synthesizes and submits a new random process.
type Generator struct {
	clk       *clock.Clock
	freq      uint64
	minIns    int
	maxIns    int
	submitter Submitter

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}

	counter uint64
}

// New creates a generator. freq is batch_gen_frequency in global clock
// ticks; minIns/maxIns bound the generated program's top-level instruction
// count (inclusive).
func New(clk *clock.Clock, freq uint64, minIns, maxIns int, submitter Submitter) *Generator {
	return &Generator{clk: clk, freq: freq, minIns: minIns, maxIns: maxIns, submitter: submitter}
}

// Start launches the generator's goroutine if not already running. Safe to
// call repeatedly (idempotent while running).
func (g *Generator) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return
	}
	g.running = true
	g.stopCh = make(chan struct{})
	g.done = make(chan struct{})
	go g.run(g.stopCh, g.done)
}

// Stop halts the generator's goroutine and waits for it to exit. Safe to
// call when not running.
func (g *Generator) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	stopCh, done := g.stopCh, g.done
	g.running = false
	g.mu.Unlock()

	close(stopCh)
	<-done
}

// Running reports whether the generator is currently active.
func (g *Generator) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

func (g *Generator) run(stopCh, done chan struct{}) {
	defer close(done)

	lastSeen := g.clk.Now()
	var elapsed uint64
	for {
		select {
		case <-stopCh:
			return
		default:
		}
		tick, ok := g.clk.WaitForTick(lastSeen)
		if !ok {
			return
		}
		lastSeen = tick
		select {
		case <-stopCh:
			return
		default:
		}
		elapsed++
		if elapsed < g.freq {
			continue
		}
		elapsed = 0
		g.spawnOne()
	}
}

func (g *Generator) spawnOne() {
	for {
		g.counter++
		name := fmt.Sprintf("p%02d", g.counter)
		if g.submitter.NameExists(name) {
			continue // name collision: retry next counter
		}
		program := RandomProgram(g.minIns, g.maxIns)
		if err := g.submitter.Submit(name, program); err != nil {
			continue // lost a race with a concurrent submission; retry
		}
		return
	}
}

// RandomProgram builds a program with top-level instruction count uniform
// in [minIns, maxIns], drawing each instruction from a fixed set of shapes.
// Exported so the interactive shell's "screen -s" can synthesize a program
// the same way the batch generator does: "screen -s" is a "create + admit"
// operation without a specified source of instructions, since source-text
// parsing is out of scope.
func RandomProgram(minIns, maxIns int) []instr.Instruction {
	n := minIns
	if maxIns > minIns {
		n = minIns + rand.IntN(maxIns-minIns+1)
	}
	program := make([]instr.Instruction, 0, n)
	for i := 0; i < n; i++ {
		program = append(program, randomInstruction())
	}
	return program
}

func randomInstruction() instr.Instruction {
	switch rand.IntN(6) {
	case 0:
		return instr.Declare("x", instr.Num(uint16(rand.IntN(100))))
	case 1:
		return instr.PrintConcat(instr.Str("Value from: "), instr.Name("x"))
	case 2:
		return instr.Add("x", instr.Name("x"), instr.Num(uint16(1+rand.IntN(10))))
	case 3:
		return instr.Sub("x", instr.Name("x"), instr.Num(uint16(1+rand.IntN(10))))
	case 4:
		return instr.Sleep(instr.Num(uint16(1 + rand.IntN(3))))
	default:
		count := 2 + rand.IntN(4) // 2..5, small and bounded so generated loops terminate quickly
		return instr.For([]instr.Instruction{
			instr.Add("x", instr.Name("x"), instr.Num(1)),
		}, instr.Num(uint16(count)))
	}
}
