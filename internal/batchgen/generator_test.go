package batchgen

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/csopesy-lab/osemu/internal/clock"
	"github.com/csopesy-lab/osemu/internal/instr"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	names map[string]bool
	count int
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{names: make(map[string]bool)}
}

func (f *fakeSubmitter) NameExists(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.names[name]
}

func (f *fakeSubmitter) Submit(name string, program []instr.Instruction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.names[name] {
		return fmt.Errorf("duplicate name %s", name)
	}
	f.names[name] = true
	f.count++
	return nil
}

func (f *fakeSubmitter) submittedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func TestGeneratorSpawnsAtConfiguredFrequency(t *testing.T) {
	clk := clock.New(2*time.Millisecond, 0, nil)
	go clk.Run()
	defer clk.Stop()

	sub := newFakeSubmitter()
	gen := New(clk, 3, 1, 2, sub)
	gen.Start()
	defer gen.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for sub.submittedCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sub.submittedCount() < 2 {
		t.Fatalf("submitted %d processes, want at least 2", sub.submittedCount())
	}
}

func TestGeneratorStartIsIdempotentAndStopWaits(t *testing.T) {
	clk := clock.New(2*time.Millisecond, 0, nil)
	go clk.Run()
	defer clk.Stop()

	sub := newFakeSubmitter()
	gen := New(clk, 1, 1, 1, sub)
	gen.Start()
	gen.Start() // must not spawn a second goroutine
	if !gen.Running() {
		t.Fatal("Running() = false after Start")
	}
	gen.Stop()
	if gen.Running() {
		t.Fatal("Running() = true after Stop")
	}
	gen.Stop() // must not block or panic when already stopped
}

func TestRandomProgramRespectsBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		program := RandomProgram(2, 5)
		if len(program) < 2 || len(program) > 5 {
			t.Fatalf("RandomProgram(2, 5) produced %d instructions, want [2,5]", len(program))
		}
	}
	if program := RandomProgram(3, 3); len(program) != 3 {
		t.Fatalf("RandomProgram(3, 3) produced %d instructions, want exactly 3", len(program))
	}
}
