package interp

import (
	"errors"
	"testing"
	"time"

	"github.com/csopesy-lab/osemu/internal/instr"
	"github.com/csopesy-lab/osemu/internal/pcb"
)

func TestSaturatingAdd(t *testing.T) {
	cases := []struct{ a, b, want uint16 }{
		{1, 2, 3},
		{65535, 1, 65535},
		{60000, 10000, 65535},
		{0, 0, 0},
	}
	for _, c := range cases {
		if got := SaturatingAdd(c.a, c.b); got != c.want {
			t.Errorf("SaturatingAdd(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestSaturatingSub(t *testing.T) {
	cases := []struct{ a, b, want uint16 }{
		{5, 3, 2},
		{3, 5, 0},
		{0, 1, 0},
		{10, 10, 0},
	}
	for _, c := range cases {
		if got := SaturatingSub(c.a, c.b); got != c.want {
			t.Errorf("SaturatingSub(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestResolve(t *testing.T) {
	p := pcb.New(1, "p01", nil)
	p.SetVariable("x", 9)

	if v, err := Resolve(p, instr.Num(3)); err != nil || v != 3 {
		t.Errorf("Resolve(Num(3)) = (%d, %v), want (3, nil)", v, err)
	}
	if v, err := Resolve(p, instr.Name("x")); err != nil || v != 9 {
		t.Errorf("Resolve(Name(x)) = (%d, %v), want (9, nil)", v, err)
	}
	if v, err := Resolve(p, instr.Name("undeclared")); err != nil || v != 0 {
		t.Errorf("Resolve(Name(undeclared)) = (%d, %v), want (0, nil)", v, err)
	}
	if _, err := Resolve(p, instr.Str("oops")); !errors.Is(err, ErrStringOperand) {
		t.Errorf("Resolve(Str) error = %v, want ErrStringOperand", err)
	}
}

func TestDeclareAddSub(t *testing.T) {
	p := pcb.New(1, "p01", nil)

	if err := Declare(p, "x", instr.Num(10)); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	if err := Add(p, "x", instr.Name("x"), instr.Num(5)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if v := p.Variable("x"); v != 15 {
		t.Errorf("x = %d, want 15", v)
	}

	if err := Sub(p, "x", instr.Name("x"), instr.Num(100)); err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if v := p.Variable("x"); v != 0 {
		t.Errorf("x after saturating sub = %d, want 0", v)
	}
}

func TestPrintAndPrintConcatLogFormat(t *testing.T) {
	p := pcb.New(1, "p01", nil)
	p.SetVariable("x", 3)
	at := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

	if err := Print(p, 0, instr.Name("x"), at); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if err := PrintConcat(p, 2, instr.Str("val: "), instr.Name("x"), at); err != nil {
		t.Fatalf("PrintConcat: %v", err)
	}

	log := p.Log()
	if len(log) != 2 {
		t.Fatalf("len(log) = %d, want 2", len(log))
	}
	want0 := `(01/02/2024 03:04:05 PM) "3" Core:0`
	if log[0].Text != want0 {
		t.Errorf("log[0] = %q, want %q", log[0].Text, want0)
	}
	want1 := `(01/02/2024 03:04:05 PM) "val: 3" Core:2`
	if log[1].Text != want1 {
		t.Errorf("log[1] = %q, want %q", log[1].Text, want1)
	}
}

func TestSleepSetsRemaining(t *testing.T) {
	p := pcb.New(1, "p01", nil)
	if err := Sleep(p, instr.Num(4)); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if p.SleepRemaining() != 4 {
		t.Errorf("SleepRemaining() = %d, want 4", p.SleepRemaining())
	}
}

func TestForRunsBodyCountTimesAndZeroTimesForUndefinedCount(t *testing.T) {
	p := pcb.New(1, "p01", nil)
	p.SetVariable("x", 0)

	body := []instr.Instruction{
		instr.Add("x", instr.Name("x"), instr.Num(1)),
		instr.Print(instr.Str("bad")), // never errors; its log line shows whether the body ran
	}
	if err := For(p, 0, body, instr.Num(3), time.Now()); err != nil {
		t.Fatalf("For: %v", err)
	}
	if v := p.Variable("x"); v != 3 {
		t.Errorf("x after FOR = %d, want 3", v)
	}

	// An undefined Name count resolves to 0: the loop runs zero times.
	p2 := pcb.New(2, "p02", nil)
	if err := For(p2, 0, body, instr.Name("missing"), time.Now()); err != nil {
		t.Fatalf("For with undefined count: %v", err)
	}
	if len(p2.Log()) != 0 {
		t.Errorf("FOR with zero count ran the body")
	}
}

func TestForReturnsFirstErrorButFinishesAllIterations(t *testing.T) {
	p := pcb.New(1, "p01", nil)
	body := []instr.Instruction{
		instr.PrintConcat(instr.Str("x"), instr.Str("y")), // never errors
		instr.Sleep(instr.Str("bad")),                     // errors every iteration
	}
	err := For(p, 0, body, instr.Num(2), time.Now())
	if !errors.Is(err, ErrStringOperand) {
		t.Fatalf("For error = %v, want ErrStringOperand", err)
	}
	if len(p.Log()) != 2 {
		t.Errorf("len(log) = %d, want 2 (both PrintConcat iterations ran)", len(p.Log()))
	}
}

func TestStepSleepThenInstruction(t *testing.T) {
	program := []instr.Instruction{
		instr.Sleep(instr.Num(2)),
		instr.Print(instr.Str("done")),
	}
	p := pcb.New(1, "p01", program)
	now := time.Now()

	if err := Step(p, 0, now); err != nil { // evaluates SLEEP, sets remaining=2
		t.Fatalf("Step 1: %v", err)
	}
	if p.Cursor() != 1 || p.SleepRemaining() != 2 {
		t.Fatalf("after step 1: cursor=%d sleepRemaining=%d, want 1, 2", p.Cursor(), p.SleepRemaining())
	}

	if err := Step(p, 0, now); err != nil { // decay
		t.Fatalf("Step 2: %v", err)
	}
	if err := Step(p, 0, now); err != nil { // decay
		t.Fatalf("Step 3: %v", err)
	}
	if p.Cursor() != 3 || p.SleepRemaining() != 0 {
		t.Fatalf("after decay: cursor=%d sleepRemaining=%d, want 3, 0", p.Cursor(), p.SleepRemaining())
	}

	if err := Step(p, 0, now); err != nil { // evaluates Print
		t.Fatalf("Step 4: %v", err)
	}
	if p.Cursor() != 4 || !p.IsComplete() {
		t.Fatalf("after final step: cursor=%d complete=%v, want 4, true", p.Cursor(), p.IsComplete())
	}
	if len(p.Log()) != 1 {
		t.Errorf("len(log) = %d, want 1", len(p.Log()))
	}

	// Stepping a complete PCB is a no-op.
	if err := Step(p, 0, now); err != nil {
		t.Fatalf("Step on complete PCB: %v", err)
	}
	if p.Cursor() != 4 {
		t.Errorf("Step on complete PCB advanced cursor to %d, want 4", p.Cursor())
	}
}
