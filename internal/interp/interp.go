// interp.go - Per-PCB instruction interpreter.
//
// Every operation here only mutates the PCB passed in: its variable map and
// its log. Operations are "pure" with respect to every other process in the
// system, so many PCBs can be interpreted concurrently by different workers
// without any shared lock beyond the PCB's own.
//
// License: GPLv3 or later

package interp

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/csopesy-lab/osemu/internal/instr"
	"github.com/csopesy-lab/osemu/internal/pcb"
)

// ErrStringOperand is returned when a String atom is used where a numeric
// value is required (Declare/Add/Sub/Sleep/For-count operands). This is an
// "instruction evaluation error": the step is abandoned but the PCB's
// cursor still advances and the PCB is not killed.
var ErrStringOperand = errors.New("interp: string atom cannot be resolved to a number")

// timestampLayout renders the "(MM/DD/YYYY HH:MM:SS AM/PM)" log timestamp
// format.
const timestampLayout = "01/02/2006 03:04:05 PM"

// Resolve evaluates an Atom to a u16. A Name resolves against the PCB's
// variables, yielding 0 if undefined — never a fault. A String
// atom cannot be resolved to a number and returns ErrStringOperand.
func Resolve(p *pcb.PCB, a instr.Atom) (uint16, error) {
	switch a.Kind {
	case instr.AtomNumber:
		return a.Number, nil
	case instr.AtomName:
		return p.Variable(a.Text), nil
	case instr.AtomString:
		return 0, ErrStringOperand
	default:
		return 0, fmt.Errorf("interp: unknown atom kind %d", a.Kind)
	}
}

// render formats an Atom the way PRINT/PRINTCONCAT do: Number -> decimal,
// Name -> resolved decimal, String -> literal text.
func render(p *pcb.PCB, a instr.Atom) string {
	switch a.Kind {
	case instr.AtomNumber:
		return strconv.FormatUint(uint64(a.Number), 10)
	case instr.AtomName:
		return strconv.FormatUint(uint64(p.Variable(a.Text)), 10)
	case instr.AtomString:
		return a.Text
	default:
		return ""
	}
}

// SaturatingAdd computes min(a+b, 65535).
func SaturatingAdd(a, b uint16) uint16 {
	sum := uint32(a) + uint32(b)
	if sum > 65535 {
		return 65535
	}
	return uint16(sum)
}

// SaturatingSub computes max(a-b, 0), guarding against u16 underflow.
func SaturatingSub(a, b uint16) uint16 {
	if b >= a {
		return 0
	}
	return a - b
}

// Declare assigns variables[name] = resolve(value).
func Declare(p *pcb.PCB, name string, value instr.Atom) error {
	v, err := Resolve(p, value)
	if err != nil {
		return err
	}
	p.SetVariable(name, v)
	return nil
}

// Add computes variables[dest] = saturating(lhs + rhs).
func Add(p *pcb.PCB, dest string, lhs, rhs instr.Atom) error {
	a, err := Resolve(p, lhs)
	if err != nil {
		return err
	}
	b, err := Resolve(p, rhs)
	if err != nil {
		return err
	}
	p.SetVariable(dest, SaturatingAdd(a, b))
	return nil
}

// Sub computes variables[dest] = saturating(lhs - rhs).
func Sub(p *pcb.PCB, dest string, lhs, rhs instr.Atom) error {
	a, err := Resolve(p, lhs)
	if err != nil {
		return err
	}
	b, err := Resolve(p, rhs)
	if err != nil {
		return err
	}
	p.SetVariable(dest, SaturatingSub(a, b))
	return nil
}

// Print appends a single-atom message to the PCB's log.
func Print(p *pcb.PCB, coreID int32, a instr.Atom, at time.Time) error {
	return appendLogLine(p, coreID, render(p, a), at)
}

// PrintConcat appends a two-atom concatenated message to the PCB's log.
func PrintConcat(p *pcb.PCB, coreID int32, lhs, rhs instr.Atom, at time.Time) error {
	return appendLogLine(p, coreID, render(p, lhs)+render(p, rhs), at)
}

func appendLogLine(p *pcb.PCB, coreID int32, text string, at time.Time) error {
	p.AppendLog(pcb.LogLine{
		At:   at,
		Text: fmt.Sprintf("(%s) %q Core:%d", at.Format(timestampLayout), text, coreID),
	})
	return nil
}

// Sleep sets sleep_remaining from the resolved cycle count. It does not
// execute any further ticks itself: subsequent ticks burn the count down
// via pcb.DecaySleep.
func Sleep(p *pcb.PCB, cycles instr.Atom) error {
	v, err := Resolve(p, cycles)
	if err != nil {
		return err
	}
	p.BeginSleep(v)
	return nil
}

// For repeats body resolve(count) times, synchronously, within the single
// tick that evaluates the FOR instruction itself. An undefined
// Name count resolves to 0, so the loop runs zero times. A per-instruction
// evaluation error inside the body does not abort the remaining iterations
// or instructions — each body instruction is independent, matching the
// evaluation-error contract
// ("the PCB's current step is aborted but the cursor still advances" is a
// top-level-instruction property; FOR's body instructions are not
// themselves top-level and must still run to keep randomly generated
// programs well-defined). The first error encountered, if any, is returned
// to the caller for logging.
func For(p *pcb.PCB, coreID int32, body []instr.Instruction, count instr.Atom, at time.Time) error {
	n, err := Resolve(p, count)
	if err != nil {
		return err
	}
	var firstErr error
	for i := uint16(0); i < n; i++ {
		for _, ins := range body {
			if evalErr := Eval(p, coreID, ins, at); evalErr != nil && firstErr == nil {
				firstErr = evalErr
			}
		}
	}
	return firstErr
}

// Step executes one dispatched tick against p:
//
//  1. If sleep_remaining > 0: decrement it, advance cursor by one, return.
//  2. Else if cursor < len(instructions): evaluate instructions[cursor],
//     advance cursor by one. If that instruction was SLEEP, sleep_remaining
//     now holds the resolved count; subsequent ticks burn it down via (1).
//  3. Else: no-op, the PCB is complete.
//
// Step never returns an error for a completed/no-op PCB; instruction
// evaluation errors are returned but do not prevent the cursor
// advance that already happened.
func Step(p *pcb.PCB, coreID int32, now time.Time) error {
	if p.SleepRemaining() > 0 {
		p.DecaySleep()
		return nil
	}
	ip := p.NextInstructionIndex()
	if ip >= uint64(len(p.Instructions)) {
		return nil
	}
	ins := p.Instructions[ip]
	err := Eval(p, coreID, ins, now)
	p.AdvanceInstruction()
	return err
}

// Eval dispatches a single Instruction node to its operation. It is used
// both for top-level instructions (by Step, via the worker) and
// recursively for FOR bodies.
func Eval(p *pcb.PCB, coreID int32, ins instr.Instruction, at time.Time) error {
	switch ins.Kind {
	case instr.KindDeclare:
		return Declare(p, ins.Dest, ins.A)
	case instr.KindPrint:
		return Print(p, coreID, ins.A, at)
	case instr.KindPrintConcat:
		return PrintConcat(p, coreID, ins.A, ins.B, at)
	case instr.KindAdd:
		return Add(p, ins.Dest, ins.A, ins.B)
	case instr.KindSub:
		return Sub(p, ins.Dest, ins.A, ins.B)
	case instr.KindSleep:
		return Sleep(p, ins.A)
	case instr.KindFor:
		return For(p, coreID, ins.Body, ins.Count, at)
	default:
		return fmt.Errorf("interp: unknown instruction kind %d", ins.Kind)
	}
}
