// Package qasmsim interprets an emitted q1asm.Program and reconstructs
// the bus timeline it implies, for use exclusively by the test suite to
// assert the testable properties of spec §8 against the emitted
// instruction text itself rather than only against the generator's
// internal state. It is grounded on qc/simulator's OneShotRunner/registry
// idiom (a small interface plus one concrete implementation registered
// for a backend name), retargeted from "run a gate circuit" to "execute a
// Q1ASM instruction stream".
package qasmsim

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/q1asm"
)

// PlayEvent is one executed `play` instruction: the waveform-table
// indices it referenced and the real-time duration it consumed.
type PlayEvent struct {
	WaveI, WaveQ uint16
	DurationNs   int64
}

// Trace is the result of interpreting one bus's Program: the running
// clock, every wait/play duration observed in execution order (spec §8
// properties 2 and 4 are asserted directly against these), and whether
// the interpreter hit its step budget before reaching `stop` (only
// expected for an InfiniteLoop-bearing program).
type Trace struct {
	NowNs     int64
	Waits     []int64
	Plays     []PlayEvent
	Truncated bool
}

// DefaultMaxSteps bounds interpretation of a program containing an
// InfiniteLoop back-edge; the tests that exercise those programs run a
// bounded prefix and check Truncated rather than expecting termination.
const DefaultMaxSteps = 1_000_000

// Interpreter executes one bus's Program. Its only mutable state is the
// register file and program counter — no concurrency, matching the
// compiler's own purely-sequential model (spec §5).
type Interpreter struct {
	maxSteps int
}

// New returns an Interpreter with DefaultMaxSteps.
func New() *Interpreter { return &Interpreter{maxSteps: DefaultMaxSteps} }

// WithMaxSteps overrides the step budget.
func (ip *Interpreter) WithMaxSteps(n int) *Interpreter {
	ip.maxSteps = n
	return ip
}

// Run interprets p from its first setup instruction through `stop` (or
// until the step budget is exhausted).
func (ip *Interpreter) Run(p q1asm.Program) (Trace, error) {
	lines := p.Lines()
	labels := make(map[string]int, len(lines))
	for i, ins := range lines {
		if ins.Label != "" {
			labels[ins.Label] = i
		}
	}

	regs := make(map[string]int64)
	var tr Trace
	pc := 0
	for steps := 0; pc < len(lines); steps++ {
		if steps >= ip.maxSteps {
			tr.Truncated = true
			return tr, nil
		}
		ins := lines[pc]
		if ins.Label != "" {
			pc++
			continue
		}
		switch ins.Mnemonic {
		case "stop":
			return tr, nil
		case "wait", "wait_sync":
			d := ip.val(ins.Args[0], regs)
			tr.Waits = append(tr.Waits, d)
			tr.NowNs += d
			pc++
		case "upd_param":
			tr.NowNs += ip.val(ins.Args[0], regs)
			pc++
		case "play":
			wi := ip.val(ins.Args[0], regs)
			wq := ip.val(ins.Args[1], regs)
			d := ip.val(ins.Args[2], regs)
			tr.Plays = append(tr.Plays, PlayEvent{WaveI: uint16(wi), WaveQ: uint16(wq), DurationNs: d})
			tr.NowNs += d
			pc++
		case "acquire":
			// args: index, bin register, duration
			tr.NowNs += ip.val(ins.Args[2], regs)
			pc++
		case "acquire_weighed":
			// Integration length lives in the weight table, not the
			// instruction stream; not modeled by this interpreter.
			pc++
		case "move":
			regs[ins.Args[1]] = ip.val(ins.Args[0], regs)
			pc++
		case "add":
			regs[ins.Args[2]] = ip.val(ins.Args[0], regs) + ip.val(ins.Args[1], regs)
			pc++
		case "sub":
			regs[ins.Args[2]] = ip.val(ins.Args[0], regs) - ip.val(ins.Args[1], regs)
			pc++
		case "not":
			regs[ins.Args[1]] = ^ip.val(ins.Args[0], regs)
			pc++
		case "loop":
			reg := ins.Args[0]
			regs[reg]--
			if regs[reg] != 0 {
				pc = ip.target(ins.Args[1], labels)
			} else {
				pc++
			}
		case "jmp":
			pc = ip.target(ins.Args[0], labels)
		case "set_freq", "set_ph", "set_ph_delta", "reset_ph",
			"set_awg_gain", "set_awg_offs", "set_mrk",
			"latch_en", "latch_rst", "set_conditional":
			// Classical/NCO side effects carry no execution-time cost at
			// this level of fidelity; latch_rst is explicitly a no-op to
			// any non-executing consumer per spec §4.4.8.
			pc++
		default:
			return tr, fmt.Errorf("qasmsim: unknown mnemonic %q at pc=%d", ins.Mnemonic, pc)
		}
	}
	return tr, nil
}

func (ip *Interpreter) target(tok string, labels map[string]int) int {
	name := strings.TrimPrefix(tok, "@")
	if pc, ok := labels[name]; ok {
		return pc
	}
	return len(labels) // out of range -> loop terminates on next bounds check
}

func (ip *Interpreter) val(tok string, regs map[string]int64) int64 {
	if strings.HasPrefix(tok, "R") {
		if v, ok := regs[tok]; ok {
			return v
		}
		return 0
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
