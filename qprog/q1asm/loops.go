package q1asm

import (
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/schedule"
)

// quantizeForDomain converts a loop variable's floating-point value into
// the integer unit its Domain materializes to in Q1ASM (spec §4.4.2).
func (g *Generator) quantizeForDomain(v *ir.Variable, val float64) int64 {
	switch v.Domain {
	case ir.Time:
		return QuantizeTime(int64(val), g.cfg.MinClockNs)
	case ir.Frequency:
		return QuantizeFreq(val)
	case ir.Phase:
		return int64(QuantizePhase(val))
	case ir.Voltage:
		return int64(QuantizeVoltage(val))
	default:
		return int64(val)
	}
}

// emitInfiniteLoop lowers to an unconditional jmp back-edge (spec §4.4.3).
func (g *Generator) emitInfiniteLoop(ev schedule.Event) {
	loopLabel := g.freshLabel("inf_loop")
	g.main = append(g.main, label(loopLabel))
	for _, child := range ev.Body {
		g.emitEvent(child)
	}
	g.main = append(g.main, instr("jmp", "@"+loopLabel))
}

// emitForLoop lowers ForLoop(var, start, stop, step): initialize the
// variable register, run the body once per labeled iteration, and close
// with the step increment and a hardware-decrementing loop instruction
// (spec §4.4.3, scenario S3).
func (g *Generator) emitForLoop(ev schedule.Event) {
	iterations := loopIterationCount(ev)
	if iterations <= 0 {
		return
	}
	varReg, err := g.regs.Acquire()
	if err != nil {
		g.fail(errOverflow(KindSequencerOverflow, g.bus, "for_loop variable"))
		return
	}
	g.regs.Pin(varReg)
	ctrReg, err := g.regs.Acquire()
	if err != nil {
		g.fail(errOverflow(KindSequencerOverflow, g.bus, "for_loop counter"))
		return
	}
	g.regs.Pin(ctrReg)
	g.varRegs[ev.Var] = varReg

	g.main = append(g.main,
		instr("move", arg(g.quantizeForDomain(ev.Var, ev.Start)), varReg.String()),
		instr("move", arg(int64(iterations)), ctrReg.String()),
	)
	loopLabel := g.freshLabel("for_loop")
	g.main = append(g.main, label(loopLabel))

	g.regs.PushScope()
	g.withLoopDepth(iterations, func() {
		for _, child := range ev.Body {
			g.emitEvent(child)
		}
	})
	g.regs.PopScope()

	stepQ := g.quantizeForDomain(ev.Var, ev.Start+ev.Step) - g.quantizeForDomain(ev.Var, ev.Start)
	g.main = append(g.main,
		instr("add", varReg.String(), arg(stepQ), varReg.String()),
		instr("loop", ctrReg.String(), "@"+loopLabel),
	)

	delete(g.varRegs, ev.Var)
	g.regs.Unpin(varReg)
	g.regs.Unpin(ctrReg)
	g.regs.Release(varReg)
	g.regs.Release(ctrReg)
}

// emitLoop lowers Loop(var, values[]). Q1ASM's register file has no
// indexed-memory-table read, so a fixed value array is realized as one
// unrolled repetition of the body per value, each preceded by a fresh
// `move` of that value's quantized form into the variable's register
// (spec §3.3/§4.4.3's "indexed lookup table" becomes, at the instruction
// level available here, a compile-time-unrolled sequence of immediates).
func (g *Generator) emitLoop(ev schedule.Event) {
	if len(ev.Values) == 0 {
		return
	}
	varReg, err := g.regs.Acquire()
	if err != nil {
		g.fail(errOverflow(KindSequencerOverflow, g.bus, "loop variable"))
		return
	}
	g.regs.Pin(varReg)
	g.varRegs[ev.Var] = varReg

	g.withLoopDepth(len(ev.Values), func() {
		for _, v := range ev.Values {
			g.main = append(g.main, instr("move", arg(g.quantizeForDomain(ev.Var, v)), varReg.String()))
			g.regs.PushScope()
			for _, child := range ev.Body {
				g.emitEvent(child)
			}
			g.regs.PopScope()
		}
	})

	delete(g.varRegs, ev.Var)
	g.regs.Unpin(varReg)
	g.regs.Release(varReg)
}

// emitAverage lowers the outermost hardware-averaging loop over Shots as a
// counted loop with no associated variable (spec §4.4.3).
func (g *Generator) emitAverage(ev schedule.Event) {
	if ev.Shots <= 0 {
		return
	}
	ctrReg, err := g.regs.Acquire()
	if err != nil {
		g.fail(errOverflow(KindSequencerOverflow, g.bus, "average shots counter"))
		return
	}
	g.regs.Pin(ctrReg)
	g.main = append(g.main, instr("move", arg(int64(ev.Shots)), ctrReg.String()))
	loopLabel := g.freshLabel("average")
	g.main = append(g.main, label(loopLabel))

	g.regs.PushScope()
	g.withLoopDepth(ev.Shots, func() {
		for _, child := range ev.Body {
			g.emitEvent(child)
		}
	})
	g.regs.PopScope()

	g.main = append(g.main, instr("loop", ctrReg.String(), "@"+loopLabel))
	g.regs.Unpin(ctrReg)
	g.regs.Release(ctrReg)
}

// emitParallel lowers a lockstep Parallel over N branches: since every
// branch shares the same iteration count, it unrolls the same way Loop
// does, updating every branch's variable register before each shared
// iteration's bodies run (spec §4.4.3: "all loops lowered over a single
// shared counter; child variables updated in the same iteration frame").
func (g *Generator) emitParallel(ev schedule.Event) {
	if len(ev.Branches) == 0 {
		return
	}
	count := len(ev.Branches[0].Values)
	regs := make([]Register, len(ev.Branches))
	for i, br := range ev.Branches {
		r, err := g.regs.Acquire()
		if err != nil {
			g.fail(errOverflow(KindSequencerOverflow, g.bus, "parallel branch variable"))
			return
		}
		g.regs.Pin(r)
		regs[i] = r
		g.varRegs[br.Var] = r
	}

	g.withLoopDepth(count, func() {
		for i := 0; i < count; i++ {
			for bi, br := range ev.Branches {
				g.main = append(g.main, instr("move", arg(g.quantizeForDomain(br.Var, br.Values[i])), regs[bi].String()))
			}
			g.regs.PushScope()
			for _, br := range ev.Branches {
				for _, child := range br.Body {
					g.emitEvent(child)
				}
			}
			g.regs.PopScope()
		}
	})

	for i, br := range ev.Branches {
		delete(g.varRegs, br.Var)
		g.regs.Unpin(regs[i])
		g.regs.Release(regs[i])
	}
}
