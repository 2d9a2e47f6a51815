package q1asm

import (
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/schedule"
)

// emitSetFrequency quantizes a FreqArg to NCO units and emits set_freq.
// A Variable-backed argument reads the variable's already-materialized
// register instead of an immediate (spec §4.4.3: "apply set_freq/phase/
// gain/offset corresponding to the variable's current value as its first
// use per iteration"). Every set_freq latches a real-time parameter that
// only takes effect at the next upd_param/wait (spec §4.4.4), so this
// marks the bus's pending-update flag.
func (g *Generator) emitSetFrequency(f ir.FreqArg) []Instr {
	if f.UsesVar {
		r, ok := g.varRegs[f.Var]
		if !ok {
			g.fail(errUndeclaredVar(g.bus, f.Var.Label))
			return nil
		}
		g.pendingUpdate = true
		return []Instr{instr("set_freq", r.String())}
	}
	nco := QuantizeFreq(f.ConstHz)
	if nco < -2000000000 || nco > 2000000000 {
		g.fail(errOutOfRange(g.bus, "frequency", f.ConstHz, "±500MHz"))
		return nil
	}
	g.pendingUpdate = true
	return []Instr{instr("set_freq", arg(nco))}
}

// emitSetPhase quantizes a PhaseArg to the turns-of-2π fixed-point unit.
// Like emitSetFrequency, this marks a pending latched update (spec §4.4.4).
func (g *Generator) emitSetPhase(p ir.PhaseArg) []Instr {
	if p.UsesVar {
		r, ok := g.varRegs[p.Var]
		if !ok {
			g.fail(errUndeclaredVar(g.bus, p.Var.Label))
			return nil
		}
		g.pendingUpdate = true
		return []Instr{instr("set_ph", r.String())}
	}
	g.pendingUpdate = true
	return []Instr{instr("set_ph", arg(int64(QuantizePhase(p.ConstRad))))}
}

// emitSetGain quantizes both channels to signed DAC codes and marks a
// pending latched update (spec §4.4.4).
func (g *Generator) emitSetGain(gainI, gainQ float64) []Instr {
	g.pendingUpdate = true
	return []Instr{instr("set_awg_gain", arg(int64(QuantizeVoltage(gainI))), arg(int64(QuantizeVoltage(gainQ))))}
}

// emitSetOffset quantizes an (I,Q) offset pair. A scalar-only offset pads
// Q to 0 and raises WarnOffsetPadded rather than failing compilation
// (SPEC_FULL.md Design Decisions #2). Marks a pending latched update
// (spec §4.4.4).
func (g *Generator) emitSetOffset(ev schedule.Event) []Instr {
	offQ := ev.OffsetQ
	if !ev.HasQ {
		offQ = 0
		g.warn("WarnOffsetPadded: bus " + g.bus + " offset given as scalar, Q padded to 0")
	}
	g.pendingUpdate = true
	return []Instr{instr("set_awg_offs", arg(int64(QuantizeVoltage(ev.OffsetI))), arg(int64(QuantizeVoltage(offQ))))}
}
