package q1asm

import "github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/schedule"

// propagationWaitNs is the default wait Qblox hardware needs for a
// readout's latched result to reach the control bus's conditional network
// before it issues the reset pulse (spec §4.4.7).
const propagationWaitNs = 400

// emitMeasureReset lowers one half of a cross-bus active-reset operation.
// The readout bus runs latch_rst -> play -> acquire -> a propagation wait;
// the control bus (latch_en already raised once in setup) runs a
// conditional reset pulse gated on the readout's trigger address.
func (g *Generator) emitMeasureReset(ev schedule.Event) []Instr {
	if ev.Role == schedule.RoleReadout {
		var out []Instr
		out = append(out, instr("latch_rst", arg(int64(g.cfg.MinClockNs))))
		out = append(out, g.emitPlay(ev.Waveform)...)
		out = append(out, g.emitAcquire(ev.Weights, ev.Duration, ev.SaveADC)...)
		out = append(out, g.EmitWait(QuantizeTime(propagationWaitNs, g.cfg.MinClockNs))...)
		return out
	}

	// spec §4.4.7: "...then sync, set_conditional(enable, mask, ...)" — the
	// scheduler has already aligned this bus's clock to the readout's (see
	// schedule.projectMeasureReset), emitting the catch-up wait as its own
	// EventWait immediately before this event in the bus's timeline, so no
	// extra sync instruction is needed here.
	mask := arg(int64(ev.TriggerAddress))
	elseWait := arg(QuantizeTime(propagationWaitNs, g.cfg.MinClockNs))
	var out []Instr
	out = append(out, instrC("enable reset on trigger "+itoa(ev.TriggerAddress), "set_conditional", "1", mask, elseWait))
	out = append(out, g.emitPlay(ev.ResetPulse)...)
	out = append(out, instrC("disable", "set_conditional", "0", mask, elseWait))
	return out
}
