package q1asm

// MinWaitNs and MaxWaitNs bound a single emitted `wait` instruction (spec
// §3.6 invariant 6).
const (
	MinWaitNs = 4
	MaxWaitNs = 65532
)

// EmitWait lowers a total wait duration w (already MIN_CLOCK-aligned) into
// one or more `wait` instructions honoring MinWaitNs <= w <= MaxWaitNs
// (spec §4.4.4). g is the generator's register allocator, used only when
// the decomposition needs a register-counted inner loop. Before building
// the chunk sequence, any pending latched-parameter update (set_freq,
// set_ph, set_awg_gain, set_awg_offs, set_mrk, reset_ph since the last
// wait) is folded in per spec §4.4.4's final paragraph: the update's
// upd_param costs MinWaitNs, subtracted from w, and a w left at or below
// 2*MinWaitNs is replaced outright by the update alone.
func (g *Generator) EmitWait(w int64) []Instr {
	pre, w, replaced := g.foldPendingUpdate(w)
	if replaced {
		return pre
	}
	if w <= 0 {
		return pre
	}
	if w <= MaxWaitNs {
		return append(pre, instr("wait", arg(w)))
	}

	chunks := w / MaxWaitNs
	rem := w % MaxWaitNs

	switch {
	case rem == 0:
		return append(pre, g.emitWaitLoop(chunks, MaxWaitNs, nil)...)
	case rem >= MinWaitNs:
		return append(pre, g.emitWaitLoop(chunks, MaxWaitNs, []Instr{instr("wait", arg(rem))})...)
	default:
		// 0 < rem < MinWaitNs: borrow from the last full chunk so both
		// remaining pieces stay >= MinWaitNs.
		lastChunk := MaxWaitNs + rem - MinWaitNs
		tail := []Instr{
			instr("wait", arg(lastChunk)),
			instr("wait", arg(int64(MinWaitNs))),
		}
		return append(pre, g.emitWaitLoop(chunks-1, MaxWaitNs, tail)...)
	}
}

// emitWaitLoop emits a register-counted loop of `count` repetitions of
// `wait chunkNs`, followed by tail instructions run once after the loop.
func (g *Generator) emitWaitLoop(count int64, chunkNs int64, tail []Instr) []Instr {
	if count <= 0 {
		return tail
	}
	if count == 1 {
		return append([]Instr{instr("wait", arg(chunkNs))}, tail...)
	}
	ctr, err := g.regs.Acquire()
	if err != nil {
		g.fail(errOverflow(KindSequencerOverflow, g.bus, "wait-loop counter"))
		return tail
	}
	loopLabel := g.freshLabel("wait_loop")
	out := []Instr{
		instr("move", arg(count), ctr.String()),
		label(loopLabel),
		instr("wait", arg(chunkNs)),
		instr("loop", ctr.String(), "@"+loopLabel),
	}
	out = append(out, tail...)
	return out
}
