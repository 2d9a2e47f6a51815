package q1asm

import (
	"sort"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

// assignAcqFrame reserves an acquisition index and bin-counter register
// for the current loop-nesting depth the first time it is seen (spec
// §4.4.6: "acquires at the same nesting depth share an index and
// increment bin... distinct nesting depths consume distinct acquisition
// indices"). Exceeding cfg.MaxAcqIndices fails with AcquisitionOverflow.
func (g *Generator) assignAcqFrame() {
	if _, ok := g.acqFrames[g.loopDepth]; ok {
		return
	}
	if int(g.nextAcqIndex) >= g.cfg.MaxAcqIndices {
		g.fail(errOverflow(KindAcquisitionOverflow, g.bus, "more than "+itoa(g.cfg.MaxAcqIndices)+" distinct acquisition indices"))
		return
	}
	binReg, err := g.regs.Acquire()
	if err != nil {
		g.fail(errOverflow(KindSequencerOverflow, g.bus, "acquisition bin counter"))
		return
	}
	g.regs.Pin(binReg)
	idx := g.nextAcqIndex
	g.nextAcqIndex++
	numBins := 1
	for _, c := range g.loopCounts {
		if c > 0 {
			numBins *= c
		}
	}
	g.acqFrames[g.loopDepth] = &acqFrame{
		index:     idx,
		binReg:    binReg,
		numBins:   numBins,
		loopShape: append([]int(nil), g.loopCounts...),
	}
	g.acqSpecs[idx] = &AcquisitionSpec{Index: idx, NumBins: numBins, LoopShape: append([]int(nil), g.loopCounts...)}
}

// emitAcqBinInits zeroes every assigned bin-counter register in the setup
// section, in ascending index order for determinism (spec §5).
func (g *Generator) emitAcqBinInits() {
	depths := make([]int, 0, len(g.acqFrames))
	for d := range g.acqFrames {
		depths = append(depths, d)
	}
	sort.Slice(depths, func(i, j int) bool { return g.acqFrames[depths[i]].index < g.acqFrames[depths[j]].index })
	for _, d := range depths {
		f := g.acqFrames[d]
		g.setup = append(g.setup, instr("move", "0", f.binReg.String()))
	}
}

// collectWeights registers a resolved Weights pair's I/Q channels into the
// bus's weight table (no distortion chain applies to weights, only to
// played envelopes — spec §3.5).
func (g *Generator) collectWeights(ref ir.WeightsRef) {
	w, ok := ref.Resolved.(waveform.Weights)
	if !ok {
		return
	}
	fpI := waveform.FingerprintSamples(w.I)
	if !g.weightTable.has(fpI) {
		g.weightTable.collect(fpI, "weight-i", w.I)
	}
	fpQ := waveform.FingerprintSamples(w.Q)
	if !g.weightTable.has(fpQ) {
		g.weightTable.collect(fpQ, "weight-q", w.Q)
	}
}

// weightRegisters returns the (I,Q) register pair for w, allocating fresh
// registers only the first time this exact weight fingerprint is seen
// (spec §4.4.1: weight_register_cache) and sharing a single register for
// both channels when they are sample-identical (spec §8 property 7 / S5).
func (g *Generator) weightRegisters(w waveform.Weights) (weightRegPair, error) {
	fp := w.Fingerprint()
	if pair, ok := g.weightRegs[fp]; ok {
		return pair, nil
	}
	ri, err := g.regs.Acquire()
	if err != nil {
		return weightRegPair{}, err
	}
	g.regs.Pin(ri)
	rq := ri
	if waveform.FingerprintSamples(w.I) != waveform.FingerprintSamples(w.Q) {
		rq, err = g.regs.Acquire()
		if err != nil {
			return weightRegPair{}, err
		}
		g.regs.Pin(rq)
	}
	pair := weightRegPair{I: ri, Q: rq}
	g.weightRegs[fp] = pair
	return pair, nil
}

// emitAcquire lowers a Measure/Acquire event's integration step: weighted
// acquisition uses three register operands (bin, weight-I, weight-Q);
// duration-based acquisition uses the bin register alone (spec §4.4.6).
func (g *Generator) emitAcquire(weightsRef ir.WeightsRef, duration ir.TimeArg, saveADC bool) []Instr {
	frame, ok := g.acqFrames[g.loopDepth]
	if !ok {
		g.fail(errOverflow(KindAcquisitionOverflow, g.bus, "acquire emitted at an unassigned depth"))
		return nil
	}

	var out []Instr
	if w, ok := weightsRef.Resolved.(waveform.Weights); ok {
		regs, err := g.weightRegisters(w)
		if err != nil {
			g.fail(errOverflow(KindSequencerOverflow, g.bus, "weight registers"))
			return nil
		}
		mnemonic := "acquire_weighed"
		comment := ""
		if saveADC {
			comment = "save_adc"
		}
		out = append(out, instrC(comment, mnemonic, arg(int64(frame.index)), frame.binReg.String(), regs.I.String(), regs.Q.String()))
	} else {
		wait := QuantizeTime(duration.Const, g.cfg.MinClockNs)
		out = append(out, instr("acquire", arg(int64(frame.index)), frame.binReg.String(), arg(wait)))
	}
	out = append(out, instr("add", frame.binReg.String(), "1", frame.binReg.String()))
	return out
}
