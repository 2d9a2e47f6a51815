package q1asm

import (
	"fmt"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

// toIQ normalizes a resolved waveform reference to an IQPair: a bare
// single-channel Waveform gets a flat-zero Q channel of matching duration
// (spec S1: "Q=const-0.0"), while an IQPair passes through unchanged.
func toIQ(resolved any) (waveform.IQPair, bool) {
	switch w := resolved.(type) {
	case waveform.IQPair:
		return w, true
	case waveform.Waveform:
		return waveform.IQPair{I: w, Q: waveform.Square{Amplitude: 0, Duration: w.DurationNs()}}, true
	default:
		return waveform.IQPair{}, false
	}
}

func resolvedDurationNs(resolved any) int64 {
	switch w := resolved.(type) {
	case waveform.IQPair:
		return w.DurationNs()
	case waveform.Waveform:
		return w.DurationNs()
	default:
		return 0
	}
}

// playPiece is one unit of the play-lowering decomposition of §4.4.5: a
// waveform to play, optionally repeated in a tight register-counted loop
// (the long-square-chunking case).
type playPiece struct {
	IQ     waveform.IQPair
	Repeat int64
}

// planPlay decomposes a resolved waveform reference into the ordered
// sequence of plays the generator must emit, applying long-square
// chunking (spec §4.4.5 bullet 2) and FlatTop rise/square/fall
// decomposition (bullet 3). Both the collection pre-pass and the
// emission pass call this so their waveform references never diverge.
func (g *Generator) planPlay(resolved any) []playPiece {
	switch w := resolved.(type) {
	case waveform.Square:
		return g.planSquare(w)
	case waveform.FlatTop:
		return g.planFlatTop(w)
	default:
		iq, ok := toIQ(resolved)
		if !ok {
			return nil
		}
		return []playPiece{{IQ: iq, Repeat: 1}}
	}
}

func (g *Generator) planSquare(s waveform.Square) []playPiece {
	if s.Duration <= LongSquareThresholdNs {
		iq, _ := toIQ(s)
		return []playPiece{{IQ: iq, Repeat: 1}}
	}
	chunk, count, remainder, ok := squareChunk(s.Duration, g.cfg.MinWaitNs)
	if !ok {
		iq, _ := toIQ(s)
		return []playPiece{{IQ: iq, Repeat: 1}}
	}
	pieces := []playPiece{{IQ: mustIQ(waveform.Square{Amplitude: s.Amplitude, Duration: chunk}), Repeat: count}}
	if remainder > 0 {
		pieces = append(pieces, playPiece{IQ: mustIQ(waveform.Square{Amplitude: s.Amplitude, Duration: remainder}), Repeat: 1})
	}
	return pieces
}

// squareChunk searches chunk lengths in [squareChunkMin, squareChunkMax]
// for the decomposition §4.4.5 prescribes: first the largest chunk that
// divides duration exactly, else the largest chunk whose remainder is at
// least minWaitNs. Returns ok=false when neither search succeeds, meaning
// the caller must fall back to one full-length play.
func squareChunk(duration, minWaitNs int64) (chunk, count, remainder int64, ok bool) {
	for c := int64(squareChunkMax); c >= squareChunkMin; c-- {
		if duration%c == 0 {
			return c, duration / c, 0, true
		}
	}
	for c := int64(squareChunkMax); c >= squareChunkMin; c-- {
		if rem := duration % c; rem >= minWaitNs {
			return c, duration / c, rem, true
		}
	}
	return 0, 0, 0, false
}

// planFlatTop decomposes a long FlatTop into cosine rise/fall edges
// (rendered as explicit samples, since the sequencer has no native
// raised-cosine primitive) around a chunked square plateau (spec §4.4.5
// bullet 3).
func (g *Generator) planFlatTop(f waveform.FlatTop) []playPiece {
	if f.DurationNs() <= FlatTopThresholdNs || f.RiseFall <= 0 {
		iq, _ := toIQ(f)
		return []playPiece{{IQ: iq, Repeat: 1}}
	}
	env := f.Envelope(1)
	rise := waveform.Arbitrary{Samples: append([]float64(nil), env[:f.RiseFall]...), Duration: f.RiseFall}
	fall := waveform.Arbitrary{Samples: append([]float64(nil), env[len(env)-int(f.RiseFall):]...), Duration: f.RiseFall}

	pieces := []playPiece{{IQ: mustIQ(rise), Repeat: 1}}
	pieces = append(pieces, g.planSquare(waveform.Square{Amplitude: f.Amplitude, Duration: f.Duration})...)
	pieces = append(pieces, playPiece{IQ: mustIQ(fall), Repeat: 1})
	return pieces
}

func mustIQ(w waveform.Waveform) waveform.IQPair {
	iq, _ := toIQ(w)
	return iq
}

// collectPlay registers ref's decomposed channels into the bus's waveform
// table, applying the distortion chain once per distinct raw fingerprint
// (spec §3.6 invariant 4, §4.2).
func (g *Generator) collectPlay(ref ir.WaveformRef) {
	if iq, ok := ref.Resolved.(waveform.IQPair); ok && iq.I.DurationNs() != iq.Q.DurationNs() {
		g.fail(errBadWaveformDuration(g.bus, fmt.Sprintf("%q: I channel %dns, Q channel %dns", ref.Name, iq.I.DurationNs(), iq.Q.DurationNs())))
		return
	}
	for _, piece := range g.planPlay(ref.Resolved) {
		g.collectWaveform(piece.IQ.I)
		g.collectWaveform(piece.IQ.Q)
	}
}

func (g *Generator) collectWaveform(w waveform.Waveform) {
	fp := waveform.Fingerprint(w)
	if g.waveTable.has(fp) {
		return
	}
	samples := w.Envelope(1)
	distorted := g.cfg.Distortion.ApplyWithState(append([]float64(nil), samples...), g.cfg.FilterStates)
	g.waveTable.collect(fp, fmt.Sprintf("%T", w), distorted)
}

func (g *Generator) internWaveform(w waveform.Waveform) uint16 {
	return g.waveTable.intern(waveform.Fingerprint(w))
}

// emitPlay lowers a resolved waveform reference into play/wait
// instructions, per piece of its decomposition.
func (g *Generator) emitPlay(ref ir.WaveformRef) []Instr {
	var out []Instr
	for _, piece := range g.planPlay(ref.Resolved) {
		if piece.Repeat > 1 {
			out = append(out, g.emitPlayLoop(piece)...)
		} else {
			out = append(out, g.emitPlayOnce(piece.IQ)...)
		}
	}
	return out
}

// emitPlayOnce emits a single play instruction (with MIN_PLAY_TICK
// clamping and a trailing wait for anything beyond it) for one waveform
// occurrence.
func (g *Generator) emitPlayOnce(iq waveform.IQPair) []Instr {
	wfI := g.internWaveform(iq.I)
	wfQ := g.internWaveform(iq.Q)
	duration := iq.DurationNs()
	tick := duration
	if tick > MinPlayTickNs {
		tick = MinPlayTickNs
	}
	out := []Instr{instr("play", arg(int64(wfI)), arg(int64(wfQ)), arg(tick))}
	if duration > tick {
		out = append(out, g.EmitWait(duration-tick)...)
	}
	return out
}

// emitPlayLoop emits a register-counted loop of piece.Repeat one-shot
// plays of the same chunk waveform (long-square chunking, spec §4.4.5).
func (g *Generator) emitPlayLoop(piece playPiece) []Instr {
	ctr, err := g.regs.Acquire()
	if err != nil {
		g.fail(errOverflow(KindSequencerOverflow, g.bus, "square-chunk loop counter"))
		return nil
	}
	loopLabel := g.freshLabel("sq_loop")
	out := []Instr{instr("move", arg(piece.Repeat), ctr.String()), label(loopLabel)}
	out = append(out, g.emitPlayOnce(piece.IQ)...)
	out = append(out, instr("loop", ctr.String(), "@"+loopLabel))
	g.regs.Release(ctr) // loop counter never escapes this loop; free immediately
	return out
}
