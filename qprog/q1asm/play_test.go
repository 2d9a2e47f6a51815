package q1asm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/q1asm"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/schedule"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// TestGenerate_S1_SingleSquarePlay is spec §8 scenario S1. A bare Square
// play is decomposed into an IQ pair (Q zero-padded, spec §4.4.5), whose
// two channels land in the waveform table in ascending-fingerprint order
// (spec §5): the all-1.0 I channel fingerprints lower than the all-0.0 Q
// channel at this duration, so I takes index 0 and Q takes index 1.
func TestGenerate_S1_SingleSquarePlay(t *testing.T) {
	tl := &schedule.Timeline{Bus: "b0", Events: []schedule.Event{
		{Kind: schedule.EventPlay, Waveform: ir.WaveformRef{
			Name:     "sq",
			Resolved: waveform.Square{Amplitude: 1.0, Duration: 40},
		}},
	}}

	out, err := q1asm.Generate(tl, q1asm.BusConfig{})
	require.NoError(t, err)

	assert.Equal(t, []q1asm.Instr{
		{Mnemonic: "play", Args: []string{"0", "1", "40"}},
	}, out.Program.Main)

	require.Len(t, out.Waveforms, 2)
	assert.Equal(t, uint16(0), out.Waveforms[0].Index)
	assert.Equal(t, repeat(1.0, 40), out.Waveforms[0].Samples)
	assert.Equal(t, uint16(1), out.Waveforms[1].Index)
	assert.Equal(t, repeat(0.0, 40), out.Waveforms[1].Samples)

	assert.Empty(t, out.Acquisitions)
}

// TestEmitPlay_SquareChunkingSoundness is spec §8 property 8, case (a): a
// Square long enough to trigger §4.4.5's chunking search is rewritten as
// a counted loop of k plays of a divisor-length chunk, with k*chunk
// exactly equal to the original duration.
func TestEmitPlay_SquareChunkingSoundness(t *testing.T) {
	tl := &schedule.Timeline{Bus: "b0", Events: []schedule.Event{
		{Kind: schedule.EventPlay, Waveform: ir.WaveformRef{
			Name:     "sq",
			Resolved: waveform.Square{Amplitude: 0.5, Duration: 1000},
		}},
	}}

	out, err := q1asm.Generate(tl, q1asm.BusConfig{})
	require.NoError(t, err)

	require.Len(t, out.Program.Main, 4)
	move, loopLabel, play, loop := out.Program.Main[0], out.Program.Main[1], out.Program.Main[2], out.Program.Main[3]

	require.Equal(t, "move", move.Mnemonic)
	require.Len(t, move.Args, 2)
	assert.Equal(t, "2", move.Args[0]) // k=2 chunks of 500ns cover 1000ns exactly
	ctrReg := move.Args[1]

	require.NotEmpty(t, loopLabel.Label)

	require.Equal(t, "play", play.Mnemonic)
	require.Len(t, play.Args, 3)
	assert.Equal(t, "500", play.Args[2]) // chunk=500ns, k*chunk == 1000ns == D

	require.Equal(t, "loop", loop.Mnemonic)
	require.Equal(t, []string{ctrReg, "@" + loopLabel.Label}, loop.Args)
}
