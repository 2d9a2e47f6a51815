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

// TestGenerate_MeasureResetFullLowering exercises spec §4.4.7's active
// reset end to end through the real scheduler projection: a 1000ns
// readout pulse plus the 400ns trigger-propagation wait puts the readout
// bus's clock at 1400ns, so the control bus — otherwise idle — must be
// padded by 1400ns (recorded as a DiagSynced diagnostic) before its
// conditional reset pulse is allowed to fire, and that alignment wait
// must precede the set_conditional/play/set_conditional sequence in the
// control bus's generated program.
func TestGenerate_MeasureResetFullLowering(t *testing.T) {
	b := ir.New()
	b.MeasureReset("ro0", "ro_pulse", "ro_weights", "ctrl0", "reset_pulse", 1)
	prog, err := b.Build()
	require.NoError(t, err)

	cal := waveform.NewCalibration()
	cal.SetWaveform("ro0", "ro_pulse", waveform.Square{Amplitude: 0.3, Duration: 1000})
	cal.SetWeights("ro0", "ro_weights", waveform.Weights{I: make([]float64, 1000), Q: make([]float64, 1000)})
	cal.SetWaveform("ctrl0", "reset_pulse", waveform.Square{Amplitude: 1.0, Duration: 40})
	require.NoError(t, waveform.ResolveProgram(prog, cal))

	res, err := schedule.Partition(prog, schedule.Config{Buses: []string{"ro0", "ctrl0"}})
	require.NoError(t, err)

	readout := res.Timelines["ro0"]
	control := res.Timelines["ctrl0"]
	assert.Equal(t, int64(1400), readout.NowNs)
	assert.Equal(t, int64(1440), control.NowNs)

	var controlSynced bool
	for _, d := range res.Diagnostics {
		if d.Kind == schedule.DiagSynced && d.Bus == "ctrl0" {
			controlSynced = true
			assert.Equal(t, int64(1400), d.DeltaNs)
		}
	}
	assert.True(t, controlSynced, "expected a DiagSynced diagnostic padding ctrl0 up to the readout's clock")

	roOut, err := q1asm.Generate(readout, q1asm.BusConfig{})
	require.NoError(t, err)
	require.NotEmpty(t, roOut.Program.Main)
	assert.Equal(t, "latch_rst", roOut.Program.Main[0].Mnemonic)
	last := roOut.Program.Main[len(roOut.Program.Main)-1]
	assert.Equal(t, q1asm.Instr{Mnemonic: "wait", Args: []string{"400"}}, last)

	ctrlOut, err := q1asm.Generate(control, q1asm.BusConfig{})
	require.NoError(t, err)
	assert.Contains(t, ctrlOut.Program.Setup, q1asm.Instr{Mnemonic: "latch_en", Args: []string{"1"}})

	require.Len(t, ctrlOut.Program.Main, 4)
	assert.Equal(t, q1asm.Instr{Mnemonic: "wait", Args: []string{"1400"}}, ctrlOut.Program.Main[0])

	enable := ctrlOut.Program.Main[1]
	play := ctrlOut.Program.Main[2]
	disable := ctrlOut.Program.Main[3]

	require.Equal(t, "set_conditional", enable.Mnemonic)
	assert.Equal(t, []string{"1", "1", "400"}, enable.Args)

	assert.Equal(t, "play", play.Mnemonic)

	require.Equal(t, "set_conditional", disable.Mnemonic)
	assert.Equal(t, []string{"0", "1", "400"}, disable.Args)
}
