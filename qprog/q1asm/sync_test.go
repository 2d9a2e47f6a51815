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

// TestGenerate_S4_CrossBusSync is spec §8 scenario S4: b0 plays a 200ns
// square, b1 plays a 40ns square, then Sync(b0, b1). b1's projected
// timeline must carry the 160ns catch-up wait ahead of anything else, and
// the generator must render it as a plain `wait 160` so both buses reach
// the same Q1ASM-visible clock.
func TestGenerate_S4_CrossBusSync(t *testing.T) {
	b := ir.New()
	b.Play("b0", "sqA")
	b.Play("b1", "sqB")
	b.Sync("b0", "b1")
	prog, err := b.Build()
	require.NoError(t, err)

	cal := waveform.NewCalibration()
	cal.SetWaveform("b0", "sqA", waveform.Square{Amplitude: 1.0, Duration: 200})
	cal.SetWaveform("b1", "sqB", waveform.Square{Amplitude: 1.0, Duration: 40})
	require.NoError(t, waveform.ResolveProgram(prog, cal))

	res, err := schedule.Partition(prog, schedule.Config{Buses: []string{"b0", "b1"}})
	require.NoError(t, err)

	b0 := res.Timelines["b0"]
	b1 := res.Timelines["b1"]
	assert.Equal(t, int64(200), b0.NowNs)
	assert.Equal(t, int64(200), b1.NowNs)

	var synced bool
	for _, d := range res.Diagnostics {
		if d.Kind == schedule.DiagSynced && d.Bus == "b1" {
			synced = true
			assert.Equal(t, int64(160), d.DeltaNs)
		}
	}
	assert.True(t, synced, "expected a DiagSynced diagnostic for bus b1")

	out0, err := q1asm.Generate(b0, q1asm.BusConfig{})
	require.NoError(t, err)
	assert.Equal(t, []q1asm.Instr{
		{Mnemonic: "play", Args: []string{"0", "1", "200"}},
	}, out0.Program.Main)

	out1, err := q1asm.Generate(b1, q1asm.BusConfig{})
	require.NoError(t, err)
	require.Len(t, out1.Program.Main, 2)
	assert.Equal(t, "play", out1.Program.Main[0].Mnemonic)
	assert.Equal(t, q1asm.Instr{Mnemonic: "wait", Args: []string{"160"}}, out1.Program.Main[1])
}
