package qasmsim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/qasmsim"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/testutil"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/compiler"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/q1asm"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

func badProgram() q1asm.Program {
	return q1asm.Program{
		Bus: "drive",
		Main: []q1asm.Instr{
			{Mnemonic: "frobnicate", Args: []string{"1"}},
		},
		Stop: []q1asm.Instr{
			{Mnemonic: "stop"},
		},
	}
}

func TestInterpreter_ReadoutProgramPlaysExpectedWaveform(t *testing.T) {
	prog := testutil.NewReadoutProgram(t, 10)
	cal := testutil.NewCalibration()
	backend := testutil.NewBackendConfig()

	result, err := compiler.Compile(prog, cal, nil, backend)
	require.NoError(t, err)

	drive, ok := result.Buses["drive"]
	require.True(t, ok)

	trace, err := qasmsim.New().Run(drive.Program)
	require.NoError(t, err)
	assert.False(t, trace.Truncated)
	require.Len(t, trace.Plays, 10, "expected one play per shot: the Average loop body runs once per shot")
	assert.Equal(t, int64(40), trace.Plays[0].DurationNs, "x180 is a 40ns DRAG pulse")
}

func TestInterpreter_InfiniteLoopTruncates(t *testing.T) {
	b := ir.New()
	b.InfiniteLoop(func(b *ir.Builder) {
		b.Play("drive", "x180")
		b.Wait("drive", 100)
	})
	prog, err := b.Build()
	require.NoError(t, err)

	cal := waveform.NewCalibration()
	cal.SetIQPair("drive", "x180", waveform.DRAG(1.0, 40, 3, 0.5))
	require.NoError(t, waveform.ResolveProgram(prog, cal))

	backend := testutil.NewBackendConfig()
	result, err := compiler.Compile(prog, cal, nil, compiler.BackendConfig{
		AutoSync: backend.AutoSync,
		Buses:    map[string]compiler.BusBackendConfig{"drive": backend.Buses["drive"]},
	})
	require.NoError(t, err)

	trace, err := qasmsim.New().WithMaxSteps(50).Run(result.Buses["drive"].Program)
	require.NoError(t, err)
	assert.True(t, trace.Truncated)
}

func TestInterpreter_WaitsRespectConfiguredBounds(t *testing.T) {
	prog := testutil.NewReadoutProgram(t, 1)
	cal := testutil.NewCalibration()
	backend := testutil.NewBackendConfig()

	result, err := compiler.Compile(prog, cal, nil, backend)
	require.NoError(t, err)

	for bus, out := range result.Buses {
		trace, err := qasmsim.New().Run(out.Program)
		require.NoError(t, err)
		for _, w := range trace.Waits {
			assert.GreaterOrEqual(t, w, int64(4), "bus %s emitted a sub-minimum wait", bus)
			assert.LessOrEqual(t, w, int64(65532), "bus %s emitted an over-maximum wait", bus)
		}
	}
}

func TestInterpreter_UnknownMnemonicErrors(t *testing.T) {
	_, err := qasmsim.New().Run(badProgram())
	assert.Error(t, err)
}
