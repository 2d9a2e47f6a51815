package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/compiler"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

func twoBusBackend() compiler.BackendConfig {
	return compiler.BackendConfig{
		AutoSync: true,
		Buses: map[string]compiler.BusBackendConfig{
			"b0": {MinimumClockTimeNs: 4, MarkersDefault: 0xF, RegisterCount: 32, MinWaitNs: 4, MaxWaitNs: 65532, MaxAcqIndices: 32},
			"b1": {MinimumClockTimeNs: 4, MarkersDefault: 0xF, RegisterCount: 32, MinWaitNs: 4, MaxWaitNs: 65532, MaxAcqIndices: 32},
		},
	}
}

// TestCompile_S4_CrossBusSync is spec §8 scenario S4: b0 plays a 200ns
// square, b1 plays a 40ns square, then the program syncs both buses. b1
// must pad with a wait that brings it level with b0's longer play before
// either bus stops.
func TestCompile_S4_CrossBusSync(t *testing.T) {
	b := ir.New(ir.WithID("s4"))
	b.Play("b0", "sq200")
	b.Play("b1", "sq40")
	b.Sync("b0", "b1")
	prog, err := b.Build()
	require.NoError(t, err)

	cal := waveform.NewCalibration()
	cal.SetWaveform("b0", "sq200", waveform.Square{Amplitude: 1.0, Duration: 200})
	cal.SetWaveform("b1", "sq40", waveform.Square{Amplitude: 1.0, Duration: 40})

	result, err := compiler.Compile(prog, cal, nil, twoBusBackend())
	require.NoError(t, err)

	b1 := result.Buses["b1"]
	require.NotEmpty(t, b1.Program.Main)

	var sawWait160 bool
	for _, instr := range b1.Program.Main {
		if instr.Mnemonic == "wait" && len(instr.Args) == 1 && instr.Args[0] == "160" {
			sawWait160 = true
		}
	}
	assert.True(t, sawWait160, "expected b1 to wait 160ns to catch up to b0, program: %+v", b1.Program.Main)
}

// TestCompile_S1_SingleSquarePlay is spec §8 scenario S1, exercised
// through the full pipeline rather than directly against the generator.
func TestCompile_S1_SingleSquarePlay(t *testing.T) {
	b := ir.New(ir.WithID("s1"))
	b.Play("b0", "sq")
	prog, err := b.Build()
	require.NoError(t, err)

	cal := waveform.NewCalibration()
	cal.SetWaveform("b0", "sq", waveform.Square{Amplitude: 1.0, Duration: 40})

	backend := compiler.BackendConfig{
		Buses: map[string]compiler.BusBackendConfig{
			"b0": {MinimumClockTimeNs: 4, RegisterCount: 32, MinWaitNs: 4, MaxWaitNs: 65532, MaxAcqIndices: 32},
		},
	}

	result, err := compiler.Compile(prog, cal, nil, backend)
	require.NoError(t, err)

	b0 := result.Buses["b0"]
	require.Len(t, b0.Program.Main, 1)
	assert.Equal(t, "play", b0.Program.Main[0].Mnemonic)
	assert.Equal(t, []string{"0", "1", "40"}, b0.Program.Main[0].Args)
	require.Len(t, b0.Waveforms, 2)
	assert.Empty(t, b0.Acquisitions)
}

// TestCompile_Determinism is spec §8 property 1: two compiles of the
// same inputs must be byte-identical.
func TestCompile_Determinism(t *testing.T) {
	build := func() (*ir.Program, *waveform.Calibration) {
		b := ir.New(ir.WithID("det"))
		b.Average(4, func(b *ir.Builder) {
			b.Play("drive", "x180")
			b.Sync("drive", "readout")
			b.Acquire("readout", "ro_weights", 0, true)
			b.Sync("drive", "readout")
		})
		prog, err := b.Build()
		require.NoError(t, err)

		cal := waveform.NewCalibration()
		cal.SetIQPair("drive", "x180", waveform.DRAG(1.0, 40, 3, 0.5))
		samples := make([]float64, 100)
		for i := range samples {
			samples[i] = 1.0
		}
		cal.SetWeights("readout", "ro_weights", waveform.Weights{I: samples, Q: make([]float64, 100)})
		return prog, cal
	}

	backend := compiler.BackendConfig{
		AutoSync: true,
		Buses: map[string]compiler.BusBackendConfig{
			"drive":   {MinimumClockTimeNs: 4, RegisterCount: 32, MinWaitNs: 4, MaxWaitNs: 65532, MaxAcqIndices: 32},
			"readout": {MinimumClockTimeNs: 4, TimeOfFlightNs: 224, RegisterCount: 32, MinWaitNs: 4, MaxWaitNs: 65532, MaxAcqIndices: 32},
		},
	}

	prog1, cal1 := build()
	result1, err := compiler.Compile(prog1, cal1, nil, backend)
	require.NoError(t, err)

	prog2, cal2 := build()
	result2, err := compiler.Compile(prog2, cal2, nil, backend)
	require.NoError(t, err)

	for bus, out1 := range result1.Buses {
		out2, ok := result2.Buses[bus]
		require.True(t, ok)
		assert.Equal(t, out1.Program.Text(), out2.Program.Text())
		assert.Equal(t, out1.Waveforms, out2.Waveforms)
	}
}

// TestCompile_BusMapping_MissingEntriesImplyIdentity covers spec §6.1:
// a virtual bus absent from busMapping must resolve to itself.
func TestCompile_BusMapping_MissingEntriesImplyIdentity(t *testing.T) {
	b := ir.New(ir.WithID("mapping"))
	b.Play("virtual", "sq")
	prog, err := b.Build()
	require.NoError(t, err)

	cal := waveform.NewCalibration()
	cal.SetWaveform("virtual", "sq", waveform.Square{Amplitude: 1.0, Duration: 40})

	backend := compiler.BackendConfig{
		Buses: map[string]compiler.BusBackendConfig{
			"virtual": {MinimumClockTimeNs: 4, RegisterCount: 32, MinWaitNs: 4, MaxWaitNs: 65532, MaxAcqIndices: 32},
		},
	}

	result, err := compiler.Compile(prog, cal, map[string]string{"other": "physical"}, backend)
	require.NoError(t, err)
	_, ok := result.Buses["virtual"]
	assert.True(t, ok)
}
