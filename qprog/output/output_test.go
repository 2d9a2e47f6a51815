package output_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/output"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/q1asm"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

func TestAssembleBus_RuntimeParams(t *testing.T) {
	cfg := q1asm.BusConfig{
		MarkersDefault: 0xF,
		TimeOfFlightNs: 224,
		Distortion: waveform.DistortionChain{
			Stages: []waveform.DistortionStage{
				{Filter: &waveform.FIR{Taps: [waveform.FIRTapCount]float64{}}},
				{Filter: &waveform.Exponential{Amplitude: 0.1, TauSamples: 100}},
			},
		},
		FilterStates: []waveform.FilterState{waveform.FilterEnabled, waveform.FilterBypassed},
	}
	out := q1asm.Output{}

	busOut := output.AssembleBus("readout", out, cfg)

	assert.Equal(t, "readout", busOut.Bus)
	byName := map[string]any{}
	for _, p := range busOut.RuntimeParams {
		byName[p.Name] = p.Value
	}
	assert.Equal(t, uint8(0xF), byName["markers_default"])
	assert.Equal(t, int64(224), byName["time_of_flight_ns"])
	assert.Equal(t, "enabled", byName["filter_0_state"])
	assert.Contains(t, byName, "filter_0_taps")
	assert.Equal(t, "bypassed", byName["filter_1_state"])
	assert.NotContains(t, byName, "filter_1_amplitude") // bypassed stage emits no coefficients
}

func TestAssemble_CollectsSchedulerWarnings(t *testing.T) {
	outs := map[string]q1asm.Output{
		"drive": {},
	}
	cfgs := map[string]q1asm.BusConfig{
		"drive": {},
	}

	result := output.Assemble(outs, cfgs, []string{"padded drive by 4ns"})

	require.Contains(t, result.Buses, "drive")
	assert.Equal(t, []string{"padded drive by 4ns"}, result.Warnings)
}

func TestCache_GetOrCompute_HitsAndMisses(t *testing.T) {
	cache := output.NewCache()
	key := output.CacheKey{IRHash: 1, Nshots: 100}

	calls := 0
	compute := func() (output.Result, error) {
		calls++
		return output.Result{Warnings: []string{"computed"}}, nil
	}

	r1, hit1, err := cache.GetOrCompute(key, compute)
	require.NoError(t, err)
	assert.False(t, hit1)
	assert.Equal(t, []string{"computed"}, r1.Warnings)

	r2, hit2, err := cache.GetOrCompute(key, compute)
	require.NoError(t, err)
	assert.True(t, hit2)
	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, calls, "compute must run once; the second call is a cache hit")
}

func TestHashBusMapping_OrderIndependent(t *testing.T) {
	a := output.HashBusMapping(map[string]string{"drive": "q0.drive", "readout": "q0.readout"})
	b := output.HashBusMapping(map[string]string{"readout": "q0.readout", "drive": "q0.drive"})
	assert.Equal(t, a, b)

	c := output.HashBusMapping(map[string]string{"drive": "q1.drive", "readout": "q0.readout"})
	assert.NotEqual(t, a, c)
}
