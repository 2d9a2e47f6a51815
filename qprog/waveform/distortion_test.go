package waveform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

func TestFIR_Passthrough(t *testing.T) {
	f := &waveform.FIR{}
	f.Taps[0] = 1 // identity: y[n] = x[n]
	out := f.Apply([]float64{1, 2, 3})
	assert.Equal(t, []float64{1, 2, 3}, out)
}

func TestFIR_OneSampleDelay(t *testing.T) {
	f := &waveform.FIR{}
	f.Taps[1] = 1 // y[n] = x[n-1]
	out := f.Apply([]float64{1, 2, 3})
	assert.Equal(t, []float64{0, 1, 2}, out)
}

func TestExponential_AmplitudeZeroIsNoop(t *testing.T) {
	f := &waveform.Exponential{Amplitude: 0, TauSamples: 10}
	in := []float64{1, 1, 1, 1}
	out := f.Apply(in)
	assert.Equal(t, in, out)
}

func TestDistortionChain_AutoNormPreservesPeak(t *testing.T) {
	samples := []float64{0, 1, -1, 0.5, -0.5}
	chain := waveform.DistortionChain{
		Stages: []waveform.DistortionStage{
			{Filter: &waveform.FIR{Taps: [32]float64{0.5}}, AutoNorm: true},
		},
	}
	out := chain.Apply(append([]float64(nil), samples...))
	require.Len(t, out, len(samples))

	var prePeak, postPeak float64
	for _, s := range samples {
		if abs(s) > prePeak {
			prePeak = abs(s)
		}
	}
	for _, s := range out {
		if abs(s) > postPeak {
			postPeak = abs(s)
		}
	}
	assert.InDelta(t, prePeak, postPeak, 1e-9)
}

func TestDistortionChain_ExplicitNormFactor(t *testing.T) {
	chain := waveform.DistortionChain{
		Stages: []waveform.DistortionStage{
			{Filter: &waveform.FIR{Taps: [32]float64{1}}, AutoNorm: false, NormFactor: 2},
		},
	}
	out := chain.Apply([]float64{1, 2, 3})
	assert.Equal(t, []float64{2, 4, 6}, out)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
