package waveform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

func TestCalibration_MissingNameFailsCompilation(t *testing.T) {
	c := waveform.NewCalibration()
	_, err := c.ResolveWaveform("drive_q0", "X180")
	require.Error(t, err)
	var miss waveform.CalibrationMiss
	require.ErrorAs(t, err, &miss)
}

func TestCalibration_ResolveProgram(t *testing.T) {
	c := waveform.NewCalibration()
	c.SetWaveform("drive_q0", "X180", waveform.Square{Amplitude: 0.5, Duration: 40})
	c.SetWeights("readout_q0", "ro_weights", waveform.Weights{I: []float64{1, 1}, Q: []float64{0, 0}})

	b := ir.New()
	b.Play("drive_q0", "X180")
	b.Acquire("readout_q0", "ro_weights", 0, true)
	prog, err := b.Build()
	require.NoError(t, err)

	require.NoError(t, waveform.ResolveProgram(prog, c))

	play := prog.Root.Children[0].(*ir.Play)
	_, ok := play.Waveform.Resolved.(waveform.Square)
	assert.True(t, ok)

	acq := prog.Root.Children[1].(*ir.Acquire)
	w, ok := acq.Weights.Resolved.(waveform.Weights)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 1}, w.I)
}

func TestCalibration_ResolveProgramMissingNameReturnsError(t *testing.T) {
	c := waveform.NewCalibration()
	b := ir.New()
	b.Play("drive_q0", "unknown")
	prog, err := b.Build()
	require.NoError(t, err)

	err = waveform.ResolveProgram(prog, c)
	require.Error(t, err)
}

func TestCalibrationText_RoundTrip(t *testing.T) {
	c := waveform.NewCalibration()
	c.SetWaveform("drive_q0", "X180", waveform.Square{Amplitude: 0.5, Duration: 40})
	c.SetWeights("readout_q0", "ro_weights", waveform.Weights{I: []float64{1, 0.5}, Q: []float64{0, 0}})

	data, err := c.MarshalText()
	require.NoError(t, err)

	got, err := waveform.UnmarshalCalibrationText(data)
	require.NoError(t, err)

	w, err := got.ResolveWaveform("drive_q0", "X180")
	require.NoError(t, err)
	assert.Equal(t, waveform.Square{Amplitude: 0.5, Duration: 40}, w)

	weights, err := got.ResolveWeights("readout_q0", "ro_weights")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.5}, weights.I)
}
