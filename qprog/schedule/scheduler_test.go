package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/schedule"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

func buildResolved(t *testing.T, fn func(b *ir.Builder)) *ir.Program {
	t.Helper()
	b := ir.New()
	fn(b)
	prog, err := b.Build()
	require.NoError(t, err)

	c := waveform.NewCalibration()
	c.SetWaveform("drive_q0", "X180", waveform.Square{Amplitude: 0.5, Duration: 40})
	c.SetWaveform("drive_q1", "X180", waveform.Square{Amplitude: 0.5, Duration: 40})
	c.SetWaveform("readout_q0", "ro_pulse", waveform.Square{Amplitude: 0.3, Duration: 1000})
	c.SetWeights("readout_q0", "ro_weights", waveform.Weights{I: make([]float64, 1000), Q: make([]float64, 1000)})
	require.NoError(t, waveform.ResolveProgram(prog, c))
	return prog
}

func TestPartition_SyncAlignsBusesToMax(t *testing.T) {
	prog := buildResolved(t, func(b *ir.Builder) {
		b.Play("drive_q0", "X180")
		b.Sync("drive_q0", "drive_q1")
	})

	res, err := schedule.Partition(prog, schedule.Config{Buses: []string{"drive_q0", "drive_q1"}})
	require.NoError(t, err)

	q0 := res.Timelines["drive_q0"]
	q1 := res.Timelines["drive_q1"]
	assert.Equal(t, q0.NowNs, q1.NowNs)
	assert.Equal(t, int64(40), q1.NowNs)
}

func TestPartition_PadsSubMinClockGaps(t *testing.T) {
	prog := buildResolved(t, func(b *ir.Builder) {
		b.Wait("drive_q0", 1) // not a multiple of MIN_CLOCK (4)
	})

	res, err := schedule.Partition(prog, schedule.Config{Buses: []string{"drive_q0"}})
	require.NoError(t, err)

	q0 := res.Timelines["drive_q0"]
	assert.Equal(t, int64(4), q0.NowNs)
	require.NotEmpty(t, res.Diagnostics)
}

func TestPartition_UnknownBusIsError(t *testing.T) {
	prog := buildResolved(t, func(b *ir.Builder) {
		b.Play("drive_q0", "X180")
	})
	_, err := schedule.Partition(prog, schedule.Config{Buses: []string{"drive_q1"}})
	require.Error(t, err)
}

func TestPartition_ForLoopWrapsEventsOnce(t *testing.T) {
	b := ir.New()
	v, err := b.Variable("freq", ir.Frequency)
	require.NoError(t, err)
	b.ForLoop(v, 0, 100e6, 10e6, func(b *ir.Builder) {
		b.SetFrequencyVar("drive_q0", v)
		b.Play("drive_q0", "X180")
	})
	prog, err := b.Build()
	require.NoError(t, err)
	c := waveform.NewCalibration()
	c.SetWaveform("drive_q0", "X180", waveform.Square{Amplitude: 0.5, Duration: 40})
	require.NoError(t, waveform.ResolveProgram(prog, c))

	res, err := schedule.Partition(prog, schedule.Config{Buses: []string{"drive_q0"}})
	require.NoError(t, err)

	q0 := res.Timelines["drive_q0"]
	require.Len(t, q0.Events, 1)
	assert.Equal(t, schedule.EventForLoop, q0.Events[0].Kind)
	assert.Len(t, q0.Events[0].Body, 2)
}

func TestPartition_PositiveDelayInsertsInitialWait(t *testing.T) {
	prog := buildResolved(t, func(b *ir.Builder) {
		b.Play("drive_q0", "X180")
	})
	res, err := schedule.Partition(prog, schedule.Config{
		Buses:  []string{"drive_q0"},
		Delays: []schedule.BusDelay{{Bus: "drive_q0", DelayNs: 20}},
	})
	require.NoError(t, err)
	q0 := res.Timelines["drive_q0"]
	assert.Equal(t, int64(60), q0.NowNs) // 20 delay + 40 play
}
