package app

import (
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/compiler"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

// defaultCalibration returns the calibration store a freshly started
// compile service uses until a runcard-loading caller (out of scope per
// spec §1) replaces it via ServerOptions. It mirrors the teacher's own
// NewService, which seeded its in-memory store with a demo Bell-state
// program at construction rather than requiring one before the service
// could answer any request.
func defaultCalibration() *waveform.Calibration {
	cal := waveform.NewCalibration()
	cal.SetIQPair("drive", "x180", waveform.DRAG(1.0, 40, 3, 0.5))
	cal.SetWaveform("drive", "square100", waveform.Square{Amplitude: 1.0, Duration: 100})
	cal.SetWaveform("readout", "ro_pulse", waveform.Square{Amplitude: 0.5, Duration: 1000})
	samples := make([]float64, 1000)
	for i := range samples {
		samples[i] = 1.0
	}
	cal.SetWeights("readout", "ro_weights", waveform.Weights{I: samples, Q: make([]float64, 1000)})
	return cal
}

// defaultBackendConfig returns a minimal two-bus BackendConfig with
// Qblox's hardware defaults (spec §3.6 invariants 1 and 6).
func defaultBackendConfig() compiler.BackendConfig {
	return compiler.BackendConfig{
		AutoSync: true,
		Buses: map[string]compiler.BusBackendConfig{
			"drive": {
				MinimumClockTimeNs: 4,
				MarkersDefault:     0xF,
				RegisterCount:      32,
				MinWaitNs:          4,
				MaxWaitNs:          65532,
				MaxAcqIndices:      32,
			},
			"readout": {
				MinimumClockTimeNs: 4,
				TimeOfFlightNs:     224,
				MarkersDefault:     0xF,
				RegisterCount:      32,
				MinWaitNs:          4,
				MaxWaitNs:          65532,
				MaxAcqIndices:      32,
			},
		},
	}
}
