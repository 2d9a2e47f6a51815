// Package testutil centralizes fixtures and configuration shared across
// the compiler's test suites, the same role qc/testutil played for the
// teacher's circuit-level tests (TestConfig, builders for common
// programs, timeout/skip helpers) — retargeted from circuits/shots to
// QPrograms/buses/backend configs.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/compiler"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

// Test timeouts, mirroring the teacher's tiered DefaultTestTimeout/
// LongTestTimeout/BenchmarkTimeout.
const (
	DefaultTestTimeout = 10 * time.Second
	LongTestTimeout    = 30 * time.Second
	BenchmarkTimeout   = 60 * time.Second
)

// Compile-scale parameters, the QProgram analogue of the teacher's
// Shots/Qubits/Workers constants.
const (
	DefaultShots = 1024
	SmallShots   = 100
	LargeShots   = 8192

	DefaultBuses = 2
	SmallBuses   = 1
	LargeBuses   = 6

	DefaultTolerance = 0.1
	StrictTolerance  = 0.05
)

// TestConfig holds the knobs a compiler benchmark or integration test
// scales by, the direct analogue of qc/testutil.TestConfig.
type TestConfig struct {
	Shots     int
	Buses     int
	Timeout   time.Duration
	Tolerance float64
}

// Predefined configurations, mirroring QuickTestConfig/StandardTestConfig/
// BenchmarkTestConfig.
var (
	QuickTestConfig = TestConfig{
		Shots:     SmallShots,
		Buses:     SmallBuses,
		Timeout:   DefaultTestTimeout,
		Tolerance: DefaultTolerance,
	}

	StandardTestConfig = TestConfig{
		Shots:     DefaultShots,
		Buses:     DefaultBuses,
		Timeout:   DefaultTestTimeout,
		Tolerance: DefaultTolerance,
	}

	BenchmarkTestConfig = TestConfig{
		Shots:     LargeShots,
		Buses:     LargeBuses,
		Timeout:   BenchmarkTimeout,
		Tolerance: StrictTolerance,
	}
)

// WithTimeout creates a context with timeout for a test operation.
func WithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// NewReadoutProgram builds a standard two-bus QProgram: a drive bus
// playing the calibrated "x180" DRAG pulse inside an Average(shots) loop,
// synced against a readout bus that acquires against calibrated weights.
// It is this package's analogue of NewBellStateCircuit — the fixture
// most of the scheduler/generator/service tests build on.
func NewReadoutProgram(t testing.TB, shots int) *ir.Program {
	t.Helper()

	b := ir.New(ir.WithID("readout-fixture"))
	b.Average(shots, func(b *ir.Builder) {
		b.Play("drive", "x180")
		b.Sync("drive", "readout")
		b.Acquire("readout", "ro_weights", 0, true)
		b.Sync("drive", "readout")
	})
	prog, err := b.Build()
	require.NoError(t, err, "failed to build readout fixture program")
	return prog
}

// NewSweepProgram builds a frequency-sweep QProgram from startHz to stopHz
// in stepHz steps on "drive", the fixture used by wait-coalescing and register-allocation
// tests (spec S3).
func NewSweepProgram(t testing.TB, startHz, stopHz, stepHz float64) *ir.Program {
	t.Helper()

	b := ir.New(ir.WithID("sweep-fixture"))
	f, err := b.Param("freq", ir.Frequency)
	require.NoError(t, err)
	b.ForLoop(f, startHz, stopHz, stepHz, func(b *ir.Builder) {
		b.SetFrequencyVar("drive", f)
		b.Play("drive", "square100")
	})
	prog, err := b.Build()
	require.NoError(t, err, "failed to build sweep fixture program")
	return prog
}

// NewCalibration returns a Calibration with the waveforms/weights the
// fixtures above reference already registered on "drive" and "readout".
func NewCalibration() *waveform.Calibration {
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

// NewBackendConfig returns a BackendConfig covering "drive" and
// "readout" with hardware defaults, the QProgram-service analogue of the
// teacher's QuickTestConfig wiring a runner+circuit pair.
func NewBackendConfig() compiler.BackendConfig {
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

// SkipIfShort skips the test if running with -short.
func SkipIfShort(t *testing.T, reason string) {
	t.Helper()
	if testing.Short() {
		t.Skipf("skipping test in short mode: %s", reason)
	}
}

// SkipIfCI skips the test if running in CI.
func SkipIfCI(t *testing.T, reason string) {
	t.Helper()
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		t.Skipf("skipping test in CI: %s", reason)
	}
}
