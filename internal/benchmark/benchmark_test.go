package benchmark_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/benchmark"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/testutil"
)

func TestRun_ReadoutShapeSucceeds(t *testing.T) {
	result := benchmark.Run(t, benchmark.Config{
		Shape:       benchmark.ReadoutShape,
		Size:        10,
		Calibration: testutil.NewCalibration(),
		Backend:     testutil.NewBackendConfig(),
		Limits:      benchmark.DefaultResourceLimits,
	})
	require.True(t, result.Success, result.Error)
	assert.Greater(t, result.ResourceUsage.NodeCount, 0)
	assert.Equal(t, 2, result.ResourceUsage.BusCount)
}

func TestRun_SweepShapeSucceeds(t *testing.T) {
	result := benchmark.Run(t, benchmark.Config{
		Shape:       benchmark.SweepShape,
		Size:        5,
		Calibration: testutil.NewCalibration(),
		Backend:     testutil.NewBackendConfig(),
		Limits:      benchmark.DefaultResourceLimits,
	})
	require.True(t, result.Success, result.Error)
}

func TestRun_UnknownShapeFails(t *testing.T) {
	result := benchmark.Run(t, benchmark.Config{
		Shape: benchmark.ProgramShape("bogus"),
		Size:  1,
	})
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestRun_ExceedsNodeLimit(t *testing.T) {
	result := benchmark.Run(t, benchmark.Config{
		Shape:       benchmark.ReadoutShape,
		Size:        10,
		Calibration: testutil.NewCalibration(),
		Backend:     testutil.NewBackendConfig(),
		Limits:      benchmark.ResourceLimits{MaxNodes: 1},
	})
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.LimitsExceeded)
}

func TestSizes(t *testing.T) {
	assert.Equal(t, [3]int{10, 100, 1000}, benchmark.Sizes(10))
}

func BenchmarkCompile_Readout(b *testing.B) {
	benchmark.RunN(b, benchmark.Config{
		Shape:       benchmark.ReadoutShape,
		Size:        testutil.DefaultShots,
		Calibration: testutil.NewCalibration(),
		Backend:     testutil.NewBackendConfig(),
		Limits:      benchmark.DefaultResourceLimits,
	})
}
