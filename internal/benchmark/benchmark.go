// Package benchmark measures the compiler's own resource usage across
// QPrograms of varying size, the direct retarget of qc/benchmark's
// PluginBenchmarkSuite (which measured quantum-circuit runners) onto
// measuring qprog/compiler.Compile itself: scenario/runner becomes
// program-shape/bus-count, and "circuit depth" becomes "IR node count".
package benchmark

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"testing"
	"time"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/testutil"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/compiler"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

// ResourceLimits bounds what a single compile benchmark is allowed to
// cost, mirroring the teacher's ResourceLimits (MaxMemoryMB/MaxDuration)
// but replacing circuit-shaped bounds (MaxCircuitDepth/MaxQubits) with
// the QProgram-shaped MaxNodes/MaxBuses.
type ResourceLimits struct {
	MaxMemoryMB int64
	MaxDuration time.Duration
	MaxNodes    int
	MaxBuses    int
}

// DefaultResourceLimits are safe defaults for CI-hosted benchmark runs.
var DefaultResourceLimits = ResourceLimits{
	MaxMemoryMB: 500,
	MaxDuration: 30 * time.Second,
	MaxNodes:    10_000,
	MaxBuses:    16,
}

// ProgramShape identifies which fixture builder a scenario compiles,
// the analogue of the teacher's CircuitType.
type ProgramShape string

const (
	ReadoutShape ProgramShape = "readout"
	SweepShape   ProgramShape = "sweep"
)

// ProgramBuilders maps each shape to the fixture it compiles, scaled by
// an integer size parameter (shots for ReadoutShape, sweep points for
// SweepShape).
var ProgramBuilders = map[ProgramShape]func(t testing.TB, n int) *ir.Program{
	ReadoutShape: func(t testing.TB, n int) *ir.Program { return testutil.NewReadoutProgram(t, n) },
	SweepShape: func(t testing.TB, n int) *ir.Program {
		return testutil.NewSweepProgram(t, 0, float64(n)*1e6, 1e6)
	},
}

// Config holds everything one compile benchmark run needs, the
// QProgram-compiler analogue of the teacher's BenchmarkConfig.
type Config struct {
	Shape       ProgramShape
	Size        int
	Calibration *waveform.Calibration
	Backend     compiler.BackendConfig
	Limits      ResourceLimits
}

// ResourceUsage tracks memory/GC/timing observed during one run,
// matching the teacher's ResourceUsage field-for-field aside from the
// circuit-shaped fields it replaces.
type ResourceUsage struct {
	StartMemory uint64
	EndMemory   uint64
	MemoryDelta int64
	GCCount     uint32
	Duration    time.Duration
	NodeCount   int
	BusCount    int
}

// Result is one benchmark's outcome, the compiler analogue of the
// teacher's BenchmarkResult.
type Result struct {
	Shape          ProgramShape
	Size           int
	Success        bool
	Error          string
	Warnings       []string
	ResourceUsage  ResourceUsage
	LimitsExceeded []string
}

func memUsage() (uint64, uint32) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc, m.NumGC
}

func countNodes(n ir.Node) int {
	count := 0
	ir.Walk(n, func(ir.Node) { count++ })
	return count
}

// Run compiles cfg.Shape/cfg.Size once under resource tracking, the
// direct analogue of RunSingleBenchmark minus the *testing.B coupling
// (compiling is cheap enough that callers drive the b.N loop themselves
// via RunN). It builds the fixture program with testutil, which reports
// build failures through t rather than Result.Error.
func Run(t testing.TB, cfg Config) Result {
	build, ok := ProgramBuilders[cfg.Shape]
	if !ok {
		return Result{Shape: cfg.Shape, Size: cfg.Size, Error: fmt.Sprintf("unknown program shape %q", cfg.Shape)}
	}
	return RunProgram(build(t, cfg.Size), cfg)
}

// RunProgram compiles an already-built prog under resource tracking. It
// has no *testing.TB dependency, so non-test callers such as cmd/benchmark-demo
// can drive it directly against a hand-built or loaded QProgram.
func RunProgram(prog *ir.Program, cfg Config) Result {
	result := Result{Shape: cfg.Shape, Size: cfg.Size}

	runtime.GC()
	debug.FreeOSMemory()
	startMem, startGC := memUsage()

	nodes := countNodes(prog.Root)
	result.ResourceUsage.NodeCount = nodes
	result.ResourceUsage.BusCount = len(cfg.Backend.Buses)

	var violations []string
	limits := cfg.Limits
	if limits.MaxNodes > 0 && nodes > limits.MaxNodes {
		violations = append(violations, fmt.Sprintf("program has %d IR nodes, limit is %d", nodes, limits.MaxNodes))
	}
	if limits.MaxBuses > 0 && len(cfg.Backend.Buses) > limits.MaxBuses {
		violations = append(violations, fmt.Sprintf("backend declares %d buses, limit is %d", len(cfg.Backend.Buses), limits.MaxBuses))
	}
	if len(violations) > 0 {
		result.LimitsExceeded = violations
		result.Error = fmt.Sprintf("program exceeds resource limits: %v", violations)
		return result
	}

	start := time.Now()
	out, err := compiler.Compile(prog, cfg.Calibration, nil, cfg.Backend)
	result.ResourceUsage.Duration = time.Since(start)

	endMem, endGC := memUsage()
	result.ResourceUsage.StartMemory = startMem
	result.ResourceUsage.EndMemory = endMem
	result.ResourceUsage.GCCount = endGC - startGC
	result.ResourceUsage.MemoryDelta = int64(endMem) - int64(startMem)

	if err != nil {
		result.Error = err.Error()
		return result
	}
	if limits.MaxDuration > 0 && result.ResourceUsage.Duration > limits.MaxDuration {
		result.LimitsExceeded = append(result.LimitsExceeded, fmt.Sprintf("compile took %s, limit is %s", result.ResourceUsage.Duration, limits.MaxDuration))
		result.Error = "compile exceeded duration limit"
		return result
	}

	result.Success = true
	result.Warnings = out.Warnings
	return result
}

// RunN runs b.N iterations of Run, reporting allocations the way the
// teacher's RunSingleBenchmark does via b.ReportAllocs/b.ResetTimer.
func RunN(b *testing.B, cfg Config) Result {
	b.Helper()
	b.ReportAllocs()
	b.ResetTimer()
	var last Result
	for i := 0; i < b.N; i++ {
		last = Run(b, cfg)
	}
	return last
}

// Sizes returns a small/medium/large scale triple for a given base size,
// the QProgram-compiler analogue of the teacher's per-scenario scaling.
func Sizes(base int) [3]int {
	return [3]int{base, base * 10, base * 100}
}
