// Command benchmark-demo drives internal/benchmark from the command
// line, the retarget of the teacher's cmd/benchmark-demo (which drove
// qc/benchmark against registered quantum-circuit runners) onto driving
// the compiler against QProgram fixtures of increasing size.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/benchmark"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/testutil"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/compiler"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

func main() {
	var (
		shape  = flag.String("shape", "readout", "program shape: readout, sweep")
		size   = flag.Int("size", testutil.DefaultShots, "shots (readout) or sweep points (sweep)")
		output = flag.String("output", "console", "output format: console, json")
		all    = flag.Bool("all", false, "run every shape at small/medium/large scale")
	)
	flag.Parse()

	cal := testutil.NewCalibration()
	backend := testutil.NewBackendConfig()

	if *all {
		for _, s := range []benchmark.ProgramShape{benchmark.ReadoutShape, benchmark.SweepShape} {
			for _, n := range benchmark.Sizes(testutil.DefaultShots) {
				report(runShape(s, n, cal, backend), *output)
			}
		}
		return
	}

	result := runShape(benchmark.ProgramShape(*shape), *size, cal, backend)
	report(result, *output)
	if !result.Success {
		os.Exit(1)
	}
}

func runShape(shape benchmark.ProgramShape, size int, cal *waveform.Calibration, backend compiler.BackendConfig) benchmark.Result {
	var prog *ir.Program
	switch shape {
	case benchmark.ReadoutShape:
		prog = buildReadout(size)
	case benchmark.SweepShape:
		prog = buildSweep(size)
	default:
		return benchmark.Result{Shape: shape, Size: size, Error: fmt.Sprintf("unknown program shape %q", shape)}
	}
	return benchmark.RunProgram(prog, benchmark.Config{
		Shape:       shape,
		Size:        size,
		Calibration: cal,
		Backend:     backend,
		Limits:      benchmark.DefaultResourceLimits,
	})
}

func buildReadout(shots int) *ir.Program {
	b := ir.New(ir.WithID("benchmark-readout"))
	b.Average(shots, func(b *ir.Builder) {
		b.Play("drive", "x180")
		b.Sync("drive", "readout")
		b.Acquire("readout", "ro_weights", 0, true)
		b.Sync("drive", "readout")
	})
	prog, err := b.Build()
	if err != nil {
		panic(err) // a fixed, known-good fixture failing to build is a programming error
	}
	return prog
}

func buildSweep(points int) *ir.Program {
	b := ir.New(ir.WithID("benchmark-sweep"))
	f, err := b.Param("freq", ir.Frequency)
	if err != nil {
		panic(err)
	}
	b.ForLoop(f, 0, float64(points)*1e6, 1e6, func(b *ir.Builder) {
		b.SetFrequencyVar("drive", f)
		b.Play("drive", "square100")
	})
	prog, err := b.Build()
	if err != nil {
		panic(err)
	}
	return prog
}

func report(result benchmark.Result, format string) {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return
	}

	fmt.Printf("shape=%s size=%d success=%v\n", result.Shape, result.Size, result.Success)
	fmt.Printf("  nodes=%d buses=%d duration=%s memoryDelta=%dB gc=%d\n",
		result.ResourceUsage.NodeCount, result.ResourceUsage.BusCount,
		result.ResourceUsage.Duration, result.ResourceUsage.MemoryDelta, result.ResourceUsage.GCCount)
	if result.Error != "" {
		fmt.Println("  error:", result.Error)
	}
	for _, w := range result.Warnings {
		fmt.Println("  warning:", w)
	}
}
