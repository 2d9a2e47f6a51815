// Command compile is a standalone demonstration of the compiler
// pipeline, the direct retarget of the teacher's cmd/cli (which built
// and ran a few hand-written circuits through the simulator) onto
// building and compiling a few hand-written QPrograms and printing the
// emitted Q1ASM.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/testutil"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/compiler"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/output"
)

func main() {
	shots := flag.Int("shots", 1024, "number of shots for the averaged readout demo")
	flag.Parse()

	fmt.Println("--- Readout program ---")
	if err := compileReadoutDemo(*shots); err != nil {
		fmt.Fprintln(os.Stderr, "compile: readout demo:", err)
		os.Exit(1)
	}

	fmt.Println("\n--- Frequency sweep program ---")
	if err := compileSweepDemo(); err != nil {
		fmt.Fprintln(os.Stderr, "compile: sweep demo:", err)
		os.Exit(1)
	}
}

func compileReadoutDemo(shots int) error {
	b := ir.New(ir.WithID("cli-readout-demo"))
	b.Average(shots, func(b *ir.Builder) {
		b.Play("drive", "x180")
		b.Sync("drive", "readout")
		b.Acquire("readout", "ro_weights", 0, true)
		b.Sync("drive", "readout")
	})
	prog, err := b.Build()
	if err != nil {
		return err
	}

	result, err := compiler.Compile(prog, testutil.NewCalibration(), nil, testutil.NewBackendConfig())
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func compileSweepDemo() error {
	b := ir.New(ir.WithID("cli-sweep-demo"))
	f, err := b.Param("freq", ir.Frequency)
	if err != nil {
		return err
	}
	b.ForLoop(f, 0, 5e6, 1e6, func(b *ir.Builder) {
		b.SetFrequencyVar("drive", f)
		b.Play("drive", "square100")
	})
	prog, err := b.Build()
	if err != nil {
		return err
	}

	result, err := compiler.Compile(prog, testutil.NewCalibration(), nil, testutil.NewBackendConfig())
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func printResult(result output.Result) {
	buses := make([]string, 0, len(result.Buses))
	for bus := range result.Buses {
		buses = append(buses, bus)
	}
	sort.Strings(buses)

	for _, bus := range buses {
		out := result.Buses[bus]
		fmt.Printf("# bus %s (%d waveforms, %d weights, %d acquisitions)\n", bus, len(out.Waveforms), len(out.Weights), len(out.Acquisitions))
		fmt.Println(out.Program.Text())
	}
	for _, w := range result.Warnings {
		fmt.Println("warning:", w)
	}
}
