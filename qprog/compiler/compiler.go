// Package compiler wires the IR builder, waveform resolver, bus
// scheduler, and Q1ASM generator into the single pipeline entry point
// described by spec §2: "QProgram + Calibration + BusMapping -> IR ->
// resolved waveforms -> per-bus timelines -> per-bus Q1ASM + tables ->
// compilation output".
package compiler

import (
	"sort"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/output"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/q1asm"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/schedule"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

// Compile runs prog through the full pipeline against cal (§3.4),
// busMapping (§6.1, "missing entries imply identity"), and backend
// (§6.1). A fatal compile error at any stage returns the zero Result
// and that error — never a partial output (spec §7).
func Compile(prog *ir.Program, cal *waveform.Calibration, busMapping map[string]string, backend BackendConfig) (output.Result, error) {
	remapBuses(prog, busMapping)

	if err := waveform.ResolveProgram(prog, cal); err != nil {
		return output.Result{}, err
	}

	buses := make([]string, 0, len(backend.Buses))
	var delays []schedule.BusDelay
	for bus, bc := range backend.Buses {
		buses = append(buses, bus)
		if bc.DelayNs != 0 {
			delays = append(delays, schedule.BusDelay{Bus: bus, DelayNs: bc.DelayNs})
		}
	}
	sort.Strings(buses) // deterministic bus-processing order, spec §5 "byte-identical"

	minClock := backend.GlobalMinClockNs
	if minClock <= 0 {
		minClock = schedule.DefaultMinClockNs
	}

	result, err := schedule.Partition(prog, schedule.Config{
		Buses:      buses,
		Delays:     delays,
		MinClockNs: minClock,
		AutoSync:   backend.AutoSync,
	})
	if err != nil {
		return output.Result{}, err
	}

	chains := make(map[string]waveform.DistortionChain, len(backend.Buses))
	requested := make(map[string][]bool, len(backend.Buses))
	for bus, bc := range backend.Buses {
		chains[bus] = bc.Distortion
		requested[bus] = bc.FilterRequested
	}
	resolvedStates, coercionWarnings := waveform.ResolveOutputStates(chains, requested)

	outs := make(map[string]q1asm.Output, len(buses))
	cfgs := make(map[string]q1asm.BusConfig, len(buses))
	for _, bus := range buses {
		bc := backend.Buses[bus]
		cfg := q1asm.BusConfig{
			MinClockNs:     bc.MinimumClockTimeNs,
			MinWaitNs:      bc.MinWaitNs,
			MaxWaitNs:      bc.MaxWaitNs,
			RegisterCount:  bc.RegisterCount,
			MarkersDefault: bc.MarkersDefault,
			TimeOfFlightNs: bc.TimeOfFlightNs,
			MaxAcqIndices:  bc.MaxAcqIndices,
			Distortion:     bc.Distortion,
			FilterStates:   resolvedStates[bus],
		}
		cfgs[bus] = cfg

		timeline, ok := result.Timelines[bus]
		if !ok {
			continue
		}
		out, err := q1asm.Generate(timeline, cfg)
		if err != nil {
			return output.Result{}, err
		}
		outs[bus] = out
	}

	warnings := append([]string(nil), coercionWarnings...)
	for _, d := range result.Diagnostics {
		warnings = append(warnings, d.String())
	}

	return output.Assemble(outs, cfgs, warnings), nil
}

// remapBuses rewrites every operation's bus references through
// busMapping in place (spec §6.1: "BusMapping: map<virtual_bus,
// physical_bus>. Missing entries imply identity"). It runs before
// calibration resolution and scheduling so every later stage only
// ever sees physical bus names.
func remapBuses(prog *ir.Program, busMapping map[string]string) {
	if len(busMapping) == 0 {
		return
	}
	physical := func(bus string) string {
		if p, ok := busMapping[bus]; ok {
			return p
		}
		return bus
	}
	ir.Walk(prog.Root, func(n ir.Node) {
		switch op := n.(type) {
		case *ir.Play:
			op.Bus = physical(op.Bus)
		case *ir.Measure:
			op.Bus = physical(op.Bus)
		case *ir.Acquire:
			op.Bus = physical(op.Bus)
		case *ir.Wait:
			op.Bus = physical(op.Bus)
		case *ir.Sync:
			for i, b := range op.Buses {
				op.Buses[i] = physical(b)
			}
		case *ir.WaitTrigger:
			op.Bus = physical(op.Bus)
		case *ir.SetFrequency:
			op.Bus = physical(op.Bus)
		case *ir.SetPhase:
			op.Bus = physical(op.Bus)
		case *ir.ResetPhase:
			op.Bus = physical(op.Bus)
		case *ir.SetGain:
			op.Bus = physical(op.Bus)
		case *ir.SetOffset:
			op.Bus = physical(op.Bus)
		case *ir.SetMarkers:
			op.Bus = physical(op.Bus)
		case *ir.MeasureReset:
			op.Bus = physical(op.Bus)
			op.ControlBus = physical(op.ControlBus)
		}
	})
}
