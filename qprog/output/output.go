// Package output assembles the per-bus results of the Q1ASM generator
// into the compiler's top-level value object (spec §4.5) and caches
// compilations keyed on their structural inputs (spec §5).
package output

import (
	"fmt"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/q1asm"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

// RuntimeParam is one instrument-level setting the runtime must write
// before arming a sequencer. Unlike the bus's NCO/gain/offset/marker
// state, which the generator already bakes into the emitted program as
// set_freq/set_awg_gain/set_awg_offs/set_mrk instructions, these are
// values that live outside the instruction stream entirely (spec §4.5
// bullet 5: "filter coefficients", marker default, time of flight).
type RuntimeParam struct {
	Name  string
	Value any
}

// BusOutput is one bus's complete compilation result (spec §4.5).
type BusOutput struct {
	Bus           string
	Program       q1asm.Program
	Waveforms     []q1asm.WaveformEntry
	Weights       []q1asm.WeightEntry
	Acquisitions  []q1asm.AcquisitionSpec
	RuntimeParams []RuntimeParam
	Warnings      []string
}

// Result is the compiler's top-level output: one BusOutput per
// physical bus the program touches, plus warnings raised during
// scheduling that aren't attributable to any single bus (cross-bus
// sync padding, delay normalization).
type Result struct {
	Buses    map[string]BusOutput
	Warnings []string
}

// AssembleBus packages one bus's q1asm.Output together with the
// runtime parameters implied by its BusConfig: marker default, time of
// flight, each predistortion stage's state, and the filter coefficients
// of every enabled stage (spec §4.5, §4.4.9).
func AssembleBus(bus string, out q1asm.Output, cfg q1asm.BusConfig) BusOutput {
	return BusOutput{
		Bus:           bus,
		Program:       out.Program,
		Waveforms:     out.Waveforms,
		Weights:       out.Weights,
		Acquisitions:  out.Acquisitions,
		RuntimeParams: runtimeParams(cfg),
		Warnings:      out.Warnings,
	}
}

// Assemble packages a whole compile run's per-bus generator outputs
// into a Result, collecting scheduler-level diagnostics separately
// from any one bus's own warnings.
func Assemble(outs map[string]q1asm.Output, cfgs map[string]q1asm.BusConfig, schedulerWarnings []string) Result {
	buses := make(map[string]BusOutput, len(outs))
	for bus, out := range outs {
		buses[bus] = AssembleBus(bus, out, cfgs[bus])
	}
	return Result{Buses: buses, Warnings: schedulerWarnings}
}

// runtimeParams derives the out-of-band instrument settings a bus
// needs written before arming: the marker default, the programmed
// time-of-flight, and every distortion stage's own parameters, named
// by its resolved FilterState so a bypassed or delay_comp stage is
// still visible to the runtime even though it contributes no
// coefficients.
func runtimeParams(cfg q1asm.BusConfig) []RuntimeParam {
	params := []RuntimeParam{
		{Name: "markers_default", Value: cfg.MarkersDefault},
		{Name: "time_of_flight_ns", Value: cfg.TimeOfFlightNs},
	}
	for i, stage := range cfg.Distortion.Stages {
		state := waveform.FilterEnabled
		if i < len(cfg.FilterStates) {
			state = cfg.FilterStates[i]
		}
		prefix := fmt.Sprintf("filter_%d", i)
		params = append(params, RuntimeParam{Name: prefix + "_state", Value: state.String()})
		if state != waveform.FilterEnabled {
			continue
		}
		switch f := stage.Filter.(type) {
		case *waveform.FIR:
			params = append(params, RuntimeParam{Name: prefix + "_taps", Value: f.Taps})
		case *waveform.Exponential:
			params = append(params, RuntimeParam{Name: prefix + "_amplitude", Value: f.Amplitude})
			params = append(params, RuntimeParam{Name: prefix + "_tau_samples", Value: f.TauSamples})
		case *waveform.BiasTee:
			params = append(params, RuntimeParam{Name: prefix + "_k", Value: f.K})
		}
	}
	return params
}
