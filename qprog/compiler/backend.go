package compiler

import "github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"

// BusBackendConfig carries one physical bus's backend parameters (spec
// §6.1): "per-bus minimum_clock_time, time_of_flight, delay_ns,
// distortions[], markers_default, output/channel indices". It is
// consumed, never produced, by the compiler.
type BusBackendConfig struct {
	MinimumClockTimeNs int64
	TimeOfFlightNs     int64
	DelayNs            int64

	Distortion      waveform.DistortionChain
	FilterRequested []bool // per-stage enable intent, before cross-output coercion

	MarkersDefault uint8
	OutputIndices  []int // physical output/channel indices this bus drives

	RegisterCount int
	MinWaitNs     int64
	MaxWaitNs     int64
	MaxAcqIndices int
}

// BackendConfig is the full backend description a Compile call runs
// against: one BusBackendConfig per physical bus, plus the two
// scheduling-wide policies (spec §4.3's autosync, §3.6 invariant 1's
// global clock floor) that aren't scoped to a single bus.
type BackendConfig struct {
	Buses            map[string]BusBackendConfig
	AutoSync         bool
	GlobalMinClockNs int64
}
