package q1asm

import "github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/qmath"

// QuantizeTime rounds ns up to the next multiple of MIN_CLOCK, as every
// Time-domain variable must be before it is materialized (spec §4.4.2).
func QuantizeTime(ns, minClockNs int64) int64 {
	return qmath.RoundToMultiple(ns, minClockNs)
}

// QuantizeFreq converts a frequency in Hz to Qblox NCO units:
// round(4*freq_hz), valid within ±500MHz (spec §4.4.2).
func QuantizeFreq(hz float64) int64 { return qmath.FreqToNCO(hz) }

// QuantizePhase converts radians to the fixed-precision turns-of-2π unit
// Q1ASM's set_ph/set_ph_delta instructions expect (spec §4.4.2).
func QuantizePhase(rad float64) uint32 { return qmath.PhaseToTurns(rad) }

// QuantizeVoltage converts a ±1.0 full-scale value to the signed ±32767
// DAC code Q1ASM gain/offset instructions expect (spec §4.4.2).
func QuantizeVoltage(v float64) int32 { return qmath.VoltageToDAC(v) }
