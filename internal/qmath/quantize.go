// Package qmath collects the small numeric helpers the Q1ASM generator
// and waveform sampler need: rounding to hardware units, wrapping phase
// into fixed-precision turns, and clamping to signed integer ranges.
package qmath

import "math"

// RoundNS rounds a nanosecond-ish float to the nearest integer. Durations
// and time variables are always integral nanoseconds on the wire.
func RoundNS(ns float64) int64 {
	return int64(math.Round(ns))
}

// RoundToMultiple rounds v up to the next multiple of m (m > 0).
func RoundToMultiple(v, m int64) int64 {
	if m <= 0 {
		return v
	}
	if v%m == 0 {
		return v
	}
	return (v/m + 1) * m
}

// FreqToNCO converts a frequency in Hz to Qblox NCO units: a signed
// integer equal to round(4 * freq_hz). Qblox NCOs run at 4x the pulse
// clock, hence the factor of 4.
func FreqToNCO(hz float64) int64 {
	return int64(math.Round(4 * hz))
}

// PhaseToTurns converts a phase in radians to the hardware's fixed-point
// turns-of-2π representation: round(phase/(2π) * 2^32) mod 2^32.
func PhaseToTurns(rad float64) uint32 {
	const scale = 4294967296.0 // 2^32
	turns := math.Mod(rad/(2*math.Pi)*scale, scale)
	if turns < 0 {
		turns += scale
	}
	return uint32(math.Round(turns))
}

// VoltageToDAC maps a voltage in [-1.0, 1.0] of full scale to a signed
// 16-bit DAC code in [-32767, 32767].
func VoltageToDAC(v float64) int32 {
	scaled := math.Round(v * 32767)
	return int32(ClampF(scaled, -32767, 32767))
}

// ClampF clamps v to [lo, hi].
func ClampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampI clamps v to [lo, hi].
func ClampI(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
