// Package waveform produces sampled envelopes from analytic pulse
// descriptors and resolves named lookups via a Calibration store.
package waveform

import "math"

// Waveform is an analytic descriptor with a pure Envelope operation.
// Envelope must be deterministic: identical receiver state and resolution
// always produce identical output, since the code generator fingerprints
// the result for table deduplication.
type Waveform interface {
	// Envelope samples the waveform at resolutionNs spacing, returning one
	// real value per sample. resolutionNs <= 0 is treated as 1ns.
	Envelope(resolutionNs float64) []float64
	// DurationNs is the waveform's nominal length in nanoseconds.
	DurationNs() int64
}

// sampleCount returns how many samples span durationNs at resolutionNs
// spacing, always at least 1, with resolutionNs <= 0 normalized to 1ns.
func sampleCount(durationNs int64, resolutionNs float64) (n int, res float64) {
	if resolutionNs <= 0 {
		resolutionNs = 1
	}
	n = int(math.Round(float64(durationNs) / resolutionNs))
	if n < 1 {
		n = 1
	}
	return n, resolutionNs
}

// IQPair owns two waveforms of equal duration, as produced by DRAG and
// other two-channel gates.
type IQPair struct {
	I Waveform
	Q Waveform
}

// DurationNs returns the shared duration of both channels.
func (p IQPair) DurationNs() int64 { return p.I.DurationNs() }
