package waveform

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// Fingerprint deterministically hashes a Waveform's sampled, integral-grid
// envelope for table deduplication (spec §4.2, §3.6 invariant 4): two
// waveforms that render to the same samples at 1ns resolution must
// produce the same fingerprint regardless of how they were constructed.
func Fingerprint(w Waveform) uint64 {
	return FingerprintSamples(w.Envelope(1))
}

// FingerprintSamples hashes an already-sampled envelope directly, for
// callers (e.g. the Q1ASM generator's per-bus table builder) that need to
// dedupe post-distortion samples rather than a bare descriptor.
func FingerprintSamples(samples []float64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, s := range samples {
		// Round to the integral sample grid before hashing so that
		// floating-point noise below the hardware's DAC resolution
		// never produces spurious distinct fingerprints.
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(math.Round(s*1e9)/1e9))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// FingerprintIQ hashes an IQPair as the concatenation of its I and Q
// fingerprints, keeping the two channels distinguishable.
func FingerprintIQ(p IQPair) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], Fingerprint(p.I))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], Fingerprint(p.Q))
	h.Write(buf[:])
	return h.Sum64()
}
