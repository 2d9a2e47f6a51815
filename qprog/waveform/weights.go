package waveform

// Weights holds a pair of integration kernels (I and Q) applied during
// weighted acquisition (spec §3.5, §4.4.6). Unlike a Waveform, Weights
// are always explicit samples — they are measured/calibrated, not
// generated analytically.
type Weights struct {
	I []float64
	Q []float64
}

// DurationNs returns the weight length in nanoseconds, assuming 1ns
// sample spacing as the hardware requires for integration kernels.
func (w Weights) DurationNs() int64 { return int64(len(w.I)) }

// Fingerprint hashes the weight samples the same way Fingerprint hashes a
// Waveform's envelope, so the register allocator's weight_register_cache
// can key on it directly (spec §4.4.1).
func (w Weights) Fingerprint() uint64 {
	return Fingerprint(Arbitrary{Samples: append(append([]float64(nil), w.I...), w.Q...), Duration: int64(len(w.I))})
}
