package waveform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

func TestFingerprint_DeterministicAndDistinguishing(t *testing.T) {
	a := waveform.Square{Amplitude: 0.5, Duration: 100}
	b := waveform.Square{Amplitude: 0.5, Duration: 100}
	c := waveform.Square{Amplitude: 0.6, Duration: 100}

	assert.Equal(t, waveform.Fingerprint(a), waveform.Fingerprint(b))
	assert.NotEqual(t, waveform.Fingerprint(a), waveform.Fingerprint(c))
}

func TestFingerprint_DifferentDescriptorsSameSamplesCollapse(t *testing.T) {
	// A Square and an equivalent Arbitrary with the same rendered samples
	// must fingerprint identically — dedup is over samples, not descriptor
	// type (spec §3.6 invariant 4).
	sq := waveform.Square{Amplitude: 1, Duration: 5}
	arb := waveform.Arbitrary{Samples: []float64{1, 1, 1, 1, 1}, Duration: 5}
	assert.Equal(t, waveform.Fingerprint(sq), waveform.Fingerprint(arb))
}
