package waveform

import "math"

// Filter is one stage of a bus's distortion chain, applied after envelope
// generation in list order (spec §4.2, §3.5). Each stage keeps its own
// state so successive calls to Apply on the same Filter continue a
// running signal rather than restarting cold — the same Direct Form II
// Transposed discipline as a biquad section, generalized past two poles.
type Filter interface {
	// Apply filters samples in place and returns them.
	Apply(samples []float64) []float64
	// Reset clears internal delay-line state.
	Reset()
}

// BiasTee models the AC-coupling high-pass a bias-tee introduces: a
// single-pole IIR highpass, y[n] = x[n] - x[n-1] + k*y[n-1].
type BiasTee struct {
	K float64 // pole location, close to but below 1

	prevX, prevY float64
}

func (f *BiasTee) Apply(samples []float64) []float64 {
	out := make([]float64, len(samples))
	x1, y1 := f.prevX, f.prevY
	for i, x := range samples {
		y := x - x1 + f.K*y1
		out[i] = y
		x1, y1 = x, y
	}
	f.prevX, f.prevY = x1, y1
	return out
}

func (f *BiasTee) Reset() { f.prevX, f.prevY = 0, 0 }

// Exponential models a single-pole exponential overshoot/undershoot
// correction, the standard compensation for a cable or Bias-T's RC decay:
// y[n] = x[n] + Amplitude*(1-exp(-1/TauSamples))*state;
// state = exp(-1/TauSamples)*state + x[n].
type Exponential struct {
	Amplitude   float64
	TauSamples  float64

	state float64
}

func (f *Exponential) Apply(samples []float64) []float64 {
	if f.TauSamples <= 0 {
		return samples
	}
	alpha := math.Exp(-1 / f.TauSamples)
	out := make([]float64, len(samples))
	state := f.state
	for i, x := range samples {
		out[i] = x + f.Amplitude*(1-alpha)*state
		state = alpha*state + x
	}
	f.state = state
	return out
}

func (f *Exponential) Reset() { f.state = 0 }

// FIRTapCount is the fixed tap length Qblox predistortion FIR filters
// require (spec §4.4.9: "a single FIR filter, exactly 32 coefficients").
const FIRTapCount = 32

// FIR is a 32-tap finite-impulse-response filter, applied as a direct
// convolution with a sliding history buffer.
type FIR struct {
	Taps [FIRTapCount]float64

	history [FIRTapCount]float64
}

func (f *FIR) Apply(samples []float64) []float64 {
	out := make([]float64, len(samples))
	hist := f.history
	for i, x := range samples {
		// Shift history and insert the new sample at index 0.
		copy(hist[1:], hist[:FIRTapCount-1])
		hist[0] = x
		var acc float64
		for k := 0; k < FIRTapCount; k++ {
			acc += f.Taps[k] * hist[k]
		}
		out[i] = acc
	}
	f.history = hist
	return out
}

func (f *FIR) Reset() { f.history = [FIRTapCount]float64{} }

// LFilter is a generic direct-form-II-transposed IIR filter of arbitrary
// order, for distortion stages that don't fit BiasTee/Exponential/FIR.
// B holds feedforward (numerator) coefficients, A holds feedback
// (denominator) coefficients with A[0] implicitly normalized to 1 (A[0]
// itself is not stored), mirroring the two-pole biquad shape generalized
// to N poles/zeros.
type LFilter struct {
	B []float64
	A []float64 // feedback coefficients, A[i] corresponds to a_(i+1)

	delay []float64
}

func (f *LFilter) Apply(samples []float64) []float64 {
	order := len(f.B)
	if len(f.A)+1 > order {
		order = len(f.A) + 1
	}
	if len(f.delay) != order {
		f.delay = make([]float64, order)
	}
	out := make([]float64, len(samples))
	for i, x := range samples {
		var b0 float64
		if len(f.B) > 0 {
			b0 = f.B[0]
		}
		y := b0*x + f.delay[0]
		for k := 1; k < order; k++ {
			var bk, ak float64
			if k < len(f.B) {
				bk = f.B[k]
			}
			if k-1 < len(f.A) {
				ak = f.A[k-1]
			}
			next := bk*x - ak*y
			if k+1 < order {
				next += f.delay[k]
			}
			f.delay[k-1] = next
		}
		out[i] = y
	}
	return out
}

func (f *LFilter) Reset() {
	for i := range f.delay {
		f.delay[i] = 0
	}
}

// DistortionChain is an ordered list of Filter stages applied to a
// sampled envelope after generation, before it enters the bus's waveform
// table (spec §3.5, §4.2).
type DistortionChain struct {
	Stages []DistortionStage
}

// DistortionStage pairs a Filter with its normalization policy: either
// AutoNorm rescales the filtered output so its peak absolute value
// matches the pre-filter peak, or NormFactor scales by an explicit
// constant. Exactly one of the two applies.
type DistortionStage struct {
	Filter     Filter
	AutoNorm   bool
	NormFactor float64 // used when AutoNorm is false
}

// Apply runs samples through every stage in order, renormalizing each
// stage's output per its policy.
func (c DistortionChain) Apply(samples []float64) []float64 {
	cur := samples
	for _, stage := range c.Stages {
		prePeak := peakAbs(cur)
		filtered := stage.Filter.Apply(cur)
		if stage.AutoNorm {
			postPeak := peakAbs(filtered)
			if postPeak > 0 {
				scale := prePeak / postPeak
				for i := range filtered {
					filtered[i] *= scale
				}
			}
		} else if stage.NormFactor != 0 {
			for i := range filtered {
				filtered[i] *= stage.NormFactor
			}
		}
		cur = filtered
	}
	return cur
}

// peakAbs returns the largest absolute sample value, handling negative
// envelopes and SNZ's bipolar shape correctly (spec §4.2: "Auto-norm must
// handle negative envelopes and SNZ shapes").
func peakAbs(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}
