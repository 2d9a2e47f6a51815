package waveform

import "math"

// Square is a constant-amplitude pulse.
type Square struct {
	Amplitude float64
	Duration  int64 // ns
}

func (s Square) DurationNs() int64 { return s.Duration }

func (s Square) Envelope(resolutionNs float64) []float64 {
	n, _ := sampleCount(s.Duration, resolutionNs)
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Amplitude
	}
	return out
}

// Gaussian is a centered Gaussian pulse, used standalone or as DRAG's I
// channel.
type Gaussian struct {
	Amplitude float64
	Duration  int64 // ns
	NumSigmas float64
}

func (g Gaussian) DurationNs() int64 { return g.Duration }

func (g Gaussian) mu() float64    { return float64(g.Duration) / 2 }
func (g Gaussian) sigma() float64 { return float64(g.Duration) / g.NumSigmas }

func (g Gaussian) Envelope(resolutionNs float64) []float64 {
	n, res := sampleCount(g.Duration, resolutionNs)
	out := make([]float64, n)
	mu, sigma := g.mu(), g.sigma()
	if sigma == 0 {
		return out
	}
	for i := range out {
		t := float64(i) * res
		out[i] = g.Amplitude * math.Exp(-((t-mu)*(t-mu))/(2*sigma*sigma))
	}
	return out
}

// dragQ is the Q channel of a DRAG pair: the scaled time-derivative of a
// Gaussian I channel. It is unexported — callers obtain it only through
// the DRAG constructor so the pair's shared duration can never drift.
type dragQ struct {
	g       Gaussian
	coeff   float64
}

func (d dragQ) DurationNs() int64 { return d.g.Duration }

func (d dragQ) Envelope(resolutionNs float64) []float64 {
	n, res := sampleCount(d.g.Duration, resolutionNs)
	out := make([]float64, n)
	if d.g.Amplitude == 0 {
		return out // flat zero, no division errors
	}
	mu, sigma := d.g.mu(), d.g.sigma()
	if sigma == 0 {
		return out
	}
	for i := range out {
		t := float64(i) * res
		gaussAt := d.g.Amplitude * math.Exp(-((t-mu)*(t-mu))/(2*sigma*sigma))
		dIdt := -(t - mu) / (sigma * sigma) * gaussAt
		out[i] = d.coeff * dIdt
	}
	return out
}

// DRAG builds the canonical IQPair for a Derivative Removal by Adiabatic
// Gate pulse: I is a Gaussian, Q is its scaled derivative (spec §4.2).
func DRAG(amplitude float64, durationNs int64, numSigmas, dragCoefficient float64) IQPair {
	g := Gaussian{Amplitude: amplitude, Duration: durationNs, NumSigmas: numSigmas}
	return IQPair{I: g, Q: dragQ{g: g, coeff: dragCoefficient}}
}

// Ramp linearly interpolates from Start to Stop over Duration.
type Ramp struct {
	Start    float64
	Stop     float64
	Duration int64
}

func (r Ramp) DurationNs() int64 { return r.Duration }

func (r Ramp) Envelope(resolutionNs float64) []float64 {
	n, _ := sampleCount(r.Duration, resolutionNs)
	out := make([]float64, n)
	if n == 1 {
		out[0] = r.Start
		return out
	}
	for i := range out {
		frac := float64(i) / float64(n-1)
		out[i] = r.Start + frac*(r.Stop-r.Start)
	}
	return out
}

// Cosine is a raised-cosine (Hann-windowed) envelope of peak Amplitude.
type Cosine struct {
	Amplitude float64
	Duration  int64
}

func (c Cosine) DurationNs() int64 { return c.Duration }

func (c Cosine) Envelope(resolutionNs float64) []float64 {
	n, res := sampleCount(c.Duration, resolutionNs)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) * res
		out[i] = c.Amplitude * 0.5 * (1 - math.Cos(2*math.Pi*t/float64(c.Duration)))
	}
	return out
}

// FlatTop holds Amplitude for Duration after RiseFall-ns cosine edges on
// either side; its own Envelope is the plain analytic form. The code
// generator decomposes a long FlatTop into rise/square/fall (§4.4.5),
// cutting the rise and fall samples out of this Envelope; it is also
// used for fingerprinting and off-hardware rendering (plot.go).
type FlatTop struct {
	Amplitude float64
	Duration  int64 // plateau duration, ns
	RiseFall  int64 // edge duration, ns, each side
}

func (f FlatTop) DurationNs() int64 { return f.Duration + 2*f.RiseFall }

func (f FlatTop) Envelope(resolutionNs float64) []float64 {
	n, res := sampleCount(f.DurationNs(), resolutionNs)
	out := make([]float64, n)
	riseEnd := float64(f.RiseFall)
	fallStart := float64(f.RiseFall + f.Duration)
	total := float64(f.DurationNs())
	for i := range out {
		t := float64(i) * res
		switch {
		case f.RiseFall > 0 && t < riseEnd:
			out[i] = f.Amplitude * 0.5 * (1 - math.Cos(math.Pi*t/riseEnd))
		case f.RiseFall > 0 && t >= fallStart:
			out[i] = f.Amplitude * 0.5 * (1 - math.Cos(math.Pi*(total-t)/riseEnd))
		default:
			out[i] = f.Amplitude
		}
	}
	return out
}

// TwoStep holds one amplitude for the first half of Duration and a second
// amplitude for the remainder — used for readout-pulse pre-emphasis.
type TwoStep struct {
	FirstAmplitude  float64
	SecondAmplitude float64
	Duration        int64
}

func (t TwoStep) DurationNs() int64 { return t.Duration }

func (t TwoStep) Envelope(resolutionNs float64) []float64 {
	n, res := sampleCount(t.Duration, resolutionNs)
	out := make([]float64, n)
	half := float64(t.Duration) / 2
	for i := range out {
		if float64(i)*res < half {
			out[i] = t.FirstAmplitude
		} else {
			out[i] = t.SecondAmplitude
		}
	}
	return out
}

// SuddenNetZero is the bias-compensated two-lobe pulse used to drive
// tunable couplers: +Amplitude for Duration/2, an optional zero-crossing
// gap of HalfTime ns, then -Amplitude for the remaining half.
type SuddenNetZero struct {
	Amplitude float64
	Duration  int64
	HalfTime  int64 // ns spent at zero around the midpoint
}

func (s SuddenNetZero) DurationNs() int64 { return s.Duration + s.HalfTime }

func (s SuddenNetZero) Envelope(resolutionNs float64) []float64 {
	n, res := sampleCount(s.DurationNs(), resolutionNs)
	out := make([]float64, n)
	half := float64(s.Duration) / 2
	gapStart := half
	gapEnd := half + float64(s.HalfTime)
	for i := range out {
		t := float64(i) * res
		switch {
		case t < gapStart:
			out[i] = s.Amplitude
		case t < gapEnd:
			out[i] = 0
		default:
			out[i] = -s.Amplitude
		}
	}
	return out
}

// Arbitrary wraps an explicit sample array; Envelope ignores resolutionNs
// since the samples are already the ground truth.
type Arbitrary struct {
	Samples  []float64
	Duration int64
}

func (a Arbitrary) DurationNs() int64 { return a.Duration }

func (a Arbitrary) Envelope(float64) []float64 {
	return append([]float64(nil), a.Samples...)
}

// Chained concatenates child envelopes in order, preserving the union of
// their durations.
type Chained struct {
	Children []Waveform
}

func (c Chained) DurationNs() int64 {
	var total int64
	for _, w := range c.Children {
		total += w.DurationNs()
	}
	return total
}

func (c Chained) Envelope(resolutionNs float64) []float64 {
	var out []float64
	for _, w := range c.Children {
		out = append(out, w.Envelope(resolutionNs)...)
	}
	return out
}
