package waveform

import "strconv"

// FilterState is a predistortion stage's run mode (spec §4.4.9): enabled
// filters normally; bypassed drops the stage entirely (identity
// passthrough); delay_comp replaces the real filtering with a pure delay
// matching the stage's own group delay, so outputs that share a module
// but can't all run the same filter still advance in lockstep.
type FilterState int

const (
	FilterEnabled FilterState = iota
	FilterBypassed
	FilterDelayComp
)

func (s FilterState) String() string {
	switch s {
	case FilterEnabled:
		return "enabled"
	case FilterBypassed:
		return "bypassed"
	case FilterDelayComp:
		return "delay_comp"
	default:
		return "unknown"
	}
}

// delayAware is implemented by filters with a well-defined, constant
// group delay in samples. FIR's is its symmetric half-length; IIR stages
// (BiasTee, Exponential, LFilter) report 0, treating their phase
// contribution as negligible for alignment purposes.
type delayAware interface {
	GroupDelaySamples() int
}

// GroupDelaySamples returns a 32-tap FIR's symmetric group delay.
func (f *FIR) GroupDelaySamples() int { return (FIRTapCount - 1) / 2 }

func groupDelay(f Filter) int {
	if d, ok := f.(delayAware); ok {
		return d.GroupDelaySamples()
	}
	return 0
}

// delayLine is a pure-delay stand-in for a filter coerced to delay_comp:
// it shifts samples by n positions, padding the leading edge with zero,
// so the stage still consumes exactly n samples' worth of latency
// without applying the filter's actual response.
type delayLine struct{ n int }

func (d delayLine) Apply(samples []float64) []float64 {
	out := make([]float64, len(samples))
	for i := d.n; i < len(samples); i++ {
		out[i] = samples[i-d.n]
	}
	return out
}

func (d delayLine) Reset() {}

// ApplyWithState runs samples through c honoring each stage's State:
// Bypassed stages pass through unchanged, DelayComp stages run a
// delayLine of the underlying filter's group delay instead of the real
// filter. states is indexed like c.Stages; a stage past the end of a
// shorter (or nil) slice runs as FilterEnabled.
func (c DistortionChain) ApplyWithState(samples []float64, states []FilterState) []float64 {
	cur := samples
	for i, stage := range c.Stages {
		state := FilterEnabled
		if i < len(states) {
			state = states[i]
		}
		switch state {
		case FilterBypassed:
			continue
		case FilterDelayComp:
			cur = delayLine{n: groupDelay(stage.Filter)}.Apply(cur)
		default:
			prePeak := peakAbs(cur)
			filtered := stage.Filter.Apply(cur)
			if stage.AutoNorm {
				postPeak := peakAbs(filtered)
				if postPeak > 0 {
					scale := prePeak / postPeak
					for j := range filtered {
						filtered[j] *= scale
					}
				}
			} else if stage.NormFactor != 0 {
				for j := range filtered {
					filtered[j] *= stage.NormFactor
				}
			}
			cur = filtered
		}
	}
	return cur
}

// ResolveOutputStates decides the run-mode of every stage across a
// module's sibling outputs, given each output's requested enable/disable
// intent (enabled[output][stage]). Real Qblox modules share a single
// predistortion clock domain across outputs, so if any requested stage
// would make that output's total latency diverge from its siblings',
// every output is coerced to the least common state: either every sibling
// runs the filter or none do, with FilterDelayComp used to keep a
// disabled output's total delay matching an enabled sibling's (spec
// §4.4.9: "desynchronize outputs coerces its state to delay_comp").
// Returns resolved per-output states and a list of coercion warnings.
func ResolveOutputStates(chains map[string]DistortionChain, requested map[string][]bool) (resolved map[string][]FilterState, warnings []string) {
	resolved = make(map[string][]FilterState, len(chains))
	maxStages := 0
	for _, c := range chains {
		if len(c.Stages) > maxStages {
			maxStages = len(c.Stages)
		}
	}
	for stageIdx := 0; stageIdx < maxStages; stageIdx++ {
		anyEnabled := false
		for out, c := range chains {
			if stageIdx >= len(c.Stages) {
				continue
			}
			if stageIdx < len(requested[out]) && requested[out][stageIdx] {
				anyEnabled = true
			}
		}
		for out, c := range chains {
			if stageIdx >= len(c.Stages) {
				continue
			}
			if _, ok := resolved[out]; !ok {
				resolved[out] = make([]FilterState, len(c.Stages))
			}
			want := stageIdx < len(requested[out]) && requested[out][stageIdx]
			switch {
			case want:
				resolved[out][stageIdx] = FilterEnabled
			case anyEnabled:
				resolved[out][stageIdx] = FilterDelayComp
				warnings = append(warnings, "WarnDelayCompCoerced: output "+out+" stage "+strconv.Itoa(stageIdx)+" coerced to delay_comp to match an enabled sibling output")
			default:
				resolved[out][stageIdx] = FilterBypassed
			}
		}
	}
	return resolved, warnings
}
