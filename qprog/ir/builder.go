package ir

import (
	"fmt"
)

// Builder implements a fluent, scope-aware construction API for QPrograms.
// It follows the teacher's bail-on-first-error discipline (qc/builder):
// every mutating call is a no-op once an error has been recorded, so a
// long chain can be written without checking errors after every step —
// the first failure is surfaced once, at Build().
//
// Nested scopes (ForLoop/Loop/Parallel/InfiniteLoop/Average/Block) are
// opened by passing a body closure rather than explicit Begin/End calls:
// the closure's extent *is* the scope, so a scope can never be left open
// by a forgotten End().
type Builder struct {
	id       string
	vars     []*Variable
	labels   map[string]struct{}
	inScope  map[token]int // variable -> scope depth at which it became visible
	scope    []*Block      // stack of open containers; top = insertion point
	depth    int
	err      error
	built    bool
}

type config struct {
	id string
}

// Option configures a new Builder.
type Option func(*config)

// WithID sets the QProgram's identifier (defaults to empty; callers that
// need one can set it from google/uuid at the service boundary).
func WithID(id string) Option { return func(c *config) { c.id = id } }

// New returns a fresh Builder with an empty root Block.
func New(opts ...Option) *Builder {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	root := &Block{base: newBase(KindBlock)}
	return &Builder{
		id:      cfg.id,
		labels:  make(map[string]struct{}),
		inScope: make(map[token]int),
		scope:   []*Block{root},
	}
}

func (b *Builder) bail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) checkState() bool { return b.built || b.err != nil }

func (b *Builder) top() *Block { return b.scope[len(b.scope)-1] }

func (b *Builder) append(n Node) { b.top().Children = append(b.top().Children, n) }

func (b *Builder) path() string {
	return fmt.Sprintf("depth=%d,node=%d", b.depth, len(b.top().Children))
}

// --- variable declaration ----------------------------------------------

// Variable declares a fresh Variable, not yet in lexical scope. It becomes
// visible to operations once bound as a loop header's iteration variable
// (ForLoop/Loop/a Parallel branch).
func (b *Builder) Variable(label string, domain Domain, scalarKind ...ScalarKind) (*Variable, error) {
	if _, exists := b.labels[label]; exists {
		return nil, DuplicateLabel{Label: label}
	}
	sk := ScalarInt
	if len(scalarKind) > 0 {
		sk = scalarKind[0]
	}
	v := &Variable{id: nextToken(), Label: label, Domain: domain, ScalarKind: sk}
	b.labels[label] = struct{}{}
	b.vars = append(b.vars, v)
	return v, nil
}

// Param declares a Variable and immediately marks it in scope everywhere
// in the program, for values the host injects once per compile rather
// than sweeping via a loop header (spec §4.1: "the program itself for
// program-level parameters").
func (b *Builder) Param(label string, domain Domain, scalarKind ...ScalarKind) (*Variable, error) {
	v, err := b.Variable(label, domain, scalarKind...)
	if err != nil {
		return nil, err
	}
	b.inScope[v.id] = 0
	return v, nil
}

func (b *Builder) checkScope(v *Variable, expected Domain) error {
	if v == nil {
		return nil
	}
	if _, ok := b.inScope[v.id]; !ok {
		return UnknownVariable{Label: v.Label, Path: b.path()}
	}
	if v.Domain != expected {
		return DomainMismatch{Label: v.Label, Got: v.Domain, Expected: expected, Path: b.path()}
	}
	return nil
}

func (b *Builder) bind(v *Variable) {
	b.inScope[v.id] = b.depth
}

func (b *Builder) unbind(v *Variable) {
	delete(b.inScope, v.id)
}

// --- scope-opening constructs -------------------------------------------

func (b *Builder) openScope(body *Block, fn func(*Builder)) {
	b.scope = append(b.scope, body)
	b.depth++
	fn(b)
	b.depth--
	b.scope = b.scope[:len(b.scope)-1]
}

// Block groups fn's operations with no additional semantics.
func (b *Builder) Block(fn func(*Builder)) *Builder {
	if b.checkState() {
		return b
	}
	blk := &Block{base: newBase(KindBlock)}
	b.append(blk)
	b.openScope(blk, fn)
	return b
}

// InfiniteLoop repeats fn's operations forever.
func (b *Builder) InfiniteLoop(fn func(*Builder)) *Builder {
	if b.checkState() {
		return b
	}
	body := &Block{base: newBase(KindBlock)}
	n := &InfiniteLoop{base: newBase(KindInfiniteLoop), Body: body}
	b.append(n)
	b.openScope(body, fn)
	return b
}

// ForLoop iterates v from start to stop inclusive by step, materializing v
// only within fn.
func (b *Builder) ForLoop(v *Variable, start, stop, step float64, fn func(*Builder)) *Builder {
	if b.checkState() {
		return b
	}
	if step == 0 {
		return b.bail(fmt.Errorf("ir: for_loop %q has zero step", v.Label))
	}
	body := &Block{base: newBase(KindBlock)}
	n := &ForLoop{base: newBase(KindForLoop), Var: v, Start: start, Stop: stop, Step: step, Body: body}
	b.append(n)
	b.bind(v)
	b.openScope(body, fn)
	b.unbind(v)
	return b
}

// Loop iterates v over values, materializing v only within fn.
func (b *Builder) Loop(v *Variable, values []float64, fn func(*Builder)) *Builder {
	if b.checkState() {
		return b
	}
	body := &Block{base: newBase(KindBlock)}
	n := &Loop{base: newBase(KindLoop), Var: v, Values: append([]float64(nil), values...), Body: body}
	b.append(n)
	b.bind(v)
	b.openScope(body, fn)
	b.unbind(v)
	return b
}

// ParallelSpec describes one lane of a Parallel construct before it is
// built: the builder assembles the branch bodies by invoking Body for
// each lane in turn against independent scopes.
type ParallelSpec struct {
	Var    *Variable
	Values []float64
	Body   func(*Builder)
}

// Parallel executes every spec's loop in lockstep; all Values slices must
// share the same length (BadSpan otherwise).
func (b *Builder) Parallel(specs ...ParallelSpec) *Builder {
	if b.checkState() {
		return b
	}
	if len(specs) == 0 {
		return b
	}
	counts := make([]int, len(specs))
	for i, s := range specs {
		counts[i] = len(s.Values)
	}
	for i := 1; i < len(counts); i++ {
		if counts[i] != counts[0] {
			return b.bail(BadSpan{Counts: counts})
		}
	}
	branches := make([]ParallelBranch, len(specs))
	n := &Parallel{base: newBase(KindParallel)}
	for i, s := range specs {
		body := &Block{base: newBase(KindBlock)}
		branches[i] = ParallelBranch{Var: s.Var, Values: append([]float64(nil), s.Values...), Body: body}
		b.bind(s.Var)
		b.openScope(body, s.Body)
		b.unbind(s.Var)
	}
	n.Branches = branches
	b.append(n)
	return b
}

// Average wraps fn in the outermost hardware-averaging loop over shots.
func (b *Builder) Average(shots int, fn func(*Builder)) *Builder {
	if b.checkState() {
		return b
	}
	if shots <= 0 {
		return b.bail(fmt.Errorf("ir: average requires shots > 0, got %d", shots))
	}
	body := &Block{base: newBase(KindBlock)}
	n := &Average{base: newBase(KindAverage), Shots: shots, Body: body}
	b.append(n)
	b.openScope(body, fn)
	return b
}

// InsertBlock flattens a precompiled block's children into the current
// scope. The block object itself is never inserted — doing so would let
// the same Node identity appear at multiple positions in the tree, which
// §4.1 forbids. Each child is cloned with a fresh NodeID.
func (b *Builder) InsertBlock(block *Block) *Builder {
	if b.checkState() {
		return b
	}
	if block == nil {
		return b
	}
	for _, c := range block.Children {
		b.append(cloneNode(c))
	}
	return b
}

// --- leaf operations -----------------------------------------------------

// Play emits waveform on bus, named for later Calibration resolution.
func (b *Builder) Play(bus string, waveformName string, waitAfterNs ...int64) *Builder {
	if b.checkState() {
		return b
	}
	p := &Play{base: newBase(KindPlay), Bus: bus, Waveform: WaveformRef{Name: waveformName}}
	if len(waitAfterNs) > 0 {
		w := waitAfterNs[0]
		if w < 0 {
			return b.bail(BadTiming{Bus: bus, WaitNs: w})
		}
		p.WaitAfterNs = &w
	}
	b.append(p)
	return b
}

// Measure runs readoutWaveform on bus, integrating against weights.
func (b *Builder) Measure(bus, readoutWaveform, weights string, saveADC bool) *Builder {
	if b.checkState() {
		return b
	}
	b.append(&Measure{
		base:    newBase(KindMeasure),
		Bus:     bus,
		Readout: WaveformRef{Name: readoutWaveform},
		Weights: WeightsRef{Name: weights},
		SaveADC: saveADC,
	})
	return b
}

// Acquire integrates bus against weights (or, if weights is empty, for
// durationNs nanoseconds) and optionally saves the raw ADC trace.
func (b *Builder) Acquire(bus, weights string, durationNs int64, saveADC bool) *Builder {
	if b.checkState() {
		return b
	}
	a := &Acquire{base: newBase(KindAcquire), Bus: bus, SaveADC: saveADC}
	if weights != "" {
		a.Weights = WeightsRef{Name: weights}
	} else {
		d := durationNs
		a.Duration = &d
	}
	b.append(a)
	return b
}

// Wait parks bus for a constant duration.
func (b *Builder) Wait(bus string, durationNs int64) *Builder {
	if b.checkState() {
		return b
	}
	if durationNs < 0 {
		return b.bail(BadTiming{Bus: bus, WaitNs: durationNs})
	}
	b.append(&Wait{base: newBase(KindWait), Bus: bus, Duration: ConstTime(durationNs)})
	return b
}

// WaitVar parks bus for a duration carried by a Time-domain Variable.
func (b *Builder) WaitVar(bus string, v *Variable) *Builder {
	if b.checkState() {
		return b
	}
	if err := b.checkScope(v, Time); err != nil {
		return b.bail(err)
	}
	b.append(&Wait{base: newBase(KindWait), Bus: bus, Duration: VarTime(v)})
	return b
}

// Sync aligns every listed bus to the maximum end-time among them.
func (b *Builder) Sync(buses ...string) *Builder {
	if b.checkState() {
		return b
	}
	b.append(&Sync{base: newBase(KindSync), Buses: append([]string(nil), buses...)})
	return b
}

// WaitTrigger parks bus waiting for a trigger-network event at address.
func (b *Builder) WaitTrigger(bus string, durationNs int64, address int) *Builder {
	if b.checkState() {
		return b
	}
	b.append(&WaitTrigger{base: newBase(KindWaitTrigger), Bus: bus, Duration: ConstTime(durationNs), Address: address})
	return b
}

// SetFrequency sets bus's NCO frequency in Hz.
func (b *Builder) SetFrequency(bus string, hz float64) *Builder {
	if b.checkState() {
		return b
	}
	b.append(&SetFrequency{base: newBase(KindSetFrequency), Bus: bus, Freq: ConstFreq(hz)})
	return b
}

// SetFrequencyVar sets bus's NCO frequency from a Frequency-domain Variable.
func (b *Builder) SetFrequencyVar(bus string, v *Variable) *Builder {
	if b.checkState() {
		return b
	}
	if err := b.checkScope(v, Frequency); err != nil {
		return b.bail(err)
	}
	b.append(&SetFrequency{base: newBase(KindSetFrequency), Bus: bus, Freq: VarFreq(v)})
	return b
}

// SetPhase sets bus's phase in radians.
func (b *Builder) SetPhase(bus string, rad float64) *Builder {
	if b.checkState() {
		return b
	}
	b.append(&SetPhase{base: newBase(KindSetPhase), Bus: bus, Phase: ConstPhase(rad)})
	return b
}

// SetPhaseVar sets bus's phase from a Phase-domain Variable.
func (b *Builder) SetPhaseVar(bus string, v *Variable) *Builder {
	if b.checkState() {
		return b
	}
	if err := b.checkScope(v, Phase); err != nil {
		return b.bail(err)
	}
	b.append(&SetPhase{base: newBase(KindSetPhase), Bus: bus, Phase: VarPhase(v)})
	return b
}

// ResetPhase zeroes bus's phase accumulator.
func (b *Builder) ResetPhase(bus string) *Builder {
	if b.checkState() {
		return b
	}
	b.append(&ResetPhase{base: newBase(KindResetPhase), Bus: bus})
	return b
}

// SetGain sets bus's AWG gain for I and Q.
func (b *Builder) SetGain(bus string, gainI, gainQ float64) *Builder {
	if b.checkState() {
		return b
	}
	b.append(&SetGain{base: newBase(KindSetGain), Bus: bus, GainI: gainI, GainQ: gainQ})
	return b
}

// SetOffset sets bus's DC offset. A single value pads Q to 0 (a warning is
// raised downstream, not here — see SPEC_FULL.md Design Decisions #2).
func (b *Builder) SetOffset(bus string, offsetI float64, offsetQ ...float64) *Builder {
	if b.checkState() {
		return b
	}
	o := &SetOffset{base: newBase(KindSetOffset), Bus: bus, OffsetI: offsetI}
	if len(offsetQ) > 0 {
		o.OffsetQ = offsetQ[0]
		o.HasQ = true
	}
	b.append(o)
	return b
}

// SetMarkers sets bus's 4-bit marker output mask.
func (b *Builder) SetMarkers(bus string, mask uint8) *Builder {
	if b.checkState() {
		return b
	}
	b.append(&SetMarkers{base: newBase(KindSetMarkers), Bus: bus, Mask: mask})
	return b
}

// MeasureReset implements conditional active reset: a measurement on bus
// feeds a conditional resetPulse on controlBus, addressed by triggerAddress.
func (b *Builder) MeasureReset(bus, readoutWaveform, weights, controlBus, resetPulse string, triggerAddress int) *Builder {
	if b.checkState() {
		return b
	}
	b.append(&MeasureReset{
		base:           newBase(KindMeasureReset),
		Bus:            bus,
		Readout:        WaveformRef{Name: readoutWaveform},
		Weights:        WeightsRef{Name: weights},
		ControlBus:     controlBus,
		ResetPulse:      WaveformRef{Name: resetPulse},
		TriggerAddress: triggerAddress,
	})
	return b
}

// --- finalize ------------------------------------------------------------

// Build freezes the Builder into a Program. The Builder becomes invalid
// after this call, exactly like the teacher's BuildDAG/BuildCircuit.
func (b *Builder) Build() (*Program, error) {
	if b.built {
		return nil, fmt.Errorf("ir: Build already called: %w", ErrBuild)
	}
	if b.err != nil {
		return nil, b.err
	}
	b.built = true
	return &Program{ID: b.id, Variables: b.vars, Root: b.scope[0]}, nil
}

// cloneNode deep-copies n with a fresh NodeID, recursing into children.
// Variable references are shared (identity is preserved on purpose).
func cloneNode(n Node) Node {
	switch t := n.(type) {
	case *Block:
		children := make([]Node, len(t.Children))
		for i, c := range t.Children {
			children[i] = cloneNode(c)
		}
		return &Block{base: newBase(KindBlock), Children: children}
	case *InfiniteLoop:
		return &InfiniteLoop{base: newBase(KindInfiniteLoop), Body: cloneNode(t.Body).(*Block)}
	case *ForLoop:
		return &ForLoop{base: newBase(KindForLoop), Var: t.Var, Start: t.Start, Stop: t.Stop, Step: t.Step, Body: cloneNode(t.Body).(*Block)}
	case *Loop:
		return &Loop{base: newBase(KindLoop), Var: t.Var, Values: append([]float64(nil), t.Values...), Body: cloneNode(t.Body).(*Block)}
	case *Parallel:
		branches := make([]ParallelBranch, len(t.Branches))
		for i, br := range t.Branches {
			branches[i] = ParallelBranch{Var: br.Var, Values: append([]float64(nil), br.Values...), Body: cloneNode(br.Body).(*Block)}
		}
		return &Parallel{base: newBase(KindParallel), Branches: branches}
	case *Average:
		return &Average{base: newBase(KindAverage), Shots: t.Shots, Body: cloneNode(t.Body).(*Block)}
	case *Play:
		cp := *t
		cp.base = newBase(KindPlay)
		return &cp
	case *Measure:
		cp := *t
		cp.base = newBase(KindMeasure)
		return &cp
	case *Acquire:
		cp := *t
		cp.base = newBase(KindAcquire)
		return &cp
	case *Wait:
		cp := *t
		cp.base = newBase(KindWait)
		return &cp
	case *Sync:
		cp := *t
		cp.base = newBase(KindSync)
		cp.Buses = append([]string(nil), t.Buses...)
		return &cp
	case *WaitTrigger:
		cp := *t
		cp.base = newBase(KindWaitTrigger)
		return &cp
	case *SetFrequency:
		cp := *t
		cp.base = newBase(KindSetFrequency)
		return &cp
	case *SetPhase:
		cp := *t
		cp.base = newBase(KindSetPhase)
		return &cp
	case *ResetPhase:
		cp := *t
		cp.base = newBase(KindResetPhase)
		return &cp
	case *SetGain:
		cp := *t
		cp.base = newBase(KindSetGain)
		return &cp
	case *SetOffset:
		cp := *t
		cp.base = newBase(KindSetOffset)
		return &cp
	case *SetMarkers:
		cp := *t
		cp.base = newBase(KindSetMarkers)
		return &cp
	case *MeasureReset:
		cp := *t
		cp.base = newBase(KindMeasureReset)
		return &cp
	default:
		return n
	}
}
