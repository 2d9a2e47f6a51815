package schedule

import (
	"fmt"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

// BusDelay is a per-bus constant delay (spec §4.3). A positive DelayNs
// shifts every play on that bus later by an initial wait; a negative
// DelayNs is only recorded as a diagnostic and makes no other bus wait.
type BusDelay struct {
	Bus     string
	DelayNs int64
}

// Config parameterizes a Partition run.
type Config struct {
	Buses      []string
	Delays     []BusDelay
	MinClockNs int64
	AutoSync   bool // spec §4.3 Policy: implicit Sync at each loop tail
}

// Result is the scheduler's output: one Timeline per bus plus structured
// diagnostics accumulated during projection.
type Result struct {
	Timelines   map[string]*Timeline
	Diagnostics []Diagnostic
}

type partitioner struct {
	cfg         Config
	timelines   map[string]*Timeline
	diagnostics []Diagnostic
}

// Partition walks prog (already calibration-resolved — see
// waveform.ResolveProgram) and projects it onto each configured bus's
// timeline, per spec §4.3.
func Partition(prog *ir.Program, cfg Config) (*Result, error) {
	if cfg.MinClockNs <= 0 {
		cfg.MinClockNs = DefaultMinClockNs
	}
	p := &partitioner{cfg: cfg, timelines: make(map[string]*Timeline, len(cfg.Buses))}
	for _, bus := range cfg.Buses {
		p.timelines[bus] = NewTimeline(bus, cfg.AutoSync)
	}
	for _, d := range cfg.Delays {
		t, ok := p.timelines[d.Bus]
		if !ok {
			continue
		}
		t.DelayNs = d.DelayNs
		// A positive delay shifts every play on this bus later, realized
		// as an initial wait before anything else is emitted. A negative
		// delay is recorded as a DiagSynced diagnostic only: the bus
		// clock never decreases (§3.6 invariant 2), and no other bus is
		// shifted to compensate, so this bus starts at 0 exactly like a
		// bus with no delay.
		if d.DelayNs > 0 {
			t.PadTo(d.DelayNs)
		} else if d.DelayNs < 0 {
			p.diagnostics = append(p.diagnostics, Diagnostic{Kind: DiagSynced, Bus: d.Bus, DeltaNs: d.DelayNs, AtNs: 0})
		}
	}

	if err := p.projectBlock(prog.Root); err != nil {
		return nil, err
	}

	return &Result{Timelines: p.timelines, Diagnostics: p.diagnostics}, nil
}

func (p *partitioner) timeline(bus string) (*Timeline, error) {
	t, ok := p.timelines[bus]
	if !ok {
		return nil, fmt.Errorf("schedule: bus %q not in BusMapping", bus)
	}
	return t, nil
}

// projectBlock appends every child's projection onto each affected bus's
// Events, recursing into containers. It returns an error only for
// structural problems (unknown bus); it never fails on timing alone —
// timing problems are represented as Diagnostics.
func (p *partitioner) projectBlock(n *ir.Block) error {
	for _, child := range n.Children {
		if err := p.projectNode(child); err != nil {
			return err
		}
	}
	return nil
}

func (p *partitioner) projectNode(n ir.Node) error {
	switch t := n.(type) {
	case *ir.Block:
		return p.projectBlock(t)
	case *ir.InfiniteLoop:
		return p.projectLoopLike(t.Body, func(body []Event) Event {
			return Event{Kind: EventInfiniteLoop, Body: body}
		})
	case *ir.ForLoop:
		return p.projectLoopLike(t.Body, func(body []Event) Event {
			return Event{Kind: EventForLoop, Var: t.Var, Start: t.Start, Stop: t.Stop, Step: t.Step, Body: body}
		})
	case *ir.Loop:
		return p.projectLoopLike(t.Body, func(body []Event) Event {
			return Event{Kind: EventLoop, Var: t.Var, Values: t.Values, Body: body}
		})
	case *ir.Average:
		return p.projectLoopLike(t.Body, func(body []Event) Event {
			return Event{Kind: EventAverage, Shots: t.Shots, Body: body}
		})
	case *ir.Parallel:
		return p.projectParallel(t)
	case *ir.Play:
		return p.projectPlay(t)
	case *ir.Measure:
		return p.projectMeasure(t)
	case *ir.Acquire:
		return p.projectAcquire(t)
	case *ir.Wait:
		return p.projectWait(t)
	case *ir.Sync:
		return p.projectSync(t)
	case *ir.WaitTrigger:
		return p.projectWaitTrigger(t)
	case *ir.SetFrequency:
		return p.projectLeaf(t.Bus, Event{Kind: EventSetFrequency, Bus: t.Bus, Freq: t.Freq})
	case *ir.SetPhase:
		return p.projectLeaf(t.Bus, Event{Kind: EventSetPhase, Bus: t.Bus, Phase: t.Phase})
	case *ir.ResetPhase:
		return p.projectLeaf(t.Bus, Event{Kind: EventResetPhase, Bus: t.Bus})
	case *ir.SetGain:
		return p.projectLeaf(t.Bus, Event{Kind: EventSetGain, Bus: t.Bus, GainI: t.GainI, GainQ: t.GainQ})
	case *ir.SetOffset:
		return p.projectLeaf(t.Bus, Event{Kind: EventSetOffset, Bus: t.Bus, OffsetI: t.OffsetI, OffsetQ: t.OffsetQ, HasQ: t.HasQ})
	case *ir.SetMarkers:
		return p.projectLeaf(t.Bus, Event{Kind: EventSetMarkers, Bus: t.Bus, Mask: t.Mask})
	case *ir.MeasureReset:
		return p.projectMeasureReset(t)
	default:
		return fmt.Errorf("schedule: unsupported node kind %v", n.Kind())
	}
}

// projectLoopLike recurses into a container body on the same timelines
// (so clocks keep advancing across the container boundary), then wraps
// the accumulated per-bus events.
func (p *partitioner) projectLoopLike(body *ir.Block, wrap func([]Event) Event) error {
	starts := make(map[string]int, len(p.timelines))
	for bus, t := range p.timelines {
		starts[bus] = len(t.Events)
	}
	if err := p.projectBlock(body); err != nil {
		return err
	}
	if p.cfg.AutoSync {
		p.implicitTailSync()
	}
	for bus, t := range p.timelines {
		start := starts[bus]
		if start == len(t.Events) {
			continue // this bus untouched by the container
		}
		inner := append([]Event(nil), t.Events[start:]...)
		t.Events = append(t.Events[:start], wrap(inner))
	}
	return nil
}

// projectParallel lowers each branch on the same shared base clock, then
// re-synchronizes every affected bus (spec §4.3).
func (p *partitioner) projectParallel(par *ir.Parallel) error {
	starts := make(map[string]int, len(p.timelines))
	for bus, t := range p.timelines {
		starts[bus] = len(t.Events)
	}
	baseNow := make(map[string]int64, len(p.timelines))
	for bus, t := range p.timelines {
		baseNow[bus] = t.NowNs
	}

	branches := make([]Branch, len(par.Branches))
	touched := make(map[string]bool)
	var maxNow int64
	for i, br := range par.Branches {
		for bus, t := range p.timelines {
			t.NowNs = baseNow[bus]
		}
		branchStarts := make(map[string]int, len(p.timelines))
		for bus, t := range p.timelines {
			branchStarts[bus] = len(t.Events)
		}
		if err := p.projectBlock(br.Body); err != nil {
			return err
		}
		branchBody := make([]Event, 0)
		for bus, t := range p.timelines {
			start := branchStarts[bus]
			if start < len(t.Events) {
				branchBody = append(branchBody, t.Events[start:]...)
				t.Events = t.Events[:start]
				touched[bus] = true
			}
			if t.NowNs > maxNow {
				maxNow = t.NowNs
			}
		}
		branches[i] = Branch{Var: br.Var, Values: br.Values, Body: branchBody}
	}

	for bus, t := range p.timelines {
		start := starts[bus]
		t.NowNs = baseNow[bus]
		t.Events = t.Events[:start]
	}
	evt := Event{Kind: EventParallel, Branches: branches}
	for bus := range touched {
		t := p.timelines[bus]
		t.Events = append(t.Events, evt)
		if maxNow > t.NowNs {
			delta := maxNow - t.NowNs
			t.PadTo(maxNow)
			p.diagnostics = append(p.diagnostics, Diagnostic{Kind: DiagSynced, Bus: bus, DeltaNs: delta, AtNs: maxNow})
		}
	}
	return nil
}

func (p *partitioner) implicitTailSync() {
	var maxNow int64
	for _, t := range p.timelines {
		if t.NowNs > maxNow {
			maxNow = t.NowNs
		}
	}
	for bus, t := range p.timelines {
		if t.NowNs < maxNow {
			delta := maxNow - t.NowNs
			t.PadTo(maxNow)
			p.diagnostics = append(p.diagnostics, Diagnostic{Kind: DiagImplicitSync, Bus: bus, DeltaNs: delta, AtNs: maxNow})
		}
	}
}

func (p *partitioner) projectLeaf(bus string, evt Event) error {
	t, err := p.timeline(bus)
	if err != nil {
		return err
	}
	t.Events = append(t.Events, evt)
	return nil
}

func (p *partitioner) projectPlay(op *ir.Play) error {
	t, err := p.timeline(op.Bus)
	if err != nil {
		return err
	}
	advance := durationOf(op.Waveform)
	if op.WaitAfterNs != nil {
		advance = *op.WaitAfterNs
	}
	t.Events = append(t.Events, Event{Kind: EventPlay, Bus: op.Bus, Waveform: op.Waveform})
	p.advanceWithPadding(t, advance)
	return nil
}

func (p *partitioner) projectMeasure(op *ir.Measure) error {
	t, err := p.timeline(op.Bus)
	if err != nil {
		return err
	}
	t.Events = append(t.Events, Event{Kind: EventMeasure, Bus: op.Bus, Waveform: op.Readout, Weights: op.Weights, SaveADC: op.SaveADC})
	p.advanceWithPadding(t, durationOf(op.Readout))
	return nil
}

func (p *partitioner) projectAcquire(op *ir.Acquire) error {
	t, err := p.timeline(op.Bus)
	if err != nil {
		return err
	}
	advance := int64(0)
	durArg := ir.TimeArg{}
	if op.Duration != nil {
		advance = *op.Duration
		durArg = ir.ConstTime(*op.Duration)
	} else if w, ok := op.Weights.Resolved.(waveform.Weights); ok {
		advance = w.DurationNs()
	}
	t.Events = append(t.Events, Event{Kind: EventAcquire, Bus: op.Bus, Weights: op.Weights, Duration: durArg, SaveADC: op.SaveADC})
	p.advanceWithPadding(t, advance)
	return nil
}

func (p *partitioner) projectWait(op *ir.Wait) error {
	t, err := p.timeline(op.Bus)
	if err != nil {
		return err
	}
	t.Events = append(t.Events, Event{Kind: EventWait, Bus: op.Bus, Duration: op.Duration})
	p.advanceWithPadding(t, op.Duration.Const)
	return nil
}

func (p *partitioner) projectWaitTrigger(op *ir.WaitTrigger) error {
	t, err := p.timeline(op.Bus)
	if err != nil {
		return err
	}
	t.Events = append(t.Events, Event{Kind: EventWaitTrigger, Bus: op.Bus, Duration: op.Duration, TriggerAddress: op.Address})
	p.advanceWithPadding(t, op.Duration.Const)
	return nil
}

// propagationWaitNs is the default active-reset trigger propagation delay
// (spec §4.4.7).
const propagationWaitNs = 400

func (p *partitioner) projectMeasureReset(op *ir.MeasureReset) error {
	readout, err := p.timeline(op.Bus)
	if err != nil {
		return err
	}
	control, err := p.timeline(op.ControlBus)
	if err != nil {
		return err
	}
	readout.Events = append(readout.Events, Event{
		Kind: EventMeasureReset, Bus: op.Bus, Waveform: op.Readout, Weights: op.Weights,
		ControlBus: op.ControlBus, ResetPulse: op.ResetPulse, TriggerAddress: op.TriggerAddress, Role: RoleReadout,
	})
	p.advanceWithPadding(readout, durationOf(op.Readout)+propagationWaitNs)

	// spec §4.4.7: the control bus's conditional sequence runs "latch_en
	// in setup, then sync, set_conditional(...)" — align both buses to
	// the later clock before projecting the control bus's half, the same
	// max-now alignment projectSync/projectParallel perform, so
	// set_conditional never fires before the readout's acquisition and
	// trigger-propagation delay has elapsed on the control bus's own
	// timeline.
	maxNow := readout.NowNs
	if control.NowNs > maxNow {
		maxNow = control.NowNs
	}
	if delta := maxNow - readout.NowNs; delta > 0 {
		readout.PadTo(maxNow)
		p.diagnostics = append(p.diagnostics, Diagnostic{Kind: DiagSynced, Bus: op.Bus, DeltaNs: delta, AtNs: maxNow})
	}
	if delta := maxNow - control.NowNs; delta > 0 {
		control.PadTo(maxNow)
		p.diagnostics = append(p.diagnostics, Diagnostic{Kind: DiagSynced, Bus: op.ControlBus, DeltaNs: delta, AtNs: maxNow})
	}

	control.Events = append(control.Events, Event{
		Kind: EventMeasureReset, Bus: op.Bus, Waveform: op.Readout, Weights: op.Weights,
		ControlBus: op.ControlBus, ResetPulse: op.ResetPulse, TriggerAddress: op.TriggerAddress, Role: RoleControl,
	})
	p.advanceWithPadding(control, durationOf(op.ResetPulse))
	return nil
}

func (p *partitioner) projectSync(op *ir.Sync) error {
	var maxNow int64
	for _, bus := range op.Buses {
		t, err := p.timeline(bus)
		if err != nil {
			return err
		}
		if t.NowNs > maxNow {
			maxNow = t.NowNs
		}
	}
	for _, bus := range op.Buses {
		t, _ := p.timeline(bus)
		if t.NowNs < maxNow {
			delta := maxNow - t.NowNs
			t.PadTo(maxNow)
			p.diagnostics = append(p.diagnostics, Diagnostic{Kind: DiagSynced, Bus: bus, DeltaNs: delta, AtNs: maxNow})
		}
	}
	return nil
}

// advanceWithPadding advances t by durationNs, then pads to MIN_CLOCK
// alignment, recording a diagnostic when padding was non-zero (spec §4.3:
// "the scheduler pads the earlier one to alignment and reports via a
// structured diagnostic").
func (p *partitioner) advanceWithPadding(t *Timeline, durationNs int64) {
	t.Advance(durationNs)
	before := t.NowNs
	padded := t.AlignToClock(p.cfg.MinClockNs)
	if padded > 0 {
		p.diagnostics = append(p.diagnostics, Diagnostic{Kind: DiagPadded, Bus: t.Bus, DeltaNs: padded, AtNs: before})
	}
}

// durationOf returns the nanosecond duration of a resolved WaveformRef,
// whether it resolved to a single Waveform or an IQPair.
func durationOf(ref ir.WaveformRef) int64 {
	switch w := ref.Resolved.(type) {
	case waveform.Waveform:
		return w.DurationNs()
	case waveform.IQPair:
		return w.DurationNs()
	default:
		return 0
	}
}
