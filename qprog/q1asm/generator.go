package q1asm

import (
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/ir"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/schedule"
	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/waveform"
)

// MinPlayTickNs bounds the duration a single `play` instruction can carry
// as its own wait argument before the generator must fall back to a
// trailing `wait` (spec §4.4.5). It shares Qblox's immediate-operand range
// with MaxWaitNs.
const MinPlayTickNs = MaxWaitNs

// LongSquareThresholdNs and FlatTopThresholdNs gate the decompositions of
// §4.4.5.
const (
	LongSquareThresholdNs = 100
	FlatTopThresholdNs    = 100
)

// squareChunkMin and squareChunkMax bound the chunk search window of
// §4.4.5's long-square-chunking rule.
const (
	squareChunkMin = 100
	squareChunkMax = 500
)

// BusConfig parameterizes one bus's Generate call: backend parameters the
// scheduler doesn't already carry on the Timeline (spec §6.1's per-bus
// backend config, minus what schedule.Config already consumed).
type BusConfig struct {
	MinClockNs     int64
	MinWaitNs      int64
	MaxWaitNs      int64
	RegisterCount  int
	MarkersDefault uint8
	TimeOfFlightNs int64
	MaxAcqIndices  int
	Distortion     waveform.DistortionChain
	FilterStates   []waveform.FilterState // per-stage run mode; nil means every stage FilterEnabled
}

func (c BusConfig) withDefaults() BusConfig {
	if c.MinClockNs <= 0 {
		c.MinClockNs = DefaultMinClockNs
	}
	if c.MinWaitNs <= 0 {
		c.MinWaitNs = MinWaitNs
	}
	if c.MaxWaitNs <= 0 {
		c.MaxWaitNs = MaxWaitNs
	}
	if c.RegisterCount <= 0 {
		c.RegisterCount = DefaultRegisterCount
	}
	if c.MaxAcqIndices <= 0 {
		c.MaxAcqIndices = DefaultMaxAcqIndices
	}
	return c
}

// DefaultMaxAcqIndices is the hardware limit on distinct acquisition
// indices per sequencer (spec §3.6 invariant 5).
const DefaultMaxAcqIndices = 32

// DefaultMinClockNs is Qblox's sequencer clock period: every Time-domain
// quantity must land on a multiple of it (spec §3.6 invariant 2).
const DefaultMinClockNs = 4

// AcquisitionSpec describes one acquisition index's bin layout, carried
// through to the compilation output so callers can reshape raw bin
// buffers back into N-D arrays (spec §4.5).
type AcquisitionSpec struct {
	Index     uint16
	NumBins   int
	LoopShape []int
}

// Output is everything Generate produces for one bus (spec §4.5, minus
// the runtime parameter list, which qprog/output assembles across buses).
type Output struct {
	Program      Program
	Waveforms    []WaveformEntry
	Weights      []WeightEntry
	Acquisitions []AcquisitionSpec
	Warnings     []string
}

type weightRegPair struct{ I, Q Register }

type acqFrame struct {
	index     uint16
	binReg    Register
	numBins   int
	loopShape []int
}

// Generator lowers one bus's scheduled Events into a Q1ASM program. It is
// the heart of the compiler (spec §4.4): register allocation, variable
// domain quantization, loop lowering, wait coalescing, play/acquire
// decomposition, active reset, markers, and predistortion all happen here.
type Generator struct {
	bus string
	cfg BusConfig

	regs        *RegisterAllocator
	waveTable   *table
	weightTable *table
	weightRegs  map[uint64]weightRegPair
	varRegs     map[*ir.Variable]Register

	acqFrames    map[int]*acqFrame // loop-nesting depth -> assigned frame
	acqSpecs     map[uint16]*AcquisitionSpec
	nextAcqIndex uint16
	loopDepth    int
	loopCounts   []int

	needsLatchEn bool

	// pendingUpdate marks a latched real-time parameter (set_freq, set_ph,
	// set_awg_gain, set_awg_offs, set_mrk, reset_ph) written since the last
	// wait. It is consumed by the next wait lowering, which must apply it
	// via upd_param before the wait itself (spec §4.4.4).
	pendingUpdate bool

	labelSeq int
	err      error
	warnings []string

	setup []Instr
	main  []Instr
}

// Generate lowers t's projected events into a complete per-bus Output.
// Compile errors are fatal: on the first one, Generate returns the zero
// Output and the error, per spec §7 ("a partial output is never
// returned").
func Generate(t *schedule.Timeline, cfg BusConfig) (Output, error) {
	cfg = cfg.withDefaults()
	g := &Generator{
		bus:         t.Bus,
		cfg:         cfg,
		regs:        NewRegisterAllocator(cfg.RegisterCount),
		waveTable:   newTable(),
		weightTable: newTable(),
		weightRegs:  make(map[uint64]weightRegPair),
		varRegs:     make(map[*ir.Variable]Register),
		acqFrames:   make(map[int]*acqFrame),
		acqSpecs:    make(map[uint16]*AcquisitionSpec),
	}

	g.collectEvents(t.Events)
	g.waveTable.build()
	g.weightTable.build()
	if g.err != nil {
		return Output{}, g.err
	}

	g.emitSetup()
	g.emitAcqBinInits()
	for _, ev := range t.Events {
		g.emitEvent(ev)
		if g.err != nil {
			return Output{}, g.err
		}
	}
	stop := []Instr{instr("stop")}

	prog := Program{Bus: t.Bus, Setup: g.setup, Main: g.main, Stop: stop}
	return Output{
		Program:      prog,
		Waveforms:    g.waveTable.waveformEntries(),
		Weights:      g.weightTable.weightEntries(),
		Acquisitions: g.acquisitionSpecs(),
		Warnings:     g.warnings,
	}, nil
}

func (g *Generator) fail(err error) {
	if g.err == nil {
		g.err = err
	}
}

func (g *Generator) warn(msg string) {
	g.warnings = append(g.warnings, msg)
}

func (g *Generator) freshLabel(prefix string) string {
	g.labelSeq++
	return prefix + "_" + g.bus + "_" + itoa(g.labelSeq)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// emitSetup lays down the fixed setup preamble (spec §4.4's section
// layout): an initial sync wait, the default marker mask, and a parameter
// update to latch it before main begins.
func (g *Generator) emitSetup() {
	g.setup = append(g.setup,
		instr("wait_sync", arg(int64(g.cfg.MinClockNs))),
		instr("set_mrk", arg(int64(g.cfg.MarkersDefault))),
		instr("upd_param", arg(int64(g.cfg.MinWaitNs))),
	)
	if g.needsLatchEn {
		g.setup = append(g.setup, instr("latch_en", "1"))
	}
}

// collectEvents is the pre-pass that registers every waveform/weight
// channel an events tree touches into the bus's tables, without emitting
// any instruction (spec §5: table indices must be fingerprint-sorted and
// known before any instruction references them).
func (g *Generator) collectEvents(events []schedule.Event) {
	for _, ev := range events {
		g.collectEvent(ev)
	}
}

func (g *Generator) collectEvent(ev schedule.Event) {
	switch ev.Kind {
	case schedule.EventBlock:
		g.collectEvents(ev.Body)
	case schedule.EventInfiniteLoop:
		g.collectEvents(ev.Body)
	case schedule.EventForLoop, schedule.EventLoop, schedule.EventAverage:
		g.withLoopDepth(loopIterationCount(ev), func() { g.collectEvents(ev.Body) })
	case schedule.EventParallel:
		count := 0
		if len(ev.Branches) > 0 {
			count = len(ev.Branches[0].Values)
		}
		g.withLoopDepth(count, func() {
			for _, br := range ev.Branches {
				g.collectEvents(br.Body)
			}
		})
	case schedule.EventPlay:
		g.collectPlay(ev.Waveform)
	case schedule.EventMeasure:
		g.collectPlay(ev.Waveform)
		g.collectWeights(ev.Weights)
		g.assignAcqFrame()
	case schedule.EventAcquire:
		g.collectWeights(ev.Weights)
		g.assignAcqFrame()
	case schedule.EventMeasureReset:
		if ev.Role == schedule.RoleReadout {
			g.collectPlay(ev.Waveform)
			g.collectWeights(ev.Weights)
			g.assignAcqFrame()
		} else {
			g.collectPlay(ev.ResetPulse)
			g.needsLatchEn = true
		}
	}
}

// withLoopDepth pushes iterCount onto the loop-shape stack and increments
// the nesting depth for the duration of fn, used identically by the
// collection pre-pass and by emission so acquisition-index assignment
// (spec §4.4.6: "distinct nesting depths consume distinct acquisition
// indices") lines up between the two passes.
func (g *Generator) withLoopDepth(iterCount int, fn func()) {
	g.loopDepth++
	g.loopCounts = append(g.loopCounts, iterCount)
	fn()
	g.loopCounts = g.loopCounts[:len(g.loopCounts)-1]
	g.loopDepth--
}

// loopIterationCount returns a projected loop/average Event's compile-time
// known repetition count.
func loopIterationCount(ev schedule.Event) int {
	switch ev.Kind {
	case schedule.EventForLoop:
		if ev.Step == 0 {
			return 0
		}
		n := (ev.Stop-ev.Start)/ev.Step + 1
		if n < 0 {
			return 0
		}
		return int(n + 0.5)
	case schedule.EventLoop:
		return len(ev.Values)
	case schedule.EventAverage:
		return ev.Shots
	default:
		return 0
	}
}

// emitEvent dispatches one projected Event to its lowering, appending the
// resulting instructions to g.main.
func (g *Generator) emitEvent(ev schedule.Event) {
	switch ev.Kind {
	case schedule.EventBlock:
		for _, child := range ev.Body {
			g.emitEvent(child)
		}
	case schedule.EventInfiniteLoop:
		g.emitInfiniteLoop(ev)
	case schedule.EventForLoop:
		g.emitForLoop(ev)
	case schedule.EventLoop:
		g.emitLoop(ev)
	case schedule.EventAverage:
		g.emitAverage(ev)
	case schedule.EventParallel:
		g.emitParallel(ev)
	case schedule.EventPlay:
		g.main = append(g.main, g.emitPlay(ev.Waveform)...)
	case schedule.EventMeasure:
		g.main = append(g.main, g.emitPlay(ev.Waveform)...)
		g.main = append(g.main, g.emitAcquire(ev.Weights, ev.Duration, ev.SaveADC)...)
	case schedule.EventAcquire:
		g.main = append(g.main, g.emitAcquire(ev.Weights, ev.Duration, ev.SaveADC)...)
	case schedule.EventWait:
		g.main = append(g.main, g.emitWait(ev)...)
	case schedule.EventWaitTrigger:
		g.main = append(g.main, g.emitWaitTrigger(ev)...)
	case schedule.EventSetFrequency:
		g.main = append(g.main, g.emitSetFrequency(ev.Freq)...)
	case schedule.EventSetPhase:
		g.main = append(g.main, g.emitSetPhase(ev.Phase)...)
	case schedule.EventResetPhase:
		g.main = append(g.main, instr("reset_ph"))
		g.pendingUpdate = true
	case schedule.EventSetGain:
		g.main = append(g.main, g.emitSetGain(ev.GainI, ev.GainQ)...)
	case schedule.EventSetOffset:
		g.main = append(g.main, g.emitSetOffset(ev)...)
	case schedule.EventSetMarkers:
		g.main = append(g.main, g.emitSetMarkers(ev.Mask)...)
	case schedule.EventMeasureReset:
		g.main = append(g.main, g.emitMeasureReset(ev)...)
	}
}

// resolveWaitNs quantizes a Wait/WaitTrigger event's constant duration.
// Callers must check ev.Duration.UsesVar first; a variable-backed wait
// reads its already-materialized register directly instead (see
// emitWait/emitWaitTrigger), since the wait length isn't known until
// runtime and so can't be split into MAX_WAIT-sized chunks at compile
// time.
func (g *Generator) resolveWaitNs(ev schedule.Event) int64 {
	return QuantizeTime(ev.Duration.Const, g.cfg.MinClockNs)
}

// consumePendingUpdate returns the upd_param instruction latching an
// outstanding real-time parameter update, if any, clearing the flag. The
// update itself consumes MinWaitNs ns (spec §4.4.4).
func (g *Generator) consumePendingUpdate() []Instr {
	if !g.pendingUpdate {
		return nil
	}
	g.pendingUpdate = false
	return []Instr{instr("upd_param", arg(int64(MinWaitNs)))}
}

// foldPendingUpdate applies an outstanding latched-parameter update ahead
// of a wait of duration w, per spec §4.4.4: "the update consumes MIN_WAIT
// ns, which is subtracted from the following wait. If the wait is <=
// 2*MIN_WAIT, it is replaced entirely by the update." It returns the
// upd_param instruction (if any), the remaining wait duration, and
// whether the wait was replaced outright.
func (g *Generator) foldPendingUpdate(w int64) (pre []Instr, remaining int64, replaced bool) {
	if !g.pendingUpdate {
		return nil, w, false
	}
	pre = g.consumePendingUpdate()
	if w <= 2*MinWaitNs {
		return pre, 0, true
	}
	return pre, w - MinWaitNs, false
}

// emitWait lowers a Wait event, chunking a compile-time-known duration
// across MAX_WAIT-sized `wait` instructions (spec §4.4.4) or, for a
// Time-domain variable's wait, emitting a single `wait Rvar` that reads
// the duration from its register at runtime. Either path first folds in
// any pending latched-parameter update (spec §4.4.4 final paragraph).
func (g *Generator) emitWait(ev schedule.Event) []Instr {
	if ev.Duration.UsesVar {
		r, ok := g.varRegs[ev.Duration.Var]
		if !ok {
			g.fail(errUndeclaredVar(g.bus, ev.Duration.Var.Label))
			return nil
		}
		return append(g.consumePendingUpdate(), instr("wait", r.String()))
	}
	return g.EmitWait(g.resolveWaitNs(ev))
}

// emitWaitTrigger lowers a WaitTrigger event. Q1ASM's mnemonic set has no
// dedicated trigger-wait instruction, so this reuses plain `wait` with the
// trigger address carried as a comment for debug visibility. A pending
// latched-parameter update folds in the same way as emitWait.
func (g *Generator) emitWaitTrigger(ev schedule.Event) []Instr {
	if ev.Duration.UsesVar {
		r, ok := g.varRegs[ev.Duration.Var]
		if !ok {
			g.fail(errUndeclaredVar(g.bus, ev.Duration.Var.Label))
			return nil
		}
		return append(g.consumePendingUpdate(), instrC("wait_trigger addr="+itoa(ev.TriggerAddress), "wait", r.String()))
	}
	pre, w, replaced := g.foldPendingUpdate(g.resolveWaitNs(ev))
	if replaced {
		return pre
	}
	return append(pre, instrC("wait_trigger addr="+itoa(ev.TriggerAddress), "wait", arg(w)))
}

// acquisitionSpecs returns the collected AcquisitionSpecs ordered by index.
func (g *Generator) acquisitionSpecs() []AcquisitionSpec {
	out := make([]AcquisitionSpec, 0, len(g.acqSpecs))
	for i := uint16(0); i < g.nextAcqIndex; i++ {
		if s, ok := g.acqSpecs[i]; ok {
			out = append(out, *s)
		}
	}
	return out
}
