package ir

import "sync/atomic"

// NodeID is stable across passes and (de)serialization.
type NodeID uint64

var idCounter uint64

func nextID() NodeID { return NodeID(atomic.AddUint64(&idCounter, 1)) }

// Kind discriminates the tagged union of IR nodes. Every consumer
// (scheduler, code generator) exhaustively switches on Kind rather than
// relying on type assertions alone, the way the teacher's gate.Gate
// implementations are dispatched by name/symbol rather than reflection.
type Kind int

const (
	KindBlock Kind = iota
	KindInfiniteLoop
	KindForLoop
	KindLoop
	KindParallel
	KindAverage

	KindPlay
	KindMeasure
	KindAcquire
	KindWait
	KindSync
	KindWaitTrigger
	KindSetFrequency
	KindSetPhase
	KindResetPhase
	KindSetGain
	KindSetOffset
	KindSetMarkers
	KindMeasureReset
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "Block"
	case KindInfiniteLoop:
		return "InfiniteLoop"
	case KindForLoop:
		return "ForLoop"
	case KindLoop:
		return "Loop"
	case KindParallel:
		return "Parallel"
	case KindAverage:
		return "Average"
	case KindPlay:
		return "Play"
	case KindMeasure:
		return "Measure"
	case KindAcquire:
		return "Acquire"
	case KindWait:
		return "Wait"
	case KindSync:
		return "Sync"
	case KindWaitTrigger:
		return "WaitTrigger"
	case KindSetFrequency:
		return "SetFrequency"
	case KindSetPhase:
		return "SetPhase"
	case KindResetPhase:
		return "ResetPhase"
	case KindSetGain:
		return "SetGain"
	case KindSetOffset:
		return "SetOffset"
	case KindSetMarkers:
		return "SetMarkers"
	case KindMeasureReset:
		return "MeasureReset"
	default:
		return "Unknown"
	}
}

// Node is the minimal contract every IR vertex fulfils: an identity and a
// discriminant. Consumers downcast via the concrete struct stored in
// Block.Children (each element's concrete type matches its Kind).
type Node interface {
	ID() NodeID
	Kind() Kind
}

// base is embedded by every node to provide ID()/Kind() without
// boilerplate in each struct.
type base struct {
	id   NodeID
	kind Kind
}

func (b base) ID() NodeID { return b.id }
func (b base) Kind() Kind { return b.kind }

func newBase(k Kind) base { return base{id: nextID(), kind: k} }

// Block is an ordered sequence of children with no semantics of its own.
type Block struct {
	base
	Children []Node
}

// InfiniteLoop repeats its children forever (lowered to an unconditional
// jmp back-edge, §4.4.3).
type InfiniteLoop struct {
	base
	Body *Block
}

// ForLoop iterates Var from Start to Stop inclusive, adding Step each
// iteration (§3.3, §4.4.3).
type ForLoop struct {
	base
	Var   *Variable
	Start float64
	Stop  float64
	Step  float64
	Body  *Block
}

// IterationCount returns the compile-time-known number of iterations.
func (f *ForLoop) IterationCount() int {
	if f.Step == 0 {
		return 0
	}
	n := (f.Stop-f.Start)/f.Step + 1
	if n < 0 {
		return 0
	}
	return int(n + 0.5)
}

// Loop iterates Var over a fixed array of Values, emitted via an indexed
// lookup table (§3.3, §4.4.3).
type Loop struct {
	base
	Var    *Variable
	Values []float64
	Body   *Block
}

// ParallelBranch is one lane of a Parallel node: its own loop variable,
// value table, and body, executed in lockstep with its siblings.
type ParallelBranch struct {
	Var    *Variable
	Values []float64
	Body   *Block
}

// Parallel executes multiple loops of equal iteration count in lockstep.
// Equal length across Branches is an invariant enforced at construction.
type Parallel struct {
	base
	Branches []ParallelBranch
}

// Average is the outermost hardware-averaging loop over Shots.
type Average struct {
	base
	Shots int
	Body  *Block
}

// --- leaves -----------------------------------------------------------

// WaveformRef names a waveform (or IQ pair) to be resolved by Calibration
// during finalization, or already carries the resolved value. Resolved is
// kept as `any` so this package never depends on qprog/waveform — type
// assertions happen in the scheduler/code generator, which depend on both.
type WaveformRef struct {
	Name     string
	Resolved any
}

// WeightsRef is the Acquire/Measure analogue of WaveformRef.
type WeightsRef struct {
	Name     string
	Resolved any
}

// TimeArg is either a literal duration in nanoseconds or a Time-domain
// Variable.
type TimeArg struct {
	Const    int64
	Var      *Variable
	UsesVar  bool
}

// ConstTime returns a TimeArg fixed at ns nanoseconds.
func ConstTime(ns int64) TimeArg { return TimeArg{Const: ns} }

// VarTime returns a TimeArg bound to a Time-domain Variable.
func VarTime(v *Variable) TimeArg { return TimeArg{Var: v, UsesVar: true} }

// FreqArg is either a literal frequency in Hz or a Frequency-domain Variable.
type FreqArg struct {
	ConstHz float64
	Var     *Variable
	UsesVar bool
}

func ConstFreq(hz float64) FreqArg { return FreqArg{ConstHz: hz} }
func VarFreq(v *Variable) FreqArg  { return FreqArg{Var: v, UsesVar: true} }

// PhaseArg is either a literal phase in radians or a Phase-domain Variable.
type PhaseArg struct {
	ConstRad float64
	Var      *Variable
	UsesVar  bool
}

func ConstPhase(rad float64) PhaseArg { return PhaseArg{ConstRad: rad} }
func VarPhase(v *Variable) PhaseArg   { return PhaseArg{Var: v, UsesVar: true} }

// Play emits a waveform (or IQ pair) on Bus. WaitAfterNs, when non-nil,
// overrides the implicit post-play wait (negative values surface
// BadTiming per SPEC_FULL.md Design Decisions #1).
type Play struct {
	base
	Bus         string
	Waveform    WaveformRef
	WaitAfterNs *int64
}

// Measure runs a readout pulse, integrates against Weights, and optionally
// saves the raw ADC trace. Rotation/Threshold are carried for
// backend-agnostic IR completeness (§3.3) but are not consumed by the
// Qblox backend — only SaveADC and Weights are.
type Measure struct {
	base
	Bus       string
	Readout   WaveformRef
	Weights   WeightsRef
	SaveADC   bool
	Rotation  *float64
	Threshold *float64
}

// Acquire is the Qblox-specific acquisition primitive: integrate for
// either an explicit Duration or against Weights.
type Acquire struct {
	base
	Bus      string
	Weights  WeightsRef
	Duration *int64 // nanoseconds, mutually exclusive with Weights.Name/Resolved
	SaveADC  bool
}

// Wait parks Bus for Duration (constant or Time-domain Variable).
type Wait struct {
	base
	Bus      string
	Duration TimeArg
}

// Sync aligns every listed bus to the maximum end-time among them.
type Sync struct {
	base
	Buses []string
}

// WaitTrigger parks Bus waiting for an external trigger-network event.
type WaitTrigger struct {
	base
	Bus      string
	Duration TimeArg
	Address  int
}

type SetFrequency struct {
	base
	Bus  string
	Freq FreqArg
}

type SetPhase struct {
	base
	Bus   string
	Phase PhaseArg
}

type ResetPhase struct {
	base
	Bus string
}

type SetGain struct {
	base
	Bus    string
	GainI  float64
	GainQ  float64
}

// SetOffset accepts a scalar (HasQ=false, pads Q to 0 with a warning per
// SPEC_FULL.md Design Decisions #2) or an explicit (I,Q) pair.
type SetOffset struct {
	base
	Bus     string
	OffsetI float64
	OffsetQ float64
	HasQ    bool
}

// SetMarkers sets the 4-bit marker output mask.
type SetMarkers struct {
	base
	Bus  string
	Mask uint8
}

// MeasureReset implements conditional active reset via the trigger
// network: a measurement on Bus feeds a conditional reset pulse on
// ControlBus addressed by TriggerAddress (§4.4.7).
type MeasureReset struct {
	base
	Bus            string
	Readout        WaveformRef
	Weights        WeightsRef
	ControlBus     string
	ResetPulse     WaveformRef
	TriggerAddress int
}
